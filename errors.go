package mold

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrTypeMismatch indicates a supplied instance is not assignable to the target type.
	ErrTypeMismatch = errors.New("instance does not match target type")

	// ErrUnsupportedShape indicates the target type cannot be instantiated from a node.
	ErrUnsupportedShape = errors.New("unsupported target shape")

	// ErrInvalidLazyDeclaration indicates a field is tagged lazy but is not a Lazy[T].
	ErrInvalidLazyDeclaration = errors.New("invalid lazy declaration")

	// ErrConverterInapplicable indicates a converter declined the source type.
	// It is never returned from Convert; the next fallback is tried instead.
	ErrConverterInapplicable = errors.New("converter inapplicable")

	// ErrConversionUnresolvable indicates no strategy produced an assignable value.
	// The property keeps its current value.
	ErrConversionUnresolvable = errors.New("conversion unresolvable")

	// ErrMaxDepth indicates nested conversion exceeded the configured depth.
	ErrMaxDepth = errors.New("maximum conversion depth exceeded")

	// ErrInvalidTag indicates a mold struct tag could not be parsed.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrUnknownProcessor indicates a tag named a processor that is not registered.
	ErrUnknownProcessor = errors.New("unknown processor")

	// ErrUnknownConverter indicates a tag named a converter that is not registered.
	ErrUnknownConverter = errors.New("unknown converter")

	// ErrDecode indicates a document could not be decoded into nodes.
	ErrDecode = errors.New("decode failed")
)

// ShapeError is a structural error about a target type or one of its fields.
type ShapeError struct {
	Err   error        // Underlying sentinel error
	Type  reflect.Type // Offending type
	Field string       // Offending field, if any
}

func (e *ShapeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s.%s", e.Err.Error(), typeName(e.Type), e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), typeName(e.Type))
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

// PropertyError represents a failure while resolving a single property.
type PropertyError struct {
	Err   error        // Underlying sentinel or processor error
	Type  reflect.Type // Model type
	Field string       // Field being resolved
	Cause error        // Original error, when Err is a sentinel
}

func (e *PropertyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resolve %s.%s: %s: %v", typeName(e.Type), e.Field, e.Err.Error(), e.Cause)
	}
	return fmt.Sprintf("resolve %s.%s: %v", typeName(e.Type), e.Field, e.Err)
}

func (e *PropertyError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// DecodeError represents a document decoding failure.
type DecodeError struct {
	ContentType string
	Cause       error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %v", ErrDecode.Error(), e.ContentType, e.Cause)
	}
	return fmt.Sprintf("%s (%s)", ErrDecode.Error(), e.ContentType)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

func newShapeError(sentinel error, t reflect.Type, field string) error {
	return &ShapeError{Err: sentinel, Type: t, Field: field}
}

// propertySentinels are lifted into PropertyError.Err when a chain error
// wraps one of them.
var propertySentinels = []error{
	ErrTypeMismatch,
	ErrUnsupportedShape,
	ErrInvalidLazyDeclaration,
	ErrConversionUnresolvable,
	ErrMaxDepth,
	ErrInvalidTag,
	ErrUnknownProcessor,
	ErrUnknownConverter,
	ErrDecode,
}

func newPropertyError(err error, t reflect.Type, field string) error {
	for _, sentinel := range propertySentinels {
		if err != sentinel && errors.Is(err, sentinel) {
			return &PropertyError{Err: sentinel, Type: t, Field: field, Cause: err}
		}
	}
	return &PropertyError{Err: err, Type: t, Field: field}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
