package mold

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Converter converts raw values into a field's type. Converters are consulted
// by the TryConvert post-processor before the built-in coercions.
type Converter interface {
	// CanConvertFrom reports whether values of source can be converted.
	// source is nil for nil values.
	CanConvertFrom(pc *ProcessorContext, source reflect.Type) bool

	// ConvertFrom converts value. Returning ErrConverterInapplicable defers to
	// the next strategy.
	ConvertFrom(pc *ProcessorContext, culture language.Tag, value any) (any, error)
}

// ConverterProvider is implemented by field or element types that supply
// their own converter. The method is called on the zero value.
type ConverterProvider interface {
	Converter() Converter
}

// HTML is a string known to hold markup.
type HTML string

func (h HTML) String() string { return string(h) }

var (
	htmlType     = reflect.TypeFor[HTML]()
	stringerType = reflect.TypeFor[fmt.Stringer]()
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
)

// Markup wraps string values into HTML when the target is HTML.
type Markup struct{}

// Process implements Processor.
func (Markup) Process(value any, pc *ProcessorContext) (any, error) {
	target := pc.Target()
	if target == nil || isNil(value) {
		return value, nil
	}
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
	}
	if target != htmlType {
		return value, nil
	}
	switch v := value.(type) {
	case HTML:
		return v, nil
	case string:
		return HTML(v), nil
	case fmt.Stringer:
		return HTML(v.String()), nil
	}
	return value, nil
}

// Sequence reconciles single values and sequences: a single value headed for
// a sequence target is wrapped, a sequence headed for a single target is
// reduced to its first element, or nil when empty.
type Sequence struct{}

// Process implements Processor.
func (Sequence) Process(value any, pc *ProcessorContext) (any, error) {
	target := pc.Target()
	if target == nil || isNil(value) || reflect.TypeOf(value).AssignableTo(target) {
		return value, nil
	}

	_, targetSeq := sequenceElem(target)
	items, valueSeq := sequenceValues(value)

	switch {
	case targetSeq && !valueSeq:
		if n, ok := asNode(value); ok {
			return []Node{n}, nil
		}
		rv := reflect.ValueOf(value)
		out := reflect.MakeSlice(reflect.SliceOf(rv.Type()), 1, 1)
		out.Index(0).Set(rv)
		return out.Interface(), nil
	case !targetSeq && valueSeq:
		if len(items) == 0 {
			return nil, nil
		}
		return items[0].Interface(), nil
	}
	return value, nil
}

// Recursive converts nodes, and sequences of nodes, into struct-shaped
// targets by re-entering the engine with the running chain and culture.
type Recursive struct{}

// Process implements Processor.
func (Recursive) Process(value any, pc *ProcessorContext) (any, error) {
	target := pc.Target()
	if target == nil || isNil(value) || reflect.TypeOf(value).AssignableTo(target) {
		return value, nil
	}

	if n, ok := asNode(value); ok {
		if !nestable(target) {
			return value, nil
		}
		return pc.Convert(n, target)
	}

	elem, ok := sequenceElem(target)
	if !ok || !nestable(elem) {
		return value, nil
	}
	nodes, ok := asNodes(value)
	if !ok {
		return value, nil
	}
	out := reflect.MakeSlice(reflect.SliceOf(elem), 0, len(nodes))
	for _, n := range nodes {
		v, err := pc.Convert(n, elem)
		if err != nil {
			return nil, err
		}
		if v == nil {
			out = reflect.Append(out, reflect.Zero(elem))
			continue
		}
		out = reflect.Append(out, reflect.ValueOf(v))
	}
	return out.Interface(), nil
}

// nestable reports whether nodes can be converted into t by the engine.
func nestable(t reflect.Type) bool {
	if t.Kind() == reflect.Interface || t == timeType || t.Kind() == reflect.Ptr && t.Elem() == timeType {
		return false
	}
	if _, ok := lookupConstructor(t); ok {
		return true
	}
	return t.Kind() == reflect.Struct || t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct
}

// TryConvert is the final post-processor. It coerces the value into the
// target type through field converters, type-supplied converters and the
// built-in scalar and sequence coercions. Failures leave the value unchanged.
type TryConvert struct{}

// Process implements Processor.
func (TryConvert) Process(value any, pc *ProcessorContext) (any, error) {
	target := pc.Target()
	if target == nil {
		return value, nil
	}
	if out, ok := coerce(pc, value, target, pc.converters); ok {
		return out, nil
	}
	return value, nil
}

// converterProcessor exposes a Converter as a processor.
type converterProcessor struct {
	conv Converter
}

func (c converterProcessor) Process(value any, pc *ProcessorContext) (any, error) {
	out, ok, err := applyConverter(pc, c.conv, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return value, nil
	}
	return out, nil
}

// AsProcessor returns a processor that applies conv when it accepts the value
// and passes the value through otherwise.
func AsProcessor(conv Converter) Processor {
	return converterProcessor{conv: conv}
}

func applyConverter(pc *ProcessorContext, conv Converter, value any) (any, bool, error) {
	var src reflect.Type
	if value != nil {
		src = reflect.TypeOf(value)
	}
	if !conv.CanConvertFrom(pc, src) {
		return nil, false, nil
	}
	out, err := conv.ConvertFrom(pc, pc.Culture, value)
	if errors.Is(err, ErrConverterInapplicable) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// providedConverter returns the converter supplied by t, if any.
func providedConverter(t reflect.Type) (Converter, bool) {
	p, ok := provider[ConverterProvider](t)
	if !ok {
		return nil, false
	}
	c := p.Converter()
	return c, c != nil
}

// coerce converts value into target. It reports false when no strategy
// produced an assignable value.
func coerce(pc *ProcessorContext, value any, target reflect.Type, convs []Converter) (any, bool) {
	if isNil(value) {
		return value, true
	}
	if reflect.TypeOf(value).AssignableTo(target) {
		return value, true
	}

	candidates := convs
	if c, ok := providedConverter(target); ok {
		candidates = append(append([]Converter(nil), convs...), c)
	}
	for _, c := range candidates {
		out, ok, err := applyConverter(pc, c, value)
		if err != nil || !ok {
			continue
		}
		if out == nil || reflect.TypeOf(out).AssignableTo(target) {
			return out, true
		}
	}

	return convertValue(pc, reflect.ValueOf(value), target, convs)
}

func convertValue(pc *ProcessorContext, rv reflect.Value, target reflect.Type, convs []Converter) (any, bool) {
	for rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Type().AssignableTo(target) {
		return rv.Interface(), true
	}

	if target.Kind() == reflect.Ptr {
		v, ok := coerce(pc, rv.Interface(), target.Elem(), convs)
		if !ok || v == nil {
			return nil, false
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(reflect.ValueOf(v))
		return p.Interface(), true
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		return coerce(pc, rv.Elem().Interface(), target, convs)
	}

	if elem, ok := sequenceElem(target); ok {
		items, ok := sequenceValues(rv.Interface())
		if !ok {
			return nil, false
		}
		out := make([]reflect.Value, 0, len(items))
		for _, item := range items {
			v, ok := coerce(pc, item.Interface(), elem, convs)
			if !ok {
				return nil, false
			}
			if v == nil {
				out = append(out, reflect.Zero(elem))
				continue
			}
			out = append(out, reflect.ValueOf(v))
		}
		return makeSequence(target, out).Interface(), true
	}

	return convertScalar(rv, target)
}

func convertScalar(rv reflect.Value, target reflect.Type) (any, bool) {
	src := rv.Type()

	if target == timeType {
		s, ok := stringOf(rv)
		if !ok {
			return nil, false
		}
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
		if err != nil {
			return nil, false
		}
		return t, true
	}

	if target == durationType {
		if s, ok := stringOf(rv); ok {
			d, err := time.ParseDuration(strings.TrimSpace(s))
			if err != nil {
				return nil, false
			}
			return d, true
		}
	}

	switch target.Kind() {
	case reflect.String:
		if s, ok := stringOf(rv); ok {
			return reflect.ValueOf(s).Convert(target).Interface(), true
		}
		switch {
		case isInt(src.Kind()):
			return reflect.ValueOf(strconv.FormatInt(rv.Int(), 10)).Convert(target).Interface(), true
		case isUint(src.Kind()):
			return reflect.ValueOf(strconv.FormatUint(rv.Uint(), 10)).Convert(target).Interface(), true
		case isFloat(src.Kind()):
			return reflect.ValueOf(strconv.FormatFloat(rv.Float(), 'f', -1, 64)).Convert(target).Interface(), true
		case src.Kind() == reflect.Bool:
			return reflect.ValueOf(strconv.FormatBool(rv.Bool())).Convert(target).Interface(), true
		}

	case reflect.Bool:
		switch {
		case src.Kind() == reflect.String:
			b, err := strconv.ParseBool(strings.TrimSpace(rv.String()))
			if err != nil {
				return nil, false
			}
			return reflect.ValueOf(b).Convert(target).Interface(), true
		case isInt(src.Kind()):
			return reflect.ValueOf(rv.Int() != 0).Convert(target).Interface(), true
		case isUint(src.Kind()):
			return reflect.ValueOf(rv.Uint() != 0).Convert(target).Interface(), true
		case src.Kind() == reflect.Bool:
			return rv.Convert(target).Interface(), true
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		switch {
		case isNumeric(src.Kind()):
			return rv.Convert(target).Interface(), true
		case src.Kind() == reflect.String:
			return parseNumber(strings.TrimSpace(rv.String()), target)
		case src.Kind() == reflect.Bool:
			n := int64(0)
			if rv.Bool() {
				n = 1
			}
			return reflect.ValueOf(n).Convert(target).Interface(), true
		}

	default:
		if src.Kind() == target.Kind() && src.ConvertibleTo(target) {
			return rv.Convert(target).Interface(), true
		}
	}

	return nil, false
}

func parseNumber(s string, target reflect.Type) (any, bool) {
	switch {
	case isInt(target.Kind()):
		n, err := strconv.ParseInt(s, 10, target.Bits())
		if err != nil {
			return nil, false
		}
		return reflect.ValueOf(n).Convert(target).Interface(), true
	case isUint(target.Kind()):
		n, err := strconv.ParseUint(s, 10, target.Bits())
		if err != nil {
			return nil, false
		}
		return reflect.ValueOf(n).Convert(target).Interface(), true
	default:
		f, err := strconv.ParseFloat(s, target.Bits())
		if err != nil {
			return nil, false
		}
		return reflect.ValueOf(f).Convert(target).Interface(), true
	}
}

// stringOf returns the text of string-kinded values and Stringers.
func stringOf(rv reflect.Value) (string, bool) {
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	if rv.Type().Implements(stringerType) {
		return rv.Interface().(fmt.Stringer).String(), true
	}
	return "", false
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumeric(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}

// sequenceValues returns the elements of a slice, array or iter.Seq value.
// Strings and byte slices are not sequences.
func sequenceValues(v any) ([]reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	if _, ok := sequenceElem(rv.Type()); !ok {
		return nil, false
	}

	if rv.Kind() == reflect.Func {
		var out []reflect.Value
		if rv.IsNil() {
			return out, true
		}
		yield := reflect.MakeFunc(rv.Type().In(0), func(args []reflect.Value) []reflect.Value {
			out = append(out, args[0])
			return []reflect.Value{reflect.ValueOf(true)}
		})
		rv.Call([]reflect.Value{yield})
		return out, true
	}

	out := make([]reflect.Value, rv.Len())
	for i := range out {
		out[i] = rv.Index(i)
	}
	return out, true
}

// makeSequence builds a value of sequence type t holding items.
func makeSequence(t reflect.Type, items []reflect.Value) reflect.Value {
	switch t.Kind() {
	case reflect.Array:
		out := reflect.New(t).Elem()
		for i := 0; i < len(items) && i < t.Len(); i++ {
			out.Index(i).Set(items[i])
		}
		return out
	case reflect.Func:
		snapshot := append([]reflect.Value(nil), items...)
		return reflect.MakeFunc(t, func(args []reflect.Value) []reflect.Value {
			for _, item := range snapshot {
				if !args[0].Call([]reflect.Value{item})[0].Bool() {
					break
				}
			}
			return nil
		})
	default:
		out := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			out.Index(i).Set(item)
		}
		return out
	}
}

// emptySequence returns a non-nil empty value of sequence type t.
func emptySequence(t reflect.Type) reflect.Value {
	return makeSequence(t, nil)
}

// Integer is the constraint of enum-like named integer types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// EnumConverter converts names and numbers into a named integer type.
// Name matching is case-insensitive. With Flags, comma-separated names and
// sequences of values are OR-ed together.
type EnumConverter[T Integer] struct {
	names map[string]T
	flags bool
}

// NewEnumConverter returns a converter for T using the given name table.
func NewEnumConverter[T Integer](names map[string]T) *EnumConverter[T] {
	c := &EnumConverter[T]{names: make(map[string]T, len(names))}
	for k, v := range names {
		c.names[strings.ToLower(k)] = v
	}
	return c
}

// Flags enables bitwise combination of multiple values.
func (c *EnumConverter[T]) Flags() *EnumConverter[T] {
	c.flags = true
	return c
}

// CanConvertFrom implements Converter.
func (c *EnumConverter[T]) CanConvertFrom(_ *ProcessorContext, source reflect.Type) bool {
	if source == nil {
		return true
	}
	k := source.Kind()
	if k == reflect.String || isInt(k) || isUint(k) {
		return true
	}
	if k == reflect.Slice || k == reflect.Array {
		ek := source.Elem().Kind()
		return ek == reflect.String || isInt(ek) || isUint(ek) || ek == reflect.Interface
	}
	return false
}

// ConvertFrom implements Converter.
func (c *EnumConverter[T]) ConvertFrom(_ *ProcessorContext, _ language.Tag, value any) (any, error) {
	if value == nil {
		return T(0), nil
	}

	var parts []reflect.Value
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		if strings.TrimSpace(rv.String()) == "" {
			return T(0), nil
		}
		for _, s := range strings.Split(rv.String(), ",") {
			parts = append(parts, reflect.ValueOf(strings.TrimSpace(s)))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, rv.Index(i))
		}
	default:
		parts = []reflect.Value{rv}
	}

	if len(parts) > 1 && !c.flags {
		return nil, fmt.Errorf("%w: %d values for %s", ErrConverterInapplicable, len(parts), reflect.TypeFor[T]())
	}

	var out T
	for _, p := range parts {
		v, err := c.one(p)
		if err != nil {
			return nil, err
		}
		out |= v
	}
	return out, nil
}

func (c *EnumConverter[T]) one(rv reflect.Value) (T, error) {
	for rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch {
	case rv.Kind() == reflect.String:
		s := strings.TrimSpace(rv.String())
		if v, ok := c.names[strings.ToLower(s)]; ok {
			return v, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return T(n), nil
		}
	case isInt(rv.Kind()):
		return T(rv.Int()), nil
	case isUint(rv.Kind()):
		return T(rv.Uint()), nil
	}
	return 0, fmt.Errorf("%w: %v is not a %s", ErrConverterInapplicable, rv, reflect.TypeFor[T]())
}
