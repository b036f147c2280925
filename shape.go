package mold

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/zoobzio/sentinel"
)

func init() {
	sentinel.Tag(TagName)
}

// Field describes one writable property of a model type.
type Field struct {
	Name     string
	Index    []int
	Type     reflect.Type // Declared type; T for Lazy[T] fields
	Declared reflect.Type // Type of the struct field itself
	Lazy     bool
	Ignored  bool
	Cache    bool
	CacheTTL time.Duration

	tokens     []tagToken
	converters []string
	meta       sentinel.FieldMetadata
}

// Meta returns the sentinel metadata of the field.
func (f *Field) Meta() sentinel.FieldMetadata {
	return f.meta
}

// Shape is the cached construction and property metadata of a target type.
type Shape struct {
	Type      reflect.Type // Requested target type
	Struct    reflect.Type // Underlying struct type, nil when not struct-shaped
	Arity     int          // Constructor arity, -1 when no constructor applies
	ParamType reflect.Type // Parameter type of a one-argument constructor
	Fields    []*Field     // All visible writable fields, in declaration order
	Lazy      []*Field     // Lazy, not ignored
	Eager     []*Field     // Eager, not ignored

	ctor reflect.Value
	err  error
}

var (
	shapes       sync.Map // map[reflect.Type]*Shape
	constructors sync.Map // map[reflect.Type]reflect.Value
)

// ShapeOf returns the memoized shape of t. Concurrent callers may compute the
// same shape twice; the results are equal.
func ShapeOf(t reflect.Type) (*Shape, error) {
	if s, ok := shapes.Load(t); ok {
		shape := s.(*Shape)
		return shape, shape.err
	}
	shape := buildShape(t)
	shapes.Store(t, shape)
	return shape, shape.err
}

// RegisterConstructor registers fn as the constructor for the type it returns.
// fn must be a function returning exactly one value. A constructor replaces
// zero-value construction: zero arguments, or one Node argument, are supported;
// any other arity makes the type unconvertible unless the node itself fits.
func RegisterConstructor(fn any) error {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return fmt.Errorf("%w: constructor is not a function", ErrUnsupportedShape)
	}
	ft := rv.Type()
	if ft.NumOut() != 1 || ft.IsVariadic() {
		return fmt.Errorf("%w: constructor must return exactly one value", ErrUnsupportedShape)
	}
	out := ft.Out(0)
	constructors.Store(out, rv)
	forgetShape(out)
	return nil
}

// forgetShape drops cached shapes related to t.
func forgetShape(t reflect.Type) {
	shapes.Delete(t)
	if t.Kind() == reflect.Ptr {
		shapes.Delete(t.Elem())
	} else {
		shapes.Delete(reflect.PointerTo(t))
	}
}

// resetShapes clears the shape and constructor caches.
func resetShapes() {
	shapes.Range(func(k, _ any) bool {
		shapes.Delete(k)
		return true
	})
	constructors.Range(func(k, _ any) bool {
		constructors.Delete(k)
		return true
	})
}

func buildShape(t reflect.Type) *Shape {
	shape := &Shape{Type: t, Arity: -1}

	if t.Kind() == reflect.Struct {
		shape.Struct = t
	} else if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct {
		shape.Struct = t.Elem()
	}

	if ctor, ok := lookupConstructor(t); ok {
		shape.ctor = ctor
		shape.Arity = ctor.Type().NumIn()
		if shape.Arity == 1 {
			shape.ParamType = ctor.Type().In(0)
		}
	} else if shape.Struct != nil {
		shape.Arity = 0
	}

	if shape.Struct == nil {
		return shape
	}

	meta := scanStruct(shape.Struct)
	for i := range meta.Fields {
		fm := meta.Fields[i]
		f, err := buildField(shape.Struct, fm)
		if err != nil {
			shape.err = err
			return shape
		}
		shape.Fields = append(shape.Fields, f)
		if f.Ignored {
			continue
		}
		if f.Lazy {
			shape.Lazy = append(shape.Lazy, f)
		} else {
			shape.Eager = append(shape.Eager, f)
		}
	}

	return shape
}

func lookupConstructor(t reflect.Type) (reflect.Value, bool) {
	if c, ok := constructors.Load(t); ok {
		return c.(reflect.Value), true
	}
	if t.Kind() == reflect.Struct {
		if c, ok := constructors.Load(reflect.PointerTo(t)); ok {
			return c.(reflect.Value), true
		}
	}
	if t.Kind() == reflect.Ptr {
		if c, ok := constructors.Load(t.Elem()); ok {
			return c.(reflect.Value), true
		}
	}
	return reflect.Value{}, false
}

func buildField(owner reflect.Type, fm sentinel.FieldMetadata) (*Field, error) {
	tag, err := parseTag(fm.Tags[TagName])
	if err != nil {
		return nil, &ShapeError{Err: err, Type: owner, Field: fm.Name}
	}

	f := &Field{
		Name:       fm.Name,
		Index:      fm.Index,
		Type:       fm.ReflectType,
		Declared:   fm.ReflectType,
		Ignored:    tag.Ignore,
		Cache:      tag.Cache,
		CacheTTL:   tag.CacheTTL,
		tokens:     tag.Processors,
		converters: tag.Converters,
		meta:       fm,
	}

	if elem, ok := lazyValueType(fm.ReflectType); ok {
		f.Lazy = true
		f.Type = elem
		setKind(&f.meta, elem)
	} else if tag.Lazy && !tag.Ignore {
		return nil, newShapeError(ErrInvalidLazyDeclaration, owner, fm.Name)
	}

	return f, nil
}

// scanStruct collects the exported, settable fields of rt as sentinel metadata.
// Fields promoted through embedded pointers are skipped because populating them
// would require allocating the embedded value.
func scanStruct(rt reflect.Type) sentinel.Metadata {
	spec := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for _, sf := range reflect.VisibleFields(rt) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		if throughPointer(rt, sf.Index) {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        map[string]string{},
		}
		setKind(&fm, sf.Type)
		if val, ok := sf.Tag.Lookup(TagName); ok {
			fm.Tags[TagName] = val
		}

		spec.Fields = append(spec.Fields, fm)
	}

	return spec
}

func throughPointer(rt reflect.Type, index []int) bool {
	t := rt
	for i, idx := range index {
		ft := t.Field(idx).Type
		if i == len(index)-1 {
			return false
		}
		if ft.Kind() == reflect.Ptr {
			return true
		}
		t = ft
	}
	return false
}

func setKind(fm *sentinel.FieldMetadata, t reflect.Type) {
	switch t.Kind() {
	case reflect.Struct:
		fm.Kind = sentinel.KindStruct
	case reflect.Ptr:
		fm.Kind = sentinel.KindPointer
	case reflect.Slice, reflect.Array:
		fm.Kind = sentinel.KindSlice
	case reflect.Map:
		fm.Kind = sentinel.KindMap
	case reflect.Interface:
		fm.Kind = sentinel.KindInterface
	default:
		fm.Kind = sentinel.KindScalar
	}
}

// instantiate creates an instance following the shape's construction strategy.
// Struct-shaped results are returned as a pointer to the struct; when the node
// itself is used, the node value is returned and populate is false.
func (s *Shape) instantiate(node Node) (inst reflect.Value, populate bool, err error) {
	switch {
	case s.ctor.IsValid() && s.Arity == 0:
		return s.fromConstructor(s.ctor.Call(nil)[0])
	case s.ctor.IsValid() && s.Arity == 1 && s.ParamType == nodeType:
		return s.fromConstructor(s.ctor.Call([]reflect.Value{reflect.ValueOf(&node).Elem()})[0])
	case s.ctor.IsValid() && s.Arity == 1 && reflect.TypeOf(node).AssignableTo(s.ParamType):
		return s.fromConstructor(s.ctor.Call([]reflect.Value{reflect.ValueOf(node)})[0])
	case !s.ctor.IsValid() && s.Struct != nil:
		return reflect.New(s.Struct), true, nil
	case reflect.TypeOf(node).AssignableTo(s.Type):
		return reflect.ValueOf(node), false, nil
	}
	return reflect.Value{}, false, newShapeError(ErrUnsupportedShape, s.Type, "")
}

func (s *Shape) fromConstructor(out reflect.Value) (reflect.Value, bool, error) {
	if s.Struct == nil {
		return out, false, nil
	}
	if out.Kind() == reflect.Ptr {
		if out.IsNil() {
			return reflect.New(s.Struct), true, nil
		}
		return out, true, nil
	}
	p := reflect.New(s.Struct)
	p.Elem().Set(out)
	return p, true, nil
}

// lazyValueType reports whether t is a Lazy[T] and returns T.
func lazyValueType(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Struct || !reflect.PointerTo(t).Implements(lazyCellType) {
		return nil, false
	}
	return reflect.New(t).Interface().(lazyCell).valueType(), true
}

// sequenceElem reports whether t is a sequence shape (slice, array or
// iter.Seq) and returns its element type. Byte slices are not sequences.
func sequenceElem(t reflect.Type) (reflect.Type, bool) {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		return t.Elem(), true
	case reflect.Func:
		if t.NumIn() != 1 || t.NumOut() != 0 {
			return nil, false
		}
		yield := t.In(0)
		if yield.Kind() != reflect.Func || yield.NumIn() != 1 || yield.NumOut() != 1 || yield.Out(0).Kind() != reflect.Bool {
			return nil, false
		}
		return yield.In(0), true
	}
	return nil, false
}
