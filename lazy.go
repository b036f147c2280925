package mold

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// Lazy holds a property value that is resolved on first access. Declaring a
// field as Lazy[T] opts it into deferred evaluation; the engine binds a
// one-shot computation to the field and Get runs it at most once.
//
// A Lazy that was never bound by the engine reports the value set with Set,
// or the zero value of T.
type Lazy[T any] struct {
	cell *thunk
	set  bool
	val  T
}

// NewLazy returns a Lazy already holding v.
func NewLazy[T any](v T) Lazy[T] {
	return Lazy[T]{set: true, val: v}
}

// Get resolves and returns the value. Errors raised by the processor chain
// surface here, on every call, without re-running the chain.
func (l *Lazy[T]) Get() (T, error) {
	if l.set || l.cell == nil {
		return l.val, nil
	}
	v, err := l.cell.force()
	if err != nil {
		var zero T
		return zero, err
	}
	if v == nil {
		var zero T
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: lazy value of type %T is not %s", ErrConversionUnresolvable, v, reflect.TypeFor[T]())
	}
	return t, nil
}

// Value returns the resolved value, discarding any error.
func (l *Lazy[T]) Value() T {
	v, _ := l.Get() //nolint:errcheck // Value is the error-free accessor
	return v
}

// Set replaces the value, detaching any pending computation.
func (l *Lazy[T]) Set(v T) {
	l.cell = nil
	l.set = true
	l.val = v
}

// Evaluated reports whether the value is available without computation.
func (l *Lazy[T]) Evaluated() bool {
	return l.set || l.cell == nil || l.cell.done()
}

// MarshalJSON encodes the resolved value.
func (l Lazy[T]) MarshalJSON() ([]byte, error) {
	v, err := l.Get()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (l *Lazy[T]) bind(t *thunk) {
	l.cell = t
	l.set = false
}

func (l *Lazy[T]) valueType() reflect.Type {
	return reflect.TypeFor[T]()
}

// lazyCell is implemented by *Lazy[T].
type lazyCell interface {
	bind(t *thunk)
	valueType() reflect.Type
}

var lazyCellType = reflect.TypeFor[lazyCell]()

// thunk is a one-shot memoized computation.
type thunk struct {
	once  sync.Once
	fn    func() (any, error)
	value any
	err   error
	ran   bool
	mu    sync.Mutex
}

func newThunk(fn func() (any, error)) *thunk {
	return &thunk{fn: fn}
}

func (t *thunk) force() (any, error) {
	t.once.Do(func() {
		v, err := t.fn()
		t.mu.Lock()
		t.value, t.err, t.ran = v, err, true
		t.fn = nil
		t.mu.Unlock()
	})
	return t.value, t.err
}

func (t *thunk) done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ran
}

// proxy owns the deferred computations of one converted instance and binds
// them into the instance's Lazy fields. The instance keeps its public shape;
// reads of lazy fields delegate to the bound thunks.
type proxy struct {
	instance reflect.Value // pointer to struct
	thunks   map[string]*thunk
}

func newProxy(instance reflect.Value) *proxy {
	return &proxy{instance: instance, thunks: make(map[string]*thunk)}
}

// register binds fn as the computation behind field f.
func (p *proxy) register(f *Field, fn func() (any, error)) {
	p.thunks[f.Name] = newThunk(fn)
	cell := p.instance.Elem().FieldByIndex(f.Index).Addr().Interface().(lazyCell)
	cell.bind(p.thunks[f.Name])
}

// Len returns the number of deferred properties.
func (p *proxy) Len() int {
	return len(p.thunks)
}
