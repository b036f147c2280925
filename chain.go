package mold

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"golang.org/x/text/language"
)

// Processor transforms a value at one position of a property's processor chain.
// The first processor of a chain receives the node being converted; each
// following processor receives the previous output.
type Processor interface {
	Process(value any, pc *ProcessorContext) (any, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(value any, pc *ProcessorContext) (any, error)

// Process implements Processor.
func (f ProcessorFunc) Process(value any, pc *ProcessorContext) (any, error) {
	return f(value, pc)
}

// Ordered is implemented by processors carrying an explicit order key.
// Processors without it have order 0.
type Ordered interface {
	Order() int
}

// ProcessorContext is the per-position state handed to processors.
type ProcessorContext struct {
	Node       Node         // Node being converted (after any redirect)
	ModelType  reflect.Type // Type being populated
	Field      *Field       // Field being resolved
	Culture    language.Tag // Resolved culture of the call
	Dictionary Dictionary   // Localization lookup, may be nil
	Chain      *Chain       // Context store shared by the whole call tree

	ctx        context.Context
	engine     *Engine
	state      *callState
	target     reflect.Type
	converters []Converter
}

// Context returns the context.Context of the conversion call.
func (pc *ProcessorContext) Context() context.Context {
	if pc.ctx == nil {
		return context.Background()
	}
	return pc.ctx
}

// Target returns the type the chain must produce: the field type, or the
// value type of a Lazy field.
func (pc *ProcessorContext) Target() reflect.Type {
	if pc.target != nil {
		return pc.target
	}
	if pc.Field != nil {
		return pc.Field.Type
	}
	return nil
}

// Convert converts node into t within the current call tree, sharing the
// chain and culture of the running conversion.
func (pc *ProcessorContext) Convert(node Node, t reflect.Type) (any, error) {
	if pc.engine == nil {
		return nil, newShapeError(ErrUnsupportedShape, t, "")
	}
	return pc.engine.nested(pc.Context(), pc.state, node, t, pc.Culture, pc.Chain)
}

// Chain stores processor context instances by context type for one root
// conversion and every nested conversion it triggers. Lazy fields resolve on
// the chain of the call that created them, possibly from several goroutines,
// so access to the store is synchronized. The context instances themselves
// are not.
type Chain struct {
	mu       sync.RWMutex
	contexts map[reflect.Type]any
}

// NewChain returns a Chain seeded with caller-supplied context instances.
// Each seed must be a pointer; it is stored under its element type.
func NewChain(seeds ...any) *Chain {
	c := &Chain{contexts: make(map[reflect.Type]any)}
	for _, s := range seeds {
		c.Seed(s)
	}
	return c
}

// Seed stores v as the instance for its context type, replacing any existing one.
func (c *Chain) Seed(v any) {
	if v == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contexts[contextKey(reflect.TypeOf(v))] = v
}

// GetOrCreate returns the instance stored for t, creating it with create on
// first request. create runs under the chain's lock and must not use the chain.
func (c *Chain) GetOrCreate(t reflect.Type, create func() any) any {
	key := contextKey(t)

	c.mu.RLock()
	v, ok := c.contexts[key]
	c.mu.RUnlock()
	if ok {
		return v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.contexts[key]; ok {
		return v
	}
	v = create()
	c.contexts[key] = v
	return v
}

// Len returns the number of stored context instances.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.contexts)
}

func contextKey(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

// ContextBase can be embedded in custom processor contexts. Embedding types are
// re-bound to the requesting ProcessorContext every time ContextFor returns them.
type ContextBase struct {
	*ProcessorContext
}

func (b *ContextBase) bind(pc *ProcessorContext) {
	b.ProcessorContext = pc
}

type binder interface {
	bind(pc *ProcessorContext)
}

// ContextFor returns the call-wide instance of context type C, creating it on
// first use. Processors use it to share state across properties and nested
// conversions.
func ContextFor[C any](pc *ProcessorContext) *C {
	v := pc.Chain.GetOrCreate(reflect.TypeFor[C](), func() any { return new(C) })
	c := v.(*C)
	if b, ok := any(c).(binder); ok {
		b.bind(pc)
	}
	return c
}

// Multi is a composite processor that feeds a value through its children in turn.
type Multi struct {
	Processors []Processor
	order      int
}

// NewMulti returns a composite processor over ps.
func NewMulti(ps ...Processor) *Multi {
	return &Multi{Processors: ps}
}

// WithOrder sets the order key of the composite.
func (m *Multi) WithOrder(order int) *Multi {
	m.order = order
	return m
}

// Order implements Ordered.
func (m *Multi) Order() int { return m.order }

// Process implements Processor.
func (m *Multi) Process(value any, pc *ProcessorContext) (any, error) {
	var err error
	for _, p := range m.Processors {
		value, err = p.Process(value, pc)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

// withOrder overrides the order key of a processor.
type withOrder struct {
	Processor
	order int
}

func (o withOrder) Order() int { return o.order }

// OrderOf returns the order key of p.
func OrderOf(p Processor) int {
	if o, ok := p.(Ordered); ok {
		return o.Order()
	}
	return 0
}

// sortProcessors sorts ps by order key, keeping declaration order for ties.
func sortProcessors(ps []Processor) {
	sort.SliceStable(ps, func(i, j int) bool {
		return OrderOf(ps[i]) < OrderOf(ps[j])
	})
}

// Dictionary resolves localized strings.
type Dictionary interface {
	Lookup(key string, culture language.Tag) (string, bool)
}

// MapDictionary is a Dictionary backed by a single map, ignoring culture.
type MapDictionary map[string]string

// Lookup implements Dictionary.
func (d MapDictionary) Lookup(key string, _ language.Tag) (string, bool) {
	v, ok := d[key]
	return v, ok
}
