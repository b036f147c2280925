package mold

import (
	"fmt"
	"reflect"
	"sync"
)

// Factory builds a processor from tag arguments.
type Factory func(args []string) (Processor, error)

// DefaultProcessorProvider is implemented by model types that resolve
// untagged fields with their own processor. The method is called on the
// zero value.
type DefaultProcessorProvider interface {
	DefaultProcessor() Processor
}

// ProcessorProvider is implemented by field or element types that contribute
// processors to every chain producing them. The method is called on the zero
// value.
type ProcessorProvider interface {
	Processors() []Processor
}

// Registry holds the processors, converters and handlers available to an
// Engine. All methods are safe for concurrent use; readers receive snapshots.
type Registry struct {
	mu         sync.RWMutex
	fallback   func() Processor
	global     map[reflect.Type][]Processor
	post       []Processor
	factories  map[string]Factory
	converters map[string]Converter
	handlers   map[reflect.Type][]Handler
}

// NewRegistry returns a registry holding the built-in processors. The post
// list is Markup, Sequence, Recursive, TryConvert.
func NewRegistry() *Registry {
	return &Registry{
		fallback:   func() Processor { return Property{} },
		global:     make(map[reflect.Type][]Processor),
		post:       []Processor{Markup{}, Sequence{}, Recursive{}, TryConvert{}},
		factories:  builtinFactories(),
		converters: make(map[string]Converter),
		handlers:   make(map[reflect.Type][]Handler),
	}
}

// DefaultProcessorFor returns the processor used for untagged fields of
// modelType. The model type's own DefaultProcessor wins over the registry
// default.
func (r *Registry) DefaultProcessorFor(modelType reflect.Type) Processor {
	if p, ok := provider[DefaultProcessorProvider](modelType); ok {
		if dp := p.DefaultProcessor(); dp != nil {
			return dp
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback()
}

// SetDefaultProcessor replaces the registry default.
func (r *Registry) SetDefaultProcessor(fn func() Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = fn
}

// RegisterGlobal appends p to the processors applied to every chain that
// produces t. Duplicates accumulate.
func (r *Registry) RegisterGlobal(t reflect.Type, p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global[t] = append(r.global[t], p)
}

// GlobalFor returns a snapshot of the global processors for t.
func (r *Registry) GlobalFor(t reflect.Type) []Processor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Processor(nil), r.global[t]...)
}

// PostProcessors returns a snapshot of the post-processor list.
func (r *Registry) PostProcessors() []Processor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Processor(nil), r.post...)
}

// InsertPostProcessor inserts p at pos, clamped to the list bounds.
func (r *Registry) InsertPostProcessor(pos int, p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos = max(0, min(pos, len(r.post)))
	r.post = append(r.post[:pos], append([]Processor{p}, r.post[pos:]...)...)
}

// AppendPostProcessor adds p at the end of the post list.
func (r *Registry) AppendPostProcessor(p Processor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.post = append(r.post, p)
}

// RemovePostProcessor removes every post-processor with the dynamic type of p.
func (r *Registry) RemovePostProcessor(p Processor) {
	t := reflect.TypeOf(p)
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.post[:0]
	for _, q := range r.post {
		if reflect.TypeOf(q) != t {
			kept = append(kept, q)
		}
	}
	r.post = kept
}

// SetPostProcessors replaces the post list with the named processors, built
// without arguments.
func (r *Registry) SetPostProcessors(names ...string) error {
	post := make([]Processor, 0, len(names))
	for _, name := range names {
		p, err := r.Processor(name, nil)
		if err != nil {
			return err
		}
		post = append(post, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.post = post
	return nil
}

// RegisterProcessor makes a named processor available to tags.
func (r *Registry) RegisterProcessor(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Processor builds the named processor.
func (r *Registry) Processor(name string, args []string) (Processor, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProcessor, name)
	}
	return f(args)
}

// RegisterConverter makes a named converter available to converter tags.
func (r *Registry) RegisterConverter(name string, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[name] = c
}

// Converter returns the named converter.
func (r *Registry) Converter(name string) (Converter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.converters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConverter, name)
	}
	return c, nil
}

// RegisterHandler adds a conversion handler for modelType.
func (r *Registry) RegisterHandler(modelType reflect.Type, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[modelType] = append(r.handlers[modelType], h)
}

// HandlersFor returns a snapshot of the handlers registered for modelType.
func (r *Registry) HandlersFor(modelType reflect.Type) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Handler(nil), r.handlers[modelType]...)
}

// provider returns the zero value of t, or of the struct t points to, as I.
// Interface types never provide.
func provider[I any](t reflect.Type) (I, bool) {
	var zero I
	if t == nil {
		return zero, false
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Interface || !reflect.PointerTo(t).Implements(reflect.TypeFor[I]()) {
		return zero, false
	}
	v, ok := reflect.New(t).Interface().(I)
	return v, ok
}
