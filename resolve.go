package mold

import (
	"context"
	"reflect"

	"golang.org/x/text/language"
)

// callState tracks the position of a conversion in its call tree.
type callState struct {
	depth int
}

// conversion is the state of one (root or nested) conversion.
type conversion struct {
	engine   *Engine
	ctx      context.Context
	state    *callState
	shape    *Shape
	node     Node // current node, replaced by redirecting handlers
	culture  language.Tag
	chain    *Chain
	instance reflect.Value // pointer to struct
}

// nested converts node within an existing call tree.
func (e *Engine) nested(ctx context.Context, state *callState, node Node, t reflect.Type, culture language.Tag, chain *Chain) (any, error) {
	if isNil(node) {
		return nil, nil
	}
	depth := 1
	if state != nil {
		depth = state.depth + 1
	}
	if chain == nil {
		chain = NewChain()
	}
	return e.convert(ctx, &callState{depth: depth}, node, t, culture, chain, &callOptions{})
}

func (e *Engine) convert(ctx context.Context, state *callState, node Node, t reflect.Type, culture language.Tag, chain *Chain, o *callOptions) (result any, err error) {
	if e.config.MaxDepth > 0 && state.depth > e.config.MaxDepth {
		return nil, newShapeError(ErrMaxDepth, t, "")
	}

	start := e.clock.Now()
	ctx, finish := e.telemetry.begin(ctx, t, node, state.depth)
	emitConvertStart(ctx, typeName(t), node.ID(), state.depth, culture.String())

	cached := false
	defer func() {
		d := e.clock.Since(start)
		emitConvertComplete(ctx, typeName(t), node.ID(), d, err)
		finish(ConversionEvent{
			Type:      t,
			ContentID: node.ID(),
			Depth:     state.depth,
			Cached:    cached,
			Error:     err,
			Duration:  d,
			Timestamp: e.clock.Now(),
		})
	}()

	shape, err := ShapeOf(t)
	if err != nil {
		return nil, err
	}

	build := func() (any, error) {
		return e.build(ctx, state, shape, node, culture, chain, o)
	}

	policy, ok := provider[Cacheable](t)
	if !ok || o.instance != nil {
		return build()
	}

	key := Key{ContentID: node.ID(), Type: t, Culture: culture}
	result, cached, err = e.cache.GetOrCompute(key, policy.CachePolicy().TTL, build)
	if err == nil {
		e.telemetry.cache(cached)
		emitCache(ctx, cached, key)
	}
	return result, err
}

// build runs the conversion state machine: acquire the instance, register
// lazy fields, run converting handlers, populate eager fields, then run
// converted handlers.
func (e *Engine) build(ctx context.Context, state *callState, shape *Shape, node Node, culture language.Tag, chain *Chain, o *callOptions) (any, error) {
	inst, populate, err := acquire(shape, node, o.instance)
	if err != nil {
		return nil, err
	}
	if !populate {
		return inst.Interface(), nil
	}

	for _, f := range shape.Fields {
		if f.Ignored {
			continue
		}
		if _, err := e.planFor(shape, f); err != nil {
			return nil, err
		}
	}

	c := &conversion{
		engine:   e,
		ctx:      ctx,
		state:    state,
		shape:    shape,
		node:     node,
		culture:  culture,
		chain:    chain,
		instance: inst,
	}

	if len(shape.Lazy) > 0 {
		p := newProxy(inst)
		for _, f := range shape.Lazy {
			p.register(f, c.deferred(f))
		}
	}

	handlers := handlersFor(e.registry, shape.Type, inst, o.callbacks)
	hc := &HandlerContext{
		Node:      c.node,
		ModelType: shape.Type,
		Model:     inst.Interface(),
		Culture:   culture,
		ctx:       ctx,
	}

	for _, h := range handlers {
		if n := h.OnConverting(hc); !isNil(n) {
			emitNodeRedirected(ctx, typeName(shape.Type), c.node.ID(), n.ID())
			c.node = n
			hc.Node = n
		}
	}

	for _, f := range shape.Eager {
		if err := c.populate(f); err != nil {
			return nil, err
		}
	}

	for _, h := range handlers {
		h.OnConverted(hc)
	}

	if shape.Type.Kind() == reflect.Struct {
		return inst.Elem().Interface(), nil
	}
	return inst.Interface(), nil
}

// acquire returns the instance to populate: the caller's, or a new one from
// the shape.
func acquire(shape *Shape, node Node, instance any) (reflect.Value, bool, error) {
	if instance == nil {
		return shape.instantiate(node)
	}
	rv := reflect.ValueOf(instance)
	if shape.Struct != nil {
		switch {
		case rv.Type() == reflect.PointerTo(shape.Struct) && !rv.IsNil():
			return rv, true, nil
		case rv.Type() == shape.Struct:
			p := reflect.New(shape.Struct)
			p.Elem().Set(rv)
			return p, true, nil
		}
	}
	if rv.Type().AssignableTo(shape.Type) {
		return rv, false, nil
	}
	return reflect.Value{}, false, newShapeError(ErrTypeMismatch, shape.Type, "")
}

// populate resolves an eager field and assigns it.
func (c *conversion) populate(f *Field) error {
	v, err := c.resolveCached(f)
	if err != nil {
		emitPropertyFailed(c.ctx, typeName(c.shape.Type), f.Name, err)
		return newPropertyError(err, c.shape.Type, f.Name)
	}
	out, ok := settle(f.Type, v)
	if !ok {
		emitPropertyUnresolved(c.ctx, typeName(c.shape.Type), f.Name, valueTypeName(v))
		return nil
	}
	c.instance.Elem().FieldByIndex(f.Index).Set(out)
	return nil
}

// deferred returns the computation bound to a lazy field.
func (c *conversion) deferred(f *Field) func() (any, error) {
	return func() (any, error) {
		start := c.engine.clock.Now()
		v, err := c.resolveCached(f)
		c.engine.telemetry.lazyEvaluated()
		emitLazyEvaluated(c.ctx, typeName(c.shape.Type), f.Name, c.engine.clock.Since(start), err)
		if err != nil {
			return nil, newPropertyError(err, c.shape.Type, f.Name)
		}
		out, ok := settle(f.Type, v)
		if !ok {
			emitPropertyUnresolved(c.ctx, typeName(c.shape.Type), f.Name, valueTypeName(v))
			return nil, nil
		}
		return out.Interface(), nil
	}
}

// resolveCached resolves f through the value cache when the field opts in.
func (c *conversion) resolveCached(f *Field) (any, error) {
	if !f.Cache {
		return c.resolve(f)
	}
	key := Key{ContentID: c.node.ID(), Type: c.shape.Type, Property: f.Name, Culture: c.culture}
	v, hit, err := c.engine.cache.GetOrCompute(key, f.CacheTTL, func() (any, error) {
		return c.resolve(f)
	})
	if err == nil {
		c.engine.telemetry.cache(hit)
		emitCache(c.ctx, hit, key)
	}
	return v, err
}

// resolve folds the current node through the field's processor chain.
func (c *conversion) resolve(f *Field) (any, error) {
	p, err := c.engine.planFor(c.shape, f)
	if err != nil {
		return nil, err
	}

	pc := &ProcessorContext{
		Node:       c.node,
		ModelType:  c.shape.Type,
		Field:      f,
		Culture:    c.culture,
		Dictionary: c.engine.dictionary,
		Chain:      c.chain,
		ctx:        c.ctx,
		engine:     c.engine,
		state:      c.state,
		target:     f.Type,
		converters: p.converters,
	}

	var value any = c.node
	for _, proc := range p.chain(c.engine.registry, c.shape.Type, f.Type) {
		value, err = proc.Process(value, pc)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

// settle turns a chain result into a value assignable to t. Nil results
// become the zero value, or an empty instance for sequence types.
func settle(t reflect.Type, v any) (reflect.Value, bool) {
	if _, seq := sequenceElem(t); seq && isNil(v) {
		return emptySequence(t), true
	}
	if isNil(v) {
		return reflect.Zero(t), true
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, false
	}
	if t.Kind() == reflect.Interface {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, true
	}
	return rv, true
}

func valueTypeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
