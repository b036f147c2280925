package mold

import (
	"context"
	"reflect"
	"sync"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
	"golang.org/x/text/language"
)

// Engine converts nodes into typed instances. An Engine is safe for
// concurrent use; each Convert call runs on the calling goroutine.
type Engine struct {
	registry   *Registry
	cache      *Cache
	config     Config
	dictionary Dictionary
	ambient    Ambient
	clock      clockz.Clock
	telemetry  *telemetry
	plans      sync.Map // map[planKey]*plan
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the engine settings. Configs from DefaultConfig, ParseConfig
// or LoadConfig are used as is; any other Config is partial and its zero
// fields take their DefaultConfig values.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithRegistry sets the processor registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithCache sets the value cache. Cache settings from the config are ignored.
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithDictionary sets the localization dictionary.
func WithDictionary(d Dictionary) Option {
	return func(e *Engine) { e.dictionary = d }
}

// WithAmbient sets the source of the ambient culture.
func WithAmbient(a Ambient) Option {
	return func(e *Engine) { e.ambient = a }
}

// WithClock sets the clock used for timings and cache expiry.
func WithClock(clock clockz.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// New returns an Engine. Without options it uses a fresh registry, an
// in-memory cache and DefaultConfig.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		config: DefaultConfig(),
		clock:  clockz.RealClock,
	}
	for _, opt := range opts {
		opt(e)
	}

	cfg, err := e.config.withDefaults()
	if err != nil {
		return nil, err
	}
	e.config = cfg
	if err := e.config.Validate(); err != nil {
		return nil, err
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if len(e.config.PostProcessors) > 0 {
		if err := e.registry.SetPostProcessors(e.config.PostProcessors...); err != nil {
			return nil, err
		}
	}
	if e.cache == nil {
		e.cache = NewCache(
			WithCacheClock(e.clock),
			WithDefaultTTL(e.config.Cache.DefaultTTL),
			WithCacheDisabled(e.config.Cache.Disabled),
		)
	}
	e.telemetry = newTelemetry()

	return e, nil
}

var defaultEngine = sync.OnceValue(func() *Engine {
	e, err := New()
	if err != nil {
		panic(err)
	}
	return e
})

// Default returns the package-level engine, built on first use.
func Default() *Engine {
	return defaultEngine()
}

// Registry returns the engine's processor registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Cache returns the engine's value cache.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Metrics returns the engine's metrics registry.
func (e *Engine) Metrics() *metricz.Registry {
	return e.telemetry.metrics
}

// Tracer returns the engine's tracer.
func (e *Engine) Tracer() *tracez.Tracer {
	return e.telemetry.tracer
}

// OnConversion registers an asynchronous observer of successful conversions.
func (e *Engine) OnConversion(handler func(context.Context, ConversionEvent) error) error {
	_, err := e.telemetry.hooks.Hook(EventConverted, handler)
	return err
}

// OnFailure registers an asynchronous observer of failed conversions.
func (e *Engine) OnFailure(handler func(context.Context, ConversionEvent) error) error {
	_, err := e.telemetry.hooks.Hook(EventFailed, handler)
	return err
}

// Close shuts down tracing and hooks.
func (e *Engine) Close() error {
	e.telemetry.close()
	return nil
}

// callOptions holds per-call settings.
type callOptions struct {
	culture   *language.Tag
	instance  any
	contexts  []any
	chain     *Chain
	callbacks []Handler
}

// ConvertOption configures a single Convert call.
type ConvertOption func(*callOptions)

// WithCulture fixes the culture of the call.
func WithCulture(tag language.Tag) ConvertOption {
	return func(o *callOptions) { o.culture = &tag }
}

// WithInstance populates v instead of constructing a new instance. v must be
// assignable to the target type, or be a pointer to the target struct.
// Whole-object caching is bypassed.
func WithInstance(v any) ConvertOption {
	return func(o *callOptions) { o.instance = v }
}

// WithContexts seeds the call's chain with processor context instances.
func WithContexts(contexts ...any) ConvertOption {
	return func(o *callOptions) { o.contexts = append(o.contexts, contexts...) }
}

// WithChain runs the call on an existing chain, sharing its contexts.
func WithChain(c *Chain) ConvertOption {
	return func(o *callOptions) { o.chain = c }
}

// OnConverting adds a callback run after every other converting handler.
func OnConverting(fn func(hc *HandlerContext) Node) ConvertOption {
	return func(o *callOptions) {
		o.callbacks = append(o.callbacks, HandlerFuncs{Converting: fn})
	}
}

// OnConverted adds a callback run after every other converted handler.
func OnConverted(fn func(hc *HandlerContext)) ConvertOption {
	return func(o *callOptions) {
		o.callbacks = append(o.callbacks, HandlerFuncs{Converted: fn})
	}
}

// Convert converts node into an instance of t. Struct pointer targets yield
// a pointer, struct targets a value. A nil node yields (nil, nil).
func (e *Engine) Convert(ctx context.Context, node Node, t reflect.Type, opts ...ConvertOption) (any, error) {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if isNil(node) {
		return nil, nil
	}
	if err := checkInstance(t, o.instance); err != nil {
		return nil, err
	}

	culture := e.resolveCulture(ctx, o.culture)
	chain := o.chain
	if chain == nil {
		chain = NewChain()
	}
	for _, c := range o.contexts {
		chain.Seed(c)
	}

	return e.convert(ctx, &callState{}, node, t, culture, chain, o)
}

// ConvertAll converts each node into t, preserving order. Nil nodes yield nil.
func (e *Engine) ConvertAll(ctx context.Context, nodes []Node, t reflect.Type, opts ...ConvertOption) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := e.Convert(ctx, n, t, opts...)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// As converts node into T using e, or the default engine when e is nil.
func As[T any](ctx context.Context, e *Engine, node Node, opts ...ConvertOption) (T, error) {
	var zero T
	if e == nil {
		e = Default()
	}
	v, err := e.Convert(ctx, node, reflect.TypeFor[T](), opts...)
	if err != nil || v == nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, newShapeError(ErrTypeMismatch, reflect.TypeFor[T](), "")
	}
	return out, nil
}

// AsMany converts each node into T, preserving order. Nil nodes yield the
// zero value of T.
func AsMany[T any](ctx context.Context, e *Engine, nodes []Node, opts ...ConvertOption) ([]T, error) {
	out := make([]T, len(nodes))
	for i, n := range nodes {
		v, err := As[T](ctx, e, n, opts...)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *Engine) resolveCulture(ctx context.Context, explicit *language.Tag) language.Tag {
	if explicit != nil {
		return *explicit
	}
	if tag, ok := CultureFromContext(ctx); ok {
		return tag
	}
	if e.ambient != nil {
		if tag, ok := e.ambient.Culture(ctx); ok {
			return tag
		}
	}
	if tag, ok := e.config.culture(); ok {
		return tag
	}
	return SystemCulture()
}

// checkInstance verifies a caller-supplied instance against the target type.
func checkInstance(t reflect.Type, instance any) error {
	if instance == nil {
		return nil
	}
	it := reflect.TypeOf(instance)
	if it.AssignableTo(t) {
		return nil
	}
	if t.Kind() == reflect.Struct && it == reflect.PointerTo(t) {
		return nil
	}
	return newShapeError(ErrTypeMismatch, t, "")
}
