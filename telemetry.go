package mold

import (
	"context"
	"reflect"
	"strconv"
	"time"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys.
var (
	ConversionsTotal     = metricz.Key("mold.conversions.total")
	ConversionsFailed    = metricz.Key("mold.conversions.failed")
	CacheHitsTotal       = metricz.Key("mold.cache.hits")
	CacheMissesTotal     = metricz.Key("mold.cache.misses")
	LazyEvaluationsTotal = metricz.Key("mold.lazy.evaluations")
	ConversionDurationMs = metricz.Key("mold.conversion.duration.ms")
)

// Span keys and tags.
var (
	ConvertSpan = tracez.Key("mold.convert")

	TagTypeName  = tracez.Tag("mold.type")
	TagContentID = tracez.Tag("mold.content_id")
	TagDepth     = tracez.Tag("mold.depth")
	TagSuccess   = tracez.Tag("mold.success")
	TagError     = tracez.Tag("mold.error")
)

// Hook keys.
var (
	EventConverted = hookz.Key("mold.converted")
	EventFailed    = hookz.Key("mold.failed")
)

// ConversionEvent describes a finished top-level or nested conversion.
type ConversionEvent struct {
	Type      reflect.Type
	ContentID int
	Depth     int
	Cached    bool
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}

// telemetry bundles the metrics, tracing and lifecycle hooks of an Engine.
type telemetry struct {
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[ConversionEvent]
}

func newTelemetry() *telemetry {
	metrics := metricz.New()
	metrics.Counter(ConversionsTotal)
	metrics.Counter(ConversionsFailed)
	metrics.Counter(CacheHitsTotal)
	metrics.Counter(CacheMissesTotal)
	metrics.Counter(LazyEvaluationsTotal)
	metrics.Gauge(ConversionDurationMs)

	return &telemetry{
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[ConversionEvent](),
	}
}

// begin starts the conversion span and returns the function that records the
// outcome, finishes the span and notifies hooks.
func (t *telemetry) begin(ctx context.Context, typ reflect.Type, node Node, depth int) (context.Context, func(ConversionEvent)) {
	ctx, span := t.tracer.StartSpan(ctx, ConvertSpan)
	span.SetTag(TagTypeName, typeName(typ))
	span.SetTag(TagContentID, strconv.Itoa(node.ID()))
	span.SetTag(TagDepth, strconv.Itoa(depth))

	return ctx, func(ev ConversionEvent) {
		t.metrics.Counter(ConversionsTotal).Inc()
		t.metrics.Gauge(ConversionDurationMs).Set(float64(ev.Duration.Milliseconds()))

		key := EventConverted
		if ev.Error != nil {
			t.metrics.Counter(ConversionsFailed).Inc()
			span.SetTag(TagSuccess, "false")
			span.SetTag(TagError, ev.Error.Error())
			key = EventFailed
		} else {
			span.SetTag(TagSuccess, "true")
		}
		span.Finish()

		t.notify(ctx, key, ev)
	}
}

// notify delivers ev to the async hooks, reporting delivery failures as signals.
func (t *telemetry) notify(ctx context.Context, key hookz.Key, ev ConversionEvent) {
	if err := t.hooks.Emit(ctx, key, ev); err != nil {
		emitHookFailed(ctx, typeName(ev.Type), ev.ContentID, err)
	}
}

func (t *telemetry) cache(hit bool) {
	if hit {
		t.metrics.Counter(CacheHitsTotal).Inc()
		return
	}
	t.metrics.Counter(CacheMissesTotal).Inc()
}

func (t *telemetry) lazyEvaluated() {
	t.metrics.Counter(LazyEvaluationsTotal).Inc()
}

func (t *telemetry) close() {
	t.tracer.Close()
	t.hooks.Close()
}
