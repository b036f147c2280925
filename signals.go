package mold

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for conversion events.
var (
	SignalConvertStart       = capitan.NewSignal("mold.convert.start", "Conversion beginning")
	SignalConvertComplete    = capitan.NewSignal("mold.convert.complete", "Conversion finished")
	SignalCacheHit           = capitan.NewSignal("mold.cache.hit", "Cached value served")
	SignalCacheMiss          = capitan.NewSignal("mold.cache.miss", "Cached value computed")
	SignalLazyEvaluated      = capitan.NewSignal("mold.lazy.evaluated", "Deferred property resolved")
	SignalPropertyUnresolved = capitan.NewSignal("mold.property.unresolved", "Property left untouched")
	SignalPropertyFailed     = capitan.NewSignal("mold.property.failed", "Property processor chain failed")
	SignalNodeRedirected     = capitan.NewSignal("mold.node.redirected", "Conversion handler replaced the node")
	SignalHookFailed         = capitan.NewSignal("mold.hook.failed", "Conversion event not delivered to hooks")
)

// Keys for typed event data.
var (
	KeyTypeName    = capitan.NewStringKey("type_name")
	KeyContentID   = capitan.NewIntKey("content_id")
	KeyTargetID    = capitan.NewIntKey("target_id")
	KeyField       = capitan.NewStringKey("field")
	KeyCulture     = capitan.NewStringKey("culture")
	KeyDepth       = capitan.NewIntKey("depth")
	KeyValueType   = capitan.NewStringKey("value_type")
	KeyFingerprint = capitan.NewStringKey("fingerprint")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyError       = capitan.NewErrorKey("error")
)

func emitConvertStart(ctx context.Context, typeName string, contentID, depth int, culture string) {
	capitan.Emit(ctx, SignalConvertStart,
		KeyTypeName.Field(typeName),
		KeyContentID.Field(contentID),
		KeyDepth.Field(depth),
		KeyCulture.Field(culture),
	)
}

func emitConvertComplete(ctx context.Context, typeName string, contentID int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyContentID.Field(contentID),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalConvertComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalConvertComplete, fields...)
	}
}

func emitCache(ctx context.Context, hit bool, key Key) {
	sig := SignalCacheMiss
	if hit {
		sig = SignalCacheHit
	}
	capitan.Emit(ctx, sig,
		KeyTypeName.Field(typeName(key.Type)),
		KeyContentID.Field(key.ContentID),
		KeyField.Field(key.Property),
		KeyFingerprint.Field(key.Fingerprint()),
	)
}

func emitLazyEvaluated(ctx context.Context, typeName, field string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyField.Field(field),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalLazyEvaluated, fields...)
	} else {
		capitan.Emit(ctx, SignalLazyEvaluated, fields...)
	}
}

func emitPropertyUnresolved(ctx context.Context, typeName, field, valueType string) {
	capitan.Emit(ctx, SignalPropertyUnresolved,
		KeyTypeName.Field(typeName),
		KeyField.Field(field),
		KeyValueType.Field(valueType),
	)
}

func emitPropertyFailed(ctx context.Context, typeName, field string, err error) {
	capitan.Error(ctx, SignalPropertyFailed,
		KeyTypeName.Field(typeName),
		KeyField.Field(field),
		KeyError.Field(err),
	)
}

func emitNodeRedirected(ctx context.Context, typeName string, from, to int) {
	capitan.Emit(ctx, SignalNodeRedirected,
		KeyTypeName.Field(typeName),
		KeyContentID.Field(from),
		KeyTargetID.Field(to),
	)
}

func emitHookFailed(ctx context.Context, typeName string, contentID int, err error) {
	capitan.Error(ctx, SignalHookFailed,
		KeyTypeName.Field(typeName),
		KeyContentID.Field(contentID),
		KeyError.Field(err),
	)
}
