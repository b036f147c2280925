package mold

import (
	"context"
	"reflect"

	"golang.org/x/text/language"
)

// HandlerContext is handed to conversion handlers.
type HandlerContext struct {
	Node      Node         // Node being converted
	ModelType reflect.Type // Target type
	Model     any          // Instance being populated, a pointer for struct targets
	Culture   language.Tag

	ctx context.Context
}

// Context returns the context.Context of the conversion call.
func (hc *HandlerContext) Context() context.Context {
	if hc.ctx == nil {
		return context.Background()
	}
	return hc.ctx
}

// Handler observes a conversion before and after population. OnConverting
// may return a replacement node, which is used for the rest of the call;
// returning nil keeps the current node.
type Handler interface {
	OnConverting(hc *HandlerContext) Node
	OnConverted(hc *HandlerContext)
}

// HandlerProvider is implemented by model types that attach handlers to
// their own conversions. The method is called on the zero value.
type HandlerProvider interface {
	ConversionHandlers() []Handler
}

// ConvertingHook is implemented by models that react to the start of their
// own conversion. It runs on the instance being populated.
type ConvertingHook interface {
	OnConverting(hc *HandlerContext) Node
}

// ConvertedHook is implemented by models that react to the end of their own
// conversion. It runs on the populated instance.
type ConvertedHook interface {
	OnConverted(hc *HandlerContext)
}

// HandlerFuncs adapts a pair of functions to the Handler interface. Either
// may be nil.
type HandlerFuncs struct {
	Converting func(hc *HandlerContext) Node
	Converted  func(hc *HandlerContext)
}

// OnConverting implements Handler.
func (h HandlerFuncs) OnConverting(hc *HandlerContext) Node {
	if h.Converting == nil {
		return nil
	}
	return h.Converting(hc)
}

// OnConverted implements Handler.
func (h HandlerFuncs) OnConverted(hc *HandlerContext) {
	if h.Converted != nil {
		h.Converted(hc)
	}
}

// handlersFor collects the handlers of a conversion in run order: type-level,
// registry, the model's own hooks, then the caller's callbacks.
func handlersFor(r *Registry, t reflect.Type, instance reflect.Value, callbacks []Handler) []Handler {
	var hs []Handler
	if p, ok := provider[HandlerProvider](t); ok {
		hs = append(hs, p.ConversionHandlers()...)
	}
	hs = append(hs, r.HandlersFor(t)...)

	if instance.IsValid() && instance.CanInterface() {
		model := instance.Interface()
		converting, _ := model.(ConvertingHook)
		converted, _ := model.(ConvertedHook)
		if converting != nil || converted != nil {
			hs = append(hs, modelHooks{converting: converting, converted: converted})
		}
	}

	return append(hs, callbacks...)
}

// modelHooks adapts the hook methods of a model instance.
type modelHooks struct {
	converting ConvertingHook
	converted  ConvertedHook
}

func (m modelHooks) OnConverting(hc *HandlerContext) Node {
	if m.converting == nil {
		return nil
	}
	return m.converting.OnConverting(hc)
}

func (m modelHooks) OnConverted(hc *HandlerContext) {
	if m.converted != nil {
		m.converted.OnConverted(hc)
	}
}
