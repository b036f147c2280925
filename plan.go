package mold

import (
	"reflect"
)

type planKey struct {
	model reflect.Type
	field string
}

// plan is the static part of a field's processor chain, built once per
// engine, model type and field.
type plan struct {
	explicit   []Processor // tag processors in order; empty means the default processor
	typed      []Processor // property-type level, then element-type level
	converters []Converter // converter tags
}

// chain assembles the full processor list: explicit or default, type-level,
// global, then post-processors.
func (p *plan) chain(r *Registry, model, target reflect.Type) []Processor {
	out := make([]Processor, 0, len(p.explicit)+len(p.typed)+4)
	if len(p.explicit) > 0 {
		out = append(out, p.explicit...)
	} else {
		out = append(out, r.DefaultProcessorFor(model))
	}
	out = append(out, p.typed...)
	out = append(out, r.GlobalFor(target)...)
	return append(out, r.PostProcessors()...)
}

func (e *Engine) planFor(s *Shape, f *Field) (*plan, error) {
	key := planKey{model: s.Type, field: f.Name}
	if p, ok := e.plans.Load(key); ok {
		return p.(*plan), nil
	}

	p := &plan{}
	for _, tok := range f.tokens {
		proc, err := e.registry.Processor(tok.Name, tok.Args)
		if err != nil {
			return nil, &ShapeError{Err: err, Type: s.Type, Field: f.Name}
		}
		if tok.HasOrder {
			proc = withOrder{Processor: proc, order: tok.Order}
		}
		p.explicit = append(p.explicit, proc)
	}
	sortProcessors(p.explicit)

	p.typed = append(p.typed, providedProcessors(f.Type)...)
	if elem, ok := sequenceElem(f.Type); ok {
		p.typed = append(p.typed, providedProcessors(elem)...)
	}

	for _, name := range f.converters {
		conv, err := e.registry.Converter(name)
		if err != nil {
			return nil, &ShapeError{Err: err, Type: s.Type, Field: f.Name}
		}
		p.converters = append(p.converters, conv)
	}

	actual, _ := e.plans.LoadOrStore(key, p)
	return actual.(*plan), nil
}

// providedProcessors returns the sorted processors t supplies.
func providedProcessors(t reflect.Type) []Processor {
	pp, ok := provider[ProcessorProvider](t)
	if !ok {
		return nil
	}
	ps := append([]Processor(nil), pp.Processors()...)
	sortProcessors(ps)
	return ps
}
