package mold

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Property resolves a named value from the node. It is the registry's
// default processor.
type Property struct {
	Names     []string // Value names tried in order; defaults to the field name
	Recursive bool     // Walk up through Parented nodes until a non-empty value is found
	Default   any      // Returned when nothing is found
}

// Process implements Processor.
func (p Property) Process(value any, pc *ProcessorContext) (any, error) {
	node, ok := asNode(value)
	if !ok {
		node = pc.Node
	}
	if node == nil {
		return p.Default, nil
	}

	names := p.Names
	if len(names) == 0 && pc.Field != nil {
		names = []string{pc.Field.Name}
	}

	for n := node; n != nil; n = parentOf(n) {
		for _, name := range names {
			if v, ok := lookupValue(n, name); ok && (!p.Recursive || !isEmptyValue(v)) {
				return v, nil
			}
		}
		if !p.Recursive {
			break
		}
	}
	return p.Default, nil
}

// lookupValue finds name on n, trying the exact name, then a lower-camel
// alias, then a case-insensitive match when n enumerates its names, then the
// node's intrinsic id and alias.
func lookupValue(n Node, name string) (any, bool) {
	if v, ok := n.Value(name); ok {
		return v, true
	}
	if alias := lowerFirst(name); alias != name {
		if v, ok := n.Value(alias); ok {
			return v, true
		}
	}
	if named, ok := n.(Named); ok {
		for _, candidate := range named.Names() {
			if strings.EqualFold(candidate, name) {
				return n.Value(candidate)
			}
		}
	}
	return intrinsicValue(n, name)
}

// intrinsicValue resolves the node's own members when no raw value carries
// the name.
func intrinsicValue(n Node, name string) (any, bool) {
	switch strings.ToLower(name) {
	case "id":
		return n.ID(), true
	case "alias", "typealias":
		return n.TypeAlias(), true
	}
	return nil, false
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func parentOf(n Node) Node {
	p, ok := n.(Parented)
	if !ok {
		return nil
	}
	parent := p.Parent()
	if isNil(parent) {
		return nil
	}
	return parent
}

func isEmptyValue(v any) bool {
	if isNil(v) {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

// DictionaryValue resolves a localized string for the call culture. The key
// defaults to the field name.
type DictionaryValue struct {
	Key string
}

// Process implements Processor.
func (d DictionaryValue) Process(_ any, pc *ProcessorContext) (any, error) {
	if pc.Dictionary == nil {
		return nil, nil
	}
	key := d.Key
	if key == "" && pc.Field != nil {
		key = pc.Field.Name
	}
	if v, ok := pc.Dictionary.Lookup(key, pc.Culture); ok {
		return v, nil
	}
	return nil, nil
}

// CurrentNode yields the node being converted.
type CurrentNode struct{}

// Process implements Processor.
func (CurrentNode) Process(_ any, pc *ProcessorContext) (any, error) {
	if pc.Node == nil {
		return nil, nil
	}
	return pc.Node, nil
}

// DefaultValue replaces nil and blank values with a constant.
type DefaultValue struct {
	Value any
}

// Process implements Processor.
func (d DefaultValue) Process(value any, _ *ProcessorContext) (any, error) {
	if isEmptyValue(value) {
		return d.Value, nil
	}
	return value, nil
}

// Transform applies a string function to string values and passes other
// values through.
type Transform struct {
	Fn func(s string, pc *ProcessorContext) any
}

// Process implements Processor.
func (t Transform) Process(value any, pc *ProcessorContext) (any, error) {
	switch v := value.(type) {
	case string:
		return t.Fn(v, pc), nil
	case HTML:
		return t.Fn(string(v), pc), nil
	case fmt.Stringer:
		if _, isNode := v.(Node); !isNode {
			return t.Fn(v.String(), pc), nil
		}
	}
	return value, nil
}

// Upper upper-cases strings using the call culture.
func Upper() Processor {
	return Transform{Fn: func(s string, pc *ProcessorContext) any {
		return cases.Upper(pc.Culture).String(s)
	}}
}

// Lower lower-cases strings using the call culture.
func Lower() Processor {
	return Transform{Fn: func(s string, pc *ProcessorContext) any {
		return cases.Lower(pc.Culture).String(s)
	}}
}

// Title title-cases strings using the call culture.
func Title() Processor {
	return Transform{Fn: func(s string, pc *ProcessorContext) any {
		return cases.Title(pc.Culture).String(s)
	}}
}

// Trim removes leading and trailing white space.
func Trim() Processor {
	return Transform{Fn: func(s string, _ *ProcessorContext) any {
		return strings.TrimSpace(s)
	}}
}

// Split splits strings on sep, trimming each part and dropping blanks.
func Split(sep string) Processor {
	return Transform{Fn: func(s string, _ *ProcessorContext) any {
		out := []string{}
		for _, part := range strings.Split(s, sep) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}}
}

// builtinFactories returns the named processors available to tags.
func builtinFactories() map[string]Factory {
	return map[string]Factory{
		"property": func(args []string) (Processor, error) {
			return Property{Names: nonEmpty(args)}, nil
		},
		"inherit": func(args []string) (Processor, error) {
			return Property{Names: nonEmpty(args), Recursive: true}, nil
		},
		"dictionary": func(args []string) (Processor, error) {
			return DictionaryValue{Key: firstArg(args)}, nil
		},
		"node": func([]string) (Processor, error) {
			return CurrentNode{}, nil
		},
		"default": func(args []string) (Processor, error) {
			return DefaultValue{Value: strings.Join(args, ",")}, nil
		},
		"mask": func(args []string) (Processor, error) {
			m, err := NewMask(MaskType(firstArg(args)))
			if err != nil {
				return nil, err
			}
			return m, nil
		},
		"hash": func(args []string) (Processor, error) {
			h, err := NewHash(HashAlgo(firstArg(args)))
			if err != nil {
				return nil, err
			}
			return h, nil
		},
		"upper": func([]string) (Processor, error) { return Upper(), nil },
		"lower": func([]string) (Processor, error) { return Lower(), nil },
		"title": func([]string) (Processor, error) { return Title(), nil },
		"trim":  func([]string) (Processor, error) { return Trim(), nil },
		"split": func(args []string) (Processor, error) {
			sep := ","
			if len(args) > 0 && args[0] != "" {
				sep = args[0]
			}
			return Split(sep), nil
		},
		"markup":     func([]string) (Processor, error) { return Markup{}, nil },
		"sequence":   func([]string) (Processor, error) { return Sequence{}, nil },
		"recursive":  func([]string) (Processor, error) { return Recursive{}, nil },
		"tryconvert": func([]string) (Processor, error) { return TryConvert{}, nil },
	}
}

func nonEmpty(args []string) []string {
	var out []string
	for _, a := range args {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
