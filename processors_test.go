package mold

import (
	"reflect"
	"testing"

	"golang.org/x/text/language"
)

func TestProperty(t *testing.T) {
	parent := NewNode(1, "site", map[string]any{"theme": "dark", "footer": ""})
	node := NewNode(2, "page", map[string]any{
		"title":   "Hello",
		"SUMMARY": "Short",
		"footer":  "",
		"count":   3,
	}).WithParent(parent)

	field := func(name string) *ProcessorContext {
		return &ProcessorContext{Node: node, Field: &Field{Name: name}}
	}

	tests := []struct {
		name string
		p    Property
		pc   *ProcessorContext
		want any
	}{
		{"field name alias", Property{}, field("Title"), "Hello"},
		{"case-insensitive", Property{}, field("Summary"), "Short"},
		{"explicit names in order", Property{Names: []string{"missing", "count"}}, field("X"), 3},
		{"missing returns default", Property{Default: "none"}, field("Body"), "none"},
		{"not recursive", Property{}, field("Theme"), nil},
		{"recursive", Property{Recursive: true}, field("Theme"), "dark"},
		{"recursive skips blanks", Property{Recursive: true, Default: "x"}, field("Footer"), "x"},
		{"intrinsic id", Property{Names: []string{"Id"}}, field("X"), 2},
		{"intrinsic alias", Property{}, field("TypeAlias"), "page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Process(node, tt.pc)
			if err != nil {
				t.Fatalf("Process() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Process() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestProperty_UsesContextNode(t *testing.T) {
	node := NewNode(1, "", map[string]any{"name": "ctx"})
	got, _ := Property{Names: []string{"name"}}.Process("not a node", &ProcessorContext{Node: node})
	if got != "ctx" {
		t.Errorf("Process() = %v, want ctx", got)
	}
}

func TestDictionaryValue(t *testing.T) {
	dict := MapDictionary{"hello": "world", "Foo": "bar"}
	pc := &ProcessorContext{Dictionary: dict, Field: &Field{Name: "Foo"}}

	if got, _ := (DictionaryValue{Key: "hello"}).Process(nil, pc); got != "world" {
		t.Errorf("explicit key = %v, want world", got)
	}
	if got, _ := (DictionaryValue{}).Process(nil, pc); got != "bar" {
		t.Errorf("field name key = %v, want bar", got)
	}
	if got, _ := (DictionaryValue{Key: "absent"}).Process(nil, pc); got != nil {
		t.Errorf("absent key = %v, want nil", got)
	}
	if got, _ := (DictionaryValue{Key: "hello"}).Process(nil, &ProcessorContext{}); got != nil {
		t.Errorf("no dictionary = %v, want nil", got)
	}
}

func TestCurrentNode(t *testing.T) {
	node := NewNode(7, "", nil)
	got, _ := CurrentNode{}.Process("ignored", &ProcessorContext{Node: node})
	if got != Node(node) {
		t.Errorf("Process() = %v, want the context node", got)
	}
}

func TestDefaultValue(t *testing.T) {
	d := DefaultValue{Value: "fallback"}
	for _, in := range []any{nil, "", "   ", []string{}} {
		if got, _ := d.Process(in, nil); got != "fallback" {
			t.Errorf("Process(%#v) = %v, want fallback", in, got)
		}
	}
	if got, _ := d.Process("set", nil); got != "set" {
		t.Errorf("Process(set) = %v", got)
	}
}

func TestTextProcessors(t *testing.T) {
	english := &ProcessorContext{Culture: language.English}
	turkish := &ProcessorContext{Culture: language.Turkish}

	tests := []struct {
		name string
		p    Processor
		pc   *ProcessorContext
		in   any
		want any
	}{
		{"upper", Upper(), english, "hello", "HELLO"},
		{"upper turkish", Upper(), turkish, "i", "İ"},
		{"lower", Lower(), english, "HeLLo", "hello"},
		{"title", Title(), english, "hello world", "Hello World"},
		{"trim", Trim(), english, "  padded \n", "padded"},
		{"trim html", Trim(), english, HTML(" <b> "), "<b>"},
		{"split", Split(","), english, "a, b,,c", []string{"a", "b", "c"}},
		{"non-string passes", Upper(), english, 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Process(tt.in, tt.pc)
			if err != nil {
				t.Fatalf("Process() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Process() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTransform_SkipsNodes(t *testing.T) {
	node := NewNode(1, "", nil)
	got, _ := Upper().Process(node, &ProcessorContext{Culture: language.English})
	if got != Node(node) {
		t.Errorf("nodes should pass through, got %v", got)
	}
}
