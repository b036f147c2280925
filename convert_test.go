package mold

import (
	"errors"
	"iter"
	"reflect"
	"slices"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func targetContext[T any]() *ProcessorContext {
	return &ProcessorContext{target: reflect.TypeFor[T](), Culture: language.English}
}

func TestTryConvert_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		value any
		pc    *ProcessorContext
		want  any
	}{
		{"string to int", "42", targetContext[int](), 42},
		{"padded string to int", " 7 ", targetContext[int](), 7},
		{"float to int", 3.0, targetContext[int](), 3},
		{"int64 to int32", int64(9), targetContext[int32](), int32(9)},
		{"string to float", "2.5", targetContext[float64](), 2.5},
		{"string to bool", "true", targetContext[bool](), true},
		{"int to bool", 0, targetContext[bool](), false},
		{"int to string", 12, targetContext[string](), "12"},
		{"bool to string", true, targetContext[string](), "true"},
		{"string to duration", "90s", targetContext[time.Duration](), 90 * time.Second},
		{"string to pointer", "5", targetContext[*int](), ptr(5)},
		{"assignable passes", "x", targetContext[string](), "x"},
		{"nil passes", nil, targetContext[int](), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TryConvert{}.Process(tt.value, tt.pc)
			if err != nil {
				t.Fatalf("Process() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Process() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTryConvert_Time(t *testing.T) {
	got, err := TryConvert{}.Process("2024-03-01T10:00:00Z", targetContext[time.Time]())
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if ts, ok := got.(time.Time); !ok || !ts.Equal(want) {
		t.Errorf("Process() = %v, want %v", got, want)
	}
}

func TestTryConvert_FailureLeavesValue(t *testing.T) {
	got, err := TryConvert{}.Process("not a number", targetContext[int]())
	if err != nil {
		t.Fatal(err)
	}
	if got != "not a number" {
		t.Errorf("Process() = %v, want the input unchanged", got)
	}
}

func TestTryConvert_Sequences(t *testing.T) {
	t.Run("elementwise", func(t *testing.T) {
		got, _ := TryConvert{}.Process([]any{"1", 2, 3.0}, targetContext[[]int]())
		if !reflect.DeepEqual(got, []int{1, 2, 3}) {
			t.Errorf("Process() = %#v", got)
		}
	})

	t.Run("array", func(t *testing.T) {
		got, _ := TryConvert{}.Process([]string{"a", "b"}, targetContext[[3]string]())
		if !reflect.DeepEqual(got, [3]string{"a", "b", ""}) {
			t.Errorf("Process() = %#v", got)
		}
	})

	t.Run("iter.Seq", func(t *testing.T) {
		got, _ := TryConvert{}.Process([]any{"x", "y"}, targetContext[iter.Seq[string]]())
		seq, ok := got.(iter.Seq[string])
		if !ok {
			t.Fatalf("Process() = %T, want iter.Seq[string]", got)
		}
		if items := slices.Collect(seq); !reflect.DeepEqual(items, []string{"x", "y"}) {
			t.Errorf("items = %v", items)
		}
	})

	t.Run("element failure", func(t *testing.T) {
		in := []any{"1", "two"}
		got, _ := TryConvert{}.Process(in, targetContext[[]int]())
		if !reflect.DeepEqual(got, in) {
			t.Errorf("Process() = %#v, want the input unchanged", got)
		}
	})
}

func TestSequence(t *testing.T) {
	node := NewNode(1, "page", nil)

	t.Run("wrap value", func(t *testing.T) {
		got, _ := Sequence{}.Process("a", targetContext[[]string]())
		if !reflect.DeepEqual(got, []string{"a"}) {
			t.Errorf("Process() = %#v", got)
		}
	})

	t.Run("wrap node", func(t *testing.T) {
		got, _ := Sequence{}.Process(node, targetContext[[]*plainContext]())
		nodes, ok := got.([]Node)
		if !ok || len(nodes) != 1 || nodes[0] != Node(node) {
			t.Errorf("Process() = %#v", got)
		}
	})

	t.Run("first of sequence", func(t *testing.T) {
		got, _ := Sequence{}.Process([]string{"a", "b"}, targetContext[string]())
		if got != "a" {
			t.Errorf("Process() = %#v, want a", got)
		}
	})

	t.Run("empty sequence", func(t *testing.T) {
		got, _ := Sequence{}.Process([]string{}, targetContext[string]())
		if got != nil {
			t.Errorf("Process() = %#v, want nil", got)
		}
	})
}

func TestMarkup(t *testing.T) {
	got, _ := Markup{}.Process("<p>hi</p>", targetContext[HTML]())
	if got != HTML("<p>hi</p>") {
		t.Errorf("Process() = %#v", got)
	}
	got, _ = Markup{}.Process("<p>hi</p>", targetContext[string]())
	if got != "<p>hi</p>" {
		t.Errorf("non-HTML target should pass through, got %#v", got)
	}
}

type status int

const (
	statusDraft status = 1 << iota
	statusPublished
	statusArchived
)

func TestEnumConverter(t *testing.T) {
	names := map[string]status{"Draft": statusDraft, "Published": statusPublished, "Archived": statusArchived}
	conv := NewEnumConverter(names)
	flags := NewEnumConverter(names).Flags()

	tests := []struct {
		name    string
		conv    *EnumConverter[status]
		value   any
		want    status
		wantErr bool
	}{
		{"name", conv, "published", statusPublished, false},
		{"number", conv, 4, statusArchived, false},
		{"numeric string", conv, "2", statusPublished, false},
		{"empty", conv, "", 0, false},
		{"unknown", conv, "lost", 0, true},
		{"multiple without flags", conv, "draft,archived", 0, true},
		{"flags from string", flags, "draft, archived", statusDraft | statusArchived, false},
		{"flags from slice", flags, []any{"published", 1}, statusPublished | statusDraft, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.conv.ConvertFrom(nil, language.Und, tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrConverterInapplicable) {
					t.Errorf("expected ErrConverterInapplicable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ConvertFrom() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ConvertFrom() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnumConverter_ThroughTryConvert(t *testing.T) {
	pc := targetContext[status]()
	pc.converters = []Converter{NewEnumConverter(map[string]status{"draft": statusDraft})}

	got, _ := TryConvert{}.Process("Draft", pc)
	if got != statusDraft {
		t.Errorf("Process() = %#v, want statusDraft", got)
	}
}

type celsius float64

type celsiusConverter struct{}

func (celsiusConverter) CanConvertFrom(_ *ProcessorContext, source reflect.Type) bool {
	return source != nil && source.Kind() == reflect.String
}

func (celsiusConverter) ConvertFrom(_ *ProcessorContext, _ language.Tag, value any) (any, error) {
	if value.(string) == "freezing" {
		return celsius(0), nil
	}
	return nil, ErrConverterInapplicable
}

func (celsius) Converter() Converter { return celsiusConverter{} }

func TestTryConvert_ProvidedConverter(t *testing.T) {
	got, _ := TryConvert{}.Process("freezing", targetContext[celsius]())
	if got != celsius(0) {
		t.Errorf("Process() = %#v, want celsius(0)", got)
	}

	got, _ = TryConvert{}.Process("21.5", targetContext[celsius]())
	if got != celsius(21.5) {
		t.Errorf("inapplicable converter should fall back, got %#v", got)
	}
}

func TestAsProcessor(t *testing.T) {
	p := AsProcessor(celsiusConverter{})
	got, err := p.Process("freezing", &ProcessorContext{})
	if err != nil || got != celsius(0) {
		t.Errorf("Process() = (%v, %v)", got, err)
	}
	got, _ = p.Process(12, &ProcessorContext{})
	if got != 12 {
		t.Errorf("declined value should pass through, got %v", got)
	}
}

func ptr[T any](v T) *T { return &v }
