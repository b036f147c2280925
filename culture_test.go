package mold

import (
	"context"
	"testing"

	"golang.org/x/text/language"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"en_GB.UTF-8", "en-GB", true},
		{"de_DE@euro", "de-DE", true},
		{"fr", "fr", true},
		{"C", "", false},
		{"POSIX", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tag, ok := parseLocale(tt.in)
			if ok != tt.ok {
				t.Fatalf("parseLocale(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && tag.String() != tt.want {
				t.Errorf("parseLocale(%q) = %s, want %s", tt.in, tag, tt.want)
			}
		})
	}
}

func TestCultureContext(t *testing.T) {
	if _, ok := CultureFromContext(context.Background()); ok {
		t.Error("empty context should carry no culture")
	}

	ctx := ContextWithCulture(context.Background(), language.Japanese)
	tag, ok := CultureFromContext(ctx)
	if !ok || tag != language.Japanese {
		t.Errorf("CultureFromContext() = (%v, %v), want ja", tag, ok)
	}
}

func TestSystemCulture(t *testing.T) {
	if SystemCulture() == language.Und {
		t.Error("SystemCulture() should never be undetermined")
	}
}
