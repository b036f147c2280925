package mold

import (
	"context"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Ambient supplies a contextual culture, typically derived from the current
// request. It returns false when no culture is known.
type Ambient interface {
	Culture(ctx context.Context) (language.Tag, bool)
}

// AmbientFunc adapts a function to the Ambient interface.
type AmbientFunc func(ctx context.Context) (language.Tag, bool)

// Culture implements Ambient.
func (f AmbientFunc) Culture(ctx context.Context) (language.Tag, bool) {
	return f(ctx)
}

type cultureKey struct{}

// ContextWithCulture returns a context carrying culture as the ambient culture.
func ContextWithCulture(ctx context.Context, culture language.Tag) context.Context {
	return context.WithValue(ctx, cultureKey{}, culture)
}

// CultureFromContext returns the culture stored by ContextWithCulture.
func CultureFromContext(ctx context.Context) (language.Tag, bool) {
	if ctx == nil {
		return language.Und, false
	}
	tag, ok := ctx.Value(cultureKey{}).(language.Tag)
	return tag, ok
}

var (
	systemCultureOnce sync.Once
	systemCultureTag  language.Tag
)

// SystemCulture returns the process culture derived from LC_ALL, LC_MESSAGES or
// LANG, falling back to English.
func SystemCulture() language.Tag {
	systemCultureOnce.Do(func() {
		systemCultureTag = language.English
		for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
			if tag, ok := parseLocale(os.Getenv(env)); ok {
				systemCultureTag = tag
				return
			}
		}
	})
	return systemCultureTag
}

// parseLocale parses POSIX locale strings such as "en_GB.UTF-8".
func parseLocale(s string) (language.Tag, bool) {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return language.Und, false
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
