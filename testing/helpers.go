// Package testing provides fixtures for exercising mold conversions.
package testing

import (
	"testing"

	"github.com/zoobzio/mold"
	"golang.org/x/text/language"
)

// Dictionary is a culture-aware mold.Dictionary keyed by entry, then by
// language tag. The empty tag holds the fallback text.
type Dictionary map[string]map[string]string

// Lookup implements mold.Dictionary. It tries the full tag, then its base
// language, then the fallback.
func (d Dictionary) Lookup(key string, culture language.Tag) (string, bool) {
	entries, ok := d[key]
	if !ok {
		return "", false
	}
	if v, ok := entries[culture.String()]; ok {
		return v, true
	}
	if base, conf := culture.Base(); conf != language.No {
		if v, ok := entries[base.String()]; ok {
			return v, true
		}
	}
	v, ok := entries[""]
	return v, ok
}

// NewDictionary returns the fixture dictionary.
func NewDictionary() Dictionary {
	return Dictionary{
		"greeting": {"": "Hello", "de": "Hallo", "fr": "Bonjour"},
		"footer":   {"": "All rights reserved"},
	}
}

// Image is a media fixture model.
type Image struct {
	URL string
	Alt string `mold:"property:alt,name;trim"`
}

// Author is a fixture model with a masked field.
type Author struct {
	Name  string
	Email string `mold:"property:email;mask:email"`
}

// Page is the main fixture model. It covers property aliases, dictionary
// lookups, ancestor lookups, nested nodes, markup and a lazy relation.
type Page struct {
	Title    string
	Summary  string `mold:"property:summary,excerpt;trim"`
	Greeting string `mold:"dictionary:greeting"`
	Theme    string `mold:"inherit:theme"`
	Hero     *Image
	Authors  []*Author
	Tags     []string `mold:"property:tags;split"`
	Body     mold.HTML
	Views    int
	Related  mold.Lazy[[]*Page]
}

// CachedPage is a fixture model cached whole by node and culture.
type CachedPage struct {
	Title string
	Views int
}

// CachePolicy implements mold.Cacheable.
func (CachedPage) CachePolicy() mold.CachePolicy {
	return mold.CachePolicy{}
}

// PageDocument returns the fixture page as a generic document, ready to be
// marshaled by any codec and decoded with mold.DecodeNode.
func PageDocument() map[string]any {
	return map[string]any{
		"id":      1100,
		"alias":   "page",
		"title":   "Welcome",
		"excerpt": "  A short intro  ",
		"views":   42,
		"tags":    "go, content , mold",
		"body":    "<p>Hello</p>",
		"parent": map[string]any{
			"id":    1000,
			"alias": "site",
			"theme": "dark",
		},
		"hero": map[string]any{
			"id":    1200,
			"alias": "image",
			"url":   "/hero.png",
			"name":  " Hero ",
		},
		"authors": []any{
			map[string]any{"id": 1300, "alias": "author", "name": "Ada", "email": "ada@example.com"},
			map[string]any{"id": 1301, "alias": "author", "name": "Grace", "email": "grace@example.com"},
		},
		"related": []any{
			map[string]any{"id": 1101, "alias": "page", "title": "Next"},
		},
	}
}

// SiteNode returns the fixture site node.
func SiteNode() *mold.MapNode {
	return mold.NewNode(1000, "site", map[string]any{"theme": "dark"})
}

// PageNode returns the fixture page as an in-memory node under site.
func PageNode(site mold.Node) *mold.MapNode {
	page := mold.NewNode(1100, "page", map[string]any{
		"title":   "Welcome",
		"excerpt": "  A short intro  ",
		"views":   "42",
		"tags":    "go, content , mold",
		"body":    "<p>Hello</p>",
		"hero":    mold.NewNode(1200, "image", map[string]any{"url": "/hero.png", "name": " Hero "}),
		"authors": []mold.Node{
			mold.NewNode(1300, "author", map[string]any{"name": "Ada", "email": "ada@example.com"}),
			mold.NewNode(1301, "author", map[string]any{"name": "Grace", "email": "grace@example.com"}),
		},
		"related": []mold.Node{
			mold.NewNode(1101, "page", map[string]any{"title": "Next"}),
		},
	})
	if site != nil {
		page.WithParent(site)
	}
	return page
}

// NewEngine returns an engine using the fixture dictionary, closed when the
// test ends.
func NewEngine(tb testing.TB, opts ...mold.Option) *mold.Engine {
	tb.Helper()
	opts = append([]mold.Option{mold.WithDictionary(NewDictionary())}, opts...)
	e, err := mold.New(opts...)
	if err != nil {
		tb.Fatalf("mold.New() error: %v", err)
	}
	tb.Cleanup(func() { e.Close() }) //nolint:errcheck
	return e
}
