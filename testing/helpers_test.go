package testing

import (
	"context"
	"testing"

	"github.com/zoobzio/mold"
	"golang.org/x/text/language"
)

func TestDictionary_Lookup(t *testing.T) {
	d := NewDictionary()

	tests := []struct {
		key     string
		culture language.Tag
		want    string
		ok      bool
	}{
		{"greeting", language.German, "Hallo", true},
		{"greeting", language.MustParse("de-AT"), "Hallo", true},
		{"greeting", language.French, "Bonjour", true},
		{"greeting", language.Japanese, "Hello", true},
		{"footer", language.German, "All rights reserved", true},
		{"missing", language.English, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.culture.String(), func(t *testing.T) {
			got, ok := d.Lookup(tt.key, tt.culture)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Lookup() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPageNode(t *testing.T) {
	site := SiteNode()
	page := PageNode(site)

	if page.ID() != 1100 || page.Parent() != mold.Node(site) {
		t.Errorf("page = %d under %v", page.ID(), page.Parent())
	}
	if orphan := PageNode(nil); orphan.Parent() != nil {
		t.Error("PageNode(nil) should have no parent")
	}
}

func TestPageDocument_Fresh(t *testing.T) {
	a := PageDocument()
	a["title"] = "changed"
	if PageDocument()["title"] != "Welcome" {
		t.Error("PageDocument() should return a new document each call")
	}
}

func TestNewEngine(t *testing.T) {
	e := NewEngine(t)
	page, err := mold.As[*Page](context.Background(), e, PageNode(SiteNode()), mold.WithCulture(language.French))
	if err != nil {
		t.Fatalf("As() error: %v", err)
	}
	if page.Greeting != "Bonjour" {
		t.Errorf("Greeting = %q, want Bonjour", page.Greeting)
	}
	if page.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", page.Theme)
	}
	if len(page.Authors) != 2 || page.Authors[0].Email != "a***@example.com" {
		t.Errorf("Authors = %+v", page.Authors)
	}
}
