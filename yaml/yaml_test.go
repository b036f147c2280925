package yaml

import (
	"errors"
	"testing"

	"github.com/zoobzio/mold"
)

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/yaml" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/yaml")
	}
}

func TestDecodeNode(t *testing.T) {
	doc := `
id: 1050
alias: page
title: Home
parent:
  id: 1000
  alias: site
  siteName: Example
children:
  - id: 1060
    alias: page
    title: First
  - id: 1061
    alias: page
    title: Second
tags: [news, sport]
`
	n, err := mold.DecodeNode(New(), []byte(doc))
	if err != nil {
		t.Fatalf("DecodeNode() error: %v", err)
	}

	if n.ID() != 1050 || n.TypeAlias() != "page" {
		t.Errorf("identity = (%d, %q)", n.ID(), n.TypeAlias())
	}

	p, ok := n.(mold.Parented)
	if !ok || p.Parent() == nil {
		t.Fatal("expected parent node")
	}
	if p.Parent().ID() != 1000 {
		t.Errorf("parent id = %d, want 1000", p.Parent().ID())
	}
	if v, _ := p.Parent().Value("siteName"); v != "Example" {
		t.Errorf("parent siteName = %v", v)
	}
	if _, ok := n.Value("parent"); ok {
		t.Error("parent key should not be exposed as a value")
	}

	children, _ := n.Value("children")
	nodes, ok := children.([]mold.Node)
	if !ok || len(nodes) != 2 {
		t.Fatalf("children = %T, want two nodes", children)
	}
	if v, _ := nodes[1].Value("title"); v != "Second" {
		t.Errorf("children[1].title = %v", v)
	}

	tags, _ := n.Value("tags")
	if s, ok := tags.([]any); !ok || len(s) != 2 {
		t.Errorf("tags = %#v, want two scalars", tags)
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, err := mold.DecodeNode(New(), []byte("title: [unclosed"))
	if !errors.Is(err, mold.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}

	var de *mold.DecodeError
	if !errors.As(err, &de) || de.ContentType != "application/yaml" {
		t.Errorf("expected DecodeError for application/yaml, got %v", err)
	}
}

func TestDecodeAnchors(t *testing.T) {
	doc := `
defaults: &defaults
  theme: dark
id: 5
settings:
  <<: *defaults
  size: 3
`
	n, err := mold.DecodeNode(New(), []byte(doc))
	if err != nil {
		t.Fatalf("DecodeNode() error: %v", err)
	}
	settings, _ := n.Value("settings")
	m, ok := settings.(map[string]any)
	if !ok {
		t.Fatalf("settings = %T", settings)
	}
	if m["theme"] != "dark" || m["size"] != 3 {
		t.Errorf("settings = %v", m)
	}
}

func TestDecodeDocument(t *testing.T) {
	doc := `
base: &base
  theme: dark
  size: 1
id: 7
1: one
settings:
  <<: [*base]
  size: 3
`
	got, err := New().(mold.DocumentDecoder).DecodeDocument([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeDocument() error: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("document = %T, want map[string]any", got)
	}
	if m["1"] != "one" || m["id"] != 7 {
		t.Errorf("document = %v", m)
	}
	settings, _ := m["settings"].(map[string]any)
	if settings["theme"] != "dark" || settings["size"] != 3 {
		t.Errorf("settings = %v, want merged theme and explicit size", settings)
	}
}
