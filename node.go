package mold

import (
	"reflect"
	"sort"
)

// Node is a unit of semi-structured content: an identity, a type alias and a
// bag of named raw values. Nodes are owned by the content source; the engine
// never mutates them.
type Node interface {
	// ID returns the node identity.
	ID() int

	// TypeAlias returns the content type tag of the node.
	TypeAlias() string

	// Value returns the raw value stored under name.
	Value(name string) (any, bool)
}

// Parented is implemented by nodes that know their parent. The property
// processor uses it for recursive (ancestor) lookups.
type Parented interface {
	Parent() Node
}

// Named is implemented by nodes that can enumerate their value names.
type Named interface {
	Names() []string
}

// MapNode is an in-memory Node backed by a map.
type MapNode struct {
	id     int
	alias  string
	parent Node
	values map[string]any
}

// NewNode returns a MapNode. The values map is copied.
func NewNode(id int, alias string, values map[string]any) *MapNode {
	n := &MapNode{
		id:     id,
		alias:  alias,
		values: make(map[string]any, len(values)),
	}
	for k, v := range values {
		n.values[k] = v
	}
	return n
}

// WithParent sets the parent of the node and returns it.
func (n *MapNode) WithParent(parent Node) *MapNode {
	n.parent = parent
	return n
}

// ID implements Node.
func (n *MapNode) ID() int { return n.id }

// TypeAlias implements Node.
func (n *MapNode) TypeAlias() string { return n.alias }

// Value implements Node.
func (n *MapNode) Value(name string) (any, bool) {
	v, ok := n.values[name]
	return v, ok
}

// Parent implements Parented.
func (n *MapNode) Parent() Node {
	return n.parent
}

// Names implements Named. Names are sorted.
func (n *MapNode) Names() []string {
	names := make([]string, 0, len(n.values))
	for k := range n.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var nodeType = reflect.TypeFor[Node]()

// isNil reports whether v is nil or a typed nil inside an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// asNode returns v as a Node when it is a non-nil node.
func asNode(v any) (Node, bool) {
	if isNil(v) {
		return nil, false
	}
	n, ok := v.(Node)
	return n, ok
}

// asNodes returns v as a node slice when it is a sequence consisting only of nodes.
func asNodes(v any) ([]Node, bool) {
	switch s := v.(type) {
	case []Node:
		return s, true
	case []*MapNode:
		out := make([]Node, len(s))
		for i, n := range s {
			out[i] = n
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]Node, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		n, ok := asNode(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
