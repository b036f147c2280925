package mold

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Reserved document keys.
const (
	DocumentID     = "id"
	DocumentAlias  = "alias"
	DocumentParent = "parent"
)

// DecodeNode decodes a document into a node tree. The document must be an
// object; its "id" and "alias" keys become the node identity, an object under
// "parent" becomes the parent node, nested objects carrying an "id" become
// child nodes and arrays of them become []Node.
func DecodeNode(c Codec, data []byte) (Node, error) {
	doc, err := decodeDocument(c, data)
	if err != nil {
		return nil, err
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, &DecodeError{ContentType: c.ContentType(), Cause: fmt.Errorf("document is %T, not an object", doc)}
	}
	return buildNode(m, nil), nil
}

// DecodeNodes decodes a document holding an array of objects, or a single
// object, into nodes.
func DecodeNodes(c Codec, data []byte) ([]Node, error) {
	doc, err := decodeDocument(c, data)
	if err != nil {
		return nil, err
	}
	switch d := doc.(type) {
	case map[string]any:
		return []Node{buildNode(d, nil)}, nil
	case []any:
		out := make([]Node, 0, len(d))
		for i, item := range d {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, &DecodeError{ContentType: c.ContentType(), Cause: fmt.Errorf("element %d is %T, not an object", i, item)}
			}
			out = append(out, buildNode(m, nil))
		}
		return out, nil
	}
	return nil, &DecodeError{ContentType: c.ContentType(), Cause: fmt.Errorf("document is %T", doc)}
}

// EncodeNode encodes a node and its values with c. The node must implement
// Named so its values can be enumerated. Child nodes are encoded as nested
// objects; the parent is not encoded.
func EncodeNode(c Codec, n Node) ([]byte, error) {
	m, err := nodeDocument(n)
	if err != nil {
		return nil, err
	}
	return c.Marshal(m)
}

func nodeDocument(n Node) (map[string]any, error) {
	named, ok := n.(Named)
	if !ok {
		return nil, fmt.Errorf("%w: node %d does not enumerate its values", ErrUnsupportedShape, n.ID())
	}
	m := map[string]any{DocumentID: n.ID(), DocumentAlias: n.TypeAlias()}
	for _, name := range named.Names() {
		v, _ := n.Value(name)
		enc, err := documentValue(v)
		if err != nil {
			return nil, err
		}
		m[name] = enc
	}
	return m, nil
}

func documentValue(v any) (any, error) {
	if child, ok := asNode(v); ok {
		return nodeDocument(child)
	}
	if nodes, ok := asNodes(v); ok && len(nodes) > 0 {
		out := make([]any, len(nodes))
		for i, child := range nodes {
			doc, err := nodeDocument(child)
			if err != nil {
				return nil, err
			}
			out[i] = doc
		}
		return out, nil
	}
	return v, nil
}

func decodeDocument(c Codec, data []byte) (any, error) {
	var doc any
	var err error
	if dd, ok := c.(DocumentDecoder); ok {
		doc, err = dd.DecodeDocument(data)
	} else {
		err = c.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, &DecodeError{ContentType: c.ContentType(), Cause: err}
	}
	return normalize(doc), nil
}

// normalize converts decoder-specific containers into map[string]any and []any.
func normalize(v any) any {
	switch d := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(d))
		for k, val := range d {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(d))
		for k, val := range d {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(d))
		for i, val := range d {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}

func buildNode(m map[string]any, parent Node) *MapNode {
	id, _ := toInt(m[DocumentID])
	alias, _ := m[DocumentAlias].(string)

	n := &MapNode{id: id, alias: alias, values: make(map[string]any, len(m))}
	if p, ok := m[DocumentParent].(map[string]any); ok {
		n.parent = buildNode(p, nil)
	} else if parent != nil {
		n.parent = parent
	}

	for k, v := range m {
		switch k {
		case DocumentID, DocumentAlias, DocumentParent:
			continue
		}
		n.values[k] = nodeValue(v, n)
	}
	return n
}

// nodeValue turns nested objects with an id into child nodes.
func nodeValue(v any, owner Node) any {
	switch d := v.(type) {
	case map[string]any:
		if _, ok := d[DocumentID]; ok {
			return buildNode(d, owner)
		}
		return d
	case []any:
		if len(d) == 0 {
			return d
		}
		nodes := make([]Node, 0, len(d))
		for _, item := range d {
			m, ok := item.(map[string]any)
			if !ok {
				return d
			}
			if _, ok := m[DocumentID]; !ok {
				return d
			}
			nodes = append(nodes, buildNode(m, owner))
		}
		return nodes
	}
	return v
}

// toInt converts the numeric forms produced by decoders into an int.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	case float32:
		return int(n), float64(n) == math.Trunc(float64(n))
	case float64:
		return int(n), n == math.Trunc(n)
	}
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, false
	case isInt(rv.Kind()):
		return int(rv.Int()), true
	case isUint(rv.Kind()):
		return int(rv.Uint()), true
	}
	return 0, false
}
