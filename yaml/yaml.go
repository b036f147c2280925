// Package yaml provides a YAML codec for content documents.
package yaml

import (
	"fmt"

	"github.com/zoobzio/mold"
	"gopkg.in/yaml.v3"
)

// yamlCodec implements mold.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec.
func New() mold.Codec {
	return &yamlCodec{}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML.
func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// Unmarshal decodes YAML data into v.
func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// DecodeDocument decodes a YAML document into plain maps, slices and scalars.
// Aliases are expanded, merge keys ("<<") are applied without overriding
// explicit keys, and non-string mapping keys are stringified.
func (c *yamlCodec) DecodeDocument(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return plain(&root)
}

func plain(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return plain(n.Content[0])
	case yaml.AliasNode:
		return plain(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := plain(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return mapping(n)
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func mapping(n *yaml.Node) (map[string]any, error) {
	out := make(map[string]any, len(n.Content)/2)
	var merged []map[string]any
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if isMerge(key) {
			m, err := mergeSources(val)
			if err != nil {
				return nil, err
			}
			merged = append(merged, m...)
			continue
		}
		v, err := plain(val)
		if err != nil {
			return nil, err
		}
		out[key.Value] = v
	}
	for _, m := range merged {
		for k, v := range m {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out, nil
}

func isMerge(key *yaml.Node) bool {
	return key.Kind == yaml.ScalarNode && key.Value == "<<" &&
		(key.Tag == "" || key.Tag == "!" || key.ShortTag() == "!!merge")
}

// mergeSources returns the mappings named by a merge key, in priority order.
func mergeSources(n *yaml.Node) ([]map[string]any, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	var nodes []*yaml.Node
	switch n.Kind {
	case yaml.MappingNode:
		nodes = []*yaml.Node{n}
	case yaml.SequenceNode:
		nodes = n.Content
	default:
		return nil, fmt.Errorf("line %d: merge key needs a mapping", n.Line)
	}
	out := make([]map[string]any, 0, len(nodes))
	for _, src := range nodes {
		if src.Kind == yaml.AliasNode {
			src = src.Alias
		}
		if src.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: merge key needs a mapping", src.Line)
		}
		m, err := mapping(src)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
