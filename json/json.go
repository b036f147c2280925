// Package json provides a JSON codec for content documents.
package json

import (
	"bytes"
	"encoding/json"

	"github.com/zoobzio/mold"
)

// jsonCodec implements mold.Codec for JSON.
type jsonCodec struct{}

// New returns a JSON codec.
func New() mold.Codec {
	return &jsonCodec{}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// DecodeDocument decodes a generic document. Numbers keep their literal
// form so integer ids and values are not rounded through float64.
func (c *jsonCodec) DecodeDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return numbers(doc), nil
}

// numbers replaces json.Number with int64 when integral, else float64.
func numbers(v any) any {
	switch d := v.(type) {
	case json.Number:
		if i, err := d.Int64(); err == nil {
			return i
		}
		f, _ := d.Float64() //nolint:errcheck // validated by the decoder
		return f
	case map[string]any:
		for k, val := range d {
			d[k] = numbers(val)
		}
	case []any:
		for i, val := range d {
			d[i] = numbers(val)
		}
	}
	return v
}
