// Package bson provides a BSON codec for content documents.
package bson

import (
	"github.com/zoobzio/mold"
	"go.mongodb.org/mongo-driver/bson"
)

// bsonCodec implements mold.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() mold.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as BSON.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	return bson.Unmarshal(data, v)
}

// DecodeDocument decodes a BSON document, flattening bson.D, bson.M and
// bson.A into plain maps and slices.
func (c *bsonCodec) DecodeDocument(data []byte) (any, error) {
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return plain(doc), nil
}

func plain(v any) any {
	switch d := v.(type) {
	case bson.M:
		out := make(map[string]any, len(d))
		for k, val := range d {
			out[k] = plain(val)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(d))
		for _, e := range d {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(d))
		for i, val := range d {
			out[i] = plain(val)
		}
		return out
	}
	return v
}
