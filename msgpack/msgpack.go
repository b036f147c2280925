// Package msgpack provides a MessagePack codec for content documents.
package msgpack

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zoobzio/mold"
)

// msgpackCodec implements mold.Codec for MessagePack.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() mold.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack.
func (c *msgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes MessagePack data into v.
func (c *msgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// DecodeDocument decodes a generic document with loose interface decoding:
// signed integers become int64, unsigned integers uint64 and floats float64,
// whatever width the encoder chose.
func (c *msgpackCodec) DecodeDocument(data []byte) (any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	return dec.DecodeInterface()
}
