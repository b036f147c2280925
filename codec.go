package mold

// Codec provides content-type aware marshaling for content documents.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// DocumentDecoder is implemented by codecs whose generic decoding needs
// format-specific normalization. DecodeDocument returns maps, slices and
// scalars only.
type DocumentDecoder interface {
	DecodeDocument(data []byte) (any, error)
}
