package mold

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// HashAlgo names a deterministic digest used by the hash processor.
type HashAlgo string

const (
	HashSHA256  HashAlgo = "sha256"
	HashSHA512  HashAlgo = "sha512"
	HashBLAKE2b HashAlgo = "blake2b"
)

// Hasher performs one-way hashing. Results are hex-encoded.
type Hasher interface {
	Hash(data []byte) string
}

// HashFunc adapts a function to the Hasher interface.
type HashFunc func(data []byte) string

// Hash implements Hasher.
func (f HashFunc) Hash(data []byte) string { return f(data) }

var hashers = map[HashAlgo]Hasher{
	HashSHA256: HashFunc(func(b []byte) string {
		sum := sha256.Sum256(b)
		return hex.EncodeToString(sum[:])
	}),
	HashSHA512: HashFunc(func(b []byte) string {
		sum := sha512.Sum512(b)
		return hex.EncodeToString(sum[:])
	}),
	HashBLAKE2b: HashFunc(func(b []byte) string {
		sum := blake2b.Sum256(b)
		return hex.EncodeToString(sum[:])
	}),
}

// Hash is a processor replacing string and byte values with their digest,
// e.g. for avatar lookups or cache-busting tokens.
type Hash struct {
	Algo   HashAlgo
	hasher Hasher
}

// NewHash returns a hash processor for algo. An empty algo selects sha256.
func NewHash(algo HashAlgo) (*Hash, error) {
	if algo == "" {
		algo = HashSHA256
	}
	h, ok := hashers[algo]
	if !ok {
		return nil, fmt.Errorf("%w: hash algorithm %q", ErrInvalidTag, algo)
	}
	return &Hash{Algo: algo, hasher: h}, nil
}

// Process implements Processor.
func (h *Hash) Process(value any, _ *ProcessorContext) (any, error) {
	switch v := value.(type) {
	case string:
		return h.hasher.Hash([]byte(v)), nil
	case []byte:
		return h.hasher.Hash(v), nil
	}
	return value, nil
}
