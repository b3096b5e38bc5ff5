// Package checksum derives content pointers from note bodies.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/starford/inscribe/internal/apperr"
)

// Scheme prefixes every pointer produced here.
const Scheme = "sha256:"

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Pointer returns the content pointer for data.
func Pointer(data []byte) string {
	return Scheme + Sum(data)
}

// NewHash returns a streaming hasher; pass its sum to FromHash.
func NewHash() hash.Hash { return sha256.New() }

// FromHash formats the pointer for a hasher obtained from NewHash.
func FromHash(h hash.Hash) string {
	return Scheme + hex.EncodeToString(h.Sum(nil))
}

// ParsePointer returns the hex digest of a pointer in this scheme.
func ParsePointer(p string) (string, error) {
	digest, ok := strings.CutPrefix(p, Scheme)
	if !ok || len(digest) != sha256.Size*2 {
		return "", fmt.Errorf("checksum: malformed pointer %q: %w", p, apperr.ErrInvalidInput)
	}
	if _, err := hex.DecodeString(digest); err != nil || strings.ToLower(digest) != digest {
		return "", fmt.Errorf("checksum: malformed pointer %q: %w", p, apperr.ErrInvalidInput)
	}
	return digest, nil
}
