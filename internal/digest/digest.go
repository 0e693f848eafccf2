// Package digest computes the content fingerprints used to deduplicate history
// entries and to recognize clipboard writes made by clipq itself.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a hex-encoded digest.
const Size = sha256.Size * 2

// Bytes returns the lowercase hex SHA-256 of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// String returns the lowercase hex SHA-256 of the UTF-8 bytes of s.
// A UI hashing the same text with SHA-256 gets the same value.
func String(s string) string {
	return Bytes([]byte(s))
}

// Valid reports whether h looks like a digest produced by this package.
func Valid(h string) bool {
	if len(h) != Size {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
