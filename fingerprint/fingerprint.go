// Package fingerprint hashes canonical content.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/canon"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// Sum returns the lowercase hex SHA-256 digest of canonical bytes.
func Sum(canonical []byte) string {
	s := sha256.Sum256(canonical)
	return hex.EncodeToString(s[:])
}

// Of canonicalizes v and returns its fingerprint.
func Of(v any) (string, error) {
	b, err := canon.Canonicalize(v)
	if err != nil {
		return "", err
	}
	return Sum(b), nil
}

// Valid reports whether s is a well-formed fingerprint: exactly Size
// lowercase hex characters.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Equal compares two fingerprints byte for byte. An uppercase rendering of
// the same digest is a different fingerprint.
func Equal(a, b string) bool { return a == b }
