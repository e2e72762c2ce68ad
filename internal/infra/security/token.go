package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// tokenByteLength is the entropy of raw action tokens.
const tokenByteLength = 32

// GenerateToken returns a base64 URL-safe random string suitable for
// embedding in outgoing email links.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// WellFormedToken reports whether raw has the shape of a token produced by
// GenerateToken. Malformed input is rejected before any storage lookup so
// the request can fail hard instead of masquerading as an expired token.
func WellFormedToken(raw string) bool {
	if raw == "" {
		return false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return false
	}

	return len(decoded) == tokenByteLength
}

// HashToken calculates a SHA-256 hash of the provided value.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
