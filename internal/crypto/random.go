package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// StateNonceBytes is the number of random bytes behind an OAuth state nonce.
const StateNonceBytes = 16

// GenerateStateNonce creates a cryptographically secure random nonce,
// hex-encoded, suitable for use as an OAuth state parameter.
func GenerateStateNonce() (string, error) {
	b := make([]byte, StateNonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// EqualNonEmpty reports whether a and b are both non-empty and equal,
// comparing in constant time.
func EqualNonEmpty(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
