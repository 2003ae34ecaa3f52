package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MinSecretBytes is the smallest secret GenerateSecret will produce.
// Cookie HMAC keys shorter than this are rejected by config validation.
const MinSecretBytes = 32

// GenerateSecret returns n random bytes, hex encoded, for use as
// JWT_SECRET or COOKIE_SECRET.
func GenerateSecret(n int) (string, error) {
	if n < MinSecretBytes {
		n = MinSecretBytes
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
