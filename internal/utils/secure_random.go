package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateSecureRandomString generates a cryptographically secure random string of the specified byte length,
// then hex encodes it. For example, lengthInBytes=32 will result in a 64-character hex string.
func GenerateSecureRandomString(lengthInBytes int) (string, error) {
	if lengthInBytes <= 0 {
		return "", fmt.Errorf("lengthInBytes must be positive")
	}
	b := make([]byte, lengthInBytes)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewLoanReference builds a loan identifier from a UTC timestamp and a
// crypto-random suffix. Collision probability at 6 random bytes within the
// same second is negligible at expected scale.
func NewLoanReference(now time.Time) (string, error) {
	suffix, err := GenerateSecureRandomString(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("LN-%s-%s", now.UTC().Format("20060102T150405"), suffix), nil
}
