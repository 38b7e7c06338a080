package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the lowercase hex SHA-256 digest of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashUserKey returns a filesystem-safe identifier for a user ID.
func HashUserKey(s string) string {
	return SHA256Hex("user:" + s)
}
