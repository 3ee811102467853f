package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash generates a SHA-256 hash of the input string
func Hash(input string) string {
	hasher := sha256.New()
	hasher.Write([]byte(input))
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashParts hashes the parts joined with a separator that cannot appear in
// normalized text, so ("a b", "c") and ("a", "b c") never collide.
func HashParts(parts ...string) string {
	return Hash(strings.Join(parts, "\x1f"))
}

// Truncate shortens s to at most max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
