// Package fingerprint computes stable content hashes used for import dedup
// and import-identity derivation.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash returns the lowercase hex SHA-256 digest of content with surrounding
// whitespace trimmed. Two contents that differ only in surrounding
// whitespace share a fingerprint.
func Hash(content string) string {
	trimmed := strings.TrimSpace(content)
	sum := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(sum[:])
}
