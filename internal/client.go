package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashIdentifier normalises an email or client address and hashes it so
// throttle keys never carry personal data.
func HashIdentifier(v string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(v))))
	return hex.EncodeToString(sum[:16])
}
