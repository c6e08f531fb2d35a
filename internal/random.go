package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const sessionTokenSize = 32

// NewSessionToken returns a fresh opaque session token: 32 random bytes,
// base64url encoded without padding.
func NewSessionToken() (string, error) {
	var raw [sessionTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// ValidSessionToken reports whether token has the shape produced by
// NewSessionToken.
func ValidSessionToken(token string) bool {
	if base64.RawURLEncoding.EncodedLen(sessionTokenSize) != len(token) {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil && len(raw) == sessionTokenSize
}

// HashSessionToken returns the hex SHA-256 digest used as the storage key
// for token. Plaintext tokens never leave the process.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
