package password

import (
	"errors"
	"strings"
)

// ErrUnknownHashFormat is returned when a stored hash matches no supported scheme.
var ErrUnknownHashFormat = errors.New("unknown password hash format")

// Verifier checks passwords against argon2id or bcrypt hashes and always
// produces argon2id for new ones. Accounts imported with bcrypt hashes keep
// working and are reported by NeedsRehash until re-hashed.
type Verifier struct {
	argon  *Argon2
	bcrypt *Bcrypt
}

// NewVerifier combines the two hashers. bcrypt may be nil when no legacy
// hashes exist.
func NewVerifier(argon *Argon2, legacy *Bcrypt) (*Verifier, error) {
	if argon == nil {
		return nil, errors.New("argon2 hasher is required")
	}
	return &Verifier{argon: argon, bcrypt: legacy}, nil
}

// Check reports whether plain matches hash. Oversized plaintext is a plain
// mismatch, not an error.
func (v *Verifier) Check(plain, hash string) (bool, error) {
	var (
		ok  bool
		err error
	)
	switch {
	case strings.HasPrefix(hash, "$"+algorithmID+"$"):
		ok, err = v.argon.Verify(plain, hash)
	case isBcryptHash(hash) && v.bcrypt != nil:
		ok, err = v.bcrypt.Verify(plain, hash)
	default:
		return false, ErrUnknownHashFormat
	}
	if errors.Is(err, ErrPasswordTooLong) {
		return false, nil
	}
	return ok, err
}

// Hash produces an argon2id hash for plain.
func (v *Verifier) Hash(plain string) (string, error) {
	return v.argon.Hash(plain)
}

// NeedsRehash reports whether hash should be replaced on the next
// successful login.
func (v *Verifier) NeedsRehash(hash string) (bool, error) {
	if isBcryptHash(hash) {
		return true, nil
	}
	return v.argon.NeedsUpgrade(hash)
}
