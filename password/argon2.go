package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

const (
	// DefaultMinPasswordBytes matches the 8 character minimum of the account forms.
	DefaultMinPasswordBytes = 8
	// DefaultMaxPasswordBytes bounds the work a single Verify call can be forced to do.
	DefaultMaxPasswordBytes = 1024
)

var (
	// ErrPasswordTooShort is returned by Hash for passwords under the minimum.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordTooLong is returned by Hash and Verify for passwords over the maximum.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrInvalidHash is returned when a stored argon2id string cannot be decoded.
	ErrInvalidHash = errors.New("invalid argon2id hash")
)

// floor is the weakest parameter set accepted in configuration or in a
// stored hash.
var floor = params{memory: 8 * 1024, time: 1, threads: 1, saltLen: 16, keyLen: 16}

// Config holds the argon2id cost parameters and plaintext length bounds.
// Zero length bounds fall back to the package defaults.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinPasswordBytes int
	MaxPasswordBytes int
}

type params struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

// weakerThan reports whether any cost of p is below the matching cost of q.
func (p params) weakerThan(q params) bool {
	return p.memory < q.memory || p.time < q.time || p.threads < q.threads || p.keyLen != q.keyLen
}

// Argon2 hashes and verifies argon2id strings in the
// $argon2id$v=19$m=...,t=...,p=...$salt$key layout.
type Argon2 struct {
	p        params
	minBytes int
	maxBytes int
}

// NewArgon2 validates cfg and returns a hasher. It is safe for concurrent use.
func NewArgon2(cfg Config) (*Argon2, error) {
	a := &Argon2{
		p: params{
			memory:  cfg.Memory,
			time:    cfg.Time,
			threads: cfg.Parallelism,
			saltLen: cfg.SaltLength,
			keyLen:  cfg.KeyLength,
		},
		minBytes: cfg.MinPasswordBytes,
		maxBytes: cfg.MaxPasswordBytes,
	}
	if a.minBytes == 0 {
		a.minBytes = DefaultMinPasswordBytes
	}
	if a.maxBytes == 0 {
		a.maxBytes = DefaultMaxPasswordBytes
	}

	switch {
	case a.p.memory < floor.memory:
		return nil, fmt.Errorf("password memory must be >= %d KB", floor.memory)
	case a.p.time < floor.time:
		return nil, errors.New("password time must be >= 1")
	case a.p.threads < floor.threads:
		return nil, errors.New("password parallelism must be >= 1")
	case a.p.saltLen < floor.saltLen:
		return nil, fmt.Errorf("password salt length must be >= %d", floor.saltLen)
	case a.p.keyLen < floor.keyLen:
		return nil, fmt.Errorf("password key length must be >= %d", floor.keyLen)
	case a.minBytes < 1 || a.maxBytes < a.minBytes:
		return nil, errors.New("password length bounds are invalid")
	}
	return a, nil
}

// Hash returns an encoded argon2id hash of password. The raw bytes are
// hashed as given, with no Unicode normalization.
func (a *Argon2) Hash(password string) (string, error) {
	switch {
	case len(password) < a.minBytes:
		return "", ErrPasswordTooShort
	case len(password) > a.maxBytes:
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, a.p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, a.p.time, a.p.memory, a.p.threads, a.p.keyLen)

	b64 := base64.StdEncoding
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version,
		a.p.memory, a.p.time, a.p.threads,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. The derived keys are
// compared in constant time.
func (a *Argon2) Verify(password, encoded string) (bool, error) {
	if len(password) > a.maxBytes {
		return false, ErrPasswordTooLong
	}

	p, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}
	derived := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters
// than the hasher's.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	p, _, _, err := decode(encoded)
	if err != nil {
		return false, err
	}
	return p.weakerThan(a.p), nil
}

func decode(encoded string) (params, []byte, []byte, error) {
	var p params

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != algorithmID {
		return p, nil, nil, ErrInvalidHash
	}

	version, ok := strings.CutPrefix(fields[2], "v=")
	if !ok {
		return p, nil, nil, fmt.Errorf("%w: missing version", ErrInvalidHash)
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidHash, version)
	}

	if err := decodeCosts(fields[3], &p); err != nil {
		return p, nil, nil, err
	}

	b64 := base64.StdEncoding
	salt, err := b64.DecodeString(fields[4])
	if err != nil || uint32(len(salt)) < floor.saltLen {
		return p, nil, nil, fmt.Errorf("%w: bad salt", ErrInvalidHash)
	}
	key, err := b64.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("%w: bad key", ErrInvalidHash)
	}
	p.saltLen = uint32(len(salt))
	p.keyLen = uint32(len(key))
	return p, salt, key, nil
}

// decodeCosts reads exactly one each of m, t and p.
func decodeCosts(field string, p *params) error {
	seen := map[string]bool{}
	for _, pair := range strings.Split(field, ",") {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || seen[name] {
			return fmt.Errorf("%w: bad parameter %q", ErrInvalidHash, pair)
		}
		seen[name] = true

		var (
			v   uint64
			err error
		)
		switch name {
		case "m":
			v, err = strconv.ParseUint(raw, 10, 32)
			p.memory = uint32(v)
			if err == nil && p.memory < floor.memory {
				err = errors.New("below floor")
			}
		case "t":
			v, err = strconv.ParseUint(raw, 10, 32)
			p.time = uint32(v)
			if err == nil && p.time < floor.time {
				err = errors.New("below floor")
			}
		case "p":
			v, err = strconv.ParseUint(raw, 10, 8)
			p.threads = uint8(v)
			if err == nil && p.threads < floor.threads {
				err = errors.New("below floor")
			}
		default:
			err = errors.New("unknown parameter")
		}
		if err != nil {
			return fmt.Errorf("%w: parameter %s: %v", ErrInvalidHash, name, err)
		}
	}
	if len(seen) != 3 {
		return fmt.Errorf("%w: missing parameters", ErrInvalidHash)
	}
	return nil
}
