package jwt

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm names the single signing algorithm a [Manager] accepts.
type Algorithm string

const (
	// HS256 signs with HMAC-SHA-256 over a shared secret.
	HS256 Algorithm = "HS256"
	// HS384 signs with HMAC-SHA-384 over a shared secret.
	HS384 Algorithm = "HS384"
	// HS512 signs with HMAC-SHA-512 over a shared secret.
	HS512 Algorithm = "HS512"
	// EdDSA signs with an Ed25519 key pair.
	EdDSA Algorithm = "EdDSA"
)

const minSecretBytes = 32

var (
	// ErrMalformed is returned when a bearer cannot be decoded as a signed token.
	ErrMalformed = errors.New("malformed token")
	// ErrInvalidSignature is returned when the signature or algorithm does not verify.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrExpired is returned when the token is outside its validity window.
	ErrExpired = errors.New("token expired")
)

// Config controls bearer signing and verification.
type Config struct {
	Algorithm  Algorithm
	Secret     []byte
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string
	// TTL of zero issues bearers without an exp claim; the opaque token in
	// the store then bounds the session.
	TTL    time.Duration
	Leeway time.Duration
}

// Manager signs and parses session bearers. It is safe for concurrent use.
type Manager struct {
	config Config
	method jwt.SigningMethod
	sign   interface{}
	verify interface{}
	now    func() time.Time
}

// Claims is the decoded bearer payload. ID and Token are left untyped so the
// caller can distinguish a missing field from a field of the wrong type.
type Claims struct {
	ID    interface{} `json:"id"`
	Token interface{} `json:"token"`
	jwt.RegisteredClaims
}

type signedClaims struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and prepares the keys for its algorithm.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	m := &Manager{config: cfg, now: time.Now}

	switch cfg.Algorithm {
	case HS256, HS384, HS512:
		if len(cfg.Secret) < minSecretBytes {
			return nil, fmt.Errorf("%s requires a secret of at least %d bytes", cfg.Algorithm, minSecretBytes)
		}
		m.method = jwt.GetSigningMethod(string(cfg.Algorithm))
		m.sign = cfg.Secret
		m.verify = cfg.Secret
	case EdDSA:
		pub, err := parseEdPublicKey(cfg.PublicKey)
		if err != nil {
			return nil, err
		}
		m.method = jwt.SigningMethodEdDSA
		m.verify = pub
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			m.sign = priv
		}
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	return m, nil
}

// Algorithm returns the configured algorithm name.
func (m *Manager) Algorithm() Algorithm {
	return m.config.Algorithm
}

// Sign mints a bearer carrying the user id and the opaque session token.
func (m *Manager) Sign(id int64, token string) (string, error) {
	if m.sign == nil {
		return "", errors.New("manager has no signing key")
	}
	if id <= 0 {
		return "", errors.New("user id must be positive")
	}
	if token == "" {
		return "", errors.New("session token must not be empty")
	}

	now := m.now()
	claims := signedClaims{
		ID:    id,
		Token: token,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   m.config.Issuer,
		},
	}
	if m.config.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.TTL))
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	return jwt.NewWithClaims(m.method, claims).SignedString(m.sign)
}

// Parse verifies bearer against the single allowed algorithm and decodes
// its payload. Errors are always one of [ErrMalformed],
// [ErrInvalidSignature] or [ErrExpired].
func (m *Manager) Parse(bearer string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithJSONNumber(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(bearer, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verify, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// UserID converts the decoded id claim to a positive int64. JSON numbers and
// numeric strings are accepted.
func (c *Claims) UserID() (int64, bool) {
	var raw string
	switch v := c.ID.(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = strings.TrimSpace(v)
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SessionToken returns the opaque token claim when it is a string.
func (c *Claims) SessionToken() (string, bool) {
	token, ok := c.Token.(string)
	return token, ok
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == 0 {
		return nil, errors.New("EdDSA requires a public key")
	}
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
