package guardian

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/MrEthical07/guardian/jwt"
)

// Config is the complete engine configuration. Build clones it, so later
// changes to the caller's copy have no effect.
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Password PasswordConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// JWTConfig selects the single bearer algorithm and its key material.
type JWTConfig struct {
	// Algorithm is one of HS256, HS384, HS512 or EdDSA.
	Algorithm  string
	Secret     []byte
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string
	// TTL of zero issues bearers without exp; the token store bounds the session.
	TTL    time.Duration
	Leeway time.Duration
}

// SessionConfig controls the Redis token store.
type SessionConfig struct {
	RedisPrefix       string
	TTL               time.Duration
	SlidingExpiration bool
	AbsoluteLifetime  time.Duration
	JitterRange       time.Duration
}

// PasswordConfig holds argon2id parameters for new hashes plus the bcrypt
// cost used to verify legacy hashes.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MinPasswordBytes int
	MaxPasswordBytes int
	BcryptCost       int
	UpgradeOnLogin   bool
}

// ThrottleConfig controls the fixed-window attempt throttle.
type ThrottleConfig struct {
	Enabled          bool
	EnableIPThrottle bool
	MaxAttempts      int
	Window           time.Duration
}

// AuditConfig controls asynchronous audit delivery.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a working configuration with no key material. Set
// JWT.Secret (or the EdDSA keys) before building.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Algorithm: string(jwt.HS256),
			Issuer:    "guardian",
			Leeway:    30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix:       "gs",
			TTL:               7 * 24 * time.Hour,
			SlidingExpiration: false,
			AbsoluteLifetime:  30 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:           65536,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MinPasswordBytes: 8,
			MaxPasswordBytes: 1024,
			BcryptCost:       10,
			UpgradeOnLogin:   true,
		},
		Throttle: ThrottleConfig{
			Enabled:          true,
			EnableIPThrottle: true,
			MaxAttempts:      5,
			Window:           15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// JWT
	switch jwt.Algorithm(c.JWT.Algorithm) {
	case jwt.HS256, jwt.HS384, jwt.HS512:
		if len(c.JWT.Secret) < 32 {
			return errors.New("JWT Secret must be at least 32 bytes")
		}
	case jwt.EdDSA:
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("EdDSA requires PublicKey")
		}
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("EdDSA requires PrivateKey")
		}
	default:
		return fmt.Errorf("unsupported JWT algorithm %q", c.JWT.Algorithm)
	}
	if c.JWT.TTL < 0 {
		return errors.New("JWT TTL must be >= 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Session
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if strings.ContainsAny(c.Session.RedisPrefix, " \t\r\n") {
		return errors.New("Session RedisPrefix must not contain whitespace")
	}
	if c.Session.TTL < 0 {
		return errors.New("Session TTL must be >= 0")
	}
	if c.Session.SlidingExpiration && c.Session.TTL <= 0 {
		return errors.New("Session SlidingExpiration requires TTL > 0")
	}
	if c.Session.AbsoluteLifetime < 0 {
		return errors.New("Session AbsoluteLifetime must be >= 0")
	}
	if c.Session.SlidingExpiration && c.Session.AbsoluteLifetime > 0 && c.Session.AbsoluteLifetime < c.Session.TTL {
		return errors.New("Session AbsoluteLifetime must be >= TTL")
	}
	if c.Session.JitterRange < 0 {
		return errors.New("Session JitterRange must be >= 0")
	}
	if c.Session.JitterRange > time.Duration((math.MaxInt64-1)/2) {
		return errors.New("Session JitterRange is too large")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinPasswordBytes < 0 || c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password length bounds must be >= 0")
	}
	if c.Password.MaxPasswordBytes > 0 && c.Password.MinPasswordBytes > c.Password.MaxPasswordBytes {
		return errors.New("Password MinPasswordBytes must be <= MaxPasswordBytes")
	}
	if c.Password.BcryptCost < 0 || c.Password.BcryptCost > 31 {
		return errors.New("Password BcryptCost must be between 0 and 31")
	}

	// Throttle
	if c.Throttle.Enabled {
		if c.Throttle.MaxAttempts <= 0 {
			return errors.New("Throttle MaxAttempts must be > 0")
		}
		if c.Throttle.Window <= 0 {
			return errors.New("Throttle Window must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}

// LintSeverity ranks lint warnings.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning flags a configuration that is valid but probably unintended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError joins the warnings at or above min into one error, or returns nil.
func (ws LintWarnings) AsError(min LintSeverity) error {
	selected := ws.BySeverity(min)
	if len(selected) == 0 {
		return nil
	}
	parts := make([]string, len(selected))
	for i, w := range selected {
		parts[i] = fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message)
	}
	return errors.New("config lint: " + strings.Join(parts, "; "))
}

// Lint inspects a configuration that already passes Validate.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.JWT.Leeway > time.Minute {
		add("leeway_large", LintWarn, "JWT leeway above 1m widens the replay window")
	}
	if c.JWT.TTL > 0 && c.Session.TTL > 0 && c.JWT.TTL > c.Session.TTL && !c.Session.SlidingExpiration {
		add("bearer_outlives_session", LintInfo, "bearers stay signed after their token has expired from the store")
	}
	if c.Session.TTL == 0 {
		add("session_no_expiry", LintWarn, "tokens are stored without TTL and only leave the store on revoke")
	}
	if c.Session.SlidingExpiration && c.Session.AbsoluteLifetime == 0 {
		add("sliding_unbounded", LintHigh, "sliding sessions without an absolute lifetime can live forever")
	}
	if !c.Throttle.Enabled {
		add("throttle_disabled", LintHigh, "credential attempts are not throttled")
	} else if !c.Throttle.EnableIPThrottle {
		add("ip_throttle_disabled", LintInfo, "attempts are throttled per email only")
	}
	if c.Password.Memory < 64*1024 {
		add("argon2_memory_low", LintWarn, "argon2id memory below 64 MB")
	}
	if !c.Password.UpgradeOnLogin {
		add("password_upgrade_disabled", LintInfo, "legacy bcrypt hashes are never migrated")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "authentication outcomes are not audited")
	}

	return ws
}
