package guardian

import (
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestDefaultConfigNeedsSecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected default config without secret to be rejected")
	}
	cfg = validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name: "jwt leeway valid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 45 * time.Second
			},
			wantValid: true,
		},
		{
			name: "jwt leeway invalid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 3 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "jwt algorithm invalid",
			mutate: func(c *Config) {
				c.JWT.Algorithm = "RS256"
			},
			wantValid: false,
		},
		{
			name: "jwt secret short",
			mutate: func(c *Config) {
				c.JWT.Secret = []byte("short")
			},
			wantValid: false,
		},
		{
			name: "eddsa without keys",
			mutate: func(c *Config) {
				c.JWT.Algorithm = "EdDSA"
			},
			wantValid: false,
		},
		{
			name: "session prefix blank",
			mutate: func(c *Config) {
				c.Session.RedisPrefix = "  "
			},
			wantValid: false,
		},
		{
			name: "sliding requires ttl",
			mutate: func(c *Config) {
				c.Session.SlidingExpiration = true
				c.Session.TTL = 0
			},
			wantValid: false,
		},
		{
			name: "absolute lifetime shorter than ttl",
			mutate: func(c *Config) {
				c.Session.SlidingExpiration = true
				c.Session.TTL = time.Hour
				c.Session.AbsoluteLifetime = time.Minute
			},
			wantValid: false,
		},
		{
			name: "sliding valid",
			mutate: func(c *Config) {
				c.Session.SlidingExpiration = true
				c.Session.TTL = time.Hour
				c.Session.AbsoluteLifetime = 24 * time.Hour
				c.Session.JitterRange = time.Second
			},
			wantValid: true,
		},
		{
			name: "password memory low",
			mutate: func(c *Config) {
				c.Password.Memory = 1024
			},
			wantValid: false,
		},
		{
			name: "password bounds inverted",
			mutate: func(c *Config) {
				c.Password.MinPasswordBytes = 64
				c.Password.MaxPasswordBytes = 32
			},
			wantValid: false,
		},
		{
			name: "bcrypt cost out of range",
			mutate: func(c *Config) {
				c.Password.BcryptCost = 40
			},
			wantValid: false,
		},
		{
			name: "throttle without attempts",
			mutate: func(c *Config) {
				c.Throttle.MaxAttempts = 0
			},
			wantValid: false,
		},
		{
			name: "throttle disabled ignores attempts",
			mutate: func(c *Config) {
				c.Throttle.Enabled = false
				c.Throttle.MaxAttempts = 0
			},
			wantValid: true,
		},
		{
			name: "audit buffer zero",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected invalid config")
			}
		})
	}
}

func TestCloneConfigCopiesKeyMaterial(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)
	clone.JWT.Secret[0] = 'X'
	if cfg.JWT.Secret[0] == 'X' {
		t.Fatal("clone shares the secret slice")
	}
}
