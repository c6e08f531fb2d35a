package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/validation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override. A double underscore
	// separates nesting levels: GUARDIAN_AUTH__JWT_SECRET sets auth.jwt_secret.
	EnvPrefix = "GUARDIAN_"
	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "GUARDIAN_CONFIG"
	// DefaultConfigPath is read when present and nothing else is given.
	DefaultConfigPath = "config.yaml"
)

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
	Redis    RedisConfig    `koanf:"redis"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Cache    CacheConfig    `koanf:"cache"`
	Rate     RateConfig     `koanf:"rate"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	Production      bool          `koanf:"production"`
	// CORSOrigins lists the browser origins allowed to call the API. Empty
	// disables CORS handling.
	CORSOrigins []string `koanf:"cors_origins" validate:"dive,url|eq=*"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

// DatabaseConfig selects the persistent store. The memory driver keeps
// everything in process and is meant for development.
type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory postgres"`
	DSN    string `koanf:"dsn" validate:"required_if=Driver postgres"`
}

type AuthConfig struct {
	JWTAlgorithm string        `koanf:"jwt_algorithm" validate:"oneof=HS256 HS384 HS512"`
	JWTSecret    string        `koanf:"jwt_secret" validate:"required,min=32"`
	Issuer       string        `koanf:"issuer"`
	Audience     string        `koanf:"audience"`
	JWTTTL       time.Duration `koanf:"jwt_ttl" validate:"gte=0"`
	SessionTTL   time.Duration `koanf:"session_ttl" validate:"gte=0"`
	Sliding      bool          `koanf:"sliding"`
	MaxAttempts  int           `koanf:"max_attempts" validate:"gte=0"`
	AttemptsTTL  time.Duration `koanf:"attempts_window" validate:"gte=0"`
	BcryptCost   int           `koanf:"bcrypt_cost" validate:"gte=4,lte=31"`
	// Audit logs every authentication and authorization outcome through the
	// application logger.
	Audit bool `koanf:"audit"`
}

type CacheConfig struct {
	Prefix string        `koanf:"prefix" validate:"required"`
	TTL    time.Duration `koanf:"ttl" validate:"gt=0"`
}

// RateConfig is the per-IP request budget applied to every route.
type RateConfig struct {
	Requests int           `koanf:"requests" validate:"gte=0"`
	Window   time.Duration `koanf:"window" validate:"gt=0"`
}

// DefaultConfig returns every default. It carries no JWT secret.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
		Database: DatabaseConfig{
			Driver: "memory",
		},
		Auth: AuthConfig{
			JWTAlgorithm: "HS256",
			Issuer:       "guardian",
			SessionTTL:   7 * 24 * time.Hour,
			MaxAttempts:  5,
			AttemptsTTL:  15 * time.Minute,
			BcryptCost:   10,
		},
		Cache: CacheConfig{
			Prefix: "guardian_cache",
			TTL:    time.Hour,
		},
		Rate: RateConfig{
			Requests: 60,
			Window:   time.Minute,
		},
	}
}

// LoadConfig layers defaults, an optional YAML file and GUARDIAN_*
// environment variables, in that order, then validates the result. path
// may be empty.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	configPath, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile resolves the file to load. An explicit path must exist;
// the default path is optional.
func findConfigFile(path string) (string, error) {
	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return path, nil
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath, nil
	}
	return "", nil
}

// envTransform maps GUARDIAN_AUTH__JWT_SECRET to auth.jwt_secret.
func envTransform(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Validate checks field rules.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Guardian translates the auth settings into an engine configuration.
func (c *Config) Guardian() guardian.Config {
	cfg := guardian.DefaultConfig()
	cfg.JWT.Algorithm = c.Auth.JWTAlgorithm
	cfg.JWT.Secret = []byte(c.Auth.JWTSecret)
	cfg.JWT.Issuer = c.Auth.Issuer
	cfg.JWT.Audience = c.Auth.Audience
	cfg.JWT.TTL = c.Auth.JWTTTL
	cfg.Session.TTL = c.Auth.SessionTTL
	cfg.Session.SlidingExpiration = c.Auth.Sliding
	cfg.Password.BcryptCost = c.Auth.BcryptCost
	cfg.Throttle.Enabled = c.Auth.MaxAttempts > 0
	cfg.Throttle.MaxAttempts = c.Auth.MaxAttempts
	cfg.Throttle.Window = c.Auth.AttemptsTTL
	cfg.Audit.Enabled = c.Auth.Audit
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}
