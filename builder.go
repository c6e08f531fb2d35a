package guardian

import (
	"errors"

	internalaudit "github.com/MrEthical07/guardian/internal/audit"
	"github.com/MrEthical07/guardian/internal/rate"
	"github.com/MrEthical07/guardian/jwt"
	"github.com/MrEthical07/guardian/password"
	"github.com/MrEthical07/guardian/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Builder assembles an [Engine]. It is single-use.
//
//	engine, err := guardian.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithUserLookup(users).
//		Build()
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users     UserLookup
	tokens    TokenStore
	hasher    PasswordHasher
	auditSink AuditSink
	logger    *zerolog.Logger

	built bool
}

// New starts a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used by the token store and the attempt throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserLookup sets the user collaborator. Required.
func (b *Builder) WithUserLookup(users UserLookup) *Builder {
	b.users = users
	return b
}

// WithTokenStore overrides the Redis token store.
func (b *Builder) WithTokenStore(store TokenStore) *Builder {
	b.tokens = store
	return b
}

// WithPasswordHasher overrides the argon2id/bcrypt verifier for Check.
// HashPassword keeps using argon2id.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. Without it the engine logs nothing.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user lookup required")
	}
	if b.tokens == nil && b.redis == nil {
		return nil, errors.New("redis client or token store required")
	}
	if cfg.Throttle.Enabled && b.redis == nil {
		return nil, errors.New("Throttle requires redis client")
	}

	engine := &Engine{
		config:  cloneConfig(cfg),
		users:   b.users,
		metrics: NewMetrics(cfg.Metrics),
		logger:  zerolog.Nop(),
	}
	if b.logger != nil {
		engine.logger = b.logger.With().Str("component", "guardian").Logger()
	}

	// -------- TOKEN STORE --------
	if b.tokens != nil {
		engine.tokens = b.tokens
	} else {
		store := session.NewStore(b.redis, session.Options{
			Prefix:           cfg.Session.RedisPrefix,
			TTL:              cfg.Session.TTL,
			Sliding:          cfg.Session.SlidingExpiration,
			AbsoluteLifetime: cfg.Session.AbsoluteLifetime,
			JitterRange:      cfg.Session.JitterRange,
		})
		engine.sessionStore = store
		engine.tokens = store
	}

	// -------- THROTTLE --------
	if cfg.Throttle.Enabled {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.Throttle.EnableIPThrottle,
			MaxAttempts:      cfg.Throttle.MaxAttempts,
			Window:           cfg.Throttle.Window,
		})
	}

	// -------- PASSWORDS --------
	argon, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MinPasswordBytes: cfg.Password.MinPasswordBytes,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}
	legacy, err := password.NewBcrypt(cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}
	verifier, err := password.NewVerifier(argon, legacy)
	if err != nil {
		return nil, err
	}
	engine.verifier = verifier
	engine.hasher = verifier
	if b.hasher != nil {
		engine.hasher = b.hasher
	}

	// -------- BEARER --------
	jm, err := jwt.NewManager(jwt.Config{
		Algorithm:  jwt.Algorithm(cfg.JWT.Algorithm),
		Secret:     cloneBytes(cfg.JWT.Secret),
		PrivateKey: cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:  cloneBytes(cfg.JWT.PublicKey),
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		TTL:        cfg.JWT.TTL,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	// -------- AUDIT --------
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	engine.initFlows()

	b.built = true
	return engine, nil
}
