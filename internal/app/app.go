// Package app wires the guardian engine, the repositories and the HTTP API
// into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/MrEthical07/guardian/internal/postgres"
	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/MrEthical07/guardian/internal/repository/memstore"
	"github.com/MrEthical07/guardian/permission"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App is a fully wired server.
type App struct {
	cfg      *Config
	logger   zerolog.Logger
	redis    redis.UniversalClient
	ownRedis bool
	pool     *pgxpool.Pool
	store    repository.Store

	Repositories

	Engine   *guardian.Engine
	Registry *prometheus.Registry

	handler http.Handler
}

// Option overrides a dependency New would otherwise build from config.
type Option func(*App)

// WithRedis uses rdb instead of dialing cfg.Redis. The caller keeps
// ownership of rdb.
func WithRedis(rdb redis.UniversalClient) Option {
	return func(a *App) {
		a.redis = rdb
	}
}

// WithStore uses store instead of the configured database driver.
func WithStore(store repository.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

// New connects the back ends and builds the engine and router.
func New(ctx context.Context, cfg *Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	if a.redis == nil {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.ownRedis = true
	}

	if a.store == nil {
		store, err := a.openStore(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = store
	}

	c := cache.New(a.redis, cfg.Cache.Prefix, cache.WithTTL(cfg.Cache.TTL), cache.WithLogger(logger))
	a.Repositories = NewRepositories(a.store, c, logger)

	builder := guardian.New().
		WithConfig(cfg.Guardian()).
		WithRedis(a.redis).
		WithUserLookup(a.Users).
		WithLogger(logger)
	if cfg.Auth.Audit {
		builder = builder.WithAuditSink(guardian.NewLoggerSink(logger))
	}
	engine, err := builder.Build()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	a.Engine = engine
	a.Registry = NewRegistry(engine)

	a.handler = NewRouter(RouterParams{
		Config:   cfg,
		Logger:   logger,
		Engine:   engine,
		Handler:  NewHandler(engine, a.Repositories),
		Registry: a.Registry,
	})
	return a, nil
}

func (a *App) openStore(ctx context.Context) (repository.Store, error) {
	switch a.cfg.Database.Driver {
	case "postgres":
		pool, err := postgres.Open(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		a.pool = pool
		return postgres.NewStore(pool), nil
	default:
		return memstore.New(), nil
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.handler,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	a.logger.Info().Msg("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the engine and every connection New opened.
func (a *App) Close() {
	if a.Engine != nil {
		a.Engine.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.ownRedis && a.redis != nil {
		_ = a.redis.Close()
	}
}

// SeedOptions describes the initial data Seed writes.
type SeedOptions struct {
	Catalog       *permission.RoleCatalog
	AdminEmail    string
	AdminUserName string
	AdminPassword string
	// Posts sample posts are written by the admin when no post exists.
	Posts int
}

// Seed creates the catalog roles when no role exists yet, and the admin
// account when AdminEmail is set and unknown. It is safe to run on every
// start.
func (a *App) Seed(ctx context.Context, opts SeedOptions) error {
	if opts.Catalog != nil {
		roles, err := a.Roles.FindAllRoles(ctx)
		if err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}
		if len(roles) == 0 {
			for _, name := range opts.Catalog.Roles() {
				mask, _ := opts.Catalog.Mask(name)
				staff := mask != 0
				if _, err := a.Roles.CreateRole(ctx, repository.RoleInput{Title: name, Permissions: mask, IsStaff: staff}); err != nil {
					return fmt.Errorf("seed role %q: %w", name, err)
				}
			}
			a.logger.Info().Int("roles", opts.Catalog.Count()).Msg("seeded roles")
		}
	}

	if opts.AdminEmail == "" {
		return nil
	}
	admin, err := a.seedAdmin(ctx, opts)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if opts.Posts > 0 {
		if err := a.seedPosts(ctx, admin.ID, opts.Posts); err != nil {
			return fmt.Errorf("seed posts: %w", err)
		}
	}
	return nil
}

func (a *App) seedAdmin(ctx context.Context, opts SeedOptions) (*guardian.User, error) {
	u, err := a.Users.FindUserByEmail(ctx, opts.AdminEmail)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := a.Engine.HashPassword(opts.AdminPassword)
	if err != nil {
		return nil, err
	}
	userName := opts.AdminUserName
	if userName == "" {
		userName = strings.SplitN(opts.AdminEmail, "@", 2)[0]
	}
	u, err = a.Users.CreateUser(ctx, repository.NewUser{
		Name:         userName,
		UserName:     userName,
		Email:        opts.AdminEmail,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info().Int64("user_id", u.ID).Msg("seeded admin account")
	return u, nil
}

func (a *App) seedPosts(ctx context.Context, authorID int64, n int) error {
	existing, err := a.Posts.FindPaginatedPosts(ctx, 1)
	if err != nil {
		return err
	}
	if existing.Total > 0 {
		return nil
	}
	for i := 1; i <= n; i++ {
		in := repository.PostInput{
			Title:       fmt.Sprintf("News #%d", i),
			Description: fmt.Sprintf("Sample announcement number %d.", i),
		}
		if _, err := a.Posts.CreatePost(ctx, authorID, in); err != nil {
			return err
		}
	}
	a.logger.Info().Int("posts", n).Msg("seeded posts")
	return nil
}
