package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/rs/zerolog"
)

const usersNamespace = "users"

// userRecord is the cached form of a user. Unlike guardian.User it keeps the
// credentials, which never leave the cache.
type userRecord struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	UserName        string          `json:"user_name"`
	Email           string          `json:"email"`
	PasswordHash    string          `json:"password"`
	AvatarURL       string          `json:"avatar_url"`
	IsAdmin         bool            `json:"is_admin"`
	Roles           []guardian.Role `json:"roles"`
	EmailVerifiedAt *time.Time      `json:"email_verified_at"`
	DeletedAt       *time.Time      `json:"deleted_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toRecord(u *guardian.User) userRecord {
	return userRecord{
		ID:              u.ID,
		Name:            u.Name,
		UserName:        u.UserName,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		AvatarURL:       u.AvatarURL,
		IsAdmin:         u.IsAdmin,
		Roles:           u.Roles,
		EmailVerifiedAt: u.EmailVerifiedAt,
		DeletedAt:       u.DeletedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (r userRecord) user() *guardian.User {
	return &guardian.User{
		ID:              r.ID,
		Name:            r.Name,
		UserName:        r.UserName,
		Email:           r.Email,
		PasswordHash:    r.PasswordHash,
		AvatarURL:       r.AvatarURL,
		IsAdmin:         r.IsAdmin,
		Roles:           r.Roles,
		EmailVerifiedAt: r.EmailVerifiedAt,
		DeletedAt:       r.DeletedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// UserRepository serves users through the cache. It satisfies
// guardian.UserLookup and guardian.PasswordUpgrader.
type UserRepository struct {
	changes
	store  UserStore
	cache  *cache.Cache
	logger zerolog.Logger
}

var (
	_ guardian.UserLookup       = (*UserRepository)(nil)
	_ guardian.PasswordUpgrader = (*UserRepository)(nil)
)

// NewUserRepository creates a repository whose writes flush the users
// namespace. c may be nil to disable caching.
func NewUserRepository(store UserStore, c *cache.Cache, logger zerolog.Logger) *UserRepository {
	return &UserRepository{
		changes: changes{model: "user", cache: c, logger: logger, namespaces: []string{usersNamespace}},
		store:   store,
		cache:   c,
		logger:  logger,
	}
}

// FindUserByID returns the user including trashed and unverified accounts.
// A missing user matches both ErrNotFound and guardian.ErrUserNotFound.
func (r *UserRepository) FindUserByID(ctx context.Context, id int64) (*guardian.User, error) {
	r.logger.Debug().Int64("user_id", id).Msg("retrieving user")

	rec, err := remember(ctx, r.cache, usersNamespace, "show."+strconv.FormatInt(id, 10), func(ctx context.Context) (userRecord, error) {
		u, err := r.store.UserByID(ctx, id)
		if err != nil {
			return userRecord{}, err
		}
		return toRecord(u), nil
	})
	if err != nil {
		return nil, lookupError(err)
	}
	return rec.user(), nil
}

// FindUserByEmail is not cached.
func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*guardian.User, error) {
	u, err := r.store.UserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, lookupError(err)
	}
	return u, nil
}

func (r *UserRepository) FindPaginatedUsers(ctx context.Context, page int) (Page[guardian.User], error) {
	return remember(ctx, r.cache, usersNamespace, "paginated."+strconv.Itoa(page), func(ctx context.Context) (Page[guardian.User], error) {
		return r.store.ListUsers(ctx, false, page, PerPage)
	})
}

func (r *UserRepository) FindPaginatedTrashedUsers(ctx context.Context, page int) (Page[guardian.User], error) {
	return remember(ctx, r.cache, usersNamespace, "trashed.paginated."+strconv.Itoa(page), func(ctx context.Context) (Page[guardian.User], error) {
		return r.store.ListUsers(ctx, true, page, PerPage)
	})
}

func (r *UserRepository) CreateUser(ctx context.Context, in NewUser) (*guardian.User, error) {
	r.logger.Info().Str("email", in.Email).Msg("creating user")
	u, err := r.store.InsertUser(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := r.commit(ctx, EventCreated, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.UpdateProfile(ctx, id, in) })
}

// UpdatePasswordHash stores an already hashed password.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.UpdatePasswordHash(ctx, id, hash) })
}

// DeleteUser soft-deletes the user.
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	return r.apply(ctx, EventDeleted, id, func() error { return r.store.SoftDeleteUser(ctx, id) })
}

func (r *UserRepository) RestoreUser(ctx context.Context, id int64) error {
	return r.apply(ctx, EventRestored, id, func() error { return r.store.RestoreUser(ctx, id) })
}

// SyncRoles replaces the user's roles with roleIDs.
func (r *UserRepository) SyncRoles(ctx context.Context, id int64, roleIDs []int64) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.SyncRoles(ctx, id, roleIDs) })
}

func lookupError(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %w", ErrNotFound, guardian.ErrUserNotFound)
	}
	return err
}
