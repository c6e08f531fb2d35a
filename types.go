package guardian

import (
	"context"
	"time"

	"github.com/MrEthical07/guardian/permission"
)

// Role groups capabilities under a title. A user's effective permissions are
// the OR of the masks of all their roles.
type Role struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Color       string          `json:"color"`
	Permissions permission.Mask `json:"permission_level"`
	IsStaff     bool            `json:"is_staff"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// User is an account as seen by the guard. PasswordHash and Email are never
// serialized.
type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	UserName        string     `json:"user_name"`
	Email           string     `json:"-"`
	PasswordHash    string     `json:"-"`
	AvatarURL       string     `json:"-"`
	IsAdmin         bool       `json:"is_admin"`
	Roles           []Role     `json:"roles"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Permissions aggregates the masks of u.Roles. It is recomputed on every
// call and never stored.
func (u *User) Permissions() permission.Mask {
	if u == nil || len(u.Roles) == 0 {
		return 0
	}
	masks := make([]permission.Mask, len(u.Roles))
	for i := range u.Roles {
		masks[i] = u.Roles[i].Permissions
	}
	return permission.Effective(masks...)
}

// HasPermission reports whether any of u's roles grants bit.
func (u *User) HasPermission(bit permission.Mask) bool {
	return u.Permissions().Has(bit)
}

// Trashed reports whether u is soft-deleted.
func (u *User) Trashed() bool {
	return u != nil && u.DeletedAt != nil
}

// Verified reports whether u confirmed their email address.
func (u *User) Verified() bool {
	return u != nil && u.EmailVerifiedAt != nil
}

// Principal is the outcome of resolving a request: either anonymous or an
// authenticated user. The zero value is anonymous.
type Principal struct {
	user *User
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// Authenticated wraps u. A nil user yields Anonymous.
func Authenticated(u *User) Principal {
	return Principal{user: u}
}

// User returns the authenticated user, or nil.
func (p Principal) User() *User {
	return p.user
}

// IsAnonymous reports whether no user is attached.
func (p Principal) IsAnonymous() bool {
	return p.user == nil
}

// ID returns the user id, or -1 when anonymous.
func (p Principal) ID() int64 {
	if p.user == nil {
		return -1
	}
	return p.user.ID
}

// IsAdmin reports whether the principal is an authenticated administrator.
func (p Principal) IsAdmin() bool {
	return p.user != nil && p.user.IsAdmin
}

// Permissions returns the aggregated mask; zero when anonymous.
func (p Principal) Permissions() permission.Mask {
	return p.user.Permissions()
}

// Has reports whether the principal holds bit.
func (p Principal) Has(bit permission.Mask) bool {
	return p.Permissions().Has(bit)
}

// Credentials is the id/token pair carried inside a bearer.
type Credentials struct {
	ID    int64  `json:"id" validate:"gt=0"`
	Token string `json:"token" validate:"required"`
}

// UserLookup loads users for the guard. Both finders include soft-deleted and
// unverified users and return [ErrUserNotFound] (possibly wrapped) when there
// is no match.
type UserLookup interface {
	FindUserByID(ctx context.Context, id int64) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
}

// PasswordUpgrader is optionally implemented by a [UserLookup] to persist a
// rehashed password after a successful attempt.
type PasswordUpgrader interface {
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

// TokenStore persists opaque session tokens bound to a user id.
type TokenStore interface {
	Create(ctx context.Context, userID int64) (string, error)
	Exists(ctx context.Context, userID int64, token string) (bool, error)
	Delete(ctx context.Context, userID int64, token string) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

// PasswordHasher compares a plaintext password with a stored hash in constant time.
type PasswordHasher interface {
	Check(plain, hash string) (bool, error)
}
