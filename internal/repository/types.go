package repository

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/permission"
)

var (
	ErrNotFound  = errors.New("resource not found")
	ErrDuplicate = errors.New("duplicate entry")
)

// PerPage is the page size of every paginated listing.
const PerPage = 15

// Page is one page of a listing.
type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// NewPage fills in the derived paging fields.
func NewPage[T any](data []T, page, perPage int, total int64) Page[T] {
	if data == nil {
		data = []T{}
	}
	last := 1
	if perPage > 0 && total > 0 {
		last = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Page[T]{Data: data, CurrentPage: page, PerPage: perPage, Total: total, LastPage: last}
}

// Offset returns the row offset of page (1-based).
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}

type Payment struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	ProductID     *int64    `json:"product_id,omitempty"`
	UserName      string    `json:"user_name"`
	IsDelivered   bool      `json:"is_delivered"`
	PaymentMethod string    `json:"payment_method"`
	OriginAddress string    `json:"origin_address"`
	TotalPrice    float64   `json:"total_price"`
	TotalPaid     float64   `json:"total_paid"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Punishment struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	StaffID   int64      `json:"staff_id"`
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Post is a news post. Likes counts distinct users.
type Post struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Likes       int64     `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Comment belongs to a post. Updated is set once the content is edited.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	Updated   bool      `json:"updated"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Price       float64    `json:"price"`
	Description string     `json:"description"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ProductImage struct {
	ContentType string
	Data        []byte
}

// StaffRole is a staff role together with its holders.
type StaffRole struct {
	Role  guardian.Role   `json:"role"`
	Users []guardian.User `json:"users"`
}

type NewUser struct {
	Name         string
	UserName     string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// ProfileUpdate changes only the non-nil fields.
type ProfileUpdate struct {
	Name     *string
	UserName *string
}

type RoleInput struct {
	Title       string
	Color       string
	Permissions permission.Mask
	IsStaff     bool
}

// RoleUpdate changes only the non-nil fields.
type RoleUpdate struct {
	Title   *string
	Color   *string
	IsStaff *bool
}

type NewPayment struct {
	ProductID     *int64
	UserName      string
	IsDelivered   bool
	PaymentMethod string
	OriginAddress string
	TotalPrice    float64
	TotalPaid     float64
}

type PunishmentInput struct {
	UserID    int64
	StaffID   int64
	Reason    string
	ExpiresAt *time.Time
}

// PunishmentUpdate changes only the non-nil fields.
type PunishmentUpdate struct {
	Reason    *string
	ExpiresAt *time.Time
}

type PostInput struct {
	Title       string
	Description string
}

// PostUpdate changes only the non-nil fields.
type PostUpdate struct {
	Title       *string
	Description *string
}

type ProductInput struct {
	Title       string
	Price       float64
	Description string
}

// UserStore persists users. Lookups include soft-deleted and unverified
// accounts and load the user's roles.
type UserStore interface {
	UserByID(ctx context.Context, id int64) (*guardian.User, error)
	UserByEmail(ctx context.Context, email string) (*guardian.User, error)
	ListUsers(ctx context.Context, trashed bool, page, perPage int) (Page[guardian.User], error)
	InsertUser(ctx context.Context, in NewUser) (*guardian.User, error)
	UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	SoftDeleteUser(ctx context.Context, id int64) error
	RestoreUser(ctx context.Context, id int64) error
	SyncRoles(ctx context.Context, userID int64, roleIDs []int64) error
}

type RoleStore interface {
	ListRoles(ctx context.Context) ([]guardian.Role, error)
	RoleByID(ctx context.Context, id int64) (*guardian.Role, error)
	StaffRoles(ctx context.Context) ([]StaffRole, error)
	InsertRole(ctx context.Context, in RoleInput) (*guardian.Role, error)
	UpdateRole(ctx context.Context, id int64, in RoleUpdate) error
	DeleteRole(ctx context.Context, id int64) error
}

// PaymentStore persists payments. InsertPayment fails with ErrNotFound when
// the user, or the product it names, does not exist or is trashed.
type PaymentStore interface {
	ListPaymentsForUser(ctx context.Context, userID int64, page, perPage int) (Page[Payment], error)
	ListPaymentsForProduct(ctx context.Context, productID int64, page, perPage int) (Page[Payment], error)
	PaymentByID(ctx context.Context, id int64) (*Payment, error)
	InsertPayment(ctx context.Context, userID int64, in NewPayment) (*Payment, error)
}

type PunishmentStore interface {
	ListPunishments(ctx context.Context, page, perPage int) (Page[Punishment], error)
	PunishmentByID(ctx context.Context, id int64) (*Punishment, error)
	InsertPunishment(ctx context.Context, in PunishmentInput) (*Punishment, error)
	UpdatePunishment(ctx context.Context, id int64, in PunishmentUpdate) error
	DeletePunishment(ctx context.Context, id int64) error
}

// PostStore persists posts. Deleting a post removes its comments and likes.
// Likes are idempotent per user.
type PostStore interface {
	ListPosts(ctx context.Context, page, perPage int) (Page[Post], error)
	PostByID(ctx context.Context, id int64) (*Post, error)
	InsertPost(ctx context.Context, userID int64, in PostInput) (*Post, error)
	UpdatePost(ctx context.Context, id int64, in PostUpdate) error
	DeletePost(ctx context.Context, id int64) error
	LikePost(ctx context.Context, postID, userID int64) error
	UnlikePost(ctx context.Context, postID, userID int64) error
}

type CommentStore interface {
	ListCommentsForPost(ctx context.Context, postID int64, page, perPage int) (Page[Comment], error)
	CommentByID(ctx context.Context, id int64) (*Comment, error)
	InsertComment(ctx context.Context, postID, userID int64, content string) (*Comment, error)
	// UpdateComment replaces the content and marks the comment updated.
	UpdateComment(ctx context.Context, id int64, content string) error
	DeleteComment(ctx context.Context, id int64) error
}

// ProductStore persists products. ProductByID includes trashed products.
// ProductImage fails with ErrNotFound when no image was uploaded.
type ProductStore interface {
	ListProducts(ctx context.Context, trashed bool, page, perPage int) (Page[Product], error)
	ProductByID(ctx context.Context, id int64) (*Product, error)
	InsertProduct(ctx context.Context, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) error
	SoftDeleteProduct(ctx context.Context, id int64) error
	RestoreProduct(ctx context.Context, id int64) error
	ProductImage(ctx context.Context, id int64) (*ProductImage, error)
	SetProductImage(ctx context.Context, id int64, img ProductImage) error
}

// Store is every persistent store at once.
type Store interface {
	UserStore
	RoleStore
	PaymentStore
	PunishmentStore
	PostStore
	CommentStore
	ProductStore
}
