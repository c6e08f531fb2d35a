package app

import (
	"net/http"
	"strconv"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/MrEthical07/guardian/internal/httpx"
	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/MrEthical07/guardian/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Repositories groups the cached repositories the API serves.
type Repositories struct {
	Users       *repository.UserRepository
	Roles       *repository.RoleRepository
	Payments    *repository.PaymentRepository
	Punishments *repository.PunishmentRepository
	Posts       *repository.PostRepository
	Comments    *repository.CommentRepository
	Products    *repository.ProductRepository
}

// NewRepositories builds every repository on one store and cache.
func NewRepositories(store repository.Store, c *cache.Cache, logger zerolog.Logger) Repositories {
	return Repositories{
		Users:       repository.NewUserRepository(store, c, logger),
		Roles:       repository.NewRoleRepository(store, c, logger),
		Payments:    repository.NewPaymentRepository(store, c, logger),
		Punishments: repository.NewPunishmentRepository(store, c, logger),
		Posts:       repository.NewPostRepository(store, c, logger),
		Comments:    repository.NewCommentRepository(store, c, logger),
		Products:    repository.NewProductRepository(store, c, logger),
	}
}

// Handler serves the JSON API.
type Handler struct {
	engine      *guardian.Engine
	users       *repository.UserRepository
	roles       *repository.RoleRepository
	payments    *repository.PaymentRepository
	punishments *repository.PunishmentRepository
	posts       *repository.PostRepository
	comments    *repository.CommentRepository
	products    *repository.ProductRepository
}

// NewHandler wires the handler to its repositories.
func NewHandler(engine *guardian.Engine, repos Repositories) *Handler {
	return &Handler{
		engine:      engine,
		users:       repos.Users,
		roles:       repos.Roles,
		payments:    repos.Payments,
		punishments: repos.Punishments,
		posts:       repos.Posts,
		comments:    repos.Comments,
		products:    repos.Products,
	}
}

// currentUser returns the authenticated user. Routes calling it sit behind
// RequireAuth, so a nil result only happens when wiring is wrong.
func currentUser(r *http.Request) (*guardian.User, error) {
	u := middleware.PrincipalFromContext(r.Context()).User()
	if u == nil {
		return nil, guardian.ErrUnauthorized
	}
	return u, nil
}

// isAdmin reports whether the request carries an administrator's bearer.
// Public routes use it to widen their responses.
func isAdmin(r *http.Request) bool {
	return middleware.PrincipalFromContext(r.Context()).IsAdmin()
}

// requireOwner allows the owner of a resource and administrators.
func requireOwner(r *http.Request, ownerID int64) error {
	p := middleware.PrincipalFromContext(r.Context())
	if p.IsAnonymous() {
		return guardian.ErrUnauthorized
	}
	if p.ID() != ownerID && !p.IsAdmin() {
		return guardian.ErrForbidden
	}
	return nil
}

// pathID parses the {id} URL parameter. Anything but a positive integer
// names no resource.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	latency, err := h.engine.Ping(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"redis_latency_ms": latency.Milliseconds(),
	})
}

// mapPage converts the rows of a page, keeping its paging fields.
func mapPage[T, R any](p repository.Page[T], fn func(T) R) repository.Page[R] {
	out := make([]R, len(p.Data))
	for i, v := range p.Data {
		out[i] = fn(v)
	}
	return repository.NewPage(out, p.CurrentPage, p.PerPage, p.Total)
}
