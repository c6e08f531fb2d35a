package app

import (
	"net/http"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/httpx"
	"github.com/MrEthical07/guardian/middleware"
	"github.com/MrEthical07/guardian/permission"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config   *Config
	Logger   zerolog.Logger
	Engine   *guardian.Engine
	Handler  *Handler
	Registry *prometheus.Registry
}

// NewRouter constructs the chi router with the full middleware stack.
func NewRouter(params RouterParams) http.Handler {
	engine := params.Engine
	h := params.Handler

	registry := params.Registry
	if registry == nil {
		registry = NewRegistry(engine)
	}
	httpMetrics := NewHTTPMetrics(registry)

	r := chi.NewRouter()
	for _, mw := range middlewareStack(params, httpMetrics) {
		r.Use(mw)
	}

	r.Get("/healthz", h.health)
	r.Handle("/metrics", metricsHandler(registry))

	auth := middleware.RequireAuth(engine)
	admin := middleware.AdminOnly(engine)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.With(auth).Post("/logout", h.logout)
		r.With(auth).Get("/me", h.me)
	})

	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Patch("/me", h.updateProfile)
			r.Put("/me/password", h.updatePassword)
			r.Delete("/me", h.deleteAccount)
		})
		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.listUsers)
			r.Get("/trashed", h.listTrashedUsers)
			r.Post("/{id}/restore", h.restoreUser)
			r.Put("/{id}/roles", h.syncRoles)
		})
		r.Get("/{id}", h.showUser)
	})

	r.Route("/roles", func(r chi.Router) {
		r.Get("/", h.listRoles)
		r.Get("/{id}", h.showRole)
		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.createRole)
			r.Patch("/{id}", h.updateRole)
			r.Delete("/{id}", h.deleteRole)
		})
	})

	r.Get("/staff", h.staff)

	r.Route("/payments", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", h.listPayments)
		r.Get("/{id}", h.showPayment)
		r.Post("/", h.createPayment)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.listPosts)
		r.Get("/{id}", h.showPost)
		r.Get("/{id}/comments", h.listComments)
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/", h.createPost)
			r.Patch("/{id}", h.updatePost)
			r.Delete("/{id}", h.deletePost)
			r.Post("/{id}/like", h.likePost)
			r.Delete("/{id}/like", h.unlikePost)
			r.Post("/{id}/comments", h.createComment)
		})
	})

	r.Route("/comments", func(r chi.Router) {
		r.Use(auth)
		r.Patch("/{id}", h.updateComment)
		r.Delete("/{id}", h.deleteComment)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{id}", h.showProduct)
		r.Get("/{id}/image", h.productImage)
		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/trashed", h.listTrashedProducts)
			r.Post("/", h.createProduct)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
			r.Post("/{id}/restore", h.restoreProduct)
			r.Put("/{id}/image", h.uploadProductImage)
			r.Get("/{id}/commands", h.productCommands)
		})
	})

	r.Route("/punishments", func(r chi.Router) {
		r.Use(auth)
		r.Get("/", h.listPunishments)
		r.Get("/{id}", h.showPunishment)
		r.With(middleware.RequirePermission(engine, permission.StorePunishment)).Post("/", h.createPunishment)
		r.With(middleware.RequirePermission(engine, permission.UpdatePunishment)).Patch("/{id}", h.updatePunishment)
		r.With(middleware.RequirePermission(engine, permission.DeletePunishment)).Delete("/{id}", h.deletePunishment)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})
	return r
}

// middlewareStack installs the middleware chain. The guard must run before
// accessLog so the access line can carry the resolved user id.
func middlewareStack(params RouterParams, metrics *HTTPMetrics) []func(http.Handler) http.Handler {
	cfg := params.Config

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           cfg.Server.Production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !cfg.Server.Production,
	})

	stack := []func(http.Handler) http.Handler{
		chimw.RealIP,
		requestLogger(params.Logger),
		chimw.Recoverer,
		chimw.Timeout(cfg.Server.RequestTimeout),
		secureMiddleware.Handler,
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		stack = append(stack, cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
			MaxAge:         300,
		}))
	}
	if cfg.Rate.Requests > 0 {
		stack = append(stack, httprate.Limit(cfg.Rate.Requests, cfg.Rate.Window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "")
			}),
		))
	}
	return append(stack,
		metrics.Middleware,
		middleware.Guard(params.Engine, middleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, _ int, err error) {
			httpx.RespondError(w, r, err)
		})),
		accessLog,
	)
}
