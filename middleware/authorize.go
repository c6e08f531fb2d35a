package middleware

import (
	"net/http"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/permission"
)

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(engine *guardian.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g, r := GuardFromRequest(engine, r)
			if g.Guest() {
				reject(w, r, http.StatusUnauthorized, guardian.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission rejects anonymous requests with 401 and principals
// lacking bit with 403.
func RequirePermission(engine *guardian.Engine, bit permission.Mask) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g, r := GuardFromRequest(engine, r)
			p := g.Principal()
			if p.IsAnonymous() {
				reject(w, r, http.StatusUnauthorized, guardian.ErrUnauthorized)
				return
			}
			if err := engine.Authorize(r.Context(), p, bit); err != nil {
				reject(w, r, http.StatusForbidden, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly rejects everyone but authenticated administrators with 401.
func AdminOnly(engine *guardian.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g, r := GuardFromRequest(engine, r)
			if err := engine.RequireAdmin(r.Context(), g.Principal()); err != nil {
				reject(w, r, http.StatusUnauthorized, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
