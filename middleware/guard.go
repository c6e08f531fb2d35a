package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/MrEthical07/guardian"
)

// ErrorHandler writes a rejection. status is 401 or 403.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, status int, err error)

type errorHandlerContextKey struct{}

// Option configures [Guard].
type Option func(*options)

type options struct {
	onError ErrorHandler
}

// WithErrorHandler replaces the plain-text rejection body for every Require*
// middleware running behind this Guard.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		o.onError = h
	}
}

// Guard attaches a lazily resolving guardian.RequestGuard to the request
// context, together with the client IP used for throttling and audit.
func Guard(engine *guardian.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := guardian.WithClientIP(r.Context(), clientIP(r))
			if o.onError != nil {
				ctx = context.WithValue(ctx, errorHandlerContextKey{}, o.onError)
			}
			r = r.WithContext(ctx)

			g := engine.Guard(r)
			next.ServeHTTP(w, r.WithContext(guardian.WithGuard(ctx, g)))
		})
	}
}

// GuardFromRequest returns the request guard, creating and attaching one
// when [Guard] did not run.
func GuardFromRequest(engine *guardian.Engine, r *http.Request) (*guardian.RequestGuard, *http.Request) {
	if g, ok := guardian.GuardFromContext(r.Context()); ok {
		return g, r
	}
	g := engine.Guard(r)
	return g, r.WithContext(guardian.WithGuard(r.Context(), g))
}

// PrincipalFromContext resolves the principal of the guard in ctx. Without a
// guard it is anonymous.
func PrincipalFromContext(ctx context.Context) guardian.Principal {
	g, ok := guardian.GuardFromContext(ctx)
	if !ok {
		return guardian.Anonymous()
	}
	return g.Principal()
}

func reject(w http.ResponseWriter, r *http.Request, status int, err error) {
	if h, ok := r.Context().Value(errorHandlerContextKey{}).(ErrorHandler); ok && h != nil {
		h(w, r, status, err)
		return
	}
	http.Error(w, http.StatusText(status), status)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
