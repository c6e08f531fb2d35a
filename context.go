package guardian

import "context"

type clientIPContextKey struct{}
type requestIDContextKey struct{}
type guardContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The engine uses it
// for per-IP attempt throttling and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRequestID attaches a request id that is copied into audit events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// WithGuard stores g in ctx.
func WithGuard(ctx context.Context, g *RequestGuard) context.Context {
	return context.WithValue(ctx, guardContextKey{}, g)
}

// GuardFromContext returns the request guard attached by [WithGuard].
func GuardFromContext(ctx context.Context) (*RequestGuard, bool) {
	if ctx == nil {
		return nil, false
	}
	g, ok := ctx.Value(guardContextKey{}).(*RequestGuard)
	return g, ok && g != nil
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
