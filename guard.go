package guardian

import (
	"context"
	"net/http"
)

// GuardState is the resolution progress of a [RequestGuard].
type GuardState uint8

const (
	StateUnresolved GuardState = iota
	StateResolving
	StateAuthenticated
	StateAnonymous
)

func (s GuardState) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// RequestGuard memoizes the principal of one request. The first call that
// needs the user resolves the bearer; later calls reuse the result.
//
// A RequestGuard belongs to a single request and is not safe for concurrent use.
type RequestGuard struct {
	engine *Engine
	ctx    context.Context
	bearer string

	state GuardState
	user  *User
	err   error
}

func newRequestGuard(e *Engine, r *http.Request) *RequestGuard {
	g := &RequestGuard{engine: e, ctx: context.Background()}
	if r != nil {
		g.ctx = r.Context()
		g.bearer = BearerToken(r)
	}
	return g
}

// State returns the current resolution state.
func (g *RequestGuard) State() GuardState {
	return g.state
}

// Err returns why the last resolution ended anonymous, if it did.
func (g *RequestGuard) Err() error {
	return g.err
}

func (g *RequestGuard) resolve() {
	if g.state != StateUnresolved {
		return
	}
	g.state = StateResolving

	p, err := g.engine.ResolveBearer(g.ctx, g.bearer)
	g.err = err
	if p.IsAnonymous() {
		g.state = StateAnonymous
		return
	}
	g.user = p.User()
	g.state = StateAuthenticated
}

// User returns the authenticated user, or nil when anonymous.
func (g *RequestGuard) User() *User {
	g.resolve()
	return g.user
}

// Principal returns the resolved principal.
func (g *RequestGuard) Principal() Principal {
	return Authenticated(g.User())
}

func (g *RequestGuard) Check() bool {
	return g.User() != nil
}

func (g *RequestGuard) Guest() bool {
	return !g.Check()
}

// ID returns the user id, or -1 when anonymous. User ids are positive, so -1
// never names a real user.
func (g *RequestGuard) ID() int64 {
	if u := g.User(); u != nil {
		return u.ID
	}
	return -1
}

// HasUser reports whether a user is already set, without resolving.
func (g *RequestGuard) HasUser() bool {
	return g.user != nil
}

// SetUser authenticates the guard as u without touching the token store.
func (g *RequestGuard) SetUser(u *User) error {
	if u == nil || u.ID <= 0 {
		return ErrValidation
	}
	g.user = u
	g.err = nil
	g.state = StateAuthenticated
	return nil
}

// Login is SetUser under its session-guard name.
func (g *RequestGuard) Login(u *User) error {
	return g.SetUser(u)
}

// LoginUsingID loads the user and authenticates as them.
func (g *RequestGuard) LoginUsingID(ctx context.Context, id int64) (*User, error) {
	u, err := g.engine.FindUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.SetUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks an id/token pair against the user lookup and the token
// store. On success the guard becomes authenticated.
func (g *RequestGuard) Validate(ctx context.Context, creds Credentials) bool {
	u, err := g.engine.ValidateCredentials(ctx, creds)
	if err != nil {
		return false
	}
	return g.SetUser(u) == nil
}

// Attempt delegates to [Engine.Attempt]. On success the guard becomes
// authenticated as the matching user.
func (g *RequestGuard) Attempt(ctx context.Context, email, password string) (string, bool, error) {
	res, err := g.engine.attempt(ctx, email, password)
	if err != nil || !res.OK {
		return "", false, err
	}
	if err := g.SetUser(res.User); err != nil {
		return "", false, err
	}
	g.bearer = res.Bearer
	return res.Bearer, true, nil
}

// Once always returns [ErrNotImplemented].
func (g *RequestGuard) Once(context.Context, string, string) (bool, error) {
	return false, ErrNotImplemented
}

// OnceUsingID always returns [ErrNotImplemented].
func (g *RequestGuard) OnceUsingID(context.Context, int64) (*User, error) {
	return nil, ErrNotImplemented
}

// ViaRemember always returns [ErrNotImplemented].
func (g *RequestGuard) ViaRemember() (bool, error) {
	return false, ErrNotImplemented
}

// Logout always returns [ErrNotImplemented]. Use [Engine.Revoke] to end a session.
func (g *RequestGuard) Logout(context.Context) error {
	return ErrNotImplemented
}
