package guardian

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/guardian/internal/audit"
	"github.com/MrEthical07/guardian/internal/flows"
	"github.com/MrEthical07/guardian/internal/rate"
	"github.com/MrEthical07/guardian/jwt"
	"github.com/MrEthical07/guardian/password"
	"github.com/MrEthical07/guardian/permission"
	"github.com/MrEthical07/guardian/session"
	"github.com/rs/zerolog"
)

// Engine resolves bearers into principals, checks credentials and gates
// capabilities. It is safe for concurrent use once built.
type Engine struct {
	config       Config
	jwtManager   *jwt.Manager
	tokens       TokenStore
	sessionStore *session.Store
	users        UserLookup
	hasher       PasswordHasher
	verifier     *password.Verifier
	rateLimiter  *rate.Limiter
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       zerolog.Logger

	resolveDeps flows.ResolveDeps[*User]
	attemptDeps flows.AttemptDeps[*User]
	tokenDeps   flows.TokenDeps
}

// Close flushes pending audit events and stops the dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Resolve turns the request's bearer into a principal. Every failure is
// absorbed into Anonymous; it never returns an error.
func (e *Engine) Resolve(r *http.Request) Principal {
	if r == nil {
		return Anonymous()
	}
	p, _ := e.ResolveBearer(r.Context(), BearerToken(r))
	return p
}

// ResolveBearer is Resolve for a raw bearer. The principal is always usable;
// the error only explains why it is anonymous. An empty bearer is anonymous
// with a nil error.
//
//	Flow: decode → validate payload → FindUserByID → TokenStore.Exists
func (e *Engine) ResolveBearer(ctx context.Context, bearer string) (Principal, error) {
	res := flows.RunResolve(ctx, bearer, e.resolveDeps)
	if !res.Authenticated {
		return Anonymous(), res.Err
	}
	return Authenticated(res.User), nil
}

// ValidateCredentials runs the lookup and token store check for an id/token
// pair, skipping the bearer decode.
func (e *Engine) ValidateCredentials(ctx context.Context, creds Credentials) (*User, error) {
	res := flows.RunValidateCredentials(ctx, flows.Payload{ID: creds.ID, Token: creds.Token}, e.resolveDeps)
	if !res.Authenticated {
		return nil, res.Err
	}
	return res.User, nil
}

// Attempt checks email and password. On a match it mints a token, signs the
// bearer carrying it and returns (bearer, true, nil). A wrong password
// returns ("", false, nil).
//
// An unknown email returns [ErrUserNotFound] instead of false, which lets a
// caller tell registered addresses apart. Callers exposing Attempt publicly
// may want to fold it into [ErrInvalidCredentials].
func (e *Engine) Attempt(ctx context.Context, email, password string) (string, bool, error) {
	res, err := e.attempt(ctx, email, password)
	if err != nil {
		return "", false, err
	}
	return res.Bearer, res.OK, nil
}

func (e *Engine) attempt(ctx context.Context, email, password string) (flows.AttemptResult[*User], error) {
	start := time.Now()
	defer func() { e.metrics.Observe(MetricAttemptLatency, time.Since(start)) }()
	return flows.RunAttempt(ctx, email, password, e.attemptDeps)
}

// Issue mints a fresh token and bearer for an already authenticated user.
func (e *Engine) Issue(ctx context.Context, user *User) (string, error) {
	if user == nil || user.ID <= 0 {
		return "", ErrValidation
	}
	bearer, _, err := flows.RunIssue(ctx, user.ID, e.tokenDeps)
	if err != nil {
		return "", err
	}
	e.emitAudit(ctx, auditEventTokenIssued, true, user.ID, nil, nil)
	return bearer, nil
}

// Revoke deletes the opaque token carried by bearer. Revoking a token that
// is already gone succeeds.
func (e *Engine) Revoke(ctx context.Context, bearer string) error {
	_, err := flows.RunRevoke(ctx, bearer, e.tokenDeps)
	return e.mapBearerError(err)
}

// RevokeAll deletes every token of userID.
func (e *Engine) RevokeAll(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrValidation
	}
	return flows.RunRevokeAll(ctx, userID, e.tokenDeps)
}

// ActiveTokens returns the number of live tokens for userID. It requires the
// built-in Redis store.
func (e *Engine) ActiveTokens(ctx context.Context, userID int64) (int, error) {
	if e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	n, err := e.sessionStore.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTokenStoreUnavailable, err)
	}
	return n, nil
}

// FindUser loads a user through the configured lookup.
func (e *Engine) FindUser(ctx context.Context, id int64) (*User, error) {
	if id <= 0 {
		return nil, ErrUserNotFound
	}
	return e.findUserByID(ctx, id)
}

// CheckPassword compares plain with hash using the configured hasher.
func (e *Engine) CheckPassword(plain, hash string) bool {
	ok, err := e.hasher.Check(plain, hash)
	if err != nil {
		e.logger.Debug().Err(err).Msg("password check failed")
		return false
	}
	return ok
}

// HashPassword hashes plain with the configured argon2id parameters.
func (e *Engine) HashPassword(plain string) (string, error) {
	return e.verifier.Hash(plain)
}

// Authorize returns nil when p holds bit and [ErrForbidden] otherwise.
// Anonymous principals are always forbidden.
func (e *Engine) Authorize(ctx context.Context, p Principal, bit permission.Mask) error {
	if Authorize(p, bit) {
		e.metricInc(MetricAuthorizeAllowed)
		return nil
	}
	e.metricInc(MetricAuthorizeDenied)
	e.emitAudit(ctx, auditEventAuthorizeDenied, false, p.ID(), ErrForbidden, map[string]string{
		"required": bit.String(),
	})
	return ErrForbidden
}

// RequireAdmin returns [ErrUnauthorized] unless p is an administrator.
func (e *Engine) RequireAdmin(ctx context.Context, p Principal) error {
	if AdminOnly(p) {
		return nil
	}
	e.metricInc(MetricAdminDenied)
	e.emitAudit(ctx, auditEventAdminDenied, false, p.ID(), ErrUnauthorized, nil)
	return ErrUnauthorized
}

// Ping checks the Redis token store when it is the built-in one.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e.sessionStore == nil {
		return 0, nil
	}
	return e.sessionStore.Ping(ctx)
}

// Guard creates a request-scoped guard for r.
func (e *Engine) Guard(r *http.Request) *RequestGuard {
	return newRequestGuard(e, r)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	value := strings.TrimSpace(r.Header.Get("Authorization"))
	const scheme = "bearer "
	if len(value) <= len(scheme) || !strings.EqualFold(value[:len(scheme)], scheme) {
		return ""
	}
	return strings.TrimSpace(value[len(scheme):])
}

func (e *Engine) findUserByID(ctx context.Context, id int64) (*User, error) {
	u, err := e.users.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (e *Engine) findUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := e.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (e *Engine) mapBearerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrInvalidSignature):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	default:
		return err
	}
}

func (e *Engine) logDebug(msg string, err error) {
	e.logger.Debug().Err(err).Msg(msg)
}

func (e *Engine) logWarn(msg string, err error) {
	e.logger.Warn().Err(err).Msg(msg)
}
