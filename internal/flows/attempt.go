package flows

import (
	"context"
	"errors"
	"fmt"
)

// AttemptResult is the outcome of a credential attempt that did not fail
// with an error. OK is false on password mismatch.
type AttemptResult[U any] struct {
	User   U
	Bearer string
	Token  string
	OK     bool
}

// AttemptMetrics carries the metric IDs the attempt flow increments.
type AttemptMetrics struct {
	Success      int
	Failure      int
	UnknownUser  int
	RateLimited  int
	TokenCreated int
}

// AttemptEvents carries audit event names used by the attempt flow.
type AttemptEvents struct {
	Success     string
	Failure     string
	RateLimited string
}

// AttemptErrors carries host-level sentinels used by the attempt flow.
type AttemptErrors struct {
	EngineNotReady        error
	UserNotFound          error
	AttemptsExceeded      error
	TokenStoreUnavailable error
}

// AttemptDeps captures credential attempt dependencies. The throttle and
// password upgrade hooks are optional.
type AttemptDeps[U any] struct {
	ClientIP func(context.Context) string

	CheckRate func(ctx context.Context, email, ip string) error
	FailRate  func(ctx context.Context, email, ip string) error
	ResetRate func(ctx context.Context, email, ip string) error

	FindUserByEmail func(context.Context, string) (U, error)
	UserID          func(U) int64
	PasswordHash    func(U) string
	CheckPassword   func(plain, hash string) (bool, error)

	PasswordNeedsRehash func(hash string) (bool, error)
	HashPassword        func(plain string) (string, error)
	UpdatePasswordHash  func(ctx context.Context, userID int64, hash string) error

	CreateToken func(context.Context, int64) (string, error)
	DeleteToken func(context.Context, int64, string) error
	SignBearer  func(int64, string) (string, error)

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, userID int64, err error, metadata map[string]string)
	Warn      func(msg string, err error)

	Metrics AttemptMetrics
	Events  AttemptEvents
	Errors  AttemptErrors
}

func (d *AttemptDeps[U]) ready() bool {
	return d.FindUserByEmail != nil &&
		d.UserID != nil &&
		d.PasswordHash != nil &&
		d.CheckPassword != nil &&
		d.CreateToken != nil &&
		d.SignBearer != nil
}

func (d *AttemptDeps[U]) defaults() {
	if d.ClientIP == nil {
		d.ClientIP = func(context.Context) string { return "" }
	}
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.EmitAudit == nil {
		d.EmitAudit = func(context.Context, string, bool, int64, error, map[string]string) {}
	}
	if d.Warn == nil {
		d.Warn = func(string, error) {}
	}
}

// RunAttempt checks email/password credentials and, on a match, mints an
// opaque token and the bearer that carries it.
//
// An unknown email returns the UserNotFound error rather than a plain false.
// A password mismatch returns OK=false and no error.
func RunAttempt[U any](ctx context.Context, email, password string, deps AttemptDeps[U]) (AttemptResult[U], error) {
	var zero AttemptResult[U]
	deps.defaults()
	if !deps.ready() {
		return zero, deps.Errors.EngineNotReady
	}

	ip := deps.ClientIP(ctx)

	if deps.CheckRate != nil {
		if err := deps.CheckRate(ctx, email, ip); err != nil {
			deps.MetricInc(deps.Metrics.RateLimited)
			deps.EmitAudit(ctx, deps.Events.RateLimited, false, 0, deps.Errors.AttemptsExceeded, map[string]string{"scope": "attempt"})
			return zero, deps.Errors.AttemptsExceeded
		}
	}

	user, err := deps.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, deps.Errors.UserNotFound) {
			failRate(ctx, email, ip, deps)
			deps.MetricInc(deps.Metrics.UnknownUser)
			deps.EmitAudit(ctx, deps.Events.Failure, false, 0, err, map[string]string{"reason": "user_not_found"})
		}
		return zero, err
	}
	userID := deps.UserID(user)
	hash := deps.PasswordHash(user)

	ok, err := deps.CheckPassword(password, hash)
	if err != nil {
		deps.Warn("password check failed", err)
	}
	if err != nil || !ok {
		failRate(ctx, email, ip, deps)
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, userID, nil, map[string]string{"reason": "password_mismatch"})
		return zero, nil
	}

	upgradePassword(ctx, userID, password, hash, deps)

	if deps.ResetRate != nil {
		if err := deps.ResetRate(ctx, email, ip); err != nil {
			deps.Warn("attempt throttle reset failed", err)
		}
	}

	token, err := deps.CreateToken(ctx, userID)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", deps.Errors.TokenStoreUnavailable, err)
	}
	deps.MetricInc(deps.Metrics.TokenCreated)

	bearer, err := deps.SignBearer(userID, token)
	if err != nil {
		if deps.DeleteToken != nil {
			if delErr := deps.DeleteToken(ctx, userID, token); delErr != nil {
				deps.Warn("orphan token cleanup failed", delErr)
			}
		}
		return zero, err
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, userID, nil, nil)
	return AttemptResult[U]{User: user, Bearer: bearer, Token: token, OK: true}, nil
}

func failRate[U any](ctx context.Context, email, ip string, deps AttemptDeps[U]) {
	if deps.FailRate == nil {
		return
	}
	if err := deps.FailRate(ctx, email, ip); err != nil {
		deps.Warn("attempt throttle update failed", err)
	}
}

func upgradePassword[U any](ctx context.Context, userID int64, password, hash string, deps AttemptDeps[U]) {
	if deps.PasswordNeedsRehash == nil || deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return
	}
	needs, err := deps.PasswordNeedsRehash(hash)
	if err != nil || !needs {
		return
	}
	upgraded, err := deps.HashPassword(password)
	if err != nil {
		deps.Warn("password rehash failed", err)
		return
	}
	if err := deps.UpdatePasswordHash(ctx, userID, upgraded); err != nil {
		deps.Warn("password rehash update failed", err)
	}
}
