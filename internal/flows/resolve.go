package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/guardian/jwt"
)

// ResolveFailureKind classifies why a bearer did not authenticate.
type ResolveFailureKind int

const (
	ResolveFailureNone ResolveFailureKind = iota
	ResolveFailureMissing
	ResolveFailureMalformed
	ResolveFailureInvalidSignature
	ResolveFailureExpired
	ResolveFailureValidation
	ResolveFailureUserNotFound
	ResolveFailureTokenMismatch
	ResolveFailureBackend
)

// ResolveResult is either an authenticated user or a classified failure.
// Failures are never fatal to the request; the host maps them to anonymous.
type ResolveResult[U any] struct {
	User          U
	Payload       Payload
	Authenticated bool
	Failure       ResolveFailureKind
	Err           error
}

// ResolveMetrics carries the metric IDs the resolve flow increments.
type ResolveMetrics struct {
	Authenticated    int
	Anonymous        int
	Malformed        int
	InvalidSignature int
	Expired          int
	Validation       int
	UserNotFound     int
	TokenMismatch    int
}

// ResolveEvents carries audit event names used by the resolve flow.
type ResolveEvents struct {
	Authenticated string
	Rejected      string
}

// ResolveErrors carries host-level sentinels the flow classifies into.
type ResolveErrors struct {
	MalformedToken        error
	InvalidSignature      error
	TokenExpired          error
	Validation            error
	UserNotFound          error
	TokenMismatch         error
	TokenStoreUnavailable error
}

// ResolveDeps captures bearer resolution dependencies.
type ResolveDeps[U any] struct {
	ParseBearer  func(string) (*jwt.Claims, error)
	FindUserByID func(context.Context, int64) (U, error)
	TokenExists  func(context.Context, int64, string) (bool, error)

	Now            func() time.Time
	MetricInc      func(int)
	ObserveLatency func(time.Duration)
	EmitAudit      func(ctx context.Context, event string, success bool, userID int64, err error)
	Debug          func(msg string, err error)
	Warn           func(msg string, err error)

	Metrics ResolveMetrics
	Events  ResolveEvents
	Errors  ResolveErrors
}

func (d *ResolveDeps[U]) defaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MetricInc == nil {
		d.MetricInc = func(int) {}
	}
	if d.ObserveLatency == nil {
		d.ObserveLatency = func(time.Duration) {}
	}
	if d.EmitAudit == nil {
		d.EmitAudit = func(context.Context, string, bool, int64, error) {}
	}
	if d.Debug == nil {
		d.Debug = func(string, error) {}
	}
	if d.Warn == nil {
		d.Warn = func(string, error) {}
	}
}

// RunResolve authenticates a bearer: decode and verify it, validate the
// payload, load the user, then confirm the opaque token against the store.
// An empty bearer is anonymous without a failure.
func RunResolve[U any](ctx context.Context, bearer string, deps ResolveDeps[U]) ResolveResult[U] {
	deps.defaults()

	if bearer == "" {
		deps.MetricInc(deps.Metrics.Anonymous)
		return ResolveResult[U]{Failure: ResolveFailureMissing}
	}

	start := deps.Now()
	defer func() { deps.ObserveLatency(deps.Now().Sub(start)) }()

	claims, err := deps.ParseBearer(bearer)
	if err != nil {
		return rejectDecode[U](ctx, err, deps)
	}

	payload, err := PayloadFromClaims(claims)
	if err != nil {
		return reject[U](ctx, ResolveFailureValidation, deps.Metrics.Validation, joinErr(deps.Errors.Validation, err), 0, deps)
	}

	return runCredentials(ctx, payload, deps)
}

// RunValidateCredentials runs the lookup and store check for an id/token
// pair that did not come from a bearer.
func RunValidateCredentials[U any](ctx context.Context, payload Payload, deps ResolveDeps[U]) ResolveResult[U] {
	deps.defaults()

	if payload.ID <= 0 || payload.Token == "" {
		return reject[U](ctx, ResolveFailureValidation, deps.Metrics.Validation, deps.Errors.Validation, 0, deps)
	}
	return runCredentials(ctx, payload, deps)
}

func runCredentials[U any](ctx context.Context, payload Payload, deps ResolveDeps[U]) ResolveResult[U] {
	user, err := deps.FindUserByID(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, deps.Errors.UserNotFound) {
			return reject[U](ctx, ResolveFailureUserNotFound, deps.Metrics.UserNotFound, err, payload.ID, deps)
		}
		deps.Warn("user lookup failed", err)
		return reject[U](ctx, ResolveFailureBackend, deps.Metrics.Anonymous, err, payload.ID, deps)
	}

	ok, err := deps.TokenExists(ctx, payload.ID, payload.Token)
	if err != nil {
		deps.Warn("token store lookup failed", err)
		return reject[U](ctx, ResolveFailureBackend, deps.Metrics.Anonymous, joinErr(deps.Errors.TokenStoreUnavailable, err), payload.ID, deps)
	}
	if !ok {
		return reject[U](ctx, ResolveFailureTokenMismatch, deps.Metrics.TokenMismatch, deps.Errors.TokenMismatch, payload.ID, deps)
	}

	deps.MetricInc(deps.Metrics.Authenticated)
	deps.EmitAudit(ctx, deps.Events.Authenticated, true, payload.ID, nil)
	return ResolveResult[U]{User: user, Payload: payload, Authenticated: true}
}

func rejectDecode[U any](ctx context.Context, err error, deps ResolveDeps[U]) ResolveResult[U] {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return reject[U](ctx, ResolveFailureExpired, deps.Metrics.Expired, joinErr(deps.Errors.TokenExpired, err), 0, deps)
	case errors.Is(err, jwt.ErrInvalidSignature):
		return reject[U](ctx, ResolveFailureInvalidSignature, deps.Metrics.InvalidSignature, joinErr(deps.Errors.InvalidSignature, err), 0, deps)
	default:
		return reject[U](ctx, ResolveFailureMalformed, deps.Metrics.Malformed, joinErr(deps.Errors.MalformedToken, err), 0, deps)
	}
}

func reject[U any](ctx context.Context, kind ResolveFailureKind, metric int, err error, userID int64, deps ResolveDeps[U]) ResolveResult[U] {
	deps.MetricInc(metric)
	if metric != deps.Metrics.Anonymous {
		deps.MetricInc(deps.Metrics.Anonymous)
	}
	deps.Debug("bearer rejected", err)
	deps.EmitAudit(ctx, deps.Events.Rejected, false, userID, err)
	return ResolveResult[U]{Failure: kind, Err: err}
}

// joinErr keeps the host sentinel first so errors.Is matches it, and the
// cause for logs.
func joinErr(sentinel, cause error) error {
	if sentinel == nil {
		return cause
	}
	if cause == nil || errors.Is(cause, sentinel) {
		return sentinel
	}
	return errors.Join(sentinel, cause)
}
