package guardian

import (
	"context"
	"time"

	"github.com/MrEthical07/guardian/internal/flows"
)

func (e *Engine) metricIncInt(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) emitFlowAudit(ctx context.Context, event string, success bool, userID int64, err error) {
	e.emitAudit(ctx, event, success, userID, err, nil)
}

// initFlows binds the engine's collaborators into the flow dependency
// structs once, at build time.
func (e *Engine) initFlows() {
	e.resolveDeps = flows.ResolveDeps[*User]{
		ParseBearer:  e.jwtManager.Parse,
		FindUserByID: e.findUserByID,
		TokenExists:  e.tokens.Exists,
		Now:          time.Now,
		MetricInc:    e.metricIncInt,
		ObserveLatency: func(d time.Duration) {
			e.metrics.Observe(MetricResolveLatency, d)
		},
		EmitAudit: e.emitFlowAudit,
		Debug:     e.logDebug,
		Warn:      e.logWarn,
		Metrics: flows.ResolveMetrics{
			Authenticated:    int(MetricResolveAuthenticated),
			Anonymous:        int(MetricResolveAnonymous),
			Malformed:        int(MetricResolveMalformed),
			InvalidSignature: int(MetricResolveInvalidSignature),
			Expired:          int(MetricResolveExpired),
			Validation:       int(MetricResolveValidation),
			UserNotFound:     int(MetricResolveUserNotFound),
			TokenMismatch:    int(MetricResolveTokenMismatch),
		},
		Events: flows.ResolveEvents{
			Authenticated: auditEventResolveAuthenticated,
			Rejected:      auditEventResolveRejected,
		},
		Errors: flows.ResolveErrors{
			MalformedToken:        ErrMalformedToken,
			InvalidSignature:      ErrInvalidSignature,
			TokenExpired:          ErrTokenExpired,
			Validation:            ErrValidation,
			UserNotFound:          ErrUserNotFound,
			TokenMismatch:         ErrTokenMismatch,
			TokenStoreUnavailable: ErrTokenStoreUnavailable,
		},
	}

	e.attemptDeps = flows.AttemptDeps[*User]{
		ClientIP:        clientIPFromContext,
		FindUserByEmail: e.findUserByEmail,
		UserID:          func(u *User) int64 { return u.ID },
		PasswordHash:    func(u *User) string { return u.PasswordHash },
		CheckPassword:   e.hasher.Check,
		CreateToken:     e.tokens.Create,
		DeleteToken:     e.tokens.Delete,
		SignBearer:      e.jwtManager.Sign,
		MetricInc:       e.metricIncInt,
		EmitAudit:       e.emitAudit,
		Warn:            e.logWarn,
		Metrics: flows.AttemptMetrics{
			Success:      int(MetricAttemptSuccess),
			Failure:      int(MetricAttemptFailure),
			UnknownUser:  int(MetricAttemptUnknownUser),
			RateLimited:  int(MetricAttemptRateLimited),
			TokenCreated: int(MetricTokenCreated),
		},
		Events: flows.AttemptEvents{
			Success:     auditEventAttemptSuccess,
			Failure:     auditEventAttemptFailure,
			RateLimited: auditEventAttemptRateLimited,
		},
		Errors: flows.AttemptErrors{
			EngineNotReady:        ErrEngineNotReady,
			UserNotFound:          ErrUserNotFound,
			AttemptsExceeded:      ErrAttemptsExceeded,
			TokenStoreUnavailable: ErrTokenStoreUnavailable,
		},
	}
	if e.rateLimiter != nil {
		e.attemptDeps.CheckRate = e.rateLimiter.CheckAttempt
		e.attemptDeps.FailRate = e.rateLimiter.FailAttempt
		e.attemptDeps.ResetRate = e.rateLimiter.ResetAttempt
	}
	if upgrader, ok := e.users.(PasswordUpgrader); ok && e.config.Password.UpgradeOnLogin && e.verifier != nil {
		e.attemptDeps.PasswordNeedsRehash = e.verifier.NeedsRehash
		e.attemptDeps.HashPassword = e.verifier.Hash
		e.attemptDeps.UpdatePasswordHash = upgrader.UpdatePasswordHash
	}

	e.tokenDeps = flows.TokenDeps{
		ParseBearer:           e.jwtManager.Parse,
		CreateToken:           e.tokens.Create,
		DeleteToken:           e.tokens.Delete,
		DeleteAllForUser:      e.tokens.DeleteAllForUser,
		SignBearer:            e.jwtManager.Sign,
		MetricInc:             e.metricIncInt,
		EmitAudit:             e.emitFlowAudit,
		TokenCreatedMetric:    int(MetricTokenCreated),
		TokenRevokedMetric:    int(MetricTokenRevoked),
		RevokeEvent:           auditEventTokenRevoked,
		RevokeAllEvent:        auditEventTokensRevokedAll,
		TokenStoreUnavailable: ErrTokenStoreUnavailable,
		Validation:            ErrValidation,
	}
}
