package guardian

import (
	"context"
	"errors"

	internalaudit "github.com/MrEthical07/guardian/internal/audit"
)

const (
	auditEventResolveAuthenticated = "resolve_authenticated"
	auditEventResolveRejected      = "resolve_rejected"
	auditEventAttemptSuccess       = "attempt_success"
	auditEventAttemptFailure       = "attempt_failure"
	auditEventAttemptRateLimited   = "attempt_rate_limited"
	auditEventTokenIssued          = "token_issued"
	auditEventTokenRevoked         = "token_revoked"
	auditEventTokensRevokedAll     = "tokens_revoked_all"
	auditEventAuthorizeDenied      = "authorize_denied"
	auditEventAdminDenied          = "admin_denied"
)

// AuditErrorCode is the stable, non-sensitive error label stored on events.
type AuditErrorCode string

const (
	auditErrMalformedToken    AuditErrorCode = "malformed_token"
	auditErrInvalidSignature  AuditErrorCode = "invalid_signature"
	auditErrTokenExpired      AuditErrorCode = "token_expired"
	auditErrValidation        AuditErrorCode = "invalid_payload"
	auditErrUserNotFound      AuditErrorCode = "user_not_found"
	auditErrTokenMismatch     AuditErrorCode = "token_mismatch"
	auditErrForbidden         AuditErrorCode = "forbidden"
	auditErrUnauthorized      AuditErrorCode = "unauthorized"
	auditErrAttemptsExceeded  AuditErrorCode = "attempts_exceeded"
	auditErrStoreUnavailable  AuditErrorCode = "backend_unavailable"
	auditErrInvalidCredential AuditErrorCode = "invalid_credentials"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID int64,
	err error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.NewEvent(eventType, success)
	if userID > 0 {
		event.UserID = userID
	}
	event.RequestID = requestIDFromContext(ctx)
	event.IP = clientIPFromContext(ctx)
	event.Metadata = metadata
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrTokenStoreUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, ErrMalformedToken):
		return auditErrMalformedToken
	case errors.Is(err, ErrInvalidSignature):
		return auditErrInvalidSignature
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrTokenMismatch):
		return auditErrTokenMismatch
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrAttemptsExceeded):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredential
	default:
		return auditErrInternal
	}
}
