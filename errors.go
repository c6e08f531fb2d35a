package guardian

import "errors"

var (
	// ErrMalformedToken is returned when a bearer cannot be decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature is returned when a bearer fails signature, algorithm,
	// issuer or audience verification.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired is returned when a bearer is outside its validity window.
	ErrTokenExpired = errors.New("token expired")
	// ErrValidation is returned when a decoded payload is not {id>0, token}.
	ErrValidation = errors.New("invalid token payload")
	// ErrUserNotFound is returned when no user matches an id or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenMismatch is returned when the opaque token is not stored for the user.
	ErrTokenMismatch = errors.New("token not recognised for user")
	// ErrForbidden is returned when an authenticated principal lacks a capability.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned when an operation requires an authenticated
	// principal or an administrator.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotImplemented is returned by guard operations that are intentionally unsupported.
	ErrNotImplemented = errors.New("not implemented")
	// ErrInvalidCredentials is returned by callers that turn a failed attempt into an error.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAttemptsExceeded is returned when credential attempts are throttled.
	ErrAttemptsExceeded = errors.New("attempts exceeded")
	// ErrEngineNotReady is returned when a required collaborator is missing.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrTokenStoreUnavailable wraps token store back-end failures.
	ErrTokenStoreUnavailable = errors.New("token store unavailable")
)
