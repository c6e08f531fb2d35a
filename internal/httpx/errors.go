package httpx

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/MrEthical07/guardian/internal/validation"
	"github.com/MrEthical07/guardian/session"
	"github.com/rs/zerolog"
)

// ErrValidation marks a request that could not be decoded or bound.
var ErrValidation = errors.New("validation failed")

type mapping struct {
	target error
	status int
	title  string
}

// Order matters: repository lookups wrap both ErrNotFound and
// guardian.ErrUserNotFound and must map to 404.
var mappings = []mapping{
	{repository.ErrNotFound, http.StatusNotFound, "Not Found"},
	{repository.ErrDuplicate, http.StatusConflict, "Duplicate"},
	{repository.ErrCacheInvalidation, http.StatusServiceUnavailable, "Service Unavailable"},
	{ErrValidation, http.StatusBadRequest, "Validation Failed"},
	{guardian.ErrValidation, http.StatusBadRequest, "Validation Failed"},
	{guardian.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{guardian.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{guardian.ErrInvalidCredentials, http.StatusUnauthorized, "Unauthorized"},
	{guardian.ErrUserNotFound, http.StatusUnauthorized, "Unauthorized"},
	{guardian.ErrAttemptsExceeded, http.StatusTooManyRequests, "Too Many Attempts"},
	{guardian.ErrNotImplemented, http.StatusNotImplemented, "Not Implemented"},
	{guardian.ErrTokenStoreUnavailable, http.StatusServiceUnavailable, "Service Unavailable"},
	{session.ErrRedisUnavailable, http.StatusServiceUnavailable, "Service Unavailable"},
}

// StatusFor returns the HTTP status and title RespondError uses for err.
func StatusFor(err error) (int, string) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return http.StatusBadRequest, "Validation Failed"
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status, m.title
		}
	}
	return http.StatusInternalServerError, "Internal Error"
}

// RespondError maps domain errors to HTTP responses using RFC 7807. Server
// errors are logged through the request logger and never echo err.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status, title := StatusFor(err)
	p := ProblemDetail{Title: title, Status: status}

	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		p.Errors = verr.Map()
	case status >= http.StatusInternalServerError:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	default:
		p.Detail = err.Error()
	}
	writeProblem(w, p)
}
