// Package httpx provides HTTP response utilities following RFC 7807 problem
// details.
package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrEthical07/guardian/internal/validation"
	"github.com/goccy/go-json"
)

// MaxBodyBytes caps every decoded request body.
const MaxBodyBytes = 1 << 20

// ProblemDetail represents RFC 7807 problem details. Errors carries
// field-level validation messages keyed by JSON field name.
type ProblemDetail struct {
	Type   string            `json:"type,omitempty"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Problem sends an RFC 7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	writeProblem(w, ProblemDetail{Title: title, Status: status, Detail: detail})
}

func writeProblem(w http.ResponseWriter, p ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// DecodeJSON decodes the request body into target. An empty body leaves
// target untouched. Syntax errors are reported as ErrValidation.
func DecodeJSON(r *http.Request, target any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	err := json.NewDecoder(body).Decode(target)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body too large", ErrValidation)
		}
		return fmt.Errorf("%w: malformed JSON body", ErrValidation)
	}
}

// Bind decodes the body into target and validates it.
func Bind(r *http.Request, target any) error {
	if err := DecodeJSON(r, target); err != nil {
		return err
	}
	return validation.Struct(target)
}
