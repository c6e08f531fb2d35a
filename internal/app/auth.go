package app

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/httpx"
	"github.com/MrEthical07/guardian/middleware"
	"github.com/MrEthical07/guardian/permission"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=1024"`
}

type tokenResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        *guardian.User `json:"user"`
}

// meResponse is the caller's own view of their account, which unlike the
// public user shape includes the email address.
type meResponse struct {
	*guardian.User
	Email       string          `json:"email"`
	Permissions permission.Mask `json:"permissions"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	g, r := middleware.GuardFromRequest(h.engine, r)
	bearer, ok, err := g.Attempt(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, guardian.ErrUserNotFound):
		httpx.RespondError(w, r, guardian.ErrInvalidCredentials)
		return
	case err != nil:
		httpx.RespondError(w, r, err)
		return
	case !ok:
		httpx.RespondError(w, r, guardian.ErrInvalidCredentials)
		return
	}

	httpx.JSON(w, http.StatusOK, tokenResponse{
		AccessToken: bearer,
		TokenType:   "bearer",
		User:        g.User(),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Revoke(r.Context(), guardian.BearerToken(r)); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{User: u, Email: u.Email, Permissions: u.Permissions()})
}
