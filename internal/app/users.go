package app

import (
	"fmt"
	"net/http"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/httpx"
	"github.com/MrEthical07/guardian/internal/repository"
)

type profileRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	UserName *string `json:"user_name" validate:"omitempty,min=3,max=32,alphanum"`
}

type passwordRequest struct {
	Password    string `json:"password" validate:"required,min=8,max=16"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=16"`
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required,max=1024"`
}

type syncRolesRequest struct {
	RoleIDs []int64 `json:"role_ids" validate:"dive,gt=0"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req profileRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.users.UpdateProfile(r.Context(), u.ID, repository.ProfileUpdate{Name: req.Name, UserName: req.UserName}); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// updatePassword requires the current password; a mismatch is a 403, the
// same as any other failed authorization. Every bearer the user holds is
// revoked and a fresh one is returned in its place.
func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req passwordRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if !h.engine.CheckPassword(req.Password, u.PasswordHash) {
		httpx.RespondError(w, r, guardian.ErrForbidden)
		return
	}

	hash, err := h.engine.HashPassword(req.NewPassword)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.users.UpdatePasswordHash(r.Context(), u.ID, hash); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.engine.RevokeAll(r.Context(), u.ID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	bearer, err := h.engine.Issue(r.Context(), u)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{
		AccessToken: bearer,
		TokenType:   "bearer",
		User:        u,
	})
}

// deleteAccount revokes every session the caller holds, then soft-deletes
// them. A failed revocation leaves the account in place.
func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req deleteAccountRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if !h.engine.CheckPassword(req.Password, u.PasswordHash) {
		httpx.RespondError(w, r, guardian.ErrForbidden)
		return
	}

	if err := h.engine.RevokeAll(r.Context(), u.ID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.users.DeleteUser(r.Context(), u.ID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.FindPaginatedUsers(r.Context(), pageParam(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// showUser is the public profile behind a post's created_by link.
func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	u, err := h.users.FindUserByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if u.DeletedAt != nil {
		httpx.RespondError(w, r, fmt.Errorf("user %d: %w", id, repository.ErrNotFound))
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) listTrashedUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.FindPaginatedTrashedUsers(r.Context(), pageParam(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) restoreUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.users.RestoreUser(r.Context(), id); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) syncRoles(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req syncRolesRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.users.SyncRoles(r.Context(), id, req.RoleIDs); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}
