package app

import (
	"net/http"
	"time"

	"github.com/MrEthical07/guardian/internal/httpx"
	"github.com/MrEthical07/guardian/internal/repository"
)

type createPunishmentRequest struct {
	UserID    int64      `json:"user_id" validate:"gt=0"`
	Reason    string     `json:"reason" validate:"required,max=255"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type updatePunishmentRequest struct {
	Reason    *string    `json:"reason" validate:"omitempty,min=1,max=255"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *Handler) listPunishments(w http.ResponseWriter, r *http.Request) {
	page, err := h.punishments.FindPaginatedPunishments(r.Context(), pageParam(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) showPunishment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	p, err := h.punishments.FindPunishmentByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// createPunishment records the caller as the issuing staff member. The
// punished user must exist.
func (h *Handler) createPunishment(w http.ResponseWriter, r *http.Request) {
	staff, err := currentUser(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req createPunishmentRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if _, err := h.users.FindUserByID(r.Context(), req.UserID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	p, err := h.punishments.CreatePunishment(r.Context(), repository.PunishmentInput{
		UserID:    req.UserID,
		StaffID:   staff.ID,
		Reason:    req.Reason,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updatePunishment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req updatePunishmentRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.punishments.UpdatePunishment(r.Context(), id, repository.PunishmentUpdate{Reason: req.Reason, ExpiresAt: req.ExpiresAt}); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) deletePunishment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.punishments.DeletePunishment(r.Context(), id); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}
