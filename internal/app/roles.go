package app

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/MrEthical07/guardian/internal/httpx"
	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/MrEthical07/guardian/internal/validation"
	"github.com/MrEthical07/guardian/permission"
	"github.com/goccy/go-json"
)

// numericString accepts a JSON number or a numeric string.
type numericString string

func (n *numericString) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = numericString(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	*n = numericString(data)
	return nil
}

type createRoleRequest struct {
	Title           string        `json:"title" validate:"required,max=32"`
	Color           string        `json:"color" validate:"required,max=32"`
	PermissionLevel numericString `json:"permission_level" validate:"required,numeric"`
	IsStaff         bool          `json:"is_staff"`
}

type updateRoleRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=32"`
	Color   *string `json:"color" validate:"omitempty,max=12"`
	IsStaff *bool   `json:"is_staff"`
}

// mask parses permission_level. The column is a signed 64-bit integer, so
// the top bit is never available.
func (req createRoleRequest) mask() (permission.Mask, error) {
	v, err := strconv.ParseUint(string(req.PermissionLevel), 10, permission.MaxBits)
	if err != nil {
		return 0, &validation.Error{Fields: []validation.FieldError{{
			Field:   "permission_level",
			Tag:     "numeric",
			Message: "permission_level must be a non-negative integer below 2^63",
		}}}
	}
	return permission.Mask(v), nil
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.FindAllRoles(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roles)
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	role, err := h.roles.FindRoleByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	mask, err := req.mask()
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	role, err := h.roles.CreateRole(r.Context(), repository.RoleInput{
		Title:       req.Title,
		Color:       req.Color,
		Permissions: mask,
		IsStaff:     req.IsStaff,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req updateRoleRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.roles.UpdateRole(r.Context(), id, repository.RoleUpdate{Title: req.Title, Color: req.Color, IsStaff: req.IsStaff}); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.roles.DeleteRole(r.Context(), id); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) staff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.roles.FindAllRolesThatAreStaff(r.Context())
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, staff)
}
