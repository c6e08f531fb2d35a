package app

import (
	"net/http"

	"github.com/MrEthical07/guardian/internal/httpx"
)

type commentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// listComments answers 404 for an unknown post rather than an empty page.
func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if _, err := h.posts.FindPostByID(r.Context(), id); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	page, err := h.comments.FindPaginatedCommentsForPost(r.Context(), id, pageParam(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req commentRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	c, err := h.comments.CreateComment(r.Context(), id, u.ID, req.Content)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	c, err := h.comments.FindCommentByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := requireOwner(r, c.UserID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req commentRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.comments.UpdateComment(r.Context(), c.ID, req.Content); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	c, err := h.comments.FindCommentByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := requireOwner(r, c.UserID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.comments.DeleteComment(r.Context(), c.ID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}
