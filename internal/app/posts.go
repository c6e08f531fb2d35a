package app

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/guardian/internal/httpx"
	"github.com/MrEthical07/guardian/internal/repository"
)

type postRequest struct {
	Title       string `json:"title" validate:"required,max=72"`
	Description string `json:"description" validate:"required,max=6000"`
}

type updatePostRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=72"`
	Description *string `json:"description" validate:"omitempty,min=1,max=6000"`
}

// postResource links the author instead of embedding them.
type postResource struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Likes       int64     `json:"likes"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newPostResource(p repository.Post) postResource {
	return postResource{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Likes:       p.Likes,
		CreatedBy:   "/users/" + strconv.FormatInt(p.UserID, 10),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	page, err := h.posts.FindPaginatedPosts(r.Context(), pageParam(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapPage(page, newPostResource))
}

func (h *Handler) showPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	p, err := h.posts.FindPostByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newPostResource(*p))
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req postRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	p, err := h.posts.CreatePost(r.Context(), u.ID, repository.PostInput{Title: req.Title, Description: req.Description})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newPostResource(*p))
}

// ownedPost loads the {id} post and checks the caller may change it.
func (h *Handler) ownedPost(r *http.Request) (*repository.Post, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	p, err := h.posts.FindPostByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(r, p.UserID); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownedPost(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req updatePostRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.posts.UpdatePost(r.Context(), p.ID, repository.PostUpdate{Title: req.Title, Description: req.Description}); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownedPost(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if err := h.posts.DeletePost(r.Context(), p.ID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) likePost(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.posts.LikePost)
}

func (h *Handler) unlikePost(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, h.posts.UnlikePost)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, postID, userID int64) error) {
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
	if err := apply(r.Context(), id, u.ID); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}
