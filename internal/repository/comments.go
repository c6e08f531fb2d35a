package repository

import (
	"context"
	"strconv"

	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/rs/zerolog"
)

type CommentRepository struct {
	changes
	store CommentStore
	cache *cache.Cache
}

func NewCommentRepository(store CommentStore, c *cache.Cache, logger zerolog.Logger) *CommentRepository {
	return &CommentRepository{
		changes: changes{model: "comment", cache: c, logger: logger, namespaces: []string{commentsNamespace}},
		store:   store,
		cache:   c,
	}
}

func (r *CommentRepository) FindPaginatedCommentsForPost(ctx context.Context, postID int64, page int) (Page[Comment], error) {
	key := "post." + strconv.FormatInt(postID, 10) + ".paginated." + strconv.Itoa(page)
	return remember(ctx, r.cache, commentsNamespace, key, func(ctx context.Context) (Page[Comment], error) {
		return r.store.ListCommentsForPost(ctx, postID, page, PerPage)
	})
}

func (r *CommentRepository) FindCommentByID(ctx context.Context, id int64) (*Comment, error) {
	return remember(ctx, r.cache, commentsNamespace, "show."+strconv.FormatInt(id, 10), func(ctx context.Context) (*Comment, error) {
		return r.store.CommentByID(ctx, id)
	})
}

func (r *CommentRepository) CreateComment(ctx context.Context, postID, userID int64, content string) (*Comment, error) {
	c, err := r.store.InsertComment(ctx, postID, userID, content)
	if err != nil {
		return nil, err
	}
	if err := r.commit(ctx, EventCreated, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CommentRepository) UpdateComment(ctx context.Context, id int64, content string) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.UpdateComment(ctx, id, content) })
}

func (r *CommentRepository) DeleteComment(ctx context.Context, id int64) error {
	return r.apply(ctx, EventDeleted, id, func() error { return r.store.DeleteComment(ctx, id) })
}
