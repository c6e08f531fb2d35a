package repository

import (
	"context"
	"strconv"

	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/rs/zerolog"
)

const (
	postsNamespace    = "posts"
	commentsNamespace = "comments"
)

type PostRepository struct {
	changes
	store  PostStore
	cache  *cache.Cache
	logger zerolog.Logger
}

func NewPostRepository(store PostStore, c *cache.Cache, logger zerolog.Logger) *PostRepository {
	return &PostRepository{
		changes: changes{model: "post", cache: c, logger: logger, namespaces: []string{postsNamespace}},
		store:   store,
		cache:   c,
		logger:  logger,
	}
}

func (r *PostRepository) FindPaginatedPosts(ctx context.Context, page int) (Page[Post], error) {
	r.logger.Debug().Int("page", page).Msg("retrieving posts")
	return remember(ctx, r.cache, postsNamespace, "paginated."+strconv.Itoa(page), func(ctx context.Context) (Page[Post], error) {
		return r.store.ListPosts(ctx, page, PerPage)
	})
}

func (r *PostRepository) FindPostByID(ctx context.Context, id int64) (*Post, error) {
	return remember(ctx, r.cache, postsNamespace, "show."+strconv.FormatInt(id, 10), func(ctx context.Context) (*Post, error) {
		return r.store.PostByID(ctx, id)
	})
}

func (r *PostRepository) CreatePost(ctx context.Context, userID int64, in PostInput) (*Post, error) {
	r.logger.Info().Int64("user_id", userID).Msg("creating post")
	p, err := r.store.InsertPost(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	if err := r.commit(ctx, EventCreated, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) UpdatePost(ctx context.Context, id int64, in PostUpdate) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.UpdatePost(ctx, id, in) })
}

// DeletePost removes the post with its comments.
func (r *PostRepository) DeletePost(ctx context.Context, id int64) error {
	return r.apply(ctx, EventDeleted, id, func() error { return r.store.DeletePost(ctx, id) }, commentsNamespace)
}

// LikePost records a like by userID. Liking twice counts once.
func (r *PostRepository) LikePost(ctx context.Context, id, userID int64) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.LikePost(ctx, id, userID) })
}

func (r *PostRepository) UnlikePost(ctx context.Context, id, userID int64) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.UnlikePost(ctx, id, userID) })
}
