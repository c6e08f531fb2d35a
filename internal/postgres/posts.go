package postgres

import (
	"context"

	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/jackc/pgx/v5"
)

const postSelect = `
	SELECT p.id, p.user_id, p.title, p.description,
	       (SELECT count(*) FROM post_likes l WHERE l.post_id = p.id),
	       p.created_at, p.updated_at
	FROM posts p`

func scanPost(row pgx.Row) (*repository.Post, error) {
	var p repository.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Description, &p.Likes, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts returns the newest posts first.
func (s *Store) ListPosts(ctx context.Context, page, perPage int) (repository.Page[repository.Post], error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM posts`).Scan(&total); err != nil {
		return repository.Page[repository.Post]{}, mapError("count posts", err)
	}

	rows, err := s.pool.Query(ctx, postSelect+` ORDER BY p.id DESC LIMIT $1 OFFSET $2`, perPage, repository.Offset(page, perPage))
	if err != nil {
		return repository.Page[repository.Post]{}, mapError("list posts", err)
	}
	defer rows.Close()

	out := make([]repository.Post, 0, perPage)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return repository.Page[repository.Post]{}, mapError("list posts", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return repository.Page[repository.Post]{}, mapError("list posts", err)
	}
	return repository.NewPage(out, page, perPage, total), nil
}

func (s *Store) PostByID(ctx context.Context, id int64) (*repository.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, mapError("post by id", err)
	}
	return p, nil
}

func (s *Store) InsertPost(ctx context.Context, userID int64, in repository.PostInput) (*repository.Post, error) {
	p, err := scanPost(s.pool.QueryRow(ctx, `
		INSERT INTO posts (user_id, title, description) VALUES ($1, $2, $3)
		RETURNING id, user_id, title, description, 0::bigint, created_at, updated_at`,
		userID, in.Title, in.Description))
	if err != nil {
		return nil, mapError("insert post", err)
	}
	return p, nil
}

func (s *Store) UpdatePost(ctx context.Context, id int64, in repository.PostUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE posts SET title = COALESCE($2, title), description = COALESCE($3, description), updated_at = NOW()
		WHERE id = $1`, id, in.Title, in.Description)
	if err != nil {
		return mapError("update post", err)
	}
	return requireRow(tag)
}

// DeletePost relies on ON DELETE CASCADE for comments and likes.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return mapError("delete post", err)
	}
	return requireRow(tag)
}

func (s *Store) LikePost(ctx context.Context, postID, userID int64) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, userID)
	return mapError("like post", err)
}

func (s *Store) UnlikePost(ctx context.Context, postID, userID int64) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return mapError("unlike post", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	return mapError("unlike post", err)
}
