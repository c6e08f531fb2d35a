package postgres

import (
	"context"

	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/jackc/pgx/v5"
)

const commentColumns = `id, post_id, user_id, content, updated, created_at, updated_at`

func scanComment(row pgx.Row) (*repository.Comment, error) {
	var c repository.Comment
	if err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.Updated, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCommentsForPost(ctx context.Context, postID int64, page, perPage int) (repository.Page[repository.Comment], error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE post_id = $1`, postID).Scan(&total); err != nil {
		return repository.Page[repository.Comment]{}, mapError("count comments", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+commentColumns+` FROM comments WHERE post_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		postID, perPage, repository.Offset(page, perPage))
	if err != nil {
		return repository.Page[repository.Comment]{}, mapError("list comments", err)
	}
	defer rows.Close()

	out := make([]repository.Comment, 0, perPage)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return repository.Page[repository.Comment]{}, mapError("list comments", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return repository.Page[repository.Comment]{}, mapError("list comments", err)
	}
	return repository.NewPage(out, page, perPage, total), nil
}

func (s *Store) CommentByID(ctx context.Context, id int64) (*repository.Comment, error) {
	c, err := scanComment(s.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("comment by id", err)
	}
	return c, nil
}

func (s *Store) InsertComment(ctx context.Context, postID, userID int64, content string) (*repository.Comment, error) {
	c, err := scanComment(s.pool.QueryRow(ctx, `
		INSERT INTO comments (post_id, user_id, content) VALUES ($1, $2, $3)
		RETURNING `+commentColumns, postID, userID, content))
	if err != nil {
		return nil, mapError("insert comment", err)
	}
	return c, nil
}

func (s *Store) UpdateComment(ctx context.Context, id int64, content string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE comments SET content = $2, updated = TRUE, updated_at = NOW() WHERE id = $1`, id, content)
	if err != nil {
		return mapError("update comment", err)
	}
	return requireRow(tag)
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return mapError("delete comment", err)
	}
	return requireRow(tag)
}
