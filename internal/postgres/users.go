package postgres

import (
	"context"
	"fmt"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/MrEthical07/guardian/permission"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, user_name, email, password, avatar_url, is_admin, email_verified_at, deleted_at, created_at, updated_at`

func scanUser(row pgx.Row) (*guardian.User, error) {
	var u guardian.User
	err := row.Scan(&u.ID, &u.Name, &u.UserName, &u.Email, &u.PasswordHash, &u.AvatarURL, &u.IsAdmin,
		&u.EmailVerifiedAt, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// rolesFor loads the roles of every user in ids, keyed by user id.
func (s *Store) rolesFor(ctx context.Context, ids []int64) (map[int64][]guardian.Role, error) {
	out := make(map[int64][]guardian.Role, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT ru.user_id, r.id, r.title, r.color, r.permission_level, r.is_staff, r.created_at, r.updated_at
		FROM role_user ru JOIN roles r ON r.id = ru.role_id
		WHERE ru.user_id = ANY($1)
		ORDER BY r.id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var userID, level int64
		var r guardian.Role
		if err := rows.Scan(&userID, &r.ID, &r.Title, &r.Color, &level, &r.IsStaff, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Permissions = permission.Mask(level)
		out[userID] = append(out[userID], r)
	}
	return out, rows.Err()
}

func (s *Store) hydrate(ctx context.Context, users []*guardian.User) error {
	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	roles, err := s.rolesFor(ctx, ids)
	if err != nil {
		return err
	}
	for _, u := range users {
		u.Roles = roles[u.ID]
		if u.Roles == nil {
			u.Roles = []guardian.Role{}
		}
	}
	return nil
}

func (s *Store) userWhere(ctx context.Context, op, where string, arg any) (*guardian.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		return nil, mapError(op, err)
	}
	if err := s.hydrate(ctx, []*guardian.User{u}); err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*guardian.User, error) {
	return s.userWhere(ctx, "user by id", `id = $1`, id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*guardian.User, error) {
	return s.userWhere(ctx, "user by email", `lower(email) = lower($1)`, email)
}

func (s *Store) ListUsers(ctx context.Context, trashed bool, page, perPage int) (repository.Page[guardian.User], error) {
	filter := `deleted_at IS NULL`
	if trashed {
		filter = `deleted_at IS NOT NULL`
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE `+filter).Scan(&total); err != nil {
		return repository.Page[guardian.User]{}, mapError("count users", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE `+filter+` ORDER BY id LIMIT $1 OFFSET $2`,
		perPage, repository.Offset(page, perPage))
	if err != nil {
		return repository.Page[guardian.User]{}, mapError("list users", err)
	}
	defer rows.Close()

	ptrs := make([]*guardian.User, 0, perPage)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return repository.Page[guardian.User]{}, mapError("list users", err)
		}
		ptrs = append(ptrs, u)
	}
	if err := rows.Err(); err != nil {
		return repository.Page[guardian.User]{}, mapError("list users", err)
	}
	if err := s.hydrate(ctx, ptrs); err != nil {
		return repository.Page[guardian.User]{}, mapError("list users", err)
	}

	out := make([]guardian.User, len(ptrs))
	for i, u := range ptrs {
		out[i] = *u
	}
	return repository.NewPage(out, page, perPage, total), nil
}

func (s *Store) InsertUser(ctx context.Context, in repository.NewUser) (*guardian.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (name, user_name, email, password, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns, in.Name, in.UserName, in.Email, in.PasswordHash, in.IsAdmin))
	if err != nil {
		return nil, mapError("insert user", err)
	}
	u.Roles = []guardian.Role{}
	return u, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id int64, in repository.ProfileUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET name = COALESCE($2, name), user_name = COALESCE($3, user_name), updated_at = NOW()
		WHERE id = $1`, id, in.Name, in.UserName)
	if err != nil {
		return mapError("update profile", err)
	}
	return requireRow(tag)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return mapError("update password", err)
	}
	return requireRow(tag)
}

func (s *Store) SoftDeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET deleted_at = COALESCE(deleted_at, NOW()), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return mapError("delete user", err)
	}
	return requireRow(tag)
}

func (s *Store) RestoreUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET deleted_at = NULL, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return mapError("restore user", err)
	}
	return requireRow(tag)
}

// SyncRoles replaces the user's role set in one transaction.
func (s *Store) SyncRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return mapError("sync roles", err)
		}
		if !exists {
			return repository.ErrNotFound
		}

		if len(roleIDs) > 0 {
			var found int
			if err := tx.QueryRow(ctx, `SELECT count(*) FROM roles WHERE id = ANY($1)`, roleIDs).Scan(&found); err != nil {
				return mapError("sync roles", err)
			}
			if found != len(uniqueIDs(roleIDs)) {
				return fmt.Errorf("%w: unknown role", repository.ErrNotFound)
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM role_user WHERE user_id = $1`, userID); err != nil {
			return mapError("sync roles", err)
		}
		if len(roleIDs) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO role_user (user_id, role_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING`, userID, roleIDs)
		return mapError("sync roles", err)
	})
}

func uniqueIDs(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
