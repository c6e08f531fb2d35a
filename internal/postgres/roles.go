package postgres

import (
	"context"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/MrEthical07/guardian/permission"
	"github.com/jackc/pgx/v5"
)

const roleColumns = `id, title, color, permission_level, is_staff, created_at, updated_at`

func scanRole(row pgx.Row) (*guardian.Role, error) {
	var r guardian.Role
	var level int64
	if err := row.Scan(&r.ID, &r.Title, &r.Color, &level, &r.IsStaff, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Permissions = permission.Mask(level)
	return &r, nil
}

func (s *Store) queryRoles(ctx context.Context, where string) ([]guardian.Role, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles `+where+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]guardian.Role, 0)
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) ListRoles(ctx context.Context) ([]guardian.Role, error) {
	roles, err := s.queryRoles(ctx, "")
	return roles, mapError("list roles", err)
}

func (s *Store) RoleByID(ctx context.Context, id int64) (*guardian.Role, error) {
	r, err := scanRole(s.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("role by id", err)
	}
	return r, nil
}

func (s *Store) StaffRoles(ctx context.Context) ([]repository.StaffRole, error) {
	roles, err := s.queryRoles(ctx, "WHERE is_staff")
	if err != nil {
		return nil, mapError("staff roles", err)
	}

	out := make([]repository.StaffRole, 0, len(roles))
	for _, role := range roles {
		rows, err := s.pool.Query(ctx, `
			SELECT `+prefixed("u.", userColumns)+`
			FROM users u JOIN role_user ru ON ru.user_id = u.id
			WHERE ru.role_id = $1 AND u.deleted_at IS NULL
			ORDER BY u.id`, role.ID)
		if err != nil {
			return nil, mapError("staff roles", err)
		}
		ptrs := make([]*guardian.User, 0)
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				rows.Close()
				return nil, mapError("staff roles", err)
			}
			ptrs = append(ptrs, u)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, mapError("staff roles", err)
		}
		if err := s.hydrate(ctx, ptrs); err != nil {
			return nil, mapError("staff roles", err)
		}

		users := make([]guardian.User, len(ptrs))
		for i, u := range ptrs {
			users[i] = *u
		}
		out = append(out, repository.StaffRole{Role: role, Users: users})
	}
	return out, nil
}

func (s *Store) InsertRole(ctx context.Context, in repository.RoleInput) (*guardian.Role, error) {
	r, err := scanRole(s.pool.QueryRow(ctx, `
		INSERT INTO roles (title, color, permission_level, is_staff)
		VALUES ($1, $2, $3, $4)
		RETURNING `+roleColumns, in.Title, in.Color, int64(in.Permissions), in.IsStaff))
	if err != nil {
		return nil, mapError("insert role", err)
	}
	return r, nil
}

func (s *Store) UpdateRole(ctx context.Context, id int64, in repository.RoleUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE roles SET
			title = COALESCE($2, title),
			color = COALESCE($3, color),
			is_staff = COALESCE($4, is_staff),
			updated_at = NOW()
		WHERE id = $1`, id, in.Title, in.Color, in.IsStaff)
	if err != nil {
		return mapError("update role", err)
	}
	return requireRow(tag)
}

func (s *Store) DeleteRole(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return mapError("delete role", err)
	}
	return requireRow(tag)
}
