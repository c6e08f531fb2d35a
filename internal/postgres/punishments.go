package postgres

import (
	"context"

	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/jackc/pgx/v5"
)

const punishmentColumns = `id, user_id, staff_id, reason, expires_at, created_at, updated_at`

func scanPunishment(row pgx.Row) (*repository.Punishment, error) {
	var p repository.Punishment
	if err := row.Scan(&p.ID, &p.UserID, &p.StaffID, &p.Reason, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPunishments(ctx context.Context, page, perPage int) (repository.Page[repository.Punishment], error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM punishments`).Scan(&total); err != nil {
		return repository.Page[repository.Punishment]{}, mapError("count punishments", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+punishmentColumns+` FROM punishments ORDER BY id LIMIT $1 OFFSET $2`,
		perPage, repository.Offset(page, perPage))
	if err != nil {
		return repository.Page[repository.Punishment]{}, mapError("list punishments", err)
	}
	defer rows.Close()

	out := make([]repository.Punishment, 0, perPage)
	for rows.Next() {
		p, err := scanPunishment(rows)
		if err != nil {
			return repository.Page[repository.Punishment]{}, mapError("list punishments", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return repository.Page[repository.Punishment]{}, mapError("list punishments", err)
	}
	return repository.NewPage(out, page, perPage, total), nil
}

func (s *Store) PunishmentByID(ctx context.Context, id int64) (*repository.Punishment, error) {
	p, err := scanPunishment(s.pool.QueryRow(ctx, `SELECT `+punishmentColumns+` FROM punishments WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("punishment by id", err)
	}
	return p, nil
}

func (s *Store) InsertPunishment(ctx context.Context, in repository.PunishmentInput) (*repository.Punishment, error) {
	p, err := scanPunishment(s.pool.QueryRow(ctx, `
		INSERT INTO punishments (user_id, staff_id, reason, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+punishmentColumns, in.UserID, in.StaffID, in.Reason, in.ExpiresAt))
	if err != nil {
		return nil, mapError("insert punishment", err)
	}
	return p, nil
}

func (s *Store) UpdatePunishment(ctx context.Context, id int64, in repository.PunishmentUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE punishments SET reason = COALESCE($2, reason), expires_at = COALESCE($3, expires_at), updated_at = NOW()
		WHERE id = $1`, id, in.Reason, in.ExpiresAt)
	if err != nil {
		return mapError("update punishment", err)
	}
	return requireRow(tag)
}

func (s *Store) DeletePunishment(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM punishments WHERE id = $1`, id)
	if err != nil {
		return mapError("delete punishment", err)
	}
	return requireRow(tag)
}
