package postgres

import (
	"context"

	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, user_id, product_id, user_name, is_delivered, payment_method, origin_address, total_price, total_paid, created_at, updated_at`

func scanPayment(row pgx.Row) (*repository.Payment, error) {
	var p repository.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.ProductID, &p.UserName, &p.IsDelivered, &p.PaymentMethod, &p.OriginAddress,
		&p.TotalPrice, &p.TotalPaid, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPaymentsForUser(ctx context.Context, userID int64, page, perPage int) (repository.Page[repository.Payment], error) {
	return s.listPayments(ctx, `user_id = $1`, userID, page, perPage)
}

func (s *Store) ListPaymentsForProduct(ctx context.Context, productID int64, page, perPage int) (repository.Page[repository.Payment], error) {
	return s.listPayments(ctx, `product_id = $1`, productID, page, perPage)
}

func (s *Store) listPayments(ctx context.Context, where string, arg int64, page, perPage int) (repository.Page[repository.Payment], error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM payments WHERE `+where, arg).Scan(&total); err != nil {
		return repository.Page[repository.Payment]{}, mapError("count payments", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE `+where+` ORDER BY id LIMIT $2 OFFSET $3`,
		arg, perPage, repository.Offset(page, perPage))
	if err != nil {
		return repository.Page[repository.Payment]{}, mapError("list payments", err)
	}
	defer rows.Close()

	out := make([]repository.Payment, 0, perPage)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return repository.Page[repository.Payment]{}, mapError("list payments", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return repository.Page[repository.Payment]{}, mapError("list payments", err)
	}
	return repository.NewPage(out, page, perPage, total), nil
}

func (s *Store) PaymentByID(ctx context.Context, id int64) (*repository.Payment, error) {
	p, err := scanPayment(s.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("payment by id", err)
	}
	return p, nil
}

// InsertPayment writes no row, and so reports ErrNotFound, when the named
// product is missing or trashed.
func (s *Store) InsertPayment(ctx context.Context, userID int64, in repository.NewPayment) (*repository.Payment, error) {
	p, err := scanPayment(s.pool.QueryRow(ctx, `
		INSERT INTO payments (user_id, product_id, user_name, is_delivered, payment_method, origin_address, total_price, total_paid)
		SELECT $1::bigint, $2::bigint, $3::text, $4::boolean, $5::text, $6::text, $7::float8, $8::float8
		WHERE $2::bigint IS NULL OR EXISTS (SELECT 1 FROM products WHERE id = $2 AND deleted_at IS NULL)
		RETURNING `+paymentColumns,
		userID, in.ProductID, in.UserName, in.IsDelivered, in.PaymentMethod, in.OriginAddress, in.TotalPrice, in.TotalPaid))
	if err != nil {
		return nil, mapError("insert payment", err)
	}
	return p, nil
}
