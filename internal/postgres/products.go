package postgres

import (
	"context"

	"github.com/MrEthical07/guardian/internal/repository"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, title, price, description, deleted_at, created_at, updated_at`

func scanProduct(row pgx.Row) (*repository.Product, error) {
	var p repository.Product
	if err := row.Scan(&p.ID, &p.Title, &p.Price, &p.Description, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, trashed bool, page, perPage int) (repository.Page[repository.Product], error) {
	filter := `deleted_at IS NULL`
	if trashed {
		filter = `deleted_at IS NOT NULL`
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM products WHERE `+filter).Scan(&total); err != nil {
		return repository.Page[repository.Product]{}, mapError("count products", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE `+filter+` ORDER BY id LIMIT $1 OFFSET $2`,
		perPage, repository.Offset(page, perPage))
	if err != nil {
		return repository.Page[repository.Product]{}, mapError("list products", err)
	}
	defer rows.Close()

	out := make([]repository.Product, 0, perPage)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return repository.Page[repository.Product]{}, mapError("list products", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return repository.Page[repository.Product]{}, mapError("list products", err)
	}
	return repository.NewPage(out, page, perPage, total), nil
}

func (s *Store) ProductByID(ctx context.Context, id int64) (*repository.Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, mapError("product by id", err)
	}
	return p, nil
}

func (s *Store) InsertProduct(ctx context.Context, in repository.ProductInput) (*repository.Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (title, price, description) VALUES ($1, $2, $3)
		RETURNING `+productColumns, in.Title, in.Price, in.Description))
	if err != nil {
		return nil, mapError("insert product", err)
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, in repository.ProductInput) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products SET title = $2, price = $3, description = $4, updated_at = NOW()
		WHERE id = $1`, id, in.Title, in.Price, in.Description)
	if err != nil {
		return mapError("update product", err)
	}
	return requireRow(tag)
}

func (s *Store) SoftDeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE products SET deleted_at = COALESCE(deleted_at, NOW()), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return mapError("delete product", err)
	}
	return requireRow(tag)
}

func (s *Store) RestoreProduct(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE products SET deleted_at = NULL, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return mapError("restore product", err)
	}
	return requireRow(tag)
}

func (s *Store) ProductImage(ctx context.Context, id int64) (*repository.ProductImage, error) {
	var (
		contentType *string
		data        []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT image_type, image FROM products WHERE id = $1`, id).Scan(&contentType, &data)
	if err != nil {
		return nil, mapError("product image", err)
	}
	if contentType == nil || data == nil {
		return nil, repository.ErrNotFound
	}
	return &repository.ProductImage{ContentType: *contentType, Data: data}, nil
}

func (s *Store) SetProductImage(ctx context.Context, id int64, img repository.ProductImage) error {
	tag, err := s.pool.Exec(ctx, `UPDATE products SET image = $2, image_type = $3, updated_at = NOW() WHERE id = $1`,
		id, img.Data, img.ContentType)
	if err != nil {
		return mapError("set product image", err)
	}
	return requireRow(tag)
}
