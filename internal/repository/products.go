package repository

import (
	"context"
	"strconv"

	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/rs/zerolog"
)

const productsNamespace = "products"

// ProductRepository serves products through the cache. Images are read
// from the store directly.
type ProductRepository struct {
	changes
	store  ProductStore
	cache  *cache.Cache
	logger zerolog.Logger
}

func NewProductRepository(store ProductStore, c *cache.Cache, logger zerolog.Logger) *ProductRepository {
	return &ProductRepository{
		changes: changes{model: "product", cache: c, logger: logger, namespaces: []string{productsNamespace}},
		store:   store,
		cache:   c,
		logger:  logger,
	}
}

func (r *ProductRepository) FindPaginatedProducts(ctx context.Context, page int) (Page[Product], error) {
	return remember(ctx, r.cache, productsNamespace, "paginated."+strconv.Itoa(page), func(ctx context.Context) (Page[Product], error) {
		return r.store.ListProducts(ctx, false, page, PerPage)
	})
}

func (r *ProductRepository) FindPaginatedTrashedProducts(ctx context.Context, page int) (Page[Product], error) {
	return remember(ctx, r.cache, productsNamespace, "trashed.paginated."+strconv.Itoa(page), func(ctx context.Context) (Page[Product], error) {
		return r.store.ListProducts(ctx, true, page, PerPage)
	})
}

// FindProductByID includes trashed products.
func (r *ProductRepository) FindProductByID(ctx context.Context, id int64) (*Product, error) {
	return remember(ctx, r.cache, productsNamespace, "show."+strconv.FormatInt(id, 10), func(ctx context.Context) (*Product, error) {
		return r.store.ProductByID(ctx, id)
	})
}

func (r *ProductRepository) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	r.logger.Info().Str("title", in.Title).Msg("creating product")
	p, err := r.store.InsertProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := r.commit(ctx, EventCreated, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, id int64, in ProductInput) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.UpdateProduct(ctx, id, in) })
}

// DeleteProduct soft-deletes the product.
func (r *ProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	return r.apply(ctx, EventDeleted, id, func() error { return r.store.SoftDeleteProduct(ctx, id) })
}

func (r *ProductRepository) RestoreProduct(ctx context.Context, id int64) error {
	return r.apply(ctx, EventRestored, id, func() error { return r.store.RestoreProduct(ctx, id) })
}

func (r *ProductRepository) FindProductImage(ctx context.Context, id int64) (*ProductImage, error) {
	return r.store.ProductImage(ctx, id)
}

func (r *ProductRepository) UpdateProductImage(ctx context.Context, id int64, img ProductImage) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.SetProductImage(ctx, id, img) })
}
