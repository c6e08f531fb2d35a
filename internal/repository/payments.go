package repository

import (
	"context"
	"strconv"

	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/rs/zerolog"
)

const paymentsNamespace = "payments"

type PaymentRepository struct {
	changes
	store  PaymentStore
	cache  *cache.Cache
	logger zerolog.Logger
}

func NewPaymentRepository(store PaymentStore, c *cache.Cache, logger zerolog.Logger) *PaymentRepository {
	return &PaymentRepository{
		changes: changes{model: "payment", cache: c, logger: logger, namespaces: []string{paymentsNamespace}},
		store:   store,
		cache:   c,
		logger:  logger,
	}
}

func (r *PaymentRepository) FindPaginatedPaymentsForUser(ctx context.Context, userID int64, page int) (Page[Payment], error) {
	r.logger.Debug().Int64("user_id", userID).Int("page", page).Msg("retrieving payments")
	key := "for." + strconv.FormatInt(userID, 10) + ".paginated." + strconv.Itoa(page)
	return remember(ctx, r.cache, paymentsNamespace, key, func(ctx context.Context) (Page[Payment], error) {
		return r.store.ListPaymentsForUser(ctx, userID, page, PerPage)
	})
}

// FindPaginatedPaymentsForProduct lists the orders placed for a product.
func (r *PaymentRepository) FindPaginatedPaymentsForProduct(ctx context.Context, productID int64, page int) (Page[Payment], error) {
	key := "product." + strconv.FormatInt(productID, 10) + ".paginated." + strconv.Itoa(page)
	return remember(ctx, r.cache, paymentsNamespace, key, func(ctx context.Context) (Page[Payment], error) {
		return r.store.ListPaymentsForProduct(ctx, productID, page, PerPage)
	})
}

func (r *PaymentRepository) FindPaymentByID(ctx context.Context, id int64) (*Payment, error) {
	return remember(ctx, r.cache, paymentsNamespace, "show."+strconv.FormatInt(id, 10), func(ctx context.Context) (*Payment, error) {
		return r.store.PaymentByID(ctx, id)
	})
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, userID int64, in NewPayment) (*Payment, error) {
	r.logger.Info().Int64("user_id", userID).Msg("creating payment")
	p, err := r.store.InsertPayment(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	if err := r.commit(ctx, EventCreated, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}
