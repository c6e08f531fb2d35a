package repository

import (
	"context"
	"strconv"

	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/rs/zerolog"
)

const punishmentsNamespace = "punishments"

type PunishmentRepository struct {
	changes
	store PunishmentStore
	cache *cache.Cache
}

func NewPunishmentRepository(store PunishmentStore, c *cache.Cache, logger zerolog.Logger) *PunishmentRepository {
	return &PunishmentRepository{
		changes: changes{model: "punishment", cache: c, logger: logger, namespaces: []string{punishmentsNamespace}},
		store:   store,
		cache:   c,
	}
}

func (r *PunishmentRepository) FindPaginatedPunishments(ctx context.Context, page int) (Page[Punishment], error) {
	return remember(ctx, r.cache, punishmentsNamespace, "paginated."+strconv.Itoa(page), func(ctx context.Context) (Page[Punishment], error) {
		return r.store.ListPunishments(ctx, page, PerPage)
	})
}

func (r *PunishmentRepository) FindPunishmentByID(ctx context.Context, id int64) (*Punishment, error) {
	return remember(ctx, r.cache, punishmentsNamespace, "show."+strconv.FormatInt(id, 10), func(ctx context.Context) (*Punishment, error) {
		return r.store.PunishmentByID(ctx, id)
	})
}

func (r *PunishmentRepository) CreatePunishment(ctx context.Context, in PunishmentInput) (*Punishment, error) {
	p, err := r.store.InsertPunishment(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := r.commit(ctx, EventCreated, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PunishmentRepository) UpdatePunishment(ctx context.Context, id int64, in PunishmentUpdate) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.UpdatePunishment(ctx, id, in) })
}

func (r *PunishmentRepository) DeletePunishment(ctx context.Context, id int64) error {
	return r.apply(ctx, EventDeleted, id, func() error { return r.store.DeletePunishment(ctx, id) })
}
