package repository

import (
	"context"
	"strconv"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/rs/zerolog"
)

const rolesNamespace = "roles"

// RoleRepository serves roles through the cache. Role writes also flush
// users, whose cached records embed their roles.
type RoleRepository struct {
	changes
	store  RoleStore
	cache  *cache.Cache
	logger zerolog.Logger
}

func NewRoleRepository(store RoleStore, c *cache.Cache, logger zerolog.Logger) *RoleRepository {
	return &RoleRepository{
		changes: changes{model: "role", cache: c, logger: logger, namespaces: []string{rolesNamespace, usersNamespace}},
		store:   store,
		cache:   c,
		logger:  logger,
	}
}

func (r *RoleRepository) FindAllRoles(ctx context.Context) ([]guardian.Role, error) {
	return remember(ctx, r.cache, rolesNamespace, "all", r.store.ListRoles)
}

func (r *RoleRepository) FindRoleByID(ctx context.Context, id int64) (*guardian.Role, error) {
	return remember(ctx, r.cache, rolesNamespace, "show."+strconv.FormatInt(id, 10), func(ctx context.Context) (*guardian.Role, error) {
		return r.store.RoleByID(ctx, id)
	})
}

// FindAllRolesThatAreStaff returns every staff role with its users.
func (r *RoleRepository) FindAllRolesThatAreStaff(ctx context.Context) ([]StaffRole, error) {
	return remember(ctx, r.cache, rolesNamespace, "staff", r.store.StaffRoles)
}

func (r *RoleRepository) CreateRole(ctx context.Context, in RoleInput) (*guardian.Role, error) {
	r.logger.Info().Str("title", in.Title).Msg("creating role")
	role, err := r.store.InsertRole(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := r.commit(ctx, EventCreated, role.ID); err != nil {
		return nil, err
	}
	return role, nil
}

func (r *RoleRepository) UpdateRole(ctx context.Context, id int64, in RoleUpdate) error {
	return r.apply(ctx, EventUpdated, id, func() error { return r.store.UpdateRole(ctx, id, in) })
}

func (r *RoleRepository) DeleteRole(ctx context.Context, id int64) error {
	return r.apply(ctx, EventDeleted, id, func() error { return r.store.DeleteRole(ctx, id) })
}
