package permission

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrCatalogFrozen = errors.New("role catalog frozen")
	ErrEmptyRoleName = errors.New("role name empty")
	ErrDuplicateRole = errors.New("role already registered")
)

// RoleCatalog holds named role templates whose masks are composed from a
// [Registry]. It seeds role rows; it is never consulted at request time,
// where the stored role masks are authoritative.
type RoleCatalog struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[string]Mask
	frozen bool
}

// NewRoleCatalog creates an empty catalog backed by registry.
func NewRoleCatalog(registry *Registry) *RoleCatalog {
	return &RoleCatalog{
		registry: registry,
		roles:    make(map[string]Mask),
	}
}

// DefaultRoleCatalog returns the frozen built-in templates over
// [DefaultRegistry].
func DefaultRoleCatalog() *RoleCatalog {
	c := NewRoleCatalog(DefaultRegistry())
	_, _ = c.RegisterRole("Member")
	_, _ = c.RegisterRole("Moderator", "store_punishment", "update_punishment")
	_, _ = c.RegisterRole("Senior Moderator", "store_punishment", "update_punishment", "delete_punishment")
	c.Freeze()
	return c
}

// RegisterRole composes the named permissions into a mask and stores it
// under roleName.
func (c *RoleCatalog) RegisterRole(roleName string, permissionNames ...string) (Mask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return 0, ErrCatalogFrozen
	}
	if roleName == "" {
		return 0, ErrEmptyRoleName
	}
	if _, exists := c.roles[roleName]; exists {
		return 0, ErrDuplicateRole
	}

	mask, err := c.registry.Mask(permissionNames...)
	if err != nil {
		return 0, err
	}
	c.roles[roleName] = mask
	return mask, nil
}

// Mask returns the template mask for roleName.
func (c *RoleCatalog) Mask(roleName string) (Mask, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.roles[roleName]
	return m, ok
}

// Roles returns the registered role names, sorted.
func (c *RoleCatalog) Roles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.roles))
	for name := range c.roles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (c *RoleCatalog) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

func (c *RoleCatalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.roles)
}
