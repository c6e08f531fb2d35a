package permission

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	// StorePunishment allows creating punishments.
	StorePunishment Mask = 1 << iota
	// UpdatePunishment allows editing punishments.
	UpdatePunishment
	// DeletePunishment allows removing punishments.
	DeletePunishment
)

var (
	ErrRegistryFrozen = errors.New("registry frozen")
	ErrEmptyName      = errors.New("permission name cannot be empty")
	ErrDuplicateName  = errors.New("permission already registered")
	ErrBitInUse       = errors.New("permission bit already assigned")
	ErrNotSingleBit   = errors.New("permission value must be a single bit")
	ErrUnknownName    = errors.New("permission not registered")
	ErrLimitExceeded  = errors.New("permission limit exceeded")
)

// Registry maps permission names to single-bit masks.
type Registry struct {
	mu         sync.RWMutex
	nameToMask map[string]Mask
	maskToName map[Mask]string
	used       Mask
	frozen     bool
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		nameToMask: make(map[string]Mask),
		maskToName: make(map[Mask]string),
	}
}

// DefaultRegistry returns a frozen registry holding the built-in punishment
// capabilities.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Define("store_punishment", StorePunishment)
	_ = r.Define("update_punishment", UpdatePunishment)
	_ = r.Define("delete_punishment", DeletePunishment)
	r.Freeze()
	return r
}

// Define binds name to an explicit single-bit value. Values are fixed by the
// stored role rows, so they must never be renumbered.
func (r *Registry) Define(name string, bit Mask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if name == "" {
		return ErrEmptyName
	}
	if !IsSingleBit(bit) {
		return ErrNotSingleBit
	}
	if _, exists := r.nameToMask[name]; exists {
		return ErrDuplicateName
	}
	if r.used.Has(bit) {
		return ErrBitInUse
	}

	r.nameToMask[name] = bit
	r.maskToName[bit] = name
	r.used |= bit
	return nil
}

// Register assigns the lowest free bit to name and returns it.
func (r *Registry) Register(name string) (Mask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return 0, ErrRegistryFrozen
	}
	if name == "" {
		return 0, ErrEmptyName
	}
	if _, exists := r.nameToMask[name]; exists {
		return 0, ErrDuplicateName
	}

	for i := 0; i < MaxBits; i++ {
		bit := Mask(1) << i
		if r.used.Has(bit) {
			continue
		}
		r.nameToMask[name] = bit
		r.maskToName[bit] = name
		r.used |= bit
		return bit, nil
	}

	return 0, ErrLimitExceeded
}

// Bit returns the mask for name, or false if not registered.
func (r *Registry) Bit(name string) (Mask, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bit, ok := r.nameToMask[name]
	return bit, ok
}

// Name returns the name registered for a single bit.
func (r *Registry) Name(bit Mask) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.maskToName[bit]
	return name, ok
}

// Mask composes the named permissions into one mask.
func (r *Registry) Mask(names ...string) (Mask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out Mask
	for _, name := range names {
		bit, ok := r.nameToMask[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownName, name)
		}
		out |= bit
	}
	return out, nil
}

// Names renders the registered bits of m as sorted names. Unregistered bits
// are skipped.
func (r *Registry) Names(m Mask) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.nameToMask))
	for _, bit := range m.Bits() {
		if name, ok := r.maskToName[bit]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered permissions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nameToMask)
}
