package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrEthical07/guardian/internal/cache"
	"github.com/rs/zerolog"
)

// ErrCacheInvalidation is returned by a write that reached the store but
// whose cache flush failed. Cached reads may serve the previous state until
// the flush is retried or the entries expire.
var ErrCacheInvalidation = errors.New("cache invalidation failed")

// Event is a model lifecycle event.
type Event uint8

const (
	EventCreated Event = iota + 1
	EventUpdated
	EventDeleted
	EventRestored
)

func (e Event) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	case EventRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// Observer is notified after a successful write. id is the affected row.
type Observer func(ctx context.Context, ev Event, id int64)

type observers struct {
	mu   sync.RWMutex
	list []Observer
}

func (o *observers) add(fn Observer) {
	o.mu.Lock()
	o.list = append(o.list, fn)
	o.mu.Unlock()
}

func (o *observers) fire(ctx context.Context, ev Event, id int64) {
	o.mu.RLock()
	list := o.list
	o.mu.RUnlock()
	for _, fn := range list {
		fn(ctx, ev, id)
	}
}

// changes is embedded by every repository. After a store write it flushes
// the namespaces holding the model's cached reads, then notifies observers.
type changes struct {
	model      string
	cache      *cache.Cache
	logger     zerolog.Logger
	namespaces []string
	observers  observers
}

// Observe registers fn for every event of the repository's model.
func (c *changes) Observe(fn Observer) {
	c.observers.add(fn)
}

// commit runs after the store accepted a write and flushes the model's
// namespaces plus also. Observers run even when the flush fails, since the
// write itself is durable.
func (c *changes) commit(ctx context.Context, ev Event, id int64, also ...string) error {
	var err error
	if c.cache != nil {
		namespaces := append(c.namespaces[:len(c.namespaces):len(c.namespaces)], also...)
		if ferr := c.cache.Flush(ctx, namespaces...); ferr != nil {
			c.logger.Error().Err(ferr).Str("model", c.model).Stringer("event", ev).Int64("id", id).
				Strs("namespaces", namespaces).Msg("cache flush failed")
			err = fmt.Errorf("%w: %s %d %s: %w", ErrCacheInvalidation, c.model, id, ev, ferr)
		}
	}
	c.observers.fire(ctx, ev, id)
	return err
}

// apply runs write and commits ev on success.
func (c *changes) apply(ctx context.Context, ev Event, id int64, write func() error, also ...string) error {
	if err := write(); err != nil {
		return err
	}
	return c.commit(ctx, ev, id, also...)
}
