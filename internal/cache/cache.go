// Package cache is a Redis-backed read-through cache with namespace-wide
// invalidation. Every namespace carries a generation counter embedded in its
// keys; flushing a namespace bumps the counter, so stale entries are never
// read again and expire on their own TTL.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the lifetime of a remembered value.
const DefaultTTL = time.Hour

// Cache remembers JSON-encoded values in Redis.
type Cache struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
	group  singleflight.Group
}

// Option configures a [Cache].
type Option func(*Cache)

// WithTTL overrides [DefaultTTL].
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache misses and backend errors.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// New creates a cache whose keys all start with prefix.
func New(rdb redis.UniversalClient, prefix string, opts ...Option) *Cache {
	if prefix == "" {
		prefix = "gc"
	}
	c := &Cache{redis: rdb, prefix: prefix, ttl: DefaultTTL, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the logical key "<namespace>.<key>".
func Key(namespace, key string) string {
	return namespace + "." + key
}

func (c *Cache) generationKey(namespace string) string {
	return c.prefix + ":gen:" + namespace
}

func (c *Cache) generation(ctx context.Context, namespace string) (int64, error) {
	gen, err := c.redis.Get(ctx, c.generationKey(namespace)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *Cache) storageKey(namespace string, gen int64, key string) string {
	return c.prefix + ":v" + strconv.FormatInt(gen, 10) + ":" + Key(namespace, key)
}

// Remember returns the cached value for namespace/key, or calls fn, caches
// its result and returns it. Concurrent misses for the same key share a
// single fn call. Redis failures degrade to calling fn directly; errors from
// fn are returned and never cached.
func Remember[T any](ctx context.Context, c *Cache, namespace, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	gen, err := c.generation(ctx, namespace)
	if err != nil {
		c.logger.Warn().Err(err).Str("namespace", namespace).Msg("cache generation read failed")
		return fn(ctx)
	}
	full := c.storageKey(namespace, gen, key)

	if data, err := c.redis.Get(ctx, full).Bytes(); err == nil {
		var out T
		if err := json.Unmarshal(data, &out); err == nil {
			return out, nil
		}
		c.logger.Warn().Str("key", full).Msg("cache entry undecodable, refreshing")
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Str("key", full).Msg("cache read failed")
		return fn(ctx)
	}

	v, err, _ := c.group.Do(full, func() (interface{}, error) {
		c.logger.Debug().Str("key", Key(namespace, key)).Msg("caching")
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("cache: encode %s: %w", full, err)
		}
		if err := c.redis.Set(ctx, full, data, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", full).Msg("cache write failed")
		}
		return val, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Forget removes a single entry of the current generation.
func (c *Cache) Forget(ctx context.Context, namespace, key string) error {
	gen, err := c.generation(ctx, namespace)
	if err != nil {
		return fmt.Errorf("cache: forget: %w", err)
	}
	if err := c.redis.Del(ctx, c.storageKey(namespace, gen, key)).Err(); err != nil {
		return fmt.Errorf("cache: forget: %w", err)
	}
	return nil
}

// Flush invalidates every entry of the given namespaces in O(1) each.
func (c *Cache) Flush(ctx context.Context, namespaces ...string) error {
	if len(namespaces) == 0 {
		return nil
	}
	_, err := c.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, ns := range namespaces {
			pipe.Incr(ctx, c.generationKey(ns))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache: flush: %w", err)
	}
	c.logger.Debug().Strs("namespaces", namespaces).Msg("cache flushed")
	return nil
}
