package repository

import (
	"context"
	"errors"

	"github.com/MrEthical07/guardian/internal/cache"
)

func remember[T any](ctx context.Context, c *cache.Cache, namespace, key string, fn func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fn(ctx)
	}
	return cache.Remember(ctx, c, namespace, key, fn)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
