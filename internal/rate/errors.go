package rate

import "errors"

var (
	// ErrRateLimited is returned once an identifier has used its attempt budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps counter read or write failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
