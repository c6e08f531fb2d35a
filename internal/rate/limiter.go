package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/guardian/internal"
	"github.com/redis/go-redis/v9"
)

// KEYS: counter. ARGV: window in milliseconds.
const hitScript = `
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`

var hitLua = redis.NewScript(hitScript)

// Config holds attempt throttle parameters.
type Config struct {
	// Prefix namespaces the counter keys. Empty means "gr".
	Prefix           string
	EnableIPThrottle bool
	MaxAttempts      int
	Window           time.Duration
}

// Limiter counts failed credential attempts per email and, optionally, per
// client address.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "gr"
	}
	return &Limiter{redis: redisClient, config: cfg}
}

// keys returns the email counter followed by the address counter when IP
// throttling applies.
func (l *Limiter) keys(email, ip string) []string {
	keys := []string{l.config.Prefix + ":e:" + internal.HashIdentifier(email)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, l.config.Prefix+":i:"+internal.HashIdentifier(ip))
	}
	return keys
}

// CheckAttempt returns [ErrRateLimited] when either the email or the client
// address has used up its budget for the current window.
//
//	Performance: 1 MGET.
func (l *Limiter) CheckAttempt(ctx context.Context, email, ip string) error {
	values, err := l.redis.MGet(ctx, l.keys(email, ip)...).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	for _, v := range values {
		if count(v) >= int64(l.config.MaxAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// FailAttempt records a failed attempt. The first failure of a window starts
// its expiry; later failures never extend it.
func (l *Limiter) FailAttempt(ctx context.Context, email, ip string) error {
	window := strconv.FormatInt(l.config.Window.Milliseconds(), 10)
	for _, key := range l.keys(email, ip) {
		if err := hitLua.Run(ctx, l.redis, []string{key}, window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return nil
}

// ResetAttempt clears the counters after a successful attempt.
func (l *Limiter) ResetAttempt(ctx context.Context, email, ip string) error {
	if err := l.redis.Del(ctx, l.keys(email, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the failed attempt count recorded for email.
func (l *Limiter) Attempts(ctx context.Context, email string) (int, error) {
	v, err := l.redis.Get(ctx, l.keys(email, "")[0]).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count(v)), nil
}

// count reads an MGET or GET value; missing and unparsable counters are zero.
func count(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
