package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/MrEthical07/guardian/internal"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis transport or command failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

const minSlidingTTL = time.Second

const (
	deleteStatusMissing  int64 = 0
	deleteStatusDeleted  int64 = 1
	deleteStatusNotOwner int64 = 2
)

// KEYS: token key, user index. ARGV: token digest, owner id (8 bytes BE).
// Bytes 2..9 of the record hold the owner id.
const deleteTokenScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  redis.call("SREM", KEYS[2], ARGV[1])
  return 0
end
if string.sub(data, 2, 9) ~= ARGV[2] then
  return 2
end
redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return 1
`

var deleteTokenLua = redis.NewScript(deleteTokenScript)

// Options configures a [Store].
type Options struct {
	// Prefix namespaces every key written by the store.
	Prefix string
	// TTL is the lifetime of a token. With Sliding it is the idle timeout.
	// Zero stores tokens without expiry.
	TTL time.Duration
	// Sliding refreshes the TTL on every successful Exists.
	Sliding bool
	// AbsoluteLifetime caps a sliding session measured from creation.
	AbsoluteLifetime time.Duration
	// JitterRange spreads sliding renewals by up to ±JitterRange.
	JitterRange time.Duration
}

// Store is a Redis-backed token store. Tokens are opaque strings bound to one
// user id; a user may hold any number of them at once.
type Store struct {
	redis redis.UniversalClient
	opts  Options
	now   func() time.Time
}

// NewStore creates a [Store] on the given Redis client.
func NewStore(rdb redis.UniversalClient, opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = "gs"
	}
	return &Store{redis: rdb, opts: opts, now: time.Now}
}

func (s *Store) tokenKey(digest string) string {
	return s.opts.Prefix + ":t:" + digest
}

func (s *Store) userKey(userID int64) string {
	return s.opts.Prefix + ":u:" + strconv.FormatInt(userID, 10)
}

// Create mints a new opaque token for userID and persists it. Earlier tokens
// for the same user stay valid.
//
//	Performance: 1 MULTI/EXEC (SET + SADD).
func (s *Store) Create(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", errors.New("session: user id must be positive")
	}

	token, err := internal.NewSessionToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	rec := &Record{UserID: userID, CreatedAt: now.Unix()}
	if lifetime := s.recordLifetime(); lifetime > 0 {
		rec.ExpiresAt = now.Add(lifetime).Unix()
	}
	data, err := Encode(rec)
	if err != nil {
		return "", err
	}

	digest := internal.HashSessionToken(token)
	tokenKey := s.tokenKey(digest)
	userKey := s.userKey(userID)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKey, data, s.opts.TTL)
		pipe.SAdd(ctx, userKey, digest)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return token, nil
}

// Exists reports whether token is persisted and bound to userID. Expired
// records are removed on sight. With sliding expiration enabled a hit
// extends the TTL, never past the absolute lifetime.
//
//	Performance: 1 Redis GET, plus 1 EXPIRE when sliding.
func (s *Store) Exists(ctx context.Context, userID int64, token string) (bool, error) {
	if userID <= 0 || !internal.ValidSessionToken(token) {
		return false, nil
	}

	digest := internal.HashSessionToken(token)
	key := s.tokenKey(digest)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return false, err
	}
	if rec.UserID != userID {
		return false, nil
	}

	now := s.now()
	if rec.Expired(now.Unix()) {
		if err := s.delete(ctx, rec.UserID, digest); err != nil {
			return false, err
		}
		return false, nil
	}

	if s.opts.Sliding && s.opts.TTL > 0 {
		nextTTL, err := s.nextSlidingTTL(rec, now)
		if err != nil {
			return false, err
		}
		if err := s.redis.Expire(ctx, key, nextTTL).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return true, nil
}

// Delete removes token if it belongs to userID. It is idempotent and never
// removes a token owned by another user.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) Delete(ctx context.Context, userID int64, token string) error {
	if userID <= 0 || token == "" {
		return nil
	}
	return s.delete(ctx, userID, internal.HashSessionToken(token))
}

func (s *Store) delete(ctx context.Context, userID int64, digest string) error {
	status, err := deleteTokenLua.Run(
		ctx,
		s.redis,
		[]string{s.tokenKey(digest), s.userKey(userID)},
		digest,
		encodeUserID(userID),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch status {
	case deleteStatusMissing, deleteStatusDeleted, deleteStatusNotOwner:
		return nil
	default:
		return fmt.Errorf("%w: unknown delete script status %d", ErrRedisUnavailable, status)
	}
}

// DeleteAllForUser removes every indexed token of userID.
//
// A token created between the SMEMBERS read and the DEL is not captured; it
// survives until its own expiry or the next call.
func (s *Store) DeleteAllForUser(ctx context.Context, userID int64) error {
	userKey := s.userKey(userID)

	digests, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	keys := make([]string, 0, len(digests))
	for _, digest := range digests {
		keys = append(keys, s.tokenKey(digest))
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Count returns the number of live tokens for userID and prunes index entries
// whose record has already expired.
func (s *Store) Count(ctx context.Context, userID int64) (int, error) {
	userKey := s.userKey(userID)

	digests, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(digests) == 0 {
		return 0, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.IntCmd, len(digests))
	for i, digest := range digests {
		cmds[i] = pipe.Exists(ctx, s.tokenKey(digest))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	live := 0
	stale := make([]interface{}, 0)
	for i, cmd := range cmds {
		n, cmdErr := cmd.Result()
		if cmdErr != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}
		if n == 1 {
			live++
			continue
		}
		stale = append(stale, digests[i])
	}

	if len(stale) > 0 {
		if err := s.redis.SRem(ctx, userKey, stale...).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return live, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// recordLifetime is the hard expiry written into the record: the absolute
// lifetime for sliding sessions, the TTL otherwise.
func (s *Store) recordLifetime() time.Duration {
	if s.opts.Sliding && s.opts.AbsoluteLifetime > 0 {
		return s.opts.AbsoluteLifetime
	}
	return s.opts.TTL
}

func (s *Store) nextSlidingTTL(rec *Record, now time.Time) (time.Duration, error) {
	nextTTL := s.opts.TTL

	if s.opts.JitterRange > 0 {
		jitter, err := randomJitter(s.opts.JitterRange)
		if err != nil {
			return 0, err
		}
		nextTTL += jitter
	}

	if rec.ExpiresAt != 0 {
		remaining := time.Unix(rec.ExpiresAt, 0).Sub(now)
		if nextTTL > remaining {
			nextTTL = remaining
		}
	}
	if nextTTL < minSlidingTTL {
		nextTTL = minSlidingTTL
	}

	return nextTTL, nil
}

func randomJitter(jitterRange time.Duration) (time.Duration, error) {
	if jitterRange <= 0 {
		return 0, nil
	}

	max := jitterRange.Nanoseconds()
	if max > (math.MaxInt64-1)/2 {
		return 0, errors.New("jitter range too large")
	}
	span := max*2 + 1

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return 0, err
	}

	return time.Duration(n.Int64() - max), nil
}
