package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/guardian/internal"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T, opts Options) (*Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewStore(rdb, opts), mr, rdb
}

func TestCreateThenExists(t *testing.T) {
	store, _, rdb := newSessionStoreTest(t, Options{Prefix: "gs", TTL: time.Hour})
	ctx := context.Background()

	token, err := store.Create(ctx, 7)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := store.Exists(ctx, 7, token)
	if err != nil || !ok {
		t.Fatalf("Exists = %v,%v want true", ok, err)
	}

	ok, err = store.Exists(ctx, 8, token)
	if err != nil || ok {
		t.Fatalf("token must not validate for another user, got %v,%v", ok, err)
	}

	// The plaintext token must not appear in any key.
	keys, err := rdb.Keys(ctx, "*").Result()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	for _, k := range keys {
		if k == "gs:t:"+token {
			t.Fatalf("plaintext token stored as key %q", k)
		}
	}
	if _, err := rdb.Get(ctx, store.tokenKey(internal.HashSessionToken(token))).Result(); err != nil {
		t.Fatalf("expected hashed key present: %v", err)
	}
}

func TestExistsUnknownAndMalformedTokens(t *testing.T) {
	store, _, _ := newSessionStoreTest(t, Options{TTL: time.Hour})
	ctx := context.Background()

	other, err := internal.NewSessionToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	for _, tok := range []string{"", "short", other} {
		ok, err := store.Exists(ctx, 1, tok)
		if err != nil || ok {
			t.Fatalf("Exists(%q) = %v,%v want false,nil", tok, ok, err)
		}
	}
}

func TestCreateKeepsEarlierSessions(t *testing.T) {
	store, _, _ := newSessionStoreTest(t, Options{TTL: time.Hour})
	ctx := context.Background()

	first, err := store.Create(ctx, 3)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := store.Create(ctx, 3)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first == second {
		t.Fatal("tokens must be unique")
	}

	for _, tok := range []string{first, second} {
		if ok, err := store.Exists(ctx, 3, tok); err != nil || !ok {
			t.Fatalf("expected both sessions valid, got %v,%v", ok, err)
		}
	}
	if n, err := store.Count(ctx, 3); err != nil || n != 2 {
		t.Fatalf("Count = %d,%v want 2", n, err)
	}
}

func TestDeleteIdempotentAndOwnerScoped(t *testing.T) {
	store, _, rdb := newSessionStoreTest(t, Options{TTL: time.Hour})
	ctx := context.Background()

	token, err := store.Create(ctx, 5)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.Delete(ctx, 6, token); err != nil {
		t.Fatalf("foreign delete: %v", err)
	}
	if ok, _ := store.Exists(ctx, 5, token); !ok {
		t.Fatal("delete by another user must not remove the token")
	}

	if err := store.Delete(ctx, 5, token); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, 5, token); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if ok, _ := store.Exists(ctx, 5, token); ok {
		t.Fatal("token still valid after delete")
	}

	members, err := rdb.SMembers(ctx, store.userKey(5)).Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected empty user index, got %v", members)
	}
}

func TestDeleteAllForUser(t *testing.T) {
	store, _, _ := newSessionStoreTest(t, Options{TTL: time.Hour})
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 3; i++ {
		tok, err := store.Create(ctx, 11)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		tokens = append(tokens, tok)
	}
	keep, err := store.Create(ctx, 12)
	if err != nil {
		t.Fatalf("create other: %v", err)
	}

	if err := store.DeleteAllForUser(ctx, 11); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	for _, tok := range tokens {
		if ok, _ := store.Exists(ctx, 11, tok); ok {
			t.Fatal("token survived DeleteAllForUser")
		}
	}
	if ok, _ := store.Exists(ctx, 12, keep); !ok {
		t.Fatal("other user's token must survive")
	}
	if err := store.DeleteAllForUser(ctx, 99); err != nil {
		t.Fatalf("delete all on empty user: %v", err)
	}
}

func TestTTLExpiryAndCountPrunes(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t, Options{TTL: time.Minute})
	ctx := context.Background()

	token, err := store.Create(ctx, 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if ok, _ := store.Exists(ctx, 2, token); ok {
		t.Fatal("expired token still valid")
	}
	if n, err := store.Count(ctx, 2); err != nil || n != 0 {
		t.Fatalf("Count = %d,%v want 0", n, err)
	}
}

func TestSlidingTTLBoundedByAbsoluteLifetime(t *testing.T) {
	store, mr, rdb := newSessionStoreTest(t, Options{
		TTL:              10 * time.Minute,
		Sliding:          true,
		AbsoluteLifetime: time.Hour,
	})
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }

	token, err := store.Create(ctx, 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	key := store.tokenKey(internal.HashSessionToken(token))

	mr.FastForward(5 * time.Minute)
	store.now = func() time.Time { return base.Add(5 * time.Minute) }
	if ok, err := store.Exists(ctx, 4, token); err != nil || !ok {
		t.Fatalf("Exists = %v,%v", ok, err)
	}
	if ttl := rdb.TTL(ctx, key).Val(); ttl < 9*time.Minute {
		t.Fatalf("expected TTL refreshed to ~10m, got %v", ttl)
	}

	store.now = func() time.Time { return base.Add(55 * time.Minute) }
	if ok, err := store.Exists(ctx, 4, token); err != nil || !ok {
		t.Fatalf("Exists near cap = %v,%v", ok, err)
	}
	if ttl := rdb.TTL(ctx, key).Val(); ttl > 5*time.Minute {
		t.Fatalf("sliding TTL must not pass the absolute lifetime, got %v", ttl)
	}

	store.now = func() time.Time { return base.Add(61 * time.Minute) }
	if ok, _ := store.Exists(ctx, 4, token); ok {
		t.Fatal("token valid past absolute lifetime")
	}
}

func TestRedisFailureWrapped(t *testing.T) {
	store, mr, _ := newSessionStoreTest(t, Options{TTL: time.Hour})
	mr.Close()

	_, err := store.Create(context.Background(), 1)
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
