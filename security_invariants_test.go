package guardian

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/guardian/internal"
	"github.com/MrEthical07/guardian/jwt"
)

func TestSecurityInvariantStoreNeverSeesPlainToken(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, 1, "a@example.com")

	bearer, _, err := env.engine.Attempt(context.Background(), "a@example.com", testPassword)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	claims, err := env.engine.jwtManager.Parse(bearer)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	token, _ := claims.SessionToken()

	for _, key := range env.mr.Keys() {
		if key == "gs:t:"+token {
			t.Fatal("plain token used as key")
		}
	}
	if !env.mr.Exists("gs:t:" + internal.HashSessionToken(token)) {
		t.Fatal("expected digest key")
	}
}

func TestSecurityInvariantTokenBoundToUser(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, 1, "a@example.com")
	env.addUser(t, 2, "b@example.com")
	ctx := context.Background()

	token, err := env.engine.tokens.Create(ctx, 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	swapped, err := env.engine.jwtManager.Sign(2, token)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if !env.engine.Resolve(bearerRequest(swapped)).IsAnonymous() {
		t.Fatal("a token of user 1 must not authenticate user 2")
	}
}

func TestSecurityInvariantAlgorithmFixedByConfig(t *testing.T) {
	env := newTestEnv(t, nil)
	env.addUser(t, 1, "a@example.com")

	other, err := jwt.NewManager(jwt.Config{
		Algorithm: jwt.HS512,
		Secret:    env.engine.config.JWT.Secret,
		Issuer:    env.engine.config.JWT.Issuer,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	token, err := env.engine.tokens.Create(context.Background(), 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bearer, err := other.Sign(1, token)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if !env.engine.Resolve(bearerRequest(bearer)).IsAnonymous() {
		t.Fatal("a bearer signed with another algorithm must not authenticate")
	}
}

func TestSecurityInvariantExpiredSessionRejected(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Session.TTL = time.Minute
	})
	env.addUser(t, 1, "a@example.com")

	bearer, _, err := env.engine.Attempt(context.Background(), "a@example.com", testPassword)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	env.mr.FastForward(2 * time.Minute)

	if !env.engine.Resolve(bearerRequest(bearer)).IsAnonymous() {
		t.Fatal("expired session must resolve anonymous")
	}
}
