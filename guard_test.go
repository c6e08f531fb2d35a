package guardian

import (
	"context"
	"errors"
	"testing"
)

func TestGuardMemoizesResolution(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.addUser(t, 1, "a@example.com")
	bearer, err := env.engine.Issue(context.Background(), u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	g := env.engine.Guard(bearerRequest(bearer))
	if g.State() != StateUnresolved {
		t.Fatalf("expected unresolved, got %s", g.State())
	}
	if g.HasUser() {
		t.Fatal("HasUser must not trigger resolution")
	}
	if env.users.calls() != 0 {
		t.Fatal("guard resolved eagerly")
	}

	if !g.Check() || g.Guest() || g.ID() != 1 || g.User() != u {
		t.Fatal("expected authenticated guard")
	}
	if g.State() != StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", g.State())
	}
	if calls := env.users.calls(); calls != 1 {
		t.Fatalf("expected exactly one lookup, got %d", calls)
	}
	if !g.HasUser() {
		t.Fatal("expected HasUser after resolution")
	}
}

func TestGuardAnonymous(t *testing.T) {
	env := newTestEnv(t, nil)

	g := env.engine.Guard(bearerRequest("garbage"))
	if g.Check() || !g.Guest() || g.ID() != -1 || g.User() != nil {
		t.Fatal("expected anonymous guard")
	}
	if g.State() != StateAnonymous {
		t.Fatalf("expected anonymous state, got %s", g.State())
	}
	if !errors.Is(g.Err(), ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", g.Err())
	}
	if !g.Principal().IsAnonymous() {
		t.Fatal("expected anonymous principal")
	}
}

func TestGuardSetUserEnforcesPositiveID(t *testing.T) {
	env := newTestEnv(t, nil)
	g := env.engine.Guard(bearerRequest(""))

	if err := g.SetUser(nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for nil user, got %v", err)
	}
	if err := g.Login(&User{ID: 0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for id 0, got %v", err)
	}
	if err := g.Login(&User{ID: 9}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if g.ID() != 9 || g.State() != StateAuthenticated {
		t.Fatal("expected guard authenticated as 9")
	}
	if env.users.calls() != 0 {
		t.Fatal("Login must not consult the lookup")
	}
}

func TestGuardLoginUsingID(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.addUser(t, 4, "d@example.com")
	g := env.engine.Guard(nil)

	if _, err := g.LoginUsingID(context.Background(), 40); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	got, err := g.LoginUsingID(context.Background(), 4)
	if err != nil || got != u || g.User() != u {
		t.Fatalf("LoginUsingID = %v, %v", got, err)
	}
}

func TestGuardValidate(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.addUser(t, 2, "b@example.com")
	token, err := env.engine.tokens.Create(context.Background(), 2)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	g := env.engine.Guard(nil)
	if g.Validate(context.Background(), Credentials{ID: 2, Token: "wrong"}) {
		t.Fatal("expected mismatch to fail")
	}
	if g.Validate(context.Background(), Credentials{ID: 0, Token: token}) {
		t.Fatal("expected zero id to fail")
	}
	if g.HasUser() {
		t.Fatal("failed validation must not set a user")
	}
	if !g.Validate(context.Background(), Credentials{ID: 2, Token: token}) {
		t.Fatal("expected valid credentials")
	}
	if g.User() != u {
		t.Fatal("expected guard to hold the validated user")
	}
}

func TestGuardAttempt(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.addUser(t, 3, "c@example.com")
	g := env.engine.Guard(bearerRequest(""))

	if _, ok, err := g.Attempt(context.Background(), "c@example.com", "bad"); ok || err != nil {
		t.Fatalf("expected plain failure, got ok=%v err=%v", ok, err)
	}
	if g.HasUser() {
		t.Fatal("failed attempt must not set a user")
	}

	bearer, ok, err := g.Attempt(context.Background(), "c@example.com", testPassword)
	if !ok || err != nil || bearer == "" {
		t.Fatalf("attempt: ok=%v err=%v", ok, err)
	}
	if g.User() != u {
		t.Fatal("expected guard authenticated after attempt")
	}
	if p := env.engine.Resolve(bearerRequest(bearer)); p.User() != u {
		t.Fatal("bearer from attempt should resolve to the same user")
	}
}

func TestGuardUnsupportedOperations(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.addUser(t, 1, "a@example.com")
	ctx := context.Background()

	anonymous := env.engine.Guard(bearerRequest(""))
	anonymous.User()
	unresolved := env.engine.Guard(bearerRequest(""))
	authenticated := env.engine.Guard(bearerRequest(""))
	_ = authenticated.Login(u)

	for _, g := range []*RequestGuard{unresolved, anonymous, authenticated} {
		if _, err := g.Once(ctx, "a@example.com", testPassword); !errors.Is(err, ErrNotImplemented) {
			t.Fatalf("Once: %v", err)
		}
		if _, err := g.OnceUsingID(ctx, 1); !errors.Is(err, ErrNotImplemented) {
			t.Fatalf("OnceUsingID: %v", err)
		}
		if _, err := g.ViaRemember(); !errors.Is(err, ErrNotImplemented) {
			t.Fatalf("ViaRemember: %v", err)
		}
		if err := g.Logout(ctx); !errors.Is(err, ErrNotImplemented) {
			t.Fatalf("Logout: %v", err)
		}
	}
}

func TestGuardContextRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	g := env.engine.Guard(nil)

	ctx := WithGuard(context.Background(), g)
	got, ok := GuardFromContext(ctx)
	if !ok || got != g {
		t.Fatal("expected guard from context")
	}
	if _, ok := GuardFromContext(context.Background()); ok {
		t.Fatal("expected no guard in empty context")
	}
}
