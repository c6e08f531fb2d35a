package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/permission"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	permEdit   permission.Mask = 1 << 0
	permDelete permission.Mask = 1 << 2
)

type mapUsers map[int64]*guardian.User

func (m mapUsers) FindUserByID(_ context.Context, id int64) (*guardian.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, guardian.ErrUserNotFound
}

func (m mapUsers) FindUserByEmail(_ context.Context, email string) (*guardian.User, error) {
	for _, u := range m {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, guardian.ErrUserNotFound
}

func newTestEngine(t *testing.T, users mapUsers) *guardian.Engine {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := guardian.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.BcryptCost = 4

	engine, err := guardian.New().WithConfig(cfg).WithRedis(rdb).WithUserLookup(users).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return engine
}

func issue(t *testing.T, engine *guardian.Engine, u *guardian.User) string {
	t.Helper()
	bearer, err := engine.Issue(context.Background(), u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return bearer
}

func request(bearer string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4411"
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

func okHandler(t *testing.T, seen *guardian.Principal) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = PrincipalFromContext(r.Context())
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func fixtures() (mapUsers, *guardian.User, *guardian.User, *guardian.User) {
	editor := &guardian.User{ID: 1, Email: "editor@example.com", Roles: []guardian.Role{{ID: 1, Permissions: permEdit}}}
	plain := &guardian.User{ID: 2, Email: "plain@example.com"}
	admin := &guardian.User{ID: 3, Email: "admin@example.com", IsAdmin: true}
	return mapUsers{1: editor, 2: plain, 3: admin}, editor, plain, admin
}

func TestGuardNeverRejects(t *testing.T) {
	users, editor, _, _ := fixtures()
	engine := newTestEngine(t, users)

	var seen guardian.Principal
	h := Guard(engine)(okHandler(t, &seen))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request(""))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("anonymous status = %d", rr.Code)
	}
	if !seen.IsAnonymous() {
		t.Fatal("expected anonymous principal")
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, request("garbage"))
	if rr.Code != http.StatusNoContent || !seen.IsAnonymous() {
		t.Fatalf("garbage bearer: status=%d anonymous=%v", rr.Code, seen.IsAnonymous())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, request(issue(t, engine, editor)))
	if rr.Code != http.StatusNoContent || seen.ID() != editor.ID {
		t.Fatalf("authenticated: status=%d id=%d", rr.Code, seen.ID())
	}
}

func TestGuardAttachesRequestGuard(t *testing.T) {
	users, editor, _, _ := fixtures()
	engine := newTestEngine(t, users)
	bearer := issue(t, engine, editor)

	h := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g, ok := guardian.GuardFromContext(r.Context())
		if !ok {
			t.Fatal("guard missing from context")
		}
		if g.State() != guardian.StateUnresolved {
			t.Fatalf("guard resolved eagerly: %v", g.State())
		}
		if !g.Check() {
			t.Fatal("expected authenticated guard")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request(bearer))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	users, editor, _, _ := fixtures()
	engine := newTestEngine(t, users)
	h := Guard(engine)(RequireAuth(engine)(okHandler(t, nil)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request(""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, request(issue(t, engine, editor)))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("authenticated status = %d", rr.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	users, editor, plain, _ := fixtures()
	engine := newTestEngine(t, users)

	cases := []struct {
		name string
		user *guardian.User
		bit  permission.Mask
		want int
	}{
		{name: "anonymous", bit: permEdit, want: http.StatusUnauthorized},
		{name: "granted", user: editor, bit: permEdit, want: http.StatusNoContent},
		{name: "missing bit", user: editor, bit: permDelete, want: http.StatusForbidden},
		{name: "no roles", user: plain, bit: permEdit, want: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Guard(engine)(RequirePermission(engine, tc.bit)(okHandler(t, nil)))
			bearer := ""
			if tc.user != nil {
				bearer = issue(t, engine, tc.user)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, request(bearer))
			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	users, editor, _, admin := fixtures()
	engine := newTestEngine(t, users)
	h := Guard(engine)(AdminOnly(engine)(okHandler(t, nil)))

	for _, tc := range []struct {
		bearer string
		want   int
	}{
		{bearer: "", want: http.StatusUnauthorized},
		{bearer: issue(t, engine, editor), want: http.StatusUnauthorized},
		{bearer: issue(t, engine, admin), want: http.StatusNoContent},
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, request(tc.bearer))
		if rr.Code != tc.want {
			t.Fatalf("status = %d, want %d", rr.Code, tc.want)
		}
	}
}

func TestRequireWithoutGuardResolvesOnDemand(t *testing.T) {
	users, editor, _, _ := fixtures()
	engine := newTestEngine(t, users)

	var seen guardian.Principal
	h := RequireAuth(engine)(okHandler(t, &seen))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request(issue(t, engine, editor)))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if seen.ID() != editor.ID {
		t.Fatalf("principal id = %d", seen.ID())
	}
}

func TestWithErrorHandler(t *testing.T) {
	users, _, plain, _ := fixtures()
	engine := newTestEngine(t, users)

	var gotStatus int
	var gotErr error
	onError := func(w http.ResponseWriter, _ *http.Request, status int, err error) {
		gotStatus, gotErr = status, err
		w.WriteHeader(status)
		_, _ = w.Write([]byte("custom"))
	}
	h := Guard(engine, WithErrorHandler(onError))(RequirePermission(engine, permDelete)(okHandler(t, nil)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request(issue(t, engine, plain)))
	if rr.Code != http.StatusForbidden || rr.Body.String() != "custom" {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if gotStatus != http.StatusForbidden || !errors.Is(gotErr, guardian.ErrForbidden) {
		t.Fatalf("handler got %d %v", gotStatus, gotErr)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:9000"
	if got := clientIP(req); got != "198.51.100.7" {
		t.Fatalf("clientIP = %q", got)
	}
	req.RemoteAddr = "unix-socket"
	if got := clientIP(req); got != "unix-socket" {
		t.Fatalf("clientIP = %q", got)
	}
}
