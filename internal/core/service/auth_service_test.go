package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/imene253/AI-TECH-DZ2/internal/core/domain"
	"github.com/imene253/AI-TECH-DZ2/internal/core/ports"
)

const (
	routeLogin    = "POST /api/Authentification/login"
	routeRegister = "POST /api/Authentification/register"
)

func newAuthSvc(api *stubAPI, storage *stubStorage, sessions *stubSessions) *AuthService {
	return NewAuthService(api, storage, sessions, zerolog.Nop())
}

func TestAuthService_Login_Success(t *testing.T) {
	api := newStubAPI()
	api.respond(routeLogin, map[string]any{"token": "T1"})
	storage := newStubStorage()
	sessions := &stubSessions{onResolve: func() domain.Session {
		return domain.Session{UserID: 42, Role: domain.RoleLearner}
	}}
	svc := newAuthSvc(api, storage, sessions)

	sess, err := svc.Login(context.Background(), "alice@example.com", "pass123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if sess.UserID != 42 {
		t.Fatalf("unexpected session %+v", sess)
	}
	if storage.data[domain.TokenKey] != "T1" {
		t.Fatalf("expected token stored, got %q", storage.data[domain.TokenKey])
	}
	if sessions.resolves != 1 {
		t.Fatalf("expected one resolve, got %d", sessions.resolves)
	}
}

func TestAuthService_Login_FallsBackToPascalCase(t *testing.T) {
	api := newStubAPI()
	api.on(routeLogin, func(_ context.Context, body any) (any, error) {
		if _, ok := body.(map[string]string)["Email"]; ok {
			return map[string]any{"accessToken": "T9"}, nil
		}
		return nil, errServer
	})
	storage := newStubStorage()
	sessions := &stubSessions{onResolve: func() domain.Session { return domain.Session{UserID: 1} }}
	svc := newAuthSvc(api, storage, sessions)

	if _, err := svc.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if n := api.count(routeLogin); n != 2 {
		t.Fatalf("expected two attempts, got %d", n)
	}
	if storage.data[domain.TokenKey] != "T9" {
		t.Fatalf("expected accessToken stored, got %q", storage.data[domain.TokenKey])
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	t.Run("empty credentials", func(t *testing.T) {
		svc := newAuthSvc(newStubAPI(), newStubStorage(), &stubSessions{})
		if _, err := svc.Login(context.Background(), " ", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		api := newStubAPI()
		api.fail(routeLogin, domain.ErrAuthExpired)
		storage := newStubStorage()
		svc := newAuthSvc(api, storage, &stubSessions{})
		if _, err := svc.Login(context.Background(), "a", "b"); !errors.Is(err, domain.ErrAuthExpired) {
			t.Fatalf("expected last attempt error, got %v", err)
		}
		if storage.has(domain.TokenKey) {
			t.Fatal("no token may be stored")
		}
	})

	t.Run("no token", func(t *testing.T) {
		api := newStubAPI()
		api.respond(routeLogin, map[string]any{"message": "ok"})
		svc := newAuthSvc(api, newStubStorage(), &stubSessions{})
		if _, err := svc.Login(context.Background(), "a", "b"); !errors.Is(err, domain.ErrNoToken) {
			t.Fatalf("expected ErrNoToken, got %v", err)
		}
	})

	t.Run("resolve fails", func(t *testing.T) {
		api := newStubAPI()
		api.respond(routeLogin, "T1")
		sessions := &stubSessions{resolveErr: domain.ErrMalformedIdentity}
		svc := newAuthSvc(api, newStubStorage(), sessions)
		if _, err := svc.Login(context.Background(), "a", "b"); !errors.Is(err, domain.ErrMalformedIdentity) {
			t.Fatalf("expected resolve error, got %v", err)
		}
	})
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"token":"a"}`, "a"},
		{`{"accessToken":"b"}`, "b"},
		{`{"token":"a","accessToken":"b"}`, "a"},
		{`"c"`, "c"},
		{`eyJhbGciOiJIUzI1NiJ9.e30.sig`, "eyJhbGciOiJIUzI1NiJ9.e30.sig"},
		{`{}`, ""},
		{`123`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		if got := extractToken(tt.raw); got != tt.want {
			t.Errorf("extractToken(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestAuthService_Register_DefaultsToLearner(t *testing.T) {
	api := newStubAPI()
	api.respond(routeRegister, nil)
	svc := newAuthSvc(api, newStubStorage(), &stubSessions{})

	err := svc.Register(context.Background(), ports.RegisterInput{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	calls := api.callsTo(routeRegister)
	if len(calls) != 1 {
		t.Fatalf("expected one attempt, got %d", len(calls))
	}
	body := calls[0].Body.(map[string]any)
	if body["role"] != int(domain.RoleLearner) {
		t.Fatalf("expected learner role, got %v", body["role"])
	}
}

func TestAuthService_Register_ExplicitRoleAndFallback(t *testing.T) {
	api := newStubAPI()
	api.on(routeRegister, func(_ context.Context, body any) (any, error) {
		if _, ok := body.(map[string]any)["Role"]; ok {
			return nil, nil
		}
		return nil, errServer
	})
	svc := newAuthSvc(api, newStubStorage(), &stubSessions{})

	admin := domain.RoleAdmin
	err := svc.Register(context.Background(), ports.RegisterInput{Email: "a@b.c", Password: "pw", Role: &admin})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	calls := api.callsTo(routeRegister)
	if len(calls) != 2 || calls[1].Body.(map[string]any)["Role"] != int(domain.RoleAdmin) {
		t.Fatalf("unexpected attempts %+v", calls)
	}
}

func TestAuthService_Logout(t *testing.T) {
	api := newStubAPI()
	sessions := &stubSessions{session: domain.Session{UserID: 1}, resolved: true}
	svc := newAuthSvc(api, newStubStorage(), sessions)

	svc.Logout(context.Background())
	if sessions.invalidated != 1 || api.clearedCount() != 1 {
		t.Fatalf("expected invalidate and cache clear, got %d %d", sessions.invalidated, api.clearedCount())
	}
}
