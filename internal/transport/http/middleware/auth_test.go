package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrms/internal/domain/auth"
)

type fakeUsers struct {
	active bool
	err    error
}

func (f fakeUsers) IsUserActive(context.Context, string, string) (bool, error) {
	return f.active, f.err
}

func issueToken(t *testing.T, secret string) string {
	t.Helper()
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", TenantID: "t1", RoleID: "r1", RoleName: auth.RoleHR}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	return token
}

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token := issueToken(t, secret)

	called := false
	handler := Auth(secret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.UserID != "u1" || user.RoleName != auth.RoleHR {
			t.Fatalf("unexpected user: %+v", user)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("handler not called")
	}
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := Auth("secret", nil)(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("did not expect handler to run")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareInactiveUser(t *testing.T) {
	secret := "test-secret"
	token := issueToken(t, secret)

	handler := Auth(secret, fakeUsers{active: false})(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("inactive user must not reach handler")
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	handler = Auth(secret, fakeUsers{err: errors.New("db down")})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on lookup failure, got %d", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	if _, ok := bearerToken("Basic abc"); ok {
		t.Fatal("basic scheme must be ignored")
	}
	if tok, ok := bearerToken("bearer xyz"); !ok || tok != "xyz" {
		t.Fatalf("unexpected token %q", tok)
	}
}
