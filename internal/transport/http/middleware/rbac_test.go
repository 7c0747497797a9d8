package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"opsportal/internal/domain/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/payroll", nil)
	if role == "" {
		return req
	}
	ctx := context.WithValue(req.Context(), ctxKeyUser, auth.UserContext{
		UserID: "user-1", UnitID: "unit-1", Role: role,
	})
	return req.WithContext(ctx)
}

func TestRequirePermissionAnonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	RequirePermission(auth.PermPayrollRead)(okHandler()).ServeHTTP(rec, requestAs(""))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequirePermissionForbidden(t *testing.T) {
	rec := httptest.NewRecorder()
	RequirePermission(auth.PermPayrollRead)(okHandler()).ServeHTTP(rec, requestAs(auth.RoleCustomer))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequirePermissionAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	RequirePermission(auth.PermPayrollRead)(okHandler()).ServeHTTP(rec, requestAs(auth.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthAttachesUserFromBearerToken(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "user-9", UnitID: "unit-3", Role: auth.RoleEmployee}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var got auth.UserContext
	var ok bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetUser(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	Auth(secret)(inner).ServeHTTP(httptest.NewRecorder(), req)

	if !ok {
		t.Fatal("expected user context to be set")
	}
	if got.UserID != "user-9" || got.UnitID != "unit-3" || got.Role != auth.RoleEmployee {
		t.Fatalf("unexpected user context: %+v", got)
	}
}

func TestAuthLeavesInvalidTokenAnonymous(t *testing.T) {
	var ok bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = GetUser(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	Auth("test-secret")(inner).ServeHTTP(httptest.NewRecorder(), req)

	if ok {
		t.Fatal("expected anonymous request")
	}
}
