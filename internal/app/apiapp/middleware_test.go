package apiapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	authsvc "github.com/GratiaManullang03/hris-attandance/internal/services/auth"
)

func TestRequireRoleAllowsCaseInsensitiveMatch(t *testing.T) {
	mw := RequireRole("ADMIN", "HR")

	req := httptest.NewRequest(http.MethodGet, "/v1/attendance/sessions", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 1,
		Role:   "hr",
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestRequireRoleRejectsForbiddenRole(t *testing.T) {
	mw := RequireRole("ADMIN", "HR")

	req := httptest.NewRequest(http.MethodGet, "/v1/attendance/sessions", nil)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 2,
		Role:   "employee",
	}))
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called for forbidden role")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}
}

func TestDisplayKeyMiddlewareRejectsWrongKey(t *testing.T) {
	mw := DisplayKeyMiddleware("kiosk-key", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/attendance/sites/SITE-A/rolling-token", nil)
	req.Header.Set("X-Display-Key", "not-the-key")
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called with a wrong display key")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestDisplayKeyMiddlewareAcceptsConfiguredKey(t *testing.T) {
	mw := DisplayKeyMiddleware("kiosk-key", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/attendance/sites/SITE-A/rolling-token", nil)
	req.Header.Set("X-Display-Key", "kiosk-key")
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}

func TestDisplayKeyMiddlewareDisabledWithoutKey(t *testing.T) {
	mw := DisplayKeyMiddleware("", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/attendance/sites/SITE-A/rolling-token", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called when display key is unset")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestAuthMiddlewareRejectsMissingBearer(t *testing.T) {
	tokens := authsvc.NewJWTManager("secret", 0)
	mw := AuthMiddleware(tokens, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/attendance/scan", nil)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler must not be called without a bearer token")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddlewarePassesIdentity(t *testing.T) {
	tokens := authsvc.NewJWTManager("secret", 0)
	signed, _, err := tokens.GenerateAccessToken(77, "EMPLOYEE")
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	mw := AuthMiddleware(tokens, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/v1/attendance/scan", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := authsvc.IdentityFromContext(r.Context())
		if !ok || identity.UserID != 77 || identity.Role != "EMPLOYEE" {
			t.Fatalf("unexpected identity: %+v ok=%v", identity, ok)
		}
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNoContent)
	}
}
