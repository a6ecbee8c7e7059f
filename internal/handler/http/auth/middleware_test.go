package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func validClaims(sub, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  float64(time.Now().Add(time.Hour).Unix()),
	}
}

func TestAuthn_ValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	var gotUserID int64
	var gotRole string
	handler := Authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserID(r.Context())
		gotRole, _ = Role(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/42/recommendations", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims("42", "user")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != 42 {
		t.Errorf("user id = %d, want 42", gotUserID)
	}
	if gotRole != "user" {
		t.Errorf("role = %q, want %q", gotRole, "user")
	}
}

func TestAuthn_Rejections(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	expired := jwt.MapClaims{
		"sub":  "42",
		"role": "user",
		"exp":  float64(time.Now().Add(-time.Hour).Unix()),
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing token", header: ""},
		{name: "not a bearer token", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not.a.token"},
		{name: "expired token", header: "Bearer " + func() string {
			tok := jwt.NewWithClaims(jwt.SigningMethodHS256, expired)
			s, _ := tok.SignedString([]byte(testSecret))
			return s
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be reached")
			}))
			req := httptest.NewRequest(http.MethodGet, "/users/42/recommendations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAuthn_NonNumericSubRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	handler := Authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))
	req := httptest.NewRequest(http.MethodGet, "/users/42/recommendations", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims("alice", "user")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{name: "admin passes", role: "admin", wantStatus: http.StatusOK},
		{name: "user is forbidden", role: "user", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodPost, "/admin/retrain", nil)
			req = req.WithContext(WithIdentity(req.Context(), 1, tt.role))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAdmin_NoIdentity(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))
	req := httptest.NewRequest(http.MethodPost, "/admin/retrain", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestIsAdmin(t *testing.T) {
	ctx := WithIdentity(httptest.NewRequest(http.MethodGet, "/", nil).Context(), 7, RoleAdmin)
	if !IsAdmin(ctx) {
		t.Error("IsAdmin = false, want true")
	}
	if IsAdmin(httptest.NewRequest(http.MethodGet, "/", nil).Context()) {
		t.Error("IsAdmin on empty context = true, want false")
	}
}
