package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestAuthAcceptsValidToken(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "test-secret")

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": "u-1",
		"email":   "parent@example.com",
		"role":    "parent",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	var gotClaims UserClaims
	handler := Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = GetUserFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/vehicles", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotClaims.UserID != "u-1" || gotClaims.Role != "parent" {
		t.Fatalf("claims not propagated: %+v", gotClaims)
	}
}

func TestAuthRejects(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "test-secret")

	valid := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": "u-1", "email": "e", "role": "driver",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	wrongKey := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": "u-1", "email": "e", "role": "driver",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	expired := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": "u-1", "email": "e", "role": "driver",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic " + valid},
		{"garbage token", "Bearer not.a.token"},
		{"wrong signing key", "Bearer " + wrongKey},
		{"expired", "Bearer " + expired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler reached with invalid auth")
			}))
			req := httptest.NewRequest("GET", "/api/vehicles", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "test-secret")

	token := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": "u-2", "email": "d@example.com", "role": "driver",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/api/driver/location", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	Auth(RequireRole("driver")(inner)).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("matching role: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	Auth(RequireRole("admin")(inner)).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("mismatched role: status = %d, want 403", rec.Code)
	}
}
