package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, secret []byte, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func testClaims(role string) *Claims {
	return &Claims{
		UserID: "u1",
		Email:  "dana@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestAuthMiddleware_ValidCookie(t *testing.T) {
	secret := []byte("secret")
	h := &Handler{JWTSecret: secret}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, secret, testClaims("user"))})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := h.AuthMiddleware(func(c echo.Context) error {
		called = true
		claims := CurrentClaims(c)
		if claims == nil || claims.Email != "dana@example.com" {
			t.Errorf("claims not propagated: %+v", claims)
		}
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if !called {
		t.Error("next handler not called for valid token")
	}
}

func TestAuthMiddleware_BearerHeader(t *testing.T) {
	secret := []byte("secret")
	h := &Handler{JWTSecret: secret}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, testClaims("user")))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	if err := h.AuthMiddleware(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if !called {
		t.Error("next handler not called for bearer token")
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	h := &Handler{JWTSecret: []byte("secret")}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AuthMiddleware(func(c echo.Context) error {
		t.Fatal("next handler called without token")
		return nil
	})(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	h := &Handler{JWTSecret: []byte("secret")}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, []byte("other"), testClaims("user"))})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AuthMiddleware(func(c echo.Context) error {
		t.Fatal("next handler called with forged token")
		return nil
	})(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required []string
		wantPass bool
	}{
		{"agent allowed", "agent", []string{"agent"}, true},
		{"admin passes any check", "admin", []string{"agent"}, true},
		{"user rejected", "user", []string{"agent"}, false},
		{"empty role rejected", "", []string{"agent"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, testClaims(tt.role))
			c.Set("user", token)

			passed := false
			if err := RequireRole(tt.required...)(func(c echo.Context) error {
				passed = true
				return c.NoContent(http.StatusOK)
			})(c); err != nil {
				t.Fatalf("middleware returned error: %v", err)
			}
			if passed != tt.wantPass {
				t.Errorf("passed = %v, want %v (status %d)", passed, tt.wantPass, rec.Code)
			}
		})
	}
}
