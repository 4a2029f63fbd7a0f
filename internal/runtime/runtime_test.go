package runtime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/findexa/repscout/config"
	"github.com/labstack/echo/v4"
)

func TestSignAndVerifyJWT(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	tok, err := SignJWT("admin", secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	e := echo.New()
	handler := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		sub, ok := SubjectFromContext(c.Request().Context())
		if !ok || sub != "admin" {
			t.Fatalf("subject missing from context")
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	e := echo.New()
	handler := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	err := handler(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing token, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	err = handler(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %v", err)
	}

	wrong, err := SignJWT("admin", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+wrong)
	err = handler(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong secret, got %v", err)
	}
}

func TestAuthMiddlewareAcceptsCookie(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	tok, err := SignJWT("admin", secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	e := echo.New()
	handler := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: tok})
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoadJWTSecret(t *testing.T) {
	t.Parallel()

	if _, err := LoadJWTSecret(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := LoadJWTSecret(&config.Config{}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	secret, err := LoadJWTSecret(&config.Config{Server: config.ServerConfig{JWTSecret: "s"}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(secret) != "s" {
		t.Fatalf("unexpected secret %q", secret)
	}
}

func TestIsDue(t *testing.T) {
	t.Parallel()

	recent := time.Now().Add(-time.Minute)
	old := time.Now().Add(-25 * time.Hour)

	cases := []struct {
		name string
		spec string
		last *time.Time
		want bool
	}{
		{"never ran", "@daily", nil, true},
		{"daily recent", "@daily", &recent, false},
		{"daily old", "@daily", &old, true},
		{"hourly recent", "@hourly", &recent, false},
		{"hourly old", "@hourly", &old, true},
		{"cron never ran", "0 3 * * *", nil, true},
		{"cron old", "0 3 * * *", &old, true},
		{"invalid falls back to daily", "nonsense", &recent, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := isDue(tc.spec, tc.last); got != tc.want {
				t.Fatalf("isDue(%q) = %v, want %v", tc.spec, got, tc.want)
			}
		})
	}
}
