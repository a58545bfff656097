package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/reelbase/reelbase-api/internal/core/domain"
)

type stubTokens struct {
	verifyFn func(token string) (string, error)
}

func (s *stubTokens) Issue(string) (string, error) { return "", errors.New("not used") }

func (s *stubTokens) Verify(token string) (string, error) { return s.verifyFn(token) }

func runAuth(t *testing.T, header string, tokens *stubTokens) (echo.Context, error, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	err := Auth(tokens)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return c, err, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := &stubTokens{verifyFn: func(token string) (string, error) {
		if token != "good" {
			t.Fatalf("unexpected token %q", token)
		}
		return "user-1", nil
	}}

	c, err, called := runAuth(t, "Bearer good", tokens)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if c.Get(ContextUserID) != "user-1" {
		t.Fatalf("user id not set")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tokens := &stubTokens{verifyFn: func(string) (string, error) { return "", domain.ErrUnauthorized }}

	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer bad"} {
		_, err, called := runAuth(t, header, tokens)
		if called {
			t.Fatalf("next must not run for header %q", header)
		}
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for header %q, got %v", header, err)
		}
	}
}
