package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/utils"
)

const testSecret = "test-secret"

func runWith(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, c
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec, _ := runWith(t, JWTAuth(testSecret), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthInvalidToken(t *testing.T) {
	rec, _ := runWith(t, JWTAuth(testSecret), "Bearer not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 7, "USER", 15)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rec, _ := runWith(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, "USER", 15)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rec, c := runWith(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if c.Get("user_id") == nil {
		t.Errorf("user_id not set in context")
	}
	if role, _ := c.Get("role").(string); role != "USER" {
		t.Errorf("role = %v, want USER", c.Get("role"))
	}
}

func TestOptionalJWTGuestPassesThrough(t *testing.T) {
	rec, c := runWith(t, OptionalJWT(testSecret), "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if c.Get("user_id") != nil {
		t.Errorf("guest request should not carry user_id")
	}
}

func TestOptionalJWTInvalidTokenTreatedAsGuest(t *testing.T) {
	rec, c := runWith(t, OptionalJWT(testSecret), "Bearer garbage")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if c.Get("user_id") != nil {
		t.Errorf("invalid token should not set user_id")
	}
}

func TestOptionalJWTValidTokenSetsIdentity(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "NGO", 15)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rec, c := runWith(t, OptionalJWT(testSecret), "Bearer "+tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if c.Get("user_id") == nil {
		t.Errorf("user_id not set for a valid token")
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	run := func(role interface{}, allowed ...string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		h := RequireRole(allowed...)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		if err := h(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		return rec.Code
	}

	if got := run("ADMIN", "ADMIN"); got != http.StatusOK {
		t.Errorf("admin on admin route: status = %d, want 200", got)
	}
	if got := run("USER", "ADMIN"); got != http.StatusForbidden {
		t.Errorf("user on admin route: status = %d, want 403", got)
	}
	if got := run(nil, "ADMIN"); got != http.StatusForbidden {
		t.Errorf("missing role: status = %d, want 403", got)
	}
	if got := run("NGO", "USER", "ADMIN", "NGO"); got != http.StatusOK {
		t.Errorf("ngo on member route: status = %d, want 200", got)
	}
}
