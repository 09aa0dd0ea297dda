package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/config"
	"github.com/iliyamo/rewear-exchange/internal/utils"
)

func limiterContext(t *testing.T, authHeader string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/items")
	return c
}

// The limiter runs before any route-group auth middleware, so the
// per-user component of the bucket key has to come from the bearer
// token it resolves itself.
func TestBucketKeyUsesBearerIdentity(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "USER", 15)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	c := limiterContext(t, "Bearer "+tok.Token)
	resolveIdentity(c, testSecret)

	key := bucketKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}, c)
	if !strings.Contains(key, ":user:42:") {
		t.Errorf("key = %q, want per-user component user:42", key)
	}
}

func TestBucketKeyGuestWithoutToken(t *testing.T) {
	c := limiterContext(t, "")
	resolveIdentity(c, testSecret)

	key := bucketKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}, c)
	if !strings.Contains(key, ":user:guest:") {
		t.Errorf("key = %q, want guest user component", key)
	}
}

func TestBucketKeyForgedTokenStaysGuest(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 42, "USER", 15)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	c := limiterContext(t, "Bearer "+tok.Token)
	resolveIdentity(c, testSecret)

	key := bucketKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}, c)
	if !strings.Contains(key, ":user:guest:") {
		t.Errorf("key = %q, want guest user component for a forged token", key)
	}
}

func TestResolveIdentityKeepsEarlierValue(t *testing.T) {
	c := limiterContext(t, "Bearer garbage")
	c.Set("user_id", uint64(7))
	resolveIdentity(c, testSecret)

	if got := userID(c); got != "7" {
		t.Errorf("userID = %q, want value set by earlier middleware", got)
	}
}
