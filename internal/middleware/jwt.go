package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// parseBearer extracts and validates the HS256 bearer token from the
// Authorization header.  The returned claims are nil when the header
// is absent, malformed or fails verification.
func parseBearer(c echo.Context, secret string) jwt.MapClaims {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil
	}
	raw := strings.TrimPrefix(auth, "Bearer ")
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}

// JWTAuth requires a valid access token and injects the subject and
// role claims into the context as "user_id" and "role".  Handlers read
// them via c.Get; type assertions are left to the consumers since JWT
// numbers decode as float64.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := parseBearer(c, secret)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or invalid token"})
			}
			c.Set("user_id", claims["sub"])
			c.Set("role", claims["role"])
			return next(c)
		}
	}
}

// OptionalJWT is the permissive variant used on public routes whose
// responses get richer for authenticated viewers (e.g. the per-viewer
// shipping quote on an item detail page).  A valid bearer token fills
// user_id and role; a missing or invalid token is not an error and the
// request proceeds as a guest.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims := parseBearer(c, secret); claims != nil {
				c.Set("user_id", claims["sub"])
				c.Set("role", claims["role"])
			}
			return next(c)
		}
	}
}
