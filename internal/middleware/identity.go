package middleware // declare the middleware package; contains reusable HTTP middleware functions

// identity.go defines helper functions shared across middleware files. Currently
// it provides a userID extraction function that reads the user_id value stored
// in the Echo context by JWTAuth or OptionalJWT. When no user is authenticated
// the string "guest" is returned so rate limit keys stay well formed.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userID extracts a user identifier from the request context. JWT claims
// decode numeric subjects as float64, so several numeric types are handled
// in addition to plain strings. It returns "guest" when no user is
// authenticated or the value has an unexpected type.
func userID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "guest"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	}
	return "guest"
}

// resolveIdentity fills user_id and role from the bearer token when no
// earlier middleware has set them. Middleware installed ahead of the
// route groups (the rate limiter) runs before JWTAuth and cannot rely
// on the context being populated; an invalid or absent token simply
// leaves the request a guest.
func resolveIdentity(c echo.Context, secret string) {
	if c.Get("user_id") != nil {
		return
	}
	if claims := parseBearer(c, secret); claims != nil {
		c.Set("user_id", claims["sub"])
		c.Set("role", claims["role"])
	}
}
