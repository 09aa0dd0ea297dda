// Package router wires HTTP paths to handlers.  Registration is split
// per audience: health, auth, public catalog, authenticated members
// and admin.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/handler"
	"github.com/iliyamo/rewear-exchange/internal/middleware"
)

// RegisterRoutes registers the unauthenticated service endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints.  Everything under
// /v1/auth works without an existing session; the bearer-token logout
// variant needs JWT middleware so the handler knows whose sessions to
// revoke.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// rotating: revokes the presented refresh token, issues a new pair
	g.POST("/refresh", a.Refresh)
	// non-rotating: a fresh access token against the same refresh token
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/logout", a.Logout)
}
