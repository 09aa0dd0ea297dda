package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/handler"
	"github.com/iliyamo/rewear-exchange/internal/middleware"
)

// RegisterPublic registers the unauthenticated catalog endpoints.
// The optional identity middleware fills user_id when a bearer token
// is present so the item quote can evaluate the viewer's surcharge,
// but guests pass through untouched.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, jwtSecret string) {
	// Browse and search the available catalog
	e.GET("/v1/items", p.SearchItems)
	// Item detail with uploader card, trust metrics and cost quote
	e.GET("/v1/items/:id", p.GetItem, middleware.OptionalJWT(jwtSecret))
	// The category → points table, public so uploaders know what a
	// listing earns
	e.GET("/v1/categories/points", p.GetCategoryPoints)
}
