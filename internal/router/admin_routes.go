package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/handler"
	"github.com/iliyamo/rewear-exchange/internal/middleware"
	"github.com/iliyamo/rewear-exchange/internal/model"
)

// RegisterAdmin registers the moderation endpoints.  The whole group
// sits behind RequireRole(ADMIN); the ledger re-checks the role on
// the operations that move points so a routing mistake cannot mint
// currency.
func RegisterAdmin(e *echo.Echo, jwtSecret string, admin *handler.AdminHandler) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	// item moderation
	g.GET("/items/pending", admin.ModerationQueue)
	g.POST("/items/:id/approve", admin.ApproveItem)
	g.POST("/items/:id/reject", admin.RejectItem)

	// category points administration
	g.PUT("/categories/points", admin.SetCategoryPoints)

	// KYC review
	g.GET("/kyc/pending", admin.KYCQueue)
	g.POST("/kyc/:id/review", admin.ReviewKYC)
}
