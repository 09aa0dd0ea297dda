package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/handler"
	"github.com/iliyamo/rewear-exchange/internal/middleware"
	"github.com/iliyamo/rewear-exchange/internal/model"
)

// RegisterUser registers the authenticated member endpoints: profile,
// wardrobe, basket, redemption and the swap flow.  Every route in
// this group requires a valid access token; all three roles may use
// them since admins and NGOs exchange garments like everyone else.
func RegisterUser(e *echo.Echo, jwtSecret string,
	profile *handler.ProfileHandler,
	items *handler.ItemHandler,
	basket *handler.BasketHandler,
	redeem *handler.RedeemHandler,
	swaps *handler.SwapHandler) {

	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin, model.RoleNGO))

	// profile
	g.GET("/me", profile.Me)
	g.PUT("/me", profile.UpdateProfile)
	g.POST("/me/kyc", profile.SubmitKYC)
	g.GET("/me/redemptions", profile.ListRedemptions)

	// wardrobe
	g.POST("/items", items.Upload)
	g.GET("/my-items", items.MyItems)
	g.DELETE("/items/:id", items.DeleteItem)

	// basket
	g.GET("/basket", basket.View)
	g.POST("/basket/items/:id", basket.Add)
	g.DELETE("/basket/items/:id", basket.Remove)
	g.DELETE("/basket", basket.Clear)
	g.POST("/basket/checkout", redeem.Checkout)

	// direct redemption
	g.POST("/items/:id/redeem", redeem.Redeem)

	// swaps
	g.POST("/swaps", swaps.Create)
	g.GET("/swaps", swaps.List)
	g.GET("/swaps/:id", swaps.Get)
	g.PATCH("/swaps/:id/status", swaps.UpdateStatus)
	g.PUT("/swaps/:id/shipping", swaps.SetShipping)
	g.POST("/swaps/:id/messages", swaps.SendMessage)
	g.GET("/swaps/:id/messages", swaps.ListMessages)
}
