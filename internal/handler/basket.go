package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/ledger"
	"github.com/iliyamo/rewear-exchange/internal/model"
	"github.com/iliyamo/rewear-exchange/internal/repository"
)

// BasketHandler serves the Redis-backed redemption basket.  A basket
// is a private scratch list of items a user intends to redeem; it
// reserves nothing and quotes the cost fresh on every read, so prices
// and availability reflect the catalog as it stands now.
type BasketHandler struct {
	Baskets *repository.BasketRepo
	Items   *repository.ItemRepo
	Users   *repository.UserRepo
}

// NewBasketHandler constructs a BasketHandler.  Dependencies must be
// non-nil.
func NewBasketHandler(baskets *repository.BasketRepo, items *repository.ItemRepo, users *repository.UserRepo) *BasketHandler {
	if baskets == nil || items == nil || users == nil {
		panic("nil repository passed to NewBasketHandler")
	}
	return &BasketHandler{Baskets: baskets, Items: items, Users: users}
}

func basketItemID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}

// Add handles POST /v1/basket/items/:id.  Adding an item already in
// the basket increments its quantity.  Only available items can be
// added; a user cannot basket their own listing.
func (h *BasketHandler) Add(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	itemID, ok := basketItemID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	ctx := c.Request().Context()
	it, err := h.Items.GetByID(ctx, itemID)
	if err != nil {
		if err == repository.ErrItemNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if it.OwnerID == userID {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot basket your own item"})
	}
	if it.Status != model.ItemStatusAvailable {
		return c.JSON(http.StatusConflict, echo.Map{"error": "item is not available"})
	}
	if err := h.Baskets.Add(ctx, userID, itemID); err != nil {
		if err == repository.ErrBasketUnavailable {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "basket unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "basket update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Remove handles DELETE /v1/basket/items/:id.  Removing an absent item
// is a no-op.
func (h *BasketHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	itemID, ok := basketItemID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	if err := h.Baskets.Remove(c.Request().Context(), userID, itemID); err != nil {
		if err == repository.ErrBasketUnavailable {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "basket unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "basket update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Clear handles DELETE /v1/basket.
func (h *BasketHandler) Clear(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Baskets.Clear(c.Request().Context(), userID); err != nil {
		if err == repository.ErrBasketUnavailable {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "basket unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "basket update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type basketLine struct {
	ItemID     uint64       `json:"item_id"`
	Title      string       `json:"title"`
	Quantity   uint32       `json:"quantity"`
	Available  bool         `json:"available"`
	Quote      ledger.Quote `json:"quote"`
	LineTotal  uint32       `json:"line_total"`
	UploaderID uint64       `json:"uploader_id"`
}

// View handles GET /v1/basket.  Each line is hydrated against the
// catalog and quoted against the viewer's city; lines whose item left
// the catalog since it was added are flagged unavailable and excluded
// from the grand total.
func (h *BasketHandler) View(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	quantities, err := h.Baskets.Quantities(ctx, userID)
	if err != nil {
		if err == repository.ErrBasketUnavailable {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "basket unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "basket read failed"})
	}

	viewer, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	lines := make([]basketLine, 0, len(quantities))
	var grand uint32
	for itemID, qty := range quantities {
		it, err := h.Items.GetByID(ctx, itemID)
		if err != nil {
			if err == repository.ErrItemNotFound {
				// item deleted since it was added; drop the line
				_ = h.Baskets.Remove(ctx, userID, itemID)
				continue
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		uploader, err := h.Items.UploaderInfo(ctx, it.OwnerID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		quote := ledger.QuoteFor(it.PointsCost, uploader.City, viewer.City)
		line := basketLine{
			ItemID:     it.ID,
			Title:      it.Title,
			Quantity:   qty,
			Available:  it.Status == model.ItemStatusAvailable,
			Quote:      quote,
			LineTotal:  quote.Total * qty,
			UploaderID: it.OwnerID,
		}
		if line.Available {
			grand += line.LineTotal
		}
		lines = append(lines, line)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":   lines,
		"total":   grand,
		"balance": viewer.Points,
	})
}
