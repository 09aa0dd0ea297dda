package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/ledger"
	"github.com/iliyamo/rewear-exchange/internal/model"
	"github.com/iliyamo/rewear-exchange/internal/queue"
	"github.com/iliyamo/rewear-exchange/internal/repository"
	publisher "github.com/iliyamo/rewear-exchange/internal/service"
)

// RedeemHandler serves points-only acquisitions: a direct redemption
// of one item and the basket checkout.  The balance check, debit and
// item reservation happen atomically inside the ledger; the handler
// only parses, delegates and translates errors.
type RedeemHandler struct {
	Ledger  *ledger.Ledger
	Baskets *repository.BasketRepo
}

// NewRedeemHandler constructs a RedeemHandler.  Dependencies must be
// non-nil.
func NewRedeemHandler(l *ledger.Ledger, baskets *repository.BasketRepo) *RedeemHandler {
	if l == nil || baskets == nil {
		panic("nil dependency passed to NewRedeemHandler")
	}
	return &RedeemHandler{Ledger: l, Baskets: baskets}
}

type redeemReq struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

func (r redeemReq) addr() (ledger.ShippingAddress, bool) {
	a := ledger.ShippingAddress{
		FullName:   strings.TrimSpace(r.FullName),
		Phone:      strings.TrimSpace(r.Phone),
		Address:    strings.TrimSpace(r.Address),
		City:       strings.TrimSpace(r.City),
		PostalCode: strings.TrimSpace(r.PostalCode),
	}
	return a, a.FullName != "" && a.Address != "" && a.City != ""
}

// Redeem handles POST /v1/items/:id/redeem.  On success the response
// carries the fulfillment reference and the exact debit breakdown.
func (h *RedeemHandler) Redeem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || itemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var req redeemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	addr, ok := req.addr()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name/address/city required"})
	}

	ctx := c.Request().Context()
	red, err := h.Ledger.Redeem(ctx, userID, itemID, addr)
	if err != nil {
		return ledgerError(c, err)
	}

	// drop the item from the basket if it was there
	_ = h.Baskets.Remove(ctx, userID, itemID)

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = publisher.PublishItemRedeemed(pubCtx, queue.ItemRedeemedEvent{
			Reference:  red.Reference,
			UserID:     red.UserID,
			ItemID:     red.ItemID,
			ItemCost:   red.ItemCost,
			Surcharge:  red.Surcharge,
			TotalDebit: red.TotalDebit,
			RedeemedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusCreated, echo.Map{
		"reference":   red.Reference,
		"item_cost":   red.ItemCost,
		"surcharge":   red.Surcharge,
		"total_debit": red.TotalDebit,
	})
}

// Checkout handles POST /v1/basket/checkout.  Each distinct basket
// item is redeemed in its own transaction; garments are unique so
// quantities collapse to one redemption per item.  Processing
// continues past per-item failures and the response reports both
// sides.  Lines that redeemed successfully leave the basket; failed
// lines stay for another attempt.
func (h *RedeemHandler) Checkout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req redeemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	addr, ok := req.addr()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name/address/city required"})
	}

	ctx := c.Request().Context()
	quantities, err := h.Baskets.Quantities(ctx, userID)
	if err != nil {
		if err == repository.ErrBasketUnavailable {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "basket unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "basket read failed"})
	}
	if len(quantities) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "basket is empty"})
	}

	redeemed := make([]echo.Map, 0, len(quantities))
	failed := make([]echo.Map, 0)
	var events []model.Redemption
	for itemID := range quantities {
		red, err := h.Ledger.Redeem(ctx, userID, itemID, addr)
		if err != nil {
			failed = append(failed, echo.Map{"item_id": itemID, "error": redeemFailureReason(err)})
			continue
		}
		_ = h.Baskets.Remove(ctx, userID, itemID)
		redeemed = append(redeemed, echo.Map{
			"item_id":     itemID,
			"reference":   red.Reference,
			"total_debit": red.TotalDebit,
		})
		events = append(events, red)
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		now := time.Now().UTC().Format(time.RFC3339)
		for _, red := range events {
			_ = publisher.PublishItemRedeemed(pubCtx, queue.ItemRedeemedEvent{
				Reference:  red.Reference,
				UserID:     red.UserID,
				ItemID:     red.ItemID,
				ItemCost:   red.ItemCost,
				Surcharge:  red.Surcharge,
				TotalDebit: red.TotalDebit,
				RedeemedAt: now,
			})
		}
	}()

	status := http.StatusCreated
	if len(redeemed) == 0 {
		status = http.StatusConflict
	}
	return c.JSON(status, echo.Map{
		"redeemed": redeemed,
		"failed":   failed,
	})
}

func redeemFailureReason(err error) string {
	switch e := err.(type) {
	case *ledger.InsufficientPointsError:
		return e.Error()
	case *ledger.NotFoundError:
		return e.Error()
	case *ledger.UnauthorizedError:
		return "forbidden"
	}
	if err == ledger.ErrItemNotAvailable {
		return "item is not available"
	}
	return "internal error"
}
