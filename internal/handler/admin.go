package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/ledger"
	"github.com/iliyamo/rewear-exchange/internal/model"
	"github.com/iliyamo/rewear-exchange/internal/repository"
)

// AdminHandler serves the moderation surface: the item queue,
// category points administration and KYC review.  Routes carrying
// this handler sit behind RequireRole("ADMIN"); the ledger enforces
// the role a second time on the operations that move points.
type AdminHandler struct {
	Ledger *ledger.Ledger
	Items  *repository.ItemRepo
	Users  *repository.UserRepo
}

// NewAdminHandler constructs an AdminHandler.  Dependencies must be
// non-nil.
func NewAdminHandler(l *ledger.Ledger, items *repository.ItemRepo, users *repository.UserRepo) *AdminHandler {
	if l == nil || items == nil || users == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Ledger: l, Items: items, Users: users}
}

func (h *AdminHandler) actor(c echo.Context) (model.User, bool) {
	userID, err := getUserID(c)
	if err != nil {
		return model.User{}, false
	}
	u, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		return model.User{}, false
	}
	return u, true
}

// ModerationQueue handles GET /v1/admin/items/pending.  Uploads
// awaiting review, oldest first.
func (h *AdminHandler) ModerationQueue(c echo.Context) error {
	items, err := h.Items.ListPending(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load queue failed"})
	}
	out := make([]echo.Map, 0, len(items))
	for _, it := range items {
		out = append(out, echo.Map{
			"id":              it.ID,
			"owner_id":        it.OwnerID,
			"title":           it.Title,
			"category":        it.Category,
			"size":            it.Size,
			"condition":       it.Condition,
			"is_ngo_donation": it.IsNGODonation,
			"created_at":      it.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ApproveItem handles POST /v1/admin/items/:id/approve.  The item is
// priced from the category table and the uploader is credited the
// same value; the response reports what was awarded.
func (h *AdminHandler) ApproveItem(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	value, err := h.Ledger.ApproveItem(c.Request().Context(), actor, id)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item_id":        id,
		"points_cost":    value,
		"points_awarded": value,
	})
}

// RejectItem handles POST /v1/admin/items/:id/reject.  The pending
// upload is removed; no points move.
func (h *AdminHandler) RejectItem(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	if err := h.Ledger.RejectItem(c.Request().Context(), actor, id); err != nil {
		return ledgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type categoryPointsReq struct {
	Category string `json:"category"`
	Points   uint32 `json:"points"`
}

// SetCategoryPoints handles PUT /v1/admin/categories/points.  Editing
// a value only affects approvals from now on; already-priced items
// keep their cost.
func (h *AdminHandler) SetCategoryPoints(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req categoryPointsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" || req.Points == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "category and positive points required"})
	}
	if err := h.Ledger.UpdateCategoryPoints(c.Request().Context(), actor, req.Category, req.Points); err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"category": req.Category,
		"points":   req.Points,
	})
}

// KYCQueue handles GET /v1/admin/kyc/pending.  Accounts awaiting
// identity review, oldest submission first.
func (h *AdminHandler) KYCQueue(c echo.Context) error {
	users, err := h.Users.ListKYCPending(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load queue failed"})
	}
	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		out = append(out, echo.Map{
			"id":       u.ID,
			"email":    u.Email,
			"username": u.Username,
			"role":     u.Role,
			"city":     u.City,
			"country":  u.Country,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

type kycReviewReq struct {
	Verdict string `json:"verdict"` // verified | rejected
}

// ReviewKYC handles POST /v1/admin/kyc/:id/review.  Applies the
// verdict to a user whose submission is pending.
func (h *AdminHandler) ReviewKYC(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req kycReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	verdict := strings.ToLower(strings.TrimSpace(req.Verdict))
	if verdict != model.KYCVerified && verdict != model.KYCRejected {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verdict must be verified or rejected"})
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if u.KYCStatus != model.KYCPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no pending submission"})
	}
	if err := h.Users.SetKYCStatus(ctx, id, verdict); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "review failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": id, "kyc_status": verdict})
}
