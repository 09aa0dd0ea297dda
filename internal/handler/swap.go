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

// SwapHandler serves the barter flow: proposing a swap, walking it
// along its status chain, exchanging shipping details and the chat
// thread.  All contended state changes are delegated to the ledger.
type SwapHandler struct {
	Ledger *ledger.Ledger
	Swaps  *repository.SwapRepo
}

// NewSwapHandler constructs a SwapHandler.  Dependencies must be
// non-nil.
func NewSwapHandler(l *ledger.Ledger, swaps *repository.SwapRepo) *SwapHandler {
	if l == nil || swaps == nil {
		panic("nil dependency passed to NewSwapHandler")
	}
	return &SwapHandler{Ledger: l, Swaps: swaps}
}

type createSwapReq struct {
	TargetItemID   uint64   `json:"target_item_id"`
	OfferedItemIDs []uint64 `json:"offered_item_ids"`
	Message        string   `json:"message"`
}

type swapResp struct {
	ID               uint64            `json:"id"`
	RequesterID      uint64            `json:"requester_id"`
	TargetItemID     uint64            `json:"target_item_id"`
	TargetOwnerID    uint64            `json:"target_owner_id"`
	TargetItemTitle  string            `json:"target_item_title"`
	PointsDifference int64             `json:"points_difference"`
	Status           string            `json:"status"`
	TrackingNumber   *string           `json:"tracking_number,omitempty"`
	RequesterAddress *string           `json:"requester_address,omitempty"`
	TargetAddress    *string           `json:"target_address,omitempty"`
	OfferedItems     []offeredItemPart `json:"offered_items"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
}

type offeredItemPart struct {
	ItemID     uint64 `json:"item_id"`
	Title      string `json:"title"`
	PointsCost uint32 `json:"points_cost"`
}

func toSwapResp(req model.SwapRequest) swapResp {
	out := swapResp{
		ID:               req.ID,
		RequesterID:      req.RequesterID,
		TargetItemID:     req.TargetItemID,
		TargetOwnerID:    req.TargetOwnerID,
		TargetItemTitle:  req.TargetItemTitle,
		PointsDifference: req.PointsDifference,
		Status:           req.Status,
		TrackingNumber:   req.TrackingNumber,
		RequesterAddress: req.RequesterAddress,
		TargetAddress:    req.TargetAddress,
		CreatedAt:        req.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        req.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, oi := range req.OfferedItems {
		out.OfferedItems = append(out.OfferedItems, offeredItemPart{
			ItemID: oi.ItemID, Title: oi.Title, PointsCost: oi.PointsCost,
		})
	}
	return out
}

// Create handles POST /v1/swaps.  A proposal leaves every item on
// the market until the target's owner accepts; the advisory points
// difference in the response tells the requester whether they are
// offering under or over the target's value.
func (h *SwapHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createSwapReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TargetItemID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "target_item_id required"})
	}
	if len(req.OfferedItemIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "offered_item_ids required"})
	}

	sr, err := h.Ledger.CreateSwapRequest(c.Request().Context(), userID, req.TargetItemID, req.OfferedItemIDs, strings.TrimSpace(req.Message))
	if err != nil {
		switch err.(type) {
		case *ledger.NotFoundError, *ledger.UnauthorizedError, *ledger.InsufficientPointsError, *ledger.InvalidTransitionError:
			return ledgerError(c, err)
		}
		if err == ledger.ErrItemNotAvailable || err == ledger.ErrBackendUnavailable {
			return ledgerError(c, err)
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, echo.Map{"swap": toSwapResp(sr)})
}

// List handles GET /v1/swaps.  Every request the user takes part in,
// on either side, newest activity first.
func (h *SwapHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reqs, err := h.Swaps.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load swaps failed"})
	}
	out := make([]swapResp, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toSwapResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"swaps": out})
}

func (h *SwapHandler) loadForParty(c echo.Context) (model.SwapRequest, uint64, bool) {
	var zero model.SwapRequest
	userID, err := getUserID(c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return zero, 0, false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid swap id"})
		return zero, 0, false
	}
	req, err := h.Swaps.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrSwapNotFound {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "swap not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return zero, 0, false
	}
	if userID != req.RequesterID && userID != req.TargetOwnerID {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		return zero, 0, false
	}
	return req, userID, true
}

// Get handles GET /v1/swaps/:id.  Parties only.
func (h *SwapHandler) Get(c echo.Context) error {
	req, _, ok := h.loadForParty(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, echo.Map{"swap": toSwapResp(req)})
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /v1/swaps/:id/status.  The ledger
// enforces the status chain and the role rules; on success the change
// is announced on the queue for downstream notification consumers.
func (h *SwapHandler) UpdateStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid swap id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	switch status {
	case model.SwapStatusAccepted, model.SwapStatusRejected,
		model.SwapStatusShipped, model.SwapStatusDelivered, model.SwapStatusCompleted:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	sr, err := h.Ledger.UpdateSwapStatus(c.Request().Context(), id, userID, status)
	if err != nil {
		return ledgerError(c, err)
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = publisher.PublishSwapStatusChanged(pubCtx, queue.SwapStatusChangedEvent{
			RequestID:       sr.ID,
			RequesterID:     sr.RequesterID,
			TargetOwnerID:   sr.TargetOwnerID,
			TargetItemID:    sr.TargetItemID,
			TargetItemTitle: sr.TargetItemTitle,
			Status:          status,
			ChangedBy:       userID,
			ChangedAt:       time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{"swap": toSwapResp(sr)})
}

type shippingReq struct {
	Address        string `json:"address"`
	TrackingNumber string `json:"tracking_number"`
}

// SetShipping handles PUT /v1/swaps/:id/shipping.  Each party writes
// their own address; either may set the tracking number.  Addresses
// are only exchanged once the proposal is accepted.
func (h *SwapHandler) SetShipping(c echo.Context) error {
	req, userID, ok := h.loadForParty(c)
	if !ok {
		return nil
	}
	if req.Status == model.SwapStatusProposed || req.Status == model.SwapStatusRejected {
		return c.JSON(http.StatusConflict, echo.Map{"error": "shipping details open after acceptance"})
	}
	var body shippingReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var requesterAddr, targetAddr, tracking *string
	if addr := strings.TrimSpace(body.Address); addr != "" {
		if userID == req.RequesterID {
			requesterAddr = &addr
		} else {
			targetAddr = &addr
		}
	}
	if tn := strings.TrimSpace(body.TrackingNumber); tn != "" {
		tracking = &tn
	}
	if requesterAddr == nil && targetAddr == nil && tracking == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if err := h.Swaps.SetShipping(c.Request().Context(), req.ID, requesterAddr, targetAddr, tracking); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

type chatReq struct {
	Message string `json:"message"`
}

// SendMessage handles POST /v1/swaps/:id/messages.  Parties only;
// terminal threads are read-only.
func (h *SwapHandler) SendMessage(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid swap id"})
	}
	var body chatReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	text := strings.TrimSpace(body.Message)
	if text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message required"})
	}
	msg, err := h.Ledger.SendChatMessage(c.Request().Context(), id, userID, text)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": echo.Map{
		"id":         msg.ID,
		"sender_id":  msg.SenderID,
		"body":       msg.Body,
		"kind":       msg.Kind,
		"created_at": msg.CreatedAt.UTC().Format(time.RFC3339),
	}})
}

// ListMessages handles GET /v1/swaps/:id/messages.  The full thread in
// send order, system narration included.
func (h *SwapHandler) ListMessages(c echo.Context) error {
	req, _, ok := h.loadForParty(c)
	if !ok {
		return nil
	}
	msgs, err := h.Swaps.ListMessages(c.Request().Context(), req.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load messages failed"})
	}
	out := make([]echo.Map, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, echo.Map{
			"id":         m.ID,
			"sender_id":  m.SenderID,
			"body":       m.Body,
			"kind":       m.Kind,
			"created_at": m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}
