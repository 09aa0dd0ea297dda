package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/rewear-exchange/internal/model"
	"github.com/iliyamo/rewear-exchange/internal/repository"
)

// Ledger is the exchange accounting component.  It owns no state of
// its own; every operation runs against the injected repositories and
// the shared database handle, and every mutation is a single
// transaction.  The balance of a user and the status of an item are
// the only contended resources, and both are taken with row locks
// before they are checked, so concurrent redemptions can neither
// double-spend a balance nor double-claim an item.
type Ledger struct {
	db          *sql.DB
	Users       UserStore
	Items       ItemStore
	Swaps       SwapStore
	Categories  CategoryStore
	Redemptions RedemptionStore
}

// New constructs a Ledger.  All dependencies must be non-nil.
func New(db *sql.DB, users UserStore, items ItemStore, swaps SwapStore,
	cats CategoryStore, reds RedemptionStore) *Ledger {
	if db == nil || users == nil || items == nil || swaps == nil || cats == nil || reds == nil {
		panic("nil dependency passed to ledger.New")
	}
	return &Ledger{db: db, Users: users, Items: items, Swaps: swaps, Categories: cats, Redemptions: reds}
}

// begin opens a transaction with a bounded timeout and a single retry
// on transient failure.  An exhausted budget surfaces as
// ErrBackendUnavailable so callers can retry the whole operation.
func (l *Ledger) begin(ctx context.Context) (*sql.Tx, context.CancelFunc, error) {
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	tx, err := l.db.BeginTx(ctx2, nil)
	if err != nil {
		tx, err = l.db.BeginTx(ctx2, nil)
	}
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return tx, cancel, nil
}

// Quote is the cost preview of acquiring an item.  When the caller is
// unauthenticated the surcharge is reported as unknown rather than
// free.
type Quote struct {
	ItemCost         uint32 `json:"item_cost"`
	Surcharge        uint32 `json:"surcharge"`
	Total            uint32 `json:"total"`
	SurchargeUnknown bool   `json:"surcharge_unknown,omitempty"`
}

// QuoteFor computes the total cost of the item for a user located in
// userCity.  An empty userCity means no authenticated user: the
// surcharge cannot be evaluated and is flagged unknown.
func QuoteFor(pointsCost uint32, itemCity, userCity string) Quote {
	q := Quote{
		ItemCost:  pointsCost,
		Surcharge: ShippingSurcharge(itemCity, userCity),
	}
	q.Total = pointsCost + q.Surcharge
	q.SurchargeUnknown = userCity == ""
	return q
}

// ShippingAddress carries the destination fields a redemption stores.
type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Redeem acquires an item directly against the user's point balance.
// The whole operation (read balance, verify sufficiency, debit,
// reserve the item, record the redemption) commits atomically or not
// at all.  The surcharge is priced against the shipping destination,
// not the profile city: the destination is where the parcel actually
// goes, and an empty one cannot be priced, so it is rejected rather
// than treated as same-city.  Failure modes: ErrItemNotAvailable when
// the item is not in the catalog, an InsufficientPointsError carrying
// the deficit, and an UnauthorizedError when a user tries to redeem
// their own listing.
func (l *Ledger) Redeem(ctx context.Context, userID, itemID uint64, addr ShippingAddress) (model.Redemption, error) {
	var red model.Redemption
	if addr.City == "" {
		return red, fmt.Errorf("shipping city is required")
	}
	tx, cancel, err := l.begin(ctx)
	if err != nil {
		return red, err
	}
	defer cancel()
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	user, err := l.Users.GetForUpdateTx(ctx, tx, userID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return red, &NotFoundError{Kind: "user", ID: fmt.Sprint(userID)}
		}
		return red, err
	}
	item, err := l.Items.GetForUpdateTx(ctx, tx, itemID)
	if err != nil {
		if err == repository.ErrItemNotFound {
			return red, &NotFoundError{Kind: "item", ID: fmt.Sprint(itemID)}
		}
		return red, err
	}
	if item.OwnerID == userID {
		return red, &UnauthorizedError{ActorID: userID, Action: "redeem their own item"}
	}
	if item.Status != model.ItemStatusAvailable {
		return red, ErrItemNotAvailable
	}

	uploader, err := l.Users.GetTx(ctx, tx, item.OwnerID)
	if err != nil {
		return red, err
	}
	surcharge := ShippingSurcharge(uploader.City, addr.City)
	total := item.PointsCost + surcharge
	if user.Points < total {
		return red, &InsufficientPointsError{Required: total, Available: user.Points}
	}

	if err := l.Users.SetPointsTx(ctx, tx, userID, user.Points-total); err != nil {
		return red, err
	}
	if err := l.Items.UpdateStatusTx(ctx, tx, itemID, model.ItemStatusReserved); err != nil {
		return red, err
	}
	red = model.Redemption{
		Reference:  uuid.NewString(),
		UserID:     userID,
		ItemID:     itemID,
		ItemCost:   item.PointsCost,
		Surcharge:  surcharge,
		TotalDebit: total,
		FullName:   addr.FullName,
		Phone:      addr.Phone,
		Address:    addr.Address,
		City:       addr.City,
		PostalCode: addr.PostalCode,
	}
	if err := l.Redemptions.CreateTx(ctx, tx, &red); err != nil {
		return red, err
	}
	if err := tx.Commit(); err != nil {
		return red, err
	}
	committed = true
	return red, nil
}

// CreateSwapRequest proposes a barter: offeredItemIDs owned by the
// requester against the target item.  Every referenced item must be
// available, but the proposal itself leaves all of them on the
// market: several requesters may propose against one listing, and
// item statuses only move once the target's owner accepts.  The
// points difference is computed from the costs as they stand now and
// snapshotted, together with the item titles, onto the request.
func (l *Ledger) CreateSwapRequest(ctx context.Context, requesterID, targetItemID uint64, offeredItemIDs []uint64, message string) (model.SwapRequest, error) {
	var req model.SwapRequest
	if len(offeredItemIDs) == 0 {
		return req, fmt.Errorf("at least one offered item is required")
	}
	// deduplicate while preserving order
	seen := make(map[uint64]struct{}, len(offeredItemIDs))
	unique := make([]uint64, 0, len(offeredItemIDs))
	for _, id := range offeredItemIDs {
		if id == 0 || id == targetItemID {
			return req, fmt.Errorf("offered items must not include the target item")
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}

	tx, cancel, err := l.begin(ctx)
	if err != nil {
		return req, err
	}
	defer cancel()
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	target, err := l.Items.GetForUpdateTx(ctx, tx, targetItemID)
	if err != nil {
		if err == repository.ErrItemNotFound {
			return req, &NotFoundError{Kind: "item", ID: fmt.Sprint(targetItemID)}
		}
		return req, err
	}
	if target.OwnerID == requesterID {
		return req, &UnauthorizedError{ActorID: requesterID, Action: "request their own item"}
	}
	if target.Status != model.ItemStatusAvailable {
		return req, ErrItemNotAvailable
	}

	offered := make([]model.OfferedItem, 0, len(unique))
	offeredCosts := make([]uint32, 0, len(unique))
	for _, id := range unique {
		it, err := l.Items.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			if err == repository.ErrItemNotFound {
				return req, &NotFoundError{Kind: "item", ID: fmt.Sprint(id)}
			}
			return req, err
		}
		if it.OwnerID != requesterID {
			return req, &UnauthorizedError{ActorID: requesterID, Action: "offer an item they do not own"}
		}
		if it.Status != model.ItemStatusAvailable {
			return req, ErrItemNotAvailable
		}
		offered = append(offered, model.OfferedItem{ItemID: it.ID, Title: it.Title, PointsCost: it.PointsCost})
		offeredCosts = append(offeredCosts, it.PointsCost)
	}

	req = model.SwapRequest{
		RequesterID:      requesterID,
		TargetItemID:     target.ID,
		TargetOwnerID:    target.OwnerID,
		TargetItemTitle:  target.Title,
		PointsDifference: PointsDifference(target.PointsCost, offeredCosts),
		Message:          message,
		Status:           model.SwapStatusProposed,
		OfferedItems:     offered,
	}
	if err := l.Swaps.CreateTx(ctx, tx, &req); err != nil {
		return req, err
	}
	if message != "" {
		msg := model.ChatMessage{RequestID: req.ID, SenderID: requesterID, Body: message, Kind: model.ChatKindText}
		if err := l.Swaps.AppendMessageTx(ctx, tx, &msg); err != nil {
			return req, err
		}
	}
	if err := tx.Commit(); err != nil {
		return req, err
	}
	committed = true
	return req, nil
}

// systemNote is the chat narration appended on each status change.
var systemNote = map[string]string{
	model.SwapStatusAccepted:  "Swap request accepted",
	model.SwapStatusRejected:  "Swap request rejected",
	model.SwapStatusShipped:   "Items marked as shipped",
	model.SwapStatusDelivered: "Items marked as delivered",
	model.SwapStatusCompleted: "Swap completed",
}

// UpdateSwapStatus applies one step of the swap lifecycle on behalf
// of actorID.  The legal transitions form a strict chain; anything
// else fails with InvalidTransitionError and mutates nothing.
//
// Role rules: only the target item's owner decides proposed →
// accepted/rejected (the requester deciding their own proposal is
// Unauthorized).  Either party may advance shipped and delivered, but
// completed requires the party that did not mark delivery, so both
// sides confirm the exchange before it closes.  Every applied
// transition appends a system chat message.
//
// Acceptance is the point where items leave the market: the target
// and every offered item are locked, re-checked for availability and
// flipped to reserved.  Rejection touches no item status, since a
// proposal never held any.  Completion flips the reserved set to
// swapped.
func (l *Ledger) UpdateSwapStatus(ctx context.Context, requestID, actorID uint64, newStatus string) (model.SwapRequest, error) {
	var req model.SwapRequest
	tx, cancel, err := l.begin(ctx)
	if err != nil {
		return req, err
	}
	defer cancel()
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	req, err = l.Swaps.GetForUpdateTx(ctx, tx, requestID)
	if err != nil {
		if err == repository.ErrSwapNotFound {
			return req, &NotFoundError{Kind: "swap request", ID: fmt.Sprint(requestID)}
		}
		return req, err
	}
	if actorID != req.RequesterID && actorID != req.TargetOwnerID {
		return req, &UnauthorizedError{ActorID: actorID, Action: "act on a swap they are not part of"}
	}
	if !CanTransitionSwap(req.Status, newStatus) {
		return req, &InvalidTransitionError{From: req.Status, To: newStatus}
	}

	switch newStatus {
	case model.SwapStatusAccepted, model.SwapStatusRejected:
		// The recipient decides; the requester may not accept or
		// reject their own proposal.
		if actorID != req.TargetOwnerID {
			return req, &UnauthorizedError{ActorID: actorID, Action: "decide their own swap request"}
		}
	case model.SwapStatusDelivered:
		if err := l.Swaps.SetDeliveredByTx(ctx, tx, req.ID, actorID); err != nil {
			return req, err
		}
	case model.SwapStatusCompleted:
		if req.DeliveredBy != nil && *req.DeliveredBy == actorID {
			return req, &UnauthorizedError{ActorID: actorID, Action: "confirm a delivery they reported themselves"}
		}
	}

	if err := l.Swaps.UpdateStatusTx(ctx, tx, req.ID, newStatus); err != nil {
		return req, err
	}

	itemIDs := make([]uint64, 0, len(req.OfferedItems)+1)
	itemIDs = append(itemIDs, req.TargetItemID)
	for _, oi := range req.OfferedItems {
		itemIDs = append(itemIDs, oi.ItemID)
	}
	switch newStatus {
	case model.SwapStatusAccepted:
		// Any of the items may have been redeemed or swapped away
		// since the proposal, so each is locked and re-checked before
		// the whole set is reserved.
		for _, id := range itemIDs {
			it, err := l.Items.GetForUpdateTx(ctx, tx, id)
			if err != nil {
				if err == repository.ErrItemNotFound {
					return req, &NotFoundError{Kind: "item", ID: fmt.Sprint(id)}
				}
				return req, err
			}
			if it.Status != model.ItemStatusAvailable {
				return req, ErrItemNotAvailable
			}
		}
		if err := l.Items.BulkUpdateStatusTx(ctx, tx, itemIDs, model.ItemStatusReserved); err != nil {
			return req, err
		}
	case model.SwapStatusCompleted:
		if err := l.Items.BulkUpdateStatusTx(ctx, tx, itemIDs, model.ItemStatusSwapped); err != nil {
			return req, err
		}
	}

	note := model.ChatMessage{RequestID: req.ID, SenderID: actorID, Body: systemNote[newStatus], Kind: model.ChatKindSystem}
	if err := l.Swaps.AppendMessageTx(ctx, tx, &note); err != nil {
		return req, err
	}

	if err := tx.Commit(); err != nil {
		return req, err
	}
	committed = true
	req.Status = newStatus
	return req, nil
}

// SendChatMessage appends a text message from senderID to the
// request's thread.  Only the two parties may write, and only while
// the request is not terminal; rejected and completed threads are
// read-only.
func (l *Ledger) SendChatMessage(ctx context.Context, requestID, senderID uint64, text string) (model.ChatMessage, error) {
	var msg model.ChatMessage
	if text == "" {
		return msg, fmt.Errorf("message text is required")
	}
	tx, cancel, err := l.begin(ctx)
	if err != nil {
		return msg, err
	}
	defer cancel()
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	req, err := l.Swaps.GetForUpdateTx(ctx, tx, requestID)
	if err != nil {
		if err == repository.ErrSwapNotFound {
			return msg, &NotFoundError{Kind: "swap request", ID: fmt.Sprint(requestID)}
		}
		return msg, err
	}
	if senderID != req.RequesterID && senderID != req.TargetOwnerID {
		return msg, &UnauthorizedError{ActorID: senderID, Action: "chat on a swap they are not part of"}
	}
	if SwapTerminal(req.Status) {
		return msg, &InvalidTransitionError{From: req.Status, To: "chat"}
	}

	msg = model.ChatMessage{RequestID: requestID, SenderID: senderID, Body: text, Kind: model.ChatKindText}
	if err := l.Swaps.AppendMessageTx(ctx, tx, &msg); err != nil {
		return msg, err
	}
	if err := tx.Commit(); err != nil {
		return msg, err
	}
	committed = true
	return msg, nil
}

// UpdateCategoryPoints overwrites the point value future approvals of
// a category will earn.  Admin only; the value must be positive.
// Items approved earlier keep their price.
func (l *Ledger) UpdateCategoryPoints(ctx context.Context, actor model.User, category string, points uint32) error {
	if actor.Role != model.RoleAdmin {
		return &UnauthorizedError{ActorID: actor.ID, Action: "update category points"}
	}
	if category == "" || points == 0 {
		return fmt.Errorf("category and a positive points value are required")
	}
	return l.Categories.Upsert(ctx, category, points)
}

// ApproveItem moves a pending item into the catalog.  The item is
// priced with the category value as it stands right now, and the same
// value is credited to the uploader's balance; points are earned by
// listing approved items.  Returns the awarded value.
func (l *Ledger) ApproveItem(ctx context.Context, actor model.User, itemID uint64) (uint32, error) {
	if actor.Role != model.RoleAdmin {
		return 0, &UnauthorizedError{ActorID: actor.ID, Action: "approve items"}
	}
	tx, cancel, err := l.begin(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	item, err := l.Items.GetForUpdateTx(ctx, tx, itemID)
	if err != nil {
		if err == repository.ErrItemNotFound {
			return 0, &NotFoundError{Kind: "item", ID: fmt.Sprint(itemID)}
		}
		return 0, err
	}
	if item.Status != model.ItemStatusPending {
		return 0, &InvalidTransitionError{From: item.Status, To: model.ItemStatusAvailable}
	}
	value, err := l.Categories.GetTx(ctx, tx, item.Category)
	if err != nil {
		if err == repository.ErrCategoryNotFound {
			return 0, &NotFoundError{Kind: "category", ID: item.Category}
		}
		return 0, err
	}
	if err := l.Items.ApproveTx(ctx, tx, itemID, value); err != nil {
		return 0, err
	}
	if err := l.Users.CreditPointsTx(ctx, tx, item.OwnerID, value); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return value, nil
}

// RejectItem removes a pending upload from the moderation queue.
// Items that ever reached the catalog cannot be rejected.
func (l *Ledger) RejectItem(ctx context.Context, actor model.User, itemID uint64) error {
	if actor.Role != model.RoleAdmin {
		return &UnauthorizedError{ActorID: actor.ID, Action: "reject items"}
	}
	item, err := l.Items.GetByID(ctx, itemID)
	if err != nil {
		if err == repository.ErrItemNotFound {
			return &NotFoundError{Kind: "item", ID: fmt.Sprint(itemID)}
		}
		return err
	}
	if item.Status != model.ItemStatusPending {
		return &InvalidTransitionError{From: item.Status, To: "rejected"}
	}
	return l.Items.Delete(ctx, itemID)
}
