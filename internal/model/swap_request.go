package model

import "time"

// SwapRequest records a barter proposal: one or more items owned by
// the requester offered against a single target item owned by another
// user.  It corresponds to a row in the `swap_requests` table; the
// offered items live in the swap_request_items child table.
//
// The target and offered item titles are snapshots taken at proposal
// time.  This is deliberate: swap history must reflect the items as
// they were proposed even if a listing is later edited or removed.
//
// PointsDifference is advisory.  A positive value means the requester
// is offering less value than the target item costs and would owe the
// difference; a negative value means the requester is offering more.
// Settlement of the difference is negotiated in chat, never enforced.
//
// Fields:
//  ID               – primary key identifier.
//  RequesterID      – user who proposed the swap.
//  TargetItemID     – the item the requester wants.
//  TargetOwnerID    – owner of the target item (decides accept/reject).
//  TargetItemTitle  – title snapshot of the target item.
//  PointsDifference – target cost minus the sum of offered costs.
//  Message          – free-text note attached at proposal time.
//  Status           – lifecycle status, see the Swap* constants.
//  TrackingNumber   – carrier reference, set after acceptance.
//  RequesterAddress – requester's shipping address, set after acceptance.
//  TargetAddress    – target owner's shipping address, set after acceptance.
//  DeliveredBy      – which party marked the request delivered (nullable).
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – timestamp of the last status change or message.
type SwapRequest struct {
	ID               uint64     // swap_requests.id
	RequesterID      uint64     // swap_requests.requester_id
	TargetItemID     uint64     // swap_requests.target_item_id
	TargetOwnerID    uint64     // swap_requests.target_owner_id
	TargetItemTitle  string     // swap_requests.target_item_title
	PointsDifference int64      // swap_requests.points_difference
	Message          string     // swap_requests.message
	Status           string     // swap_requests.status
	TrackingNumber   *string    // swap_requests.tracking_number (nullable)
	RequesterAddress *string    // swap_requests.requester_address (nullable)
	TargetAddress    *string    // swap_requests.target_address (nullable)
	DeliveredBy      *uint64    // swap_requests.delivered_by (nullable)
	CreatedAt        time.Time  // swap_requests.created_at
	UpdatedAt        time.Time  // swap_requests.updated_at

	OfferedItems []OfferedItem // swap_request_items rows
}

// Swap request lifecycle statuses.  The legal transitions form a
// strict chain: proposed → accepted | rejected, then
// accepted → shipped → delivered → completed.
const (
	SwapStatusProposed  = "proposed"
	SwapStatusAccepted  = "accepted"
	SwapStatusRejected  = "rejected"
	SwapStatusShipped   = "shipped"
	SwapStatusDelivered = "delivered"
	SwapStatusCompleted = "completed"
)

// OfferedItem is one entry of a swap request's offered list.  Title
// and points cost are snapshots taken when the request was created.
//
// Fields:
//  ID         – primary key identifier.
//  RequestID  – owning swap request.
//  ItemID     – the offered item.
//  Title      – title snapshot at proposal time.
//  PointsCost – cost snapshot at proposal time.
type OfferedItem struct {
	ID         uint64 // swap_request_items.id
	RequestID  uint64 // swap_request_items.request_id
	ItemID     uint64 // swap_request_items.item_id
	Title      string // swap_request_items.title
	PointsCost uint32 // swap_request_items.points_cost
}

// ChatMessage is a single entry of the conversation attached to a
// swap request.  Messages are append-only and never deleted.  Rows of
// kind "system" narrate status changes and carry no sender identity
// beyond the actor who triggered the transition.
//
// Fields:
//  ID        – primary key identifier.
//  RequestID – owning swap request.
//  SenderID  – authoring user.
//  Body      – message text.
//  Kind      – "text" for user messages, "system" for status narration.
//  CreatedAt – server-assigned timestamp.
type ChatMessage struct {
	ID        uint64    // chat_messages.id
	RequestID uint64    // chat_messages.request_id
	SenderID  uint64    // chat_messages.sender_id
	Body      string    // chat_messages.body
	Kind      string    // chat_messages.kind
	CreatedAt time.Time // chat_messages.created_at
}

// Chat message kinds stored in chat_messages.kind.
const (
	ChatKindText   = "text"
	ChatKindSystem = "system"
)
