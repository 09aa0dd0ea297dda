// Package queue defines message payloads exchanged over the message broker.
package queue

// SwapStatusChangedEvent is published on every applied swap status
// transition.  It carries enough information for downstream consumers
// to log or notify both parties without querying the primary database.
type SwapStatusChangedEvent struct {
	RequestID       uint64 `json:"request_id"`
	RequesterID     uint64 `json:"requester_id"`
	TargetOwnerID   uint64 `json:"target_owner_id"`
	TargetItemID    uint64 `json:"target_item_id"`
	TargetItemTitle string `json:"target_item_title"`
	Status          string `json:"status"`
	ChangedBy       uint64 `json:"changed_by"`
	ChangedAt       string `json:"changed_at"`
}

// ItemRedeemedEvent is published when a redemption commits.  The
// reference matches the one handed to the client so fulfillment can
// correlate both sides.
type ItemRedeemedEvent struct {
	Reference  string `json:"reference"`
	UserID     uint64 `json:"user_id"`
	ItemID     uint64 `json:"item_id"`
	ItemCost   uint32 `json:"item_cost"`
	Surcharge  uint32 `json:"surcharge"`
	TotalDebit uint32 `json:"total_debit"`
	RedeemedAt string `json:"redeemed_at"`
}
