package ledger

import "github.com/iliyamo/rewear-exchange/internal/model"

// swapChain encodes the legal swap request transitions.  The chain is
// strict: a request moves forward one stage at a time and never
// backward.  rejected and completed are terminal.
var swapChain = map[string][]string{
	model.SwapStatusProposed:  {model.SwapStatusAccepted, model.SwapStatusRejected},
	model.SwapStatusAccepted:  {model.SwapStatusShipped},
	model.SwapStatusShipped:   {model.SwapStatusDelivered},
	model.SwapStatusDelivered: {model.SwapStatusCompleted},
}

// CanTransitionSwap reports whether a swap request may move from one
// status to another.
func CanTransitionSwap(from, to string) bool {
	for _, next := range swapChain[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SwapTerminal reports whether a swap status admits no further
// transitions.  Chat is read-only once a request is terminal.
func SwapTerminal(status string) bool {
	return status == model.SwapStatusRejected || status == model.SwapStatusCompleted
}

// itemChain encodes the legal item status transitions.  pending items
// await moderation; reserved items may be released back to available
// if the claim holding them falls through.
var itemChain = map[string][]string{
	model.ItemStatusPending:   {model.ItemStatusAvailable},
	model.ItemStatusAvailable: {model.ItemStatusReserved},
	model.ItemStatusReserved:  {model.ItemStatusAvailable, model.ItemStatusSwapped},
}

// CanTransitionItem reports whether an item may move from one status
// to another.
func CanTransitionItem(from, to string) bool {
	for _, next := range itemChain[from] {
		if next == to {
			return true
		}
	}
	return false
}
