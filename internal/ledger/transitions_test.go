package ledger

import (
	"testing"

	"github.com/iliyamo/rewear-exchange/internal/model"
)

func TestCanTransitionSwap(t *testing.T) {
	allowed := []struct{ from, to string }{
		{model.SwapStatusProposed, model.SwapStatusAccepted},
		{model.SwapStatusProposed, model.SwapStatusRejected},
		{model.SwapStatusAccepted, model.SwapStatusShipped},
		{model.SwapStatusShipped, model.SwapStatusDelivered},
		{model.SwapStatusDelivered, model.SwapStatusCompleted},
	}
	for _, tc := range allowed {
		if !CanTransitionSwap(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to string }{
		{model.SwapStatusProposed, model.SwapStatusShipped},
		{model.SwapStatusProposed, model.SwapStatusCompleted},
		{model.SwapStatusAccepted, model.SwapStatusRejected},
		{model.SwapStatusAccepted, model.SwapStatusProposed},
		{model.SwapStatusShipped, model.SwapStatusAccepted},
		{model.SwapStatusDelivered, model.SwapStatusShipped},
		{model.SwapStatusRejected, model.SwapStatusAccepted},
		{model.SwapStatusCompleted, model.SwapStatusProposed},
		{model.SwapStatusCompleted, model.SwapStatusCompleted},
		{"", model.SwapStatusAccepted},
	}
	for _, tc := range denied {
		if CanTransitionSwap(tc.from, tc.to) {
			t.Errorf("%s -> %s should be denied", tc.from, tc.to)
		}
	}
}

func TestSwapTerminal(t *testing.T) {
	for _, s := range []string{model.SwapStatusRejected, model.SwapStatusCompleted} {
		if !SwapTerminal(s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []string{model.SwapStatusProposed, model.SwapStatusAccepted,
		model.SwapStatusShipped, model.SwapStatusDelivered} {
		if SwapTerminal(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestCanTransitionItem(t *testing.T) {
	if !CanTransitionItem(model.ItemStatusPending, model.ItemStatusAvailable) {
		t.Errorf("pending items must be approvable")
	}
	if !CanTransitionItem(model.ItemStatusAvailable, model.ItemStatusReserved) {
		t.Errorf("available items must be reservable")
	}
	// a reservation whose claim falls through is releasable
	if !CanTransitionItem(model.ItemStatusReserved, model.ItemStatusAvailable) {
		t.Errorf("reserved items must release back to available")
	}
	if !CanTransitionItem(model.ItemStatusReserved, model.ItemStatusSwapped) {
		t.Errorf("reserved items must be able to complete")
	}
	if CanTransitionItem(model.ItemStatusSwapped, model.ItemStatusAvailable) {
		t.Errorf("swapped is terminal")
	}
	if CanTransitionItem(model.ItemStatusAvailable, model.ItemStatusPending) {
		t.Errorf("items never return to moderation")
	}
}
