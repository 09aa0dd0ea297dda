// Package ledger implements the exchange accounting core: cost
// computation, point redemption, swap matching and the category
// points table.  It holds no process-wide state; all persistence goes
// through the repository layer and every mutating operation executes
// as a single database transaction.
package ledger

import (
	"errors"
	"fmt"
)

// InsufficientPointsError reports that a redemption cannot proceed
// because the user's balance does not cover the total cost.  The
// operation leaves balance and item untouched; callers can prompt a
// top-up and retry.
type InsufficientPointsError struct {
	Required  uint32 // total points the operation needs
	Available uint32 // the user's current balance
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: need %d, have %d", e.Required, e.Available)
}

// Deficit returns how many points the user is short.
func (e *InsufficientPointsError) Deficit() uint32 {
	if e.Available >= e.Required {
		return 0
	}
	return e.Required - e.Available
}

// InvalidTransitionError reports a lifecycle change that the status
// machine does not permit.  No state is mutated.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// UnauthorizedError reports that the actor lacks the role or
// relationship an operation requires, e.g. a requester accepting
// their own swap proposal or a non-admin editing category points.
type UnauthorizedError struct {
	ActorID uint64
	Action  string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("user %d is not allowed to %s", e.ActorID, e.Action)
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Kind string // "item", "user", "swap request", "category"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ErrBackendUnavailable signals that the backing store could not be
// reached after the retry budget was exhausted.  The failure is
// transient; callers may retry the whole operation.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrItemNotAvailable is returned when an operation needs an item in
// status "available" but found it pending, reserved or swapped.
var ErrItemNotAvailable = errors.New("item is not available")
