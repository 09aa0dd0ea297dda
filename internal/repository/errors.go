// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the ledger to distinguish between different failure
// scenarios. For example, ErrForbidden indicates that the current
// user is not authorized to perform an operation on a resource owned
// by someone else, while ErrConflict signals that an operation cannot
// proceed due to conflicting state (e.g. redeeming an item that was
// reserved by a concurrent request).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as offering an item that is already
// claimed by another swap. Handlers should translate this into an
// HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrItemNotFound is returned when a referenced item row does not
// exist.
var ErrItemNotFound = errors.New("item not found")

// ErrUserNotFound is returned when a referenced user row does not
// exist.
var ErrUserNotFound = errors.New("user not found")

// ErrSwapNotFound is returned when a referenced swap request row
// does not exist.
var ErrSwapNotFound = errors.New("swap request not found")

// ErrCategoryNotFound is returned when a category has no entry in
// the category_points table.
var ErrCategoryNotFound = errors.New("category not found")
