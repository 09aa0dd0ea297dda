package model

import "time"

// User is a row of the `users` table.  These structs stay internal to
// the repository and ledger layers; handlers shape their own response
// types with JSON tags.
//
// Points is the platform currency, earned by listing approved
// garments and spent on redemptions plus intercity shipping
// surcharges.  A committed redemption never leaves it negative.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Username     string
	AvatarURL    string
	Bio          string
	Points       uint32
	City         string // used for the same-city shipping check
	State        string
	Country      string
	Role         string
	KYCStatus    string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Roles accepted in the users.role column.  ADMIN accounts may
// moderate items, review KYC submissions and edit category points.
// NGO accounts receive items flagged as charitable donations.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
	RoleNGO   = "NGO"
)

// KYC verification states stored in users.kyc_status.
const (
	KYCNone     = "none"
	KYCPending  = "pending"
	KYCVerified = "verified"
	KYCRejected = "rejected"
)

// TrustMetrics aggregates a user's swap history.  The values are
// derived from swap_requests at read time and never stored
// authoritatively: TotalSwaps counts completed swaps, success rate is
// completed over all decided requests, Rating scales that onto 0-5.
type TrustMetrics struct {
	SwapSuccessRate float64 `json:"swap_success_rate"`
	TotalSwaps      uint32  `json:"total_swaps"`
	Rating          float64 `json:"rating"`
}
