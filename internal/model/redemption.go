package model

import "time"

// Redemption records a direct points-only acquisition of an item.
// The row is written inside the same transaction that debits the
// redeemer's balance and reserves the item, so a redemption either
// fully exists or never happened.
//
// Fields:
//  ID          – primary key identifier.
//  Reference   – UUID handed to the client as the fulfillment reference.
//  UserID      – redeeming user.
//  ItemID      – redeemed item.
//  ItemCost    – item points cost at redemption time.
//  Surcharge   – intercity shipping surcharge applied (0 or 50).
//  TotalDebit  – total points debited (ItemCost + Surcharge).
//  FullName    – recipient name for shipping.
//  Phone       – recipient phone number.
//  Address     – street address.
//  City        – destination city.
//  PostalCode  – postal code.
//  CreatedAt   – creation timestamp.
type Redemption struct {
	ID         uint64    // redemptions.id
	Reference  string    // redemptions.reference (uuid)
	UserID     uint64    // redemptions.user_id
	ItemID     uint64    // redemptions.item_id
	ItemCost   uint32    // redemptions.item_cost
	Surcharge  uint32    // redemptions.surcharge
	TotalDebit uint32    // redemptions.total_debit
	FullName   string    // redemptions.full_name
	Phone      string    // redemptions.phone
	Address    string    // redemptions.address
	City       string    // redemptions.city
	PostalCode string    // redemptions.postal_code
	CreatedAt  time.Time // redemptions.created_at
}
