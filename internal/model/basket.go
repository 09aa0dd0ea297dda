package model

// BasketItem is one entry of a user's session basket: an item slated
// for point redemption together with a quantity counter.  Baskets are
// held in Redis keyed by user ID, expire with the session and are
// never shared across identities.  No status check happens at the
// basket layer; checkout revalidates every entry against the catalog.
//
// Fields:
//  Item     – the full catalog item, hydrated at read time.
//  Quantity – number of units slated for redemption (always >= 1).
type BasketItem struct {
	Item     Item   `json:"item"`
	Quantity uint32 `json:"quantity"`
}

// CategoryPoints maps a garment category to the point value
// newly-approved items of that category earn for their uploader.
// Mutable only by administrators; changes never reprice items that
// were approved earlier.
type CategoryPoints map[string]uint32
