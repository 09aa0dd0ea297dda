package model

import (
	"errors"
	"time"
)

// Item represents a garment listed for exchange.  It corresponds to a
// row in the `items` table.  Images and tags live in the item_images
// and item_tags child tables and are loaded by the repository.
//
// An item enters the catalog in status "pending" and becomes
// "available" only after an administrator approves it; approval also
// assigns the points cost from the category table and credits the
// uploader's balance.  Status transitions are one-directional except
// "reserved" → "available", which releases an item whose claim fell
// through.  An item whose status is not "available" must not be
// offered in a new swap or redemption.
//
// Fields:
//  ID            – primary key identifier.
//  OwnerID       – user who uploaded the item.
//  Title         – short listing title.
//  Description   – free-form description.
//  Category      – pricing category (must exist in category_points).
//  Type          – garment type within the category (e.g. "Jacket").
//  Size          – label size (e.g. "M").
//  Condition     – condition grade (e.g. "Excellent").
//  Specs         – structured specification record.
//  PointsCost    – cost in points, assigned at approval time.
//  Status        – lifecycle status (pending, available, reserved, swapped).
//  IsNGODonation – item is intended for charitable transfer, not points.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Item struct {
	ID            uint64             // items.id
	OwnerID       uint64             // items.owner_id
	Title         string             // items.title
	Description   string             // items.description
	Category      string             // items.category
	Type          string             // items.type
	Size          string             // items.size
	Condition     string             // items.condition
	Specs         ItemSpecifications // items.spec_* columns
	PointsCost    uint32             // items.points_cost
	Status        string             // items.status
	IsNGODonation bool               // items.is_ngo_donation
	CreatedAt     time.Time          // items.created_at
	UpdatedAt     time.Time          // items.updated_at

	Tags   []string    // item_tags.tag, ordered by insertion
	Images []ItemImage // item_images rows, ordered by position
}

// Item lifecycle statuses stored in items.status.
const (
	ItemStatusPending   = "pending"
	ItemStatusAvailable = "available"
	ItemStatusReserved  = "reserved"
	ItemStatusSwapped   = "swapped"
)

// ItemImage is a single image attached to an item.  The first image
// with IsMain set is used as the listing thumbnail.
//
// Fields:
//  ID       – primary key identifier.
//  ItemID   – owning item.
//  URL      – public URL of the stored image.
//  IsMain   – whether this image is the listing thumbnail.
//  Position – ordering index within the gallery.
type ItemImage struct {
	ID       uint64 // item_images.id
	ItemID   uint64 // item_images.item_id
	URL      string // item_images.url
	IsMain   bool   // item_images.is_main
	Position int    // item_images.position
}

// ItemSpecifications is the structured spec record of a garment.
// Every field is optional except Color.  The zero value is not a
// valid specification; construct one with NewItemSpecifications so
// the color invariant holds from the start.
type ItemSpecifications struct {
	Brand            string `json:"brand,omitempty"`
	Material         string `json:"material,omitempty"`
	Color            string `json:"color"`
	Pattern          string `json:"pattern,omitempty"`
	Fit              string `json:"fit,omitempty"`
	Occasion         string `json:"occasion,omitempty"`
	Season           string `json:"season,omitempty"`
	CareInstructions string `json:"care_instructions,omitempty"`
}

// ErrColorRequired is returned when a specification is constructed
// without a color.
var ErrColorRequired = errors.New("specification color is required")

// SpecOption sets one optional field on an ItemSpecifications under
// construction.  Options replace the ad-hoc partial merges of earlier
// iterations with explicit setters over a fixed struct.
type SpecOption func(*ItemSpecifications)

// WithBrand sets the brand field.
func WithBrand(v string) SpecOption { return func(s *ItemSpecifications) { s.Brand = v } }

// WithMaterial sets the material field.
func WithMaterial(v string) SpecOption { return func(s *ItemSpecifications) { s.Material = v } }

// WithPattern sets the pattern field.
func WithPattern(v string) SpecOption { return func(s *ItemSpecifications) { s.Pattern = v } }

// WithFit sets the fit field.
func WithFit(v string) SpecOption { return func(s *ItemSpecifications) { s.Fit = v } }

// WithOccasion sets the occasion field.
func WithOccasion(v string) SpecOption { return func(s *ItemSpecifications) { s.Occasion = v } }

// WithSeason sets the season field.
func WithSeason(v string) SpecOption { return func(s *ItemSpecifications) { s.Season = v } }

// WithCareInstructions sets the care instructions text.
func WithCareInstructions(v string) SpecOption {
	return func(s *ItemSpecifications) { s.CareInstructions = v }
}

// NewItemSpecifications builds a specification record.  Color is the
// only required field; all other fields are supplied through options.
// An empty color yields ErrColorRequired.
func NewItemSpecifications(color string, opts ...SpecOption) (ItemSpecifications, error) {
	if color == "" {
		return ItemSpecifications{}, ErrColorRequired
	}
	s := ItemSpecifications{Color: color}
	for _, opt := range opts {
		opt(&s)
	}
	return s, nil
}

// UploaderInfo carries the denormalized display fields of an item's
// uploader that public listings embed.  They are resolved from the
// users table at read time, never stored on the item row.
type UploaderInfo struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
}
