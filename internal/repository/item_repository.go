package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/rewear-exchange/internal/model"
)

// ItemRepo provides CRUD operations for items and their child tables
// (item_images, item_tags).  The structured specification record is
// flattened into spec_* columns on the items row, keeping reads to a
// single statement.  Status changes used by the ledger are exposed as
// Tx variants so they can share a transaction with balance updates.
type ItemRepo struct {
	db *sql.DB
}

// NewItemRepo returns a new ItemRepo bound to the given database.
func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions
// spanning multiple repositories.
func (r *ItemRepo) DB() *sql.DB { return r.db }

const itemColumns = `id, owner_id, title, description, category, type, size, item_condition,
		spec_brand, spec_material, spec_color, spec_pattern, spec_fit, spec_occasion, spec_season, spec_care,
		points_cost, status, is_ngo_donation, created_at, updated_at`

// Create inserts a new item in status "pending" together with its
// tags and images.  The points cost is left at zero; it is assigned
// from the category table when an administrator approves the item.
// The generated ID is populated on the passed item.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO items (owner_id, title, description, category, type, size, item_condition,
			spec_brand, spec_material, spec_color, spec_pattern, spec_fit, spec_occasion, spec_season, spec_care,
			points_cost, status, is_ngo_donation)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		it.OwnerID, it.Title, it.Description, it.Category, it.Type, it.Size, it.Condition,
		it.Specs.Brand, it.Specs.Material, it.Specs.Color, it.Specs.Pattern, it.Specs.Fit,
		it.Specs.Occasion, it.Specs.Season, it.Specs.CareInstructions,
		0, model.ItemStatusPending, it.IsNGODonation)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	it.Status = model.ItemStatusPending
	if len(it.Tags) > 0 {
		query := `INSERT INTO item_tags (item_id, tag) VALUES `
		args := make([]interface{}, 0, len(it.Tags)*2)
		for i, t := range it.Tags {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, it.ID, t)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if len(it.Images) > 0 {
		query := `INSERT INTO item_images (item_id, url, is_main, position) VALUES `
		args := make([]interface{}, 0, len(it.Images)*4)
		for i, img := range it.Images {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?)"
			args = append(args, it.ID, img.URL, img.IsMain, img.Position)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func scanItem(row interface{ Scan(...interface{}) error }) (model.Item, error) {
	var it model.Item
	err := row.Scan(&it.ID, &it.OwnerID, &it.Title, &it.Description, &it.Category, &it.Type,
		&it.Size, &it.Condition,
		&it.Specs.Brand, &it.Specs.Material, &it.Specs.Color, &it.Specs.Pattern,
		&it.Specs.Fit, &it.Specs.Occasion, &it.Specs.Season, &it.Specs.CareInstructions,
		&it.PointsCost, &it.Status, &it.IsNGODonation, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return it, ErrItemNotFound
	}
	return it, err
}

// GetByID fetches an item with its tags and images.
func (r *ItemRepo) GetByID(ctx context.Context, id uint64) (model.Item, error) {
	it, err := scanItem(r.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id=? LIMIT 1", id))
	if err != nil {
		return it, err
	}
	if err := r.attachChildren(ctx, &it); err != nil {
		return it, err
	}
	return it, nil
}

// GetForUpdateTx fetches the item row inside tx with a row lock,
// without tags or images.  The ledger locks items this way before
// checking and changing their status, so two concurrent redemptions
// cannot both claim the same item.
func (r *ItemRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Item, error) {
	return scanItem(tx.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id=? LIMIT 1 FOR UPDATE", id))
}

func (r *ItemRepo) attachChildren(ctx context.Context, it *model.Item) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT tag FROM item_tags WHERE item_id=? ORDER BY id", it.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return err
		}
		it.Tags = append(it.Tags, t)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	imgRows, err := r.db.QueryContext(ctx,
		"SELECT id, item_id, url, is_main, position FROM item_images WHERE item_id=? ORDER BY position", it.ID)
	if err != nil {
		return err
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var img model.ItemImage
		if err := imgRows.Scan(&img.ID, &img.ItemID, &img.URL, &img.IsMain, &img.Position); err != nil {
			return err
		}
		it.Images = append(it.Images, img)
	}
	return imgRows.Err()
}

// ListByOwner returns all items uploaded by a user, newest first.
func (r *ItemRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE owner_id=? ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListPending returns items awaiting moderation, oldest first, so the
// admin queue is first-come first-served.
func (r *ItemRepo) ListPending(ctx context.Context) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE status=? ORDER BY created_at ASC", model.ItemStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateStatusTx writes a new status for a single item inside tx.
func (r *ItemRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx, "UPDATE items SET status=? WHERE id=?", status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrItemNotFound
	}
	return err
}

// BulkUpdateStatusTx writes a status for several items in one
// statement inside tx.  Passing no IDs is a no-op.
func (r *ItemRepo) BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, ids []uint64, status string) error {
	if len(ids) == 0 {
		return nil
	}
	query := "UPDATE items SET status=? WHERE id IN ("
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, status)
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ApproveTx moves a pending item to "available" inside tx and prices
// it with the given cost.  The cost comes from the category points
// table as it stands at approval time; later category edits never
// reprice the item.
func (r *ItemRepo) ApproveTx(ctx context.Context, tx *sql.Tx, id uint64, pointsCost uint32) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE items SET status=?, points_cost=? WHERE id=? AND status=?",
		model.ItemStatusAvailable, pointsCost, id, model.ItemStatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrConflict
	}
	return err
}

// Delete removes an item and its child rows.  Used when moderation
// rejects an upload.  Items that ever reached the catalog are only
// status-transitioned, never deleted.
func (r *ItemRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE id=?", id)
	return err
}

// UploaderInfo resolves the denormalized display fields for an item's
// owner.
func (r *ItemRepo) UploaderInfo(ctx context.Context, ownerID uint64) (model.UploaderInfo, error) {
	var u model.UploaderInfo
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, avatar_url, city, state FROM users WHERE id=? LIMIT 1",
		ownerID).Scan(&u.ID, &u.Username, &u.AvatarURL, &u.City, &u.State)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}
