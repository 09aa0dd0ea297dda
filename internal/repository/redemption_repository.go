package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rewear-exchange/internal/model"
)

// RedemptionRepo records points-only acquisitions.  Rows are written
// exclusively through CreateTx so a redemption always shares its
// transaction with the balance debit and the item status change.
type RedemptionRepo struct {
	db *sql.DB
}

// NewRedemptionRepo returns a repo bound to the given database.
func NewRedemptionRepo(db *sql.DB) *RedemptionRepo { return &RedemptionRepo{db: db} }

// CreateTx inserts a redemption row inside tx.  The generated ID is
// populated on the passed record.
func (r *RedemptionRepo) CreateTx(ctx context.Context, tx *sql.Tx, red *model.Redemption) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO redemptions (reference, user_id, item_id, item_cost, surcharge, total_debit,
			full_name, phone, address, city, postal_code)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		red.Reference, red.UserID, red.ItemID, red.ItemCost, red.Surcharge, red.TotalDebit,
		red.FullName, red.Phone, red.Address, red.City, red.PostalCode)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	red.ID = uint64(id)
	return nil
}

// ListByUser returns a user's redemptions, newest first.
func (r *RedemptionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Redemption, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, reference, user_id, item_id, item_cost, surcharge, total_debit,
			full_name, phone, address, city, postal_code, created_at
		FROM redemptions WHERE user_id=? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Redemption
	for rows.Next() {
		var red model.Redemption
		if err := rows.Scan(&red.ID, &red.Reference, &red.UserID, &red.ItemID,
			&red.ItemCost, &red.Surcharge, &red.TotalDebit,
			&red.FullName, &red.Phone, &red.Address, &red.City, &red.PostalCode,
			&red.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, red)
	}
	return out, rows.Err()
}
