package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/rewear-exchange/internal/model"
)

// CategoryPointsRepo manages the category_points table: the point
// value newly-approved items of each category earn.  Values are read
// at approval time; editing a value never touches items that were
// already priced.
type CategoryPointsRepo struct {
	db *sql.DB
}

// NewCategoryPointsRepo returns a repo bound to the given database.
func NewCategoryPointsRepo(db *sql.DB) *CategoryPointsRepo {
	return &CategoryPointsRepo{db: db}
}

// All returns the full category → points mapping.
func (r *CategoryPointsRepo) All(ctx context.Context) (model.CategoryPoints, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT category, points FROM category_points ORDER BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := model.CategoryPoints{}
	for rows.Next() {
		var cat string
		var pts uint32
		if err := rows.Scan(&cat, &pts); err != nil {
			return nil, err
		}
		out[cat] = pts
	}
	return out, rows.Err()
}

// Get returns the point value of one category.
func (r *CategoryPointsRepo) Get(ctx context.Context, category string) (uint32, error) {
	var pts uint32
	err := r.db.QueryRowContext(ctx,
		"SELECT points FROM category_points WHERE category=? LIMIT 1", category).Scan(&pts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCategoryNotFound
	}
	return pts, err
}

// GetTx is Get inside an existing transaction.  Approval reads the
// category value through the same transaction that prices the item
// and credits the uploader.
func (r *CategoryPointsRepo) GetTx(ctx context.Context, tx *sql.Tx, category string) (uint32, error) {
	var pts uint32
	err := tx.QueryRowContext(ctx,
		"SELECT points FROM category_points WHERE category=? LIMIT 1", category).Scan(&pts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCategoryNotFound
	}
	return pts, err
}

// Upsert overwrites (or creates) the point value of a category.
func (r *CategoryPointsRepo) Upsert(ctx context.Context, category string, points uint32) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_points (category, points) VALUES (?,?)
		ON DUPLICATE KEY UPDATE points = VALUES(points)`,
		category, points)
	return err
}
