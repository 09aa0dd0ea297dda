package repository

import (
	"context"
	"strings"
)

// ItemSearchQuery defines filters & pagination for browsing the catalog.
type ItemSearchQuery struct {
	Text      string // matches title, description and tags
	Category  string
	Size      string
	Condition string
	NGOOnly   bool
	Sort      string // newest | oldest | points_asc | points_desc
	Page      int
	PageSize  int
}

// PublicItemRow is the flattened listing shape returned to browsers.
// Uploader fields are resolved by join so guests see the display name
// and city without an extra round trip.
type PublicItemRow struct {
	ID            uint64 `json:"id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	Size          string `json:"size"`
	Condition     string `json:"condition"`
	PointsCost    uint32 `json:"points_cost"`
	IsNGODonation bool   `json:"is_ngo_donation"`
	UploaderID    uint64 `json:"uploader_id"`
	UploaderName  string `json:"uploader_name"`
	UploaderCity  string `json:"uploader_city"`
	UploaderState string `json:"uploader_state"`
	ImageURL      string `json:"image_url,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// SearchAvailable returns the page of available items matching q plus
// the total match count.  Only status "available" rows are browsable;
// pending, reserved and swapped items never appear in search results.
func (r *ItemRepo) SearchAvailable(ctx context.Context, q ItemSearchQuery) ([]PublicItemRow, int64, error) {
	where := []string{"i.status = 'available'"}
	args := []any{}

	if q.Text != "" {
		needle := "%" + strings.ToLower(q.Text) + "%"
		where = append(where, `(LOWER(i.title) LIKE ? OR LOWER(i.description) LIKE ?
			OR EXISTS (SELECT 1 FROM item_tags t WHERE t.item_id = i.id AND LOWER(t.tag) LIKE ?))`)
		args = append(args, needle, needle, needle)
	}
	if q.Category != "" {
		where = append(where, "i.category = ?")
		args = append(args, q.Category)
	}
	if q.Size != "" {
		where = append(where, "i.size = ?")
		args = append(args, q.Size)
	}
	if q.Condition != "" {
		where = append(where, "i.item_condition = ?")
		args = append(args, q.Condition)
	}
	if q.NGOOnly {
		where = append(where, "i.is_ngo_donation = 1")
	}

	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*) FROM items i WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "i.created_at DESC"
	switch q.Sort {
	case "oldest":
		order = "i.created_at ASC"
	case "points_asc":
		order = "i.points_cost ASC"
	case "points_desc":
		order = "i.points_cost DESC"
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT
			i.id,
			i.title,
			i.category,
			i.type,
			i.size,
			i.item_condition,
			i.points_cost,
			i.is_ngo_donation,
			u.id   AS uploader_id,
			u.username,
			u.city,
			u.state,
			COALESCE((SELECT url FROM item_images im WHERE im.item_id = i.id ORDER BY im.is_main DESC, im.position ASC LIMIT 1), ''),
			DATE_FORMAT(i.created_at, '%Y-%m-%dT%H:%i:%sZ')
		FROM items i
		JOIN users u ON u.id = i.owner_id
		WHERE ` + cond + `
		ORDER BY ` + order + `
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, dataSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicItemRow, 0, limit)
	for rows.Next() {
		var row PublicItemRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Category, &row.Type, &row.Size,
			&row.Condition, &row.PointsCost, &row.IsNGODonation,
			&row.UploaderID, &row.UploaderName, &row.UploaderCity, &row.UploaderState,
			&row.ImageURL, &row.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}
