package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/rewear-exchange/internal/model"
)

// SwapRepo provides CRUD operations for swap requests, their offered
// item snapshots and the attached chat thread.  Requests are never
// deleted; they only move along their status chain.  All timestamp
// fields are stored in UTC.
type SwapRepo struct {
	db *sql.DB
}

// NewSwapRepo returns a new SwapRepo bound to the given database.
func NewSwapRepo(db *sql.DB) *SwapRepo { return &SwapRepo{db: db} }

// DB exposes the underlying handle so the ledger can begin
// transactions spanning items, users and swaps.
func (r *SwapRepo) DB() *sql.DB { return r.db }

const swapColumns = `id, requester_id, target_item_id, target_owner_id, target_item_title,
		points_difference, message, status, tracking_number, requester_address, target_address,
		delivered_by, created_at, updated_at`

// CreateTx inserts a swap request with its offered item snapshots
// inside tx.  The generated ID is populated on the passed request.
// The caller must commit or roll back the transaction.
func (r *SwapRepo) CreateTx(ctx context.Context, tx *sql.Tx, req *model.SwapRequest) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO swap_requests (requester_id, target_item_id, target_owner_id, target_item_title,
			points_difference, message, status)
		VALUES (?,?,?,?,?,?,?)`,
		req.RequesterID, req.TargetItemID, req.TargetOwnerID, req.TargetItemTitle,
		req.PointsDifference, req.Message, req.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	if len(req.OfferedItems) > 0 {
		query := `INSERT INTO swap_request_items (request_id, item_id, title, points_cost) VALUES `
		args := make([]interface{}, 0, len(req.OfferedItems)*4)
		for i, oi := range req.OfferedItems {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?)"
			args = append(args, req.ID, oi.ItemID, oi.Title, oi.PointsCost)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func scanSwap(row interface{ Scan(...interface{}) error }) (model.SwapRequest, error) {
	var req model.SwapRequest
	err := row.Scan(&req.ID, &req.RequesterID, &req.TargetItemID, &req.TargetOwnerID,
		&req.TargetItemTitle, &req.PointsDifference, &req.Message, &req.Status,
		&req.TrackingNumber, &req.RequesterAddress, &req.TargetAddress,
		&req.DeliveredBy, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return req, ErrSwapNotFound
	}
	return req, err
}

// GetByID fetches a request with its offered items.
func (r *SwapRepo) GetByID(ctx context.Context, id uint64) (model.SwapRequest, error) {
	req, err := scanSwap(r.db.QueryRowContext(ctx,
		"SELECT "+swapColumns+" FROM swap_requests WHERE id=? LIMIT 1", id))
	if err != nil {
		return req, err
	}
	if err := r.attachOffered(ctx, &req); err != nil {
		return req, err
	}
	return req, nil
}

// GetForUpdateTx fetches the request row inside tx with a row lock
// and loads its offered items.  The ledger locks requests this way
// before validating and applying a status transition.
func (r *SwapRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.SwapRequest, error) {
	req, err := scanSwap(tx.QueryRowContext(ctx,
		"SELECT "+swapColumns+" FROM swap_requests WHERE id=? LIMIT 1 FOR UPDATE", id))
	if err != nil {
		return req, err
	}
	rows, err := tx.QueryContext(ctx,
		"SELECT id, request_id, item_id, title, points_cost FROM swap_request_items WHERE request_id=? ORDER BY id", id)
	if err != nil {
		return req, err
	}
	defer rows.Close()
	for rows.Next() {
		var oi model.OfferedItem
		if err := rows.Scan(&oi.ID, &oi.RequestID, &oi.ItemID, &oi.Title, &oi.PointsCost); err != nil {
			return req, err
		}
		req.OfferedItems = append(req.OfferedItems, oi)
	}
	return req, rows.Err()
}

func (r *SwapRepo) attachOffered(ctx context.Context, req *model.SwapRequest) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, request_id, item_id, title, points_cost FROM swap_request_items WHERE request_id=? ORDER BY id", req.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var oi model.OfferedItem
		if err := rows.Scan(&oi.ID, &oi.RequestID, &oi.ItemID, &oi.Title, &oi.PointsCost); err != nil {
			return err
		}
		req.OfferedItems = append(req.OfferedItems, oi)
	}
	return rows.Err()
}

// UpdateStatusTx writes a new status inside tx and refreshes
// updated_at.
func (r *SwapRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE swap_requests SET status=?, updated_at=? WHERE id=?",
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrSwapNotFound
	}
	return err
}

// SetDeliveredByTx records which party marked the request delivered.
// Completion requires the other party to confirm, so the ledger
// consults this column before allowing delivered → completed.
func (r *SwapRepo) SetDeliveredByTx(ctx context.Context, tx *sql.Tx, id, actorID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE swap_requests SET delivered_by=? WHERE id=?", actorID, id)
	return err
}

// SetShipping writes the post-acceptance shipping fields.  Only the
// two parties may call this; the handler checks the relationship.
func (r *SwapRepo) SetShipping(ctx context.Context, id uint64, requesterAddr, targetAddr, tracking *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE swap_requests SET
			requester_address = COALESCE(?, requester_address),
			target_address    = COALESCE(?, target_address),
			tracking_number   = COALESCE(?, tracking_number),
			updated_at = ?
		WHERE id=?`,
		requesterAddr, targetAddr, tracking, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrSwapNotFound
	}
	return err
}

// ListByUser returns every request the user takes part in, either as
// requester or as the target item's owner, newest activity first.
// Offered items are attached to each row.
func (r *SwapRepo) ListByUser(ctx context.Context, userID uint64) ([]model.SwapRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+swapColumns+" FROM swap_requests WHERE requester_id=? OR target_owner_id=? ORDER BY updated_at DESC",
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SwapRequest
	for rows.Next() {
		req, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.attachOffered(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AppendMessageTx inserts a chat message inside tx with a
// server-assigned timestamp and bumps the request's updated_at.  The
// generated ID and timestamp are populated on the passed message.
func (r *SwapRepo) AppendMessageTx(ctx context.Context, tx *sql.Tx, msg *model.ChatMessage) error {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO chat_messages (request_id, sender_id, body, kind, created_at) VALUES (?,?,?,?,?)",
		msg.RequestID, msg.SenderID, msg.Body, msg.Kind, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	msg.ID = uint64(id)
	msg.CreatedAt = now
	_, err = tx.ExecContext(ctx,
		"UPDATE swap_requests SET updated_at=? WHERE id=?", now, msg.RequestID)
	return err
}

// ListMessages returns the chat thread of a request in send order.
func (r *SwapRepo) ListMessages(ctx context.Context, requestID uint64) ([]model.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, request_id, sender_id, body, kind, created_at FROM chat_messages WHERE request_id=? ORDER BY created_at ASC, id ASC",
		requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.RequestID, &m.SenderID, &m.Body, &m.Kind, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
