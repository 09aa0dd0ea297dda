package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/rewear-exchange/internal/model"
	"github.com/iliyamo/rewear-exchange/internal/utils"
)

// UserRepo provides access to the users table.  Besides the auth
// columns it manages the profile fields (username, location, bio) and
// the points balance.  Balance mutations are only exposed as Tx
// variants so the ledger can serialize them with item status changes
// inside one transaction.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id,email,password_hash,username,avatar_url,bio,points,city,state,country,role,kyc_status,is_active,created_at,updated_at"

// SignupBonusPoints is the starting balance granted on registration.
const SignupBonusPoints uint32 = 50

// Create inserts a user and returns its ID.  New accounts start with
// the signup bonus, KYC status "none" and the given role.
func (r *UserRepo) Create(ctx context.Context, email, password, username, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, username, role, points, kyc_status) VALUES (?,?,?,?,?,?)",
		email, hash, username, role, SignupBonusPoints, model.KYCNone)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Username, &u.AvatarURL, &u.Bio,
		&u.Points, &u.City, &u.State, &u.Country, &u.Role, &u.KYCStatus,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetTx fetches a user through an existing transaction without
// locking.  The ledger uses it to read an uploader's city while the
// redeemer's row is already locked.
func (r *UserRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	return scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetForUpdateTx fetches a user inside tx with a row lock.  The
// ledger uses it to serialize balance checks with the debit that
// follows, so two concurrent redemptions cannot both pass the
// sufficiency check against the same balance.
func (r *UserRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	return scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1 FOR UPDATE", id))
}

// SetPointsTx writes a new absolute balance for the user inside tx.
// Callers must hold the row lock from GetForUpdateTx.
func (r *UserRepo) SetPointsTx(ctx context.Context, tx *sql.Tx, id uint64, points uint32) error {
	res, err := tx.ExecContext(ctx, "UPDATE users SET points=? WHERE id=?", points, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrUserNotFound
	}
	return err
}

// CreditPointsTx adds delta points to the user's balance inside tx.
// Used by item approval to grant the category value to the uploader.
func (r *UserRepo) CreditPointsTx(ctx context.Context, tx *sql.Tx, id uint64, delta uint32) error {
	res, err := tx.ExecContext(ctx, "UPDATE users SET points=points+? WHERE id=?", delta, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrUserNotFound
	}
	return err
}

// UpdateProfile writes the mutable profile fields of a user.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, username, avatarURL, bio, city, state, country string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET username=?, avatar_url=?, bio=?, city=?, state=?, country=? WHERE id=?",
		username, avatarURL, bio, city, state, country, id)
	return err
}

// SetKYCStatus moves the user's identity verification state.  The
// submission flow writes "pending"; the admin review writes the
// verdict.
func (r *UserRepo) SetKYCStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET kyc_status=?, updated_at=? WHERE id=?", status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrUserNotFound
	}
	return err
}

// ListKYCPending returns users awaiting identity review, oldest first.
func (r *UserRepo) ListKYCPending(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE kyc_status=? ORDER BY updated_at ASC", model.KYCPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Username, &u.AvatarURL, &u.Bio,
			&u.Points, &u.City, &u.State, &u.Country, &u.Role, &u.KYCStatus,
			&u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// TrustMetrics derives a user's trust figures from their swap
// history.  Success rate is completed requests over all decided
// (non-proposed) requests the user took part in; the rating scales
// the success rate onto 0–5.  A user with no history scores zero.
func (r *UserRepo) TrustMetrics(ctx context.Context, id uint64) (model.TrustMetrics, error) {
	var completed, decided uint32
	err := r.DB.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(status = 'completed'), 0),
			COALESCE(SUM(status <> 'proposed'), 0)
		FROM swap_requests
		WHERE requester_id = ? OR target_owner_id = ?`,
		id, id).Scan(&completed, &decided)
	if err != nil {
		return model.TrustMetrics{}, err
	}
	m := model.TrustMetrics{TotalSwaps: completed}
	if decided > 0 {
		m.SwapSuccessRate = float64(completed) / float64(decided) * 100
		m.Rating = float64(completed) / float64(decided) * 5
	}
	return m, nil
}
