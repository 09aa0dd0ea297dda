package ledger

import (
	"context"
	"database/sql"

	"github.com/iliyamo/rewear-exchange/internal/model"
)

// The ledger talks to persistence through narrow interfaces covering
// exactly the calls its transactions make.  The SQL repositories in
// internal/repository satisfy them; tests substitute in-memory fakes
// so the transaction rules can be exercised without a database.

// UserStore reads and adjusts user balances inside a transaction.
type UserStore interface {
	GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error)
	SetPointsTx(ctx context.Context, tx *sql.Tx, id uint64, points uint32) error
	CreditPointsTx(ctx context.Context, tx *sql.Tx, id uint64, delta uint32) error
}

// ItemStore loads items and moves them through their lifecycle.
type ItemStore interface {
	GetByID(ctx context.Context, id uint64) (model.Item, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Item, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error
	BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, ids []uint64, status string) error
	ApproveTx(ctx context.Context, tx *sql.Tx, id uint64, pointsCost uint32) error
	Delete(ctx context.Context, id uint64) error
}

// SwapStore persists swap requests and their chat threads.
type SwapStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, req *model.SwapRequest) error
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.SwapRequest, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error
	SetDeliveredByTx(ctx context.Context, tx *sql.Tx, id, actorID uint64) error
	AppendMessageTx(ctx context.Context, tx *sql.Tx, msg *model.ChatMessage) error
}

// CategoryStore resolves and edits the category points table.
type CategoryStore interface {
	GetTx(ctx context.Context, tx *sql.Tx, category string) (uint32, error)
	Upsert(ctx context.Context, category string, points uint32) error
}

// RedemptionStore records committed redemptions.
type RedemptionStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, red *model.Redemption) error
}
