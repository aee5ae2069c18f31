package ports

import (
	"context"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for user identities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListOthers returns every user except the given one, for contact listing.
	ListOthers(ctx context.Context, selfID uuid.UUID) ([]domain.User, error)
}

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside transaction blocks; *ForUpdate
// variants take a row-level lock held until the transaction ends.
type WalletRepository interface {
	// Create inserts a wallet with balance 0. It is idempotent: if the
	// user already has a wallet the call is a no-op and no error is
	// returned.
	Create(ctx context.Context, wallet *domain.Wallet) error
	// CreateTx is Create inside an open transaction (lazy creation on
	// first deposit).
	CreateTx(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)
	// UpdateBalance persists a new balance and bumps the wallet version.
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance int64) error
}

// TransactionRepository defines persistence for the append-only ledger log.
// Records are created inside the committing transaction and never mutated.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// ListByUser returns every record where the user is sender or
	// recipient, ordered by (created_at, id) ascending; each record
	// appears exactly once even when the user is on both sides.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
	ListBySender(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
	ListByRecipient(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
}

// IdempotencyRepository defines persistence for idempotency records
// (durable layer behind the Redis cache).
type IdempotencyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, record *domain.IdempotencyRecord) error
	Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
