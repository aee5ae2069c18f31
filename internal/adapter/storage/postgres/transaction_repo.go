package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, kind, sender_id, recipient_id, amount, status, payout_ref, created_at`

// TransactionRepo implements ports.TransactionRepository over the
// append-only transactions table.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a ledger record within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, kind, sender_id, recipient_id, amount, status, payout_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.Kind, t.SenderID, t.RecipientID,
		t.Amount, t.Status, t.PayoutRef, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a ledger record by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)

	t := &domain.Transaction{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Kind, &t.SenderID, &t.RecipientID,
		&t.Amount, &t.Status, &t.PayoutRef, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return t, nil
}

// ListByUser fetches every record involving the user, on either side,
// ordered by creation time with id as tie-breaker.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at, id`, transactionColumns)

	return r.list(ctx, query, userID)
}

// ListBySender fetches records where the user is the sender.
func (r *TransactionRepo) ListBySender(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions
		WHERE sender_id = $1
		ORDER BY created_at, id`, transactionColumns)

	return r.list(ctx, query, userID)
}

// ListByRecipient fetches records where the user is the recipient.
func (r *TransactionRepo) ListByRecipient(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions
		WHERE recipient_id = $1
		ORDER BY created_at, id`, transactionColumns)

	return r.list(ctx, query, userID)
}

func (r *TransactionRepo) list(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.Kind, &t.SenderID, &t.RecipientID,
			&t.Amount, &t.Status, &t.PayoutRef, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}
