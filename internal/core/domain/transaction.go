package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind represents the kind of money movement.
type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "DEPOSIT"
	TransactionKindWithdrawal TransactionKind = "WITHDRAWAL"
	TransactionKindTransfer   TransactionKind = "TRANSFER"
)

// TransactionStatus is the lifecycle state of a ledger record. Only
// completed operations are ever written, so COMPLETED is the sole value;
// failed attempts leave no record.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// Transaction is an immutable, append-only ledger record. Rows are written
// inside the same database transaction as the balance mutation they
// describe and are never updated or deleted afterwards.
//
// Conventions: deposits carry a nil SenderID (money enters from outside the
// ledger); withdrawals carry the owner as both sender and recipient plus
// the external payout reference.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	Kind        TransactionKind   `json:"kind"`
	SenderID    *uuid.UUID        `json:"sender_id,omitempty"`
	RecipientID uuid.UUID         `json:"recipient_id"`
	Amount      int64             `json:"amount"` // Minor units, always positive
	Status      TransactionStatus `json:"status"`
	PayoutRef   *string           `json:"payout_ref,omitempty"` // Withdrawals only
	CreatedAt   time.Time         `json:"created_at"`
}

// Involves reports whether the user appears on either side of the record.
func (t *Transaction) Involves(userID uuid.UUID) bool {
	if t.SenderID != nil && *t.SenderID == userID {
		return true
	}
	return t.RecipientID == userID
}

// SentBy reports whether the user is the sender of the record.
func (t *Transaction) SentBy(userID uuid.UUID) bool {
	return t.SenderID != nil && *t.SenderID == userID
}
