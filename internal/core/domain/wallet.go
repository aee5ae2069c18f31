package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's current balance in minor units. Exactly one wallet
// exists per user; wallets are never deleted. Balance must be >= 0 at every
// commit point; the ledger service enforces this under a row lock before
// any debit is persisted.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"` // Minor units (cents)
	Version   int64     `json:"version"` // Incremented on every balance write
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanDebit reports whether the wallet holds at least amount.
func (w *Wallet) CanDebit(amount int64) bool {
	return w.Balance >= amount
}
