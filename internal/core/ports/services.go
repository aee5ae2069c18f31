package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// --- Ledger Engine ---

// LedgerService owns every balance-affecting operation. Each call is one
// atomic unit of work: balances and the log record commit together or not
// at all.
type LedgerService interface {
	Deposit(ctx context.Context, req DepositRequest) (*OperationResult, error)
	Transfer(ctx context.Context, req TransferRequest) (*OperationResult, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*OperationResult, error)
}

// DepositRequest credits a user's wallet, creating it on first use.
type DepositRequest struct {
	UserID         uuid.UUID
	Amount         int64  // Minor units, must be > 0
	IdempotencyKey string // Optional caller-supplied replay guard
}

// TransferRequest moves money between two distinct users' wallets.
type TransferRequest struct {
	SenderID       uuid.UUID
	RecipientID    uuid.UUID
	Amount         int64
	IdempotencyKey string
}

// WithdrawRequest settles a balance against the external payout processor.
type WithdrawRequest struct {
	UserID         uuid.UUID
	Amount         int64
	Destination    string // Payout destination token understood by the gateway
	IdempotencyKey string
}

// OperationResult is the committed outcome of a ledger operation.
type OperationResult struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	NewBalance    int64     `json:"new_balance"` // Caller's wallet after commit
	PayoutRef     string    `json:"payout_ref,omitempty"`
}

// --- Query Service ---

// History partitions one user's ledger records by direction for
// presentation. Both slices come from the same immutable log.
type History struct {
	Sent     []domain.Transaction
	Received []domain.Transaction
}

// QueryService provides read-only projections over committed state. Reads
// never take wallet locks.
type QueryService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	GetHistory(ctx context.Context, userID uuid.UUID) (*History, error)
}

// --- Collaborators ---

// PayoutGateway is the external payment processor consumed by Withdraw.
// The ledger only relies on the ordering contract: a non-error return means
// the payout is confirmed and must be matched by a debit.
type PayoutGateway interface {
	InitiatePayout(ctx context.Context, userID uuid.UUID, amount int64, destination string) (ref string, err error)
}

// EventPublisher announces committed ledger records to interested systems.
// Publishing is best-effort and must never affect the commit.
type EventPublisher interface {
	PublishTransaction(ctx context.Context, transaction *domain.Transaction)
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Auth collaborator (signup/login surface) ---

// AuthService defines account registration and login.
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// SignupRequest holds validated input for user registration.
type SignupRequest struct {
	Email       string
	Name        string
	PhoneNumber string
	Password    string
}

// ContactService lists transfer targets.
type ContactService interface {
	ListContacts(ctx context.Context, selfID uuid.UUID) ([]domain.User, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}
