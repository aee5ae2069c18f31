package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateIdempotencyKey reports that a record with the same key has
// already been committed. Storage adapters translate their native unique
// violation into this error.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already committed")

// IdempotencyRecord stores the committed result of a ledger operation keyed
// by a caller-supplied idempotency key, so replays return the original
// result instead of re-applying the mutation.
type IdempotencyRecord struct {
	Key           string    `json:"key"` // Format: "user_id:client_key"
	TransactionID uuid.UUID `json:"transaction_id"`
	ResponseJSON  []byte    `json:"response_json"` // Cached result to return
	CreatedAt     time.Time `json:"created_at"`
}

// BuildIdempotencyKey scopes a client-supplied key to the calling user so
// two users can never collide.
func BuildIdempotencyKey(userID uuid.UUID, clientKey string) string {
	return userID.String() + ":" + clientKey
}
