package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account identity. The ledger engine only references users; it
// never creates or mutates them outside the signup path.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PhoneNumber  string    `json:"phone_number"`
	PasswordHash string    `json:"-"` // Never expose
	CreatedAt    time.Time `json:"created_at"`
}
