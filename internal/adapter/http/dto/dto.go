package dto

// SignupRequest is the request body for user registration.
type SignupRequest struct {
	Email           string `json:"email" binding:"required,email,max=254"`
	Name            string `json:"name" binding:"required,min=1,max=100"`
	PhoneNumber     string `json:"phone_number" binding:"omitempty,len=10,numeric"`
	Password        string `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password" sanitize:"-"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignupResponse is the response body for successful registration.
type SignupResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// DepositRequest credits the caller's wallet. Amount is a decimal string
// with exactly two fractional digits, e.g. "25.00".
type DepositRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// TransferRequest moves money to another user's wallet.
type TransferRequest struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
	Amount      string `json:"amount" binding:"required"`
}

// WithdrawRequest settles part of the caller's balance via external payout.
type WithdrawRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Destination string `json:"destination" binding:"required,max=100,payout_dest"`
}

// OperationResponse is the committed outcome of a ledger operation. Balances
// are decimal strings in major units.
type OperationResponse struct {
	TransactionID string `json:"transaction_id"`
	NewBalance    string `json:"new_balance"`
	PayoutRef     string `json:"payout_ref,omitempty"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// TransactionResponse is one ledger record.
type TransactionResponse struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	SenderID    *string `json:"sender_id,omitempty"`
	RecipientID string  `json:"recipient_id"`
	Amount      string  `json:"amount"`
	Status      string  `json:"status"`
	PayoutRef   *string `json:"payout_ref,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// HistoryResponse partitions the caller's records by direction.
type HistoryResponse struct {
	Sent     []TransactionResponse `json:"sent"`
	Received []TransactionResponse `json:"received"`
}

// ContactResponse is one transfer target.
type ContactResponse struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
}
