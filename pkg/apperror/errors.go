package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may safely retry the operation.
// Business-rule rejections are final; contention and infrastructure
// failures are transient.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case "SYS_001", "SYS_002":
		return true
	}
	return false
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger Business Rules (LED) ----

func ErrInvalidAmount() *AppError {
	return New("LED_001", "Amount must be positive with exactly 2 decimal places", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("LED_002", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrWalletNotFound() *AppError {
	return New("LED_003", "Wallet not found", http.StatusNotFound)
}

func ErrRecipientNotFound() *AppError {
	return New("LED_004", "Recipient wallet not found", http.StatusBadRequest)
}

func ErrInvalidRecipient() *AppError {
	return New("LED_005", "Cannot transfer to own wallet", http.StatusBadRequest)
}

func ErrDuplicateTransaction() *AppError {
	return New("LED_006", "Duplicate transaction", http.StatusConflict)
}

// ---- Payout Collaborator (PAYOUT) ----

func ErrPayoutFailed(err error) *AppError {
	return Wrap("PAYOUT_001", "External payout failed, no balance was debited", http.StatusBadGateway, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrStorage(err error) *AppError {
	return Wrap("SYS_001", "Internal storage error", http.StatusInternalServerError, err)
}

func ErrBusy(err error) *AppError {
	return Wrap("SYS_002", "Wallet is busy, try again", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a validation error with a custom message.
func Validation(message string) *AppError {
	return New("LED_000", message, http.StatusBadRequest)
}
