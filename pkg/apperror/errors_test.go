package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("LED_001", "bad amount", http.StatusBadRequest)
	assert.Equal(t, "[LED_001] bad amount", e.Error())

	wrapped := Wrap("SYS_001", "storage", http.StatusInternalServerError, errors.New("conn refused"))
	assert.Equal(t, "[SYS_001] storage: conn refused", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	e := Wrap("SYS_001", "storage", http.StatusInternalServerError, inner)
	assert.ErrorIs(t, e, inner)

	chained := fmt.Errorf("op failed: %w", e)
	var appErr *AppError
	require.ErrorAs(t, chained, &appErr)
	assert.Equal(t, "SYS_001", appErr.Code)
}

func TestAppError_Retryable(t *testing.T) {
	assert.True(t, ErrStorage(errors.New("x")).Retryable())
	assert.True(t, ErrBusy(errors.New("x")).Retryable())
	assert.False(t, ErrInsufficientBalance().Retryable())
	assert.False(t, ErrInvalidAmount().Retryable())
	assert.False(t, ErrPayoutFailed(errors.New("x")).Retryable())
}

func TestTaxonomyStatusCodes(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrInvalidAmount().HTTPStatus)
	assert.Equal(t, http.StatusPaymentRequired, ErrInsufficientBalance().HTTPStatus)
	assert.Equal(t, http.StatusNotFound, ErrWalletNotFound().HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, ErrRecipientNotFound().HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, ErrInvalidRecipient().HTTPStatus)
	assert.Equal(t, http.StatusConflict, ErrDuplicateTransaction().HTTPStatus)
	assert.Equal(t, http.StatusBadGateway, ErrPayoutFailed(errors.New("x")).HTTPStatus)
	assert.Equal(t, http.StatusServiceUnavailable, ErrBusy(errors.New("x")).HTTPStatus)
}
