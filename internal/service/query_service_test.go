package service

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestQueryService_GetBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletRepo := mocks.NewMockWalletRepository(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	svc := NewQueryService(walletRepo, txRepo, zerolog.Nop())

	ctx := context.Background()
	userID := uuid.New()

	walletRepo.EXPECT().GetByUserID(ctx, userID).Return(&domain.Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: 12345,
	}, nil)

	balance, err := svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), balance)
}

func TestQueryService_GetBalance_NoWallet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletRepo := mocks.NewMockWalletRepository(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	svc := NewQueryService(walletRepo, txRepo, zerolog.Nop())

	ctx := context.Background()
	userID := uuid.New()

	walletRepo.EXPECT().GetByUserID(ctx, userID).Return(nil, nil)

	_, err := svc.GetBalance(ctx, userID)
	assertAppError(t, err, "LED_003")
}

func TestQueryService_GetHistory_PartitionsByDirection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletRepo := mocks.NewMockWalletRepository(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	svc := NewQueryService(walletRepo, txRepo, zerolog.Nop())

	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()
	now := time.Now().UTC()

	sent := domain.Transaction{
		ID: uuid.New(), Kind: domain.TransactionKindTransfer,
		SenderID: &userID, RecipientID: other, Amount: 100,
		Status: domain.TransactionStatusCompleted, CreatedAt: now,
	}
	received := domain.Transaction{
		ID: uuid.New(), Kind: domain.TransactionKindTransfer,
		SenderID: &other, RecipientID: userID, Amount: 250,
		Status: domain.TransactionStatusCompleted, CreatedAt: now.Add(time.Second),
	}
	deposit := domain.Transaction{
		ID: uuid.New(), Kind: domain.TransactionKindDeposit,
		SenderID: nil, RecipientID: userID, Amount: 500,
		Status: domain.TransactionStatusCompleted, CreatedAt: now.Add(2 * time.Second),
	}
	withdrawal := domain.Transaction{
		ID: uuid.New(), Kind: domain.TransactionKindWithdrawal,
		SenderID: &userID, RecipientID: userID, Amount: 50,
		Status: domain.TransactionStatusCompleted, CreatedAt: now.Add(3 * time.Second),
	}

	txRepo.EXPECT().ListByUser(ctx, userID).
		Return([]domain.Transaction{sent, received, deposit, withdrawal}, nil)

	history, err := svc.GetHistory(ctx, userID)
	require.NoError(t, err)

	// Withdrawals have the user on both sides and land under sent only.
	require.Len(t, history.Sent, 2)
	assert.Equal(t, sent.ID, history.Sent[0].ID)
	assert.Equal(t, withdrawal.ID, history.Sent[1].ID)

	require.Len(t, history.Received, 2)
	assert.Equal(t, received.ID, history.Received[0].ID)
	assert.Equal(t, deposit.ID, history.Received[1].ID)
}

func TestQueryService_GetHistory_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletRepo := mocks.NewMockWalletRepository(ctrl)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	svc := NewQueryService(walletRepo, txRepo, zerolog.Nop())

	ctx := context.Background()
	userID := uuid.New()

	txRepo.EXPECT().ListByUser(ctx, userID).Return(nil, nil)

	history, err := svc.GetHistory(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, history.Sent)
	assert.Empty(t, history.Received)
}
