package service

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QueryServiceImpl implements ports.QueryService. All reads are against
// committed state and take no wallet locks.
type QueryServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	log        zerolog.Logger
}

// NewQueryService creates a new QueryServiceImpl.
func NewQueryService(walletRepo ports.WalletRepository, txRepo ports.TransactionRepository, log zerolog.Logger) *QueryServiceImpl {
	return &QueryServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		log:        log,
	}
}

// GetBalance returns the committed balance.
func (s *QueryServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, apperror.ErrStorage(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return 0, apperror.ErrWalletNotFound()
	}
	return wallet.Balance, nil
}

// GetHistory returns the user's ledger records partitioned by direction.
// Withdrawals carry the user on both sides and appear under sent only.
func (s *QueryServiceImpl) GetHistory(ctx context.Context, userID uuid.UUID) (*ports.History, error) {
	records, err := s.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("list transactions: %w", err))
	}

	history := &ports.History{}
	for _, t := range records {
		if t.SentBy(userID) {
			history.Sent = append(history.Sent, t)
		} else {
			history.Received = append(history.Received, t)
		}
	}
	return history, nil
}
