package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/metrics"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService. Every operation runs as
// one database transaction with pessimistic row locks on the wallets it
// touches, so the balance update, the ledger record and the idempotency
// record commit atomically.
type LedgerServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	idempRepo  ports.IdempotencyRepository
	idempCache ports.IdempotencyCache
	transactor ports.DBTransactor
	payout     ports.PayoutGateway
	events     ports.EventPublisher
	metrics    *metrics.Metrics
	opTimeout  time.Duration
	idempTTL   time.Duration
	payoutWait time.Duration
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	payout ports.PayoutGateway,
	events ports.EventPublisher,
	m *metrics.Metrics,
	opTimeout time.Duration,
	idempTTL time.Duration,
	payoutWait time.Duration,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		idempRepo:  idempRepo,
		idempCache: idempCache,
		transactor: transactor,
		payout:     payout,
		events:     events,
		metrics:    m,
		opTimeout:  opTimeout,
		idempTTL:   idempTTL,
		payoutWait: payoutWait,
		log:        log,
	}
}

// Deposit credits a user's wallet, creating the wallet on first use.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, req ports.DepositRequest) (result *ports.OperationResult, err error) {
	defer s.observe("deposit", time.Now(), &err)
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	idempKey, replay, err := s.checkIdempotency(ctx, req.UserID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return replay, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageErr(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.lockOrCreateWallet(ctx, dbTx, req.UserID)
	if err != nil {
		return nil, err
	}

	if wallet.Balance > math.MaxInt64-req.Amount {
		return nil, apperror.ErrInvalidAmount()
	}
	newBalance := wallet.Balance + req.Amount

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Kind:        domain.TransactionKindDeposit,
		SenderID:    nil,
		RecipientID: req.UserID,
		Amount:      req.Amount,
		Status:      domain.TransactionStatusCompleted,
		CreatedAt:   now,
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, storageErr(fmt.Errorf("update balance: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, storageErr(fmt.Errorf("create transaction: %w", err))
	}

	result = &ports.OperationResult{TransactionID: txn.ID, NewBalance: newBalance}

	if err := s.commitWithIdempotency(ctx, dbTx, idempKey, txn, result, now); err != nil {
		return nil, err
	}

	s.events.PublishTransaction(ctx, txn)
	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("user_id", req.UserID.String()).
		Int64("amount", req.Amount).
		Msg("deposit completed")

	return result, nil
}

// Transfer moves money between two users' wallets. Both wallet rows are
// locked in ascending UUID order regardless of transfer direction, so two
// crossing transfers can never deadlock.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (result *ports.OperationResult, err error) {
	defer s.observe("transfer", time.Now(), &err)
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.SenderID == req.RecipientID {
		return nil, apperror.ErrInvalidRecipient()
	}

	idempKey, replay, err := s.checkIdempotency(ctx, req.SenderID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return replay, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageErr(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	sender, recipient, err := s.lockBothWallets(ctx, dbTx, req.SenderID, req.RecipientID)
	if err != nil {
		return nil, err
	}

	if !sender.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}
	if recipient.Balance > math.MaxInt64-req.Amount {
		return nil, apperror.ErrInvalidAmount()
	}

	senderBalance := sender.Balance - req.Amount
	recipientBalance := recipient.Balance + req.Amount

	now := time.Now().UTC()
	senderID := req.SenderID
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Kind:        domain.TransactionKindTransfer,
		SenderID:    &senderID,
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
		Status:      domain.TransactionStatusCompleted,
		CreatedAt:   now,
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, sender.ID, senderBalance); err != nil {
		return nil, storageErr(fmt.Errorf("debit sender: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, recipient.ID, recipientBalance); err != nil {
		return nil, storageErr(fmt.Errorf("credit recipient: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, storageErr(fmt.Errorf("create transaction: %w", err))
	}

	result = &ports.OperationResult{TransactionID: txn.ID, NewBalance: senderBalance}

	if err := s.commitWithIdempotency(ctx, dbTx, idempKey, txn, result, now); err != nil {
		return nil, err
	}

	s.events.PublishTransaction(ctx, txn)
	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("sender_id", req.SenderID.String()).
		Str("recipient_id", req.RecipientID.String()).
		Int64("amount", req.Amount).
		Msg("transfer completed")

	return result, nil
}

// Withdraw settles part of a balance against the external payout processor.
// The payout call happens while the wallet row lock is held: the debit is
// committed only after the processor confirms, and a processor failure rolls
// the whole operation back with the balance untouched.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (result *ports.OperationResult, err error) {
	defer s.observe("withdraw", time.Now(), &err)
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	idempKey, replay, err := s.checkIdempotency(ctx, req.UserID, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return replay, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, storageErr(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, req.UserID)
	if err != nil {
		return nil, storageErr(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}
	if !wallet.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	// External call with the row lock held: at most one in-flight payout
	// per wallet, and no debit unless the processor confirms.
	payoutCtx, payoutCancel := context.WithTimeout(ctx, s.payoutWait)
	defer payoutCancel()
	payoutRef, err := s.payout.InitiatePayout(payoutCtx, req.UserID, req.Amount, req.Destination)
	if err != nil {
		return nil, err
	}

	newBalance := wallet.Balance - req.Amount
	now := time.Now().UTC()
	userID := req.UserID
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Kind:        domain.TransactionKindWithdrawal,
		SenderID:    &userID,
		RecipientID: req.UserID,
		Amount:      req.Amount,
		Status:      domain.TransactionStatusCompleted,
		PayoutRef:   &payoutRef,
		CreatedAt:   now,
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, s.payoutCommitFailure(txn, payoutRef, fmt.Errorf("update balance: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, s.payoutCommitFailure(txn, payoutRef, fmt.Errorf("create transaction: %w", err))
	}

	result = &ports.OperationResult{TransactionID: txn.ID, NewBalance: newBalance, PayoutRef: payoutRef}

	if err := s.commitWithIdempotency(ctx, dbTx, idempKey, txn, result, now); err != nil {
		return nil, s.payoutCommitFailure(txn, payoutRef, err)
	}

	s.events.PublishTransaction(ctx, txn)
	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("user_id", req.UserID.String()).
		Str("payout_ref", payoutRef).
		Int64("amount", req.Amount).
		Msg("withdrawal completed")

	return result, nil
}

// lockOrCreateWallet locks the user's wallet row, inserting a zero-balance
// wallet first if the user has none yet. The insert is idempotent, so a
// concurrent first deposit simply waits on the row lock.
func (s *LedgerServiceImpl) lockOrCreateWallet(ctx context.Context, dbTx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, storageErr(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	now := time.Now().UTC()
	fresh := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   0,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.CreateTx(ctx, dbTx, fresh); err != nil {
		return nil, storageErr(fmt.Errorf("create wallet: %w", err))
	}

	wallet, err = s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, storageErr(fmt.Errorf("lock created wallet: %w", err))
	}
	if wallet == nil {
		return nil, storageErr(fmt.Errorf("wallet missing after create: %s", userID))
	}
	return wallet, nil
}

// lockBothWallets locks the sender's and recipient's wallet rows in
// ascending user-UUID byte order. Both wallets must already exist: a
// transfer never provisions the recipient's wallet, only the deposit and
// signup paths do.
func (s *LedgerServiceImpl) lockBothWallets(ctx context.Context, dbTx pgx.Tx, senderID, recipientID uuid.UUID) (sender, recipient *domain.Wallet, err error) {
	first, second := senderID, recipientID
	if bytes.Compare(recipientID[:], senderID[:]) < 0 {
		first, second = recipientID, senderID
	}

	wallets := make(map[uuid.UUID]*domain.Wallet, 2)
	for _, userID := range []uuid.UUID{first, second} {
		w, err := s.walletRepo.GetByUserIDForUpdate(ctx, dbTx, userID)
		if err != nil {
			return nil, nil, storageErr(fmt.Errorf("lock wallet: %w", err))
		}
		wallets[userID] = w
	}

	if wallets[senderID] == nil {
		return nil, nil, apperror.ErrWalletNotFound()
	}

	if wallets[recipientID] == nil {
		return nil, nil, apperror.ErrRecipientNotFound()
	}

	return wallets[senderID], wallets[recipientID], nil
}

// checkIdempotency returns a replayed result when the key has already been
// committed. Keys are optional; an empty client key disables the check.
// The Redis layer is a fast path only, a cache miss or error falls through
// to the durable table.
func (s *LedgerServiceImpl) checkIdempotency(ctx context.Context, userID uuid.UUID, clientKey string) (string, *ports.OperationResult, error) {
	if clientKey == "" {
		return "", nil, nil
	}
	idempKey := domain.BuildIdempotencyKey(userID, clientKey)

	cached, err := s.idempCache.Get(ctx, idempKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		replay, err := unmarshalCachedResult(cached)
		return idempKey, replay, err
	}

	rec, err := s.idempRepo.Get(ctx, idempKey)
	if err != nil {
		return "", nil, storageErr(fmt.Errorf("db idempotency check: %w", err))
	}
	if rec != nil {
		replay, err := unmarshalCachedResult(rec.ResponseJSON)
		return idempKey, replay, err
	}

	return idempKey, nil, nil
}

// commitWithIdempotency writes the idempotency record (when a key was
// supplied) inside the same transaction, commits, and caches the response.
func (s *LedgerServiceImpl) commitWithIdempotency(ctx context.Context, dbTx pgx.Tx, idempKey string, txn *domain.Transaction, result *ports.OperationResult, now time.Time) error {
	respJSON, err := json.Marshal(result)
	if err != nil {
		return storageErr(fmt.Errorf("marshal response: %w", err))
	}

	if idempKey != "" {
		rec := &domain.IdempotencyRecord{
			Key:           idempKey,
			TransactionID: txn.ID,
			ResponseJSON:  respJSON,
			CreatedAt:     now,
		}
		if err := s.idempRepo.Create(ctx, dbTx, rec); err != nil {
			// A concurrent request with the same key won the race past the
			// pre-check; the unique key rejects this copy and the whole
			// transaction rolls back.
			if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
				return apperror.ErrDuplicateTransaction()
			}
			return storageErr(fmt.Errorf("save idempotency record: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return storageErr(fmt.Errorf("commit tx: %w", err))
	}

	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, s.idempTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}
	return nil
}

// payoutCommitFailure records the one failure mode Withdraw cannot roll
// back: the processor confirmed but the local commit failed. The payout ref
// is logged for manual reconciliation.
func (s *LedgerServiceImpl) payoutCommitFailure(txn *domain.Transaction, payoutRef string, err error) error {
	s.log.Error().
		Str("tx_id", txn.ID.String()).
		Str("payout_ref", payoutRef).
		Err(err).
		Msg("payout confirmed but local commit failed, manual reconciliation required")

	if appErr, ok := err.(*apperror.AppError); ok {
		return appErr
	}
	return apperror.ErrStorage(err)
}

// bound applies the configured operation timeout. The deadline covers the
// whole operation including lock waits; zero disables the bound.
func (s *LedgerServiceImpl) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// storageErr classifies a storage-layer failure. Hitting the operation
// deadline while waiting on wallet locks is contention, not a storage
// fault, and stays retryable for the caller.
func storageErr(err error) *apperror.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.ErrBusy(err)
	}
	return apperror.ErrStorage(err)
}

func (s *LedgerServiceImpl) observe(operation string, start time.Time, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = "failure"
	}
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, outcome, time.Since(start))
	}
}

func unmarshalCachedResult(data []byte) (*ports.OperationResult, error) {
	result := &ports.OperationResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, storageErr(fmt.Errorf("unmarshal cached result: %w", err))
	}
	return result, nil
}
