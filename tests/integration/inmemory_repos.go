package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// The in-memory storage layer mirrors the transactional guarantees the
// postgres adapter gets for free: a serialTransactor admits one transaction
// at a time, and every mutation registers an undo on the open memTx so a
// rollback really restores the previous state. This keeps the end-to-end
// tests exact: balances after concurrent runs can be asserted to the cent.

// --- Serializing transactor with undo-log transactions ---

type serialTransactor struct {
	mu sync.Mutex
}

func newSerialTransactor() *serialTransactor {
	return &serialTransactor{}
}

func (t *serialTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &memTx{release: t.mu.Unlock}, nil
}

// memTx is a pgx.Tx for in-memory testing. Commit discards the undo log,
// Rollback replays it in reverse. Both release the transactor mutex once.
type memTx struct {
	undo    []func()
	done    bool
	release func()
}

func (t *memTx) onRollback(f func()) {
	t.undo = append(t.undo, f)
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.undo = nil
	t.release()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.release()
	return nil
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }

func asMemTx(tx pgx.Tx) *memTx {
	m, ok := tx.(*memTx)
	if !ok {
		panic(fmt.Sprintf("expected *memTx, got %T", tx))
	}
	return m
}

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("email already exists")
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) ListOthers(ctx context.Context, selfID uuid.UUID) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.User
	for _, u := range r.users {
		if u.ID != selfID {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu       sync.RWMutex
	byUserID map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{byUserID: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUserID[w.UserID]; ok {
		return nil // idempotent, one wallet per user
	}
	cp := *w
	r.byUserID[w.UserID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) CreateTx(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUserID[w.UserID]; ok {
		return nil
	}
	cp := *w
	r.byUserID[w.UserID] = &cp
	userID := w.UserID
	asMemTx(tx).onRollback(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.byUserID, userID)
	})
	return nil
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byUserID[userID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.byUserID {
		if w.ID != walletID {
			continue
		}
		prevBalance, prevVersion := w.Balance, w.Version
		w.Balance = newBalance
		w.Version++
		wallet := w
		asMemTx(tx).onRollback(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			wallet.Balance = prevBalance
			wallet.Version = prevVersion
		})
		return nil
	}
	return fmt.Errorf("wallet not found: %s", walletID)
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions []domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, *t)
	id := t.ID
	asMemTx(tx).onRollback(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, existing := range r.transactions {
			if existing.ID == id {
				r.transactions = append(r.transactions[:i], r.transactions[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	return r.list(func(t *domain.Transaction) bool { return t.Involves(userID) })
}

func (r *inMemoryTransactionRepo) ListBySender(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	return r.list(func(t *domain.Transaction) bool { return t.SentBy(userID) })
}

func (r *inMemoryTransactionRepo) ListByRecipient(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	return r.list(func(t *domain.Transaction) bool { return t.RecipientID == userID })
}

func (r *inMemoryTransactionRepo) list(match func(*domain.Transaction) bool) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for i := range r.transactions {
		if match(&r.transactions[i]) {
			result = append(result, r.transactions[i])
		}
	}
	// Ledger order: (created_at, id) ascending.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.IdempotencyRecord
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{records: make(map[string]*domain.IdempotencyRecord)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, rec *domain.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.Key]; ok {
		return fmt.Errorf("key %s: %w", rec.Key, domain.ErrDuplicateIdempotencyKey)
	}
	r.records[rec.Key] = rec
	key := rec.Key
	asMemTx(tx).onRollback(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.records, key)
	})
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	return rec, nil
}
