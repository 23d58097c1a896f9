// Package memstore keeps users, accounts and transaction records in process memory.
// It honours the same locking and transaction contract as the PostgreSQL store:
// Lock holds a per-account mutex until the surrounding transaction ends, and
// writes made inside a transaction become visible only on commit.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

// Store is an in-memory implementation of the domain repositories and TransactionManager.
type Store struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*domain.User
	usersByEmail map[string]uuid.UUID

	accounts         map[uuid.UUID]*domain.Account
	accountsByOwner  map[uuid.UUID]uuid.UUID
	accountsByNumber map[string]uuid.UUID

	// records per account in insertion order
	records map[uuid.UUID][]*domain.TransactionRecord

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:            make(map[uuid.UUID]*domain.User),
		usersByEmail:     make(map[string]uuid.UUID),
		accounts:         make(map[uuid.UUID]*domain.Account),
		accountsByOwner:  make(map[uuid.UUID]uuid.UUID),
		accountsByNumber: make(map[string]uuid.UUID),
		records:          make(map[uuid.UUID][]*domain.TransactionRecord),
		locks:            make(map[uuid.UUID]*sync.Mutex),
	}
}

// Close is a no-op; it lets Store stand in wherever a closable store is expected.
func (s *Store) Close() {}

// txKey is the key type for storing the transaction in context.
type txKey struct{}

type tx struct {
	held     []uuid.UUID
	balances map[uuid.UUID]decimal.Decimal
	records  []*domain.TransactionRecord
}

func getTx(ctx context.Context) *tx {
	if t, ok := ctx.Value(txKey{}).(*tx); ok {
		return t
	}
	return nil
}

// WithTransaction runs fn with a transaction in its context. Writes buffered by fn
// are applied together if fn succeeds and dropped otherwise. Account locks taken
// inside fn are released when it returns.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if getTx(ctx) != nil {
		return fn(ctx)
	}

	t := &tx{balances: make(map[uuid.UUID]decimal.Decimal)}
	defer s.release(t)

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}

	s.commit(t)
	return nil
}

func (s *Store) commit(t *tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := timestamp()
	for id, balance := range t.balances {
		account := s.accounts[id]
		account.Balance = balance
		account.UpdatedAt = now
	}
	for _, r := range t.records {
		s.records[r.AccountID] = append(s.records[r.AccountID], r)
	}
}

func (s *Store) release(t *tx) {
	for i := len(t.held) - 1; i >= 0; i-- {
		s.accountLock(t.held[i]).Unlock()
	}
	t.held = nil
}

func (s *Store) accountLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

// AccountRepository implements domain.AccountRepository on a Store.
type AccountRepository struct {
	s *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{s: store}
}

// Create implements domain.AccountRepository.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accountsByOwner[account.OwnerID]; ok {
		return domain.ErrAccountExists
	}
	if _, ok := s.accountsByNumber[account.AccountNumber]; ok {
		return domain.ErrAccountNumberTaken
	}

	stored := *account
	s.accounts[account.ID] = &stored
	s.accountsByOwner[account.OwnerID] = account.ID
	s.accountsByNumber[account.AccountNumber] = account.ID
	return nil
}

// GetByOwner implements domain.AccountRepository.
func (r *AccountRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Account, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.accountsByOwner[ownerID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.snapshot(ctx, id), nil
}

// GetByAccountNumber implements domain.AccountRepository.
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.accountsByNumber[accountNumber]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.snapshot(ctx, id), nil
}

// Lock implements domain.AccountRepository. Inside a transaction the account mutex
// is held until the transaction ends; locking an account twice in one transaction is allowed.
func (r *AccountRepository) Lock(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	s := r.s
	s.mu.RLock()
	_, ok := s.accounts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	if t := getTx(ctx); t != nil && !slices.Contains(t.held, id) {
		s.accountLock(id).Lock()
		t.held = append(t.held, id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(ctx, id), nil
}

// UpdateBalance implements domain.AccountRepository.
func (r *AccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	s := r.s
	if t := getTx(ctx); t != nil {
		s.mu.RLock()
		_, ok := s.accounts[id]
		s.mu.RUnlock()
		if !ok {
			return domain.ErrAccountNotFound
		}
		t.balances[id] = balance
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Balance = balance
	account.UpdatedAt = timestamp()
	return nil
}

// snapshot returns a copy of the account as seen by ctx. Callers hold s.mu.
func (s *Store) snapshot(ctx context.Context, id uuid.UUID) *domain.Account {
	account := *s.accounts[id]
	if t := getTx(ctx); t != nil {
		if balance, ok := t.balances[id]; ok {
			account.Balance = balance
		}
	}
	return &account
}

// TransactionRepository implements domain.TransactionRepository on a Store.
type TransactionRepository struct {
	s *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{s: store}
}

// Append implements domain.TransactionRepository.
func (r *TransactionRepository) Append(ctx context.Context, record *domain.TransactionRecord) error {
	s := r.s
	stored := *record
	if t := getTx(ctx); t != nil {
		t.records = append(t.records, &stored)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.AccountID] = append(s.records[record.AccountID], &stored)
	return nil
}

// ListByAccount implements domain.TransactionRepository.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*domain.TransactionRecord, error) {
	s := r.s
	s.mu.RLock()
	stored := s.records[accountID]
	records := make([]*domain.TransactionRecord, len(stored))
	for i, rec := range stored {
		c := *rec
		records[len(stored)-1-i] = &c
	}
	s.mu.RUnlock()

	// newest insertion first, then a stable sort keeps it as the tie-breaker
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
