package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultAccountNumberAttempts bounds account number regeneration on collision.
const DefaultAccountNumberAttempts = 5

// AccountLedger owns account records and is the only component that changes balances.
type AccountLedger struct {
	accounts AccountRepository
	numbers  AccountNumberGenerator
	attempts int
	now      func() time.Time
}

// NewAccountLedger creates a new AccountLedger.
// attempts <= 0 falls back to DefaultAccountNumberAttempts.
func NewAccountLedger(accounts AccountRepository, numbers AccountNumberGenerator, attempts int) *AccountLedger {
	if attempts <= 0 {
		attempts = DefaultAccountNumberAttempts
	}
	return &AccountLedger{
		accounts: accounts,
		numbers:  numbers,
		attempts: attempts,
		now:      now,
	}
}

// CreateAccount opens the single account of a user with a zero balance.
// A colliding account number is regenerated up to the configured number of attempts.
func (l *AccountLedger) CreateAccount(ctx context.Context, userID uuid.UUID) (*Account, error) {
	_, err := l.accounts.GetByOwner(ctx, userID)
	switch {
	case err == nil:
		return nil, ErrAccountExists
	case !errors.Is(err, ErrAccountNotFound):
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	for attempt := 0; attempt < l.attempts; attempt++ {
		account := NewAccount(userID, l.numbers.Next(), l.now())

		err := l.accounts.Create(ctx, account)
		switch {
		case err == nil:
			return account, nil
		case errors.Is(err, ErrAccountNumberTaken):
			continue
		case errors.Is(err, ErrAccountExists):
			// lost a race with a concurrent create for the same user
			return nil, ErrAccountExists
		default:
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
	}

	return nil, ErrAccountNumberExhausted
}

// GetByUser returns the account owned by userID or ErrAccountNotFound.
func (l *AccountLedger) GetByUser(ctx context.Context, userID uuid.UUID) (*Account, error) {
	return l.accounts.GetByOwner(ctx, userID)
}

// GetByAccountNumber returns the account with the given number or ErrAccountNotFound.
func (l *AccountLedger) GetByAccountNumber(ctx context.Context, accountNumber string) (*Account, error) {
	return l.accounts.GetByAccountNumber(ctx, accountNumber)
}

// Lock locks the given accounts in ascending ID order, whatever order they are passed in.
// Concurrent callers locking the same set therefore never deadlock.
// Must be called within a transaction context.
func (l *AccountLedger) Lock(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*Account, error) {
	ordered := slices.Clone(ids)
	slices.SortFunc(ordered, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	ordered = slices.Compact(ordered)

	locked := make(map[uuid.UUID]*Account, len(ordered))
	for _, id := range ordered {
		account, err := l.accounts.Lock(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to lock account %s: %w", id, err)
		}
		locked[id] = account
	}
	return locked, nil
}

// AdjustBalance adds delta to the balance of a locked account.
// The result must stay non-negative; otherwise nothing is written and an
// InsufficientFundsError carrying the current balance is returned.
// Must be called within a transaction context.
func (l *AccountLedger) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (BalanceChange, error) {
	account, err := l.accounts.Lock(ctx, accountID)
	if err != nil {
		return BalanceChange{}, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}

	after := account.Balance.Add(delta)
	if after.IsNegative() {
		return BalanceChange{}, &InsufficientFundsError{Available: account.Balance}
	}

	if err := l.accounts.UpdateBalance(ctx, accountID, after); err != nil {
		return BalanceChange{}, fmt.Errorf("failed to update balance of account %s: %w", accountID, err)
	}

	return BalanceChange{
		AccountID: accountID,
		Before:    account.Balance,
		After:     after,
	}, nil
}

// now returns the current UTC time at the precision the stores keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
