package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a registered customer. The ledger only ever references users by ID.
type User struct {
	ID           uuid.UUID // Unique identifier of the user
	Name         string    // Display name
	Email        string    // Lowercased, unique email address
	Phone        string    // 10-digit phone number
	PasswordHash string    // bcrypt hash of the password
	CreatedAt    time.Time // Timestamp when the user registered
}

// Account represents a user's monetary account.
// Every user owns at most one account and its balance never goes below zero.
type Account struct {
	ID            uuid.UUID       // Internal identity of the account
	AccountNumber string          // External, globally unique account number
	OwnerID       uuid.UUID       // User that owns the account
	Balance       decimal.Decimal // Current balance, two decimal places
	CreatedAt     time.Time       // Timestamp when the account was created
	UpdatedAt     time.Time       // Timestamp of the last balance change
}

// TransactionType classifies a transaction record.
type TransactionType string

const (
	// TransactionTypeDeposit is money added to the account from outside the ledger
	TransactionTypeDeposit TransactionType = "deposit"

	// TransactionTypeWithdrawal is money taken out of the ledger
	TransactionTypeWithdrawal TransactionType = "withdrawal"

	// TransactionTypeTransferOut is the debit side of a transfer
	TransactionTypeTransferOut TransactionType = "transfer_out"

	// TransactionTypeTransferIn is the credit side of a transfer
	TransactionTypeTransferIn TransactionType = "transfer_in"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransferOut, TransactionTypeTransferIn:
		return true
	}
	return false
}

// Credits reports whether records of this type increase the balance.
func (t TransactionType) Credits() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeTransferIn
}

// IsTransfer reports whether the type is one side of a transfer.
func (t TransactionType) IsTransfer() bool {
	return t == TransactionTypeTransferOut || t == TransactionTypeTransferIn
}

// TransactionRecord is an immutable entry in an account's transaction log.
type TransactionRecord struct {
	ID                        uuid.UUID       // Unique identifier of the record
	AccountID                 uuid.UUID       // Account the record belongs to
	Type                      TransactionType // What kind of movement this was
	Amount                    decimal.Decimal // Always positive
	BalanceBefore             decimal.Decimal // Balance right before the movement
	BalanceAfter              decimal.Decimal // Balance right after the movement
	CounterpartyAccountNumber string          // Other side of a transfer, empty otherwise
	Timestamp                 time.Time       // When the movement was committed
	Description               string          // Human-readable description
}

// NewTransactionRecord creates a record for a balance change that was just applied.
func NewTransactionRecord(
	accountID uuid.UUID,
	txType TransactionType,
	amount decimal.Decimal,
	change BalanceChange,
	counterparty string,
	timestamp time.Time,
	description string,
) *TransactionRecord {
	return &TransactionRecord{
		ID:                        uuid.New(),
		AccountID:                 accountID,
		Type:                      txType,
		Amount:                    amount,
		BalanceBefore:             change.Before,
		BalanceAfter:              change.After,
		CounterpartyAccountNumber: counterparty,
		Timestamp:                 timestamp,
		Description:               description,
	}
}

// SignedAmount returns the amount with the sign it had on the balance.
func (r *TransactionRecord) SignedAmount() decimal.Decimal {
	if r.Type.Credits() {
		return r.Amount
	}
	return r.Amount.Neg()
}

// BalanceChange is the before/after snapshot of a single balance adjustment.
type BalanceChange struct {
	AccountID uuid.UUID
	Before    decimal.Decimal
	After     decimal.Decimal
}

// Delta returns After - Before.
func (c BalanceChange) Delta() decimal.Decimal {
	return c.After.Sub(c.Before)
}

// AccountInfo answers whether a user has an account yet.
type AccountInfo struct {
	HasAccount    bool
	AccountNumber string
	Balance       decimal.Decimal
}

// DashboardStats aggregates the most recent records of an account.
// Totals cover only RecentTransactions, not the full history.
type DashboardStats struct {
	AccountNumber      string
	Balance            decimal.Decimal
	TotalDeposits      decimal.Decimal
	TotalWithdrawals   decimal.Decimal
	TotalTransfersOut  decimal.Decimal
	TotalTransfersIn   decimal.Decimal
	TransactionCount   int
	RecentTransactions []*TransactionRecord
}

// TransactionEvent is published after a record has been committed.
type TransactionEvent struct {
	Record        *TransactionRecord
	AccountNumber string
}

// NewAccount creates an account with zero balance for the given owner.
func NewAccount(ownerID uuid.UUID, accountNumber string, now time.Time) *Account {
	return &Account{
		ID:            uuid.New(),
		AccountNumber: accountNumber,
		OwnerID:       ownerID,
		Balance:       decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
