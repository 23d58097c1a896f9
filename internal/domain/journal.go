package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MaxListLimit caps the number of records a single listing returns.
const MaxListLimit = 100

// ErrInconsistentRecord is returned when a record's balances don't match its type and amount.
var ErrInconsistentRecord = errors.New("inconsistent transaction record")

// TransactionLog is the append-only log of balance-affecting events.
type TransactionLog struct {
	records TransactionRepository
}

// NewTransactionLog creates a new TransactionLog.
func NewTransactionLog(records TransactionRepository) *TransactionLog {
	return &TransactionLog{records: records}
}

// Append checks the record and writes it. It must run in the same transaction
// as the balance change it describes.
func (l *TransactionLog) Append(ctx context.Context, record *TransactionRecord) (uuid.UUID, error) {
	if err := CheckRecord(record); err != nil {
		return uuid.Nil, err
	}
	if err := l.records.Append(ctx, record); err != nil {
		return uuid.Nil, fmt.Errorf("failed to append transaction record: %w", err)
	}
	return record.ID, nil
}

// ListByAccount returns the newest records of an account, at most limit and never more than MaxListLimit.
func (l *TransactionLog) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*TransactionRecord, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	records, err := l.records.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction records: %w", err)
	}
	return records, nil
}

// CheckRecord verifies the arithmetic and shape invariants of a record.
func CheckRecord(r *TransactionRecord) error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInconsistentRecord, r.Type)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount %s is not positive", ErrInconsistentRecord, r.Amount)
	}
	if !r.BalanceAfter.Sub(r.BalanceBefore).Equal(r.SignedAmount()) {
		return fmt.Errorf("%w: %s %s does not move %s to %s",
			ErrInconsistentRecord, r.Type, r.Amount, r.BalanceBefore, r.BalanceAfter)
	}
	if r.BalanceAfter.IsNegative() {
		return fmt.Errorf("%w: negative balance after %s", ErrInconsistentRecord, r.Type)
	}
	if r.Type.IsTransfer() != (r.CounterpartyAccountNumber != "") {
		return fmt.Errorf("%w: counterparty must be set exactly for transfers", ErrInconsistentRecord)
	}
	return nil
}
