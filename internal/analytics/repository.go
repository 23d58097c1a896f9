package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// createTransactionsTable keeps one row per transaction id. Redelivered events
// collapse under FINAL.
const createTransactionsTable = `
	CREATE TABLE IF NOT EXISTS ledger_transactions (
		transaction_id UUID,
		event_id UUID,
		account_id UUID,
		account_number String,
		type LowCardinality(String),
		amount Decimal(18, 2),
		balance_after Decimal(18, 2),
		currency LowCardinality(String),
		counterparty_account_number String,
		description String,
		timestamp DateTime64(3, 'UTC')
	)
	ENGINE = ReplacingMergeTree
	ORDER BY (account_number, transaction_id)
`

// TransactionRepository handles projected transactions in ClickHouse
type TransactionRepository struct {
	db *ClickHouseClient
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *ClickHouseClient) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// EnsureSchema creates the projection table if it does not exist.
func (r *TransactionRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.Conn().Exec(ctx, createTransactionsTable); err != nil {
		return fmt.Errorf("failed to create ledger_transactions table: %w", err)
	}
	return nil
}

// InsertTransaction stores a projected record.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, tx *Transaction) error {
	query := `
		INSERT INTO ledger_transactions (
			transaction_id, event_id, account_id, account_number, type,
			amount, balance_after, currency, counterparty_account_number,
			description, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.db.Conn().Exec(ctx, query,
		tx.TransactionID,
		tx.EventID,
		tx.AccountID,
		tx.AccountNumber,
		tx.Type,
		tx.Amount,
		tx.BalanceAfter,
		tx.CurrencyCode,
		tx.CounterpartyAccountNumber,
		tx.Description,
		tx.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", tx.TransactionID, err)
	}

	return nil
}

// LifetimeTotals aggregates every projected record of the account.
func (r *TransactionRepository) LifetimeTotals(ctx context.Context, accountNumber string) (*Totals, error) {
	query := `
		SELECT
			toString(sumIf(amount, type = 'deposit')),
			toString(sumIf(amount, type = 'withdrawal')),
			toString(sumIf(amount, type = 'transfer_out')),
			toString(sumIf(amount, type = 'transfer_in')),
			count(),
			max(timestamp)
		FROM ledger_transactions FINAL
		WHERE account_number = ?
	`

	var deposits, withdrawals, transfersOut, transfersIn string
	var count uint64
	var lastActivity time.Time

	row := r.db.Conn().QueryRow(ctx, query, accountNumber)
	if err := row.Scan(&deposits, &withdrawals, &transfersOut, &transfersIn, &count, &lastActivity); err != nil {
		return nil, fmt.Errorf("failed to query totals for account %s: %w", accountNumber, err)
	}

	totals := &Totals{AccountNumber: accountNumber, TransactionCount: count}
	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{deposits, &totals.TotalDeposits},
		{withdrawals, &totals.TotalWithdrawals},
		{transfersOut, &totals.TotalTransfersOut},
		{transfersIn, &totals.TotalTransfersIn},
	} {
		// ClickHouse toString() drops trailing zeros, e.g. "150.5"
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse total %q: %w", f.raw, err)
		}
		*f.dst = d
	}
	if count > 0 {
		totals.LastActivity = lastActivity.UTC()
	}

	return totals, nil
}
