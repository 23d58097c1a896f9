package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL.
// The table is append-only; seq breaks ties between equal timestamps.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{
		pool: pool,
	}
}

// Append persists a new transaction record.
func (r *TransactionRepository) Append(ctx context.Context, record *domain.TransactionRecord) error {
	query := `
		INSERT INTO transactions (
			id, account_id, type,
			amount, balance_before, balance_after,
			counterparty_account_number, description, created_at
		) VALUES ($1, $2, $3, $4::text::numeric, $5::text::numeric, $6::text::numeric, $7, $8, $9)
	`

	var counterparty *string
	if record.CounterpartyAccountNumber != "" {
		counterparty = &record.CounterpartyAccountNumber
	}

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		record.ID,
		record.AccountID,
		string(record.Type),
		numeric(record.Amount),
		numeric(record.BalanceBefore),
		numeric(record.BalanceAfter),
		counterparty,
		record.Description,
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// ListByAccount returns up to limit records of the account, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*domain.TransactionRecord, error) {
	query := `
		SELECT id, account_id, type,
		       amount::text, balance_before::text, balance_after::text,
		       counterparty_account_number, description, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}

	return records, nil
}

func scanTransaction(row pgx.CollectableRow) (*domain.TransactionRecord, error) {
	var (
		record                domain.TransactionRecord
		txType                string
		amount, before, after string
		counterparty          *string
	)

	err := row.Scan(
		&record.ID,
		&record.AccountID,
		&txType,
		&amount,
		&before,
		&after,
		&counterparty,
		&record.Description,
		&record.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	record.Type = domain.TransactionType(txType)
	if counterparty != nil {
		record.CounterpartyAccountNumber = *counterparty
	}
	record.Timestamp = record.Timestamp.UTC()

	if record.Amount, err = parseNumeric(amount); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if record.BalanceBefore, err = parseNumeric(before); err != nil {
		return nil, fmt.Errorf("invalid balance_before %q: %w", before, err)
	}
	if record.BalanceAfter, err = parseNumeric(after); err != nil {
		return nil, fmt.Errorf("invalid balance_after %q: %w", after, err)
	}

	return &record, nil
}
