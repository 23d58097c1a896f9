package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

const (
	accountsOwnerKey  = "accounts_owner_id_key"
	accountsNumberKey = "accounts_account_number_key"

	accountColumns = `id, account_number, owner_id, balance::text, created_at, updated_at`
)

// AccountRepository implements domain.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool: pool,
	}
}

// Create persists a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, account_number, owner_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4::text::numeric, $5, $6)
	`

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		account.ID,
		account.AccountNumber,
		account.OwnerID,
		numeric(account.Balance),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		switch uniqueViolation(err) {
		case accountsOwnerKey:
			return domain.ErrAccountExists
		case accountsNumberKey:
			return domain.ErrAccountNumberTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByOwner retrieves the account owned by the given user.
func (r *AccountRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_id = $1`

	account, err := scanAccount(conn(ctx, r.pool).QueryRow(ctx, query, ownerID))
	if err != nil {
		return nil, wrapAccountErr(err, "failed to get account by owner")
	}
	return account, nil
}

// GetByAccountNumber retrieves an account by its external number.
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`

	account, err := scanAccount(conn(ctx, r.pool).QueryRow(ctx, query, accountNumber))
	if err != nil {
		return nil, wrapAccountErr(err, "failed to get account by number")
	}
	return account, nil
}

// Lock acquires a pessimistic lock on the account for the duration of the transaction.
// This method MUST be called within a transaction context.
// Uses SELECT ... FOR UPDATE to lock the row.
func (r *AccountRepository) Lock(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	tx := getTx(ctx)
	if tx == nil {
		return nil, errors.New("failed to lock account: no transaction in context")
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	account, err := scanAccount(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapAccountErr(err, "failed to lock account")
	}
	return account, nil
}

// UpdateBalance stores a new balance for a locked account.
func (r *AccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $2::text::numeric
		WHERE id = $1
	`

	result, err := conn(ctx, r.pool).Exec(ctx, query, id, numeric(balance))
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		balance string
	)

	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.OwnerID,
		&balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if account.Balance, err = parseNumeric(balance); err != nil {
		return nil, fmt.Errorf("invalid balance %q: %w", balance, err)
	}
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return &account, nil
}

func wrapAccountErr(err error, msg string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAccountNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
