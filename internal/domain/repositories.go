package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access operations.
// This follows the Repository pattern to abstract data persistence logic.
type AccountRepository interface {
	// Create persists a new account.
	// Returns ErrAccountExists if the owner already has an account and
	// ErrAccountNumberTaken if the account number is in use.
	Create(ctx context.Context, account *Account) error

	// GetByOwner retrieves the account owned by the given user.
	// Returns ErrAccountNotFound if the user has no account.
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*Account, error)

	// GetByAccountNumber retrieves an account by its external number.
	// Returns ErrAccountNotFound if no account has that number.
	GetByAccountNumber(ctx context.Context, accountNumber string) (*Account, error)

	// Lock acquires a lock on the account for the duration of the transaction
	// and returns its current state.
	// Must be called within a transaction context.
	Lock(ctx context.Context, id uuid.UUID) (*Account, error)

	// UpdateBalance stores a new balance for a locked account.
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
}

// TransactionRepository defines the interface for the append-only transaction log.
type TransactionRepository interface {
	// Append persists a new record. Records are never updated or deleted.
	Append(ctx context.Context, record *TransactionRecord) error

	// ListByAccount returns up to limit records of the account, newest first.
	// Records with equal timestamps are ordered by insertion, latest first.
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*TransactionRecord, error)
}

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	// Create persists a new user.
	// Returns ErrEmailTaken if the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by id. Returns ErrUserNotFound if missing.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by lowercased email. Returns ErrUserNotFound if missing.
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// TransactionManager defines the interface for managing database transactions.
// This abstraction allows the service layer to work with transactions
// without being coupled to a specific database implementation.
type TransactionManager interface {
	// WithTransaction executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes domain events to external systems (e.g. RabbitMQ).
type EventPublisher interface {
	PublishTransactions(ctx context.Context, events []TransactionEvent) error
}
