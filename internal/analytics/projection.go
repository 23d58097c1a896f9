package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/events"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
)

// ErrInvalidEvent marks messages that can never be projected. They are dropped
// instead of being redelivered.
var ErrInvalidEvent = errors.New("invalid event")

// TransactionStore persists projected transactions.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx *Transaction) error
}

// Projector turns transaction.recorded messages into analytics rows.
type Projector struct {
	store TransactionStore
}

// NewProjector creates a new Projector.
func NewProjector(store TransactionStore) *Projector {
	return &Projector{store: store}
}

// Handle decodes, validates and stores one message body.
// Errors wrapping ErrInvalidEvent must not be retried.
func (p *Projector) Handle(ctx context.Context, body []byte) error {
	var event events.TransactionRecordedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: failed to unmarshal event: %v", ErrInvalidEvent, err)
	}

	tx, err := ToTransaction(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if err := p.store.InsertTransaction(ctx, tx); err != nil {
		return err
	}

	logger.FromContext(ctx).Debug().
		Str("event_id", event.EventID).
		Str("transaction_id", event.TransactionID).
		Str("account_number", event.AccountNumber).
		Str("type", event.Type).
		Msg("transaction projected")

	return nil
}

// ToTransaction validates an event and converts it to a projected row.
func ToTransaction(event events.TransactionRecordedEvent) (*Transaction, error) {
	if event.EventType != events.EventTypeTransactionRecorded {
		return nil, fmt.Errorf("unexpected event type %q", event.EventType)
	}
	if event.AccountNumber == "" {
		return nil, fmt.Errorf("account number is required")
	}
	if !domain.TransactionType(event.Type).Valid() {
		return nil, fmt.Errorf("unknown transaction type %q", event.Type)
	}
	if event.Amount.CurrencyCode == "" {
		return nil, fmt.Errorf("currency code is required")
	}

	var err error
	tx := &Transaction{
		AccountNumber:             event.AccountNumber,
		Type:                      event.Type,
		CurrencyCode:              event.Amount.CurrencyCode,
		CounterpartyAccountNumber: event.CounterpartyAccountNumber,
		Description:               event.Description,
	}
	if tx.TransactionID, err = uuid.Parse(event.TransactionID); err != nil {
		return nil, fmt.Errorf("invalid transaction id: %w", err)
	}
	if tx.EventID, err = uuid.Parse(event.EventID); err != nil {
		return nil, fmt.Errorf("invalid event id: %w", err)
	}
	if tx.AccountID, err = uuid.Parse(event.AccountID); err != nil {
		return nil, fmt.Errorf("invalid account id: %w", err)
	}
	if tx.Amount, err = decimal.NewFromString(event.Amount.Value); err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if !tx.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", tx.Amount)
	}
	if tx.BalanceAfter, err = decimal.NewFromString(event.BalanceAfter); err != nil {
		return nil, fmt.Errorf("invalid balance after: %w", err)
	}
	if tx.Timestamp, err = time.Parse(time.RFC3339Nano, event.Timestamp); err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	tx.Timestamp = tx.Timestamp.UTC()

	return tx, nil
}
