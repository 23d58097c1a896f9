package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

// EventTypeTransactionRecorded is the eventType of every ledger record event.
const EventTypeTransactionRecorded = "transaction.recorded"

// RoutingKeyPrefix prefixes the record type in routing keys, e.g. "ledger.transactions.deposit".
const RoutingKeyPrefix = "ledger.transactions."

// TransactionRecordedEvent is the payload published for each appended transaction record.
type TransactionRecordedEvent struct {
	EventID                   string `json:"eventId"`
	EventType                 string `json:"eventType"`
	EventTimestamp            string `json:"eventTimestamp"`
	TransactionID             string `json:"transactionId"`
	AccountID                 string `json:"accountId"`
	AccountNumber             string `json:"accountNumber"`
	Type                      string `json:"type"`
	Amount                    Amount `json:"amount"`
	BalanceAfter              string `json:"balanceAfter"`
	CounterpartyAccountNumber string `json:"counterpartyAccountNumber,omitempty"`
	Description               string `json:"description"`
	Timestamp                 string `json:"timestamp"`
}

// Amount represents a monetary amount with currency
type Amount struct {
	Value        string `json:"value"`        // Decimal value with two places, e.g. "100.50"
	CurrencyCode string `json:"currencyCode"` // ISO 4217 code, e.g. "INR"
}

// NewTransactionRecordedEvent builds the payload for a committed record.
func NewTransactionRecordedEvent(e domain.TransactionEvent, currencyCode string) TransactionRecordedEvent {
	r := e.Record
	return TransactionRecordedEvent{
		EventID:        uuid.NewString(),
		EventType:      EventTypeTransactionRecorded,
		EventTimestamp: time.Now().UTC().Format(time.RFC3339Nano),
		TransactionID:  r.ID.String(),
		AccountID:      r.AccountID.String(),
		AccountNumber:  e.AccountNumber,
		Type:           string(r.Type),
		Amount: Amount{
			Value:        r.Amount.StringFixed(domain.AmountScale),
			CurrencyCode: currencyCode,
		},
		BalanceAfter:              r.BalanceAfter.StringFixed(domain.AmountScale),
		CounterpartyAccountNumber: r.CounterpartyAccountNumber,
		Description:               r.Description,
		Timestamp:                 r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// RoutingKey returns the topic routing key of the event.
func (e TransactionRecordedEvent) RoutingKey() string {
	return RoutingKeyPrefix + e.Type
}
