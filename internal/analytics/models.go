package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one ledger record as projected into the analytics store.
type Transaction struct {
	TransactionID             uuid.UUID
	EventID                   uuid.UUID
	AccountID                 uuid.UUID
	AccountNumber             string
	Type                      string
	Amount                    decimal.Decimal
	BalanceAfter              decimal.Decimal
	CurrencyCode              string
	CounterpartyAccountNumber string
	Description               string
	Timestamp                 time.Time
}

// Totals are the lifetime aggregates of one account.
type Totals struct {
	AccountNumber     string
	TotalDeposits     decimal.Decimal
	TotalWithdrawals  decimal.Decimal
	TotalTransfersOut decimal.Decimal
	TotalTransfersIn  decimal.Decimal
	TransactionCount  uint64
	// LastActivity is zero when the account has no records.
	LastActivity time.Time
}

// NetFlow is everything credited minus everything debited.
func (t *Totals) NetFlow() decimal.Decimal {
	return t.TotalDeposits.Add(t.TotalTransfersIn).Sub(t.TotalWithdrawals).Sub(t.TotalTransfersOut)
}
