package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
)

// Limits holds the tunable bounds of the ledger use cases.
type Limits struct {
	MaxDepositAmount decimal.Decimal // Largest single deposit
	HistoryLimit     int             // Default and maximum size of a history page
	DashboardWindow  int             // Number of recent records the dashboard aggregates
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxDepositAmount: decimal.NewFromInt(1_000_000),
		HistoryLimit:     MaxListLimit,
		DashboardWindow:  10,
	}
}

// AccountHistory is a page of an account's transaction log.
type AccountHistory struct {
	AccountNumber string
	Records       []*TransactionRecord
}

// LedgerService implements the account use cases.
// Every balance-affecting call is one database transaction covering the
// balance updates and the log appends that describe them.
type LedgerService struct {
	ledger    *AccountLedger
	journal   *TransactionLog
	txManager TransactionManager
	// Optional event publisher to emit domain events after commit
	eventPublisher EventPublisher
	limits         Limits
	now            func() time.Time
}

// NewLedgerService creates a new instance of LedgerService.
// Pass nil for eventPublisher if no events should be emitted.
func NewLedgerService(
	ledger *AccountLedger,
	journal *TransactionLog,
	txManager TransactionManager,
	eventPublisher EventPublisher,
	limits Limits,
) *LedgerService {
	defaults := DefaultLimits()
	if limits.MaxDepositAmount.IsZero() {
		limits.MaxDepositAmount = defaults.MaxDepositAmount
	}
	if limits.HistoryLimit <= 0 || limits.HistoryLimit > MaxListLimit {
		limits.HistoryLimit = defaults.HistoryLimit
	}
	if limits.DashboardWindow <= 0 {
		limits.DashboardWindow = defaults.DashboardWindow
	}
	if limits.DashboardWindow > MaxListLimit {
		limits.DashboardWindow = MaxListLimit
	}

	return &LedgerService{
		ledger:         ledger,
		journal:        journal,
		txManager:      txManager,
		eventPublisher: eventPublisher,
		limits:         limits,
		now:            now,
	}
}

// Limits returns the limits in effect after defaults and clamping.
func (s *LedgerService) Limits() Limits {
	return s.limits
}

// CreateAccount opens the user's account with a zero balance.
func (s *LedgerService) CreateAccount(ctx context.Context, userID uuid.UUID) (*Account, error) {
	account, err := s.ledger.CreateAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("user_id", userID.String()).
		Str("account_number", account.AccountNumber).
		Msg("account created")

	return account, nil
}

// GetAccountInfo reports whether the user has an account and, if so, its number and balance.
func (s *LedgerService) GetAccountInfo(ctx context.Context, userID uuid.UUID) (*AccountInfo, error) {
	account, err := s.ledger.GetByUser(ctx, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return &AccountInfo{HasAccount: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &AccountInfo{
		HasAccount:    true,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
	}, nil
}

// GetBalance returns the user's account. Fails with ErrAccountNotFound if there is none.
func (s *LedgerService) GetBalance(ctx context.Context, userID uuid.UUID) (*Account, error) {
	return s.ledger.GetByUser(ctx, userID)
}

// Deposit adds amount to the user's account and returns the new balance.
func (s *LedgerService) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	if amount.GreaterThan(s.limits.MaxDepositAmount) {
		return decimal.Zero, invalid("amount", "maximum deposit amount is %s", FormatRupees(s.limits.MaxDepositAmount))
	}

	account, err := s.ledger.GetByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	var record *TransactionRecord
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		change, err := s.ledger.AdjustBalance(txCtx, account.ID, amount)
		if err != nil {
			return err
		}

		record = NewTransactionRecord(account.ID, TransactionTypeDeposit, amount, change, "", s.now(),
			fmt.Sprintf("Deposit of %s", FormatRupees(amount)))
		_, err = s.journal.Append(txCtx, record)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.publish(ctx, TransactionEvent{Record: record, AccountNumber: account.AccountNumber})
	return record.BalanceAfter, nil
}

// Withdraw removes amount from the user's account and returns the new balance.
// Fails with an InsufficientFundsError if the balance is lower than amount.
func (s *LedgerService) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	account, err := s.ledger.GetByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	var record *TransactionRecord
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		change, err := s.ledger.AdjustBalance(txCtx, account.ID, amount.Neg())
		if err != nil {
			return err
		}

		record = NewTransactionRecord(account.ID, TransactionTypeWithdrawal, amount, change, "", s.now(),
			fmt.Sprintf("Withdrawal of %s", FormatRupees(amount)))
		_, err = s.journal.Append(txCtx, record)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.publish(ctx, TransactionEvent{Record: record, AccountNumber: account.AccountNumber})
	return record.BalanceAfter, nil
}

// Transfer moves amount from the user's account to the account with toAccountNumber
// and returns the sender's new balance.
//
// The transfer is executed atomically within a database transaction:
// 1. Lock both accounts in ascending ID order
// 2. Debit the sender (fails if the balance is insufficient)
// 3. Credit the recipient
// 4. Append the transfer_out and transfer_in records
// 5. Commit transaction
func (s *LedgerService) Transfer(
	ctx context.Context,
	userID uuid.UUID,
	toAccountNumber string,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	toAccountNumber = strings.TrimSpace(toAccountNumber)
	if toAccountNumber == "" {
		return decimal.Zero, invalid("to_account", "recipient account number required")
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	sender, err := s.ledger.GetByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if sender.AccountNumber == toAccountNumber {
		return decimal.Zero, ErrSelfTransfer
	}

	recipient, err := s.ledger.GetByAccountNumber(ctx, toAccountNumber)
	if errors.Is(err, ErrAccountNotFound) {
		return decimal.Zero, ErrRecipientNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get recipient account: %w", err)
	}

	var out, in *TransactionRecord
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.ledger.Lock(txCtx, sender.ID, recipient.ID); err != nil {
			return err
		}

		debit, err := s.ledger.AdjustBalance(txCtx, sender.ID, amount.Neg())
		if err != nil {
			return err
		}
		credit, err := s.ledger.AdjustBalance(txCtx, recipient.ID, amount)
		if err != nil {
			return err
		}

		timestamp := s.now()
		out = NewTransactionRecord(sender.ID, TransactionTypeTransferOut, amount, debit,
			recipient.AccountNumber, timestamp, "Transfer to "+recipient.AccountNumber)
		in = NewTransactionRecord(recipient.ID, TransactionTypeTransferIn, amount, credit,
			sender.AccountNumber, timestamp, "Transfer from "+sender.AccountNumber)

		if _, err := s.journal.Append(txCtx, out); err != nil {
			return err
		}
		_, err = s.journal.Append(txCtx, in)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.publish(ctx,
		TransactionEvent{Record: out, AccountNumber: sender.AccountNumber},
		TransactionEvent{Record: in, AccountNumber: recipient.AccountNumber},
	)
	return out.BalanceAfter, nil
}

// History returns the user's newest records. limit <= 0 or above the configured
// history limit is clamped to it.
func (s *LedgerService) History(ctx context.Context, userID uuid.UUID, limit int) (*AccountHistory, error) {
	if limit <= 0 || limit > s.limits.HistoryLimit {
		limit = s.limits.HistoryLimit
	}

	account, err := s.ledger.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.journal.ListByAccount(ctx, account.ID, limit)
	if err != nil {
		return nil, err
	}

	return &AccountHistory{AccountNumber: account.AccountNumber, Records: records}, nil
}

// DashboardStats aggregates the most recent records of the user's account.
// The totals are windowed: they sum only the last DashboardWindow records.
func (s *LedgerService) DashboardStats(ctx context.Context, userID uuid.UUID) (*DashboardStats, error) {
	account, err := s.ledger.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.journal.ListByAccount(ctx, account.ID, s.limits.DashboardWindow)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		AccountNumber:      account.AccountNumber,
		Balance:            account.Balance,
		TotalDeposits:      decimal.Zero,
		TotalWithdrawals:   decimal.Zero,
		TotalTransfersOut:  decimal.Zero,
		TotalTransfersIn:   decimal.Zero,
		TransactionCount:   len(records),
		RecentTransactions: records,
	}
	for _, r := range records {
		switch r.Type {
		case TransactionTypeDeposit:
			stats.TotalDeposits = stats.TotalDeposits.Add(r.Amount)
		case TransactionTypeWithdrawal:
			stats.TotalWithdrawals = stats.TotalWithdrawals.Add(r.Amount)
		case TransactionTypeTransferOut:
			stats.TotalTransfersOut = stats.TotalTransfersOut.Add(r.Amount)
		case TransactionTypeTransferIn:
			stats.TotalTransfersIn = stats.TotalTransfersIn.Add(r.Amount)
		}
	}

	return stats, nil
}

// publish emits committed records. Failures are logged and never reach the caller:
// the operation has already been committed.
func (s *LedgerService) publish(ctx context.Context, events ...TransactionEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.PublishTransactions(ctx, events); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Int("events", len(events)).Msg("failed to publish transaction events")
	}
}
