package domain_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/memstore"
)

// mockEventPublisher records published events
type mockEventPublisher struct {
	mu     sync.Mutex
	events []domain.TransactionEvent
	err    error
}

func (m *mockEventPublisher) PublishTransactions(ctx context.Context, events []domain.TransactionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return m.err
}

func (m *mockEventPublisher) published() []domain.TransactionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TransactionEvent(nil), m.events...)
}

type fixture struct {
	store        *memstore.Store
	transactions *memstore.TransactionRepository
	service      *domain.LedgerService
}

func sequentialNumbers() domain.AccountNumberGenerator {
	var n atomic.Int64
	return domain.AccountNumberGeneratorFunc(func() string {
		return fmt.Sprintf("1001%09d", n.Add(1))
	})
}

func newFixture(t *testing.T, publisher domain.EventPublisher) *fixture {
	t.Helper()
	store := memstore.New()
	accounts := memstore.NewAccountRepository(store)
	transactions := memstore.NewTransactionRepository(store)

	ledger := domain.NewAccountLedger(accounts, sequentialNumbers(), 3)
	journal := domain.NewTransactionLog(transactions)
	service := domain.NewLedgerService(ledger, journal, store, publisher, domain.DefaultLimits())

	return &fixture{store: store, transactions: transactions, service: service}
}

// openAccount creates an account for a fresh user and deposits the opening balance.
func (f *fixture) openAccount(t *testing.T, opening int64) (uuid.UUID, *domain.Account) {
	t.Helper()
	userID := uuid.New()
	account, err := f.service.CreateAccount(context.Background(), userID)
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if opening > 0 {
		if _, err := f.service.Deposit(context.Background(), userID, decimal.NewFromInt(opening)); err != nil {
			t.Fatalf("opening deposit failed: %v", err)
		}
	}
	return userID, account
}

func (f *fixture) balance(t *testing.T, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	account, err := f.service.GetBalance(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	return account.Balance
}

func (f *fixture) records(t *testing.T, accountID uuid.UUID) []*domain.TransactionRecord {
	t.Helper()
	records, err := f.transactions.ListByAccount(context.Background(), accountID, 1000)
	if err != nil {
		t.Fatalf("ListByAccount failed: %v", err)
	}
	return records
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateAccount_Twice(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := uuid.New()

	account, err := f.service.CreateAccount(ctx, userID)
	if err != nil {
		t.Fatalf("first CreateAccount failed: %v", err)
	}
	if !account.Balance.IsZero() {
		t.Errorf("expected zero opening balance, got %s", account.Balance)
	}

	_, err = f.service.CreateAccount(ctx, userID)
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	got, err := f.service.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if got.ID != account.ID {
		t.Errorf("expected the original account to remain, got %s", got.ID)
	}
}

func TestCreateAccount_RetriesNumberCollisions(t *testing.T) {
	store := memstore.New()
	accounts := memstore.NewAccountRepository(store)
	ctx := context.Background()

	taken := domain.NewAccount(uuid.New(), "1001000000001", time.Now())
	if err := accounts.Create(ctx, taken); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	candidates := []string{"1001000000001", "1001000000001", "1001000000002"}
	var calls int
	numbers := domain.AccountNumberGeneratorFunc(func() string {
		n := candidates[calls]
		calls++
		return n
	})

	ledger := domain.NewAccountLedger(accounts, numbers, 5)
	account, err := ledger.CreateAccount(ctx, uuid.New())
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if account.AccountNumber != "1001000000002" {
		t.Errorf("expected third candidate, got %s", account.AccountNumber)
	}
	if calls != 3 {
		t.Errorf("expected 3 generator calls, got %d", calls)
	}
}

func TestCreateAccount_Exhausted(t *testing.T) {
	store := memstore.New()
	accounts := memstore.NewAccountRepository(store)
	ctx := context.Background()

	if err := accounts.Create(ctx, domain.NewAccount(uuid.New(), "1001000000001", time.Now())); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var calls int
	numbers := domain.AccountNumberGeneratorFunc(func() string {
		calls++
		return "1001000000001"
	})

	ledger := domain.NewAccountLedger(accounts, numbers, 4)
	_, err := ledger.CreateAccount(ctx, uuid.New())
	if !errors.Is(err, domain.ErrAccountNumberExhausted) {
		t.Fatalf("expected ErrAccountNumberExhausted, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 attempts, got %d", calls)
	}
}

func TestGetAccountInfo(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	info, err := f.service.GetAccountInfo(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetAccountInfo failed: %v", err)
	}
	if info.HasAccount {
		t.Error("expected has_account=false for a user without account")
	}

	userID, account := f.openAccount(t, 250)
	info, err = f.service.GetAccountInfo(ctx, userID)
	if err != nil {
		t.Fatalf("GetAccountInfo failed: %v", err)
	}
	if !info.HasAccount || info.AccountNumber != account.AccountNumber || !info.Balance.Equal(d("250")) {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestDeposit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
	}{
		{name: "zero", amount: decimal.Zero},
		{name: "negative", amount: d("-5")},
		{name: "above ceiling", amount: d("1000000.01")},
		{name: "sub-cent precision", amount: d("10.005")},
	}

	f := newFixture(t, nil)
	userID, account := f.openAccount(t, 0)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Deposit(context.Background(), userID, tt.amount)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if got := f.balance(t, userID); !got.IsZero() {
		t.Errorf("expected balance unchanged at 0, got %s", got)
	}
	if n := len(f.records(t, account.ID)); n != 0 {
		t.Errorf("expected no records, got %d", n)
	}
}

func TestDeposit_AtCeiling(t *testing.T) {
	f := newFixture(t, nil)
	userID, _ := f.openAccount(t, 0)

	balance, err := f.service.Deposit(context.Background(), userID, d("1000000"))
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if !balance.Equal(d("1000000")) {
		t.Errorf("expected 1000000, got %s", balance)
	}
}

func TestDeposit_NoAccount(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Deposit(context.Background(), uuid.New(), d("10"))
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDepositWithdraw_Sequence(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID, account := f.openAccount(t, 0)

	steps := []struct {
		deposit bool
		amount  string
		wantErr bool
	}{
		{true, "100.25", false},
		{false, "40.10", false},
		{false, "100.00", true},
		{true, "0.85", false},
		{false, "61.00", false},
	}

	expected := decimal.Zero
	applied := 0
	for i, step := range steps {
		amount := d(step.amount)
		var err error
		if step.deposit {
			_, err = f.service.Deposit(ctx, userID, amount)
		} else {
			_, err = f.service.Withdraw(ctx, userID, amount)
		}

		if step.wantErr {
			if !errors.Is(err, domain.ErrInsufficientFunds) {
				t.Fatalf("step %d: expected ErrInsufficientFunds, got %v", i, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		applied++
		if step.deposit {
			expected = expected.Add(amount)
		} else {
			expected = expected.Sub(amount)
		}
	}

	if got := f.balance(t, userID); !got.Equal(expected) {
		t.Errorf("expected balance %s, got %s", expected, got)
	}

	records := f.records(t, account.ID)
	if len(records) != applied {
		t.Fatalf("expected %d records, got %d", applied, len(records))
	}
	for _, r := range records {
		if err := domain.CheckRecord(r); err != nil {
			t.Errorf("record %s violates invariants: %v", r.ID, err)
		}
	}
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	f := newFixture(t, nil)
	userID, account := f.openAccount(t, 100)

	_, err := f.service.Withdraw(context.Background(), userID, d("150"))

	var insufficient *domain.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if !insufficient.Available.Equal(d("100")) {
		t.Errorf("expected available 100, got %s", insufficient.Available)
	}
	if got := f.balance(t, userID); !got.Equal(d("100")) {
		t.Errorf("expected balance to remain 100, got %s", got)
	}
	if n := len(f.records(t, account.ID)); n != 1 {
		t.Errorf("expected only the opening deposit record, got %d", n)
	}
}

func TestWithdraw_RecordShape(t *testing.T) {
	f := newFixture(t, nil)
	userID, account := f.openAccount(t, 2000)

	balance, err := f.service.Withdraw(context.Background(), userID, d("1234.5"))
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if !balance.Equal(d("765.5")) {
		t.Errorf("expected new balance 765.5, got %s", balance)
	}

	latest := f.records(t, account.ID)[0]
	if latest.Type != domain.TransactionTypeWithdrawal {
		t.Errorf("expected withdrawal, got %s", latest.Type)
	}
	if !latest.BalanceBefore.Equal(d("2000")) || !latest.BalanceAfter.Equal(d("765.5")) {
		t.Errorf("unexpected balances %s -> %s", latest.BalanceBefore, latest.BalanceAfter)
	}
	if latest.Description != "Withdrawal of Rs.1,234.50" {
		t.Errorf("unexpected description %q", latest.Description)
	}
	if latest.CounterpartyAccountNumber != "" {
		t.Errorf("expected no counterparty, got %q", latest.CounterpartyAccountNumber)
	}
}

func TestTransfer_Success(t *testing.T) {
	publisher := &mockEventPublisher{}
	f := newFixture(t, publisher)
	ctx := context.Background()

	senderUser, sender := f.openAccount(t, 1000)
	recipientUser, recipient := f.openAccount(t, 500)

	balance, err := f.service.Transfer(ctx, senderUser, " "+recipient.AccountNumber+" ", d("100.50"))
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if !balance.Equal(d("899.50")) {
		t.Errorf("expected sender balance 899.50, got %s", balance)
	}
	if got := f.balance(t, recipientUser); !got.Equal(d("600.50")) {
		t.Errorf("expected recipient balance 600.50, got %s", got)
	}

	total := f.balance(t, senderUser).Add(f.balance(t, recipientUser))
	if !total.Equal(d("1500")) {
		t.Errorf("expected total 1500 to be conserved, got %s", total)
	}

	out := f.records(t, sender.ID)[0]
	in := f.records(t, recipient.ID)[0]
	if out.Type != domain.TransactionTypeTransferOut || in.Type != domain.TransactionTypeTransferIn {
		t.Fatalf("unexpected types %s / %s", out.Type, in.Type)
	}
	if !out.Amount.Equal(in.Amount) {
		t.Errorf("amounts differ: %s vs %s", out.Amount, in.Amount)
	}
	if out.CounterpartyAccountNumber != recipient.AccountNumber || in.CounterpartyAccountNumber != sender.AccountNumber {
		t.Errorf("counterparties not mirrored: %q / %q", out.CounterpartyAccountNumber, in.CounterpartyAccountNumber)
	}
	if out.Description != "Transfer to "+recipient.AccountNumber || in.Description != "Transfer from "+sender.AccountNumber {
		t.Errorf("unexpected descriptions %q / %q", out.Description, in.Description)
	}
	if !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("expected both sides to share a timestamp")
	}
	for _, r := range []*domain.TransactionRecord{out, in} {
		if err := domain.CheckRecord(r); err != nil {
			t.Errorf("record violates invariants: %v", err)
		}
	}

	// two opening deposits plus both transfer sides
	events := publisher.published()
	if len(events) != 4 {
		t.Fatalf("expected 4 published events, got %d", len(events))
	}
	last := events[3]
	if last.Record.ID != in.ID || last.AccountNumber != recipient.AccountNumber {
		t.Errorf("unexpected last event %+v", last)
	}
}

func TestTransfer_Failures(t *testing.T) {
	f := newFixture(t, nil)
	senderUser, sender := f.openAccount(t, 100)
	_, recipient := f.openAccount(t, 0)

	tests := []struct {
		name    string
		userID  uuid.UUID
		to      string
		amount  string
		wantErr error
	}{
		{"missing recipient", senderUser, "  ", "10", domain.ErrValidation},
		{"non-positive amount", senderUser, recipient.AccountNumber, "0", domain.ErrValidation},
		{"sender has no account", uuid.New(), recipient.AccountNumber, "10", domain.ErrAccountNotFound},
		{"self transfer", senderUser, sender.AccountNumber, "10", domain.ErrSelfTransfer},
		{"unknown recipient", senderUser, "1001999999999", "10", domain.ErrRecipientNotFound},
		{"insufficient funds", senderUser, recipient.AccountNumber, "100.01", domain.ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Transfer(context.Background(), tt.userID, tt.to, d(tt.amount))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if got := f.balance(t, senderUser); !got.Equal(d("100")) {
		t.Errorf("expected sender balance unchanged, got %s", got)
	}
	if n := len(f.records(t, sender.ID)); n != 1 {
		t.Errorf("expected only the opening deposit on the sender, got %d records", n)
	}
	if n := len(f.records(t, recipient.ID)); n != 0 {
		t.Errorf("expected no records on the recipient, got %d", n)
	}
}

// failingTransactions fails every append of one record type.
type failingTransactions struct {
	*memstore.TransactionRepository
	failType domain.TransactionType
}

func (r *failingTransactions) Append(ctx context.Context, record *domain.TransactionRecord) error {
	if record.Type == r.failType {
		return errors.New("disk full")
	}
	return r.TransactionRepository.Append(ctx, record)
}

func TestTransfer_FailureAfterDebitRollsBack(t *testing.T) {
	f := newFixture(t, nil)
	senderUser, sender := f.openAccount(t, 100)
	recipientUser, recipient := f.openAccount(t, 0)

	publisher := &mockEventPublisher{}
	journal := domain.NewTransactionLog(&failingTransactions{
		TransactionRepository: f.transactions,
		failType:              domain.TransactionTypeTransferIn,
	})
	ledger := domain.NewAccountLedger(memstore.NewAccountRepository(f.store), sequentialNumbers(), 3)
	service := domain.NewLedgerService(ledger, journal, f.store, publisher, domain.DefaultLimits())

	_, err := service.Transfer(context.Background(), senderUser, recipient.AccountNumber, d("40"))
	if err == nil {
		t.Fatal("expected the transfer to fail")
	}

	if got := f.balance(t, senderUser); !got.Equal(d("100")) {
		t.Errorf("expected sender balance 100, got %s", got)
	}
	if got := f.balance(t, recipientUser); !got.IsZero() {
		t.Errorf("expected recipient balance 0, got %s", got)
	}
	if n := len(f.records(t, sender.ID)); n != 1 {
		t.Errorf("expected only the opening deposit on the sender, got %d records", n)
	}
	if n := len(f.records(t, recipient.ID)); n != 0 {
		t.Errorf("expected no records on the recipient, got %d", n)
	}
	if n := len(publisher.published()); n != 0 {
		t.Errorf("expected no events for a rolled back transfer, got %d", n)
	}
}

func TestConcurrentDepositAndWithdraw(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t, nil)
		userID, _ := f.openAccount(t, 200)

		var wg sync.WaitGroup
		start := make(chan struct{})
		errs := make(chan error, 2)

		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.service.Deposit(context.Background(), userID, d("100"))
			errs <- err
		}()
		go func() {
			defer wg.Done()
			<-start
			_, err := f.service.Withdraw(context.Background(), userID, d("50"))
			errs <- err
		}()
		close(start)
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Fatalf("operation failed: %v", err)
			}
		}
		if got := f.balance(t, userID); !got.Equal(d("250")) {
			t.Fatalf("iteration %d: expected 250, got %s", i, got)
		}
	}
}

func TestConcurrentOppositeTransfers(t *testing.T) {
	f := newFixture(t, nil)
	userA, a := f.openAccount(t, 1000)
	userB, b := f.openAccount(t, 1000)

	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := f.service.Transfer(context.Background(), userA, b.AccountNumber, d("10")); err != nil {
				t.Errorf("A->B failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := f.service.Transfer(context.Background(), userB, a.AccountNumber, d("10")); err != nil {
				t.Errorf("B->A failed: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("transfers did not finish: possible deadlock")
	}

	if got := f.balance(t, userA); !got.Equal(d("1000")) {
		t.Errorf("expected A balance 1000, got %s", got)
	}
	if got := f.balance(t, userB); !got.Equal(d("1000")) {
		t.Errorf("expected B balance 1000, got %s", got)
	}
	if n := len(f.records(t, a.ID)); n != 1+2*rounds {
		t.Errorf("expected %d records on A, got %d", 1+2*rounds, n)
	}
}

func TestHistory_LimitAndOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID, account := f.openAccount(t, 0)

	for i := 1; i <= 5; i++ {
		if _, err := f.service.Deposit(ctx, userID, decimal.NewFromInt(int64(i))); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}

	history, err := f.service.History(ctx, userID, 3)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if history.AccountNumber != account.AccountNumber {
		t.Errorf("expected account number %s, got %s", account.AccountNumber, history.AccountNumber)
	}
	if len(history.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(history.Records))
	}
	for i, want := range []string{"5", "4", "3"} {
		if !history.Records[i].Amount.Equal(d(want)) {
			t.Errorf("position %d: expected amount %s, got %s", i, want, history.Records[i].Amount)
		}
	}

	all, err := f.service.History(ctx, userID, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(all.Records) != 5 {
		t.Errorf("expected 5 records with default limit, got %d", len(all.Records))
	}
}

func TestNewLedgerService_ClampsLimits(t *testing.T) {
	tests := []struct {
		name   string
		limits domain.Limits
		want   domain.Limits
	}{
		{
			name:   "zero values use defaults",
			limits: domain.Limits{},
			want:   domain.DefaultLimits(),
		},
		{
			name: "oversized pages clamp to the log maximum",
			limits: domain.Limits{
				MaxDepositAmount: d("500"),
				HistoryLimit:     1000,
				DashboardWindow:  500,
			},
			want: domain.Limits{
				MaxDepositAmount: d("500"),
				HistoryLimit:     domain.DefaultLimits().HistoryLimit,
				DashboardWindow:  domain.MaxListLimit,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			ledger := domain.NewAccountLedger(memstore.NewAccountRepository(store), sequentialNumbers(), 3)
			journal := domain.NewTransactionLog(memstore.NewTransactionRepository(store))

			got := domain.NewLedgerService(ledger, journal, store, nil, tt.limits).Limits()
			if !got.MaxDepositAmount.Equal(tt.want.MaxDepositAmount) ||
				got.HistoryLimit != tt.want.HistoryLimit ||
				got.DashboardWindow != tt.want.DashboardWindow {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDashboardStats_Windowed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID, _ := f.openAccount(t, 0)
	_, other := f.openAccount(t, 0)

	// 3 old deposits fall outside the window of 10
	for i := 0; i < 3; i++ {
		if _, err := f.service.Deposit(ctx, userID, d("1000")); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}
	for i := 0; i < 6; i++ {
		if _, err := f.service.Deposit(ctx, userID, d("10")); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := f.service.Withdraw(ctx, userID, d("5")); err != nil {
			t.Fatalf("Withdraw failed: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := f.service.Transfer(ctx, userID, other.AccountNumber, d("7")); err != nil {
			t.Fatalf("Transfer failed: %v", err)
		}
	}

	stats, err := f.service.DashboardStats(ctx, userID)
	if err != nil {
		t.Fatalf("DashboardStats failed: %v", err)
	}

	if stats.TransactionCount != 10 || len(stats.RecentTransactions) != 10 {
		t.Fatalf("expected 10 records in window, got %d/%d", stats.TransactionCount, len(stats.RecentTransactions))
	}
	if !stats.TotalDeposits.Equal(d("60")) {
		t.Errorf("expected windowed deposits 60, got %s", stats.TotalDeposits)
	}
	if !stats.TotalWithdrawals.Equal(d("10")) {
		t.Errorf("expected withdrawals 10, got %s", stats.TotalWithdrawals)
	}
	if !stats.TotalTransfersOut.Equal(d("14")) {
		t.Errorf("expected transfers out 14, got %s", stats.TotalTransfersOut)
	}
	if !stats.TotalTransfersIn.IsZero() {
		t.Errorf("expected transfers in 0, got %s", stats.TotalTransfersIn)
	}
	if !stats.Balance.Equal(d("3036")) {
		t.Errorf("expected balance 3036, got %s", stats.Balance)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	publisher := &mockEventPublisher{err: errors.New("broker down")}
	f := newFixture(t, publisher)
	userID, _ := f.openAccount(t, 0)

	balance, err := f.service.Deposit(context.Background(), userID, d("42"))
	if err != nil {
		t.Fatalf("expected committed deposit to succeed, got %v", err)
	}
	if !balance.Equal(d("42")) {
		t.Errorf("expected balance 42, got %s", balance)
	}
}
