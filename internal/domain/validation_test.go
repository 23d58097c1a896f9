package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestFormatRupees(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "Rs.0.00"},
		{"5.5", "Rs.5.50"},
		{"999.99", "Rs.999.99"},
		{"1000", "Rs.1,000.00"},
		{"1234567.891", "Rs.1,234,567.89"},
		{"-2500", "-Rs.2,500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := FormatRupees(decimal.RequireFromString(tt.amount))
			if got != tt.want {
				t.Errorf("FormatRupees(%s) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"100.50", "100.5", false},
		{" 7 ", "7", false},
		{"", "", true},
		{"abc", "", true},
		{"9999999999999.99", "9999999999999.99", false},
		{"10000000000000", "", true},
		{"1e1000000", "", true},
		{"1e-1000000", "", true},
		{"1e50000000", "", true},
		{"100.000000000000000000000000000000000", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestValidateAmount_HugeExponentRejectedQuickly(t *testing.T) {
	for _, amount := range []decimal.Decimal{
		decimal.New(1, 50_000_000),
		decimal.New(1, -50_000_000),
	} {
		start := time.Now()
		err := ValidateAmount(amount)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("expected validation error for exponent %d, got %v", amount.Exponent(), err)
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("validation of exponent %d took %s", amount.Exponent(), elapsed)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	valid := []string{"0.01", "1", "999999.99"}
	for _, v := range valid {
		if err := ValidateAmount(decimal.RequireFromString(v)); err != nil {
			t.Errorf("ValidateAmount(%s) unexpected error: %v", v, err)
		}
	}

	invalidAmounts := []string{"0", "-0.01", "0.001", "10000000000000"}
	for _, v := range invalidAmounts {
		err := ValidateAmount(decimal.RequireFromString(v))
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) || validationErr.Field != "amount" {
			t.Errorf("ValidateAmount(%s) expected amount validation error, got %v", v, err)
		}
	}
}

func TestCheckRecord(t *testing.T) {
	base := func() *TransactionRecord {
		return &TransactionRecord{
			ID:            uuid.New(),
			AccountID:     uuid.New(),
			Type:          TransactionTypeWithdrawal,
			Amount:        decimal.NewFromInt(30),
			BalanceBefore: decimal.NewFromInt(100),
			BalanceAfter:  decimal.NewFromInt(70),
			Timestamp:     time.Now(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *TransactionRecord)
		wantErr bool
	}{
		{"valid withdrawal", func(r *TransactionRecord) {}, false},
		{"valid transfer in", func(r *TransactionRecord) {
			r.Type = TransactionTypeTransferIn
			r.BalanceAfter = decimal.NewFromInt(130)
			r.CounterpartyAccountNumber = "1001000000001"
		}, false},
		{"wrong direction", func(r *TransactionRecord) { r.Type = TransactionTypeDeposit }, true},
		{"unknown type", func(r *TransactionRecord) { r.Type = "refund" }, true},
		{"zero amount", func(r *TransactionRecord) {
			r.Amount = decimal.Zero
			r.BalanceAfter = r.BalanceBefore
		}, true},
		{"transfer without counterparty", func(r *TransactionRecord) { r.Type = TransactionTypeTransferOut }, true},
		{"counterparty on withdrawal", func(r *TransactionRecord) { r.CounterpartyAccountNumber = "1001000000001" }, true},
		{"negative result", func(r *TransactionRecord) {
			r.BalanceBefore = decimal.NewFromInt(10)
			r.BalanceAfter = decimal.NewFromInt(-20)
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(r)
			err := CheckRecord(r)
			if tt.wantErr && !errors.Is(err, ErrInconsistentRecord) {
				t.Errorf("expected ErrInconsistentRecord, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTimeRandomGenerator(t *testing.T) {
	g := &TimeRandomGenerator{
		now:     func() time.Time { return time.Unix(1738212345, 0) },
		randInt: func(n int) int { return 42 },
	}

	if got := g.Next(); got != "1001123450042" {
		t.Errorf("expected 1001123450042, got %s", got)
	}
}

func TestInsufficientFundsError(t *testing.T) {
	err := error(&InsufficientFundsError{Available: decimal.RequireFromString("12.3")})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Error("expected errors.Is to match ErrInsufficientFunds")
	}
	if err.Error() != "insufficient funds: available 12.30" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
