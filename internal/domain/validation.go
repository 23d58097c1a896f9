package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places money is stored with.
const AmountScale = 2

// maxAmountDigits bounds both the length of an amount string and its exponent,
// so no amount ever expands into a huge big.Int.
const maxAmountDigits = 32

// MaxAmount is the largest value a NUMERIC(15,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

// ParseAmount parses a decimal amount string such as "100.50".
func ParseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, invalid("amount", "amount is required")
	}
	if len(value) > maxAmountDigits {
		return decimal.Zero, invalid("amount", "amount is out of range")
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, invalid("amount", "amount must be a number")
	}
	if err := checkRange(amount); err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// checkRange rejects amounts whose exponent or magnitude no account can hold.
// The exponent is checked first: comparing values rescales them.
func checkRange(amount decimal.Decimal) error {
	if exp := amount.Exponent(); exp > maxAmountDigits || exp < -maxAmountDigits {
		return invalid("amount", "amount is out of range")
	}
	if amount.Abs().GreaterThan(MaxAmount) {
		return invalid("amount", "amount is out of range")
	}
	return nil
}

// ValidateAmount checks that an amount is positive, no larger than MaxAmount
// and has at most two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if err := checkRange(amount); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return invalid("amount", "amount must be positive")
	}
	if !amount.Equal(amount.Round(AmountScale)) {
		return invalid("amount", "amount must have at most %d decimal places", AmountScale)
	}
	return nil
}

// FormatRupees renders an amount the way it appears in descriptions and messages, e.g. "Rs.1,234.50".
func FormatRupees(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(AmountScale)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString("Rs.")
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
