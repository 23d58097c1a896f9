package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrAccountNotFound is returned when the user has no account or an account id is unknown
	ErrAccountNotFound = errors.New("account not found")

	// ErrRecipientNotFound is returned when a transfer names an unknown account number
	ErrRecipientNotFound = errors.New("recipient account not found")

	// ErrUserNotFound is returned when a user doesn't exist
	ErrUserNotFound = errors.New("user not found")

	// ErrAccountExists is returned when the user already owns an account
	ErrAccountExists = errors.New("account already exists")

	// ErrEmailTaken is returned when registering an email that is already in use
	ErrEmailTaken = errors.New("email already registered")

	// ErrSelfTransfer is returned when sender and recipient are the same account
	ErrSelfTransfer = errors.New("cannot transfer to same account")

	// ErrInsufficientFunds is matched by every InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNumberTaken is returned by repositories when a generated account number collides.
	// The ledger retries on it and never surfaces it to callers.
	ErrAccountNumberTaken = errors.New("account number already taken")

	// ErrAccountNumberExhausted is returned when every account number attempt collided
	ErrAccountNumberExhausted = errors.New("could not allocate a unique account number")

	// ErrInvalidCredentials is returned when email and password don't match a user
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports ErrValidation as a match so callers can branch on the category.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientFundsError is returned when a debit would take a balance below zero.
// Available holds the balance observed under the account lock.
type InsufficientFundsError struct {
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s", e.Available.StringFixed(AmountScale))
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
