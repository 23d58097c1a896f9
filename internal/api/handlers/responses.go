package handlers

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

// DateLayout is how record timestamps are shown next to their RFC 3339 form.
const DateLayout = "2006-01-02 15:04:05"

// UserResponse describes the logged-in user.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// SessionResponse is returned by the session check.
type SessionResponse struct {
	Success  bool          `json:"success"`
	LoggedIn bool          `json:"logged_in"`
	User     *UserResponse `json:"user,omitempty"`
}

// MessageResponse is a success with a message only.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AccountResponse describes an account.
type AccountResponse struct {
	AccountNumber string      `json:"account_number"`
	Balance       json.Number `json:"balance"`
	CreatedAt     *time.Time  `json:"created_at,omitempty"`
}

// CreateAccountResponse is returned when an account is opened.
type CreateAccountResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Account AccountResponse `json:"account"`
}

// AccountInfoResponse tells whether the user has an account.
type AccountInfoResponse struct {
	Success    bool             `json:"success"`
	HasAccount bool             `json:"has_account"`
	Account    *AccountResponse `json:"account,omitempty"`
}

// BalanceResponse is returned by the balance query.
type BalanceResponse struct {
	Success       bool        `json:"success"`
	Balance       json.Number `json:"balance"`
	AccountNumber string      `json:"account_number"`
}

// MovementResponse is returned by deposit, withdraw and transfer.
type MovementResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	NewBalance json.Number `json:"new_balance"`
}

// TransactionResponse is one record of the transaction log.
type TransactionResponse struct {
	ID                        string      `json:"id"`
	Type                      string      `json:"type"`
	Amount                    json.Number `json:"amount"`
	BalanceBefore             json.Number `json:"balance_before"`
	BalanceAfter              json.Number `json:"balance_after"`
	CounterpartyAccountNumber string      `json:"counterparty_account_number,omitempty"`
	Description               string      `json:"description"`
	Timestamp                 time.Time   `json:"timestamp"`
	Date                      string      `json:"date"`
}

// HistoryResponse is a page of the transaction log, newest first.
type HistoryResponse struct {
	Success       bool                  `json:"success"`
	AccountNumber string                `json:"account_number"`
	Transactions  []TransactionResponse `json:"transactions"`
}

// StatsResponse aggregates the dashboard window.
type StatsResponse struct {
	AccountNumber     string      `json:"account_number"`
	Balance           json.Number `json:"balance"`
	TotalDeposits     json.Number `json:"total_deposits"`
	TotalWithdrawals  json.Number `json:"total_withdrawals"`
	TotalTransfersOut json.Number `json:"total_transfers_out"`
	TotalTransfersIn  json.Number `json:"total_transfers_in"`
	TransactionCount  int         `json:"transaction_count"`
}

// DashboardResponse is returned by the dashboard stats query.
type DashboardResponse struct {
	Success            bool                  `json:"success"`
	Stats              StatsResponse         `json:"stats"`
	RecentTransactions []TransactionResponse `json:"recent_transactions"`
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(domain.AmountScale))
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
	}
}

func toAccountResponse(a *domain.Account) AccountResponse {
	createdAt := a.CreatedAt.UTC()
	return AccountResponse{
		AccountNumber: a.AccountNumber,
		Balance:       amount(a.Balance),
		CreatedAt:     &createdAt,
	}
}

func toTransactionResponses(records []*domain.TransactionRecord) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(records))
	for _, r := range records {
		ts := r.Timestamp.UTC()
		out = append(out, TransactionResponse{
			ID:                        r.ID.String(),
			Type:                      string(r.Type),
			Amount:                    amount(r.Amount),
			BalanceBefore:             amount(r.BalanceBefore),
			BalanceAfter:              amount(r.BalanceAfter),
			CounterpartyAccountNumber: r.CounterpartyAccountNumber,
			Description:               r.Description,
			Timestamp:                 ts,
			Date:                      ts.Format(DateLayout),
		})
	}
	return out
}
