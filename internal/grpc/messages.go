package grpc

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Requests carry the caller-resolved user id. Amounts and balances travel as
// decimal strings with two places, e.g. "100.50".

// UserRequest identifies the acting user.
type UserRequest struct {
	UserId string `json:"user_id"`
}

// AmountRequest is the input of Deposit and Withdraw.
type AmountRequest struct {
	UserId string `json:"user_id"`
	Amount string `json:"amount"`
}

// TransferRequest is the input of Transfer.
type TransferRequest struct {
	UserId          string `json:"user_id"`
	ToAccountNumber string `json:"to_account_number"`
	Amount          string `json:"amount"`
}

// HistoryRequest is the input of History. Limit 0 means the default page size.
type HistoryRequest struct {
	UserId string `json:"user_id"`
	Limit  int32  `json:"limit,omitempty"`
}

// AccountResponse describes an account.
type AccountResponse struct {
	AccountNumber string                 `json:"account_number"`
	Balance       string                 `json:"balance"`
	CreatedAt     *timestamppb.Timestamp `json:"created_at,omitempty"`
}

// AccountInfoResponse is the output of GetAccountInfo.
type AccountInfoResponse struct {
	HasAccount    bool   `json:"has_account"`
	AccountNumber string `json:"account_number,omitempty"`
	Balance       string `json:"balance,omitempty"`
}

// BalanceResponse is the output of Deposit, Withdraw and Transfer.
type BalanceResponse struct {
	NewBalance string `json:"new_balance"`
}

// Transaction is one transaction record.
type Transaction struct {
	Id                        string                 `json:"id"`
	Type                      string                 `json:"type"`
	Amount                    string                 `json:"amount"`
	BalanceBefore             string                 `json:"balance_before"`
	BalanceAfter              string                 `json:"balance_after"`
	CounterpartyAccountNumber string                 `json:"counterparty_account_number,omitempty"`
	Description               string                 `json:"description"`
	Timestamp                 *timestamppb.Timestamp `json:"timestamp"`
}

// HistoryResponse is the output of History, newest first.
type HistoryResponse struct {
	AccountNumber string         `json:"account_number"`
	Transactions  []*Transaction `json:"transactions"`
}

// DashboardStatsResponse is the output of DashboardStats. Totals cover the
// recent window only.
type DashboardStatsResponse struct {
	AccountNumber      string         `json:"account_number"`
	Balance            string         `json:"balance"`
	TotalDeposits      string         `json:"total_deposits"`
	TotalWithdrawals   string         `json:"total_withdrawals"`
	TotalTransfersOut  string         `json:"total_transfers_out"`
	TotalTransfersIn   string         `json:"total_transfers_in"`
	TransactionCount   int32          `json:"transaction_count"`
	RecentTransactions []*Transaction `json:"recent_transactions"`
}
