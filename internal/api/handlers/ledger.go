package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api/middleware"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

// AmountRequest is the body of deposit and withdraw.
// Amount accepts a JSON number or a numeric string.
type AmountRequest struct {
	Amount json.Number `json:"amount"`
}

// TransferRequest is the body of POST /api/transactions/transfer.
type TransferRequest struct {
	ToAccount string      `json:"to_account"`
	Amount    json.Number `json:"amount"`
}

// CreateAccount opens the user's account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.CreateAccount(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, CreateAccountResponse{
		Success: true,
		Message: "Account created successfully",
		Account: toAccountResponse(account),
	})
}

// GetAccountInfo reports whether the user has an account.
func (h *Handler) GetAccountInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.ledger.GetAccountInfo(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := AccountInfoResponse{Success: true, HasAccount: info.HasAccount}
	if info.HasAccount {
		resp.Account = &AccountResponse{
			AccountNumber: info.AccountNumber,
			Balance:       amount(info.Balance),
		}
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// GetBalance returns the user's balance.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledger.GetBalance(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, BalanceResponse{
		Success:       true,
		Balance:       amount(account.Balance),
		AccountNumber: account.AccountNumber,
	})
}

// Deposit adds money to the user's account.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	value, err := domain.ParseAmount(req.Amount.String())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	balance, err := h.ledger.Deposit(r.Context(), userID(r), value)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, MovementResponse{
		Success:    true,
		Message:    "Successfully deposited " + domain.FormatRupees(value),
		NewBalance: amount(balance),
	})
}

// Withdraw takes money out of the user's account.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	value, err := domain.ParseAmount(req.Amount.String())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	balance, err := h.ledger.Withdraw(r.Context(), userID(r), value)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, MovementResponse{
		Success:    true,
		Message:    "Successfully withdrew " + domain.FormatRupees(value),
		NewBalance: amount(balance),
	})
}

// Transfer moves money to another account.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	to := strings.TrimSpace(req.ToAccount)
	if to == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Recipient account number required")
		return
	}
	value, err := domain.ParseAmount(req.Amount.String())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	balance, err := h.ledger.Transfer(r.Context(), userID(r), to, value)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, MovementResponse{
		Success:    true,
		Message:    "Successfully transferred " + domain.FormatRupees(value) + " to " + to,
		NewBalance: amount(balance),
	})
}

// History returns the newest records of the user's account.
// The optional limit query parameter defaults to the service maximum.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	history, err := h.ledger.History(r.Context(), userID(r), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, HistoryResponse{
		Success:       true,
		AccountNumber: history.AccountNumber,
		Transactions:  toTransactionResponses(history.Records),
	})
}

// DashboardStats returns the aggregates of the user's recent records.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.DashboardStats(r.Context(), userID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, DashboardResponse{
		Success: true,
		Stats: StatsResponse{
			AccountNumber:     stats.AccountNumber,
			Balance:           amount(stats.Balance),
			TotalDeposits:     amount(stats.TotalDeposits),
			TotalWithdrawals:  amount(stats.TotalWithdrawals),
			TotalTransfersOut: amount(stats.TotalTransfersOut),
			TotalTransfersIn:  amount(stats.TotalTransfersIn),
			TransactionCount:  stats.TransactionCount,
		},
		RecentTransactions: toTransactionResponses(stats.RecentTransactions),
	})
}
