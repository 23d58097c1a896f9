package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api/middleware"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
)

// TotalsReader reads lifetime totals.
type TotalsReader interface {
	LifetimeTotals(ctx context.Context, accountNumber string) (*Totals, error)
}

// TotalsResponse is the body of GET /accounts/{number}/totals.
type TotalsResponse struct {
	Success bool        `json:"success"`
	Totals  TotalsStats `json:"totals"`
}

// TotalsStats holds the lifetime aggregates of one account.
type TotalsStats struct {
	AccountNumber     string      `json:"account_number"`
	TotalDeposits     json.Number `json:"total_deposits"`
	TotalWithdrawals  json.Number `json:"total_withdrawals"`
	TotalTransfersOut json.Number `json:"total_transfers_out"`
	TotalTransfersIn  json.Number `json:"total_transfers_in"`
	NetFlow           json.Number `json:"net_flow"`
	TransactionCount  uint64      `json:"transaction_count"`
	LastActivity      *time.Time  `json:"last_activity,omitempty"`
}

// NewRouter serves the lifetime totals of projected accounts.
func NewRouter(totals TotalsReader, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/accounts/{number}/totals", func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "number")

		t, err := totals.LifetimeTotals(r.Context(), number)
		if err != nil {
			logger.FromContext(r.Context()).Error().Err(err).Str("account_number", number).Msg("failed to read totals")
			middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		stats := TotalsStats{
			AccountNumber:     t.AccountNumber,
			TotalDeposits:     amount(t.TotalDeposits),
			TotalWithdrawals:  amount(t.TotalWithdrawals),
			TotalTransfersOut: amount(t.TotalTransfersOut),
			TotalTransfersIn:  amount(t.TotalTransfersIn),
			NetFlow:           amount(t.NetFlow()),
			TransactionCount:  t.TransactionCount,
		}
		if !t.LastActivity.IsZero() {
			last := t.LastActivity
			stats.LastActivity = &last
		}
		middleware.WriteJSON(w, http.StatusOK, TotalsResponse{Success: true, Totals: stats})
	})

	return r
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(domain.AmountScale))
}
