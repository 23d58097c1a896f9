package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api/handlers"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api/middleware"
)

// NewRouter builds the HTTP API.
func NewRouter(h *handlers.Handler, allowedOrigins []string, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS(allowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Get("/check", h.CheckSession)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireSession)

			r.Post("/account/create", h.CreateAccount)
			r.Get("/account/info", h.GetAccountInfo)
			r.Get("/account/balance", h.GetBalance)

			r.Post("/transactions/deposit", h.Deposit)
			r.Post("/transactions/withdraw", h.Withdraw)
			r.Post("/transactions/transfer", h.Transfer)
			r.Get("/transactions/history", h.History)

			r.Get("/dashboard/stats", h.DashboardStats)
		})
	})

	return r
}
