package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api/middleware"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api/session"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
)

// maxBodyBytes caps request bodies; every request here is a small JSON object.
const maxBodyBytes = 1 << 20

// UserService is the part of domain.UserService the handlers call.
type UserService interface {
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// LedgerService is the part of domain.LedgerService the handlers call.
type LedgerService interface {
	CreateAccount(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	GetAccountInfo(ctx context.Context, userID uuid.UUID) (*domain.AccountInfo, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Transfer(ctx context.Context, userID uuid.UUID, toAccountNumber string, amount decimal.Decimal) (decimal.Decimal, error)
	History(ctx context.Context, userID uuid.UUID, limit int) (*domain.AccountHistory, error)
	DashboardStats(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error)
}

// Handler serves the session-authenticated JSON API.
type Handler struct {
	users        UserService
	ledger       LedgerService
	sessions     *session.Store
	cookieSecure bool
}

// NewHandler creates a new Handler.
func NewHandler(users UserService, ledger LedgerService, sessions *session.Store, cookieSecure bool) *Handler {
	return &Handler{
		users:        users,
		ledger:       ledger,
		sessions:     sessions,
		cookieSecure: cookieSecure,
	}
}

// RequireSession rejects requests without a live session cookie and puts the
// session into the request context.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := h.currentSession(r)
		if !ok {
			middleware.WriteError(w, http.StatusUnauthorized, "Please login first")
			return
		}
		ctx := session.WithContext(r.Context(), sess)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With().Str("user_id", sess.UserID.String()).Logger())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) currentSession(r *http.Request) (*session.Session, bool) {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	return h.sessions.Get(cookie.Value)
}

// userID returns the id of the user behind the request. Only valid behind RequireSession.
func userID(r *http.Request) uuid.UUID {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return uuid.Nil
	}
	return sess.UserID
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeDomainError maps domain errors to HTTP status codes and user-facing messages.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *domain.InsufficientFundsError
	var invalid *domain.ValidationError

	switch {
	case errors.As(err, &invalid):
		middleware.WriteError(w, http.StatusBadRequest, capitalize(invalid.Message))
	case errors.As(err, &insufficient):
		middleware.WriteError(w, http.StatusBadRequest,
			"Insufficient balance. Available: "+domain.FormatRupees(insufficient.Available))
	case errors.Is(err, domain.ErrSelfTransfer):
		middleware.WriteError(w, http.StatusBadRequest, "Cannot transfer to same account")
	case errors.Is(err, domain.ErrAccountNotFound):
		middleware.WriteError(w, http.StatusNotFound, "No account found")
	case errors.Is(err, domain.ErrRecipientNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Recipient account not found")
	case errors.Is(err, domain.ErrAccountExists):
		middleware.WriteError(w, http.StatusConflict, "Account already exists")
	case errors.Is(err, domain.ErrEmailTaken):
		middleware.WriteError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, domain.ErrInvalidCredentials):
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		logger.FromContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
