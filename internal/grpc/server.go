package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

// LedgerService is the part of domain.LedgerService the server calls.
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

// LedgerServer implements the LedgerService gRPC service for trusted internal
// callers that pass the acting user id explicitly.
type LedgerServer struct {
	ledger LedgerService
}

// NewLedgerServer creates a new LedgerServer.
func NewLedgerServer(ledger LedgerService) *LedgerServer {
	return &LedgerServer{
		ledger: ledger,
	}
}

var _ LedgerServiceServer = (*LedgerServer)(nil)

// CreateAccount opens the user's account.
func (s *LedgerServer) CreateAccount(ctx context.Context, req *UserRequest) (*AccountResponse, error) {
	userID, err := parseUserID(req.UserId)
	if err != nil {
		return nil, err
	}

	account, err := s.ledger.CreateAccount(ctx, userID)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	return toAccountResponse(account), nil
}

// GetAccountInfo reports whether the user has an account.
func (s *LedgerServer) GetAccountInfo(ctx context.Context, req *UserRequest) (*AccountInfoResponse, error) {
	userID, err := parseUserID(req.UserId)
	if err != nil {
		return nil, err
	}

	info, err := s.ledger.GetAccountInfo(ctx, userID)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	response := &AccountInfoResponse{HasAccount: info.HasAccount}
	if info.HasAccount {
		response.AccountNumber = info.AccountNumber
		response.Balance = formatAmount(info.Balance)
	}
	return response, nil
}

// GetBalance returns the user's account number and balance.
func (s *LedgerServer) GetBalance(ctx context.Context, req *UserRequest) (*AccountResponse, error) {
	userID, err := parseUserID(req.UserId)
	if err != nil {
		return nil, err
	}

	account, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	return toAccountResponse(account), nil
}

// Deposit adds funds to the user's account.
func (s *LedgerServer) Deposit(ctx context.Context, req *AmountRequest) (*BalanceResponse, error) {
	userID, amount, err := parseAmountRequest(req.UserId, req.Amount)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.Deposit(ctx, userID, amount)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	return &BalanceResponse{NewBalance: formatAmount(balance)}, nil
}

// Withdraw removes funds from the user's account.
func (s *LedgerServer) Withdraw(ctx context.Context, req *AmountRequest) (*BalanceResponse, error) {
	userID, amount, err := parseAmountRequest(req.UserId, req.Amount)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.Withdraw(ctx, userID, amount)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	return &BalanceResponse{NewBalance: formatAmount(balance)}, nil
}

// Transfer moves funds from the user's account to another account atomically.
func (s *LedgerServer) Transfer(ctx context.Context, req *TransferRequest) (*BalanceResponse, error) {
	if req.ToAccountNumber == "" {
		return nil, status.Error(codes.InvalidArgument, "to_account_number is required")
	}
	userID, amount, err := parseAmountRequest(req.UserId, req.Amount)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.Transfer(ctx, userID, req.ToAccountNumber, amount)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	return &BalanceResponse{NewBalance: formatAmount(balance)}, nil
}

// History returns the user's newest transaction records.
func (s *LedgerServer) History(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	userID, err := parseUserID(req.UserId)
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}

	history, err := s.ledger.History(ctx, userID, int(req.Limit))
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	return &HistoryResponse{
		AccountNumber: history.AccountNumber,
		Transactions:  toTransactions(history.Records),
	}, nil
}

// DashboardStats returns the windowed aggregates of the user's account.
func (s *LedgerServer) DashboardStats(ctx context.Context, req *UserRequest) (*DashboardStatsResponse, error) {
	userID, err := parseUserID(req.UserId)
	if err != nil {
		return nil, err
	}

	stats, err := s.ledger.DashboardStats(ctx, userID)
	if err != nil {
		return nil, mapDomainErrorToGRPC(err)
	}

	return &DashboardStatsResponse{
		AccountNumber:      stats.AccountNumber,
		Balance:            formatAmount(stats.Balance),
		TotalDeposits:      formatAmount(stats.TotalDeposits),
		TotalWithdrawals:   formatAmount(stats.TotalWithdrawals),
		TotalTransfersOut:  formatAmount(stats.TotalTransfersOut),
		TotalTransfersIn:   formatAmount(stats.TotalTransfersIn),
		TransactionCount:   int32(stats.TransactionCount),
		RecentTransactions: toTransactions(stats.RecentTransactions),
	}, nil
}

func parseUserID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid user_id: %v", err)
	}
	return userID, nil
}

func parseAmountRequest(userIDValue, amountValue string) (uuid.UUID, decimal.Decimal, error) {
	userID, err := parseUserID(userIDValue)
	if err != nil {
		return uuid.Nil, decimal.Zero, err
	}
	amount, err := domain.ParseAmount(amountValue)
	if err != nil {
		return uuid.Nil, decimal.Zero, mapDomainErrorToGRPC(err)
	}
	return userID, amount, nil
}

// mapDomainErrorToGRPC maps domain errors to gRPC status codes.
func mapDomainErrorToGRPC(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrSelfTransfer):
		return status.Error(codes.InvalidArgument, "cannot transfer to same account")
	case errors.Is(err, domain.ErrAccountNotFound):
		return status.Error(codes.NotFound, "account not found")
	case errors.Is(err, domain.ErrRecipientNotFound):
		return status.Error(codes.NotFound, "recipient account not found")
	case errors.Is(err, domain.ErrAccountExists):
		return status.Error(codes.AlreadyExists, "account already exists")
	case errors.Is(err, domain.ErrInsufficientFunds):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrAccountNumberExhausted):
		return status.Error(codes.ResourceExhausted, "could not allocate account number")
	default:
		// Generic internal error
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}

func toAccountResponse(account *domain.Account) *AccountResponse {
	return &AccountResponse{
		AccountNumber: account.AccountNumber,
		Balance:       formatAmount(account.Balance),
		CreatedAt:     formatTimestamp(account.CreatedAt),
	}
}

func toTransactions(records []*domain.TransactionRecord) []*Transaction {
	out := make([]*Transaction, 0, len(records))
	for _, r := range records {
		out = append(out, &Transaction{
			Id:                        r.ID.String(),
			Type:                      string(r.Type),
			Amount:                    formatAmount(r.Amount),
			BalanceBefore:             formatAmount(r.BalanceBefore),
			BalanceAfter:              formatAmount(r.BalanceAfter),
			CounterpartyAccountNumber: r.CounterpartyAccountNumber,
			Description:               r.Description,
			Timestamp:                 formatTimestamp(r.Timestamp),
		})
	}
	return out
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountScale)
}

func formatTimestamp(t time.Time) *timestamppb.Timestamp {
	return timestamppb.New(t.UTC())
}
