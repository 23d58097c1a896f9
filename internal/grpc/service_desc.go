package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified name of the ledger service.
const ServiceName = "ledger.v1.LedgerService"

// LedgerServiceServer is the server API for the ledger service.
type LedgerServiceServer interface {
	CreateAccount(context.Context, *UserRequest) (*AccountResponse, error)
	GetAccountInfo(context.Context, *UserRequest) (*AccountInfoResponse, error)
	GetBalance(context.Context, *UserRequest) (*AccountResponse, error)
	Deposit(context.Context, *AmountRequest) (*BalanceResponse, error)
	Withdraw(context.Context, *AmountRequest) (*BalanceResponse, error)
	Transfer(context.Context, *TransferRequest) (*BalanceResponse, error)
	History(context.Context, *HistoryRequest) (*HistoryResponse, error)
	DashboardStats(context.Context, *UserRequest) (*DashboardStatsResponse, error)
}

// RegisterLedgerServiceServer registers srv on s.
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

// LedgerService_ServiceDesc is the grpc.ServiceDesc for the ledger service.
var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAccount", Handler: unaryHandler("CreateAccount", LedgerServiceServer.CreateAccount)},
		{MethodName: "GetAccountInfo", Handler: unaryHandler("GetAccountInfo", LedgerServiceServer.GetAccountInfo)},
		{MethodName: "GetBalance", Handler: unaryHandler("GetBalance", LedgerServiceServer.GetBalance)},
		{MethodName: "Deposit", Handler: unaryHandler("Deposit", LedgerServiceServer.Deposit)},
		{MethodName: "Withdraw", Handler: unaryHandler("Withdraw", LedgerServiceServer.Withdraw)},
		{MethodName: "Transfer", Handler: unaryHandler("Transfer", LedgerServiceServer.Transfer)},
		{MethodName: "History", Handler: unaryHandler("History", LedgerServiceServer.History)},
		{MethodName: "DashboardStats", Handler: unaryHandler("DashboardStats", LedgerServiceServer.DashboardStats)},
	},
	Streams: []grpc.StreamDesc{},
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unaryHandler adapts a typed server method to a grpc.MethodHandler.
func unaryHandler[Req, Resp any](
	method string,
	call func(LedgerServiceServer, context.Context, *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LedgerServiceClient is the client API for the ledger service.
type LedgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient creates a client on cc. Calls use the JSON codec.
func NewLedgerServiceClient(cc grpc.ClientConnInterface) *LedgerServiceClient {
	return &LedgerServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LedgerServiceClient) CreateAccount(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, "CreateAccount", in, opts)
}

func (c *LedgerServiceClient) GetAccountInfo(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*AccountInfoResponse, error) {
	return invoke[AccountInfoResponse](ctx, c.cc, "GetAccountInfo", in, opts)
}

func (c *LedgerServiceClient) GetBalance(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*AccountResponse, error) {
	return invoke[AccountResponse](ctx, c.cc, "GetBalance", in, opts)
}

func (c *LedgerServiceClient) Deposit(ctx context.Context, in *AmountRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	return invoke[BalanceResponse](ctx, c.cc, "Deposit", in, opts)
}

func (c *LedgerServiceClient) Withdraw(ctx context.Context, in *AmountRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	return invoke[BalanceResponse](ctx, c.cc, "Withdraw", in, opts)
}

func (c *LedgerServiceClient) Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	return invoke[BalanceResponse](ctx, c.cc, "Transfer", in, opts)
}

func (c *LedgerServiceClient) History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, c.cc, "History", in, opts)
}

func (c *LedgerServiceClient) DashboardStats(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*DashboardStatsResponse, error) {
	return invoke[DashboardStatsResponse](ctx, c.cc, "DashboardStats", in, opts)
}
