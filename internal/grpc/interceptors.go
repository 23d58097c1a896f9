package grpc

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
)

// LoggingInterceptor attaches log to every request context and logs the
// method, status code and duration of each call.
func LoggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqLog := log.With().Str("grpc_method", info.FullMethod).Logger()
		ctx = logger.WithContext(ctx, reqLog)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		event := reqLog.Info()
		if err != nil {
			event = reqLog.Warn().Err(err)
		}
		event.Str("code", code.String()).Dur("duration", time.Since(start)).Msg("grpc request")

		return resp, err
	}
}

// NewServer creates a gRPC server with the ledger and health services registered.
// Reflection is not registered: the ledger service has no file descriptor to describe.
func NewServer(ledger LedgerService, log zerolog.Logger) *grpc.Server {
	server := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(log)))

	RegisterLedgerServiceServer(server, NewLedgerServer(ledger))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server
}
