package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api/handlers"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/api/session"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/config"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/db"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/events"
	grpcserver "github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/grpc"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/memstore"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/migrate"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/migrations"
)

func main() {
	applyMigrations := flag.Bool("migrate", false, "apply database migrations before serving (postgres only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	if err := run(ctx, cfg, *applyMigrations, log); err != nil {
		log.Fatal().Err(err).Msg("ledger-service stopped with error")
	}
	log.Info().Msg("ledger-service stopped")
}

// storage bundles the repositories of one storage driver.
type storage struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	users        domain.UserRepository
	txManager    domain.TransactionManager
	close        func()
}

func openStorage(ctx context.Context, cfg *config.Config, applyMigrations bool, log zerolog.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		store := memstore.New()
		return &storage{
			accounts:     memstore.NewAccountRepository(store),
			transactions: memstore.NewTransactionRepository(store),
			users:        memstore.NewUserRepository(store),
			txManager:    store,
			close:        store.Close,
		}, nil
	}

	if applyMigrations {
		applied, err := migrate.Run(ctx, cfg.Postgres.URL, migrations.FS)
		if err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		log.Info().Strs("applied", applied).Msg("migrations complete")
	}

	pool, err := db.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("database connection pool initialized")

	return &storage{
		accounts:     db.NewAccountRepository(pool.Pool),
		transactions: db.NewTransactionRepository(pool.Pool),
		users:        db.NewUserRepository(pool.Pool),
		txManager:    db.NewTransactionManager(pool.Pool),
		close:        pool.Close,
	}, nil
}

func run(ctx context.Context, cfg *config.Config, applyMigrations bool, log zerolog.Logger) error {
	store, err := openStorage(ctx, cfg, applyMigrations, log)
	if err != nil {
		return err
	}
	defer store.close()

	// Events are published by a dispatcher that outlives the servers, so
	// requests still in flight during shutdown can enqueue their events.
	var publisher domain.EventPublisher
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()
	dispatchDone := make(chan struct{})
	close(dispatchDone)

	if cfg.RabbitMQ.Enabled {
		rabbit, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		defer rabbit.Close()

		dispatcher := events.NewDispatcher(rabbit, cfg.Ledger.CurrencyCode, events.DispatcherOptions{
			QueueSize: cfg.Ledger.EventQueueSize,
			Workers:   cfg.Ledger.EventWorkers,
		})
		publisher = dispatcher

		dispatchDone = make(chan struct{})
		go func() {
			defer close(dispatchDone)
			_ = dispatcher.Run(dispatchCtx)
		}()
		log.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("event publishing enabled")
	}

	ledger := domain.NewAccountLedger(store.accounts, domain.NewTimeRandomGenerator(), cfg.Ledger.AccountNumberAttempts)
	journal := domain.NewTransactionLog(store.transactions)
	ledgerService := domain.NewLedgerService(ledger, journal, store.txManager, publisher, domain.Limits{
		MaxDepositAmount: cfg.Ledger.MaxDepositAmount,
		HistoryLimit:     cfg.Ledger.HistoryLimit,
		DashboardWindow:  cfg.Ledger.DashboardWindow,
	})
	userService := domain.NewUserService(store.users, 0)
	log.Info().Msg("domain services initialized")

	sessions := session.NewStore(cfg.Session.TTL)
	handler := handlers.NewHandler(userService, ledgerService, sessions, cfg.Session.CookieSecure)
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           api.NewRouter(handler, cfg.HTTP.AllowedOrigins, log),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	grpcServer := grpcserver.NewServer(ledgerService, log)
	lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.GRPC.Port, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("HTTP server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", lis.Addr().String()).Msg("gRPC server starting")
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, cfg.Session.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server forced to shutdown")
		}
		grpcServer.GracefulStop()
		return nil
	})

	err = g.Wait()

	stopDispatch()
	<-dispatchDone
	return err
}
