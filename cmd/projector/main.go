package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/analytics"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/config"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).With().Str("service", "projector").Logger()
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	client, err := analytics.NewClickHouseClient(ctx, cfg.ClickHouse)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to ClickHouse")
	}
	defer client.Close()
	log.Info().Str("host", cfg.ClickHouse.Host).Msg("connected to ClickHouse")

	repo := analytics.NewTransactionRepository(client)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare analytics schema")
	}

	consumer, err := analytics.NewRabbitMQConsumer(cfg.RabbitMQ, analytics.NewProjector(repo))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create RabbitMQ consumer")
	}
	defer consumer.Close()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Projector.Port,
		Handler:           analytics.NewRouter(repo, log),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Start(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("totals API starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("projector stopped with error")
		return
	}
	log.Info().Msg("projector stopped")
}
