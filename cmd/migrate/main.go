package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/config"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/migrate"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applied, err := migrate.Run(logger.WithContext(ctx, log), cfg.Postgres.URL, migrations.FS)
	if err != nil {
		log.Fatal().Err(err).Strs("applied", applied).Msg("migration failed")
	}

	if len(applied) == 0 {
		log.Info().Msg("database is up to date")
		return
	}
	log.Info().Int("count", len(applied)).Msg("migrations complete")
}
