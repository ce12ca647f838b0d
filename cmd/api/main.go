package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"spreaddiag/adapters/api"
	"spreaddiag/adapters/postgres"
	"spreaddiag/internal/config"
	"spreaddiag/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store api.ResultStore
	if cfg.URL != "" {
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
		if err != nil {
			logger.Error("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := migration.NewRunner().Run(ctx, db); err != nil {
			logger.Error("Failed to migrate database: %v", err)
			os.Exit(1)
		}
		store = postgres.NewSummaryRepository(db)
		logger.Info("Result persistence enabled")
	} else {
		logger.Info("DIAG_DATABASE_URL not set, running without persistence")
	}

	server := api.NewServer(api.Config{
		Suite:   cfg.SuiteOptions(),
		Workers: cfg.Workers,
	}, store, logger)

	if err := server.Start(ctx, ":"+cfg.Port); err != nil {
		logger.Error("Server failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
