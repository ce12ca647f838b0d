package main

import (
	"context"
	"log"
	"os"
	"time"

	"spreaddiag/internal/config"
	"spreaddiag/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	databaseURL := cfg.URL
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate [database_url] (or set DIAG_DATABASE_URL)")
	}

	logger := cfg.Logger()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	logger.Info("Applying schema version %s", runner.Version())
	if err := runner.Run(ctx, db); err != nil {
		logger.Error("Migration failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Migration complete")
}
