package migration

import (
	"context"

	"spreaddiag/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createDiagnosticRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create diagnostic_runs table")
	}

	if err := r.createYearlyResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create yearly_results table")
	}

	if err := r.createSuiteResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create suite_results table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createDiagnosticRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS diagnostic_runs (
			id UUID PRIMARY KEY,
			kind VARCHAR(20) NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			autocorr_lag INTEGER NOT NULL DEFAULT 0,
			hac_max_lags INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createYearlyResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS yearly_results (
			run_id UUID NOT NULL REFERENCES diagnostic_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			year INTEGER NOT NULL,
			observations INTEGER NOT NULL,
			adf_stat DOUBLE PRECISION,
			adf_pvalue DOUBLE PRECISION,
			hac_tstat DOUBLE PRECISION,
			hac_pvalue DOUBLE PRECISION,
			autocorr DOUBLE PRECISION,
			autocorr_pvalue DOUBLE PRECISION,
			skipped JSONB,
			PRIMARY KEY (run_id, year)
		)
	`)
	return err
}

func (r *MigrationRunner) createSuiteResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS suite_results (
			run_id UUID NOT NULL REFERENCES diagnostic_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			test_name VARCHAR(50) NOT NULL,
			fields JSONB,
			error_message TEXT,
			PRIMARY KEY (run_id, test_name)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_diagnostic_runs_created_at ON diagnostic_runs(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_diagnostic_runs_kind ON diagnostic_runs(kind);
	`)
	return err
}
