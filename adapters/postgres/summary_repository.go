package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"math"
	"time"

	adapterDiag "spreaddiag/adapters/stats/diagnostics"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/internal/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Run kinds
const (
	RunKindYearly = "yearly"
	RunKindSuite  = "suite"
)

// Run is the header row of one stored diagnostic run
type Run struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Kind        string    `db:"kind" json:"kind"`
	Source      string    `db:"source" json:"source"`
	AutocorrLag int       `db:"autocorr_lag" json:"autocorr_lag"`
	HACMaxLags  int       `db:"hac_max_lags" json:"hac_max_lags"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SuiteRecord is one stored engine outcome
type SuiteRecord struct {
	Name   string             `json:"name"`
	Fields map[string]float64 `json:"fields,omitempty"`
	Error  string             `json:"error,omitempty"`
}

type yearlyRecord struct {
	Year           int             `db:"year"`
	Observations   int             `db:"observations"`
	ADFStat        sql.NullFloat64 `db:"adf_stat"`
	ADFPValue      sql.NullFloat64 `db:"adf_pvalue"`
	HACTStat       sql.NullFloat64 `db:"hac_tstat"`
	HACPValue      sql.NullFloat64 `db:"hac_pvalue"`
	Autocorr       sql.NullFloat64 `db:"autocorr"`
	AutocorrPValue sql.NullFloat64 `db:"autocorr_pvalue"`
	Skipped        []byte          `db:"skipped"`
}

type suiteRecord struct {
	TestName     string         `db:"test_name"`
	Fields       []byte         `db:"fields"`
	ErrorMessage sql.NullString `db:"error_message"`
}

// SummaryRepository stores diagnostic result tables. Missing values are stored as NULL.
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a new PostgreSQL summary repository
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// SaveYearly stores a yearly table under a new run ID
func (r *SummaryRepository) SaveYearly(ctx context.Context, source string, table *domainDiag.YearlySummaryTable) (*Run, error) {
	run := newRun(RunKindYearly, source)
	run.AutocorrLag = table.AutocorrLag
	run.HACMaxLags = table.HACMaxLags

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		for i, row := range table.Rows {
			skipped, err := json.Marshal(row.Skipped)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO yearly_results (run_id, position, year, observations, adf_stat, adf_pvalue, hac_tstat, hac_pvalue, autocorr, autocorr_pvalue, skipped)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			`, run.ID, i, row.Year, row.Observations,
				nullFloat(row.ADFStat), nullFloat(row.ADFPValue),
				nullFloat(row.HACTStat), nullFloat(row.HACPValue),
				nullFloat(row.Autocorr), nullFloat(row.AutocorrPValue),
				string(skipped))
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "failed to save yearly results")
	}
	return run, nil
}

// GetYearly loads a stored yearly table with rows in their original order
func (r *SummaryRepository) GetYearly(ctx context.Context, runID uuid.UUID) (*domainDiag.YearlySummaryTable, error) {
	run, err := r.getRun(ctx, runID, RunKindYearly)
	if err != nil {
		return nil, err
	}

	var records []yearlyRecord
	err = r.db.SelectContext(ctx, &records, `
		SELECT year, observations, adf_stat, adf_pvalue, hac_tstat, hac_pvalue, autocorr, autocorr_pvalue, skipped
		FROM yearly_results
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, dbError(err, "failed to load yearly results")
	}

	table := &domainDiag.YearlySummaryTable{
		AutocorrLag: run.AutocorrLag,
		HACMaxLags:  run.HACMaxLags,
		Rows:        make([]domainDiag.YearlyRow, len(records)),
	}
	for i, rec := range records {
		row := domainDiag.NewEmptyRow(rec.Year)
		row.Observations = rec.Observations
		row.ADFStat = fromNull(rec.ADFStat)
		row.ADFPValue = fromNull(rec.ADFPValue)
		row.HACTStat = fromNull(rec.HACTStat)
		row.HACPValue = fromNull(rec.HACPValue)
		row.Autocorr = fromNull(rec.Autocorr)
		row.AutocorrPValue = fromNull(rec.AutocorrPValue)
		if len(rec.Skipped) > 0 {
			if err := json.Unmarshal(rec.Skipped, &row.Skipped); err != nil {
				return nil, errors.Wrap(errors.InternalError(err.Error()), "failed to decode skip reasons")
			}
			if row.Skipped == nil {
				row.Skipped = map[string]string{}
			}
		}
		table.Rows[i] = row
	}
	return table, nil
}

// SaveSuite stores engine outcomes under a new run ID
func (r *SummaryRepository) SaveSuite(ctx context.Context, source string, opts adapterDiag.SuiteOptions, outcomes []adapterDiag.Outcome) (*Run, error) {
	run := newRun(RunKindSuite, source)
	run.AutocorrLag = opts.AutocorrLag
	run.HACMaxLags = opts.HACMaxLags

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		for i, o := range outcomes {
			var fields interface{}
			var message interface{}
			if o.Err != nil {
				message = o.Err.Error()
			} else {
				raw, err := json.Marshal(nullableFields(o.Result.Fields()))
				if err != nil {
					return err
				}
				fields = string(raw)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO suite_results (run_id, position, test_name, fields, error_message)
				VALUES ($1, $2, $3, $4, $5)
			`, run.ID, i, o.Name, fields, message)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, "failed to save suite results")
	}
	return run, nil
}

// GetSuite loads stored engine outcomes in suite order
func (r *SummaryRepository) GetSuite(ctx context.Context, runID uuid.UUID) ([]SuiteRecord, error) {
	if _, err := r.getRun(ctx, runID, RunKindSuite); err != nil {
		return nil, err
	}

	var records []suiteRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT test_name, fields, error_message
		FROM suite_results
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, dbError(err, "failed to load suite results")
	}

	out := make([]SuiteRecord, len(records))
	for i, rec := range records {
		out[i] = SuiteRecord{Name: rec.TestName, Error: rec.ErrorMessage.String}
		if len(rec.Fields) == 0 {
			continue
		}
		var stored map[string]*float64
		if err := json.Unmarshal(rec.Fields, &stored); err != nil {
			return nil, errors.Wrap(errors.InternalError(err.Error()), "failed to decode suite fields")
		}
		out[i].Fields = make(map[string]float64, len(stored))
		for k, v := range stored {
			if v == nil {
				out[i].Fields[k] = math.NaN()
				continue
			}
			out[i].Fields[k] = *v
		}
	}
	return out, nil
}

// ListRuns returns the most recent runs first, optionally limited
func (r *SummaryRepository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, kind, source, autocorr_lag, hac_max_lags, created_at
		FROM diagnostic_runs
		ORDER BY created_at DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var runs []Run
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, dbError(err, "failed to list runs")
	}
	return runs, nil
}

func (r *SummaryRepository) getRun(ctx context.Context, runID uuid.UUID, kind string) (*Run, error) {
	var run Run
	err := r.db.GetContext(ctx, &run, `
		SELECT id, kind, source, autocorr_lag, hac_max_lags, created_at
		FROM diagnostic_runs
		WHERE id = $1
	`, runID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("run " + runID.String())
	}
	if err != nil {
		return nil, dbError(err, "failed to load run")
	}
	if run.Kind != kind {
		return nil, errors.NotFound(kind + " run " + runID.String())
	}
	return &run, nil
}

func (r *SummaryRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func newRun(kind, source string) *Run {
	return &Run{
		ID:        uuid.New(),
		Kind:      kind,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

func insertRun(ctx context.Context, tx *sqlx.Tx, run *Run) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO diagnostic_runs (id, kind, source, autocorr_lag, hac_max_lags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID, run.Kind, run.Source, run.AutocorrLag, run.HACMaxLags, run.CreatedAt)
	return err
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNull(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func nullableFields(fields map[string]float64) map[string]*float64 {
	out := make(map[string]*float64, len(fields))
	for k, v := range fields {
		out[k] = domainDiag.NullableFloat(v)
	}
	return out
}

func dbError(err error, message string) error {
	return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), message)
}
