package postgres

import (
	"context"
	"math"
	"testing"
	"time"

	adapterDiag "spreaddiag/adapters/stats/diagnostics"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*SummaryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSummaryRepository(sqlx.NewDb(db, "postgres")), mock
}

func sampleTable() *domainDiag.YearlySummaryTable {
	full := domainDiag.NewEmptyRow(2021)
	full.Observations = 8760
	full.ADFStat, full.ADFPValue = -3.2, 0.01
	full.HACTStat, full.HACPValue = 1.1, 0.27
	full.Autocorr, full.AutocorrPValue = 0.05, 0.4

	short := domainDiag.NewEmptyRow(2022)
	short.Observations = 2
	short.Skipped[domainDiag.SubTestADF] = "too short"

	return &domainDiag.YearlySummaryTable{AutocorrLag: 24, HACMaxLags: 96, Rows: []domainDiag.YearlyRow{full, short}}
}

func runColumns() []string {
	return []string{"id", "kind", "source", "autocorr_lag", "hac_max_lags", "created_at"}
}

func TestSummaryRepository_SaveYearly(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO diagnostic_runs").
		WithArgs(sqlmock.AnyArg(), RunKindYearly, "spread.csv", 24, 96, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO yearly_results").
		WithArgs(sqlmock.AnyArg(), 0, 2021, 8760, -3.2, 0.01, 1.1, 0.27, 0.05, 0.4, "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO yearly_results").
		WithArgs(sqlmock.AnyArg(), 1, 2022, 2, nil, nil, nil, nil, nil, nil, `{"adf":"too short"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	run, err := repo.SaveYearly(context.Background(), "spread.csv", sampleTable())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, RunKindYearly, run.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepository_SaveYearlyRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO diagnostic_runs").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.SaveYearly(context.Background(), "spread.csv", sampleTable())
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepository_GetYearly(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectQuery("FROM diagnostic_runs").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(runColumns()).AddRow(id.String(), RunKindYearly, "spread.csv", 12, 48, time.Now()))
	mock.ExpectQuery("SELECT year, observations").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"year", "observations", "adf_stat", "adf_pvalue", "hac_tstat", "hac_pvalue", "autocorr", "autocorr_pvalue", "skipped"}).
			AddRow(2023, 100, -4.0, 0.001, 2.0, 0.04, 0.1, 0.3, []byte(`{}`)).
			AddRow(2021, 1, nil, nil, nil, nil, nil, nil, []byte(`{"hac_mean":"too short"}`)))

	table, err := repo.GetYearly(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 12, table.AutocorrLag)
	assert.Equal(t, 48, table.HACMaxLags)
	assert.Equal(t, []int{2023, 2021}, table.Years())
	assert.Equal(t, -4.0, table.Rows[0].ADFStat)
	assert.True(t, math.IsNaN(table.Rows[1].ADFStat))
	assert.Equal(t, "too short", table.Rows[1].Skipped[domainDiag.SubTestHACMean])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepository_GetYearlyNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectQuery("FROM diagnostic_runs").WithArgs(id).WillReturnRows(sqlmock.NewRows(runColumns()))
	_, err := repo.GetYearly(context.Background(), id)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	mock.ExpectQuery("FROM diagnostic_runs").WithArgs(id).
		WillReturnRows(sqlmock.NewRows(runColumns()).AddRow(id.String(), RunKindSuite, "", 24, 96, time.Now()))
	_, err = repo.GetYearly(context.Background(), id)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepository_SuiteRoundTrip(t *testing.T) {
	repo, mock := newMockRepository(t)
	outcomes := []adapterDiag.Outcome{
		{Name: "variance_ratio", Result: &domainDiag.VarianceRatioResult{VarianceRatio: 1.5, FStatistic: 1.5, PValue: 0.02, DF1: 9, DF2: 9}},
		{Name: "adf", Err: errors.InsufficientData("adf", 5, 20)},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO diagnostic_runs").
		WithArgs(sqlmock.AnyArg(), RunKindSuite, "api", 24, 96, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO suite_results").
		WithArgs(sqlmock.AnyArg(), 0, "variance_ratio", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO suite_results").
		WithArgs(sqlmock.AnyArg(), 1, "adf", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	run, err := repo.SaveSuite(context.Background(), "api", adapterDiag.DefaultSuiteOptions(), outcomes)
	require.NoError(t, err)

	mock.ExpectQuery("FROM diagnostic_runs").WithArgs(run.ID).
		WillReturnRows(sqlmock.NewRows(runColumns()).AddRow(run.ID.String(), RunKindSuite, "api", 24, 96, run.CreatedAt))
	mock.ExpectQuery("FROM suite_results").WithArgs(run.ID).
		WillReturnRows(sqlmock.NewRows([]string{"test_name", "fields", "error_message"}).
			AddRow("variance_ratio", []byte(`{"variance_ratio":1.5,"p_value":0.02,"df1":9}`), nil).
			AddRow("adf", nil, "adf: insufficient data"))

	records, err := repo.GetSuite(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1.5, records[0].Fields["variance_ratio"])
	assert.Empty(t, records[0].Error)
	assert.Nil(t, records[1].Fields)
	assert.Equal(t, "adf: insufficient data", records[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepository_ListRuns(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now()

	mock.ExpectQuery(`LIMIT \$1`).WithArgs(2).
		WillReturnRows(sqlmock.NewRows(runColumns()).
			AddRow(uuid.NewString(), RunKindYearly, "a.csv", 24, 96, now).
			AddRow(uuid.NewString(), RunKindSuite, "b.csv", 24, 96, now.Add(-time.Hour)))

	runs, err := repo.ListRuns(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a.csv", runs[0].Source)
	assert.Equal(t, RunKindSuite, runs[1].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}
