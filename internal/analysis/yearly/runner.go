package yearly

import (
	"context"
	"time"

	"spreaddiag/adapters/stats/diagnostics"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/domain/series"
	"spreaddiag/internal"
	"spreaddiag/internal/errors"

	"golang.org/x/sync/errgroup"
)

// Options configures the per-year sub-tests
type Options struct {
	ADF         diagnostics.ADFOptions
	HACMaxLags  int
	AutocorrLag int
	Workers     int
}

// DefaultOptions returns 96 HAC lags, a lag-24 autocorrelation and AIC lag selection
func DefaultOptions() Options {
	return Options{
		ADF:         diagnostics.DefaultADFOptions(),
		HACMaxLags:  diagnostics.DefaultHACMaxLags,
		AutocorrLag: diagnostics.DefaultAutocorrLag,
		Workers:     4,
	}
}

// Runner evaluates the ADF, HAC mean and autocorrelation tests for each calendar year
type Runner struct {
	opts   Options
	logger *internal.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(opts Options, logger *internal.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &Runner{opts: opts, logger: logger}
}

// Run builds one row per requested year, in request order. Sub-tests that lack data
// or hit a degenerate series leave NaN; parameter errors abort the run.
func (r *Runner) Run(ctx context.Context, s series.Series, years []int) (*domainDiag.YearlySummaryTable, error) {
	if len(years) == 0 {
		return nil, errors.InvalidParameter("yearly: no years requested")
	}
	seen := make(map[int]bool, len(years))
	for _, y := range years {
		if seen[y] {
			return nil, errors.InvalidParameter("yearly: year %d requested twice", y)
		}
		seen[y] = true
	}

	subsets := make([]series.Series, len(years))
	total := 0
	for i, y := range years {
		subsets[i] = s.Year(y)
		total += subsets[i].Len()
	}
	if total == 0 {
		return nil, errors.Newf(errors.CodeInsufficientData, "yearly: series has no observations in years %v", years)
	}

	start := time.Now()
	rows := make([]domainDiag.YearlyRow, len(years))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i := range years {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := r.runYear(years[i], subsets[i])
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("yearly diagnostics finished: %d years in %s", len(years), time.Since(start).Round(time.Millisecond))
	return &domainDiag.YearlySummaryTable{
		AutocorrLag: r.opts.AutocorrLag,
		HACMaxLags:  r.opts.HACMaxLags,
		Rows:        rows,
	}, nil
}

// RunAllYears runs every calendar year present in the series
func (r *Runner) RunAllYears(ctx context.Context, s series.Series) (*domainDiag.YearlySummaryTable, error) {
	years := s.Years()
	if len(years) == 0 {
		return nil, errors.InsufficientData("yearly", 0, 1)
	}
	return r.Run(ctx, s, years)
}

func (r *Runner) runYear(year int, sub series.Series) (domainDiag.YearlyRow, error) {
	row := domainDiag.NewEmptyRow(year)
	row.Observations = sub.Valid()
	values := sub.Values()
	log := r.logger.With("year", year)

	adf, err := diagnostics.ADF(values, r.opts.ADF)
	if err := r.absorb(&row, domainDiag.SubTestADF, err, log); err != nil {
		return row, err
	}
	if adf != nil {
		row.ADFStat, row.ADFPValue = adf.Statistic, adf.PValue
	}

	mean, err := diagnostics.HACMeanTest(values, r.opts.HACMaxLags)
	if err := r.absorb(&row, domainDiag.SubTestHACMean, err, log); err != nil {
		return row, err
	}
	if mean != nil {
		row.HACTStat, row.HACPValue = mean.TStat, mean.PValue
	}

	// A year no longer than the lag has no pairs at all
	var acf *domainDiag.AutocorrTResult
	if len(values) <= r.opts.AutocorrLag {
		err = errors.InsufficientData("autocorrelation", len(values), r.opts.AutocorrLag+1)
	} else {
		acf, err = diagnostics.AutocorrelationT(values, r.opts.AutocorrLag)
	}
	if err := r.absorb(&row, domainDiag.SubTestAutocorr, err, log); err != nil {
		return row, err
	}
	if acf != nil {
		row.Autocorr, row.AutocorrPValue = acf.ACF, acf.PValue
	}

	log.Debug("year done: %d observations, %d sub-tests skipped", row.Observations, len(row.Skipped))
	return row, nil
}

// absorb records recoverable sub-test failures on the row and passes everything else up
func (r *Runner) absorb(row *domainDiag.YearlyRow, subTest string, err error, log *internal.Logger) error {
	if err == nil {
		return nil
	}
	if errors.IsInsufficientData(err) || errors.IsNumericDegeneracy(err) {
		row.Skipped[subTest] = err.Error()
		log.Warn("%s skipped: %v", subTest, err)
		return nil
	}
	return errors.Wrapf(err, "yearly: %d %s", row.Year, subTest)
}
