package main

import (
	"context"
	"io"
	"os"

	"spreaddiag/adapters/excel"
	"spreaddiag/adapters/postgres"
	"spreaddiag/adapters/report"
	"spreaddiag/internal"
	"spreaddiag/internal/config"
	"spreaddiag/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

// globalOptions carries the persistent flags and the configuration they override
type globalOptions struct {
	format   string
	output   string
	xlsxPath string
	save     bool
	logLevel string

	columns excel.ColumnConfig

	hacLags     int
	autocorrLag int
	adfMaxLag   int
	adfAutoLag  string
	window      int
	splitRatio  float64
	workers     int

	cfg          *config.Config
	logger       *internal.Logger
	reportFormat report.Format
}

func (o *globalOptions) bind(cmd *cobra.Command) {
	defaults := excel.DefaultColumnConfig()
	f := cmd.PersistentFlags()

	f.StringVarP(&o.format, "format", "f", "text", "Report format: text|markdown|html|csv|json")
	f.StringVarP(&o.output, "output", "o", "", "Write the report to a file instead of stdout")
	f.StringVar(&o.xlsxPath, "xlsx", "", "Also write the results to an XLSX workbook")
	f.BoolVar(&o.save, "save", false, "Store the results in PostgreSQL (needs DIAG_DATABASE_URL)")
	f.StringVar(&o.logLevel, "log-level", "", "Log level: error|warn|info|debug|trace")

	f.StringVar(&o.columns.Timestamp, "time-col", defaults.Timestamp, "Timestamp column")
	f.StringVar(&o.columns.Error, "error-col", defaults.Error, "Error column")
	f.StringVar(&o.columns.Price1, "price1-col", defaults.Price1, "First zone price column")
	f.StringVar(&o.columns.Price2, "price2-col", defaults.Price2, "Second zone price column")
	f.StringVar(&o.columns.Sheet, "sheet", "", "XLSX sheet (default: first sheet)")

	f.IntVar(&o.hacLags, "hac-lags", 0, "Newey-West truncation lag")
	f.IntVar(&o.autocorrLag, "autocorr-lag", 0, "Autocorrelation lag")
	f.IntVar(&o.adfMaxLag, "adf-maxlag", 0, "ADF maximum lag (-1 for automatic)")
	f.StringVar(&o.adfAutoLag, "adf-autolag", "", "ADF lag selection: AIC|BIC|fixed")
	f.IntVar(&o.window, "window", 0, "Rolling variance window")
	f.Float64Var(&o.splitRatio, "split", 0, "Variance ratio split point in (0, 1)")
	f.IntVar(&o.workers, "workers", 0, "Concurrent years in the yearly run")
}

// load reads the environment configuration and applies every flag the user set
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("hac-lags") {
		cfg.HACMaxLags = o.hacLags
	}
	if flags.Changed("autocorr-lag") {
		cfg.AutocorrLag = o.autocorrLag
	}
	if flags.Changed("adf-maxlag") {
		cfg.ADFMaxLag = o.adfMaxLag
	}
	if flags.Changed("adf-autolag") {
		cfg.ADFAutoLag = o.adfAutoLag
	}
	if flags.Changed("window") {
		cfg.VarianceWindow = o.window
	}
	if flags.Changed("split") {
		cfg.SplitRatio = o.splitRatio
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := report.ParseFormat(o.format)
	if err != nil {
		return err
	}
	if o.save && cfg.URL == "" {
		return errors.ConfigInvalid("--save needs DIAG_DATABASE_URL")
	}

	o.cfg = cfg
	o.reportFormat = format
	o.logger = cfg.Logger()
	return nil
}

func (o *globalOptions) reader(path string) *excel.DataReader {
	return excel.NewDataReader(path).WithColumns(o.columns).WithLogger(o.logger)
}

// writer returns the report destination and a close function
func (o *globalOptions) writer() (io.Writer, func() error, error) {
	if o.output == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(o.output)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create report file")
	}
	return f, f.Close, nil
}

// repository opens the result store. The caller closes the returned database.
func (o *globalOptions) repository(ctx context.Context) (*postgres.SummaryRepository, *sqlx.DB, error) {
	if o.cfg.URL == "" {
		return nil, nil, errors.ConfigInvalid("DIAG_DATABASE_URL is not set")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", o.cfg.URL)
	if err != nil {
		return nil, nil, errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to connect to database")
	}
	return postgres.NewSummaryRepository(db), db, nil
}
