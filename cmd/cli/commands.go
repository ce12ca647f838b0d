package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"spreaddiag/adapters/excel"
	"spreaddiag/adapters/report"
	adapterDiag "spreaddiag/adapters/stats/diagnostics"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/internal/analysis/yearly"
	"spreaddiag/internal/errors"
	"spreaddiag/internal/testkit"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newYearlyCmd(opts *globalOptions) *cobra.Command {
	var years []int

	cmd := &cobra.Command{
		Use:   "yearly [file]",
		Short: "ADF, HAC mean and autocorrelation tests per calendar year",
		Long: `Run the per-year summary on the error column of a CSV or XLSX file.

Years with too few observations are reported with empty values.

Example: spreaddiag yearly errors.csv --years 2021,2022,2023 --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.reader(args[0]).ReadSeries()
			if err != nil {
				return err
			}

			runner := yearly.NewRunner(yearly.Options{
				ADF:         opts.cfg.ADFOptions(),
				HACMaxLags:  opts.cfg.HACMaxLags,
				AutocorrLag: opts.cfg.AutocorrLag,
				Workers:     opts.cfg.Workers,
			}, opts.logger)

			ctx := cmd.Context()
			var table *domainDiag.YearlySummaryTable
			if len(years) > 0 {
				table, err = runner.Run(ctx, s, years)
			} else {
				table, err = runner.RunAllYears(ctx, s)
			}
			if err != nil {
				return err
			}

			w, closeFn, err := opts.writer()
			if err != nil {
				return err
			}
			if err := report.Yearly(w, opts.reportFormat, table); err != nil {
				closeFn()
				return err
			}
			if err := closeFn(); err != nil {
				return err
			}

			if opts.xlsxPath != "" {
				sw := excel.NewSummaryWriter()
				if err := sw.AddYearly(table); err != nil {
					return err
				}
				if err := sw.Save(opts.xlsxPath); err != nil {
					return err
				}
			}

			if opts.save {
				repo, db, err := opts.repository(ctx)
				if err != nil {
					return err
				}
				defer db.Close()
				run, err := repo.SaveYearly(ctx, args[0], table)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "saved run %s\n", run.ID)
			}
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&years, "years", nil, "Years to report, in output order (default: every year in the file)")
	return cmd
}

func newSuiteCmd(opts *globalOptions) *cobra.Command {
	var test string

	cmd := &cobra.Command{
		Use:   "suite [file]",
		Short: "Run every diagnostic on the full error series",
		Long: `Run the ADF, autocorrelation, HAC mean, variance trend and variance ratio tests.

The variance tests need both price columns. A failing test is reported in place
and does not stop the others.

Example: spreaddiag suite spread.xlsx --sheet Errors --window 720 --split 0.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := opts.reader(args[0]).ReadFrame()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			engine := adapterDiag.NewEngine()
			suiteOpts := opts.cfg.SuiteOptions()
			input := adapterDiag.DiagnosticInput{Frame: frame, Options: suiteOpts}

			var outcomes []adapterDiag.Outcome
			if test != "" {
				outcome, ok := engine.RunSingle(ctx, test, input)
				if !ok {
					return errors.InvalidParameter("unknown diagnostic %q (see the list command)", test)
				}
				outcomes = []adapterDiag.Outcome{outcome}
			} else {
				outcomes = engine.RunAll(ctx, input)
			}
			for _, o := range outcomes {
				if o.Err != nil {
					opts.logger.Warn("%s failed: %v", o.Name, o.Err)
				}
			}

			w, closeFn, err := opts.writer()
			if err != nil {
				return err
			}
			if err := report.Suite(w, opts.reportFormat, outcomes); err != nil {
				closeFn()
				return err
			}
			if err := closeFn(); err != nil {
				return err
			}

			if opts.xlsxPath != "" {
				sw := excel.NewSummaryWriter()
				if err := sw.AddSuite(outcomes); err != nil {
					return err
				}
				if err := sw.Save(opts.xlsxPath); err != nil {
					return err
				}
			}

			if opts.save {
				repo, db, err := opts.repository(ctx)
				if err != nil {
					return err
				}
				defer db.Close()
				run, err := repo.SaveSuite(ctx, args[0], suiteOpts, outcomes)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "saved run %s\n", run.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&test, "test", "", "Run a single diagnostic by name")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, info := range adapterDiag.NewEngine().Describe() {
				fmt.Fprintf(tw, "%s\t%s\n", info.Name, info.Description)
			}
			return tw.Flush()
		},
	}
}

func newRunsCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, db, err := opts.repository(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := repo.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tSOURCE\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Kind, r.Source, r.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func newShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Render a stored yearly run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return errors.InvalidParameter("invalid run id %q", args[0])
			}
			repo, db, err := opts.repository(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			table, err := repo.GetYearly(cmd.Context(), id)
			if err != nil {
				return err
			}
			w, closeFn, err := opts.writer()
			if err != nil {
				return err
			}
			if err := report.Yearly(w, opts.reportFormat, table); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
}

func newGenerateCmd() *cobra.Command {
	config := testkit.DefaultSpreadConfig()
	var years int

	cmd := &cobra.Command{
		Use:   "generate [out.csv]",
		Short: "Write a synthetic hourly spread file for trying the other commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Hours = years * 365 * 24
			frame := testkit.NewSpreadDataGenerator(config).GenerateFrame()

			f, err := os.Create(args[0])
			if err != nil {
				return errors.Wrap(err, "failed to create output file")
			}
			defer f.Close()

			cols := excel.DefaultColumnConfig()
			w := csv.NewWriter(f)
			if err := w.Write([]string{cols.Timestamp, cols.Price1, cols.Price2, cols.Error}); err != nil {
				return err
			}
			for i := range frame.Error {
				e := ""
				if !math.IsNaN(frame.Error[i]) {
					e = strconv.FormatFloat(frame.Error[i], 'f', 4, 64)
				}
				err := w.Write([]string{
					frame.Times[i].Format(time.RFC3339),
					strconv.FormatFloat(frame.Price1[i], 'f', 2, 64),
					strconv.FormatFloat(frame.Price2[i], 'f', 2, 64),
					e,
				})
				if err != nil {
					return err
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %d rows to %s\n", len(frame.Error), args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&years, "years", 3, "Years of hourly data")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed")
	cmd.Flags().Float64Var(&config.ErrorPhi, "phi", config.ErrorPhi, "AR(1) coefficient of the error")
	cmd.Flags().Float64Var(&config.ErrorGrowth, "growth", config.ErrorGrowth, "Relative growth of the error scale over the sample")
	cmd.Flags().Float64Var(&config.MissingRate, "missing", config.MissingRate, "Share of missing error values")
	return cmd
}
