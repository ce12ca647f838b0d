package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "spreaddiag",
		Short: "Stationarity, autocorrelation and variance diagnostics for spread forecast errors",
		Long: `Run time-series diagnostics on a prepared error series (CSV or XLSX).

Defaults come from DIAG_* environment variables (or a .env file); flags override them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}
	opts.bind(rootCmd)

	rootCmd.AddCommand(
		newYearlyCmd(opts),
		newSuiteCmd(opts),
		newListCmd(),
		newRunsCmd(opts),
		newShowCmd(opts),
		newGenerateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
