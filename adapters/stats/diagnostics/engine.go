package diagnostics

import (
	"context"

	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/domain/series"
)

// SuiteOptions parameterizes every diagnostic in the suite
type SuiteOptions struct {
	ADF            ADFOptions
	AutocorrLag    int
	HACMaxLags     int
	VarianceWindow int
	SplitRatio     float64
}

// DefaultSuiteOptions returns the hourly-data defaults
func DefaultSuiteOptions() SuiteOptions {
	return SuiteOptions{
		ADF:            DefaultADFOptions(),
		AutocorrLag:    DefaultAutocorrLag,
		HACMaxLags:     DefaultHACMaxLags,
		VarianceWindow: DefaultVarianceWindow,
		SplitRatio:     DefaultSplitRatio,
	}
}

// DiagnosticInput is the dataset a diagnostic runs over
type DiagnosticInput struct {
	Frame   series.Frame
	Options SuiteOptions
}

// Diagnostic defines the interface for each test in the suite
type Diagnostic interface {
	Name() string
	Description() string
	Run(input DiagnosticInput) (domainDiag.TestResult, error)
}

// Outcome pairs a diagnostic with its result or the error that stopped it
type Outcome struct {
	Name   string                `json:"name"`
	Result domainDiag.TestResult `json:"result,omitempty"`
	Err    error                 `json:"-"`
}

// Info describes a diagnostic for listings
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Engine orchestrates the diagnostic suite
type Engine struct {
	diagnostics []Diagnostic
}

// NewEngine creates an engine with the full suite in display order
func NewEngine() *Engine {
	return &Engine{
		diagnostics: []Diagnostic{
			adfDiagnostic{},
			autocorrDiagnostic{},
			hacMeanDiagnostic{},
			varianceTrendDiagnostic{},
			varianceRatioDiagnostic{},
		},
	}
}

// RunAll runs every diagnostic concurrently. Outcomes come back in suite order;
// a failing diagnostic does not stop the others.
func (e *Engine) RunAll(ctx context.Context, input DiagnosticInput) []Outcome {
	outcomes := make([]Outcome, len(e.diagnostics))

	type outcomeWithIndex struct {
		outcome Outcome
		index   int
	}
	outcomeChan := make(chan outcomeWithIndex, len(e.diagnostics))

	for i, d := range e.diagnostics {
		go func(d Diagnostic, idx int) {
			outcomeChan <- outcomeWithIndex{outcome: runDiagnostic(ctx, d, input), index: idx}
		}(d, i)
	}

	for i := 0; i < len(e.diagnostics); i++ {
		res := <-outcomeChan
		outcomes[res.index] = res.outcome
	}
	return outcomes
}

// RunSingle runs a diagnostic by name
func (e *Engine) RunSingle(ctx context.Context, name string, input DiagnosticInput) (Outcome, bool) {
	for _, d := range e.diagnostics {
		if d.Name() == name {
			return runDiagnostic(ctx, d, input), true
		}
	}
	return Outcome{}, false
}

// List returns all available diagnostic names
func (e *Engine) List() []string {
	names := make([]string, len(e.diagnostics))
	for i, d := range e.diagnostics {
		names[i] = d.Name()
	}
	return names
}

// Describe returns the name and description of each diagnostic in suite order
func (e *Engine) Describe() []Info {
	infos := make([]Info, len(e.diagnostics))
	for i, d := range e.diagnostics {
		infos[i] = Info{Name: d.Name(), Description: d.Description()}
	}
	return infos
}

func runDiagnostic(ctx context.Context, d Diagnostic, input DiagnosticInput) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Name: d.Name(), Err: err}
	}
	result, err := d.Run(input)
	if err != nil {
		return Outcome{Name: d.Name(), Err: err}
	}
	return Outcome{Name: d.Name(), Result: result}
}

type adfDiagnostic struct{}

func (adfDiagnostic) Name() string { return "adf" }
func (adfDiagnostic) Description() string {
	return "Augmented Dickey-Fuller unit-root test on the error series"
}
func (adfDiagnostic) Run(in DiagnosticInput) (domainDiag.TestResult, error) {
	return ADF(in.Frame.Error, in.Options.ADF)
}

type autocorrDiagnostic struct{}

func (autocorrDiagnostic) Name() string { return "autocorrelation" }
func (autocorrDiagnostic) Description() string {
	return "Lag-k autocorrelation of the error series with a normal z-test"
}
func (autocorrDiagnostic) Run(in DiagnosticInput) (domainDiag.TestResult, error) {
	return Autocorrelation(in.Frame.Error, in.Options.AutocorrLag)
}

type hacMeanDiagnostic struct{}

func (hacMeanDiagnostic) Name() string { return "hac_mean" }
func (hacMeanDiagnostic) Description() string {
	return "Zero-mean test with Newey-West standard errors"
}
func (hacMeanDiagnostic) Run(in DiagnosticInput) (domainDiag.TestResult, error) {
	return HACMeanTest(in.Frame.Error, in.Options.HACMaxLags)
}

type varianceTrendDiagnostic struct{}

func (varianceTrendDiagnostic) Name() string { return "variance_trend" }
func (varianceTrendDiagnostic) Description() string {
	return "Linear trend in the rolling variance of the price-normalized error"
}
func (varianceTrendDiagnostic) Run(in DiagnosticInput) (domainDiag.TestResult, error) {
	return VarianceTrend(in.Frame, in.Options.VarianceWindow)
}

type varianceRatioDiagnostic struct{}

func (varianceRatioDiagnostic) Name() string { return "variance_ratio" }
func (varianceRatioDiagnostic) Description() string {
	return "F-test of late against early variance of the price-normalized error"
}
func (varianceRatioDiagnostic) Run(in DiagnosticInput) (domainDiag.TestResult, error) {
	return VarianceRatio(in.Frame, in.Options.SplitRatio)
}
