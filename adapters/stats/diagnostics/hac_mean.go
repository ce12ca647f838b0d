package diagnostics

import (
	"spreaddiag/adapters/stats/regression"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/domain/series"
	"spreaddiag/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// DefaultHACMaxLags covers four days of hourly autocorrelation
const DefaultHACMaxLags = 96

// HACMeanTest tests H0: mean = 0 by regressing the series on a constant with
// Newey-West standard errors.
func HACMeanTest(values []float64, maxLags int) (*domainDiag.MeanTestResult, error) {
	if maxLags < 0 {
		return nil, errors.InvalidParameter("hac mean: maxLags must be non-negative, got %d", maxLags)
	}
	x := series.DropNaN(values)
	if len(x) < maxLags+2 {
		return nil, errors.InsufficientData("hac_mean", len(x), maxLags+2)
	}

	ones := make([]float64, len(x))
	for i := range ones {
		ones[i] = 1
	}
	fit, err := regression.OLSHAC(mat.NewDense(len(x), 1, ones), x, maxLags)
	if err != nil {
		return nil, errors.Wrap(err, "hac mean")
	}

	return &domainDiag.MeanTestResult{
		Mean:    fit.Coefficients[0],
		StdErr:  fit.StdErrors[0],
		TStat:   fit.TStats[0],
		PValue:  fit.PValues[0],
		NObs:    fit.NObs,
		MaxLags: maxLags,
	}, nil
}
