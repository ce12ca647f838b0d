package diagnostics

import (
	"math"

	"spreaddiag/adapters/stats/regression"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/domain/series"
	"spreaddiag/internal/errors"

	"github.com/montanaflynn/stats"
)

// DefaultVarianceWindow is 30 days of hourly observations
const DefaultVarianceWindow = 720

// NormalizedError scales the error by the average of the two prices.
// Rows where the average is zero or either input is missing become NaN.
func NormalizedError(price1, price2, errs []float64) ([]float64, error) {
	if len(price1) != len(errs) || len(price2) != len(errs) {
		return nil, errors.InvalidParameter(
			"normalized error: column lengths differ: price1=%d price2=%d error=%d", len(price1), len(price2), len(errs))
	}
	out := make([]float64, len(errs))
	for i := range errs {
		avg := (price1[i] + price2[i]) / 2
		if series.IsMissing(avg) || series.IsMissing(errs[i]) || avg == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = errs[i] / avg
	}
	return out, nil
}

// RollingVariance computes the sample variance over the trailing window ending at
// each index. Missing values are skipped; fewer than two valid values give NaN.
func RollingVariance(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	buf := make([]float64, 0, window)
	for i := range values {
		buf = buf[:0]
		for j := max(0, i-window+1); j <= i; j++ {
			if !series.IsMissing(values[j]) {
				buf = append(buf, values[j])
			}
		}
		if len(buf) < 2 {
			out[i] = math.NaN()
			continue
		}
		v, err := stats.SampleVariance(buf)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out
}

// VarianceTrend regresses the rolling variance of the normalized error on time index
func VarianceTrend(frame series.Frame, windowSize int) (*domainDiag.VarianceTrendResult, error) {
	return VarianceTrendValues(frame.Price1, frame.Price2, frame.Error, windowSize)
}

// VarianceTrendValues is VarianceTrend over raw columns
func VarianceTrendValues(price1, price2, errs []float64, windowSize int) (*domainDiag.VarianceTrendResult, error) {
	if windowSize < 2 {
		return nil, errors.InvalidParameter("variance trend: window size must be at least 2, got %d", windowSize)
	}
	norm, err := NormalizedError(price1, price2, errs)
	if err != nil {
		return nil, err
	}

	rolling := RollingVariance(norm, windowSize)
	index := make([]float64, len(rolling))
	valid := 0
	for i, v := range rolling {
		index[i] = float64(i)
		if !series.IsMissing(v) {
			valid++
		}
	}
	if valid < 3 {
		return nil, errors.InsufficientData("variance_trend", valid, 3)
	}

	fit, err := regression.SimpleLinear(index, rolling)
	if err != nil {
		return nil, errors.Wrap(err, "variance trend")
	}
	return &domainDiag.VarianceTrendResult{
		Slope:      fit.Slope,
		Intercept:  fit.Intercept,
		PValue:     fit.PValue,
		RSquared:   fit.RSquared,
		NPoints:    fit.N,
		WindowSize: windowSize,
	}, nil
}
