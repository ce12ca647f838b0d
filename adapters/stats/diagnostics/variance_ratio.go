package diagnostics

import (
	"math"

	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/domain/series"
	"spreaddiag/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSplitRatio compares the second half against the first
const DefaultSplitRatio = 0.5

// VarianceRatio compares the variance of the normalized error after the split
// point against the variance before it with a two-sided F-test.
func VarianceRatio(frame series.Frame, splitRatio float64) (*domainDiag.VarianceRatioResult, error) {
	return VarianceRatioValues(frame.Price1, frame.Price2, frame.Error, splitRatio)
}

// VarianceRatioValues is VarianceRatio over raw columns
func VarianceRatioValues(price1, price2, errs []float64, splitRatio float64) (*domainDiag.VarianceRatioResult, error) {
	if !(splitRatio > 0 && splitRatio < 1) {
		return nil, errors.InvalidParameter("variance ratio: split ratio must be in (0, 1), got %v", splitRatio)
	}
	norm, err := NormalizedError(price1, price2, errs)
	if err != nil {
		return nil, err
	}
	return SplitVarianceRatio(norm, splitRatio)
}

// SplitVarianceRatio splits values at ⌊n·splitRatio⌋ and tests Var(late)/Var(early)
func SplitVarianceRatio(values []float64, splitRatio float64) (*domainDiag.VarianceRatioResult, error) {
	if !(splitRatio > 0 && splitRatio < 1) {
		return nil, errors.InvalidParameter("variance ratio: split ratio must be in (0, 1), got %v", splitRatio)
	}
	split := int(math.Floor(float64(len(values)) * splitRatio))
	early := series.DropNaN(values[:split])
	late := series.DropNaN(values[split:])
	if len(early) < 2 || len(late) < 2 {
		return nil, errors.InvalidParameter(
			"variance ratio: each segment needs at least 2 valid values (early=%d, late=%d)", len(early), len(late))
	}

	varEarly, _ := stats.SampleVariance(early)
	varLate, _ := stats.SampleVariance(late)
	if varEarly == 0 {
		return nil, errors.NumericDegeneracy("variance ratio: early segment has zero variance")
	}

	ratio := varLate / varEarly
	df1, df2 := len(late)-1, len(early)-1
	cdf := distuv.F{D1: float64(df1), D2: float64(df2)}.CDF(ratio)

	return &domainDiag.VarianceRatioResult{
		VarianceRatio: ratio,
		FStatistic:    ratio,
		PValue:        clampProbability(2 * math.Min(cdf, 1-cdf)),
		DF1:           df1,
		DF2:           df2,
	}, nil
}
