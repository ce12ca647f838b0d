package diagnostics

import (
	"math"

	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/domain/series"
	"spreaddiag/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultAutocorrLag is one day on an hourly grid
const DefaultAutocorrLag = 24

// Autocorrelation estimates the lag-k autocorrelation and tests it against zero
// with z = acf·√n, n being the number of valid observations.
func Autocorrelation(values []float64, lag int) (*domainDiag.AutocorrResult, error) {
	acf, n, err := laggedCorrelation(values, lag)
	if err != nil {
		return nil, err
	}
	se := 1 / math.Sqrt(float64(n))
	z := acf / se
	return &domainDiag.AutocorrResult{
		Lag:    lag,
		ACF:    acf,
		ZStat:  z,
		PValue: clampProbability(2 * distuv.UnitNormal.Survival(math.Abs(z))),
		N:      n,
	}, nil
}

// AutocorrelationT is the small-sample variant: t = acf·√((n-2)/(1-acf²)) on n-2 degrees of freedom
func AutocorrelationT(values []float64, lag int) (*domainDiag.AutocorrTResult, error) {
	acf, n, err := laggedCorrelation(values, lag)
	if err != nil {
		return nil, err
	}
	df := n - 2

	var t, p float64
	if denom := 1 - acf*acf; denom <= 0 {
		t = math.Copysign(math.Inf(1), acf)
		p = 0
	} else {
		t = acf * math.Sqrt(float64(df)/denom)
		tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
		p = clampProbability(2 * tDist.Survival(math.Abs(t)))
	}
	return &domainDiag.AutocorrTResult{Lag: lag, ACF: acf, TStat: t, PValue: p, DF: df}, nil
}

// laggedCorrelation returns the Pearson correlation between x_t and x_{t-lag}
// over the pairs where both are present, plus the count of valid observations.
func laggedCorrelation(values []float64, lag int) (float64, int, error) {
	if lag < 1 || lag >= len(values) {
		return 0, 0, errors.InvalidParameter("autocorrelation: lag %d outside [1, %d)", lag, len(values))
	}
	n := 0
	for _, v := range values {
		if !series.IsMissing(v) {
			n++
		}
	}
	if n < 3 {
		return 0, 0, errors.InsufficientData("autocorrelation", n, 3)
	}

	lagged := make([]float64, 0, len(values)-lag)
	current := make([]float64, 0, len(values)-lag)
	for t := lag; t < len(values); t++ {
		if series.IsMissing(values[t]) || series.IsMissing(values[t-lag]) {
			continue
		}
		lagged = append(lagged, values[t-lag])
		current = append(current, values[t])
	}
	if len(current) < 3 {
		return 0, 0, errors.InsufficientData("autocorrelation pairs", len(current), 3)
	}

	// stats.Correlation quietly returns 0 for a zero deviation
	sdLagged, _ := stats.StandardDeviationPopulation(lagged)
	sdCurrent, _ := stats.StandardDeviationPopulation(current)
	if sdLagged == 0 || sdCurrent == 0 {
		return 0, 0, errors.NumericDegeneracy("autocorrelation: series has zero variance at lag %d", lag)
	}

	r, err := stats.Correlation(lagged, current)
	if err != nil {
		return 0, 0, errors.NumericDegeneracy("autocorrelation: %v", err)
	}
	return r, n, nil
}

func clampProbability(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
