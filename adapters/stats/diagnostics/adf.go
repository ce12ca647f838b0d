package diagnostics

import (
	"math"

	"spreaddiag/adapters/stats/regression"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/domain/series"
	"spreaddiag/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// LagCriterion selects how many lagged differences enter the ADF regression
type LagCriterion string

const (
	LagAIC   LagCriterion = "AIC"
	LagBIC   LagCriterion = "BIC"
	LagFixed LagCriterion = "fixed"
)

// MinADFObservations is the fewest non-missing values the ADF test accepts
const MinADFObservations = 20

// ADFOptions controls lag selection. A negative MaxLag means ⌈12·(n/100)^¼⌉.
type ADFOptions struct {
	MaxLag  int
	AutoLag LagCriterion
}

// DefaultADFOptions picks the lag order by AIC up to the automatic maximum
func DefaultADFOptions() ADFOptions {
	return ADFOptions{MaxLag: -1, AutoLag: LagAIC}
}

// ADF runs the augmented Dickey-Fuller test with a constant:
//
//	Δx_t = α + γ·x_{t-1} + Σ_{j=1..p} β_j·Δx_{t-j} + e_t
//
// The statistic is the t-ratio of γ; H0 is a unit root (γ = 0).
func ADF(values []float64, opts ADFOptions) (*domainDiag.ADFResult, error) {
	x := series.DropNaN(values)
	n := len(x)
	if n < MinADFObservations {
		return nil, errors.InsufficientData("adf", n, MinADFObservations)
	}
	if v, _ := stats.Variance(x); v == 0 {
		return nil, errors.NumericDegeneracy("adf: series is constant")
	}

	lagCap := n/2 - 2
	maxLag := opts.MaxLag
	if maxLag < 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
		if maxLag > lagCap {
			maxLag = lagCap
		}
	} else if maxLag > lagCap {
		return nil, errors.InvalidParameter("adf: max lag %d too large for %d observations (at most %d)", maxLag, n, lagCap)
	}

	d := difference(x)
	usedLag := maxLag
	icBest := math.NaN()

	switch opts.AutoLag {
	case LagAIC, LagBIC:
		// Every candidate is fitted on the same sample so the criteria are comparable.
		icBest = math.Inf(1)
		for p := 0; p <= maxLag; p++ {
			design, y := adfDesign(x, d, p, maxLag)
			fit, err := regression.OLS(design, y)
			if err != nil {
				return nil, errors.Wrapf(err, "adf: lag search at p=%d", p)
			}
			ic := fit.AIC
			if opts.AutoLag == LagBIC {
				ic = fit.BIC
			}
			if ic < icBest {
				icBest = ic
				usedLag = p
			}
		}
	case LagFixed:
	default:
		return nil, errors.InvalidParameter("adf: unknown lag criterion %q", opts.AutoLag)
	}

	design, y := adfDesign(x, d, usedLag, usedLag)
	fit, err := regression.OLS(design, y)
	if err != nil {
		return nil, errors.Wrap(err, "adf: final regression")
	}

	stat := fit.TStats[1]
	return &domainDiag.ADFResult{
		Statistic:      stat,
		PValue:         MacKinnonPValue(stat),
		UsedLag:        usedLag,
		NObs:           fit.NObs,
		CriticalValues: MacKinnonCriticalValues(fit.NObs),
		ICBest:         icBest,
		Criterion:      string(opts.AutoLag),
	}, nil
}

// adfDesign builds rows t = start..len(d)-1 with response Δx_t = d[t] and
// regressors [1, x_t, d[t-1], ..., d[t-p]]; x_t is the level lagged once relative to d[t].
func adfDesign(x, d []float64, p, start int) (*mat.Dense, []float64) {
	rows := len(d) - start
	cols := p + 2
	design := mat.NewDense(rows, cols, nil)
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		t := start + i
		y[i] = d[t]
		design.Set(i, 0, 1)
		design.Set(i, 1, x[t])
		for j := 1; j <= p; j++ {
			design.Set(i, 1+j, d[t-j])
		}
	}
	return design, y
}

func difference(x []float64) []float64 {
	d := make([]float64, len(x)-1)
	for i := range d {
		d[i] = x[i+1] - x[i]
	}
	return d
}
