package regression

import (
	"math"

	"spreaddiag/internal/errors"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LineFit is a simple linear regression y = a + b·x
type LineFit struct {
	Slope     float64
	Intercept float64
	RSquared  float64
	StdErr    float64 // standard error of the slope
	TStat     float64
	PValue    float64 // two-sided, H0: slope = 0
	N         int
}

// SimpleLinear regresses y on x over the pairs where both are present
func SimpleLinear(x, y []float64) (*LineFit, error) {
	if len(x) != len(y) {
		return nil, errors.InvalidParameter("linear: x has %d values, y has %d", len(x), len(y))
	}

	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if isFinite(x[i]) && isFinite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	n := len(xs)
	if n < 3 {
		return nil, errors.InsufficientData("linear", n, 3)
	}
	if stat.Variance(xs, nil) == 0 {
		return nil, errors.NumericDegeneracy("linear: regressor is constant")
	}
	if stat.Variance(ys, nil) == 0 {
		return nil, errors.NumericDegeneracy("linear: response is constant")
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)

	xMean := stat.Mean(xs, nil)
	sxx, ssr := 0.0, 0.0
	for i := range xs {
		dx := xs[i] - xMean
		sxx += dx * dx
		e := ys[i] - (alpha + beta*xs[i])
		ssr += e * e
	}

	df := float64(n - 2)
	se := math.Sqrt(ssr / df / sxx)

	fit := &LineFit{Slope: beta, Intercept: alpha, RSquared: r2, StdErr: se, N: n}
	if se == 0 {
		fit.TStat = math.Copysign(math.Inf(1), beta)
		fit.PValue = 0
		return fit, nil
	}
	fit.TStat = beta / se
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	fit.PValue = clampProbability(2 * tDist.Survival(math.Abs(fit.TStat)))
	return fit, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
