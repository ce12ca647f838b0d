package regression

import (
	"math"

	"spreaddiag/internal/errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CovType names the covariance estimator behind the standard errors
type CovType string

const (
	CovNonRobust CovType = "nonrobust"
	CovHAC       CovType = "HAC"
)

const (
	perfectFitTolerance = 1e-24
	maxConditionNumber  = 1e14
)

// Fit holds the estimates of a linear model y = Xβ + e
type Fit struct {
	Coefficients []float64
	StdErrors    []float64
	TStats       []float64
	PValues      []float64
	Residuals    []float64

	NObs int
	K    int
	SSR  float64

	LogLikelihood float64
	AIC           float64
	BIC           float64

	CovType CovType
	MaxLags int
}

// DF returns the residual degrees of freedom
func (f *Fit) DF() int { return f.NObs - f.K }

// OLS fits by ordinary least squares with the classical covariance s²(X'X)⁻¹.
// p-values use Student's t with n-k degrees of freedom.
func OLS(x *mat.Dense, y []float64) (*Fit, error) {
	n, k := x.Dims()
	if len(y) != n {
		return nil, errors.InvalidParameter("ols: design has %d rows, response has %d", n, len(y))
	}
	if n <= k {
		return nil, errors.InsufficientData("ols", n, k+1)
	}

	fit, xtxInv, err := leastSquares(x, y)
	if err != nil {
		return nil, err
	}

	s2 := fit.SSR / float64(n-k)
	cov := mat.NewDense(k, k, nil)
	cov.Scale(s2, xtxInv)

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - k)}
	if err := fit.inference(cov, tDist.Survival); err != nil {
		return nil, err
	}
	fit.CovType = CovNonRobust
	return fit, nil
}

// OLSHAC fits by ordinary least squares and replaces the covariance with the
// Newey-West estimator using a Bartlett kernel truncated at maxLags. Rows with a
// missing response or regressor are dropped first. p-values use the standard normal.
func OLSHAC(x *mat.Dense, y []float64, maxLags int) (*Fit, error) {
	if maxLags < 0 {
		return nil, errors.InvalidParameter("hac: maxLags must be non-negative, got %d", maxLags)
	}
	rows, k := x.Dims()
	if len(y) != rows {
		return nil, errors.InvalidParameter("hac: design has %d rows, response has %d", rows, len(y))
	}

	keep := completeRows(x, y)
	if len(keep) < maxLags+2 {
		return nil, errors.InsufficientData("hac", len(keep), maxLags+2)
	}
	if len(keep) <= k {
		return nil, errors.InsufficientData("hac", len(keep), k+1)
	}

	xc := mat.NewDense(len(keep), k, nil)
	yc := make([]float64, len(keep))
	for i, r := range keep {
		xc.SetRow(i, mat.Row(nil, r, x))
		yc[i] = y[r]
	}

	fit, xtxInv, err := leastSquares(xc, yc)
	if err != nil {
		return nil, err
	}

	meat := hacMeat(xc, fit.Residuals, maxLags)
	var tmp, cov mat.Dense
	tmp.Mul(xtxInv, meat)
	cov.Mul(&tmp, xtxInv)

	if err := fit.inference(&cov, distuv.UnitNormal.Survival); err != nil {
		return nil, err
	}
	fit.CovType = CovHAC
	fit.MaxLags = maxLags
	return fit, nil
}

// NeweyWestLongRunVariance estimates the long-run variance of a zero-mean scalar
// sequence: γ₀ + 2 Σ_{l=1..L} (1 - l/(L+1)) γ_l with γ_l = (1/n) Σ u_t u_{t-l}.
func NeweyWestLongRunVariance(u []float64, maxLags int) float64 {
	n := len(u)
	if n == 0 {
		return math.NaN()
	}
	autocov := func(lag int) float64 {
		sum := 0.0
		for t := lag; t < n; t++ {
			sum += u[t] * u[t-lag]
		}
		return sum / float64(n)
	}
	lrv := autocov(0)
	for l := 1; l <= maxLags && l < n; l++ {
		lrv += 2 * BartlettWeight(l, maxLags) * autocov(l)
	}
	return lrv
}

// BartlettWeight is the Bartlett kernel weight for lag l under truncation maxLags
func BartlettWeight(l, maxLags int) float64 {
	return 1 - float64(l)/float64(maxLags+1)
}

// hacMeat builds S = Γ₀ + Σ w_l (Γ_l + Γ_lᵀ) from the scores u_t = x_t e_t
func hacMeat(x *mat.Dense, resid []float64, maxLags int) *mat.Dense {
	n, k := x.Dims()
	scores := make([][]float64, n)
	for t := 0; t < n; t++ {
		row := make([]float64, k)
		for j := 0; j < k; j++ {
			row[j] = x.At(t, j) * resid[t]
		}
		scores[t] = row
	}

	s := mat.NewDense(k, k, nil)
	gamma := make([]float64, k*k)
	for l := 0; l <= maxLags && l < n; l++ {
		for i := range gamma {
			gamma[i] = 0
		}
		for t := l; t < n; t++ {
			cur, prev := scores[t], scores[t-l]
			for a := 0; a < k; a++ {
				for b := 0; b < k; b++ {
					gamma[a*k+b] += cur[a] * prev[b]
				}
			}
		}
		w := 1.0
		if l > 0 {
			w = BartlettWeight(l, maxLags)
		}
		for a := 0; a < k; a++ {
			for b := 0; b < k; b++ {
				v := w * gamma[a*k+b]
				if l > 0 {
					v += w * gamma[b*k+a]
				}
				s.Set(a, b, s.At(a, b)+v)
			}
		}
	}
	return s
}

// leastSquares solves the normal equations through a Cholesky factorization of X'X
func leastSquares(x *mat.Dense, y []float64) (*Fit, *mat.Dense, error) {
	n, k := x.Dims()

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok || chol.Cond() > maxConditionNumber {
		return nil, nil, errors.NumericDegeneracy("design matrix is singular (%d×%d)", n, k)
	}

	yv := mat.NewVecDense(n, y)
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, nil, errors.NumericDegeneracy("normal equations are ill-conditioned: %v", err)
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, nil, errors.NumericDegeneracy("cannot invert X'X: %v", err)
	}
	xtxInv := mat.DenseCopyOf(&inv)

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	resid := make([]float64, n)
	ssr, yss := 0.0, 0.0
	for i := 0; i < n; i++ {
		resid[i] = y[i] - fitted.AtVec(i)
		ssr += resid[i] * resid[i]
		yss += y[i] * y[i]
	}
	// Rounding noise around an exact fit must not turn into a huge t statistic.
	if ssr <= perfectFitTolerance*yss {
		return nil, nil, errors.NumericDegeneracy("residuals vanish: response is an exact linear function of the design")
	}

	coef := make([]float64, k)
	for j := 0; j < k; j++ {
		coef[j] = beta.AtVec(j)
	}

	nf := float64(n)
	llf := -nf / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nf) + 1)

	return &Fit{
		Coefficients:  coef,
		Residuals:     resid,
		NObs:          n,
		K:             k,
		SSR:           ssr,
		LogLikelihood: llf,
		AIC:           -2*llf + 2*float64(k),
		BIC:           -2*llf + float64(k)*math.Log(nf),
	}, xtxInv, nil
}

// inference fills standard errors, t statistics and two-sided p-values from cov
func (f *Fit) inference(cov mat.Matrix, survival func(float64) float64) error {
	f.StdErrors = make([]float64, f.K)
	f.TStats = make([]float64, f.K)
	f.PValues = make([]float64, f.K)
	for j := 0; j < f.K; j++ {
		v := cov.At(j, j)
		if !(v > 0) || math.IsInf(v, 0) {
			return errors.NumericDegeneracy("coefficient %d has zero or undefined variance", j)
		}
		se := math.Sqrt(v)
		t := f.Coefficients[j] / se
		f.StdErrors[j] = se
		f.TStats[j] = t
		f.PValues[j] = clampProbability(2 * survival(math.Abs(t)))
	}
	return nil
}

func completeRows(x *mat.Dense, y []float64) []int {
	n, k := x.Dims()
	keep := make([]int, 0, n)
rows:
	for i := 0; i < n; i++ {
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			continue
		}
		for j := 0; j < k; j++ {
			v := x.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue rows
			}
		}
		keep = append(keep, i)
	}
	return keep
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
