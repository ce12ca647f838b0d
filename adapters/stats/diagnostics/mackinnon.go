package diagnostics

import (
	"math"

	domainDiag "spreaddiag/domain/diagnostics"

	"gonum.org/v1/gonum/stat/distuv"
)

// MacKinnon (1994) response surface for the constant-only unit-root regression
// with a single series. The p-value is Φ(poly(τ)) with one polynomial below τ*
// and another above it.
var (
	mackinnonTauMax  = 2.74
	mackinnonTauMin  = -18.83
	mackinnonTauStar = -1.61

	mackinnonSmallP = []float64{2.1659, 1.4412, 0.038269}
	mackinnonLargeP = []float64{1.7339, 0.93202, -0.12745, -0.010368}
)

// MacKinnon (2010) finite-sample critical values, constant only: β∞ + β₁/T + β₂/T² + β₃/T³
var (
	mackinnonCrit1  = []float64{-3.43035, -6.5393, -16.786, -79.433}
	mackinnonCrit5  = []float64{-2.86154, -2.8903, -4.234, -40.040}
	mackinnonCrit10 = []float64{-2.56677, -1.5384, -2.809, 0}
)

// MacKinnonPValue approximates the p-value of an ADF statistic (constant, no trend).
// More negative statistics give smaller p-values.
func MacKinnonPValue(tau float64) float64 {
	switch {
	case math.IsNaN(tau):
		return math.NaN()
	case tau > mackinnonTauMax:
		return 1
	case tau < mackinnonTauMin:
		return 0
	}
	coef := mackinnonLargeP
	if tau <= mackinnonTauStar {
		coef = mackinnonSmallP
	}
	return distuv.UnitNormal.CDF(polyval(coef, tau))
}

// MacKinnonCriticalValues returns the 1/5/10 % critical values for nobs observations
func MacKinnonCriticalValues(nobs int) domainDiag.CriticalValues {
	inv := 1 / float64(nobs)
	return domainDiag.CriticalValues{
		OnePct:  polyval(mackinnonCrit1, inv),
		FivePct: polyval(mackinnonCrit5, inv),
		TenPct:  polyval(mackinnonCrit10, inv),
	}
}

// polyval evaluates c[0] + c[1]x + c[2]x² + ...
func polyval(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}
