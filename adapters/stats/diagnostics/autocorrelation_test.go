package diagnostics

import (
	"math"
	"testing"

	"spreaddiag/internal/errors"
	"spreaddiag/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutocorrelation_IIDNoiseAtLagFive(t *testing.T) {
	trials, small := 200, 0
	for seed := int64(0); seed < int64(trials); seed++ {
		res, err := Autocorrelation(testkit.WhiteNoise(1000+seed, 500, 1), 5)
		require.NoError(t, err)
		if math.Abs(res.ZStat) < 2 {
			small++
		}
	}
	assert.GreaterOrEqual(t, float64(small)/float64(trials), 0.91)
}

func TestAutocorrelation_DetectsAR1(t *testing.T) {
	x := testkit.AR1(8, 2000, 0.6, 1)
	res, err := Autocorrelation(x, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, res.ACF, 0.05)
	assert.InDelta(t, res.ACF*math.Sqrt(float64(res.N)), res.ZStat, 1e-12)
	assert.Less(t, res.PValue, 1e-6)
	assert.Equal(t, 2000, res.N)
}

func TestAutocorrelation_CountsValidObservations(t *testing.T) {
	x := testkit.AR1(8, 300, 0.4, 1)
	x[10] = math.NaN()
	x[200] = math.NaN()
	res, err := Autocorrelation(x, 2)
	require.NoError(t, err)
	assert.Equal(t, 298, res.N)
}

func TestAutocorrelationT(t *testing.T) {
	x := testkit.AR1(12, 365, 0.3, 1)
	res, err := AutocorrelationT(x, 1)
	require.NoError(t, err)

	assert.Equal(t, 363, res.DF)
	want := res.ACF * math.Sqrt(float64(res.DF)/(1-res.ACF*res.ACF))
	assert.InDelta(t, want, res.TStat, 1e-12)
	assert.Less(t, res.PValue, 0.001)

	z, err := Autocorrelation(x, 1)
	require.NoError(t, err)
	assert.Equal(t, z.ACF, res.ACF)
}

func TestAutocorrelation_Errors(t *testing.T) {
	x := testkit.WhiteNoise(1, 30, 1)

	_, err := Autocorrelation(x, 0)
	assert.True(t, errors.IsInvalidParameter(err))
	_, err = Autocorrelation(x, 30)
	assert.True(t, errors.IsInvalidParameter(err))

	_, err = AutocorrelationT([]float64{1, math.NaN(), 2, math.NaN()}, 1)
	assert.True(t, errors.IsInsufficientData(err))

	_, err = Autocorrelation([]float64{1, math.NaN(), 2, math.NaN(), 3, math.NaN()}, 1)
	assert.True(t, errors.IsInsufficientData(err))

	_, err = Autocorrelation(testkit.Constant(50, 2), 3)
	assert.True(t, errors.IsNumericDegeneracy(err))
}
