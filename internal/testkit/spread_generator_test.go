package testkit

import (
	"math"
	"testing"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpreadDataGenerator_Basic(t *testing.T) {
	config := DefaultSpreadConfig()
	config.Hours = 24 * 30

	frame := NewSpreadDataGenerator(config).GenerateFrame()
	require.Equal(t, config.Hours, frame.Len())
	assert.Len(t, frame.Times, config.Hours)
	assert.Equal(t, config.Start, frame.Times[0])
	assert.Equal(t, config.Start.Add(time.Hour), frame.Times[1])

	for i := range frame.Price1 {
		assert.False(t, math.IsNaN(frame.Price1[i]), "price1 row %d", i)
		assert.False(t, math.IsNaN(frame.Price2[i]), "price2 row %d", i)
	}
}

func TestSpreadDataGenerator_Deterministic(t *testing.T) {
	config := DefaultSpreadConfig()
	config.Hours = 500
	config.MissingRate = 0

	a := NewSpreadDataGenerator(config).GenerateFrame()
	b := NewSpreadDataGenerator(config).GenerateFrame()
	assert.Equal(t, a.Error, b.Error)

	config.Seed++
	c := NewSpreadDataGenerator(config).GenerateFrame()
	assert.NotEqual(t, a.Error, c.Error)
}

func TestSpreadDataGenerator_RegimeShift(t *testing.T) {
	config := DefaultSpreadConfig()
	config.MissingRate = 0
	config.RegimeShifts = map[int]float64{2022: 10}

	s := NewSpreadDataGenerator(config).GenerateErrorSeries()
	require.Equal(t, []int{2021, 2022, 2023}, s.Years())

	mean2021, _ := stats.Mean(s.Year(2021).Values())
	mean2022, _ := stats.Mean(s.Year(2022).Values())
	assert.InDelta(t, 10, mean2022-mean2021, 1)
}

func TestAR1_LagOneCorrelation(t *testing.T) {
	x := AR1(3, 5000, 0.6, 1)
	r, err := stats.Correlation(x[:len(x)-1], x[1:])
	require.NoError(t, err)
	assert.InDelta(t, 0.6, r, 0.05)
}

func TestHeteroskedastic_ScaleGrows(t *testing.T) {
	x := Heteroskedastic(5, 4000, 1, 5)
	early, _ := stats.StandardDeviation(x[:1000])
	late, _ := stats.StandardDeviation(x[3000:])
	assert.Greater(t, late, 2*early)
}
