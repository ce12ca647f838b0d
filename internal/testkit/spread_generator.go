package testkit

import (
	"math"
	"math/rand"
	"time"

	"spreaddiag/domain/series"
)

// SpreadGeneratorConfig configures the hourly two-zone price and error generator
type SpreadGeneratorConfig struct {
	Start           time.Time       `json:"start"`
	Hours           int             `json:"hours"`
	BasePrice       float64         `json:"base_price"`
	PriceVolatility float64         `json:"price_volatility"`
	ZoneSpread      float64         `json:"zone_spread"`
	ErrorPhi        float64         `json:"error_phi"`   // AR(1) coefficient of the error
	ErrorSigma      float64         `json:"error_sigma"` // innovation scale
	ErrorGrowth     float64         `json:"error_growth"`
	MissingRate     float64         `json:"missing_rate"`
	RegimeShifts    map[int]float64 `json:"regime_shifts"` // year -> mean offset of the error
	Seed            int64           `json:"seed"`
}

// DefaultSpreadConfig returns three years of hourly data with a mean shift in the middle year
func DefaultSpreadConfig() SpreadGeneratorConfig {
	return SpreadGeneratorConfig{
		Start:           time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		Hours:           3 * 365 * 24,
		BasePrice:       60,
		PriceVolatility: 4,
		ZoneSpread:      8,
		ErrorPhi:        0.7,
		ErrorSigma:      1.5,
		ErrorGrowth:     0,
		MissingRate:     0.01,
		RegimeShifts:    map[int]float64{2022: 3},
		Seed:            42,
	}
}

// SpreadDataGenerator generates day-ahead prices for two zones and the auction error
type SpreadDataGenerator struct {
	config SpreadGeneratorConfig
	rng    *rand.Rand
}

// NewSpreadDataGenerator creates a new generator
func NewSpreadDataGenerator(config SpreadGeneratorConfig) *SpreadDataGenerator {
	return &SpreadDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateFrame produces the price and error columns on an hourly grid
func (g *SpreadDataGenerator) GenerateFrame() series.Frame {
	n := g.config.Hours
	times := make([]time.Time, n)
	price1 := make([]float64, n)
	price2 := make([]float64, n)
	errs := make([]float64, n)

	level := g.config.BasePrice
	e := 0.0
	for i := 0; i < n; i++ {
		ts := g.config.Start.Add(time.Duration(i) * time.Hour)
		times[i] = ts

		// Mean-reverting price level with a daily shape
		level += 0.05*(g.config.BasePrice-level) + g.rng.NormFloat64()*g.config.PriceVolatility*0.2
		daily := 10 * math.Sin(2*math.Pi*float64(ts.Hour())/24)
		price1[i] = level + daily + g.rng.NormFloat64()*g.config.PriceVolatility
		price2[i] = price1[i] + g.config.ZoneSpread + g.rng.NormFloat64()*g.config.PriceVolatility

		scale := g.config.ErrorSigma * (1 + g.config.ErrorGrowth*float64(i)/float64(n))
		e = g.config.ErrorPhi*e + g.rng.NormFloat64()*scale
		errs[i] = e + g.config.RegimeShifts[ts.Year()]

		if g.config.MissingRate > 0 && g.rng.Float64() < g.config.MissingRate {
			errs[i] = math.NaN()
		}
	}
	return series.Frame{Times: times, Price1: price1, Price2: price2, Error: errs}
}

// GenerateErrorSeries produces only the error column as a timestamped series
func (g *SpreadDataGenerator) GenerateErrorSeries() series.Series {
	frame := g.GenerateFrame()
	s, _ := frame.ErrorSeries()
	return s
}

// WhiteNoise draws n independent N(0, sigma²) values
func WhiteNoise(seed int64, n int, sigma float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// RandomWalk accumulates N(0, sigma²) steps starting from zero
func RandomWalk(seed int64, n int, sigma float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	level := 0.0
	for i := range out {
		level += rng.NormFloat64() * sigma
		out[i] = level
	}
	return out
}

// AR1 generates x_t = phi·x_{t-1} + e_t with a burn-in so the start is near stationarity
func AR1(seed int64, n int, phi, sigma float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	const burnIn = 200
	out := make([]float64, n)
	x := 0.0
	for i := -burnIn; i < n; i++ {
		x = phi*x + rng.NormFloat64()*sigma
		if i >= 0 {
			out[i] = x
		}
	}
	return out
}

// Heteroskedastic draws zero-mean noise whose scale grows linearly from sigmaStart to sigmaEnd
func Heteroskedastic(seed int64, n int, sigmaStart, sigmaEnd float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		frac := 0.0
		if n > 1 {
			frac = float64(i) / float64(n-1)
		}
		out[i] = rng.NormFloat64() * (sigmaStart + (sigmaEnd-sigmaStart)*frac)
	}
	return out
}

// Constant returns n copies of v
func Constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// FlatPrices returns a frame whose prices are both equal to price, so the
// normalized error is errs/price
func FlatPrices(errs []float64, price float64) series.Frame {
	return series.Frame{
		Price1: Constant(len(errs), price),
		Price2: Constant(len(errs), price),
		Error:  errs,
	}
}

// Hourly places values on an hourly grid starting at start
func Hourly(start time.Time, values []float64) series.Series {
	return series.FromValues(start, time.Hour, values)
}
