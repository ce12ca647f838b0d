package series

import (
	"time"

	"spreaddiag/internal/errors"
)

// Frame aligns the two day-ahead price series and the error series on one time axis.
// It is the input of the variance diagnostics.
type Frame struct {
	Times  []time.Time
	Price1 []float64
	Price2 []float64
	Error  []float64
}

// NewFrame checks that all columns have the same length. Times may be nil.
func NewFrame(times []time.Time, price1, price2, errs []float64) (Frame, error) {
	n := len(errs)
	if len(price1) != n || len(price2) != n {
		return Frame{}, errors.InvalidParameter(
			"frame columns differ in length: price1=%d price2=%d error=%d", len(price1), len(price2), n)
	}
	if times != nil && len(times) != n {
		return Frame{}, errors.InvalidParameter("frame has %d timestamps for %d rows", len(times), n)
	}
	return Frame{Times: times, Price1: price1, Price2: price2, Error: errs}, nil
}

// Len returns the number of rows
func (f Frame) Len() int { return len(f.Error) }

// ErrorSeries returns the error column as a Series. Without timestamps an hourly grid
// starting at the zero time is used.
func (f Frame) ErrorSeries() (Series, error) {
	if f.Times == nil {
		return FromValues(time.Time{}, time.Hour, f.Error), nil
	}
	points := make([]Point, len(f.Error))
	for i, v := range f.Error {
		points[i] = Point{Time: f.Times[i], Value: v}
	}
	return New(points)
}
