package series

import (
	"math"
	"sort"
	"time"

	"spreaddiag/internal/errors"
)

// Point is a single timestamped observation. A missing value is NaN.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is an ordered, immutable sequence of points with strictly increasing timestamps.
type Series struct {
	points []Point
}

// New validates ordering and copies the points into a Series
func New(points []Point) (Series, error) {
	for i := 1; i < len(points); i++ {
		if !points[i].Time.After(points[i-1].Time) {
			return Series{}, errors.InvalidParameter(
				"timestamps must be strictly increasing: %s at index %d follows %s",
				points[i].Time.Format(time.RFC3339), i, points[i-1].Time.Format(time.RFC3339))
		}
	}
	owned := make([]Point, len(points))
	copy(owned, points)
	return Series{points: owned}, nil
}

// NewSorted sorts a copy of the points by time before validating it.
// Duplicate timestamps are still rejected.
func NewSorted(points []Point) (Series, error) {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	return New(sorted)
}

// FromValues builds a series on a regular grid starting at start
func FromValues(start time.Time, step time.Duration, values []float64) Series {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Time: start.Add(time.Duration(i) * step), Value: v}
	}
	return Series{points: points}
}

// Len returns the number of points, missing values included
func (s Series) Len() int { return len(s.points) }

// Points returns a copy of the underlying points
func (s Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Values returns a copy of the values in time order
func (s Series) Values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}
	return out
}

// Times returns a copy of the timestamps
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s.points))
	for i, p := range s.points {
		out[i] = p.Time
	}
	return out
}

// Valid counts non-missing observations
func (s Series) Valid() int {
	n := 0
	for _, p := range s.points {
		if !IsMissing(p.Value) {
			n++
		}
	}
	return n
}

// DropMissing returns a new series without missing observations
func (s Series) DropMissing() Series {
	out := make([]Point, 0, len(s.points))
	for _, p := range s.points {
		if !IsMissing(p.Value) {
			out = append(out, p)
		}
	}
	return Series{points: out}
}

// Year returns the subsequence whose timestamps fall in the given calendar year
func (s Series) Year(year int) Series {
	var out []Point
	for _, p := range s.points {
		if p.Time.Year() == year {
			out = append(out, p)
		}
	}
	return Series{points: out}
}

// Years lists the distinct calendar years present, ascending
func (s Series) Years() []int {
	seen := make(map[int]bool)
	var years []int
	for _, p := range s.points {
		y := p.Time.Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// IsMissing reports whether v stands for a missing observation
func IsMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// DropNaN returns the non-missing values of data, in order
func DropNaN(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}
