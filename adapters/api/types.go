package api

import (
	"math"
	"time"

	adapterDiag "spreaddiag/adapters/stats/diagnostics"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/domain/series"
	"spreaddiag/internal/errors"

	"github.com/google/uuid"
)

// ValuePoint is one observation of the error series. A null value is missing.
type ValuePoint struct {
	Time  time.Time `json:"time"`
	Value *float64  `json:"value"`
}

// FramePoint is one row of the price and error columns
type FramePoint struct {
	Time   time.Time `json:"time"`
	Error  *float64  `json:"error"`
	Price1 *float64  `json:"price1"`
	Price2 *float64  `json:"price2"`
}

// YearlyRequest asks for the per-year table. Empty Years means every year in the series.
type YearlyRequest struct {
	Points      []ValuePoint `json:"points"`
	Years       []int        `json:"years,omitempty"`
	AutocorrLag *int         `json:"autocorr_lag,omitempty"`
	HACMaxLags  *int         `json:"hac_max_lags,omitempty"`
	Persist     bool         `json:"persist,omitempty"`
	Source      string       `json:"source,omitempty"`
}

// SuiteRequest asks for the full diagnostic suite, or a single test when Test is set
type SuiteRequest struct {
	Points         []FramePoint `json:"points"`
	Test           string       `json:"test,omitempty"`
	AutocorrLag    *int         `json:"autocorr_lag,omitempty"`
	HACMaxLags     *int         `json:"hac_max_lags,omitempty"`
	VarianceWindow *int         `json:"variance_window,omitempty"`
	SplitRatio     *float64     `json:"split_ratio,omitempty"`
	Persist        bool         `json:"persist,omitempty"`
	Source         string       `json:"source,omitempty"`
}

// YearlyResponse wraps the table with the stored run ID when persisted
type YearlyResponse struct {
	RunID *uuid.UUID                     `json:"run_id,omitempty"`
	Table *domainDiag.YearlySummaryTable `json:"table"`
}

// SuiteEntry is one diagnostic outcome with NaN fields as null
type SuiteEntry struct {
	Name   string              `json:"name"`
	Fields map[string]*float64 `json:"fields,omitempty"`
	Error  string              `json:"error,omitempty"`
	Code   string              `json:"code,omitempty"`
}

// SuiteResponse lists outcomes in suite order
type SuiteResponse struct {
	RunID   *uuid.UUID   `json:"run_id,omitempty"`
	Results []SuiteEntry `json:"results"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func (r *YearlyRequest) series() (series.Series, error) {
	if len(r.Points) == 0 {
		return series.Series{}, errors.InvalidInput("points must not be empty")
	}
	points := make([]series.Point, len(r.Points))
	for i, p := range r.Points {
		points[i] = series.Point{Time: p.Time, Value: orNaN(p.Value)}
	}
	return series.NewSorted(points)
}

func (r *SuiteRequest) frame() (series.Frame, error) {
	if len(r.Points) == 0 {
		return series.Frame{}, errors.InvalidInput("points must not be empty")
	}
	n := len(r.Points)
	times := make([]time.Time, n)
	p1, p2, errs := make([]float64, n), make([]float64, n), make([]float64, n)
	for i, p := range r.Points {
		if i > 0 && !p.Time.After(r.Points[i-1].Time) {
			return series.Frame{}, errors.InvalidParameter("timestamps must be strictly increasing at index %d", i)
		}
		times[i] = p.Time
		p1[i], p2[i], errs[i] = orNaN(p.Price1), orNaN(p.Price2), orNaN(p.Error)
	}
	return series.NewFrame(times, p1, p2, errs)
}

func newSuiteEntry(o adapterDiag.Outcome) SuiteEntry {
	entry := SuiteEntry{Name: o.Name}
	if o.Err != nil {
		entry.Error = o.Err.Error()
		entry.Code = errors.GetCode(o.Err)
		return entry
	}
	entry.Fields = nullableFields(o.Result.Fields())
	return entry
}

func nullableFields(fields map[string]float64) map[string]*float64 {
	out := make(map[string]*float64, len(fields))
	for k, v := range fields {
		out[k] = domainDiag.NullableFloat(v)
	}
	return out
}
