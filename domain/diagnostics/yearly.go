package diagnostics

import (
	"encoding/json"
	"fmt"
	"math"
)

// Sub-test identifiers used in skip reasons
const (
	SubTestADF      = "adf"
	SubTestHACMean  = "hac_mean"
	SubTestAutocorr = "autocorr"
)

// YearlyRow holds one calendar year of diagnostics. A sub-test that could not run
// leaves NaN in its fields and records why in Skipped.
type YearlyRow struct {
	Year           int
	Observations   int
	ADFStat        float64
	ADFPValue      float64
	HACTStat       float64
	HACPValue      float64
	Autocorr       float64
	AutocorrPValue float64
	Skipped        map[string]string
}

// NewEmptyRow returns a row with every numeric field set to NaN
func NewEmptyRow(year int) YearlyRow {
	nan := math.NaN()
	return YearlyRow{
		Year:           year,
		ADFStat:        nan,
		ADFPValue:      nan,
		HACTStat:       nan,
		HACPValue:      nan,
		Autocorr:       nan,
		AutocorrPValue: nan,
		Skipped:        map[string]string{},
	}
}

// Values returns the six numeric fields in column order
func (r YearlyRow) Values() []float64 {
	return []float64{r.ADFStat, r.ADFPValue, r.HACTStat, r.HACPValue, r.Autocorr, r.AutocorrPValue}
}

// MarshalJSON writes NaN fields as null
func (r YearlyRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Year           int               `json:"year"`
		Observations   int               `json:"observations"`
		ADFStat        *float64          `json:"adf_stat"`
		ADFPValue      *float64          `json:"adf_pvalue"`
		HACTStat       *float64          `json:"hac_tstat"`
		HACPValue      *float64          `json:"hac_pvalue"`
		Autocorr       *float64          `json:"autocorr"`
		AutocorrPValue *float64          `json:"autocorr_pvalue"`
		Skipped        map[string]string `json:"skipped,omitempty"`
	}{
		Year:           r.Year,
		Observations:   r.Observations,
		ADFStat:        NullableFloat(r.ADFStat),
		ADFPValue:      NullableFloat(r.ADFPValue),
		HACTStat:       NullableFloat(r.HACTStat),
		HACPValue:      NullableFloat(r.HACPValue),
		Autocorr:       NullableFloat(r.Autocorr),
		AutocorrPValue: NullableFloat(r.AutocorrPValue),
		Skipped:        r.Skipped,
	})
}

// NullableFloat maps NaN and infinities to nil
func NullableFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// YearlySummaryTable is rectangular: one row per requested year, in request order
type YearlySummaryTable struct {
	AutocorrLag int         `json:"autocorr_lag"`
	HACMaxLags  int         `json:"hac_max_lags"`
	Rows        []YearlyRow `json:"rows"`
}

// Columns returns the display names of the numeric columns
func (t *YearlySummaryTable) Columns() []string {
	return []string{
		"ADF Statistic",
		"ADF p-value",
		"HAC t-stat",
		"HAC p-value",
		fmt.Sprintf("Autocorr(%d)", t.AutocorrLag),
		"Autocorr p-value",
	}
}

// Years returns the row keys in order
func (t *YearlySummaryTable) Years() []int {
	years := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		years[i] = r.Year
	}
	return years
}

// Lookup finds the row for a year
func (t *YearlySummaryTable) Lookup(year int) (YearlyRow, bool) {
	for _, r := range t.Rows {
		if r.Year == year {
			return r, true
		}
	}
	return YearlyRow{}, false
}

// Rounded returns a display copy with every numeric field rounded to places decimals.
// The receiver keeps full precision.
func (t *YearlySummaryTable) Rounded(places int) *YearlySummaryTable {
	out := &YearlySummaryTable{
		AutocorrLag: t.AutocorrLag,
		HACMaxLags:  t.HACMaxLags,
		Rows:        make([]YearlyRow, len(t.Rows)),
	}
	for i, r := range t.Rows {
		rr := r
		rr.ADFStat = Round(r.ADFStat, places)
		rr.ADFPValue = Round(r.ADFPValue, places)
		rr.HACTStat = Round(r.HACTStat, places)
		rr.HACPValue = Round(r.HACPValue, places)
		rr.Autocorr = Round(r.Autocorr, places)
		rr.AutocorrPValue = Round(r.AutocorrPValue, places)
		rr.Skipped = make(map[string]string, len(r.Skipped))
		for k, v := range r.Skipped {
			rr.Skipped[k] = v
		}
		out.Rows[i] = rr
	}
	return out
}

// Round rounds half away from zero; NaN and infinities pass through
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
