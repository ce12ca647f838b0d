package diagnostics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRounded_KeepsFullPrecisionInOriginal(t *testing.T) {
	row := NewEmptyRow(2021)
	row.ADFStat = -12.345678
	row.HACPValue = 0.000049
	table := &YearlySummaryTable{AutocorrLag: 24, Rows: []YearlyRow{row}}

	display := table.Rounded(4)

	assert.Equal(t, -12.3457, display.Rows[0].ADFStat)
	assert.Equal(t, 0.0, display.Rows[0].HACPValue)
	assert.True(t, math.IsNaN(display.Rows[0].Autocorr))
	assert.Equal(t, -12.345678, table.Rows[0].ADFStat)
}

func TestColumns_UseLag(t *testing.T) {
	table := &YearlySummaryTable{AutocorrLag: 24}
	assert.Equal(t, "Autocorr(24)", table.Columns()[4])
	assert.Len(t, table.Columns(), len(NewEmptyRow(0).Values()))
}

func TestYearlyRow_MarshalJSONWritesNull(t *testing.T) {
	row := NewEmptyRow(2022)
	row.ADFStat = -3.5
	data, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, -3.5, decoded["adf_stat"])
	assert.Nil(t, decoded["hac_tstat"])
	assert.EqualValues(t, 2022, decoded["year"])
}

func TestFields_MatchFieldNames(t *testing.T) {
	results := []TestResult{
		&ADFResult{},
		&AutocorrResult{},
		&AutocorrTResult{},
		&MeanTestResult{},
		&VarianceTrendResult{},
		&VarianceRatioResult{},
	}
	for _, r := range results {
		fields := r.Fields()
		assert.Len(t, fields, len(r.FieldNames()), r.TestName())
		for _, name := range r.FieldNames() {
			_, ok := fields[name]
			assert.True(t, ok, "%s missing %s", r.TestName(), name)
		}
	}
}

func TestLookup(t *testing.T) {
	table := &YearlySummaryTable{Rows: []YearlyRow{NewEmptyRow(2020), NewEmptyRow(2019)}}
	_, ok := table.Lookup(2019)
	assert.True(t, ok)
	_, ok = table.Lookup(2018)
	assert.False(t, ok)
	assert.Equal(t, []int{2020, 2019}, table.Years())
}
