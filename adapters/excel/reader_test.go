package excel

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spreaddiag/internal"
	"spreaddiag/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDataReader_ReadFrameFromCSV(t *testing.T) {
	path := writeFile(t, "spread.csv", "timestamp,price1,price2,error\n"+
		"2021-01-01 02:00,50,52,0.5\n"+
		"2021-01-01 00:00,40,44,1.25\n"+
		"2021-01-01 01:00,45,,n/e\n"+
		",,,\n")

	frame, err := NewDataReader(path).WithLogger(internal.NopLogger()).ReadFrame()
	require.NoError(t, err)
	require.Equal(t, 3, frame.Len())

	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), frame.Times[0])
	assert.Equal(t, 1.25, frame.Error[0])
	assert.True(t, math.IsNaN(frame.Error[1]))
	assert.True(t, math.IsNaN(frame.Price2[1]))
	assert.Equal(t, 50.0, frame.Price1[2])
}

func TestDataReader_CustomColumnsAndSeries(t *testing.T) {
	path := writeFile(t, "entsoe.csv", "MTU,Spread\n"+
		"01.01.2022 00:00 - 01.01.2022 01:00,3\n"+
		"01.01.2022 01:00 - 01.01.2022 02:00,4\n")

	cols := DefaultColumnConfig()
	cols.Timestamp, cols.Error = "MTU", "Spread"
	s, err := NewDataReader(path).WithColumns(cols).WithLogger(internal.NopLogger()).ReadSeries()
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, s.Values())
	assert.Equal(t, []int{2022}, s.Years())
}

func TestDataReader_ReadFrameFromXLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"timestamp", "error", "price1", "price2"},
		{"2020-12-31T23:00:00Z", -1.5, 30, 31},
		{"2021-01-01T00:00:00Z", 2.5, 32, 33},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "spread.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	frame, err := NewDataReader(path).WithLogger(internal.NopLogger()).ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, []float64{-1.5, 2.5}, frame.Error)
	assert.Equal(t, []float64{30, 32}, frame.Price1)

	s, err := frame.ErrorSeries()
	require.NoError(t, err)
	assert.Equal(t, []int{2020, 2021}, s.Years())
}

func TestDataReader_Errors(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "missing.csv")).ReadFrame()
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	path := writeFile(t, "nocol.csv", "timestamp,value\n2021-01-01,1\n")
	_, err = NewDataReader(path).WithLogger(internal.NopLogger()).ReadFrame()
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	path = writeFile(t, "dup.csv", "timestamp,error\n2021-01-01 00:00,1\n2021-01-01 00:00,2\n")
	_, err = NewDataReader(path).WithLogger(internal.NopLogger()).ReadFrame()
	assert.True(t, errors.IsInvalidParameter(err))

	path = writeFile(t, "badts.csv", "timestamp,error\nyesterday,1\n")
	_, err = NewDataReader(path).WithLogger(internal.NopLogger()).ReadFrame()
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	path = writeFile(t, "empty.csv", "timestamp,error\n")
	_, err = NewDataReader(path).WithLogger(internal.NopLogger()).ReadData()
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2021, 3, 4, 5, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		"2021-03-04T05:00:00Z",
		"2021-03-04 05:00:00",
		"2021-03-04 05:00",
		"04.03.2021 05:00 - 04.03.2021 06:00",
	} {
		got, err := ParseTimestamp(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), raw)
	}

	serial, err := ParseTimestamp("44259.208333333336")
	require.NoError(t, err)
	assert.True(t, want.Equal(serial), serial.String())
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 1.5, ParseValue(" 1.5 "))
	assert.Equal(t, 1.5, ParseValue("1,5"))
	assert.Equal(t, -3.0, ParseValue("-3"))
	assert.True(t, math.IsNaN(ParseValue("")))
	assert.True(t, math.IsNaN(ParseValue("n/e")))
}
