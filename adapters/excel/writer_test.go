package excel

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"testing"

	adapterDiag "spreaddiag/adapters/stats/diagnostics"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() *domainDiag.YearlySummaryTable {
	full := domainDiag.NewEmptyRow(2021)
	full.Observations = 8760
	full.ADFStat, full.ADFPValue = -12.5, 0
	full.HACTStat, full.HACPValue = 1.2, 0.23
	full.Autocorr, full.AutocorrPValue = 0.05, 0.001

	empty := domainDiag.NewEmptyRow(2022)
	empty.Observations = 2
	empty.Skipped[domainDiag.SubTestADF] = "too short"

	return &domainDiag.YearlySummaryTable{AutocorrLag: 24, HACMaxLags: 96, Rows: []domainDiag.YearlyRow{full, empty}}
}

func TestSummaryWriter_Yearly(t *testing.T) {
	w := NewSummaryWriter()
	require.NoError(t, w.AddYearly(sampleTable()))

	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Yearly"}, f.GetSheetList())
	rows, err := f.GetRows("Yearly")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Autocorr(24)", rows[0][6])
	assert.Equal(t, "2021", rows[1][0])
	assert.Equal(t, "-12.5", rows[1][2])
	assert.Equal(t, "2022", rows[2][0])
	assert.Equal(t, "", rows[2][2])
	assert.Equal(t, "adf: too short", rows[2][len(rows[2])-1])
}

func TestSummaryWriter_SuiteAndSave(t *testing.T) {
	frame := testkit.FlatPrices(testkit.AR1(1, 500, 0.3, 1), 50)
	outcomes := adapterDiag.NewEngine().RunAll(context.Background(), adapterDiag.DiagnosticInput{
		Frame:   frame,
		Options: adapterDiag.DefaultSuiteOptions(),
	})

	w := NewSummaryWriter()
	require.NoError(t, w.AddYearly(sampleTable()))
	require.NoError(t, w.AddSuite(outcomes))
	assert.Error(t, w.AddYearly(sampleTable()))

	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, w.Save(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.ElementsMatch(t, []string{"Yearly", "Suite"}, f.GetSheetList())

	rows, err := f.GetRows("Suite")
	require.NoError(t, err)
	assert.Equal(t, []string{"Test", "Field", "Value", "Error"}, rows[0])
	assert.Equal(t, "adf", rows[1][0])
	assert.Equal(t, "adf_stat", rows[1][1])
}

func TestNumberCell(t *testing.T) {
	assert.Nil(t, numberCell(math.NaN()))
	assert.Nil(t, numberCell(math.Inf(-1)))
	assert.Equal(t, 2.5, numberCell(2.5))
}
