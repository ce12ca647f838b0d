package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"

	adapterDiag "spreaddiag/adapters/stats/diagnostics"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *domainDiag.YearlySummaryTable {
	row := domainDiag.NewEmptyRow(2021)
	row.ADFStat, row.ADFPValue = -5.123456, 0.000012
	row.HACTStat, row.HACPValue = 2.5, 0.0124
	row.Autocorr, row.AutocorrPValue = 0.31416, 0.0001

	return &domainDiag.YearlySummaryTable{
		AutocorrLag: 24,
		HACMaxLags:  96,
		Rows:        []domainDiag.YearlyRow{row, domainDiag.NewEmptyRow(2022)},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("MD")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("pdf")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestYearly_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Yearly(&buf, FormatText, sampleTable()))

	out := buf.String()
	assert.Contains(t, out, "Autocorr(24)")
	assert.Contains(t, out, "-5.1235")
	assert.Contains(t, out, "0.3142")
	assert.Contains(t, out, "NaN")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestYearly_MarkdownAndHTML(t *testing.T) {
	var md bytes.Buffer
	require.NoError(t, Yearly(&md, FormatMarkdown, sampleTable()))
	assert.Contains(t, md.String(), "| Year | ADF Statistic |")
	assert.Contains(t, md.String(), "| 2022 | NaN |")

	var page bytes.Buffer
	require.NoError(t, Yearly(&page, FormatHTML, sampleTable()))
	assert.Contains(t, page.String(), "<table>")
	assert.Contains(t, page.String(), "<title>Yearly diagnostics</title>")
	assert.Contains(t, page.String(), "<td>-5.1235</td>")
}

func TestYearly_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Yearly(&buf, FormatCSV, sampleTable()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "HAC p-value", records[0][4])
	assert.Equal(t, "0.0124", records[1][4])
	assert.Equal(t, "", records[2][1])
}

func TestYearly_JSONKeepsPrecision(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Yearly(&buf, FormatJSON, sampleTable()))

	var decoded struct {
		Rows []map[string]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Rows, 2)
	assert.Equal(t, -5.123456, decoded.Rows[0]["adf_stat"])
	assert.Nil(t, decoded.Rows[1]["adf_stat"])
}

func TestSuite(t *testing.T) {
	outcomes := []adapterDiag.Outcome{
		{Name: "adf", Result: &domainDiag.ADFResult{Statistic: -3.5, PValue: 0.008, ICBest: math.NaN()}},
		{Name: "variance_ratio", Err: errors.InvalidParameter("split ratio must be in (0, 1)")},
	}

	var text bytes.Buffer
	require.NoError(t, Suite(&text, FormatText, outcomes))
	assert.Contains(t, text.String(), "adf_stat")
	assert.Contains(t, text.String(), "split ratio")

	var js bytes.Buffer
	require.NoError(t, Suite(&js, FormatJSON, outcomes))
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(js.Bytes(), &entries))
	require.Len(t, entries, 2)
	fields := entries[0]["fields"].(map[string]interface{})
	assert.Equal(t, -3.5, fields["adf_stat"])
	assert.Nil(t, fields["ic_best"])
	assert.Contains(t, entries[1]["error"], "split ratio")
}
