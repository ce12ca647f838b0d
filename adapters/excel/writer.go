package excel

import (
	"io"
	"math"

	adapterDiag "spreaddiag/adapters/stats/diagnostics"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	yearlySheet = "Yearly"
	suiteSheet  = "Suite"
)

// SummaryWriter renders result tables into an XLSX workbook
type SummaryWriter struct {
	file *excelize.File
}

// NewSummaryWriter starts an empty workbook
func NewSummaryWriter() *SummaryWriter {
	return &SummaryWriter{file: excelize.NewFile()}
}

// AddYearly writes the yearly table to its own sheet. NaN cells stay empty.
func (w *SummaryWriter) AddYearly(table *domainDiag.YearlySummaryTable) error {
	if err := w.sheet(yearlySheet); err != nil {
		return err
	}

	header := append([]interface{}{"Year", "Observations"}, stringsToCells(table.Columns())...)
	header = append(header, "Skipped")
	if err := w.file.SetSheetRow(yearlySheet, "A1", &header); err != nil {
		return errors.Wrap(errors.InternalError(err.Error()), "failed to write header")
	}

	for i, row := range table.Rows {
		cells := []interface{}{row.Year, row.Observations}
		for _, v := range row.Values() {
			cells = append(cells, numberCell(v))
		}
		cells = append(cells, skippedText(row.Skipped))

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := w.file.SetSheetRow(yearlySheet, cell, &cells); err != nil {
			return errors.Wrap(errors.InternalError(err.Error()), "failed to write row")
		}
	}
	return nil
}

// AddSuite writes one row per diagnostic outcome with its fields as name/value pairs
func (w *SummaryWriter) AddSuite(outcomes []adapterDiag.Outcome) error {
	if err := w.sheet(suiteSheet); err != nil {
		return err
	}
	header := []interface{}{"Test", "Field", "Value", "Error"}
	if err := w.file.SetSheetRow(suiteSheet, "A1", &header); err != nil {
		return errors.Wrap(errors.InternalError(err.Error()), "failed to write header")
	}

	r := 2
	for _, o := range outcomes {
		if o.Err != nil {
			cells := []interface{}{o.Name, nil, nil, o.Err.Error()}
			cell, _ := excelize.CoordinatesToCellName(1, r)
			if err := w.file.SetSheetRow(suiteSheet, cell, &cells); err != nil {
				return errors.Wrap(errors.InternalError(err.Error()), "failed to write row")
			}
			r++
			continue
		}
		fields := o.Result.Fields()
		for _, name := range o.Result.FieldNames() {
			cells := []interface{}{o.Name, name, numberCell(fields[name]), nil}
			cell, _ := excelize.CoordinatesToCellName(1, r)
			if err := w.file.SetSheetRow(suiteSheet, cell, &cells); err != nil {
				return errors.Wrap(errors.InternalError(err.Error()), "failed to write row")
			}
			r++
		}
	}
	return nil
}

// Save writes the workbook to path
func (w *SummaryWriter) Save(path string) error {
	w.dropDefaultSheet()
	if err := w.file.SaveAs(path); err != nil {
		return errors.Wrap(errors.InternalError(err.Error()), "failed to save workbook")
	}
	return w.file.Close()
}

// WriteTo streams the workbook
func (w *SummaryWriter) WriteTo(out io.Writer) (int64, error) {
	w.dropDefaultSheet()
	n, err := w.file.WriteTo(out)
	if err != nil {
		return n, errors.Wrap(errors.InternalError(err.Error()), "failed to write workbook")
	}
	return n, nil
}

func (w *SummaryWriter) sheet(name string) error {
	if idx, _ := w.file.GetSheetIndex(name); idx >= 0 {
		return errors.InvalidInput("sheet " + name + " already written")
	}
	idx, err := w.file.NewSheet(name)
	if err != nil {
		return errors.Wrap(errors.InternalError(err.Error()), "failed to create sheet")
	}
	w.file.SetActiveSheet(idx)
	return nil
}

// dropDefaultSheet removes the empty Sheet1 that excelize creates once a real sheet exists
func (w *SummaryWriter) dropDefaultSheet() {
	if len(w.file.GetSheetList()) > 1 {
		if idx, _ := w.file.GetSheetIndex("Sheet1"); idx >= 0 {
			_ = w.file.DeleteSheet("Sheet1")
		}
	}
}

func numberCell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func stringsToCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func skippedText(skipped map[string]string) string {
	text := ""
	for _, key := range []string{domainDiag.SubTestADF, domainDiag.SubTestHACMean, domainDiag.SubTestAutocorr} {
		if reason, ok := skipped[key]; ok {
			if text != "" {
				text += "; "
			}
			text += key + ": " + reason
		}
	}
	return text
}
