package excel

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"spreaddiag/domain/series"
	"spreaddiag/internal"
	"spreaddiag/internal/errors"

	"github.com/xuri/excelize/v2"
)

// timestampLayouts are tried in order
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"02.01.2006 15:04",
	"2006-01-02",
}

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	columns  ColumnConfig
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		columns:  DefaultColumnConfig(),
		logger:   internal.DefaultLogger,
	}
}

// WithColumns overrides the expected column names
func (r *DataReader) WithColumns(columns ColumnConfig) *DataReader {
	r.columns = columns
	return r
}

// WithLogger replaces the default logger
func (r *DataReader) WithLogger(logger *internal.Logger) *DataReader {
	r.logger = logger
	return r
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
}

// ReadFrame parses the configured columns into a frame sorted by timestamp.
// Missing price columns become NaN columns.
func (r *DataReader) ReadFrame() (series.Frame, error) {
	data, err := r.ReadData()
	if err != nil {
		return series.Frame{}, err
	}
	for _, col := range []string{r.columns.Timestamp, r.columns.Error} {
		if !data.HasColumn(col) {
			return series.Frame{}, errors.InvalidInput(fmt.Sprintf("column %q not found in %s", col, r.filePath))
		}
	}

	type record struct {
		t      time.Time
		errVal float64
		price1 float64
		price2 float64
	}
	records := make([]record, 0, len(data.Rows))
	for i, row := range data.Rows {
		ts, err := ParseTimestamp(row[r.columns.Timestamp])
		if err != nil {
			return series.Frame{}, errors.Wrapf(err, "row %d", i+2)
		}
		records = append(records, record{
			t:      ts,
			errVal: ParseValue(row[r.columns.Error]),
			price1: ParseValue(row[r.columns.Price1]),
			price2: ParseValue(row[r.columns.Price2]),
		})
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].t.Before(records[j].t) })

	times := make([]time.Time, len(records))
	p1 := make([]float64, len(records))
	p2 := make([]float64, len(records))
	errs := make([]float64, len(records))
	for i, rec := range records {
		if i > 0 && !rec.t.After(times[i-1]) {
			return series.Frame{}, errors.InvalidParameter("duplicate timestamp %s", rec.t.Format(time.RFC3339))
		}
		times[i], p1[i], p2[i], errs[i] = rec.t, rec.price1, rec.price2, rec.errVal
	}
	return series.NewFrame(times, p1, p2, errs)
}

// ReadSeries returns only the error column as a time series
func (r *DataReader) ReadSeries() (series.Series, error) {
	frame, err := r.ReadFrame()
	if err != nil {
		return series.Series{}, err
	}
	return frame.ErrorSeries()
}

// readExcelData reads the configured sheet (default: the first) into structured format
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to open Excel file")
	}
	defer f.Close()

	sheet := r.columns.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), fmt.Sprintf("failed to read sheet %s", sheet))
	}
	r.logger.Debug("[DataReader] sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("Excel file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to read CSV file")
	}
	r.logger.Debug("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("CSV file must have at least a header row and one data row")
	}
	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	var dataRows []RawRowData
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		rowData := make(RawRowData)
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Info("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseTimestamp accepts the layouts in timestampLayouts, Excel serial dates, and
// "start - end" interval labels, of which the start is used.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if start, _, found := strings.Cut(s, " - "); found {
		s = strings.TrimSpace(start)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Round(time.Second), nil
		}
	}
	return time.Time{}, errors.InvalidInput(fmt.Sprintf("unrecognized timestamp %q", raw))
}

// ParseValue converts a numeric cell; empty or non-numeric cells are NaN
func ParseValue(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
