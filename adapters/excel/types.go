package excel

// RawRowData represents a row of raw spreadsheet data as header -> cell text
type RawRowData map[string]string

// ExcelData represents the complete sheet or CSV file
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// HasColumn reports whether the header row contains name
func (d *ExcelData) HasColumn(name string) bool {
	for _, h := range d.Headers {
		if h == name {
			return true
		}
	}
	return false
}
