package excel

// ColumnConfig names the columns the series reader looks for
type ColumnConfig struct {
	Timestamp string `json:"timestamp"`
	Error     string `json:"error"`
	Price1    string `json:"price1"`
	Price2    string `json:"price2"`
	Sheet     string `json:"sheet"` // XLSX only; empty means the first sheet
}

// DefaultColumnConfig returns the column names written by the data preparation step
func DefaultColumnConfig() ColumnConfig {
	return ColumnConfig{
		Timestamp: "timestamp",
		Error:     "error",
		Price1:    "price1",
		Price2:    "price2",
	}
}
