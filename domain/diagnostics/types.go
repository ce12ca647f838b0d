package diagnostics

// ============================================================================
// TEST RESULT RECORDS
// ============================================================================
//
// Every result exposes Fields() with a fixed key set. Keys never change between
// calls because downstream tables and stored rows are keyed by them.

// TestResult is the common view over the typed result records
type TestResult interface {
	TestName() string
	Fields() map[string]float64
	FieldNames() []string
}

// Field keys shared across results
const (
	FieldPValue = "p_value"
	FieldTStat  = "t_stat"
)

// ADFResult is the outcome of the augmented Dickey-Fuller unit-root test
type ADFResult struct {
	Statistic      float64        `json:"adf_stat"`
	PValue         float64        `json:"p_value"`
	UsedLag        int            `json:"used_lag"`
	NObs           int            `json:"n_obs"`
	CriticalValues CriticalValues `json:"critical_values"`
	ICBest         float64        `json:"ic_best"`
	Criterion      string         `json:"criterion"`
}

// CriticalValues holds the test statistic thresholds at the usual levels
type CriticalValues struct {
	OnePct  float64 `json:"1%"`
	FivePct float64 `json:"5%"`
	TenPct  float64 `json:"10%"`
}

func (r *ADFResult) TestName() string { return "adf" }

func (r *ADFResult) FieldNames() []string {
	return []string{"adf_stat", FieldPValue, "used_lag", "n_obs", "crit_1pct", "crit_5pct", "crit_10pct", "ic_best"}
}

func (r *ADFResult) Fields() map[string]float64 {
	return map[string]float64{
		"adf_stat":   r.Statistic,
		FieldPValue:  r.PValue,
		"used_lag":   float64(r.UsedLag),
		"n_obs":      float64(r.NObs),
		"crit_1pct":  r.CriticalValues.OnePct,
		"crit_5pct":  r.CriticalValues.FivePct,
		"crit_10pct": r.CriticalValues.TenPct,
		"ic_best":    r.ICBest,
	}
}

// AutocorrResult is the lag-k autocorrelation with a normal z-test
type AutocorrResult struct {
	Lag    int     `json:"lag"`
	ACF    float64 `json:"acf"`
	ZStat  float64 `json:"z_stat"`
	PValue float64 `json:"p_value"`
	N      int     `json:"n"`
}

func (r *AutocorrResult) TestName() string { return "autocorrelation" }

func (r *AutocorrResult) FieldNames() []string {
	return []string{"acf", "z_stat", FieldPValue, "n"}
}

func (r *AutocorrResult) Fields() map[string]float64 {
	return map[string]float64{
		"acf":       r.ACF,
		"z_stat":    r.ZStat,
		FieldPValue: r.PValue,
		"n":         float64(r.N),
	}
}

// AutocorrTResult is the lag-k autocorrelation with a Student-t test
type AutocorrTResult struct {
	Lag    int     `json:"lag"`
	ACF    float64 `json:"acf"`
	TStat  float64 `json:"t_stat"`
	PValue float64 `json:"p_value"`
	DF     int     `json:"df"`
}

func (r *AutocorrTResult) TestName() string { return "autocorrelation_t" }

func (r *AutocorrTResult) FieldNames() []string {
	return []string{"acf", FieldTStat, FieldPValue, "df"}
}

func (r *AutocorrTResult) Fields() map[string]float64 {
	return map[string]float64{
		"acf":       r.ACF,
		FieldTStat:  r.TStat,
		FieldPValue: r.PValue,
		"df":        float64(r.DF),
	}
}

// MeanTestResult is the HAC-robust test of a zero mean
type MeanTestResult struct {
	Mean    float64 `json:"mean"`
	StdErr  float64 `json:"std_err"`
	TStat   float64 `json:"t_stat"`
	PValue  float64 `json:"p_value"`
	NObs    int     `json:"n_obs"`
	MaxLags int     `json:"max_lags"`
}

func (r *MeanTestResult) TestName() string { return "hac_mean" }

func (r *MeanTestResult) FieldNames() []string {
	return []string{FieldTStat, FieldPValue, "mean", "std_err", "n_obs", "max_lags"}
}

func (r *MeanTestResult) Fields() map[string]float64 {
	return map[string]float64{
		FieldTStat:  r.TStat,
		FieldPValue: r.PValue,
		"mean":      r.Mean,
		"std_err":   r.StdErr,
		"n_obs":     float64(r.NObs),
		"max_lags":  float64(r.MaxLags),
	}
}

// VarianceTrendResult is the linear trend in the rolling variance of the normalized error
type VarianceTrendResult struct {
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	PValue     float64 `json:"p_value"`
	RSquared   float64 `json:"r_squared"`
	NPoints    int     `json:"n_points"`
	WindowSize int     `json:"window_size"`
}

func (r *VarianceTrendResult) TestName() string { return "variance_trend" }

func (r *VarianceTrendResult) FieldNames() []string {
	return []string{"slope", FieldPValue, "r_squared", "intercept", "n_points"}
}

func (r *VarianceTrendResult) Fields() map[string]float64 {
	return map[string]float64{
		"slope":     r.Slope,
		FieldPValue: r.PValue,
		"r_squared": r.RSquared,
		"intercept": r.Intercept,
		"n_points":  float64(r.NPoints),
	}
}

// VarianceRatioResult compares the late and early variance of the normalized error
type VarianceRatioResult struct {
	VarianceRatio float64 `json:"variance_ratio"`
	FStatistic    float64 `json:"f_statistic"`
	PValue        float64 `json:"p_value"`
	DF1           int     `json:"df1"`
	DF2           int     `json:"df2"`
}

func (r *VarianceRatioResult) TestName() string { return "variance_ratio" }

func (r *VarianceRatioResult) FieldNames() []string {
	return []string{"variance_ratio", "f_statistic", FieldPValue, "df1", "df2"}
}

func (r *VarianceRatioResult) Fields() map[string]float64 {
	return map[string]float64{
		"variance_ratio": r.VarianceRatio,
		"f_statistic":    r.FStatistic,
		FieldPValue:      r.PValue,
		"df1":            float64(r.DF1),
		"df2":            float64(r.DF2),
	}
}
