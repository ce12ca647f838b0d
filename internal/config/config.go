package config

import (
	"os"
	"strings"

	"spreaddiag/adapters/stats/diagnostics"
	"spreaddiag/internal"
	"spreaddiag/internal/errors"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable, e.g. DIAG_HAC_MAX_LAGS
const EnvPrefix = "DIAG"

// Config represents the complete application configuration
type Config struct {
	StatsConfig
	DatabaseConfig
	ServerConfig
	LogConfig
}

// StatsConfig holds the diagnostic parameters
type StatsConfig struct {
	HACMaxLags     int     `envconfig:"HAC_MAX_LAGS" default:"96"`
	AutocorrLag    int     `envconfig:"AUTOCORR_LAG" default:"24"`
	ADFMaxLag      int     `envconfig:"ADF_MAX_LAG" default:"-1"`
	ADFAutoLag     string  `envconfig:"ADF_AUTOLAG" default:"AIC"`
	VarianceWindow int     `envconfig:"VARIANCE_WINDOW" default:"720"`
	SplitRatio     float64 `envconfig:"SPLIT_RATIO" default:"0.5"`
	Workers        int     `envconfig:"WORKERS" default:"4"`
}

// DatabaseConfig holds database connection settings. An empty URL disables persistence.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

// LogConfig holds logging settings
type LogConfig struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads an optional .env file, then environment variables, and validates the result
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to read .env file")
	}
	return FromEnv()
}

// FromEnv reads environment variables only
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to process environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return &cfg, nil
}

// Validate checks every parameter against its domain
func (c *Config) Validate() error {
	switch {
	case c.HACMaxLags < 0:
		return errors.ConfigInvalid("HAC_MAX_LAGS must be non-negative")
	case c.AutocorrLag < 1:
		return errors.ConfigInvalid("AUTOCORR_LAG must be at least 1")
	case c.VarianceWindow < 2:
		return errors.ConfigInvalid("VARIANCE_WINDOW must be at least 2")
	case !(c.SplitRatio > 0 && c.SplitRatio < 1):
		return errors.ConfigInvalid("SPLIT_RATIO must be strictly between 0 and 1")
	case c.Workers < 1:
		return errors.ConfigInvalid("WORKERS must be at least 1")
	}
	if _, err := ParseLagCriterion(c.ADFAutoLag); err != nil {
		return err
	}
	if _, err := internal.ParseLogLevel(c.LogLevel); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return errors.ConfigInvalid("LOG_FORMAT must be console or json")
	}
	return nil
}

// ParseLagCriterion maps AIC, BIC or fixed (any case) onto a lag criterion
func ParseLagCriterion(s string) (diagnostics.LagCriterion, error) {
	switch strings.ToLower(s) {
	case "aic":
		return diagnostics.LagAIC, nil
	case "bic":
		return diagnostics.LagBIC, nil
	case "fixed":
		return diagnostics.LagFixed, nil
	}
	return "", errors.ConfigInvalid("ADF_AUTOLAG must be AIC, BIC or fixed, got " + s)
}

// ADFOptions converts the ADF settings
func (c *Config) ADFOptions() diagnostics.ADFOptions {
	crit, err := ParseLagCriterion(c.ADFAutoLag)
	if err != nil {
		crit = diagnostics.LagAIC
	}
	return diagnostics.ADFOptions{MaxLag: c.ADFMaxLag, AutoLag: crit}
}

// SuiteOptions converts the settings for the diagnostic engine
func (c *Config) SuiteOptions() diagnostics.SuiteOptions {
	return diagnostics.SuiteOptions{
		ADF:            c.ADFOptions(),
		AutocorrLag:    c.AutocorrLag,
		HACMaxLags:     c.HACMaxLags,
		VarianceWindow: c.VarianceWindow,
		SplitRatio:     c.SplitRatio,
	}
}

// Logger builds the application logger
func (c *Config) Logger() *internal.Logger {
	level, err := internal.ParseLogLevel(c.LogLevel)
	if err != nil {
		level = internal.LogLevelInfo
	}
	return internal.NewLoggerWithConfig(internal.LogConfig{Level: level, Format: c.LogFormat})
}
