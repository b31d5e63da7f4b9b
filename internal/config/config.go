package config

import (
	"fmt"
	"os"

	"invreport/internal/logger"
)

// Config carries the application defaults. Every value can be overridden per
// invocation by a CLI flag; the environment only supplies defaults, so no
// field is hard-required.
type Config struct {
	// Report defaults
	InputDir      string
	JSONOutput    string
	CSVOutput     string
	XLSXOutput    string
	SummaryOutput string

	// Duplicate detection
	DedupIndexPath string
	DuplicatesDir  string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		InputDir:      getEnv("INVOICE_INPUT_DIR", "invoices"),
		JSONOutput:    getEnv("INVOICE_JSON_OUTPUT", "invoice_report.json"),
		CSVOutput:     getEnv("INVOICE_CSV_OUTPUT", "invoice_report.csv"),
		XLSXOutput:    getEnv("INVOICE_XLSX_OUTPUT", ""),
		SummaryOutput: getEnv("INVOICE_SUMMARY_OUTPUT", ""),

		DedupIndexPath: getEnv("DEDUP_INDEX_PATH", ""),
		DuplicatesDir:  getEnv("DEDUP_DUPLICATES_DIR", "duplicates"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("INVOICE_INPUT_DIR must not be empty")
	}
	if c.JSONOutput == "" && c.CSVOutput == "" {
		return fmt.Errorf("at least one of INVOICE_JSON_OUTPUT and INVOICE_CSV_OUTPUT is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
