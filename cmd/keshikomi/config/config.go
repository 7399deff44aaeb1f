// Package config assembles component configurations from resolved CLI
// flag values.
package config

import (
	"fmt"

	"github.com/keshikomi-dev/keshikomi/internal/parsers"
	"github.com/keshikomi-dev/keshikomi/internal/reconciler"
	"github.com/keshikomi-dev/keshikomi/internal/reporter"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"
)

// CreateServiceConfig builds the reconciler configuration. Empty paths
// leave the corresponding store unconfigured, which the extract command
// relies on.
func CreateServiceConfig(ledgerFile, mappingFile, rulesFile string, shape parsers.SourceShape) *reconciler.Config {
	config := reconciler.DefaultConfig()
	config.LedgerFile = ledgerFile
	config.MappingFile = mappingFile
	config.RulesFile = rulesFile
	if shape != "" {
		config.Shape = shape
	}
	return config
}

// CreateReportConfig builds a report configuration for the specified
// output format.
func CreateReportConfig(format reporter.OutputFormat) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.Format = format

	if format == reporter.FormatCSV {
		// CSV carries row data only; unknown names already appear in
		// the unmatched rows.
		config.IncludeUnknowns = false
	}

	return config
}

// CreateLoggerConfig builds the logger configuration from flag values.
// Verbose without an explicit level means debug; the quiet default
// keeps pipeline logs off the report output.
func CreateLoggerConfig(level, format string, verbose bool) (*logger.Config, error) {
	config := logger.DefaultConfig()
	config.Output = logger.StderrOutput

	switch {
	case level != "":
		config.Level = logger.Level(level)
	case verbose:
		config.Level = logger.DebugLevel
	default:
		config.Level = logger.WarnLevel
	}

	if format != "" {
		config.Format = logger.Format(format)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}
	return config, nil
}
