// Package reporter renders reconciliation results for people and machines.
//
// Supported output formats:
//   - Console: fixed-width tables for terminal display
//   - JSON: structured document for programmatic consumption
//   - CSV: row data for spreadsheet import
//   - XLSX: a workbook with summary and per-status sheets
//
// The same generator also renders extract-only results, in which case the
// report carries the extracted transactions instead of match tables.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/keshikomi-dev/keshikomi/internal/matcher"
	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/internal/parsers"
	"github.com/keshikomi-dev/keshikomi/internal/reconciler"
	"github.com/keshikomi-dev/keshikomi/pkg/errors"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatXLSX    OutputFormat = "xlsx"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV, FormatXLSX:
		return true
	default:
		return false
	}
}

// ParseFormat parses and validates an output format from string
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format == "" {
		return FormatConsole, nil
	}
	if !format.IsValid() {
		return "", errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", s, nil).
			WithSuggestion("use one of: console, json, csv, xlsx")
	}
	return format, nil
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Section toggles.
	IncludeMatched   bool `json:"include_matched"`
	IncludeUnmatched bool `json:"include_unmatched"`
	IncludeUnknowns  bool `json:"include_unknowns"`

	// CSV options.
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeMatched:   true,
		IncludeUnmatched: true,
		IncludeUnknowns:  true,
		CSVDelimiter:     ',',
		CSVHeaders:       true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ReportGenerator generates reconciliation reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
	logger logger.Logger
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", nil, err).
			WithSuggestion("use one of: console, json, csv, xlsx")
	}

	return &ReportGenerator{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("reporter"),
	}, nil
}

// Generate renders the result to the writer in the configured format.
func (rg *ReportGenerator) Generate(result *reconciler.RunResult, writer io.Writer) error {
	if result == nil {
		return errors.ValidationError(errors.CodeMissingField, "result", nil, nil)
	}

	rg.logger.WithField("format", string(rg.config.Format)).Debug("Generating report")

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsole(result, writer)
	case FormatJSON:
		return rg.generateJSON(result, writer)
	case FormatCSV:
		return rg.generateCSV(result, writer)
	case FormatXLSX:
		return rg.generateXLSX(result, writer)
	default:
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", rg.config.Format, nil)
	}
}

// generateConsole renders fixed-width tables for terminal display.
func (rg *ReportGenerator) generateConsole(result *reconciler.RunResult, writer io.Writer) error {
	if result.Match == nil {
		fmt.Fprintf(writer, "EXTRACTION REPORT\n")
	} else {
		fmt.Fprintf(writer, "RECONCILIATION REPORT\n")
	}
	fmt.Fprintf(writer, "Source:    %s (shape: %s)\n", result.SourceFile, result.Shape)
	fmt.Fprintf(writer, "Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Duration:  %v\n\n", result.Duration)

	if result.Extract != nil {
		fmt.Fprintf(writer, "=== EXTRACTION ===\n")
		fmt.Fprintf(writer, "Rows seen: %d, extracted: %d, skipped: %d\n",
			result.Extract.RowsSeen, result.Extract.Extracted, result.Extract.Skipped)
		if result.Extract.Skipped > 0 {
			fmt.Fprintf(writer, "Skipped by reason: %s\n", result.Extract.ReasonSummary())
		}
		fmt.Fprintf(writer, "\n")
	}

	if result.Match == nil {
		rg.printTransactions(result.Transactions, writer)
		return nil
	}

	summary := result.Match.Summary
	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	fmt.Fprintf(writer, "Transactions:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalTransactions)
	fmt.Fprintf(writer, "  Matched:   %d (%.1f%%)\n",
		summary.Matched, percentage(summary.Matched, summary.TotalTransactions))
	fmt.Fprintf(writer, "  Unmatched: %d (%.1f%%)\n",
		summary.Unmatched, percentage(summary.Unmatched, summary.TotalTransactions))
	fmt.Fprintf(writer, "Paid invoices:   %d\n", summary.PaidInvoices)
	fmt.Fprintf(writer, "Unknown vendors: %d\n", summary.UnknownVendors)
	if result.LedgerStats != nil && result.LedgerStats.Skipped > 0 {
		fmt.Fprintf(writer, "Ledger rows skipped: %d\n", result.LedgerStats.Skipped)
	}
	fmt.Fprintf(writer, "\nAmounts:\n")
	fmt.Fprintf(writer, "  Matched:   %s\n", models.FormatAmount(summary.MatchedAmount))
	fmt.Fprintf(writer, "  Unmatched: %s\n", models.FormatAmount(summary.UnmatchedAmount))
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeMatched && len(result.Match.Matched) > 0 {
		fmt.Fprintf(writer, "=== MATCHED ===\n")
		rg.printRows(result.Match.Matched, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnmatched && len(result.Match.Unmatched) > 0 {
		fmt.Fprintf(writer, "=== UNMATCHED ===\n")
		rg.printRows(result.Match.Unmatched, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeUnknowns && len(result.Match.UnknownNames) > 0 {
		fmt.Fprintf(writer, "=== UNKNOWN VENDORS ===\n")
		for _, name := range result.Match.UnknownNames {
			fmt.Fprintf(writer, "  %s\n", name)
		}
		fmt.Fprintf(writer, "Add mapping rows for these names, or record them with --record-unknowns.\n")
	}

	return nil
}

func (rg *ReportGenerator) printRows(rows []matcher.ResultRow, writer io.Writer) {
	fmt.Fprintf(writer, "%-12s %-14s %-24s %-10s %s\n",
		"Date", "Amount", "Vendor", "Status", "Bank Description")
	for _, row := range rows {
		fmt.Fprintf(writer, "%-12s %-14s %-24s %-10s %s\n",
			row.Date,
			models.FormatAmount(row.Amount),
			row.ResolvedName,
			row.Status,
			row.BankName)
	}
}

func (rg *ReportGenerator) printTransactions(transactions []models.BankTransaction, writer io.Writer) {
	if len(transactions) == 0 {
		fmt.Fprintf(writer, "No withdrawals extracted.\n")
		return
	}
	fmt.Fprintf(writer, "=== TRANSACTIONS ===\n")
	fmt.Fprintf(writer, "%-12s %-14s %s\n", "Date", "Amount", "Description")
	for _, tx := range transactions {
		fmt.Fprintf(writer, "%-12s %-14s %s\n",
			tx.Date, models.FormatAmount(tx.Amount), tx.Description)
	}
}

// jsonReport is the document shape of the JSON format. Skip details are
// rendered as strings since row errors do not marshal usefully.
type jsonReport struct {
	RunID        string                   `json:"run_id"`
	ProcessedAt  time.Time                `json:"processed_at"`
	Duration     string                   `json:"duration"`
	SourceFile   string                   `json:"source_file"`
	Shape        string                   `json:"shape"`
	Extract      *parsers.ExtractStats    `json:"extract,omitempty"`
	SkipSamples  []string                 `json:"skip_samples,omitempty"`
	LedgerStats  *ledgerStats             `json:"ledger,omitempty"`
	Summary      *matcher.Summary         `json:"summary,omitempty"`
	Matched      []matcher.ResultRow      `json:"matched,omitempty"`
	Unmatched    []matcher.ResultRow      `json:"unmatched,omitempty"`
	Unknown      []string                 `json:"unknown_vendors,omitempty"`
	Transactions []models.BankTransaction `json:"transactions,omitempty"`
}

type ledgerStats struct {
	RowsSeen int `json:"rows_seen"`
	Loaded   int `json:"loaded"`
	Skipped  int `json:"skipped"`
}

// generateJSON renders an indented JSON document honoring the section
// toggles.
func (rg *ReportGenerator) generateJSON(result *reconciler.RunResult, writer io.Writer) error {
	report := &jsonReport{
		RunID:       result.RunID.String(),
		ProcessedAt: result.ProcessedAt,
		Duration:    result.Duration.String(),
		SourceFile:  result.SourceFile,
		Shape:       result.Shape.String(),
		Extract:     result.Extract,
	}
	if result.Extract != nil {
		report.SkipSamples = result.Extract.SampleErrors(5)
	}
	if result.LedgerStats != nil {
		report.LedgerStats = &ledgerStats{
			RowsSeen: result.LedgerStats.RowsSeen,
			Loaded:   result.LedgerStats.Loaded,
			Skipped:  result.LedgerStats.Skipped,
		}
	}

	if result.Match != nil {
		summary := result.Match.Summary
		report.Summary = &summary
		if rg.config.IncludeMatched {
			report.Matched = result.Match.Matched
		}
		if rg.config.IncludeUnmatched {
			report.Unmatched = result.Match.Unmatched
		}
		if rg.config.IncludeUnknowns {
			report.Unknown = result.Match.UnknownNames
		}
	} else {
		report.Transactions = result.Transactions
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
