package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/keshikomi-dev/keshikomi/internal/matcher"
	"github.com/keshikomi-dev/keshikomi/internal/reconciler"
)

// generateCSV writes row data only: reconciled rows with status labels,
// or bare transactions for extract-only results. Unknown vendor names
// already appear in the unmatched rows, so CSV has no separate section
// for them. Amounts are plain integers so the output re-parses cleanly.
func (rg *ReportGenerator) generateCSV(result *reconciler.RunResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	if rg.config.CSVDelimiter != 0 {
		csvWriter.Comma = rg.config.CSVDelimiter
	}

	if result.Match == nil {
		if rg.config.CSVHeaders {
			if err := csvWriter.Write([]string{"Date", "Description", "Amount"}); err != nil {
				return fmt.Errorf("failed to write CSV headers: %w", err)
			}
		}
		for _, tx := range result.Transactions {
			record := []string{tx.Date, tx.Description, strconv.FormatInt(tx.Amount, 10)}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write transaction record: %w", err)
			}
		}
		csvWriter.Flush()
		return csvWriter.Error()
	}

	if rg.config.CSVHeaders {
		header := []string{"Date", "Bank Description", "Vendor", "Amount", "Status"}
		if err := csvWriter.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	if rg.config.IncludeMatched {
		if err := writeResultRows(csvWriter, result.Match.Matched); err != nil {
			return err
		}
	}
	if rg.config.IncludeUnmatched {
		if err := writeResultRows(csvWriter, result.Match.Unmatched); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func writeResultRows(writer *csv.Writer, rows []matcher.ResultRow) error {
	for _, row := range rows {
		record := []string{
			row.Date,
			row.BankName,
			row.ResolvedName,
			strconv.FormatInt(row.Amount, 10),
			row.Status,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write result record: %w", err)
		}
	}
	return nil
}
