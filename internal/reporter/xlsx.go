package reporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/keshikomi-dev/keshikomi/internal/matcher"
	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/internal/reconciler"
)

const (
	sheetSummary      = "Summary"
	sheetMatched      = "Matched"
	sheetUnmatched    = "Unmatched"
	sheetUnknown      = "Unknown Vendors"
	sheetTransactions = "Transactions"
)

// generateXLSX renders a workbook with a summary sheet plus one sheet
// per enabled section.
func (rg *ReportGenerator) generateXLSX(result *reconciler.RunResult, writer io.Writer) error {
	workbook := excelize.NewFile()
	defer workbook.Close()

	if err := workbook.SetSheetName(workbook.GetSheetName(0), sheetSummary); err != nil {
		return fmt.Errorf("failed to prepare workbook: %w", err)
	}
	if err := writeSummarySheet(workbook, result); err != nil {
		return err
	}

	if result.Match == nil {
		if err := writeTransactionSheet(workbook, result.Transactions); err != nil {
			return err
		}
	} else {
		if rg.config.IncludeMatched {
			if err := writeRowSheet(workbook, sheetMatched, result.Match.Matched); err != nil {
				return err
			}
		}
		if rg.config.IncludeUnmatched {
			if err := writeRowSheet(workbook, sheetUnmatched, result.Match.Unmatched); err != nil {
				return err
			}
		}
		if rg.config.IncludeUnknowns && len(result.Match.UnknownNames) > 0 {
			if err := writeUnknownSheet(workbook, result.Match.UnknownNames); err != nil {
				return err
			}
		}
	}

	if err := workbook.Write(writer); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(workbook *excelize.File, result *reconciler.RunResult) error {
	rows := [][]interface{}{
		{"Run ID", result.RunID.String()},
		{"Source", result.SourceFile},
		{"Shape", result.Shape.String()},
		{"Processed At", result.ProcessedAt.Format(time.RFC3339)},
	}
	if result.Extract != nil {
		rows = append(rows,
			[]interface{}{"Rows Seen", result.Extract.RowsSeen},
			[]interface{}{"Extracted", result.Extract.Extracted},
			[]interface{}{"Rows Skipped", result.Extract.Skipped},
		)
	}
	if result.Match != nil {
		summary := result.Match.Summary
		rows = append(rows,
			[]interface{}{"Matched", summary.Matched},
			[]interface{}{"Unmatched", summary.Unmatched},
			[]interface{}{"Unknown Vendors", summary.UnknownVendors},
			[]interface{}{"Paid Invoices", summary.PaidInvoices},
			[]interface{}{"Matched Amount", summary.MatchedAmount},
			[]interface{}{"Unmatched Amount", summary.UnmatchedAmount},
		)
	}

	return writeSheetRows(workbook, sheetSummary, rows)
}

func writeRowSheet(workbook *excelize.File, name string, rows []matcher.ResultRow) error {
	if _, err := workbook.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}

	sheetRows := make([][]interface{}, 0, len(rows)+1)
	sheetRows = append(sheetRows, []interface{}{"Date", "Bank Description", "Vendor", "Amount", "Status"})
	for _, row := range rows {
		sheetRows = append(sheetRows, []interface{}{
			row.Date, row.BankName, row.ResolvedName, row.Amount, row.Status,
		})
	}
	return writeSheetRows(workbook, name, sheetRows)
}

func writeTransactionSheet(workbook *excelize.File, transactions []models.BankTransaction) error {
	if _, err := workbook.NewSheet(sheetTransactions); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetTransactions, err)
	}

	sheetRows := make([][]interface{}, 0, len(transactions)+1)
	sheetRows = append(sheetRows, []interface{}{"Date", "Description", "Amount"})
	for _, tx := range transactions {
		sheetRows = append(sheetRows, []interface{}{tx.Date, tx.Description, tx.Amount})
	}
	return writeSheetRows(workbook, sheetTransactions, sheetRows)
}

func writeUnknownSheet(workbook *excelize.File, names []string) error {
	if _, err := workbook.NewSheet(sheetUnknown); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetUnknown, err)
	}

	sheetRows := make([][]interface{}, 0, len(names)+1)
	sheetRows = append(sheetRows, []interface{}{"Bank Description"})
	for _, name := range names {
		sheetRows = append(sheetRows, []interface{}{name})
	}
	return writeSheetRows(workbook, sheetUnknown, sheetRows)
}

func writeSheetRows(workbook *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := workbook.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", sheet, err)
		}
	}
	return nil
}
