// Package ledger reads the accounts-payable ledger: one row per invoice
// with vendor name, payable amount, and payment status.
//
// The ledger is operator-maintained, so columns are located by fuzzy
// header match rather than fixed position, amounts may carry currency
// formatting, and rows that fail to parse are skipped and counted rather
// than aborting the load.
package ledger

import (
	"strings"

	"github.com/keshikomi-dev/keshikomi/internal/jptext"
	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/internal/parsers"
	"github.com/keshikomi-dev/keshikomi/pkg/errors"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"
)

// Columns holds the resolved column indexes of a ledger table.
type Columns struct {
	Status int
	Vendor int
	Amount int
}

// LocateColumns finds the status, vendor, and amount columns by header
// keywords: a header containing "Status", one containing "Vendor", and
// one containing both "FB" and "Amount". Any absence is fatal, with the
// detected header list kept in the error for diagnosis.
func LocateColumns(table *parsers.Table) (Columns, error) {
	cols := Columns{
		Status: table.FindColumn("status"),
		Vendor: table.FindColumn("vendor"),
		Amount: table.FindColumn("fb", "amount"),
	}

	var missing []string
	if cols.Status == -1 {
		missing = append(missing, "status")
	}
	if cols.Vendor == -1 {
		missing = append(missing, "vendor")
	}
	if cols.Amount == -1 {
		missing = append(missing, "fb amount")
	}
	if len(missing) > 0 {
		return Columns{}, errors.MissingColumnError(table.Name, strings.Join(missing, ", "), table.Headers())
	}

	return cols, nil
}

// LoadStats counts how much of the ledger file was usable.
type LoadStats struct {
	RowsSeen int                 `json:"rows_seen"`
	Loaded   int                 `json:"loaded"`
	Skipped  int                 `json:"skipped"`
	Errors   []*parsers.RowError `json:"-"`
}

// addSkip records one skipped ledger row.
func (s *LoadStats) addSkip(line int, field, value, reason string, err error) {
	s.Skipped++
	s.Errors = append(s.Errors, &parsers.RowError{
		Line:   line,
		Field:  field,
		Value:  value,
		Reason: reason,
		Err:    err,
	})
}

// LoadInvoices converts a ledger table into invoices. Vendor names are
// normalized so they compare cleanly against resolved bank descriptions;
// status values are kept verbatim. Rows whose amount cannot be coerced to
// an integer are skipped and counted.
func LoadInvoices(table *parsers.Table) ([]models.LedgerInvoice, *LoadStats, error) {
	log := logger.GetGlobalLogger().WithComponent("ledger")

	cols, err := LocateColumns(table)
	if err != nil {
		return nil, nil, err
	}

	stats := &LoadStats{}
	var invoices []models.LedgerInvoice

	for i, row := range table.DataRows() {
		if rowIsEmpty(row) {
			continue
		}
		line := i + 2
		stats.RowsSeen++

		rawAmount := cell(row, cols.Amount)
		amount, err := models.ParseAmount(rawAmount)
		if err != nil {
			stats.addSkip(line, "amount", rawAmount, parsers.SkipBadAmount, err)
			continue
		}

		invoices = append(invoices, models.LedgerInvoice{
			Vendor: jptext.Normalize(cell(row, cols.Vendor)),
			Amount: amount,
			Status: cell(row, cols.Status),
		})
		stats.Loaded++
	}

	log.WithFields(logger.Fields{
		"file_path": table.Name,
		"loaded":    stats.Loaded,
		"skipped":   stats.Skipped,
	}).Info("Loaded ledger invoices")

	return invoices, stats, nil
}

// PaidOnly returns the invoices whose status marks them as paid.
func PaidOnly(invoices []models.LedgerInvoice) []models.LedgerInvoice {
	var paid []models.LedgerInvoice
	for _, invoice := range invoices {
		if invoice.IsPaid() {
			paid = append(paid, invoice)
		}
	}
	return paid
}

func cell(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func rowIsEmpty(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
