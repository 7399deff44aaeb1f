package parsers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/keshikomi-dev/keshikomi/internal/jptext"
	"github.com/keshikomi-dev/keshikomi/internal/models"
)

// Zengin-format files carry one record per row with a record-type code
// in the first field. Only data records are extracted; header and
// trailer records are structural and ignored.
const (
	zenginDataRecordType   = "2"
	zenginMinFields        = 15
	zenginDateField        = 2
	zenginAmountField      = 6
	zenginDescriptionField = 14
)

// zenginDateRe matches the 6-digit era-relative date carried by data
// records (YYMMDD with YY counted from the era start).
var zenginDateRe = regexp.MustCompile(`^\d{6}$`)

// extractZengin reads withdrawals from a fixed-field interbank export.
// Every data record is a withdrawal; amounts are unsigned and must be
// positive.
func (e *Extractor) extractZengin(table *Table, stats *ExtractStats) ([]models.BankTransaction, error) {
	var transactions []models.BankTransaction
	for i, row := range table.Rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) != zenginDataRecordType {
			continue
		}
		line := i + 1
		stats.RowsSeen++

		if len(row) < zenginMinFields {
			stats.AddSkip(line, "record", fmt.Sprintf("%d fields", len(row)), SkipShortRecord, nil)
			continue
		}

		rawDate := cellValue(row, zenginDateField)
		date, err := e.parseEraDate(rawDate)
		if err != nil {
			stats.AddSkip(line, "date", rawDate, SkipBadDate, err)
			continue
		}

		rawAmount := cellValue(row, zenginAmountField)
		amount, err := models.ParseAmount(rawAmount)
		if err != nil {
			stats.AddSkip(line, "amount", rawAmount, SkipBadAmount, err)
			continue
		}
		if amount <= 0 {
			stats.AddSkip(line, "amount", rawAmount, SkipNonWithdrawal, nil)
			continue
		}

		desc := jptext.Normalize(cellValue(row, zenginDescriptionField))
		if desc == "" {
			stats.AddSkip(line, "description", "", SkipEmptyVendor, nil)
			continue
		}

		transactions = append(transactions, models.BankTransaction{
			Date:        date,
			Description: desc,
			Amount:      amount,
		})
		stats.Extracted++
	}

	return transactions, nil
}

// parseEraDate converts a 6-digit era-relative date to the canonical
// YYYY/MM/DD form using the configured era offset.
func (e *Extractor) parseEraDate(s string) (string, error) {
	if !zenginDateRe.MatchString(s) {
		return "", fmt.Errorf("era date must be 6 digits, got '%s'", s)
	}

	eraYear, _ := strconv.Atoi(s[0:2])
	month, _ := strconv.Atoi(s[2:4])
	day, _ := strconv.Atoi(s[4:6])

	year := eraYear + e.rules.EraOffset
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", fmt.Errorf("'%s' is not a valid calendar date", s)
	}
	return t.Format(models.DateLayout), nil
}
