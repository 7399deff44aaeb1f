package parsers

import (
	"regexp"
	"strings"

	"github.com/keshikomi-dev/keshikomi/internal/jptext"
	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/pkg/errors"
)

// columnarLayout holds the resolved column indexes of a columnar export.
type columnarLayout struct {
	date        int
	amount      int
	description int
}

var (
	// requesterAnnotationRe matches a trailing requester annotation such
	// as "（ご依頼人 ○○）" appended by some banks to the description.
	requesterAnnotationRe = regexp.MustCompile(`[（(]\s*(?:ご)?依頼人.*$`)

	// referenceNumberRe matches a 7-digit branch or customer reference
	// followed by the counterparty name. The leading \D keeps 8-digit
	// runs such as compact dates from matching.
	referenceNumberRe = regexp.MustCompile(`(?:^|\D)\d{7}\s+(.+)$`)
)

// locateColumns resolves the date, amount, and description columns from
// the header row. It returns the layout and the list of column roles that
// could not be found.
func (e *Extractor) locateColumns(table *Table) (columnarLayout, []string) {
	layout := columnarLayout{
		date:        table.FindColumnAny(e.rules.DateHeaders),
		amount:      table.FindColumnAny(e.rules.AmountHeaders),
		description: table.FindColumnAny(e.rules.DescriptionHeaders),
	}

	var missing []string
	if layout.date == -1 {
		missing = append(missing, "date")
	}
	if layout.amount == -1 {
		missing = append(missing, "amount")
	}
	if layout.description == -1 {
		missing = append(missing, "description")
	}
	return layout, missing
}

// extractColumnar reads withdrawals from a header-addressed export. Only
// rows with a negative amount survive; deposits, fee rows matching the
// skip keywords, and rows with unparseable fields are counted and skipped.
func (e *Extractor) extractColumnar(table *Table, stats *ExtractStats) ([]models.BankTransaction, error) {
	layout, missing := e.locateColumns(table)
	if len(missing) > 0 {
		return nil, errors.MissingColumnError(table.Name, strings.Join(missing, ", "), table.Headers())
	}

	var transactions []models.BankTransaction
	for i, row := range table.DataRows() {
		if isEmptyRow(row) {
			continue
		}
		line := i + 2 // 1-based, after the header row
		stats.RowsSeen++

		rawDate := cellValue(row, layout.date)
		date, err := models.ParseDate(rawDate)
		if err != nil {
			stats.AddSkip(line, "date", rawDate, SkipBadDate, err)
			continue
		}

		rawAmount := cellValue(row, layout.amount)
		amount, err := models.ParseAmount(rawAmount)
		if err != nil {
			stats.AddSkip(line, "amount", rawAmount, SkipBadAmount, err)
			continue
		}
		if amount >= 0 {
			stats.AddSkip(line, "amount", rawAmount, SkipNonWithdrawal, nil)
			continue
		}

		desc := jptext.Normalize(cellValue(row, layout.description))
		if e.containsSkipKeyword(desc) {
			stats.AddSkip(line, "description", desc, SkipKeyword, nil)
			continue
		}

		vendor := e.extractVendor(desc)
		if vendor == "" {
			stats.AddSkip(line, "description", desc, SkipEmptyVendor, nil)
			continue
		}

		transactions = append(transactions, models.BankTransaction{
			Date:        date,
			Description: vendor,
			Amount:      -amount,
		})
		stats.Extracted++
	}

	return transactions, nil
}

// extractVendor reduces a normalized description to the counterparty
// name. Heuristics are tried in order: strip the requester annotation,
// take the text after a 7-digit reference, drop routing tokens after an
// institution-marked prefix, and finally keep the description as is.
func (e *Extractor) extractVendor(desc string) string {
	desc = strings.TrimSpace(requesterAnnotationRe.ReplaceAllString(desc, ""))
	if desc == "" {
		return ""
	}

	if m := referenceNumberRe.FindStringSubmatch(desc); m != nil {
		if vendor := strings.TrimSpace(m[1]); vendor != "" {
			return vendor
		}
	}

	if vendor := e.vendorAfterRoutingPrefix(desc); vendor != "" {
		return vendor
	}

	return desc
}

// vendorAfterRoutingPrefix handles descriptions of the form
// "institution branch type account vendor...": when the first token
// carries an institution marker and enough routing tokens follow, the
// vendor is everything from the fifth token on.
func (e *Extractor) vendorAfterRoutingPrefix(desc string) string {
	tokens := strings.Fields(desc)
	if len(tokens) < 5 {
		return ""
	}

	first := strings.ToUpper(tokens[0])
	for _, marker := range e.markers {
		if strings.Contains(first, marker) {
			return strings.Join(tokens[4:], " ")
		}
	}
	return ""
}
