package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/keshikomi-dev/keshikomi/internal/jptext"
	"github.com/keshikomi-dev/keshikomi/internal/models"
)

var (
	// freeTextDateRe finds the transaction date anywhere on a line.
	// Lines without one are not transactions.
	freeTextDateRe = regexp.MustCompile(`\d{4}/\d{1,2}/\d{1,2}`)

	// freeTextNumericRe matches a token that is an amount once currency
	// symbols and separators are removed.
	freeTextNumericRe = regexp.MustCompile(`^-?\d+$`)

	// freeTextAmountCleaner strips the decoration OCR output attaches to
	// amounts. The backslash appears where a yen sign was mis-recognized.
	freeTextAmountCleaner = strings.NewReplacer(",", "", "，", "", "¥", "", "￥", "", "\\", "")
)

// extractFreeText reads withdrawals from line-oriented text, typically
// the output of OCR on a scanned statement. A transaction line carries a
// date, a trailing run of numbers ending in amount and balance, and the
// counterparty name in between.
//
// Lines are scanned raw: normalizing first would fold ASCII minus signs
// into long vowel marks and negative amounts would stop parsing. Only
// the final vendor string is normalized.
func (e *Extractor) extractFreeText(table *Table, stats *ExtractStats) ([]models.BankTransaction, error) {
	var transactions []models.BankTransaction
	for i, rawLine := range table.Lines() {
		text := strings.TrimSpace(rawLine)
		if text == "" {
			continue
		}

		loc := freeTextDateRe.FindStringIndex(text)
		if loc == nil {
			continue
		}
		line := i + 1
		stats.RowsSeen++

		rawDate := text[loc[0]:loc[1]]
		date, err := models.ParseDate(rawDate)
		if err != nil {
			stats.AddSkip(line, "date", rawDate, SkipBadDate, err)
			continue
		}

		tokens := strings.Fields(text[loc[1]:])

		// Walk right to left collecting the trailing numbers. The last
		// one is the running balance, the one before it the amount. A
		// non-numeric token ends the run only once both are in hand,
		// so amounts split from the vendor by stray tokens still pair up.
		var values []int64
		var positions []int
		for j := len(tokens) - 1; j >= 0; j-- {
			if value, ok := parseNumericToken(tokens[j]); ok {
				values = append(values, value)
				positions = append(positions, j)
			} else if len(values) >= 2 {
				break
			}
		}
		if len(values) < 2 {
			stats.AddSkip(line, "amount", strings.Join(tokens, " "), SkipNoAmount, nil)
			continue
		}

		amount := values[1]
		if amount <= 0 {
			stats.AddSkip(line, "amount", strconv.FormatInt(amount, 10), SkipNonWithdrawal, nil)
			continue
		}

		vendor := e.vendorFromTokens(tokens[:positions[len(positions)-1]])
		if vendor == "" {
			stats.AddSkip(line, "description", text[loc[1]:], SkipEmptyVendor, nil)
			continue
		}

		transactions = append(transactions, models.BankTransaction{
			Date:        date,
			Description: vendor,
			Amount:      amount,
		})
		stats.Extracted++
	}

	return transactions, nil
}

// parseNumericToken cleans a token of currency decoration and parses it
// as an integer amount.
func parseNumericToken(token string) (int64, bool) {
	clean := freeTextAmountCleaner.Replace(token)
	if !freeTextNumericRe.MatchString(clean) {
		return 0, false
	}
	value, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// vendorFromTokens drops bank-name noise tokens and normalizes what
// remains into the vendor string.
func (e *Extractor) vendorFromTokens(tokens []string) string {
	var kept []string
	for _, token := range tokens {
		if e.noiseTokens[strings.ToLower(jptext.Normalize(token))] {
			continue
		}
		kept = append(kept, token)
	}
	return jptext.Normalize(strings.Join(kept, " "))
}
