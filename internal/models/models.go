package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"
)

// StatusPaid is the ledger status value that marks an invoice as eligible
// for reconciliation.
const StatusPaid = "Paid"

// UnknownName is the sentinel returned when a bank description cannot be
// resolved to a canonical vendor name.
const UnknownName = "Unknown"

// DateLayout is the display form every transaction date is normalized to.
const DateLayout = "2006/01/02"

// BankTransaction represents one withdrawal extracted from a bank file.
// Instances are immutable after extraction.
type BankTransaction struct {
	// Date in YYYY/MM/DD form, preserved for display.
	Date string `json:"date"`
	// Description is the vendor text as extracted, before alias resolution.
	Description string `json:"description"`
	// Amount is the withdrawal magnitude in whole yen, always positive.
	Amount int64 `json:"amount"`
}

// NewBankTransaction creates a new BankTransaction instance
func NewBankTransaction(date, description string, amount int64) *BankTransaction {
	return &BankTransaction{
		Date:        date,
		Description: description,
		Amount:      amount,
	}
}

// Validate performs basic validation on the BankTransaction
func (t *BankTransaction) Validate() error {
	if strings.TrimSpace(t.Date) == "" {
		return fmt.Errorf("transaction date cannot be empty")
	}

	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("transaction description cannot be empty")
	}

	if t.Amount <= 0 {
		return fmt.Errorf("transaction amount must be positive, got %d", t.Amount)
	}

	return nil
}

// String returns a string representation of the BankTransaction
func (t *BankTransaction) String() string {
	return fmt.Sprintf("BankTransaction{Date: %s, Description: %s, Amount: %d}",
		t.Date, t.Description, t.Amount)
}

// LedgerInvoice represents one accounts-payable row read from the ledger.
// The ledger is external and read-only to this pipeline.
type LedgerInvoice struct {
	Vendor string `json:"vendor"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// IsPaid reports whether the invoice is eligible for matching.
func (i *LedgerInvoice) IsPaid() bool {
	return i.Status == StatusPaid
}

// String returns a string representation of the LedgerInvoice
func (i *LedgerInvoice) String() string {
	return fmt.Sprintf("LedgerInvoice{Vendor: %s, Amount: %d, Status: %s}",
		i.Vendor, i.Amount, i.Status)
}

// AliasEntry represents one row of the operator-maintained alias table
// mapping bank-side vendor text to canonical ledger vendor names.
type AliasEntry struct {
	// BankKey is the substring searched for in bank descriptions. It is
	// always stored normalized.
	BankKey string `json:"bank_key"`
	// CanonicalName is the ledger-side vendor name. Empty means the key has
	// been seen but not yet mapped by an operator.
	CanonicalName string `json:"canonical_name"`
}

// IsMapped reports whether the entry has a canonical name assigned.
func (e *AliasEntry) IsMapped() bool {
	return strings.TrimSpace(e.CanonicalName) != ""
}

// Utility functions for field coercion

// amountReplacer strips currency glyphs and grouping separators in both
// ASCII and full-width encodings. The backslash appears because the yen
// sign shares its code point in Shift_JIS-derived text.
var amountReplacer = strings.NewReplacer(
	"¥", "",
	"￥", "",
	"\\", "",
	",", "",
	"，", "",
	" ", "",
	"　", "",
)

// ParseAmount parses a currency amount into whole yen. It tolerates comma
// grouping, yen signs, full-width digits, and a leading sign. Values with a
// fractional part are rejected: the pipeline deals in integer yen only.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount string cannot be empty")
	}

	// Fold full-width digits and signs into ASCII before stripping.
	s = norm.NFKC.String(s)
	s = amountReplacer.Replace(s)
	if s == "" {
		return 0, fmt.Errorf("amount string contains no digits")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format '%s': %w", s, err)
	}

	if !d.IsInteger() {
		return 0, fmt.Errorf("amount '%s' is not a whole yen value", s)
	}

	return d.IntPart(), nil
}

// yenPrinter renders integers with Japanese-locale digit grouping.
var yenPrinter = message.NewPrinter(language.Japanese)

// FormatAmount renders an amount in yen for display, e.g. 150000 becomes
// "¥150,000".
func FormatAmount(amount int64) string {
	return yenPrinter.Sprintf("¥%d", amount)
}

// dateLayouts are the structured date forms accepted by ParseDate, tried in
// order. The 8-digit numeral form is what columnar exports write when the
// cell lost its date type.
var dateLayouts = []string{
	"2006/1/2",
	"2006-1-2",
	"2006.1.2",
	"20060102",
}

// ParseDate parses a structured date value or an 8-digit YYYYMMDD numeral
// and renders it in the canonical YYYY/MM/DD display form.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(norm.NFKC.String(s))
	if s == "" {
		return "", fmt.Errorf("date string cannot be empty")
	}

	var lastErr error
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), nil
		} else {
			lastErr = err
		}
	}

	return "", fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}
