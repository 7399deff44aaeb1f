package matcher

import (
	"github.com/keshikomi-dev/keshikomi/internal/models"
)

// invoiceKey identifies an invoice by the two fields reconciliation
// compares: canonical vendor name and exact amount.
type invoiceKey struct {
	Vendor string
	Amount int64
}

// InvoiceIndex provides exact (vendor, amount) lookup over ledger
// invoices. When several invoices share a key the earliest ledger row
// wins, keeping lookups deterministic.
type InvoiceIndex struct {
	byKey map[invoiceKey]models.LedgerInvoice
	count int
}

// NewInvoiceIndex builds an index over the given invoices.
func NewInvoiceIndex(invoices []models.LedgerInvoice) *InvoiceIndex {
	index := &InvoiceIndex{
		byKey: make(map[invoiceKey]models.LedgerInvoice, len(invoices)),
		count: len(invoices),
	}

	for _, invoice := range invoices {
		key := invoiceKey{Vendor: invoice.Vendor, Amount: invoice.Amount}
		if _, exists := index.byKey[key]; !exists {
			index.byKey[key] = invoice
		}
	}

	return index
}

// Find returns the first ledger invoice with the given vendor name and
// exact amount.
func (ix *InvoiceIndex) Find(vendor string, amount int64) (models.LedgerInvoice, bool) {
	invoice, found := ix.byKey[invoiceKey{Vendor: vendor, Amount: amount}]
	return invoice, found
}

// Len returns the number of indexed invoices.
func (ix *InvoiceIndex) Len() int {
	return ix.count
}
