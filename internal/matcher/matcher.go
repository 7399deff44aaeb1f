// Package matcher reconciles extracted bank transactions against ledger
// invoices.
//
// A transaction matches the first paid ledger row whose vendor equals the
// transaction's resolved canonical name and whose amount equals the
// withdrawal amount exactly. There is no tolerance on amounts and no
// consumption tracking: one invoice may satisfy several transactions when
// vendor and amount coincide. Matching never fails; every transaction
// lands in exactly one of the matched or unmatched result sets.
package matcher

import (
	"github.com/keshikomi-dev/keshikomi/internal/alias"
	"github.com/keshikomi-dev/keshikomi/internal/ledger"
	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"
)

// Status labels attached to result rows.
const (
	StatusMatch   = "Match"
	StatusMissing = "Missing"
)

// ResultRow is one reconciled transaction, carrying everything the
// operator needs to judge it: the bank's own description alongside the
// resolved name.
type ResultRow struct {
	Date         string `json:"date"`
	BankName     string `json:"bank_name"`
	ResolvedName string `json:"resolved_name"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
}

// Result holds the outcome of one reconciliation pass.
type Result struct {
	Matched      []ResultRow `json:"matched"`
	Unmatched    []ResultRow `json:"unmatched"`
	UnknownNames []string    `json:"unknown_names"`
	Summary      Summary     `json:"summary"`
}

// Summary provides aggregate statistics about a reconciliation pass.
type Summary struct {
	TotalTransactions int   `json:"total_transactions"`
	Matched           int   `json:"matched"`
	Unmatched         int   `json:"unmatched"`
	UnknownVendors    int   `json:"unknown_vendors"`
	PaidInvoices      int   `json:"paid_invoices"`
	MatchedAmount     int64 `json:"matched_amount"`
	UnmatchedAmount   int64 `json:"unmatched_amount"`
}

// Engine matches transactions to invoices using an alias resolver for
// vendor name translation.
type Engine struct {
	resolver *alias.Resolver
	logger   logger.Logger
}

// NewEngine creates a matching engine with the given resolver.
func NewEngine(resolver *alias.Resolver) *Engine {
	if resolver == nil {
		resolver = alias.NewResolver(nil)
	}
	return &Engine{
		resolver: resolver,
		logger:   logger.GetGlobalLogger().WithComponent("matcher"),
	}
}

// Reconcile matches every transaction against the paid subset of the
// ledger. Transactions resolving to Unknown are never matched, even
// against a ledger vendor literally named Unknown; they surface in the
// unmatched set and the unknown-name list instead.
func (e *Engine) Reconcile(transactions []models.BankTransaction, invoices []models.LedgerInvoice) *Result {
	paid := ledger.PaidOnly(invoices)
	index := NewInvoiceIndex(paid)

	result := &Result{}
	for _, transaction := range transactions {
		resolved := e.resolver.Resolve(transaction.Description)

		row := ResultRow{
			Date:         transaction.Date,
			BankName:     transaction.Description,
			ResolvedName: resolved,
			Amount:       transaction.Amount,
		}

		if resolved != models.UnknownName {
			if _, found := index.Find(resolved, transaction.Amount); found {
				row.Status = StatusMatch
				result.Matched = append(result.Matched, row)
				result.Summary.MatchedAmount += transaction.Amount
				continue
			}
		}

		row.Status = StatusMissing
		result.Unmatched = append(result.Unmatched, row)
		result.Summary.UnmatchedAmount += transaction.Amount
	}

	result.UnknownNames = e.resolver.UnknownNames()
	result.Summary.TotalTransactions = len(transactions)
	result.Summary.Matched = len(result.Matched)
	result.Summary.Unmatched = len(result.Unmatched)
	result.Summary.UnknownVendors = len(result.UnknownNames)
	result.Summary.PaidInvoices = len(paid)

	e.logger.WithFields(logger.Fields{
		"transactions": result.Summary.TotalTransactions,
		"matched":      result.Summary.Matched,
		"unmatched":    result.Summary.Unmatched,
		"unknown":      result.Summary.UnknownVendors,
	}).Info("Reconciliation pass complete")

	return result
}
