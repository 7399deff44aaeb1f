// Package alias maps raw bank-side vendor descriptions to canonical
// ledger vendor names through an operator-maintained alias table.
//
// The table is an ordered list of (bank key, canonical name) pairs. Keys
// are normalized on load so lookups are encoding-invariant. Resolution
// tries an exact key hit first, then scans the table in insertion order
// for the first key contained in the description, so match results are
// deterministic for a given table. Descriptions no key covers resolve to
// the Unknown sentinel and are collected for operator triage; confirmed
// unknowns can be appended back to the alias store as unmapped rows.
package alias

import (
	"github.com/keshikomi-dev/keshikomi/internal/jptext"
	"github.com/keshikomi-dev/keshikomi/internal/models"
)

// Table is an ordered alias table with an exact-lookup index. Entry order
// is insertion order; substring resolution depends on it.
type Table struct {
	entries []models.AliasEntry
	index   map[string]int
}

// NewTable creates an empty alias table.
func NewTable() *Table {
	return &Table{
		index: make(map[string]int),
	}
}

// FromRows builds a table from raw mapping rows. The first row is the
// header and is skipped. Rows need a non-empty key and at least two
// columns; anything else is ignored. Keys are normalized as they load.
//
// A key appearing twice keeps its first position but takes the later
// canonical name, matching how the mapping sheet behaves when an
// operator re-adds a name.
func FromRows(rows [][]string) *Table {
	table := NewTable()
	if len(rows) <= 1 {
		return table
	}

	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		table.Add(row[0], row[1])
	}
	return table
}

// Add inserts or updates one alias entry. The key is normalized; empty
// keys are ignored.
func (t *Table) Add(key, canonical string) {
	key = jptext.Normalize(key)
	if key == "" {
		return
	}
	canonical = jptext.Normalize(canonical)

	if pos, exists := t.index[key]; exists {
		t.entries[pos].CanonicalName = canonical
		return
	}

	t.index[key] = len(t.entries)
	t.entries = append(t.entries, models.AliasEntry{
		BankKey:       key,
		CanonicalName: canonical,
	})
}

// Lookup returns the entry for an exact normalized key.
func (t *Table) Lookup(key string) (models.AliasEntry, bool) {
	pos, exists := t.index[jptext.Normalize(key)]
	if !exists {
		return models.AliasEntry{}, false
	}
	return t.entries[pos], true
}

// Contains reports whether the normalized key exists in the table.
func (t *Table) Contains(key string) bool {
	_, exists := t.index[jptext.Normalize(key)]
	return exists
}

// Entries returns the table rows in insertion order.
func (t *Table) Entries() []models.AliasEntry {
	out := make([]models.AliasEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	return len(t.entries)
}
