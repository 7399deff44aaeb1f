package alias

import (
	"context"
	"strings"

	"github.com/keshikomi-dev/keshikomi/internal/jptext"
	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/pkg/errors"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"
)

// Resolver maps bank descriptions to canonical vendor names and collects
// the descriptions no alias covers.
type Resolver struct {
	table  *Table
	logger logger.Logger

	unknowns []string
	seen     map[string]bool
}

// NewResolver creates a Resolver over the given alias table. A nil table
// behaves as an empty one: every description resolves to Unknown.
func NewResolver(table *Table) *Resolver {
	if table == nil {
		table = NewTable()
	}
	return &Resolver{
		table:  table,
		logger: logger.GetGlobalLogger().WithComponent("alias_resolver"),
		seen:   make(map[string]bool),
	}
}

// Resolve returns the canonical vendor name for a raw bank description,
// or models.UnknownName when no alias covers it.
//
// The description is normalized, then matched against an exact table key
// first and otherwise against the first table entry (insertion order)
// whose key is a substring of the description. A hit on an unmapped entry
// resolves to Unknown without re-entering the unknown set: the key is
// already in the table awaiting the operator.
func (r *Resolver) Resolve(description string) string {
	normalized := jptext.Normalize(description)

	if entry, exists := r.table.Lookup(normalized); exists {
		return r.canonicalOrUnknown(entry)
	}

	for _, entry := range r.table.entries {
		if entry.BankKey != "" && strings.Contains(normalized, entry.BankKey) {
			return r.canonicalOrUnknown(entry)
		}
	}

	r.addUnknown(normalized)
	return models.UnknownName
}

func (r *Resolver) canonicalOrUnknown(entry models.AliasEntry) string {
	if entry.IsMapped() {
		return entry.CanonicalName
	}
	return models.UnknownName
}

// addUnknown records a normalized description, once.
func (r *Resolver) addUnknown(name string) {
	if name == "" || r.seen[name] {
		return
	}
	r.seen[name] = true
	r.unknowns = append(r.unknowns, name)
}

// UnknownNames returns the distinct unresolved descriptions collected so
// far, in first-seen order.
func (r *Resolver) UnknownNames() []string {
	out := make([]string, len(r.unknowns))
	copy(out, r.unknowns)
	return out
}

// HasUnknowns reports whether any descriptions failed to resolve.
func (r *Resolver) HasUnknowns() bool {
	return len(r.unknowns) > 0
}

// RecordUnknowns appends the collected unknown descriptions to the alias
// store as unmapped rows, one per distinct name, and returns how many
// were appended. This is an explicit operator action; resolution never
// writes to the store on its own.
func (r *Resolver) RecordUnknowns(ctx context.Context, store Store) (int, error) {
	count, err := AppendUnknowns(ctx, store, r.unknowns)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		r.logger.WithField("count", count).Info("Recorded unknown vendors in alias store")
	}
	return count, nil
}

// AppendUnknowns appends names to the store as unmapped alias rows, one
// per name, returning how many were appended.
func AppendUnknowns(ctx context.Context, store Store, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	entries := make([]models.AliasEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, models.AliasEntry{BankKey: name})
	}

	if err := store.Append(ctx, entries); err != nil {
		return 0, errors.ReconciliationError(errors.CodeStoreAppend, "recording unknown vendors", err)
	}
	return len(entries), nil
}
