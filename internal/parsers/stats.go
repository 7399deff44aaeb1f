package parsers

import (
	"fmt"
	"sort"
	"strings"
)

// RowError records why a single row was skipped during extraction.
type RowError struct {
	Line   int
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d skipped (%s='%s'): %s: %v",
			e.Line, e.Field, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("row %d skipped (%s='%s'): %s",
		e.Line, e.Field, e.Value, e.Reason)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Skip reasons recorded in ExtractStats.
const (
	SkipBadDate       = "bad_date"
	SkipBadAmount     = "bad_amount"
	SkipNonWithdrawal = "non_withdrawal"
	SkipKeyword       = "skip_keyword"
	SkipEmptyVendor   = "empty_vendor"
	SkipShortRecord   = "short_record"
	SkipNoAmount      = "no_amount"
)

// ExtractStats holds statistics about an extraction operation. Row-level
// failures never abort the batch; they are counted here so the operator
// can judge how much of the file was usable.
type ExtractStats struct {
	Shape       SourceShape    `json:"shape"`
	RowsSeen    int            `json:"rows_seen"`
	Extracted   int            `json:"extracted"`
	Skipped     int            `json:"skipped"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	Errors      []*RowError    `json:"-"`
}

// NewExtractStats creates a new ExtractStats instance
func NewExtractStats(shape SourceShape) *ExtractStats {
	return &ExtractStats{
		Shape:       shape,
		SkipReasons: make(map[string]int),
		Errors:      make([]*RowError, 0),
	}
}

// AddSkip records a skipped row with its reason.
func (s *ExtractStats) AddSkip(line int, field, value, reason string, err error) {
	s.Skipped++
	s.SkipReasons[reason]++
	s.Errors = append(s.Errors, &RowError{
		Line:   line,
		Field:  field,
		Value:  value,
		Reason: reason,
		Err:    err,
	})
}

// HasSkips returns true if any rows were skipped
func (s *ExtractStats) HasSkips() bool {
	return s.Skipped > 0
}

// String returns a human-readable summary of extraction statistics
func (s *ExtractStats) String() string {
	return fmt.Sprintf("Shape %s: %d rows seen, %d transactions extracted, %d skipped",
		s.Shape, s.RowsSeen, s.Extracted, s.Skipped)
}

// ReasonSummary returns the skip reasons with counts, ordered by reason
// name for stable output.
func (s *ExtractStats) ReasonSummary() string {
	if len(s.SkipReasons) == 0 {
		return ""
	}

	reasons := make([]string, 0, len(s.SkipReasons))
	for reason := range s.SkipReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s: %d", reason, s.SkipReasons[reason]))
	}
	return strings.Join(parts, ", ")
}

// SampleErrors returns a sample of the row errors for logging/debugging
func (s *ExtractStats) SampleErrors(maxSamples int) []string {
	if len(s.Errors) == 0 {
		return nil
	}

	limit := len(s.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	samples := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		samples = append(samples, s.Errors[i].Error())
	}
	return samples
}
