package parsers

import (
	"strings"

	"github.com/keshikomi-dev/keshikomi/internal/jptext"
	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/pkg/errors"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"
)

// SourceShape identifies the layout of a bank export.
type SourceShape string

const (
	// ShapeAuto selects the shape by inspecting the table.
	ShapeAuto SourceShape = "auto"
	// ShapeColumnar is a ledger-style export with header-located date,
	// signed amount, and description columns.
	ShapeColumnar SourceShape = "columnar"
	// ShapeZengin is the fixed-field interbank record layout.
	ShapeZengin SourceShape = "zengin"
	// ShapeFreeText is line-oriented text, typically recovered from a
	// scanned statement.
	ShapeFreeText SourceShape = "freetext"
)

// String returns the string representation of SourceShape
func (s SourceShape) String() string {
	return string(s)
}

// IsValid checks if the source shape is valid
func (s SourceShape) IsValid() bool {
	switch s {
	case ShapeAuto, ShapeColumnar, ShapeZengin, ShapeFreeText:
		return true
	}
	return false
}

// ParseShape parses and validates a source shape from string
func ParseShape(s string) (SourceShape, error) {
	shape := SourceShape(strings.ToLower(strings.TrimSpace(s)))
	if shape == "" {
		return ShapeAuto, nil
	}
	if !shape.IsValid() {
		return "", errors.ConfigurationError(errors.CodeInvalidConfig, "shape", s, nil).
			WithSuggestion("use one of: auto, columnar, zengin, freetext")
	}
	return shape, nil
}

// Extractor turns a Table into bank transactions by applying the
// extraction rule for the table's shape.
type Extractor struct {
	rules  *Rules
	logger logger.Logger

	// Keyword sets precomputed in normalized form so row processing
	// compares like with like.
	skipKeywords []string
	noiseTokens  map[string]bool
	markers      []string
}

// NewExtractor creates a new Extractor with the given rules
func NewExtractor(rules *Rules) (*Extractor, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	if err := rules.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "rules", "", err)
	}

	e := &Extractor{
		rules:       rules,
		logger:      logger.GetGlobalLogger().WithComponent("extractor"),
		noiseTokens: make(map[string]bool),
	}

	for _, keyword := range rules.SkipKeywords {
		e.skipKeywords = append(e.skipKeywords, jptext.Normalize(keyword))
	}
	for _, token := range rules.NoiseTokens {
		e.noiseTokens[strings.ToLower(jptext.Normalize(token))] = true
	}
	for _, marker := range rules.InstitutionMarkers {
		e.markers = append(e.markers, strings.ToUpper(jptext.Normalize(marker)))
	}

	return e, nil
}

// DetectShape inspects the table and picks the extraction rule to apply.
// A header row matching the configured date or amount keywords marks a
// columnar export; rows led by the data record-type sentinel mark a Zengin
// file; anything else is treated as free text.
func (e *Extractor) DetectShape(table *Table) SourceShape {
	if table == nil || table.IsEmpty() {
		return ShapeFreeText
	}

	if table.FindColumnAny(e.rules.DateHeaders) != -1 || table.FindColumnAny(e.rules.AmountHeaders) != -1 {
		return ShapeColumnar
	}

	for _, row := range table.Rows {
		if len(row) >= zenginMinFields && strings.TrimSpace(row[0]) == zenginDataRecordType {
			return ShapeZengin
		}
	}

	return ShapeFreeText
}

// Extract converts the table into bank transactions. Rows that fail any
// parsing step are skipped and counted in the returned stats; only
// structural problems (an unusable shape, missing required columns) are
// returned as errors.
func (e *Extractor) Extract(table *Table, shape SourceShape) ([]models.BankTransaction, *ExtractStats, error) {
	if table == nil {
		table = &Table{}
	}
	if shape == "" || shape == ShapeAuto {
		shape = e.DetectShape(table)
		e.logger.WithFields(logger.Fields{
			"file_path": table.Name,
			"shape":     shape,
		}).Info("Detected source shape")
	}

	stats := NewExtractStats(shape)

	var transactions []models.BankTransaction
	var err error

	switch shape {
	case ShapeColumnar:
		transactions, err = e.extractColumnar(table, stats)
	case ShapeZengin:
		transactions, err = e.extractZengin(table, stats)
	case ShapeFreeText:
		transactions, err = e.extractFreeText(table, stats)
	default:
		return nil, stats, errors.ConfigurationError(errors.CodeInvalidConfig, "shape", string(shape), nil)
	}

	if err != nil {
		return nil, stats, err
	}

	e.logger.WithFields(logger.Fields{
		"file_path": table.Name,
		"shape":     shape,
		"rows_seen": stats.RowsSeen,
		"extracted": stats.Extracted,
		"skipped":   stats.Skipped,
	}).Info("Extraction complete")

	if stats.HasSkips() {
		e.logger.WithFields(logger.Fields{
			"file_path":    table.Name,
			"skip_reasons": stats.ReasonSummary(),
		}).Warn("Some rows were skipped during extraction")
	}

	return transactions, stats, nil
}

// containsSkipKeyword reports whether a normalized description contains
// any configured skip keyword.
func (e *Extractor) containsSkipKeyword(desc string) bool {
	for _, keyword := range e.skipKeywords {
		if keyword != "" && strings.Contains(desc, keyword) {
			return true
		}
	}
	return false
}

// cellValue safely retrieves a cell by index, returning "" for short rows.
func cellValue(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// isEmptyRow checks if all fields in a row are empty or whitespace
func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
