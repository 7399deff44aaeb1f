// Package parsers reads bank export files and extracts withdrawal
// transactions from them.
//
// Bank exports arrive in inconsistent containers and encodings: xlsx
// workbooks, CSV in UTF-8 with or without a byte-order mark, and CSV in
// Shift_JIS. The FileReader tries each interpretation in a fixed order and
// returns a uniform Table, or an unreadable-file error once every strategy
// has failed.
//
// Three source shapes are supported on top of the Table:
//   - columnar ledger exports, with header-located date/amount/description
//     columns
//   - Zengin fixed-field records, with a record-type sentinel and era-encoded
//     dates
//   - free-form text lines, recovered from scanned documents
//
// The Extractor detects the shape and applies the matching extraction rule.
// Rows that fail to parse are skipped and counted, never fatal.
package parsers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/keshikomi-dev/keshikomi/pkg/errors"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Table is the uniform row structure every read strategy produces.
type Table struct {
	// Name identifies the source, usually the file path.
	Name string
	// Rows holds every row of the source, including any header row.
	Rows [][]string

	// rawLines preserves the decoded text lines for sources that went
	// through CSV splitting. Free-text extraction needs the unsplit lines:
	// comma-grouped amounts inside a line would otherwise be broken apart.
	rawLines []string
}

// Headers returns the first row with each label trimmed, or nil for an
// empty table.
func (t *Table) Headers() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	headers := make([]string, len(t.Rows[0]))
	for i, h := range t.Rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}

// DataRows returns every row after the header row.
func (t *Table) DataRows() [][]string {
	if len(t.Rows) <= 1 {
		return nil
	}
	return t.Rows[1:]
}

// IsEmpty reports whether the table contains no rows.
func (t *Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Lines returns the source as text lines for line-oriented extraction.
// When the source was decoded from text the original lines are returned;
// for spreadsheet sources the cells of each row are joined with spaces.
func (t *Table) Lines() []string {
	if len(t.rawLines) > 0 {
		return t.rawLines
	}
	lines := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		lines = append(lines, strings.Join(row, " "))
	}
	return lines
}

// FindColumn returns the index of the first header containing every given
// keyword (case-insensitive), or -1 if no header matches.
func (t *Table) FindColumn(keywords ...string) int {
	for i, header := range t.Headers() {
		h := strings.ToLower(header)
		matched := true
		for _, keyword := range keywords {
			if !strings.Contains(h, strings.ToLower(keyword)) {
				matched = false
				break
			}
		}
		if matched && len(keywords) > 0 {
			return i
		}
	}
	return -1
}

// FindColumnAny returns the index of the first header containing any one of
// the given keywords (case-insensitive), or -1 if none match.
func (t *Table) FindColumnAny(keywords []string) int {
	for _, keyword := range keywords {
		if idx := t.FindColumn(keyword); idx != -1 {
			return idx
		}
	}
	return -1
}

// ReaderConfig holds configuration for file reading
type ReaderConfig struct {
	Delimiter  rune
	LazyQuotes bool
}

// DefaultReaderConfig returns a configuration with sensible defaults
func DefaultReaderConfig() *ReaderConfig {
	return &ReaderConfig{
		Delimiter:  ',',
		LazyQuotes: true,
	}
}

// FileReader decodes bank export files into Tables by trying an ordered
// list of read strategies.
type FileReader struct {
	config *ReaderConfig
	logger logger.Logger
}

// NewFileReader creates a new FileReader with the given configuration
func NewFileReader(config *ReaderConfig) *FileReader {
	if config == nil {
		config = DefaultReaderConfig()
	}

	return &FileReader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("file_reader"),
	}
}

// readStrategy is one attempted interpretation of the input bytes.
type readStrategy struct {
	name string
	read func(data []byte, name string) (*Table, error)
}

// strategies returns the ordered interpretations to try: spreadsheet
// binary first, then delimited text as UTF-8, then as Shift_JIS.
func (r *FileReader) strategies() []readStrategy {
	return []readStrategy{
		{"xlsx", r.readWorkbook},
		{"csv-utf8", r.readCSVUTF8},
		{"csv-shiftjis", r.readCSVShiftJIS},
	}
}

// ReadTable reads and decodes the file at path into a Table.
func (r *FileReader) ReadTable(path string) (*Table, error) {
	r.logger.WithField("file_path", path).Debug("Reading bank file")

	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.WithError(err).WithField("file_path", path).Error("Failed to read file")

		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileUnreadable, path, err)
	}

	return r.ReadTableBytes(data, path)
}

// ReadTableBytes decodes raw file bytes into a Table. Each read strategy is
// tried in order; the first that parses without a decode or structure error
// wins. Exhausting all strategies returns an unreadable-file error.
func (r *FileReader) ReadTableBytes(data []byte, name string) (*Table, error) {
	var attempts []string
	var lastErr error

	for _, strategy := range r.strategies() {
		table, err := strategy.read(data, name)
		if err == nil {
			r.logger.WithFields(logger.Fields{
				"file_path": name,
				"strategy":  strategy.name,
				"rows":      len(table.Rows),
			}).Info("Decoded bank file")
			return table, nil
		}

		r.logger.WithFields(logger.Fields{
			"file_path": name,
			"strategy":  strategy.name,
		}).WithError(err).Debug("Read strategy failed")

		attempts = append(attempts, strategy.name)
		lastErr = err
	}

	return nil, errors.UnreadableFileError(name, attempts, lastErr)
}

// Spreadsheet container magic numbers: a zip archive (xlsx) or an OLE2
// compound document (legacy xls).
var (
	zipMagic  = []byte{0x50, 0x4B, 0x03, 0x04}
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// looksLikeWorkbook reports whether the bytes start with a spreadsheet
// container signature.
func looksLikeWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic) || bytes.HasPrefix(data, ole2Magic)
}

// readWorkbook decodes an xlsx workbook, reading the first sheet.
func (r *FileReader) readWorkbook(data []byte, name string) (*Table, error) {
	if !looksLikeWorkbook(data) {
		return nil, fmt.Errorf("no spreadsheet container signature")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	// GetRows trims trailing empty cells per row; pad back to the header
	// width so column indices stay valid on every row.
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}

	return &Table{Name: name, Rows: rows}, nil
}

// utf8BOM is the UTF-8 byte-order mark some exports prepend.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSVUTF8 decodes the bytes as UTF-8 delimited text. The whole input
// must be valid UTF-8; otherwise the strategy fails and the legacy
// encoding is tried next.
func (r *FileReader) readCSVUTF8(data []byte, name string) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("input is not valid UTF-8")
	}

	return r.parseCSVText(string(data), name)
}

// readCSVShiftJIS decodes the bytes as Shift_JIS delimited text. The
// decoder substitutes the replacement character for invalid byte
// sequences; any replacement in the output fails the strategy.
func (r *FileReader) readCSVShiftJIS(data []byte, name string) (*Table, error) {
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("shift_jis decode failed: %w", err)
	}

	text := string(decoded)
	if strings.ContainsRune(text, utf8.RuneError) {
		return nil, fmt.Errorf("input contains byte sequences invalid in shift_jis")
	}

	return r.parseCSVText(text, name)
}

// parseCSVText splits decoded text into CSV rows, also preserving the raw
// lines for line-oriented extraction.
func (r *FileReader) parseCSVText(text string, name string) (*Table, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = r.config.Delimiter
	reader.LazyQuotes = r.config.LazyQuotes
	reader.FieldsPerRecord = -1 // Variable number of fields
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv parse failed: %w", err)
	}

	return &Table{
		Name:     name,
		Rows:     rows,
		rawLines: splitLines(text),
	}, nil
}

// splitLines splits decoded text into trimmed, non-empty lines.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
