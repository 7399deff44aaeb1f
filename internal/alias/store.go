package alias

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/internal/parsers"
	"github.com/keshikomi-dev/keshikomi/pkg/errors"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// Store reads the alias table and appends new rows to it. Existing rows
// are never rewritten or reordered.
type Store interface {
	Load(ctx context.Context) (*Table, error)
	Append(ctx context.Context, entries []models.AliasEntry) error
}

// storeHeader is written when a new mapping file is created. Load always
// skips the first row, so a fresh file needs one.
var storeHeader = []string{"Bank Key", "Vendor Name"}

// FileStore keeps the alias table in a local file, either an xlsx
// workbook or a CSV file, chosen by extension.
type FileStore struct {
	path   string
	reader *parsers.FileReader
	logger logger.Logger
}

// NewFileStore creates a file-backed alias store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		reader: parsers.NewFileReader(nil),
		logger: logger.GetGlobalLogger().WithComponent("alias_store"),
	}
}

func (s *FileStore) isWorkbook() bool {
	return strings.EqualFold(filepath.Ext(s.path), ".xlsx")
}

// Load reads the mapping file into an alias table. A missing file is an
// empty table, not an error: the operator may not have mapped anything
// yet.
func (s *FileStore) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.logger.WithField("file_path", s.path).Warn("Alias mapping file not found, starting with an empty table")
		return NewTable(), nil
	}

	table, err := s.reader.ReadTable(s.path)
	if err != nil {
		return nil, err
	}

	loaded := FromRows(table.Rows)
	s.logger.WithFields(logger.Fields{
		"file_path": s.path,
		"entries":   loaded.Len(),
	}).Debug("Loaded alias table")
	return loaded, nil
}

// Append adds rows to the mapping file without touching existing ones.
// A missing file is created with a header row first.
func (s *FileStore) Append(ctx context.Context, entries []models.AliasEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	var err error
	if s.isWorkbook() {
		err = s.appendWorkbook(entries)
	} else {
		err = s.appendCSV(entries)
	}
	if err != nil {
		return errors.FileError(errors.CodeFileWrite, s.path, err)
	}

	s.logger.WithFields(logger.Fields{
		"file_path": s.path,
		"rows":      len(entries),
	}).Info("Appended alias rows")
	return nil
}

func (s *FileStore) appendCSV(entries []models.AliasEntry) error {
	_, statErr := os.Stat(s.path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(storeHeader); err != nil {
			return err
		}
	}
	for _, entry := range entries {
		if err := w.Write([]string{entry.BankKey, entry.CanonicalName}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *FileStore) appendWorkbook(entries []models.AliasEntry) error {
	var f *excelize.File
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		f = excelize.NewFile()
		if err := f.SetSheetRow(f.GetSheetName(0), "A1", &storeHeader); err != nil {
			f.Close()
			return err
		}
	} else {
		opened, err := excelize.OpenFile(s.path)
		if err != nil {
			return err
		}
		f = opened
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("workbook contains no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}

	next := len(rows) + 1
	for i, entry := range entries {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return err
		}
		row := []interface{}{entry.BankKey, entry.CanonicalName}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(s.path)
}
