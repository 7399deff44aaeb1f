package ledger

import (
	"context"

	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/internal/parsers"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"
)

// Store provides the invoices to reconcile against.
type Store interface {
	Invoices(ctx context.Context) ([]models.LedgerInvoice, *LoadStats, error)
}

// FileStore reads the ledger from a local file in any format the bank
// file reader understands. Unlike the alias mapping, a missing ledger
// file is an error: nothing can be reconciled without it.
type FileStore struct {
	path   string
	reader *parsers.FileReader
	logger logger.Logger
}

// NewFileStore creates a file-backed ledger store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		reader: parsers.NewFileReader(nil),
		logger: logger.GetGlobalLogger().WithComponent("ledger_store"),
	}
}

// Invoices reads and parses the ledger file.
func (s *FileStore) Invoices(ctx context.Context) ([]models.LedgerInvoice, *LoadStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	table, err := s.reader.ReadTable(s.path)
	if err != nil {
		return nil, nil, err
	}

	return LoadInvoices(table)
}
