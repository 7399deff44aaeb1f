package reporter

import (
	"os"

	"github.com/keshikomi-dev/keshikomi/internal/reconciler"
	"github.com/keshikomi-dev/keshikomi/pkg/errors"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"
)

// WriteFile renders the result to a file, creating or truncating it.
// The close error is checked because buffered workbook and CSV output
// can fail at close time.
func (rg *ReportGenerator) WriteFile(result *reconciler.RunResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err).
			WithSuggestion("check that the output directory exists and is writable")
	}

	if err := rg.Generate(result, file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}

	rg.logger.WithFields(logger.Fields{
		"path":   path,
		"format": string(rg.config.Format),
	}).Info("Report written")
	return nil
}
