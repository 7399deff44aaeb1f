// Package reconciler wires the pipeline together: read a bank file,
// extract withdrawals, resolve vendor names through the alias mapping,
// and match the result against the payment ledger.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/keshikomi-dev/keshikomi/internal/alias"
	"github.com/keshikomi-dev/keshikomi/internal/ledger"
	"github.com/keshikomi-dev/keshikomi/internal/matcher"
	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/internal/parsers"
	"github.com/keshikomi-dev/keshikomi/pkg/errors"
	"github.com/keshikomi-dev/keshikomi/pkg/logger"

	"github.com/google/uuid"
)

// Config holds the file locations and extraction settings for a service.
type Config struct {
	// LedgerFile is the accounts-payable export. Required for Run;
	// Extract works without it.
	LedgerFile string

	// MappingFile is the alias store path. Optional: without it every
	// resolution falls through to Unknown and RecordUnknowns is refused.
	MappingFile string

	// RulesFile overrides the built-in extraction rules when set.
	RulesFile string

	// Shape is the default bank file layout when a request does not
	// name one.
	Shape parsers.SourceShape
}

// DefaultConfig returns a default configuration for the service
func DefaultConfig() *Config {
	return &Config{
		Shape: parsers.ShapeAuto,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Shape != "" && !c.Shape.IsValid() {
		return fmt.Errorf("invalid source shape %q", c.Shape)
	}
	return nil
}

// Request names the bank file for one run.
type Request struct {
	// BankFile is the path of the bank export to reconcile.
	BankFile string

	// Shape overrides the configured layout when set.
	Shape parsers.SourceShape
}

// Validate validates the request
func (r *Request) Validate() error {
	if r.BankFile == "" {
		return fmt.Errorf("bank file path is required")
	}
	if r.Shape != "" && !r.Shape.IsValid() {
		return fmt.Errorf("invalid source shape %q", r.Shape)
	}
	return nil
}

// RunResult is the complete outcome of one pass, with enough metadata
// to reproduce it.
type RunResult struct {
	RunID       uuid.UUID           `json:"run_id"`
	ProcessedAt time.Time           `json:"processed_at"`
	Duration    time.Duration       `json:"duration"`
	SourceFile  string              `json:"source_file"`
	Shape       parsers.SourceShape `json:"shape"`

	// Transactions holds the extracted withdrawals in file order.
	Transactions []models.BankTransaction `json:"transactions"`
	Extract      *parsers.ExtractStats    `json:"extract_stats,omitempty"`

	// Ledger load outcome. Nil for extract-only passes.
	LedgerStats *ledger.LoadStats `json:"ledger_stats,omitempty"`

	// Match is the reconciliation outcome. Nil for extract-only passes.
	Match *matcher.Result `json:"match,omitempty"`
}

// Service runs the reconciliation pipeline. A Service is stateless
// between runs; the only write it ever performs is RecordUnknowns,
// which the operator triggers explicitly.
type Service struct {
	config    *Config
	reader    *parsers.FileReader
	extractor *parsers.Extractor
	ledger    ledger.Store
	aliases   alias.Store
	logger    logger.Logger
}

// NewService creates a service with file-backed ledger and alias stores
// taken from the configuration.
func NewService(config *Config) (*Service, error) {
	var ledgerStore ledger.Store
	if config != nil && config.LedgerFile != "" {
		ledgerStore = ledger.NewFileStore(config.LedgerFile)
	}

	var aliasStore alias.Store
	if config != nil && config.MappingFile != "" {
		aliasStore = alias.NewFileStore(config.MappingFile)
	}

	return NewServiceWithStores(config, ledgerStore, aliasStore)
}

// NewServiceWithStores creates a service with explicit store
// implementations. Either store may be nil: a nil ledger store refuses
// Run, a nil alias store resolves everything to Unknown.
func NewServiceWithStores(config *Config, ledgerStore ledger.Store, aliasStore alias.Store) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "reconciler", nil, err)
	}

	rules, err := loadRules(config.RulesFile)
	if err != nil {
		return nil, err
	}

	extractor, err := parsers.NewExtractor(rules)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:    config,
		reader:    parsers.NewFileReader(nil),
		extractor: extractor,
		ledger:    ledgerStore,
		aliases:   aliasStore,
		logger:    logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

func loadRules(path string) (*parsers.Rules, error) {
	if path == "" {
		return parsers.DefaultRules(), nil
	}
	rules, err := parsers.LoadRules(path)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "rules", path, err)
	}
	return rules, nil
}

// Run executes the full pipeline for one bank file. File-level problems
// (unreadable file, unrecognized layout, missing ledger columns) fail
// the run; row-level problems are counted in the result's stats.
func (s *Service) Run(ctx context.Context, request *Request) (*RunResult, error) {
	if err := s.checkRequest(request); err != nil {
		return nil, err
	}
	if s.ledger == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "ledger-file", nil, nil).
			WithSuggestion("provide the accounts payable export with --ledger-file")
	}

	start := time.Now()
	result := &RunResult{
		RunID:       uuid.New(),
		ProcessedAt: start,
		SourceFile:  request.BankFile,
	}

	log := s.logger.WithFields(logger.Fields{
		"run_id":    result.RunID.String(),
		"bank_file": request.BankFile,
	})
	log.Info("Starting reconciliation run")

	if err := s.extractStage(ctx, request, result, log); err != nil {
		return nil, err
	}

	if err := checkContext(ctx, "load ledger"); err != nil {
		return nil, err
	}
	invoices, ledgerStats, err := s.ledger.Invoices(ctx)
	if err != nil {
		return nil, err
	}
	result.LedgerStats = ledgerStats
	log.WithFields(logger.Fields{
		"stage":    "ledger",
		"invoices": len(invoices),
		"skipped":  ledgerStats.Skipped,
	}).Debug("Ledger loaded")

	if err := checkContext(ctx, "load aliases"); err != nil {
		return nil, err
	}
	aliasTable, err := s.loadAliases(ctx)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx, "match"); err != nil {
		return nil, err
	}
	engine := matcher.NewEngine(alias.NewResolver(aliasTable))
	result.Match = engine.Reconcile(result.Transactions, invoices)
	result.Duration = time.Since(start)

	log.WithFields(logger.Fields{
		"stage":           "done",
		"transactions":    result.Match.Summary.TotalTransactions,
		"matched":         result.Match.Summary.Matched,
		"unmatched":       result.Match.Summary.Unmatched,
		"unknown_vendors": result.Match.Summary.UnknownVendors,
		"duration":        result.Duration.String(),
	}).Info("Reconciliation run complete")

	return result, nil
}

// Extract runs only the read and extract stages, for inspecting what a
// bank file yields before reconciling it.
func (s *Service) Extract(ctx context.Context, request *Request) (*RunResult, error) {
	if err := s.checkRequest(request); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &RunResult{
		RunID:       uuid.New(),
		ProcessedAt: start,
		SourceFile:  request.BankFile,
	}

	log := s.logger.WithFields(logger.Fields{
		"run_id":    result.RunID.String(),
		"bank_file": request.BankFile,
	})

	if err := s.extractStage(ctx, request, result, log); err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

// RecordUnknowns appends the run's unknown vendor names to the alias
// store as unmapped rows and returns how many were written.
func (s *Service) RecordUnknowns(ctx context.Context, result *RunResult) (int, error) {
	if result == nil || result.Match == nil {
		return 0, nil
	}
	if s.aliases == nil {
		return 0, errors.ConfigurationError(errors.CodeMissingConfig, "mapping-file", nil, nil).
			WithSuggestion("provide the alias mapping path with --mapping-file")
	}

	count, err := alias.AppendUnknowns(ctx, s.aliases, result.Match.UnknownNames)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.WithFields(logger.Fields{
			"run_id": result.RunID.String(),
			"count":  count,
		}).Info("Recorded unknown vendors in alias store")
	}
	return count, nil
}

func (s *Service) checkRequest(request *Request) error {
	if request == nil {
		return errors.ValidationError(errors.CodeMissingField, "request", nil, nil)
	}
	if err := request.Validate(); err != nil {
		return errors.ValidationError(errors.CodeMissingField, "request", request.BankFile, err)
	}
	return nil
}

// shapeFor picks the layout for a request, preferring the request's own.
func (s *Service) shapeFor(request *Request) parsers.SourceShape {
	if request.Shape != "" {
		return request.Shape
	}
	if s.config.Shape != "" {
		return s.config.Shape
	}
	return parsers.ShapeAuto
}

func (s *Service) extractStage(ctx context.Context, request *Request, result *RunResult, log logger.Logger) error {
	if err := checkContext(ctx, "read bank file"); err != nil {
		return err
	}
	table, err := s.reader.ReadTable(request.BankFile)
	if err != nil {
		return err
	}

	if err := checkContext(ctx, "extract"); err != nil {
		return err
	}
	transactions, stats, err := s.extractor.Extract(table, s.shapeFor(request))
	if err != nil {
		return err
	}

	result.Transactions = transactions
	result.Extract = stats
	result.Shape = stats.Shape
	log.WithFields(logger.Fields{
		"stage":        "extract",
		"shape":        stats.Shape.String(),
		"rows_seen":    stats.RowsSeen,
		"transactions": len(transactions),
		"skipped":      stats.Skipped,
	}).Debug("Extraction complete")
	return nil
}

func (s *Service) loadAliases(ctx context.Context) (*alias.Table, error) {
	if s.aliases == nil {
		return alias.NewTable(), nil
	}
	return s.aliases.Load(ctx)
}

func checkContext(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return errors.ReconciliationError(errors.CodeProcessingError, stage, err).
			WithContext("reason", "cancelled")
	}
	return nil
}
