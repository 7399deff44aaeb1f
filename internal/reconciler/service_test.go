package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/keshikomi-dev/keshikomi/internal/alias"
	"github.com/keshikomi-dev/keshikomi/internal/ledger"
	"github.com/keshikomi-dev/keshikomi/internal/models"
	"github.com/keshikomi-dev/keshikomi/internal/parsers"
	"github.com/keshikomi-dev/keshikomi/pkg/errors"
)

type stubLedgerStore struct {
	invoices []models.LedgerInvoice
	stats    *ledger.LoadStats
	err      error
}

func (s *stubLedgerStore) Invoices(ctx context.Context) ([]models.LedgerInvoice, *ledger.LoadStats, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.invoices, s.stats, nil
}

type stubAliasStore struct {
	table     *alias.Table
	appended  []models.AliasEntry
	loadErr   error
	appendErr error
}

func (s *stubAliasStore) Load(ctx context.Context) (*alias.Table, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.table == nil {
		return alias.NewTable(), nil
	}
	return s.table, nil
}

func (s *stubAliasStore) Append(ctx context.Context, entries []models.AliasEntry) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, entries...)
	return nil
}

func writeBankFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write bank file: %v", err)
	}
	return path
}

func newTestService(t *testing.T, ledgerStore ledger.Store, aliasStore alias.Store) *Service {
	t.Helper()
	service, err := NewServiceWithStores(DefaultConfig(), ledgerStore, aliasStore)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return service
}

const testBankCSV = `日付,出金,入金,残高,摘要
2025/10/27,-150000,,1262390,ヤサカ(カ
2025/10/28,-145,,1262245,振込手数料
2025/10/29,,40000,1302245,ペイロール
2025/10/30,-9999,,1292246,ミステリー商店
`

func testLedgerStore() *stubLedgerStore {
	return &stubLedgerStore{
		invoices: []models.LedgerInvoice{
			{Vendor: "Yasaka Taxi", Amount: 150000, Status: "Paid"},
			{Vendor: "Tokyo Gas", Amount: 8000, Status: "Pending"},
		},
		stats: &ledger.LoadStats{RowsSeen: 2, Loaded: 2},
	}
}

func testAliasStore() *stubAliasStore {
	table := alias.NewTable()
	table.Add("ヤサカ", "Yasaka Taxi")
	return &stubAliasStore{table: table}
}

func TestService_Run(t *testing.T) {
	bankFile := writeBankFile(t, "bank.csv", testBankCSV)
	service := newTestService(t, testLedgerStore(), testAliasStore())

	result, err := service.Run(context.Background(), &Request{BankFile: bankFile})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("Expected a generated run ID")
	}
	if result.ProcessedAt.IsZero() {
		t.Error("Expected ProcessedAt to be set")
	}
	if result.SourceFile != bankFile {
		t.Errorf("Expected source file %q, got %q", bankFile, result.SourceFile)
	}
	if result.Shape != parsers.ShapeColumnar {
		t.Errorf("Expected detected shape columnar, got %s", result.Shape)
	}

	if len(result.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(result.Transactions))
	}
	if result.Extract.RowsSeen != 4 || result.Extract.Skipped != 2 {
		t.Errorf("Expected 4 rows seen with 2 skipped, got %d/%d",
			result.Extract.RowsSeen, result.Extract.Skipped)
	}
	if result.Extract.SkipReasons[parsers.SkipKeyword] != 1 {
		t.Errorf("Expected 1 keyword skip, got %d", result.Extract.SkipReasons[parsers.SkipKeyword])
	}
	if result.Extract.SkipReasons[parsers.SkipBadAmount] != 1 {
		t.Errorf("Expected 1 bad amount skip, got %d", result.Extract.SkipReasons[parsers.SkipBadAmount])
	}

	if result.LedgerStats == nil || result.LedgerStats.Loaded != 2 {
		t.Fatalf("Expected ledger stats with 2 loaded invoices, got %+v", result.LedgerStats)
	}

	if result.Match == nil {
		t.Fatal("Expected a match result")
	}
	summary := result.Match.Summary
	if summary.TotalTransactions != 2 || summary.Matched != 1 || summary.Unmatched != 1 {
		t.Errorf("Expected 2 transactions with 1 matched and 1 unmatched, got %d/%d/%d",
			summary.TotalTransactions, summary.Matched, summary.Unmatched)
	}
	if summary.PaidInvoices != 1 {
		t.Errorf("Expected 1 paid invoice, got %d", summary.PaidInvoices)
	}

	if len(result.Match.Matched) != 1 || result.Match.Matched[0].ResolvedName != "Yasaka Taxi" {
		t.Errorf("Expected ヤサカ(カ matched as Yasaka Taxi, got %+v", result.Match.Matched)
	}
	wantUnknowns := []string{"ミステリー商店"}
	if len(result.Match.UnknownNames) != 1 || result.Match.UnknownNames[0] != wantUnknowns[0] {
		t.Errorf("Expected unknown names %v, got %v", wantUnknowns, result.Match.UnknownNames)
	}
}

func TestService_Run_RequestValidation(t *testing.T) {
	service := newTestService(t, testLedgerStore(), nil)

	tests := []struct {
		name    string
		request *Request
	}{
		{"nil request", nil},
		{"missing bank file", &Request{}},
		{"invalid shape", &Request{BankFile: "bank.csv", Shape: "sideways"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Run(context.Background(), tt.request)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			pipelineErr, ok := errors.AsPipelineError(err)
			if !ok {
				t.Fatalf("Expected PipelineError, got %T", err)
			}
			if pipelineErr.Category != errors.CategoryValidation {
				t.Errorf("Expected validation error, got %s", pipelineErr.Category)
			}
		})
	}
}

func TestService_Run_NoLedgerStore(t *testing.T) {
	bankFile := writeBankFile(t, "bank.csv", testBankCSV)
	service := newTestService(t, nil, nil)

	_, err := service.Run(context.Background(), &Request{BankFile: bankFile})
	if err == nil {
		t.Fatal("Expected error without a ledger store")
	}
	pipelineErr, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("Expected PipelineError, got %T", err)
	}
	if pipelineErr.Code != errors.CodeMissingConfig {
		t.Errorf("Expected code %s, got %s", errors.CodeMissingConfig, pipelineErr.Code)
	}
}

func TestService_Run_BankFileMissing(t *testing.T) {
	service := newTestService(t, testLedgerStore(), nil)

	_, err := service.Run(context.Background(), &Request{BankFile: filepath.Join(t.TempDir(), "absent.csv")})
	if err == nil {
		t.Fatal("Expected error for missing bank file")
	}
	pipelineErr, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("Expected PipelineError, got %T", err)
	}
	if pipelineErr.Code != errors.CodeFileNotFound {
		t.Errorf("Expected code %s, got %s", errors.CodeFileNotFound, pipelineErr.Code)
	}
}

func TestService_Run_Cancelled(t *testing.T) {
	bankFile := writeBankFile(t, "bank.csv", testBankCSV)
	service := newTestService(t, testLedgerStore(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Run(ctx, &Request{BankFile: bankFile})
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
	pipelineErr, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("Expected PipelineError, got %T", err)
	}
	if pipelineErr.Category != errors.CategoryReconciliation {
		t.Errorf("Expected reconciliation error, got %s", pipelineErr.Category)
	}
}

func TestService_Run_LedgerError(t *testing.T) {
	bankFile := writeBankFile(t, "bank.csv", testBankCSV)
	ledgerStore := &stubLedgerStore{err: errors.FileError(errors.CodeFileNotFound, "ledger.csv", nil)}
	service := newTestService(t, ledgerStore, nil)

	_, err := service.Run(context.Background(), &Request{BankFile: bankFile})
	if err == nil {
		t.Fatal("Expected ledger load error to fail the run")
	}
}

func TestService_Run_AliasLoadError(t *testing.T) {
	bankFile := writeBankFile(t, "bank.csv", testBankCSV)
	aliasStore := &stubAliasStore{loadErr: errors.FileError(errors.CodeFileUnreadable, "aliases.csv", nil)}
	service := newTestService(t, testLedgerStore(), aliasStore)

	_, err := service.Run(context.Background(), &Request{BankFile: bankFile})
	if err == nil {
		t.Fatal("Expected alias load error to fail the run")
	}
}

func TestService_Extract(t *testing.T) {
	bankFile := writeBankFile(t, "bank.csv", testBankCSV)
	service := newTestService(t, nil, nil)

	result, err := service.Extract(context.Background(), &Request{BankFile: bankFile})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(result.Transactions) != 2 {
		t.Errorf("Expected 2 transactions, got %d", len(result.Transactions))
	}
	if result.Shape != parsers.ShapeColumnar {
		t.Errorf("Expected detected shape columnar, got %s", result.Shape)
	}
	if result.Match != nil {
		t.Error("Expected no match result for extract-only pass")
	}
	if result.LedgerStats != nil {
		t.Error("Expected no ledger stats for extract-only pass")
	}
}

func TestService_Extract_ExplicitShape(t *testing.T) {
	content := "2025/10/27 ヤサカ 150,000 1,262,390\n"
	bankFile := writeBankFile(t, "scan.txt", content)
	service := newTestService(t, nil, nil)

	result, err := service.Extract(context.Background(), &Request{BankFile: bankFile, Shape: parsers.ShapeFreeText})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Shape != parsers.ShapeFreeText {
		t.Errorf("Expected shape freetext, got %s", result.Shape)
	}
	if len(result.Transactions) != 1 || result.Transactions[0].Amount != 150000 {
		t.Errorf("Expected one 150000 yen withdrawal, got %+v", result.Transactions)
	}
}

func TestService_RecordUnknowns(t *testing.T) {
	bankFile := writeBankFile(t, "bank.csv", testBankCSV)
	aliasStore := testAliasStore()
	service := newTestService(t, testLedgerStore(), aliasStore)

	result, err := service.Run(context.Background(), &Request{BankFile: bankFile})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	count, err := service.RecordUnknowns(context.Background(), result)
	if err != nil {
		t.Fatalf("RecordUnknowns failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 recorded vendor, got %d", count)
	}
	if len(aliasStore.appended) != 1 {
		t.Fatalf("Expected 1 appended entry, got %d", len(aliasStore.appended))
	}
	if aliasStore.appended[0].BankKey != "ミステリー商店" || aliasStore.appended[0].CanonicalName != "" {
		t.Errorf("Expected unmapped ミステリー商店 entry, got %+v", aliasStore.appended[0])
	}
}

func TestService_RecordUnknowns_NoResult(t *testing.T) {
	aliasStore := testAliasStore()
	service := newTestService(t, testLedgerStore(), aliasStore)

	count, err := service.RecordUnknowns(context.Background(), nil)
	if err != nil || count != 0 {
		t.Errorf("Expected 0 recorded vendors for nil result, got %d (%v)", count, err)
	}
	if len(aliasStore.appended) != 0 {
		t.Errorf("Expected no appended entries, got %d", len(aliasStore.appended))
	}
}

func TestService_RecordUnknowns_NoStore(t *testing.T) {
	bankFile := writeBankFile(t, "bank.csv", testBankCSV)
	service := newTestService(t, testLedgerStore(), nil)

	result, err := service.Run(context.Background(), &Request{BankFile: bankFile})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	_, err = service.RecordUnknowns(context.Background(), result)
	if err == nil {
		t.Fatal("Expected error without an alias store")
	}
	pipelineErr, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("Expected PipelineError, got %T", err)
	}
	if pipelineErr.Code != errors.CodeMissingConfig {
		t.Errorf("Expected code %s, got %s", errors.CodeMissingConfig, pipelineErr.Code)
	}
}

func TestNewServiceWithStores_InvalidConfig(t *testing.T) {
	_, err := NewServiceWithStores(&Config{Shape: "sideways"}, nil, nil)
	if err == nil {
		t.Fatal("Expected error for invalid shape")
	}
	pipelineErr, ok := errors.AsPipelineError(err)
	if !ok {
		t.Fatalf("Expected PipelineError, got %T", err)
	}
	if pipelineErr.Category != errors.CategoryConfiguration {
		t.Errorf("Expected configuration error, got %s", pipelineErr.Category)
	}
}

func TestNewService_RulesFile(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte("era_offset: 1988\n"), 0o644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}

	service, err := NewService(&Config{RulesFile: rulesPath})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if service == nil {
		t.Fatal("Expected a service")
	}
}

func TestNewService_BadRulesFile(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte("era_offset: [broken\n"), 0o644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}

	_, err := NewService(&Config{RulesFile: rulesPath})
	if err == nil {
		t.Fatal("Expected error for malformed rules file")
	}
	pipelineErr, ok := errors.AsPipelineError(err)
	if !ok || pipelineErr.Category != errors.CategoryConfiguration {
		t.Errorf("Expected configuration error, got %v", err)
	}
}
