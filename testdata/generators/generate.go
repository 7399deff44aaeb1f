// Command generate writes a matched set of fixture files for manual runs
// of the keshikomi CLI: a bank withdrawal file in one of the supported
// shapes, the accounts-payable ledger that backs part of it, and the
// alias mapping that resolves part of the vendor names.
//
// Usage:
//
//	go run generate.go -shape=columnar -encoding=sjis -count=60
//	go run generate.go -shape=zengin -match-ratio=0.6 -seed=42
//	go run generate.go -shape=freetext -ledger-format=xlsx
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// FixtureGenerator generates bank, ledger, and mapping fixture files
type FixtureGenerator struct {
	Count        int
	StartDate    time.Time
	Days         int
	MatchRatio   float64 // Ratio of withdrawals backed by a Paid ledger row
	MappedRatio  float64 // Ratio of vendors present in the alias mapping
	Shape        string  // columnar, zengin, or freetext
	Encoding     string  // utf8 or sjis, columnar only
	LedgerFormat string  // csv or xlsx
	OutputDir    string
	Seed         int64

	rng *rand.Rand
}

// vendorProfile ties the three spellings of one counterparty together:
// the description the bank prints, the substring an alias row matches
// on, and the name the ledger carries.
type vendorProfile struct {
	BankName  string
	AliasKey  string
	Canonical string
}

// withdrawal is one generated bank-side payment.
type withdrawal struct {
	Date    time.Time
	Vendor  vendorProfile
	Amount  int64
	Invoice bool // whether a Paid ledger row backs this payment
}

// vendorPool mixes full-width katakana, half-width katakana, and
// truncated legal forms the way real bank descriptions do.
var vendorPool = []vendorProfile{
	{"ヤサカ(カ", "ヤサカ", "Yasaka Taxi"},
	{"トウキヨウガス", "トウキヨウガス", "Tokyo Gas"},
	{"ﾄｳｷﾖｳﾃﾞﾝﾘﾖｸ", "トウキヨウデンリヨク", "Tokyo Electric"},
	{"カ)サトウブツサン", "サトウブツサン", "Sato Trading"},
	{"ヤマトウンユ(カ", "ヤマトウンユ", "Yamato Transport"},
	{"ニホンツウウン", "ニホンツウウン", "Nippon Express"},
	{"フジサワコウギヨウ", "フジサワコウギヨウ", "Fujisawa Industries"},
	{"ｵｵﾀﾆｼﾖｳｶｲ", "オオタニシヨウカイ", "Otani Shokai"},
	{"ミツイフドウサン(カ", "ミツイフドウサン", "Mitsui Real Estate"},
	{"カ)ナカムラセイサクシヨ", "ナカムラセイサクシヨ", "Nakamura Seisakusho"},
	{"キヤノンマーケテイング", "キヤノン", "Canon Marketing"},
	{"ワタナベソウケン", "ワタナベソウケン", "Watanabe Soken"},
}

func main() {
	var (
		outputDir    = flag.String("output-dir", "../generated", "Output directory for generated files")
		count        = flag.Int("count", 40, "Number of withdrawals to generate")
		startDate    = flag.String("start-date", "2025-10-01", "First transaction date (YYYY-MM-DD)")
		days         = flag.Int("days", 30, "Number of days the transactions spread over")
		matchRatio   = flag.Float64("match-ratio", 0.8, "Ratio of withdrawals backed by a Paid ledger row (0.0-1.0)")
		mappedRatio  = flag.Float64("mapped-ratio", 0.85, "Ratio of vendors present in the alias mapping (0.0-1.0)")
		shape        = flag.String("shape", "columnar", "Bank file shape: columnar, zengin, or freetext")
		encoding     = flag.String("encoding", "utf8", "Bank file encoding: utf8 or sjis (columnar only)")
		ledgerFormat = flag.String("ledger-format", "csv", "Ledger file format: csv or xlsx")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	generator := &FixtureGenerator{
		Count:        *count,
		StartDate:    start,
		Days:         *days,
		MatchRatio:   *matchRatio,
		MappedRatio:  *mappedRatio,
		Shape:        *shape,
		Encoding:     *encoding,
		LedgerFormat: *ledgerFormat,
		OutputDir:    *outputDir,
		Seed:         *seed,
		rng:          rand.New(rand.NewSource(*seed)),
	}
	if err := generator.Validate(); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	withdrawals := generator.GenerateWithdrawals()

	bankFile, err := generator.WriteBankFile(withdrawals)
	if err != nil {
		log.Fatalf("Failed to write bank file: %v", err)
	}
	ledgerFile, err := generator.WriteLedger(withdrawals)
	if err != nil {
		log.Fatalf("Failed to write ledger: %v", err)
	}
	mappingFile, mapped, err := generator.WriteMapping(withdrawals)
	if err != nil {
		log.Fatalf("Failed to write mapping: %v", err)
	}

	backed := 0
	for _, wd := range withdrawals {
		if wd.Invoice {
			backed++
		}
	}

	fmt.Printf("Generated %d withdrawals in %s\n", len(withdrawals), bankFile)
	fmt.Printf("Ledger: %s (%s)\n", ledgerFile, generator.LedgerFormat)
	fmt.Printf("Mapping: %s (%d vendors mapped)\n", mappingFile, mapped)
	fmt.Printf("Withdrawals backed by a Paid ledger row: %d of %d\n", backed, len(withdrawals))
	fmt.Printf("Seed used: %d\n", generator.Seed)
	fmt.Println()
	fmt.Println("Try it:")
	fmt.Printf("  keshikomi reconcile -b %s -l %s -m %s\n", bankFile, ledgerFile, mappingFile)
}

// Validate checks the generator options before any file is written.
func (g *FixtureGenerator) Validate() error {
	if g.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", g.Count)
	}
	if g.Days <= 0 {
		return fmt.Errorf("days must be positive, got %d", g.Days)
	}
	if g.MatchRatio < 0 || g.MatchRatio > 1 {
		return fmt.Errorf("match-ratio must be between 0.0 and 1.0, got %.2f", g.MatchRatio)
	}
	if g.MappedRatio < 0 || g.MappedRatio > 1 {
		return fmt.Errorf("mapped-ratio must be between 0.0 and 1.0, got %.2f", g.MappedRatio)
	}
	switch g.Shape {
	case "columnar", "zengin", "freetext":
	default:
		return fmt.Errorf("unknown shape: %s", g.Shape)
	}
	switch g.Encoding {
	case "utf8", "sjis":
	default:
		return fmt.Errorf("unknown encoding: %s", g.Encoding)
	}
	switch g.LedgerFormat {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("unknown ledger format: %s", g.LedgerFormat)
	}
	return nil
}

// GenerateWithdrawals produces the date-ordered withdrawal list every
// fixture file derives from.
func (g *FixtureGenerator) GenerateWithdrawals() []withdrawal {
	withdrawals := make([]withdrawal, g.Count)
	for i := range withdrawals {
		withdrawals[i] = withdrawal{
			Date:   g.StartDate.AddDate(0, 0, g.rng.Intn(g.Days)),
			Vendor: vendorPool[g.rng.Intn(len(vendorPool))],
			Amount: g.randomAmount(),
		}
	}
	sort.Slice(withdrawals, func(i, j int) bool {
		return withdrawals[i].Date.Before(withdrawals[j].Date)
	})

	// Mark the share the ledger will carry as Paid.
	backed := int(g.MatchRatio * float64(g.Count))
	if backed > g.Count {
		backed = g.Count
	}
	for _, i := range g.rng.Perm(g.Count)[:backed] {
		withdrawals[i].Invoice = true
	}
	return withdrawals
}

// randomAmount returns a whole-yen amount in business-payment range,
// rounded to hundreds.
func (g *FixtureGenerator) randomAmount() int64 {
	return (g.rng.Int63n(4990) + 10) * 100
}

// WriteBankFile writes withdrawals in the configured shape and returns
// the file path.
func (g *FixtureGenerator) WriteBankFile(withdrawals []withdrawal) (string, error) {
	switch g.Shape {
	case "zengin":
		return g.writeZengin(withdrawals)
	case "freetext":
		return g.writeFreeText(withdrawals)
	default:
		return g.writeColumnar(withdrawals)
	}
}

// writeColumnar writes a header-addressed CSV export. Fee rows and
// deposit rows are mixed in so extraction has something to skip.
func (g *FixtureGenerator) writeColumnar(withdrawals []withdrawal) (string, error) {
	name := "bank_columnar.csv"
	if g.Encoding == "sjis" {
		name = "bank_columnar_sjis.csv"
	}
	path := filepath.Join(g.OutputDir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var out io.Writer = file
	if g.Encoding == "sjis" {
		sjis := transform.NewWriter(file, japanese.ShiftJIS.NewEncoder())
		defer sjis.Close()
		out = sjis
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"日付", "摘要", "出金", "入金", "残高"}); err != nil {
		return "", err
	}

	balance := int64(g.Count) * 300000
	for i, wd := range withdrawals {
		date := wd.Date.Format("2006/01/02")
		if i%6 == 5 {
			balance -= 145
			if err := w.Write([]string{date, "振込手数料", "-145", "", groupYen(balance)}); err != nil {
				return "", err
			}
		}
		if i%8 == 7 {
			deposit := g.randomAmount()
			balance += deposit
			if err := w.Write([]string{date, "フリコミ ニユウキン", "", groupYen(deposit), groupYen(balance)}); err != nil {
				return "", err
			}
		}

		balance -= wd.Amount
		row := []string{date, g.decorate(i, wd.Vendor.BankName), "-" + groupYen(wd.Amount), "", groupYen(balance)}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return path, w.Error()
}

// decorate reproduces the annotations banks attach to descriptions so
// generated files exercise vendor extraction, not just the happy path.
func (g *FixtureGenerator) decorate(i int, name string) string {
	switch {
	case i%7 == 3:
		return fmt.Sprintf("%07d %s", g.rng.Intn(10000000), name)
	case i%5 == 2:
		return name + "（ご依頼人 ｶ)ｹｼｺﾐｼﾖｳｼﾞ）"
	default:
		return name
	}
}

// writeZengin writes a fixed-field interbank export: a header record,
// one data record per withdrawal, and trailer records.
func (g *FixtureGenerator) writeZengin(withdrawals []withdrawal) (string, error) {
	path := filepath.Join(g.OutputDir, "bank_zengin.csv")

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"1", "103", "0036", "001", g.eraDate(g.StartDate)}); err != nil {
		return "", err
	}

	var total int64
	for i, wd := range withdrawals {
		total += wd.Amount
		record := []string{
			"2",
			fmt.Sprintf("%04d", i+1),
			g.eraDate(wd.Date),
			g.eraDate(wd.Date),
			"2",
			"",
			strconv.FormatInt(wd.Amount, 10),
			"0",
			"",
			"11",
			"",
			"",
			"0001",
			"",
			wd.Vendor.BankName,
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}

	if err := w.Write([]string{"8", strconv.Itoa(len(withdrawals)), strconv.FormatInt(total, 10)}); err != nil {
		return "", err
	}
	if err := w.Write([]string{"9"}); err != nil {
		return "", err
	}

	w.Flush()
	return path, w.Error()
}

// eraDate renders a date as the 6-digit era-relative form data records
// carry, anchored on the Reiwa era.
func (g *FixtureGenerator) eraDate(t time.Time) string {
	return fmt.Sprintf("%02d%02d%02d", t.Year()-2018, int(t.Month()), t.Day())
}

// writeFreeText writes the line-oriented form OCR recovers from a
// scanned statement: dated transaction lines between undated noise.
func (g *FixtureGenerator) writeFreeText(withdrawals []withdrawal) (string, error) {
	path := filepath.Join(g.OutputDir, "bank_scan.txt")

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var b strings.Builder
	b.WriteString("楽天銀行 ご利用明細\n")

	balance := int64(g.Count) * 300000
	fmt.Fprintf(&b, "繰越残高 %s\n", groupYen(balance))
	for _, wd := range withdrawals {
		balance -= wd.Amount
		fmt.Fprintf(&b, "%s %s %s %s\n",
			wd.Date.Format("2006/01/02"), wd.Vendor.BankName, groupYen(wd.Amount), groupYen(balance))
	}
	b.WriteString("ページ 1\n")

	_, err = file.WriteString(b.String())
	return path, err
}

// WriteLedger writes the accounts-payable ledger backing part of the
// withdrawals, plus Pending rows and Paid rows with no bank counterpart.
func (g *FixtureGenerator) WriteLedger(withdrawals []withdrawal) (string, error) {
	rows := g.ledgerRows(withdrawals)
	if g.LedgerFormat == "xlsx" {
		return g.writeLedgerXLSX(rows)
	}
	return g.writeLedgerCSV(rows)
}

type ledgerInvoice struct {
	vendor string
	amount int64
	status string
}

// ledgerRows builds the shuffled, numbered ledger table. Unbacked Paid
// amounts end in 7 so they can never collide with a generated
// withdrawal, which is always a multiple of 100.
func (g *FixtureGenerator) ledgerRows(withdrawals []withdrawal) [][]string {
	var invoices []ledgerInvoice
	for _, wd := range withdrawals {
		if wd.Invoice {
			invoices = append(invoices, ledgerInvoice{wd.Vendor.Canonical, wd.Amount, "Paid"})
		}
	}
	for i := 0; i < g.Count/10+1; i++ {
		vendor := vendorPool[g.rng.Intn(len(vendorPool))]
		invoices = append(invoices, ledgerInvoice{vendor.Canonical, g.randomAmount() + 7, "Paid"})
	}
	for i := 0; i < g.Count/8+1; i++ {
		vendor := vendorPool[g.rng.Intn(len(vendorPool))]
		invoices = append(invoices, ledgerInvoice{vendor.Canonical, g.randomAmount(), "Pending"})
	}
	g.rng.Shuffle(len(invoices), func(i, j int) {
		invoices[i], invoices[j] = invoices[j], invoices[i]
	})

	rows := [][]string{{"No", "Vendor Name", "FB Amount", "Payment Status"}}
	for i, inv := range invoices {
		rows = append(rows, []string{strconv.Itoa(i + 1), inv.vendor, groupYen(inv.amount), inv.status})
	}
	return rows
}

func (g *FixtureGenerator) writeLedgerCSV(rows [][]string) (string, error) {
	path := filepath.Join(g.OutputDir, "ledger.csv")

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return path, w.Error()
}

func (g *FixtureGenerator) writeLedgerXLSX(rows [][]string) (string, error) {
	path := filepath.Join(g.OutputDir, "ledger.xlsx")

	workbook := excelize.NewFile()
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return "", err
		}
		if err := workbook.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return "", err
		}
	}
	return path, workbook.SaveAs(path)
}

// WriteMapping writes alias rows for a share of the distinct vendors.
// The rest stay unmapped so reconciliation reports unknown names and
// --record-unknowns has work to do.
func (g *FixtureGenerator) WriteMapping(withdrawals []withdrawal) (string, int, error) {
	var vendors []vendorProfile
	seen := make(map[string]bool)
	for _, wd := range withdrawals {
		if !seen[wd.Vendor.AliasKey] {
			seen[wd.Vendor.AliasKey] = true
			vendors = append(vendors, wd.Vendor)
		}
	}

	mapped := int(g.MappedRatio * float64(len(vendors)))
	if mapped > len(vendors) {
		mapped = len(vendors)
	}
	g.rng.Shuffle(len(vendors), func(i, j int) {
		vendors[i], vendors[j] = vendors[j], vendors[i]
	})
	vendors = vendors[:mapped]
	sort.Slice(vendors, func(i, j int) bool {
		return vendors[i].AliasKey < vendors[j].AliasKey
	})

	path := filepath.Join(g.OutputDir, "mapping.csv")
	file, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"Bank Key", "Vendor Name"}); err != nil {
		return "", 0, err
	}
	for _, vendor := range vendors {
		if err := w.Write([]string{vendor.AliasKey, vendor.Canonical}); err != nil {
			return "", 0, err
		}
	}

	w.Flush()
	return path, mapped, w.Error()
}

// groupYen formats a whole-yen amount with comma grouping, the way
// operator-maintained spreadsheets carry it.
func groupYen(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	s := strconv.FormatInt(amount, 10)
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
