package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keshikomi-dev/keshikomi/cmd/keshikomi/config"
	"github.com/keshikomi-dev/keshikomi/internal/parsers"
	"github.com/keshikomi-dev/keshikomi/internal/reconciler"
	"github.com/keshikomi-dev/keshikomi/internal/reporter"
)

// Flags for the reconcile command
var (
	bankFile       string
	ledgerFile     string
	mappingFile    string
	shapeFlag      string
	rulesFile      string
	outputFormat   string
	outputFile     string
	recordUnknowns bool

	// Resolved in PreRunE.
	reconcileShape  parsers.SourceShape
	reconcileFormat reporter.OutputFormat
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile paid invoices against bank withdrawals",
	Long: `Reconcile extracts withdrawals from a bank file, resolves vendor names
through the alias mapping, and marks each withdrawal as Match or Missing
against the Paid rows of the accounts payable ledger.

The bank file may be an Excel workbook, a UTF-8 CSV, or a Shift_JIS CSV.
Its layout is detected automatically unless --shape is given.

Examples:
  # Basic reconciliation
  keshikomi reconcile --bank-file bank.csv --ledger-file ledger.xlsx --mapping-file aliases.csv

  # Zengin transfer records with a JSON report
  keshikomi reconcile -b zengin.csv -l ledger.xlsx -m aliases.csv \
    --shape zengin --output-format json --output-file report.json

  # Record unresolved vendor names as unmapped alias rows
  keshikomi reconcile -b bank.csv -l ledger.xlsx -m aliases.csv --record-unknowns`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&bankFile, "bank-file", "b", "", "path to the bank withdrawal file (required)")
	reconcileCmd.Flags().StringVarP(&ledgerFile, "ledger-file", "l", "", "path to the accounts payable ledger (required)")
	reconcileCmd.Flags().StringVarP(&mappingFile, "mapping-file", "m", "", "path to the vendor alias mapping (required)")

	// Extraction flags
	reconcileCmd.Flags().StringVar(&shapeFlag, "shape", "auto", "bank file layout: auto, columnar, zengin, freetext")
	reconcileCmd.Flags().StringVar(&rulesFile, "rules", "", "extraction rules YAML file (optional)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv, xlsx")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Alias store flags
	reconcileCmd.Flags().BoolVar(&recordUnknowns, "record-unknowns", false, "append unknown vendor names to the mapping file")

	// Mark required flags
	reconcileCmd.MarkFlagRequired("bank-file")
	reconcileCmd.MarkFlagRequired("ledger-file")
	reconcileCmd.MarkFlagRequired("mapping-file")

	// Bind flags to viper
	viper.BindPFlag("bank-file", reconcileCmd.Flags().Lookup("bank-file"))
	viper.BindPFlag("ledger-file", reconcileCmd.Flags().Lookup("ledger-file"))
	viper.BindPFlag("mapping-file", reconcileCmd.Flags().Lookup("mapping-file"))
	viper.BindPFlag("shape", reconcileCmd.Flags().Lookup("shape"))
	viper.BindPFlag("rules", reconcileCmd.Flags().Lookup("rules"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("record-unknowns", reconcileCmd.Flags().Lookup("record-unknowns"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	bankFile = viper.GetString("bank-file")
	ledgerFile = viper.GetString("ledger-file")
	mappingFile = viper.GetString("mapping-file")
	shapeFlag = viper.GetString("shape")
	rulesFile = viper.GetString("rules")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	recordUnknowns = viper.GetBool("record-unknowns")

	if bankFile == "" {
		return fmt.Errorf("bank-file is required")
	}
	if ledgerFile == "" {
		return fmt.Errorf("ledger-file is required")
	}
	if mappingFile == "" {
		return fmt.Errorf("mapping-file is required")
	}

	if err := validateFileExists(bankFile, "bank file"); err != nil {
		return err
	}
	if err := validateFileExists(ledgerFile, "ledger file"); err != nil {
		return err
	}
	// The mapping file may not exist yet; a missing file is an empty
	// mapping and --record-unknowns creates it.

	if rulesFile != "" {
		if err := validateFileExists(rulesFile, "rules file"); err != nil {
			return err
		}
	}

	var err error
	reconcileShape, err = parsers.ParseShape(shapeFlag)
	if err != nil {
		return err
	}
	reconcileFormat, err = reporter.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	return validateOutputFile(outputFile)
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	return nil
}

func validateOutputFile(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Bank file: %s\n", bankFile)
		fmt.Fprintf(os.Stderr, "Ledger file: %s\n", ledgerFile)
		fmt.Fprintf(os.Stderr, "Mapping file: %s\n", mappingFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", reconcileFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	serviceConfig := config.CreateServiceConfig(ledgerFile, mappingFile, rulesFile, reconcileShape)
	service, err := reconciler.NewService(serviceConfig)
	if err != nil {
		return err
	}

	result, err := service.Run(ctx, &reconciler.Request{BankFile: bankFile})
	if err != nil {
		return err
	}

	if recordUnknowns && result.Match != nil && len(result.Match.UnknownNames) > 0 {
		count, err := service.RecordUnknowns(ctx, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Recorded %d unknown vendor names in %s\n", count, mappingFile)
	}

	return writeReport(result, reconcileFormat, outputFile)
}

// writeReport renders a run result to the output file or stdout.
func writeReport(result *reconciler.RunResult, format reporter.OutputFormat, path string) error {
	generator, err := reporter.NewReportGenerator(config.CreateReportConfig(format))
	if err != nil {
		return err
	}

	if path != "" {
		return generator.WriteFile(result, path)
	}
	return generator.Generate(result, os.Stdout)
}
