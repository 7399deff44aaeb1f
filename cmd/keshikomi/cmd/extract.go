package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keshikomi-dev/keshikomi/cmd/keshikomi/config"
	"github.com/keshikomi-dev/keshikomi/internal/parsers"
	"github.com/keshikomi-dev/keshikomi/internal/reconciler"
	"github.com/keshikomi-dev/keshikomi/internal/reporter"
)

// Flags for the extract command
var (
	extractBankFile     string
	extractShapeFlag    string
	extractRulesFile    string
	extractOutputFormat string
	extractOutputFile   string

	extractShape  parsers.SourceShape
	extractFormat reporter.OutputFormat
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract withdrawals from a bank file without reconciling",
	Long: `Extract reads a bank file and prints the withdrawals it would feed into
reconciliation, with per-row skip counts. Use it to check how a new bank
export or a scanned statement parses before running a reconciliation.

Examples:
  keshikomi extract --bank-file bank.csv
  keshikomi extract -b statement.txt --shape freetext --output-format json`,

	PreRunE: validateExtractFlags,
	RunE:    runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractBankFile, "bank-file", "b", "", "path to the bank withdrawal file (required)")
	extractCmd.Flags().StringVar(&extractShapeFlag, "shape", "auto", "bank file layout: auto, columnar, zengin, freetext")
	extractCmd.Flags().StringVar(&extractRulesFile, "rules", "", "extraction rules YAML file (optional)")
	extractCmd.Flags().StringVarP(&extractOutputFormat, "output-format", "f", "console", "output format: console, json, csv, xlsx")
	extractCmd.Flags().StringVarP(&extractOutputFile, "output-file", "o", "", "output file path (default: stdout)")

	extractCmd.MarkFlagRequired("bank-file")
}

func validateExtractFlags(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(extractBankFile, "bank file"); err != nil {
		return err
	}
	if extractRulesFile != "" {
		if err := validateFileExists(extractRulesFile, "rules file"); err != nil {
			return err
		}
	}

	var err error
	extractShape, err = parsers.ParseShape(extractShapeFlag)
	if err != nil {
		return err
	}
	extractFormat, err = reporter.ParseFormat(extractOutputFormat)
	if err != nil {
		return err
	}

	return validateOutputFile(extractOutputFile)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Extracting withdrawals from %s...\n", extractBankFile)
	}

	serviceConfig := config.CreateServiceConfig("", "", extractRulesFile, extractShape)
	service, err := reconciler.NewService(serviceConfig)
	if err != nil {
		return err
	}

	result, err := service.Extract(ctx, &reconciler.Request{BankFile: extractBankFile})
	if err != nil {
		return err
	}

	return writeReport(result, extractFormat, extractOutputFile)
}
