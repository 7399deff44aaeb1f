package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keshikomi-dev/keshikomi/internal/alias"
	"github.com/keshikomi-dev/keshikomi/internal/models"
)

// Flags for the aliases commands
var aliasesMappingFile string

// aliasesCmd groups the mapping file subcommands
var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Inspect and edit the vendor alias mapping",
	Long: `Aliases manages the mapping from bank descriptions to ledger vendor
names. Rows with an empty vendor name are unmapped: reconciliation has
seen the bank key but nobody has assigned a vendor yet.

Examples:
  keshikomi aliases list --mapping-file aliases.csv
  keshikomi aliases add ヤサカ "Yasaka Taxi" --mapping-file aliases.csv
  keshikomi aliases add ミステリー商店 --mapping-file aliases.csv`,
}

// aliasesListCmd prints the mapping table
var aliasesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alias mappings, including unmapped keys",
	RunE:  runAliasesList,
}

// aliasesAddCmd appends a single mapping row
var aliasesAddCmd = &cobra.Command{
	Use:   "add <bank-key> [vendor-name]",
	Short: "Add an alias mapping; omit the vendor name for an unmapped row",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAliasesAdd,
}

func init() {
	rootCmd.AddCommand(aliasesCmd)
	aliasesCmd.AddCommand(aliasesListCmd)
	aliasesCmd.AddCommand(aliasesAddCmd)

	aliasesCmd.PersistentFlags().StringVarP(&aliasesMappingFile, "mapping-file", "m", "", "path to the vendor alias mapping (required)")
	aliasesCmd.MarkPersistentFlagRequired("mapping-file")
}

func runAliasesList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	store := alias.NewFileStore(aliasesMappingFile)
	table, err := store.Load(context.Background())
	if err != nil {
		return err
	}

	if table.Len() == 0 {
		fmt.Fprintf(out, "No alias mappings in %s\n", aliasesMappingFile)
		return nil
	}

	fmt.Fprintf(out, "%-30s %s\n", "Bank Key", "Vendor Name")
	for _, entry := range table.Entries() {
		name := entry.CanonicalName
		if name == "" {
			name = "(unmapped)"
		}
		fmt.Fprintf(out, "%-30s %s\n", entry.BankKey, name)
	}
	return nil
}

func runAliasesAdd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	key := args[0]
	name := ""
	if len(args) > 1 {
		name = args[1]
	}

	store := alias.NewFileStore(aliasesMappingFile)
	entry := models.AliasEntry{BankKey: key, CanonicalName: name}
	if err := store.Append(context.Background(), []models.AliasEntry{entry}); err != nil {
		return err
	}

	if name == "" {
		fmt.Fprintf(out, "Added unmapped key %q to %s\n", key, aliasesMappingFile)
	} else {
		fmt.Fprintf(out, "Added mapping %q -> %q to %s\n", key, name, aliasesMappingFile)
	}
	return nil
}
