package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestAliasesAddAndList(t *testing.T) {
	tmpDir := t.TempDir()
	aliasesMappingFile = filepath.Join(tmpDir, "aliases.csv")

	var addOut bytes.Buffer
	aliasesAddCmd.SetOut(&addOut)
	if err := runAliasesAdd(aliasesAddCmd, []string{"ヤサカ", "Yasaka Taxi"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := runAliasesAdd(aliasesAddCmd, []string{"ミステリー商店"}); err != nil {
		t.Fatalf("add without name failed: %v", err)
	}
	if !strings.Contains(addOut.String(), "Added") {
		t.Errorf("expected confirmation output, got %q", addOut.String())
	}

	var listOut bytes.Buffer
	aliasesListCmd.SetOut(&listOut)
	if err := runAliasesList(aliasesListCmd, nil); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	output := listOut.String()
	for _, fragment := range []string{"Bank Key", "ヤサカ", "Yasaka Taxi", "ミステリー商店", "(unmapped)"} {
		if !strings.Contains(output, fragment) {
			t.Errorf("expected list output to contain %q, got:\n%s", fragment, output)
		}
	}
}

func TestAliasesList_MissingFile(t *testing.T) {
	aliasesMappingFile = filepath.Join(t.TempDir(), "absent.csv")

	var listOut bytes.Buffer
	aliasesListCmd.SetOut(&listOut)
	if err := runAliasesList(aliasesListCmd, nil); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(listOut.String(), "No alias mappings") {
		t.Errorf("expected empty-mapping message, got %q", listOut.String())
	}
}
