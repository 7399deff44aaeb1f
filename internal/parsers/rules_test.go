package parsers

import (
	"os"
	"path/filepath"
	"testing"
)

// Helper function to write a temporary rules file
func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}
	return path
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()

	if err := rules.Validate(); err != nil {
		t.Errorf("Default rules should validate, got %v", err)
	}
	if rules.EraOffset != 2018 {
		t.Errorf("Expected era offset 2018, got %d", rules.EraOffset)
	}

	found := false
	for _, keyword := range rules.SkipKeywords {
		if keyword == "振込手数料" {
			found = true
			break
		}
	}
	if !found {
		t.Error("Expected 振込手数料 in default skip keywords")
	}
}

func TestLoadRules(t *testing.T) {
	path := writeRulesFile(t, `
skip_keywords:
  - カスタム手数料
era_offset: 1988
`)

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}

	if len(rules.SkipKeywords) != 1 || rules.SkipKeywords[0] != "カスタム手数料" {
		t.Errorf("Expected skip keywords overridden, got %v", rules.SkipKeywords)
	}
	if rules.EraOffset != 1988 {
		t.Errorf("Expected era offset 1988, got %d", rules.EraOffset)
	}

	// Fields absent from the file keep their defaults.
	if len(rules.NoiseTokens) == 0 {
		t.Error("Expected noise tokens to keep defaults")
	}
	if len(rules.DateHeaders) == 0 {
		t.Error("Expected date headers to keep defaults")
	}
}

func TestLoadRules_InvalidYAML(t *testing.T) {
	path := writeRulesFile(t, "skip_keywords: [unclosed")

	if _, err := LoadRules(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}

func TestLoadRules_InvalidValues(t *testing.T) {
	path := writeRulesFile(t, "era_offset: -5")

	if _, err := LoadRules(path); err == nil {
		t.Error("Expected error for negative era offset")
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing rules file")
	}
}

func TestRules_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Rules)
		wantError bool
	}{
		{
			name:      "Valid defaults",
			mutate:    func(r *Rules) {},
			wantError: false,
		},
		{
			name:      "Zero era offset",
			mutate:    func(r *Rules) { r.EraOffset = 0 },
			wantError: true,
		},
		{
			name:      "Empty date headers",
			mutate:    func(r *Rules) { r.DateHeaders = nil },
			wantError: true,
		},
		{
			name:      "Empty amount headers",
			mutate:    func(r *Rules) { r.AmountHeaders = nil },
			wantError: true,
		},
		{
			name:      "Empty description headers",
			mutate:    func(r *Rules) { r.DescriptionHeaders = nil },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			tt.mutate(rules)
			err := rules.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
