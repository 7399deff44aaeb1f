package parsers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the extraction heuristics that vary by bank and export
// vintage: header keywords for column location, noise and skip keyword
// lists, institution-name markers, and the era offset for Zengin dates.
//
// The compiled-in defaults cover the supported bank's conventions; a YAML
// rules file can override any of them.
type Rules struct {
	// SkipKeywords drop a columnar row entirely when the normalized
	// description contains one of them. These mark non-vendor cash
	// movements: fees, card debits, tax withdrawals, auto-debits.
	SkipKeywords []string `yaml:"skip_keywords"`

	// NoiseTokens are removed from free-text vendor descriptions by exact
	// token match. Substring removal would truncate vendor names that
	// merely contain these fragments.
	NoiseTokens []string `yaml:"noise_tokens"`

	// InstitutionMarkers identify a leading financial-institution token in
	// a columnar description, switching vendor extraction to the
	// prefix-skipping rule.
	InstitutionMarkers []string `yaml:"institution_markers"`

	// Header keyword lists used to locate columns in columnar exports.
	DateHeaders        []string `yaml:"date_headers"`
	AmountHeaders      []string `yaml:"amount_headers"`
	DescriptionHeaders []string `yaml:"description_headers"`

	// EraOffset converts a Zengin two-digit era year to a Gregorian year:
	// gregorian = era_year + offset. The default anchors the Reiwa era.
	EraOffset int `yaml:"era_offset"`
}

// DefaultRules returns the compiled-in extraction rules.
func DefaultRules() *Rules {
	return &Rules{
		SkipKeywords: []string{
			"振込手数料",
			"手数料",
			"カードご利用",
			"カード利用",
			"国税",
			"都税",
			"口座振替",
			"自動引落",
			"ＡＴＭ",
		},
		NoiseTokens: []string{
			"rakuten",
			"bank",
			"楽天",
			"銀行",
			"天銀行",
			"行",
		},
		InstitutionMarkers: []string{
			"銀行",
			"BANK",
			"BK",
			"信金",
			"信用金庫",
			"信組",
			"信用組合",
			"農協",
			"労金",
		},
		DateHeaders:        []string{"日付", "取引日", "年月日", "date"},
		AmountHeaders:      []string{"取引金額", "金額", "出金", "amount"},
		DescriptionHeaders: []string{"摘要", "内容", "備考", "description", "memo"},
		EraOffset:          2018,
	}
}

// LoadRules reads a YAML rules file, filling unset fields from the
// defaults.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}

	if err := rules.Validate(); err != nil {
		return nil, err
	}

	return rules, nil
}

// Validate checks the rules for values extraction cannot work without.
func (r *Rules) Validate() error {
	if r.EraOffset <= 0 {
		return fmt.Errorf("era offset must be positive, got %d", r.EraOffset)
	}

	if len(r.DateHeaders) == 0 {
		return fmt.Errorf("date header keywords cannot be empty")
	}
	if len(r.AmountHeaders) == 0 {
		return fmt.Errorf("amount header keywords cannot be empty")
	}
	if len(r.DescriptionHeaders) == 0 {
		return fmt.Errorf("description header keywords cannot be empty")
	}

	return nil
}
