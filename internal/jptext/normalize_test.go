package jptext

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Half-width katakana with voicing mark",
			input:    "ｶﾞ",
			expected: "ガ",
		},
		{
			name:     "Half-width company name",
			input:    "ﾊﾟﾅｿﾆｯｸ",
			expected: "パナソニック",
		},
		{
			name:     "Standalone full-width dakuten",
			input:    "カ゛",
			expected: "ガ",
		},
		{
			name:     "Standalone full-width handakuten",
			input:    "ハ゜",
			expected: "パ",
		},
		{
			name:     "Mark detached by ASCII space",
			input:    "カ ゛",
			expected: "ガ",
		},
		{
			name:     "Mark detached by ideographic space",
			input:    "カ　ﾞ",
			expected: "ガ",
		},
		{
			name:     "Combining mark after space",
			input:    "ハ ゚",
			expected: "パ",
		},
		{
			name:     "Full-width ASCII folded",
			input:    "ＡＢＣ１２３",
			expected: "ABC123",
		},
		{
			name:     "Hyphen folded to long-vowel mark",
			input:    "ﾃﾞ-ﾀ",
			expected: "データ",
		},
		{
			name:     "Full-width space collapsed",
			input:    "Ａ　Ｂ",
			expected: "A B",
		},
		{
			name:     "Whitespace runs collapsed and trimmed",
			input:    "  カ)カガヤ 　 ",
			expected: "カ)カガヤ",
		},
		{
			name:     "Voicing mark on non-kana base stays decomposed",
			input:    "ＴＯＲＥＴ ﾞ",
			expected: "TORET゙",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Plain ASCII unchanged",
			input:    "hello",
			expected: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"ｶﾞ",
		"カ゛",
		"カ ﾞ",
		"ﾐﾂﾋﾞｼ UFJ ｷﾞﾝｺｳ",
		"ヤサカ (依頼人 ABC Corp)",
		"ＴＯＲＥＴ ﾞ",
		"データ-センター",
		"  spaced　out  ",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalize_EncodingInvariance(t *testing.T) {
	// Visually identical strings in different encodings must normalize to
	// the same canonical form.
	pairs := []struct {
		name string
		a    string
		b    string
	}{
		{"Half-width vs full-width katakana", "ｶｶﾞﾔ", "カガヤ"},
		{"Standalone vs combining dakuten", "カ゛", "ガ"},
		{"Precomposed vs base plus combining", "ガ", "ガ"},
		{"Detached vs attached mark", "カ ゛", "ガ"},
		{"Hyphen vs long-vowel mark", "デ-タ", "データ"},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			na, nb := Normalize(tt.a), Normalize(tt.b)
			if na != nb {
				t.Errorf("Normalize(%q) = %q but Normalize(%q) = %q, want equal", tt.a, na, tt.b, nb)
			}
		})
	}
}
