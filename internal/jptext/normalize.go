// Package jptext canonicalizes Japanese vendor text so that string equality
// and substring matching are encoding-invariant.
//
// Bank export files mix half-width katakana, full-width katakana, and
// independently-encoded voicing marks that render like a single glyph but
// compare unequal as code points. Normalize folds all of these variants into
// one canonical form.
package jptext

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Voicing marks in every encoding a bank file can carry them:
// combining (U+3099/U+309A), full-width standalone (U+309B/U+309C),
// and half-width standalone (U+FF9E/U+FF9F).
const (
	combiningDakuten     = '゙'
	combiningHandakuten  = '゚'
	standaloneDakuten    = '゛'
	standaloneHandakuten = '゜'
	halfwidthDakuten     = 'ﾞ'
	halfwidthHandakuten  = 'ﾟ'
)

// longVowelMark is the katakana prolonged sound mark every dash-like
// character is folded into.
const longVowelMark = 'ー'

// Normalize canonicalizes Japanese text. It is total (never fails) and
// idempotent: Normalize(Normalize(s)) == Normalize(s).
//
// The steps, in order:
//  1. Strip whitespace separating a voicing mark from its base character
//     (an OCR artifact; left in place it blocks composition later).
//  2. Remap standalone voicing marks to their combining counterparts.
//     This must happen before NFKC: NFKC expands a standalone mark into
//     space + combining mark, which re-detaches it from its base.
//  3. NFKC, folding half-width katakana, full-width ASCII, and ideographic
//     spaces into their canonical forms and composing base + combining
//     mark pairs into precomposed kana.
//  4. NFC, composing any pair NFKC introduced but did not fuse.
//  5. Fold dash-like characters into the long-vowel mark.
//  6. Collapse whitespace runs into single ASCII spaces and trim.
func Normalize(s string) string {
	s = stripDetachedMarkSpace(s)
	s = remapStandaloneMarks(s)
	s = norm.NFKC.String(s)
	s = norm.NFC.String(s)
	s = foldDashes(s)
	return collapseSpaces(s)
}

// isVoicingMark reports whether r is a dakuten or handakuten in any of its
// encodings.
func isVoicingMark(r rune) bool {
	switch r {
	case combiningDakuten, combiningHandakuten,
		standaloneDakuten, standaloneHandakuten,
		halfwidthDakuten, halfwidthHandakuten:
		return true
	}
	return false
}

// isSpaceChar reports whether r is a whitespace character that can appear
// between a base character and its voicing mark.
func isSpaceChar(r rune) bool {
	return r == ' ' || r == '　' || r == '\t'
}

// stripDetachedMarkSpace removes whitespace runs that sit directly before a
// voicing mark, re-attaching the mark to its base character.
func stripDetachedMarkSpace(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isSpaceChar(r) {
			j := i
			for j < len(runes) && isSpaceChar(runes[j]) {
				j++
			}
			if j < len(runes) && isVoicingMark(runes[j]) {
				i = j - 1
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// remapStandaloneMarks replaces standalone voicing marks with their
// combining counterparts so normalization can fuse them with the
// preceding base character.
func remapStandaloneMarks(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case standaloneDakuten, halfwidthDakuten:
			return combiningDakuten
		case standaloneHandakuten, halfwidthHandakuten:
			return combiningHandakuten
		}
		return r
	}, s)
}

// foldDashes canonicalizes hyphen, minus, and dash glyphs into the
// long-vowel mark. Vendor names written in katakana routinely have the
// prolonged sound mark mis-encoded as one of these.
func foldDashes(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', // hyphen-minus
			'‐', // hyphen
			'‑', // non-breaking hyphen
			'‒', // figure dash
			'–', // en dash
			'—', // em dash
			'―', // horizontal bar
			'−': // minus sign
			return longVowelMark
		}
		return r
	}, s)
}

// collapseSpaces converts remaining whitespace to ASCII spaces, collapses
// runs, and trims the ends.
func collapseSpaces(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '　' || r == '\t' || r == '\r' || r == '\n'
	})
	return strings.Join(fields, " ")
}
