// Package matching maps free-text receipt names onto the store's menu.
package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	hiraganaFirst = 'ぁ'
	hiraganaLast  = 'ゖ'
	kanaOffset    = 0x60
)

var lower = cases.Lower(language.Und)

// isLongVowelMark matches the marks in their source form. NFKC turns the
// fullwidth tilde and hyphen into ASCII, so they are dropped before folding.
func isLongVowelMark(r rune) bool {
	switch r {
	case 'ー', 'ｰ', '〜', '～', '－':
		return true
	}
	return false
}

// Normalize folds s into the form used for comparison: NFKC folded (which
// also composes halfwidth voiced kana), lower-cased, without whitespace or
// long vowel marks, hiragana as katakana.
func Normalize(s string) string {
	folded := lower.String(norm.NFKC.String(strings.Map(func(r rune) rune {
		if isLongVowelMark(r) {
			return -1
		}
		return r
	}, s)))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			continue
		case r >= hiraganaFirst && r <= hiraganaLast:
			b.WriteRune(r + kanaOffset)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
