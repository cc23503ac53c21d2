package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, folds diacritics (José -> jose), drops punctuation
// and symbols, and collapses runs of whitespace into single spaces. Letters
// and digits of every script survive, so Иван stays иван.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	folded := foldDiacritics(s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case isWordRune(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// foldDiacritics strips combining marks after canonical decomposition
func foldDiacritics(s string) string {
	// transform.Chain is stateful, so build one per call
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		return s
	}
	return folded
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '_'
}

// lettersOnly uppercases s and keeps A-Z, the input alphabet of the phonetic codes
func lettersOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(foldDiacritics(s)) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
