// Package transliteration maps Chinese names onto the Latin spellings they are
// likely to appear under in watchlists, and matches romanized names against them.
package transliteration

import (
	"strings"
	"unicode/utf8"
)

const (
	cjkFirst = '\u4e00'
	cjkLast  = '\u9fff'
)

func isChinese(r rune) bool {
	return r >= cjkFirst && r <= cjkLast
}

// ContainsChinese reports whether s has at least one CJK unified ideograph
func ContainsChinese(s string) bool {
	return strings.IndexFunc(s, isChinese) >= 0
}

// ExtractChinese returns only the CJK unified ideographs of s
func ExtractChinese(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isChinese(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NameSplit is a Chinese name segmented into surname and given name
type NameSplit struct {
	Surname           string `json:"surname"`
	GivenName         string `json:"given_name"`
	IsValid           bool   `json:"is_valid"`
	IsCompoundSurname bool   `json:"is_compound_surname"`
}

// SplitName segments name after dropping every non-CJK character. Compound
// surnames are tried first; otherwise the first character is the surname,
// whether or not it is a known one. Fewer than two characters is invalid.
func SplitName(name string) NameSplit {
	clean := ExtractChinese(name)
	if utf8.RuneCountInString(clean) < 2 {
		return NameSplit{GivenName: clean}
	}

	for _, compound := range compoundSurnames {
		if strings.HasPrefix(clean, compound) {
			return NameSplit{
				Surname:           compound,
				GivenName:         strings.TrimPrefix(clean, compound),
				IsValid:           true,
				IsCompoundSurname: true,
			}
		}
	}

	_, size := utf8.DecodeRuneInString(clean)
	return NameSplit{
		Surname:   clean[:size],
		GivenName: clean[size:],
		IsValid:   true,
	}
}

// Romanizations returns the known spellings of a single character, looked up
// in the surname table when isSurname is set
func Romanizations(char string, isSurname bool) []string {
	r, size := utf8.DecodeRuneInString(char)
	if size == 0 || size != len(char) || !isChinese(r) {
		return nil
	}
	if isSurname {
		return surnameRomanizations[r]
	}
	return givenNameRomanizations[r]
}

// GenerateRomanizations lists every Latin rendering of a Chinese name: each
// surname spelling combined with each combination of given-name spellings, in
// six orderings. Given-name characters without a table entry are kept as is.
// A surname without a table entry, compound surnames included, yields nothing.
func GenerateRomanizations(name string) []string {
	split := SplitName(name)
	if !split.IsValid {
		return nil
	}

	surnames := Romanizations(split.Surname, true)
	if len(surnames) == 0 {
		return nil
	}

	var choices [][]string
	for _, r := range split.GivenName {
		char := string(r)
		if roms := Romanizations(char, false); len(roms) > 0 {
			choices = append(choices, roms)
		} else {
			choices = append(choices, []string{char})
		}
	}
	combos := cartesianProduct(choices)

	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, surname := range surnames {
		for _, combo := range combos {
			joined := strings.Join(combo, "")
			spaced := strings.Join(combo, " ")
			add(surname + " " + joined)
			add(surname + " " + spaced)
			add(surname + ", " + joined)
			add(surname + ", " + spaced)
			add(joined + " " + surname)
			add(spaced + " " + surname)
		}
	}

	return out
}

func cartesianProduct(choices [][]string) [][]string {
	combos := [][]string{{}}
	for _, options := range choices {
		next := make([][]string, 0, len(combos)*len(options))
		for _, prefix := range combos {
			for _, opt := range options {
				combo := make([]string, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, opt))
			}
		}
		combos = next
	}
	return combos
}
