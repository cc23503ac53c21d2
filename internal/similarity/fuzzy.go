// Package similarity implements the edit-distance and phonetic primitives used
// to compare names. Every function is pure and safe for concurrent use.
//
// Strings are compared rune by rune, so a name containing accented or CJK
// characters has the length a reader would expect.
package similarity

import (
	"github.com/agnivade/levenshtein"
)

// DefaultPrefixScale is the Winkler prefix weight
const DefaultPrefixScale = 0.1

const maxWinklerPrefix = 4

// LevenshteinDistance is the classic insert/delete/substitute edit distance.
// An empty input yields the length of the other string.
func LevenshteinDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// SimilarityRatio is (maxLen - distance) / maxLen.
// Two empty strings are considered identical and score 1; exactly one empty
// string scores 0.
func SimilarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := runeLen(a), runeLen(b)
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := max(la, lb)
	return float64(maxLen-LevenshteinDistance(a, b)) / float64(maxLen)
}

// Jaro computes the Jaro similarity with a match window of floor(max/2)-1.
// It returns 0 when the window is negative or no characters match, and 1 for
// identical strings (including two empty strings).
func Jaro(a, b string) float64 {
	if a == b {
		return 1
	}
	r1, r2 := []rune(a), []rune(b)
	len1, len2 := len(r1), len(r2)
	if len1 == 0 || len2 == 0 {
		return 0
	}

	window := max(len1, len2)/2 - 1
	if window < 0 {
		return 0
	}

	matched1 := make([]bool, len1)
	matched2 := make([]bool, len2)
	matches := 0

	for i := 0; i < len1; i++ {
		start := max(0, i-window)
		end := min(i+window+1, len2)
		for j := start; j < end; j++ {
			if matched2[j] || r1[i] != r2[j] {
				continue
			}
			matched1[i] = true
			matched2[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len1; i++ {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if r1[i] != r2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len1) + m/float64(len2) + (m-float64(transpositions)/2)/m) / 3
}

// JaroWinkler boosts the Jaro score by the shared prefix (up to 4 runes).
// Scores below 0.7 are returned unchanged.
func JaroWinkler(a, b string, prefixScale float64) float64 {
	j := Jaro(a, b)
	if j < 0.7 {
		return j
	}

	r1, r2 := []rune(a), []rune(b)
	limit := min(maxWinklerPrefix, len(r1), len(r2))
	prefix := 0
	for i := 0; i < limit; i++ {
		if r1[i] != r2[i] {
			break
		}
		prefix++
	}

	return j + float64(prefix)*prefixScale*(1-j)
}

// JaroWinklerDefault is JaroWinkler with the standard 0.1 prefix scale
func JaroWinklerDefault(a, b string) float64 {
	return JaroWinkler(a, b, DefaultPrefixScale)
}

// DamerauLevenshteinDistance is the edit distance that also counts an adjacent
// transposition as a single operation. It keeps, per character, the last row
// where that character was seen in a.
func DamerauLevenshteinDistance(a, b string) int {
	r1, r2 := []rune(a), []rune(b)
	len1, len2 := len(r1), len(r2)
	if len1 == 0 || len2 == 0 {
		return max(len1, len2)
	}

	maxDist := len1 + len2
	// h[i+1][j+1] holds the distance between r1[:i] and r2[:j]; row and
	// column 0 are the sentinel border.
	h := make([][]int, len1+2)
	for i := range h {
		h[i] = make([]int, len2+2)
	}
	h[0][0] = maxDist
	for i := 0; i <= len1; i++ {
		h[i+1][0] = maxDist
		h[i+1][1] = i
	}
	for j := 0; j <= len2; j++ {
		h[0][j+1] = maxDist
		h[1][j+1] = j
	}

	lastRow := make(map[rune]int)
	for i := 1; i <= len1; i++ {
		lastMatchCol := 0
		for j := 1; j <= len2; j++ {
			i1 := lastRow[r2[j-1]]
			j1 := lastMatchCol
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
				lastMatchCol = j
			}
			h[i+1][j+1] = min(
				h[i][j+1]+1,                   // deletion
				h[i+1][j]+1,                   // insertion
				h[i][j]+cost,                  // substitution
				h[i1][j1]+(i-i1-1)+1+(j-j1-1), // transposition
			)
		}
		lastRow[r1[i-1]] = i
	}

	return h[len1+1][len2+1]
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
