package similarity

import (
	"fmt"
	"strings"
)

// Algorithm names a phonetic encoding
type Algorithm string

const (
	AlgorithmSoundex         Algorithm = "soundex"
	AlgorithmMetaphone       Algorithm = "metaphone"
	AlgorithmDoubleMetaphone Algorithm = "double_metaphone"
)

var soundexCodes = [26]byte{
	// A    B    C    D    E    F    G    H    I    J    K    L    M
	'0', '1', '2', '3', '0', '1', '2', '0', '0', '2', '2', '4', '5',
	// N    O    P    Q    R    S    T    U    V    W    X    Y    Z
	'5', '0', '1', '2', '6', '2', '3', '0', '1', '0', '2', '0', '2',
}

// Soundex returns the 4 character Soundex code of s. Vowels and H, W, Y reset
// the previous code, so a consonant repeated across a vowel is coded twice.
// Input without letters yields "0000".
func Soundex(s string) string {
	letters := lettersOnly(s)
	if letters == "" {
		return "0000"
	}

	code := []byte{letters[0]}
	prev := soundexCodes[letters[0]-'A']
	for i := 1; i < len(letters) && len(code) < 4; i++ {
		cur := soundexCodes[letters[i]-'A']
		if cur == '0' {
			prev = '0'
			continue
		}
		if cur != prev {
			code = append(code, cur)
		}
		prev = cur
	}

	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

// Metaphone returns the original Metaphone key of s
func Metaphone(s string) string {
	w := lettersOnly(s)
	if w == "" {
		return ""
	}
	n := len(w)
	at := func(pos int) byte {
		if pos < 0 || pos >= n {
			return 0
		}
		return w[pos]
	}
	isVowel := func(c byte) bool {
		return c != 0 && strings.IndexByte("AEIOU", c) >= 0
	}

	var key strings.Builder
	current := 0

	switch {
	case strings.HasPrefix(w, "KN"), strings.HasPrefix(w, "GN"), strings.HasPrefix(w, "PN"),
		strings.HasPrefix(w, "AE"), strings.HasPrefix(w, "WR"):
		current = 1
	}
	if w[0] == 'X' {
		key.WriteByte('S')
		current = 1
	}

	for ; current < n; current++ {
		c := w[current]
		next := at(current + 1)

		switch c {
		case 'A', 'E', 'I', 'O', 'U':
			if current == 0 {
				key.WriteByte(c)
			}
		case 'B':
			key.WriteByte('B')
			if next == 'B' {
				current++
			}
		case 'C':
			switch {
			case next == 'H':
				key.WriteByte('X')
				current++
			case current > 0 && at(current-1) == 'S' && (next == 'I' || next == 'E'):
				// silent, as in "science"
			case next == 'I' || next == 'E':
				key.WriteByte('S')
			default:
				key.WriteByte('K')
			}
		case 'D':
			if next == 'G' && (at(current+2) == 'E' || at(current+2) == 'I') {
				key.WriteByte('J')
				current += 2
			} else {
				key.WriteByte('T')
			}
		case 'F':
			key.WriteByte('F')
			if next == 'F' {
				current++
			}
		case 'G':
			switch {
			case next == 'H':
				if current == 0 || isVowel(at(current-1)) {
					key.WriteByte('G')
				}
				current++
			case next == 'N':
				if current == 0 || (current == 1 && isVowel(w[0])) {
					key.WriteByte('N')
				} else {
					key.WriteString("KN")
				}
				current++
			case next == 'I' || next == 'E' || next == 'Y':
				key.WriteByte('J')
			default:
				key.WriteByte('K')
			}
		case 'H':
			if (current == 0 || isVowel(at(current-1))) && isVowel(next) {
				key.WriteByte('H')
			}
		case 'J':
			key.WriteByte('J')
		case 'K':
			if current == 0 || at(current-1) != 'C' {
				key.WriteByte('K')
			}
		case 'L', 'M', 'N', 'R':
			key.WriteByte(c)
			if next == c {
				current++
			}
		case 'P':
			if next == 'H' {
				key.WriteByte('F')
				current++
			} else {
				key.WriteByte('P')
			}
		case 'Q':
			key.WriteByte('K')
		case 'S':
			switch {
			case next == 'H':
				key.WriteByte('X')
				current++
			case next == 'I' && (at(current+2) == 'O' || at(current+2) == 'A'):
				key.WriteByte('X')
				current += 2
			default:
				key.WriteByte('S')
			}
		case 'T':
			switch {
			case next == 'H':
				key.WriteByte('0')
				current++
			case next == 'I' && (at(current+2) == 'O' || at(current+2) == 'A'):
				key.WriteByte('X')
				current += 2
			default:
				key.WriteByte('T')
			}
		case 'V':
			key.WriteByte('F')
		case 'W':
			if isVowel(next) {
				key.WriteByte('W')
			}
		case 'X':
			key.WriteString("KS")
		case 'Y':
			if isVowel(next) {
				key.WriteByte('Y')
			}
		case 'Z':
			key.WriteByte('S')
		}
	}

	return key.String()
}

// Codes is a Double Metaphone primary/secondary pair
type Codes struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// PhoneticCodes bundles every encoding of one string
type PhoneticCodes struct {
	Soundex         string `json:"soundex"`
	Metaphone       string `json:"metaphone"`
	DoubleMetaphone Codes  `json:"double_metaphone"`
}

// AllPhoneticCodes encodes s with every supported algorithm
func AllPhoneticCodes(s string) PhoneticCodes {
	return PhoneticCodes{
		Soundex:         Soundex(s),
		Metaphone:       Metaphone(s),
		DoubleMetaphone: DoubleMetaphone(s),
	}
}

// PhoneticResult is the outcome of comparing two strings phonetically
type PhoneticResult struct {
	Match     bool      `json:"match"`
	Algorithm Algorithm `json:"algorithm"`
	Codes1    any       `json:"codes1,omitempty"`
	Codes2    any       `json:"codes2,omitempty"`
}

// PhoneticMatch compares a and b with the given algorithm. Double Metaphone
// matches when any primary or secondary code of one equals any code of the other.
func PhoneticMatch(a, b string, algorithm Algorithm) (PhoneticResult, error) {
	res := PhoneticResult{Algorithm: algorithm}
	if a == "" || b == "" {
		return res, nil
	}

	switch Algorithm(strings.ToLower(string(algorithm))) {
	case AlgorithmSoundex:
		c1, c2 := Soundex(a), Soundex(b)
		res.Codes1, res.Codes2, res.Match = c1, c2, c1 == c2
	case AlgorithmMetaphone:
		c1, c2 := Metaphone(a), Metaphone(b)
		res.Codes1, res.Codes2, res.Match = c1, c2, c1 == c2
	case AlgorithmDoubleMetaphone:
		c1, c2 := DoubleMetaphone(a), DoubleMetaphone(b)
		res.Codes1, res.Codes2 = c1, c2
		res.Match = c1.Primary == c2.Primary ||
			c1.Primary == c2.Secondary ||
			c1.Secondary == c2.Primary ||
			c1.Secondary == c2.Secondary
	default:
		return res, fmt.Errorf("unknown phonetic algorithm: %s", algorithm)
	}

	return res, nil
}
