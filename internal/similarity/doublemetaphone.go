package similarity

import "strings"

const doubleMetaphoneLen = 4

// dmEncoder carries the scan state of one Double Metaphone encoding
type dmEncoder struct {
	w         string
	n         int
	primary   strings.Builder
	secondary strings.Builder
}

func (e *dmEncoder) at(pos int) byte {
	if pos < 0 || pos >= e.n {
		return 0
	}
	return e.w[pos]
}

func (e *dmEncoder) isVowel(pos int) bool {
	c := e.at(pos)
	return c != 0 && strings.IndexByte("AEIOUY", c) >= 0
}

// stringAt reports whether the substring of the given length starting at
// start equals one of the patterns
func (e *dmEncoder) stringAt(start, length int, patterns ...string) bool {
	if start < 0 || start >= e.n {
		return false
	}
	end := min(start+length, e.n)
	sub := e.w[start:end]
	for _, p := range patterns {
		if sub == p {
			return true
		}
	}
	return false
}

func (e *dmEncoder) add(primary, secondary string) {
	e.primary.WriteString(primary)
	e.secondary.WriteString(secondary)
}

func (e *dmEncoder) addBoth(code string) {
	e.add(code, code)
}

// skipDouble advances past c and, when the next letter repeats it, past that too
func (e *dmEncoder) skipDouble(current int, c byte) int {
	if e.at(current+1) == c {
		return current + 2
	}
	return current + 1
}

func (e *dmEncoder) germanic() bool {
	return e.stringAt(0, 4, "VAN ", "VON ") || e.stringAt(0, 3, "SCH")
}

// DoubleMetaphone returns the primary and secondary Double Metaphone codes of s,
// each truncated to 4 characters
func DoubleMetaphone(s string) Codes {
	w := lettersOnly(s)
	if w == "" {
		return Codes{}
	}
	e := &dmEncoder{w: w, n: len(w)}

	current := 0
	if e.stringAt(0, 2, "GN", "KN", "PN", "WR", "PS") {
		current = 1
	}
	if e.at(0) == 'X' {
		e.addBoth("S")
		current = 1
	}

	for current < e.n {
		switch e.at(current) {
		case 'A', 'E', 'I', 'O', 'U', 'Y':
			if current == 0 {
				e.addBoth("A")
			}
			current++
		case 'B':
			e.addBoth("P")
			current = e.skipDouble(current, 'B')
		case 'C':
			current = e.encodeC(current)
		case 'D':
			current = e.encodeD(current)
		case 'F':
			e.addBoth("F")
			current = e.skipDouble(current, 'F')
		case 'G':
			current = e.encodeG(current)
		case 'H':
			if (current == 0 || e.isVowel(current-1)) && e.isVowel(current+1) {
				e.addBoth("H")
				current += 2
			} else {
				current++
			}
		case 'J':
			current = e.encodeJ(current)
		case 'K':
			e.addBoth("K")
			current = e.skipDouble(current, 'K')
		case 'L':
			current = e.encodeL(current)
		case 'M':
			if (e.stringAt(current-1, 3, "UMB") && (current+1 == e.n-1 || e.stringAt(current+2, 2, "ER"))) ||
				e.at(current+1) == 'M' {
				current += 2
			} else {
				current++
			}
			e.addBoth("M")
		case 'N':
			e.addBoth("N")
			current = e.skipDouble(current, 'N')
		case 'P':
			if e.at(current+1) == 'H' {
				e.addBoth("F")
				current += 2
				break
			}
			e.addBoth("P")
			if e.stringAt(current+1, 1, "P", "B") {
				current += 2
			} else {
				current++
			}
		case 'Q':
			e.addBoth("K")
			current = e.skipDouble(current, 'Q')
		case 'R':
			if current == e.n-1 && !e.isVowel(0) && e.stringAt(current-2, 2, "ER") &&
				!e.stringAt(current-4, 2, "ME", "MA") {
				e.add("", "R")
			} else {
				e.addBoth("R")
			}
			current = e.skipDouble(current, 'R')
		case 'S':
			current = e.encodeS(current)
		case 'T':
			current = e.encodeT(current)
		case 'V':
			e.addBoth("F")
			current = e.skipDouble(current, 'V')
		case 'W':
			current = e.encodeW(current)
		case 'X':
			if !(current == e.n-1 &&
				(e.stringAt(current-3, 3, "IAU", "EAU") || e.stringAt(current-2, 2, "AU", "OU"))) {
				e.addBoth("KS")
			}
			if e.stringAt(current+1, 1, "C", "X") {
				current += 2
			} else {
				current++
			}
		case 'Z':
			current = e.encodeZ(current)
		default:
			current++
		}
	}

	return Codes{
		Primary:   truncate(e.primary.String(), doubleMetaphoneLen),
		Secondary: truncate(e.secondary.String(), doubleMetaphoneLen),
	}
}

func (e *dmEncoder) encodeC(current int) int {
	// Germanic "ACH" as in "Bacher"
	if current > 1 && !e.isVowel(current-2) && e.stringAt(current-1, 3, "ACH") &&
		e.at(current+2) != 'I' &&
		(e.at(current+2) != 'E' || e.stringAt(current-2, 6, "BACHER", "MACHER")) {
		e.addBoth("K")
		return current + 2
	}

	if current == 0 && e.stringAt(current, 6, "CAESAR") {
		e.addBoth("S")
		return current + 2
	}

	if e.stringAt(current, 2, "CH") {
		if current > 0 && e.stringAt(current, 4, "CHAE") {
			e.add("K", "X")
			return current + 2
		}
		// Greek roots: "chorus", "character"
		if current == 0 &&
			(e.stringAt(current+1, 5, "HARAC", "HARIS") || e.stringAt(current+1, 3, "HOR", "HYM", "HIA", "HEM")) &&
			!e.stringAt(0, 5, "CHORE") {
			e.addBoth("K")
			return current + 2
		}
		if e.germanic() ||
			e.stringAt(current-2, 6, "ORCHES", "ARCHIT", "ORCHID") ||
			e.stringAt(current+2, 1, "T", "S") ||
			((e.stringAt(current-1, 1, "A", "O", "U", "E") || current == 0) &&
				e.stringAt(current+2, 1, "L", "R", "N", "M", "B", "H", "F", "V", "W", " ")) {
			e.addBoth("K")
		} else if current > 0 {
			if e.stringAt(0, 2, "MC") {
				e.addBoth("K")
			} else {
				e.add("X", "K")
			}
		} else {
			e.addBoth("X")
		}
		return current + 2
	}

	if e.stringAt(current, 2, "CZ") && !e.stringAt(current-2, 4, "WICZ") {
		e.add("S", "X")
		return current + 2
	}

	if e.stringAt(current+1, 3, "CIA") {
		e.addBoth("X")
		return current + 3
	}

	if e.stringAt(current, 2, "CC") && !(current == 1 && e.at(0) == 'M') {
		if e.stringAt(current+2, 1, "I", "E", "H") && !e.stringAt(current+2, 2, "HU") {
			if (current == 1 && e.at(current-1) == 'A') || e.stringAt(current-1, 5, "UCCEE", "UCCES") {
				e.addBoth("KS")
			} else {
				e.addBoth("X")
			}
			return current + 3
		}
		e.addBoth("K")
		return current + 2
	}

	if e.stringAt(current, 2, "CK", "CG", "CQ") {
		e.addBoth("K")
		return current + 2
	}

	if e.stringAt(current, 2, "CI", "CE", "CY") {
		if e.stringAt(current, 3, "CIO", "CIE", "CIA") {
			e.add("S", "X")
		} else {
			e.addBoth("S")
		}
		return current + 2
	}

	e.addBoth("K")
	switch {
	case e.stringAt(current+1, 2, " C", " Q", " G"):
		return current + 3
	case e.stringAt(current+1, 1, "C", "K", "Q") && !e.stringAt(current+1, 2, "CE", "CI"):
		return current + 2
	default:
		return current + 1
	}
}

func (e *dmEncoder) encodeD(current int) int {
	if e.stringAt(current, 2, "DG") {
		if e.stringAt(current+2, 1, "I", "E", "Y") {
			e.addBoth("J")
			return current + 3
		}
		e.addBoth("TK")
		return current + 2
	}
	if e.stringAt(current, 2, "DT", "DD") {
		e.addBoth("T")
		return current + 2
	}
	e.addBoth("T")
	return current + 1
}

func (e *dmEncoder) encodeG(current int) int {
	if e.at(current+1) == 'H' {
		if current > 0 && !e.isVowel(current-1) {
			e.addBoth("K")
			return current + 2
		}
		if current == 0 {
			if e.at(current+2) == 'I' {
				e.addBoth("J")
			} else {
				e.addBoth("K")
			}
			return current + 2
		}
		// silent in "Hugh", "bough", "broughton"
		if (current > 1 && e.stringAt(current-2, 1, "B", "H", "D")) ||
			(current > 2 && e.stringAt(current-3, 1, "B", "H", "D")) ||
			(current > 3 && e.stringAt(current-4, 1, "B", "H")) {
			return current + 2
		}
		if current > 2 && e.at(current-1) == 'U' && e.stringAt(current-3, 1, "C", "G", "L", "R", "T") {
			e.addBoth("F")
		} else if current > 0 && e.at(current-1) != 'I' {
			e.addBoth("K")
		}
		return current + 2
	}

	if e.at(current+1) == 'N' {
		if !e.stringAt(current+2, 2, "EY") && !e.isVowel(0) {
			e.add("N", "KN")
		} else {
			e.addBoth("KN")
		}
		return current + 2
	}

	if e.stringAt(current+1, 2, "LI") && !e.isVowel(0) {
		e.add("KL", "L")
		return current + 2
	}

	if current == 0 && (e.at(current+1) == 'Y' ||
		e.stringAt(current+1, 2, "ES", "EP", "EB", "EL", "EY", "IB", "IL", "IN", "IE", "EI", "ER")) {
		e.add("K", "J")
		return current + 2
	}

	if (e.stringAt(current+1, 2, "ER") || e.at(current+1) == 'Y') &&
		!e.stringAt(0, 6, "DANGER", "RANGER", "MANGER") &&
		!e.stringAt(current-1, 1, "E", "I") &&
		!e.stringAt(current-1, 3, "RGY", "OGY") {
		e.add("K", "J")
		return current + 2
	}

	if e.stringAt(current+1, 1, "E", "I", "Y") || e.stringAt(current-1, 4, "AGGI", "OGGI") {
		switch {
		case e.germanic() || e.stringAt(current+1, 2, "ET"):
			e.addBoth("K")
		case e.stringAt(current+1, 3, "IER"):
			e.addBoth("J")
		default:
			e.add("J", "K")
		}
		return current + 2
	}

	e.addBoth("K")
	return e.skipDouble(current, 'G')
}

func (e *dmEncoder) encodeJ(current int) int {
	if e.stringAt(current, 4, "JOSE") || e.stringAt(0, 4, "SAN ") {
		if (current == 0 && e.at(current+4) == ' ') || e.stringAt(0, 4, "SAN ") {
			e.addBoth("H")
		} else {
			e.add("J", "H")
		}
		return current + 1
	}

	switch {
	case current == 0:
		e.add("J", "A")
	case current == e.n-1:
		e.add("J", "")
	case !e.stringAt(current+1, 1, "L", "T", "K", "S", "N", "M", "B", "Z") &&
		!e.stringAt(current-1, 1, "S", "K", "L"):
		e.addBoth("J")
	}

	return e.skipDouble(current, 'J')
}

func (e *dmEncoder) encodeL(current int) int {
	if e.at(current+1) != 'L' {
		e.addBoth("L")
		return current + 1
	}
	// Spanish "-illo", "-illa", "-alle"
	if (current == e.n-3 && e.stringAt(current-1, 4, "ILLO", "ILLA", "ALLE")) ||
		((e.stringAt(e.n-2, 2, "AS", "OS") || e.stringAt(e.n-1, 1, "A", "O")) &&
			e.stringAt(current-1, 4, "ALLE")) {
		e.add("L", "")
		return current + 2
	}
	e.addBoth("L")
	return current + 2
}

func (e *dmEncoder) encodeS(current int) int {
	// silent in "island", "carlisle"
	if e.stringAt(current-1, 3, "ISL", "YSL") {
		return current + 1
	}

	if current == 0 && e.stringAt(current, 5, "SUGAR") {
		e.add("X", "S")
		return current + 1
	}

	if e.stringAt(current, 2, "SH") {
		if e.stringAt(current+1, 4, "HEIM", "HOEK", "HOLM", "HOLZ") {
			e.addBoth("S")
		} else {
			e.addBoth("X")
		}
		return current + 2
	}

	if e.stringAt(current, 3, "SIO", "SIA") || e.stringAt(current, 4, "SIAN") {
		if !e.isVowel(0) {
			e.addBoth("S")
		} else {
			e.add("S", "X")
		}
		return current + 3
	}

	if (current == 0 && e.stringAt(current+1, 1, "M", "N", "L", "W")) || e.stringAt(current+1, 1, "Z") {
		e.add("S", "X")
		if e.stringAt(current+1, 1, "Z") {
			return current + 2
		}
		return current + 1
	}

	if e.stringAt(current, 2, "SC") {
		if e.at(current+2) == 'H' {
			if e.stringAt(current+3, 2, "OO", "ER", "EN", "UY", "ED", "EM") {
				if e.stringAt(current+3, 2, "ER", "EN") {
					e.add("X", "SK")
				} else {
					e.addBoth("SK")
				}
				return current + 3
			}
			if current == 0 && !e.isVowel(3) && e.at(3) != 'W' {
				e.add("X", "S")
			} else {
				e.addBoth("X")
			}
			return current + 3
		}
		if e.stringAt(current+2, 1, "I", "E", "Y") {
			e.addBoth("S")
			return current + 3
		}
		e.addBoth("SK")
		return current + 3
	}

	// French silent final s: "Artois"
	if current == e.n-1 && e.stringAt(current-2, 2, "AI", "OI") {
		e.add("", "S")
	} else {
		e.addBoth("S")
	}
	if e.stringAt(current+1, 1, "S", "Z") {
		return current + 2
	}
	return current + 1
}

func (e *dmEncoder) encodeT(current int) int {
	if e.stringAt(current, 4, "TION") || e.stringAt(current, 3, "TIA", "TCH") {
		e.addBoth("X")
		return current + 3
	}

	if e.stringAt(current, 2, "TH") || e.stringAt(current, 3, "TTH") {
		if e.stringAt(current+2, 2, "OM", "AM") || e.germanic() {
			e.addBoth("T")
		} else {
			e.add("0", "T")
		}
		return current + 2
	}

	e.addBoth("T")
	if e.stringAt(current+1, 1, "T", "D") {
		return current + 2
	}
	return current + 1
}

func (e *dmEncoder) encodeW(current int) int {
	if e.stringAt(current, 2, "WR") {
		e.addBoth("R")
		return current + 2
	}

	if current == 0 && (e.isVowel(current+1) || e.stringAt(current, 2, "WH")) {
		if e.isVowel(current + 1) {
			e.add("A", "F")
		} else {
			e.addBoth("A")
		}
	}

	// Polish "-ewski" and friends
	if (current == e.n-1 && e.isVowel(current-1)) ||
		e.stringAt(current-1, 5, "EWSKI", "EWSKY", "OWSKI", "OWSKY") ||
		e.stringAt(0, 3, "SCH") {
		e.add("", "F")
		return current + 1
	}

	if e.stringAt(current, 4, "WICZ", "WITZ") {
		e.add("TS", "FX")
		return current + 4
	}

	return current + 1
}

func (e *dmEncoder) encodeZ(current int) int {
	if e.at(current+1) == 'H' {
		e.addBoth("J")
		return current + 2
	}
	if e.stringAt(current+1, 2, "ZO", "ZI", "ZA") ||
		(e.isVowel(0) && current > 0 && e.at(current+1) != 'Z') {
		e.add("S", "TS")
	} else {
		e.addBoth("S")
	}
	return e.skipDouble(current, 'Z')
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
