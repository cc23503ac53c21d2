package screening

import (
	"strings"
	"unicode/utf8"

	"github.com/banking/sanctions-screening/internal/domain"
)

const minTermLength = 3

// ExtractSearchTerms lists the distinct names to search for a profile: the
// full name forms first, then aliases, then "last, first" and the single
// name parts. Terms shorter than three characters are dropped.
func ExtractSearchTerms(p domain.ClientProfile, includeAliases bool) []string {
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)
	hasBoth := first != "" && last != ""

	var candidates []string
	if hasBoth {
		candidates = append(candidates, first+" "+last)
	}
	candidates = append(candidates, p.FullName, p.CompanyName, p.BusinessName)

	if includeAliases {
		for _, a := range p.Aliases {
			candidates = append(candidates, a.Name, a.FullName)
		}
	}

	if hasBoth {
		candidates = append(candidates, last+", "+first, first, last)
	}

	seen := make(map[string]struct{}, len(candidates))
	terms := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if utf8.RuneCountInString(c) < minTermLength {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		terms = append(terms, c)
	}
	return terms
}
