package transliteration

import (
	"strings"

	"github.com/banking/sanctions-screening/internal/similarity"
)

// Match reasons
const (
	ReasonEmptyInput      = "empty_input"
	ReasonNotChinese      = "not_chinese"
	ReasonNoRomanizations = "no_romanizations"
	ReasonExactMatch      = "exact_match"
	ReasonFuzzyMatch      = "fuzzy_match"
	ReasonBelowThreshold  = "below_threshold"
)

const DefaultThreshold = 0.8

// MatchOptions controls MatchChineseName
type MatchOptions struct {
	Threshold float64
	// DisableFuzzy limits matching to exact romanizations
	DisableFuzzy bool
}

// MatchResult explains how a romanized name compares to a Chinese name
type MatchResult struct {
	IsMatch                  bool                `json:"is_match"`
	Confidence               float64             `json:"confidence"`
	Reason                   string              `json:"reason"`
	MatchedRomanization      string              `json:"matched_romanization,omitempty"`
	AllPossibleRomanizations []string            `json:"all_possible_romanizations,omitempty"`
	Metrics                  *similarity.Metrics `json:"metrics,omitempty"`
}

// Matcher compares romanized candidates against one Chinese name. The
// romanizations are generated once, so a Matcher is the cheap way to test one
// name against many candidates. It is safe for concurrent use.
type Matcher struct {
	chineseName   string
	romanizations []string
	normalized    []string
}

// NewMatcher prepares the romanizations of chineseName
func NewMatcher(chineseName string) *Matcher {
	m := &Matcher{chineseName: chineseName}
	if !ContainsChinese(chineseName) {
		return m
	}
	m.romanizations = GenerateRomanizations(chineseName)
	m.normalized = make([]string, len(m.romanizations))
	for i, rom := range m.romanizations {
		m.normalized[i] = similarity.Normalize(rom)
	}
	return m
}

// Match checks whether candidate is a plausible romanization. An exact
// romanization scores 1; otherwise the best composite similarity over all
// romanizations is compared to the threshold.
func (m *Matcher) Match(candidate string, opts MatchOptions) MatchResult {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if candidate == "" || m.chineseName == "" {
		return MatchResult{Reason: ReasonEmptyInput}
	}
	if !ContainsChinese(m.chineseName) {
		return MatchResult{Reason: ReasonNotChinese}
	}
	if len(m.romanizations) == 0 {
		return MatchResult{Reason: ReasonNoRomanizations}
	}

	input := similarity.Normalize(candidate)
	for i, norm := range m.normalized {
		if norm == input {
			return MatchResult{
				IsMatch:                  true,
				Confidence:               1,
				Reason:                   ReasonExactMatch,
				MatchedRomanization:      m.romanizations[i],
				AllPossibleRomanizations: m.romanizations,
			}
		}
	}

	res := MatchResult{AllPossibleRomanizations: m.romanizations}
	if !opts.DisableFuzzy {
		for i, norm := range m.normalized {
			metrics := similarity.Calculate(input, norm, similarity.Options{})
			if metrics.Composite > res.Confidence {
				res.Confidence = metrics.Composite
				res.MatchedRomanization = m.romanizations[i]
				res.Metrics = &metrics
			}
		}
	}

	res.IsMatch = res.Confidence >= threshold
	if res.IsMatch {
		res.Reason = ReasonFuzzyMatch
	} else {
		res.Reason = ReasonBelowThreshold
	}
	return res
}

// MatchChineseName checks whether candidate is a plausible romanization of chineseName
func MatchChineseName(candidate, chineseName string, opts MatchOptions) MatchResult {
	return NewMatcher(chineseName).Match(candidate, opts)
}

// GenerateAliases expands the romanizations of a Chinese name with the
// spellings that turn up in lists: run together, without commas, as initials,
// and as one full part plus the other part's initial.
func GenerateAliases(chineseName string) []string {
	romanizations := GenerateRomanizations(chineseName)

	seen := make(map[string]struct{}, len(romanizations)*4)
	var aliases []string
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		aliases = append(aliases, s)
	}

	for _, rom := range romanizations {
		add(rom)
	}
	for _, rom := range romanizations {
		add(strings.Join(strings.Fields(rom), ""))
		add(strings.ReplaceAll(rom, ",", " "))

		parts := strings.FieldsFunc(rom, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(parts) < 2 {
			continue
		}
		var initials strings.Builder
		for _, p := range parts {
			initials.WriteString(firstChar(p))
		}
		add(initials.String())
		add(strings.ToLower(initials.String()))

		first, last := parts[0], parts[len(parts)-1]
		add(first + " " + firstChar(last))
		add(last + " " + firstChar(first))
	}

	return aliases
}

func firstChar(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// NormalizedName describes a name that may be written in Chinese
type NormalizedName struct {
	Original              string   `json:"original"`
	Normalized            string   `json:"normalized"`
	IsChinese             bool     `json:"is_chinese"`
	IsValid               bool     `json:"is_valid"`
	Surname               string   `json:"surname,omitempty"`
	GivenName             string   `json:"given_name,omitempty"`
	PossibleRomanizations []string `json:"possible_romanizations,omitempty"`
	Aliases               []string `json:"aliases,omitempty"`
}

// NormalizeName splits and romanizes a Chinese name. Any other name is taken
// to be romanized already and is only trimmed.
func NormalizeName(name string) NormalizedName {
	if name == "" {
		return NormalizedName{}
	}
	if !ContainsChinese(name) {
		return NormalizedName{Original: name, Normalized: strings.TrimSpace(name), IsValid: true}
	}

	chars := ExtractChinese(name)
	split := SplitName(chars)
	return NormalizedName{
		Original:              name,
		Normalized:            chars,
		IsChinese:             true,
		IsValid:               split.IsValid,
		Surname:               split.Surname,
		GivenName:             split.GivenName,
		PossibleRomanizations: GenerateRomanizations(chars),
		Aliases:               GenerateAliases(chars),
	}
}
