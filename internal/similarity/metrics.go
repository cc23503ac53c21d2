package similarity

import (
	"sort"
)

// Composite weights
const (
	weightLevenshtein = 0.3
	weightJaro        = 0.2
	weightJaroWinkler = 0.3
	weightDamerau     = 0.2
)

// Name match reasons
const (
	ReasonExactMatch          = "exact_match"
	ReasonJaroWinklerHigh     = "jaro_winkler_high"
	ReasonStrictModeThreshold = "strict_mode_threshold"
	ReasonCompositeScore      = "composite_score"
)

const (
	DefaultMatchThreshold  = 0.6
	DefaultMaxMatches      = 10
	DefaultNameThreshold   = 0.8
	jaroWinklerMatchCutoff = 0.9
	strictModeCutoff       = 0.9
)

// Metrics holds every similarity measure between two strings
type Metrics struct {
	Exact                   bool    `json:"exact"`
	Levenshtein             int     `json:"levenshtein"`
	LevenshteinRatio        float64 `json:"levenshtein_ratio"`
	Jaro                    float64 `json:"jaro"`
	JaroWinkler             float64 `json:"jaro_winkler"`
	DamerauLevenshtein      int     `json:"damerau_levenshtein"`
	DamerauLevenshteinRatio float64 `json:"damerau_levenshtein_ratio"`
	Composite               float64 `json:"composite"`
}

// Options controls Calculate
type Options struct {
	Normalize bool
}

// Calculate computes all metrics between a and b, normalizing both first when
// opts.Normalize is set. Identical inputs short-circuit to ratios of 1.
func Calculate(a, b string, opts Options) Metrics {
	if opts.Normalize {
		a, b = Normalize(a), Normalize(b)
	}

	if a == b {
		return Metrics{
			Exact:                   true,
			LevenshteinRatio:        1,
			Jaro:                    1,
			JaroWinkler:             1,
			DamerauLevenshteinRatio: 1,
			Composite:               1,
		}
	}

	m := Metrics{
		Levenshtein:        LevenshteinDistance(a, b),
		LevenshteinRatio:   SimilarityRatio(a, b),
		Jaro:               Jaro(a, b),
		JaroWinkler:        JaroWinklerDefault(a, b),
		DamerauLevenshtein: DamerauLevenshteinDistance(a, b),
	}
	if maxLen := max(runeLen(a), runeLen(b)); maxLen > 0 {
		m.DamerauLevenshteinRatio = clamp01(float64(maxLen-m.DamerauLevenshtein) / float64(maxLen))
	}
	m.Composite = weightLevenshtein*m.LevenshteinRatio +
		weightJaro*m.Jaro +
		weightJaroWinkler*m.JaroWinkler +
		weightDamerau*m.DamerauLevenshteinRatio

	return m
}

// Composite is shorthand for the normalized composite score of a and b
func Composite(a, b string) float64 {
	return Calculate(a, b, Options{Normalize: true}).Composite
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// MatchOptions controls FindBestMatches. Zero values fall back to the defaults.
type MatchOptions struct {
	Threshold  float64
	MaxResults int
	// SkipNormalize compares the raw strings
	SkipNormalize bool
}

// Match is one candidate scored against a target
type Match struct {
	Candidate string  `json:"candidate"`
	Target    string  `json:"target"`
	Metrics   Metrics `json:"metrics"`
	Score     float64 `json:"score"`
}

// FindBestMatches scores every candidate against target and returns those at
// or above the threshold, best first, capped at MaxResults
func FindBestMatches(target string, candidates []string, opts MatchOptions) []Match {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = DefaultMaxMatches
	}

	var matches []Match
	for _, c := range candidates {
		m := Calculate(target, c, Options{Normalize: !opts.SkipNormalize})
		if m.Composite < threshold {
			continue
		}
		matches = append(matches, Match{Candidate: c, Target: target, Metrics: m, Score: m.Composite})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// NameMatchOptions controls IsNameMatch
type NameMatchOptions struct {
	Threshold  float64
	StrictMode bool
}

// NameMatch is the verdict of IsNameMatch
type NameMatch struct {
	IsMatch    bool    `json:"is_match"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Metrics    Metrics `json:"metrics"`
	Threshold  float64 `json:"threshold"`
}

// IsNameMatch decides whether two names refer to the same person.
//
// An exact normalized match has confidence 1. A Jaro-Winkler score of at least
// 0.9 is a match on its own, with confidence max(composite, jw). Otherwise the
// composite score must reach the threshold; strict mode also rejects anything
// under 0.9.
func IsNameMatch(a, b string, opts NameMatchOptions) NameMatch {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultNameThreshold
	}

	a, b = Normalize(a), Normalize(b)
	m := Calculate(a, b, Options{})
	res := NameMatch{Metrics: m, Threshold: threshold, Confidence: m.Composite}

	switch {
	case a == "" || b == "":
		// nothing left to compare once punctuation is gone
		res.Metrics.Exact = false
		res.Confidence = 0
		res.Reason = ReasonCompositeScore
	case m.Exact:
		res.IsMatch = true
		res.Confidence = 1
		res.Reason = ReasonExactMatch
	case m.JaroWinkler >= jaroWinklerMatchCutoff:
		res.IsMatch = true
		res.Confidence = max(m.Composite, m.JaroWinkler)
		res.Reason = ReasonJaroWinklerHigh
	case opts.StrictMode && m.Composite < strictModeCutoff:
		res.Reason = ReasonStrictModeThreshold
	default:
		res.IsMatch = m.Composite >= threshold
		res.Reason = ReasonCompositeScore
	}

	return res
}
