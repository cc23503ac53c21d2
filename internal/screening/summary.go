package screening

import (
	"math"
	"sort"

	"github.com/banking/sanctions-screening/internal/domain"
)

const (
	maxConfidenceWeight  = 0.7
	meanConfidenceWeight = 0.3
)

// Summarize aggregates weighted matches into a risk score and verdict:
// riskScore = round(100 * (0.7*max + 0.3*mean)) over the weighted confidences,
// and 0 without matches.
func Summarize(matches []domain.WeightedMatch) domain.Summary {
	summary := domain.Summary{
		TotalMatches:   len(matches),
		Sources:        []string{},
		Recommendation: domain.RecommendationClear,
	}
	if len(matches) == 0 {
		return summary
	}

	sources := make(map[string]struct{})
	maxConfidence, total := 0.0, 0.0
	for _, m := range matches {
		if m.RiskLevel.IsHighRisk() {
			summary.HighRiskMatches++
		}
		if _, ok := sources[m.Source]; !ok {
			sources[m.Source] = struct{}{}
			summary.Sources = append(summary.Sources, m.Source)
		}
		maxConfidence = math.Max(maxConfidence, m.WeightedConfidence)
		total += m.WeightedConfidence
	}
	sort.Strings(summary.Sources)

	mean := total / float64(len(matches))
	score := int(math.Round(100 * (maxConfidenceWeight*maxConfidence + meanConfidenceWeight*mean)))
	summary.RiskScore = min(max(score, 0), 100)
	summary.Recommendation = domain.RecommendationFor(summary.RiskScore)

	return summary
}
