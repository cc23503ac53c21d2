package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banking/sanctions-screening/internal/domain"
)

func weighted(source string, confidence float64) domain.WeightedMatch {
	return domain.WeightedMatch{
		MatchCandidate:     domain.MatchCandidate{Confidence: confidence},
		Source:             source,
		WeightedConfidence: confidence,
		RiskLevel:          domain.RiskLevelFor(confidence),
	}
}

func TestSummarizeNoMatches(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.TotalMatches)
	assert.Zero(t, s.RiskScore)
	assert.Equal(t, domain.RecommendationClear, s.Recommendation)
	assert.NotNil(t, s.Sources)
	assert.Empty(t, s.Sources)
}

func TestSummarizeRiskScore(t *testing.T) {
	s := Summarize([]domain.WeightedMatch{
		weighted(domain.SourceUN, 0.9),
		weighted(domain.SourceOFAC, 0.96),
		weighted(domain.SourceOFAC, 0.78),
	})

	assert.Equal(t, 3, s.TotalMatches)
	assert.Equal(t, 2, s.HighRiskMatches)
	assert.Equal(t, []string{domain.SourceOFAC, domain.SourceUN}, s.Sources)
	// 100 * (0.7*0.96 + 0.3*0.88)
	assert.Equal(t, 94, s.RiskScore)
	assert.Equal(t, domain.RecommendationReject, s.Recommendation)
}

func TestSummarizeRecommendationBoundaries(t *testing.T) {
	cases := []struct {
		confidence float64
		score      int
		want       domain.Recommendation
	}{
		{0.49, 49, domain.RecommendationClear},
		{0.5, 50, domain.RecommendationEnhancedDD},
		{0.67, 67, domain.RecommendationEnhancedDD},
		{0.7, 70, domain.RecommendationManualReview},
		{0.85, 85, domain.RecommendationReject},
		{0.95, 95, domain.RecommendationReject},
	}
	for _, tc := range cases {
		s := Summarize([]domain.WeightedMatch{weighted(domain.SourceOFAC, tc.confidence)})
		assert.Equal(t, tc.score, s.RiskScore, "confidence %v", tc.confidence)
		assert.Equal(t, tc.want, s.Recommendation, "confidence %v", tc.confidence)
	}
}
