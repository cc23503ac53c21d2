package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevelFor(t *testing.T) {
	cases := []struct {
		confidence float64
		want       RiskLevel
	}{
		{1.0, RiskLevelCritical},
		{0.95, RiskLevelCritical},
		{0.9499, RiskLevelHigh},
		{0.85, RiskLevelHigh},
		{0.8, RiskLevelMedium},
		{0.75, RiskLevelMedium},
		{0.7, RiskLevelLow},
		{0, RiskLevelLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RiskLevelFor(tc.confidence), "confidence %v", tc.confidence)
	}
}

func TestRecommendationFor(t *testing.T) {
	assert.Equal(t, RecommendationReject, RecommendationFor(85))
	assert.Equal(t, RecommendationManualReview, RecommendationFor(84))
	assert.Equal(t, RecommendationManualReview, RecommendationFor(70))
	assert.Equal(t, RecommendationEnhancedDD, RecommendationFor(67))
	assert.Equal(t, RecommendationEnhancedDD, RecommendationFor(50))
	assert.Equal(t, RecommendationClear, RecommendationFor(49))
	assert.Equal(t, RecommendationClear, RecommendationFor(0))
}

func TestDisplayNamePreference(t *testing.T) {
	assert.Equal(t, "John Q Doe", ClientProfile{FullName: "John Q Doe", FirstName: "John"}.DisplayName())
	assert.Equal(t, "John Doe", ClientProfile{FirstName: "John", LastName: "Doe"}.DisplayName())
	assert.Equal(t, "Acme", ClientProfile{CompanyName: "Acme", BusinessName: "Acme Trading"}.DisplayName())
	assert.Equal(t, "Acme Trading", ClientProfile{BusinessName: "Acme Trading"}.DisplayName())
}

func TestScreeningErrorChain(t *testing.T) {
	root := errors.New("connection refused")
	fetchErr := NewFetchError(SourceOFAC, "download failed", root)
	searchErr := NewSearchError(SourceOFAC, "no cached data", fetchErr)
	wrapped := fmt.Errorf("screening: %w", searchErr)

	assert.True(t, IsCategory(wrapped, ErrorSearch))
	assert.True(t, IsCategory(wrapped, ErrorFetch))
	assert.False(t, IsCategory(wrapped, ErrorParse))
	assert.ErrorIs(t, wrapped, root)
	assert.Contains(t, searchErr.Error(), "OFAC [search]")
}

func TestNewScreeningRecord(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	result := &ScreeningResult{
		EntityQuery: ClientProfile{FullName: "John Doe", ExternalID: "cust-1"},
		Summary: Summary{
			TotalMatches:   1,
			Sources:        []string{SourceOFAC},
			RiskScore:      100,
			Recommendation: RecommendationReject,
		},
		Timestamp: ts,
	}

	rec := NewScreeningRecord(result)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", rec.RecordID.String())
	assert.Equal(t, ts, rec.ScreenedAt)
	assert.Equal(t, "cust-1", rec.ExternalID)
	assert.Equal(t, "John Doe", rec.SubjectName)
	assert.Equal(t, RecommendationReject, rec.Recommendation)
	assert.True(t, rec.Recommendation.RequiresAction())
}
