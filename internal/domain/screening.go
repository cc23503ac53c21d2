package domain

import (
	"strings"
	"time"
)

// MatchedField tells which entity name produced a candidate
type MatchedField string

const (
	MatchedFieldName  MatchedField = "NAME"
	MatchedFieldAlias MatchedField = "ALIAS"
)

// RiskLevel is the per-match risk bucket
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// Recommendation is the screening level verdict
type Recommendation string

const (
	RecommendationClear        Recommendation = "CLEAR"
	RecommendationEnhancedDD   Recommendation = "ENHANCED_DUE_DILIGENCE"
	RecommendationManualReview Recommendation = "MANUAL_REVIEW"
	RecommendationReject       Recommendation = "REJECT"
)

// RiskLevelFor buckets a weighted confidence
func RiskLevelFor(confidence float64) RiskLevel {
	switch {
	case confidence >= 0.95:
		return RiskLevelCritical
	case confidence >= 0.85:
		return RiskLevelHigh
	case confidence >= 0.75:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// RecommendationFor maps a 0-100 risk score to a verdict
func RecommendationFor(riskScore int) Recommendation {
	switch {
	case riskScore >= 85:
		return RecommendationReject
	case riskScore >= 70:
		return RecommendationManualReview
	case riskScore >= 50:
		return RecommendationEnhancedDD
	default:
		return RecommendationClear
	}
}

// IsHighRisk reports whether the level counts toward HighRiskMatches
func (l RiskLevel) IsHighRisk() bool {
	return l == RiskLevelHigh || l == RiskLevelCritical
}

// RequiresAction reports whether the verdict must be routed to an analyst
func (r Recommendation) RequiresAction() bool {
	return r == RecommendationReject || r == RecommendationManualReview
}

// ProfileAlias is an alternative name supplied by the client
type ProfileAlias struct {
	Name     string `json:"name,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// ClientProfile is the party being screened
type ClientProfile struct {
	FirstName    string         `json:"first_name,omitempty"`
	LastName     string         `json:"last_name,omitempty"`
	FullName     string         `json:"full_name,omitempty"`
	CompanyName  string         `json:"company_name,omitempty"`
	BusinessName string         `json:"business_name,omitempty"`
	Aliases      []ProfileAlias `json:"aliases,omitempty"`
	Country      string         `json:"country,omitempty"`
	DateOfBirth  string         `json:"date_of_birth,omitempty"`
	ExternalID   string         `json:"external_id,omitempty"`
}

// DisplayName picks the most descriptive name on the profile
func (p ClientProfile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.FirstName != "" || p.LastName != "" {
		return strings.TrimSpace(p.FirstName + " " + p.LastName)
	}
	if p.CompanyName != "" {
		return p.CompanyName
	}
	return p.BusinessName
}

// MatchCandidate is one entity returned by a source search
type MatchCandidate struct {
	Entity       SanctionedEntity `json:"entity"`
	MatchedField MatchedField     `json:"matched_field"`
	MatchedValue string           `json:"matched_value"`
	Confidence   float64          `json:"confidence"`
}

// WeightedMatch is a candidate after source weighting and risk classification
type WeightedMatch struct {
	MatchCandidate
	Source             string    `json:"source"`
	SearchTerm         string    `json:"search_term"`
	WeightedConfidence float64   `json:"weighted_confidence"`
	RiskLevel          RiskLevel `json:"risk_level"`
}

// Summary aggregates the matches of one screening
type Summary struct {
	TotalMatches    int            `json:"total_matches"`
	HighRiskMatches int            `json:"high_risk_matches"`
	Sources         []string       `json:"sources"`
	RiskScore       int            `json:"risk_score"` // 0-100
	Recommendation  Recommendation `json:"recommendation"`
}

// ScreeningResult is produced once per screening call and not modified afterwards
type ScreeningResult struct {
	EntityQuery ClientProfile   `json:"entity_query"`
	Matches     []WeightedMatch `json:"matches"`
	Summary     Summary         `json:"summary"`
	Timestamp   time.Time       `json:"timestamp"`
}

// BatchItem is the settled outcome of one profile in a batch
type BatchItem struct {
	Index   int              `json:"index"`
	Profile ClientProfile    `json:"profile"`
	Result  *ScreeningResult `json:"result,omitempty"`
	Err     error            `json:"-"`
	Error   string           `json:"error,omitempty"`
}

// SourceStats describes one source's cached data
type SourceStats struct {
	Name         string     `json:"name"`
	TotalEntries int        `json:"total_entries"`
	LastUpdate   *time.Time `json:"last_update"`
}

// Stats aggregates SourceStats across all sources
type Stats struct {
	Services     []SourceStats `json:"services"`
	TotalEntries int           `json:"total_entries"`
	LastUpdate   *time.Time    `json:"last_update"`
}

// Refresh outcomes
const (
	RefreshStatusSuccess = "success"
	RefreshStatusError   = "error"
)

// RefreshStatus is the outcome of refreshing one source
type RefreshStatus struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}
