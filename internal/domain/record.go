package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScreeningRecord is the persisted, signed trail of one screening.
// Records are append-only; a re-screen produces a new record.
type ScreeningRecord struct {
	RecordID         uuid.UUID        `json:"record_id" db:"record_id"`
	BatchID          *uuid.UUID       `json:"batch_id,omitempty" db:"batch_id"`
	ExternalID       string           `json:"external_id,omitempty" db:"external_id"`
	SubjectName      string           `json:"subject_name" db:"subject_name"` // masked when PII masking is on
	RiskScore        int              `json:"risk_score" db:"risk_score"`
	Recommendation   Recommendation   `json:"recommendation" db:"recommendation"`
	TotalMatches     int              `json:"total_matches" db:"total_matches"`
	HighRiskMatches  int              `json:"high_risk_matches" db:"high_risk_matches"`
	Sources          []string         `json:"sources" db:"sources"`
	Result           *ScreeningResult `json:"result" db:"result"`
	SealedProfile    string           `json:"-" db:"sealed_profile"` // AES-GCM sealed ClientProfile JSON
	DigitalSignature string           `json:"digital_signature" db:"digital_signature"`
	EncryptionKeyID  int              `json:"-" db:"encryption_key_id"`
	ScreenedAt       time.Time        `json:"screened_at" db:"screened_at"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// NewScreeningRecord wraps a result with a fresh ID and timestamps
func NewScreeningRecord(result *ScreeningResult) *ScreeningRecord {
	// timestamps are signed, so keep only what Postgres stores
	now := time.Now().UTC().Truncate(time.Microsecond)
	rec := &ScreeningRecord{
		RecordID:   uuid.New(),
		Result:     result,
		ScreenedAt: result.Timestamp.Truncate(time.Microsecond),
		CreatedAt:  now,
	}
	if rec.ScreenedAt.IsZero() {
		rec.ScreenedAt = now
	}
	rec.ExternalID = result.EntityQuery.ExternalID
	rec.SubjectName = result.EntityQuery.DisplayName()
	rec.RiskScore = result.Summary.RiskScore
	rec.Recommendation = result.Summary.Recommendation
	rec.TotalMatches = result.Summary.TotalMatches
	rec.HighRiskMatches = result.Summary.HighRiskMatches
	rec.Sources = result.Summary.Sources
	return rec
}

// ScreeningRecordFilter for querying the trail
type ScreeningRecordFilter struct {
	RecordID       *uuid.UUID
	BatchID        *uuid.UUID
	ExternalID     *string
	Recommendation *Recommendation
	MinRiskScore   *int
	StartTime      *time.Time
	EndTime        *time.Time
	Limit          int
	Offset         int
}

// ScreeningRecordPage represents paginated records
type ScreeningRecordPage struct {
	Records    []*ScreeningRecord `json:"records"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	HasMore    bool               `json:"has_more"`
}

// RefreshLogEntry records one feed refresh attempt
type RefreshLogEntry struct {
	RefreshID    uuid.UUID `json:"refresh_id" db:"refresh_id"`
	Source       string    `json:"source" db:"source"`
	Status       string    `json:"status" db:"status"`
	ErrorMessage *string   `json:"error_message,omitempty" db:"error_message"`
	EntityCount  int       `json:"entity_count" db:"entity_count"`
	Trigger      string    `json:"trigger" db:"trigger"` // SCHEDULED, MANUAL
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
}

// ScreeningAlert is published when a screening needs analyst attention
type ScreeningAlert struct {
	AlertID        uuid.UUID      `json:"alert_id"`
	RecordID       uuid.UUID      `json:"record_id"`
	ExternalID     string         `json:"external_id,omitempty"`
	SubjectName    string         `json:"subject_name"`
	RiskScore      int            `json:"risk_score"`
	Recommendation Recommendation `json:"recommendation"`
	TopMatches     []AlertMatch   `json:"top_matches"`
	RaisedAt       time.Time      `json:"raised_at"`
}

// AlertMatch is the compact match description carried by alerts
type AlertMatch struct {
	Source             string    `json:"source"`
	EntityUID          string    `json:"entity_uid"`
	MatchedValue       string    `json:"matched_value"`
	WeightedConfidence float64   `json:"weighted_confidence"`
	RiskLevel          RiskLevel `json:"risk_level"`
}
