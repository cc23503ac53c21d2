package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	elastic "github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"github.com/banking/sanctions-screening/internal/config"
	"github.com/banking/sanctions-screening/internal/domain"
)

// ResultDocument is the searchable projection of a screening record. It
// carries no sealed profile data.
type ResultDocument struct {
	RecordID        uuid.UUID             `json:"record_id"`
	BatchID         *uuid.UUID            `json:"batch_id,omitempty"`
	ExternalID      string                `json:"external_id,omitempty"`
	SubjectName     string                `json:"subject_name"`
	RiskScore       int                   `json:"risk_score"`
	Recommendation  domain.Recommendation `json:"recommendation"`
	TotalMatches    int                   `json:"total_matches"`
	HighRiskMatches int                   `json:"high_risk_matches"`
	Sources         []string              `json:"sources"`
	MatchedEntities []MatchedEntity       `json:"matched_entities,omitempty"`
	Timestamp       time.Time             `json:"timestamp"`
}

// MatchedEntity is one listed entity a screening matched
type MatchedEntity struct {
	Source             string           `json:"source"`
	UID                string           `json:"uid"`
	PrimaryName        string           `json:"primary_name"`
	MatchedValue       string           `json:"matched_value"`
	RiskLevel          domain.RiskLevel `json:"risk_level"`
	WeightedConfidence float64          `json:"weighted_confidence"`
}

// NewResultDocument projects rec for indexing
func NewResultDocument(rec *domain.ScreeningRecord) ResultDocument {
	doc := ResultDocument{
		RecordID:        rec.RecordID,
		BatchID:         rec.BatchID,
		ExternalID:      rec.ExternalID,
		SubjectName:     rec.SubjectName,
		RiskScore:       rec.RiskScore,
		Recommendation:  rec.Recommendation,
		TotalMatches:    rec.TotalMatches,
		HighRiskMatches: rec.HighRiskMatches,
		Sources:         rec.Sources,
		Timestamp:       rec.ScreenedAt,
	}
	if rec.Result != nil {
		for _, m := range rec.Result.Matches {
			doc.MatchedEntities = append(doc.MatchedEntities, MatchedEntity{
				Source:             m.Source,
				UID:                m.Entity.UID,
				PrimaryName:        m.Entity.PrimaryName,
				MatchedValue:       m.MatchedValue,
				RiskLevel:          m.RiskLevel,
				WeightedConfidence: m.WeightedConfidence,
			})
		}
	}
	return doc
}

// ResultPage is one page of search hits
type ResultPage struct {
	Results    []ResultDocument `json:"results"`
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	HasMore    bool             `json:"has_more"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source ResultDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchRepository indexes and searches screening results
type SearchRepository struct {
	client *elastic.Client
	index  string
}

// NewSearchRepository creates a new search repository
func NewSearchRepository(cfg config.ElasticsearchConfig) (*SearchRepository, error) {
	client, err := elastic.NewClient(elastic.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}
	res.Body.Close()

	return &SearchRepository{
		client: client,
		index:  cfg.Index,
	}, nil
}

// IndexRecord indexes a screening record under its record ID
func (r *SearchRepository) IndexRecord(ctx context.Context, rec *domain.ScreeningRecord) error {
	data, err := json.Marshal(NewResultDocument(rec))
	if err != nil {
		return fmt.Errorf("failed to marshal screening result: %w", err)
	}

	res, err := r.client.Index(
		r.index,
		bytes.NewReader(data),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(rec.RecordID.String()),
	)
	if err != nil {
		return fmt.Errorf("failed to index screening result: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.String())
	}
	return nil
}

// SearchRecords runs a query_string query, newest results first
func (r *SearchRepository) SearchRecords(ctx context.Context, query string, from, size int) (*ResultPage, error) {
	if size <= 0 {
		size = 20
	}
	esQuery := map[string]any{
		"from": from,
		"size": size,
		"query": map[string]any{
			"query_string": map[string]any{
				"query": query,
			},
		},
		"sort": []map[string]any{
			{"timestamp": "desc"},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to perform search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search error: %s", res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	page := &ResultPage{
		Results:    make([]ResultDocument, 0, len(parsed.Hits.Hits)),
		TotalCount: parsed.Hits.Total.Value,
		Page:       from/size + 1,
		PageSize:   size,
		HasMore:    parsed.Hits.Total.Value > int64(from+size),
	}
	for _, hit := range parsed.Hits.Hits {
		page.Results = append(page.Results, hit.Source)
	}
	return page, nil
}
