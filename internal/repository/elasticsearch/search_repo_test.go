package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/sanctions-screening/internal/config"
	"github.com/banking/sanctions-screening/internal/domain"
)

// fakeCluster answers the few Elasticsearch endpoints the repository uses
type fakeCluster struct {
	mu      sync.Mutex
	indexed map[string][]byte
	query   map[string]any
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/":
		_, _ = w.Write([]byte(`{"version":{"number":"8.19.1"},"tagline":"You Know, for Search"}`))
	case strings.HasPrefix(r.URL.Path, "/screening-results/_doc/"):
		f.indexed[strings.TrimPrefix(r.URL.Path, "/screening-results/_doc/")] = body
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	case r.URL.Path == "/screening-results/_search":
		_ = json.Unmarshal(body, &f.query)
		var hits []string
		for _, doc := range f.indexed {
			hits = append(hits, `{"_source":`+string(doc)+`}`)
		}
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":` + strconv.Itoa(len(hits)) + `},"hits":[` + strings.Join(hits, ",") + `]}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}
}

func newTestRepo(t *testing.T) (*SearchRepository, *fakeCluster) {
	t.Helper()
	cluster := &fakeCluster{indexed: map[string][]byte{}}
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	repo, err := NewSearchRepository(config.ElasticsearchConfig{
		Addresses: []string{srv.URL},
		Index:     "screening-results",
	})
	require.NoError(t, err)
	return repo, cluster
}

func testRecord() *domain.ScreeningRecord {
	result := &domain.ScreeningResult{
		EntityQuery: domain.ClientProfile{FullName: "Usama bin Laden", ExternalID: "client-7"},
		Matches: []domain.WeightedMatch{{
			MatchCandidate: domain.MatchCandidate{
				Entity:       domain.SanctionedEntity{UID: "6365", PrimaryName: "Usama BIN LADIN"},
				MatchedField: domain.MatchedFieldAlias,
				MatchedValue: "Osama BIN LADEN",
				Confidence:   0.97,
			},
			Source:             domain.SourceOFAC,
			WeightedConfidence: 0.97,
			RiskLevel:          domain.RiskLevelCritical,
		}},
		Summary: domain.Summary{
			TotalMatches: 1, HighRiskMatches: 1, Sources: []string{domain.SourceOFAC},
			RiskScore: 97, Recommendation: domain.RecommendationReject,
		},
		Timestamp: time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	return domain.NewScreeningRecord(result)
}

func TestNewResultDocument(t *testing.T) {
	rec := testRecord()
	rec.SealedProfile = "secret"

	doc := NewResultDocument(rec)
	assert.Equal(t, rec.RecordID, doc.RecordID)
	assert.Equal(t, 97, doc.RiskScore)
	require.Len(t, doc.MatchedEntities, 1)
	assert.Equal(t, "6365", doc.MatchedEntities[0].UID)
	assert.Equal(t, "Osama BIN LADEN", doc.MatchedEntities[0].MatchedValue)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}

func TestIndexAndSearchRecords(t *testing.T) {
	repo, cluster := newTestRepo(t)
	rec := testRecord()

	require.NoError(t, repo.IndexRecord(context.Background(), rec))
	assert.Contains(t, cluster.indexed, rec.RecordID.String())

	page, err := repo.SearchRecords(context.Background(), "recommendation:REJECT", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.False(t, page.HasMore)
	require.Len(t, page.Results, 1)
	assert.Equal(t, rec.RecordID, page.Results[0].RecordID)
	assert.Equal(t, domain.RecommendationReject, page.Results[0].Recommendation)

	qs := cluster.query["query"].(map[string]any)["query_string"].(map[string]any)
	assert.Equal(t, "recommendation:REJECT", qs["query"])
}

func TestSearchRecordsError(t *testing.T) {
	repo, _ := newTestRepo(t)
	repo.index = "missing"
	_, err := repo.SearchRecords(context.Background(), "*", 0, 10)
	assert.ErrorContains(t, err, "elasticsearch search error")
}
