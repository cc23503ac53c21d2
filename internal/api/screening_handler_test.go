package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banking/sanctions-screening/internal/domain"
	"github.com/banking/sanctions-screening/internal/repository/elasticsearch"
	"github.com/banking/sanctions-screening/internal/repository/postgres"
	"github.com/banking/sanctions-screening/internal/screening"
	"github.com/banking/sanctions-screening/internal/service"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Screen(ctx context.Context, profile domain.ClientProfile, opts screening.ScreenOptions) (*service.Outcome, error) {
	args := m.Called(ctx, profile, opts)
	if out := args.Get(0); out != nil {
		return out.(*service.Outcome), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) ScreenBatch(ctx context.Context, profiles []domain.ClientProfile, opts screening.ScreenOptions) (*service.BatchOutcome, error) {
	args := m.Called(ctx, profiles, opts)
	if out := args.Get(0); out != nil {
		return out.(*service.BatchOutcome), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) Stats() domain.Stats {
	return m.Called().Get(0).(domain.Stats)
}

func (m *mockService) Refresh(ctx context.Context, trigger string) []domain.RefreshStatus {
	return m.Called(ctx, trigger).Get(0).([]domain.RefreshStatus)
}

func (m *mockService) RefreshHistory(ctx context.Context, source string, limit int) ([]*domain.RefreshLogEntry, error) {
	args := m.Called(ctx, source, limit)
	entries, _ := args.Get(0).([]*domain.RefreshLogEntry)
	return entries, args.Error(1)
}

func (m *mockService) GetRecord(ctx context.Context, id uuid.UUID) (*domain.ScreeningRecord, error) {
	args := m.Called(ctx, id)
	if out := args.Get(0); out != nil {
		return out.(*domain.ScreeningRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) ListRecords(ctx context.Context, filter domain.ScreeningRecordFilter) (*domain.ScreeningRecordPage, error) {
	args := m.Called(ctx, filter)
	if out := args.Get(0); out != nil {
		return out.(*domain.ScreeningRecordPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) SearchRecords(ctx context.Context, query string, from, size int) (*elasticsearch.ResultPage, error) {
	args := m.Called(ctx, query, from, size)
	if out := args.Get(0); out != nil {
		return out.(*elasticsearch.ResultPage), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestRouter(svc ScreeningService, cfg RouterConfig) *echo.Echo {
	return NewRouter(NewScreeningHandler(svc, 3, zap.NewNop()), NewNamesHandler(), cfg, zap.NewNop())
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestScreen(t *testing.T) {
	svc := new(mockService)
	include := false
	profile := domain.ClientProfile{FirstName: "John", LastName: "Doe"}
	opts := screening.ScreenOptions{Threshold: 0.9, IncludeAliases: &include}
	recordID := uuid.New()

	svc.On("Screen", mock.Anything, profile, opts).Return(&service.Outcome{
		ScreeningResult: &domain.ScreeningResult{
			EntityQuery: profile,
			Matches:     []domain.WeightedMatch{},
			Summary:     domain.Summary{Recommendation: domain.RecommendationClear, Sources: []string{}},
		},
		RecordID: &recordID,
	}, nil).Once()

	rec := do(newTestRouter(svc, RouterConfig{}), http.MethodPost, "/screening/screen",
		`{"profile":{"first_name":"John","last_name":"Doe"},"options":{"threshold":0.9,"include_aliases":false}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, recordID.String(), body["record_id"])
	assert.Equal(t, false, body["cached"])
	summary := body["summary"].(map[string]any)
	assert.Equal(t, string(domain.RecommendationClear), summary["recommendation"])
	svc.AssertExpectations(t)
}

func TestScreenNamelessProfileIsClear(t *testing.T) {
	svc := new(mockService)
	profile := domain.ClientProfile{Country: "IR"}
	svc.On("Screen", mock.Anything, profile, screening.ScreenOptions{}).Return(&service.Outcome{
		ScreeningResult: &domain.ScreeningResult{
			EntityQuery: profile,
			Matches:     []domain.WeightedMatch{},
			Summary:     domain.Summary{Recommendation: domain.RecommendationClear, Sources: []string{}},
		},
	}, nil).Once()

	rec := do(newTestRouter(svc, RouterConfig{}), http.MethodPost, "/screening/screen", `{"profile":{"country":"IR"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	summary := body["summary"].(map[string]any)
	assert.Equal(t, string(domain.RecommendationClear), summary["recommendation"])
	svc.AssertExpectations(t)
}

func TestScreenRejectsInvalidRequests(t *testing.T) {
	svc := new(mockService)
	e := newTestRouter(svc, RouterConfig{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"profile":`},
		{"threshold out of range", `{"profile":{"full_name":"Jane Roe"},"options":{"threshold":1.5}}`},
		{"negative max results", `{"profile":{"full_name":"Jane Roe"},"options":{"max_results":-1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/screening/screen", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, errorOf(t, rec))
		})
	}
	svc.AssertNotCalled(t, "Screen", mock.Anything, mock.Anything, mock.Anything)
}

func TestScreenServiceFailure(t *testing.T) {
	svc := new(mockService)
	svc.On("Screen", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("record persistence failed: connection refused")).Once()

	rec := do(newTestRouter(svc, RouterConfig{}), http.MethodPost, "/screening/screen", `{"profile":{"full_name":"Jane Roe"}}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "screening failed", errorOf(t, rec))
}

func TestScreenBatch(t *testing.T) {
	svc := new(mockService)
	profiles := []domain.ClientProfile{{FullName: "Jane Roe"}, {CompanyName: "Acme Trading"}}
	batchID := uuid.New()
	svc.On("ScreenBatch", mock.Anything, profiles, screening.ScreenOptions{}).Return(&service.BatchOutcome{
		BatchID:   batchID,
		Succeeded: 2,
	}, nil).Once()

	rec := do(newTestRouter(svc, RouterConfig{}), http.MethodPost, "/screening/batch",
		`{"profiles":[{"full_name":"Jane Roe"},{"company_name":"Acme Trading"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var out service.BatchOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, batchID, out.BatchID)
	assert.Equal(t, 2, out.Succeeded)
}

func TestScreenBatchLimits(t *testing.T) {
	svc := new(mockService)
	e := newTestRouter(svc, RouterConfig{})

	rec := do(e, http.MethodPost, "/screening/batch", `{"profiles":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/screening/batch",
		`{"profiles":[{"full_name":"a b c"},{"full_name":"d e f"},{"full_name":"g h i"},{"full_name":"j k l"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "limit is 3")

	svc.AssertNotCalled(t, "ScreenBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatsAndHealth(t *testing.T) {
	svc := new(mockService)
	svc.On("Stats").Return(domain.Stats{
		TotalEntries: 42,
		Services:     []domain.SourceStats{{Name: domain.SourceOFAC, TotalEntries: 42}},
	})
	e := newTestRouter(svc, RouterConfig{})

	rec := do(e, http.MethodGet, "/screening/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 42, stats.TotalEntries)

	rec = do(e, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRefreshIsManual(t *testing.T) {
	svc := new(mockService)
	svc.On("Refresh", mock.Anything, service.TriggerManual).Return([]domain.RefreshStatus{
		{Service: domain.SourceOFAC, Status: domain.RefreshStatusSuccess},
	}).Once()

	rec := do(newTestRouter(svc, RouterConfig{}), http.MethodPost, "/screening/refresh", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results"`)
	svc.AssertExpectations(t)
}

func TestRefreshHistory(t *testing.T) {
	svc := new(mockService)
	svc.On("RefreshHistory", mock.Anything, domain.SourceUN, 20).Return([]*domain.RefreshLogEntry{
		{RefreshID: uuid.New(), Source: domain.SourceUN, Status: domain.RefreshStatusSuccess, EntityCount: 731},
	}, nil).Once()
	e := newTestRouter(svc, RouterConfig{})

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/screening/refresh/history", "").Code)

	rec := do(e, http.MethodGet, "/screening/refresh/history?source=UN&limit=9999", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entries"`)
	svc.AssertExpectations(t)
}

func TestGetRecordErrors(t *testing.T) {
	missing, tampered, disabled := uuid.New(), uuid.New(), uuid.New()
	svc := new(mockService)
	svc.On("GetRecord", mock.Anything, missing).Return(nil, postgres.ErrRecordNotFound)
	svc.On("GetRecord", mock.Anything, tampered).Return(nil, fmt.Errorf("record %s: %w", tampered, service.ErrIntegrity))
	svc.On("GetRecord", mock.Anything, disabled).Return(nil, fmt.Errorf("screening records: %w", service.ErrNotEnabled))
	e := newTestRouter(svc, RouterConfig{})

	tests := []struct {
		target string
		status int
	}{
		{"/screening/records/not-a-uuid", http.StatusBadRequest},
		{"/screening/records/" + missing.String(), http.StatusNotFound},
		{"/screening/records/" + tampered.String(), http.StatusInternalServerError},
		{"/screening/records/" + disabled.String(), http.StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.status, do(e, http.MethodGet, tt.target, "").Code)
		})
	}
}

func TestListRecordsFilter(t *testing.T) {
	batchID := uuid.New()
	svc := new(mockService)
	svc.On("ListRecords", mock.Anything, mock.MatchedBy(func(f domain.ScreeningRecordFilter) bool {
		return f.BatchID != nil && *f.BatchID == batchID &&
			f.Recommendation != nil && *f.Recommendation == domain.RecommendationReject &&
			f.MinRiskScore != nil && *f.MinRiskScore == 85 &&
			f.StartTime != nil && f.Limit == maxRecordLimit && f.Offset == 10
	})).Return(&domain.ScreeningRecordPage{Records: []*domain.ScreeningRecord{}}, nil).Once()
	e := newTestRouter(svc, RouterConfig{})

	rec := do(e, http.MethodGet, "/screening/records?batch_id="+batchID.String()+
		"&recommendation=REJECT&min_risk_score=85&start_time=2024-01-02T00:00:00Z&limit=10000&offset=10", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)

	for _, q := range []string{"min_risk_score=101", "start_time=yesterday", "limit=0", "offset=-1", "batch_id=x"} {
		assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/screening/records?"+q, "").Code, q)
	}
}

func TestSearchRecords(t *testing.T) {
	svc := new(mockService)
	svc.On("SearchRecords", mock.Anything, "recommendation:REJECT", 0, 20).
		Return(&elasticsearch.ResultPage{TotalCount: 1}, nil).Once()
	e := newTestRouter(svc, RouterConfig{})

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/screening/search", "").Code)

	rec := do(e, http.MethodGet, "/screening/search?q=recommendation:REJECT", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
