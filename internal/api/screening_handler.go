package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/banking/sanctions-screening/internal/domain"
	"github.com/banking/sanctions-screening/internal/repository/elasticsearch"
	"github.com/banking/sanctions-screening/internal/repository/postgres"
	"github.com/banking/sanctions-screening/internal/screening"
	"github.com/banking/sanctions-screening/internal/service"
)

// ScreeningService is what the handlers need from the service layer
type ScreeningService interface {
	Screen(ctx context.Context, profile domain.ClientProfile, opts screening.ScreenOptions) (*service.Outcome, error)
	ScreenBatch(ctx context.Context, profiles []domain.ClientProfile, opts screening.ScreenOptions) (*service.BatchOutcome, error)
	Stats() domain.Stats
	Refresh(ctx context.Context, trigger string) []domain.RefreshStatus
	RefreshHistory(ctx context.Context, source string, limit int) ([]*domain.RefreshLogEntry, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*domain.ScreeningRecord, error)
	ListRecords(ctx context.Context, filter domain.ScreeningRecordFilter) (*domain.ScreeningRecordPage, error)
	SearchRecords(ctx context.Context, query string, from, size int) (*elasticsearch.ResultPage, error)
}

const (
	defaultRecordLimit = 50
	maxRecordLimit     = 500
)

type ScreeningHandler struct {
	svc              ScreeningService
	maxBatchProfiles int
	logger           *zap.Logger
}

func NewScreeningHandler(svc ScreeningService, maxBatchProfiles int, logger *zap.Logger) *ScreeningHandler {
	return &ScreeningHandler{
		svc:              svc,
		maxBatchProfiles: maxBatchProfiles,
		logger:           logger,
	}
}

type optionsRequest struct {
	Threshold      float64 `json:"threshold"`
	IncludeAliases *bool   `json:"include_aliases"`
	MaxResults     int     `json:"max_results"`
}

func (o *optionsRequest) toOptions() (screening.ScreenOptions, error) {
	if o == nil {
		return screening.ScreenOptions{}, nil
	}
	if o.Threshold < 0 || o.Threshold > 1 {
		return screening.ScreenOptions{}, errors.New("threshold must be between 0 and 1")
	}
	if o.MaxResults < 0 {
		return screening.ScreenOptions{}, errors.New("max_results must not be negative")
	}
	return screening.ScreenOptions{
		Threshold:      o.Threshold,
		IncludeAliases: o.IncludeAliases,
		MaxResults:     o.MaxResults,
	}, nil
}

type screenRequest struct {
	Profile domain.ClientProfile `json:"profile"`
	Options *optionsRequest      `json:"options"`
}

type batchRequest struct {
	Profiles []domain.ClientProfile `json:"profiles"`
	Options  *optionsRequest        `json:"options"`
}

// Screen handles POST /screening/screen
func (h *ScreeningHandler) Screen(c echo.Context) error {
	var req screenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	opts, err := req.Options.toOptions()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	out, err := h.svc.Screen(c.Request().Context(), req.Profile, opts)
	if err != nil {
		return h.fail(c, "screening failed", err)
	}
	return c.JSON(http.StatusOK, out)
}

// ScreenBatch handles POST /screening/batch
func (h *ScreeningHandler) ScreenBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(req.Profiles) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "profiles must not be empty"})
	}
	if h.maxBatchProfiles > 0 && len(req.Profiles) > h.maxBatchProfiles {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "too many profiles, limit is " + strconv.Itoa(h.maxBatchProfiles),
		})
	}
	opts, err := req.Options.toOptions()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	out, err := h.svc.ScreenBatch(c.Request().Context(), req.Profiles, opts)
	if err != nil {
		return h.fail(c, "batch screening failed", err)
	}
	return c.JSON(http.StatusOK, out)
}

// Stats handles GET /screening/stats
func (h *ScreeningHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Stats())
}

// Refresh handles POST /screening/refresh
func (h *ScreeningHandler) Refresh(c echo.Context) error {
	statuses := h.svc.Refresh(c.Request().Context(), service.TriggerManual)
	return c.JSON(http.StatusOK, map[string]any{"results": statuses})
}

// RefreshHistory handles GET /screening/refresh/history?source=OFAC
func (h *ScreeningHandler) RefreshHistory(c echo.Context) error {
	source := c.QueryParam("source")
	if source == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing query parameter 'source'"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > maxRecordLimit {
		limit = 20
	}

	entries, err := h.svc.RefreshHistory(c.Request().Context(), source, limit)
	if err != nil {
		return h.fail(c, "failed to load refresh history", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"source": source, "entries": entries})
}

// GetRecord handles GET /screening/records/:id
func (h *ScreeningHandler) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid record id"})
	}

	rec, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "failed to retrieve record", err)
	}
	return c.JSON(http.StatusOK, rec)
}

// ListRecords handles GET /screening/records
func (h *ScreeningHandler) ListRecords(c echo.Context) error {
	filter, err := parseRecordFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	page, err := h.svc.ListRecords(c.Request().Context(), filter)
	if err != nil {
		return h.fail(c, "failed to list records", err)
	}
	return c.JSON(http.StatusOK, page)
}

// SearchRecords handles GET /screening/search
func (h *ScreeningHandler) SearchRecords(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing query parameter 'q'"})
	}

	from, _ := strconv.Atoi(c.QueryParam("from"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	if size == 0 {
		size = 20
	}

	page, err := h.svc.SearchRecords(c.Request().Context(), query, from, size)
	if err != nil {
		return h.fail(c, "search failed", err)
	}
	return c.JSON(http.StatusOK, page)
}

// Health handles GET /health
func (h *ScreeningHandler) Health(c echo.Context) error {
	stats := h.svc.Stats()
	return c.JSON(http.StatusOK, map[string]any{
		"status":        "ok",
		"total_entries": stats.TotalEntries,
		"last_update":   stats.LastUpdate,
	})
}

// RegisterRoutes registers the API routes
func (h *ScreeningHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/screen", h.Screen)
	g.POST("/batch", h.ScreenBatch)
	g.GET("/stats", h.Stats)
	g.POST("/refresh", h.Refresh)
	g.GET("/refresh/history", h.RefreshHistory)
	g.GET("/records", h.ListRecords)
	g.GET("/records/:id", h.GetRecord)
	g.GET("/search", h.SearchRecords)
}

func (h *ScreeningHandler) fail(c echo.Context, msg string, err error) error {
	switch {
	case errors.Is(err, postgres.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "record not found"})
	case errors.Is(err, service.ErrNotEnabled):
		return c.JSON(http.StatusNotImplemented, map[string]string{"error": err.Error()})
	case domain.IsCategory(err, domain.ErrorValidation):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrIntegrity):
		h.logger.Error("record integrity failure", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "record integrity check failed"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": msg})
	}

	h.logger.Error(msg, zap.Error(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": msg})
}

func parseRecordFilter(c echo.Context) (domain.ScreeningRecordFilter, error) {
	filter := domain.ScreeningRecordFilter{Limit: defaultRecordLimit}

	if v := c.QueryParam("batch_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, errors.New("invalid batch_id")
		}
		filter.BatchID = &id
	}
	if v := c.QueryParam("external_id"); v != "" {
		filter.ExternalID = &v
	}
	if v := c.QueryParam("recommendation"); v != "" {
		rec := domain.Recommendation(v)
		filter.Recommendation = &rec
	}
	if v := c.QueryParam("min_risk_score"); v != "" {
		score, err := strconv.Atoi(v)
		if err != nil || score < 0 || score > 100 {
			return filter, errors.New("min_risk_score must be between 0 and 100")
		}
		filter.MinRiskScore = &score
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"start_time", &filter.StartTime}, {"end_time", &filter.EndTime}} {
		if v := c.QueryParam(p.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return filter, errors.New("invalid " + p.name + ", expected RFC3339")
			}
			*p.dst = &t
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return filter, errors.New("invalid limit")
		}
		filter.Limit = min(limit, maxRecordLimit)
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, errors.New("invalid offset")
		}
		filter.Offset = offset
	}
	return filter, nil
}
