package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banking/sanctions-screening/internal/crypto"
	"github.com/banking/sanctions-screening/internal/domain"
	"github.com/banking/sanctions-screening/internal/metrics"
	"github.com/banking/sanctions-screening/internal/repository/elasticsearch"
	"github.com/banking/sanctions-screening/internal/screening"
)

// Refresh triggers
const (
	TriggerScheduled = "SCHEDULED"
	TriggerManual    = "MANUAL"
	TriggerStartup   = "STARTUP"
)

const maxAlertMatches = 5

var (
	// ErrIntegrity is returned when a stored record fails signature verification
	ErrIntegrity = errors.New("screening record integrity failure")
	// ErrNotEnabled is returned by operations whose backing store is not configured
	ErrNotEnabled = errors.New("not enabled")
)

// Screener is the matching engine
type Screener interface {
	ScreenEntity(ctx context.Context, profile domain.ClientProfile, opts screening.ScreenOptions) (*domain.ScreeningResult, error)
	BatchScreen(ctx context.Context, profiles []domain.ClientProfile, opts screening.BatchOptions) []domain.BatchItem
	GetStats() domain.Stats
	RefreshAllData(ctx context.Context) []domain.RefreshStatus
}

// RecordStore persists the screening audit trail
type RecordStore interface {
	CreateRecord(ctx context.Context, rec *domain.ScreeningRecord) error
	CreateRecords(ctx context.Context, recs []*domain.ScreeningRecord) error
	GetRecord(ctx context.Context, id uuid.UUID) (*domain.ScreeningRecord, error)
	ListRecords(ctx context.Context, filter domain.ScreeningRecordFilter) (*domain.ScreeningRecordPage, error)
}

// RefreshLog records refresh outcomes
type RefreshLog interface {
	LogRefresh(ctx context.Context, entry *domain.RefreshLogEntry) error
	LatestRefreshes(ctx context.Context, source string, limit int) ([]*domain.RefreshLogEntry, error)
}

// ResultIndex makes screening results searchable
type ResultIndex interface {
	IndexRecord(ctx context.Context, rec *domain.ScreeningRecord) error
	SearchRecords(ctx context.Context, query string, from, size int) (*elasticsearch.ResultPage, error)
}

// BatchArchive stores settled batches
type BatchArchive interface {
	ArchiveBatch(ctx context.Context, batchID uuid.UUID, items []domain.BatchItem) error
}

// ResultCache short-circuits repeated screenings of the same profile
type ResultCache interface {
	Get(ctx context.Context, fingerprint string) (*domain.ScreeningResult, error)
	Set(ctx context.Context, fingerprint string, result *domain.ScreeningResult, ttl time.Duration) error
	Invalidate(ctx context.Context) (int, error)
}

// AlertPublisher notifies analysts of screenings that need action
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *domain.ScreeningAlert) error
}

// Dependencies are the optional collaborators of ScreeningService. A nil
// field disables that feature.
type Dependencies struct {
	Sealer         *crypto.Sealer
	Records        RecordStore
	RefreshLog     RefreshLog
	Index          ResultIndex
	Archive        BatchArchive
	Cache          ResultCache
	CacheTTL       time.Duration
	Alerts         AlertPublisher
	Metrics        *metrics.Metrics
	MaskNames      bool
	DefaultOptions screening.ScreenOptions
	BatchSize      int
}

// Outcome is the result of one screening plus its trail
type Outcome struct {
	*domain.ScreeningResult
	RecordID *uuid.UUID `json:"record_id,omitempty"`
	Cached   bool       `json:"cached"`
}

// BatchOutcome is the settled result of a batch
type BatchOutcome struct {
	BatchID   uuid.UUID          `json:"batch_id"`
	Items     []domain.BatchItem `json:"items"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	RecordIDs map[int]uuid.UUID  `json:"record_ids,omitempty"`
}

// ScreeningService wraps the engine with persistence, caching and alerting
type ScreeningService struct {
	engine Screener
	deps   Dependencies
	mask   func(string) string
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewScreeningService(engine Screener, deps Dependencies, logger *zap.Logger) *ScreeningService {
	if deps.BatchSize <= 0 {
		deps.BatchSize = screening.DefaultBatchSize
	}
	return &ScreeningService{
		engine: engine,
		deps:   deps,
		mask:   crypto.NameMasker(deps.MaskNames),
		logger: logger,
	}
}

// Options fills unset fields of opts from the configured defaults
func (s *ScreeningService) Options(opts screening.ScreenOptions) screening.ScreenOptions {
	d := s.deps.DefaultOptions
	if opts.Threshold <= 0 {
		opts.Threshold = d.Threshold
	}
	if opts.IncludeAliases == nil {
		opts.IncludeAliases = d.IncludeAliases
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = d.MaxResults
	}
	return opts
}

// Screen screens one profile. A cached result for the same profile and
// options is returned as is; otherwise the result is recorded, indexed and
// alerted on.
func (s *ScreeningService) Screen(ctx context.Context, profile domain.ClientProfile, opts screening.ScreenOptions) (*Outcome, error) {
	opts = s.Options(opts)
	fingerprint := s.fingerprint(profile, opts)

	if cached := s.cachedResult(ctx, fingerprint); cached != nil {
		return &Outcome{ScreeningResult: cached, Cached: true}, nil
	}

	result, err := s.engine.ScreenEntity(ctx, profile, opts)
	if err != nil {
		return nil, fmt.Errorf("screening failed: %w", err)
	}

	s.logger.Info("screening completed",
		zap.String("subject", s.mask(profile.DisplayName())),
		zap.String("external_id", profile.ExternalID),
		zap.Int("matches", result.Summary.TotalMatches),
		zap.Int("risk_score", result.Summary.RiskScore),
		zap.String("recommendation", string(result.Summary.Recommendation)))

	out := &Outcome{ScreeningResult: result}
	rec, err := s.newRecord(result, nil)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		if err := s.deps.Records.CreateRecord(ctx, rec); err != nil {
			s.logger.Error("failed to persist screening record",
				zap.String("record_id", rec.RecordID.String()),
				zap.Error(err))
			return nil, fmt.Errorf("record persistence failed: %w", err)
		}
		out.RecordID = &rec.RecordID
		s.asyncIndex(rec)
	}

	s.cacheResult(ctx, fingerprint, result)
	s.alert(ctx, rec, result)
	return out, nil
}

// ScreenBatch screens profiles with settle-all semantics, records every
// successful item under one batch ID and archives the settled batch
func (s *ScreeningService) ScreenBatch(ctx context.Context, profiles []domain.ClientProfile, opts screening.ScreenOptions) (*BatchOutcome, error) {
	batchID := uuid.New()
	items := s.engine.BatchScreen(ctx, profiles, screening.BatchOptions{
		ScreenOptions: s.Options(opts),
		BatchSize:     s.deps.BatchSize,
	})

	out := &BatchOutcome{BatchID: batchID, Items: items}
	var (
		records []*domain.ScreeningRecord
		indices []int
	)
	for _, item := range items {
		if item.Result == nil {
			out.Failed++
			continue
		}
		out.Succeeded++

		rec, err := s.newRecord(item.Result, &batchID)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, rec)
			indices = append(indices, item.Index)
		}
	}

	if len(records) > 0 {
		if err := s.deps.Records.CreateRecords(ctx, records); err != nil {
			return nil, fmt.Errorf("batch record persistence failed: %w", err)
		}
		out.RecordIDs = make(map[int]uuid.UUID, len(records))
		for i, rec := range records {
			out.RecordIDs[indices[i]] = rec.RecordID
			s.asyncIndex(rec)
			s.alert(ctx, rec, rec.Result)
		}
	} else {
		for _, item := range items {
			if item.Result != nil {
				s.alert(ctx, nil, item.Result)
			}
		}
	}

	if s.deps.Archive != nil {
		if err := s.deps.Archive.ArchiveBatch(ctx, batchID, items); err != nil {
			s.logger.Error("failed to archive batch", zap.String("batch_id", batchID.String()), zap.Error(err))
		}
	}

	s.logger.Info("batch screening completed",
		zap.String("batch_id", batchID.String()),
		zap.Int("profiles", len(profiles)),
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", out.Failed))
	return out, nil
}

// Stats reports the cached watchlist data
func (s *ScreeningService) Stats() domain.Stats {
	return s.engine.GetStats()
}

// Refresh reloads every watchlist, logs each outcome and drops cached
// results when any list changed
func (s *ScreeningService) Refresh(ctx context.Context, trigger string) []domain.RefreshStatus {
	statuses := s.engine.RefreshAllData(ctx)

	counts := make(map[string]int)
	for _, svc := range s.engine.GetStats().Services {
		counts[svc.Name] = svc.TotalEntries
	}

	refreshed := false
	now := time.Now().UTC()
	for _, st := range statuses {
		entry := &domain.RefreshLogEntry{
			RefreshID: uuid.New(),
			Source:    st.Service,
			Status:    st.Status,
			Trigger:   trigger,
			Timestamp: now,
		}
		if st.Status == domain.RefreshStatusSuccess {
			refreshed = true
			entry.EntityCount = counts[st.Service]
		} else {
			msg := st.Error
			entry.ErrorMessage = &msg
		}

		if s.deps.RefreshLog != nil {
			if err := s.deps.RefreshLog.LogRefresh(ctx, entry); err != nil {
				s.logger.Error("failed to log refresh", zap.String("source", st.Service), zap.Error(err))
			}
		}
	}

	if refreshed && s.deps.Cache != nil {
		removed, err := s.deps.Cache.Invalidate(ctx)
		if err != nil {
			s.logger.Warn("failed to invalidate cached results", zap.Error(err))
		} else {
			s.logger.Info("cached results invalidated", zap.Int("removed", removed))
		}
	}
	return statuses
}

// RefreshHistory returns the latest logged refresh attempts of source
func (s *ScreeningService) RefreshHistory(ctx context.Context, source string, limit int) ([]*domain.RefreshLogEntry, error) {
	if s.deps.RefreshLog == nil {
		return nil, fmt.Errorf("refresh log: %w", ErrNotEnabled)
	}
	entries, err := s.deps.RefreshLog.LatestRefreshes(ctx, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh history of %s: %w", source, err)
	}
	if entries == nil {
		entries = []*domain.RefreshLogEntry{}
	}
	return entries, nil
}

// GetRecord loads a stored record and verifies its signature
func (s *ScreeningService) GetRecord(ctx context.Context, id uuid.UUID) (*domain.ScreeningRecord, error) {
	if s.deps.Records == nil {
		return nil, fmt.Errorf("screening records: %w", ErrNotEnabled)
	}
	rec, err := s.deps.Records.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.verify(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecords returns a page of verified records
func (s *ScreeningService) ListRecords(ctx context.Context, filter domain.ScreeningRecordFilter) (*domain.ScreeningRecordPage, error) {
	if s.deps.Records == nil {
		return nil, fmt.Errorf("screening records: %w", ErrNotEnabled)
	}
	page, err := s.deps.Records.ListRecords(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, rec := range page.Records {
		if err := s.verify(rec); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// SearchRecords runs a full text query over indexed results
func (s *ScreeningService) SearchRecords(ctx context.Context, query string, from, size int) (*elasticsearch.ResultPage, error) {
	if s.deps.Index == nil {
		return nil, fmt.Errorf("result search: %w", ErrNotEnabled)
	}
	return s.deps.Index.SearchRecords(ctx, query, from, size)
}

// OpenProfile decrypts the profile sealed into rec
func (s *ScreeningService) OpenProfile(rec *domain.ScreeningRecord) (*domain.ClientProfile, error) {
	if s.deps.Sealer == nil {
		return nil, fmt.Errorf("record sealing: %w", ErrNotEnabled)
	}
	plain, err := s.deps.Sealer.Open(rec.SealedProfile, rec.EncryptionKeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile of %s: %w", rec.RecordID, err)
	}
	var p domain.ClientProfile
	if err := json.Unmarshal(plain, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile of %s: %w", rec.RecordID, err)
	}
	return &p, nil
}

// Wait blocks until background indexing has finished
func (s *ScreeningService) Wait() {
	s.wg.Wait()
}

// newRecord builds a signed record with the profile sealed. It returns nil
// when records are disabled.
func (s *ScreeningService) newRecord(result *domain.ScreeningResult, batchID *uuid.UUID) (*domain.ScreeningRecord, error) {
	if s.deps.Records == nil || s.deps.Sealer == nil {
		return nil, nil
	}

	rec := domain.NewScreeningRecord(result)
	rec.BatchID = batchID
	rec.SubjectName = s.mask(rec.SubjectName)

	profile, err := json.Marshal(result.EntityQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	sealed, version, err := s.deps.Sealer.Seal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to seal profile: %w", err)
	}
	rec.SealedProfile = sealed
	rec.EncryptionKeyID = version
	rec.DigitalSignature = s.deps.Sealer.SignRecord(rec.RecordID, rec.ExternalID, rec.RiskScore,
		string(rec.Recommendation), rec.ScreenedAt)
	return rec, nil
}

func (s *ScreeningService) verify(rec *domain.ScreeningRecord) error {
	if s.deps.Sealer == nil {
		return nil
	}
	if !s.deps.Sealer.VerifyRecord(rec.RecordID, rec.ExternalID, rec.RiskScore,
		string(rec.Recommendation), rec.ScreenedAt, rec.DigitalSignature) {
		s.logger.Error("CRYPTOGRAPHIC VALIDATION FAILURE",
			zap.String("record_id", rec.RecordID.String()),
			zap.String("reason", "Signature mismatch - POTENTIAL TAMPERING DETECTED"))
		return fmt.Errorf("%w: record %s signature invalid", ErrIntegrity, rec.RecordID)
	}
	return nil
}

func (s *ScreeningService) fingerprint(profile domain.ClientProfile, opts screening.ScreenOptions) string {
	if s.deps.Cache == nil || s.deps.Sealer == nil {
		return ""
	}
	data, err := json.Marshal(struct {
		Profile domain.ClientProfile    `json:"profile"`
		Options screening.ScreenOptions `json:"options"`
	}{profile, opts})
	if err != nil {
		return ""
	}
	return s.deps.Sealer.Fingerprint(data)
}

func (s *ScreeningService) cachedResult(ctx context.Context, fingerprint string) *domain.ScreeningResult {
	if fingerprint == "" {
		return nil
	}
	result, err := s.deps.Cache.Get(ctx, fingerprint)
	if err != nil {
		s.logger.Warn("result cache lookup failed", zap.Error(err))
		s.deps.Metrics.IncrementResultCache("error")
		return nil
	}
	if result == nil {
		s.deps.Metrics.IncrementResultCache("miss")
		return nil
	}
	s.deps.Metrics.IncrementResultCache("hit")
	return result
}

func (s *ScreeningService) cacheResult(ctx context.Context, fingerprint string, result *domain.ScreeningResult) {
	if fingerprint == "" || s.deps.CacheTTL <= 0 {
		return
	}
	if err := s.deps.Cache.Set(ctx, fingerprint, result, s.deps.CacheTTL); err != nil {
		s.logger.Warn("failed to cache screening result", zap.Error(err))
	}
}

// asyncIndex handles background indexing with panic protection
func (s *ScreeningService) asyncIndex(rec *domain.ScreeningRecord) {
	if s.deps.Index == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Panic in async index", zap.Any("panic", r))
			}
		}()

		asyncCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.deps.Index.IndexRecord(asyncCtx, rec); err != nil {
			s.logger.Error("Failed to index screening record",
				zap.String("record_id", rec.RecordID.String()),
				zap.Error(err))
		}
	}()
}

func (s *ScreeningService) alert(ctx context.Context, rec *domain.ScreeningRecord, result *domain.ScreeningResult) {
	if s.deps.Alerts == nil || !result.Summary.Recommendation.RequiresAction() {
		return
	}

	alert := &domain.ScreeningAlert{
		AlertID:        uuid.New(),
		ExternalID:     result.EntityQuery.ExternalID,
		SubjectName:    s.mask(result.EntityQuery.DisplayName()),
		RiskScore:      result.Summary.RiskScore,
		Recommendation: result.Summary.Recommendation,
		RaisedAt:       time.Now().UTC(),
	}
	if rec != nil {
		alert.RecordID = rec.RecordID
	}
	for i, m := range result.Matches {
		if i == maxAlertMatches {
			break
		}
		alert.TopMatches = append(alert.TopMatches, domain.AlertMatch{
			Source:             m.Source,
			EntityUID:          m.Entity.UID,
			MatchedValue:       m.MatchedValue,
			WeightedConfidence: m.WeightedConfidence,
			RiskLevel:          m.RiskLevel,
		})
	}

	if err := s.deps.Alerts.PublishAlert(ctx, alert); err != nil {
		s.logger.Error("failed to publish screening alert",
			zap.String("alert_id", alert.AlertID.String()),
			zap.Error(err))
	}
}
