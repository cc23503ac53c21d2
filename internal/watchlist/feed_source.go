package watchlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/banking/sanctions-screening/internal/domain"
	"github.com/banking/sanctions-screening/internal/metrics"
)

// DefaultFailureBackoff is how long a failed refresh suppresses further
// refresh attempts triggered by searches
const DefaultFailureBackoff = 5 * time.Minute

// FeedConfig wires one downloadable watchlist
type FeedConfig struct {
	Name    string
	URL     string
	Fetcher Fetcher
	Parse   Parser
	Cache   *SourceCache

	// Optional
	Snapshots      SnapshotStore
	Metrics        *metrics.Metrics
	FailureBackoff time.Duration
}

// FeedSource is a Source backed by a downloadable XML feed
type FeedSource struct {
	name           string
	url            string
	fetcher        Fetcher
	parse          Parser
	cache          *SourceCache
	snapshots      SnapshotStore
	metrics        *metrics.Metrics
	failureBackoff time.Duration
	logger         *zap.Logger
	tracer         trace.Tracer
	group          singleflight.Group
	now            func() time.Time

	mu          sync.Mutex
	lastFailure time.Time
	lastErr     error
}

// NewFeedSource creates a source. Name, URL, Fetcher, Parse and Cache are required.
func NewFeedSource(cfg FeedConfig, logger *zap.Logger) (*FeedSource, error) {
	switch {
	case cfg.Name == "":
		return nil, fmt.Errorf("feed source requires a name")
	case cfg.URL == "":
		return nil, fmt.Errorf("feed source %s requires a url", cfg.Name)
	case cfg.Fetcher == nil || cfg.Parse == nil:
		return nil, fmt.Errorf("feed source %s requires a fetcher and a parser", cfg.Name)
	case cfg.Cache == nil:
		return nil, fmt.Errorf("feed source %s requires a cache", cfg.Name)
	}
	if cfg.FailureBackoff <= 0 {
		cfg.FailureBackoff = DefaultFailureBackoff
	}

	return &FeedSource{
		name:           cfg.Name,
		url:            cfg.URL,
		fetcher:        cfg.Fetcher,
		parse:          cfg.Parse,
		cache:          cfg.Cache,
		snapshots:      cfg.Snapshots,
		metrics:        cfg.Metrics,
		failureBackoff: cfg.FailureBackoff,
		logger:         logger.With(zap.String("source", cfg.Name)),
		tracer:         otel.Tracer("github.com/banking/sanctions-screening/internal/watchlist"),
		now:            time.Now,
	}, nil
}

func (s *FeedSource) Name() string {
	return s.name
}

// Refresh downloads and parses the feed. Concurrent calls share one download.
func (s *FeedSource) Refresh(ctx context.Context) error {
	return s.shared(ctx, s.refresh)
}

// refreshIfStale re-checks staleness inside the shared flight so searches
// queued behind a finished refresh do not download again
func (s *FeedSource) refreshIfStale(ctx context.Context) error {
	return s.shared(ctx, func(ctx context.Context) error {
		if !s.cache.IsStale(s.name) {
			return nil
		}
		return s.refresh(ctx)
	})
}

// shared runs fn once for all concurrent callers. The flight is detached from
// the caller that started it, so cancelling one caller never fails the others;
// the fetcher's own timeout still bounds it.
func (s *FeedSource) shared(ctx context.Context, fn func(context.Context) error) error {
	ch := s.group.DoChan("refresh", func() (any, error) {
		return nil, fn(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *FeedSource) refresh(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "watchlist.refresh", trace.WithAttributes(attribute.String("source", s.name)))
	defer span.End()

	fetchedAt := s.now()
	raw, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return s.refreshFailed(span, domain.NewFetchError(s.name, "feed download failed", err))
	}

	entities, err := s.parse(raw, fetchedAt, s.logger)
	if err != nil {
		if !domain.IsCategory(err, domain.ErrorParse) {
			err = domain.NewParseError(s.name, "feed could not be parsed", err)
		}
		return s.refreshFailed(span, err)
	}
	if len(entities) == 0 {
		return s.refreshFailed(span, domain.NewParseError(s.name, "feed contained no entities", nil))
	}

	s.cache.Store(s.name, entities)
	s.mu.Lock()
	s.lastFailure, s.lastErr = time.Time{}, nil
	s.mu.Unlock()

	s.metrics.IncrementRefresh(s.name, domain.RefreshStatusSuccess)
	s.metrics.SetCachedEntities(s.name, len(entities))
	span.SetAttributes(attribute.Int("entities", len(entities)))

	if s.snapshots != nil {
		if err := s.snapshots.StoreFeed(ctx, s.name, fetchedAt, raw); err != nil {
			s.logger.Warn("failed to archive feed snapshot", zap.Error(err))
		}
	}

	s.logger.Info("watchlist refreshed",
		zap.Int("entities", len(entities)),
		zap.Int("bytes", len(raw)),
		zap.Duration("took", s.now().Sub(fetchedAt)))
	return nil
}

func (s *FeedSource) refreshFailed(span trace.Span, err error) error {
	s.mu.Lock()
	s.lastFailure, s.lastErr = s.now(), err
	s.mu.Unlock()

	s.metrics.IncrementRefresh(s.name, domain.RefreshStatusError)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error("watchlist refresh failed", zap.Error(err))
	return err
}

// recentFailure returns the last refresh error if it happened within the backoff window
func (s *FeedSource) recentFailure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr != nil && s.now().Sub(s.lastFailure) < s.failureBackoff {
		return s.lastErr
	}
	return nil
}

// snapshot returns the entity set to search, refreshing it first when stale.
// A failed refresh falls back to the previous snapshot if there is one.
func (s *FeedSource) snapshot(ctx context.Context) (*Snapshot, error) {
	if !s.cache.IsStale(s.name) {
		return s.cache.Get(s.name), nil
	}

	err := s.recentFailure()
	if err == nil {
		err = s.refreshIfStale(ctx)
	}
	if err == nil {
		return s.cache.Get(s.name), nil
	}

	if snap := s.cache.Get(s.name); snap != nil {
		s.logger.Warn("searching stale watchlist snapshot",
			zap.Time("last_refreshed", snap.LastRefreshed),
			zap.Error(err))
		return snap, nil
	}
	return nil, domain.NewSearchError(s.name, "no watchlist data available", err)
}

// Search scores every cached entity against term
func (s *FeedSource) Search(ctx context.Context, term string, threshold float64) ([]domain.MatchCandidate, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return searchEntities(snap.Entities, term, threshold), nil
}

// Stats describes the current snapshot
func (s *FeedSource) Stats() domain.SourceStats {
	stats := domain.SourceStats{Name: s.name}
	if snap := s.cache.Get(s.name); snap != nil {
		stats.TotalEntries = len(snap.Entities)
		last := snap.LastRefreshed
		stats.LastUpdate = &last
	}
	return stats
}

// NewOFACSource wires the OFAC SDN feed
func NewOFACSource(url string, fetcher Fetcher, cache *SourceCache, logger *zap.Logger, opts ...FeedOption) (*FeedSource, error) {
	if url == "" {
		url = OFACSDNURL
	}
	return newSource(FeedConfig{Name: domain.SourceOFAC, URL: url, Fetcher: fetcher, Parse: ParseOFAC, Cache: cache}, logger, opts)
}

// NewOFACConsolidatedSource wires OFAC's non-SDN consolidated list, which
// shares the SDN advanced format
func NewOFACConsolidatedSource(url string, fetcher Fetcher, cache *SourceCache, logger *zap.Logger, opts ...FeedOption) (*FeedSource, error) {
	if url == "" {
		url = OFACConsolidatedURL
	}
	return newSource(FeedConfig{Name: domain.SourceOFACConsolidated, URL: url, Fetcher: fetcher, Parse: ParseOFACConsolidated, Cache: cache}, logger, opts)
}

// NewUNSource wires the UN consolidated list feed
func NewUNSource(url string, fetcher Fetcher, cache *SourceCache, logger *zap.Logger, opts ...FeedOption) (*FeedSource, error) {
	if url == "" {
		url = UNConsolidatedURL
	}
	return newSource(FeedConfig{Name: domain.SourceUN, URL: url, Fetcher: fetcher, Parse: ParseUN, Cache: cache}, logger, opts)
}

// FeedOption sets an optional FeedConfig field
type FeedOption func(*FeedConfig)

func WithSnapshotStore(store SnapshotStore) FeedOption {
	return func(c *FeedConfig) { c.Snapshots = store }
}

func WithMetrics(m *metrics.Metrics) FeedOption {
	return func(c *FeedConfig) { c.Metrics = m }
}

func WithFailureBackoff(d time.Duration) FeedOption {
	return func(c *FeedConfig) { c.FailureBackoff = d }
}

func newSource(cfg FeedConfig, logger *zap.Logger, opts []FeedOption) (*FeedSource, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewFeedSource(cfg, logger)
}
