// Package screening screens client profiles against every registered
// watchlist and aggregates the matches into a risk recommendation.
package screening

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/banking/sanctions-screening/internal/domain"
	"github.com/banking/sanctions-screening/internal/metrics"
	"github.com/banking/sanctions-screening/internal/watchlist"
)

// Defaults
const (
	DefaultThreshold   = 0.8
	DefaultMaxResults  = 50
	DefaultBatchSize   = 10
	DefaultSearchLimit = 8
)

// Registration adds a source to the engine. Candidate confidences from the
// source are multiplied by Weight; a non-positive weight counts as 1.
type Registration struct {
	Source watchlist.Source
	Weight float64
}

// ScreenOptions tunes a single screening. Zero values take the defaults.
type ScreenOptions struct {
	Threshold      float64
	IncludeAliases *bool
	MaxResults     int
}

func (o ScreenOptions) withDefaults() ScreenOptions {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.IncludeAliases == nil {
		include := true
		o.IncludeAliases = &include
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	return o
}

// BatchOptions tunes BatchScreen
type BatchOptions struct {
	ScreenOptions
	BatchSize int
}

// Engine fans a profile's search terms out over the registered sources
type Engine struct {
	sources     []Registration
	searchLimit int
	metrics     *metrics.Metrics
	logger      *zap.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEngine creates an engine searching regs in the given order
func NewEngine(logger *zap.Logger, m *metrics.Metrics, regs ...Registration) *Engine {
	sources := make([]Registration, 0, len(regs))
	for _, r := range regs {
		if r.Source == nil {
			continue
		}
		if r.Weight <= 0 {
			r.Weight = 1
		}
		sources = append(sources, r)
	}

	return &Engine{
		sources:     sources,
		searchLimit: DefaultSearchLimit,
		metrics:     m,
		logger:      logger,
		tracer:      otel.Tracer("github.com/banking/sanctions-screening/internal/screening"),
		now:         time.Now,
	}
}

// SetSearchLimit bounds the concurrent source searches of one screening
func (e *Engine) SetSearchLimit(n int) {
	if n > 0 {
		e.searchLimit = n
	}
}

// Sources returns the names of the registered sources
func (e *Engine) Sources() []string {
	names := make([]string, len(e.sources))
	for i, r := range e.sources {
		names[i] = r.Source.Name()
	}
	return names
}

// ScreenEntity searches every term of profile in every source. A failing or
// panicking source is logged and contributes no matches. The only error
// returned is the context's.
func (e *Engine) ScreenEntity(ctx context.Context, profile domain.ClientProfile, opts ScreenOptions) (*domain.ScreeningResult, error) {
	opts = opts.withDefaults()
	start := e.now()

	ctx, span := e.tracer.Start(ctx, "screening.screen_entity", trace.WithAttributes(
		attribute.Float64("threshold", opts.Threshold),
		attribute.Int("sources", len(e.sources)),
	))
	defer span.End()

	terms := ExtractSearchTerms(profile, *opts.IncludeAliases)
	span.SetAttributes(attribute.Int("terms", len(terms)))

	if len(terms) == 0 {
		e.logger.Warn("screening skipped",
			zap.Error(domain.NewValidationError("profile yields no search terms", nil)))
		return e.finish(profile, nil, start), nil
	}

	// one slot per (term, source) keeps the merge order independent of completion order
	slots := make([][]domain.WeightedMatch, len(terms)*len(e.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.searchLimit)
	for ti, term := range terms {
		for si, reg := range e.sources {
			term, reg := term, reg
			slot := ti*len(e.sources) + si
			g.Go(func() error {
				// a panicking source is treated like a failing one: its slot stays empty
				defer func() {
					if r := recover(); r != nil {
						err := domain.NewSearchError(reg.Source.Name(), "search panicked",
							fmt.Errorf("searching %q: %v", term, r))
						e.metrics.ObserveSourceSearch(reg.Source.Name(), 0, err)
						e.logger.Error("source search panicked",
							zap.String("source", reg.Source.Name()),
							zap.Error(err),
							zap.ByteString("stack", debug.Stack()))
					}
				}()
				matches, err := e.search(gctx, reg, term, opts.Threshold)
				if err != nil {
					return err
				}
				slots[slot] = matches
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var matches []domain.WeightedMatch
	for _, s := range slots {
		matches = append(matches, s...)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].WeightedConfidence > matches[j].WeightedConfidence
	})
	if len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}

	result := e.finish(profile, matches, start)
	span.SetAttributes(
		attribute.Int("matches", result.Summary.TotalMatches),
		attribute.Int("risk_score", result.Summary.RiskScore),
		attribute.String("recommendation", string(result.Summary.Recommendation)),
	)
	return result, nil
}

// search queries one source. Source failures are swallowed; only context
// errors are returned.
func (e *Engine) search(ctx context.Context, reg Registration, term string, threshold float64) ([]domain.WeightedMatch, error) {
	name := reg.Source.Name()
	began := e.now()

	candidates, err := reg.Source.Search(ctx, term, threshold)
	e.metrics.ObserveSourceSearch(name, e.now().Sub(began), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !domain.IsCategory(err, domain.ErrorSearch) {
			err = domain.NewSearchError(name, "search failed", err)
		}
		e.logger.Error("source search failed", zap.String("source", name), zap.Error(err))
		return nil, nil
	}

	matches := make([]domain.WeightedMatch, 0, len(candidates))
	for _, c := range candidates {
		weighted := min(c.Confidence*reg.Weight, 1)
		matches = append(matches, domain.WeightedMatch{
			MatchCandidate:     c,
			Source:             name,
			SearchTerm:         term,
			WeightedConfidence: weighted,
			RiskLevel:          domain.RiskLevelFor(weighted),
		})
	}
	return matches, nil
}

func (e *Engine) finish(profile domain.ClientProfile, matches []domain.WeightedMatch, start time.Time) *domain.ScreeningResult {
	if matches == nil {
		matches = []domain.WeightedMatch{}
	}
	result := &domain.ScreeningResult{
		EntityQuery: profile,
		Matches:     matches,
		Summary:     Summarize(matches),
		Timestamp:   e.now().UTC(),
	}

	e.metrics.IncrementScreening(string(result.Summary.Recommendation))
	e.metrics.ObserveScreeningLatency(e.now().Sub(start))
	return result
}

// BatchScreen screens profiles in consecutive batches of opts.BatchSize. The
// profiles of one batch are screened concurrently and each settles on its
// own: a failing profile records its error without affecting its neighbours.
// Items come back in input order.
func (e *Engine) BatchScreen(ctx context.Context, profiles []domain.ClientProfile, opts BatchOptions) []domain.BatchItem {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	items := make([]domain.BatchItem, len(profiles))
	for i, p := range profiles {
		items[i] = domain.BatchItem{Index: i, Profile: p}
	}

	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))

		if err := ctx.Err(); err != nil {
			for i := start; i < len(items); i++ {
				items[i].Err, items[i].Error = err, err.Error()
			}
			break
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			item := &items[i]
			g.Go(func() error {
				result, err := e.screenItem(ctx, item.Profile, opts.ScreenOptions)
				if err != nil {
					item.Err, item.Error = err, err.Error()
					e.logger.Warn("batch item failed", zap.Int("index", item.Index), zap.Error(err))
					return nil
				}
				item.Result = result
				return nil
			})
		}
		_ = g.Wait()

		e.logger.Debug("batch screened", zap.Int("from", start), zap.Int("to", end))
	}

	return items
}

// screenItem isolates a batch item from panics outside the source fan-out
func (e *Engine) screenItem(ctx context.Context, p domain.ClientProfile, opts ScreenOptions) (result *domain.ScreeningResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("screening panicked: %v", r)
		}
	}()
	return e.ScreenEntity(ctx, p, opts)
}

// GetStats reports every source's cached entity count and the latest refresh
func (e *Engine) GetStats() domain.Stats {
	stats := domain.Stats{Services: make([]domain.SourceStats, 0, len(e.sources))}
	for _, r := range e.sources {
		s := r.Source.Stats()
		stats.Services = append(stats.Services, s)
		stats.TotalEntries += s.TotalEntries
		if s.LastUpdate != nil && (stats.LastUpdate == nil || s.LastUpdate.After(*stats.LastUpdate)) {
			last := *s.LastUpdate
			stats.LastUpdate = &last
		}
	}
	return stats
}

// RefreshAllData refreshes the sources one after another in registration
// order. A failed refresh is reported and the next source is still tried.
func (e *Engine) RefreshAllData(ctx context.Context) []domain.RefreshStatus {
	statuses := make([]domain.RefreshStatus, 0, len(e.sources))
	for _, r := range e.sources {
		status := domain.RefreshStatus{Service: r.Source.Name(), Status: domain.RefreshStatusSuccess}
		if err := r.Source.Refresh(ctx); err != nil {
			status.Status = domain.RefreshStatusError
			status.Error = err.Error()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				e.logger.Warn("refresh interrupted", zap.String("source", status.Service), zap.Error(err))
			}
		}
		statuses = append(statuses, status)
	}
	return statuses
}
