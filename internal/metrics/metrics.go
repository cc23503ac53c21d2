package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for screening and watchlist ingestion.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Screening outcomes by recommendation
	Screenings *prometheus.CounterVec

	// Full ScreenEntity latency
	ScreeningLatency prometheus.Histogram

	// Per source search latency
	SourceSearchLatency *prometheus.HistogramVec

	// Per source search failures swallowed by the engine
	SourceSearchErrors *prometheus.CounterVec

	// Feed refresh outcomes by source and status
	Refreshes *prometheus.CounterVec

	// Entities currently cached per source
	CachedEntities *prometheus.GaugeVec

	// Result cache lookups by outcome (hit, miss, error)
	ResultCache *prometheus.CounterVec
}

// New registers all screening metrics with reg. A nil reg creates unregistered
// collectors, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Screenings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "screening_results_total",
			Help: "Total screenings by recommendation",
		}, []string{"recommendation"}),

		ScreeningLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "screening_duration_seconds",
			Help:    "Duration of a full entity screening across all sources",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		SourceSearchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screening_source_search_duration_seconds",
			Help:    "Duration of one search term against one watchlist source",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}),

		SourceSearchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "screening_source_search_errors_total",
			Help: "Source searches that failed and contributed no matches",
		}, []string{"source"}),

		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlist_refresh_total",
			Help: "Watchlist feed refreshes by source and status",
		}, []string{"source", "status"}),

		CachedEntities: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "watchlist_cached_entities",
			Help: "Sanctioned entities held in the cache per source",
		}, []string{"source"}),

		ResultCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "screening_result_cache_total",
			Help: "Result cache lookups by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementScreening records a screening outcome.
func (m *Metrics) IncrementScreening(recommendation string) {
	if m != nil {
		m.Screenings.WithLabelValues(recommendation).Inc()
	}
}

// ObserveScreeningLatency records the total screening duration.
func (m *Metrics) ObserveScreeningLatency(d time.Duration) {
	if m != nil {
		m.ScreeningLatency.Observe(d.Seconds())
	}
}

// ObserveSourceSearch records one source search and whether it failed.
func (m *Metrics) ObserveSourceSearch(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.SourceSearchLatency.WithLabelValues(source).Observe(d.Seconds())
	if err != nil {
		m.SourceSearchErrors.WithLabelValues(source).Inc()
	}
}

// IncrementRefresh records a feed refresh outcome.
func (m *Metrics) IncrementRefresh(source, status string) {
	if m != nil {
		m.Refreshes.WithLabelValues(source, status).Inc()
	}
}

// SetCachedEntities records the size of a source's current snapshot.
func (m *Metrics) SetCachedEntities(source string, n int) {
	if m != nil {
		m.CachedEntities.WithLabelValues(source).Set(float64(n))
	}
}

// IncrementResultCache records a result cache lookup.
func (m *Metrics) IncrementResultCache(outcome string) {
	if m != nil {
		m.ResultCache.WithLabelValues(outcome).Inc()
	}
}
