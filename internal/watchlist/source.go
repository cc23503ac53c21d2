// Package watchlist ingests sanctions feeds into canonical entities and
// searches the cached entity sets by name.
package watchlist

import (
	"context"
	"time"

	"github.com/banking/sanctions-screening/internal/domain"
)

// Source is one searchable watchlist. Implementations must be safe for
// concurrent use.
type Source interface {
	Name() string

	// Search returns every listed entity whose best name similarity to term is
	// at least threshold, highest confidence first
	Search(ctx context.Context, term string, threshold float64) ([]domain.MatchCandidate, error)

	// Refresh downloads and parses the feed and swaps it into the cache. On
	// failure the previous snapshot stays in use.
	Refresh(ctx context.Context) error

	Stats() domain.SourceStats
}

// SnapshotStore keeps a copy of every raw feed that was parsed successfully
type SnapshotStore interface {
	StoreFeed(ctx context.Context, source string, fetchedAt time.Time, raw []byte) error
}
