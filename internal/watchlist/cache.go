package watchlist

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/banking/sanctions-screening/internal/domain"
)

// DefaultStaleAfter is how long a snapshot is served before a search triggers a refresh
const DefaultStaleAfter = 24 * time.Hour

// Snapshot is the entity set of one source as of its last successful refresh
type Snapshot struct {
	Source        string
	Entities      []domain.SanctionedEntity
	LastRefreshed time.Time
}

// SourceCache holds the latest snapshot per source. Snapshots are replaced
// wholesale, so a reader sees either the previous set or the new one.
type SourceCache struct {
	mu         sync.RWMutex
	entries    map[string]*atomic.Pointer[Snapshot]
	staleAfter time.Duration
	now        func() time.Time
}

// NewSourceCache creates an empty cache. A non-positive staleAfter uses DefaultStaleAfter.
func NewSourceCache(staleAfter time.Duration) *SourceCache {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &SourceCache{
		entries:    make(map[string]*atomic.Pointer[Snapshot]),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (c *SourceCache) slot(source string) *atomic.Pointer[Snapshot] {
	c.mu.RLock()
	p, ok := c.entries[source]
	c.mu.RUnlock()
	if ok {
		return p
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok = c.entries[source]; !ok {
		p = new(atomic.Pointer[Snapshot])
		c.entries[source] = p
	}
	return p
}

// Get returns the current snapshot of source, or nil if it was never loaded
func (c *SourceCache) Get(source string) *Snapshot {
	return c.slot(source).Load()
}

// Store swaps in a new entity set for source, stamped with the current time
func (c *SourceCache) Store(source string, entities []domain.SanctionedEntity) *Snapshot {
	snap := &Snapshot{Source: source, Entities: entities, LastRefreshed: c.now()}
	c.slot(source).Store(snap)
	return snap
}

// IsStale reports whether source has no snapshot or one older than the staleness window
func (c *SourceCache) IsStale(source string) bool {
	snap := c.Get(source)
	if snap == nil {
		return true
	}
	return c.now().Sub(snap.LastRefreshed) > c.staleAfter
}

// StaleAfter returns the configured staleness window
func (c *SourceCache) StaleAfter() time.Duration {
	return c.staleAfter
}
