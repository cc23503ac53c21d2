package watchlist

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/sanctions-screening/internal/domain"
)

func TestSourceCacheStaleness(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewSourceCache(time.Hour)
	c.now = func() time.Time { return now }

	assert.True(t, c.IsStale("OFAC"))
	assert.Nil(t, c.Get("OFAC"))

	snap := c.Store("OFAC", []domain.SanctionedEntity{{UID: "1"}})
	assert.Equal(t, now, snap.LastRefreshed)
	assert.False(t, c.IsStale("OFAC"))

	now = now.Add(time.Hour + time.Second)
	assert.True(t, c.IsStale("OFAC"))
	require.NotNil(t, c.Get("OFAC"))
	assert.Len(t, c.Get("OFAC").Entities, 1)
}

func TestSourceCacheDefaults(t *testing.T) {
	assert.Equal(t, DefaultStaleAfter, NewSourceCache(0).StaleAfter())
}

func TestSourceCacheSwapIsWholesale(t *testing.T) {
	c := NewSourceCache(time.Hour)
	small := []domain.SanctionedEntity{{UID: "a"}}
	large := []domain.SanctionedEntity{{UID: "a"}, {UID: "b"}, {UID: "c"}}
	c.Store("UN", small)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Store("UN", large)
			c.Store("UN", small)
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n := len(c.Get("UN").Entities)
				assert.True(t, n == 1 || n == 3, "observed partial snapshot of %d", n)
			}
		}()
	}
	wg.Wait()
}
