package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/sanctions-screening/internal/watchlist"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.Screening.Threshold)
	assert.Equal(t, 50, cfg.Screening.MaxResults)
	assert.Equal(t, 10, cfg.Screening.BatchSize)
	assert.True(t, cfg.Screening.IncludeAliases)
	assert.Equal(t, 15*time.Minute, cfg.Screening.ResultCacheTTL)

	assert.Equal(t, 24*time.Hour, cfg.Sources.StaleAfter)
	assert.Equal(t, int64(512<<20), cfg.Sources.MaxFeedBytes)
	assert.Equal(t, watchlist.OFACSDNURL, cfg.Sources.OFAC.URL)
	assert.Equal(t, watchlist.UNConsolidatedURL, cfg.Sources.UN.URL)
	assert.Equal(t, 1.0, cfg.Sources.UN.Weight)

	assert.Equal(t, "0 2 * * *", cfg.Scheduler.RefreshSchedule)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCREENING_SCREENING_THRESHOLD", "0.9")
	t.Setenv("SCREENING_SOURCES_OFAC_URL", "http://mirror.internal/sdn.xml")
	t.Setenv("SCREENING_SOURCES_STALE_AFTER", "6h")
	t.Setenv("SCREENING_SERVER_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Screening.Threshold)
	assert.Equal(t, "http://mirror.internal/sdn.xml", cfg.Sources.OFAC.URL)
	assert.Equal(t, 6*time.Hour, cfg.Sources.StaleAfter)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestScreenOptions(t *testing.T) {
	cfg := &Config{Screening: ScreeningConfig{Threshold: 0.75, MaxResults: 20, IncludeAliases: false}}
	opts := cfg.ScreenOptions()

	assert.Equal(t, 0.75, opts.Threshold)
	assert.Equal(t, 20, opts.MaxResults)
	require.NotNil(t, opts.IncludeAliases)
	assert.False(t, *opts.IncludeAliases)
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "screening_db", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=screening_db sslmode=disable", db.DSN())
}
