package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/banking/sanctions-screening/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS screening_records (
	record_id          UUID PRIMARY KEY,
	batch_id           UUID,
	external_id        TEXT NOT NULL DEFAULT '',
	subject_name       TEXT NOT NULL,
	risk_score         INTEGER NOT NULL,
	recommendation     TEXT NOT NULL,
	total_matches      INTEGER NOT NULL,
	high_risk_matches  INTEGER NOT NULL,
	sources            TEXT[] NOT NULL DEFAULT '{}',
	result             JSONB NOT NULL,
	sealed_profile     TEXT NOT NULL,
	digital_signature  TEXT NOT NULL,
	encryption_key_id  INTEGER NOT NULL,
	screened_at        TIMESTAMPTZ NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS screening_records_external_id_idx ON screening_records (external_id);
CREATE INDEX IF NOT EXISTS screening_records_batch_id_idx ON screening_records (batch_id);
CREATE INDEX IF NOT EXISTS screening_records_screened_at_idx ON screening_records (screened_at DESC);

CREATE TABLE IF NOT EXISTS refresh_log (
	refresh_id     UUID PRIMARY KEY,
	source         TEXT NOT NULL,
	status         TEXT NOT NULL,
	error_message  TEXT,
	entity_count   INTEGER NOT NULL DEFAULT 0,
	trigger        TEXT NOT NULL,
	timestamp      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS refresh_log_source_idx ON refresh_log (source, timestamp DESC);
`

// NewPool opens a connection pool sized from cfg
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the screening tables if they do not exist
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
