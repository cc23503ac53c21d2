package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/banking/sanctions-screening/internal/domain"
)

// RefreshLogRepository records watchlist refresh attempts
type RefreshLogRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshLogRepository creates a new refresh log repository
func NewRefreshLogRepository(pool *pgxpool.Pool) *RefreshLogRepository {
	return &RefreshLogRepository{pool: pool}
}

// LogRefresh appends one refresh outcome
func (r *RefreshLogRepository) LogRefresh(ctx context.Context, entry *domain.RefreshLogEntry) error {
	const query = `
		INSERT INTO refresh_log (
			refresh_id, source, status, error_message, entity_count, trigger, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.RefreshID, entry.Source, entry.Status, entry.ErrorMessage,
		entry.EntityCount, entry.Trigger, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert refresh log: %w", err)
	}
	return nil
}

// LatestRefreshes returns the most recent attempts of source, newest first
func (r *RefreshLogRepository) LatestRefreshes(ctx context.Context, source string, limit int) ([]*domain.RefreshLogEntry, error) {
	const query = `
		SELECT refresh_id, source, status, error_message, entity_count, trigger, timestamp
		FROM refresh_log
		WHERE source = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh log: %w", err)
	}
	defer rows.Close()

	var entries []*domain.RefreshLogEntry
	for rows.Next() {
		var e domain.RefreshLogEntry
		if err := rows.Scan(&e.RefreshID, &e.Source, &e.Status, &e.ErrorMessage, &e.EntityCount, &e.Trigger, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan refresh log: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
