package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/banking/sanctions-screening/internal/domain"
)

// ErrRecordNotFound is returned when no screening record has the requested ID
var ErrRecordNotFound = errors.New("screening record not found")

const recordColumns = `
	record_id, batch_id, external_id, subject_name, risk_score,
	recommendation, total_matches, high_risk_matches, sources, result,
	sealed_profile, digital_signature, encryption_key_id, screened_at, created_at`

// ScreeningRepository stores the screening audit trail
type ScreeningRepository struct {
	pool *pgxpool.Pool
}

// NewScreeningRepository creates a new screening repository
func NewScreeningRepository(pool *pgxpool.Pool) *ScreeningRepository {
	return &ScreeningRepository{pool: pool}
}

// CreateRecord inserts a screening record. This is an APPEND-ONLY operation.
// No Updates or Deletes are ever performed on this table.
func (r *ScreeningRepository) CreateRecord(ctx context.Context, rec *domain.ScreeningRecord) error {
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to encode screening result: %w", err)
	}

	const query = `INSERT INTO screening_records (` + recordColumns + `) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15
	)`
	_, err = r.pool.Exec(ctx, query,
		rec.RecordID, rec.BatchID, rec.ExternalID, rec.SubjectName, rec.RiskScore,
		string(rec.Recommendation), rec.TotalMatches, rec.HighRiskMatches, rec.Sources, result,
		rec.SealedProfile, rec.DigitalSignature, rec.EncryptionKeyID, rec.ScreenedAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert screening record: %w", err)
	}
	return nil
}

// CreateRecords inserts the records of one batch in a single transaction
func (r *ScreeningRepository) CreateRecords(ctx context.Context, recs []*domain.ScreeningRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `INSERT INTO screening_records (` + recordColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
	)`
	batch := &pgx.Batch{}
	for _, rec := range recs {
		result, err := json.Marshal(rec.Result)
		if err != nil {
			return fmt.Errorf("failed to encode screening result %s: %w", rec.RecordID, err)
		}
		batch.Queue(query,
			rec.RecordID, rec.BatchID, rec.ExternalID, rec.SubjectName, rec.RiskScore,
			string(rec.Recommendation), rec.TotalMatches, rec.HighRiskMatches, rec.Sources, result,
			rec.SealedProfile, rec.DigitalSignature, rec.EncryptionKeyID, rec.ScreenedAt, rec.CreatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert screening records: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit screening records: %w", err)
	}
	return nil
}

// GetRecord loads one record by ID
func (r *ScreeningRepository) GetRecord(ctx context.Context, id uuid.UUID) (*domain.ScreeningRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recordColumns+` FROM screening_records WHERE record_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query screening record: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query screening record: %w", err)
		}
		return nil, ErrRecordNotFound
	}
	return scanRecord(rows)
}

// ListRecords retrieves records matching filter, newest first
func (r *ScreeningRepository) ListRecords(ctx context.Context, filter domain.ScreeningRecordFilter) (*domain.ScreeningRecordPage, error) {
	where, args := buildRecordFilter(filter)

	var totalCount int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM screening_records"+where, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count screening records: %w", err)
	}

	query := "SELECT " + recordColumns + " FROM screening_records" + where +
		fmt.Sprintf(" ORDER BY screened_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query screening records: %w", err)
	}
	defer rows.Close()

	var records []*domain.ScreeningRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read screening records: %w", err)
	}

	page := 1
	if filter.Limit > 0 {
		page = filter.Offset/filter.Limit + 1
	}
	return &domain.ScreeningRecordPage{
		Records:    records,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   filter.Limit,
		HasMore:    totalCount > int64(filter.Offset+filter.Limit),
	}, nil
}

// buildRecordFilter renders the WHERE clause of filter with positional arguments
func buildRecordFilter(filter domain.ScreeningRecordFilter) (string, []any) {
	var (
		where string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, len(args))
	}

	if filter.RecordID != nil {
		add("record_id = $%d", *filter.RecordID)
	}
	if filter.BatchID != nil {
		add("batch_id = $%d", *filter.BatchID)
	}
	if filter.ExternalID != nil {
		add("external_id = $%d", *filter.ExternalID)
	}
	if filter.Recommendation != nil {
		add("recommendation = $%d", string(*filter.Recommendation))
	}
	if filter.MinRiskScore != nil {
		add("risk_score >= $%d", *filter.MinRiskScore)
	}
	if filter.StartTime != nil {
		add("screened_at >= $%d", *filter.StartTime)
	}
	if filter.EndTime != nil {
		add("screened_at <= $%d", *filter.EndTime)
	}
	return where, args
}

func scanRecord(rows pgx.Rows) (*domain.ScreeningRecord, error) {
	var (
		rec            domain.ScreeningRecord
		recommendation string
		result         []byte
	)
	err := rows.Scan(
		&rec.RecordID, &rec.BatchID, &rec.ExternalID, &rec.SubjectName, &rec.RiskScore,
		&recommendation, &rec.TotalMatches, &rec.HighRiskMatches, &rec.Sources, &result,
		&rec.SealedProfile, &rec.DigitalSignature, &rec.EncryptionKeyID, &rec.ScreenedAt, &rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan screening record: %w", err)
	}
	rec.Recommendation = domain.Recommendation(recommendation)

	if len(result) > 0 {
		rec.Result = new(domain.ScreeningResult)
		if err := json.Unmarshal(result, rec.Result); err != nil {
			return nil, fmt.Errorf("failed to decode screening result %s: %w", rec.RecordID, err)
		}
	}
	return &rec, nil
}
