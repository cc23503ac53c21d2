package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appConfig "github.com/banking/sanctions-screening/internal/config"
	"github.com/banking/sanctions-screening/internal/domain"
)

// ObjectPutter is the part of the S3 client the archive uses
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArchiveRepository keeps raw feed snapshots and batch screening results
type ArchiveRepository struct {
	client        ObjectPutter
	feedBucket    string
	archiveBucket string
	now           func() time.Time
}

// NewArchiveRepository creates a new S3 archive repository
func NewArchiveRepository(ctx context.Context, cfg appConfig.S3Config) (*ArchiveRepository, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		}
	})

	return NewArchiveRepositoryWithClient(client, cfg.FeedBucket, cfg.ArchiveBucket), nil
}

// NewArchiveRepositoryWithClient wires an existing client
func NewArchiveRepositoryWithClient(client ObjectPutter, feedBucket, archiveBucket string) *ArchiveRepository {
	return &ArchiveRepository{
		client:        client,
		feedBucket:    feedBucket,
		archiveBucket: archiveBucket,
		now:           time.Now,
	}
}

// StoreFeed uploads the raw bytes of a successfully parsed feed.
// Key format: feeds/source/year/month/day/timestamp.xml
func (r *ArchiveRepository) StoreFeed(ctx context.Context, source string, fetchedAt time.Time, raw []byte) error {
	at := fetchedAt.UTC()
	key := fmt.Sprintf("feeds/%s/%d/%02d/%02d/%s.xml",
		strings.ToLower(source), at.Year(), at.Month(), at.Day(), at.Format("20060102T150405Z"))

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.feedBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/xml"),
		Metadata:    map[string]string{"source": source},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s feed to s3: %w", source, err)
	}
	return nil
}

// ArchiveBatch uploads the settled items of one batch screening.
// Key format: screenings/year/month/day/batchID.json
func (r *ArchiveRepository) ArchiveBatch(ctx context.Context, batchID uuid.UUID, items []domain.BatchItem) error {
	if len(items) == 0 {
		return nil
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal batch for archive: %w", err)
	}

	now := r.now().UTC()
	key := fmt.Sprintf("screenings/%d/%02d/%02d/%s.json", now.Year(), now.Month(), now.Day(), batchID)

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.archiveBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload batch to s3: %w", err)
	}
	return nil
}
