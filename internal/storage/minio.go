package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"example.com/textile/erp/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrNotConfigured is returned when object storage has no endpoint
var ErrNotConfigured = errors.New("storage not configured")

// ObjectStore stores generated files
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
}

// MinioStore keeps objects in an S3-compatible bucket
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore creates a store. An empty endpoint yields a disabled store.
func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		log.Warn().Msg("Storage endpoint not provided, report files will not be kept")
		return &MinioStore{bucket: cfg.Bucket}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return &MinioStore{bucket: cfg.Bucket}, errors.Wrap(err, "failed to create storage client")
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Enabled reports whether the store has a backend
func (s *MinioStore) Enabled() bool {
	return s != nil && s.client != nil
}

// Ping checks the bucket is reachable
func (s *MinioStore) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return errors.Wrap(err, "check bucket")
	}
	return nil
}

// EnsureBucket creates the bucket when missing
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, "check bucket")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, "make bucket")
	}
	log.Info().Str("bucket", s.bucket).Msg("Created storage bucket")
	return nil
}

// Upload writes an object
func (s *MinioStore) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrap(err, "upload file")
	}
	return nil
}

// PresignedURL returns a time-limited download link for key
func (s *MinioStore) PresignedURL(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	params := url.Values{}
	if filename != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, params)
	if err != nil {
		return "", errors.Wrap(err, "presign object")
	}
	return u.String(), nil
}

// ReportKey builds the object key of a generated report
func ReportKey(tenantID uuid.UUID, reportType string, runID uuid.UUID) string {
	return fmt.Sprintf("reports/%s/%s/%s.xlsx", tenantID.String(), reportType, runID.String())
}
