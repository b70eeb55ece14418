package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jaylondental/clinic-api/pkg/logging"
)

// ObjectStore abstracts image object storage.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// S3Client is the subset of the AWS S3 client used here (allows mocking in tests).
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store stores image objects in a single S3 bucket.
type S3Store struct {
	client    S3Client
	bucket    string
	publicURL string
	logger    *logging.Logger
}

// S3StoreConfig holds configuration for the S3Store.
type S3StoreConfig struct {
	Client    S3Client
	Bucket    string
	PublicURL string
	Logger    *logging.Logger
}

// NewS3Store creates an S3-backed object store.
func NewS3Store(cfg S3StoreConfig) *S3Store {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &S3Store{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
		logger:    cfg.Logger,
	}
}

// Put uploads an object under the given key.
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	s.logger.Debug("object stored", "bucket", s.bucket, "key", key)
	return nil
}

// Delete removes an object. Deleting a missing key is not an error in S3.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL for a stored key.
func (s *S3Store) URL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
