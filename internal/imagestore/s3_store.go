package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// PutObjectAPI is the subset of the S3 client used by the store.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Store implements Store on an S3 bucket.
type s3Store struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3Store creates an S3-backed image store using the default AWS credential chain.
func NewS3Store(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (Store, error) {
	// Load AWS configuration
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Debug().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 image store initialised")

	return NewS3StoreWithClient(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

// NewS3StoreWithClient creates an S3-backed image store on an existing client.
func NewS3StoreWithClient(client PutObjectAPI, bucket, prefix string, logger zerolog.Logger) Store {
	return &s3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With().Str("component", "image-s3-store").Logger(),
	}
}

// Save uploads src to prefix+name and returns an s3:// reference.
func (s *s3Store) Save(ctx context.Context, name string, src io.Reader) (string, error) {
	key := s.prefix + name

	// Profile images are small; buffering gives the SDK a seekable body.
	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", name, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	s.logger.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("profile image uploaded to S3")

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// fallbackStore tries S3 first, then falls back to the local directory.
type fallbackStore struct {
	s3Store    Store
	localStore Store
	s3Enabled  bool
	logger     zerolog.Logger
}

// NewFallbackStore creates a store that tries S3 first, then falls back to local storage.
// If s3Store is nil, it will only use the local store.
func NewFallbackStore(s3Store, localStore Store, s3Enabled bool, logger zerolog.Logger) Store {
	return &fallbackStore{
		s3Store:    s3Store,
		localStore: localStore,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "image-fallback-store").Logger(),
	}
}

// Save attempts S3 first, then the local store. The source is buffered so it
// can be replayed after a failed upload.
func (s *fallbackStore) Save(ctx context.Context, name string, src io.Reader) (string, error) {
	if !s.s3Enabled || s.s3Store == nil {
		s.logger.Debug().
			Bool("s3_enabled", s.s3Enabled).
			Bool("has_s3_store", s.s3Store != nil).
			Msg("S3 disabled or not configured, using local storage")
		return s.localStore.Save(ctx, name, src)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", name, err)
	}

	ref, err := s.s3Store.Save(ctx, name, bytes.NewReader(data))
	if err == nil {
		return ref, nil
	}

	s.logger.Warn().
		Err(err).
		Str("name", name).
		Msg("failed to upload to S3, falling back to local storage")

	return s.localStore.Save(ctx, name, bytes.NewReader(data))
}
