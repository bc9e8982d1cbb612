package storage

import (
	"context"
	"fmt"
	"io"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/config"

	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
)

// ObjectStore uploads user-supplied model and thumbnail files and returns a
// publicly servable URL.
type ObjectStore interface {
	Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error)
}

type gcsStore struct {
	client    *gcs.Client
	bucket    string
	cdnDomain string
	logger    zerolog.Logger
}

// NewObjectStore returns the GCS-backed store when a bucket is configured,
// otherwise a disabled store whose Upload fails with an upstream error.
func NewObjectStore(cfg *config.Config, logger zerolog.Logger) (ObjectStore, error) {
	if cfg.GCSBucket == "" {
		logger.Warn().Msg("object storage not configured, asset uploads disabled")
		return &disabledStore{}, nil
	}

	client, err := gcs.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	logger.Info().Str("bucket", cfg.GCSBucket).Msg("object storage ready")
	return &gcsStore{
		client:    client,
		bucket:    cfg.GCSBucket,
		cdnDomain: cfg.CDNDomain,
		logger:    logger,
	}, nil
}

func (s *gcsStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		s.logger.Error().Err(err).Str("path", path).Msg("object upload failed")
		return "", apierr.UpstreamIO("object upload", err)
	}
	if err := w.Close(); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("object upload close failed")
		return "", apierr.UpstreamIO("object upload", err)
	}

	return s.publicURL(path), nil
}

func (s *gcsStore) publicURL(path string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, path)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path)
}

type disabledStore struct{}

func (*disabledStore) Upload(context.Context, string, io.Reader, string) (string, error) {
	return "", apierr.UpstreamIO("object storage not configured", nil)
}
