package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/constants"
	"cluequest-ar/internal/domain"
	"cluequest-ar/internal/storage"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type IngestInput struct {
	Name               string
	Category           domain.AssetCategory
	ModelURL           string
	ThumbnailURL       string
	PolygonCount       int
	DefaultScale       float64
	AnchorType         string
	LicenseType        string
	InteractionEnabled bool
}

// AssetService owns the catalog write path: ingesting assets by URL and
// accepting user uploads into object storage.
type AssetService struct {
	assets  AssetStore
	objects storage.ObjectStore
	fetcher MetadataFetcher
	queue   OptimizeQueue
	logger  zerolog.Logger
}

func NewAssetService(assets AssetStore, objects storage.ObjectStore, fetcher MetadataFetcher, queue OptimizeQueue, logger zerolog.Logger) *AssetService {
	return &AssetService{assets: assets, objects: objects, fetcher: fetcher, queue: queue, logger: logger}
}

func (s *AssetService) Get(ctx context.Context, id string) (*domain.AssetRecord, error) {
	return s.assets.Get(ctx, id)
}

// Ingest registers a remotely hosted model in the catalog, resolving its size
// and content stamp from the hosting server.
func (s *AssetService) Ingest(ctx context.Context, in IngestInput) (*domain.AssetRecord, error) {
	if in.Name == "" {
		return nil, apierr.Validation("asset name is required")
	}
	if !in.Category.Valid() {
		return nil, apierr.Validation("unknown asset category %q", in.Category)
	}
	if in.ModelURL == "" {
		return nil, apierr.Validation("model url is required")
	}
	if in.PolygonCount <= 0 {
		return nil, apierr.Validation("polygon count must be positive")
	}

	metaCtx, cancel := context.WithTimeout(ctx, constants.MetadataTimeout)
	defer cancel()

	meta, err := s.fetcher.Fetch(metaCtx, in.ModelURL)
	if err != nil {
		s.logger.Error().Err(err).Str("model_url", in.ModelURL).Msg("failed to resolve asset metadata")
		return nil, err
	}

	scale := in.DefaultScale
	if scale <= 0 {
		scale = 1.0
	}
	anchor := in.AnchorType
	if anchor == "" {
		anchor = "plane"
	}
	license := in.LicenseType
	if license == "" {
		license = "standard"
	}

	now := time.Now().UTC()
	asset := &domain.AssetRecord{
		ID:                 gonanoid.Must(),
		Name:               in.Name,
		Category:           in.Category,
		ModelURL:           in.ModelURL,
		ThumbnailURL:       in.ThumbnailURL,
		FileSizeBytes:      meta.ContentLength,
		PolygonCount:       in.PolygonCount,
		DefaultScale:       scale,
		AnchorType:         anchor,
		LicenseType:        license,
		InteractionEnabled: in.InteractionEnabled,
		ETag:               meta.ETag,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("asset_id", asset.ID).
		Str("category", string(asset.Category)).
		Int64("file_size_bytes", asset.FileSizeBytes).
		Msg("asset ingested")

	return asset, nil
}

// Upload stores a user-supplied model (and optional thumbnail) in object
// storage and repoints the catalog record. The model stream is hashed while
// uploading; the digest becomes the record's content stamp so previously
// cached variants are orphaned. Variant warming for every tier is enqueued
// best-effort afterwards.
func (s *AssetService) Upload(ctx context.Context, id, modelFilename, contentType string, model io.Reader, thumbFilename string, thumb io.Reader) (*domain.AssetRecord, error) {
	if model == nil || modelFilename == "" {
		return nil, apierr.Validation("model file is required")
	}

	asset, err := s.assets.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	hasher := sha256.New()
	counter := &countingReader{r: io.TeeReader(model, hasher)}

	uploadCtx, cancel := context.WithTimeout(ctx, constants.ObjectStoreTimeout)
	defer cancel()

	modelURL, err := s.objects.Upload(uploadCtx, fmt.Sprintf("assets/%s/%s", id, modelFilename), counter, contentType)
	if err != nil {
		return nil, err
	}

	thumbnailURL := asset.ThumbnailURL
	if thumb != nil && thumbFilename != "" {
		thumbnailURL, err = s.objects.Upload(uploadCtx, fmt.Sprintf("assets/%s/thumb/%s", id, thumbFilename), thumb, "image/png")
		if err != nil {
			return nil, err
		}
	}

	etag := hex.EncodeToString(hasher.Sum(nil))
	if err := s.assets.UpdateUpload(ctx, id, modelURL, thumbnailURL, counter.n, etag); err != nil {
		return nil, err
	}

	updated, err := s.assets.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.warmVariants(ctx, id)

	s.logger.Info().
		Str("asset_id", id).
		Int64("file_size_bytes", counter.n).
		Str("etag", etag).
		Msg("asset upload completed")

	return updated, nil
}

// warmVariants enqueues one optimization task per tier. A full queue only
// delays cache warming until first request.
func (s *AssetService) warmVariants(ctx context.Context, assetID string) {
	for _, tier := range []domain.PerformanceTier{domain.TierLow, domain.TierMedium, domain.TierHigh} {
		if err := s.queue.Enqueue(ctx, OptimizeTask{AssetID: assetID, Tier: tier}); err != nil {
			s.logger.Warn().
				Err(err).
				Str("asset_id", assetID).
				Str("tier", string(tier)).
				Msg("failed to enqueue variant warming")
		}
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
