package service

import (
	"context"

	"cluequest-ar/internal/domain"
	"cluequest-ar/internal/fetch"
)

// Store interfaces are declared here, where they are consumed; the sqlite
// repositories and the redis cache satisfy them in production and tests
// substitute in-memory fakes.

type AssetStore interface {
	Get(ctx context.Context, id string) (*domain.AssetRecord, error)
	Create(ctx context.Context, asset *domain.AssetRecord) error
	UpdateUpload(ctx context.Context, id, modelURL, thumbnailURL string, sizeBytes int64, etag string) error
}

type ExperienceStore interface {
	Create(ctx context.Context, exp *domain.Experience) error
	Get(ctx context.Context, id string) (*domain.Experience, error)
	UpdateAggregates(ctx context.Context, id string, completionRate, errorRate float64) error
}

// VariantCache reports a miss as (nil, false, nil); errors are reserved for
// backend failures.
type VariantCache interface {
	Get(ctx context.Context, cacheKey string) (*domain.OptimizedVariant, bool, error)
	Put(ctx context.Context, v *domain.OptimizedVariant) error
}

type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.AssetMetadata, error)
}
