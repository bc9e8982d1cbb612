package repository

import (
	"context"
	"database/sql"
	"errors"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/domain"

	"github.com/rs/zerolog"
)

// VariantRepository is the relational variant cache backend, used when no
// redis address is configured. A miss is (nil, false, nil), not an error.
type VariantRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewVariantRepository(db *sql.DB, logger zerolog.Logger) *VariantRepository {
	return &VariantRepository{db: db, logger: logger}
}

func (r *VariantRepository) Get(ctx context.Context, cacheKey string) (*domain.OptimizedVariant, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT cache_key, asset_id, tier, compression, optimized_url,
			file_size_bytes, polygon_count, created_at
		FROM asset_variants WHERE cache_key = ?`, cacheKey)

	var v domain.OptimizedVariant
	var tier, compression string
	err := row.Scan(
		&v.CacheKey, &v.AssetID, &tier, &compression, &v.OptimizedURL,
		&v.FileSizeBytes, &v.PolygonCount, &v.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("cache_key", cacheKey).Msg("failed to query variant")
		return nil, false, apierr.UpstreamIO("query variant", err)
	}

	v.Tier = domain.PerformanceTier(tier)
	v.Compression = domain.CompressionLevel(compression)
	return &v, true, nil
}

func (r *VariantRepository) Put(ctx context.Context, v *domain.OptimizedVariant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO asset_variants (
			cache_key, asset_id, tier, compression, optimized_url,
			file_size_bytes, polygon_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			optimized_url = excluded.optimized_url,
			file_size_bytes = excluded.file_size_bytes,
			polygon_count = excluded.polygon_count`,
		v.CacheKey, v.AssetID, string(v.Tier), string(v.Compression), v.OptimizedURL,
		v.FileSizeBytes, v.PolygonCount, v.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("cache_key", v.CacheKey).Msg("failed to upsert variant")
		return apierr.UpstreamIO("upsert variant", err)
	}
	return nil
}
