package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/domain"

	"github.com/rs/zerolog"
)

type AssetRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewAssetRepository(db *sql.DB, logger zerolog.Logger) *AssetRepository {
	return &AssetRepository{db: db, logger: logger}
}

const assetColumns = `id, name, category, model_url, thumbnail_url, file_size_bytes,
	polygon_count, default_scale, anchor_type, license_type, interaction_enabled,
	etag, created_at, updated_at`

func (r *AssetRepository) Get(ctx context.Context, id string) (*domain.AssetRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, id)

	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NotFound("asset %s not found", id)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("asset_id", id).Msg("failed to query asset")
		return nil, apierr.UpstreamIO("query asset", err)
	}
	return asset, nil
}

func (r *AssetRepository) Create(ctx context.Context, asset *domain.AssetRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.ID, asset.Name, string(asset.Category), asset.ModelURL, asset.ThumbnailURL,
		asset.FileSizeBytes, asset.PolygonCount, asset.DefaultScale, asset.AnchorType,
		asset.LicenseType, asset.InteractionEnabled, asset.ETag,
		asset.CreatedAt, asset.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("asset_id", asset.ID).Msg("failed to insert asset")
		return apierr.UpstreamIO("insert asset", err)
	}
	return nil
}

func (r *AssetRepository) UpdateUpload(ctx context.Context, id, modelURL, thumbnailURL string, sizeBytes int64, etag string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE assets
		SET model_url = ?, thumbnail_url = ?, file_size_bytes = ?, etag = ?, updated_at = ?
		WHERE id = ?`,
		modelURL, thumbnailURL, sizeBytes, etag, time.Now().UTC(), id,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("asset_id", id).Msg("failed to update asset upload")
		return apierr.UpstreamIO("update asset", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apierr.NotFound("asset %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*domain.AssetRecord, error) {
	var a domain.AssetRecord
	var category string
	err := row.Scan(
		&a.ID, &a.Name, &category, &a.ModelURL, &a.ThumbnailURL, &a.FileSizeBytes,
		&a.PolygonCount, &a.DefaultScale, &a.AnchorType, &a.LicenseType,
		&a.InteractionEnabled, &a.ETag, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Category = domain.AssetCategory(category)
	return &a, nil
}
