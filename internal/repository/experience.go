package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/domain"

	"github.com/rs/zerolog"
)

type ExperienceRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewExperienceRepository(db *sql.DB, logger zerolog.Logger) *ExperienceRepository {
	return &ExperienceRepository{db: db, logger: logger}
}

func (r *ExperienceRepository) Create(ctx context.Context, exp *domain.Experience) error {
	secondaries, err := json.Marshal(exp.SecondaryAssetIDs)
	if err != nil {
		return apierr.UpstreamIO("marshal secondary asset ids", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO experiences (
			id, adventure_id, scene_id, experience_type, primary_asset_id,
			secondary_asset_ids, interaction_script, success_criteria,
			max_duration_seconds, auto_timeout, tutorial_enabled,
			completion_rate, error_rate, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.AdventureID, exp.SceneID, string(exp.Type), exp.PrimaryAssetID,
		string(secondaries), string(exp.InteractionScript), string(exp.SuccessCriteria),
		exp.MaxDurationSeconds, exp.AutoTimeout, exp.TutorialEnabled,
		exp.CompletionRate, exp.ErrorRate, exp.CreatedAt, exp.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("experience_id", exp.ID).Msg("failed to insert experience")
		return apierr.UpstreamIO("insert experience", err)
	}
	return nil
}

func (r *ExperienceRepository) Get(ctx context.Context, id string) (*domain.Experience, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, adventure_id, scene_id, experience_type, primary_asset_id,
			secondary_asset_ids, interaction_script, success_criteria,
			max_duration_seconds, auto_timeout, tutorial_enabled,
			completion_rate, error_rate, created_at, updated_at
		FROM experiences WHERE id = ?`, id)

	var exp domain.Experience
	var expType, secondaries, script, criteria string
	err := row.Scan(
		&exp.ID, &exp.AdventureID, &exp.SceneID, &expType, &exp.PrimaryAssetID,
		&secondaries, &script, &criteria,
		&exp.MaxDurationSeconds, &exp.AutoTimeout, &exp.TutorialEnabled,
		&exp.CompletionRate, &exp.ErrorRate, &exp.CreatedAt, &exp.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NotFound("experience %s not found", id)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("experience_id", id).Msg("failed to query experience")
		return nil, apierr.UpstreamIO("query experience", err)
	}

	exp.Type = domain.ExperienceType(expType)
	exp.InteractionScript = json.RawMessage(script)
	exp.SuccessCriteria = json.RawMessage(criteria)
	if err := json.Unmarshal([]byte(secondaries), &exp.SecondaryAssetIDs); err != nil {
		return nil, apierr.UpstreamIO("unmarshal secondary asset ids", err)
	}
	return &exp, nil
}

// UpdateAggregates overwrites the experience's telemetry aggregates with the
// values from the latest evaluation.
func (r *ExperienceRepository) UpdateAggregates(ctx context.Context, id string, completionRate, errorRate float64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE experiences
		SET completion_rate = ?, error_rate = ?, updated_at = ?
		WHERE id = ?`,
		completionRate, errorRate, time.Now().UTC(), id,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("experience_id", id).Msg("failed to update aggregates")
		return apierr.UpstreamIO("update experience aggregates", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apierr.NotFound("experience %s not found", id)
	}
	return nil
}
