package service

import (
	"context"
	"encoding/json"
	"time"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Scene descriptor constants shared by every composed experience.
const (
	webXRMode          = "immersive-ar"
	assetDistanceM     = 2.0
	targetFPS          = 30
	fallbackMode       = "tap_and_hold"
	fallbackAnimation  = "bounce_and_sparkle"
	defaultMaxDuration = 300
)

type ExperienceConfig struct {
	Type               domain.ExperienceType
	PrimaryAssetID     string
	SecondaryAssetIDs  []string
	InteractionScript  json.RawMessage
	SuccessCriteria    json.RawMessage
	MaxDurationSeconds int
	AutoTimeout        bool
	TutorialEnabled    bool
}

// ComposerService assembles a full AR experience into its immersive and
// fallback scene configurations plus the preload manifest. Composition works
// on canonical asset URLs; per-device variant resolution happens separately
// through the optimizer at asset load time.
type ComposerService struct {
	assets      AssetStore
	experiences ExperienceStore
	logger      zerolog.Logger
}

func NewComposerService(assets AssetStore, experiences ExperienceStore, logger zerolog.Logger) *ComposerService {
	return &ComposerService{assets: assets, experiences: experiences, logger: logger}
}

func (s *ComposerService) Compose(ctx context.Context, adventureID, sceneID string, cfg ExperienceConfig) (*domain.ExperienceDescriptor, error) {
	if adventureID == "" || sceneID == "" {
		return nil, apierr.Validation("adventure and scene identifiers are required")
	}
	if !cfg.Type.Valid() {
		return nil, apierr.Validation("unknown experience type %q", cfg.Type)
	}
	if cfg.PrimaryAssetID == "" {
		return nil, apierr.Validation("primary asset reference is required")
	}

	script, err := normalizeJSONObject(cfg.InteractionScript, "interaction script")
	if err != nil {
		return nil, err
	}
	criteria, err := normalizeJSONObject(cfg.SuccessCriteria, "success criteria")
	if err != nil {
		return nil, err
	}

	primary, err := s.assets.Get(ctx, cfg.PrimaryAssetID)
	if err != nil {
		return nil, err
	}

	secondaries, err := s.resolveSecondaries(ctx, cfg.SecondaryAssetIDs)
	if err != nil {
		return nil, err
	}

	maxDuration := cfg.MaxDurationSeconds
	if maxDuration <= 0 {
		maxDuration = defaultMaxDuration
	}

	now := time.Now().UTC()
	exp := domain.Experience{
		ID:                 gonanoid.Must(),
		AdventureID:        adventureID,
		SceneID:            sceneID,
		Type:               cfg.Type,
		PrimaryAssetID:     primary.ID,
		SecondaryAssetIDs:  cfg.SecondaryAssetIDs,
		InteractionScript:  script,
		SuccessCriteria:    criteria,
		MaxDurationSeconds: maxDuration,
		AutoTimeout:        cfg.AutoTimeout,
		TutorialEnabled:    cfg.TutorialEnabled,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.experiences.Create(ctx, &exp); err != nil {
		return nil, err
	}

	manifest := make([]string, 0, 1+len(secondaries))
	manifest = append(manifest, primary.ModelURL)
	for _, a := range secondaries {
		manifest = append(manifest, a.ModelURL)
	}

	s.logger.Info().
		Str("experience_id", exp.ID).
		Str("adventure_id", adventureID).
		Str("scene_id", sceneID).
		Int("preload_assets", len(manifest)).
		Msg("experience composed")

	return &domain.ExperienceDescriptor{
		Experience:      exp,
		WebXR:           buildWebXRDescriptor(primary, script),
		Fallback:        buildFallbackDescriptor(primary),
		PreloadManifest: manifest,
	}, nil
}

// resolveSecondaries fetches secondary assets concurrently. A secondary
// that does not resolve is omitted from the manifest with a warning rather
// than aborting composition; store failures still propagate.
func (s *ComposerService) resolveSecondaries(ctx context.Context, ids []string) ([]*domain.AssetRecord, error) {
	resolved := make([]*domain.AssetRecord, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			asset, err := s.assets.Get(gctx, id)
			if apierr.IsNotFound(err) {
				s.logger.Warn().Str("asset_id", id).Msg("secondary asset not found, omitting from preload manifest")
				return nil
			}
			if err != nil {
				return err
			}
			resolved[i] = asset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := resolved[:0]
	for _, a := range resolved {
		if a != nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func buildWebXRDescriptor(primary *domain.AssetRecord, script json.RawMessage) domain.WebXRDescriptor {
	return domain.WebXRDescriptor{
		Mode: webXRMode,
		PrimaryAsset: domain.ScenePlacement{
			AssetID:    primary.ID,
			ModelURL:   primary.ModelURL,
			Position:   domain.Vector3{X: 0, Y: 0, Z: -assetDistanceM},
			Scale:      primary.DefaultScale,
			AnchorType: primary.AnchorType,
		},
		InteractionScript: script,
		Lighting: domain.LightingConfig{
			AmbientIntensity:     0.6,
			DirectionalIntensity: 0.8,
			DirectionalPosition:  domain.Vector3{X: 1, Y: 2, Z: 1},
		},
		Budget: domain.PerformanceBudget{
			MaxPolygons:     primary.PolygonCount,
			TargetFPS:       targetFPS,
			AdaptiveQuality: true,
		},
	}
}

func buildFallbackDescriptor(primary *domain.AssetRecord) domain.FallbackDescriptor {
	return domain.FallbackDescriptor{
		InteractionMode:  fallbackMode,
		ThumbnailURL:     primary.ThumbnailURL,
		SuccessAnimation: fallbackAnimation,
		Feedback:         []string{"visual", "audio"},
	}
}

// normalizeJSONObject validates an opaque client-interpreted blob as a JSON
// object before it is persisted, defaulting an absent blob to {}.
func normalizeJSONObject(raw json.RawMessage, field string) (json.RawMessage, error) {
	if len(raw) == 0 {
		return json.RawMessage(`{}`), nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, apierr.Validation("%s must be a JSON object", field)
	}
	return raw, nil
}
