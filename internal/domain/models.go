package domain

import (
	"encoding/json"
	"time"
)

type PerformanceTier string

const (
	TierLow    PerformanceTier = "low"
	TierMedium PerformanceTier = "medium"
	TierHigh   PerformanceTier = "high"
)

// Rank orders tiers low < medium < high. Unknown tiers rank below low.
func (t PerformanceTier) Rank() int {
	switch t {
	case TierLow:
		return 1
	case TierMedium:
		return 2
	case TierHigh:
		return 3
	}
	return 0
}

func (t PerformanceTier) Valid() bool {
	return t.Rank() > 0
}

type CompressionLevel string

const (
	CompressionStandard CompressionLevel = "standard"
	CompressionHigh     CompressionLevel = "high"
)

// CapabilityProfile is a snapshot of one client's AR-relevant features at
// probe time. It is never persisted and never mutated after construction.
type CapabilityProfile struct {
	WebXRSupported    bool            `json:"webxr_supported"`
	CameraAccess      bool            `json:"camera_access"`
	Gyroscope         bool            `json:"gyroscope"`
	Accelerometer     bool            `json:"accelerometer"`
	DeviceOrientation bool            `json:"device_orientation"`
	WebGLVersion      int             `json:"webgl_version"`
	MaxTextureSize    int             `json:"max_texture_size"`
	PerformanceTier   PerformanceTier `json:"performance_tier"`
}

type AssetCategory string

const (
	CategoryCreature    AssetCategory = "creature"
	CategoryObject      AssetCategory = "object"
	CategoryEnvironment AssetCategory = "environment"
	CategoryEffect      AssetCategory = "effect"
	CategoryCharacter   AssetCategory = "character"
)

func (c AssetCategory) Valid() bool {
	switch c {
	case CategoryCreature, CategoryObject, CategoryEnvironment, CategoryEffect, CategoryCharacter:
		return true
	}
	return false
}

// AssetRecord is a source 3D asset owned by the catalog. ETag is the content
// version stamp of the model file; it participates in variant cache keys so
// stale variants are orphaned when the model changes.
type AssetRecord struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	Category           AssetCategory `json:"category"`
	ModelURL           string        `json:"model_url"`
	ThumbnailURL       string        `json:"thumbnail_url"`
	FileSizeBytes      int64         `json:"file_size_bytes"`
	PolygonCount       int           `json:"polygon_count"`
	DefaultScale       float64       `json:"default_scale"`
	AnchorType         string        `json:"anchor_type"`
	LicenseType        string        `json:"license_type"`
	InteractionEnabled bool          `json:"interaction_enabled"`
	ETag               string        `json:"etag"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// OptimizedVariant is a derived, cacheable artifact keyed by
// (assetID, tier, compression[, etag]). EstimatedLoadTimeMs is recomputed
// from file size and tier on every read and is not stored verbatim.
type OptimizedVariant struct {
	CacheKey            string           `json:"cache_key"`
	AssetID             string           `json:"asset_id"`
	Tier                PerformanceTier  `json:"tier"`
	Compression         CompressionLevel `json:"compression"`
	OptimizedURL        string           `json:"optimized_url"`
	FileSizeBytes       int64            `json:"file_size_bytes"`
	PolygonCount        int              `json:"polygon_count"`
	EstimatedLoadTimeMs int              `json:"estimated_load_time_ms"`
	CreatedAt           time.Time        `json:"created_at"`
}

type ExperienceType string

const (
	TypeCreatureCapture        ExperienceType = "creature_capture"
	TypeObjectInteraction      ExperienceType = "object_interaction"
	TypeEnvironmentExploration ExperienceType = "environment_exploration"
	TypePuzzleSolving          ExperienceType = "puzzle_solving"
)

func (t ExperienceType) Valid() bool {
	switch t {
	case TypeCreatureCapture, TypeObjectInteraction, TypeEnvironmentExploration, TypePuzzleSolving:
		return true
	}
	return false
}

// Experience is a configured AR activity bound to one scene. The interaction
// script and success criteria are opaque to the service; they are validated
// as JSON objects at composition time and interpreted by the client runtime.
// CompletionRate and ErrorRate are percentage aggregates overwritten by the
// performance evaluator.
type Experience struct {
	ID                 string          `json:"id"`
	AdventureID        string          `json:"adventure_id"`
	SceneID            string          `json:"scene_id"`
	Type               ExperienceType  `json:"experience_type"`
	PrimaryAssetID     string          `json:"primary_asset_id"`
	SecondaryAssetIDs  []string        `json:"secondary_asset_ids"`
	InteractionScript  json.RawMessage `json:"interaction_script"`
	SuccessCriteria    json.RawMessage `json:"success_criteria"`
	MaxDurationSeconds int             `json:"max_duration_seconds"`
	AutoTimeout        bool            `json:"auto_timeout"`
	TutorialEnabled    bool            `json:"tutorial_enabled"`
	CompletionRate     float64         `json:"completion_rate"`
	ErrorRate          float64         `json:"error_rate"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Telemetry is the post-session measurement payload reported by the client
// runtime.
type Telemetry struct {
	AverageFPS         float64 `json:"average_fps"`
	LoadTimeMs         float64 `json:"load_time_ms"`
	MemoryUsageMB      float64 `json:"memory_usage_mb"`
	ErrorCount         int     `json:"error_count"`
	UserCompletionRate float64 `json:"user_completion_rate"`
}

// PerformanceReport is the ephemeral evaluation output. It is returned to
// the caller; only its derived aggregates are folded into the Experience.
type PerformanceReport struct {
	ExperienceID       string   `json:"experience_id"`
	Score              int      `json:"score"`
	Recommendations    []string `json:"recommendations"`
	OptimizationNeeded bool     `json:"optimization_needed"`
}

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type ScenePlacement struct {
	AssetID    string  `json:"asset_id"`
	ModelURL   string  `json:"model_url"`
	Position   Vector3 `json:"position"`
	Scale      float64 `json:"scale"`
	AnchorType string  `json:"anchor_type"`
}

type LightingConfig struct {
	AmbientIntensity     float64 `json:"ambient_intensity"`
	DirectionalIntensity float64 `json:"directional_intensity"`
	DirectionalPosition  Vector3 `json:"directional_position"`
}

type PerformanceBudget struct {
	MaxPolygons     int  `json:"max_polygons"`
	TargetFPS       int  `json:"target_fps"`
	AdaptiveQuality bool `json:"adaptive_quality"`
}

// WebXRDescriptor is the immersive scene configuration handed to clients
// that support AR.
type WebXRDescriptor struct {
	Mode              string            `json:"mode"`
	PrimaryAsset      ScenePlacement    `json:"primary_asset"`
	InteractionScript json.RawMessage   `json:"interaction_script"`
	Lighting          LightingConfig    `json:"lighting"`
	Budget            PerformanceBudget `json:"budget"`
}

// FallbackDescriptor is the flat 2D configuration used when the client
// cannot support immersive AR.
type FallbackDescriptor struct {
	InteractionMode  string   `json:"interaction_mode"`
	ThumbnailURL     string   `json:"thumbnail_url"`
	SuccessAnimation string   `json:"success_animation"`
	Feedback         []string `json:"feedback"`
}

// ExperienceDescriptor bundles the persisted experience with both renderable
// configurations and the preload manifest.
type ExperienceDescriptor struct {
	Experience      Experience         `json:"experience"`
	WebXR           WebXRDescriptor    `json:"webxr"`
	Fallback        FallbackDescriptor `json:"fallback"`
	PreloadManifest []string           `json:"preload_manifest"`
}
