package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/capability"
	"cluequest-ar/internal/constants"
	"cluequest-ar/internal/domain"
	"cluequest-ar/internal/middleware"
	"cluequest-ar/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server is the JSON API surface of the AR delivery coordinator.
type Server struct {
	prober    *capability.Prober
	optimizer *service.OptimizerService
	composer  *service.ComposerService
	evaluator *service.EvaluatorService
	assets    *service.AssetService
	logger    zerolog.Logger
}

func NewServer(
	prober *capability.Prober,
	optimizer *service.OptimizerService,
	composer *service.ComposerService,
	evaluator *service.EvaluatorService,
	assets *service.AssetService,
	logger zerolog.Logger,
) *Server {
	return &Server{
		prober:    prober,
		optimizer: optimizer,
		composer:  composer,
		evaluator: evaluator,
		assets:    assets,
		logger:    logger,
	}
}

func (s *Server) Routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID(s.logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	v1.POST("/capabilities/probe", s.handleProbe)
	v1.POST("/assets", s.handleIngestAsset)
	v1.GET("/assets/:id", s.handleGetAsset)
	v1.POST("/assets/:id/upload", s.handleUploadAsset)
	v1.GET("/assets/:id/optimize", s.handleOptimize)
	v1.POST("/experiences", s.handleCompose)
	v1.POST("/experiences/:id/evaluate", s.handleEvaluate)

	return engine
}

// handleProbe never fails: a malformed report degrades to an empty one, so
// the client always receives a usable (worst-case low-tier) profile.
func (s *Server) handleProbe(c *gin.Context) {
	var report capability.FeatureReport
	if err := c.ShouldBindJSON(&report); err != nil {
		s.logger.Warn().Err(err).Msg("malformed feature report, degrading to defaults")
		report = capability.FeatureReport{}
	}

	c.JSON(http.StatusOK, s.prober.Probe(report))
}

type ingestRequest struct {
	Name               string  `json:"name"`
	Category           string  `json:"category"`
	ModelURL           string  `json:"model_url"`
	ThumbnailURL       string  `json:"thumbnail_url"`
	PolygonCount       int     `json:"polygon_count"`
	DefaultScale       float64 `json:"default_scale"`
	AnchorType         string  `json:"anchor_type"`
	LicenseType        string  `json:"license_type"`
	InteractionEnabled bool    `json:"interaction_enabled"`
}

func (s *Server) handleIngestAsset(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apierr.Validation("invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	asset, err := s.assets.Ingest(ctx, service.IngestInput{
		Name:               req.Name,
		Category:           domain.AssetCategory(req.Category),
		ModelURL:           req.ModelURL,
		ThumbnailURL:       req.ThumbnailURL,
		PolygonCount:       req.PolygonCount,
		DefaultScale:       req.DefaultScale,
		AnchorType:         req.AnchorType,
		LicenseType:        req.LicenseType,
		InteractionEnabled: req.InteractionEnabled,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

func (s *Server) handleGetAsset(c *gin.Context) {
	asset, err := s.assets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (s *Server) handleUploadAsset(c *gin.Context) {
	modelHeader, err := c.FormFile("model")
	if err != nil {
		s.respondError(c, apierr.Validation("model file is required"))
		return
	}
	model, err := modelHeader.Open()
	if err != nil {
		s.respondError(c, apierr.Validation("model file is unreadable"))
		return
	}
	defer model.Close()

	contentType := modelHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "model/gltf-binary"
	}

	var thumbName string
	var thumb io.Reader
	if thumbHeader, err := c.FormFile("thumbnail"); err == nil {
		f, err := thumbHeader.Open()
		if err != nil {
			s.respondError(c, apierr.Validation("thumbnail file is unreadable"))
			return
		}
		defer f.Close()
		thumb = f
		thumbName = thumbHeader.Filename
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	asset, err := s.assets.Upload(ctx, c.Param("id"), modelHeader.Filename, contentType, model, thumbName, thumb)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (s *Server) handleOptimize(c *gin.Context) {
	tier := domain.PerformanceTier(c.Query("tier"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	variant, err := s.optimizer.Optimize(ctx, c.Param("id"), domain.CapabilityProfile{PerformanceTier: tier})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

type composeRequest struct {
	AdventureID        string          `json:"adventure_id"`
	SceneID            string          `json:"scene_id"`
	Type               string          `json:"experience_type"`
	PrimaryAssetID     string          `json:"primary_asset_id"`
	SecondaryAssetIDs  []string        `json:"secondary_asset_ids"`
	InteractionScript  json.RawMessage `json:"interaction_script"`
	SuccessCriteria    json.RawMessage `json:"success_criteria"`
	MaxDurationSeconds int             `json:"max_duration_seconds"`
	AutoTimeout        *bool           `json:"auto_timeout"`
	TutorialEnabled    *bool           `json:"tutorial_enabled"`
}

func (s *Server) handleCompose(c *gin.Context) {
	var req composeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apierr.Validation("invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	descriptor, err := s.composer.Compose(ctx, req.AdventureID, req.SceneID, service.ExperienceConfig{
		Type:               domain.ExperienceType(req.Type),
		PrimaryAssetID:     req.PrimaryAssetID,
		SecondaryAssetIDs:  req.SecondaryAssetIDs,
		InteractionScript:  req.InteractionScript,
		SuccessCriteria:    req.SuccessCriteria,
		MaxDurationSeconds: req.MaxDurationSeconds,
		AutoTimeout:        boolOrDefault(req.AutoTimeout, true),
		TutorialEnabled:    boolOrDefault(req.TutorialEnabled, true),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, descriptor)
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var tel domain.Telemetry
	if err := c.ShouldBindJSON(&tel); err != nil {
		s.respondError(c, apierr.Validation("invalid telemetry payload"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	report, err := s.evaluator.Evaluate(ctx, c.Param("id"), tel)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := apierr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	} else {
		s.logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("request rejected")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
