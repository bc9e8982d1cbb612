package service

import (
	"context"
	"math"

	"cluequest-ar/internal/apierr"
	"cluequest-ar/internal/domain"

	"github.com/rs/zerolog"
)

// EvaluatorService scores post-session telemetry into a 0-100 health report
// and folds the derived aggregates back into the experience.
type EvaluatorService struct {
	experiences ExperienceStore
	logger      zerolog.Logger
}

func NewEvaluatorService(experiences ExperienceStore, logger zerolog.Logger) *EvaluatorService {
	return &EvaluatorService{experiences: experiences, logger: logger}
}

func (s *EvaluatorService) Evaluate(ctx context.Context, experienceID string, tel domain.Telemetry) (*domain.PerformanceReport, error) {
	if err := validateTelemetry(tel); err != nil {
		return nil, err
	}

	exp, err := s.experiences.Get(ctx, experienceID)
	if err != nil {
		return nil, err
	}

	score, recommendations := scoreTelemetry(tel)
	report := &domain.PerformanceReport{
		ExperienceID:       exp.ID,
		Score:              score,
		Recommendations:    recommendations,
		OptimizationNeeded: score < 70,
	}

	// The report is the primary result; a failed aggregate write is logged
	// and never discards it.
	completionPct, errorPct := overwriteAggregates(tel)
	if err := s.experiences.UpdateAggregates(ctx, exp.ID, completionPct, errorPct); err != nil {
		s.logger.Warn().Err(err).Str("experience_id", exp.ID).Msg("failed to persist experience aggregates")
	}

	s.logger.Info().
		Str("experience_id", exp.ID).
		Int("score", score).
		Bool("optimization_needed", report.OptimizationNeeded).
		Msg("performance evaluated")

	return report, nil
}

func validateTelemetry(tel domain.Telemetry) error {
	if tel.AverageFPS < 0 || tel.LoadTimeMs < 0 || tel.MemoryUsageMB < 0 || tel.ErrorCount < 0 {
		return apierr.Validation("telemetry values must be non-negative")
	}
	if tel.UserCompletionRate < 0 || tel.UserCompletionRate > 1 {
		return apierr.Validation("user completion rate must be in [0, 1]")
	}
	return nil
}

// scoreTelemetry starts at 100 and stacks every applicable deduction, folding
// each into its recommendation. The result is clamped at zero.
func scoreTelemetry(tel domain.Telemetry) (int, []string) {
	score := 100.0
	var recs []string

	switch {
	case tel.AverageFPS < 20:
		score -= 30
		recs = append(recs, "Reduce polygon count or texture resolution")
	case tel.AverageFPS < 25:
		score -= 15
		recs = append(recs, "Consider minor asset optimization")
	}

	switch {
	case tel.LoadTimeMs > 5000:
		score -= 20
		recs = append(recs, "Implement progressive loading or reduce asset size")
	case tel.LoadTimeMs > 3000:
		score -= 10
		recs = append(recs, "Consider asset compression")
	}

	switch {
	case tel.MemoryUsageMB > 200:
		score -= 25
		recs = append(recs, "Optimize textures and reduce model complexity")
	case tel.MemoryUsageMB > 100:
		score -= 10
		recs = append(recs, "Monitor memory usage on lower-end devices")
	}

	if tel.ErrorCount > 0 {
		score -= 5 * float64(tel.ErrorCount)
		recs = append(recs, "Fix compatibility issues causing errors")
	}

	if tel.UserCompletionRate < 0.7 {
		score -= 15
		recs = append(recs, "Improve user experience - low completion rate detected")
	}

	if score < 0 {
		score = 0
	}
	return int(math.Round(score)), recs
}

// overwriteAggregates is the aggregate strategy: each evaluation replaces the
// prior aggregates outright. Kept as a named seam so a rolling-average policy
// could be substituted without touching the scoring algorithm.
func overwriteAggregates(tel domain.Telemetry) (completionPct, errorPct float64) {
	completionPct = tel.UserCompletionRate * 100

	denominator := completionPct
	if denominator < 1 {
		denominator = 1
	}
	errorPct = float64(tel.ErrorCount) / denominator * 100
	return completionPct, errorPct
}
