// internal/pipeline/controller.go

// Package pipeline runs the content orchestration stages in sequence:
// validate, semantic analysis, temporal scheduling, ideation, consolidation,
// quality gate. Only validation failures abort a run; every other failure
// degrades quality, never availability.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	pipeerrors "content-orchestrator/internal/common/errors"
	"content-orchestrator/internal/common/logger"
	"content-orchestrator/internal/common/metrics"
	"content-orchestrator/internal/models"
	"content-orchestrator/internal/scheduler"
	"content-orchestrator/internal/stages/consolidation"
	"content-orchestrator/internal/stages/ideation"
	qualitygate "content-orchestrator/internal/stages/quality-gate"
	semanticanalysis "content-orchestrator/internal/stages/semantic-analysis"
)

// PlanCache stores completed results per campaign. Implementations are
// best-effort: a cache failure never fails a run.
type PlanCache interface {
	Get(ctx context.Context, campaignID string) (*models.ContentOrchestrationResult, bool, error)
	Put(ctx context.Context, result *models.ContentOrchestrationResult) error
}

// Archiver persists completed results for later search. Best-effort.
type Archiver interface {
	Index(ctx context.Context, result *models.ContentOrchestrationResult) error
}

// RunInput is everything a single pipeline run needs. The catalog lists are
// read-only; the controller never mutates them.
type RunInput struct {
	Campaign     models.CampaignBrief
	Workspace    models.WorkspaceProfile
	Resources    []models.Resource
	Templates    []models.Template
	Restrictions models.Restrictions
	Objectives   models.Objectives

	// ForceRegenerate skips the cache lookup but still stores the new result.
	ForceRegenerate bool
}

type Options struct {
	// DefaultIntervalHours applies when the brief leaves IntervalHours unset.
	DefaultIntervalHours float64
}

// Controller owns one run's stage sequencing. All collaborators are injected
// at construction; Cache and Archive may be nil.
type Controller struct {
	semantic *semanticanalysis.Stage
	ideation *ideation.Stage
	gate     *qualitygate.Gate
	cache    PlanCache
	archive  Archiver
	options  Options
	logger   logger.Logger
}

func NewController(semantic *semanticanalysis.Stage, ideation *ideation.Stage, gate *qualitygate.Gate, cache PlanCache, archive Archiver, options Options, log logger.Logger) *Controller {
	if options.DefaultIntervalHours == 0 {
		options.DefaultIntervalHours = 24
	}
	return &Controller{
		semantic: semantic,
		ideation: ideation,
		gate:     gate,
		cache:    cache,
		archive:  archive,
		options:  options,
		logger:   log,
	}
}

// Run executes the full pipeline for one campaign. It returns an error only
// for invalid input; backend and parse failures surface as fallback content
// and a degraded quality report instead.
func (c *Controller) Run(ctx context.Context, input RunInput) (*models.ContentOrchestrationResult, error) {
	started := time.Now()
	log := c.logger.With(map[string]interface{}{
		"campaignId": input.Campaign.ID,
	})

	start, end, intervalHours, err := c.validate(input)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if cached := c.cachedResult(ctx, input, log); cached != nil {
		metrics.PipelineRunsTotal.WithLabelValues("cached").Inc()
		return cached, nil
	}

	log.Info("pipeline run started", map[string]interface{}{
		"resources": len(input.Resources),
		"templates": len(input.Templates),
	})

	index := c.semantic.Analyze(ctx, input.Resources, input.Templates, input.Workspace, input.Restrictions)

	plan, err := scheduler.ComputeSlots(input.Campaign.ID, start, end, intervalHours)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}
	if len(input.Campaign.PreferredHours) > 0 {
		plan = scheduler.SnapToPreferredHours(plan, input.Campaign.PreferredHours)
	}

	ideationResult := c.ideation.GenerateIdeas(ctx, input.Campaign, input.Workspace, index, plan, input.Restrictions, input.Objectives)

	consolidated := consolidation.Consolidate(ideationResult.Ideas, index, plan)

	report := c.gate.Evaluate(consolidated, index, ideationResult.Ideas, input.Resources, input.Restrictions, input.Workspace)

	result := &models.ContentOrchestrationResult{
		RunID:            uuid.NewString(),
		CampaignID:       input.Campaign.ID,
		SemanticIndex:    *index,
		TemporalPlan:     *plan,
		ContentIdeas:     ideationResult.Ideas,
		ConsolidatedPlan: *consolidated,
		QualityReport:    *report,
		Timestamp:        time.Now().UTC(),
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	}

	c.storeResult(ctx, result, log)

	metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	metrics.PipelineRunDuration.Observe(time.Since(started).Seconds())
	log.Info("pipeline run completed", map[string]interface{}{
		"runId":    result.RunID,
		"slots":    plan.SlotCount(),
		"score":    report.OverallScore,
		"ready":    report.ReadyForProduction,
		"tookMs":   result.ProcessingTimeMs,
		"fallback": ideationResult.FallbackCount,
	})

	return result, nil
}

// validate checks the campaign window, interval and template catalog before
// any backend call is made. Every window rule ComputeSlots enforces is
// enforced here too, so scheduling can never be the first point of failure.
func (c *Controller) validate(input RunInput) (time.Time, time.Time, float64, error) {
	start, end, err := scheduler.ParseWindow(input.Campaign.StartDate, input.Campaign.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, 0, err
	}

	intervalHours := input.Campaign.IntervalHours
	if intervalHours == 0 {
		intervalHours = c.options.DefaultIntervalHours
	}
	if err := scheduler.ValidateWindow(start, end, intervalHours); err != nil {
		return time.Time{}, time.Time{}, 0, err
	}

	if len(input.Templates) == 0 {
		return time.Time{}, time.Time{}, 0, pipeerrors.NewEmptyTemplateCatalogError(input.Campaign.ID)
	}

	return start, end, intervalHours, nil
}

func (c *Controller) cachedResult(ctx context.Context, input RunInput, log logger.Logger) *models.ContentOrchestrationResult {
	if c.cache == nil || input.ForceRegenerate {
		return nil
	}
	result, ok, err := c.cache.Get(ctx, input.Campaign.ID)
	if err != nil {
		log.Warn("plan cache lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	if !ok {
		return nil
	}
	log.Info("serving cached plan", map[string]interface{}{
		"runId": result.RunID,
	})
	return result
}

// storeResult writes the result to the cache and the archive. Failures are
// logged and swallowed.
func (c *Controller) storeResult(ctx context.Context, result *models.ContentOrchestrationResult, log logger.Logger) {
	if c.cache != nil {
		if err := c.cache.Put(ctx, result); err != nil {
			log.Warn("plan cache store failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if c.archive != nil {
		if err := c.archive.Index(ctx, result); err != nil {
			log.Warn("plan archive index failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
