// internal/stages/ideation/handler.go
package ideation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pipeerrors "content-orchestrator/internal/common/errors"
	"content-orchestrator/internal/common/logger"
	"content-orchestrator/internal/common/metrics"
	"content-orchestrator/internal/genai"
	"content-orchestrator/internal/llmjson"
	"content-orchestrator/internal/models"
)

const (
	StageName = "ideation"

	// slotPreviewLimit bounds how many slots the prompt spells out; the
	// remainder is summarized as a count.
	slotPreviewLimit = 5
)

// fallbackThemes drive the canned creative-direction text the deterministic
// generator rotates through, keyed by slot index.
var fallbackThemes = []string{
	"product spotlight",
	"behind the scenes",
	"community highlight",
	"educational tip",
	"social proof",
	"brand story",
}

// Dispatcher is the admission-controlled submit surface for the stage's
// single batched request.
type Dispatcher interface {
	Submit(ctx context.Context, req *genai.GenerationRequest) (*genai.GenerationResponse, error)
}

type Config struct {
	MaxTokens   int
	Temperature float64
	Retry       genai.RetryPolicy
}

func DefaultConfig() *Config {
	return &Config{
		MaxTokens:   2000,
		Temperature: 0.7,
		Retry:       genai.DefaultRetryPolicy(),
	}
}

// Stage turns the temporal plan into creative ideas: exactly one idea per
// slot, in slot order. Backend or parse failures never shrink the output;
// missing positions are filled by the deterministic fallback generator.
type Stage struct {
	config     *Config
	dispatcher Dispatcher
	logger     logger.Logger
}

func New(config *Config, dispatcher Dispatcher, log logger.Logger) *Stage {
	return &Stage{
		config:     config,
		dispatcher: dispatcher,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// GenerateIdeas issues one batched request for the whole plan and maps the
// response positionally onto the slots. The result always holds exactly
// len(plan.Slots) ideas.
func (s *Stage) GenerateIdeas(ctx context.Context, campaign models.CampaignBrief, workspace models.WorkspaceProfile, index *models.SemanticIndex, plan *models.TemporalPlan, restrictions models.Restrictions, objectives models.Objectives) *models.ContentIdeationResult {
	if plan.SlotCount() == 0 {
		return &models.ContentIdeationResult{Ideas: []models.ContentIdea{}}
	}

	req := &genai.GenerationRequest{
		BackendTarget: StageName,
		PromptText:    s.buildPrompt(campaign, workspace, index, plan, restrictions, objectives),
		ContextPayload: map[string]interface{}{
			"campaignId": campaign.ID,
			"slotCount":  plan.SlotCount(),
		},
		Options: genai.GenerationOptions{
			MaxTokens:   s.config.MaxTokens,
			Temperature: s.config.Temperature,
		},
	}

	started := time.Now()
	resp, err := s.config.Retry.Do(ctx, func(ctx context.Context) (*genai.GenerationResponse, error) {
		return s.dispatcher.Submit(ctx, req)
	})
	metrics.BackendRequestDuration.WithLabelValues(StageName).Observe(time.Since(started).Seconds())

	if err != nil {
		perr := backendError(err)
		metrics.BackendRequestsTotal.WithLabelValues(StageName, "error").Inc()
		metrics.StageFallbacksTotal.WithLabelValues(StageName).Inc()
		s.logger.Warn("backend call failed, generating fallback ideas for all slots", map[string]interface{}{
			"error":    perr.Error(),
			"code":     string(perr.Code),
			"category": pipeerrors.GetErrorCategory(perr.Code),
			"slots":    plan.SlotCount(),
		})
		return s.mapResponse(ideationResponse{}, index, plan, objectives)
	}
	metrics.BackendRequestsTotal.WithLabelValues(StageName, "success").Inc()

	parsed, err := llmjson.Decode[ideationResponse](resp.Text, ideationSchema)
	if err != nil {
		perr := parseError(err)
		metrics.StageFallbacksTotal.WithLabelValues(StageName).Inc()
		s.logger.Warn("response unparsable, generating fallback ideas for all slots", map[string]interface{}{
			"error":    perr.Error(),
			"code":     string(perr.Code),
			"category": pipeerrors.GetErrorCategory(perr.Code),
		})
		return s.mapResponse(ideationResponse{}, index, plan, objectives)
	}

	return s.mapResponse(parsed, index, plan, objectives)
}

// backendError maps a dispatcher failure onto the pipeline error taxonomy.
func backendError(err error) *pipeerrors.PipelineError {
	if errors.Is(err, genai.ErrBackendTimeout) {
		return pipeerrors.NewBackendTimeoutError(StageName)
	}
	return pipeerrors.NewBackendCallFailedError(StageName, err)
}

// parseError maps an extraction or schema failure onto the taxonomy.
func parseError(err error) *pipeerrors.PipelineError {
	if errors.Is(err, llmjson.ErrNoObject) || errors.Is(err, llmjson.ErrInvalidObject) {
		return pipeerrors.NewResponseNotJSONError(StageName, err)
	}
	return pipeerrors.NewResponseSchemaFailedError(StageName, err.Error())
}

// mapResponse joins response ideas to slots by index; positions the response
// does not cover are filled by the fallback generator. Slot ids always come
// from the plan, never from the response.
func (s *Stage) mapResponse(parsed ideationResponse, index *models.SemanticIndex, plan *models.TemporalPlan, objectives models.Objectives) *models.ContentIdeationResult {
	result := &models.ContentIdeationResult{
		Ideas: make([]models.ContentIdea, len(plan.Slots)),
	}

	danglingRefs := 0
	for i, slot := range plan.Slots {
		if i < len(parsed.Ideas) {
			result.Ideas[i] = toContentIdea(slot.ID, parsed.Ideas[i])
		} else {
			result.Ideas[i] = s.fallbackIdea(slot, i, index, objectives)
			result.FallbackCount++
		}
		if !index.HasTemplate(result.Ideas[i].RecommendedTemplateID) {
			danglingRefs++
		}
	}

	if result.FallbackCount > 0 {
		s.logger.Warn("fallback generator covered part of the plan", map[string]interface{}{
			"fallbackCount": result.FallbackCount,
			"slots":         len(plan.Slots),
		})
	}
	if danglingRefs > 0 {
		// Recorded only; the quality gate rules on template consistency.
		s.logger.Warn("ideas reference templates missing from the semantic index", map[string]interface{}{
			"danglingRefs": danglingRefs,
		})
	}

	return result
}

func (s *Stage) buildPrompt(campaign models.CampaignBrief, workspace models.WorkspaceProfile, index *models.SemanticIndex, plan *models.TemporalPlan, restrictions models.Restrictions, objectives models.Objectives) string {
	var parts []string

	parts = append(parts, "You are a social media content strategist. Propose one content idea per publication slot.")
	parts = append(parts, fmt.Sprintf("\nCampaign: %s. Objective: %s.", campaign.Name, campaign.Objective))
	if objectives.Primary != "" {
		parts = append(parts, fmt.Sprintf("Primary goal: %s.", objectives.Primary))
	}
	if len(objectives.Secondary) > 0 {
		parts = append(parts, fmt.Sprintf("Secondary goals: %s.", strings.Join(objectives.Secondary, ", ")))
	}
	if len(campaign.TargetNetworks) > 0 {
		parts = append(parts, fmt.Sprintf("Target networks: %s.", strings.Join(campaign.TargetNetworks, ", ")))
	}
	parts = append(parts, fmt.Sprintf("\nBrand: %s. Colors: %s / %s. Slogan: %q.",
		workspace.Name, workspace.PrimaryColor, workspace.SecondaryColor, workspace.Slogan))

	if len(restrictions.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("\nRestricted keywords (must never appear): %s",
			strings.Join(restrictions.Keywords, ", ")))
	}
	if restrictions.Notes != "" {
		parts = append(parts, fmt.Sprintf("Restriction notes: %s", restrictions.Notes))
	}

	parts = append(parts, "\nAvailable templates:")
	for _, t := range index.Templates {
		parts = append(parts, fmt.Sprintf("- %s: %s (fit: %s)", t.EntityID, t.VisualSummary, t.BrandCompatibility.Level))
	}
	parts = append(parts, "\nAvailable resources:")
	for _, r := range index.Resources {
		parts = append(parts, fmt.Sprintf("- %s: %s (fit: %s)", r.EntityID, r.VisualSummary, r.BrandCompatibility.Level))
	}

	parts = append(parts, fmt.Sprintf("\nPublication slots (%d total):", plan.SlotCount()))
	preview := plan.Slots
	if len(preview) > slotPreviewLimit {
		preview = preview[:slotPreviewLimit]
	}
	for _, slot := range preview {
		parts = append(parts, fmt.Sprintf("%d. %s", slot.Order+1, slot.ScheduledDate))
	}
	if remainder := plan.SlotCount() - len(preview); remainder > 0 {
		parts = append(parts, fmt.Sprintf("... and %d more slots at the same cadence.", remainder))
	}

	parts = append(parts, "\nInstructions:")
	parts = append(parts, fmt.Sprintf("- Answer with a single JSON object: {\"ideas\": [...]} holding exactly %d entries, one per slot in order", plan.SlotCount()))
	parts = append(parts, "- Each entry: recommendedTemplateId, format (single|carousel|text-only), resourceStrategy{required, optional, fallback}, creativeDirection, qualityChecklist{logoInSafeArea, contrastRatio, textDensity, predictedRisks}")
	parts = append(parts, "- recommendedTemplateId must be one of the template ids listed above")

	return strings.Join(parts, "\n")
}

func toContentIdea(slotID string, p ideaPayload) models.ContentIdea {
	return models.ContentIdea{
		SlotID:                slotID,
		RecommendedTemplateID: p.RecommendedTemplateID,
		Format:                normalizeFormat(p.Format),
		ResourceStrategy: models.ResourceStrategy{
			Required: p.ResourceStrategy.Required,
			Optional: p.ResourceStrategy.Optional,
			Fallback: p.ResourceStrategy.Fallback,
		},
		CreativeDirection: p.CreativeDirection,
		QualityChecklist: models.QualityChecklist{
			LogoInSafeArea: p.QualityChecklist.LogoInSafeArea,
			ContrastRatio:  normalizeBucket(p.QualityChecklist.ContrastRatio),
			TextDensity:    normalizeBucket(p.QualityChecklist.TextDensity),
			PredictedRisks: p.QualityChecklist.PredictedRisks,
		},
	}
}

func normalizeFormat(format string) string {
	switch strings.ToLower(format) {
	case models.FormatSingle, models.FormatCarousel, models.FormatTextOnly:
		return strings.ToLower(format)
	default:
		return models.FormatSingle
	}
}

func normalizeBucket(bucket string) string {
	switch strings.ToLower(bucket) {
	case models.ContrastLow, models.ContrastMedium, models.ContrastHigh:
		return strings.ToLower(bucket)
	default:
		return models.ContrastMedium
	}
}

// fallbackIdea builds a deterministic idea for one slot: templates and
// resources are assigned round-robin by slot index, the creative direction
// cycles through a fixed theme list parameterized with the campaign goal.
func (s *Stage) fallbackIdea(slot models.TimeSlot, i int, index *models.SemanticIndex, objectives models.Objectives) models.ContentIdea {
	idea := models.ContentIdea{
		SlotID:   slot.ID,
		Format:   models.FormatTextOnly,
		Fallback: true,
		QualityChecklist: models.QualityChecklist{
			LogoInSafeArea: true,
			ContrastRatio:  models.ContrastMedium,
			TextDensity:    models.DensityMedium,
			PredictedRisks: []string{},
		},
	}

	if len(index.Templates) > 0 {
		idea.RecommendedTemplateID = index.Templates[i%len(index.Templates)].EntityID
		idea.Format = models.FormatSingle
	}
	if len(index.Resources) > 0 {
		idea.ResourceStrategy.Required = []string{index.Resources[i%len(index.Resources)].EntityID}
	}

	theme := fallbackThemes[i%len(fallbackThemes)]
	goal := objectives.Primary
	if goal == "" {
		goal = "brand awareness"
	}
	idea.CreativeDirection = fmt.Sprintf("A %s post for %s, aligned with the %s goal", theme, slot.ScheduledDate, goal)

	return idea
}
