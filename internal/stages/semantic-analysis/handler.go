// internal/stages/semantic-analysis/handler.go
package semanticanalysis

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
	StageName = "semantic-analysis"
)

// Dispatcher is the admission-controlled submit surface the stage issues its
// single batched request through.
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
		Temperature: 0.4,
		Retry:       genai.DefaultRetryPolicy(),
	}
}

// Stage produces the semantic index: one descriptor per resource and per
// template, in input order. Backend or parse failures degrade to the
// deterministic fallback descriptors; the stage never returns a short index.
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

// Analyze builds one batched generation request covering the whole catalog
// and maps the response positionally onto the inputs. Output arrays always
// have the same length and order as the input arrays.
func (s *Stage) Analyze(ctx context.Context, resources []models.Resource, templates []models.Template, workspace models.WorkspaceProfile, restrictions models.Restrictions) *models.SemanticIndex {
	req := &genai.GenerationRequest{
		BackendTarget: StageName,
		PromptText:    s.buildPrompt(resources, templates, workspace, restrictions),
		ContextPayload: map[string]interface{}{
			"workspace":     workspace.Name,
			"resourceCount": len(resources),
			"templateCount": len(templates),
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
		s.logger.Warn("backend call failed, using fallback descriptors", map[string]interface{}{
			"error":    perr.Error(),
			"code":     string(perr.Code),
			"category": pipeerrors.GetErrorCategory(perr.Code),
		})
		return s.fallbackIndex(resources, templates)
	}
	metrics.BackendRequestsTotal.WithLabelValues(StageName, "success").Inc()

	parsed, err := llmjson.Decode[analysisResponse](resp.Text, analysisSchema)
	if err != nil {
		perr := parseError(err)
		metrics.StageFallbacksTotal.WithLabelValues(StageName).Inc()
		s.logger.Warn("response unparsable, using fallback descriptors", map[string]interface{}{
			"error":    perr.Error(),
			"code":     string(perr.Code),
			"category": pipeerrors.GetErrorCategory(perr.Code),
		})
		return s.fallbackIndex(resources, templates)
	}

	return s.mapResponse(parsed, resources, templates)
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

// mapResponse joins response entries to inputs by index. Short responses are
// padded with fallback descriptors; extra entries are discarded.
func (s *Stage) mapResponse(parsed analysisResponse, resources []models.Resource, templates []models.Template) *models.SemanticIndex {
	index := &models.SemanticIndex{
		Resources:   make([]models.ResourceDescriptor, len(resources)),
		Templates:   make([]models.TemplateDescriptor, len(templates)),
		GeneratedAt: time.Now().UTC(),
	}

	padded := 0
	for i, r := range resources {
		if i < len(parsed.Resources) {
			index.Resources[i] = toResourceDescriptor(r.ID, parsed.Resources[i])
		} else {
			index.Resources[i] = fallbackResourceDescriptor(r)
			padded++
		}
	}
	for i, t := range templates {
		if i < len(parsed.Templates) {
			index.Templates[i] = toTemplateDescriptor(t.ID, parsed.Templates[i])
		} else {
			index.Templates[i] = fallbackTemplateDescriptor(t)
			padded++
		}
	}

	if padded > 0 {
		index.FallbackUsed = true
		s.logger.Warn("response shorter than catalog, padded with fallbacks", map[string]interface{}{
			"padded": padded,
		})
	}

	return index
}

func (s *Stage) buildPrompt(resources []models.Resource, templates []models.Template, workspace models.WorkspaceProfile, restrictions models.Restrictions) string {
	var parts []string

	parts = append(parts, "You are a brand content analyst. Describe every media resource and design template below.")
	parts = append(parts, fmt.Sprintf("\nBrand: %s. Colors: %s / %s. Slogan: %q.",
		workspace.Name, workspace.PrimaryColor, workspace.SecondaryColor, workspace.Slogan))
	if workspace.Description != "" {
		parts = append(parts, fmt.Sprintf("Brand description: %s", workspace.Description))
	}

	if len(restrictions.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("\nRestricted keywords (must never appear): %s",
			strings.Join(restrictions.Keywords, ", ")))
	}

	parts = append(parts, "\nResources (keep this exact order in your answer):")
	for i, r := range resources {
		parts = append(parts, fmt.Sprintf("%d. [%s] %s (%s)", i+1, r.Type, r.Name, r.MimeType))
	}

	parts = append(parts, "\nTemplates (keep this exact order in your answer):")
	for i, t := range templates {
		parts = append(parts, fmt.Sprintf("%d. [%s] %s (networks: %s)", i+1, t.Type, t.Name,
			strings.Join(t.SocialNetworks, ", ")))
	}

	parts = append(parts, "\nInstructions:")
	parts = append(parts, "- Answer with a single JSON object: {\"resources\": [...], \"templates\": [...]}")
	parts = append(parts, "- One entry per input item, in the same order as listed above")
	parts = append(parts, "- Each entry: visualSummary, distinctiveFeatures, brandCompatibility{level, justification}, recommendedUses, risks, networkSuitability")
	parts = append(parts, "- brandCompatibility.level is one of: high, medium, low")

	return strings.Join(parts, "\n")
}

func toResourceDescriptor(entityID string, p descriptorPayload) models.ResourceDescriptor {
	return models.ResourceDescriptor{
		EntityID:            entityID,
		VisualSummary:       p.VisualSummary,
		DistinctiveFeatures: p.DistinctiveFeatures,
		BrandCompatibility: models.BrandCompatibility{
			Level:         normalizeLevel(p.BrandCompatibility.Level),
			Justification: p.BrandCompatibility.Justification,
		},
		RecommendedUses:    p.RecommendedUses,
		Risks:              p.Risks,
		NetworkSuitability: p.NetworkSuitability,
	}
}

func toTemplateDescriptor(entityID string, p descriptorPayload) models.TemplateDescriptor {
	return models.TemplateDescriptor{
		EntityID:            entityID,
		VisualSummary:       p.VisualSummary,
		DistinctiveFeatures: p.DistinctiveFeatures,
		BrandCompatibility: models.BrandCompatibility{
			Level:         normalizeLevel(p.BrandCompatibility.Level),
			Justification: p.BrandCompatibility.Justification,
		},
		RecommendedUses:    p.RecommendedUses,
		Risks:              p.Risks,
		NetworkSuitability: p.NetworkSuitability,
	}
}

func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case models.BrandCompatHigh, models.BrandCompatMedium, models.BrandCompatLow:
		return strings.ToLower(level)
	default:
		return models.BrandCompatUnknown
	}
}

// fallbackIndex builds a full deterministic index from static metadata only.
func (s *Stage) fallbackIndex(resources []models.Resource, templates []models.Template) *models.SemanticIndex {
	index := &models.SemanticIndex{
		Resources:    make([]models.ResourceDescriptor, len(resources)),
		Templates:    make([]models.TemplateDescriptor, len(templates)),
		FallbackUsed: true,
		GeneratedAt:  time.Now().UTC(),
	}
	for i, r := range resources {
		index.Resources[i] = fallbackResourceDescriptor(r)
	}
	for i, t := range templates {
		index.Templates[i] = fallbackTemplateDescriptor(t)
	}
	return index
}

func fallbackResourceDescriptor(r models.Resource) models.ResourceDescriptor {
	return models.ResourceDescriptor{
		EntityID:            r.ID,
		VisualSummary:       fmt.Sprintf("%s resource %q, pending visual review", r.Type, r.Name),
		DistinctiveFeatures: []string{r.Type},
		BrandCompatibility: models.BrandCompatibility{
			Level:         models.BrandCompatUnknown,
			Justification: "descriptor generated without backend analysis",
		},
		RecommendedUses:    []string{"general-purpose"},
		Risks:              []string{},
		NetworkSuitability: []string{},
	}
}

func fallbackTemplateDescriptor(t models.Template) models.TemplateDescriptor {
	return models.TemplateDescriptor{
		EntityID:            t.ID,
		VisualSummary:       fmt.Sprintf("%s template %q, pending visual review", t.Type, t.Name),
		DistinctiveFeatures: []string{t.Type},
		BrandCompatibility: models.BrandCompatibility{
			Level:         models.BrandCompatUnknown,
			Justification: "descriptor generated without backend analysis",
		},
		RecommendedUses:    []string{"general-purpose"},
		Risks:              []string{},
		NetworkSuitability: t.SocialNetworks,
	}
}
