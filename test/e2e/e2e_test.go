// test/e2e/e2e_test.go

// End-to-end tests wiring the real dispatcher, backend client, stages, cache
// and controller together against an httptest backend and a miniredis cache.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-orchestrator/internal/cache"
	"content-orchestrator/internal/common/logger"
	"content-orchestrator/internal/dispatch"
	"content-orchestrator/internal/genai"
	"content-orchestrator/internal/models"
	"content-orchestrator/internal/pipeline"
	"content-orchestrator/internal/stages/ideation"
	qualitygate "content-orchestrator/internal/stages/quality-gate"
	semanticanalysis "content-orchestrator/internal/stages/semantic-analysis"
)

// buildController wires the full stack against the given backend URL.
func buildController(t *testing.T, backendURL string, planCache pipeline.PlanCache) *pipeline.Controller {
	t.Helper()
	log := logger.NewTestLogger(t)

	backend := genai.NewClient(&genai.Config{
		BaseURL:     backendURL,
		Timeout:     2 * time.Second,
		MaxTokens:   2000,
		Temperature: 0.7,
	}, log)
	dispatcher := dispatch.New(backend, 5, log)

	semanticConfig := semanticanalysis.DefaultConfig()
	semanticConfig.Retry = genai.NoRetry()
	ideationConfig := ideation.DefaultConfig()
	ideationConfig.Retry = genai.NoRetry()

	return pipeline.NewController(
		semanticanalysis.New(semanticConfig, dispatcher, log),
		ideation.New(ideationConfig, dispatcher, log),
		qualitygate.New(log),
		planCache,
		nil,
		pipeline.Options{DefaultIntervalHours: 24},
		log,
	)
}

// tenSlotInput is 5 resources + 3 templates over a window yielding 10 slots.
func tenSlotInput() pipeline.RunInput {
	input := pipeline.RunInput{
		Campaign: models.CampaignBrief{
			ID:            "camp-e2e",
			WorkspaceID:   "ws-1",
			Name:          "Summer Launch",
			Objective:     "introduce the cold brew line",
			StartDate:     "2024-06-01T09:00:00Z",
			EndDate:       "2024-06-10T09:00:00Z",
			IntervalHours: 24,
		},
		Workspace: models.WorkspaceProfile{
			Name:           "Solara Coffee",
			PrimaryColor:   "#4A2C1A",
			SecondaryColor: "#F2C166",
			Slogan:         "Brewed for bright mornings",
		},
	}
	for i := 0; i < 5; i++ {
		input.Resources = append(input.Resources, models.Resource{
			ID: fmt.Sprintf("res-%d", i), Name: fmt.Sprintf("Resource %d", i),
			Type: "image", MimeType: "image/png",
		})
	}
	for i := 0; i < 3; i++ {
		input.Templates = append(input.Templates, models.Template{
			ID: fmt.Sprintf("tpl-%d", i), Name: fmt.Sprintf("Template %d", i),
			Type: "single", SocialNetworks: []string{"instagram"},
		})
	}
	return input
}

func wrapBackendText(text string) string {
	envelope := map[string]interface{}{
		"text":  text,
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 50, "total_tokens": 60},
	}
	data, _ := json.Marshal(envelope)
	return string(data)
}

// healthyBackend answers both stage prompts with well-formed payloads.
func healthyBackend(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Target string `json:"target"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch body.Target {
		case "semantic-analysis":
			entry := func(kind string, i int) map[string]interface{} {
				return map[string]interface{}{
					"visualSummary":      fmt.Sprintf("%s %d", kind, i),
					"brandCompatibility": map[string]string{"level": "high", "justification": "fits"},
					"networkSuitability": []string{"instagram"},
				}
			}
			payload := map[string]interface{}{
				"resources": []interface{}{entry("resource", 0), entry("resource", 1), entry("resource", 2), entry("resource", 3), entry("resource", 4)},
				"templates": []interface{}{entry("template", 0), entry("template", 1), entry("template", 2)},
			}
			data, _ := json.Marshal(payload)
			w.Write([]byte(wrapBackendText("analysis:\n" + string(data))))
		case "ideation":
			ideas := []interface{}{}
			for i := 0; i < 10; i++ {
				ideas = append(ideas, map[string]interface{}{
					"recommendedTemplateId": fmt.Sprintf("tpl-%d", i%3),
					"format":                "single",
					"resourceStrategy":      map[string][]string{"required": {fmt.Sprintf("res-%d", i%5)}},
					"creativeDirection":     fmt.Sprintf("Solara Coffee idea %d", i),
					"qualityChecklist": map[string]interface{}{
						"logoInSafeArea": true, "contrastRatio": "high", "textDensity": "low", "predictedRisks": []string{},
					},
				})
			}
			data, _ := json.Marshal(map[string]interface{}{"ideas": ideas})
			w.Write([]byte(wrapBackendText(string(data))))
		default:
			t.Fatalf("unexpected backend target %q", body.Target)
		}
	}))
}

func TestPipeline_HealthyBackend(t *testing.T) {
	server := healthyBackend(t)
	defer server.Close()

	controller := buildController(t, server.URL, nil)
	result, err := controller.Run(context.Background(), tenSlotInput())
	require.NoError(t, err)

	assert.Equal(t, 10, result.TemporalPlan.SlotCount())
	require.Len(t, result.ConsolidatedPlan.Slots, 10)
	assert.False(t, result.SemanticIndex.FallbackUsed)

	for i, slot := range result.ConsolidatedPlan.Slots {
		assert.Equal(t, models.ValidationPassed, slot.ValidationStatus)
		assert.Equal(t, i, slot.Slot.Order)
		assert.False(t, slot.Idea.Fallback)
		require.NotNil(t, slot.Template)
	}

	assert.Equal(t, 100, result.QualityReport.OverallScore)
	assert.True(t, result.QualityReport.ReadyForProduction)
	assert.Empty(t, result.QualityReport.CriticalIssues)
}

func TestPipeline_TotalBackendFailure(t *testing.T) {
	var backendCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&backendCalls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	controller := buildController(t, server.URL, nil)
	result, err := controller.Run(context.Background(), tenSlotInput())
	require.NoError(t, err, "backend failure never fails the run")

	assert.Positive(t, atomic.LoadInt32(&backendCalls))

	// 5 resources + 3 templates, 10 slots, every backend call failing.
	require.Len(t, result.ConsolidatedPlan.Slots, 10)
	assert.True(t, result.SemanticIndex.FallbackUsed)
	require.Len(t, result.SemanticIndex.Resources, 5)
	require.Len(t, result.SemanticIndex.Templates, 3)

	for _, idea := range result.ContentIdeas {
		assert.True(t, idea.Fallback)
	}

	// Fallback ideas reference real template ids, so consistency holds and
	// the score reflects template/resource existence only.
	assert.True(t, result.QualityReport.Checks.TemplateConsistency)
	assert.True(t, result.QualityReport.Checks.ResourceAvailability)
	assert.Empty(t, result.QualityReport.CriticalIssues)

	foundFallbackRec := false
	for _, rec := range result.QualityReport.Recommendations {
		if rec == "10 of 10 ideas came from fallback generation; rerun once the generation backend recovers" {
			foundFallbackRec = true
		}
	}
	assert.True(t, foundFallbackRec, "report must recommend rerunning after fallback generation")
}

func TestPipeline_ResultServedFromRedisCache(t *testing.T) {
	server := healthyBackend(t)
	defer server.Close()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	planCache := cache.NewPlanCache(client, time.Hour, logger.NewTestLogger(t))

	controller := buildController(t, server.URL, planCache)
	ctx := context.Background()

	first, err := controller.Run(ctx, tenSlotInput())
	require.NoError(t, err)

	second, err := controller.Run(ctx, tenSlotInput())
	require.NoError(t, err)
	assert.Equal(t, first.RunID, second.RunID, "second run served from the cache")

	input := tenSlotInput()
	input.ForceRegenerate = true
	third, err := controller.Run(ctx, input)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, third.RunID, "force flag regenerates")

	fourth, err := controller.Run(ctx, tenSlotInput())
	require.NoError(t, err)
	assert.Equal(t, third.RunID, fourth.RunID, "regenerated result replaced the cache entry")
}

func TestPipeline_RestrictedKeywordBlocksReadiness(t *testing.T) {
	server := healthyBackend(t)
	defer server.Close()

	controller := buildController(t, server.URL, nil)
	input := tenSlotInput()
	// Every healthy-backend idea mentions the brand name.
	input.Restrictions = models.Restrictions{Keywords: []string{"solara"}}

	result, err := controller.Run(context.Background(), input)
	require.NoError(t, err)

	assert.False(t, result.QualityReport.Checks.RestrictionsCompliance)
	assert.NotEmpty(t, result.QualityReport.CriticalIssues)
	assert.False(t, result.QualityReport.ReadyForProduction)
}
