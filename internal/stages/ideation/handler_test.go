// internal/stages/ideation/handler_test.go
package ideation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipeerrors "content-orchestrator/internal/common/errors"
	"content-orchestrator/internal/common/logger"
	"content-orchestrator/internal/genai"
	"content-orchestrator/internal/models"
)

type stubDispatcher struct {
	response *genai.GenerationResponse
	err      error
	calls    int
	prompts  []string
}

func (s *stubDispatcher) Submit(ctx context.Context, req *genai.GenerationRequest) (*genai.GenerationResponse, error) {
	s.calls++
	s.prompts = append(s.prompts, req.PromptText)
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func testPlan(slots int) *models.TemporalPlan {
	plan := &models.TemporalPlan{
		CampaignID:    "camp-1",
		IntervalHours: 24,
	}
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < slots; i++ {
		ts := start.AddDate(0, 0, i)
		plan.Slots = append(plan.Slots, models.TimeSlot{
			ID:            fmt.Sprintf("slot-%d", i),
			Order:         i,
			Timestamp:     ts,
			ScheduledDate: ts.Format(time.RFC3339),
		})
	}
	return plan
}

func testIndex(resources, templates int) *models.SemanticIndex {
	index := &models.SemanticIndex{}
	for i := 0; i < resources; i++ {
		index.Resources = append(index.Resources, models.ResourceDescriptor{
			EntityID:      fmt.Sprintf("res-%d", i),
			VisualSummary: fmt.Sprintf("resource %d", i),
		})
	}
	for i := 0; i < templates; i++ {
		index.Templates = append(index.Templates, models.TemplateDescriptor{
			EntityID:           fmt.Sprintf("tpl-%d", i),
			VisualSummary:      fmt.Sprintf("template %d", i),
			NetworkSuitability: []string{"instagram"},
		})
	}
	return index
}

func testCampaign() models.CampaignBrief {
	return models.CampaignBrief{
		ID:             "camp-1",
		Name:           "Summer Launch",
		Objective:      "introduce the cold brew line",
		TargetNetworks: []string{"instagram", "facebook"},
	}
}

func testWorkspace() models.WorkspaceProfile {
	return models.WorkspaceProfile{Name: "Solara Coffee", Slogan: "Brewed for bright mornings"}
}

func ideationResponseText(ideas int, templateID string) string {
	body := map[string]interface{}{"ideas": []interface{}{}}
	for i := 0; i < ideas; i++ {
		body["ideas"] = append(body["ideas"].([]interface{}), map[string]interface{}{
			"recommendedTemplateId": templateID,
			"format":                "single",
			"resourceStrategy":      map[string][]string{"required": {"res-0"}},
			"creativeDirection":     fmt.Sprintf("idea %d direction", i),
			"qualityChecklist": map[string]interface{}{
				"logoInSafeArea": true,
				"contrastRatio":  "high",
				"textDensity":    "low",
				"predictedRisks": []string{},
			},
		})
	}
	data, _ := json.Marshal(body)
	return string(data)
}

func TestGenerateIdeas_OneIdeaPerSlot(t *testing.T) {
	dispatcher := &stubDispatcher{
		response: &genai.GenerationResponse{Text: ideationResponseText(4, "tpl-1")},
	}
	stage := New(DefaultConfig(), dispatcher, logger.NewTestLogger(t))

	result := stage.GenerateIdeas(context.Background(), testCampaign(), testWorkspace(),
		testIndex(2, 3), testPlan(4), models.Restrictions{}, models.Objectives{})

	require.Len(t, result.Ideas, 4)
	assert.Zero(t, result.FallbackCount)
	assert.Equal(t, 1, dispatcher.calls, "one batched request for the whole plan")

	for i, idea := range result.Ideas {
		assert.Equal(t, fmt.Sprintf("slot-%d", i), idea.SlotID, "slot ids come from the plan, not the response")
		assert.Equal(t, "tpl-1", idea.RecommendedTemplateID)
		assert.Equal(t, fmt.Sprintf("idea %d direction", i), idea.CreativeDirection)
		assert.False(t, idea.Fallback)
	}
}

func TestGenerateIdeas_TotalBackendFailure(t *testing.T) {
	dispatcher := &stubDispatcher{err: errors.New("backend down")}
	config := DefaultConfig()
	config.Retry = genai.NoRetry()
	stage := New(config, dispatcher, logger.NewTestLogger(t))

	result := stage.GenerateIdeas(context.Background(), testCampaign(), testWorkspace(),
		testIndex(5, 3), testPlan(10), models.Restrictions{}, models.Objectives{Primary: "grow reach"})

	require.Len(t, result.Ideas, 10, "never fewer ideas than slots")
	assert.Equal(t, 10, result.FallbackCount)

	for i, idea := range result.Ideas {
		assert.True(t, idea.Fallback)
		assert.Equal(t, fmt.Sprintf("slot-%d", i), idea.SlotID)
		assert.Equal(t, fmt.Sprintf("tpl-%d", i%3), idea.RecommendedTemplateID, "templates assigned round-robin")
		require.Len(t, idea.ResourceStrategy.Required, 1)
		assert.Equal(t, fmt.Sprintf("res-%d", i%5), idea.ResourceStrategy.Required[0], "resources assigned round-robin")
		assert.Contains(t, idea.CreativeDirection, "grow reach")
		assert.NotEmpty(t, idea.CreativeDirection)
	}

	// Theme cycling: slots one full theme-list apart share their theme text.
	assert.Equal(t,
		result.Ideas[0].CreativeDirection[:20],
		result.Ideas[len(fallbackThemes)].CreativeDirection[:20])
}

func TestGenerateIdeas_FallbackIsDeterministic(t *testing.T) {
	dispatcher := &stubDispatcher{err: errors.New("backend down")}
	config := DefaultConfig()
	config.Retry = genai.NoRetry()
	stage := New(config, dispatcher, logger.NewTestLogger(t))

	first := stage.GenerateIdeas(context.Background(), testCampaign(), testWorkspace(),
		testIndex(2, 2), testPlan(6), models.Restrictions{}, models.Objectives{})
	second := stage.GenerateIdeas(context.Background(), testCampaign(), testWorkspace(),
		testIndex(2, 2), testPlan(6), models.Restrictions{}, models.Objectives{})

	assert.Equal(t, first.Ideas, second.Ideas)
}

func TestGenerateIdeas_ShortResponsePaddedWithFallbacks(t *testing.T) {
	dispatcher := &stubDispatcher{
		response: &genai.GenerationResponse{Text: ideationResponseText(2, "tpl-0")},
	}
	stage := New(DefaultConfig(), dispatcher, logger.NewTestLogger(t))

	result := stage.GenerateIdeas(context.Background(), testCampaign(), testWorkspace(),
		testIndex(2, 2), testPlan(5), models.Restrictions{}, models.Objectives{})

	require.Len(t, result.Ideas, 5)
	assert.Equal(t, 3, result.FallbackCount)
	assert.False(t, result.Ideas[0].Fallback)
	assert.False(t, result.Ideas[1].Fallback)
	for _, idea := range result.Ideas[2:] {
		assert.True(t, idea.Fallback)
	}
}

func TestGenerateIdeas_UnparsableResponse(t *testing.T) {
	dispatcher := &stubDispatcher{response: &genai.GenerationResponse{Text: "no structure here"}}
	stage := New(DefaultConfig(), dispatcher, logger.NewTestLogger(t))

	result := stage.GenerateIdeas(context.Background(), testCampaign(), testWorkspace(),
		testIndex(1, 1), testPlan(3), models.Restrictions{}, models.Objectives{})

	require.Len(t, result.Ideas, 3)
	assert.Equal(t, 3, result.FallbackCount)
}

func TestGenerateIdeas_EmptyPlan(t *testing.T) {
	dispatcher := &stubDispatcher{}
	stage := New(DefaultConfig(), dispatcher, logger.NewTestLogger(t))

	result := stage.GenerateIdeas(context.Background(), testCampaign(), testWorkspace(),
		testIndex(1, 1), testPlan(0), models.Restrictions{}, models.Objectives{})

	assert.Empty(t, result.Ideas)
	assert.Zero(t, dispatcher.calls, "no backend call for an empty plan")
}

func TestGenerateIdeas_NormalizesFormatsAndBuckets(t *testing.T) {
	body := `{"ideas": [{
		"recommendedTemplateId": "tpl-0",
		"format": "HOLOGRAM",
		"creativeDirection": "d",
		"qualityChecklist": {"contrastRatio": "EXTREME", "textDensity": "Low"}
	}]}`
	dispatcher := &stubDispatcher{response: &genai.GenerationResponse{Text: body}}
	stage := New(DefaultConfig(), dispatcher, logger.NewTestLogger(t))

	result := stage.GenerateIdeas(context.Background(), testCampaign(), testWorkspace(),
		testIndex(1, 1), testPlan(1), models.Restrictions{}, models.Objectives{})

	require.Len(t, result.Ideas, 1)
	assert.Equal(t, models.FormatSingle, result.Ideas[0].Format)
	assert.Equal(t, models.ContrastMedium, result.Ideas[0].QualityChecklist.ContrastRatio)
	assert.Equal(t, models.DensityLow, result.Ideas[0].QualityChecklist.TextDensity)
}

func TestGenerateIdeas_PromptPreviewsFirstFiveSlots(t *testing.T) {
	dispatcher := &stubDispatcher{err: errors.New("down")}
	config := DefaultConfig()
	config.Retry = genai.NoRetry()
	stage := New(config, dispatcher, logger.NewTestLogger(t))

	plan := testPlan(9)
	stage.GenerateIdeas(context.Background(), testCampaign(), testWorkspace(),
		testIndex(1, 1), plan, models.Restrictions{Keywords: []string{"cheap"}}, models.Objectives{})

	require.Len(t, dispatcher.prompts, 1)
	prompt := dispatcher.prompts[0]
	assert.Contains(t, prompt, plan.Slots[4].ScheduledDate, "fifth slot spelled out")
	assert.NotContains(t, prompt, plan.Slots[5].ScheduledDate, "sixth slot only counted")
	assert.Contains(t, prompt, "4 more slots")
	assert.Contains(t, prompt, "cheap")
	assert.Contains(t, prompt, "Summer Launch")
}

// recordingLogger captures warn fields so tests can assert on the error
// classification the stage reports while degrading.
type recordingLogger struct {
	warns []map[string]interface{}
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) {}
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  {}
func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.warns = append(l.warns, fields)
}
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {}
func (l *recordingLogger) WithFields(fields map[string]interface{}) logger.Logger { return l }
func (l *recordingLogger) WithError(err error) logger.Logger { return l }
func (l *recordingLogger) With(fields map[string]interface{}) logger.Logger { return l }

func TestGenerateIdeas_DegradationsCarryTaxonomyCodes(t *testing.T) {
	tests := []struct {
		name         string
		dispatcher   *stubDispatcher
		wantCode     pipeerrors.ErrorCode
		wantCategory string
	}{
		{
			name:         "backend failure",
			dispatcher:   &stubDispatcher{err: errors.New("backend down")},
			wantCode:     pipeerrors.ErrCodeBackendCallFailed,
			wantCategory: "BACKEND",
		},
		{
			name:         "backend timeout",
			dispatcher:   &stubDispatcher{err: genai.ErrBackendTimeout},
			wantCode:     pipeerrors.ErrCodeBackendTimeout,
			wantCategory: "BACKEND",
		},
		{
			name:         "no JSON object in response",
			dispatcher:   &stubDispatcher{response: &genai.GenerationResponse{Text: "no object here"}},
			wantCode:     pipeerrors.ErrCodeResponseNotJSON,
			wantCategory: "PARSE",
		},
		{
			name:         "schema violation",
			dispatcher:   &stubDispatcher{response: &genai.GenerationResponse{Text: `{"ideas": "not an array"}`}},
			wantCode:     pipeerrors.ErrCodeResponseSchemaFailed,
			wantCategory: "PARSE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingLogger{}
			config := DefaultConfig()
			config.Retry = genai.NoRetry()
			stage := New(config, tt.dispatcher, rec)

			result := stage.GenerateIdeas(context.Background(), testCampaign(), testWorkspace(),
				testIndex(2, 2), testPlan(3), models.Restrictions{}, models.Objectives{})

			require.Len(t, result.Ideas, 3, "degradation never shrinks the output")
			require.NotEmpty(t, rec.warns)
			assert.Equal(t, string(tt.wantCode), rec.warns[0]["code"])
			assert.Equal(t, tt.wantCategory, rec.warns[0]["category"])
		})
	}
}
