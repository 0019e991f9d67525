// internal/stages/consolidation/consolidation.go

// Package consolidation joins ideas with their slots and template
// descriptors into the consolidated content plan. Pure and deterministic:
// no backend calls, no fallbacks, no mutation of its inputs.
package consolidation

import (
	"content-orchestrator/internal/models"
)

// Consolidate projects one consolidated slot per idea, in slot order, and
// computes the counting statistics over the result.
func Consolidate(ideas []models.ContentIdea, index *models.SemanticIndex, plan *models.TemporalPlan) *models.ConsolidatedContentPlan {
	slotByID := make(map[string]models.TimeSlot, len(plan.Slots))
	for _, slot := range plan.Slots {
		slotByID[slot.ID] = slot
	}

	consolidated := &models.ConsolidatedContentPlan{
		Slots: make([]models.ConsolidatedSlot, len(ideas)),
	}
	for i, idea := range ideas {
		tmpl := index.Template(idea.RecommendedTemplateID)
		consolidated.Slots[i] = models.ConsolidatedSlot{
			Slot:             slotByID[idea.SlotID],
			Idea:             idea,
			Template:         tmpl,
			ValidationStatus: validationStatus(idea, tmpl),
		}
	}
	consolidated.Statistics = computeStatistics(consolidated.Slots)

	return consolidated
}

// validationStatus grades one slot: error on a dangling template reference,
// warning when the checklist carries risk signals, passed otherwise.
func validationStatus(idea models.ContentIdea, tmpl *models.TemplateDescriptor) string {
	switch {
	case tmpl == nil:
		return models.ValidationError
	case len(idea.QualityChecklist.PredictedRisks) > 0 || !idea.QualityChecklist.LogoInSafeArea:
		return models.ValidationWarning
	default:
		return models.ValidationPassed
	}
}

func computeStatistics(slots []models.ConsolidatedSlot) models.PlanStatistics {
	stats := models.PlanStatistics{
		ByNetwork:        make(map[string]int),
		ByFormat:         make(map[string]int),
		ByContrastBucket: make(map[string]int),
		ByResource:       make(map[string]int),
		ByTemplate:       make(map[string]int),
	}

	for _, s := range slots {
		stats.ByFormat[s.Idea.Format]++
		stats.ByContrastBucket[s.Idea.QualityChecklist.ContrastRatio]++
		if s.Idea.RecommendedTemplateID != "" {
			stats.ByTemplate[s.Idea.RecommendedTemplateID]++
		}
		for _, id := range s.Idea.ResourceStrategy.Required {
			stats.ByResource[id]++
		}
		if s.Template != nil {
			for _, network := range s.Template.NetworkSuitability {
				stats.ByNetwork[network]++
			}
		}
	}

	return stats
}
