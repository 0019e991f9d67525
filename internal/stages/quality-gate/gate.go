// internal/stages/quality-gate/gate.go

// Package qualitygate scores a consolidated plan's internal consistency
// before hand-off. Five independent boolean checks; consistency problems are
// recorded in the report, never raised as errors.
package qualitygate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	pipeerrors "content-orchestrator/internal/common/errors"
	"content-orchestrator/internal/common/logger"
	"content-orchestrator/internal/models"
)

const (
	StageName = "quality-gate"

	// checkCount is the number of independent checks the score averages.
	checkCount = 5

	// readyThreshold is the minimum overall score for production readiness.
	readyThreshold = 70
)

type Gate struct {
	logger logger.Logger
}

func New(log logger.Logger) *Gate {
	return &Gate{
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Evaluate runs the five checks and computes the readiness verdict. The
// score is round(100 * passed / 5); a plan is ready for production when the
// score is at least 70 and no critical issues were recorded.
func (g *Gate) Evaluate(plan *models.ConsolidatedContentPlan, index *models.SemanticIndex, ideas []models.ContentIdea, available []models.Resource, restrictions models.Restrictions, workspace models.WorkspaceProfile) *models.QualityReport {
	report := &models.QualityReport{
		CriticalIssues:  []string{},
		Recommendations: []string{},
	}

	report.Checks.TemplateConsistency = g.checkTemplateConsistency(ideas, index, report)
	report.Checks.ResourceAvailability = g.checkResourceAvailability(ideas, available, report)
	report.Checks.RestrictionsCompliance = g.checkRestrictionsCompliance(ideas, restrictions, report)
	report.Checks.LegibilitySignals = g.checkLegibilitySignals(ideas, report)
	report.Checks.BrandAlignment = g.checkBrandAlignment(ideas, workspace, report)

	if n := countFallbacks(ideas); n > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%d of %d ideas came from fallback generation; rerun once the generation backend recovers", n, len(ideas)))
	}

	report.OverallScore = int(math.Round(100 * float64(report.Checks.Passed()) / checkCount))
	report.ReadyForProduction = report.OverallScore >= readyThreshold && len(report.CriticalIssues) == 0

	g.logger.Info("quality gate evaluated", map[string]interface{}{
		"score":          report.OverallScore,
		"ready":          report.ReadyForProduction,
		"criticalIssues": len(report.CriticalIssues),
	})

	return report
}

// checkTemplateConsistency verifies every idea's template id resolves to a
// semantic-index descriptor.
func (g *Gate) checkTemplateConsistency(ideas []models.ContentIdea, index *models.SemanticIndex, report *models.QualityReport) bool {
	ok := true
	for _, idea := range ideas {
		if !index.HasTemplate(idea.RecommendedTemplateID) {
			ok = false
			ce := pipeerrors.NewDanglingTemplateRefError(idea.SlotID, idea.RecommendedTemplateID)
			g.logger.Warn(ce.Message, map[string]interface{}{
				"code":    string(ce.Code),
				"details": ce.Details,
			})
			report.CriticalIssues = append(report.CriticalIssues,
				fmt.Sprintf("slot %s references unknown template %q", idea.SlotID, idea.RecommendedTemplateID))
		}
	}
	return ok
}

// checkResourceAvailability verifies every required resource id exists in
// the available set. Optional and fallback tiers are not checked.
func (g *Gate) checkResourceAvailability(ideas []models.ContentIdea, available []models.Resource, report *models.QualityReport) bool {
	known := make(map[string]bool, len(available))
	for _, r := range available {
		known[r.ID] = true
	}

	ok := true
	for _, idea := range ideas {
		for _, id := range idea.ResourceStrategy.Required {
			if !known[id] {
				ok = false
				ce := pipeerrors.NewMissingResourceError(idea.SlotID, id)
				g.logger.Warn(ce.Message, map[string]interface{}{
					"code":    string(ce.Code),
					"details": ce.Details,
				})
				report.CriticalIssues = append(report.CriticalIssues,
					fmt.Sprintf("slot %s requires missing resource %q", idea.SlotID, id))
			}
		}
	}
	return ok
}

// checkRestrictionsCompliance scans each idea's serialized form for
// restricted keywords, case-insensitively.
func (g *Gate) checkRestrictionsCompliance(ideas []models.ContentIdea, restrictions models.Restrictions, report *models.QualityReport) bool {
	if len(restrictions.Keywords) == 0 {
		return true
	}

	ok := true
	for _, idea := range ideas {
		serialized, err := json.Marshal(idea)
		if err != nil {
			continue
		}
		content := strings.ToLower(string(serialized))
		for _, keyword := range restrictions.Keywords {
			if keyword != "" && strings.Contains(content, strings.ToLower(keyword)) {
				ok = false
				report.CriticalIssues = append(report.CriticalIssues,
					fmt.Sprintf("slot %s contains restricted keyword %q", idea.SlotID, keyword))
			}
		}
	}
	return ok
}

// checkLegibilitySignals fails only on the high-density/low-contrast combo.
// Logo placement and predicted risks yield recommendations.
func (g *Gate) checkLegibilitySignals(ideas []models.ContentIdea, report *models.QualityReport) bool {
	ok := true
	for _, idea := range ideas {
		cl := idea.QualityChecklist
		if cl.TextDensity == models.DensityHigh && cl.ContrastRatio == models.ContrastLow {
			ok = false
			report.CriticalIssues = append(report.CriticalIssues,
				fmt.Sprintf("slot %s combines high text density with low contrast", idea.SlotID))
		}
		if !cl.LogoInSafeArea {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("slot %s places the logo outside the safe area", idea.SlotID))
		}
		if len(cl.PredictedRisks) > 0 {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("slot %s carries predicted risks: %s", idea.SlotID, strings.Join(cl.PredictedRisks, ", ")))
		}
	}
	return ok
}

// checkBrandAlignment is advisory: it always passes, but ideas that never
// mention the brand name or slogan yield a recommendation.
func (g *Gate) checkBrandAlignment(ideas []models.ContentIdea, workspace models.WorkspaceProfile, report *models.QualityReport) bool {
	name := strings.ToLower(workspace.Name)
	slogan := strings.ToLower(workspace.Slogan)

	unaligned := 0
	for _, idea := range ideas {
		direction := strings.ToLower(idea.CreativeDirection)
		if name != "" && strings.Contains(direction, name) {
			continue
		}
		if slogan != "" && strings.Contains(direction, slogan) {
			continue
		}
		unaligned++
	}
	if unaligned > 0 {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("%d ideas do not mention the brand name or slogan", unaligned))
	}
	return true
}

func countFallbacks(ideas []models.ContentIdea) int {
	n := 0
	for _, idea := range ideas {
		if idea.Fallback {
			n++
		}
	}
	return n
}
