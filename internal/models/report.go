// internal/models/report.go
package models

// QualityChecks are the five independent boolean checks run by the gate.
type QualityChecks struct {
	TemplateConsistency    bool `json:"templateConsistency"`
	ResourceAvailability   bool `json:"resourceAvailability"`
	RestrictionsCompliance bool `json:"restrictionsCompliance"`
	LegibilitySignals      bool `json:"legibilitySignals"`
	BrandAlignment         bool `json:"brandAlignment"`
}

// Passed returns how many of the five checks passed.
func (c QualityChecks) Passed() int {
	n := 0
	for _, ok := range []bool{
		c.TemplateConsistency,
		c.ResourceAvailability,
		c.RestrictionsCompliance,
		c.LegibilitySignals,
		c.BrandAlignment,
	} {
		if ok {
			n++
		}
	}
	return n
}

// QualityReport is the immutable verdict computed once per pipeline run.
// A plan is ready for production when OverallScore >= 70 and no critical
// issues were recorded.
type QualityReport struct {
	Checks             QualityChecks `json:"checks"`
	OverallScore       int           `json:"overallScore"`
	CriticalIssues     []string      `json:"criticalIssues"`
	Recommendations    []string      `json:"recommendations"`
	ReadyForProduction bool          `json:"readyForProduction"`
}
