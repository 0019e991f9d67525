// internal/models/result.go
package models

import "time"

// ContentOrchestrationResult is the full pipeline output handed to the
// persistence layer and the downstream renderers. JSON-serializable; a
// round-trip preserves slot count, ordering and per-slot validation status.
type ContentOrchestrationResult struct {
	RunID            string                  `json:"runId"`
	CampaignID       string                  `json:"campaignId"`
	SemanticIndex    SemanticIndex           `json:"semanticIndex"`
	TemporalPlan     TemporalPlan            `json:"temporalPlan"`
	ContentIdeas     []ContentIdea           `json:"contentIdeas"`
	ConsolidatedPlan ConsolidatedContentPlan `json:"consolidatedPlan"`
	QualityReport    QualityReport           `json:"qualityReport"`
	Timestamp        time.Time               `json:"timestamp"`
	ProcessingTimeMs int64                   `json:"processingTimeMs"`
}
