// internal/models/idea.go
package models

// Content formats an idea may target.
const (
	FormatSingle   = "single"
	FormatCarousel = "carousel"
	FormatTextOnly = "text-only"
)

// Quality-checklist signal buckets.
const (
	ContrastLow    = "low"
	ContrastMedium = "medium"
	ContrastHigh   = "high"

	DensityLow    = "low"
	DensityMedium = "medium"
	DensityHigh   = "high"
)

// ResourceStrategy lists the resource ids an idea depends on, by tier.
// Only required ids are checked against the available catalog.
type ResourceStrategy struct {
	Required []string `json:"required"`
	Optional []string `json:"optional,omitempty"`
	Fallback []string `json:"fallback,omitempty"`
}

// QualityChecklist carries the per-idea legibility signals the quality gate
// inspects.
type QualityChecklist struct {
	LogoInSafeArea bool     `json:"logoInSafeArea"`
	ContrastRatio  string   `json:"contrastRatio"`
	TextDensity    string   `json:"textDensity"`
	PredictedRisks []string `json:"predictedRisks"`
}

// ContentIdea is one creative idea bound to a time slot. Exactly one idea
// exists per slot; regeneration replaces, never deletes.
type ContentIdea struct {
	SlotID                string           `json:"slotId"`
	RecommendedTemplateID string           `json:"recommendedTemplateId"`
	Format                string           `json:"format"`
	ResourceStrategy      ResourceStrategy `json:"resourceStrategy"`
	CreativeDirection     string           `json:"creativeDirection"`
	QualityChecklist      QualityChecklist `json:"qualityChecklist"`
	Fallback              bool             `json:"fallback,omitempty"`
}

// ContentIdeationResult is the ideation stage output: one idea per temporal
// slot, plus how many came from the deterministic fallback generator.
type ContentIdeationResult struct {
	Ideas         []ContentIdea `json:"ideas"`
	FallbackCount int           `json:"fallbackCount"`
}
