// internal/models/semantic.go
package models

import "time"

// Brand compatibility levels reported per descriptor.
const (
	BrandCompatHigh    = "high"
	BrandCompatMedium  = "medium"
	BrandCompatLow     = "low"
	BrandCompatUnknown = "unknown"
)

// BrandCompatibility grades how well an entity fits the workspace branding.
type BrandCompatibility struct {
	Level         string `json:"level"`
	Justification string `json:"justification"`
}

// ResourceDescriptor is the semantic-index entry for one media resource.
// Entries are never partial: when generation fails, a deterministic fallback
// descriptor is substituted so cardinality always matches the input set.
type ResourceDescriptor struct {
	EntityID            string             `json:"entityId"`
	VisualSummary       string             `json:"visualSummary"`
	DistinctiveFeatures []string           `json:"distinctiveFeatures"`
	BrandCompatibility  BrandCompatibility `json:"brandCompatibility"`
	RecommendedUses     []string           `json:"recommendedUses"`
	Risks               []string           `json:"risks"`
	NetworkSuitability  []string           `json:"networkSuitability"`
}

// TemplateDescriptor is the semantic-index entry for one design template.
type TemplateDescriptor struct {
	EntityID            string             `json:"entityId"`
	VisualSummary       string             `json:"visualSummary"`
	DistinctiveFeatures []string           `json:"distinctiveFeatures"`
	BrandCompatibility  BrandCompatibility `json:"brandCompatibility"`
	RecommendedUses     []string           `json:"recommendedUses"`
	Risks               []string           `json:"risks"`
	NetworkSuitability  []string           `json:"networkSuitability"`
}

// SemanticIndex is the collection of descriptors for all resources and
// templates of a campaign. Array order matches the input catalog order.
type SemanticIndex struct {
	Resources    []ResourceDescriptor `json:"resources"`
	Templates    []TemplateDescriptor `json:"templates"`
	FallbackUsed bool                 `json:"fallbackUsed"`
	GeneratedAt  time.Time            `json:"generatedAt"`
}

// Template returns the descriptor for the given template id, or nil.
func (s *SemanticIndex) Template(id string) *TemplateDescriptor {
	for i := range s.Templates {
		if s.Templates[i].EntityID == id {
			return &s.Templates[i]
		}
	}
	return nil
}

// HasTemplate reports whether a descriptor exists for the template id.
func (s *SemanticIndex) HasTemplate(id string) bool {
	return s.Template(id) != nil
}
