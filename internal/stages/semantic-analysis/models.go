// internal/stages/semantic-analysis/models.go
package semanticanalysis

// descriptorPayload is one entry of the backend response. Entries are mapped
// positionally onto the input catalog, so only the descriptive fields are
// trusted; entity ids always come from the input.
type descriptorPayload struct {
	VisualSummary       string   `json:"visualSummary"`
	DistinctiveFeatures []string `json:"distinctiveFeatures"`
	BrandCompatibility  struct {
		Level         string `json:"level"`
		Justification string `json:"justification"`
	} `json:"brandCompatibility"`
	RecommendedUses    []string `json:"recommendedUses"`
	Risks              []string `json:"risks"`
	NetworkSuitability []string `json:"networkSuitability"`
}

// analysisResponse is the JSON object expected inside the backend text.
type analysisResponse struct {
	Resources []descriptorPayload `json:"resources"`
	Templates []descriptorPayload `json:"templates"`
}

// analysisSchema gates the extracted JSON before positional mapping.
const analysisSchema = `{
	"type": "object",
	"required": ["resources", "templates"],
	"properties": {
		"resources": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["visualSummary"],
				"properties": {
					"visualSummary": {"type": "string"}
				}
			}
		},
		"templates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["visualSummary"],
				"properties": {
					"visualSummary": {"type": "string"}
				}
			}
		}
	}
}`
