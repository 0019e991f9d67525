// internal/stages/ideation/models.go
package ideation

// ideaPayload is one idea entry of the backend response, mapped positionally
// onto the temporal plan's slots; slot ids always come from the plan.
type ideaPayload struct {
	RecommendedTemplateID string `json:"recommendedTemplateId"`
	Format                string `json:"format"`
	ResourceStrategy      struct {
		Required []string `json:"required"`
		Optional []string `json:"optional"`
		Fallback []string `json:"fallback"`
	} `json:"resourceStrategy"`
	CreativeDirection string `json:"creativeDirection"`
	QualityChecklist  struct {
		LogoInSafeArea bool     `json:"logoInSafeArea"`
		ContrastRatio  string   `json:"contrastRatio"`
		TextDensity    string   `json:"textDensity"`
		PredictedRisks []string `json:"predictedRisks"`
	} `json:"qualityChecklist"`
}

// ideationResponse is the JSON object expected inside the backend text.
type ideationResponse struct {
	Ideas []ideaPayload `json:"ideas"`
}

// ideationSchema gates the extracted JSON before positional mapping.
const ideationSchema = `{
	"type": "object",
	"required": ["ideas"],
	"properties": {
		"ideas": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["recommendedTemplateId", "creativeDirection"],
				"properties": {
					"recommendedTemplateId": {"type": "string"},
					"format": {"type": "string"},
					"creativeDirection": {"type": "string"}
				}
			}
		}
	}
}`
