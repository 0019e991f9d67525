// internal/genai/models.go
package genai

// GenerationOptions tune a single backend call.
type GenerationOptions struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

// GenerationRequest is one unit of work for the generation backend.
// Immutable once created; owned by the dispatcher until dispatched.
type GenerationRequest struct {
	BackendTarget  string                 `json:"backendTarget"`
	PromptText     string                 `json:"promptText"`
	ContextPayload map[string]interface{} `json:"contextPayload,omitempty"`
	Options        GenerationOptions      `json:"options"`
}

// Usage reports token accounting for one response.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// GenerationResponse is produced once per request and consumed only by the
// issuing stage.
type GenerationResponse struct {
	Text     string                 `json:"text"`
	Usage    Usage                  `json:"usage"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
