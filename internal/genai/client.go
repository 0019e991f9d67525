// internal/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"content-orchestrator/internal/common/logger"
)

var (
	ErrBackendTimeout = errors.New("BACKEND_TIMEOUT")
	ErrBackendFailed  = errors.New("BACKEND_CALL_FAILED")
)

// Config holds the settings of the generation backend client.
type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Client talks to the generation backend over HTTP. It performs exactly one
// backend call per Invoke; retries are the caller's responsibility (see
// RetryPolicy).
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		// No client-level timeout; deadlines come from the context.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "genai-client",
		}),
	}
}

// Invoke sends one generation request and decodes the backend envelope.
func (c *Client) Invoke(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	opts := req.Options
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = c.config.MaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = c.config.Temperature
	}

	requestBody := map[string]interface{}{
		"prompt":      req.PromptText,
		"context":     req.ContextPayload,
		"target":      req.BackendTarget,
		"max_tokens":  opts.MaxTokens,
		"temperature": opts.Temperature,
	}

	body, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrBackendFailed, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/ai/generate", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrBackendTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrBackendFailed, resp.StatusCode)
	}

	var apiResponse struct {
		Text  string `json:"text"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrBackendFailed, err)
	}

	c.logger.Debug("backend call completed", map[string]interface{}{
		"target":      req.BackendTarget,
		"totalTokens": apiResponse.Usage.TotalTokens,
	})

	return &GenerationResponse{
		Text: apiResponse.Text,
		Usage: Usage{
			PromptTokens:     apiResponse.Usage.PromptTokens,
			CompletionTokens: apiResponse.Usage.CompletionTokens,
			TotalTokens:      apiResponse.Usage.TotalTokens,
		},
		Metadata: apiResponse.Metadata,
	}, nil
}
