// Package gemini implements llm.Client on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/telemetry"
)

const (
	DefaultModel       = "gemini-2.0-flash"
	defaultTemperature = float32(0.2)
	defaultTimeout     = 120 * time.Second
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends prompts to a Gemini model.
type Client struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

// NewClient builds a client for the Gemini developer API.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{models: gc.Models, model: model, timeout: defaultTimeout}, nil
}

// Complete runs one prompt and returns the concatenated text parts.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	temp := defaultTemperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(temp)}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	metrics.IncLLMCall("gemini", req.Purpose, err)
	if err != nil {
		return "", fmt.Errorf("gemini generate (%s): %w", req.Purpose, err)
	}
	text := strings.TrimSpace(resp.Text())
	fields := map[string]any{
		"model":      c.model,
		"purpose":    req.Purpose,
		"durationMs": time.Since(start).Milliseconds(),
	}
	if resp.UsageMetadata != nil {
		fields["promptTokens"] = resp.UsageMetadata.PromptTokenCount
		fields["outputTokens"] = resp.UsageMetadata.CandidatesTokenCount
	}
	telemetry.Debug("llm.complete", fields)
	if text == "" {
		return "", fmt.Errorf("gemini (%s): %w", req.Purpose, llm.ErrEmptyResponse)
	}
	return text, nil
}

var _ llm.Client = (*Client)(nil)
