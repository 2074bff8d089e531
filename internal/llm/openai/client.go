// Package openai implements llm.Client against the Chat Completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
	// maxErrorBody bounds how much of a failed response ends up in the error.
	maxErrorBody = 512
)

// Client sends prompts to a chat model.
type Client struct {
	BaseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient validates credentials and reads OPENAI_BASE_URL and
// OPENAI_TIMEOUT_SECONDS when set.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("LLM_MODEL is required for OpenAI")
	}
	timeout := defaultTimeout
	if n, err := strconv.Atoi(os.Getenv("OPENAI_TIMEOUT_SECONDS")); err == nil && n > 0 {
		timeout = time.Duration(n) * time.Second
	}
	base := strings.TrimRight(os.Getenv("OPENAI_BASE_URL"), "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{BaseURL: base, apiKey: apiKey, model: model, http: &http.Client{Timeout: timeout}}, nil
}

// APIError is a non-2xx reply from the provider.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("openai http status %d: %s (%s)", e.Status, e.Message, e.Type)
	}
	return fmt.Sprintf("openai http status %d: %s", e.Status, e.Message)
}

// Temporary marks throttling and server-side failures as worth one retry.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model          string    `json:"model"`
	Messages       []message `json:"messages"`
	Temperature    *float32  `json:"temperature,omitempty"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) body(req llm.Request) completionRequest {
	out := completionRequest{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: req.Prompt}},
	}
	if req.JSON {
		out.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}
	// gpt-5 models only accept the default temperature.
	if !fixedTemperature(c.model) {
		t := float32(0)
		if req.Temperature != nil {
			t = *req.Temperature
		}
		out.Temperature = &t
	}
	return out
}

// Complete returns the first choice's trimmed text.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	text, err := c.complete(ctx, req)
	metrics.IncLLMCall("openai", req.Purpose, err)
	return text, err
}

func (c *Client) complete(ctx context.Context, req llm.Request) (string, error) {
	payload, err := json.Marshal(c.body(req))
	if err != nil {
		return "", fmt.Errorf("encode openai request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request (%s): %w", req.Purpose, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}

	var parsed completionResponse
	decodeErr := json.Unmarshal(raw, &parsed)
	if resp.StatusCode >= 300 || parsed.Error != nil {
		apiErr := &APIError{Status: resp.StatusCode, Message: truncate(strings.TrimSpace(string(raw)))}
		if decodeErr == nil && parsed.Error != nil {
			apiErr.Message, apiErr.Type = parsed.Error.Message, parsed.Error.Type
		}
		return "", apiErr
	}
	if decodeErr != nil {
		return "", fmt.Errorf("openai response parse: %w", decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai (%s): response has no choices: %w", req.Purpose, llm.ErrInvalidOutput)
	}

	telemetry.Debug("llm.complete", map[string]any{
		"model":        c.model,
		"purpose":      req.Purpose,
		"durationMs":   time.Since(start).Milliseconds(),
		"promptTokens": parsed.Usage.PromptTokens,
		"outputTokens": parsed.Usage.CompletionTokens,
		"finish":       parsed.Choices[0].FinishReason,
	})

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai (%s): %w", req.Purpose, llm.ErrEmptyResponse)
	}
	return text, nil
}

func fixedTemperature(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}

var _ llm.Client = (*Client)(nil)
