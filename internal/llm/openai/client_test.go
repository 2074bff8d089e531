package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"resume-optimizer/internal/llm"
)

func TestFixedTemperature(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := fixedTemperature(tt.model); got != tt.want {
				t.Fatalf("fixedTemperature(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func newTestClient(t *testing.T, model string, status int, reply string, seen *map[string]any) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if seen != nil {
			*seen = payload
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient("test-key", model)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.BaseURL = server.URL
	return client
}

func TestCompleteJSONModeAndTemperature(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, "gpt-4o", http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":" {\"a\":1} "}}]}`, &body)
	got, err := client.Complete(context.Background(), llm.Request{Prompt: "p", JSON: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != `{"a":1}` {
		t.Fatalf("unexpected content %q", got)
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", body["response_format"])
	}
	if _, ok := body["temperature"]; !ok {
		t.Fatalf("expected temperature for gpt-4o")
	}
}

func TestCompleteOmitsTemperatureAndFormatWhenNotRequested(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, "gpt-5-mini", http.StatusOK, `{"choices":[{"message":{"content":"\\documentclass{article}"}}]}`, &body)
	if _, err := client.Complete(context.Background(), llm.Request{Prompt: "p"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, ok := body["temperature"]; ok {
		t.Fatalf("expected temperature to be omitted for gpt-5 models")
	}
	if _, ok := body["response_format"]; ok {
		t.Fatalf("expected no response_format for text requests")
	}
}

func TestCompleteSurfacesHTTPErrors(t *testing.T) {
	client := newTestClient(t, "gpt-4o", http.StatusServiceUnavailable, `{"error":{"message":"overloaded","type":"server_error"}}`, nil)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable || apiErr.Message != "overloaded" {
		t.Fatalf("expected 503 APIError, got %v", err)
	}
	if !llm.ShouldRetry(err) {
		t.Fatalf("expected 503 to be retryable")
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	client := newTestClient(t, "gpt-4o", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, nil)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestCompleteClientErrorIsNotRetryable(t *testing.T) {
	client := newTestClient(t, "gpt-4o", http.StatusBadRequest, `not json`, nil)

	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "http status 400: not json") {
		t.Fatalf("expected raw body in error, got %v", err)
	}
	if llm.ShouldRetry(err) {
		t.Fatalf("400 must not be retried")
	}
}
