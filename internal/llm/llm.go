package llm

import (
	"context"
	"errors"
)

// Client abstracts text-generation providers. Every delegated step of the
// pipeline (classify, optimize, markup) talks to a provider through it.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single prompt round-trip.
type Request struct {
	// Purpose labels the call in logs and metrics, e.g. "classify".
	Purpose string
	Prompt  string
	// JSON asks the provider for a JSON-only response when it supports it.
	JSON bool
	// Temperature overrides the provider default when set.
	Temperature *float32
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

var (
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("LLM not implemented")
	// ErrInvalidOutput marks provider output that could not be parsed or repaired.
	ErrInvalidOutput = errors.New("invalid LLM output")
	// ErrEmptyResponse marks a provider reply with no text.
	ErrEmptyResponse = errors.New("empty LLM response")
)

// PlaceholderClient is used when no provider is configured. Every call fails,
// which drives the pipeline onto its deterministic fallbacks.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotImplemented
}

// Float32 returns a pointer to v, for Request.Temperature.
func Float32(v float32) *float32 {
	return &v
}
