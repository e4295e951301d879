// Package provider defines the unified interface and shared types for all LLM
// providers. Each adapter (gemini.go, openai.go, anthropic.go) converts the
// unified Request into its vendor's API call and returns the full response
// text. Tutoring operations are single-shot generations, so unlike a tool-use
// agent there is no streaming event sequence to normalize.
package provider

import (
	"context"
	"fmt"
)

// Request is the unified generation request sent to a provider. Tutoring
// prompts carry their instructions inline, so a request is just the prompt
// plus an optional model override.
type Request struct {
	Model  string
	Prompt string
}

// Provider is the unified interface for all LLM providers.
type Provider interface {
	// Generate produces the complete response text for the request.
	// A safety-blocked or empty response is returned as *BlockedError.
	Generate(ctx context.Context, req *Request) (string, error)

	// Name returns the provider identifier, e.g. "gemini", "openai".
	Name() string

	// DefaultModel returns the model used when the request leaves Model empty.
	DefaultModel() string
}

// BlockedError indicates the model returned no usable content, typically
// because the prompt or response was blocked by a safety filter.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "unknown"
	}
	return fmt.Sprintf("response was empty or blocked (reason: %s)", reason)
}
