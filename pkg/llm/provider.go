package llm

import "context"

// Provider defines the interface for interacting with LLM backends.
// Implementations handle protocol-specific details such as request formatting,
// authentication, and response parsing.
type Provider interface {
	// Complete sends a single-turn completion request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Config holds common configuration for LLM providers. The model identifier
// is carried per request, not here, so one client can serve a fallback chain.
type Config struct {
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float32
}
