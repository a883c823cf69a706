// Package llm abstracts the generative-model services consumed by the
// verification pipeline. Providers are interchangeable; a Chain tries each
// configured provider in order so a single provider outage never disables
// verification.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/provato/provato/internal/model"
)

// ErrNoProvider is returned when no generative-model provider is
// configured at all. This is the only fatal configuration condition: it
// aborts a verification request before any stage runs.
var ErrNoProvider = errors.New("no generative-model provider configured")

// Provider defines one generative-model service.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete generates text for the given request
	Complete(ctx context.Context, req Request) (*Response, error)

	// Available checks if the provider is configured and reachable
	Available(ctx context.Context) bool
}

// Request is one text-generation call.
type Request struct {
	Prompt    string // User prompt
	System    string // System instructions
	MaxTokens int    // Response length cap; 0 uses the provider default
}

// Response is the provider's output.
type Response struct {
	Text       string // Generated text
	Model      string // Model that produced it
	TokensUsed int
}

// Config holds provider configuration, derived from model.LLMConfig.
type Config struct {
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
}

// ConfigFromModel converts the top-level config section.
func ConfigFromModel(mc model.LLMConfig) Config {
	timeout := time.Duration(mc.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxTokens := mc.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1500
	}
	return Config{
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   timeout,
		MaxTokens: maxTokens,
	}
}
