package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/provato/provato/internal/model"
)

// NewProvider creates a single named provider.
func NewProvider(name string, config Config) (Provider, error) {
	switch strings.ToLower(name) {
	case "openai":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		return NewAnthropicProvider(config)

	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", name)
	}
}

// NewChainFromConfig builds the provider fallback chain from configuration.
// Providers that fail to construct (e.g. missing API key) are skipped with
// a warning; ErrNoProvider is returned only when nothing is usable.
func NewChainFromConfig(mc model.LLMConfig, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config := ConfigFromModel(mc)

	var providers []Provider
	for _, name := range mc.Providers {
		p, err := NewProvider(name, config)
		if err != nil {
			logger.Warn("skipping llm provider", "provider", name, "error", err)
			continue
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		return nil, ErrNoProvider
	}

	return NewChain(logger, providers...), nil
}

// Chain tries each provider in order; the first successful completion wins.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a fallback chain over the given providers.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: providers, logger: logger}
}

// Name returns the chain's composite name.
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Available reports whether any provider in the chain is available.
func (c *Chain) Available(ctx context.Context) bool {
	for _, p := range c.providers {
		if p.Available(ctx) {
			return true
		}
	}
	return false
}

// Complete tries providers in order, returning the first success.
func (c *Chain) Complete(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for _, p := range c.providers {
		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		c.logger.Warn("llm provider failed, trying next", "provider", p.Name(), "error", err)
	}

	if lastErr == nil {
		return nil, ErrNoProvider
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}
