// Package vision sends a rendered design image to a vision-capable LLM and
// returns the validated compliance report the model produced.
package vision

import (
	"context"
	"fmt"

	"github.com/mwhited/typoscope/internal/types"
)

// Provider names a supported LLM backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Config holds the vision boundary settings.
type Config struct {
	Provider Provider
	Model    string
	APIKey   string
}

// DefaultModel returns the default model for a provider.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o"
	default:
		return "gemini-1.5-flash"
	}
}

// Client is an abstraction over vision LLM providers.
type Client interface {
	// Analyze submits a PNG image and returns the validated report.
	// A single attempt is made; retry policy belongs to the caller, and
	// invalid responses must never be retried.
	Analyze(ctx context.Context, png []byte) (*types.ComplianceReport, error)
	// Probe issues a minimal request to verify the provider is reachable.
	Probe(ctx context.Context) error
	// Close releases any resources held by the client.
	Close() error
}

// NewClient creates a vision client for the configured provider.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg)
	case ProviderGemini, "":
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
	}
}
