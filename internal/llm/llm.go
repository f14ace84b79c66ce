// Package llm provides an abstraction layer for language model providers.
package llm

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when no LLM provider is configured or available.
var ErrNoProvider = errors.New("no LLM provider available")

// GenerateOptions tunes a single generation request. Zero values fall back to
// the provider's defaults.
type GenerateOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider defines the interface for language model backends.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// Available checks if this provider is ready to use.
	Available() bool

	// Generate sends a system and user prompt and returns the response text.
	Generate(ctx context.Context, system, user string, opts GenerateOptions) (string, error)
}
