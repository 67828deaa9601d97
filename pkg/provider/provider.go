// Package provider wraps the generative-content backends behind a uniform
// Adapter interface. Each backend keeps its own wire format and auth scheme;
// callers only see normalized results and a transient/permanent error split.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Params per-call generation parameters.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// Result is the normalized outcome of one generation call.
type Result struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        float64
	CostUSD          float64
}

// Adapter is the uniform capability every backend implements.
type Adapter interface {
	// Name returns the canonical provider identifier.
	Name() string

	// Model returns the configured model identifier.
	Model() string

	// Generate produces content for the prompt. Errors are *ProviderError
	// so callers can distinguish transient from permanent failures.
	Generate(ctx context.Context, prompt string, params Params) (*Result, error)
}

// Config settings for constructing one adapter.
type Config struct {
	APIBase string
	APIKey  string
	Model   string
	Timeout time.Duration
	Pricing Pricing
}

// Pricing per-1K-token USD rates, injected from configuration.
type Pricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Cost computes the USD cost of a call from its token counts.
func (p Pricing) Cost(promptTokens, completionTokens int) float64 {
	return float64(promptTokens)/1000.0*p.InputPer1K +
		float64(completionTokens)/1000.0*p.OutputPer1K
}

// ProviderError is a failed provider call. Transient errors (timeouts,
// rate limits, 5xx) may be retried; permanent errors (auth, bad model,
// policy rejection) must not be.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Transient  bool
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s provider error (status %d): %s", e.Provider, kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s provider error: %s", e.Provider, kind, e.Message)
}

// IsTransient reports whether err is a retryable provider error.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	return false
}

// transientStatus classifies an HTTP status as retryable.
func transientStatus(status int) bool {
	return status == 408 || status == 429 || status >= 500
}

// estimateTokens approximates a token count from text length for backends
// that do not report usage.
func estimateTokens(text string) int {
	n := len([]rune(text)) / 4
	if n < 1 && len(text) > 0 {
		n = 1
	}
	return n
}
