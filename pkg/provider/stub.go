package provider

import (
	"context"
	"fmt"
	"hash/fnv"
)

// StubAdapter produces deterministic pseudo-content without network
// access. Same prompt, same output, so runs are reproducible offline.
type StubAdapter struct {
	model   string
	pricing Pricing
}

// NewStubAdapter creates a stub adapter.
func NewStubAdapter(cfg Config) *StubAdapter {
	model := cfg.Model
	if model == "" {
		model = "stub-1"
	}
	return &StubAdapter{model: model, pricing: cfg.Pricing}
}

// Name returns the provider identifier.
func (a *StubAdapter) Name() string { return ProviderStub }

// Model returns the configured model identifier.
func (a *StubAdapter) Model() string { return a.model }

var stubOpeners = []string{
	"Here's the thing nobody tells you:",
	"Let's be honest about what actually works.",
	"Every team hits this wall eventually.",
	"We shipped something we're proud of.",
	"Small changes, big difference.",
	"This one took us longer than we'd like to admit.",
	"There's a simpler way to think about this.",
	"Most advice on this topic misses the point.",
}

// Generate derives reproducible content from a hash of the prompt.
func (a *StubAdapter) Generate(ctx context.Context, prompt string, params Params) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: err.Error(), Transient: true}
	}

	h := fnv.New32a()
	h.Write([]byte(prompt))
	seed := h.Sum32()

	excerpt := prompt
	if len(excerpt) > 80 {
		excerpt = excerpt[:80] + "..."
	}

	content := fmt.Sprintf("%s\n\n[stub:%s seed=%08x] Draft responding to the brief: %s",
		stubOpeners[seed%uint32(len(stubOpeners))], a.model, seed, excerpt)

	promptTokens := estimateTokens(prompt)
	completionTokens := estimateTokens(content)
	if params.MaxTokens > 0 && completionTokens > params.MaxTokens {
		completionTokens = params.MaxTokens
	}

	return &Result{
		Content:          content,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		LatencyMS:        1.0,
		CostUSD:          a.pricing.Cost(promptTokens, completionTokens),
	}, nil
}
