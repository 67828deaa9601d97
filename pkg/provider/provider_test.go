package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingCost(t *testing.T) {
	p := Pricing{InputPer1K: 0.003, OutputPer1K: 0.015}

	cost := p.Cost(1000, 2000)
	assert.InDelta(t, 0.003+0.030, cost, 1e-9)

	assert.Zero(t, Pricing{}.Cost(500, 500))
}

func TestTransientStatus(t *testing.T) {
	transient := []int{408, 429, 500, 502, 503, 529}
	for _, status := range transient {
		assert.True(t, transientStatus(status), "status %d", status)
	}

	permanent := []int{400, 401, 403, 404, 422}
	for _, status := range permanent {
		assert.False(t, transientStatus(status), "status %d", status)
	}
}

func TestIsTransient(t *testing.T) {
	transientErr := &ProviderError{Provider: "openai", StatusCode: 429, Message: "rate limited", Transient: true}
	permanentErr := &ProviderError{Provider: "openai", StatusCode: 401, Message: "bad key"}

	assert.True(t, IsTransient(transientErr))
	assert.False(t, IsTransient(permanentErr))
	assert.False(t, IsTransient(errors.New("plain error")))

	wrapped := fmt.Errorf("call failed: %w", transientErr)
	assert.True(t, IsTransient(wrapped))
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Provider: "anthropic", StatusCode: 529, Message: "overloaded", Transient: true}
	assert.Contains(t, err.Error(), "anthropic")
	assert.Contains(t, err.Error(), "transient")
	assert.Contains(t, err.Error(), "529")

	noStatus := &ProviderError{Provider: "google", Message: "empty candidates"}
	assert.Contains(t, noStatus.Error(), "permanent")
	assert.NotContains(t, noStatus.Error(), "status")
}

func TestStubDeterminism(t *testing.T) {
	a := NewStubAdapter(Config{Model: "stub-1", Pricing: Pricing{InputPer1K: 0.001, OutputPer1K: 0.002}})

	first, err := a.Generate(context.Background(), "write a blog intro", Params{MaxTokens: 500})
	require.NoError(t, err)
	second, err := a.Generate(context.Background(), "write a blog intro", Params{MaxTokens: 500})
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, first.CostUSD, second.CostUSD)
	assert.Positive(t, first.PromptTokens)
	assert.Positive(t, first.CompletionTokens)
	assert.Positive(t, first.CostUSD)

	other, err := a.Generate(context.Background(), "write a completely different announcement", Params{})
	require.NoError(t, err)
	assert.NotEqual(t, first.Content, other.Content)
}

func TestStubHonorsCancellation(t *testing.T) {
	a := NewStubAdapter(Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Generate(ctx, "anything", Params{})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(map[string]Config{
		"stub":   {Model: "stub-1"},
		"openai": {APIBase: "https://api.openai.com/v1", Model: "gpt-4o"},
	})
	require.NoError(t, err)

	assert.True(t, r.Has("stub"))
	assert.True(t, r.Has("openai"))
	assert.False(t, r.Has("anthropic"))
	assert.Equal(t, []string{"openai", "stub"}, r.Names())

	a, err := r.Lookup("stub")
	require.NoError(t, err)
	assert.Equal(t, "stub-1", a.Model())

	_, err = r.Lookup("nope")
	assert.Error(t, err)
}

func TestRegistryRejectsUnknownProvider(t *testing.T) {
	_, err := NewRegistry(map[string]Config{"mystery": {Model: "m"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}
