package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"content": "Here is your intro."}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 80}
		}`))
	}))
	defer srv.Close()

	a := NewOpenAIAdapter(Config{
		APIBase: srv.URL,
		APIKey:  "test-key",
		Model:   "gpt-4o",
		Timeout: 5 * time.Second,
		Pricing: Pricing{InputPer1K: 0.0025, OutputPer1K: 0.01},
	})

	res, err := a.Generate(context.Background(), "write a blog intro", Params{Temperature: 0.7, MaxTokens: 500})
	require.NoError(t, err)
	assert.Equal(t, "Here is your intro.", res.Content)
	assert.Equal(t, 120, res.PromptTokens)
	assert.Equal(t, 80, res.CompletionTokens)
	assert.InDelta(t, 120.0/1000*0.0025+80.0/1000*0.01, res.CostUSD, 1e-9)
	assert.GreaterOrEqual(t, res.LatencyMS, 0.0)
}

func TestOpenAIRateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer srv.Close()

	a := NewOpenAIAdapter(Config{APIBase: srv.URL, Model: "gpt-4o", Timeout: 5 * time.Second})

	_, err := a.Generate(context.Background(), "prompt", Params{})
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
}

func TestOpenAIAuthFailureIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid api key"}`))
	}))
	defer srv.Close()

	a := NewOpenAIAdapter(Config{APIBase: srv.URL, Model: "gpt-4o", Timeout: 5 * time.Second})

	_, err := a.Generate(context.Background(), "prompt", Params{})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestOpenAIEmptyChoicesIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [], "usage": {"prompt_tokens": 1, "completion_tokens": 0}}`))
	}))
	defer srv.Close()

	a := NewOpenAIAdapter(Config{APIBase: srv.URL, Model: "gpt-4o", Timeout: 5 * time.Second})

	_, err := a.Generate(context.Background(), "prompt", Params{})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestOpenAINetworkErrorIsTransient(t *testing.T) {
	// Closed server: the connection is refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a := NewOpenAIAdapter(Config{APIBase: srv.URL, Model: "gpt-4o", Timeout: time.Second})

	_, err := a.Generate(context.Background(), "prompt", Params{})
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
