package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIAdapter calls an OpenAI-compatible chat completions API.
type OpenAIAdapter struct {
	client  *http.Client
	apiBase string
	apiKey  string
	model   string
	pricing Pricing
}

// NewOpenAIAdapter creates an OpenAI adapter.
func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	return &OpenAIAdapter{
		client:  &http.Client{Timeout: cfg.Timeout},
		apiBase: cfg.APIBase,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		pricing: cfg.Pricing,
	}
}

// Name returns the provider identifier.
func (a *OpenAIAdapter) Name() string { return ProviderOpenAI }

// Model returns the configured model identifier.
func (a *OpenAIAdapter) Model() string { return a.model }

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate calls the chat completions endpoint.
func (a *OpenAIAdapter) Generate(ctx context.Context, prompt string, params Params) (*Result, error) {
	reqBody := map[string]interface{}{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": params.Temperature,
		"max_tokens":  params.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := a.apiBase + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("create request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		// Network failures and client timeouts are retryable.
		return nil, &ProviderError{Provider: a.Name(), Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("read response: %v", err), Transient: true}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider:   a.Name(),
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Transient:  transientStatus(resp.StatusCode),
		}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("parse response: %v", err)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Provider: a.Name(), Message: "empty choices in response"}
	}

	promptTokens := parsed.Usage.PromptTokens
	completionTokens := parsed.Usage.CompletionTokens
	content := parsed.Choices[0].Message.Content

	return &Result{
		Content:          content,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		LatencyMS:        float64(time.Since(start).Microseconds()) / 1000.0,
		CostUSD:          a.pricing.Cost(promptTokens, completionTokens),
	}, nil
}
