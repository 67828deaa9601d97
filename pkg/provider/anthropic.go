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

const anthropicVersion = "2023-06-01"

// AnthropicAdapter calls the Anthropic messages API.
type AnthropicAdapter struct {
	client  *http.Client
	apiBase string
	apiKey  string
	model   string
	pricing Pricing
}

// NewAnthropicAdapter creates an Anthropic adapter.
func NewAnthropicAdapter(cfg Config) *AnthropicAdapter {
	return &AnthropicAdapter{
		client:  &http.Client{Timeout: cfg.Timeout},
		apiBase: cfg.APIBase,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		pricing: cfg.Pricing,
	}
}

// Name returns the provider identifier.
func (a *AnthropicAdapter) Name() string { return ProviderAnthropic }

// Model returns the configured model identifier.
func (a *AnthropicAdapter) Model() string { return a.model }

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate calls the messages endpoint. Anthropic returns content as a
// list of blocks; text blocks are concatenated.
func (a *AnthropicAdapter) Generate(ctx context.Context, prompt string, params Params) (*Result, error) {
	reqBody := map[string]interface{}{
		"model":       a.model,
		"max_tokens":  params.MaxTokens,
		"temperature": params.Temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := a.apiBase + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("create request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("read response: %v", err), Transient: true}
	}

	if resp.StatusCode != http.StatusOK {
		// 529 is Anthropic's overloaded status.
		transient := transientStatus(resp.StatusCode) || resp.StatusCode == 529
		return nil, &ProviderError{
			Provider:   a.Name(),
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Transient:  transient,
		}
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("parse response: %v", err)}
	}

	var content string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return nil, &ProviderError{Provider: a.Name(), Message: "no text blocks in response"}
	}

	promptTokens := parsed.Usage.InputTokens
	completionTokens := parsed.Usage.OutputTokens

	return &Result{
		Content:          content,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		LatencyMS:        float64(time.Since(start).Microseconds()) / 1000.0,
		CostUSD:          a.pricing.Cost(promptTokens, completionTokens),
	}, nil
}
