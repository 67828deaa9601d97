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

// GoogleAdapter calls the Gemini generateContent API.
type GoogleAdapter struct {
	client  *http.Client
	apiBase string
	apiKey  string
	model   string
	pricing Pricing
}

// NewGoogleAdapter creates a Google adapter.
func NewGoogleAdapter(cfg Config) *GoogleAdapter {
	return &GoogleAdapter{
		client:  &http.Client{Timeout: cfg.Timeout},
		apiBase: cfg.APIBase,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		pricing: cfg.Pricing,
	}
}

// Name returns the provider identifier.
func (a *GoogleAdapter) Name() string { return ProviderGoogle }

// Model returns the configured model identifier.
func (a *GoogleAdapter) Model() string { return a.model }

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Generate calls the generateContent endpoint.
func (a *GoogleAdapter) Generate(ctx context.Context, prompt string, params Params) (*Result, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":     params.Temperature,
			"maxOutputTokens": params.MaxTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", a.apiBase, a.model, a.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("create request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")

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
		return nil, &ProviderError{
			Provider:   a.Name(),
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Transient:  transientStatus(resp.StatusCode),
		}
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("parse response: %v", err)}
	}
	if len(parsed.Candidates) == 0 {
		return nil, &ProviderError{Provider: a.Name(), Message: "empty candidates in response"}
	}

	var content string
	for _, part := range parsed.Candidates[0].Content.Parts {
		content += part.Text
	}
	if content == "" {
		return nil, &ProviderError{Provider: a.Name(), Message: "no text parts in response"}
	}

	// Gemini does not always return usage metadata; estimate from text
	// length so cost accounting never silently reports zero.
	promptTokens := parsed.UsageMetadata.PromptTokenCount
	completionTokens := parsed.UsageMetadata.CandidatesTokenCount
	if promptTokens == 0 {
		promptTokens = estimateTokens(prompt)
	}
	if completionTokens == 0 {
		completionTokens = estimateTokens(content)
	}

	return &Result{
		Content:          content,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		LatencyMS:        float64(time.Since(start).Microseconds()) / 1000.0,
		CostUSD:          a.pricing.Cost(promptTokens, completionTokens),
	}, nil
}
