package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/ports/adapter"
	"job-autopilot/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.LLMAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.LLMAdapter against any Chat Completions
// compatible endpoint. HTTP 429 surfaces as domain.ErrRateLimited so the
// answer engine can back off and retry.
type OpenAIAdapter struct {
	apiKey   string
	base     string // e.g., https://api.openai.com/v1
	model    string
	client   *http.Client
	encoding *tiktoken.Tiktoken
}

func NewOpenAIAdapter(apiKey, baseURL, model string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// unknown model names fall back to the common encoding
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("loading token encoding: %w", err)
		}
	}
	return &OpenAIAdapter{
		apiKey:   apiKey,
		base:     baseURL,
		model:    model,
		client:   &http.Client{Timeout: 60 * time.Second},
		encoding: enc,
	}, nil
}

func (o *OpenAIAdapter) Complete(ctx context.Context, messages []adapter.Message, maxTokens int) (string, error) {
	reqBody := struct {
		Model     string            `json:"model"`
		Messages  []adapter.Message `json:"messages"`
		MaxTokens int               `json:"max_tokens,omitempty"`
	}{Model: o.model, Messages: messages, MaxTokens: maxTokens}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		metrics.IncLLMCall("openai", "error")
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.IncLLMCall("openai", "rate_limited")
		return "", domain.ErrRateLimited
	}
	if resp.StatusCode >= 300 {
		metrics.IncLLMCall("openai", "error")
		return "", fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message adapter.Message `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.IncLLMCall("openai", "error")
		return "", err
	}
	metrics.IncLLMCall("openai", "ok")
	metrics.AddLLMTokens("openai", "prompt", payload.Usage.PromptTokens)
	metrics.AddLLMTokens("openai", "completion", payload.Usage.CompletionTokens)

	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("no choice content")
}

// CountTokens counts locally with tiktoken; close enough for budgeting and
// free of a network round-trip.
func (o *OpenAIAdapter) CountTokens(_ context.Context, messages []adapter.Message) (int, error) {
	total := 0
	for _, m := range messages {
		// per-message framing overhead
		total += 4
		total += len(o.encoding.Encode(m.Content, nil, nil))
	}
	return total, nil
}
