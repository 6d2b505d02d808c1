package llm

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/ports/adapter"
	"job-autopilot/internal/infra/metrics"
)

var _ adapter.LLMAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter implements adapter.LLMAdapter on the official SDK.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: model}, nil
}

func (g *GeminiAdapter) Complete(ctx context.Context, messages []adapter.Message, maxTokens int) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("gemini: no messages")
	}
	history := toGenAIHistory(messages[:len(messages)-1])

	chat, err := g.client.Chats.Create(
		ctx,
		g.model,
		&genai.GenerateContentConfig{
			MaxOutputTokens: int32(maxTokens),
		},
		history,
	)
	if err != nil {
		metrics.IncLLMCall("gemini", "error")
		return "", err
	}

	last := messages[len(messages)-1]
	resp, err := chat.SendMessage(ctx, genai.Part{Text: last.Content})
	if err != nil {
		if strings.Contains(err.Error(), "429") || strings.Contains(strings.ToLower(err.Error()), "resource_exhausted") {
			metrics.IncLLMCall("gemini", "rate_limited")
			return "", domain.ErrRateLimited
		}
		metrics.IncLLMCall("gemini", "error")
		return "", err
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		text = resp.Candidates[0].Content.Parts[0].Text
	}
	metrics.IncLLMCall("gemini", "ok")
	if resp != nil && resp.UsageMetadata != nil {
		metrics.AddLLMTokens("gemini", "prompt", int(resp.UsageMetadata.PromptTokenCount))
		metrics.AddLLMTokens("gemini", "completion", int(resp.UsageMetadata.CandidatesTokenCount))
	}
	return text, nil
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	contents := toGenAIHistory(messages)
	resp, err := g.client.Models.CountTokens(ctx, g.model, contents, nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

func toGenAIHistory(msgs []adapter.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		switch strings.ToLower(m.Role) {
		case "assistant", "model":
			role = genai.RoleModel
		case "system":
			// Gemini carries no separate system role in history
			role = genai.RoleUser
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}
