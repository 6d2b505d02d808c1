package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// LLMAdapter is the port for language-model completions. Callers are
// responsible for keeping prompts within a bounded token budget; CountTokens
// supports that (provider-specific counting, best-effort when exact isn't
// available). A provider rate limit surfaces as domain.ErrRateLimited.
type LLMAdapter interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
	CountTokens(ctx context.Context, messages []Message) (int, error)
}
