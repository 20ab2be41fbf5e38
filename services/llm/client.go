package llm

import (
	"context"
	"errors"
)

var (
	// ErrMissingAPIKey is returned when a client is built without credentials.
	ErrMissingAPIKey = errors.New("llm: api key not set")

	// ErrNoChoices is returned when the backend answers without any choice.
	ErrNoChoices = errors.New("llm: response contained no choices")
)

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Generation is one completed model call.
type Generation struct {
	// Text is the assistant message content.
	Text string `json:"text"`

	// ID is the backend's generation identifier. OpenRouter uses it to key
	// cost accounting. May be empty.
	ID string `json:"id,omitempty"`

	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
}

// LLMClient defines the standard interface for any LLM backend.
// Implementations make exactly one request per call and do not retry.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (Generation, error)
}
