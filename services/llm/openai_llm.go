package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/editcode/pkg/logging"
)

const (
	// DefaultBaseURL points at OpenRouter's OpenAI-compatible API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "openai/gpt-4o-mini"

	// DefaultTimeout bounds one completion request.
	DefaultTimeout = 5 * time.Minute
)

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	// SystemPrompt is sent as the system message when non-empty.
	SystemPrompt string

	// Headers are added to every request, e.g. OpenRouter's HTTP-Referer
	// and X-Title attribution headers.
	Headers map[string]string

	// HTTPClient overrides the transport. Default: a client with DefaultTimeout.
	HTTPClient *http.Client

	Logger *logging.Logger
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
// (OpenRouter, OpenAI, a local Ollama /v1, ...).
type OpenAIClient struct {
	client       *openai.Client
	model        string
	systemPrompt string
	logger       *logging.Logger
}

// NewOpenAIClient builds a client. APIKey is required.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = &headerDoer{doer: httpClient, headers: cfg.Headers}

	logger := logging.OrNop(cfg.Logger)
	logger.Debug("initializing openai-compatible client", "base_url", oc.BaseURL, "model", cfg.Model)

	return &OpenAIClient{
		client:       openai.NewClientWithConfig(oc),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		logger:       logger,
	}, nil
}

// Model returns the configured model name.
func (o *OpenAIClient) Model() string {
	return o.model
}

// Generate implements the LLMClient interface
func (o *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (Generation, error) {
	o.logger.Debug("generating text via openai-compatible api", "model", o.model, "prompt_chars", len(prompt))

	var messages []openai.ChatCompletionMessage
	if o.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: o.systemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.logger.Error("chat completion failed", "model", o.model, "error", err)
		return Generation{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		o.logger.Warn("chat completion returned no choices", "model", o.model, "id", resp.ID)
		return Generation{}, ErrNoChoices
	}

	choice := resp.Choices[0]
	o.logger.Debug("received chat completion",
		"id", resp.ID,
		"finish_reason", string(choice.FinishReason),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	model := resp.Model
	if model == "" {
		model = o.model
	}
	return Generation{
		Text:         choice.Message.Content,
		ID:           resp.ID,
		Model:        model,
		FinishReason: string(choice.FinishReason),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// headerDoer adds fixed headers to every request.
type headerDoer struct {
	doer    openai.HTTPDoer
	headers map[string]string
}

func (h *headerDoer) Do(req *http.Request) (*http.Response, error) {
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	return h.doer.Do(req)
}

var _ LLMClient = (*OpenAIClient)(nil)
