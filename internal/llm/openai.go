package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"caresync/internal/config"
)

// Message is a minimal chat message used by the answer service.
// Role must be one of: "system", "user", or "assistant".
type Message struct {
	Role    string
	Content string
}

// ErrBlocked is returned when the provider refused to answer on content
// policy grounds.
var ErrBlocked = errors.New("response blocked by content filter")

// Client is what the answer service needs from a language model.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// OpenAIClient calls the OpenAI chat completion API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	budget      *TokenBudget
}

// NewOpenAIClient constructs an OpenAI-backed client from configuration.
// BaseURL allows OpenAI-compatible gateways.
func NewOpenAIClient(cfg config.OpenAI) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		budget:      NewTokenBudget(cfg.Model, cfg.MaxPromptTokens),
	}
}

// Chat sends the message history to the OpenAI chat completion API and
// returns the assistant's response.  Histories over the token budget lose
// their oldest non-system turns first.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}
	messages = c.budget.Trim(messages)

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			// coerce anything unknown to user
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	if resp.Choices[0].FinishReason == openai.FinishReasonContentFilter {
		return "", ErrBlocked
	}
	return resp.Choices[0].Message.Content, nil
}
