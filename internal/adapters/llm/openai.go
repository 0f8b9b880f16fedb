package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ErrAPIKeyRequired is returned when the chat adapter has no key.
var ErrAPIKeyRequired = errors.New("OpenAI API key is required")

// OpenAIChatAdapter implements ports.LLMService against an OpenAI-compatible chat endpoint.
// The prompt is sent as a single user message.
type OpenAIChatAdapter struct {
	client   *openai.Client
	model    string
	jsonMode bool
}

// NewOpenAIChatAdapter creates a chat adapter. jsonMode requests a JSON object response.
func NewOpenAIChatAdapter(apiKey, baseURL, model string, jsonMode bool) (*OpenAIChatAdapter, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIChatAdapter{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		jsonMode: jsonMode,
	}, nil
}

// Model returns the chat model name.
func (a *OpenAIChatAdapter) Model() string {
	return a.model
}

// Generate sends one chat completion and returns the first choice.
func (a *OpenAIChatAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if a.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
