package phoneagent

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Completer turns a conversation into the model's next reply
type Completer interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// OpenAICompleter talks to any OpenAI-compatible chat completions endpoint
type OpenAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter creates a completer for cfg
func NewOpenAICompleter(cfg ModelConfig, opts ...option.RequestOption) *OpenAICompleter {
	requestOptions := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
	}
	requestOptions = append(requestOptions, opts...)

	return &OpenAICompleter{
		client: openai.NewClient(requestOptions...),
		model:  cfg.ModelName,
	}
}

// Complete sends one chat completion request and returns the first choice
func (c *OpenAICompleter) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
