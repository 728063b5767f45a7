package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sandevgo/samara/internal/core"
)

// OpenAI uses the official SDK. Retries are left to the caller.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model string, opts ...option.RequestOption) *OpenAI {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAI{
		client: &client,
		model:  model,
	}
}

func (o *OpenAI) Chat(ctx context.Context, history []core.Message) (core.Message, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    o.model,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return core.Message{}, &StatusError{Code: apiErr.StatusCode, Body: apiErr.Message}
		}
		return core.Message{}, fmt.Errorf("openai chat: %w", err)
	}
	if len(completion.Choices) == 0 {
		return core.Message{}, fmt.Errorf("openai returned no completion choices")
	}

	return core.Message{
		Role:    core.RoleAssistant,
		Content: completion.Choices[0].Message.Content,
	}, nil
}
