// Package openai implements core.LanguageModel using the OpenAI Chat
// Completions API. It adapts QueryPilot's prompt/context contract into the
// SDK's message format.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/querypilot/querypilot/core"
)

// Options configure the OpenAI model adapter. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind core.LanguageModel.
type Model struct {
	client *openai.Client
	opts   Options
}

var _ core.LanguageModel = (*Model)(nil)

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.1,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Complete sends a prompt with optional conversational context and returns
// the raw completion text. Low temperature keeps filter extraction stable.
func (m *Model) Complete(ctx context.Context, prompt, convContext string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if convContext != "" {
		messages = append(messages, openai.SystemMessage(convContext))
	}
	messages = append(messages, openai.UserMessage(prompt))
	return m.complete(ctx, messages, m.opts.MaxCompletionTokens)
}

// GenerateResponse returns arbitrary text for reflection and planning use,
// bounded by maxTokens.
func (m *Model) GenerateResponse(ctx context.Context, prompt string, maxTokens int) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)}
	limit := m.opts.MaxCompletionTokens
	if maxTokens > 0 {
		limit = int64(maxTokens)
	}
	return m.complete(ctx, messages, limit)
}

func (m *Model) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, maxTokens int64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
