// Package anthropic implements core.LanguageModel using the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/querypilot/querypilot/core"
)

// Options configure the Anthropic model adapter (model id, temperature, max
// tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind core.LanguageModel.
type Model struct {
	client *anthropic.Client
	opts   Options
}

var _ core.LanguageModel = (*Model)(nil)

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.1,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.1,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Complete sends a prompt with optional conversational context and returns
// the raw completion text.
func (m *Model) Complete(ctx context.Context, prompt, convContext string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	}
	if convContext != "" {
		params.System = []anthropic.TextBlockParam{{Text: convContext}}
	}
	return m.send(ctx, params)
}

// GenerateResponse returns arbitrary text for reflection and planning use,
// bounded by maxTokens.
func (m *Model) GenerateResponse(ctx context.Context, prompt string, maxTokens int) (string, error) {
	limit := m.opts.MaxTokens
	if maxTokens > 0 {
		limit = int64(maxTokens)
	}
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		MaxTokens:   limit,
		Temperature: anthropic.Float(m.opts.Temperature),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
	}
	return m.send(ctx, params)
}

func (m *Model) send(ctx context.Context, params anthropic.MessageNewParams) (string, error) {
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}
