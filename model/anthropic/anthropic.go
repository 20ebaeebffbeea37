// Package anthropic provides a model.Binder for the Anthropic Claude API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/model"
)

// Options configures the Anthropic binder (temperature, max tokens,
// endpoint). Extend via functional options to preserve stability.
type Options struct {
	Temperature float64
	MaxTokens   int64
	BaseURL     string
	MaxRetries  int
}

// Binder binds Claude chats.
type Binder struct {
	opts Options
}

// NewBinder creates a Binder with the given option overrides.
func NewBinder(optFns ...func(o *Options)) *Binder {
	opts := Options{
		MaxTokens: 4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Binder{opts: opts}
}

// Bind implements model.Binder.
func (b *Binder) Bind(_ context.Context, req model.BindRequest) (model.Chat, error) {
	if err := model.ValidateRequest(req, core.ProviderAnthropic); err != nil {
		return nil, err
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(req.Credential),
		option.WithMaxRetries(b.opts.MaxRetries),
	}
	if b.opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(b.opts.BaseURL))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Chat{
		client:     &client,
		model:      anthropic.Model(req.Descriptor.ModelName),
		opts:       b.opts,
		transcript: model.NewTranscript(req.Instruction),
	}, nil
}

// Chat is a bound Claude conversation.
type Chat struct {
	client     *anthropic.Client
	model      anthropic.Model
	opts       Options
	transcript *model.Transcript
}

// Send implements model.Chat.
func (c *Chat) Send(ctx context.Context, text string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		Messages:  buildMessages(c.transcript.With(text)),
		MaxTokens: c.opts.MaxTokens,
	}

	if c.opts.Temperature > 0 {
		params.Temperature = anthropic.Float(c.opts.Temperature)
	}

	if instruction := c.transcript.Instruction(); instruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: instruction}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var reply strings.Builder

	for _, block := range resp.Content {
		if block.Type == "text" {
			reply.WriteString(block.AsText().Text)
		}
	}

	if reply.Len() == 0 {
		return "", errors.New("anthropic api error: no text content returned")
	}

	c.transcript.Record(text, reply.String())

	return reply.String(), nil
}

// buildMessages converts transcript turns to Anthropic message format.
func buildMessages(turns []model.Turn) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(turns))

	for _, t := range turns {
		block := anthropic.NewTextBlock(t.Text)
		if t.Role == model.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}

	return messages
}
