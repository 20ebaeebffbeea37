// Package openai provides a model.Binder backed by the OpenAI Chat
// Completions API. Each bound chat keeps its own transcript and replays it,
// together with the system instruction, on every Send.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/model"
)

// Options configure the OpenAI binder.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	// Temperature is sent only when positive (reasoning models reject it).
	Temperature         float64
	MaxCompletionTokens int64
	// BaseURL overrides the API endpoint (proxies, tests).
	BaseURL string
	// MaxRetries is passed to the SDK client; the extraction flow does not retry.
	MaxRetries int
}

// Binder binds OpenAI chats.
type Binder struct {
	opts Options
}

// NewBinder creates a Binder with the given option overrides.
func NewBinder(optFns ...func(o *Options)) *Binder {
	opts := Options{
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Binder{opts: opts}
}

// Bind implements model.Binder.
func (b *Binder) Bind(_ context.Context, req model.BindRequest) (model.Chat, error) {
	if err := model.ValidateRequest(req, core.ProviderOpenAI); err != nil {
		return nil, err
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(req.Credential),
		option.WithMaxRetries(b.opts.MaxRetries),
	}
	if b.opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(b.opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &Chat{
		client:     &client,
		model:      req.Descriptor.ModelName,
		opts:       b.opts,
		transcript: model.NewTranscript(req.Instruction),
	}, nil
}

// Chat is a bound OpenAI conversation.
type Chat struct {
	client     *openai.Client
	model      string
	opts       Options
	transcript *model.Transcript
}

// Send implements model.Chat.
func (c *Chat) Send(ctx context.Context, text string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, c.buildParams(c.transcript.With(text)))
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai api error: no choices returned")
	}

	reply := resp.Choices[0].Message.Content
	c.transcript.Record(text, reply)

	return reply, nil
}

// buildParams converts the transcript into OpenAI request parameters.
func (c *Chat) buildParams(turns []model.Turn) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if instruction := c.transcript.Instruction(); instruction != "" {
		messages = append(messages, openai.SystemMessage(instruction))
	}
	for _, t := range turns {
		switch t.Role {
		case model.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Text))
		default:
			messages = append(messages, openai.UserMessage(t.Text))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    c.model,
	}
	if c.opts.Temperature > 0 {
		params.Temperature = openai.Float(c.opts.Temperature)
	}
	if c.opts.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.opts.MaxCompletionTokens)
	}
	return params
}
