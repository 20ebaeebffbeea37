// Package gemini provides a model.Binder backed by Google's Gemini API via
// the genai SDK. Conversation history is kept by the SDK's chat session.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/model"
)

// Options configures the Gemini binder.
type Options struct {
	Temperature     float64
	MaxOutputTokens int32
	BaseURL         string
}

// Binder binds Gemini chats.
type Binder struct {
	opts Options
}

// NewBinder creates a Binder with the given option overrides.
func NewBinder(optFns ...func(o *Options)) *Binder {
	opts := Options{MaxOutputTokens: 4096}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Binder{opts: opts}
}

// Bind implements model.Binder.
func (b *Binder) Bind(ctx context.Context, req model.BindRequest) (model.Chat, error) {
	if err := model.ValidateRequest(req, core.ProviderGemini); err != nil {
		return nil, err
	}

	cfg := &genai.ClientConfig{
		APIKey:  req.Credential,
		Backend: genai.BackendGeminiAPI,
	}
	if b.opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: b.opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{}
	if req.Instruction != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}
	if b.opts.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(float32(b.opts.Temperature))
	}
	if b.opts.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = b.opts.MaxOutputTokens
	}

	chat, err := client.Chats.Create(ctx, req.Descriptor.ModelName, genCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI chat: %w", err)
	}

	return &Chat{chat: chat}, nil
}

// Chat is a bound Gemini conversation.
type Chat struct {
	chat *genai.Chat
}

// Send implements model.Chat.
func (c *Chat) Send(ctx context.Context, text string) (string, error) {
	resp, err := c.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("gemini api error: %w", err)
	}

	reply := resp.Text()
	if reply == "" {
		return "", errors.New("gemini api error: empty response")
	}

	return reply, nil
}
