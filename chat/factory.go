// Package chat binds conversational handles for the host and target roles.
// It resolves credentials, asks a model.Binder for a handle and translates
// every failure into the core error taxonomy without leaking credentials.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/credential"
	"github.com/hupe1980/llmbridge/logging"
	"github.com/hupe1980/llmbridge/model"
)

const redacted = "[REDACTED]"

// Options configures a Factory.
type Options struct {
	Logger logging.Logger
}

// Factory creates bound chat handles.
type Factory struct {
	resolver *credential.Resolver
	binder   model.Binder
	logger   logging.Logger
}

// NewFactory creates a Factory resolving credentials with resolver and
// binding through binder.
func NewFactory(resolver *credential.Resolver, binder model.Binder, optFns ...func(o *Options)) *Factory {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Factory{resolver: resolver, binder: binder, logger: logging.OrNoOp(opts.Logger)}
}

// Create binds a chat for desc scoped to sessionID and instruction.
//
// Errors:
//   - core.ErrCredentialMissing when no credential resolves for desc.Provider
//   - core.ErrModelInitializationFailed when the binder fails
//
// Send on the returned handle fails with core.ErrRemoteCallFailed.
func (f *Factory) Create(
	ctx context.Context,
	desc core.ModelDescriptor,
	sessionID string,
	instruction string,
	creds credential.Set,
) (model.Chat, error) {
	key, ok := f.resolver.Resolve(desc.Provider, creds)
	if !ok {
		f.logger.Warn("No credential for provider", "provider", desc.Provider.String(), "session_id", sessionID)
		return nil, core.CredentialMissing(desc.Provider)
	}

	c, err := f.binder.Bind(ctx, model.BindRequest{
		Descriptor:  desc,
		SessionID:   sessionID,
		Instruction: instruction,
		Credential:  key,
	})
	if err != nil {
		cause := redact(err, key)
		f.logger.Error("Failed to create LLM instance",
			"provider", desc.Provider.String(), "model", desc.ModelName, "error", cause.Error())
		return nil, core.ModelInitializationFailed(desc.Provider, desc.ModelName, cause)
	}

	return &handle{chat: c, desc: desc, key: key, sessionID: sessionID, logger: f.callLogger(desc, sessionID)}, nil
}

// callLogger scopes a BridgeLogger to one bound chat so every call line
// carries the session and provider.
func (f *Factory) callLogger(desc core.ModelDescriptor, sessionID string) logging.Logger {
	bl, ok := f.logger.(*logging.BridgeLogger)
	if !ok {
		return f.logger
	}
	return bl.WithSession(sessionID).With("provider", desc.Provider.String())
}

type llmCallLogger interface {
	LogLLMCall(model string, dur time.Duration, success bool, err error)
}

// handle decorates a bound chat with error classification and call logging.
type handle struct {
	chat      model.Chat
	desc      core.ModelDescriptor
	key       string
	sessionID string
	logger    logging.Logger
}

func (h *handle) Send(ctx context.Context, text string) (string, error) {
	start := time.Now()
	reply, err := h.chat.Send(ctx, text)
	if err != nil {
		err = redact(err, h.key)
	}
	h.logCall(time.Since(start), err)
	if err != nil {
		return "", core.RemoteCallFailed(h.desc.Provider, h.desc.ModelName, err)
	}
	return reply, nil
}

func (h *handle) logCall(dur time.Duration, err error) {
	if l, ok := h.logger.(llmCallLogger); ok {
		l.LogLLMCall(h.desc.ModelName, dur, err == nil, err)
		return
	}
	args := []any{"model", h.desc.ModelName, "session_id", h.sessionID, "duration", dur, "success", err == nil}
	if err != nil {
		h.logger.Error("LLM call failed", append(args, "error", err.Error())...)
		return
	}
	h.logger.Debug("LLM call completed", args...)
}

// redact replaces any occurrence of key in err's message. The original error
// is dropped from the chain when it would expose the key.
func redact(err error, key string) error {
	if err == nil || key == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, key) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, key, redacted))
}
