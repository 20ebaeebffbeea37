package model

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/llmbridge/core"
)

// Chat is a bound conversational handle. Send may block while awaiting the
// remote completion; cancellation travels through ctx.
type Chat interface {
	Send(ctx context.Context, text string) (string, error)
}

// BindRequest carries everything needed to bind a Chat.
type BindRequest struct {
	Descriptor  core.ModelDescriptor
	SessionID   string
	Instruction string
	Credential  string
}

// Binder creates chat handles for one or more providers.
type Binder interface {
	Bind(ctx context.Context, req BindRequest) (Chat, error)
}

// BinderFunc adapts a function to the Binder interface.
type BinderFunc func(ctx context.Context, req BindRequest) (Chat, error)

// Bind implements Binder.
func (f BinderFunc) Bind(ctx context.Context, req BindRequest) (Chat, error) { return f(ctx, req) }

// ErrMalformedCredential is returned when a credential cannot be a valid key.
// The message deliberately omits the value.
var ErrMalformedCredential = errors.New("malformed credential")

// ValidateCredential rejects blank keys and keys containing whitespace.
func ValidateCredential(credential string) error {
	if credential == "" || strings.ContainsAny(credential, " \t\r\n") {
		return ErrMalformedCredential
	}
	return nil
}

// ValidateRequest performs the checks shared by all provider binders.
func ValidateRequest(req BindRequest, provider core.Provider) error {
	if req.Descriptor.Provider != provider {
		return errors.New("provider mismatch: binder serves " + string(provider) + ", got " + string(req.Descriptor.Provider))
	}
	if req.Descriptor.ModelName == "" {
		return errors.New("model name is required")
	}
	return ValidateCredential(req.Credential)
}
