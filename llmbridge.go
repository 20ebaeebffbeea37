// Package llmbridge provides a high-level façade over the extraction
// orchestrator and its collaborators (session store, credential resolver,
// model binders and logging). Most applications interact with this package by:
//  1. Creating a Bridge via New() (optionally overriding the default in-memory store)
//  2. Creating a session pairing a host and a target model
//  3. Running extractions against that session with Extract
//
// Queries containing "demo" or "test" are always answered from canned text
// without contacting any provider, which makes them the guaranteed recovery
// path when credentials are missing or providers are unavailable.
package llmbridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/llmbridge/chat"
	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/credential"
	"github.com/hupe1980/llmbridge/demo"
	"github.com/hupe1980/llmbridge/extraction"
	"github.com/hupe1980/llmbridge/logging"
	"github.com/hupe1980/llmbridge/model"
	"github.com/hupe1980/llmbridge/protocol"
	"github.com/hupe1980/llmbridge/session"
)

// MaxListedSessions caps Sessions when no smaller limit is requested.
const MaxListedSessions = 100

// ErrInvalidInput marks CreateSession inputs rejected before anything is stored.
var ErrInvalidInput = errors.New("invalid input")

// Options configures the Bridge.
type Options struct {
	// SessionStore persists sessions (defaults to an in-memory store).
	SessionStore core.SessionStore

	// Binder binds provider chats. Defaults to an empty registry, which
	// fails every non-demo extraction with ModelInitializationFailed.
	Binder model.Binder

	// Resolver supplies the ambient default credential. A nil resolver
	// only resolves session scoped keys.
	Resolver *credential.Resolver

	// Encoder applies protocol envelopes (defaults to protocol.NewEncoder()).
	Encoder *protocol.Encoder

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Now stamps result and session timestamps (defaults to time.Now).
	Now func() time.Time
}

// Bridge is the high-level façade aggregating the orchestrator and services.
type Bridge struct {
	opts         Options
	store        core.SessionStore
	orchestrator *extraction.Orchestrator
	logger       logging.Logger
}

// New creates a new Bridge with optional overrides.
func New(optFns ...func(o *Options)) *Bridge {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Binder:       model.NewRegistry(),
		Encoder:      protocol.NewEncoder(),
		Logger:       logging.NoOpLogger{},
		Now:          time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	factory := chat.NewFactory(opts.Resolver, opts.Binder, func(o *chat.Options) {
		o.Logger = logger
	})

	orchestrator := extraction.New(factory, func(o *extraction.Options) {
		o.Encoder = opts.Encoder
		o.Logger = logger
	})

	return &Bridge{opts: opts, store: opts.SessionStore, orchestrator: orchestrator, logger: logger}
}

// CreateSessionInput describes a new session. Protocol defaults to mcp;
// blank credentials are dropped.
type CreateSessionInput struct {
	Host        core.ModelDescriptor `json:"host_llm"`
	Target      core.ModelDescriptor `json:"target_llm"`
	Protocol    string               `json:"protocol,omitempty"`
	Credentials map[string]string    `json:"api_keys,omitempty"`
}

// CreateSession validates input and persists a new active session. The
// returned session still carries credentials; they are never serialized.
func (b *Bridge) CreateSession(ctx context.Context, input CreateSessionInput) (*core.Session, error) {
	if err := input.Host.Validate(); err != nil {
		return nil, fmt.Errorf("%w: host_llm: %v", ErrInvalidInput, err)
	}
	if err := input.Target.Validate(); err != nil {
		return nil, fmt.Errorf("%w: target_llm: %v", ErrInvalidInput, err)
	}

	kind := protocol.MCP
	if input.Protocol != "" {
		parsed, err := protocol.Parse(input.Protocol)
		if err != nil {
			return nil, core.InvalidProtocol(input.Protocol)
		}
		kind = parsed
	}

	creds, err := credential.FromStrings(input.Credentials)
	if err != nil {
		return nil, fmt.Errorf("%w: api_keys: %v", ErrInvalidInput, err)
	}

	sess := core.NewSession(input.Host, input.Target, kind, creds)
	sess.CreatedAt = b.opts.Now().UTC()

	if err := b.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	b.logger.Info("Session created",
		"session_id", sess.ID,
		"host", sess.Host.Label(),
		"target", sess.Target.Label(),
		"protocol", kind.String(),
		"credential_providers", len(creds),
	)

	return sess, nil
}

// Session loads a session by id; unknown ids yield core.ErrSessionNotFound.
func (b *Bridge) Session(ctx context.Context, id string) (*core.Session, error) {
	return b.store.Get(ctx, id)
}

// Sessions lists up to limit sessions (MaxListedSessions when limit <= 0
// or larger).
func (b *Bridge) Sessions(ctx context.Context, limit int) ([]*core.Session, error) {
	if limit <= 0 || limit > MaxListedSessions {
		limit = MaxListedSessions
	}
	return b.store.List(ctx, limit)
}

type extractionLogger interface {
	LogExtraction(protocol string, demo bool, dur time.Duration, err error)
}

// Extract runs one extraction against the stored session and appends the
// result to its history.
//
// The protocol override (or the session default) is validated first, so an
// unsupported value fails with core.ErrInvalidProtocol before any demo or
// credential handling. Demo queries never fail past that point except for
// store errors.
func (b *Bridge) Extract(ctx context.Context, req core.ExtractionRequest) (core.ExtractionResult, error) {
	start := b.opts.Now()

	sess, err := b.store.Get(ctx, req.SessionID)
	if err != nil {
		return core.ExtractionResult{}, err
	}

	raw := req.Protocol
	if raw == "" {
		raw = sess.Protocol.String()
	}
	kind, err := protocol.Parse(raw)
	if err != nil {
		err = core.InvalidProtocol(raw)
		b.logExtraction(raw, false, start, err)
		return core.ExtractionResult{}, err
	}

	var result core.ExtractionResult
	isDemo := demo.ShouldTrigger(req.Query)
	if isDemo {
		result = demo.Result(kind, sess.Host.Label(), sess.Target.Label(), req.Query)
	} else {
		result, err = b.orchestrator.Extract(ctx, sess.Host, sess.Target, req.Query, kind, sess.ID, sess.Credentials)
		if err != nil {
			b.logExtraction(kind.String(), false, start, err)
			return core.ExtractionResult{}, err
		}
	}

	result.CreatedAt = b.opts.Now().UTC()

	if err := b.store.AppendResult(ctx, sess.ID, result); err != nil {
		err = fmt.Errorf("failed to record extraction: %w", err)
		b.logExtraction(kind.String(), isDemo, start, err)
		return core.ExtractionResult{}, err
	}

	b.logExtraction(kind.String(), isDemo, start, nil)

	return result, nil
}

func (b *Bridge) logExtraction(kind string, isDemo bool, start time.Time, err error) {
	dur := b.opts.Now().Sub(start)
	if l, ok := b.logger.(extractionLogger); ok {
		l.LogExtraction(kind, isDemo, dur, err)
		return
	}
	if err != nil {
		b.logger.Error("Extraction failed", "protocol", kind, "demo", isDemo, "duration", dur, "error", err.Error())
		return
	}
	b.logger.Info("Extraction completed", "protocol", kind, "demo", isDemo, "duration", dur)
}
