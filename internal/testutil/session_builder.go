package testutil

import (
	"time"

	"github.com/hupe1980/llmbridge/core"
	"github.com/hupe1980/llmbridge/protocol"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder().Protocol(protocol.Natural).Credential(core.ProviderOpenAI, "sk").Build()
type SessionBuilder struct {
	host      core.ModelDescriptor
	target    core.ModelDescriptor
	kind      protocol.Kind
	creds     map[core.Provider]string
	results   []core.ExtractionResult
	createdAt time.Time
}

// NewSessionBuilder creates a builder defaulting to gpt-4o hosting gpt-4o-mini over mcp.
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{
		host:   core.ModelDescriptor{Provider: core.ProviderOpenAI, ModelName: "gpt-4o", DisplayName: "GPT-4o"},
		target: core.ModelDescriptor{Provider: core.ProviderOpenAI, ModelName: "gpt-4o-mini", DisplayName: "GPT-4o Mini"},
		kind:   protocol.MCP,
		creds:  map[core.Provider]string{},
	}
}

// Host sets the host descriptor (chainable).
func (b *SessionBuilder) Host(d core.ModelDescriptor) *SessionBuilder { b.host = d; return b }

// Target sets the target descriptor (chainable).
func (b *SessionBuilder) Target(d core.ModelDescriptor) *SessionBuilder { b.target = d; return b }

// Protocol sets the session default protocol (chainable).
func (b *SessionBuilder) Protocol(k protocol.Kind) *SessionBuilder { b.kind = k; return b }

// Credential adds a session scoped credential (chainable).
func (b *SessionBuilder) Credential(p core.Provider, key string) *SessionBuilder {
	b.creds[p] = key
	return b
}

// Result appends a prior extraction result (chainable).
func (b *SessionBuilder) Result(r core.ExtractionResult) *SessionBuilder {
	b.results = append(b.results, r)
	return b
}

// CreatedAt overrides the creation timestamp (chainable).
func (b *SessionBuilder) CreatedAt(t time.Time) *SessionBuilder { b.createdAt = t; return b }

// Build returns a *core.Session with a fresh id.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.host, b.target, b.kind, b.creds)
	if !b.createdAt.IsZero() {
		s.CreatedAt = b.createdAt
	}
	for _, r := range b.results {
		s.AppendResult(r)
	}
	return s
}
