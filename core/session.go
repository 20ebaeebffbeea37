package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/llmbridge/protocol"
)

// Status is the lifecycle marker of a session.
type Status string

// StatusActive is the only status this module assigns; stores keep whatever
// value they are given.
const StatusActive Status = "active"

// Session pairs a host and target model with a default protocol, the
// caller-supplied credentials and the accumulated extraction history.
//
// Contract:
//   - Credentials never appear in JSON output (write-only from the caller's view)
//   - Messages is append-only; Latest mirrors the most recent append
//   - Clone performs deep copies of maps/slices for safe divergence
type Session struct {
	ID          string              `json:"id"`
	Host        ModelDescriptor     `json:"host_llm"`
	Target      ModelDescriptor     `json:"target_llm"`
	Protocol    protocol.Kind       `json:"protocol"`
	Status      Status              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	Messages    []ExtractionResult  `json:"messages"`
	Latest      *ExtractionResult   `json:"extraction_results,omitempty"`
	Credentials map[Provider]string `json:"-"`
}

// NewSession creates an active session with a fresh id.
func NewSession(host, target ModelDescriptor, kind protocol.Kind, credentials map[Provider]string) *Session {
	creds := make(map[Provider]string, len(credentials))
	for k, v := range credentials {
		creds[k] = v
	}
	return &Session{
		ID:          NewID(),
		Host:        host,
		Target:      target,
		Protocol:    kind,
		Status:      StatusActive,
		CreatedAt:   time.Now().UTC(),
		Messages:    []ExtractionResult{},
		Credentials: creds,
	}
}

// AppendResult records r in the history and as the latest result.
func (s *Session) AppendResult(r ExtractionResult) {
	s.Messages = append(s.Messages, r)
	latest := r
	s.Latest = &latest
}

// Header returns a copy without history, used by stores that persist
// messages separately.
func (s *Session) Header() *Session {
	h := s.Clone()
	h.Messages = nil
	h.Latest = nil
	h.Credentials = nil
	return h
}

// Clone returns a deep copy safe for independent mutation.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Messages = make([]ExtractionResult, len(s.Messages))
	copy(clone.Messages, s.Messages)
	if s.Latest != nil {
		latest := *s.Latest
		clone.Latest = &latest
	}
	clone.Credentials = make(map[Provider]string, len(s.Credentials))
	for k, v := range s.Credentials {
		clone.Credentials[k] = v
	}
	return &clone
}

// NewID generates a new unique identifier for sessions.
func NewID() string { return uuid.NewString() }

// SessionStore persists sessions and their extraction history. Get and List
// return copies including credentials; callers must not expose those.
type SessionStore interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context, limit int) ([]*Session, error)
	AppendResult(ctx context.Context, id string, r ExtractionResult) error
}
