package model

import "sync"

// Role of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role Role
	Text string
}

// Transcript is the conversation history kept by a bound chat. It is safe
// for concurrent use; each Send observes a consistent snapshot.
type Transcript struct {
	mu          sync.Mutex
	instruction string
	turns       []Turn
}

// NewTranscript creates an empty history with a system instruction.
func NewTranscript(instruction string) *Transcript {
	return &Transcript{instruction: instruction}
}

// Instruction returns the system instruction.
func (t *Transcript) Instruction() string { return t.instruction }

// With returns a snapshot of the history followed by a pending user turn.
func (t *Transcript) With(userText string) []Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Turn, len(t.turns), len(t.turns)+1)
	copy(out, t.turns)
	return append(out, Turn{Role: RoleUser, Text: userText})
}

// Record appends a completed user/assistant exchange.
func (t *Transcript) Record(userText, reply string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, Turn{Role: RoleUser, Text: userText}, Turn{Role: RoleAssistant, Text: reply})
}

