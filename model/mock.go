package model

import (
	"context"
	"fmt"
	"sync"
)

// MockSend records one Send observed by a MockBinder.
type MockSend struct {
	SessionID string
	Text      string
}

// MockBinder is a lightweight in‑memory Binder useful for tests & examples.
// It counts binds and sends so callers can assert that no remote call happened.
type MockBinder struct {
	mu        sync.Mutex
	responses map[string]string
	bindErr   error
	sendErr   map[string]error
	respond   func(req BindRequest, text string) (string, error)
	binds     []BindRequest
	sends     []MockSend
}

// NewMockBinder constructs a MockBinder answering "Mock response to: <text>".
func NewMockBinder() *MockBinder {
	return &MockBinder{responses: make(map[string]string), sendErr: make(map[string]error)}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockBinder) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailBind makes every Bind return err.
func (m *MockBinder) FailBind(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindErr = err
}

// FailSend makes Send on chats bound to sessionID return err.
func (m *MockBinder) FailSend(sessionID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr[sessionID] = err
}

// RespondWith installs a custom responder taking precedence over AddResponse.
func (m *MockBinder) RespondWith(fn func(req BindRequest, text string) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.respond = fn
}

// Binds returns the recorded bind requests.
func (m *MockBinder) Binds() []BindRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BindRequest(nil), m.binds...)
}

// Sends returns the recorded sends in call order.
func (m *MockBinder) Sends() []MockSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockSend(nil), m.sends...)
}

// Bind implements Binder.
func (m *MockBinder) Bind(_ context.Context, req BindRequest) (Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.binds = append(m.binds, req)
	if m.bindErr != nil {
		return nil, m.bindErr
	}
	return &mockChat{binder: m, req: req}, nil
}

type mockChat struct {
	binder *MockBinder
	req    BindRequest
}

func (c *mockChat) Send(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m := c.binder
	m.mu.Lock()
	m.sends = append(m.sends, MockSend{SessionID: c.req.SessionID, Text: text})
	err := m.sendErr[c.req.SessionID]
	respond := m.respond
	canned := m.responses[text]
	m.mu.Unlock()

	if err != nil {
		return "", err
	}
	if respond != nil {
		return respond(c.req, text)
	}
	if canned != "" {
		return canned, nil
	}
	return fmt.Sprintf("Mock response to: %s", text), nil
}
