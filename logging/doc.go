// Package logging provides a minimal logging interface and adapters for llmbridge.
//
// The Logger interface defines the standard key/value logging methods
// (Debug, Info, Warn, Error) that the chat factory, orchestrator, façade and
// HTTP server use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - BridgeLogger, a slog logger scoped by component and session with LLM
//     call helpers (FromSlog wraps an existing *slog.Logger)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.New(func(o *logging.Options) { o.Format = "text" })
//	bridge := llmbridge.New(func(o *llmbridge.Options) { o.Logger = logger })
//
// Credentials must never be passed as log attributes.
package logging
