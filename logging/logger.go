package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger defines the minimal logging interface every llmbridge component
// accepts. Any structured logger can be plugged in behind it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// OrNoOp returns l, or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}

// ParseLevel maps a case-insensitive level name to a slog.Level. An empty
// name means info and "warning" is accepted as an alias for warn.
func ParseLevel(s string) (slog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Options configures New.
type Options struct {
	Level slog.Level
	// Format is "json" (default) or "text".
	Format    string
	Output    io.Writer
	AddSource bool
}

// BridgeLogger is a slog logger with scoping helpers for components and
// sessions plus the extraction-specific event methods.
type BridgeLogger struct {
	logger *slog.Logger
}

// New builds a BridgeLogger writing JSON at info level to stdout unless
// optFns say otherwise.
func New(optFns ...func(o *Options)) *BridgeLogger {
	opts := Options{Level: slog.LevelInfo, Format: "json", Output: os.Stdout}
	for _, fn := range optFns {
		fn(&opts)
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	ho := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}
	if opts.Format == "text" {
		return FromSlog(slog.New(slog.NewTextHandler(out, ho)))
	}
	return FromSlog(slog.New(slog.NewJSONHandler(out, ho)))
}

// FromSlog wraps an existing *slog.Logger.
func FromSlog(l *slog.Logger) *BridgeLogger {
	if l == nil {
		l = slog.Default()
	}
	return &BridgeLogger{logger: l}
}

// Slog exposes the underlying logger, e.g. for http.Server.ErrorLog.
func (l *BridgeLogger) Slog() *slog.Logger { return l.logger }

// With returns a logger that adds key/value to every entry.
func (l *BridgeLogger) With(key string, value any) *BridgeLogger {
	return &BridgeLogger{logger: l.logger.With(key, value)}
}

// WithComponent tags entries with the emitting component (api, factory, ...).
func (l *BridgeLogger) WithComponent(c string) *BridgeLogger { return l.With("component", c) }

// WithSession tags entries with a session or chat identifier.
func (l *BridgeLogger) WithSession(sid string) *BridgeLogger { return l.With("session_id", sid) }

func (l *BridgeLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

func (l *BridgeLogger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

func (l *BridgeLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

func (l *BridgeLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// LogLLMCall records one remote model call. Failures log at error level.
func (l *BridgeLogger) LogLLMCall(model string, dur time.Duration, success bool, err error) {
	args := []any{"model", model, "duration", dur, "success", success}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	if !success {
		l.Error("LLM call failed", args...)
		return
	}
	l.Info("LLM call completed", args...)
}

// LogExtraction records the outcome of one extraction.
func (l *BridgeLogger) LogExtraction(protocol string, demo bool, dur time.Duration, err error) {
	args := []any{"protocol", protocol, "demo", demo, "duration", dur, "success", err == nil}
	if err != nil {
		l.Error("Extraction failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("Extraction completed", args...)
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}
