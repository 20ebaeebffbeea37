package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies extraction failures.
type ErrorKind int

const (
	// KindInvalidProtocol means the requested protocol is outside the closed set.
	KindInvalidProtocol ErrorKind = iota + 1
	// KindCredentialMissing means no usable credential exists for a required provider.
	KindCredentialMissing
	// KindModelInitializationFailed means binding a chat handle failed.
	KindModelInitializationFailed
	// KindRemoteCallFailed means a chat completion raised during send.
	KindRemoteCallFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidProtocol:
		return "InvalidProtocol"
	case KindCredentialMissing:
		return "CredentialMissing"
	case KindModelInitializationFailed:
		return "ModelInitializationFailed"
	case KindRemoteCallFailed:
		return "RemoteCallFailed"
	default:
		return "Unknown"
	}
}

// RemoteKind is the best-effort sub-classification of a RemoteCallFailed error.
type RemoteKind int

const (
	RemoteUnclassified RemoteKind = iota
	RemoteQuota
	RemoteAuth
)

func (k RemoteKind) String() string {
	switch k {
	case RemoteQuota:
		return "quota"
	case RemoteAuth:
		return "authentication"
	default:
		return "unclassified"
	}
}

const demoHint = "Try using 'demo' or 'test' in your query to see a demonstration."

// Sentinels for errors.Is; matching compares Kind only.
var (
	ErrInvalidProtocol           = &Error{Kind: KindInvalidProtocol}
	ErrCredentialMissing         = &Error{Kind: KindCredentialMissing}
	ErrModelInitializationFailed = &Error{Kind: KindModelInitializationFailed}
	ErrRemoteCallFailed          = &Error{Kind: KindRemoteCallFailed}

	// ErrSessionNotFound is returned by session stores for unknown ids.
	ErrSessionNotFound = errors.New("session not found")
)

// Error is the typed failure returned by extraction. Its message names the
// provider and model where relevant and never carries credential values.
type Error struct {
	Kind     ErrorKind
	Provider Provider
	Model    string
	Protocol string
	Remote   RemoteKind
	Cause    error
}

// InvalidProtocol reports a protocol outside the supported set.
func InvalidProtocol(raw string) *Error {
	return &Error{Kind: KindInvalidProtocol, Protocol: raw}
}

// CredentialMissing reports that provider has no resolvable credential.
func CredentialMissing(provider Provider) *Error {
	return &Error{Kind: KindCredentialMissing, Provider: provider}
}

// ModelInitializationFailed reports a chat binding failure. cause must
// already be free of credential values.
func ModelInitializationFailed(provider Provider, model string, cause error) *Error {
	return &Error{Kind: KindModelInitializationFailed, Provider: provider, Model: model, Cause: cause}
}

// RemoteCallFailed wraps a send failure and classifies it with ClassifyRemote.
func RemoteCallFailed(provider Provider, model string, cause error) *Error {
	return &Error{
		Kind:     KindRemoteCallFailed,
		Provider: provider,
		Model:    model,
		Remote:   ClassifyRemote(cause),
		Cause:    cause,
	}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindInvalidProtocol:
		return fmt.Sprintf("invalid protocol %q", e.Protocol)
	case KindCredentialMissing:
		return fmt.Sprintf("no API key found for %s", e.Provider)
	case KindModelInitializationFailed:
		return fmt.Sprintf("failed to initialize %s model %s", e.Provider, e.Model)
	case KindRemoteCallFailed:
		switch e.Remote {
		case RemoteQuota:
			return fmt.Sprintf("API quota exceeded for %s", e.Provider)
		case RemoteAuth:
			return fmt.Sprintf("API authentication failed for %s", e.Provider)
		}
		if e.Cause != nil {
			return fmt.Sprintf("extraction failed: %v", e.Cause)
		}
		return "extraction failed"
	default:
		return "unknown extraction error"
	}
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Hint returns a human readable remediation suggestion.
func (e *Error) Hint() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindInvalidProtocol:
		return "Use one of: mcp, gibberlink, droidspeak, natural."
	case KindCredentialMissing:
		return fmt.Sprintf("Please provide a valid API key for %s. %s", e.Provider, demoHint)
	case KindModelInitializationFailed:
		return "Please check your API key. " + demoHint
	case KindRemoteCallFailed:
		switch e.Remote {
		case RemoteQuota:
			return "Please check your billing plan or try again later. " + demoHint
		case RemoteAuth:
			return "Please check your API keys. " + demoHint
		}
		return demoHint
	default:
		return demoHint
	}
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// ClassifyRemote buckets a free-text provider failure. The substring match
// is a heuristic; anything unrecognized lands in RemoteUnclassified.
func ClassifyRemote(err error) RemoteKind {
	if err == nil {
		return RemoteUnclassified
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return RemoteQuota
	case strings.Contains(msg, "authentication"), strings.Contains(msg, "api key"), strings.Contains(msg, "401"):
		return RemoteAuth
	default:
		return RemoteUnclassified
	}
}
