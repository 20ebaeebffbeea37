// Package credential resolves which API key backs a provider call. Session
// scoped keys take precedence; a single distinguished provider may fall back
// to an ambient default injected at process start.
package credential

import (
	"fmt"
	"strings"

	"github.com/hupe1980/llmbridge/core"
)

// Set maps providers to session scoped secrets. It may be partially populated.
type Set map[core.Provider]string

// FromStrings converts raw provider names, dropping blank values. Unknown
// provider names are rejected.
func FromStrings(raw map[string]string) (Set, error) {
	s := make(Set, len(raw))
	for name, key := range raw {
		p, err := core.ParseProvider(name)
		if err != nil {
			return nil, fmt.Errorf("credentials: %w", err)
		}
		s[p] = key
	}
	return s.Clean(), nil
}

// Clean returns a copy without blank entries.
func (s Set) Clean() Set {
	out := make(Set, len(s))
	for p, key := range s {
		if strings.TrimSpace(key) == "" {
			continue
		}
		out[p] = key
	}
	return out
}

// Resolver looks up credentials. The zero value resolves session keys only.
type Resolver struct {
	defaultProvider   core.Provider
	defaultCredential string
}

// NewResolver returns a Resolver backing defaultProvider with an ambient
// credential. An empty credential disables the fallback.
func NewResolver(defaultProvider core.Provider, defaultCredential string) *Resolver {
	return &Resolver{defaultProvider: defaultProvider, defaultCredential: strings.TrimSpace(defaultCredential)}
}

// Resolve returns the credential for provider, preferring session keys.
func (r *Resolver) Resolve(provider core.Provider, session Set) (string, bool) {
	if key := strings.TrimSpace(session[provider]); key != "" {
		return key, true
	}
	if r != nil && provider == r.defaultProvider && r.defaultCredential != "" {
		return r.defaultCredential, true
	}
	return "", false
}

// HasDefault reports whether an ambient credential is configured.
func (r *Resolver) HasDefault() bool { return r != nil && r.defaultCredential != "" }

// DefaultProvider returns the distinguished provider.
func (r *Resolver) DefaultProvider() core.Provider {
	if r == nil {
		return ""
	}
	return r.defaultProvider
}
