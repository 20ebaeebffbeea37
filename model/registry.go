package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/llmbridge/core"
)

// Registry dispatches Bind calls to the binder registered for the
// descriptor's provider.
type Registry struct {
	mu      sync.RWMutex
	binders map[core.Provider]Binder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{binders: make(map[core.Provider]Binder)}
}

// Register installs b for provider, replacing any previous binder.
func (r *Registry) Register(provider core.Provider, b Binder) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.binders[provider] = b
	return r
}

// Missing lists supported providers without a registered binder.
func (r *Registry) Missing() []core.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missing []core.Provider
	for _, p := range core.Providers() {
		if _, ok := r.binders[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// Bind implements Binder.
func (r *Registry) Bind(ctx context.Context, req BindRequest) (Chat, error) {
	r.mu.RLock()
	b, ok := r.binders[req.Descriptor.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no binder registered for provider %q", string(req.Descriptor.Provider))
	}
	return b.Bind(ctx, req)
}
