package auth

import (
	"fmt"
	"slices"
	"sync"
)

// Registry resolves providers by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a registry holding the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// NewRegistryFromConfig registers every provider that has a client id.
func NewRegistryFromConfig(cfg ProvidersConfig, opts ...ProviderOption) *Registry {
	r := NewRegistry()
	if cfg.Google.Enabled() {
		r.Register(NewGoogleProvider(cfg.Google, opts...))
	}
	if cfg.Yandex.Enabled() {
		r.Register(NewYandexProvider(cfg.Yandex, opts...))
	}
	if cfg.GitHub.Enabled() {
		r.Register(NewGitHubProvider(cfg.GitHub, opts...))
	}
	return r
}

// Register adds p, replacing any provider with the same name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, NewError(KindNotFound,
			fmt.Sprintf("Provider %q not found. Please check the correctness of the entered data.", name), nil)
	}
	return p, nil
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
