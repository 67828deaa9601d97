package provider

import (
	"fmt"
	"sort"
)

// Supported provider identifiers. These match the keys used in the
// providers section of the configuration file.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderStub      = "stub"
)

// Registry resolves provider identifiers to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from per-provider configuration. Unknown
// provider names are rejected.
func NewRegistry(configs map[string]Config) (*Registry, error) {
	r := &Registry{adapters: make(map[string]Adapter)}

	for name, cfg := range configs {
		switch name {
		case ProviderOpenAI:
			r.Register(NewOpenAIAdapter(cfg))
		case ProviderAnthropic:
			r.Register(NewAnthropicAdapter(cfg))
		case ProviderGoogle:
			r.Register(NewGoogleAdapter(cfg))
		case ProviderStub:
			r.Register(NewStubAdapter(cfg))
		default:
			return nil, fmt.Errorf("unknown provider: %s", name)
		}
	}

	return r, nil
}

// Register adds or replaces an adapter under its own name.
func (r *Registry) Register(a Adapter) {
	if r.adapters == nil {
		r.adapters = make(map[string]Adapter)
	}
	r.adapters[a.Name()] = a
}

// Lookup returns the adapter for a provider identifier.
func (r *Registry) Lookup(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return a, nil
}

// Has reports whether a provider identifier is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.adapters[name]
	return ok
}

// Names returns the registered provider identifiers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
