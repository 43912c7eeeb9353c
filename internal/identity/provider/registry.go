package provider

import "fmt"

// Registry holds the configured federated providers keyed by name.
type Registry struct {
	providers map[string]FederatedProvider
}

// NewRegistry registers the given providers by name. Names must be
// unique.
func NewRegistry(list ...FederatedProvider) *Registry {
	m := make(map[string]FederatedProvider)
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider by name or an error if not registered.
func (r *Registry) Get(name string) (FederatedProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown federated provider: %s", name)
	}
	return p, nil
}
