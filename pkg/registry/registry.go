// Package registry provides a named lookup of completers, so flow
// definitions can refer to compute backends by name.
package registry

import (
	"fmt"
	"sync"

	"github.com/aretw0/lattice/pkg/ports"
)

// Registry manages the available completers.
type Registry struct {
	mu         sync.RWMutex
	completers map[string]ports.Completer
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		completers: make(map[string]ports.Completer),
	}
}

// Register adds a completer under a name. An existing entry with the
// same name is overwritten.
func (r *Registry) Register(name string, c ports.Completer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completers[name] = c
}

// Resolve looks up a completer by name.
func (r *Registry) Resolve(name string) (ports.Completer, error) {
	r.mu.RLock()
	c, ok := r.completers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("completer not found: %s", name)
	}
	return c, nil
}

// Names returns the registered completer names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.completers))
	for name := range r.completers {
		names = append(names, name)
	}
	return names
}
