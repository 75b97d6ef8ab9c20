package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/rendergraph/internal/flavor"
)

// Module is implemented by every backend package so it can register its
// handler factory.
type Module interface {
	Register(r *Registry)
}

// Registry maps backends to their handler factories.
type Registry struct {
	factories map[flavor.Backend]HandlerFactory
}

// NewRegistry creates a registry and registers the given modules into it.
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{factories: make(map[flavor.Backend]HandlerFactory)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds the handler factory of a backend. Registering a backend
// twice is a programming error and panics.
func (r *Registry) Register(backend flavor.Backend, factory HandlerFactory) {
	if _, exists := r.factories[backend]; exists {
		panic(fmt.Sprintf("handlers for backend '%s' already registered", backend))
	}
	slog.Debug("Registering backend handlers.", "backend", backend)
	r.factories[backend] = factory
}

// Lookup returns the handler factory of a backend.
func (r *Registry) Lookup(backend flavor.Backend) (HandlerFactory, bool) {
	f, ok := r.factories[backend]
	return f, ok
}

// Backends lists the registered backends in name order.
func (r *Registry) Backends() []flavor.Backend {
	out := make([]flavor.Backend, 0, len(r.factories))
	for b := range r.factories {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
