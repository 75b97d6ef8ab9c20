package preview

import (
	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/flavor"
)

// Module implements the engine.Module interface for this package.
type Module struct{}

// Register registers the interpreter handler set with the engine.
func (m *Module) Register(r *engine.Registry) {
	r.Register(flavor.BackendInterpreter, func(flavor.Flavor) engine.Handlers {
		return NewHandlers()
	})
}
