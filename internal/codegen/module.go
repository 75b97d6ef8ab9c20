package codegen

import (
	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/flavor"
)

// Module implements the engine.Module interface for this package.
type Module struct{}

// Register registers the source generator with the engine.
func (m *Module) Register(r *engine.Registry) {
	r.Register(flavor.BackendDX12, func(f flavor.Flavor) engine.Handlers {
		return NewGenerator(f)
	})
}
