package app

import (
	"github.com/vk/rendergraph/internal/codegen"
	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/preview"
)

// coreModules is the definitive list of backends compiled into the binary.
var coreModules = []engine.Module{
	&preview.Module{},
	&codegen.Module{},
}
