package app

import (
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/publish"
	"github.com/vk/rendergraph/internal/rendergraph"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	engine *engine.Engine

	// mu serializes frame execution with variable tweaks from the server.
	mu         sync.Mutex
	httpServer *http.Server
	publisher  *publish.Publisher
	frames     int
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger and engine. With no modules given, every core
// backend is registered.
func NewApp(outW io.Writer, cfg *Config, loader rendergraph.Loader, modules ...engine.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	backends := engine.NewRegistry(modules...)
	logger.Debug("Backends registered.", "backends", backends.Backends())

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		engine: engine.New(loader, backends, engine.WithLogger(logger)),
	}
}

// Engine returns the application's engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine {
	return a.engine
}
