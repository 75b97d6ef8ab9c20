package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vk/rendergraph/internal/condition"
	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/flavor"
	"github.com/vk/rendergraph/internal/nodestate"
	"github.com/vk/rendergraph/internal/operator"
	"github.com/vk/rendergraph/internal/rendergraph"
	"github.com/vk/rendergraph/internal/valuestore"
	"github.com/vk/rendergraph/internal/variables"
)

// Engine compiles and executes one render graph at a time.
type Engine struct {
	loader   rendergraph.Loader
	backends *Registry
	logger   *slog.Logger
	postLoad func(*rendergraph.RenderGraph)

	flavor   flavor.Flavor
	handlers Handlers
	graph    *rendergraph.RenderGraph
	store    *valuestore.Store
	vars     *variables.Table
	nodes    *nodestate.Registry
	result   Result
	state    State
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sends all diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithLogFunc sends all diagnostics at or above level to fn.
func WithLogFunc(fn ctxlog.LogFunc, level slog.Leveler) Option {
	return func(e *Engine) { e.logger = ctxlog.NewFuncLogger(fn, level) }
}

// WithPostLoad registers a function that may adjust every graph right after
// it is loaded and before anything is bound to it.
func WithPostLoad(fn func(*rendergraph.RenderGraph)) Option {
	return func(e *Engine) { e.postLoad = fn }
}

// New creates an engine that loads graphs with loader and resolves handler
// sets through backends.
func New(loader rendergraph.Loader, backends *Registry, opts ...Option) *Engine {
	e := &Engine{
		loader:   loader,
		backends: backends,
		logger:   slog.New(slog.DiscardHandler),
		store:    valuestore.New(),
		nodes:    nodestate.NewRegistry(),
		result:   NotCompiledYet,
		state:    NotCompiled,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile loads source for flavor f and initializes every node. Any earlier
// graph and node state is discarded first. Variable storage is kept, so a
// variable that keeps its name and type keeps its value across recompiles.
func (e *Engine) Compile(ctx context.Context, source string, f flavor.Flavor) Result {
	logger := e.logger.With("flavor", f.String())
	ctx = ctxlog.WithLogger(ctx, logger)

	e.result = e.compile(ctx, logger, source, f)
	if e.result == OK {
		e.state = Compiled
	} else {
		e.state = NotCompiled
	}
	logger.Debug("Compile finished.", "result", e.result.String())
	return e.result
}

func (e *Engine) compile(ctx context.Context, logger *slog.Logger, source string, f flavor.Flavor) Result {
	e.reset()

	if !f.Known() {
		logger.Error("Unknown build flavor.")
		return ValidationError
	}
	factory, ok := e.backends.Lookup(f.Backend)
	if !ok {
		logger.Error("No handlers registered for backend.", "backend", f.Backend)
		return ValidationError
	}
	handlers := factory(f)
	if pc, ok := handlers.(PreCompiler); ok {
		if err := pc.PreCompile(ctx, f); err != nil {
			logger.Error("PreCompile failed.", "error", err)
			return InterpreterError
		}
	}

	g, err := e.loader.Load(ctx, source, f)
	if err != nil {
		logger.Error("Failed to load render graph.", "source", source, "error", err)
		if errors.Is(err, rendergraph.ErrParse) {
			return ParseError
		}
		return ValidationError
	}
	if e.postLoad != nil {
		e.postLoad(g)
	}

	e.graph = g
	e.flavor = f
	e.handlers = handlers
	e.vars = variables.Build(g, e.store)
	e.nodes.Clear()
	logger.Debug("Render graph bound.", "variables", e.vars.Count(), "nodes", len(g.Nodes), "store_slots", e.store.Len())

	if co, ok := handlers.(CompileObserver); ok {
		if err := co.CompileOK(ctx, e); err != nil {
			logger.Error("CompileOK failed.", "error", err)
			return InterpreterError
		}
	}

	for _, idx := range g.FlattenedNodeList {
		n := g.Nodes[idx]
		if err := e.dispatch(ctx, n, Init); err != nil {
			logger.Error("Init failed.", "kind", n.Kind().String(), "node", n.NodeName(), "error", err)
			return InterpreterError
		}
	}
	logger.Debug("Nodes initialized.", "runtime_slots", e.nodes.Len())
	return OK
}

func (e *Engine) reset() {
	e.graph = nil
	e.handlers = nil
	e.vars = nil
	e.flavor = flavor.Flavor{}
	e.nodes.Clear()
}

// Execute runs one frame. It does nothing and succeeds unless the last
// compile returned OK. A handler error stops the node pass, skips the
// "after" rules and is returned; nodes that already ran are not undone.
func (e *Engine) Execute(ctx context.Context) error {
	if e.result != OK {
		return nil
	}
	logger := e.logger.With("flavor", e.flavor.String())
	ctx = ctxlog.WithLogger(ctx, logger)

	e.state = Executing
	defer func() { e.state = Compiled }()

	e.runSetVars(true)

	for _, idx := range e.graph.FlattenedNodeList {
		n := e.graph.Nodes[idx]
		if err := e.dispatch(ctx, n, Execute); err != nil {
			logger.Error("Execute failed.", "kind", n.Kind().String(), "node", n.NodeName(), "error", err)
			return fmt.Errorf("%s %q: %w", n.Kind(), n.NodeName(), err)
		}
	}

	e.runSetVars(false)
	return nil
}

// runSetVars applies every rule of the given phase whose condition holds,
// in declaration order.
func (e *Engine) runSetVars(before bool) {
	for _, sv := range e.graph.SetVars {
		if !sv.Destination.Bound() || sv.SetBefore != before {
			continue
		}
		if !e.EvaluateCondition(sv.Condition) {
			continue
		}
		operator.Execute(e, sv)
	}
}

// Clear drops the compiled graph and releases all variable storage.
func (e *Engine) Clear() {
	e.reset()
	e.store.Clear()
	e.result = NotCompiledYet
	e.state = NotCompiled
}

// EvaluateCondition reports whether c holds against the current variables.
func (e *Engine) EvaluateCondition(c rendergraph.Condition) bool {
	return condition.Evaluate(e, c)
}

// IsConditional reports whether c can ever evaluate false.
func (e *Engine) IsConditional(c rendergraph.Condition) bool {
	return c.IsConditional()
}

// Graph returns the compiled graph, or nil.
func (e *Engine) Graph() *rendergraph.RenderGraph { return e.graph }

// Variables returns the variable table of the compiled graph, or nil.
func (e *Engine) Variables() *variables.Table { return e.vars }

// Nodes returns the node runtime registry.
func (e *Engine) Nodes() *nodestate.Registry { return e.nodes }

// Flavor returns the flavor of the last compile.
func (e *Engine) Flavor() flavor.Flavor { return e.flavor }

// Handlers returns the handler set of the last compile, or nil.
func (e *Engine) Handlers() Handlers { return e.handlers }

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// LastResult returns the result of the last compile.
func (e *Engine) LastResult() Result { return e.result }

// RuntimeNodeData returns the runtime slot of n, if one exists. The value
// is a pointer to the nodestate type matching n's kind.
func (e *Engine) RuntimeNodeData(n rendergraph.Node) (any, bool) {
	name := n.NodeName()
	switch n.Kind() {
	case rendergraph.KindTexture:
		if s, ok := e.nodes.Textures.Get(name); ok {
			return s, true
		}
	case rendergraph.KindBuffer:
		if s, ok := e.nodes.Buffers.Get(name); ok {
			return s, true
		}
	case rendergraph.KindComputeShader:
		if s, ok := e.nodes.ComputeShaders.Get(name); ok {
			return s, true
		}
	case rendergraph.KindDrawCall:
		if s, ok := e.nodes.DrawCalls.Get(name); ok {
			return s, true
		}
	case rendergraph.KindCopyResource:
		if s, ok := e.nodes.Copies.Get(name); ok {
			return s, true
		}
	}
	return nil, false
}
