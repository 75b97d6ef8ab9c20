package engine

import (
	"context"

	"github.com/vk/rendergraph/internal/flavor"
	"github.com/vk/rendergraph/internal/nodestate"
	"github.com/vk/rendergraph/internal/rendergraph"
	"github.com/vk/rendergraph/internal/variables"
)

// Runtime is the view of the engine handed to handlers.
type Runtime interface {
	Graph() *rendergraph.RenderGraph
	Variables() *variables.Table
	Nodes() *nodestate.Registry
	EvaluateCondition(c rendergraph.Condition) bool
}

// Handlers implements the per-kind node actions of one backend. A non-nil
// error fails the action: during Compile it yields InterpreterError, during
// Execute it aborts the remaining nodes of the frame.
type Handlers interface {
	Texture(ctx context.Context, rt Runtime, n *rendergraph.TextureNode, slot *nodestate.Texture, action Action) error
	Buffer(ctx context.Context, rt Runtime, n *rendergraph.BufferNode, slot *nodestate.Buffer, action Action) error
	ComputeShader(ctx context.Context, rt Runtime, n *rendergraph.ComputeShaderNode, slot *nodestate.ComputeShader, action Action) error
	DrawCall(ctx context.Context, rt Runtime, n *rendergraph.DrawCallNode, slot *nodestate.DrawCall, action Action) error
	CopyResource(ctx context.Context, rt Runtime, n *rendergraph.CopyResourceNode, slot *nodestate.CopyResource, action Action) error
}

// PreCompiler is implemented by handler sets that prepare before a graph is
// loaded.
type PreCompiler interface {
	PreCompile(ctx context.Context, f flavor.Flavor) error
}

// CompileObserver is implemented by handler sets that want to run after the
// variable table is built and before any node is initialized.
type CompileObserver interface {
	CompileOK(ctx context.Context, rt Runtime) error
}

// HandlerFactory creates the handler set of a backend for one compile.
type HandlerFactory func(f flavor.Flavor) Handlers

// dispatch routes action to the handler method of n's kind, using n's
// persistent runtime slot.
func (e *Engine) dispatch(ctx context.Context, n rendergraph.Node, action Action) error {
	switch v := n.(type) {
	case *rendergraph.TextureNode:
		return e.handlers.Texture(ctx, e, v, e.nodes.Textures.GetOrCreate(v.Name), action)
	case *rendergraph.BufferNode:
		return e.handlers.Buffer(ctx, e, v, e.nodes.Buffers.GetOrCreate(v.Name), action)
	case *rendergraph.ComputeShaderNode:
		return e.handlers.ComputeShader(ctx, e, v, e.nodes.ComputeShaders.GetOrCreate(v.Name), action)
	case *rendergraph.DrawCallNode:
		return e.handlers.DrawCall(ctx, e, v, e.nodes.DrawCalls.GetOrCreate(v.Name), action)
	case *rendergraph.CopyResourceNode:
		return e.handlers.CopyResource(ctx, e, v, e.nodes.Copies.GetOrCreate(v.Name), action)
	}
	panic("engine: unhandled node kind " + n.Kind().String())
}
