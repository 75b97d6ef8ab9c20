package preview

import (
	"context"
	"fmt"

	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/flavor"
	"github.com/vk/rendergraph/internal/nodestate"
	"github.com/vk/rendergraph/internal/rendergraph"
)

// Handlers is the interpreter handler set. A new set is created for every
// compile.
type Handlers struct {
	trace []Event
}

var (
	_ engine.Handlers    = (*Handlers)(nil)
	_ engine.PreCompiler = (*Handlers)(nil)
)

// NewHandlers creates an interpreter handler set with an empty trace.
func NewHandlers() *Handlers {
	return &Handlers{}
}

// Trace returns the events recorded since the last compile or ResetTrace.
func (h *Handlers) Trace() []Event { return h.trace }

// ResetTrace drops the recorded events.
func (h *Handlers) ResetTrace() { h.trace = nil }

// PreCompile implements engine.PreCompiler.
func (h *Handlers) PreCompile(ctx context.Context, f flavor.Flavor) error {
	if f.Backend != flavor.BackendInterpreter {
		return fmt.Errorf("interpreter cannot run flavor %s", f)
	}
	h.trace = nil
	return nil
}

func (h *Handlers) record(ctx context.Context, ev Event) {
	h.trace = append(h.trace, ev)
	ctxlog.FromContext(ctx).Debug("Node handled.",
		"node", ev.Node, "kind", ev.Kind.String(), "action", ev.Action.String(),
		"skipped", ev.Skipped, "detail", ev.Detail)
}

func event(n rendergraph.Node, action engine.Action) Event {
	return Event{Node: n.NodeName(), Kind: n.Kind(), Action: action}
}

// Texture resolves the texture size and recreates the texture whenever its
// size or format changes.
func (h *Handlers) Texture(ctx context.Context, rt engine.Runtime, n *rendergraph.TextureNode, slot *nodestate.Texture, action engine.Action) error {
	size, err := textureSize(rt, n.Size)
	if err != nil {
		return fmt.Errorf("resolve size: %w", err)
	}
	ev := event(n, action)
	if !slot.Created || slot.Size != size || slot.Format != n.Format {
		slot.Size = size
		slot.Format = n.Format
		slot.Created = true
		slot.Generation++
		ev.Detail = fmt.Sprintf("created %dx%dx%d %s", size[0], size[1], size[2], n.Format)
	}
	h.record(ctx, ev)
	return nil
}

// Buffer resolves the element count and recreates the buffer whenever its
// count or stride changes.
func (h *Handlers) Buffer(ctx context.Context, rt engine.Runtime, n *rendergraph.BufferNode, slot *nodestate.Buffer, action engine.Action) error {
	c, err := count(rt, n.Count)
	if err != nil {
		return fmt.Errorf("resolve count: %w", err)
	}
	ev := event(n, action)
	if !slot.Created || slot.Count != c || slot.Stride != n.Stride {
		slot.Count = c
		slot.Stride = n.Stride
		slot.Created = true
		slot.Generation++
		ev.Detail = fmt.Sprintf("created %d x %d bytes", c, n.Stride)
	}
	h.record(ctx, ev)
	return nil
}

// ComputeShader validates the bound resources at Init and computes the
// dispatch dimensions on every frame the condition holds.
func (h *Handlers) ComputeShader(ctx context.Context, rt engine.Runtime, n *rendergraph.ComputeShaderNode, slot *nodestate.ComputeShader, action engine.Action) error {
	ev := event(n, action)
	if action == engine.Init {
		for _, ref := range append(append([]rendergraph.NodeRef{}, n.Reads...), n.Writes...) {
			if err := requireCreated(rt, ref); err != nil {
				return err
			}
		}
		ev.Detail = n.Shader + ":" + n.EntryPoint
		h.record(ctx, ev)
		return nil
	}

	if !rt.EvaluateCondition(n.Condition) {
		slot.Skipped++
		ev.Skipped = true
		h.record(ctx, ev)
		return nil
	}
	groups, err := dispatchGroups(rt, n.DispatchFrom, n.NumThreads)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	slot.LastDispatch = groups
	slot.Dispatches++
	ev.Detail = fmt.Sprintf("dispatch %dx%dx%d", groups[0], groups[1], groups[2])
	h.record(ctx, ev)
	return nil
}

// DrawCall validates its targets at Init and resolves the vertex count on
// every frame the condition holds.
func (h *Handlers) DrawCall(ctx context.Context, rt engine.Runtime, n *rendergraph.DrawCallNode, slot *nodestate.DrawCall, action engine.Action) error {
	ev := event(n, action)
	if action == engine.Init {
		refs := append([]rendergraph.NodeRef{n.Vertices, n.DepthTarget}, n.RenderTargets...)
		for _, ref := range refs {
			if err := requireCreated(rt, ref); err != nil {
				return err
			}
		}
		ev.Detail = n.VertexShader + "/" + n.PixelShader
		h.record(ctx, ev)
		return nil
	}

	if !rt.EvaluateCondition(n.Condition) {
		slot.Skipped++
		ev.Skipped = true
		h.record(ctx, ev)
		return nil
	}
	vertices, err := count(rt, n.VertexCount)
	if err != nil {
		return fmt.Errorf("resolve vertex count: %w", err)
	}
	slot.LastVertexCount = vertices
	slot.Draws++
	ev.Detail = fmt.Sprintf("draw %d vertices", vertices)
	h.record(ctx, ev)
	return nil
}

// CopyResource checks at Init that both ends are resources of the same
// kind, and on every frame the condition holds that their sizes match.
func (h *Handlers) CopyResource(ctx context.Context, rt engine.Runtime, n *rendergraph.CopyResourceNode, slot *nodestate.CopyResource, action engine.Action) error {
	src, err := nodeAt(rt, n.Source)
	if err != nil {
		return err
	}
	dst, err := nodeAt(rt, n.Dest)
	if err != nil {
		return err
	}
	ev := event(n, action)

	if action == engine.Init {
		if src.Kind() != dst.Kind() {
			return fmt.Errorf("%w: cannot copy %s %q into %s %q", ErrMismatch, src.Kind(), src.NodeName(), dst.Kind(), dst.NodeName())
		}
		for _, ref := range []rendergraph.NodeRef{n.Source, n.Dest} {
			if err := requireCreated(rt, ref); err != nil {
				return err
			}
		}
		h.record(ctx, ev)
		return nil
	}

	if !rt.EvaluateCondition(n.Condition) {
		slot.Skipped++
		ev.Skipped = true
		h.record(ctx, ev)
		return nil
	}
	if err := sameExtent(rt, src, dst); err != nil {
		return err
	}
	slot.Copies++
	ev.Detail = src.NodeName() + " -> " + dst.NodeName()
	h.record(ctx, ev)
	return nil
}

func sameExtent(rt engine.Runtime, src, dst rendergraph.Node) error {
	nodes := rt.Nodes()
	if src.Kind() == rendergraph.KindTexture {
		a, _ := nodes.Textures.Get(src.NodeName())
		b, _ := nodes.Textures.Get(dst.NodeName())
		if a == nil || b == nil || a.Size != b.Size || a.Format != b.Format {
			return fmt.Errorf("%w: textures %q and %q differ in size or format", ErrMismatch, src.NodeName(), dst.NodeName())
		}
		return nil
	}
	a, _ := nodes.Buffers.Get(src.NodeName())
	b, _ := nodes.Buffers.Get(dst.NodeName())
	if a == nil || b == nil || a.Count*a.Stride != b.Count*b.Stride {
		return fmt.Errorf("%w: buffers %q and %q differ in size", ErrMismatch, src.NodeName(), dst.NodeName())
	}
	return nil
}
