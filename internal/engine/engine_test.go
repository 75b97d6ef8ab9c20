package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/flavor"
	"github.com/vk/rendergraph/internal/nodestate"
	"github.com/vk/rendergraph/internal/rendergraph"
)

// recorder is a handler set that records every call.
type recorder struct {
	calls      []string
	states     []State
	failNode   string
	failAction Action
	preCompile int
	compileOK  int
}

func (r *recorder) record(rt Runtime, name string, action Action) error {
	r.calls = append(r.calls, action.String()+":"+name)
	if e, ok := rt.(*Engine); ok {
		r.states = append(r.states, e.State())
	}
	if name == r.failNode && action == r.failAction {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) Texture(_ context.Context, rt Runtime, n *rendergraph.TextureNode, slot *nodestate.Texture, action Action) error {
	slot.Size = n.Size.Literal
	return r.record(rt, n.Name, action)
}

func (r *recorder) Buffer(_ context.Context, rt Runtime, n *rendergraph.BufferNode, slot *nodestate.Buffer, action Action) error {
	slot.Count = n.Count.Literal
	return r.record(rt, n.Name, action)
}

func (r *recorder) ComputeShader(_ context.Context, rt Runtime, n *rendergraph.ComputeShaderNode, slot *nodestate.ComputeShader, action Action) error {
	if action == Execute {
		slot.Dispatches++
	}
	return r.record(rt, n.Name, action)
}

func (r *recorder) DrawCall(_ context.Context, rt Runtime, n *rendergraph.DrawCallNode, _ *nodestate.DrawCall, action Action) error {
	return r.record(rt, n.Name, action)
}

func (r *recorder) CopyResource(_ context.Context, rt Runtime, n *rendergraph.CopyResourceNode, _ *nodestate.CopyResource, action Action) error {
	return r.record(rt, n.Name, action)
}

func (r *recorder) PreCompile(context.Context, flavor.Flavor) error {
	r.preCompile++
	return nil
}

func (r *recorder) CompileOK(_ context.Context, rt Runtime) error {
	r.compileOK++
	if rt.Variables() == nil {
		return errors.New("variables not bound")
	}
	return nil
}

type recorderModule struct{ r *recorder }

func (m recorderModule) Register(reg *Registry) {
	reg.Register(flavor.BackendInterpreter, func(flavor.Flavor) Handlers { return m.r })
}

func varRef(g *rendergraph.RenderGraph, name string) rendergraph.VariableRef {
	_, i := g.VariableByName(name)
	return rendergraph.VariableRef{Name: name, Index: i}
}

// testGraph declares C, A, B and orders them A, B, C.
func testGraph() *rendergraph.RenderGraph {
	g := &rendergraph.RenderGraph{
		Enums: []*rendergraph.Enum{{OriginalName: "BlendMode", Items: []string{"Additive", "Alpha", "Opaque"}}},
		Variables: []*rendergraph.Variable{
			{Name: "radius", Type: datatype.Int, Default: "3", EnumIndex: -1},
			{Name: "enabled", Type: datatype.Bool, Default: "false", EnumIndex: -1},
			{Name: "blendMode", Type: datatype.Int, Default: "0", EnumIndex: 0},
			{Name: "frames", Type: datatype.Uint, Default: "0", EnumIndex: -1},
			{Name: "width", Type: datatype.Uint, Default: "0", EnumIndex: -1},
		},
		Nodes: []rendergraph.Node{
			&rendergraph.CopyResourceNode{
				Base:      rendergraph.Base{Name: "C"},
				Source:    rendergraph.NodeRef{Name: "A", Index: 1},
				Dest:      rendergraph.NodeRef{Name: "A", Index: 1},
				Condition: rendergraph.AlwaysTrue(),
			},
			&rendergraph.TextureNode{
				Base: rendergraph.Base{Name: "A"},
				Size: rendergraph.SizeSource{Literal: [3]uint32{640, 480, 1}, Variable: rendergraph.Unbound(), Node: rendergraph.NoNode()},
			},
			&rendergraph.ComputeShaderNode{
				Base:         rendergraph.Base{Name: "B"},
				Reads:        []rendergraph.NodeRef{{Name: "A", Index: 1}},
				DispatchFrom: rendergraph.NodeRef{Name: "A", Index: 1},
				Condition:    rendergraph.AlwaysTrue(),
			},
		},
		FlattenedNodeList: []int{1, 2, 0},
	}

	always := rendergraph.AlwaysTrue()
	gated := rendergraph.Condition{
		Variable1: varRef(g, "enabled"), Comparison: rendergraph.IsTrue, Variable2: rendergraph.Unbound(),
	}
	widthOperand := rendergraph.LiteralOperand("")
	widthOperand.Node = rendergraph.NodeRef{Name: "A", Index: 1}
	g.SetVars = []*rendergraph.SetVariable{
		{
			Destination: varRef(g, "radius"), DestinationIndex: -1, Op: rendergraph.OpPowerOf2GE,
			A: rendergraph.LiteralOperand("5"), B: rendergraph.LiteralOperand(""), Condition: always, SetBefore: true,
		},
		{
			Destination: varRef(g, "radius"), DestinationIndex: -1, Op: rendergraph.OpNoop,
			A: rendergraph.LiteralOperand("100"), B: rendergraph.LiteralOperand(""), Condition: gated, SetBefore: true,
		},
		{
			Destination: varRef(g, "frames"), DestinationIndex: -1, Op: rendergraph.OpAdd,
			A: rendergraph.VariableOperand("frames", 3), B: rendergraph.LiteralOperand("1"), Condition: always, SetBefore: false,
		},
		{
			Destination: varRef(g, "width"), DestinationIndex: -1, Op: rendergraph.OpNoop,
			A: widthOperand, B: rendergraph.LiteralOperand(""), Condition: always, SetBefore: false,
		},
		{
			Destination: rendergraph.Unbound(), DestinationIndex: -1, Op: rendergraph.OpAdd,
			A: rendergraph.LiteralOperand("1"), B: rendergraph.LiteralOperand("1"), Condition: always, SetBefore: true,
		},
	}
	return g
}

type harness struct {
	engine *Engine
	rec    *recorder
	loads  int
	err    error
	logs   []string
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{rec: &recorder{failNode: "-"}}
	loader := rendergraph.LoaderFunc(func(context.Context, string, flavor.Flavor) (*rendergraph.RenderGraph, error) {
		h.loads++
		if h.err != nil {
			return nil, h.err
		}
		return testGraph(), nil
	})
	logFn := func(level slog.Level, msg string) {
		h.logs = append(h.logs, level.String()+" "+msg)
	}
	opts = append([]Option{WithLogFunc(logFn, slog.LevelDebug)}, opts...)
	h.engine = New(loader, NewRegistry(recorderModule{h.rec}), opts...)
	return h
}

func (h *harness) value(t *testing.T, name string) string {
	t.Helper()
	i := h.engine.RuntimeVariableIndex(name)
	require.GreaterOrEqual(t, i, 0, name)
	s, err := h.engine.RuntimeVariableValueAsString(i)
	require.NoError(t, err)
	return s
}

func TestEngine_NotCompiled(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, NotCompiledYet, h.engine.LastResult())
	assert.Equal(t, NotCompiled, h.engine.State())
	assert.NoError(t, h.engine.Execute(context.Background()))
	assert.Empty(t, h.rec.calls)
	assert.Equal(t, 0, h.engine.RuntimeVariableCount())
	assert.Equal(t, -1, h.engine.RuntimeVariableIndex("radius"))
	_, err := h.engine.RuntimeVariable(0)
	assert.Error(t, err)
}

func TestEngine_CompileLogsStorageUse(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, OK, h.engine.Compile(context.Background(), "graph", flavor.InterpreterInterpreter))
	assert.Contains(t, h.logs, "DEBUG Render graph bound. flavor=Interpreter_Interpreter variables=5 nodes=3 store_slots=5")

	require.Equal(t, OK, h.engine.Compile(context.Background(), "graph", flavor.InterpreterInterpreter))
	assert.Equal(t, "DEBUG Render graph bound. flavor=Interpreter_Interpreter variables=5 nodes=3 store_slots=5",
		boundLog(h.logs), "recompiling the same graph reuses its slots")
}

func boundLog(logs []string) string {
	last := ""
	for _, l := range logs {
		if strings.HasPrefix(l, "DEBUG Render graph bound.") {
			last = l
		}
	}
	return last
}

func TestEngine_CompileInitsInFlattenedOrder(t *testing.T) {
	h := newHarness(t)

	res := h.engine.Compile(context.Background(), "graph.hcl", flavor.InterpreterInterpreter)
	require.Equal(t, OK, res)
	assert.Equal(t, Compiled, h.engine.State())
	assert.Equal(t, flavor.InterpreterInterpreter, h.engine.Flavor())
	assert.Equal(t, []string{"Init:A", "Init:B", "Init:C"}, h.rec.calls)
	assert.Equal(t, 1, h.rec.preCompile)
	assert.Equal(t, 1, h.rec.compileOK)
	assert.Equal(t, 5, h.engine.RuntimeVariableCount())
	assert.Same(t, h.rec, h.engine.Handlers())
}

func TestEngine_ExecuteOrderAndRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.Equal(t, OK, h.engine.Compile(ctx, "graph.hcl", flavor.InterpreterInterpreter))
	h.rec.calls = nil
	h.rec.states = nil

	require.NoError(t, h.engine.Execute(ctx))
	assert.Equal(t, []string{"Execute:A", "Execute:B", "Execute:C"}, h.rec.calls)
	assert.Equal(t, []State{Executing, Executing, Executing}, h.rec.states)
	assert.Equal(t, Compiled, h.engine.State())

	// PowerOf2GE of the literal 5; the gated rule is skipped while enabled is false.
	assert.Equal(t, "8", h.value(t, "radius"))
	assert.Equal(t, "1", h.value(t, "frames"))
	// The after-rule sees the size the texture handler stored.
	assert.Equal(t, "640", h.value(t, "width"))

	require.NoError(t, h.engine.SetRuntimeVariableFromString(h.engine.RuntimeVariableIndex("enabled"), "true"))
	require.NoError(t, h.engine.Execute(ctx))
	assert.Equal(t, "100", h.value(t, "radius"))
	assert.Equal(t, "2", h.value(t, "frames"))
}

func TestEngine_LoaderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Result
	}{
		{"parse", fmt.Errorf("%w: bad token", rendergraph.ErrParse), ParseError},
		{"validation", fmt.Errorf("%w: duplicate", rendergraph.ErrValidation), ValidationError},
		{"other", errors.New("disk on fire"), ValidationError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			require.Equal(t, OK, h.engine.Compile(ctx, "graph.hcl", flavor.InterpreterInterpreter))

			h.err = tc.err
			h.rec.calls = nil
			assert.Equal(t, tc.want, h.engine.Compile(ctx, "graph.hcl", flavor.InterpreterInterpreter))
			assert.Equal(t, NotCompiled, h.engine.State())
			assert.Nil(t, h.engine.Graph())

			assert.NoError(t, h.engine.Execute(ctx))
			assert.Empty(t, h.rec.calls, "a failed compile must not run any node")
		})
	}
}

func TestEngine_FlavorSelection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.Equal(t, ValidationError, h.engine.Compile(ctx, "graph.hcl", flavor.Flavor{Backend: "Metal", Variant: "X"}))
	assert.Equal(t, ValidationError, h.engine.Compile(ctx, "graph.hcl", flavor.DX12Module), "no DX12 handlers registered")
	assert.Equal(t, 0, h.loads)
}

func TestEngine_InitFailureIsInterpreterError(t *testing.T) {
	h := newHarness(t)
	h.rec.failNode = "B"
	h.rec.failAction = Init

	res := h.engine.Compile(context.Background(), "graph.hcl", flavor.InterpreterInterpreter)
	assert.Equal(t, InterpreterError, res)
	assert.Equal(t, []string{"Init:A", "Init:B"}, h.rec.calls)
	assert.Contains(t, h.logs, "ERROR Init failed. flavor=Interpreter_Interpreter kind=ComputeShader node=B error=boom")

	h.rec.calls = nil
	assert.NoError(t, h.engine.Execute(context.Background()))
	assert.Empty(t, h.rec.calls)
}

func TestEngine_ExecuteFailureAbortsRemainingNodes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.Equal(t, OK, h.engine.Compile(ctx, "graph.hcl", flavor.InterpreterInterpreter))
	h.rec.calls = nil
	h.rec.failNode = "B"
	h.rec.failAction = Execute

	err := h.engine.Execute(ctx)
	require.Error(t, err)
	assert.EqualError(t, err, `ComputeShader "B": boom`)
	assert.Equal(t, []string{"Execute:A", "Execute:B"}, h.rec.calls)
	assert.Equal(t, "8", h.value(t, "radius"), "before rules ran")
	assert.Equal(t, "0", h.value(t, "frames"), "after rules did not run")

	// The engine is not poisoned.
	h.rec.failNode = "-"
	h.rec.calls = nil
	require.NoError(t, h.engine.Execute(ctx))
	assert.Equal(t, []string{"Execute:A", "Execute:B", "Execute:C"}, h.rec.calls)
}

func TestEngine_ValuesSurviveRecompileUntilClear(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.Equal(t, OK, h.engine.Compile(ctx, "graph.hcl", flavor.InterpreterInterpreter))
	require.NoError(t, h.engine.SetRuntimeVariableFromString(h.engine.RuntimeVariableIndex("blendMode"), "BlendMode::Opaque"))

	require.Equal(t, OK, h.engine.Compile(ctx, "graph.hcl", flavor.InterpreterInterpreter))
	assert.Equal(t, "2", h.value(t, "blendMode"))

	require.NoError(t, h.engine.SetRuntimeVariableToDefault(h.engine.RuntimeVariableIndex("blendMode")))
	assert.Equal(t, "0", h.value(t, "blendMode"))
	require.NoError(t, h.engine.SetRuntimeVariableFromString(h.engine.RuntimeVariableIndex("blendMode"), "alpha"))

	h.engine.Clear()
	assert.Equal(t, NotCompiledYet, h.engine.LastResult())
	assert.Equal(t, 0, h.engine.RuntimeVariableCount())

	require.Equal(t, OK, h.engine.Compile(ctx, "graph.hcl", flavor.InterpreterInterpreter))
	assert.Equal(t, "0", h.value(t, "blendMode"))
}

func TestEngine_RuntimeNodeData(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, OK, h.engine.Compile(context.Background(), "graph.hcl", flavor.InterpreterInterpreter))

	n, _ := h.engine.Graph().NodeByName("A")
	data, ok := h.engine.RuntimeNodeData(n)
	require.True(t, ok)
	tex, ok := data.(*nodestate.Texture)
	require.True(t, ok)
	assert.Equal(t, [3]uint32{640, 480, 1}, tex.Size)

	_, ok = h.engine.RuntimeNodeData(&rendergraph.BufferNode{Base: rendergraph.Base{Name: "ghost"}})
	assert.False(t, ok)
}

func TestEngine_PostLoadHook(t *testing.T) {
	var seen *rendergraph.RenderGraph
	h := newHarness(t, WithPostLoad(func(g *rendergraph.RenderGraph) {
		seen = g
		g.Variables[0].Default = "16"
	}))

	require.Equal(t, OK, h.engine.Compile(context.Background(), "graph.hcl", flavor.InterpreterInterpreter))
	assert.Same(t, seen, h.engine.Graph())
	assert.Equal(t, "16", h.value(t, "radius"))
}

func TestEngine_IsConditional(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.engine.IsConditional(rendergraph.AlwaysTrue()))
	c := rendergraph.AlwaysTrue()
	c.AlwaysFalse = true
	assert.True(t, h.engine.IsConditional(c))
	assert.False(t, h.engine.EvaluateCondition(c))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(recorderModule{&recorder{}})
	_, ok := r.Lookup(flavor.BackendInterpreter)
	assert.True(t, ok)
	_, ok = r.Lookup(flavor.BackendDX12)
	assert.False(t, ok)
	assert.Equal(t, []flavor.Backend{flavor.BackendInterpreter}, r.Backends())

	assert.PanicsWithValue(t, "handlers for backend 'Interpreter' already registered", func() {
		recorderModule{&recorder{}}.Register(r)
	})
}

func TestResultStrings(t *testing.T) {
	assert.Equal(t, "InterpreterError", InterpreterError.String())
	assert.Equal(t, "Result(42)", Result(42).String())
	assert.Equal(t, "Executing", Executing.String())
	assert.Equal(t, "Init", Init.String())
}
