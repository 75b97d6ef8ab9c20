package codegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/rendergraph/internal/ctxlog"
	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/flavor"
	"github.com/vk/rendergraph/internal/nodestate"
	"github.com/vk/rendergraph/internal/rendergraph"
)

// ErrNotCompiled is returned by Source before a graph has been compiled.
var ErrNotCompiled = errors.New("no graph compiled")

// Generator translates a compiled graph into technique source. Node code is
// produced during Init, in execution order. Execute is a no-op: the
// generated technique runs frames on its own.
type Generator struct {
	flavor    flavor.Flavor
	graph     *rendergraph.RenderGraph
	imports   writer
	resources writer
	commands  writer
}

var (
	_ engine.Handlers        = (*Generator)(nil)
	_ engine.PreCompiler     = (*Generator)(nil)
	_ engine.CompileObserver = (*Generator)(nil)
)

// NewGenerator creates a generator for flavor f.
func NewGenerator(f flavor.Flavor) *Generator {
	return &Generator{flavor: f}
}

// PreCompile implements engine.PreCompiler.
func (g *Generator) PreCompile(_ context.Context, f flavor.Flavor) error {
	if f.Backend != flavor.BackendDX12 {
		return fmt.Errorf("source generator cannot target flavor %s", f)
	}
	g.flavor = f
	g.graph = nil
	return nil
}

// CompileOK implements engine.CompileObserver.
func (g *Generator) CompileOK(ctx context.Context, rt engine.Runtime) error {
	g.graph = rt.Graph()
	g.imports.reset(2)
	g.resources.reset(2)
	g.commands.reset(2)
	ctxlog.FromContext(ctx).Debug("Generating technique source.", "graph", g.graph.Name)
	return nil
}

// Texture emits creation code for internal textures and a presence check
// for imported ones.
func (g *Generator) Texture(_ context.Context, _ engine.Runtime, n *rendergraph.TextureNode, _ *nodestate.Texture, action engine.Action) error {
	if action != engine.Init {
		return nil
	}
	if n.Imported {
		w := &g.imports
		w.block("!"+textureExpr(scopeContext, n), func() {
			w.line(`Context::LogFn(LogLevel::Error, "%s: Imported texture \"%s\" is null.\n");`, g.techniqueName(), n.Name)
			w.line("return;")
		})
		return nil
	}

	w := &g.resources
	tex := textureExpr(scopeMember, n)
	w.line("// Texture: %s", n.Name)
	w.block("", func() {
		base := g.sizeBase(n.Size)
		w.line("unsigned int baseSize[3] = { %s, %s, %s };", base[0], base[1], base[2])
		w.line("unsigned int desiredSize[3] = {")
		w.indent++
		for i := 0; i < 3; i++ {
			sep := ","
			if i == 2 {
				sep = ""
			}
			w.line("((baseSize[%d] + %d) * %d) / %d + %d%s", i, n.Size.PreAdd[i], n.Size.Multiply[i], n.Size.Divide[i], n.Size.PostAdd[i], sep)
		}
		w.indent--
		w.line("};")
		w.line("DXGI_FORMAT desiredFormat = DX12Utils::FormatFromName(\"%s\");", n.Format)
		w.line("if(!%s ||", tex)
		w.line("   %s_size[0] != desiredSize[0] ||", tex)
		w.line("   %s_size[1] != desiredSize[1] ||", tex)
		w.line("   %s_size[2] != desiredSize[2] ||", tex)
		w.line("   %s_format != desiredFormat)", tex)
		w.block("", func() {
			w.line("dirty = true;")
			w.line("if(%s)", tex)
			w.line("    s_delayedRelease.Add(%s);", tex)
			w.line("%s = DX12Utils::CreateTexture(device, desiredSize, desiredFormat, D3D12_RESOURCE_STATE_COMMON, (c_debugNames ? L\"%s\" : nullptr), Context::LogFn);", tex, n.Name)
			for i := 0; i < 3; i++ {
				w.line("%s_size[%d] = desiredSize[%d];", tex, i, i)
			}
			w.line("%s_format = desiredFormat;", tex)
		})
	})
	w.line("")
	return nil
}

// sizeBase renders the three base size components of src.
func (g *Generator) sizeBase(src rendergraph.SizeSource) [3]string {
	out := [3]string{"1", "1", "1"}
	switch {
	case src.Node.Bound():
		if t, ok := g.graph.Nodes[src.Node.Index].(*rendergraph.TextureNode); ok {
			for i := range out {
				out[i] = fmt.Sprintf("%s_size[%d]", textureExpr(scopeMember, t), i)
			}
		}
	case src.Variable.Bound():
		v := g.graph.Variables[src.Variable.Index]
		count := v.Type.Info().ComponentCount
		for i := 0; i < count && i < 3; i++ {
			out[i] = cast(datatype.ScalarUint, component(variableExpr(scopeMember, v.Name), count, i))
		}
	default:
		for i, c := range src.Literal {
			out[i] = fmt.Sprintf("%d", c)
		}
	}
	return out
}

// countExpr renders an element count in the given scope.
func (g *Generator) countExpr(scope string, src rendergraph.CountSource) string {
	switch {
	case src.Node.Bound():
		switch n := g.graph.Nodes[src.Node.Index].(type) {
		case *rendergraph.BufferNode:
			return bufferExpr(scope, n) + "_count"
		case *rendergraph.TextureNode:
			t := textureExpr(scope, n)
			return fmt.Sprintf("%s_size[0] * %s_size[1] * %s_size[2]", t, t, t)
		}
	case src.Variable.Bound():
		v := g.graph.Variables[src.Variable.Index]
		count := v.Type.Info().ComponentCount
		return cast(datatype.ScalarUint, component(variableExpr(scope, v.Name), count, 0))
	}
	return fmt.Sprintf("%d", src.Literal)
}

// Buffer emits creation code for a buffer.
func (g *Generator) Buffer(_ context.Context, _ engine.Runtime, n *rendergraph.BufferNode, _ *nodestate.Buffer, action engine.Action) error {
	if action != engine.Init {
		return nil
	}
	w := &g.resources
	buf := bufferExpr(scopeMember, n)
	w.line("// Buffer: %s", n.Name)
	w.block("", func() {
		w.line("unsigned int desiredCount = %s;", g.countExpr(scopeMember, n.Count))
		w.line("unsigned int desiredStride = %d;", n.Stride)
		w.line("if(!%s || %s_count != desiredCount || %s_stride != desiredStride)", buf, buf, buf)
		w.block("", func() {
			w.line("dirty = true;")
			w.line("if(%s)", buf)
			w.line("    s_delayedRelease.Add(%s);", buf)
			w.line("%s = DX12Utils::CreateBuffer(device, desiredCount * desiredStride, D3D12_RESOURCE_FLAG_ALLOW_UNORDERED_ACCESS, D3D12_RESOURCE_STATE_COMMON, D3D12_HEAP_TYPE_DEFAULT, (c_debugNames ? L\"%s\" : nullptr), Context::LogFn);", buf, n.Name)
			w.line("%s_count = desiredCount;", buf)
			w.line("%s_stride = desiredStride;", buf)
		})
	})
	w.line("")
	return nil
}

// ComputeShader emits a guarded dispatch.
func (g *Generator) ComputeShader(_ context.Context, _ engine.Runtime, n *rendergraph.ComputeShaderNode, _ *nodestate.ComputeShader, action engine.Action) error {
	if action != engine.Init {
		return nil
	}
	w := &g.commands
	id := identifier(n.Name)
	w.line("// Compute Shader: %s (%s:%s)", n.Name, n.Shader, n.EntryPoint)
	w.block(g.condition(scopeContext, n.Condition), func() {
		w.line("commandList->SetComputeRootSignature(ContextInternal::computeShader_%s_rootSig);", id)
		w.line("commandList->SetPipelineState(ContextInternal::computeShader_%s_pso);", id)

		base := [3]string{"1", "1", "1"}
		if n.DispatchFrom.Bound() {
			switch r := g.graph.Nodes[n.DispatchFrom.Index].(type) {
			case *rendergraph.TextureNode:
				for i := range base {
					base[i] = fmt.Sprintf("%s_size[%d]", textureExpr(scopeContext, r), i)
				}
			case *rendergraph.BufferNode:
				base[0] = bufferExpr(scopeContext, r) + "_count"
			}
		}
		w.line("unsigned int baseDispatchSize[3] = { %s, %s, %s };", base[0], base[1], base[2])
		w.line("unsigned int dispatchSize[3] = {")
		w.indent++
		for i, t := range n.NumThreads {
			sep := ","
			if i == 2 {
				sep = ""
			}
			t = max(t, 1)
			w.line("(baseDispatchSize[%d] + %d - 1) / %d%s", i, t, t, sep)
		}
		w.indent--
		w.line("};")
		w.line("commandList->Dispatch(dispatchSize[0], dispatchSize[1], dispatchSize[2]);")
	})
	w.line("")
	return nil
}

// DrawCall emits a guarded draw.
func (g *Generator) DrawCall(_ context.Context, _ engine.Runtime, n *rendergraph.DrawCallNode, _ *nodestate.DrawCall, action engine.Action) error {
	if action != engine.Init {
		return nil
	}
	w := &g.commands
	id := identifier(n.Name)
	w.line("// Draw Call: %s (%s, %s)", n.Name, n.VertexShader, n.PixelShader)
	w.block(g.condition(scopeContext, n.Condition), func() {
		w.line("commandList->SetGraphicsRootSignature(ContextInternal::drawCall_%s_rootSig);", id)
		w.line("commandList->SetPipelineState(ContextInternal::drawCall_%s_pso);", id)
		targets := make([]string, 0, len(n.RenderTargets))
		for _, ref := range n.RenderTargets {
			targets = append(targets, resourceExpr(scopeContext, g.graph.Nodes[ref.Index]))
		}
		if len(targets) > 0 {
			w.line("ID3D12Resource* renderTargets[] = { %s };", strings.Join(targets, ", "))
		}
		if n.DepthTarget.Bound() {
			w.line("ID3D12Resource* depthTarget = %s;", resourceExpr(scopeContext, g.graph.Nodes[n.DepthTarget.Index]))
		}
		if n.Vertices.Bound() {
			w.line("commandList->IASetVertexBuffers(0, 1, &%s_vbv);", resourceExpr(scopeContext, g.graph.Nodes[n.Vertices.Index]))
		}
		w.line("unsigned int vertexCount = %s;", g.countExpr(scopeContext, n.VertexCount))
		w.line("commandList->DrawInstanced(vertexCount, 1, 0, 0);")
	})
	w.line("")
	return nil
}

// CopyResource emits a guarded copy.
func (g *Generator) CopyResource(_ context.Context, _ engine.Runtime, n *rendergraph.CopyResourceNode, _ *nodestate.CopyResource, action engine.Action) error {
	if action != engine.Init {
		return nil
	}
	w := &g.commands
	src := resourceExpr(scopeContext, g.graph.Nodes[n.Source.Index])
	dst := resourceExpr(scopeContext, g.graph.Nodes[n.Dest.Index])
	w.line("// Copy Resource: %s", n.Name)
	w.block(g.condition(scopeContext, n.Condition), func() {
		w.line("commandList->CopyResource(%s, %s);", dst, src)
	})
	w.line("")
	return nil
}

func (g *Generator) techniqueName() string {
	if g.graph == nil || g.graph.Name == "" {
		return "technique"
	}
	return identifier(g.graph.Name)
}

// Source assembles the technique source of the last compiled graph.
func (g *Generator) Source() (string, error) {
	if g.graph == nil {
		return "", ErrNotCompiled
	}
	name := g.techniqueName()
	var w writer

	w.line("// %s technique, generated for %s", name, g.flavor)
	w.line(`#include "technique.h"`)
	w.line("#include <cmath>")
	w.line("#include <cstdint>")
	w.line("#include <limits>")
	w.line("#include <type_traits>")
	w.line("")
	w.line("namespace %s", name)
	w.line("{")
	w.indent++

	g.writePow2GE(&w)
	g.writeEnums(&w)
	g.writeInputs(&w)

	w.line("void Context::EnsureResourcesCreated(ID3D12Device* device, ID3D12GraphicsCommandList* commandList)")
	w.block("", func() {
		w.line("bool dirty = false;")
		w.line("")
		w.sb.WriteString(g.resources.String())
		w.line("EnsureDrawCallPSOsCreated(device, dirty);")
	})
	w.line("")

	w.line("void Execute(Context* context, ID3D12Device* device, ID3D12GraphicsCommandList* commandList)")
	w.block("", func() {
		w.sb.WriteString(g.imports.String())
		g.writeSetVariables(&w, true)
		w.line("context->EnsureResourcesCreated(device, commandList);")
		w.line("")
		w.sb.WriteString(g.commands.String())
		g.writeSetVariables(&w, false)
	})

	w.indent--
	w.line("};")

	if g.flavor == flavor.DX12Application {
		g.writeMain(&w, name)
	}
	return w.String(), nil
}

func (g *Generator) writePow2GE(w *writer) {
	w.line("template <typename T>")
	w.line("T Pow2GE(const T& A)")
	w.block("", func() {
		w.line("if constexpr (std::is_floating_point_v<T>)")
		w.line("    return (T)std::pow(2.0f, std::ceil(std::log2(float(A))));")
		w.line("if (A <= 0)")
		w.line("    return 0;")
		w.line("uint64_t result = 1;")
		w.line("while (result < uint64_t(A))")
		w.line("    result <<= 1;")
		w.line("return (T)result;")
	})
	w.line("")
}

func (g *Generator) writeEnums(w *writer) {
	for _, e := range g.graph.Enums {
		items := make([]string, len(e.Items))
		for i, item := range e.Items {
			items[i] = identifier(item)
		}
		w.line("enum class %s : int { %s };", identifier(e.OriginalName), strings.Join(items, ", "))
	}
	if len(g.graph.Enums) > 0 {
		w.line("")
	}
}

func (g *Generator) writeInputs(w *writer) {
	w.line("struct ContextInput")
	w.line("{")
	w.indent++
	for _, v := range g.graph.Variables {
		if v.Comment != "" {
			w.line("// %s", v.Comment)
		}
		info := v.Type.Info()
		values := literalComponents(v.Default, info.Scalar, info.ComponentCount)
		init := values[0]
		if len(values) > 1 {
			init = "{" + strings.Join(values, ", ") + "}"
		}
		suffix := ""
		if e := g.graph.EnumOf(v); e != nil {
			suffix = " // " + e.OriginalName
		}
		w.line("%s variable_%s = %s;%s", cppTypes[v.Type], identifier(v.Name), init, suffix)
	}
	w.indent--
	w.line("};")
	w.line("")
}

func (g *Generator) writeSetVariables(w *writer, before bool) {
	for _, sv := range g.graph.SetVars {
		if sv.SetBefore == before {
			g.setVariable(w, sv)
		}
	}
}

func (g *Generator) writeMain(w *writer, name string) {
	w.line("")
	w.line("int main(int argc, char** argv)")
	w.block("", func() {
		w.line("DX12Utils::Application app(argc, argv, \"%s\");", name)
		w.line("%s::Context* context = %s::CreateContext(app.Device());", name, name)
		w.line("while (app.BeginFrame())")
		w.block("", func() {
			w.line("%s::OnNewFrame(app.FramesInFlight());", name)
			w.line("%s::Execute(context, app.Device(), app.CommandList());", name)
			w.line("app.EndFrame();")
		})
		w.line("%s::DestroyContext(context);", name)
		w.line("return 0;")
	})
}
