package codegen

import (
	"context"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/engine"
	"github.com/vk/rendergraph/internal/flavor"
	"github.com/vk/rendergraph/internal/hclgraph"
	"github.com/vk/rendergraph/internal/rendergraph"
)

const blurGraph = `
name = "Box Blur"

enum "Mode" {
  items = ["Fast", "Quality"]
}

variable "radius" {
  type    = "Int"
  default = 3
}

variable "mode" {
  type    = "Int"
  enum    = "Mode"
  default = "Quality"
}

variable "enabled" {
  type    = "Bool"
  default = true
}

variable "tint" {
  type    = "Float3"
  default = [0.5, 1, 2]
  comment = "output tint"
}

variable "frame" {
  type    = "Uint"
  default = 0
}

texture "Input" {
  imported = true
  size     = [512, 512]
}

texture "PingPong" {
  size_from_node = "Input"
}

compute_shader "BlurH" {
  shader = "blur.hlsl"
  reads  = ["Input"]
  writes = ["PingPong"]
  condition {
    variable1  = "enabled"
    comparison = "IsTrue"
  }
}

compute_shader "BlurV" {
  shader = "blur.hlsl"
  reads  = ["PingPong"]
  writes = ["Input"]
  condition {
    variable1  = "mode"
    comparison = "Equals"
    value2     = "Quality"
  }
}

set_variable "radius" {
  op = "PowerOf2GE"
  a {
    variable = "radius"
  }
}

set_variable "radius" {
  op = "Divide"
  a {
    variable = "radius"
  }
  b {
    literal = 2
  }
}

set_variable "tint" {
  op = "Modulo"
  a {
    variable = "tint"
  }
  b {
    literal = [1, 1, 1]
  }
}

set_variable "frame" {
  op         = "Add"
  set_before = false
  a {
    variable = "frame"
  }
  b {
    literal = 1
  }
}

set_variable "enabled" {
  op = "BitwiseXor"
  a {
    variable = "enabled"
  }
  b {
    literal = true
  }
  condition {
    variable1  = "frame"
    comparison = "GT"
    value2     = 10
  }
}
`

func generate(t *testing.T, f flavor.Flavor) string {
	t.Helper()
	loader := rendergraph.LoaderFunc(func(ctx context.Context, source string, f flavor.Flavor) (*rendergraph.RenderGraph, error) {
		return hclgraph.NewLoader().Parse(ctx, "graph.hcl", []byte(source), f)
	})
	e := engine.New(loader, engine.NewRegistry(&Module{}))
	require.Equal(t, engine.OK, e.Compile(context.Background(), blurGraph, f))
	require.NoError(t, e.Execute(context.Background()), "executing a generated flavor is a no-op")

	g, ok := e.Handlers().(*Generator)
	require.True(t, ok)
	src, err := g.Source()
	require.NoError(t, err)
	return src
}

func TestSource_Module(t *testing.T) {
	src := generate(t, flavor.DX12Module)

	for _, want := range []string{
		"// Box_Blur technique, generated for DX12_Module",
		"namespace Box_Blur",
		"enum class Mode : int { Fast, Quality };",
		"int variable_radius = 3;",
		"int variable_mode = 1; // Mode",
		"// output tint",
		"float3 variable_tint = {0.5f, 1.0f, 2.0f};",
		"bool variable_enabled = true;",
		"unsigned int variable_frame = 0u;",
		"if (!context->m_input.texture_Input)",
		"unsigned int baseSize[3] = { m_input.texture_Input_size[0], m_input.texture_Input_size[1], m_input.texture_Input_size[2] };",
		"if (context->m_input.variable_enabled)",
		"if (context->m_input.variable_mode == 1)",
		"unsigned int baseDispatchSize[3] = { context->m_internal.texture_PingPong_size[0], context->m_internal.texture_PingPong_size[1], context->m_internal.texture_PingPong_size[2] };",
		"(baseDispatchSize[0] + 8 - 1) / 8,",
		"context->m_input.variable_radius = Pow2GE(context->m_input.variable_radius);",
		"context->m_input.variable_radius = (2) != 0 ? (context->m_input.variable_radius) / (2) : 0;",
		"context->m_input.variable_tint[2] = std::fmod(context->m_input.variable_tint[2], 1.0f);",
		"if (context->m_input.variable_frame > 10u)",
		"context->m_input.variable_enabled = context->m_input.variable_enabled != true;",
	} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, "int main(")
	assert.NotContains(t, src, "m_internal.texture_Input", "imported textures are not created")

	// Rules run before resources are ensured, in declaration order, and
	// "after" rules follow the last node.
	pow := strings.Index(src, "Pow2GE(context->m_input.variable_radius)")
	div := strings.Index(src, "/ (2) : 0;")
	ensure := strings.Index(src, "context->EnsureResourcesCreated(device, commandList);")
	dispatch := strings.LastIndex(src, "commandList->Dispatch(")
	frame := strings.Index(src, "variable_frame = context->m_input.variable_frame + 1u;")
	assert.True(t, pow < div && div < ensure && ensure < dispatch && dispatch < frame)

	// BlurH is initialized before BlurV.
	assert.Less(t, strings.Index(src, "// Compute Shader: BlurH"), strings.Index(src, "// Compute Shader: BlurV"))
}

func TestSource_ApplicationAddsEntryPoint(t *testing.T) {
	src := generate(t, flavor.DX12Application)

	assert.Contains(t, src, "// Box_Blur technique, generated for DX12_Application")
	assert.Contains(t, src, "int main(int argc, char** argv)")
	assert.Contains(t, src, "Box_Blur::Execute(context, app.Device(), app.CommandList());")
}

func TestSource_NotCompiled(t *testing.T) {
	_, err := NewGenerator(flavor.DX12Module).Source()
	assert.ErrorIs(t, err, ErrNotCompiled)

	err = NewGenerator(flavor.DX12Module).PreCompile(context.Background(), flavor.InterpreterInterpreter)
	assert.EqualError(t, err, "source generator cannot target flavor Interpreter_Interpreter")
}

func TestStatement(t *testing.T) {
	tests := []struct {
		name   string
		op     rendergraph.Operator
		scalar datatype.Scalar
		want   string
	}{
		{"int add", rendergraph.OpAdd, datatype.ScalarInt, "d = a + b;"},
		{"int divide is guarded", rendergraph.OpDivide, datatype.ScalarInt, "d = (b) != 0 ? (a) / (b) : 0;"},
		{"uint modulo is guarded", rendergraph.OpModulo, datatype.ScalarUint, "d = (b) != 0 ? (a) % (b) : 0;"},
		{"int not", rendergraph.OpBitwiseNot, datatype.ScalarInt, "d = ~a;"},
		{"uint16 pow2", rendergraph.OpPowerOf2GE, datatype.ScalarUint16, "d = Pow2GE(a);"},
		{"float divide", rendergraph.OpDivide, datatype.ScalarFloat, "d = a / b;"},
		{"float modulo", rendergraph.OpModulo, datatype.ScalarFloat, "d = std::fmod(a, b);"},
		{"float bitwise", rendergraph.OpBitwiseOr, datatype.ScalarFloat, ""},
		{"bool or", rendergraph.OpBitwiseOr, datatype.ScalarBool, "d = a || b;"},
		{"bool xor", rendergraph.OpBitwiseXor, datatype.ScalarBool, "d = a != b;"},
		{"bool not", rendergraph.OpBitwiseNot, datatype.ScalarBool, "d = !a;"},
		{"bool add", rendergraph.OpAdd, datatype.ScalarBool, ""},
		{"noop", rendergraph.OpNoop, datatype.ScalarFloat, "d = a;"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := statement(tc.op, tc.scalar, "d", "a", "b")
			assert.Equal(t, tc.want != "", ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCondition(t *testing.T) {
	g := &rendergraph.RenderGraph{
		Variables: []*rendergraph.Variable{
			{Name: "v", Type: datatype.Int2, EnumIndex: -1},
			{Name: "w", Type: datatype.Int2, EnumIndex: -1},
			{Name: "count", Type: datatype.Uint, EnumIndex: -1},
		},
	}
	gen := &Generator{graph: g}
	v := rendergraph.VariableRef{Name: "v", Index: 0}

	tests := []struct {
		name string
		cond rendergraph.Condition
		want string
	}{
		{"always", rendergraph.AlwaysTrue(), ""},
		{"forced false", rendergraph.Condition{AlwaysFalse: true}, "false"},
		{
			"literal per component",
			rendergraph.Condition{Variable1: v, Comparison: rendergraph.Equals, Variable2: rendergraph.Unbound(), Value2: "1, 2"},
			"(context->m_input.variable_v[0] == 1) && (context->m_input.variable_v[1] == 2)",
		},
		{
			"variable",
			rendergraph.Condition{Variable1: v, Comparison: rendergraph.LT, Variable2: rendergraph.VariableRef{Name: "w", Index: 1}},
			"(context->m_input.variable_v[0] < context->m_input.variable_w[0]) && (context->m_input.variable_v[1] < context->m_input.variable_w[1])",
		},
		{
			"is false",
			rendergraph.Condition{Variable1: rendergraph.VariableRef{Name: "count", Index: 2}, Comparison: rendergraph.IsFalse, Variable2: rendergraph.Unbound()},
			"context->m_input.variable_count == 0",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, gen.condition(scopeContext, tc.cond))
		})
	}
}

func TestLiterals(t *testing.T) {
	assert.Equal(t, []string{"1.0f", "0.5f", "0.0f"}, literalComponents("1, 0.5", datatype.ScalarFloat, 3))
	assert.Equal(t, []string{"-4"}, literalComponents("-4", datatype.ScalarInt, 1))
	assert.Equal(t, []string{"7u"}, literalComponents("7", datatype.ScalarUint, 1))
	assert.Equal(t, []string{"uint16_t(9)"}, literalComponents("9", datatype.ScalarUint16, 1))
	assert.Equal(t, []string{"true", "false"}, literalComponents("true false", datatype.ScalarBool, 2))
	assert.Equal(t, "1e+20f", floatLiteral(1e20))
	assert.Equal(t, "std::numeric_limits<float>::infinity()", floatLiteral(math32.Inf(1)))
}

func TestIdentifier(t *testing.T) {
	assert.Equal(t, "Box_Blur", identifier("Box Blur"))
	assert.Equal(t, "_3d", identifier("3d"))
	assert.Equal(t, "_", identifier(""))
}

func TestOperandComponents_MixedKinds(t *testing.T) {
	g := &rendergraph.RenderGraph{
		Variables: []*rendergraph.Variable{
			{Name: "count", Type: datatype.Int, EnumIndex: -1},
			{Name: "scale", Type: datatype.Float, EnumIndex: -1},
		},
	}
	gen := &Generator{graph: g}
	info := datatype.Float.Info()

	got := gen.operandComponents(rendergraph.VariableOperand("count", 0), info)
	assert.Equal(t, "(float)(context->m_input.variable_count)", got[0])

	got = gen.operandComponents(rendergraph.VariableOperand("scale", 1), info)
	assert.Equal(t, "context->m_input.variable_scale", got[0], "same kind needs no cast")
}
