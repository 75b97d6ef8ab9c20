package hclgraph

import (
	"github.com/hashicorp/hcl/v2"
)

const (
	blockEnum          = "enum"
	blockVariable      = "variable"
	blockTexture       = "texture"
	blockBuffer        = "buffer"
	blockComputeShader = "compute_shader"
	blockDrawCall      = "draw_call"
	blockCopyResource  = "copy_resource"
	blockSetVariable   = "set_variable"
)

var rootSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: blockEnum, LabelNames: []string{"name"}},
		{Type: blockVariable, LabelNames: []string{"name"}},
		{Type: blockTexture, LabelNames: []string{"name"}},
		{Type: blockBuffer, LabelNames: []string{"name"}},
		{Type: blockComputeShader, LabelNames: []string{"name"}},
		{Type: blockDrawCall, LabelNames: []string{"name"}},
		{Type: blockCopyResource, LabelNames: []string{"name"}},
		{Type: blockSetVariable, LabelNames: []string{"destination"}},
	},
}

type enumBlock struct {
	Items []string `hcl:"items"`
}

type variableBlock struct {
	Type    string         `hcl:"type"`
	Default hcl.Expression `hcl:"default,optional"`
	Enum    string         `hcl:"enum,optional"`
	Comment string         `hcl:"comment,optional"`
}

type textureBlock struct {
	Format           string   `hcl:"format,optional"`
	Size             []int    `hcl:"size,optional"`
	SizeFromVariable string   `hcl:"size_from_variable,optional"`
	SizeFromNode     string   `hcl:"size_from_node,optional"`
	PreAdd           []int    `hcl:"pre_add,optional"`
	Multiply         []int    `hcl:"multiply,optional"`
	Divide           []int    `hcl:"divide,optional"`
	PostAdd          []int    `hcl:"post_add,optional"`
	Imported         bool     `hcl:"imported,optional"`
	DependsOn        []string `hcl:"depends_on,optional"`
}

type bufferBlock struct {
	Count             int      `hcl:"count,optional"`
	CountFromVariable string   `hcl:"count_from_variable,optional"`
	CountFromNode     string   `hcl:"count_from_node,optional"`
	Stride            int      `hcl:"stride,optional"`
	DependsOn         []string `hcl:"depends_on,optional"`
}

type computeShaderBlock struct {
	Shader       string          `hcl:"shader"`
	EntryPoint   string          `hcl:"entry_point,optional"`
	Reads        []string        `hcl:"reads,optional"`
	Writes       []string        `hcl:"writes,optional"`
	DispatchFrom string          `hcl:"dispatch_from,optional"`
	NumThreads   []int           `hcl:"num_threads,optional"`
	Condition    *conditionBlock `hcl:"condition,block"`
	DependsOn    []string        `hcl:"depends_on,optional"`
}

type drawCallBlock struct {
	VertexShader            string          `hcl:"vertex_shader"`
	PixelShader             string          `hcl:"pixel_shader"`
	Vertices                string          `hcl:"vertices,optional"`
	VertexCount             int             `hcl:"vertex_count,optional"`
	VertexCountFromVariable string          `hcl:"vertex_count_from_variable,optional"`
	RenderTargets           []string        `hcl:"render_targets,optional"`
	DepthTarget             string          `hcl:"depth_target,optional"`
	Condition               *conditionBlock `hcl:"condition,block"`
	DependsOn               []string        `hcl:"depends_on,optional"`
}

type copyResourceBlock struct {
	Source    string          `hcl:"source"`
	Dest      string          `hcl:"dest"`
	Condition *conditionBlock `hcl:"condition,block"`
	DependsOn []string        `hcl:"depends_on,optional"`
}

type setVariableBlock struct {
	Op               string          `hcl:"op,optional"`
	DestinationIndex *int            `hcl:"destination_index,optional"`
	SetBefore        *bool           `hcl:"set_before,optional"`
	A                *operandBlock   `hcl:"a,block"`
	B                *operandBlock   `hcl:"b,block"`
	Condition        *conditionBlock `hcl:"condition,block"`
}

type operandBlock struct {
	Literal  hcl.Expression `hcl:"literal,optional"`
	Variable string         `hcl:"variable,optional"`
	Node     string         `hcl:"node,optional"`
	Index    *int           `hcl:"index,optional"`
}

type conditionBlock struct {
	Variable1   string         `hcl:"variable1,optional"`
	Comparison  string         `hcl:"comparison,optional"`
	Variable2   string         `hcl:"variable2,optional"`
	Value2      hcl.Expression `hcl:"value2,optional"`
	AlwaysFalse bool           `hcl:"always_false,optional"`
}
