package rendergraph

import "fmt"

// Kind discriminates the closed set of node variants.
type Kind int

const (
	KindTexture Kind = iota
	KindBuffer
	KindComputeShader
	KindDrawCall
	KindCopyResource
)

var kindNames = [...]string{
	KindTexture:       "Texture",
	KindBuffer:        "Buffer",
	KindComputeShader: "ComputeShader",
	KindDrawCall:      "DrawCall",
	KindCopyResource:  "CopyResource",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Node is implemented by every node variant.
type Node interface {
	NodeName() string
	Kind() Kind
	// References lists the names of every node this node depends on,
	// implicit resource references and explicit depends_on entries alike.
	References() []string
}

// Base carries the fields shared by every node variant.
type Base struct {
	Name      string
	DependsOn []string
}

// NodeName implements Node.
func (b *Base) NodeName() string { return b.Name }

func (b *Base) refs(extra ...NodeRef) []string {
	out := make([]string, 0, len(extra)+len(b.DependsOn))
	for _, r := range extra {
		if r.Name != "" {
			out = append(out, r.Name)
		}
	}
	return append(out, b.DependsOn...)
}

// SizeSource describes where a texture takes its size from. Exactly one of
// Node, Variable or Literal is used, in that order of preference. The base
// size is then transformed as ((base + PreAdd) * Multiply) / Divide + PostAdd.
type SizeSource struct {
	Literal  [3]uint32
	Variable VariableRef
	Node     NodeRef
	PreAdd   [3]int32
	Multiply [3]int32
	Divide   [3]int32
	PostAdd  [3]int32
}

// DefaultSizeSource returns a 1x1x1 size with identity transforms.
func DefaultSizeSource() SizeSource {
	return SizeSource{
		Literal:  [3]uint32{1, 1, 1},
		Variable: Unbound(),
		Node:     NoNode(),
		Multiply: [3]int32{1, 1, 1},
		Divide:   [3]int32{1, 1, 1},
	}
}

// TextureNode declares a texture resource.
type TextureNode struct {
	Base
	Format   string
	Size     SizeSource
	Imported bool
}

func (*TextureNode) Kind() Kind { return KindTexture }

func (n *TextureNode) References() []string { return n.refs(n.Size.Node) }

// CountSource describes where an element count comes from: another node,
// a variable, or a literal, in that order of preference.
type CountSource struct {
	Literal  uint32
	Variable VariableRef
	Node     NodeRef
}

// LiteralCount returns a count fixed to n.
func LiteralCount(n uint32) CountSource {
	return CountSource{Literal: n, Variable: Unbound(), Node: NoNode()}
}

// BufferNode declares a structured buffer resource.
type BufferNode struct {
	Base
	Count  CountSource
	Stride uint32
}

func (*BufferNode) Kind() Kind { return KindBuffer }

func (n *BufferNode) References() []string { return n.refs(n.Count.Node) }

// ComputeShaderNode dispatches a compute shader over a resource.
type ComputeShaderNode struct {
	Base
	Shader     string
	EntryPoint string
	Reads      []NodeRef
	Writes     []NodeRef
	// DispatchFrom names the resource whose size drives the dispatch.
	DispatchFrom NodeRef
	NumThreads   [3]uint32
	Condition    Condition
}

func (*ComputeShaderNode) Kind() Kind { return KindComputeShader }

func (n *ComputeShaderNode) References() []string {
	all := append(append([]NodeRef{}, n.Reads...), n.Writes...)
	return n.refs(append(all, n.DispatchFrom)...)
}

// DrawCallNode rasterizes a vertex buffer into render targets.
type DrawCallNode struct {
	Base
	VertexShader  string
	PixelShader   string
	Vertices      NodeRef
	VertexCount   CountSource
	RenderTargets []NodeRef
	DepthTarget   NodeRef
	Condition     Condition
}

func (*DrawCallNode) Kind() Kind { return KindDrawCall }

func (n *DrawCallNode) References() []string {
	all := append([]NodeRef{n.Vertices, n.VertexCount.Node}, n.RenderTargets...)
	return n.refs(append(all, n.DepthTarget)...)
}

// CopyResourceNode copies one resource into another of the same kind.
type CopyResourceNode struct {
	Base
	Source    NodeRef
	Dest      NodeRef
	Condition Condition
}

func (*CopyResourceNode) Kind() Kind { return KindCopyResource }

func (n *CopyResourceNode) References() []string { return n.refs(n.Source, n.Dest) }

// NodeCondition returns the condition guarding n, or an always-true
// condition for kinds that carry none.
func NodeCondition(n Node) Condition {
	switch v := n.(type) {
	case *ComputeShaderNode:
		return v.Condition
	case *DrawCallNode:
		return v.Condition
	case *CopyResourceNode:
		return v.Condition
	default:
		return AlwaysTrue()
	}
}
