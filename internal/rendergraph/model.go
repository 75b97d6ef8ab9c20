package rendergraph

import (
	"context"
	"errors"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/flavor"
)

var (
	// ErrParse marks loader failures caused by malformed source text.
	ErrParse = errors.New("render graph parse error")
	// ErrValidation marks loader failures caused by an invalid graph.
	ErrValidation = errors.New("render graph validation error")
)

// Loader produces a validated RenderGraph from a source description.
type Loader interface {
	Load(ctx context.Context, source string, f flavor.Flavor) (*RenderGraph, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(ctx context.Context, source string, f flavor.Flavor) (*RenderGraph, error)

// Load implements Loader.
func (fn LoaderFunc) Load(ctx context.Context, source string, f flavor.Flavor) (*RenderGraph, error) {
	return fn(ctx, source, f)
}

// RenderGraph is the complete compiled description of a technique.
type RenderGraph struct {
	Name      string
	Variables []*Variable
	Enums     []*Enum
	Nodes     []Node
	// FlattenedNodeList holds every node index exactly once, producers first.
	FlattenedNodeList []int
	SetVars           []*SetVariable
}

// Variable is a named, typed value with a textual default.
type Variable struct {
	Name    string
	Type    datatype.DataFieldType
	Default string
	// EnumIndex points into RenderGraph.Enums, or -1.
	EnumIndex int
	Comment   string
}

// Enum is an ordered list of labels. A variable tagged with an enum stores
// the position of its label as an Int.
type Enum struct {
	OriginalName string
	Items        []string
}

// VariableRef is a by-name reference to a variable, resolved to an index.
type VariableRef struct {
	Name  string
	Index int
}

// Unbound returns a reference that points at nothing.
func Unbound() VariableRef {
	return VariableRef{Index: -1}
}

// Bound reports whether the reference resolves to a variable.
func (r VariableRef) Bound() bool {
	return r.Index >= 0
}

// NodeRef is a by-name reference to a node, resolved to an index.
type NodeRef struct {
	Name  string
	Index int
}

// NoNode returns a node reference that points at nothing.
func NoNode() NodeRef {
	return NodeRef{Index: -1}
}

// Bound reports whether the reference resolves to a node.
func (r NodeRef) Bound() bool {
	return r.Index >= 0
}

// VariableByName returns the variable with the given name and its index.
func (g *RenderGraph) VariableByName(name string) (*Variable, int) {
	for i, v := range g.Variables {
		if v.Name == name {
			return v, i
		}
	}
	return nil, -1
}

// NodeByName returns the node with the given name and its index.
func (g *RenderGraph) NodeByName(name string) (Node, int) {
	for i, n := range g.Nodes {
		if n.NodeName() == name {
			return n, i
		}
	}
	return nil, -1
}

// EnumOf returns the enum a variable is tagged with, if any.
func (g *RenderGraph) EnumOf(v *Variable) *Enum {
	if v == nil || v.EnumIndex < 0 || v.EnumIndex >= len(g.Enums) {
		return nil
	}
	return g.Enums[v.EnumIndex]
}
