package hclgraph

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/rendergraph/internal/dag"
	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/rendergraph"
	"github.com/vk/rendergraph/internal/variables"
)

type declaredNode struct {
	index int
	kind  rendergraph.Kind
}

// builder translates decoded blocks into a graph, collecting every problem
// instead of stopping at the first.
type builder struct {
	graph *rendergraph.RenderGraph
	errs  []string

	enums map[string]int
	vars  map[string]int
	nodes map[string]declaredNode
}

func newBuilder() *builder {
	return &builder{
		graph: &rendergraph.RenderGraph{},
		enums: make(map[string]int),
		vars:  make(map[string]int),
		nodes: make(map[string]declaredNode),
	}
}

func (b *builder) errorf(rng hcl.Range, format string, args ...any) {
	b.errs = append(b.errs, fmt.Sprintf("%s: %s", rng.String(), fmt.Sprintf(format, args...)))
}

// declare registers every name so references may point forward.
func (b *builder) declare(blocks []decodedBlock) {
	for _, blk := range blocks {
		if blk.typ != blockEnum {
			continue
		}
		eb := blk.value.(*enumBlock)
		if _, dup := b.enums[blk.name]; dup {
			b.errorf(blk.rng, "duplicate enum %q", blk.name)
			continue
		}
		if len(eb.Items) == 0 {
			b.errorf(blk.rng, "enum %q has no items", blk.name)
		}
		seen := make(map[string]bool, len(eb.Items))
		for _, item := range eb.Items {
			if seen[item] {
				b.errorf(blk.rng, "enum %q lists %q twice", blk.name, item)
			}
			seen[item] = true
		}
		b.enums[blk.name] = len(b.graph.Enums)
		b.graph.Enums = append(b.graph.Enums, &rendergraph.Enum{OriginalName: blk.name, Items: eb.Items})
	}

	for _, blk := range blocks {
		if blk.typ != blockVariable {
			continue
		}
		if _, dup := b.vars[blk.name]; dup {
			b.errorf(blk.rng, "duplicate variable %q", blk.name)
			continue
		}
		b.vars[blk.name] = len(b.graph.Variables)
		b.graph.Variables = append(b.graph.Variables, b.variable(blk))
	}

	count := 0
	for _, blk := range blocks {
		kind, ok := nodeKind(blk.typ)
		if !ok {
			continue
		}
		if prev, dup := b.nodes[blk.name]; dup {
			b.errorf(blk.rng, "duplicate node %q (already declared as %s)", blk.name, prev.kind)
			continue
		}
		b.nodes[blk.name] = declaredNode{index: count, kind: kind}
		count++
	}
}

func nodeKind(blockType string) (rendergraph.Kind, bool) {
	switch blockType {
	case blockTexture:
		return rendergraph.KindTexture, true
	case blockBuffer:
		return rendergraph.KindBuffer, true
	case blockComputeShader:
		return rendergraph.KindComputeShader, true
	case blockDrawCall:
		return rendergraph.KindDrawCall, true
	case blockCopyResource:
		return rendergraph.KindCopyResource, true
	}
	return 0, false
}

func (b *builder) variable(blk decodedBlock) *rendergraph.Variable {
	vb := blk.value.(*variableBlock)
	v := &rendergraph.Variable{Name: blk.name, EnumIndex: -1, Comment: vb.Comment}

	t, err := datatype.ParseType(vb.Type)
	if err != nil {
		b.errorf(blk.rng, "variable %q: %v", blk.name, err)
		t = datatype.Int
	}
	v.Type = t
	v.Default = b.literal(blk.rng, fmt.Sprintf("variable %q default", blk.name), vb.Default)

	if vb.Enum != "" {
		idx, ok := b.enums[vb.Enum]
		switch {
		case !ok:
			b.errorf(blk.rng, "variable %q references unknown enum %q", blk.name, vb.Enum)
		case t != datatype.Int:
			b.errorf(blk.rng, "variable %q: enum variables must have type Int, got %s", blk.name, t)
		default:
			v.EnumIndex = idx
			if label := variables.LabelToIndex(b.graph.Enums[idx], v.Default); label >= 0 {
				v.Default = strconv.Itoa(label)
			}
		}
	}
	return v
}

// translate builds nodes and rules in source order.
func (b *builder) translate(blocks []decodedBlock) {
	for _, blk := range blocks {
		if cur, ok := b.nodes[blk.name]; ok {
			if _, isNode := nodeKind(blk.typ); isNode && cur.index != len(b.graph.Nodes) {
				// A duplicate; the first declaration won.
				continue
			}
		}
		var n rendergraph.Node
		switch v := blk.value.(type) {
		case *textureBlock:
			n = b.texture(blk, v)
		case *bufferBlock:
			n = b.buffer(blk, v)
		case *computeShaderBlock:
			n = b.computeShader(blk, v)
		case *drawCallBlock:
			n = b.drawCall(blk, v)
		case *copyResourceBlock:
			n = b.copyResource(blk, v)
		case *setVariableBlock:
			b.graph.SetVars = append(b.graph.SetVars, b.setVariable(blk, v))
		}
		if n != nil {
			b.graph.Nodes = append(b.graph.Nodes, n)
		}
	}
}

func (b *builder) base(blk decodedBlock, dependsOn []string) rendergraph.Base {
	for _, dep := range dependsOn {
		if _, ok := b.nodes[dep]; !ok {
			b.errorf(blk.rng, "%s %q depends on unknown node %q", blk.typ, blk.name, dep)
		}
	}
	return rendergraph.Base{Name: blk.name, DependsOn: dependsOn}
}

func (b *builder) texture(blk decodedBlock, tb *textureBlock) *rendergraph.TextureNode {
	n := &rendergraph.TextureNode{
		Base:     b.base(blk, tb.DependsOn),
		Format:   tb.Format,
		Size:     rendergraph.DefaultSizeSource(),
		Imported: tb.Imported,
	}
	if n.Format == "" {
		n.Format = "RGBA8_Unorm"
	}

	sources := 0
	if len(tb.Size) > 0 {
		sources++
		for i, c := range b.vec3(blk, "size", tb.Size, 1) {
			if c < 0 {
				b.errorf(blk.rng, "texture %q: size components must not be negative", blk.name)
			}
			n.Size.Literal[i] = uint32(c)
		}
	}
	if tb.SizeFromVariable != "" {
		sources++
		n.Size.Variable = b.varRef(blk, "size_from_variable", tb.SizeFromVariable)
	}
	if tb.SizeFromNode != "" {
		sources++
		n.Size.Node = b.nodeRef(blk, "size_from_node", tb.SizeFromNode, rendergraph.KindTexture)
	}
	if sources > 1 {
		b.errorf(blk.rng, "texture %q: only one of size, size_from_variable and size_from_node may be set", blk.name)
	}

	n.Size.PreAdd = b.vec3(blk, "pre_add", tb.PreAdd, 0)
	n.Size.Multiply = b.vec3(blk, "multiply", tb.Multiply, 1)
	n.Size.Divide = b.vec3(blk, "divide", tb.Divide, 1)
	n.Size.PostAdd = b.vec3(blk, "post_add", tb.PostAdd, 0)
	for _, d := range n.Size.Divide {
		if d == 0 {
			b.errorf(blk.rng, "texture %q: divide components must not be zero", blk.name)
			break
		}
	}
	return n
}

func (b *builder) vec3(blk decodedBlock, field string, in []int, fill int32) [3]int32 {
	out := [3]int32{fill, fill, fill}
	if len(in) > 3 {
		b.errorf(blk.rng, "%s %q: %s takes at most 3 components, got %d", blk.typ, blk.name, field, len(in))
	}
	for i := 0; i < len(in) && i < 3; i++ {
		out[i] = int32(in[i])
	}
	return out
}

func (b *builder) buffer(blk decodedBlock, bb *bufferBlock) *rendergraph.BufferNode {
	n := &rendergraph.BufferNode{
		Base:   b.base(blk, bb.DependsOn),
		Count:  rendergraph.LiteralCount(uint32(max(bb.Count, 0))),
		Stride: uint32(max(bb.Stride, 0)),
	}
	if bb.Count < 0 {
		b.errorf(blk.rng, "buffer %q: count must not be negative", blk.name)
	}
	if bb.Stride < 0 {
		b.errorf(blk.rng, "buffer %q: stride must not be negative", blk.name)
	}
	if n.Stride == 0 {
		n.Stride = 4
	}
	if bb.CountFromVariable != "" && bb.CountFromNode != "" {
		b.errorf(blk.rng, "buffer %q: only one of count_from_variable and count_from_node may be set", blk.name)
	}
	n.Count.Variable = b.varRef(blk, "count_from_variable", bb.CountFromVariable)
	n.Count.Node = b.nodeRef(blk, "count_from_node", bb.CountFromNode, rendergraph.KindBuffer)
	return n
}

func (b *builder) computeShader(blk decodedBlock, cb *computeShaderBlock) *rendergraph.ComputeShaderNode {
	n := &rendergraph.ComputeShaderNode{
		Base:         b.base(blk, cb.DependsOn),
		Shader:       cb.Shader,
		EntryPoint:   cb.EntryPoint,
		DispatchFrom: rendergraph.NoNode(),
		NumThreads:   [3]uint32{8, 8, 1},
		Condition:    b.condition(blk, cb.Condition),
	}
	if n.EntryPoint == "" {
		n.EntryPoint = "main"
	}
	for _, name := range cb.Reads {
		n.Reads = append(n.Reads, b.nodeRef(blk, "reads", name, rendergraph.KindTexture, rendergraph.KindBuffer))
	}
	for _, name := range cb.Writes {
		n.Writes = append(n.Writes, b.nodeRef(blk, "writes", name, rendergraph.KindTexture, rendergraph.KindBuffer))
	}
	switch {
	case cb.DispatchFrom != "":
		n.DispatchFrom = b.nodeRef(blk, "dispatch_from", cb.DispatchFrom, rendergraph.KindTexture, rendergraph.KindBuffer)
	case len(n.Writes) > 0:
		n.DispatchFrom = n.Writes[0]
	}
	if len(cb.NumThreads) > 0 {
		for i, c := range b.vec3(blk, "num_threads", cb.NumThreads, 1) {
			if c <= 0 {
				b.errorf(blk.rng, "compute_shader %q: num_threads components must be positive", blk.name)
				break
			}
			n.NumThreads[i] = uint32(c)
		}
	}
	return n
}

func (b *builder) drawCall(blk decodedBlock, db *drawCallBlock) *rendergraph.DrawCallNode {
	n := &rendergraph.DrawCallNode{
		Base:         b.base(blk, db.DependsOn),
		VertexShader: db.VertexShader,
		PixelShader:  db.PixelShader,
		Vertices:     b.nodeRef(blk, "vertices", db.Vertices, rendergraph.KindBuffer),
		VertexCount:  rendergraph.LiteralCount(uint32(max(db.VertexCount, 0))),
		DepthTarget:  b.nodeRef(blk, "depth_target", db.DepthTarget, rendergraph.KindTexture),
		Condition:    b.condition(blk, db.Condition),
	}
	if db.VertexCount < 0 {
		b.errorf(blk.rng, "draw_call %q: vertex_count must not be negative", blk.name)
	}
	n.VertexCount.Variable = b.varRef(blk, "vertex_count_from_variable", db.VertexCountFromVariable)
	if db.VertexCount == 0 && db.VertexCountFromVariable == "" {
		n.VertexCount.Node = n.Vertices
	}
	for _, name := range db.RenderTargets {
		n.RenderTargets = append(n.RenderTargets, b.nodeRef(blk, "render_targets", name, rendergraph.KindTexture))
	}
	if len(db.RenderTargets) == 0 && db.DepthTarget == "" {
		b.errorf(blk.rng, "draw_call %q: needs at least one render target or a depth target", blk.name)
	}
	return n
}

func (b *builder) copyResource(blk decodedBlock, cb *copyResourceBlock) *rendergraph.CopyResourceNode {
	n := &rendergraph.CopyResourceNode{
		Base:      b.base(blk, cb.DependsOn),
		Source:    b.nodeRef(blk, "source", cb.Source, rendergraph.KindTexture, rendergraph.KindBuffer),
		Dest:      b.nodeRef(blk, "dest", cb.Dest, rendergraph.KindTexture, rendergraph.KindBuffer),
		Condition: b.condition(blk, cb.Condition),
	}
	if n.Source.Bound() && n.Dest.Bound() {
		src, dst := b.nodes[cb.Source].kind, b.nodes[cb.Dest].kind
		if src != dst {
			b.errorf(blk.rng, "copy_resource %q: cannot copy a %s into a %s", blk.name, src, dst)
		}
	}
	if cb.Source == cb.Dest {
		b.errorf(blk.rng, "copy_resource %q: source and dest are the same node", blk.name)
	}
	return n
}

func (b *builder) setVariable(blk decodedBlock, sb *setVariableBlock) *rendergraph.SetVariable {
	owner := fmt.Sprintf("set_variable %q", blk.name)
	sv := &rendergraph.SetVariable{
		Destination:      b.varRef(blk, "destination", blk.name),
		DestinationIndex: -1,
		Op:               rendergraph.OpNoop,
		Condition:        b.condition(blk, sb.Condition),
		SetBefore:        true,
	}
	if sb.SetBefore != nil {
		sv.SetBefore = *sb.SetBefore
	}
	if sb.Op != "" {
		op, err := rendergraph.ParseOperator(sb.Op)
		if err != nil {
			b.errorf(blk.rng, "%s: %v", owner, err)
		}
		sv.Op = op
	}

	var dest *rendergraph.Variable
	if sv.Destination.Bound() {
		dest = b.graph.Variables[sv.Destination.Index]
	}
	if dest != nil {
		info := dest.Type.Info()
		if info.Scalar == datatype.ScalarFloat && isBitwise(sv.Op) {
			b.errorf(blk.rng, "%s: operator %s is not defined for %s variables", owner, sv.Op, dest.Type)
		}
		if sb.DestinationIndex != nil {
			sv.DestinationIndex = *sb.DestinationIndex
			if sv.DestinationIndex < 0 || sv.DestinationIndex >= info.ComponentCount {
				b.errorf(blk.rng, "%s: destination_index %d is out of range for %s", owner, sv.DestinationIndex, dest.Type)
			}
		}
	}

	sv.A = b.operand(blk, owner+" a", sb.A, dest)
	sv.B = b.operand(blk, owner+" b", sb.B, dest)
	return sv
}

func isBitwise(op rendergraph.Operator) bool {
	switch op {
	case rendergraph.OpBitwiseOr, rendergraph.OpBitwiseAnd, rendergraph.OpBitwiseXor, rendergraph.OpBitwiseNot:
		return true
	}
	return false
}

func (b *builder) operand(blk decodedBlock, owner string, ob *operandBlock, dest *rendergraph.Variable) rendergraph.Operand {
	op := rendergraph.LiteralOperand("")
	if ob == nil {
		return op
	}
	op.Literal = b.literal(blk.rng, owner+" literal", ob.Literal)
	op.Var = b.varRef(blk, "variable", ob.Variable)
	op.Node = b.nodeRef(blk, "node", ob.Node, rendergraph.KindTexture, rendergraph.KindBuffer)

	if ob.Variable != "" && op.Literal != "" {
		b.errorf(blk.rng, "%s: only one of literal and variable may be set", owner)
	}
	if ob.Index == nil {
		return op
	}

	op.Index = *ob.Index
	limit := -1
	switch {
	case op.Node.Bound():
		limit = 1
		if b.nodes[ob.Node].kind == rendergraph.KindTexture {
			limit = 3
		}
	case op.Var.Bound():
		limit = b.graph.Variables[op.Var.Index].Type.Info().ComponentCount
	case dest != nil:
		limit = dest.Type.Info().ComponentCount
	}
	if limit >= 0 && (op.Index < 0 || op.Index >= limit) {
		b.errorf(blk.rng, "%s: index %d is out of range (%d components)", owner, op.Index, limit)
	}
	return op
}

func (b *builder) condition(blk decodedBlock, cb *conditionBlock) rendergraph.Condition {
	c := rendergraph.AlwaysTrue()
	if cb == nil {
		return c
	}
	owner := fmt.Sprintf("%s %q condition", blk.typ, blk.name)

	cmp, err := rendergraph.ParseComparison(cb.Comparison)
	if err != nil {
		b.errorf(blk.rng, "%s: %v", owner, err)
	}
	c.Comparison = cmp
	c.AlwaysFalse = cb.AlwaysFalse
	c.Variable1 = b.varRef(blk, "variable1", cb.Variable1)
	c.Variable2 = b.varRef(blk, "variable2", cb.Variable2)
	c.Value2 = b.literal(blk.rng, owner+" value2", cb.Value2)

	if cb.Variable2 != "" && c.Value2 != "" {
		b.errorf(blk.rng, "%s: only one of variable2 and value2 may be set", owner)
	}
	if c.Variable1.Bound() && c.Variable2.Bound() {
		t1 := b.graph.Variables[c.Variable1.Index].Type
		t2 := b.graph.Variables[c.Variable2.Index].Type
		if t1 != t2 {
			b.errorf(blk.rng, "%s: cannot compare %s with %s", owner, t1, t2)
		}
	}
	return c
}

func (b *builder) varRef(blk decodedBlock, field, name string) rendergraph.VariableRef {
	if name == "" {
		return rendergraph.Unbound()
	}
	idx, ok := b.vars[name]
	if !ok {
		b.errorf(blk.rng, "%s %q: %s references unknown variable %q", blk.typ, blk.name, field, name)
		return rendergraph.VariableRef{Name: name, Index: -1}
	}
	return rendergraph.VariableRef{Name: name, Index: idx}
}

func (b *builder) nodeRef(blk decodedBlock, field, name string, kinds ...rendergraph.Kind) rendergraph.NodeRef {
	if name == "" {
		return rendergraph.NoNode()
	}
	d, ok := b.nodes[name]
	if !ok {
		b.errorf(blk.rng, "%s %q: %s references unknown node %q", blk.typ, blk.name, field, name)
		return rendergraph.NodeRef{Name: name, Index: -1}
	}
	for _, k := range kinds {
		if d.kind == k {
			return rendergraph.NodeRef{Name: name, Index: d.index}
		}
	}
	b.errorf(blk.rng, "%s %q: %s must reference a %s, %q is a %s", blk.typ, blk.name, field, kindList(kinds), name, d.kind)
	return rendergraph.NodeRef{Name: name, Index: -1}
}

func kindList(kinds []rendergraph.Kind) string {
	s := ""
	for i, k := range kinds {
		if i > 0 {
			s += " or "
		}
		s += k.String()
	}
	return s
}

func (b *builder) literal(rng hcl.Range, what string, expr hcl.Expression) string {
	if expr == nil {
		return ""
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		b.errorf(rng, "%s: %s", what, diags.Error())
		return ""
	}
	text, err := literalText(v)
	if err != nil {
		b.errorf(rng, "%s: %v", what, err)
		return ""
	}
	return text
}

// order derives FlattenedNodeList from resource references and depends_on.
func (b *builder) order() {
	if len(b.errs) > 0 {
		return
	}
	g := dag.New()
	for _, n := range b.graph.Nodes {
		g.AddNode(n.NodeName())
	}
	for _, n := range b.graph.Nodes {
		for _, ref := range n.References() {
			if err := g.AddEdge(ref, n.NodeName()); err != nil {
				b.errs = append(b.errs, fmt.Sprintf("%s %q: %v", n.Kind(), n.NodeName(), err))
			}
		}
	}
	if len(b.errs) > 0 {
		return
	}
	if err := g.DetectCycles(); err != nil {
		b.errs = append(b.errs, fmt.Sprintf("nodes depend on each other: %v", err))
		return
	}

	names, err := g.TopologicalOrder()
	if err != nil {
		b.errs = append(b.errs, err.Error())
		return
	}
	b.graph.FlattenedNodeList = make([]int, len(names))
	for i, name := range names {
		b.graph.FlattenedNodeList[i] = b.nodes[name].index
	}
}
