package operator

import (
	"fmt"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/nodestate"
	"github.com/vk/rendergraph/internal/rendergraph"
	"github.com/vk/rendergraph/internal/variables"
)

// Runtime is the live state a rule is evaluated against.
type Runtime interface {
	Graph() *rendergraph.RenderGraph
	Variables() *variables.Table
	Nodes() *nodestate.Registry
}

// Execute applies sv to its destination variable. Rules whose destination
// is unbound are ignored. The caller is responsible for evaluating the
// rule's condition.
func Execute(rt Runtime, sv *rendergraph.SetVariable) {
	if !sv.Destination.Bound() {
		return
	}
	dest, err := rt.Variables().At(sv.Destination.Index)
	if err != nil {
		return
	}

	info := dest.Variable.Type.Info()
	a := resolveOperand(rt, sv.A, info)
	b := resolveOperand(rt, sv.B, info)
	d := dest.Storage.Value
	count := info.ComponentCount

	if sv.DestinationIndex >= 0 {
		count = 1
		d = component(d, sv.DestinationIndex, info.ScalarBytes)
	}
	if sv.A.Index >= 0 {
		count = 1
		a = component(a, sv.A.Index, info.ScalarBytes)
	}
	if sv.B.Index >= 0 {
		count = 1
		b = component(b, sv.B.Index, info.ScalarBytes)
	}

	Apply(sv.Op, info.Scalar, a, b, d, count)
}

// resolveOperand produces the bytes of one operand in the destination's
// scalar kind. The buffer is always large enough for the destination shape,
// a three component size, and the operand's own index override.
func resolveOperand(rt Runtime, op rendergraph.Operand, info datatype.TypeInfo) []byte {
	size := max(info.TypeBytes, 3*info.ScalarBytes, (op.Index+1)*info.ScalarBytes)
	buf := make([]byte, size)

	if text, count, ok := nodeOperand(rt, op.Node); ok {
		datatype.ParseInto(text, info.Scalar, count, buf)
		return buf
	}

	if !op.Var.Bound() {
		datatype.ParseInto(op.Literal, info.Scalar, info.ComponentCount, buf)
		return buf
	}

	src, err := rt.Variables().At(op.Var.Index)
	if err != nil {
		return buf
	}
	srcInfo := src.Variable.Type.Info()
	if srcInfo.Scalar != info.Scalar {
		if n := srcInfo.ComponentCount * info.ScalarBytes; n > len(buf) {
			buf = make([]byte, n)
		}
		datatype.Convert(srcInfo.Scalar, src.Storage.Value, info.Scalar, buf, srcInfo.ComponentCount)
		return buf
	}
	if len(src.Storage.Value) > len(buf) {
		buf = make([]byte, len(src.Storage.Value))
	}
	copy(buf, src.Storage.Value)
	return buf
}

// nodeOperand renders the size of a texture or the count of a buffer as
// text, along with its component count.
func nodeOperand(rt Runtime, ref rendergraph.NodeRef) (string, int, bool) {
	g := rt.Graph()
	if !ref.Bound() || g == nil || ref.Index >= len(g.Nodes) {
		return "", 0, false
	}
	switch n := g.Nodes[ref.Index].(type) {
	case *rendergraph.TextureNode:
		s := rt.Nodes().Textures.GetOrCreate(n.Name).Size
		return fmt.Sprintf("%d, %d, %d", s[0], s[1], s[2]), 3, true
	case *rendergraph.BufferNode:
		c := rt.Nodes().Buffers.GetOrCreate(n.Name).Count
		return fmt.Sprintf("%d", c), 1, true
	}
	return "", 0, false
}

func component(b []byte, index, scalarBytes int) []byte {
	off := index * scalarBytes
	if off >= len(b) {
		return nil
	}
	return b[off:]
}
