package codegen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/chewxy/math32"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/rendergraph"
	"github.com/vk/rendergraph/internal/variables"
)

var cppTypes = [datatype.Count]string{
	datatype.Int:      "int",
	datatype.Int2:     "int2",
	datatype.Int3:     "int3",
	datatype.Int4:     "int4",
	datatype.Uint:     "unsigned int",
	datatype.Uint2:    "uint2",
	datatype.Uint3:    "uint3",
	datatype.Uint4:    "uint4",
	datatype.Float:    "float",
	datatype.Float2:   "float2",
	datatype.Float3:   "float3",
	datatype.Float4:   "float4",
	datatype.Bool:     "bool",
	datatype.Float4x4: "float4x4",
	datatype.Uint16:   "uint16_t",
}

var scalarTypes = map[datatype.Scalar]string{
	datatype.ScalarInt:    "int",
	datatype.ScalarUint:   "unsigned int",
	datatype.ScalarUint16: "uint16_t",
	datatype.ScalarFloat:  "float",
	datatype.ScalarBool:   "bool",
}

// identifier maps a graph name to a valid C++ identifier.
func identifier(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteRune('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

// Scopes for member access: inside Context methods and in free functions
// taking a Context pointer.
const (
	scopeMember  = ""
	scopeContext = "context->"
)

func variableExpr(scope, name string) string {
	return scope + "m_input.variable_" + identifier(name)
}

func textureExpr(scope string, n *rendergraph.TextureNode) string {
	if n.Imported {
		return scope + "m_input.texture_" + identifier(n.Name)
	}
	return scope + "m_internal.texture_" + identifier(n.Name)
}

func bufferExpr(scope string, n *rendergraph.BufferNode) string {
	return scope + "m_internal.buffer_" + identifier(n.Name)
}

// resourceExpr names the resource behind a texture or buffer node.
func resourceExpr(scope string, n rendergraph.Node) string {
	switch v := n.(type) {
	case *rendergraph.TextureNode:
		return textureExpr(scope, v)
	case *rendergraph.BufferNode:
		return bufferExpr(scope, v)
	}
	return "nullptr"
}

// component selects component i of a value with count components.
func component(expr string, count, i int) string {
	if count <= 1 {
		return expr
	}
	return fmt.Sprintf("%s[%d]", expr, i)
}

func cast(s datatype.Scalar, expr string) string {
	return fmt.Sprintf("(%s)(%s)", scalarTypes[s], expr)
}

// literalComponents renders text as count literals of kind s, decoded the
// same way the interpreter decodes it.
func literalComponents(text string, s datatype.Scalar, count int) []string {
	buf := make([]byte, count*s.Bytes())
	datatype.ParseInto(text, s, count, buf)
	out := make([]string, count)
	for i := range out {
		out[i] = scalarLiteral(s, buf, i)
	}
	return out
}

func zeroLiteral(s datatype.Scalar) string {
	return scalarLiteral(s, make([]byte, 4), 0)
}

func scalarLiteral(s datatype.Scalar, b []byte, i int) string {
	switch s {
	case datatype.ScalarInt:
		return strconv.FormatInt(int64(datatype.Load[int32](b, i)), 10)
	case datatype.ScalarUint:
		return strconv.FormatUint(uint64(datatype.Load[uint32](b, i)), 10) + "u"
	case datatype.ScalarUint16:
		return "uint16_t(" + strconv.FormatUint(uint64(datatype.Load[uint16](b, i)), 10) + ")"
	case datatype.ScalarFloat:
		return floatLiteral(datatype.Load[float32](b, i))
	case datatype.ScalarBool:
		return strconv.FormatBool(datatype.LoadBool(b, i))
	}
	return "0"
}

func floatLiteral(f float32) string {
	switch {
	case math32.IsNaN(f):
		return "std::numeric_limits<float>::quiet_NaN()"
	case math32.IsInf(f, 1):
		return "std::numeric_limits<float>::infinity()"
	case math32.IsInf(f, -1):
		return "-std::numeric_limits<float>::infinity()"
	}
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s + "f"
}

// operandComponents renders op as one expression per component, in the
// destination's scalar kind. Components the operand does not provide are
// zero.
func (g *Generator) operandComponents(op rendergraph.Operand, info datatype.TypeInfo) []string {
	out := make([]string, max(info.ComponentCount, 3, op.Index+1))
	zero := zeroLiteral(info.Scalar)
	for i := range out {
		out[i] = zero
	}

	switch {
	case op.Node.Bound():
		switch n := g.graph.Nodes[op.Node.Index].(type) {
		case *rendergraph.TextureNode:
			for i := 0; i < 3; i++ {
				out[i] = cast(info.Scalar, fmt.Sprintf("%s_size[%d]", textureExpr(scopeContext, n), i))
			}
		case *rendergraph.BufferNode:
			out[0] = cast(info.Scalar, bufferExpr(scopeContext, n)+"_count")
		}
	case !op.Var.Bound():
		copy(out, literalComponents(op.Literal, info.Scalar, info.ComponentCount))
	default:
		v := g.graph.Variables[op.Var.Index]
		vi := v.Type.Info()
		for i := 0; i < vi.ComponentCount && i < len(out); i++ {
			out[i] = component(variableExpr(scopeContext, v.Name), vi.ComponentCount, i)
			if vi.Scalar != info.Scalar {
				out[i] = cast(info.Scalar, out[i])
			}
		}
	}
	return out
}

// statement renders one component of a rule. It reports false when the
// operator has no effect on the scalar kind.
func statement(op rendergraph.Operator, s datatype.Scalar, d, a, b string) (string, bool) {
	if s == datatype.ScalarBool {
		switch op {
		case rendergraph.OpBitwiseOr:
			return fmt.Sprintf("%s = %s || %s;", d, a, b), true
		case rendergraph.OpBitwiseAnd:
			return fmt.Sprintf("%s = %s && %s;", d, a, b), true
		case rendergraph.OpBitwiseXor:
			return fmt.Sprintf("%s = %s != %s;", d, a, b), true
		case rendergraph.OpBitwiseNot:
			return fmt.Sprintf("%s = !%s;", d, a), true
		case rendergraph.OpNoop:
			return fmt.Sprintf("%s = %s;", d, a), true
		}
		return "", false
	}

	switch op {
	case rendergraph.OpAdd:
		return fmt.Sprintf("%s = %s + %s;", d, a, b), true
	case rendergraph.OpSubtract:
		return fmt.Sprintf("%s = %s - %s;", d, a, b), true
	case rendergraph.OpMultiply:
		return fmt.Sprintf("%s = %s * %s;", d, a, b), true
	case rendergraph.OpPowerOf2GE:
		return fmt.Sprintf("%s = Pow2GE(%s);", d, a), true
	case rendergraph.OpNoop:
		return fmt.Sprintf("%s = %s;", d, a), true
	}

	if s == datatype.ScalarFloat {
		switch op {
		case rendergraph.OpDivide:
			return fmt.Sprintf("%s = %s / %s;", d, a, b), true
		case rendergraph.OpModulo:
			return fmt.Sprintf("%s = std::fmod(%s, %s);", d, a, b), true
		}
		return "", false
	}

	switch op {
	case rendergraph.OpDivide:
		return fmt.Sprintf("%s = (%s) != 0 ? (%s) / (%s) : 0;", d, b, a, b), true
	case rendergraph.OpModulo:
		return fmt.Sprintf("%s = (%s) != 0 ? (%s) %% (%s) : 0;", d, b, a, b), true
	case rendergraph.OpBitwiseOr:
		return fmt.Sprintf("%s = %s | %s;", d, a, b), true
	case rendergraph.OpBitwiseAnd:
		return fmt.Sprintf("%s = %s & %s;", d, a, b), true
	case rendergraph.OpBitwiseXor:
		return fmt.Sprintf("%s = %s ^ %s;", d, a, b), true
	case rendergraph.OpBitwiseNot:
		return fmt.Sprintf("%s = ~%s;", d, a), true
	}
	return "", false
}

// setVariable renders the statements of sv, or nothing when the rule has no
// effect.
func (g *Generator) setVariable(w *writer, sv *rendergraph.SetVariable) {
	if !sv.Destination.Bound() {
		return
	}
	dest := g.graph.Variables[sv.Destination.Index]
	info := dest.Type.Info()
	a := g.operandComponents(sv.A, info)
	b := g.operandComponents(sv.B, info)

	count := info.ComponentCount
	di, ai, bi := 0, 0, 0
	if sv.DestinationIndex >= 0 {
		count, di = 1, sv.DestinationIndex
	}
	if sv.A.Index >= 0 {
		count, ai = 1, sv.A.Index
	}
	if sv.B.Index >= 0 {
		count, bi = 1, sv.B.Index
	}

	var stmts []string
	for i := 0; i < count; i++ {
		d := component(variableExpr(scopeContext, dest.Name), info.ComponentCount, di+i)
		if s, ok := statement(sv.Op, info.Scalar, d, a[ai+i], b[bi+i]); ok {
			stmts = append(stmts, s)
		}
	}
	if len(stmts) == 0 {
		return
	}

	w.line("// Set variable %s: %s", dest.Name, sv.Op)
	w.block(g.condition(scopeContext, sv.Condition), func() {
		for _, s := range stmts {
			w.line("%s", s)
		}
	})
}

// condition renders c as a boolean expression. The empty string means the
// condition always holds.
func (g *Generator) condition(scope string, c rendergraph.Condition) string {
	if c.AlwaysFalse {
		return "false"
	}
	if !c.Variable1.Bound() || c.Comparison == rendergraph.Always {
		return ""
	}
	v1 := g.graph.Variables[c.Variable1.Index]
	info := v1.Type.Info()
	count := info.ComponentCount

	right := make([]string, count)
	for i := range right {
		right[i] = zeroLiteral(info.Scalar)
	}
	enum := g.graph.EnumOf(v1)
	switch {
	case c.Variable2.Bound():
		v2 := g.graph.Variables[c.Variable2.Index]
		n := v2.Type.Info().ComponentCount
		for i := 0; i < count && i < n; i++ {
			right[i] = component(variableExpr(scope, v2.Name), n, i)
		}
	case enum != nil && info.Scalar == datatype.ScalarInt:
		right[0] = strconv.Itoa(variables.LabelToIndex(enum, c.Value2))
	default:
		right = literalComponents(c.Value2, info.Scalar, count)
	}

	parts := make([]string, count)
	for i := range parts {
		parts[i] = comparison(c.Comparison, info.Scalar, component(variableExpr(scope, v1.Name), count, i), right[i])
	}
	if len(parts) == 1 {
		return parts[0]
	}
	for i, p := range parts {
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, " && ")
}

func comparison(cmp rendergraph.Comparison, s datatype.Scalar, l, r string) string {
	switch cmp {
	case rendergraph.IsTrue:
		if s == datatype.ScalarBool {
			return l
		}
		return l + " != 0"
	case rendergraph.IsFalse:
		if s == datatype.ScalarBool {
			return "!" + l
		}
		return l + " == 0"
	case rendergraph.Equals:
		return l + " == " + r
	case rendergraph.NotEquals:
		return l + " != " + r
	case rendergraph.LT:
		return l + " < " + r
	case rendergraph.LTE:
		return l + " <= " + r
	case rendergraph.GT:
		return l + " > " + r
	case rendergraph.GTE:
		return l + " >= " + r
	}
	return "true"
}
