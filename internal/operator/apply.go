package operator

import (
	"math/bits"

	"github.com/chewxy/math32"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/rendergraph"
)

type integer interface {
	int32 | uint32 | uint16
}

// Apply evaluates op over count components of kind s, reading a and b and
// writing dest. Components outside a buffer read as zero; writes outside
// dest are dropped.
func Apply(op rendergraph.Operator, s datatype.Scalar, a, b, dest []byte, count int) {
	for i := 0; i < count; i++ {
		switch s {
		case datatype.ScalarInt:
			applyInteger[int32](op, a, b, dest, i)
		case datatype.ScalarUint:
			applyInteger[uint32](op, a, b, dest, i)
		case datatype.ScalarUint16:
			applyInteger[uint16](op, a, b, dest, i)
		case datatype.ScalarFloat:
			applyFloat(op, a, b, dest, i)
		case datatype.ScalarBool:
			applyBool(op, a, b, dest, i)
		}
	}
}

func applyInteger[T integer](op rendergraph.Operator, a, b, dest []byte, i int) {
	x := datatype.Load[T](a, i)
	y := datatype.Load[T](b, i)
	if r, ok := integerOp(op, x, y); ok {
		datatype.Store(dest, i, r)
	}
}

func integerOp[T integer](op rendergraph.Operator, x, y T) (T, bool) {
	switch op {
	case rendergraph.OpAdd:
		return x + y, true
	case rendergraph.OpSubtract:
		return x - y, true
	case rendergraph.OpMultiply:
		return x * y, true
	case rendergraph.OpDivide:
		if y == 0 {
			return 0, true
		}
		return x / y, true
	case rendergraph.OpModulo:
		if y == 0 {
			return 0, true
		}
		return x % y, true
	case rendergraph.OpBitwiseOr:
		return x | y, true
	case rendergraph.OpBitwiseAnd:
		return x & y, true
	case rendergraph.OpBitwiseXor:
		return x ^ y, true
	case rendergraph.OpBitwiseNot:
		return ^x, true
	case rendergraph.OpPowerOf2GE:
		return powerOf2GE(x), true
	case rendergraph.OpNoop:
		return x, true
	}
	return 0, false
}

// powerOf2GE returns the least power of two >= x, truncated to the width
// of T when it does not fit.
func powerOf2GE[T integer](x T) T {
	if x <= 0 {
		return 0
	}
	return T(uint64(1) << bits.Len64(uint64(x)-1))
}

func applyFloat(op rendergraph.Operator, a, b, dest []byte, i int) {
	x := datatype.Load[float32](a, i)
	y := datatype.Load[float32](b, i)

	var r float32
	switch op {
	case rendergraph.OpAdd:
		r = x + y
	case rendergraph.OpSubtract:
		r = x - y
	case rendergraph.OpMultiply:
		r = x * y
	case rendergraph.OpDivide:
		r = x / y
	case rendergraph.OpModulo:
		r = math32.Mod(x, y)
	case rendergraph.OpPowerOf2GE:
		r = math32.Pow(2, math32.Ceil(math32.Log2(x)))
	case rendergraph.OpNoop:
		r = x
	default:
		return
	}
	datatype.Store(dest, i, r)
}

func applyBool(op rendergraph.Operator, a, b, dest []byte, i int) {
	x := datatype.LoadBool(a, i)
	y := datatype.LoadBool(b, i)

	var r bool
	switch op {
	case rendergraph.OpBitwiseOr:
		r = x || y
	case rendergraph.OpBitwiseAnd:
		r = x && y
	case rendergraph.OpBitwiseXor:
		r = x != y
	case rendergraph.OpBitwiseNot:
		r = !x
	case rendergraph.OpNoop:
		r = x
	default:
		return
	}
	datatype.StoreBool(dest, i, r)
}
