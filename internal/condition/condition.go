// Package condition evaluates the guards attached to SetVariable rules and
// nodes.
package condition

import (
	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/rendergraph"
	"github.com/vk/rendergraph/internal/variables"
)

// Runtime is the live state a condition is evaluated against.
type Runtime interface {
	Variables() *variables.Table
}

// Evaluate reports whether c holds against the current variable values.
//
// The left operand is variable1. The right operand is variable2 when bound,
// otherwise Value2 parsed in variable1's shape. When variable1 is tagged with
// an enum and the right operand is literal, Value2 is resolved as a label
// first; unknown labels resolve to -1 and never compare equal to a label.
func Evaluate(rt Runtime, c rendergraph.Condition) bool {
	if c.AlwaysFalse {
		return false
	}
	if !c.Variable1.Bound() || c.Comparison == rendergraph.Always {
		return true
	}

	vars := rt.Variables()
	left, err := vars.At(c.Variable1.Index)
	if err != nil {
		return true
	}
	info := left.Variable.Type.Info()
	right := make([]byte, info.TypeBytes)

	switch {
	case c.Variable2.Bound():
		if v2, err := vars.At(c.Variable2.Index); err == nil {
			if len(v2.Storage.Value) > len(right) {
				right = make([]byte, len(v2.Storage.Value))
			}
			copy(right, v2.Storage.Value)
		}
	case left.Enum != nil && info.Scalar == datatype.ScalarInt:
		datatype.Store(right, 0, int32(variables.LabelToIndex(left.Enum, c.Value2)))
	default:
		datatype.ParseInto(c.Value2, info.Scalar, info.ComponentCount, right)
	}

	return Compare(c.Comparison, info.Scalar, left.Storage.Value, right, info.ComponentCount)
}

// Compare applies cmp to count components of kind s and reports whether
// every component satisfies it.
func Compare(cmp rendergraph.Comparison, s datatype.Scalar, a, b []byte, count int) bool {
	for i := 0; i < count; i++ {
		var ok bool
		switch s {
		case datatype.ScalarInt:
			ok = compare(cmp, datatype.Load[int32](a, i), datatype.Load[int32](b, i))
		case datatype.ScalarUint:
			ok = compare(cmp, datatype.Load[uint32](a, i), datatype.Load[uint32](b, i))
		case datatype.ScalarUint16:
			ok = compare(cmp, datatype.Load[uint16](a, i), datatype.Load[uint16](b, i))
		case datatype.ScalarFloat:
			ok = compare(cmp, datatype.Load[float32](a, i), datatype.Load[float32](b, i))
		case datatype.ScalarBool:
			ok = compare(cmp, boolBit(datatype.LoadBool(a, i)), boolBit(datatype.LoadBool(b, i)))
		}
		if !ok {
			return false
		}
	}
	return true
}

func compare[T datatype.Component](cmp rendergraph.Comparison, x, y T) bool {
	switch cmp {
	case rendergraph.IsTrue:
		return x != 0
	case rendergraph.IsFalse:
		return x == 0
	case rendergraph.Equals:
		return x == y
	case rendergraph.NotEquals:
		return x != y
	case rendergraph.LT:
		return x < y
	case rendergraph.LTE:
		return x <= y
	case rendergraph.GT:
		return x > y
	case rendergraph.GTE:
		return x >= y
	case rendergraph.Always:
		return true
	}
	return false
}

func boolBit(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
