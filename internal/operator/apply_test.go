package operator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/rendergraph/internal/datatype"
	"github.com/vk/rendergraph/internal/rendergraph"
)

func apply1(op rendergraph.Operator, t datatype.DataFieldType, a, b, dest string) string {
	d := datatype.Parse(dest, t)
	Apply(op, t.Info().Scalar, datatype.Parse(a, t), datatype.Parse(b, t), d, t.Info().ComponentCount)
	return datatype.Format(t, d)
}

func TestApply_Table(t *testing.T) {
	tests := []struct {
		name string
		op   rendergraph.Operator
		typ  datatype.DataFieldType
		a, b string
		dest string
		want string
	}{
		{"int add", rendergraph.OpAdd, datatype.Int2, "1,2", "10,20", "0,0", "11,22"},
		{"int subtract", rendergraph.OpSubtract, datatype.Int, "3", "5", "0", "-2"},
		{"int multiply", rendergraph.OpMultiply, datatype.Int3, "2,3,4", "5,6,7", "0,0,0", "10,18,28"},
		{"int divide truncates", rendergraph.OpDivide, datatype.Int, "-7", "2", "0", "-3"},
		{"int modulo", rendergraph.OpModulo, datatype.Int, "7", "3", "0", "1"},
		{"int modulo by zero", rendergraph.OpModulo, datatype.Int, "7", "0", "5", "0"},
		{"uint wraps", rendergraph.OpSubtract, datatype.Uint, "0", "1", "0", "4294967295"},
		{"uint16 wraps", rendergraph.OpAdd, datatype.Uint16, "65535", "1", "9", "0"},
		{"uint or", rendergraph.OpBitwiseOr, datatype.Uint, "12", "3", "0", "15"},
		{"uint and", rendergraph.OpBitwiseAnd, datatype.Uint, "12", "6", "0", "4"},
		{"uint xor", rendergraph.OpBitwiseXor, datatype.Uint, "12", "6", "0", "10"},
		{"uint not", rendergraph.OpBitwiseNot, datatype.Uint, "0", "0", "0", "4294967295"},
		{"int not", rendergraph.OpBitwiseNot, datatype.Int, "0", "0", "0", "-1"},
		{"int noop", rendergraph.OpNoop, datatype.Int4, "1,2,3,4", "9,9,9,9", "0,0,0,0", "1,2,3,4"},
		{"float add", rendergraph.OpAdd, datatype.Float2, "0.5,1", "0.25,2", "0,0", "0.75,3"},
		{"float modulo", rendergraph.OpModulo, datatype.Float, "5.5", "2", "0", "1.5"},
		{"float negative modulo", rendergraph.OpModulo, datatype.Float, "-5.5", "2", "0", "-1.5"},
		{"float pow2ge", rendergraph.OpPowerOf2GE, datatype.Float, "5", "0", "0", "8"},
		{"float pow2ge fraction", rendergraph.OpPowerOf2GE, datatype.Float, "0.3", "0", "0", "0.5"},
		{"float bitwise untouched", rendergraph.OpBitwiseOr, datatype.Float, "1", "2", "7.5", "7.5"},
		{"float not untouched", rendergraph.OpBitwiseNot, datatype.Float, "1", "2", "7.5", "7.5"},
		{"bool or", rendergraph.OpBitwiseOr, datatype.Bool, "false", "true", "false", "true"},
		{"bool and", rendergraph.OpBitwiseAnd, datatype.Bool, "true", "false", "true", "false"},
		{"bool xor", rendergraph.OpBitwiseXor, datatype.Bool, "true", "true", "true", "false"},
		{"bool not", rendergraph.OpBitwiseNot, datatype.Bool, "true", "false", "true", "false"},
		{"bool noop", rendergraph.OpNoop, datatype.Bool, "true", "false", "false", "true"},
		{"bool add untouched", rendergraph.OpAdd, datatype.Bool, "true", "true", "false", "false"},
		{"bool pow2ge untouched", rendergraph.OpPowerOf2GE, datatype.Bool, "true", "true", "false", "false"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, apply1(tc.op, tc.typ, tc.a, tc.b, tc.dest))
		})
	}
}

func TestApply_IntegerDivideByZeroIsZero(t *testing.T) {
	for _, typ := range []datatype.DataFieldType{
		datatype.Int, datatype.Int2, datatype.Int3, datatype.Int4,
		datatype.Uint, datatype.Uint2, datatype.Uint3, datatype.Uint4,
		datatype.Uint16,
	} {
		t.Run(typ.String(), func(t *testing.T) {
			d := datatype.Parse("5,5,5,5", typ)
			Apply(rendergraph.OpDivide, typ.Info().Scalar, datatype.Parse("9,9,9,9", typ), datatype.Parse("0", typ), d, typ.Info().ComponentCount)
			assert.Equal(t, make([]byte, typ.Info().TypeBytes), d)
		})
	}
}

func TestApply_FloatDivideByZeroIsIEEE(t *testing.T) {
	d := make([]byte, 12)
	Apply(rendergraph.OpDivide, datatype.ScalarFloat, datatype.Parse("1,-1,0", datatype.Float3), make([]byte, 12), d, 3)

	assert.True(t, math.IsInf(float64(datatype.Load[float32](d, 0)), 1))
	assert.True(t, math.IsInf(float64(datatype.Load[float32](d, 1)), -1))
	assert.True(t, math.IsNaN(float64(datatype.Load[float32](d, 2))))
}

func TestPowerOf2GE(t *testing.T) {
	// Exhaustive over a small range against a naive search.
	for x := uint32(1); x <= 4096; x++ {
		want := uint32(1)
		for want < x {
			want <<= 1
		}
		require.Equal(t, want, powerOf2GE(x), "x=%d", x)
		require.Equal(t, int32(want), powerOf2GE(int32(x)), "x=%d", x)
	}

	for k := 0; k <= 30; k++ {
		p := uint32(1) << k
		assert.Equal(t, p, powerOf2GE(p), "2^%d", k)
		if k < 30 {
			assert.Equal(t, p<<1, powerOf2GE(p+1), "2^%d+1", k)
		}
	}
	assert.Equal(t, uint32(1)<<31, powerOf2GE(uint32(1)<<30+1))
	assert.Equal(t, int32(1), powerOf2GE(int32(1)))

	assert.Zero(t, powerOf2GE(int32(0)))
	assert.Zero(t, powerOf2GE(int32(-17)))
	assert.Zero(t, powerOf2GE(uint32(0)))
	assert.Equal(t, uint16(0), powerOf2GE(uint16(40000)), "overflow truncates")
}

func TestApply_OutOfRangeBuffers(t *testing.T) {
	d := datatype.Parse("1", datatype.Int)
	assert.NotPanics(t, func() {
		Apply(rendergraph.OpAdd, datatype.ScalarInt, nil, nil, d, 4)
	})
	assert.Equal(t, "0", datatype.Format(datatype.Int, d))
}
