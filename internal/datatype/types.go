package datatype

import (
	"fmt"
	"strings"
)

// DataFieldType is the shape of a variable value.
type DataFieldType int

const (
	Int DataFieldType = iota
	Int2
	Int3
	Int4
	Uint
	Uint2
	Uint3
	Uint4
	Float
	Float2
	Float3
	Float4
	Bool
	Float4x4
	Uint16
	// Count is a sentinel and not a valid shape.
	Count
)

// Scalar is the underlying component kind of a shape.
type Scalar int

const (
	ScalarInt Scalar = iota
	ScalarUint
	ScalarUint16
	ScalarFloat
	ScalarBool
)

// TypeInfo describes the storage layout of a shape.
type TypeInfo struct {
	ComponentCount int
	Scalar         Scalar
	ScalarBytes    int
	TypeBytes      int
}

var typeNames = [Count]string{
	Int:      "Int",
	Int2:     "Int2",
	Int3:     "Int3",
	Int4:     "Int4",
	Uint:     "Uint",
	Uint2:    "Uint2",
	Uint3:    "Uint3",
	Uint4:    "Uint4",
	Float:    "Float",
	Float2:   "Float2",
	Float3:   "Float3",
	Float4:   "Float4",
	Bool:     "Bool",
	Float4x4: "Float4x4",
	Uint16:   "Uint_16",
}

var typeInfos = [Count]TypeInfo{
	Int:      info(1, ScalarInt),
	Int2:     info(2, ScalarInt),
	Int3:     info(3, ScalarInt),
	Int4:     info(4, ScalarInt),
	Uint:     info(1, ScalarUint),
	Uint2:    info(2, ScalarUint),
	Uint3:    info(3, ScalarUint),
	Uint4:    info(4, ScalarUint),
	Float:    info(1, ScalarFloat),
	Float2:   info(2, ScalarFloat),
	Float3:   info(3, ScalarFloat),
	Float4:   info(4, ScalarFloat),
	Bool:     info(1, ScalarBool),
	Float4x4: info(16, ScalarFloat),
	Uint16:   info(1, ScalarUint16),
}

func info(count int, s Scalar) TypeInfo {
	return TypeInfo{
		ComponentCount: count,
		Scalar:         s,
		ScalarBytes:    s.Bytes(),
		TypeBytes:      count * s.Bytes(),
	}
}

// Valid reports whether t is one of the declared shapes.
func (t DataFieldType) Valid() bool {
	return t >= 0 && t < Count
}

// Info returns the static layout of t. It panics on an invalid shape.
func (t DataFieldType) Info() TypeInfo {
	if !t.Valid() {
		panic(fmt.Sprintf("datatype: invalid DataFieldType %d", int(t)))
	}
	return typeInfos[t]
}

// String returns the canonical name of t.
func (t DataFieldType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("DataFieldType(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType resolves a shape name case-insensitively. "Uint16" is accepted
// as an alias for "Uint_16".
func ParseType(name string) (DataFieldType, error) {
	trimmed := strings.TrimSpace(name)
	for i, n := range typeNames {
		if strings.EqualFold(n, trimmed) {
			return DataFieldType(i), nil
		}
	}
	if strings.EqualFold(trimmed, "Uint16") {
		return Uint16, nil
	}
	return Count, fmt.Errorf("unknown data field type %q", name)
}

// Bytes returns the width in bytes of one component of kind s.
func (s Scalar) Bytes() int {
	if s == ScalarUint16 {
		return 2
	}
	return 4
}

// String returns a readable name for the scalar kind.
func (s Scalar) String() string {
	switch s {
	case ScalarInt:
		return "int"
	case ScalarUint:
		return "uint"
	case ScalarUint16:
		return "uint16"
	case ScalarFloat:
		return "float"
	case ScalarBool:
		return "bool"
	default:
		return fmt.Sprintf("Scalar(%d)", int(s))
	}
}
