package datatype

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Component is the set of Go types a stored component decodes to.
// Booleans are handled separately by LoadBool/StoreBool.
type Component interface {
	int32 | uint32 | uint16 | float32
}

// Load decodes component i of b. Out-of-range reads yield the zero value.
func Load[T Component](b []byte, i int) T {
	var zero T
	switch any(zero).(type) {
	case uint16:
		if i < 0 || (i+1)*2 > len(b) {
			return zero
		}
		return any(binary.LittleEndian.Uint16(b[i*2:])).(T)
	}
	if i < 0 || (i+1)*4 > len(b) {
		return zero
	}
	bits := binary.LittleEndian.Uint32(b[i*4:])
	switch any(zero).(type) {
	case int32:
		return any(int32(bits)).(T)
	case float32:
		return any(math.Float32frombits(bits)).(T)
	default:
		return any(bits).(T)
	}
}

// Store encodes v as component i of b. Out-of-range writes are dropped.
func Store[T Component](b []byte, i int, v T) {
	switch x := any(v).(type) {
	case uint16:
		if i < 0 || (i+1)*2 > len(b) {
			return
		}
		binary.LittleEndian.PutUint16(b[i*2:], x)
		return
	case int32:
		if i < 0 || (i+1)*4 > len(b) {
			return
		}
		binary.LittleEndian.PutUint32(b[i*4:], uint32(x))
	case uint32:
		if i < 0 || (i+1)*4 > len(b) {
			return
		}
		binary.LittleEndian.PutUint32(b[i*4:], x)
	case float32:
		if i < 0 || (i+1)*4 > len(b) {
			return
		}
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(x))
	}
}

// LoadBool decodes boolean component i of b.
func LoadBool(b []byte, i int) bool {
	return Load[uint32](b, i) != 0
}

// StoreBool encodes boolean component i of b as 0 or 1.
func StoreBool(b []byte, i int, v bool) {
	var x uint32
	if v {
		x = 1
	}
	Store(b, i, x)
}

// Parse decodes text into a freshly allocated buffer holding one value of shape t.
func Parse(text string, t DataFieldType) []byte {
	ti := t.Info()
	b := make([]byte, ti.TypeBytes)
	ParseInto(text, ti.Scalar, ti.ComponentCount, b)
	return b
}

// ParseInto decodes up to count components of kind s from text into dst.
// Tokens are separated by commas or whitespace. Missing tokens leave
// zero/false, and tokens that cannot be understood decode as zero/false.
func ParseInto(text string, s Scalar, count int, dst []byte) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	for i := 0; i < count; i++ {
		tok := ""
		if i < len(tokens) {
			tok = tokens[i]
		}
		switch s {
		case ScalarInt:
			Store(dst, i, int32(parseInteger(tok)))
		case ScalarUint:
			Store(dst, i, uint32(parseInteger(tok)))
		case ScalarUint16:
			Store(dst, i, uint16(parseInteger(tok)))
		case ScalarFloat:
			Store(dst, i, parseFloat(tok))
		case ScalarBool:
			StoreBool(dst, i, parseBool(tok))
		}
	}
}

// Format renders the value of shape t held in b.
func Format(t DataFieldType, b []byte) string {
	ti := t.Info()
	return FormatScalars(ti.Scalar, ti.ComponentCount, b)
}

// FormatScalars renders count components of kind s, comma separated.
func FormatScalars(s Scalar, count int, b []byte) string {
	parts := make([]string, count)
	for i := range parts {
		switch s {
		case ScalarInt:
			parts[i] = strconv.FormatInt(int64(Load[int32](b, i)), 10)
		case ScalarUint:
			parts[i] = strconv.FormatUint(uint64(Load[uint32](b, i)), 10)
		case ScalarUint16:
			parts[i] = strconv.FormatUint(uint64(Load[uint16](b, i)), 10)
		case ScalarFloat:
			parts[i] = strconv.FormatFloat(float64(Load[float32](b, i)), 'g', -1, 32)
		case ScalarBool:
			parts[i] = strconv.FormatBool(LoadBool(b, i))
		}
	}
	return strings.Join(parts, ",")
}

// Uint32Components converts every component of a shape-t value to uint32.
// Floats truncate toward zero, negative values wrap, booleans become 0 or 1.
func Uint32Components(t DataFieldType, b []byte) []uint32 {
	ti := t.Info()
	out := make([]uint32, ti.ComponentCount)
	for i := range out {
		switch ti.Scalar {
		case ScalarInt:
			out[i] = uint32(Load[int32](b, i))
		case ScalarUint:
			out[i] = Load[uint32](b, i)
		case ScalarUint16:
			out[i] = uint32(Load[uint16](b, i))
		case ScalarFloat:
			out[i] = uint32(int64(truncate(float64(Load[float32](b, i)))))
		case ScalarBool:
			if LoadBool(b, i) {
				out[i] = 1
			}
		}
	}
	return out
}

func parseInteger(tok string) int64 {
	if tok == "" {
		return 0
	}
	if v, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseInt(tok, 0, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseUint(tok, 0, 64); err == nil {
		return int64(v)
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return int64(truncate(f))
	}
	return 0
}

func parseFloat(tok string) float32 {
	if tok == "" {
		return 0
	}
	f, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return float32(f)
		}
		return 0
	}
	return float32(f)
}

func parseBool(tok string) bool {
	if strings.EqualFold(tok, "true") {
		return true
	}
	if strings.EqualFold(tok, "false") || tok == "" {
		return false
	}
	return parseInteger(tok) != 0
}

// truncateLimit keeps truncated floats well inside the int64 range.
const truncateLimit = 1 << 62

// truncate clamps f to ±2^62 and drops the fraction. NaN becomes 0.
func truncate(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f > truncateLimit:
		return truncateLimit
	case f < -truncateLimit:
		return -truncateLimit
	}
	return math.Trunc(f)
}

// Convert copies count components of kind from in src into dst as kind to,
// converting each by value. Floats truncate toward zero, negative values
// wrap when stored unsigned, and booleans become 0 or 1.
func Convert(from Scalar, src []byte, to Scalar, dst []byte, count int) {
	for i := 0; i < count; i++ {
		var v float64
		switch from {
		case ScalarInt:
			v = float64(Load[int32](src, i))
		case ScalarUint:
			v = float64(Load[uint32](src, i))
		case ScalarUint16:
			v = float64(Load[uint16](src, i))
		case ScalarFloat:
			v = float64(Load[float32](src, i))
		case ScalarBool:
			if LoadBool(src, i) {
				v = 1
			}
		}
		switch to {
		case ScalarInt:
			Store(dst, i, int32(int64(truncate(v))))
		case ScalarUint:
			Store(dst, i, uint32(int64(truncate(v))))
		case ScalarUint16:
			Store(dst, i, uint16(int64(truncate(v))))
		case ScalarFloat:
			Store(dst, i, float32(v))
		case ScalarBool:
			StoreBool(dst, i, v != 0)
		}
	}
}
