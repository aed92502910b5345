package interp

import (
	"math"
	"strconv"

	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/value"
)

// toBoolean implements ToBoolean (spec §4.4.4's coercions).
func (m *Machine) toBoolean(v value.Value) bool {
	switch v.Kind() {
	case value.Undefined, value.Null:
		return false
	case value.Bool:
		return v.AsBool()
	case value.Number:
		n := v.AsNumber()
		return n != 0 && !math.IsNaN(n)
	case value.String:
		return m.stringContent(v) != ""
	case value.Symbol:
		return true
	case value.Object:
		return true
	default:
		return false
	}
}

// stringContent resolves a String-kind Value to its Go string content.
func (m *Machine) stringContent(v value.Value) string {
	s := m.Heap.Resolve(v.AsAddr()).(*object.JSString)
	return s.Content()
}

// toStringValue implements ToString for the subset of kinds this core's
// arithmetic and string-concatenation paths need. Objects are not given
// a real ToPrimitive/toString protocol (no [[Call]] into a user-defined
// toString) — they stringify to a fixed placeholder, "[object Array]" or
// "[object Object]".
func (m *Machine) toStringValue(v value.Value) string {
	switch v.Kind() {
	case value.Undefined:
		return "undefined"
	case value.Null:
		return "null"
	case value.Bool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case value.Number:
		return formatNumber(v.AsNumber())
	case value.String:
		return m.stringContent(v)
	case value.Symbol:
		return "Symbol()"
	case value.Object:
		if _, ok := m.Heap.Resolve(v.AsAddr()).(*object.Array); ok {
			return "[object Array]"
		}
		return "[object Object]"
	default:
		return ""
	}
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// toNumber implements ToNumber for primitives. Objects coerce to NaN
// (no [[Call]] into a user valueOf/toString, the same simplification
// toStringValue documents).
func (m *Machine) toNumber(v value.Value) float64 {
	switch v.Kind() {
	case value.Undefined:
		return math.NaN()
	case value.Null:
		return 0
	case value.Bool:
		if v.AsBool() {
			return 1
		}
		return 0
	case value.Number:
		return v.AsNumber()
	case value.String:
		s := m.stringContent(v)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// toInt32/toUint32 implement the ECMA integer-coercion algorithms used by
// the bitwise opcodes (spec §4.4.4).
func toInt32(n float64) int32 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n == 0 {
		return 0
	}
	n = math.Trunc(n)
	m := math.Mod(n, 4294967296)
	if m < 0 {
		m += 4294967296
	}
	if m >= 2147483648 {
		m -= 4294967296
	}
	return int32(m)
}

func toUint32(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n == 0 {
		return 0
	}
	n = math.Trunc(n)
	m := math.Mod(n, 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m)
}

// add implements the `+` opcode's dual string-concat/numeric-add
// semantics: string concatenation wins if either operand is a string,
// mirroring ECMAScript's AddOperator (spec §4.4.4).
func (m *Machine) add(a, b value.Value) value.Value {
	if a.IsString() || b.IsString() {
		concatenated := m.toStringValue(a) + m.toStringValue(b)
		addr := m.Heap.Allocate(heap.CellString, false, func(value.Addr) heap.Cell {
			return object.NewJSString(concatenated)
		})
		return value.FromAddr(value.String, addr)
	}
	return value.EncodeNumber(m.toNumber(a) + m.toNumber(b))
}

func (m *Machine) sub(a, b value.Value) value.Value { return value.EncodeNumber(m.toNumber(a) - m.toNumber(b)) }
func (m *Machine) mul(a, b value.Value) value.Value { return value.EncodeNumber(m.toNumber(a) * m.toNumber(b)) }
func (m *Machine) div(a, b value.Value) value.Value { return value.EncodeNumber(m.toNumber(a) / m.toNumber(b)) }
func (m *Machine) mod(a, b value.Value) value.Value {
	return value.EncodeNumber(math.Mod(m.toNumber(a), m.toNumber(b)))
}
func (m *Machine) neg(a value.Value) value.Value { return value.EncodeNumber(-m.toNumber(a)) }

func (m *Machine) bitAnd(a, b value.Value) value.Value {
	return value.EncodeNumber(float64(toInt32(m.toNumber(a)) & toInt32(m.toNumber(b))))
}
func (m *Machine) bitOr(a, b value.Value) value.Value {
	return value.EncodeNumber(float64(toInt32(m.toNumber(a)) | toInt32(m.toNumber(b))))
}
func (m *Machine) bitXor(a, b value.Value) value.Value {
	return value.EncodeNumber(float64(toInt32(m.toNumber(a)) ^ toInt32(m.toNumber(b))))
}
func (m *Machine) bitNot(a value.Value) value.Value {
	return value.EncodeNumber(float64(^toInt32(m.toNumber(a))))
}
func (m *Machine) shl(a, b value.Value) value.Value {
	return value.EncodeNumber(float64(toInt32(m.toNumber(a)) << (toUint32(m.toNumber(b)) & 31)))
}
func (m *Machine) shr(a, b value.Value) value.Value {
	return value.EncodeNumber(float64(toInt32(m.toNumber(a)) >> (toUint32(m.toNumber(b)) & 31)))
}
func (m *Machine) ushr(a, b value.Value) value.Value {
	return value.EncodeNumber(float64(toUint32(m.toNumber(a)) >> (toUint32(m.toNumber(b)) & 31)))
}

// compare implements the relational opcodes' numeric-or-lexicographic
// comparison (spec §4.4.4): string-vs-string compares lexicographically,
// everything else coerces through ToNumber first. Returns (less, equal);
// NaN makes both false, matching ECMAScript's relational-operator
// abstract comparison.
func (m *Machine) compare(a, b value.Value) (less, equal bool) {
	if a.IsString() && b.IsString() {
		sa, sb := m.stringContent(a), m.stringContent(b)
		return sa < sb, sa == sb
	}
	na, nb := m.toNumber(a), m.toNumber(b)
	if math.IsNaN(na) || math.IsNaN(nb) {
		return false, false
	}
	return na < nb, na == nb
}

// stringEq adapts object.StringEquals to value.Value.StrictEquals'
// injected callback shape, resolving both addresses to JSString cells.
func (m *Machine) stringEq(a, b value.Addr) bool {
	sa := m.Heap.Resolve(a).(*object.JSString)
	sb := m.Heap.Resolve(b).(*object.JSString)
	return object.StringEquals(sa, sb)
}

// strictEquals implements `===`.
func (m *Machine) strictEquals(a, b value.Value) bool {
	return a.StrictEquals(b, m.stringEq)
}

// looseEquals implements `==`'s abstract equality comparison for the
// kind combinations this core supports (spec §4.4.4). Object-vs-
// primitive comparison does not perform ToPrimitive (the same
// simplification toStringValue/toNumber document) and always compares
// unequal.
func (m *Machine) looseEquals(a, b value.Value) bool {
	if a.Kind() == b.Kind() {
		return m.strictEquals(a, b)
	}
	if (a.IsUndefined() || a.IsNull()) && (b.IsUndefined() || b.IsNull()) {
		return true
	}
	if a.IsNumber() && b.IsString() {
		return a.AsNumber() == m.toNumber(b)
	}
	if a.IsString() && b.IsNumber() {
		return m.toNumber(a) == b.AsNumber()
	}
	if a.IsBool() {
		return m.looseEquals(value.EncodeNumber(m.toNumber(a)), b)
	}
	if b.IsBool() {
		return m.looseEquals(a, value.EncodeNumber(m.toNumber(b)))
	}
	return false
}
