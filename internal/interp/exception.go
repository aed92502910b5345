package interp

import (
	"github.com/ashlang/jsvmcore/internal/bcprovider"
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/value"
)

// setThrown installs v as the pending exception (spec §4.4.3). Opcode
// handlers that can raise one (a rejected property write in strict code,
// calling a non-callable, explicit OpThrow) report failure through their
// boolean result, and dispatch then looks for a covering handler before
// resuming.
func (m *Machine) setThrown(v value.Value) {
	m.Thrown = v
	m.HasThrown = true
}

// clearThrown discards the pending exception. Dispatch calls it when it
// transfers control to a catch handler; the thrown value is not copied
// into any register, so the handler's code cannot read it.
func (m *Machine) clearThrown() {
	m.Thrown = value.Undef
	m.HasThrown = false
}

// internString returns the heap string for s, allocating and caching a
// new cell on first use (spec §3.8 note: interning here is a convenience
// cache over heap.CellString, distinct from the identifier table's
// symbol interning, which covers property-name strings rather than
// arbitrary runtime string content).
func (m *Machine) internString(s string) value.Value {
	if v, ok := m.internedStrings[s]; ok {
		return v
	}
	addr := m.Heap.Allocate(heap.CellString, false, func(value.Addr) heap.Cell {
		return object.NewJSString(s)
	})
	v := value.FromAddr(value.String, addr)
	m.internedStrings[s] = v
	return v
}

// newError allocates an Error instance with the given message text,
// falling back to a bare string when no Error.prototype has been
// installed yet.
func (m *Machine) newError(msg string) value.Value {
	strVal := m.internString(msg)
	if m.ErrorProto.IsUndefined() {
		return strVal
	}
	addr := m.Heap.Allocate(heap.CellError, false, func(value.Addr) heap.Cell {
		return object.NewError(m.ErrorProto, m.RootClass, strVal)
	})
	return value.FromAddr(value.Object, addr)
}

// throwTypeError raises a TypeError-shaped exception for a VM-detected
// invariant violation surfaced to script (spec §7): calling a
// non-callable value, writing a named property onto a value that cannot
// carry one, constructing from a non-constructor.
func (m *Machine) throwTypeError(msg string) {
	m.setThrown(m.newError("TypeError: " + msg))
}

// throwRangeError raises a RangeError-shaped exception (stack overflow,
// invalid array length).
func (m *Machine) throwRangeError(msg string) {
	m.setThrown(m.newError("RangeError: " + msg))
}

// findHandler returns the handler offset covering ip in fn's exception
// table, scanning in table order so an inner try's narrower range is
// found before an enclosing try's wider one as long as the bytecode
// provider emits inner entries first (spec §4.4.3's nearest-enclosing-
// handler contract; this core trusts the provider's ordering rather than
// re-sorting by range width).
func findHandler(fn *bcprovider.Function, ip int) (uint32, bool) {
	u := uint32(ip)
	for _, e := range fn.ExceptionTable {
		if u >= e.TryStart && u < e.TryEnd {
			return e.HandlerOffset, true
		}
	}
	return 0, false
}
