package object

import (
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/value"
)

// Environment is a closure scope record: a fixed-size slot array plus a
// link to the enclosing environment (spec §3.5's capture-by-reference
// requirement — a nested function that writes to an outer local must be
// seen by every other closure sharing that same Environment cell, which
// is why locals captured by an inner function live here rather than on
// the interpreter's value stack).
type Environment struct {
	hdr heap.CellHeader

	parent value.Value // Object-kind Value wrapping another Environment's Addr, or Undef for the outermost
	slots  []value.Value
}

func (e *Environment) CellKind() heap.CellKind    { return heap.CellEnvironment }
func (e *Environment) GCHeader() *heap.CellHeader { return &e.hdr }

// NewEnvironment allocates an environment with the given parent (Undef
// for none) and slotCount locals, all initialized to undefined.
func NewEnvironment(parent value.Value, slotCount int) *Environment {
	slots := make([]value.Value, slotCount)
	for i := range slots {
		slots[i] = value.Undef
	}
	return &Environment{parent: parent, slots: slots}
}

// Parent returns the enclosing environment, or Undef if this is the
// outermost scope in its function's chain.
func (e *Environment) Parent() value.Value { return e.parent }

// Get reads local slot i.
func (e *Environment) Get(i int) value.Value { return e.slots[i] }

// Set writes local slot i. Every closure holding this Environment's Addr
// observes the write, which is the entire point of heap-allocating
// captured locals instead of copying them (spec §3.5).
func (e *Environment) Set(i int, v value.Value) { e.slots[i] = v }

// SlotCount reports how many locals this environment holds.
func (e *Environment) SlotCount() int { return len(e.slots) }

func cloneEnvironment(c heap.Cell, newAddr value.Addr) heap.Cell {
	src := c.(*Environment)
	clone := &Environment{
		parent: src.parent,
		slots:  append([]value.Value(nil), src.slots...),
	}
	clone.hdr = src.hdr
	return clone
}

func scanEnvironmentPointers(c heap.Cell, visit func(*value.Addr)) {
	e := c.(*Environment)
	if e.parent.IsPointer() {
		addr := e.parent.AsAddr()
		visit(&addr)
		e.parent.Rewrite(addr)
	}
	for i, v := range e.slots {
		if !v.IsPointer() {
			continue
		}
		addr := v.AsAddr()
		visit(&addr)
		v.Rewrite(addr)
		e.slots[i] = v
	}
}

// scanEnvironmentSymbols marks any Symbol-kind Value captured in a local
// slot.
func scanEnvironmentSymbols(c heap.Cell, visit func(id uint32)) {
	e := c.(*Environment)
	for _, v := range e.slots {
		if v.IsSymbol() {
			visit(v.AsSymbol())
		}
	}
}

func init() {
	heap.RegisterDescriptor(&heap.Descriptor{
		Kind:         heap.CellEnvironment,
		ScanPointers: scanEnvironmentPointers,
		ScanSymbols:  scanEnvironmentSymbols,
		Clone:        cloneEnvironment,
	})
}
