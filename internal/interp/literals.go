package interp

import (
	"github.com/ashlang/jsvmcore/internal/bcprovider"
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/value"
)

// moduleString resolves a string-table index against the bytecode
// module's flat string storage (spec §4.6's string-table/literal-buffer
// abstraction).
func (m *Machine) moduleString(idx uint32) string {
	entries := m.Module.StringTable()
	if int(idx) >= len(entries) {
		return ""
	}
	e := entries[idx]
	storage := m.Module.StringStorage()
	if int(e.Offset+e.Length) > len(storage) {
		return ""
	}
	return storage[e.Offset : e.Offset+e.Length]
}

// internIdent interns the string-table entry at idx into the identifier
// table, for bytecode operands that name a property by string-table
// index rather than carrying a pre-resolved symbol id.
func (m *Machine) internIdent(idx uint32) uint32 {
	return m.Idents.Intern(m.moduleString(idx))
}

// literalToValue converts one bcprovider.LiteralValue into a runtime
// Value, interning string literals through internString so repeated
// occurrences of the same literal text across a module's array/object
// buffers share one heap cell.
func (m *Machine) literalToValue(lv bcprovider.LiteralValue) value.Value {
	switch lv.Kind {
	case bcprovider.LitUndefined:
		return value.Undef
	case bcprovider.LitNull:
		return value.Nul
	case bcprovider.LitBool:
		return value.FromBool(lv.Bool)
	case bcprovider.LitNumber:
		return value.EncodeNumber(lv.Number)
	case bcprovider.LitStringIndex:
		return m.internString(m.moduleString(lv.Index))
	default:
		return value.Undef
	}
}

// newObject allocates a plain object on the empty root class.
func (m *Machine) newObject() value.Value {
	addr := m.Heap.Allocate(heap.CellObject, false, func(value.Addr) heap.Cell {
		return object.NewObject(m.ObjectProto, m.RootClass)
	})
	return value.FromAddr(value.Object, addr)
}

// newObjectWithBuffer builds an object from count (key, value) pairs read
// from the module's object-literal buffers starting at bufOff (spec
// §4.4.4's new-object-with-buffer).
func (m *Machine) newObjectWithBuffer(bufOff, count uint32) value.Value {
	obj := m.newObject()
	keys := m.Module.ObjectKeyBuffer()
	vals := m.Module.ObjectValueBuffer()
	for i := uint32(0); i < count; i++ {
		ki, vi := bufOff+i, bufOff+i
		if int(ki) >= len(keys) || int(vi) >= len(vals) {
			break
		}
		symbol := m.internIdent(keys[ki])
		m.putProperty(obj, symbol, m.literalToValue(vals[vi]), false, noPropCache)
	}
	return obj
}

// newArray allocates a dense array of the given length, every slot a hole.
func (m *Machine) newArray(length int) value.Value {
	addr := m.Heap.Allocate(heap.CellArray, false, func(value.Addr) heap.Cell {
		return object.NewArray(m.ArrayProto, m.RootClass, length)
	})
	return value.FromAddr(value.Object, addr)
}

// newArrayWithBuffer builds an array from count literal values read from
// the module's array-literal buffer starting at bufOff.
func (m *Machine) newArrayWithBuffer(bufOff, count uint32) value.Value {
	lits := m.Module.ArrayBuffer()
	arrVal := m.newArray(int(count))
	arr := m.Heap.Resolve(arrVal.AsAddr()).(*object.Array)
	for i := uint32(0); i < count; i++ {
		idx := bufOff + i
		if int(idx) >= len(lits) {
			break
		}
		v := m.literalToValue(lits[idx])
		arr.Set(int(i), v)
		m.Heap.WriteBarrier(arrVal.AsAddr(), v)
	}
	return arrVal
}

// createThis allocates the `this` object a Construct call passes to its
// constructor body, before the constructor itself runs (spec §4.4.4's
// create-this). Its prototype is always Object.prototype: this core does
// not wire a per-constructor "prototype" own-property, so every constructed instance starts from the same base shape and a
// constructor body that wants a distinguishing prototype must install it
// itself via put-by-id before returning.
func (m *Machine) createThis(ctor value.Value) value.Value {
	return m.newObject()
}
