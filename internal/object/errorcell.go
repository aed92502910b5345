package object

import (
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/value"
)

// Error is a JS Error-instance cell. It is shaped like Object (same
// inline-slot/overflow split, so `err.customProp = 1` works exactly like
// any other object) plus two dedicated fields the runtime's thrown-value
// path and `.stack` accessor read directly without a property lookup
// (spec §7's "serialisable via .toString() plus its stack accessor").
type Error struct {
	hdr heap.CellHeader

	proto value.Value
	class value.Addr

	slot0, slot1, slot2, slot3 value.Value
	overflow                   value.Addr

	Message value.Value // JSString Addr or Undef
	Stack   value.Value // JSString Addr or Undef; populated at throw time only
}

func (e *Error) CellKind() heap.CellKind    { return heap.CellError }
func (e *Error) GCHeader() *heap.CellHeader { return &e.hdr }

// NewError allocates an Error instance with the given message.
func NewError(proto value.Value, classAddr value.Addr, message value.Value) *Error {
	return &Error{
		proto:   proto,
		class:   classAddr,
		slot0:   value.Undef,
		slot1:   value.Undef,
		slot2:   value.Undef,
		slot3:   value.Undef,
		overflow: heap.NoAddr,
		Message: message,
		Stack:   value.Undef,
	}
}

func (e *Error) Prototype() value.Value    { return e.proto }
func (e *Error) ClassAddr() value.Addr     { return e.class }
func (e *Error) SetClassAddr(a value.Addr) { e.class = a }

// Slot returns inline slot i (0..NumInlineSlots-1).
func (e *Error) Slot(i int) value.Value { return e.getInlineSlot(i) }

// SetSlot writes inline slot i.
func (e *Error) SetSlot(i int, v value.Value) { e.setInlineSlot(i, v) }

func (e *Error) getInlineSlot(i int) value.Value {
	switch i {
	case 0:
		return e.slot0
	case 1:
		return e.slot1
	case 2:
		return e.slot2
	default:
		return e.slot3
	}
}

func (e *Error) setInlineSlot(i int, v value.Value) {
	switch i {
	case 0:
		e.slot0 = v
	case 1:
		e.slot1 = v
	case 2:
		e.slot2 = v
	default:
		e.slot3 = v
	}
}

func (e *Error) OverflowAddr() value.Addr        { return e.overflow }
func (e *Error) SetOverflowAddr(addr value.Addr) { e.overflow = addr }

func cloneError(c heap.Cell, newAddr value.Addr) heap.Cell {
	src := c.(*Error)
	clone := &Error{
		proto: src.proto, class: src.class,
		slot0: src.slot0, slot1: src.slot1, slot2: src.slot2, slot3: src.slot3,
		overflow: src.overflow, Message: src.Message, Stack: src.Stack,
	}
	clone.hdr = src.hdr
	return clone
}

func scanErrorPointers(c heap.Cell, visit func(*value.Addr)) {
	e := c.(*Error)
	for _, vp := range []*value.Value{&e.proto, &e.slot0, &e.slot1, &e.slot2, &e.slot3, &e.Message, &e.Stack} {
		if !vp.IsPointer() {
			continue
		}
		addr := vp.AsAddr()
		visit(&addr)
		vp.Rewrite(addr)
	}
	visit(&e.class)
	if e.overflow != heap.NoAddr {
		visit(&e.overflow)
	}
}

func init() {
	heap.RegisterDescriptor(&heap.Descriptor{
		Kind:         heap.CellError,
		ScanPointers: scanErrorPointers,
		Clone:        cloneError,
	})
}
