package object

import (
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/value"
)

// NumInlineSlots is the number of property slots stored directly inside
// the Object cell before falling back to an overflow PropertyStorage
// cell. Grounded on chazu-maggie's vm/object.go, which keeps 4 instance
// variables inline for the same reason: most objects never grow past a
// handful of own properties, and avoiding a second heap cell for those
// keeps the common case allocation-cheap.
const NumInlineSlots = 4

// Object is a heap cell: a [[Prototype]] pointer, a HiddenClass pointer
// (which supplies property-name-to-slot mapping), inline property slots,
// and an overflow PropertyStorage cell once NumInlineSlots is exceeded
// (spec §3.3).
type Object struct {
	hdr heap.CellHeader

	proto value.Value // Object or Null
	class value.Addr  // -> HiddenClass cell

	slot0, slot1, slot2, slot3 value.Value
	overflow                   value.Addr // -> PropertyStorage cell, or heap.NoAddr

	// Extensible is cleared by Object.preventExtensions (spec's
	// [[Extensible]] internal slot): once false, no transition to a new
	// HiddenClass is permitted for this object, even in dictionary mode.
	extensible bool
}

func (o *Object) CellKind() heap.CellKind      { return heap.CellObject }
func (o *Object) GCHeader() *heap.CellHeader   { return &o.hdr }

// NewObject allocates a fresh object with the given prototype on the
// given hidden class (usually the class's own empty root, resolved by
// the runtime's class table).
func NewObject(proto value.Value, classAddr value.Addr) *Object {
	return &Object{
		proto:      proto,
		class:      classAddr,
		slot0:      value.Undef,
		slot1:      value.Undef,
		slot2:      value.Undef,
		slot3:      value.Undef,
		overflow:   heap.NoAddr,
		extensible: true,
	}
}

// Prototype returns the object's [[Prototype]] (Null if none).
func (o *Object) Prototype() value.Value { return o.proto }

// SetPrototype overwrites [[Prototype]] (spec's Object.setPrototypeOf;
// does not itself enforce the no-cycle invariant, left to the runtime
// operation that walks the chain before calling this).
func (o *Object) SetPrototype(proto value.Value) { o.proto = proto }

// ClassAddr returns the Addr of this object's current HiddenClass cell.
func (o *Object) ClassAddr() value.Addr { return o.class }

// SetClassAddr installs a new HiddenClass after a property transition.
func (o *Object) SetClassAddr(addr value.Addr) { o.class = addr }

// Extensible reports whether new own properties may still be added.
func (o *Object) Extensible() bool { return o.extensible }

// PreventExtensions clears the [[Extensible]] slot permanently.
func (o *Object) PreventExtensions() { o.extensible = false }

// getInlineSlot/setInlineSlot give PropertyStorage-aware callers raw
// access to the first NumInlineSlots without needing an overflow lookup.
func (o *Object) getInlineSlot(i int) value.Value {
	switch i {
	case 0:
		return o.slot0
	case 1:
		return o.slot1
	case 2:
		return o.slot2
	default:
		return o.slot3
	}
}

func (o *Object) setInlineSlot(i int, v value.Value) {
	switch i {
	case 0:
		o.slot0 = v
	case 1:
		o.slot1 = v
	case 2:
		o.slot2 = v
	default:
		o.slot3 = v
	}
}

// Slot returns inline slot i (0..NumInlineSlots-1). Overflow slots
// (object slot index >= NumInlineSlots) live in the PropertyStorage cell
// reached through OverflowAddr instead.
func (o *Object) Slot(i int) value.Value { return o.getInlineSlot(i) }

// SetSlot writes inline slot i.
func (o *Object) SetSlot(i int, v value.Value) { o.setInlineSlot(i, v) }

// OverflowAddr returns the Addr of this object's PropertyStorage cell,
// or heap.NoAddr if it has never needed one.
func (o *Object) OverflowAddr() value.Addr { return o.overflow }

// SetOverflowAddr installs (or replaces) the overflow PropertyStorage
// cell's Addr, called by the property-put path the first time slot
// NumInlineSlots is needed, or after a resize.
func (o *Object) SetOverflowAddr(addr value.Addr) { o.overflow = addr }

// ForEachSlot visits every inline slot (index, value); used by the
// Descriptor's ScanPointers and by debug dumps. Overflow slots are
// visited by PropertyStorage's own Descriptor, reached by scanning
// Object's overflow Addr field like any other outgoing pointer.
func (o *Object) ForEachSlot(fn func(index int, v *value.Value)) {
	fn(0, &o.slot0)
	fn(1, &o.slot1)
	fn(2, &o.slot2)
	fn(3, &o.slot3)
}

func cloneObject(c heap.Cell, newAddr value.Addr) heap.Cell {
	src := c.(*Object)
	clone := &Object{
		proto:      src.proto,
		class:      src.class,
		slot0:      src.slot0,
		slot1:      src.slot1,
		slot2:      src.slot2,
		slot3:      src.slot3,
		overflow:   src.overflow,
		extensible: src.extensible,
	}
	clone.hdr = src.hdr
	return clone
}

func scanObjectPointers(c heap.Cell, visit func(*value.Addr)) {
	o := c.(*Object)
	if o.proto.IsPointer() {
		addr := o.proto.AsAddr()
		visit(&addr)
		o.proto.Rewrite(addr)
	}
	visit(&o.class)
	for i := 0; i < NumInlineSlots; i++ {
		v := o.getInlineSlot(i)
		if v.IsPointer() {
			addr := v.AsAddr()
			visit(&addr)
			v.Rewrite(addr)
			o.setInlineSlot(i, v)
		}
	}
	if o.overflow != heap.NoAddr {
		visit(&o.overflow)
	}
}

// scanObjectSymbols marks any Symbol-kind Value held directly in an
// inline slot (a JS `Symbol()` stored as a property value). Property-name
// symbols live on the HiddenClass, not here, and are marked by its own
// ScanSymbols.
func scanObjectSymbols(c heap.Cell, visit func(id uint32)) {
	o := c.(*Object)
	for i := 0; i < NumInlineSlots; i++ {
		if v := o.getInlineSlot(i); v.IsSymbol() {
			visit(v.AsSymbol())
		}
	}
}

func init() {
	heap.RegisterDescriptor(&heap.Descriptor{
		Kind:         heap.CellObject,
		ScanPointers: scanObjectPointers,
		ScanSymbols:  scanObjectSymbols,
		Clone:        cloneObject,
	})
}
