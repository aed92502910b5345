package interp

import (
	"strconv"

	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/value"
)

// maxProtoChainDepth bounds the [[Prototype]] walk so a cyclic chain
// (which SetPrototype does not itself forbid, per object.go's doc
// comment) turns into a thrown error instead of an infinite loop.
const maxProtoChainDepth = 4096

// protoOf returns v's [[Prototype]], or Undef for anything that is not
// an object-kind heap pointer.
func (m *Machine) protoOf(v value.Value) value.Value {
	if !v.IsObject() {
		return value.Undef
	}
	switch c := m.Heap.Resolve(v.AsAddr()).(type) {
	case *object.Object:
		return c.Prototype()
	case *object.Array:
		return c.Prototype()
	case *object.Error:
		return c.Prototype()
	case *object.Function:
		return c.Prototype()
	case *object.NativeFunction:
		return c.Prototype()
	default:
		return value.Undef
	}
}

// readSlotted looks up symbol against cls, reading through the inline
// slots or the overflow PropertyStorage cell as the descriptor's slot
// index dictates.
func (m *Machine) readSlotted(classAddr value.Addr, symbol uint32, getSlot func(int) value.Value, overflowAddr value.Addr) (value.Value, bool) {
	cls := m.resolveClass(classAddr)
	desc, ok := cls.Lookup(symbol)
	if !ok {
		return value.Undef, false
	}
	if desc.Slot < object.NumInlineSlots {
		return getSlot(desc.Slot), true
	}
	if overflowAddr == heap.NoAddr {
		return value.Undef, false
	}
	ps := m.Heap.Resolve(overflowAddr).(*object.PropertyStorage)
	return ps.Get(desc.Slot - object.NumInlineSlots), true
}

// writeSlotted stores val for symbol on a holder living at holderAddr,
// creating a hidden-class transition and/or overflow storage as needed,
// and returns the (possibly new) class Addr the caller must write back
// onto the holder via setClass.
func (m *Machine) writeSlotted(
	holderAddr, classAddr value.Addr,
	symbol uint32,
	val value.Value,
	getSlot func(int) value.Value,
	setSlot func(int, value.Value),
	overflowAddr value.Addr,
	setOverflow func(value.Addr),
) value.Addr {
	cls := m.resolveClass(classAddr)
	desc, ok := cls.Lookup(symbol)
	newClassAddr := classAddr
	if !ok {
		flags := object.FlagWritable | object.FlagEnumerable | object.FlagConfigurable
		var slot int
		newClassAddr, slot = m.addProperty(classAddr, symbol, flags)
		desc = object.PropertyDescriptor{Slot: slot, Flags: flags}
	}
	if desc.Slot < object.NumInlineSlots {
		setSlot(desc.Slot, val)
		m.Heap.WriteBarrier(holderAddr, val)
		return newClassAddr
	}
	overflowIdx := desc.Slot - object.NumInlineSlots
	if overflowAddr == heap.NoAddr {
		overflowAddr = m.Heap.Allocate(heap.CellPropertyStorage, false, func(value.Addr) heap.Cell {
			return object.NewPropertyStorage(overflowIdx + 1)
		})
		setOverflow(overflowAddr)
		// overflow is a raw Addr field, not a Value-typed slot, so it never
		// goes through WriteBarrier's normal path; FromAddr here is only a
		// vehicle to run the same old-into-young check against it.
		m.Heap.WriteBarrier(holderAddr, value.FromAddr(value.Object, overflowAddr))
	}
	ps := m.Heap.Resolve(overflowAddr).(*object.PropertyStorage)
	ps.Set(overflowIdx, val)
	m.Heap.WriteBarrier(overflowAddr, val)
	return newClassAddr
}

// noPropCache marks a put-by-id call site with no real bytecode cache
// slot to record against (put-by-val's receiver-coerced symbol and the
// host-side SetProperty/object-literal paths have no cache index at all
// — spec §4.4.4/§4.4.5 tie the cache table to get-by-id/put-by-id call
// sites specifically).
const noPropCache = ^uint16(0)

// writeSlottedCaching implements put-by-id's inline-cache fast path
// (spec §4.4.5), mirroring getByIDCaching on the write side: a cache hit
// writes the recorded slot directly, skipping the HiddenClass map lookup
// entirely; a miss falls through to the ordinary writeSlotted path and,
// if the write lands on a stable (non-dictionary) class, records the
// observed (class, slot) pair so the next write on a same-shaped
// receiver hits.
func (m *Machine) writeSlottedCaching(
	holderAddr, classAddr value.Addr,
	symbol uint32,
	val value.Value,
	getSlot func(int) value.Value,
	setSlot func(int, value.Value),
	overflowAddr value.Addr,
	setOverflow func(value.Addr),
	cacheID uint16,
) value.Addr {
	if cacheID != noPropCache {
		if slot, hit := m.cacheLookup(cacheID, classAddr); hit {
			if slot < object.NumInlineSlots {
				setSlot(slot, val)
				m.Heap.WriteBarrier(holderAddr, val)
				return classAddr
			}
			if overflowAddr != heap.NoAddr {
				ps := m.Heap.Resolve(overflowAddr).(*object.PropertyStorage)
				ps.Set(slot-object.NumInlineSlots, val)
				m.Heap.WriteBarrier(overflowAddr, val)
				return classAddr
			}
		}
	}
	newClassAddr := m.writeSlotted(holderAddr, classAddr, symbol, val, getSlot, setSlot, overflowAddr, setOverflow)
	if cacheID != noPropCache {
		cls := m.resolveClass(newClassAddr)
		if desc, ok := cls.Lookup(symbol); ok && !cls.IsDictionary() {
			m.cacheStore(cacheID, newClassAddr, desc.Slot)
		}
	}
	return newClassAddr
}

// getOwnProperty probes v's own properties (no prototype walk), dispatching
// on cell kind. Array and Function carry a HiddenClass for bookkeeping
// symmetry but this core does not route named-property storage through
// it (spec §3.3 singles out dedicated array storage for indexed elements
// only), so a named-property probe on them misses, apart from a
// Function's "name"; indexed array access goes through GetByVal, not
// GetById.
func (m *Machine) getOwnProperty(v value.Value, symbol uint32) (value.Value, bool) {
	if !v.IsObject() {
		return value.Undef, false
	}
	switch o := m.Heap.Resolve(v.AsAddr()).(type) {
	case *object.Object:
		return m.readSlotted(o.ClassAddr(), symbol, o.Slot, o.OverflowAddr())
	case *object.Error:
		if sym, ok := m.wellKnown["message"]; ok && symbol == sym {
			return o.Message, true
		}
		if sym, ok := m.wellKnown["stack"]; ok && symbol == sym {
			return o.Stack, true
		}
		return m.readSlotted(o.ClassAddr(), symbol, o.Slot, o.OverflowAddr())
	case *object.Function:
		if sym, ok := m.wellKnown["name"]; ok && symbol == sym {
			return o.Name(), true
		}
	}
	return value.Undef, false
}

// slottedHolder exposes the (HiddenClass Addr, inline-slot accessor,
// overflow Addr) triple for receiver kinds whose named properties live
// on a HiddenClass-governed slot layout (spec §3.3). Array and Function
// are deliberately excluded, per getOwnProperty's doc comment: inline
// caching a call site only pays off for receivers it can actually cache
// against.
func (m *Machine) slottedHolder(v value.Value) (classAddr value.Addr, getSlot func(int) value.Value, overflowAddr value.Addr, ok bool) {
	if !v.IsObject() {
		return 0, nil, 0, false
	}
	switch o := m.Heap.Resolve(v.AsAddr()).(type) {
	case *object.Object:
		return o.ClassAddr(), o.Slot, o.OverflowAddr(), true
	case *object.Error:
		return o.ClassAddr(), o.Slot, o.OverflowAddr(), true
	default:
		return 0, nil, 0, false
	}
}

// getByIDCaching implements get-by-id's inline-cache fast path (spec
// §4.4.5): a cache hit reads the recorded slot directly, skipping the
// HiddenClass map lookup entirely; a miss falls through to the ordinary
// own-property-then-prototype-chain walk and, if the receiver's class is
// stable (not mid-transition, not dictionary mode), records the observed
// (class, slot) pair so the next access on a same-shaped receiver hits.
func (m *Machine) getByIDCaching(receiver value.Value, symbol uint32, cacheID uint16) (value.Value, bool) {
	classAddr, getSlot, overflowAddr, cacheable := m.slottedHolder(receiver)
	if cacheable {
		if slot, hit := m.cacheLookup(cacheID, classAddr); hit {
			if slot < object.NumInlineSlots {
				return getSlot(slot), true
			}
			if overflowAddr != heap.NoAddr {
				ps := m.Heap.Resolve(overflowAddr).(*object.PropertyStorage)
				return ps.Get(slot - object.NumInlineSlots), true
			}
		}
		cls := m.resolveClass(classAddr)
		if desc, ok := cls.Lookup(symbol); ok {
			if !cls.IsDictionary() {
				m.cacheStore(cacheID, classAddr, desc.Slot)
			}
			if desc.Slot < object.NumInlineSlots {
				return getSlot(desc.Slot), true
			}
			if overflowAddr == heap.NoAddr {
				return value.Undef, false
			}
			ps := m.Heap.Resolve(overflowAddr).(*object.PropertyStorage)
			return ps.Get(desc.Slot - object.NumInlineSlots), true
		}
	}
	if v, ok := m.getOwnProperty(receiver, symbol); ok {
		return v, true
	}
	proto := m.protoOf(receiver)
	if proto.IsUndefined() || proto.IsNull() {
		return value.Undef, false
	}
	v := m.getProperty(proto, symbol)
	return v, !v.IsUndefined()
}

// getProperty implements get-by-id/get-by-val's common receiver-then-
// prototype-chain walk (spec §4.4.4).
func (m *Machine) getProperty(receiver value.Value, symbol uint32) value.Value {
	cur := receiver
	for depth := 0; depth < maxProtoChainDepth; depth++ {
		if v, ok := m.getOwnProperty(cur, symbol); ok {
			return v
		}
		next := m.protoOf(cur)
		if next.IsUndefined() || next.IsNull() {
			break
		}
		cur = next
	}
	return value.Undef
}

// putProperty implements put-by-id (spec §4.4.4): always defines/updates
// an own property on receiver itself (no prototype-chain shadowing
// check beyond what a real engine's [[Set]] would add, which this core
// does not implement). strict mode rejects the write with a thrown TypeError
// when receiver cannot hold named properties at all or has been made
// non-extensible and does not already own the property. cacheID is the
// bytecode call site's inline-cache slot, or noPropCache for callers
// with no cache index (put-by-val, host-initiated writes).
func (m *Machine) putProperty(receiver value.Value, symbol uint32, val value.Value, strict bool, cacheID uint16) bool {
	if !receiver.IsObject() {
		if strict {
			m.throwTypeError("cannot set property of non-object")
			return false
		}
		return true
	}
	addr := receiver.AsAddr()
	switch o := m.Heap.Resolve(addr).(type) {
	case *object.Object:
		if !o.Extensible() {
			if _, has := m.resolveClass(o.ClassAddr()).Lookup(symbol); !has {
				if strict {
					m.throwTypeError("cannot add property to non-extensible object")
					return false
				}
				return true
			}
		}
		newClass := m.writeSlottedCaching(addr, o.ClassAddr(), symbol, val, o.Slot, o.SetSlot, o.OverflowAddr(), o.SetOverflowAddr, cacheID)
		o.SetClassAddr(newClass)
		return true
	case *object.Error:
		if sym, ok := m.wellKnown["message"]; ok && symbol == sym {
			o.Message = val
			m.Heap.WriteBarrier(addr, val)
			return true
		}
		if sym, ok := m.wellKnown["stack"]; ok && symbol == sym {
			o.Stack = val
			m.Heap.WriteBarrier(addr, val)
			return true
		}
		newClass := m.writeSlottedCaching(addr, o.ClassAddr(), symbol, val, o.Slot, o.SetSlot, o.OverflowAddr(), o.SetOverflowAddr, cacheID)
		o.SetClassAddr(newClass)
		return true
	default:
		if strict {
			m.throwTypeError("cannot set named property on this value")
			return false
		}
		return true
	}
}

// delProperty implements del-by-id (spec §4.4.4's DelById): removing an
// own property always forces the holder's hidden class into dictionary
// mode (spec §3.3/§4.5 — deletion is one of the three dictionary-mode
// triggers), since a shared transition-tree class cannot selectively
// forget one property without invalidating every sibling object still
// using it.
func (m *Machine) delProperty(receiver value.Value, symbol uint32) value.Value {
	if !receiver.IsObject() {
		return value.True
	}
	addr := receiver.AsAddr()
	switch o := m.Heap.Resolve(addr).(type) {
	case *object.Object:
		o.SetClassAddr(m.deleteProperty(o.ClassAddr(), symbol))
		return value.True
	case *object.Array:
		o.SetClassAddr(m.deleteProperty(o.ClassAddr(), symbol))
		return value.True
	case *object.Error:
		o.SetClassAddr(m.deleteProperty(o.ClassAddr(), symbol))
		return value.True
	default:
		return value.True
	}
}

// arrayIndex reports whether key names a valid array index, per the
// fast path get-by-val/put-by-val take on dense Array cells (spec
// §4.4.4's "fully generic computed lookup with string/index coercion").
func (m *Machine) arrayIndex(key value.Value) (int, bool) {
	if key.IsNumber() {
		n := key.AsNumber()
		i := int(n)
		if float64(i) == n && i >= 0 {
			return i, true
		}
		return 0, false
	}
	if key.IsString() {
		s := m.stringContent(key)
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || strconv.Itoa(n) != s {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// getByVal implements get-by-val's generic computed lookup (spec
// §4.4.4): numeric/numeric-string keys against a dense Array take the
// indexed fast path; everything else coerces the key to a string and
// falls back to the named-property path, including the prototype walk.
func (m *Machine) getByVal(receiver, key value.Value) value.Value {
	if receiver.IsObject() {
		if arr, ok := m.Heap.Resolve(receiver.AsAddr()).(*object.Array); ok {
			if idx, ok := m.arrayIndex(key); ok {
				v := arr.Get(idx)
				if v.IsEmpty() {
					return value.Undef
				}
				return v
			}
		}
	}
	symbol := m.internIdent0(m.toStringValue(key))
	return m.getProperty(receiver, symbol)
}

// putByVal implements put-by-val's generic computed store, symmetric
// with getByVal's indexed-fast-path/named-fallback split.
func (m *Machine) putByVal(receiver, key, val value.Value, strict bool) bool {
	if receiver.IsObject() {
		if arr, ok := m.Heap.Resolve(receiver.AsAddr()).(*object.Array); ok {
			if idx, ok := m.arrayIndex(key); ok {
				arr.Set(idx, val)
				m.Heap.WriteBarrier(receiver.AsAddr(), val)
				return true
			}
		}
	}
	symbol := m.internIdent0(m.toStringValue(key))
	return m.putProperty(receiver, symbol, val, strict, noPropCache)
}

// internIdent0 interns an already-materialized Go string directly,
// distinct from internIdent which resolves a module string-table index
// first (spec §3.8: get-by-val's key is a runtime value, not a
// compile-time string-table reference).
func (m *Machine) internIdent0(s string) uint32 {
	return m.Idents.Intern(s)
}
