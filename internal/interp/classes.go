package interp

import (
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/value"
)

// resolveClass dereferences a HiddenClass Addr. Panics (via the type
// assertion) on a corrupt address, the same debug-assert posture
// internal/value takes on a kind mismatch.
func (m *Machine) resolveClass(addr value.Addr) *object.HiddenClass {
	return m.Heap.Resolve(addr).(*object.HiddenClass)
}

// allocHiddenClass tenures a blank HiddenClass cell. Classes always live
// in the old generation: they are shared, long-lived, and the transition
// tree they form would otherwise pin down whole young-generation
// sub-graphs every minor collection (spec §4.5 expects class nodes to
// persist across the objects that momentarily reference them).
func (m *Machine) allocHiddenClass() value.Addr {
	return m.Heap.AllocateTenured(heap.CellHiddenClass, false, func(addr value.Addr) heap.Cell {
		return object.NewRootHiddenClass(addr)
	})
}

// addProperty finds or creates the hidden-class transition edge for
// adding symbol with flags to a holder currently on classAddr, returning
// the class to store back on the holder and the property's slot index
// (spec §4.5's add_property/find_property operations).
func (m *Machine) addProperty(classAddr value.Addr, symbol uint32, flags object.PropertyFlags) (value.Addr, int) {
	cls := m.resolveClass(classAddr)
	if cls.IsDictionary() {
		return classAddr, cls.AddDictionaryProperty(symbol, flags)
	}
	child := cls.TransitionFor(symbol, flags, func(int) value.Addr { return m.allocHiddenClass() }, m.resolveClass)
	if child.IsDictionary() {
		// transitionFor hit the transition-depth cap and returned a fresh
		// dictionary-mode copy of cls without symbol; add it now.
		return child.Addr, child.AddDictionaryProperty(symbol, flags)
	}
	desc, _ := child.Lookup(symbol)
	return child.Addr, desc.Slot
}

// deleteProperty removes symbol from a holder's own properties. Only
// dictionary-mode classes support deletion without forcing every sibling
// object off a shared class (spec §3.4's transition-tree tradeoff); a
// delete on a transition-tree class first copies it into a fresh
// dictionary-mode class owned by this holder alone, keeping every slot
// index, so sibling objects still on the shared class keep the property.
func (m *Machine) deleteProperty(classAddr value.Addr, symbol uint32) value.Addr {
	cls := m.resolveClass(classAddr)
	if !cls.IsDictionary() {
		// OwnSymbols lists a transition-tree class's properties in slot
		// order (slots 0..n-1), so re-adding them in that order gives each
		// the same slot in the copy.
		own := m.resolveClass(m.allocHiddenClass()).ConvertToDictionary()
		for _, sym := range cls.OwnSymbols() {
			desc, _ := cls.Lookup(sym)
			own.AddDictionaryProperty(sym, desc.Flags)
		}
		cls = own
	}
	cls.DeleteDictionaryProperty(symbol)
	return cls.Addr
}
