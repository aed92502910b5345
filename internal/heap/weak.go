package heap

import "github.com/ashlang/jsvmcore/internal/value"

// weakSlot is one entry in the weak reference table (spec §4.5): target
// is the address being weakly observed, and cleared records that a
// collection found the target dead.
type weakSlot struct {
	target  value.Addr
	cleared bool
}

// weakTable tracks every live weak reference so a collection can clear
// the ones whose target didn't survive, strictly before running
// finalizers in the same collection (the Open Question resolution
// recorded in SPEC_FULL.md/DESIGN.md: a finalizer must never observe a
// target through a weak slot that collection itself is about to
// invalidate).
type weakTable struct {
	slots map[uint64]*weakSlot
	next  uint64
}

func newWeakTable() *weakTable {
	return &weakTable{slots: make(map[uint64]*weakSlot)}
}

// WeakHandle identifies one registered weak slot.
type WeakHandle uint64

// RegisterWeak records a new weak reference to target, returning a
// handle the object model stores inside its WeakRef/WeakMap/WeakSet cell.
func (h *Heap) RegisterWeak(target value.Addr) WeakHandle {
	id := h.weak.next
	h.weak.next++
	h.weak.slots[id] = &weakSlot{target: target}
	return WeakHandle(id)
}

// ResolveWeak returns the current target and whether the slot is still
// live. A cleared slot returns (value.NoAddr, false).
func (h *Heap) ResolveWeak(handle WeakHandle) (value.Addr, bool) {
	s, ok := h.weak.slots[uint64(handle)]
	if !ok || s.cleared {
		return value.NoAddr, false
	}
	return s.target, true
}

// UnregisterWeak drops a weak slot entirely, e.g. when its owning
// WeakRef cell itself becomes unreachable and is collected — handled by
// the object model's Finalize hook for weak-kind cells rather than by
// the collector directly.
func (h *Heap) UnregisterWeak(handle WeakHandle) {
	delete(h.weak.slots, uint64(handle))
}

// clearDeadWeakRefs walks every weak slot and clears those whose target
// fails the given liveness check. isLive receives the raw Addr
// (pre-relocation) and answers from the current collection's relocation
// record (YoungCollect's forwarded map, FullCollect's relocated map).
func (h *Heap) clearDeadWeakRefs(isLive func(value.Addr) bool) {
	for _, s := range h.weak.slots {
		if s.cleared {
			continue
		}
		if !isLive(s.target) {
			s.cleared = true
			s.target = value.NoAddr
		}
	}
}

// rewriteLiveWeakRefs updates surviving weak slots to their relocated
// address after evacuation/compaction moves cells around. Must run after
// clearDeadWeakRefs and before finalizers in the same collection.
func (h *Heap) rewriteLiveWeakRefs(relocate func(value.Addr) value.Addr) {
	for _, s := range h.weak.slots {
		if s.cleared {
			continue
		}
		s.target = relocate(s.target)
	}
}
