package heap

import "github.com/ashlang/jsvmcore/internal/value"

// YoungCollect runs a minor collection (spec §4.2.3): every young cell
// still reachable from a root or from the remembered set is evacuated
// into the old generation (this core has no separate young-to-young
// "survivor" space; a cell that survives one young collection is
// promoted, matching the spec's note that promotion may happen on first
// survival). Unreachable young cells are discarded, their finalizers (if
// any) run, and the nursery's bump pointer resets to zero.
func (h *Heap) YoungCollect() {
	h.Stats.YoungCollections++

	forwarded := make(map[uint32]value.Addr) // young slot -> new old addr
	var queue []value.Addr

	evacuate := func(addr value.Addr) value.Addr {
		if SegmentOf(addr) != h.young.id {
			return addr
		}
		slot := SlotOf(addr)
		if newAddr, ok := forwarded[slot]; ok {
			return newAddr
		}
		c := h.young.get(slot)
		d := DescriptorFor(c.CellKind())
		newAddr := h.promoteOne(c, d)
		forwarded[slot] = newAddr
		queue = append(queue, newAddr)
		return newAddr
	}

	visit := func(v *value.Value) {
		if !v.IsPointer() {
			return
		}
		v.Rewrite(evacuate(v.AsAddr()))
	}

	h.walkRoots(visit)
	for _, remAddr := range h.RememberedSet() {
		seg := h.segments[SegmentOf(remAddr)]
		c := seg.get(SlotOf(remAddr))
		d := DescriptorFor(c.CellKind())
		if d == nil || d.ScanPointers == nil {
			continue
		}
		d.ScanPointers(c, func(slot *value.Addr) {
			*slot = evacuate(*slot)
		})
	}

	for len(queue) > 0 {
		addr := queue[0]
		queue = queue[1:]
		seg := h.segments[SegmentOf(addr)]
		c := seg.get(SlotOf(addr))
		d := DescriptorFor(c.CellKind())
		if d == nil || d.ScanPointers == nil {
			continue
		}
		d.ScanPointers(c, func(slot *value.Addr) {
			*slot = evacuate(*slot)
		})
	}

	h.clearDeadWeakRefs(func(addr value.Addr) bool {
		if SegmentOf(addr) != h.young.id {
			return true
		}
		_, ok := forwarded[SlotOf(addr)]
		return ok
	})
	h.rewriteLiveWeakRefs(func(addr value.Addr) value.Addr {
		if SegmentOf(addr) != h.young.id {
			return addr
		}
		if newAddr, ok := forwarded[SlotOf(addr)]; ok {
			return newAddr
		}
		return addr
	})

	var dead []Cell
	for slot := uint32(0); slot < h.young.Len(); slot++ {
		if _, ok := forwarded[slot]; ok {
			continue
		}
		if h.young.finalizable[slot] {
			dead = append(dead, h.young.get(slot))
		}
	}
	runFinalizers(dead)

	h.Stats.BytesPromoted += len(forwarded)
	h.young.reset()
	for _, seg := range h.old {
		seg.clearCards()
	}
}

// promoteOne clones c into the active old-generation segment and returns
// its new address, growing the old generation if necessary.
func (h *Heap) promoteOne(c Cell, d *Descriptor) value.Addr {
	active := h.old[len(h.old)-1]
	if active.full() {
		h.growOld()
		active = h.old[len(h.old)-1]
	}
	slot := uint32(active.Len())
	newAddr := PackAddr(active.id, slot)
	var clone Cell
	if d != nil && d.Clone != nil {
		clone = d.Clone(c, newAddr)
	} else {
		clone = c
	}
	hdr := clone.GCHeader()
	hdr.mark = false
	hdr.forwarded = false
	ref := active.alloc(clone)
	if hdr.hasFinal {
		active.finalizable[SlotOf(ref.Addr)] = true
	}
	return ref.Addr
}
