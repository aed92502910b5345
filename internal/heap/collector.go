package heap

import "github.com/ashlang/jsvmcore/internal/value"

// FullCollect runs a full mark-sweep-compact collection over the old
// generation (spec §4.2.4). It first runs a minor collection so every
// live young cell is promoted and the nursery is empty, then traces the
// old generation from roots, relocating every reachable cell into a
// fresh, densely packed set of segments — compaction is implemented as a
// copying pass rather than in-place sliding, which gives the same "no
// holes survive" result with the same evacuate/rewrite machinery already
// used for promotion (see young.go).
func (h *Heap) FullCollect() {
	h.YoungCollect()
	h.Stats.FullCollections++

	oldSegs := h.old
	oldSegSet := make(map[uint32]*Segment, len(oldSegs))
	for _, s := range oldSegs {
		oldSegSet[s.id] = s
	}

	newOld := []*Segment{h.newSegmentLocked(Old)}
	relocated := make(map[value.Addr]value.Addr)
	var queue []value.Addr

	activeTail := func() *Segment { return newOld[len(newOld)-1] }
	growNew := func() *Segment {
		seg := h.newSegmentLocked(Old)
		newOld = append(newOld, seg)
		return seg
	}

	relocate := func(addr value.Addr) value.Addr {
		if _, isOld := oldSegSet[SegmentOf(addr)]; !isOld {
			return addr // not an old-gen address (e.g. already relocated, or invalid)
		}
		if newAddr, ok := relocated[addr]; ok {
			return newAddr
		}
		seg := oldSegSet[SegmentOf(addr)]
		c := seg.get(SlotOf(addr))
		d := DescriptorFor(c.CellKind())

		active := activeTail()
		if active.full() {
			active = growNew()
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

		relocated[addr] = newAddr
		queue = append(queue, newAddr)
		return newAddr
	}

	markSymbol := func(id uint32) {
		if h.identMark != nil {
			h.identMark(id)
		}
	}

	visit := func(v *value.Value) {
		if v.IsSymbol() {
			markSymbol(v.AsSymbol())
			return
		}
		if !v.IsPointer() {
			return
		}
		v.Rewrite(relocate(v.AsAddr()))
	}
	h.walkRoots(visit)

	for len(queue) > 0 {
		addr := queue[0]
		queue = queue[1:]
		seg := h.segments[SegmentOf(addr)] // already in newOld, registered via newSegmentLocked
		c := seg.get(SlotOf(addr))
		d := DescriptorFor(c.CellKind())
		if d == nil {
			continue
		}
		if d.ScanPointers != nil {
			d.ScanPointers(c, func(slot *value.Addr) {
				*slot = relocate(*slot)
			})
		}
		if d.ScanSymbols != nil {
			d.ScanSymbols(c, markSymbol)
		}
	}

	h.clearDeadWeakRefs(func(addr value.Addr) bool {
		if _, isOld := oldSegSet[SegmentOf(addr)]; !isOld {
			return true
		}
		_, ok := relocated[addr]
		return ok
	})
	h.rewriteLiveWeakRefs(func(addr value.Addr) value.Addr {
		if newAddr, ok := relocated[addr]; ok {
			return newAddr
		}
		return addr
	})

	var dead []Cell
	for _, seg := range oldSegs {
		for slot := uint32(0); slot < seg.Len(); slot++ {
			addr := PackAddr(seg.id, slot)
			if _, ok := relocated[addr]; ok {
				continue
			}
			if seg.finalizable[slot] {
				dead = append(dead, seg.get(slot))
			}
		}
	}
	runFinalizers(dead)

	for _, seg := range oldSegs {
		delete(h.segments, seg.id)
		h.Stats.SegmentsReleased++
		if h.cfg.ReleaseUnusedSegments {
			h.storage.DeleteSegment(seg.id)
		}
	}
	h.old = newOld

	// Identifier-table sweep (spec §4.2.4 step 6) runs last: every id
	// still reachable from a root or a relocated cell has been marked
	// used above, so anything left unmarked is safe to drop.
	if h.identSweep != nil {
		h.identSweep()
	}
}
