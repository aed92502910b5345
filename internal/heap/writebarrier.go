package heap

import "github.com/ashlang/jsvmcore/internal/value"

// WriteBarrier must be called after storing newVal into a heap slot that
// lives at holderAddr (spec §4.2.5). It dirties the card covering
// holderAddr's slot whenever the store could have created an
// old-generation-to-young-generation pointer, so the next young
// collection's root scan can find it via the remembered set instead of
// tracing the entire old generation.
//
// Mutators call this through Heap rather than touching segments/cards
// directly so the "only old-into-young pointers are tracked" rule (spec
// §3.7) lives in exactly one place.
func (h *Heap) WriteBarrier(holderAddr value.Addr, newVal value.Value) {
	if !newVal.IsPointer() {
		return
	}
	targetAddr := newVal.AsAddr()
	targetSeg, ok := h.segments[SegmentOf(targetAddr)]
	if !ok {
		return
	}
	if targetSeg.Generation() != Young {
		return
	}
	holderSeg, ok := h.segments[SegmentOf(holderAddr)]
	if !ok {
		return
	}
	if holderSeg.Generation() != Old {
		return
	}
	holderSeg.dirtyCard(SlotOf(holderAddr))
}

// RememberedSet collects every old-generation cell covered by a dirty
// card, for the young collector's root scan (spec §4.2.3 step 2). Every
// live slot in a dirty card is returned, not just the card's first cell
// — a card covers CardSlots cells, and a write barrier dirties the card
// regardless of which of those cells was mutated.
func (h *Heap) RememberedSet() []value.Addr {
	var out []value.Addr
	for _, seg := range h.old {
		for _, slot := range seg.dirtyCards() {
			out = append(out, PackAddr(seg.id, slot))
		}
	}
	return out
}
