package heap

import "github.com/ashlang/jsvmcore/internal/value"

// SegmentSlotBits sizes how many cell slots a segment holds. Real
// JS engines size segments in bytes (spec §3.6, "typically 4 MiB") and
// align the segment's base address to its size so a pointer can be
// masked to find the segment header in O(1). This core allocates cells
// as typed Go values rather than raw bytes (§3.1's note on trivially
// copyable, collector-rewritable pointers is satisfied through Addr
// indirection instead of unsafe pointer arithmetic — see value.Addr's
// doc comment) so "segment size" here is a slot count, not a byte count;
// the masking property is preserved exactly: SegmentOf/SlotOf below are
// pure bit operations, O(1), with no search.
const SegmentSlotBits = 16

// SegmentSlotCount is the number of cell slots a single segment can hold.
const SegmentSlotCount = 1 << SegmentSlotBits

const segmentSlotMask = SegmentSlotCount - 1

// PackAddr builds the Addr for slot `slot` of segment `segID`.
func PackAddr(segID uint32, slot uint32) value.Addr {
	return value.Addr(uint64(segID)<<SegmentSlotBits | uint64(slot))
}

// SegmentOf extracts the segment id a pointer was allocated in.
func SegmentOf(a value.Addr) uint32 {
	return uint32(uint64(a) >> SegmentSlotBits)
}

// SlotOf extracts the slot index within its segment.
func SlotOf(a value.Addr) uint32 {
	return uint32(uint64(a) & segmentSlotMask)
}

// NoAddr re-exports value.NoAddr at package scope, since most heap
// package call sites (and every internal/object cell) spell it
// heap.NoAddr rather than reaching past the heap package into
// internal/value just for the zero Addr.
const NoAddr = value.NoAddr

// CardSlots is the number of cell slots covered by one card-table byte
// (spec §3.7 describes a card as covering a fixed-size byte region; here
// the region is a fixed-size run of slots).
const CardSlots = 32

// CardIndexOf returns the card index covering the given slot.
func CardIndexOf(slot uint32) uint32 {
	return slot / CardSlots
}
