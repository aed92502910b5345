package heap

import "github.com/ashlang/jsvmcore/internal/value"

// Generation names which generation a segment belongs to.
type Generation uint8

const (
	// Young is the single bump-allocated nursery segment.
	Young Generation = iota
	// Old is a fixed-size aligned segment belonging to the mark-sweep(-compact) generation.
	Old
)

func (g Generation) String() string {
	if g == Young {
		return "young"
	}
	return "old"
}

// Segment is a fixed-capacity, size-aligned region of the heap (spec
// §3.6). Its cells slice is the payload; level is the bump-allocation
// point; cards implement the remembered set (spec §3.7).
type Segment struct {
	id         uint32
	generation Generation
	cells      []Cell
	level      uint32 // number of slots currently allocated (== len(cells))

	cards []byte // one byte per CardSlots run, dirty flag

	// finalizable holds the slot indices of cells in this segment that
	// carry a finalizer, so sweep/evacuation can visit only those.
	finalizable map[uint32]bool
}

func newSegment(id uint32, gen Generation) *Segment {
	cardCount := (SegmentSlotCount + CardSlots - 1) / CardSlots
	return &Segment{
		id:          id,
		generation:  gen,
		cells:       make([]Cell, 0, 256),
		cards:       make([]byte, cardCount),
		finalizable: make(map[uint32]bool),
	}
}

// ID returns the segment's identifier, which is also the high bits of
// every Addr allocated in it.
func (s *Segment) ID() uint32 { return s.id }

// Generation returns which generation owns this segment.
func (s *Segment) Generation() Generation { return s.generation }

// Len returns the number of live-or-dead slots allocated so far.
func (s *Segment) Len() uint32 { return s.level }

// full reports whether the segment has no more room for another cell.
func (s *Segment) full() bool { return s.level >= SegmentSlotCount }

// alloc appends a cell, returning its packed Addr. Panics if the segment
// is full; callers must check full() (or catch the panic to mean
// "segment exhausted", mirroring the spec's allocate() failure contract
// at the generation level rather than the segment level).
func (s *Segment) alloc(c Cell) PackedRef {
	if s.full() {
		panic("heap: segment exhausted")
	}
	slot := uint32(len(s.cells))
	s.cells = append(s.cells, c)
	s.level = uint32(len(s.cells))
	return PackedRef{Addr: PackAddr(s.id, slot), Cell: c}
}

// get returns the cell stored at slot.
func (s *Segment) get(slot uint32) Cell { return s.cells[slot] }

// set overwrites the cell stored at slot. The collectors do not call it:
// evacuation and compaction copy cells into fresh slots and record the
// moves in their own maps.
func (s *Segment) set(slot uint32, c Cell) { s.cells[slot] = c }

// dirtyCard marks the card covering slot as containing an old-to-young
// pointer.
func (s *Segment) dirtyCard(slot uint32) {
	s.cards[CardIndexOf(slot)] = 1
}

// clearCards resets every card to clean, e.g. after a young collection
// has evacuated everything those cards pointed at.
func (s *Segment) clearCards() {
	for i := range s.cards {
		s.cards[i] = 0
	}
}

// dirtyCards returns every live slot covered by a dirty card, letting
// the caller scan each cell's outgoing pointers directly. A card here
// covers CardSlots consecutive cells (spec §3.7's "byte region"
// degenerates to a fixed run of cells in this slot-arena model, since
// one cell is always exactly one slot — see address.go), so every slot
// in a dirty card's range is itself a live cell header, not just the
// first one allocated into it; returning only the boundary slot would
// silently skip the other CardSlots-1 cells sharing that card.
func (s *Segment) dirtyCards() []uint32 {
	var out []uint32
	for i, c := range s.cards {
		if c == 0 {
			continue
		}
		start := uint32(i) * CardSlots
		end := start + CardSlots
		if end > s.level {
			end = s.level
		}
		for slot := start; slot < end; slot++ {
			out = append(out, slot)
		}
	}
	return out
}

// reset clears a segment back to empty, reused by young-gen collection
// (spec §4.2.3 step 5: "reset the young bump pointer").
func (s *Segment) reset() {
	s.cells = s.cells[:0]
	s.level = 0
	s.clearCards()
	s.finalizable = make(map[uint32]bool)
}

// PackedRef bundles an Addr with the Cell stored there, returned by
// allocation paths so callers don't need a second lookup.
type PackedRef struct {
	Addr value.Addr
	Cell Cell
}
