package heap

import (
	"fmt"

	"github.com/ashlang/jsvmcore/internal/value"
)

// Config configures a Heap's sizing and behaviour, from the fields
// Runtime::create(config) exposes (spec §6.1): the old generation's
// initial and maximum segment counts and whether unused segments are
// released back to the storage provider instead of cached. It has no
// minimum-size or young-generation-size setting.
type Config struct {
	// MaxOldSegments bounds the old generation; exceeding it without
	// being able to grow raises OOM (spec §4.2.6).
	MaxOldSegments int
	// InitialOldSegments seeds the old generation before first use.
	InitialOldSegments int
	// ReleaseUnusedSegments controls whether fully-emptied segments are
	// returned to the StorageProvider (unmapped) instead of cached for
	// reuse (spec §4.2.4 step 7).
	ReleaseUnusedSegments bool
}

// DefaultConfig returns reasonable defaults for embedding use.
func DefaultConfig() Config {
	return Config{
		MaxOldSegments:     64,
		InitialOldSegments: 1,
	}
}

// StorageProvider is the external collaborator that owns raw segment
// memory (spec §4.6, §6.3). This core's segments are slot arenas rather
// than raw bytes (see address.go), so the provider here is asked for
// permission to materialize a new segment rather than for a byte buffer;
// a host embedding that wants real mmap-backed segments implements this
// to enforce its own memory accounting.
type StorageProvider interface {
	// NewSegment is asked before a new segment is materialised. Returning
	// false means "deny" (the caller treats it like an allocation
	// failure from an exhausted OS-level provider).
	NewSegment() bool
	// DeleteSegment is called when a segment is released back to the
	// provider (ReleaseUnusedSegments).
	DeleteSegment(id uint32)
}

type nullStorageProvider struct{}

func (nullStorageProvider) NewSegment() bool    { return true }
func (nullStorageProvider) DeleteSegment(uint32) {}

// FatalHandler is invoked for VM-internal invariant violations the heap
// cannot recover from (spec §7's "Fatal errors").
type FatalHandler func(reason string)

// Heap is the two-generation heap: a single bump-allocated young segment
// and a list of old-generation segments (spec §2, §4.2).
type Heap struct {
	cfg      Config
	storage  StorageProvider
	fatal    FatalHandler
	roots    []RootProvider
	weak     *weakTable
	nextSeg  uint32
	young    *Segment
	old      []*Segment // old[len-1] is always the active tail
	segments map[uint32]*Segment

	// Stats, surfaced through runtime.Runtime.Stats and recorded by
	// internal/snapshot.
	Stats Stats

	// identMark/identSweep hook the identifier table into full collection
	// (spec §4.2.4 step 6). Both are nil until a Runtime wires them via
	// SetIdentHooks; a Heap used standalone (as the collector's own unit
	// tests do) simply never sweeps identifiers.
	identMark  func(id uint32)
	identSweep func() int
}

// SetIdentHooks wires the identifier table's mark/sweep into full
// collection. mark records that id was observed reachable during the
// current trace; sweep runs once, after marking and relocation complete,
// and should return (or just perform) the drop of every unmarked,
// non-reserved, non-externally-held entry.
func (h *Heap) SetIdentHooks(mark func(id uint32), sweep func() int) {
	h.identMark = mark
	h.identSweep = sweep
}

// Stats accumulates collector counters for observability.
type Stats struct {
	YoungCollections int
	FullCollections  int
	BytesPromoted    int // counted in slots, not bytes, given the slot arena model
	SegmentsCreated  int
	SegmentsReleased int
}

// New creates a heap with the given config. storage/fatal may be nil to
// use permissive defaults (an embedder that never denies segment growth,
// and a fatal handler that panics).
func New(cfg Config, storage StorageProvider, fatal FatalHandler) *Heap {
	if storage == nil {
		storage = nullStorageProvider{}
	}
	if fatal == nil {
		fatal = func(reason string) { panic("heap fatal: " + reason) }
	}
	h := &Heap{
		cfg:      cfg,
		storage:  storage,
		fatal:    fatal,
		weak:     newWeakTable(),
		segments: make(map[uint32]*Segment),
	}
	h.young = h.newSegmentLocked(Young)
	for i := 0; i < cfg.InitialOldSegments; i++ {
		h.old = append(h.old, h.newSegmentLocked(Old))
	}
	if len(h.old) == 0 {
		h.old = append(h.old, h.newSegmentLocked(Old))
	}
	return h
}

func (h *Heap) newSegmentLocked(gen Generation) *Segment {
	id := h.nextSeg
	h.nextSeg++
	seg := newSegment(id, gen)
	h.segments[id] = seg
	h.Stats.SegmentsCreated++
	return seg
}

// AddRootProvider registers a native root source (spec §4.3). The value
// stack, scoped handle tables and fixed runtime slots each register
// themselves through this during Runtime construction.
func (h *Heap) AddRootProvider(p RootProvider) {
	h.roots = append(h.roots, p)
}

// Resolve returns the cell currently stored at addr, following a
// forwardingCell if one is stored there. The collectors record moves in
// their own maps and install no forwardingCell, so an Addr held across a
// collection is not forwarded: it fails fatally once its segment or slot
// is gone, and otherwise resolves to whatever now occupies that slot.
// Collection is stop-the-world and every root-visible Value is rewritten
// before mutator code resumes, so only a raw Addr cached outside the
// roots is exposed to this.
func (h *Heap) Resolve(addr value.Addr) Cell {
	seg, ok := h.segments[SegmentOf(addr)]
	if !ok {
		h.fatal(fmt.Sprintf("heap: dangling segment for addr %#x", addr))
		return nil
	}
	slot := SlotOf(addr)
	if slot >= uint32(len(seg.cells)) {
		h.fatal(fmt.Sprintf("heap: dangling slot for addr %#x", addr))
		return nil
	}
	c := seg.get(slot)
	if fc, ok := c.(*forwardingCell); ok {
		return h.Resolve(fc.to)
	}
	return c
}

// Allocate requests space for a new cell in the young generation,
// triggering a young collection and retrying once on failure, per §4.2.1.
// The supplied factory is called with the Addr the cell will live at so
// cells that embed their own address (rare, but some descriptors use it
// for debug dumps) can record it.
func (h *Heap) Allocate(kind CellKind, hasFinalizer bool, factory func(value.Addr) Cell) value.Addr {
	addr, ok := h.tryAllocYoung(kind, hasFinalizer, factory)
	if ok {
		return addr
	}
	h.YoungCollect()
	addr, ok = h.tryAllocYoung(kind, hasFinalizer, factory)
	if ok {
		return addr
	}
	// The young generation cannot fit this cell even when empty (an
	// oversized single allocation); promote it straight into the old
	// generation instead of looping forever.
	return h.allocateOld(kind, hasFinalizer, factory)
}

func (h *Heap) tryAllocYoung(kind CellKind, hasFinalizer bool, factory func(value.Addr) Cell) (value.Addr, bool) {
	if h.young.full() {
		return value.NoAddr, false
	}
	slot := uint32(len(h.young.cells))
	addr := PackAddr(h.young.id, slot)
	c := factory(addr)
	c.GCHeader().kind = kind
	c.GCHeader().hasFinal = hasFinalizer
	ref := h.young.alloc(c)
	if hasFinalizer {
		h.young.finalizable[SlotOf(ref.Addr)] = true
	}
	return ref.Addr, true
}

// AllocateTenured allocates directly into the old generation, bypassing
// the nursery. Used for cells the bytecode provider/runtime know will
// outlive the young generation anyway (the global object, the identifier
// table's backing cells) to avoid needless promotion churn.
func (h *Heap) AllocateTenured(kind CellKind, hasFinalizer bool, factory func(value.Addr) Cell) value.Addr {
	return h.allocateOld(kind, hasFinalizer, factory)
}

func (h *Heap) allocateOld(kind CellKind, hasFinalizer bool, factory func(value.Addr) Cell) value.Addr {
	active := h.old[len(h.old)-1]
	if active.full() {
		h.growOld()
		active = h.old[len(h.old)-1]
	}
	slot := uint32(len(active.cells))
	addr := PackAddr(active.id, slot)
	c := factory(addr)
	c.GCHeader().kind = kind
	c.GCHeader().hasFinal = hasFinalizer
	ref := active.alloc(c)
	if hasFinalizer {
		active.finalizable[SlotOf(ref.Addr)] = true
	}
	return ref.Addr
}

// growOld materialises a new active old-generation segment, running a
// full collection first if the configured maximum would be exceeded
// (spec §4.2.2/§4.2.6).
func (h *Heap) growOld() {
	if len(h.old) >= h.cfg.MaxOldSegments {
		h.FullCollect()
		if len(h.old) >= h.cfg.MaxOldSegments {
			h.fatal("out of memory: old generation at configured maximum")
		}
		if !h.old[len(h.old)-1].full() {
			return
		}
	}
	if !h.storage.NewSegment() {
		h.FullCollect()
		if !h.storage.NewSegment() {
			h.fatal("out of memory: storage provider denied new segment")
		}
	}
	h.old = append(h.old, h.newSegmentLocked(Old))
}

// OldSegmentCount reports how many old-generation segments currently exist.
func (h *Heap) OldSegmentCount() int { return len(h.old) }

// YoungSegment exposes the nursery for diagnostics (internal/inspect,
// internal/rtlog summaries).
func (h *Heap) YoungSegment() *Segment { return h.young }
