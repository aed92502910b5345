package heap_test

import (
	"testing"

	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/value"
)

func newTestHeap(t *testing.T) *heap.Heap {
	t.Helper()
	return heap.New(heap.DefaultConfig(), nil, func(reason string) {
		t.Fatalf("heap fatal: %s", reason)
	})
}

// tenureObject allocates a plain object directly in the old generation,
// standing in for a cell that survived a prior young collection.
func tenureObject(h *heap.Heap, classAddr value.Addr) value.Addr {
	return h.AllocateTenured(heap.CellObject, false, func(value.Addr) heap.Cell {
		return object.NewObject(value.Nul, classAddr)
	})
}

// TestWriteBarrierSurvivesYoungCollectionAcrossCard reproduces the
// scenario spec §8.1's "Card soundness" property guards against:
// promoting an object, filling the rest of its card with other
// old-generation cells, then writing a fresh young pointer into a slot
// that is not the card's first cell. RememberedSet must still surface
// that slot so YoungCollect evacuates (rather than discards) the young
// object it points to.
func TestWriteBarrierSurvivesYoungCollectionAcrossCard(t *testing.T) {
	h := newTestHeap(t)
	classAddr := h.AllocateTenured(heap.CellHiddenClass, false, func(addr value.Addr) heap.Cell {
		return object.NewRootHiddenClass(addr)
	})

	// The class cell holds slot 0; fill slots 1..5 with unrelated cells so
	// the object under test (slot 6) is not the card's first ("boundary")
	// slot.
	for i := 0; i < 5; i++ {
		tenureObject(h, classAddr)
	}
	aAddr := tenureObject(h, classAddr)
	// Fill the rest of the card (slots 7..31, with the last filler spilling
	// into slot 32 of the next card) so the whole card is one dirty region
	// once A's slot is written.
	for i := 0; i < heap.CardSlots-6; i++ {
		tenureObject(h, classAddr)
	}

	young := h.Allocate(heap.CellObject, false, func(value.Addr) heap.Cell {
		return object.NewObject(value.Nul, classAddr)
	})
	if heap.SegmentOf(young) != h.YoungSegment().ID() {
		t.Fatalf("test setup: expected a fresh allocation to land in the young generation")
	}

	aObj := h.Resolve(aAddr).(*object.Object)
	val := value.FromAddr(value.Object, young)
	aObj.SetSlot(0, val)
	h.WriteBarrier(aAddr, val)

	h.YoungCollect()

	if h.Stats.YoungCollections != 1 {
		t.Fatalf("YoungCollections = %d, want 1", h.Stats.YoungCollections)
	}

	got := aObj.Slot(0)
	if !got.IsPointer() {
		t.Fatalf("A's slot after young collection is not a pointer: %v", got)
	}
	gotAddr := got.AsAddr()
	if heap.SegmentOf(gotAddr) == h.YoungSegment().ID() {
		t.Fatalf("A's slot still points into the (now-reset) young generation; the young object it held was never evacuated")
	}
	if _, ok := h.Resolve(gotAddr).(*object.Object); !ok {
		t.Fatalf("A's slot after young collection does not resolve to a live *object.Object")
	}
}

// TestRememberedSetCoversWholeDirtyCard enumerates, independently of any
// object semantics, every slot a dirty card should cover and checks
// RememberedSet returns all of them rather than only the first cell
// allocated into the card (spec §8.1's "Card soundness": the remembered
// set must be a superset of every old-gen slot holding a young pointer).
func TestRememberedSetCoversWholeDirtyCard(t *testing.T) {
	h := newTestHeap(t)
	classAddr := h.AllocateTenured(heap.CellHiddenClass, false, func(addr value.Addr) heap.Cell {
		return object.NewRootHiddenClass(addr)
	})
	// classAddr occupies the segment's first slot; pad out the rest of
	// that card so addrs[0] below is the first slot of the next card.
	for s := heap.SlotOf(classAddr) + 1; s%heap.CardSlots != 0; s++ {
		tenureObject(h, classAddr)
	}

	const count = heap.CardSlots + 4 // spans into a second, untouched card
	addrs := make([]value.Addr, count)
	for i := range addrs {
		addrs[i] = tenureObject(h, classAddr)
	}

	young := h.Allocate(heap.CellObject, false, func(value.Addr) heap.Cell {
		return object.NewObject(value.Nul, classAddr)
	})

	// Dirty only the card covering the last slot of the first card range
	// (index CardSlots-1), deliberately not the card's first cell.
	target := addrs[heap.CardSlots-1]
	val := value.FromAddr(value.Object, young)
	h.Resolve(target).(*object.Object).SetSlot(0, val)
	h.WriteBarrier(target, val)

	remembered := make(map[value.Addr]bool)
	for _, a := range h.RememberedSet() {
		remembered[a] = true
	}

	for i := 0; i < heap.CardSlots; i++ {
		if !remembered[addrs[i]] {
			t.Errorf("RememberedSet missing slot %d of the dirtied card", i)
		}
	}
	for i := heap.CardSlots; i < count; i++ {
		if remembered[addrs[i]] {
			t.Errorf("RememberedSet included slot %d from a card that was never dirtied", i)
		}
	}
}
