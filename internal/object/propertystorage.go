package object

import (
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/value"
)

// PropertyStorage is the overflow cell an Object grows into once it has
// more own properties than NumInlineSlots (spec §3.3). It is a flat,
// growable Value slice plus an insertion-order record of symbol ids (see
// RecordInsertion).
type PropertyStorage struct {
	hdr heap.CellHeader

	slots     []value.Value
	insertSeq []uint32 // symbol id, in insertion order, parallel bookkeeping for dictionary-mode objects
}

func (p *PropertyStorage) CellKind() heap.CellKind    { return heap.CellPropertyStorage }
func (p *PropertyStorage) GCHeader() *heap.CellHeader { return &p.hdr }

// NewPropertyStorage allocates overflow storage with room for at least
// capacity slots beyond NumInlineSlots.
func NewPropertyStorage(capacity int) *PropertyStorage {
	if capacity < 0 {
		capacity = 0
	}
	return &PropertyStorage{slots: make([]value.Value, capacity)}
}

// Get returns the value at overflow index i (i.e. object slot
// NumInlineSlots+i).
func (p *PropertyStorage) Get(i int) value.Value {
	if i < 0 || i >= len(p.slots) {
		return value.Undef
	}
	return p.slots[i]
}

// Set stores v at overflow index i, growing the backing slice if needed.
func (p *PropertyStorage) Set(i int, v value.Value) {
	if i >= len(p.slots) {
		grown := make([]value.Value, i+1)
		copy(grown, p.slots)
		for j := len(p.slots); j < len(grown); j++ {
			grown[j] = value.Undef
		}
		p.slots = grown
	}
	p.slots[i] = v
}

// RecordInsertion appends symbol to the insertion-order record. The
// interpreter's property paths do not call it, and HiddenClass.OwnSymbols
// does not read the record.
func (p *PropertyStorage) RecordInsertion(symbol uint32) {
	p.insertSeq = append(p.insertSeq, symbol)
}

// InsertionOrder returns the recorded symbol insertion order.
func (p *PropertyStorage) InsertionOrder() []uint32 { return p.insertSeq }

func clonePropertyStorage(c heap.Cell, newAddr value.Addr) heap.Cell {
	src := c.(*PropertyStorage)
	clone := &PropertyStorage{
		slots:     append([]value.Value(nil), src.slots...),
		insertSeq: append([]uint32(nil), src.insertSeq...),
	}
	clone.hdr = src.hdr
	return clone
}

func scanPropertyStoragePointers(c heap.Cell, visit func(*value.Addr)) {
	p := c.(*PropertyStorage)
	for i, v := range p.slots {
		if !v.IsPointer() {
			continue
		}
		addr := v.AsAddr()
		visit(&addr)
		v.Rewrite(addr)
		p.slots[i] = v
	}
}

// scanPropertyStorageSymbols marks the insertion-order property-name
// symbols plus any Symbol-kind Value actually stored in a slot (a JS
// `Symbol()` used as a property value, not a property key).
func scanPropertyStorageSymbols(c heap.Cell, visit func(id uint32)) {
	p := c.(*PropertyStorage)
	for _, sym := range p.insertSeq {
		visit(sym)
	}
	for _, v := range p.slots {
		if v.IsSymbol() {
			visit(v.AsSymbol())
		}
	}
}

func init() {
	heap.RegisterDescriptor(&heap.Descriptor{
		Kind:         heap.CellPropertyStorage,
		ScanPointers: scanPropertyStoragePointers,
		ScanSymbols:  scanPropertyStorageSymbols,
		Clone:        clonePropertyStorage,
	})
}
