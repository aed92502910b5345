package object

import (
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/value"
)

func cloneHiddenClass(c heap.Cell, newAddr value.Addr) heap.Cell {
	src := c.(*HiddenClass)
	clone := &HiddenClass{
		Addr:           newAddr,
		parentAddr:     src.parentAddr,
		slotCount:      src.slotCount,
		dictionaryMode: src.dictionaryMode,
	}
	clone.properties = make(map[uint32]PropertyDescriptor, len(src.properties))
	for k, v := range src.properties {
		clone.properties[k] = v
	}
	clone.transitions = make(map[transitionKey]value.Addr, len(src.transitions))
	for k, v := range src.transitions {
		clone.transitions[k] = v
	}
	if src.dictProps != nil {
		clone.dictProps = make(map[uint32]PropertyDescriptor, len(src.dictProps))
		for k, v := range src.dictProps {
			clone.dictProps[k] = v
		}
	}
	clone.freeSlots = append([]int(nil), src.freeSlots...)
	clone.hdr = src.hdr
	return clone
}

// scanHiddenClassPointers visits the parent edge and every transition
// edge. Transition keys themselves (symbol ids, not addresses) never
// need rewriting; only the map's Addr values do.
func scanHiddenClassPointers(c heap.Cell, visit func(*value.Addr)) {
	hc := c.(*HiddenClass)
	if hc.parentAddr != value.NoAddr {
		visit(&hc.parentAddr)
	}
	for k, addr := range hc.transitions {
		a := addr
		visit(&a)
		hc.transitions[k] = a
	}
}

// scanHiddenClassSymbols marks every property-name symbol this class
// keeps alive: its own (shared-mode) or dictionary-mode property map
// keys, plus every transition edge's symbol (a child not yet reached by
// any live object still pins the name that would reach it).
func scanHiddenClassSymbols(c heap.Cell, visit func(id uint32)) {
	hc := c.(*HiddenClass)
	for _, sym := range hc.OwnSymbols() {
		visit(sym)
	}
	for k := range hc.transitions {
		visit(k.symbol)
	}
}

func init() {
	heap.RegisterDescriptor(&heap.Descriptor{
		Kind:         heap.CellHiddenClass,
		ScanPointers: scanHiddenClassPointers,
		ScanSymbols:  scanHiddenClassSymbols,
		Clone:        cloneHiddenClass,
	})
}
