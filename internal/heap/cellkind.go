package heap

import "github.com/ashlang/jsvmcore/internal/value"

// CellKind names the shape of a heap allocation. The collector never
// dispatches on a cell dynamically (no vtable call); it looks up the
// cell's Descriptor by CellKind instead (spec §9, "Cell-kind
// polymorphism").
type CellKind uint8

const (
	CellObject CellKind = iota
	CellArray
	CellArrayBuffer
	CellDataView
	CellString
	CellPropertyStorage
	CellHiddenClass
	CellEnvironment
	CellFunction
	CellNativeFunction
	CellError
	CellMap
	CellSet
	CellWeakMap
	CellWeakSet
	CellRegExp

	// cellForwarded marks a young-generation slot that evacuation has
	// already relocated. It is never registered with a Descriptor and
	// never observed outside the collector.
	cellForwarded
)

func (k CellKind) String() string {
	switch k {
	case CellObject:
		return "Object"
	case CellArray:
		return "Array"
	case CellArrayBuffer:
		return "ArrayBuffer"
	case CellDataView:
		return "DataView"
	case CellString:
		return "String"
	case CellPropertyStorage:
		return "PropertyStorage"
	case CellHiddenClass:
		return "HiddenClass"
	case CellEnvironment:
		return "Environment"
	case CellFunction:
		return "Function"
	case CellNativeFunction:
		return "NativeFunction"
	case CellError:
		return "Error"
	case CellMap:
		return "Map"
	case CellSet:
		return "Set"
	case CellWeakMap:
		return "WeakMap"
	case CellWeakSet:
		return "WeakSet"
	case CellRegExp:
		return "RegExp"
	default:
		return "Forwarded"
	}
}

// CellHeader carries the collector bookkeeping every cell begins with
// (spec §3.2). Concrete cell types embed it.
type CellHeader struct {
	kind        CellKind
	mark        bool
	hasFinal    bool
	forwarded   bool
	forwardedTo value.Addr
	allocID     uint64
}

// CellKind returns the cell's kind.
func (h *CellHeader) CellKind() CellKind { return h.kind }

// GCHeader returns the header itself, satisfying the Cell interface for
// embedders.
func (h *CellHeader) GCHeader() *CellHeader { return h }

// Cell is the minimal shape the collector needs from every heap
// allocation: its kind (to find a Descriptor) and its bookkeeping header.
// Traversal of a cell's outgoing pointers never goes through an interface
// method on Cell — it goes through the Descriptor registered for its
// kind, kept separate precisely so this interface stays tiny and
// non-polymorphic in the collector's hot path.
type Cell interface {
	CellKind() CellKind
	GCHeader() *CellHeader
}

// Descriptor tells the collector everything it needs to trace and
// finalize cells of one CellKind. Descriptors are registered once at
// startup (init()) by the object model package and never change
// afterwards — the one global table the spec permits (§9).
type Descriptor struct {
	Kind CellKind
	// ScanPointers visits every outgoing pointer slot (owning edges, Value
	// slots, symbol slots) of cell, calling visit once per slot with a
	// pointer to the Addr stored there so the collector can rewrite it in
	// place during evacuation/compaction.
	ScanPointers func(cell Cell, visit func(*value.Addr))
	// Finalize runs for cells that did not survive a collection and carry
	// a finalizer. May be nil.
	Finalize func(cell Cell)
	// ScanSymbols visits every interned identifier-table id a live cell
	// keeps alive: property-name symbols (hidden-class transition keys,
	// dictionary-mode keys) and any Symbol-kind Value held directly in a
	// slot (spec §3.8/§4.2.4 step 6 — these ids must be marked used
	// during a full collection's trace so the identifier table's sweep
	// only frees ids nothing live references). May be nil for cell kinds
	// that never hold a symbol.
	ScanSymbols func(cell Cell, visit func(id uint32))
	// Clone produces an independent copy of cell for relocation (young
	// promotion or old-gen compaction), with its header reset for life at
	// newAddr. The copy must be a distinct value so mutating one does not
	// alias the other once the original slot is overwritten with a
	// forwarding marker.
	Clone func(cell Cell, newAddr value.Addr) Cell
}

var descriptors [int(CellRegExp) + 1]*Descriptor

// RegisterDescriptor installs the descriptor for its Kind. Intended to be
// called from package init() functions in the object model package only;
// re-registering a kind after startup is a programmer error.
func RegisterDescriptor(d *Descriptor) {
	descriptors[int(d.Kind)] = d
}

// DescriptorFor returns the registered descriptor for k, or nil if none
// was registered (a programmer error reachable only via corrupted
// bytecode feeding an unknown kind).
func DescriptorFor(k CellKind) *Descriptor {
	if int(k) >= len(descriptors) {
		return nil
	}
	return descriptors[k]
}

type forwardingCell struct {
	hdr CellHeader
	to  value.Addr
}

func (f *forwardingCell) CellKind() CellKind    { return cellForwarded }
func (f *forwardingCell) GCHeader() *CellHeader { return &f.hdr }
