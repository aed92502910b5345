// Package object implements the JS object model on top of internal/heap:
// objects with inline+overflow property slots, a hidden-class transition
// tree for fast property access, and environments (closure scope
// records). Every cell kind defined here registers a heap.Descriptor in
// its init() so the collector can trace it without dynamic dispatch.
package object

import (
	"sort"

	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/value"
)

// PropertyFlags packs the writable/enumerable/configurable trio the spec
// attaches to every own property (spec §3.3).
type PropertyFlags uint8

const (
	FlagWritable     PropertyFlags = 1 << 0
	FlagEnumerable   PropertyFlags = 1 << 1
	FlagConfigurable PropertyFlags = 1 << 2
)

// PropertyDescriptor records where a named property lives and its flags.
type PropertyDescriptor struct {
	Slot  int
	Flags PropertyFlags
}

type transitionKey struct {
	symbol uint32
	flags  PropertyFlags
}

// HiddenClass is a node in the transition tree (spec §3.4): the set of
// own-property names an object with this class has, each mapped to a
// slot index, plus edges to the hidden classes reached by adding one
// more property. Objects sharing a prefix of property-addition history
// share the same HiddenClass node, which is the whole point — property
// lookup becomes an O(1) map lookup shared across every object with that
// shape, and an inline cache keyed on a HiddenClass pointer stays valid
// for every object of that shape.
type HiddenClass struct {
	hdr  heap.CellHeader
	Addr value.Addr // this class's own heap address, set once on creation

	// parentAddr and the transitions map link to other HiddenClass cells
	// by Addr, not by direct Go pointer. A HiddenClass can be relocated
	// by the collector just like any other cell (old-generation
	// compaction), and a direct *HiddenClass pointer between two cells
	// would go stale the moment either side moves; an Addr gets rewritten
	// by the same ScanPointers machinery every other cell uses.
	parentAddr value.Addr
	properties map[uint32]PropertyDescriptor // symbol id -> descriptor
	slotCount  int

	transitions map[transitionKey]value.Addr

	// Dictionary mode (spec §3.4's fallback for objects that add and
	// delete properties too often for a transition tree to pay off):
	// once true, properties is ignored in favor of dictProps, and no
	// further transitions are taken — every object using this class is
	// on its own, unshared dictionary-mode class.
	dictionaryMode bool
	dictProps      map[uint32]PropertyDescriptor
	freeSlots      []int // slots freed by delete(), reused before growing
}

func (c *HiddenClass) CellKind() heap.CellKind    { return heap.CellHiddenClass }
func (c *HiddenClass) GCHeader() *heap.CellHeader { return &c.hdr }

// rootHiddenClass is the empty-shape root every fresh object starts from.
func rootHiddenClass(addr value.Addr) *HiddenClass {
	return &HiddenClass{
		Addr:        addr,
		properties:  map[uint32]PropertyDescriptor{},
		transitions: map[transitionKey]value.Addr{},
	}
}

// NewRootHiddenClass constructs the empty-shape hidden class a Machine
// tenures once at startup as the root of every object's transition tree.
// Exported so internal/interp can allocate it without reaching into this
// package's unexported constructor.
func NewRootHiddenClass(addr value.Addr) *HiddenClass {
	return rootHiddenClass(addr)
}

// TransitionFor is the exported form of transitionFor: it walks (or
// extends) c's transition tree to find the class reached by adding
// symbol with the given flags. newClass allocates the child's heap cell
// when a new transition edge must be created; resolve turns an Addr back
// into the *HiddenClass living at it. Used by internal/interp's
// property-put path, which owns the heap allocator this package does not
// depend on.
func (c *HiddenClass) TransitionFor(symbol uint32, flags PropertyFlags, newClass func(depth int) value.Addr, resolve func(value.Addr) *HiddenClass) *HiddenClass {
	return c.transitionFor(symbol, flags, newClass, resolve)
}

// ConvertToDictionary is the exported form of convertToDictionary.
func (c *HiddenClass) ConvertToDictionary() *HiddenClass {
	return c.convertToDictionary()
}

// AddDictionaryProperty is the exported form of addDictionaryProperty.
// Callers must first check IsDictionary (TransitionFor only returns a
// dictionary-mode class past the transition-depth threshold).
func (c *HiddenClass) AddDictionaryProperty(symbol uint32, flags PropertyFlags) int {
	return c.addDictionaryProperty(symbol, flags)
}

// DeleteDictionaryProperty is the exported form of deleteDictionaryProperty.
func (c *HiddenClass) DeleteDictionaryProperty(symbol uint32) {
	c.deleteDictionaryProperty(symbol)
}

// Lookup returns the descriptor for symbol and whether it exists on this
// class (not walking a prototype chain — that is an Object-level
// concept, spec §3.3's [[Prototype]], layered on top of this).
func (c *HiddenClass) Lookup(symbol uint32) (PropertyDescriptor, bool) {
	if c.dictionaryMode {
		d, ok := c.dictProps[symbol]
		return d, ok
	}
	d, ok := c.properties[symbol]
	return d, ok
}

// SlotCount returns how many property slots an object of this class
// needs to allocate.
func (c *HiddenClass) SlotCount() int { return c.slotCount }

// IsDictionary reports whether this class has fallen back to dictionary
// mode.
func (c *HiddenClass) IsDictionary() bool { return c.dictionaryMode }

// maxTransitionDepth bounds the transition tree before a class is forced
// into dictionary mode, guarding against pathological shapes (an object
// used as a hash map with thousands of distinct keys) blowing up the
// tree with one-off nodes nothing else will ever share.
const maxTransitionDepth = 256

// transitionFor returns the hidden class reached by adding symbol with
// the given flags, creating and caching a new child node the first time
// this edge is taken from c (spec §3.4's "shared, cached" requirement).
// newClass is called to materialize the child's heap cell; it receives
// the would-be slot count so the caller's allocator can size things, and
// must return the Addr of the new class cell.
func (c *HiddenClass) transitionFor(symbol uint32, flags PropertyFlags, newClass func(depth int) value.Addr, resolve func(value.Addr) *HiddenClass) *HiddenClass {
	if c.dictionaryMode {
		return c // callers must check IsDictionary and mutate dictProps directly instead
	}
	key := transitionKey{symbol: symbol, flags: flags}
	if addr, ok := c.transitions[key]; ok {
		return resolve(addr)
	}
	depth := c.slotCount + 1
	if depth > maxTransitionDepth {
		// Hand back a fresh dictionary-mode copy of c rather than converting
		// c in place, since other objects may still share c.
		addr := newClass(depth)
		dict := resolve(addr)
		dict.Addr = addr
		dict.parentAddr = c.Addr
		dict.properties = c.properties
		dict.slotCount = c.slotCount
		return dict.convertToDictionary()
	}
	addr := newClass(depth)
	child := resolve(addr)
	child.Addr = addr
	child.parentAddr = c.Addr
	child.properties = make(map[uint32]PropertyDescriptor, len(c.properties)+1)
	for k, v := range c.properties {
		child.properties[k] = v
	}
	child.properties[symbol] = PropertyDescriptor{Slot: c.slotCount, Flags: flags}
	child.slotCount = depth
	child.transitions = map[transitionKey]value.Addr{}
	c.transitions[key] = addr
	return child
}

// convertToDictionary flips c itself into an unshared dictionary-mode
// class in place. Every object already on c keeps working (same Addr,
// same slot indices), but no further transitions will be cached — the
// next property addition mutates dictProps directly instead of walking
// the transition tree.
func (c *HiddenClass) convertToDictionary() *HiddenClass {
	if c.dictionaryMode {
		return c
	}
	c.dictionaryMode = true
	c.dictProps = make(map[uint32]PropertyDescriptor, len(c.properties))
	for k, v := range c.properties {
		c.dictProps[k] = v
	}
	c.transitions = nil
	return c
}

// addDictionaryProperty adds or updates a property on a dictionary-mode
// class, reusing a freed slot if one is available.
func (c *HiddenClass) addDictionaryProperty(symbol uint32, flags PropertyFlags) int {
	if d, ok := c.dictProps[symbol]; ok {
		d.Flags = flags
		c.dictProps[symbol] = d
		return d.Slot
	}
	var slot int
	if n := len(c.freeSlots); n > 0 {
		slot = c.freeSlots[n-1]
		c.freeSlots = c.freeSlots[:n-1]
	} else {
		slot = c.slotCount
		c.slotCount++
	}
	c.dictProps[symbol] = PropertyDescriptor{Slot: slot, Flags: flags}
	return slot
}

// deleteDictionaryProperty removes symbol, freeing its slot for reuse.
func (c *HiddenClass) deleteDictionaryProperty(symbol uint32) {
	d, ok := c.dictProps[symbol]
	if !ok {
		return
	}
	delete(c.dictProps, symbol)
	c.freeSlots = append(c.freeSlots, d.Slot)
}

// OwnSymbols returns every own property's symbol id in slot order. For a
// transition-tree class that is definition order, the order the spec's
// [[OwnPropertyKeys]] requires for non-integer keys (spec §3.3). A
// dictionary-mode class reuses slots freed by deletes, so its slot order
// can differ from definition order.
func (c *HiddenClass) OwnSymbols() []uint32 {
	src := c.properties
	if c.dictionaryMode {
		src = c.dictProps
	}
	out := make([]uint32, 0, len(src))
	for s := range src {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return src[out[i]].Slot < src[out[j]].Slot })
	return out
}
