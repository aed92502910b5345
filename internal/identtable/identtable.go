// Package identtable implements the identifier/symbol interning table
// (spec §3.8): a per-Runtime mapping from string content to a
// small integer id, used everywhere a property name, variable name or
// well-known symbol needs cheap equality comparison and hashing instead
// of a full string compare.
package identtable

import "sync"

// Reserved ids are pre-interned at table construction so bytecode and
// the object model can refer to the most common property names and
// well-known symbols without paying an interning call on every use.
const (
	SymLength     uint32 = iota // "length"
	SymPrototype                // "prototype"
	SymConstructor              // "constructor"
	SymName                     // "name"
	SymMessage                  // "message"
	SymIteratorWK               // Symbol.iterator
	SymToStringTag               // Symbol.toStringTag
	firstDynamicID
)

var reservedNames = []string{
	"length",
	"prototype",
	"constructor",
	"name",
	"message",
	"@@iterator",
	"@@toStringTag",
}

// entry tracks a symbol's backing string and its liveness across a full
// collection, so the table can be swept the same way the heap sweeps
// cells: an interned symbol survives only if something still reachable
// referenced it by id since the last full collection (spec §3.8's
// mark-and-sweep lifecycle tied to full collections).
type entry struct {
	name string
	used bool
}

// Table is the interning table. Only the reserved range is exempt from
// Sweep; the table has no way to register further never-swept
// ("external") entries.
type Table struct {
	mu      sync.Mutex
	byName  map[string]uint32
	entries []entry
	nextID  uint32
}

// New creates a table with the reserved entries pre-interned.
func New() *Table {
	t := &Table{
		byName: make(map[string]uint32, len(reservedNames)*2),
	}
	for _, name := range reservedNames {
		t.entries = append(t.entries, entry{name: name, used: true})
		t.byName[name] = t.nextID
		t.nextID++
	}
	return t
}

// Intern returns the id for name, assigning a fresh one on first use
// (lazy interning, spec §3.8). Marks the entry used for the current
// sweep epoch.
func (t *Table) Intern(name string) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byName[name]; ok {
		t.entries[id].used = true
		return id
	}
	id := t.nextID
	t.nextID++
	t.entries = append(t.entries, entry{name: name, used: true})
	t.byName[name] = id
	return id
}

// Lookup returns the backing string for an id, or "" if id was swept.
// Panics (index out of range) if id was never assigned. Callers must
// not retain an id across a full
// collection unless something else (a HiddenClass property map, a live
// Value) also keeps it alive, which is what keeps MarkUsed calls
// balanced with every full collection's Sweep.
func (t *Table) Lookup(id uint32) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[id].name
}

// MarkUsed records that id was observed reachable during the current
// full collection's root/heap trace, called by whatever scans property
// maps and Value-typed symbol fields during that trace.
func (t *Table) MarkUsed(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id].used = true
}

// Sweep drops every entry not marked used since the last Sweep, except
// the reserved range, which is permanent. Must run after the full
// collection's trace phase has called MarkUsed for everything still
// reachable, and clears the used bit for the next epoch on survivors.
func (t *Table) Sweep() (swept int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := firstDynamicID; id < t.nextID; id++ {
		e := &t.entries[id]
		if e.name == "" {
			continue // already swept in a prior epoch
		}
		if !e.used {
			delete(t.byName, e.name)
			e.name = ""
			swept++
			continue
		}
		e.used = false
	}
	return swept
}

// Len reports how many ids (including reserved and swept-but-not-reused
// slots) the table has ever assigned.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int(t.nextID)
}
