package interp

import "github.com/ashlang/jsvmcore/internal/value"

// cacheSlot is one inline-cache entry: a (HiddenClass, property slot)
// pair recorded at a single bytecode call site (spec §4.4.5). This core
// implements the monomorphic variant the spec calls out as sufficient: a
// cache observing a second, different class on the same site simply
// overwrites the slot rather than growing into a polymorphic chain,
// trading a cache miss on megamorphic sites for a fixed, tiny per-site
// footprint.
type cacheSlot struct {
	valid bool
	class value.Addr
	slot  int
}

// cacheLookup returns the cached slot for cacheID if it is valid and was
// last recorded against classAddr.
func (m *Machine) cacheLookup(cacheID uint16, classAddr value.Addr) (int, bool) {
	if int(cacheID) >= len(m.caches) {
		return 0, false
	}
	c := m.caches[cacheID]
	if !c.valid || c.class != classAddr {
		return 0, false
	}
	return c.slot, true
}

// cacheStore records (classAddr, slot) at cacheID, growing the cache
// table if this is the first site to reach that index.
func (m *Machine) cacheStore(cacheID uint16, classAddr value.Addr, slot int) {
	if int(cacheID) >= len(m.caches) {
		grown := make([]cacheSlot, int(cacheID)+1)
		copy(grown, m.caches)
		m.caches = grown
	}
	m.caches[cacheID] = cacheSlot{valid: true, class: classAddr, slot: slot}
}
