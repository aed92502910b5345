package interp

import (
	"strconv"

	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/value"
)

// pnameIter is the materialized, cursor-tracking state behind a
// for-in enumeration (spec §4.4.4's get-pname-list/get-next-pname pair).
// Names are snapshotted eagerly at get-pname-list time rather than
// lazily walked, the same "enumerate then iterate a fixed list" approach
// most bytecode VMs take to avoid observing property additions/removals
// made during the loop body.
type pnameIter struct {
	names []string
	idx   int
}

// getPNameList snapshots obj's own enumerable property names (spec's
// for-in target set). This core does not walk the prototype chain for
// for-in: only own properties are enumerated. Array cells additionally enumerate their
// numeric indices ahead of any named properties, matching the order a
// real engine produces for integer-indexed then string-keyed own keys.
func (m *Machine) getPNameList(obj value.Value) value.Value {
	var names []string
	if obj.IsObject() {
		switch o := m.Heap.Resolve(obj.AsAddr()).(type) {
		case *object.Array:
			for i := 0; i < o.Length(); i++ {
				if !o.Get(i).IsEmpty() {
					names = append(names, strconv.Itoa(i))
				}
			}
			names = append(names, m.enumerableNames(o.ClassAddr())...)
		case *object.Object:
			names = m.enumerableNames(o.ClassAddr())
		case *object.Error:
			names = m.enumerableNames(o.ClassAddr())
		}
	}
	m.iterStates = append(m.iterStates, pnameIter{names: names})
	return value.FromNativeValue(uint32(len(m.iterStates) - 1))
}

// enumerableNames returns the string form of every enumerable own
// property name recorded on classAddr's hidden class.
func (m *Machine) enumerableNames(classAddr value.Addr) []string {
	cls := m.resolveClass(classAddr)
	var out []string
	for _, sym := range cls.OwnSymbols() {
		desc, _ := cls.Lookup(sym)
		if desc.Flags&object.FlagEnumerable == 0 {
			continue
		}
		out = append(out, m.Idents.Lookup(sym))
	}
	return out
}

// getNextPName advances the iterator handle returned by getPNameList,
// returning (Undef-sentinel-is-not-used-here; done is reported by the
// second return) the next property name as a string Value.
func (m *Machine) getNextPName(iter value.Value) (value.Value, bool) {
	if !iter.IsNativeValue() {
		return value.Undef, false
	}
	idx := int(iter.AsNativeValue())
	if idx < 0 || idx >= len(m.iterStates) {
		return value.Undef, false
	}
	st := &m.iterStates[idx]
	if st.idx >= len(st.names) {
		return value.Undef, false
	}
	name := st.names[st.idx]
	st.idx++
	return m.internString(name), true
}
