package heap

import "github.com/ashlang/jsvmcore/internal/value"

// RootVisitor is passed to a RootProvider during collection. Visit is
// called once per root slot; the provider must call back with a pointer
// to the Value so the collector can rewrite it in place if the pointee
// moves.
type RootVisitor interface {
	VisitRoot(v *value.Value)
}

// RootProvider is implemented by every native root source named in spec
// §4.3: the shared value stack, the scoped handle tables, and the fixed
// runtime slots (globals, the identifier table's own backing cells,
// well-known prototypes). The heap holds a flat list of these and walks
// all of them at the start of every collection; it never knows which
// concrete root source it's talking to.
type RootProvider interface {
	WalkRoots(visitor RootVisitor)
}

type visitorFunc func(v *value.Value)

func (f visitorFunc) VisitRoot(v *value.Value) { f(v) }

// walkRoots visits every registered root provider.
func (h *Heap) walkRoots(visit func(v *value.Value)) {
	vf := visitorFunc(visit)
	for _, p := range h.roots {
		p.WalkRoots(vf)
	}
}
