package interp

import (
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/value"
)

// createEnvironment allocates a fresh Environment with slotCount locals,
// parented to the frame's currently-active environment, and makes it the
// new active environment (spec §3.5, §4.4.4's create-environment).
func (m *Machine) createEnvironment(f *Frame, slotCount int) value.Value {
	parent := f.Env
	addr := m.Heap.Allocate(heap.CellEnvironment, false, func(value.Addr) heap.Cell {
		return object.NewEnvironment(parent, slotCount)
	})
	v := value.FromAddr(value.Object, addr)
	f.Env = v
	return v
}

// createClosure allocates a Function cell capturing the frame's
// currently-active environment (spec §3.4's "closures carry the
// environment active at their creation").
func (m *Machine) createClosure(f *Frame, funcIndex int, strict bool) value.Value {
	addr := m.Heap.Allocate(heap.CellFunction, false, func(value.Addr) heap.Cell {
		return object.NewFunction(m.FunctionProto, m.RootClass, funcIndex, f.Env, strict)
	})
	return value.FromAddr(value.Object, addr)
}

// walkEnv hops `level` parent links up from start, returning the
// Environment cell reached. Panics (AsAddr on the chain's undefined end)
// if level overshoots the chain, and the dispatch loop does not recover
// that panic — a malformed module, not a reachable runtime condition for
// correctly generated bytecode.
func (m *Machine) walkEnv(start value.Value, level int) *object.Environment {
	cur := start
	for i := 0; i < level; i++ {
		env := m.Heap.Resolve(cur.AsAddr()).(*object.Environment)
		cur = env.Parent()
	}
	return m.Heap.Resolve(cur.AsAddr()).(*object.Environment)
}

// loadEnv reads local `index` of the environment `level` hops up from
// f's active environment.
func (m *Machine) loadEnv(f *Frame, level int, index int) value.Value {
	env := m.walkEnv(f.Env, level)
	return env.Get(index)
}

// storeEnv writes local `index` of the environment `level` hops up,
// applying the write barrier since an old-generation Environment may
// come to hold a freshly-allocated young value.
func (m *Machine) storeEnv(f *Frame, level int, index int, val value.Value) {
	cur := f.Env
	for i := 0; i < level; i++ {
		env := m.Heap.Resolve(cur.AsAddr()).(*object.Environment)
		cur = env.Parent()
	}
	env := m.Heap.Resolve(cur.AsAddr()).(*object.Environment)
	env.Set(index, val)
	m.Heap.WriteBarrier(cur.AsAddr(), val)
}
