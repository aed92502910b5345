package interp

import (
	"github.com/ashlang/jsvmcore/internal/bcprovider"
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/identtable"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/rootscope"
	"github.com/ashlang/jsvmcore/internal/value"
)

// MaxRegisters caps a single frame's register window (spec §4.4.2's
// "configured register-count cap" half of stack-overflow detection).
const MaxRegisters = 1 << 16

// MaxFrameDepth caps the interpreter's own frame stack (the other half:
// spec's "native-stack-depth tracker"). Each script call level is a
// nested runFrame on Go's call stack, so this cap also bounds that
// recursion — see runFrame.
const MaxFrameDepth = 8192

// MaxNativeDepth bounds nested native-function calls (spec §5: "native
// functions... may synchronously re-enter the interpreter"), counted
// separately from interpreter frames with its own, much smaller, cap.
const MaxNativeDepth = 512

// Machine is the interpreter plus everything its dispatch loop touches
// directly: the shared value stack, the frame chain, the heap, the
// identifier table, the scoped-root tables, and the fixed runtime slots
// spec §4.3 names as the third root source (global object, well-known
// prototypes, the thrown-value slot, the root hidden class, inline-cache
// storage, the builtin table).
type Machine struct {
	Heap   *heap.Heap
	Idents *identtable.Table
	Scopes *rootscope.Scopes
	Module bcprovider.Module

	stack []value.Value
	sp    int

	frames      []Frame
	nativeDepth int

	GlobalObject value.Value
	ObjectProto  value.Value
	ArrayProto   value.Value
	FunctionProto value.Value
	ErrorProto   value.Value
	RootClass    value.Addr

	Thrown    value.Value
	HasThrown bool

	builtins []NativeFn

	caches []cacheSlot // inline caches, indexed by the cache-id operand of get-by-id/put-by-id; one table shared by every function

	// wellKnown caches the symbol ids for property names this package's Go
	// code compares against directly (Error's "message"/"stack" fast path,
	// Function's "name"), so those comparisons are an integer compare
	// rather than a string compare on every property access.
	wellKnown map[string]uint32

	// Strings interned as JSString cells are tracked so identical-content
	// module string-table entries share one heap cell, mirroring how a
	// real bytecode provider's string table is itself deduplicated.
	internedStrings map[string]value.Value

	DebugHook func(m *Machine) // called on OpDebugger/OpDebuggerCheckBreak when non-nil

	iterStates []pnameIter // for-in enumeration state, indexed by get-pname-list's returned handle
}

// NewMachine wires a fresh interpreter over the given heap, identifier
// table, and scope stack. protos may be zero Values (Undef) if the
// embedding hasn't bootstrapped a standard library yet; opcodes that read
// them only do so when constructing literals.
func NewMachine(h *heap.Heap, idents *identtable.Table, scopes *rootscope.Scopes) *Machine {
	m := &Machine{
		Heap:   h,
		Idents: idents,
		Scopes: scopes,
		stack:  make([]value.Value, 4096),
		// frames is preallocated to its hard cap so that runFrame's `cur`
		// pointer (held across nested invoke calls that append further
		// frames for JS-to-JS calls) never dangles: invoke always rejects a
		// push once len(m.frames) reaches MaxFrameDepth, so capped-capacity
		// append never triggers a reallocation that would leave an outer
		// frame's cur pointing at a stale backing array.
		frames:          make([]Frame, 0, MaxFrameDepth),
		internedStrings: make(map[string]value.Value),
		Thrown:          value.Undef,
		GlobalObject:    value.Undef,
		ObjectProto:     value.Undef,
		ArrayProto:      value.Undef,
		FunctionProto:   value.Undef,
		ErrorProto:      value.Undef,
	}
	h.AddRootProvider(m)
	m.RootClass = h.AllocateTenured(heap.CellHiddenClass, false, func(addr value.Addr) heap.Cell {
		return object.NewRootHiddenClass(addr)
	})
	m.wellKnown = map[string]uint32{
		"message": idents.Intern("message"),
		"stack":   idents.Intern("stack"),
		"name":    idents.Intern("name"),
	}
	return m
}

// WalkRoots implements heap.RootProvider: every stack slot up to sp is a
// root (spec §4.3's value-stack root source), plus the fixed runtime
// slots.
func (m *Machine) WalkRoots(v heap.RootVisitor) {
	for i := 0; i < m.sp; i++ {
		v.VisitRoot(&m.stack[i])
	}
	v.VisitRoot(&m.GlobalObject)
	v.VisitRoot(&m.ObjectProto)
	v.VisitRoot(&m.ArrayProto)
	v.VisitRoot(&m.FunctionProto)
	v.VisitRoot(&m.ErrorProto)
	rootClass := value.FromAddr(value.Object, m.RootClass)
	v.VisitRoot(&rootClass)
	m.RootClass = rootClass.AsAddr()
	if m.HasThrown {
		v.VisitRoot(&m.Thrown)
	}
	for i := range m.frames {
		f := &m.frames[i]
		v.VisitRoot(&f.Callee)
		v.VisitRoot(&f.This)
		v.VisitRoot(&f.NewTarget)
	}
	for k, strVal := range m.internedStrings {
		sv := strVal
		v.VisitRoot(&sv)
		m.internedStrings[k] = sv
	}
}

// grow extends the value stack, preserving contents, the same dynamic
// strategy the teacher's own interpreter uses (vm/interpreter.go's push:
// "grow the stack dynamically instead of panicking") rather than a hard
// fixed-size panic — the hard limit spec §4.4.2 calls for is enforced
// separately, in pushAndRun's MaxRegisters check, not here.
func (m *Machine) grow(minCap int) {
	if minCap <= len(m.stack) {
		return
	}
	newCap := len(m.stack) * 2
	if newCap < minCap {
		newCap = minCap
	}
	grown := make([]value.Value, newCap)
	copy(grown, m.stack)
	for i := len(m.stack); i < newCap; i++ {
		grown[i] = value.Undef
	}
	m.stack = grown
}

func (m *Machine) getReg(f *Frame, r int) value.Value { return m.stack[f.reg(r)] }
func (m *Machine) setReg(f *Frame, r int, v value.Value) {
	idx := f.reg(r)
	m.grow(idx + 1)
	m.stack[idx] = v
	if idx >= m.sp {
		m.sp = idx + 1
	}
}

func (m *Machine) curFrame() *Frame { return &m.frames[len(m.frames)-1] }

// RegisterBuiltin appends fn to the fixed-slot builtin table call-builtin
// opcodes index by small integer (spec §4.4.4's call-builtin).
func (m *Machine) RegisterBuiltin(fn NativeFn) int {
	m.builtins = append(m.builtins, fn)
	return len(m.builtins) - 1
}
