package interp

import (
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/rootscope"
	"github.com/ashlang/jsvmcore/internal/value"
)

// This file is the embedding API surface spec §6.1 names on Runtime::
// get_property/set_property/create_object/create_array/create_string/
// intern/register_host_function/push_scope/pop_scope/new_handle — the
// thin public wrappers around machinery the rest of this package keeps
// unexported because bytecode opcodes reach it directly, not through a
// host-facing call.

// RunEntry runs module's global function as the program entry point
// (spec §2's data flow: "the runtime loads a module and executes its
// global function"), with `this` bound to globalThis and no arguments,
// exactly like any other top-level call-direct.
func (m *Machine) RunEntry() (value.Value, bool) {
	return m.callDirect(int(m.Module.GlobalFunctionIndex()), m.GlobalObject, nil)
}

// Call invokes a callable Value (spec §6.1's Runtime::call) with the
// given receiver and arguments.
func (m *Machine) Call(fn, this value.Value, args []value.Value) (value.Value, bool) {
	return m.invoke(fn, this, args, value.Undef)
}

// GetGlobal returns globalThis.
func (m *Machine) GetGlobal() value.Value { return m.GlobalObject }

// GetProperty reads receiver[name] (spec §6.1's get_property), interning
// name as an identifier on the caller's behalf.
func (m *Machine) GetProperty(receiver value.Value, name string) value.Value {
	return m.getProperty(receiver, m.Idents.Intern(name))
}

// SetProperty writes receiver[name] = val (spec §6.1's set_property).
// Always non-strict from the host side: a host embedding rejecting its
// own writes would be a host bug, not a script-level TypeError.
func (m *Machine) SetProperty(receiver value.Value, name string, val value.Value) bool {
	return m.putProperty(receiver, m.Idents.Intern(name), val, false, noPropCache)
}

// CreateObject allocates a plain object on Object.prototype (spec §6.1's
// create_object).
func (m *Machine) CreateObject() value.Value { return m.newObject() }

// CreateArray allocates a dense array of the given length, every slot a
// hole (spec §6.1's create_array).
func (m *Machine) CreateArray(length int) value.Value { return m.newArray(length) }

// CreateString interns s as a heap string (spec §6.1's create_string).
func (m *Machine) CreateString(s string) value.Value { return m.internString(s) }

// Intern returns the identifier-table id for s (spec §6.1's intern),
// exposed so a host can precompute symbol ids for repeated property
// access through GetProperty/SetProperty's string-keyed path.
func (m *Machine) Intern(s string) uint32 { return m.Idents.Intern(s) }

// RegisterHostFunction wires a Go callback as a callable JS value (spec
// §6.1/§4.6's register_host_function), distinct from RegisterBuiltin's
// fixed VM-internal builtin table: a host function is a real heap cell a
// script can hold a reference to, pass around, and call through ordinary
// OpCall dispatch.
func (m *Machine) RegisterHostFunction(name string, arity int, fn object.NativeCallback) value.Value {
	addr := m.Heap.Allocate(heap.CellNativeFunction, false, func(value.Addr) heap.Cell {
		return object.NewNativeFunction(m.FunctionProto, name, arity, fn)
	})
	return value.FromAddr(value.Object, addr)
}

// PushScope opens a new rooted handle scope (spec §6.1's push_scope),
// returning its index for the matching PopScope.
func (m *Machine) PushScope() int { return m.Scopes.Push() }

// PopScope closes the scope opened by PushScope.
func (m *Machine) PopScope(idx int) { m.Scopes.Pop(idx) }

// NewHandle roots v in the innermost open scope (spec §6.1's new_handle),
// surviving any collection triggered by subsequent allocations until its
// scope closes.
func (m *Machine) NewHandle(v value.Value) rootscope.Handle { return m.Scopes.NewHandle(v) }

// HandleValue dereferences a handle returned by NewHandle.
func (m *Machine) HandleValue(h rootscope.Handle) value.Value { return m.Scopes.Get(h) }

// RegisterCustomRoot registers an additional heap.RootProvider (spec
// §6.1's register_custom_root), for a host embedding that keeps its own
// Value-typed state outside the value stack and scope tables.
func (m *Machine) RegisterCustomRoot(p heap.RootProvider) { m.Heap.AddRootProvider(p) }

// HasPendingException reports whether an uncaught exception escaped the
// most recent Call/RunEntry.
func (m *Machine) HasPendingException() bool { return m.HasThrown }

// PendingException returns the escaped exception value (only meaningful
// when HasPendingException is true).
func (m *Machine) PendingException() value.Value { return m.Thrown }

// ClearPendingException discards the escaped exception, for a host that
// has already reported it and wants to keep the Runtime usable for
// further calls.
func (m *Machine) ClearPendingException() { m.clearThrown() }

// Stringify coerces v to its string form using the engine's own ToString
// coercion (spec §7's error reporting: an escaped exception's message is
// rendered through the same rules script-level String(v) would use).
func (m *Machine) Stringify(v value.Value) string { return m.toStringValue(v) }

// PNameList snapshots obj's own enumerable property names as a for-in
// iterator handle, exposed for internal/inspect's object browser to walk
// the exact same enumeration order a script-level `for (k in obj)` would.
func (m *Machine) PNameList(obj value.Value) value.Value { return m.getPNameList(obj) }

// NextPName advances an iterator handle returned by PNameList.
func (m *Machine) NextPName(iter value.Value) (value.Value, bool) { return m.getNextPName(iter) }
