package interp

import (
	"github.com/ashlang/jsvmcore/internal/bcprovider"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/value"
)

// invoke is the single call mechanism every call opcode and the host
// embedding API funnel through (spec §4.4.2). A bytecode closure pushes
// a Frame and runs it to completion via runFrame, using Go's own call
// stack for control flow; a native callee (host-registered or VM
// builtin) runs its Go callback directly, without pushing a Frame. Both
// paths pass the same MaxFrameDepth check on m.frames, and native calls
// are additionally counted against MaxNativeDepth, so script and a native
// callback calling back into script cannot blow past either cap
// unnoticed.
func (m *Machine) invoke(callee, this value.Value, args []value.Value, newTarget value.Value) (value.Value, bool) {
	if len(m.frames) >= MaxFrameDepth {
		m.throwRangeError("call stack size exceeded")
		return value.Undef, false
	}
	if !callee.IsObject() {
		m.throwTypeError("value is not a function")
		return value.Undef, false
	}
	switch fn := m.Heap.Resolve(callee.AsAddr()).(type) {
	case *object.NativeFunction:
		if m.nativeDepth >= MaxNativeDepth {
			m.throwRangeError("native call stack size exceeded")
			return value.Undef, false
		}
		m.nativeDepth++
		res, ok := fn.Call(this, args)
		m.nativeDepth--
		if !ok && !m.HasThrown {
			// A native callback reporting failure without having set
			// Thrown itself is a bug in that callback, not a script-level
			// exception; surface it rather than let dispatch treat a false
			// ok with no pending exception as "succeeded with undefined".
			m.throwTypeError("native function failed without raising an exception")
		}
		return res, ok
	case *object.Function:
		header := m.Module.Function(uint32(fn.FunctionIndex)).Header
		return m.pushAndRun(header, fn.FunctionIndex, callee, this, newTarget, fn.Env(), args)
	default:
		m.throwTypeError("value is not a function")
		return value.Undef, false
	}
}

// pushAndRun builds the initial register window for a bytecode function
// call (parameter binding, per spec §3.5/§4.4.2) and runs it.
func (m *Machine) pushAndRun(header bcprovider.FunctionHeader, funcIndex int, callee, this, newTarget, env value.Value, args []value.Value) (value.Value, bool) {
	bp := m.sp
	regCount := header.FrameSize
	if regCount > MaxRegisters {
		m.throwRangeError("register window exceeds MaxRegisters")
		return value.Undef, false
	}
	m.grow(bp + regCount)
	for i := 0; i < regCount; i++ {
		m.stack[bp+i] = value.Undef
	}
	for i := 0; i < header.ParamCount && i < len(args); i++ {
		m.stack[bp+i] = args[i]
	}
	if bp+regCount > m.sp {
		m.sp = bp + regCount
	}
	f := Frame{
		FuncIndex: funcIndex,
		BP:        bp,
		RegCount:  regCount,
		Callee:    callee,
		This:      this,
		NewTarget: newTarget,
		Strict:    header.Strict,
		Env:       env,
	}
	return m.runFrame(f)
}

// callDirect invokes a function by bytecode index without going through
// a Function closure cell (spec §4.4.4's call-direct, for calling a
// known top-level function that captures no outer environment).
func (m *Machine) callDirect(funcIndex int, this value.Value, args []value.Value) (value.Value, bool) {
	if len(m.frames) >= MaxFrameDepth {
		m.throwRangeError("call stack size exceeded")
		return value.Undef, false
	}
	header := m.Module.Function(uint32(funcIndex)).Header
	return m.pushAndRun(header, funcIndex, value.Undef, this, value.Undef, value.Undef, args)
}

// callBuiltin dispatches through the fixed VM-internal builtin table
// (spec §4.4.4's call-builtin), distinct from host-registered
// NativeFunction heap cells: builtins are Go functions wired in by this
// core itself (Array/String/Object prototype methods) rather than by an
// embedding.
func (m *Machine) callBuiltin(idx int, this value.Value, args []value.Value) (value.Value, bool) {
	if idx < 0 || idx >= len(m.builtins) {
		m.throwTypeError("invalid builtin index")
		return value.Undef, false
	}
	return m.builtins[idx](m, this, args)
}

// construct implements the `new` operator (spec §4.4.4's Construct):
// allocate `this`, run the constructor body, and return its result if it
// returned an object, or `this` otherwise.
func (m *Machine) construct(ctorVal value.Value, args []value.Value) (value.Value, bool) {
	if !ctorVal.IsObject() {
		m.throwTypeError("not a constructor")
		return value.Undef, false
	}
	switch m.Heap.Resolve(ctorVal.AsAddr()).(type) {
	case *object.Function, *object.NativeFunction:
	default:
		m.throwTypeError("not a constructor")
		return value.Undef, false
	}
	this := m.createThis(ctorVal)
	result, ok := m.invoke(ctorVal, this, args, ctorVal)
	if !ok {
		return value.Undef, false
	}
	if result.IsObject() {
		return result, true
	}
	return this, true
}
