package object

import (
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/value"
)

// Function is a closure cell: a compile-time function index into the
// bytecode provider's function table paired with the Environment that was
// active at the closure's creation (spec §3.4, "Closures carry the
// environment that was active at their creation"). FunctionIndex is a
// plain int rather than a heap Addr because the bytecode module's function
// table is owned by the bytecode provider, an external collaborator the
// collector never traces (spec §1's "opaque bytecode module").
type Function struct {
	hdr heap.CellHeader

	proto value.Value
	class value.Addr

	FunctionIndex int
	env           value.Value // Undef for the outermost closure, else an Object-kind Value wrapping an Environment Addr

	// strict mirrors the defining function's strict-mode flag (spec
	// §4.4.4's put-by-id strict-mode behaviour), cached here so call sites
	// don't need to reach back into the bytecode provider on every call.
	strict bool

	name value.Value // JSString Addr or Undef, for Function.prototype.name/toString
}

func (f *Function) CellKind() heap.CellKind    { return heap.CellFunction }
func (f *Function) GCHeader() *heap.CellHeader { return &f.hdr }

// NewFunction allocates a closure over env for the function at funcIndex.
func NewFunction(proto value.Value, classAddr value.Addr, funcIndex int, env value.Value, strict bool) *Function {
	return &Function{proto: proto, class: classAddr, FunctionIndex: funcIndex, env: env, strict: strict, name: value.Undef}
}

func (f *Function) Prototype() value.Value    { return f.proto }
func (f *Function) ClassAddr() value.Addr     { return f.class }
func (f *Function) SetClassAddr(a value.Addr) { f.class = a }
func (f *Function) Env() value.Value          { return f.env }
func (f *Function) Strict() bool              { return f.strict }
func (f *Function) Name() value.Value         { return f.name }
func (f *Function) SetName(v value.Value)     { f.name = v }

func cloneFunction(c heap.Cell, newAddr value.Addr) heap.Cell {
	src := c.(*Function)
	clone := &Function{
		proto:         src.proto,
		class:         src.class,
		FunctionIndex: src.FunctionIndex,
		env:           src.env,
		strict:        src.strict,
		name:          src.name,
	}
	clone.hdr = src.hdr
	return clone
}

func scanFunctionPointers(c heap.Cell, visit func(*value.Addr)) {
	f := c.(*Function)
	if f.proto.IsPointer() {
		addr := f.proto.AsAddr()
		visit(&addr)
		f.proto.Rewrite(addr)
	}
	visit(&f.class)
	if f.env.IsPointer() {
		addr := f.env.AsAddr()
		visit(&addr)
		f.env.Rewrite(addr)
	}
	if f.name.IsPointer() {
		addr := f.name.AsAddr()
		visit(&addr)
		f.name.Rewrite(addr)
	}
}

func init() {
	heap.RegisterDescriptor(&heap.Descriptor{
		Kind:         heap.CellFunction,
		ScanPointers: scanFunctionPointers,
		Clone:        cloneFunction,
	})
}

// NativeFunction wraps a host-registered Go callback as a callable cell
// (spec §4.6's "register_host_function"). The callback itself is never
// collector-traced — it closes over Go values outside the JS heap, which
// is exactly the "opaque native entry point" contract spec §1 assigns to
// the embedding API and the optional JIT alike.
type NativeFunction struct {
	hdr heap.CellHeader

	proto value.Value
	Arity int
	Name  string
	Call  NativeCallback
}

// NativeCallback is the shape of a registered host function: given `this`
// and the argument list, produce a result or an exception signal. Errors
// are communicated by the caller setting the runtime's thrown-value slot
// and returning ok=false, matching spec §7's "Result carrying either a
// Value or exception-raised" contract for native functions.
type NativeCallback func(this value.Value, args []value.Value) (result value.Value, ok bool)

func (n *NativeFunction) CellKind() heap.CellKind    { return heap.CellNativeFunction }
func (n *NativeFunction) GCHeader() *heap.CellHeader { return &n.hdr }

// Prototype returns the native function's [[Prototype]] (normally
// Function.prototype).
func (n *NativeFunction) Prototype() value.Value { return n.proto }

// NewNativeFunction allocates a native-function cell.
func NewNativeFunction(proto value.Value, name string, arity int, fn NativeCallback) *NativeFunction {
	return &NativeFunction{proto: proto, Arity: arity, Name: name, Call: fn}
}

func cloneNativeFunction(c heap.Cell, newAddr value.Addr) heap.Cell {
	src := c.(*NativeFunction)
	clone := &NativeFunction{proto: src.proto, Arity: src.Arity, Name: src.Name, Call: src.Call}
	clone.hdr = src.hdr
	return clone
}

func scanNativeFunctionPointers(c heap.Cell, visit func(*value.Addr)) {
	n := c.(*NativeFunction)
	if n.proto.IsPointer() {
		addr := n.proto.AsAddr()
		visit(&addr)
		n.proto.Rewrite(addr)
	}
}

func init() {
	heap.RegisterDescriptor(&heap.Descriptor{
		Kind:         heap.CellNativeFunction,
		ScanPointers: scanNativeFunctionPointers,
		Clone:        cloneNativeFunction,
	})
}
