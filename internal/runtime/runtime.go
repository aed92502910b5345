// Package runtime wires internal/heap, internal/identtable,
// internal/rootscope and internal/interp into the single embedding-facing
// Runtime spec §6.1 describes: Runtime::create(config), run(bytecode),
// call(function, this, args), and the property/object/handle surface a
// host embeds against.
package runtime

import (
	"github.com/ashlang/jsvmcore/internal/bcprovider"
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/identtable"
	"github.com/ashlang/jsvmcore/internal/interp"
	"github.com/ashlang/jsvmcore/internal/object"
	"github.com/ashlang/jsvmcore/internal/rootscope"
	"github.com/ashlang/jsvmcore/internal/rterr"
	"github.com/ashlang/jsvmcore/internal/rtconfig"
	"github.com/ashlang/jsvmcore/internal/rtlog"
	"github.com/ashlang/jsvmcore/internal/value"
)

// Runtime is the top-level handle an embedding holds: one heap, one
// identifier table, one scope stack, one interpreter, bootstrapped with
// the standard prototype chain (Object/Array/Function/Error.prototype,
// globalThis) before any bytecode runs.
type Runtime struct {
	Config rtconfig.Config
	Heap   *heap.Heap
	Idents *identtable.Table
	Scopes *rootscope.Scopes
	Engine *interp.Machine

	log rtlog.Logger
}

// Create builds a Runtime from a validated Config and a loaded bytecode
// module, bootstrapping the prototype chain before returning (spec
// §6.1's Runtime::create(config)). strictScopes should be true outside
// production embeddings (test builds) so a LIFO scope violation panics
// immediately instead of silently corrupting roots; the CLI driver passes
// false.
func Create(cfg rtconfig.Config, module bcprovider.Module, strictScopes bool) (*Runtime, error) {
	if err := rtconfig.Validate(cfg); err != nil {
		return nil, err
	}
	h := heap.New(cfg.HeapConfig(), nil, func(reason string) {
		panic(rterr.New(rterr.KindInternal, "heap: %s", reason))
	})
	idents := identtable.New()
	h.SetIdentHooks(idents.MarkUsed, idents.Sweep)
	scopes := rootscope.New(strictScopes)
	h.AddRootProvider(scopes)

	m := interp.NewMachine(h, idents, scopes)
	m.Module = module
	bootstrap(m)

	return &Runtime{
		Config: cfg,
		Heap:   h,
		Idents: idents,
		Scopes: scopes,
		Engine: m,
		log:    rtlog.New("runtime"),
	}, nil
}

// bootstrap allocates the four standard prototypes and globalThis (spec
// §2's "a runtime boots a global object and prototype chain before
// running any bytecode"). Each prototype is a plain object on the shared
// empty root hidden class, chained to Object.prototype except for
// Object.prototype itself, which terminates the chain at Null.
func bootstrap(m *interp.Machine) {
	newProtoObject := func(parent value.Value) value.Value {
		addr := m.Heap.Allocate(heap.CellObject, false, func(value.Addr) heap.Cell {
			return object.NewObject(parent, m.RootClass)
		})
		return value.FromAddr(value.Object, addr)
	}

	m.ObjectProto = newProtoObject(value.Nul)
	m.ArrayProto = newProtoObject(m.ObjectProto)
	m.FunctionProto = newProtoObject(m.ObjectProto)
	m.ErrorProto = newProtoObject(m.ObjectProto)
	m.GlobalObject = newProtoObject(m.ObjectProto)
}

// Run executes the module's global function as the program entry point
// (spec §6.1's run(bytecode) -> Result<Value>), returning the escaped
// exception as an error when the program throws past the outermost frame.
func (r *Runtime) Run() (value.Value, error) {
	res, ok := r.Engine.RunEntry()
	if !ok {
		return value.Undef, r.takeException()
	}
	return res, nil
}

// Call invokes a callable Value with the given receiver and arguments
// (spec §6.1's call(function, this, args) -> Result<Value>).
func (r *Runtime) Call(fn, this value.Value, args []value.Value) (value.Value, error) {
	res, ok := r.Engine.Call(fn, this, args)
	if !ok {
		return value.Undef, r.takeException()
	}
	return res, nil
}

// takeException converts an escaped JS exception into a Go error,
// clearing the Machine's thrown-value slot so it stays usable for
// further Run/Call invocations (the same "exception handled, runtime
// still alive" contract a native try/catch frame provides).
func (r *Runtime) takeException() error {
	if !r.Engine.HasPendingException() {
		return rterr.New(rterr.KindInternal, "call failed without a pending exception")
	}
	thrown := r.Engine.PendingException()
	r.Engine.ClearPendingException()
	return &ScriptError{Value: thrown, text: r.Engine.Stringify(thrown)}
}

// ScriptError wraps an uncaught JS exception value as a Go error, letting
// a host embedding either treat it as a plain error or recover the
// original Value for structured inspection through e.Value.
type ScriptError struct {
	Value value.Value
	text  string
}

func (e *ScriptError) Error() string { return e.text }

// GetGlobal returns globalThis.
func (r *Runtime) GetGlobal() value.Value { return r.Engine.GetGlobal() }

// GetProperty reads receiver[name].
func (r *Runtime) GetProperty(receiver value.Value, name string) value.Value {
	return r.Engine.GetProperty(receiver, name)
}

// SetProperty writes receiver[name] = val.
func (r *Runtime) SetProperty(receiver value.Value, name string, val value.Value) bool {
	return r.Engine.SetProperty(receiver, name, val)
}

// CreateObject allocates a plain object on Object.prototype.
func (r *Runtime) CreateObject() value.Value { return r.Engine.CreateObject() }

// CreateArray allocates a dense array of the given length.
func (r *Runtime) CreateArray(length int) value.Value { return r.Engine.CreateArray(length) }

// CreateString interns s as a heap string.
func (r *Runtime) CreateString(s string) value.Value { return r.Engine.CreateString(s) }

// Intern returns the identifier-table id for s.
func (r *Runtime) Intern(s string) uint32 { return r.Engine.Intern(s) }

// RegisterHostFunction wires a Go callback as a callable JS value.
func (r *Runtime) RegisterHostFunction(name string, arity int, fn object.NativeCallback) value.Value {
	return r.Engine.RegisterHostFunction(name, arity, fn)
}

// PushScope opens a new rooted handle scope.
func (r *Runtime) PushScope() int { return r.Engine.PushScope() }

// PopScope closes the scope opened by PushScope.
func (r *Runtime) PopScope(idx int) { r.Engine.PopScope(idx) }

// NewHandle roots v in the innermost open scope.
func (r *Runtime) NewHandle(v value.Value) rootscope.Handle { return r.Engine.NewHandle(v) }

// HandleValue dereferences a handle returned by NewHandle.
func (r *Runtime) HandleValue(h rootscope.Handle) value.Value { return r.Engine.HandleValue(h) }

// RegisterCustomRoot registers an additional GC root source (spec §6.1's
// register_custom_root), for a host embedding that keeps Value-typed
// state outside the value stack and scope tables.
func (r *Runtime) RegisterCustomRoot(p heap.RootProvider) { r.Engine.RegisterCustomRoot(p) }

// Stats exposes the heap's collector counters.
func (r *Runtime) Stats() heap.Stats { return r.Heap.Stats }
