package interp

import "github.com/ashlang/jsvmcore/internal/value"

// Frame is a call frame (spec §3.5): a window into the shared value
// stack plus the header fields the spec fixes at known offsets (saved
// previous frame, saved IP, saved code pointer, new.target, callee,
// this). This core keeps those header fields as typed Go struct fields
// rather than literally packing them into stack slots — the same
// trade-off internal/value makes for pointer payloads (see its doc
// comment): the externally observable contract ("every reference indexes
// from the frame base using fixed offsets") holds regardless of whether
// the offsets are stack slots or struct fields, and a typed struct lets
// Go's compiler catch a misindexed frame header at compile time instead
// of at a wrong runtime address.
type Frame struct {
	FuncIndex int // index into the bytecode module's function table
	IP        int
	BP        int // base register index into Machine.stack
	RegCount  int

	Callee    value.Value
	This      value.Value
	NewTarget value.Value
	Strict    bool

	// Env is the innermost currently-active Environment for this frame's
	// LoadEnv/StoreEnv level-0 access: initialized from the callee
	// closure's captured environment, then pushed further by each
	// CreateEnvironment the function body executes for its own locals and
	// nested block scopes (spec §3.5/§4.4.4).
	Env value.Value

	// IsNative and Native describe a native-function frame. invoke runs
	// native callees without pushing a Frame, so no frame on
	// Machine.frames has IsNative set; native calls are counted by
	// Machine.nativeDepth instead.
	IsNative bool
	Native   NativeFn
}

// NativeFn is the shape of a call-builtin/native-function entry point.
type NativeFn func(m *Machine, this value.Value, args []value.Value) (value.Value, bool)

// reg returns the absolute stack index for register r of this frame.
func (f *Frame) reg(r int) int { return f.BP + r }
