// Package rootscope implements the scoped LIFO handle tables native code
// uses to keep a Value rooted across operations that can trigger a
// collection (spec §4.3, §9's "Scope LIFO" testable property). It
// implements heap.RootProvider so the heap can walk every live handle as
// a GC root without knowing anything about call frames or native code.
package rootscope

import (
	"fmt"

	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/value"
)

// Handle is an opaque reference to a rooted Value, valid only while its
// owning scope (and every scope pushed after it) remains open.
type Handle struct {
	scope int
	slot  int
}

// Scopes is the LIFO stack of handle tables. A Runtime owns exactly one
// and registers it with the heap via AddRootProvider.
type Scopes struct {
	frames []frame
	// strict, when true, makes Pop assert LIFO discipline by
	// panicking on misuse (closing a scope other than the innermost)
	// instead of silently tolerating it — the debug-build behavior spec
	// §8.1 calls for.
	strict bool
}

type frame struct {
	values []value.Value
	closed bool
}

// New creates a scope stack. strict should be true in debug/test builds.
func New(strict bool) *Scopes {
	return &Scopes{strict: strict}
}

// Push opens a new innermost scope, returning its index for Pop.
func (s *Scopes) Push() int {
	s.frames = append(s.frames, frame{})
	return len(s.frames) - 1
}

// Pop closes the innermost scope. Panics (in strict mode) if idx is not
// the currently-innermost open scope, catching LIFO violations —
// closing scope N while scope N+1 is still open — at the point of
// misuse rather than letting a handle silently dangle.
func (s *Scopes) Pop(idx int) {
	if idx != len(s.frames)-1 {
		if s.strict {
			panic(fmt.Sprintf("rootscope: non-LIFO pop of scope %d while %d is innermost", idx, len(s.frames)-1))
		}
		// Best-effort recovery outside strict mode: truncate down to idx
		// anyway, silently closing everything above it too.
	}
	s.frames = s.frames[:idx]
}

// New handle roots v in the innermost currently-open scope.
func (s *Scopes) NewHandle(v value.Value) Handle {
	if len(s.frames) == 0 {
		panic("rootscope: NewHandle with no open scope")
	}
	i := len(s.frames) - 1
	s.frames[i].values = append(s.frames[i].values, v)
	return Handle{scope: i, slot: len(s.frames[i].values) - 1}
}

// Get dereferences a handle to its current Value (post-collection
// rewrites apply automatically since the backing slot is what the
// collector rewrites in place).
func (s *Scopes) Get(h Handle) value.Value {
	return s.frames[h.scope].values[h.slot]
}

// Set overwrites the Value a handle roots.
func (s *Scopes) Set(h Handle, v value.Value) {
	s.frames[h.scope].values[h.slot] = v
}

// WalkRoots implements heap.RootProvider.
func (s *Scopes) WalkRoots(visitor heap.RootVisitor) {
	for fi := range s.frames {
		vals := s.frames[fi].values
		for i := range vals {
			visitor.VisitRoot(&vals[i])
		}
	}
}

// Depth reports how many scopes are currently open.
func (s *Scopes) Depth() int { return len(s.frames) }
