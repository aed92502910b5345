// Package rterr constructs fatal, VM-internal errors: bytecode corruption,
// invariant violations, and other conditions the interpreter cannot
// recover from by raising a JS exception (spec §7 distinguishes these from
// the thrown-Value path, which stays a plain value.Value all the way up
// through runFrame). Every fatal error gets a stack trace attached at the
// point of detection via github.com/pkg/errors, the teacher's own
// (indirect) dependency for this, so a panic recovered at the host
// boundary can report where inside the VM things went wrong.
package rterr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a fatal error for the host embedding's benefit (spec
// §6.1's Result<Value>/exit-code mapping at the CLI boundary, §6.4).
type Kind int

const (
	KindInternal Kind = iota
	KindOOM
	KindBytecodeCorruption
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindOOM:
		return "out-of-memory"
	case KindBytecodeCorruption:
		return "bytecode-corruption"
	case KindConfig:
		return "config"
	default:
		return "internal"
	}
}

// Fatal is a VM-internal error carrying a Kind and a stack trace captured
// at construction time.
type Fatal struct {
	Kind Kind
	msg  string
	err  error // errors.New/errors.Wrap result, carries the stack trace
}

func (f *Fatal) Error() string { return f.msg }
func (f *Fatal) Unwrap() error { return f.err }

// StackTrace exposes the captured frames for a top-level crash reporter
// (pkg/errors' own convention: an error implementing this interface).
func (f *Fatal) StackTrace() errors.StackTrace {
	type tracer interface{ StackTrace() errors.StackTrace }
	if t, ok := f.err.(tracer); ok {
		return t.StackTrace()
	}
	return nil
}

// New constructs a Fatal of the given kind with a stack trace rooted here.
func New(kind Kind, format string, args ...any) *Fatal {
	msg := fmt.Sprintf(format, args...)
	return &Fatal{Kind: kind, msg: msg, err: errors.New(msg)}
}

// Wrap attaches kind and a stack trace to an existing error (a config
// parse failure, a storage-provider denial surfaced as OOM), the way
// manifest.Load wraps os.ReadFile/toml.Unmarshal failures with %w, except
// here the wrap also wants the stack trace pkg/errors.Wrap captures.
func Wrap(kind Kind, err error, format string, args ...any) *Fatal {
	msg := fmt.Sprintf(format, args...)
	return &Fatal{Kind: kind, msg: msg + ": " + err.Error(), err: errors.Wrap(err, msg)}
}
