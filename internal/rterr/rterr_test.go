package rterr

import (
	"errors"
	"testing"
)

func TestNewCarriesKindAndMessage(t *testing.T) {
	err := New(KindBytecodeCorruption, "function %d has no Ret", 3)
	if err.Kind != KindBytecodeCorruption {
		t.Errorf("Kind = %v, want %v", err.Kind, KindBytecodeCorruption)
	}
	if err.Error() != "function 3 has no Ret" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.StackTrace() == nil {
		t.Error("expected New to capture a stack trace")
	}
}

func TestWrapPreservesUnderlyingError(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(KindOOM, cause, "segment allocation failed")
	if wrapped.Kind != KindOOM {
		t.Errorf("Kind = %v, want %v", wrapped.Kind, KindOOM)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Wrap should let errors.Is see through to the wrapped cause")
	}
	if wrapped.StackTrace() == nil {
		t.Error("expected Wrap to capture a stack trace")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindInternal:           "internal",
		KindOOM:                "out-of-memory",
		KindBytecodeCorruption: "bytecode-corruption",
		KindConfig:             "config",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", int(k), got, want)
		}
	}
}
