package runtime

import (
	"testing"

	"github.com/ashlang/jsvmcore/internal/bcprovider"
	"github.com/ashlang/jsvmcore/internal/interp"
	"github.com/ashlang/jsvmcore/internal/rtconfig"
	"github.com/ashlang/jsvmcore/internal/value"
)

func TestCreateBootstrapsPrototypeChain(t *testing.T) {
	module := &bcprovider.Fixture{
		GlobalFuncIndex: 0,
		Functions: []bcprovider.Function{
			{
				Opcodes: []byte{byte(interp.OpLoadUndefined), 0, byte(interp.OpRet), 0},
				Header:  bcprovider.FunctionHeader{FrameSize: 1},
			},
		},
	}
	rt, err := Create(rtconfig.Default(), module, true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if rt.Engine.ObjectProto.IsUndefined() {
		t.Error("ObjectProto should be allocated by bootstrap")
	}
	if rt.Engine.ArrayProto.IsUndefined() {
		t.Error("ArrayProto should be allocated by bootstrap")
	}
	if rt.GetGlobal().IsUndefined() {
		t.Error("globalThis should be allocated by bootstrap")
	}
}

func TestRunReturnsResult(t *testing.T) {
	module := &bcprovider.Fixture{
		GlobalFuncIndex: 0,
		Functions: []bcprovider.Function{
			{
				Opcodes: []byte{
					byte(interp.OpLoadInt8), 0, 21,
					byte(interp.OpRet), 0,
				},
				Header: bcprovider.FunctionHeader{FrameSize: 1},
			},
		},
	}
	rt, err := Create(rtconfig.Default(), module, true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	result, err := rt.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := result.AsNumber(); got != 21 {
		t.Errorf("Run() = %v, want 21", got)
	}
}

func TestRunSurfacesUncaughtExceptionAsScriptError(t *testing.T) {
	module := &bcprovider.Fixture{
		GlobalFuncIndex: 0,
		Functions: []bcprovider.Function{
			{
				Opcodes: []byte{
					byte(interp.OpLoadInt8), 0, 5,
					byte(interp.OpThrow), 0,
				},
				Header: bcprovider.FunctionHeader{FrameSize: 1},
			},
		},
	}
	rt, err := Create(rtconfig.Default(), module, true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = rt.Run()
	if err == nil {
		t.Fatal("expected Run to return an error for an uncaught throw")
	}
	scriptErr, ok := err.(*ScriptError)
	if !ok {
		t.Fatalf("expected a *ScriptError, got %T", err)
	}
	if scriptErr.Value.AsNumber() != 5 {
		t.Errorf("ScriptError.Value = %v, want 5", scriptErr.Value.AsNumber())
	}

	// The runtime should still be usable after the exception was taken.
	if rt.Engine.HasPendingException() {
		t.Error("Run should clear the pending exception once converted to a ScriptError")
	}
}

func TestHostFunctionRoundTrip(t *testing.T) {
	module := &bcprovider.Fixture{
		GlobalFuncIndex: 0,
		Functions: []bcprovider.Function{
			{
				Opcodes: []byte{byte(interp.OpLoadUndefined), 0, byte(interp.OpRet), 0},
				Header:  bcprovider.FunctionHeader{FrameSize: 1},
			},
		},
	}
	rt, err := Create(rtconfig.Default(), module, true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	called := false
	fn := rt.RegisterHostFunction("double", 1, func(this value.Value, args []value.Value) (value.Value, bool) {
		called = true
		return value.EncodeNumber(args[0].AsNumber() * 2), true
	})

	result, err := rt.Call(fn, rt.GetGlobal(), []value.Value{value.EncodeNumber(21)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !called {
		t.Error("host function was never invoked")
	}
	if got := result.AsNumber(); got != 42 {
		t.Errorf("Call() = %v, want 42", got)
	}
}

// TestFullCollectSweepsUnreferencedIdentifiers exercises spec §4.2.4 step
// 6: a property-name symbol kept alive by a live object's hidden class
// survives repeated full collections, while one interned and then never
// referenced again is swept once the epoch it was interned in passes.
func TestFullCollectSweepsUnreferencedIdentifiers(t *testing.T) {
	module := &bcprovider.Fixture{
		GlobalFuncIndex: 0,
		Functions: []bcprovider.Function{
			{
				Opcodes: []byte{byte(interp.OpLoadUndefined), 0, byte(interp.OpRet), 0},
				Header:  bcprovider.FunctionHeader{FrameSize: 1},
			},
		},
	}
	rt, err := Create(rtconfig.Default(), module, true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	scope := rt.PushScope()
	defer rt.PopScope(scope)

	obj := rt.CreateObject()
	rt.NewHandle(obj)
	if !rt.SetProperty(obj, "keepMe", value.EncodeNumber(1)) {
		t.Fatal("SetProperty(keepMe) failed")
	}

	transientID := rt.Intern("neverReferencedAgain")

	rt.Heap.FullCollect()
	rt.Heap.FullCollect()

	if got := rt.GetProperty(obj, "keepMe"); got.AsNumber() != 1 {
		t.Errorf("GetProperty(keepMe) after two full collections = %v, want 1", got.AsNumber())
	}
	if name := rt.Idents.Lookup(transientID); name != "" {
		t.Errorf("unreferenced identifier %d survived two full collections as %q, want swept", transientID, name)
	}
}
