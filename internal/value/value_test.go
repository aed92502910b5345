package value

import (
	"math"
	"testing"
)

func TestNumberRoundTrip(t *testing.T) {
	cases := []float64{0, -0, 1, -1, 3.5, math.Inf(1), math.Inf(-1), 1e308, -1e308}
	for _, f := range cases {
		v := EncodeNumber(f)
		if got := v.AsNumber(); got != f && !(f == 0 && got == 0) {
			t.Errorf("round trip %v -> %v", f, got)
		}
	}
}

func TestNumberCanonicalizesNaN(t *testing.T) {
	signaling := math.Float64frombits(0x7ff0000000000001)
	v := EncodeNumber(signaling)
	if !math.IsNaN(v.AsNumber()) {
		t.Fatalf("expected NaN, got %v", v.AsNumber())
	}
}

func TestStrictEqualsNumbers(t *testing.T) {
	a := EncodeNumber(0)
	b := EncodeNumber(math.Copysign(0, -1))
	if !a.StrictEquals(b, nil) {
		t.Error("+0 should strict-equal -0")
	}

	nan := EncodeNumber(math.NaN())
	if nan.StrictEquals(nan, nil) {
		t.Error("NaN should never strict-equal itself")
	}
}

func TestStrictEqualsKindMismatch(t *testing.T) {
	if Undef.StrictEquals(Nul, nil) {
		t.Error("undefined should not strict-equal null")
	}
	if FromBool(true).StrictEquals(EncodeNumber(1), nil) {
		t.Error("bool should not strict-equal number even with equal payload bits")
	}
}

func TestStrictEqualsPointerIdentity(t *testing.T) {
	a := FromAddr(Object, Addr(10))
	b := FromAddr(Object, Addr(10))
	c := FromAddr(Object, Addr(20))
	if !a.StrictEquals(b, nil) {
		t.Error("same address objects should be equal")
	}
	if a.StrictEquals(c, nil) {
		t.Error("different address objects should not be equal")
	}
}

func TestStrictEqualsStringByContent(t *testing.T) {
	a := FromAddr(String, Addr(1))
	b := FromAddr(String, Addr(2))
	eq := func(x, y Addr) bool { return true }
	if !a.StrictEquals(b, eq) {
		t.Error("strings should compare by content via the supplied comparator")
	}
}

func TestEmptyNeverLeaksAsJSValue(t *testing.T) {
	if !EmptyVal.IsEmpty() {
		t.Fatal("EmptyVal must report IsEmpty")
	}
	if EmptyVal.IsUndefined() || EmptyVal.IsNull() {
		t.Fatal("empty must remain distinguishable from undefined/null")
	}
}

func TestRewritePointer(t *testing.T) {
	v := FromAddr(Object, Addr(1))
	v.Rewrite(Addr(99))
	if v.AsAddr() != Addr(99) {
		t.Fatalf("expected rewritten addr 99, got %d", v.AsAddr())
	}
}

func TestAsAddrPanicsOnNonPointer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	_ = EncodeNumber(1).AsAddr()
}
