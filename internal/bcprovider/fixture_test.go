package bcprovider

import "testing"

func TestFixtureEncodeDecodeRoundTrip(t *testing.T) {
	f := &Fixture{
		GlobalFuncIndex: 1,
		Functions: []Function{
			{Opcodes: []byte{0x01, 0x00}, Header: FunctionHeader{FrameSize: 2, ParamCount: 0}},
			{
				Opcodes: []byte{0x83, 0x00},
				Header:  FunctionHeader{FrameSize: 1, ParamCount: 0, Strict: true},
				ExceptionTable: []ExceptionEntry{
					{TryStart: 0, TryEnd: 4, HandlerOffset: 10},
				},
			},
		},
		Strings:       "helloworld",
		StringEntries: []StringEntry{{Offset: 0, Length: 5}, {Offset: 5, Length: 5, IsIdentifier: true}},
		IDHashes:      []uint32{1, 2, 3},
		Arrays:        []LiteralValue{{Kind: LitNumber, Number: 3.5}},
		ObjectKeys:    []uint32{7},
		ObjectValues:  []LiteralValue{{Kind: LitStringIndex, Index: 1}},
	}

	data, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.FunctionCount() != 2 {
		t.Fatalf("FunctionCount() = %d, want 2", decoded.FunctionCount())
	}
	if decoded.GlobalFunctionIndex() != 1 {
		t.Errorf("GlobalFunctionIndex() = %d, want 1", decoded.GlobalFunctionIndex())
	}
	if decoded.StringStorage() != "helloworld" {
		t.Errorf("StringStorage() = %q", decoded.StringStorage())
	}
	if len(decoded.StringTable()) != 2 || !decoded.StringTable()[1].IsIdentifier {
		t.Errorf("StringTable() not preserved: %+v", decoded.StringTable())
	}
	if len(decoded.IdentifierHashes()) != 3 {
		t.Errorf("IdentifierHashes() not preserved: %+v", decoded.IdentifierHashes())
	}

	fn1 := decoded.Function(1)
	if !fn1.Header.Strict || fn1.Header.FrameSize != 1 {
		t.Errorf("Function(1).Header = %+v", fn1.Header)
	}
	if len(fn1.ExceptionTable) != 1 || fn1.ExceptionTable[0].HandlerOffset != 10 {
		t.Errorf("Function(1).ExceptionTable not preserved: %+v", fn1.ExceptionTable)
	}

	if len(decoded.ArrayBuffer()) != 1 || decoded.ArrayBuffer()[0].Number != 3.5 {
		t.Errorf("ArrayBuffer() not preserved: %+v", decoded.ArrayBuffer())
	}
	if len(decoded.ObjectKeyBuffer()) != 1 || decoded.ObjectKeyBuffer()[0] != 7 {
		t.Errorf("ObjectKeyBuffer() not preserved: %+v", decoded.ObjectKeyBuffer())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Fatal("expected an error decoding non-CBOR garbage")
	}
}
