package bcprovider

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Fixture is an in-memory Module, decoded from (or encoded to) CBOR bytes.
// It plays the role a real bytecode-file reader would play in a complete
// embedding (spec §6.5: "the bytecode module format... is the
// collaborator's responsibility") — this core only needs something that
// satisfies Module, and CBOR is the wire format the teacher's own
// content-distribution protocol already uses for compiled code (grounded
// on vm/dist/wire.go's canonical CBOR encoding mode).
type Fixture struct {
	Functions        []Function    `cbor:"1,keyasint"`
	GlobalFuncIndex  uint32        `cbor:"2,keyasint"`
	Strings          string        `cbor:"3,keyasint"`
	StringEntries    []StringEntry `cbor:"4,keyasint,omitempty"`
	IDHashes         []uint32      `cbor:"5,keyasint,omitempty"`
	Arrays           []LiteralValue `cbor:"6,keyasint,omitempty"`
	ObjectKeys       []uint32      `cbor:"7,keyasint,omitempty"`
	ObjectValues     []LiteralValue `cbor:"8,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bcprovider: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Encode serializes f to canonical CBOR bytes.
func (f *Fixture) Encode() ([]byte, error) {
	return cborEncMode.Marshal(f)
}

// Decode parses a Fixture from CBOR bytes.
func Decode(data []byte) (*Fixture, error) {
	var f Fixture
	if err := cbor.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("bcprovider: decode module: %w", err)
	}
	return &f, nil
}

func (f *Fixture) FunctionCount() uint32        { return uint32(len(f.Functions)) }
func (f *Fixture) GlobalFunctionIndex() uint32  { return f.GlobalFuncIndex }
func (f *Fixture) Function(i uint32) *Function  { return &f.Functions[i] }
func (f *Fixture) StringStorage() string        { return f.Strings }
func (f *Fixture) StringTable() []StringEntry   { return f.StringEntries }
func (f *Fixture) IdentifierHashes() []uint32   { return f.IDHashes }
func (f *Fixture) ArrayBuffer() []LiteralValue  { return f.Arrays }
func (f *Fixture) ObjectKeyBuffer() []uint32    { return f.ObjectKeys }
func (f *Fixture) ObjectValueBuffer() []LiteralValue { return f.ObjectValues }
