package bcprovider

// Builder assembles a Fixture function-by-function, standing in for the
// real bytecode generator (out of scope, spec §1). Tests use it to
// produce a Module without depending on a front-end compiler; the CLI
// driver only decodes modules and does not use it.
type Builder struct {
	f       Fixture
	strings map[string]uint32
}

// NewBuilder creates an empty module builder.
func NewBuilder() *Builder {
	return &Builder{strings: make(map[string]uint32)}
}

// Intern adds s to the string table (marking it an identifier if
// asIdent), returning its index. Repeated calls with the same (s,
// asIdent) pair reuse the existing slot.
func (b *Builder) Intern(s string, asIdent bool) uint32 {
	key := s
	if asIdent {
		key = "#" + s // identifiers and plain literal strings may coexist with the same text but different flags
	}
	if idx, ok := b.strings[key]; ok {
		return idx
	}
	off := uint32(len(b.f.Strings))
	b.f.Strings += s
	idx := uint32(len(b.f.StringEntries))
	b.f.StringEntries = append(b.f.StringEntries, StringEntry{Offset: off, Length: uint32(len(s)), IsIdentifier: asIdent})
	b.strings[key] = idx
	return idx
}

// AddFunction appends a function, returning its index.
func (b *Builder) AddFunction(fn Function) uint32 {
	idx := uint32(len(b.f.Functions))
	b.f.Functions = append(b.f.Functions, fn)
	return idx
}

// SetGlobalFunction marks idx as the module's designated global function
// (spec §2's "the bytecode provider hands the runtime... a designated
// global function").
func (b *Builder) SetGlobalFunction(idx uint32) { b.f.GlobalFuncIndex = idx }

// AddArrayLiteralValues appends to the shared array-literal buffer,
// returning the starting offset new-array-with-buffer opcodes reference.
func (b *Builder) AddArrayLiteralValues(vals ...LiteralValue) uint32 {
	off := uint32(len(b.f.Arrays))
	b.f.Arrays = append(b.f.Arrays, vals...)
	return off
}

// AddObjectLiteralPairs appends parallel (key string-table index, value)
// entries to the object-literal buffers, returning the starting offset.
func (b *Builder) AddObjectLiteralPairs(keys []uint32, vals []LiteralValue) uint32 {
	off := uint32(len(b.f.ObjectKeys))
	b.f.ObjectKeys = append(b.f.ObjectKeys, keys...)
	b.f.ObjectValues = append(b.f.ObjectValues, vals...)
	return off
}

// Build finalizes the Fixture.
func (b *Builder) Build() *Fixture {
	return &b.f
}
