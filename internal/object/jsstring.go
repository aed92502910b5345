package object

import (
	"github.com/ashlang/jsvmcore/internal/heap"
	"github.com/ashlang/jsvmcore/internal/value"
)

// JSString is a flat, immutable heap string cell. JS strings are
// immutable value types from script's point of view; heap-allocating
// them anyway (rather than boxing text into value.Value directly) keeps
// Value a fixed-size struct regardless of string length and lets two
// equal-content strings still be distinct heap cells pending interning,
// matching how the identifier table (spec §3.8) interns a distinguished
// subset of strings rather than all of them.
type JSString struct {
	hdr heap.CellHeader

	content string
}

func (s *JSString) CellKind() heap.CellKind    { return heap.CellString }
func (s *JSString) GCHeader() *heap.CellHeader { return &s.hdr }

// NewJSString allocates a string cell with the given Go string content
// (UTF-8 internally; any UTF-16 surrogate-pair fixups required by the
// bytecode layer happen at the boundary, not in this cell).
func NewJSString(content string) *JSString {
	return &JSString{content: content}
}

// Content returns the string's text.
func (s *JSString) Content() string { return s.content }

// Len returns the string's length, matching the bytecode layer's
// expectation of a UTF-16 code-unit count (spec's `.length`); ASCII
// content, the overwhelming common case, has identical UTF-8 byte and
// UTF-16 code-unit counts, so len(s.content) is exact for it and only
// approximate for non-ASCII until the encoding boundary is wired up.
func (s *JSString) Len() int { return len(s.content) }

func cloneJSString(c heap.Cell, newAddr value.Addr) heap.Cell {
	src := c.(*JSString)
	clone := &JSString{content: src.content}
	clone.hdr = src.hdr
	return clone
}

// scanJSStringPointers is a no-op: flat string cells hold no outgoing
// heap pointers. Still registered so the collector's descriptor lookup
// for CellString never returns nil.
func scanJSStringPointers(c heap.Cell, visit func(*value.Addr)) {}

func init() {
	heap.RegisterDescriptor(&heap.Descriptor{
		Kind:         heap.CellString,
		ScanPointers: scanJSStringPointers,
		Clone:        cloneJSString,
	})
}

// StringEquals compares two string cells by content; the function shape
// required by value.Value.StrictEquals' injected stringEq callback.
// The caller (internal/interp's Machine.stringEq) resolves both
// addresses to *JSString cells and then calls this.
func StringEquals(a, b *JSString) bool {
	return a.content == b.content
}
