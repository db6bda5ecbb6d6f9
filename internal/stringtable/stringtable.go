// Package stringtable implements the flat, offset-addressed string blob
// backing word text, language codes, and other variable-length text in a
// Lingo file (spec §3.4).
package stringtable

import (
	"math"
	"unicode/utf8"

	"github.com/lingodb/lingo/internal/lingoerr"
)

// MaxStringLength is the largest string the 16-bit length field can address.
const MaxStringLength = math.MaxUint16

// Ref locates a string within the table by byte offset and length.
type Ref struct {
	Offset uint32
	Length uint16
}

// Table accumulates strings during build and serves lookups during reads.
// Table is not safe for concurrent writes; concurrent reads are fine once
// building has finished (see SPEC_FULL.md concurrency model).
type Table struct {
	data  []byte
	cache map[string]Ref
}

// New returns an empty table ready for interning.
func New() *Table {
	return &Table{cache: make(map[string]Ref)}
}

// FromBytes wraps a previously-serialized blob for read-only lookups. No
// cache is built; Intern on a table constructed this way will not dedupe
// against the existing contents, matching the teacher's "cache will be
// built on demand" comment on the equivalent constructor.
func FromBytes(data []byte) *Table {
	return &Table{data: data}
}

// Intern stores s if not already present and returns its Ref. Repeated
// interning of an identical string returns the same Ref (spec: "dedup on
// exact match").
func (t *Table) Intern(s string) (Ref, error) {
	if !utf8.ValidString(s) {
		return Ref{}, lingoerr.New(lingoerr.KindInvalidUTF8, s, nil)
	}
	if len(s) > MaxStringLength {
		return Ref{}, lingoerr.New(lingoerr.KindStringTooLong, s, nil)
	}
	if t.cache != nil {
		if ref, ok := t.cache[s]; ok {
			return ref, nil
		}
	}

	ref := Ref{Offset: uint32(len(t.data)), Length: uint16(len(s))}
	t.data = append(t.data, s...)
	if t.cache != nil {
		t.cache[s] = ref
	}
	return ref, nil
}

// Get resolves a Ref back to its string.
func (t *Table) Get(ref Ref) (string, error) {
	start := int(ref.Offset)
	end := start + int(ref.Length)
	if end > len(t.data) || start > end {
		return "", lingoerr.New(lingoerr.KindOutOfBounds, "string table", nil)
	}
	b := t.data[start:end]
	if !utf8.Valid(b) {
		return "", lingoerr.InvalidUTF8
	}
	return string(b), nil
}

// Size returns the serialized byte length of the table.
func (t *Table) Size() int { return len(t.data) }

// Bytes returns the raw table contents for serialization. Callers must not
// mutate the returned slice.
func (t *Table) Bytes() []byte { return t.data }
