// Package record implements spec.md §3's FieldMeta/TableMeta/Record:
// the schema description of a table and the byte-buffer encoder/decoder
// for its rows, kept deliberately separate per spec.md §9's re-architecture
// note ("keep a FieldMeta-driven encoder/decoder separate from the byte
// buffer"). Grounded on
// original_source/.../storage/field/field_meta.h and storage/table/table.cpp.
package record

import "github.com/minidb/miniql/sqltype"

// FieldMeta describes one column: its type, its byte offset/length inside
// the fixed-size record buffer, and its 0-based FieldID used to position
// the column's bit in the record's NULL bitmap.
type FieldMeta struct {
	Name        string
	Type        sqltype.AttrType
	Offset      int
	Len         int
	FieldID     int
	Visible     bool
	Nullable    bool
	VectorDim   int // only meaningful when Type == VECTORS
	OwningTable string
}

// Clone returns a copy; FieldMeta is small and has no heap-owned payload
// beyond strings, so a plain struct copy already suffices, but Clone keeps
// callers honest about intent (e.g. view column provenance rewriting).
func (f FieldMeta) Clone() FieldMeta { return f }
