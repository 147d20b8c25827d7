package record

// sysHeaderSize is the width in bytes reserved at the front of every record
// for the transaction manager (begin/end trx ids), mirroring the original's
// trx_fields prepended ahead of user data.
const sysHeaderSize = 8

// SysFieldNum returns the number of sys fields (reserved for the trx layer),
// used to offset a user field's FieldID down to a null-bitmap bit index.
func (m *TableMeta) SysFieldNum() int { return len(m.SysFields) }

// FieldNum returns the number of user fields — the null bitmap is sized to
// carry exactly one bit per user field, per spec.md §3.
func (m *TableMeta) FieldNum() int { return len(m.UserFields) }

// NullBitmapStart returns the byte offset of the null bitmap, immediately
// after the sys header.
func (m *TableMeta) NullBitmapStart() int { return sysHeaderSize }

// NullBitmapSize returns the number of bytes the null bitmap occupies.
func (m *TableMeta) NullBitmapSize() int { return (m.FieldNum() + 7) / 8 }

// ComputeLayout assigns Offset/FieldID to each user field in declaration
// order and sets RecordSize. Called once when a table is created; a schema
// change (ALTER) that added fields would need to re-run this and migrate
// existing records, which the system does not support (append-only schema
// evolution is limited to adding indexes, per spec.md §3).
func (m *TableMeta) ComputeLayout() {
	dataStart := m.NullBitmapStart() + m.NullBitmapSize()
	offset := dataStart
	for i := range m.UserFields {
		f := &m.UserFields[i]
		f.FieldID = m.SysFieldNum() + i
		f.Offset = offset
		offset += f.Len
	}
	m.RecordSize = offset
}

// bitIndex returns the null-bitmap bit position for a user field.
func bitIndex(m *TableMeta, f *FieldMeta) int {
	return f.FieldID - m.SysFieldNum()
}

func setBit(bitmap []byte, i int) {
	bitmap[i/8] |= 1 << uint(i%8)
}

func clearBit(bitmap []byte, i int) {
	bitmap[i/8] &^= 1 << uint(i%8)
}

func testBit(bitmap []byte, i int) bool {
	return bitmap[i/8]&(1<<uint(i%8)) != 0
}
