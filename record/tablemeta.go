package record

import "github.com/minidb/miniql/value"

// IndexMeta describes a B+tree index: an ordered key field list plus
// uniqueness, per spec.md §3.
type IndexMeta struct {
	Name     string
	Fields   []FieldMeta
	IsUnique bool
}

func (m IndexMeta) HasField(name string) bool {
	for _, f := range m.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// MatchesExactFieldSet reports whether m's key fields are exactly the given
// set, in the same order — the equality test the physical planner (§4.5)
// uses to pick an IndexScan for a set of equality predicates.
func (m IndexMeta) MatchesExactFieldSet(fieldNames []string) bool {
	if len(m.Fields) != len(fieldNames) {
		return false
	}
	for i, f := range m.Fields {
		if f.Name != fieldNames[i] {
			return false
		}
	}
	return true
}

// VectorIndexMeta describes an IVF-flat vector index: the indexed field,
// distance type, and its lists/probes tuning parameters (spec.md §3).
type VectorIndexMeta struct {
	Name     string
	Field    FieldMeta
	Distance value.DistanceType
	Lists    int
	Probes   int
}

// TableMeta is the persistent schema description of one table, serialized
// as JSON alongside the data file (spec.md §3). SysFields are reserved for
// the transaction manager (e.g. a trx-id header) and never carry a NULL
// bit; UserFields do, each field's null bit positioned at FieldID minus the
// sys-field count.
type TableMeta struct {
	ID            int
	Name          string
	SysFields     []FieldMeta
	UserFields    []FieldMeta
	Indexes       []IndexMeta
	VectorIndexes []VectorIndexMeta
	StorageFormat string // "row" (default) or "pax" style; only "row" implemented
	RecordSize    int
}

// FieldByName searches user fields first (the common case), then sys
// fields; returns nil if not found.
func (m *TableMeta) FieldByName(name string) *FieldMeta {
	for i := range m.UserFields {
		if m.UserFields[i].Name == name {
			return &m.UserFields[i]
		}
	}
	for i := range m.SysFields {
		if m.SysFields[i].Name == name {
			return &m.SysFields[i]
		}
	}
	return nil
}

// VisibleFields returns the fields a `SELECT *` should expand to, in
// declaration order.
func (m *TableMeta) VisibleFields() []FieldMeta {
	out := make([]FieldMeta, 0, len(m.UserFields))
	for _, f := range m.UserFields {
		if f.Visible {
			out = append(out, f)
		}
	}
	return out
}

// IndexByFieldSet finds a B+tree index whose key fields match fieldNames
// exactly, used by the physical planner's access-method selection.
func (m *TableMeta) IndexByFieldSet(fieldNames []string) *IndexMeta {
	for i := range m.Indexes {
		if m.Indexes[i].MatchesExactFieldSet(fieldNames) {
			return &m.Indexes[i]
		}
	}
	return nil
}

func (m *TableMeta) VectorIndexByField(fieldName string, dt value.DistanceType) *VectorIndexMeta {
	for i := range m.VectorIndexes {
		vi := &m.VectorIndexes[i]
		if vi.Field.Name == fieldName && vi.Distance == dt {
			return vi
		}
	}
	return nil
}
