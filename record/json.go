package record

import (
	"encoding/json"

	"github.com/minidb/miniql/sqltype"
	"github.com/minidb/miniql/value"
)

// jsonFieldMeta/jsonTableMeta mirror the original's table.cpp meta-file
// layout: indexes and vector indexes nest inside the table's JSON document
// rather than living in their own files (original_source's index_meta.cpp/
// vector_index_meta.cpp are folded in by table.cpp at load time).

type jsonFieldMeta struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Offset      int    `json:"offset"`
	Len         int    `json:"len"`
	FieldID     int    `json:"field_id"`
	Visible     bool   `json:"visible"`
	Nullable    bool   `json:"nullable"`
	VectorDim   int    `json:"vector_dim,omitempty"`
	OwningTable string `json:"owning_table,omitempty"`
}

func toJSONField(f FieldMeta) jsonFieldMeta {
	return jsonFieldMeta{
		Name: f.Name, Type: f.Type.String(), Offset: f.Offset, Len: f.Len,
		FieldID: f.FieldID, Visible: f.Visible, Nullable: f.Nullable,
		VectorDim: f.VectorDim, OwningTable: f.OwningTable,
	}
}

func fromJSONField(j jsonFieldMeta) FieldMeta {
	return FieldMeta{
		Name: j.Name, Type: sqltype.FromString(j.Type), Offset: j.Offset, Len: j.Len,
		FieldID: j.FieldID, Visible: j.Visible, Nullable: j.Nullable,
		VectorDim: j.VectorDim, OwningTable: j.OwningTable,
	}
}

type jsonIndexMeta struct {
	Name     string          `json:"name"`
	Fields   []jsonFieldMeta `json:"fields"`
	IsUnique bool            `json:"is_unique"`
}

type jsonVectorIndexMeta struct {
	Name     string        `json:"name"`
	Field    jsonFieldMeta `json:"field"`
	Distance string        `json:"distance"`
	Lists    int           `json:"lists"`
	Probes   int           `json:"probes"`
}

type jsonTableMeta struct {
	ID            int                   `json:"id"`
	Name          string                `json:"name"`
	SysFields     []jsonFieldMeta       `json:"sys_fields"`
	UserFields    []jsonFieldMeta       `json:"user_fields"`
	Indexes       []jsonIndexMeta       `json:"indexes"`
	VectorIndexes []jsonVectorIndexMeta `json:"vector_indexes"`
	StorageFormat string                `json:"storage_format"`
	RecordSize    int                   `json:"record_size"`
}

func distanceName(d value.DistanceType) string {
	return d.String()
}

func distanceFromName(s string) value.DistanceType {
	switch s {
	case "cosine_distance":
		return value.CosineDistance
	case "inner_product_distance":
		return value.InnerProductDistance
	default:
		return value.L2Distance
	}
}

// MarshalJSON implements the table meta's on-disk encoding (spec.md §3's
// "serialized as JSON alongside the data file").
func (m TableMeta) MarshalJSON() ([]byte, error) {
	j := jsonTableMeta{
		ID: m.ID, Name: m.Name, StorageFormat: m.StorageFormat, RecordSize: m.RecordSize,
	}
	for _, f := range m.SysFields {
		j.SysFields = append(j.SysFields, toJSONField(f))
	}
	for _, f := range m.UserFields {
		j.UserFields = append(j.UserFields, toJSONField(f))
	}
	for _, idx := range m.Indexes {
		ji := jsonIndexMeta{Name: idx.Name, IsUnique: idx.IsUnique}
		for _, f := range idx.Fields {
			ji.Fields = append(ji.Fields, toJSONField(f))
		}
		j.Indexes = append(j.Indexes, ji)
	}
	for _, vi := range m.VectorIndexes {
		j.VectorIndexes = append(j.VectorIndexes, jsonVectorIndexMeta{
			Name: vi.Name, Field: toJSONField(vi.Field), Distance: distanceName(vi.Distance),
			Lists: vi.Lists, Probes: vi.Probes,
		})
	}
	return json.MarshalIndent(j, "", "  ")
}

func (m *TableMeta) UnmarshalJSON(data []byte) error {
	var j jsonTableMeta
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	m.ID, m.Name, m.StorageFormat, m.RecordSize = j.ID, j.Name, j.StorageFormat, j.RecordSize
	for _, f := range j.SysFields {
		m.SysFields = append(m.SysFields, fromJSONField(f))
	}
	for _, f := range j.UserFields {
		m.UserFields = append(m.UserFields, fromJSONField(f))
	}
	for _, ji := range j.Indexes {
		idx := IndexMeta{Name: ji.Name, IsUnique: ji.IsUnique}
		for _, f := range ji.Fields {
			idx.Fields = append(idx.Fields, fromJSONField(f))
		}
		m.Indexes = append(m.Indexes, idx)
	}
	for _, jv := range j.VectorIndexes {
		m.VectorIndexes = append(m.VectorIndexes, VectorIndexMeta{
			Name: jv.Name, Field: fromJSONField(jv.Field), Distance: distanceFromName(jv.Distance),
			Lists: jv.Lists, Probes: jv.Probes,
		})
	}
	return nil
}
