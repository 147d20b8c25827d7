package record

import (
	"math/rand"
	"testing"

	"github.com/minidb/miniql/sqltype"
	"github.com/minidb/miniql/value"
)

func testTableMeta() *TableMeta {
	m := &TableMeta{
		Name:      "t",
		SysFields: []FieldMeta{{Name: "__trx__", Type: sqltype.INTS, Len: sysHeaderSize}},
		UserFields: []FieldMeta{
			{Name: "id", Type: sqltype.INTS, Len: 4, Nullable: false},
			{Name: "score", Type: sqltype.FLOATS, Len: 4, Nullable: true},
			{Name: "name", Type: sqltype.CHARS, Len: 16, Nullable: true},
			{Name: "note", Type: sqltype.TEXTS, Len: 16, Nullable: true},
			{Name: "embedding", Type: sqltype.VECTORS, Len: 16, Nullable: true, VectorDim: 4},
		},
	}
	m.ComputeLayout()
	return m
}

func TestRecordRoundTrip(t *testing.T) {
	m := testTableMeta()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		values := []value.Value{
			value.NewInt(rng.Int31()),
			randomOrNull(rng, func() value.Value { return value.NewFloat(rng.Float32()) }),
			randomOrNull(rng, func() value.Value { return value.NewChars("row-name") }),
			randomOrNull(rng, func() value.Value { return value.NewTextRef(uint64(i), 10) }),
			randomOrNull(rng, func() value.Value { return value.NewVectorRef(uint64(i), 4) }),
		}
		rec, err := MakeRecord(m, values)
		if err != nil {
			t.Fatalf("MakeRecord: %v", err)
		}
		if len(rec.Data) != m.RecordSize {
			t.Fatalf("record size mismatch: got %d want %d", len(rec.Data), m.RecordSize)
		}
		decoded := DecodeRecord(m, rec.Data)
		for j, want := range values {
			got := decoded[j]
			if want.IsNull() != got.IsNull() {
				t.Fatalf("field %d null mismatch: want %v got %v", j, want, got)
			}
			if want.IsNull() {
				continue
			}
			cmp, unknown := value.Compare(want, got)
			if unknown || cmp != 0 {
				t.Fatalf("field %d round trip mismatch: want %v got %v", j, want, got)
			}
		}
	}
}

func randomOrNull(rng *rand.Rand, mk func() value.Value) value.Value {
	if rng.Intn(3) == 0 {
		return value.Null()
	}
	return mk()
}

func TestSetFieldRejectsNullOnNotNullable(t *testing.T) {
	m := testTableMeta()
	m.UserFields[0].Nullable = false
	rec := NewRecord(m)
	if err := SetField(rec.Data, m, &m.UserFields[0], value.Null()); err == nil {
		t.Fatal("expected error setting NULL on non-nullable field")
	}
}

func TestCharsTruncatesAtCapacityAndNulTerminates(t *testing.T) {
	m := testTableMeta()
	nameField := &m.UserFields[2]
	rec := NewRecord(m)
	longStr := "this-name-is-too-long-for-the-column"
	if err := SetField(rec.Data, m, nameField, value.NewChars(longStr)); err != nil {
		t.Fatal(err)
	}
	got := GetField(rec.Data, m, nameField)
	if len(got.Chars()) >= nameField.Len {
		t.Fatalf("chars value not truncated: len=%d cap=%d", len(got.Chars()), nameField.Len)
	}
}

func TestSetFieldRejectsVectorDimensionMismatch(t *testing.T) {
	m := testTableMeta()
	embedding := &m.UserFields[4]
	rec := NewRecord(m)
	if err := SetField(rec.Data, m, embedding, value.NewVectorRef(0, 3)); err == nil {
		t.Fatal("expected error setting a dimension-3 vector into a VECTOR(4) column")
	}
	if err := SetField(rec.Data, m, embedding, value.NewVectorRef(0, 4)); err != nil {
		t.Fatalf("expected a matching dimension-4 vector to be accepted: %v", err)
	}
}

func TestMakeRecordCastsMismatchedType(t *testing.T) {
	m := testTableMeta()
	values := []value.Value{
		value.NewInt(1),
		value.NewInt(7), // FLOATS column, should cast from INTS
		value.Null(),
		value.Null(),
		value.Null(),
	}
	rec, err := MakeRecord(m, values)
	if err != nil {
		t.Fatalf("MakeRecord with castable mismatch: %v", err)
	}
	got := GetField(rec.Data, m, &m.UserFields[1])
	if got.Tag != sqltype.FLOATS {
		t.Fatalf("expected cast to FLOATS, got %s", got.Tag)
	}
	if got.Float() != 7 {
		t.Fatalf("expected 7.0, got %v", got.Float())
	}
}
