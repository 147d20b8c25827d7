package physical

import (
	"testing"

	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/sqltype"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

// newTestEngine opens an empty catalog rooted at a fresh temp directory,
// the same shape DDL statements build against in the running server.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	cat, err := catalog.Open(dir)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	return NewEngine(cat, dir)
}

// testTable builds a plain int-column table meta directly, without going
// through Engine.CreateTable, for planner tests that only exercise
// construction-time dispatch and never Open() the resulting operator.
func testTable(name string, fields ...string) *record.TableMeta {
	m := &record.TableMeta{Name: name}
	for i, f := range fields {
		m.UserFields = append(m.UserFields, record.FieldMeta{
			Name: f, Type: sqltype.INTS, FieldID: i, Visible: true, OwningTable: name,
		})
	}
	m.ComputeLayout()
	return m
}

// liveTable creates and opens an int-column table through the Engine, the
// same path a CREATE TABLE statement drives, so operators that call
// Engine.Table/Blobs/IndexTree against it find live handles.
func liveTable(t *testing.T, e *Engine, name string, fields ...string) *record.TableMeta {
	t.Helper()
	m := testTable(name, fields...)
	if err := e.CreateTable(m); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	return m
}

func insertInts(t *testing.T, e *Engine, meta *record.TableMeta, ints ...int32) value.RID {
	t.Helper()
	tbl, err := e.Table(meta)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	values := make([]value.Value, len(ints))
	for i, n := range ints {
		values[i] = value.NewInt(n)
	}
	rid, err := tbl.InsertValues(values)
	if err != nil {
		t.Fatalf("InsertValues: %v", err)
	}
	return rid
}

// liveVectorTable creates a two-column (id INTS, embedding VECTORS) table
// through the Engine, the same path CREATE TABLE ... VECTOR(dim) drives.
func liveVectorTable(t *testing.T, e *Engine, name string, dim int) *record.TableMeta {
	t.Helper()
	m := &record.TableMeta{Name: name}
	m.UserFields = append(m.UserFields,
		record.FieldMeta{Name: "id", Type: sqltype.INTS, FieldID: 0, Visible: true, OwningTable: name},
		record.FieldMeta{Name: "embedding", Type: sqltype.VECTORS, FieldID: 1, Visible: true, OwningTable: name, VectorDim: dim},
	)
	m.ComputeLayout()
	if err := e.CreateTable(m); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	return m
}

// insertVectorRow appends floats to the table's vector blob file, then
// inserts a record carrying a ref to that offset, the shape a VECTORS
// column's fixed-size slot always holds. Writes the blob directly rather
// than through Insert's literal-evaluation path, so the test controls the
// stored ref.
func insertVectorRow(t *testing.T, e *Engine, meta *record.TableMeta, id int32, floats []float32) value.RID {
	t.Helper()
	ot, err := e.openTableHandles(meta)
	if err != nil {
		t.Fatalf("openTableHandles: %v", err)
	}
	offset, dim, err := ot.vecFile.Append(floats)
	if err != nil {
		t.Fatalf("vecFile.Append: %v", err)
	}
	values := []value.Value{value.NewInt(id), value.NewVectorRef(offset, dim)}
	rec, err := record.MakeRecord(meta, values)
	if err != nil {
		t.Fatalf("MakeRecord: %v", err)
	}
	rid, err := ot.tbl.InsertRecordData(rec.Data)
	if err != nil {
		t.Fatalf("InsertRecordData: %v", err)
	}
	return rid
}

func drain(t *testing.T, op Operator, tx txn.Trx) []expr.Tuple {
	t.Helper()
	if err := op.Open(tx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer op.Close()
	var out []expr.Tuple
	for {
		ok, err := op.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		cur, err := op.Current()
		if err != nil {
			t.Fatalf("Current: %v", err)
		}
		out = append(out, cur)
	}
	return out
}
