package physical

import (
	"testing"

	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

func TestIndexScanPointLookup(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")
	insertInts(t, e, meta, 1, 1000)
	insertInts(t, e, meta, 2, 2000)
	insertInts(t, e, meta, 3, 3000)

	im := record.IndexMeta{Name: "idx_id", Fields: []record.FieldMeta{meta.UserFields[0]}}
	if err := e.CreateIndex(meta, im); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	key := []value.Value{value.NewInt(2)}
	scan := NewIndexScan(e, meta, "employee", "idx_id", key, true, key, true, nil)
	rows := drain(t, scan, txn.NewSimpleTrx())
	if len(rows) != 1 {
		t.Fatalf("expected exactly 1 row for id=2, got %d", len(rows))
	}
	salary, err := rows[0].CellAt(1)
	if err != nil {
		t.Fatalf("CellAt: %v", err)
	}
	if salary.Int() != 2000 {
		t.Fatalf("expected salary 2000, got %d", salary.Int())
	}
}

func TestIndexScanRangeLookup(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")
	insertInts(t, e, meta, 1, 1000)
	insertInts(t, e, meta, 2, 2000)
	insertInts(t, e, meta, 3, 3000)

	im := record.IndexMeta{Name: "idx_id", Fields: []record.FieldMeta{meta.UserFields[0]}}
	if err := e.CreateIndex(meta, im); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}

	left := []value.Value{value.NewInt(2)}
	right := []value.Value{value.NewInt(3)}
	scan := NewIndexScan(e, meta, "employee", "idx_id", left, true, right, true, nil)
	rows := drain(t, scan, txn.NewSimpleTrx())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows for id in [2,3], got %d", len(rows))
	}
}
