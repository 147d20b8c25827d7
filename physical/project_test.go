package physical

import (
	"testing"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/txn"
)

func TestProjectEvaluatesExprsAndRespectsLimit(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")
	insertInts(t, e, meta, 1, 1000)
	insertInts(t, e, meta, 2, 2000)
	insertInts(t, e, meta, 3, 3000)

	scan := NewTableScan(e, meta, "employee", nil)
	proj := NewProject(scan, []*expr.Expr{fieldExpr(meta, "id", "employee")}, 2)
	rows := drain(t, proj, txn.NewSimpleTrx())
	if len(rows) != 2 {
		t.Fatalf("expected limit to cap output at 2 rows, got %d", len(rows))
	}
	first, err := rows[0].CellAt(0)
	if err != nil {
		t.Fatalf("CellAt: %v", err)
	}
	if first.Int() != 1 {
		t.Fatalf("expected first projected id to be 1, got %d", first.Int())
	}
}

func TestProjectUnboundedWithNegativeLimit(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id")
	insertInts(t, e, meta, 1)
	insertInts(t, e, meta, 2)

	scan := NewTableScan(e, meta, "employee", nil)
	proj := NewProject(scan, []*expr.Expr{fieldExpr(meta, "id", "employee")}, -1)
	rows := drain(t, proj, txn.NewSimpleTrx())
	if len(rows) != 2 {
		t.Fatalf("expected no cap with Limit=-1, got %d rows", len(rows))
	}
}
