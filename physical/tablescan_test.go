package physical

import (
	"testing"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

func TestTableScanYieldsEveryRow(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")
	insertInts(t, e, meta, 1, 1000)
	insertInts(t, e, meta, 2, 2000)
	insertInts(t, e, meta, 3, 3000)

	scan := NewTableScan(e, meta, "employee", nil)
	rows := drain(t, scan, txn.NewSimpleTrx())
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
}

func TestTableScanAppliesPushedFilters(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")
	insertInts(t, e, meta, 1, 1000)
	insertInts(t, e, meta, 2, 2000)
	insertInts(t, e, meta, 3, 3000)

	filter := expr.NewComparison(expr.GT, fieldExpr(meta, "salary", "employee"), expr.NewValue(value.NewInt(1500)))
	scan := NewTableScan(e, meta, "employee", []*expr.Expr{filter})
	rows := drain(t, scan, txn.NewSimpleTrx())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows matching salary > 1500, got %d", len(rows))
	}
	for _, row := range rows {
		salary, err := row.CellAt(1)
		if err != nil {
			t.Fatalf("CellAt: %v", err)
		}
		if salary.Int() <= 1500 {
			t.Fatalf("expected every row to satisfy the filter, got salary %d", salary.Int())
		}
	}
}
