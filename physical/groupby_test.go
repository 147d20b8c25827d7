package physical

import (
	"testing"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/txn"
)

func TestScalarGroupByAggregatesWholeStream(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")
	insertInts(t, e, meta, 1, 1000)
	insertInts(t, e, meta, 2, 2000)
	insertInts(t, e, meta, 3, 3000)

	sum := expr.NewAggregation(expr.SumAgg, fieldExpr(meta, "salary", "employee"), "total")
	scan := NewTableScan(e, meta, "employee", nil)
	g := NewScalarGroupBy(scan, []*expr.Expr{sum})
	rows := drain(t, g, txn.NewSimpleTrx())
	if len(rows) != 1 {
		t.Fatalf("expected exactly one scalar row, got %d", len(rows))
	}
	total, err := rows[0].CellAt(0)
	if err != nil {
		t.Fatalf("CellAt: %v", err)
	}
	if total.Int() != 6000 {
		t.Fatalf("expected sum 6000, got %d", total.Int())
	}
}

func TestScalarGroupByEmitsOneRowOverZeroInput(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")

	count := expr.NewAggregation(expr.CountAgg, fieldExpr(meta, "id", "employee"), "n")
	scan := NewTableScan(e, meta, "employee", nil)
	g := NewScalarGroupBy(scan, []*expr.Expr{count})
	rows := drain(t, g, txn.NewSimpleTrx())
	if len(rows) != 1 {
		t.Fatalf("expected one row even over an empty table, got %d", len(rows))
	}
	n, err := rows[0].CellAt(0)
	if err != nil {
		t.Fatalf("CellAt: %v", err)
	}
	if n.Int() != 0 {
		t.Fatalf("expected COUNT 0 over empty input, got %d", n.Int())
	}
}

func TestHashGroupByBucketsDistinctKeys(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "dept_id", "salary")
	insertInts(t, e, meta, 1, 1000)
	insertInts(t, e, meta, 1, 1500)
	insertInts(t, e, meta, 2, 2000)

	groupKey := fieldExpr(meta, "dept_id", "employee")
	sum := expr.NewAggregation(expr.SumAgg, fieldExpr(meta, "salary", "employee"), "total")
	scan := NewTableScan(e, meta, "employee", nil)
	g := NewHashGroupBy(scan, []*expr.Expr{groupKey}, []*expr.Expr{sum})
	rows := drain(t, g, txn.NewSimpleTrx())
	if len(rows) != 2 {
		t.Fatalf("expected 2 distinct dept_id buckets, got %d", len(rows))
	}
	totals := map[int32]int32{}
	for _, row := range rows {
		dept, err := row.CellAt(0)
		if err != nil {
			t.Fatalf("CellAt(0): %v", err)
		}
		total, err := row.CellAt(1)
		if err != nil {
			t.Fatalf("CellAt(1): %v", err)
		}
		totals[dept.Int()] = total.Int()
	}
	if totals[1] != 2500 {
		t.Fatalf("expected dept 1 total 2500, got %d", totals[1])
	}
	if totals[2] != 2000 {
		t.Fatalf("expected dept 2 total 2000, got %d", totals[2])
	}
}
