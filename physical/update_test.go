package physical

import (
	"testing"

	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/stmt"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

func TestUpdateRewritesSetFieldsAndReportsCount(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")
	insertInts(t, e, meta, 1, 1000)
	insertInts(t, e, meta, 2, 2000)

	filter := expr.NewComparison(expr.EQ, fieldExpr(meta, "id", "employee"), expr.NewValue(value.NewInt(1)))
	scan := NewTableScan(e, meta, "employee", []*expr.Expr{filter})
	sets := []stmt.SetClause{{Field: &meta.UserFields[1], Value: expr.NewValue(value.NewInt(9999))}}
	upd := NewUpdate(e, scan, meta, nil, sets)
	out := drain(t, upd, txn.NewSimpleTrx())
	n, err := out[0].CellAt(0)
	if err != nil {
		t.Fatalf("CellAt: %v", err)
	}
	if n.Int() != 1 {
		t.Fatalf("expected rows_updated=1, got %d", n.Int())
	}

	rows := drain(t, NewTableScan(e, meta, "employee", nil), txn.NewSimpleTrx())
	found := false
	for _, row := range rows {
		id, err := row.CellAt(0)
		if err != nil {
			t.Fatalf("CellAt: %v", err)
		}
		if id.Int() != 1 {
			continue
		}
		found = true
		salary, err := row.CellAt(1)
		if err != nil {
			t.Fatalf("CellAt: %v", err)
		}
		if salary.Int() != 9999 {
			t.Fatalf("expected updated salary 9999, got %d", salary.Int())
		}
	}
	if !found {
		t.Fatalf("expected row id=1 to still exist after update")
	}
}

func TestUpdateRejectsMultiBaseTableView(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")
	scan := NewTableScan(e, meta, "employee", nil)
	sets := []stmt.SetClause{{Field: &meta.UserFields[1], Value: expr.NewValue(value.NewInt(1))}}
	view := &catalog.View{Name: "employee_view", BaseTables: []string{"employee", "department"}}
	upd := NewUpdate(e, scan, meta, view, sets)
	if err := upd.Open(txn.NewSimpleTrx()); err == nil {
		t.Fatalf("expected update through a join view to be rejected")
	}
}

// TestUpdateRoutesThroughSingleBaseTableView mirrors the view column onto a
// differently-named base field, exercising Update.Open's
// View.AttrBaseField remap the way Insert's fieldMap already does.
func TestUpdateRoutesThroughSingleBaseTableView(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "pay")
	insertInts(t, e, meta, 1, 1000)

	view := &catalog.View{
		Name:       "employee_view",
		BaseTables: []string{"employee"},
		AttrBaseField: map[string]catalog.AttrProvenance{
			"salary": {BaseTable: "employee", BaseField: "pay"},
		},
	}
	filter := expr.NewComparison(expr.EQ, fieldExpr(meta, "id", "employee"), expr.NewValue(value.NewInt(1)))
	scan := NewTableScan(e, meta, "employee", []*expr.Expr{filter})
	viewSalaryField := &record.FieldMeta{Name: "salary", Type: meta.UserFields[1].Type}
	sets := []stmt.SetClause{{Field: viewSalaryField, Value: expr.NewValue(value.NewInt(5000))}}
	upd := NewUpdate(e, scan, meta, view, sets)
	out := drain(t, upd, txn.NewSimpleTrx())
	n, err := out[0].CellAt(0)
	if err != nil {
		t.Fatalf("CellAt: %v", err)
	}
	if n.Int() != 1 {
		t.Fatalf("expected rows_updated=1, got %d", n.Int())
	}

	rows := drain(t, NewTableScan(e, meta, "employee", nil), txn.NewSimpleTrx())
	pay, err := rows[0].CellAt(1)
	if err != nil {
		t.Fatalf("CellAt: %v", err)
	}
	if pay.Int() != 5000 {
		t.Fatalf("expected base column pay updated to 5000, got %d", pay.Int())
	}
}
