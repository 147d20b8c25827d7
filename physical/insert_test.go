package physical

import (
	"testing"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

func TestInsertWritesEveryRowAndReportsCount(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")

	rows := [][]*expr.Expr{
		{expr.NewValue(value.NewInt(1)), expr.NewValue(value.NewInt(1000))},
		{expr.NewValue(value.NewInt(2)), expr.NewValue(value.NewInt(2000))},
	}
	columns := []*record.FieldMeta{&meta.UserFields[0], &meta.UserFields[1]}
	ins := NewInsert(e, meta, nil, columns, rows)
	out := drain(t, ins, txn.NewSimpleTrx())
	if len(out) != 1 {
		t.Fatalf("expected one summary row, got %d", len(out))
	}
	n, err := out[0].CellAt(0)
	if err != nil {
		t.Fatalf("CellAt: %v", err)
	}
	if n.Int() != 2 {
		t.Fatalf("expected rows_inserted=2, got %d", n.Int())
	}

	scan := NewTableScan(e, meta, "employee", nil)
	scanned := drain(t, scan, txn.NewSimpleTrx())
	if len(scanned) != 2 {
		t.Fatalf("expected 2 rows visible after insert, got %d", len(scanned))
	}
}

func TestInsertRejectsMissingNotNullColumn(t *testing.T) {
	e := newTestEngine(t)
	meta := liveTable(t, e, "employee", "id", "salary")
	meta.UserFields[1].Nullable = false

	rows := [][]*expr.Expr{{expr.NewValue(value.NewInt(1))}}
	columns := []*record.FieldMeta{&meta.UserFields[0]}
	ins := NewInsert(e, meta, nil, columns, rows)
	if err := ins.Open(txn.NewSimpleTrx()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := ins.Next(); err == nil {
		t.Fatalf("expected an error inserting with a NOT NULL column left unset")
	}
}
