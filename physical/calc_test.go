package physical

import (
	"testing"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

func TestCalcEvaluatesConstantExprsIntoOneRow(t *testing.T) {
	exprs := []*expr.Expr{
		expr.NewArithmetic(expr.Add, expr.NewValue(value.NewInt(1)), expr.NewValue(value.NewInt(1))),
		expr.NewArithmetic(expr.Mul, expr.NewValue(value.NewInt(2)), expr.NewValue(value.NewInt(3))),
	}
	c := NewCalc(exprs)
	rows := drain(t, c, txn.NewSimpleTrx())
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(rows))
	}
	a, err := rows[0].CellAt(0)
	if err != nil {
		t.Fatalf("CellAt(0): %v", err)
	}
	if a.Int() != 2 {
		t.Fatalf("expected 1+1=2, got %d", a.Int())
	}
	b, err := rows[0].CellAt(1)
	if err != nil {
		t.Fatalf("CellAt(1): %v", err)
	}
	if b.Int() != 6 {
		t.Fatalf("expected 2*3=6, got %d", b.Int())
	}
}
