package physical

import (
	"strings"
	"testing"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/logical"
	"github.com/minidb/miniql/txn"
)

func TestExplainRendersOneLinePerLogicalNode(t *testing.T) {
	meta := testTable("employee", "id", "salary")
	tableGet := &logical.LogicalOp{Kind: logical.TableGet, Table: meta, Alias: "employee"}
	project := &logical.LogicalOp{
		Kind:  logical.Project,
		Child: tableGet,
		Exprs: []*expr.Expr{fieldExpr(meta, "id", "employee")},
		Limit: -1,
	}
	ex := NewExplain(project)
	rows := drain(t, ex, txn.NewSimpleTrx())
	if len(rows) != 2 {
		t.Fatalf("expected 2 lines (Project, TableGet), got %d", len(rows))
	}
	first, err := rows[0].CellAt(0)
	if err != nil {
		t.Fatalf("CellAt: %v", err)
	}
	firstLine := string(first.Text().Bytes)
	if !strings.HasPrefix(firstLine, "PROJECT") {
		t.Fatalf("expected first line to describe the Project node, got %q", firstLine)
	}
	second, err := rows[1].CellAt(0)
	if err != nil {
		t.Fatalf("CellAt: %v", err)
	}
	secondLine := string(second.Text().Bytes)
	if !strings.HasPrefix(secondLine, "  TABLE GET employee") {
		t.Fatalf("expected second line to describe the indented TableGet node, got %q", secondLine)
	}
}
