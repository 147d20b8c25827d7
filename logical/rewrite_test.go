package logical

import (
	"testing"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/value"
)

func TestPushDownPredicatesSingleTableCollapsesPredicate(t *testing.T) {
	emp := testTable("employee", "salary")
	scan := &LogicalOp{Kind: TableGet, Table: emp, Alias: "employee"}
	filter := expr.NewComparison(expr.GT, fieldExpr(emp, "salary", "employee"), expr.NewValue(value.NewInt(1000)))
	root := &LogicalOp{Kind: Predicate, Child: scan, Filter: filter}

	rewritten := PushDownPredicates(root)
	if rewritten.Kind != TableGet {
		t.Fatalf("expected Predicate to collapse into its TableGet, got %v", rewritten.Kind)
	}
	if rewritten.Pushed != filter {
		t.Fatalf("expected filter pushed onto the scan")
	}
}

func TestPushDownPredicatesAndSplitsEligibleLeaves(t *testing.T) {
	emp := testTable("employee", "id", "salary")
	dept := testTable("department", "id")
	empScan := &LogicalOp{Kind: TableGet, Table: emp, Alias: "employee"}
	deptScan := &LogicalOp{Kind: TableGet, Table: dept, Alias: "department"}
	join := &LogicalOp{Kind: Join, Left: empScan, Right: deptScan}

	empLeaf := expr.NewComparison(expr.GT, fieldExpr(emp, "salary", "employee"), expr.NewValue(value.NewInt(1000)))
	deptLeaf := expr.NewComparison(expr.EQ, fieldExpr(dept, "id", "department"), expr.NewValue(value.NewInt(1)))
	crossLeaf := expr.NewComparison(expr.EQ, fieldExpr(emp, "id", "employee"), fieldExpr(dept, "id", "department"))
	filter := expr.NewConjunction(expr.And, []*expr.Expr{empLeaf, deptLeaf, crossLeaf})
	root := &LogicalOp{Kind: Predicate, Child: join, Filter: filter}

	rewritten := PushDownPredicates(root)
	if rewritten.Kind != Predicate {
		t.Fatalf("expected a residual Predicate for the cross-table leaf, got %v", rewritten.Kind)
	}
	if rewritten.Filter != crossLeaf {
		t.Fatalf("expected residual filter to be exactly the cross-table leaf, got %+v", rewritten.Filter)
	}
	if empScan.Pushed != empLeaf {
		t.Fatalf("expected employee's leaf pushed onto its scan")
	}
	if deptScan.Pushed != deptLeaf {
		t.Fatalf("expected department's leaf pushed onto its scan")
	}
}

func TestPushDownPredicatesOrRequiresSameTableForEveryLeaf(t *testing.T) {
	emp := testTable("employee", "a", "b")
	scan := &LogicalOp{Kind: TableGet, Table: emp, Alias: "employee"}
	leaf1 := expr.NewComparison(expr.EQ, fieldExpr(emp, "a", "employee"), expr.NewValue(value.NewInt(1)))
	leaf2 := expr.NewComparison(expr.EQ, fieldExpr(emp, "b", "employee"), expr.NewValue(value.NewInt(2)))
	filter := expr.NewConjunction(expr.Or, []*expr.Expr{leaf1, leaf2})
	root := &LogicalOp{Kind: Predicate, Child: scan, Filter: filter}

	rewritten := PushDownPredicates(root)
	if rewritten.Kind != TableGet {
		t.Fatalf("expected OR over one table to collapse the Predicate, got %v", rewritten.Kind)
	}
	if rewritten.Pushed != filter {
		t.Fatalf("expected the whole OR pushed as one unit")
	}
}

func TestPushDownPredicatesOrAcrossTablesStaysAbove(t *testing.T) {
	emp := testTable("employee", "a")
	dept := testTable("department", "b")
	empScan := &LogicalOp{Kind: TableGet, Table: emp, Alias: "employee"}
	deptScan := &LogicalOp{Kind: TableGet, Table: dept, Alias: "department"}
	join := &LogicalOp{Kind: Join, Left: empScan, Right: deptScan}

	leaf1 := expr.NewComparison(expr.EQ, fieldExpr(emp, "a", "employee"), expr.NewValue(value.NewInt(1)))
	leaf2 := expr.NewComparison(expr.EQ, fieldExpr(dept, "b", "department"), expr.NewValue(value.NewInt(2)))
	filter := expr.NewConjunction(expr.Or, []*expr.Expr{leaf1, leaf2})
	root := &LogicalOp{Kind: Predicate, Child: join, Filter: filter}

	rewritten := PushDownPredicates(root)
	if rewritten.Kind != Predicate || rewritten.Filter != filter {
		t.Fatalf("expected the cross-table OR to stay put, got %+v", rewritten)
	}
	if empScan.Pushed != nil || deptScan.Pushed != nil {
		t.Fatalf("expected nothing pushed for an ineligible OR")
	}
}

func TestPushDownPredicatesAttemptedOnceIsIdempotent(t *testing.T) {
	emp := testTable("employee", "a")
	dept := testTable("department", "b")
	empScan := &LogicalOp{Kind: TableGet, Table: emp, Alias: "employee"}
	deptScan := &LogicalOp{Kind: TableGet, Table: dept, Alias: "department"}
	join := &LogicalOp{Kind: Join, Left: empScan, Right: deptScan}
	leaf1 := expr.NewComparison(expr.EQ, fieldExpr(emp, "a", "employee"), expr.NewValue(value.NewInt(1)))
	leaf2 := expr.NewComparison(expr.EQ, fieldExpr(dept, "b", "department"), expr.NewValue(value.NewInt(2)))
	filter := expr.NewConjunction(expr.Or, []*expr.Expr{leaf1, leaf2})
	root := &LogicalOp{Kind: Predicate, Child: join, Filter: filter}

	first := PushDownPredicates(root)
	second := PushDownPredicates(first)
	if second != first {
		t.Fatalf("expected re-running the rewrite over an already-attempted Predicate to be a no-op")
	}
}
