package logical

import (
	"testing"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/sqltype"
	"github.com/minidb/miniql/stmt"
	"github.com/minidb/miniql/value"
)

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

func fieldExpr(tm *record.TableMeta, name, alias string) *expr.Expr {
	for i := range tm.UserFields {
		if tm.UserFields[i].Name == name {
			return expr.NewField(tm, &tm.UserFields[i], alias)
		}
	}
	panic("no such field: " + name)
}

func TestPlanSelectSingleTableShape(t *testing.T) {
	emp := testTable("employee", "id", "salary")
	rel := stmt.BoundRelation{Table: emp, Alias: "employee"}
	filter := expr.NewComparison(expr.GT, fieldExpr(emp, "salary", "employee"), expr.NewValue(value.NewInt(1000)))

	sel := &stmt.SelectStmt{
		Relations:   []stmt.BoundRelation{rel},
		Projections: []*expr.Expr{fieldExpr(emp, "id", "employee")},
		Filter:      filter,
		Limit:       -1,
	}

	op, err := planSelect(sel)
	if err != nil {
		t.Fatalf("planSelect: %v", err)
	}
	if op.Kind != Project {
		t.Fatalf("expected Project root, got %v", op.Kind)
	}
	if op.Child.Kind != Predicate {
		t.Fatalf("expected Predicate under Project, got %v", op.Child.Kind)
	}
	if op.Child.Child.Kind != TableGet {
		t.Fatalf("expected TableGet under Predicate, got %v", op.Child.Child.Kind)
	}
}

func TestPlanSelectMultipleRelationsLeftDeepJoin(t *testing.T) {
	emp := testTable("employee", "id")
	dept := testTable("department", "id")
	proj := testTable("project", "id")

	sel := &stmt.SelectStmt{
		Relations: []stmt.BoundRelation{
			{Table: emp, Alias: "employee"},
			{Table: dept, Alias: "department"},
			{Table: proj, Alias: "project"},
		},
		Projections: []*expr.Expr{fieldExpr(emp, "id", "employee")},
		Limit:       -1,
	}

	op, err := planSelect(sel)
	if err != nil {
		t.Fatalf("planSelect: %v", err)
	}
	join1 := op.Child
	if join1.Kind != Join {
		t.Fatalf("expected top Join, got %v", join1.Kind)
	}
	if join1.Left.Kind != Join {
		t.Fatalf("expected left-deep nesting, got %v", join1.Left.Kind)
	}
	if join1.Left.Left.Kind != TableGet || join1.Left.Right.Kind != TableGet || join1.Right.Kind != TableGet {
		t.Fatalf("expected three TableGet leaves")
	}
}

func TestPlanSelectAggregateWithoutGroupByInsertsGroupByNode(t *testing.T) {
	emp := testTable("employee", "salary")
	agg := expr.NewAggregation(expr.SumAgg, fieldExpr(emp, "salary", "employee"), "total")

	sel := &stmt.SelectStmt{
		Relations:   []stmt.BoundRelation{{Table: emp, Alias: "employee"}},
		Projections: []*expr.Expr{agg},
		Limit:       -1,
	}

	op, err := planSelect(sel)
	if err != nil {
		t.Fatalf("planSelect: %v", err)
	}
	if op.Child.Kind != GroupBy {
		t.Fatalf("expected GroupBy under Project for implicit aggregation, got %v", op.Child.Kind)
	}
	if len(op.Child.GroupKeys) != 0 {
		t.Fatalf("expected empty grouping, got %d keys", len(op.Child.GroupKeys))
	}
	if len(op.Child.Aggregates) != 1 || op.Child.Aggregates[0] != agg {
		t.Fatalf("expected the sum aggregate collected, got %+v", op.Child.Aggregates)
	}
}

func TestPlanSelectHavingWrapsGroupByInPredicate(t *testing.T) {
	emp := testTable("employee", "dept_id", "salary")
	groupKey := fieldExpr(emp, "dept_id", "employee")
	having := expr.NewComparison(expr.GT, expr.NewAggregation(expr.SumAgg, fieldExpr(emp, "salary", "employee"), ""), expr.NewValue(value.NewInt(1)))

	sel := &stmt.SelectStmt{
		Relations:   []stmt.BoundRelation{{Table: emp, Alias: "employee"}},
		Projections: []*expr.Expr{groupKey},
		GroupBy:     []*expr.Expr{groupKey},
		Having:      having,
		Limit:       -1,
	}

	op, err := planSelect(sel)
	if err != nil {
		t.Fatalf("planSelect: %v", err)
	}
	if op.Child.Kind != Predicate {
		t.Fatalf("expected HAVING Predicate under Project, got %v", op.Child.Kind)
	}
	if op.Child.Filter != having {
		t.Fatalf("expected Predicate.Filter to be the HAVING condition")
	}
	if op.Child.Child.Kind != GroupBy {
		t.Fatalf("expected GroupBy under HAVING Predicate, got %v", op.Child.Child.Kind)
	}
}

func TestPlanSelectHavingWithoutGroupByOrAggregateIsError(t *testing.T) {
	emp := testTable("employee", "dept_id", "salary")
	having := expr.NewComparison(expr.GT, fieldExpr(emp, "salary", "employee"), expr.NewValue(value.NewInt(1000)))

	sel := &stmt.SelectStmt{
		Relations:   []stmt.BoundRelation{{Table: emp, Alias: "employee"}},
		Projections: []*expr.Expr{fieldExpr(emp, "dept_id", "employee")},
		Having:      having,
		Limit:       -1,
	}

	if _, err := planSelect(sel); err == nil {
		t.Fatalf("expected HAVING without GROUP BY or an aggregate projection to be rejected")
	}
}

func TestPlanUpdateSetsNotUseIndex(t *testing.T) {
	emp := testTable("employee", "id", "salary")
	rel := stmt.BoundRelation{Table: emp, Alias: "employee"}
	upd := &stmt.UpdateStmt{
		Relation: rel,
		Sets:     []stmt.SetClause{{Field: &emp.UserFields[1], Value: expr.NewValue(value.NewInt(2000))}},
		Filter:   expr.NewComparison(expr.EQ, fieldExpr(emp, "id", "employee"), expr.NewValue(value.NewInt(1))),
	}

	op, err := planUpdate(upd)
	if err != nil {
		t.Fatalf("planUpdate: %v", err)
	}
	if op.Kind != Update {
		t.Fatalf("expected Update root, got %v", op.Kind)
	}
	scan := op.Child.Child
	if scan.Kind != TableGet || !scan.NotUseIndex {
		t.Fatalf("expected NotUseIndex set on UPDATE's scan, got %+v", scan)
	}
}

func TestPlanPassthroughForDDL(t *testing.T) {
	s := &stmt.Stmt{Kind: stmt.KindShowTables, ShowTables: &stmt.ShowTablesStmt{Names: []string{"employee"}}}
	op, err := Plan(s)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if op.Kind != Passthrough || op.Stmt != s {
		t.Fatalf("expected Passthrough carrying the bound stmt, got %+v", op)
	}
}
