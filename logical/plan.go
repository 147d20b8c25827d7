package logical

import (
	"fmt"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/stmt"
)

// Plan lowers a bound stmt.Stmt into a LogicalOp tree per spec.md §4.4's
// shape rules. Statement kinds with no relational shape (DDL other than
// CREATE TABLE/CREATE INDEX, session control, LOAD DATA) come back as a
// single Passthrough node.
func Plan(s *stmt.Stmt) (*LogicalOp, error) {
	switch s.Kind {
	case stmt.KindSelect:
		return planSelect(s.Select)
	case stmt.KindInsert:
		return &LogicalOp{
			Kind:    Insert,
			Table:   s.Insert.Relation.Table,
			View:    s.Insert.Relation.View,
			Columns: s.Insert.Columns,
			Rows:    s.Insert.Rows,
		}, nil
	case stmt.KindDelete:
		return planDelete(s.Delete)
	case stmt.KindUpdate:
		return planUpdate(s.Update)
	case stmt.KindCreateTable:
		return &LogicalOp{Kind: CreateTable, Table: s.CreateTable.Table}, nil
	case stmt.KindCreateIndex:
		return &LogicalOp{Kind: CreateIndex, TableName: s.CreateIndex.Table, IndexMeta: s.CreateIndex.Index}, nil
	case stmt.KindExplain:
		inner, err := Plan(s.Explain.Inner)
		if err != nil {
			return nil, err
		}
		return &LogicalOp{Kind: Explain, Child: inner}, nil
	case stmt.KindCalc:
		return &LogicalOp{Kind: Calc, CalcExprs: s.Calc.Expressions}, nil
	default:
		// CREATE VIEW, CREATE VECTOR INDEX, DROP TABLE/INDEX, DESC TABLE,
		// SHOW TABLES, SET, LOAD DATA, BEGIN/COMMIT/ROLLBACK/EXIT/HELP: no
		// relational shape, executed directly by the physical layer.
		return &LogicalOp{Kind: Passthrough, Stmt: s}, nil
	}
}

func planSelect(sel *stmt.SelectStmt) (*LogicalOp, error) {
	if len(sel.Relations) == 0 {
		return nil, fmt.Errorf("logical: select has no relations")
	}
	cur := tableGetOf(sel.Relations[0])
	for _, rel := range sel.Relations[1:] {
		cur = &LogicalOp{Kind: Join, Left: cur, Right: tableGetOf(rel)}
	}

	if sel.Filter != nil {
		cur = &LogicalOp{Kind: Predicate, Child: cur, Filter: sel.Filter}
	}

	hasAgg := anyAggregate(sel.Projections)
	if len(sel.GroupBy) > 0 || hasAgg {
		cur = &LogicalOp{
			Kind:       GroupBy,
			Child:      cur,
			GroupKeys:  sel.GroupBy,
			Aggregates: collectAggregates(sel.Projections),
		}
		if sel.Having != nil {
			cur = &LogicalOp{Kind: Predicate, Child: cur, Filter: sel.Having}
		}
	} else if sel.Having != nil {
		// spec.md §4.4: HAVING with no GROUP BY is only valid when the
		// select is purely aggregate, the hasAgg branch above. Anything
		// else has no group to filter, so reject it instead of silently
		// dropping the clause.
		return nil, fmt.Errorf("logical: HAVING requires GROUP BY or an aggregate projection")
	}

	if len(sel.OrderBy) > 0 {
		keys := make([]OrderKey, len(sel.OrderBy))
		for i, k := range sel.OrderBy {
			keys[i] = OrderKey{Expr: k.Expr, Desc: k.Desc}
		}
		cur = &LogicalOp{Kind: OrderBy, Child: cur, OrderKeys: keys}
	}

	return &LogicalOp{Kind: Project, Child: cur, Exprs: sel.Projections, Limit: sel.Limit}, nil
}

func tableGetOf(rel stmt.BoundRelation) *LogicalOp {
	op := &LogicalOp{Kind: TableGet, Table: rel.Table, Alias: rel.Alias, View: rel.View, ViewQuery: rel.Query}
	return op
}

func planDelete(del *stmt.DeleteStmt) (*LogicalOp, error) {
	child := tableGetOf(del.Relation)
	if del.Filter != nil {
		child = &LogicalOp{Kind: Predicate, Child: child, Filter: del.Filter}
	}
	return &LogicalOp{Kind: Delete, Child: child, Table: del.Relation.Table, View: del.Relation.View}, nil
}

func planUpdate(upd *stmt.UpdateStmt) (*LogicalOp, error) {
	child := tableGetOf(upd.Relation)
	// UPDATE always scans the raw table: mutating through an index while
	// reading it back is unsafe, so the physical planner must not fuse an
	// IndexScan here regardless of what the predicate would otherwise allow.
	child.NotUseIndex = true
	if upd.Filter != nil {
		child = &LogicalOp{Kind: Predicate, Child: child, Filter: upd.Filter}
	}
	return &LogicalOp{
		Kind:  Update,
		Child: child,
		Table: upd.Relation.Table,
		View:  upd.Relation.View,
		Sets:  upd.Sets,
	}, nil
}

func anyAggregate(exprs []*expr.Expr) bool {
	for _, e := range exprs {
		if containsAggregate(e) {
			return true
		}
	}
	return false
}

func containsAggregate(e *expr.Expr) bool {
	if e == nil {
		return false
	}
	if e.Kind == expr.Aggregation {
		return true
	}
	if containsAggregate(e.Left) || containsAggregate(e.Right) || containsAggregate(e.Child) {
		return true
	}
	for _, c := range e.Children {
		if containsAggregate(c) {
			return true
		}
	}
	return false
}

// collectAggregates gathers every distinct Aggregation subexpression
// appearing in exprs, in first-seen order, for the physical GroupBy
// operator to compute alongside the group keys.
func collectAggregates(exprs []*expr.Expr) []*expr.Expr {
	var out []*expr.Expr
	var walk func(e *expr.Expr)
	walk = func(e *expr.Expr) {
		if e == nil {
			return
		}
		if e.Kind == expr.Aggregation {
			for _, seen := range out {
				if seen == e {
					return
				}
			}
			out = append(out, e)
			return
		}
		walk(e.Left)
		walk(e.Right)
		walk(e.Child)
		for _, c := range e.Children {
			walk(c)
		}
	}
	for _, e := range exprs {
		walk(e)
	}
	return out
}
