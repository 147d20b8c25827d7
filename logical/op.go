// Package logical implements spec.md §4.4's logical planner and
// predicate-pushdown rewriter: it turns a bound stmt.Stmt into a tree of
// LogicalOp nodes (TableGet/Predicate/Project/Join/Insert/Delete/Update/
// Explain/Calc/GroupBy/OrderBy/CreateIndex/CreateTable), then rewrites
// that tree to push eligible filters down into scans. Grounded on
// original_source/.../sql/optimizer/logical_plan_generator.cpp and
// predicate_pushdown_rewriter.cpp; re-architected per spec.md §9 as one
// tagged LogicalOp struct instead of a class hierarchy.
package logical

import (
	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/stmt"
)

type Kind int

const (
	TableGet Kind = iota
	Predicate
	Project
	Join
	Insert
	Delete
	Update
	Explain
	Calc
	GroupBy
	OrderBy
	CreateIndex
	CreateTable
	// Passthrough covers the statement kinds with no relational shape:
	// CREATE VIEW, CREATE VECTOR INDEX, DROP TABLE/INDEX, SHOW TABLES,
	// DESC TABLE, SET, LOAD DATA, and the session-control statements
	// (BEGIN/COMMIT/ROLLBACK/EXIT/HELP). Spec.md §4.4 lists the logical
	// ops relevant to query execution; these carry their bound stmt
	// straight through to a one-shot physical operator instead.
	Passthrough
)

// OrderKey is one bound ORDER BY entry carried into the logical tree.
type OrderKey struct {
	Expr *expr.Expr
	Desc bool
}

// LogicalOp is the tagged union of spec.md §4.4's logical operators.
type LogicalOp struct {
	Kind Kind

	// TableGet
	Table     *record.TableMeta
	Alias     string
	View      *catalog.View
	ViewQuery *stmt.SelectStmt
	// Pushed is the filter the rewriter has relocated onto this scan, nil
	// until (and unless) pushdown fires; multiple pushed leaves are ANDed
	// together regardless of whether they arrived from an AND or OR
	// rewrite, since each one independently narrows the scan. NotUseIndex
	// forces a TableScan even where an index could serve (UPDATE sets
	// this per spec.md §4.5).
	Pushed      *expr.Expr
	NotUseIndex bool

	// Predicate / Project / GroupBy / OrderBy / Explain share Child
	Child *LogicalOp

	// Predicate
	Filter *expr.Expr
	// pushdownAttempted marks a Predicate the rewriter already tried (and,
	// for an ineligible OR, declined) to push down, the one-shot marker
	// spec.md §4.4 calls for so a fixpoint driver never retries it.
	pushdownAttempted bool

	// Project
	Exprs []*expr.Expr
	Limit int // -1 means unbounded

	// Join (left-deep: additional tables fold in as nested Join.Right)
	Left, Right *LogicalOp

	// Insert
	Columns []*record.FieldMeta
	Rows    [][]*expr.Expr

	// Delete / Update target the TableGet under Child; Update additionally
	// carries its SET list.
	Sets []stmt.SetClause

	// Calc
	CalcExprs []*expr.Expr

	// GroupBy
	GroupKeys  []*expr.Expr
	Aggregates []*expr.Expr
	Having     *expr.Expr

	// OrderBy
	OrderKeys []OrderKey

	// CreateIndex / CreateTable
	TableName string // CreateIndex's target table name
	IndexMeta record.IndexMeta

	// Passthrough
	Stmt *stmt.Stmt
}
