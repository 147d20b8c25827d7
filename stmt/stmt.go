package stmt

import (
	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/record"
)

// BoundRelation is one FROM-clause entry after name resolution: either a
// base table (View nil) or a view (View set, Table is the view's
// synthesized column schema carrier built by bindCreateView's caller).
type BoundRelation struct {
	Table *record.TableMeta
	Alias string
	View  *catalog.View
	// Query is the view's own bound SELECT, present only when View != nil;
	// the physical planner plans it and wraps the result in a ViewScan,
	// which takes the place of a table scan for this relation.
	Query *SelectStmt
}

// OrderKey is one bound ORDER BY entry.
type OrderKey struct {
	Expr *expr.Expr
	Desc bool
}

// SelectStmt is the bound form of SelectNode: every expression resolved,
// Star expanded, subqueries threaded as expr.Expr Subquery/Plan nodes.
type SelectStmt struct {
	Relations   []BoundRelation
	Projections []*expr.Expr
	Filter      *expr.Expr // nil means "no WHERE"
	GroupBy     []*expr.Expr
	Having      *expr.Expr // nil means "no HAVING"
	OrderBy     []OrderKey
	Limit       int // -1 means unbounded
}

type InsertStmt struct {
	Relation BoundRelation
	Columns  []*record.FieldMeta // target column per row slot, declaration order if unspecified
	Rows     [][]*expr.Expr
}

type DeleteStmt struct {
	Relation BoundRelation
	Filter   *expr.Expr
}

type SetClause struct {
	Field *record.FieldMeta
	Value *expr.Expr
}

type UpdateStmt struct {
	Relation BoundRelation
	Sets     []SetClause
	Filter   *expr.Expr
}

type CreateTableStmt struct {
	Table *record.TableMeta
}

type CreateViewStmt struct {
	View *catalog.View
}

type CreateIndexStmt struct {
	Table string
	Index record.IndexMeta
}

type CreateVectorIndexStmt struct {
	Table string
	Index record.VectorIndexMeta
}

type DropTableStmt struct{ Table string }
type DropIndexStmt struct {
	Table string
	Index string
}

type ExplainStmt struct{ Inner *Stmt }
type CalcStmt struct{ Expressions []*expr.Expr }
type DescTableStmt struct{ Table *record.TableMeta }
type ShowTablesStmt struct{ Names []string }

type SetVariableStmt struct {
	Name  string
	Value string
}

type LoadDataStmt struct {
	Relation    BoundRelation
	SourceKind  string
	DSN         string
	SourceTable string
}

// Stmt is the bound-statement tagged union the logical planner consumes.
type Stmt struct {
	Kind NodeKind

	Select            *SelectStmt
	Insert            *InsertStmt
	Delete            *DeleteStmt
	Update            *UpdateStmt
	CreateTable       *CreateTableStmt
	CreateView        *CreateViewStmt
	CreateIndex       *CreateIndexStmt
	CreateVectorIndex *CreateVectorIndexStmt
	DropTable         *DropTableStmt
	DropIndex         *DropIndexStmt
	Explain           *ExplainStmt
	Calc              *CalcStmt
	DescTable         *DescTableStmt
	ShowTables        *ShowTablesStmt
	SetVariable       *SetVariableStmt
	LoadData          *LoadDataStmt
}
