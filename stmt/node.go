// Package stmt implements spec.md §4.3's statement layer: the
// create(db, ast_node) → Stmt factory that resolves schema names, binds
// expressions, threads subquery scopes, and checks view updatability.
// Grounded on original_source/.../sql/stmt/{select_stmt.cpp,insert_stmt.cpp,
// update_stmt.cpp,create_view_stmt.cpp,stmt.cpp}, re-architected per
// spec.md §9 as one Stmt struct per statement kind rather than a class
// hierarchy (matching expr.Expr's tagged-union shape).
package stmt

import "github.com/minidb/miniql/expr"

// ParsedSqlNode is the external parser contract spec.md §6 pins: a
// tagged union with one case per statement kind, already built by
// whatever sits in front of this module. This package never constructs
// one from raw SQL text.
type ParsedSqlNode struct {
	Kind NodeKind

	Select            *SelectNode
	Insert            *InsertNode
	Delete            *DeleteNode
	Update            *UpdateNode
	CreateTable       *CreateTableNode
	CreateView        *CreateViewNode
	CreateIndex       *CreateIndexNode
	CreateVectorIndex *CreateVectorIndexNode
	DropTable         *DropTableNode
	DropIndex         *DropIndexNode
	Explain           *ExplainNode
	Calc              *CalcNode
	DescTable         *DescTableNode
	ShowTables        *ShowTablesNode
	SetVariable       *SetVariableNode
	LoadData          *LoadDataNode
}

type NodeKind int

const (
	KindSelect NodeKind = iota
	KindInsert
	KindDelete
	KindUpdate
	KindCreateTable
	KindCreateView
	KindCreateIndex
	KindCreateVectorIndex
	KindDropTable
	KindDropIndex
	KindExplain
	KindCalc
	KindDescTable
	KindShowTables
	KindBegin
	KindCommit
	KindRollback
	KindExit
	KindHelp
	KindSetVariable
	KindLoadData
)

// RelationRef is one FROM-clause entry: a table or view name plus its
// optional alias (empty means unaliased, in which case the name itself
// doubles as the lookup key).
type RelationRef struct {
	Name  string
	Alias string
}

// ConditionNode is one WHERE/HAVING/ON comparison as the external parser
// hands it over: a left/right expression pair (built with expr's Unbound*
// constructors), an operator, and the conjunction tag joining it to the
// *next* condition in the list — spec.md §6's "(each a left expr + op +
// right expr + conjunction-type tag)".
type ConditionNode struct {
	Left, Right *expr.Expr
	Op          expr.CompOp
	Conj        expr.ConjType
}

// OrderKeyNode is one ORDER BY entry before binding.
type OrderKeyNode struct {
	Expr *expr.Expr
	Desc bool
}

// SelectNode is the parser's SELECT shape, spec.md §6 verbatim.
type SelectNode struct {
	Relations   []RelationRef
	Expressions []*expr.Expr
	Conditions  []ConditionNode
	GroupBy     []*expr.Expr
	Havings     []ConditionNode
	OrderBy     []OrderKeyNode
	Limit       int // -1 means unbounded
}

type InsertNode struct {
	Table   string
	Columns []string // empty means "all columns, declaration order"
	Rows    [][]*expr.Expr
}

type DeleteNode struct {
	Table      string
	Conditions []ConditionNode
}

type SetClauseNode struct {
	Column string
	Value  *expr.Expr
}

type UpdateNode struct {
	Table      string
	Sets       []SetClauseNode
	Conditions []ConditionNode
}

type ColumnDefNode struct {
	Name     string
	Type     string
	Length   int // CHARS capacity, VECTOR dimension
	Nullable bool
}

type CreateTableNode struct {
	Table   string
	Columns []ColumnDefNode
}

type CreateViewNode struct {
	View          string
	DefinitionSQL string
	Definition    *SelectNode
	Columns       []string // explicit column list, empty if none given
}

type CreateIndexNode struct {
	Index    string
	Table    string
	Columns  []string
	IsUnique bool
}

type CreateVectorIndexNode struct {
	Index    string
	Table    string
	Column   string
	Distance string
	Lists    int
	Probes   int
}

type DropTableNode struct{ Table string }
type DropIndexNode struct {
	Index string
	Table string
}

type ExplainNode struct {
	Inner *ParsedSqlNode
}

type CalcNode struct {
	Expressions []*expr.Expr
}

type DescTableNode struct{ Table string }
type ShowTablesNode struct{}

type SetVariableNode struct {
	Name  string
	Value string
}

type LoadDataNode struct {
	Table       string
	SourceKind  string // "mysql", "postgres", "mssql", "sqlite3"
	DSN         string
	SourceTable string
}
