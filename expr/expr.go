package expr

import (
	"fmt"

	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/sqltype"
	"github.com/minidb/miniql/value"
)

type Kind int

const (
	Star Kind = iota
	UnboundField
	UnboundAggregate
	Field
	ValueExpr
	ValueList
	Cast
	Comparison
	Conjunction
	Arithmetic
	Aggregation
	Like
	VectorDistance
	Is
	Subquery
	SpecialPlaceholder
)

type CompOp int

const (
	EQ CompOp = iota
	NE
	LT
	LE
	GT
	GE
	OpLike
	OpNotLike
	OpIn
	OpNotIn
	OpExists
	OpNotExists
)

type ConjType int

const (
	And ConjType = iota
	Or
)

type ArithType int

const (
	Add ArithType = iota
	Sub
	Mul
	Div
	Negative
)

type AggType int

const (
	CountAgg AggType = iota
	SumAgg
	AvgAgg
	MaxAgg
	MinAgg
)

func (a AggType) String() string {
	switch a {
	case CountAgg:
		return "count"
	case SumAgg:
		return "sum"
	case AvgAgg:
		return "avg"
	case MaxAgg:
		return "max"
	case MinAgg:
		return "min"
	default:
		return "unknown"
	}
}

// SubqueryRunner is the pull-protocol slice a physical operator must
// satisfy to back a SubqueryExpr. Declared here rather than imported from
// package physical to avoid a physical<->expr import cycle (physical's
// Predicate operator holds Exprs, Exprs holding subqueries hold physical
// operators) — the same seam the original bridges with a forward
// declaration of PhysicalOperator.
type SubqueryRunner interface {
	Open(outer Tuple) error
	Next() (bool, error) // false, nil means RECORD_EOF
	Current() (Tuple, error)
	Close() error
}

// Trx is the narrow slice expressions need (currently none do — get_value
// takes it for parity with the original's signature and for the day a
// snapshot-reading expression needs it).
type Trx interface{}

// Expr is the tagged union of spec.md §3's expression variants: Star,
// UnboundField, UnboundAggregate, Field, Value, ValueList, Cast,
// Comparison, Conjunction, Arithmetic, Aggregation, Like, VectorDistance,
// Is, Subquery, SpecialPlaceholder. One Go struct with a Kind tag instead
// of a class hierarchy, per spec.md §9's re-architecture note.
type Expr struct {
	Kind Kind
	Name string // output alias, used for Aggregation/computed-column display

	// Star
	StarTableAlias string // "" for bare `*`, else the `t` in `t.*`

	// UnboundField / Field
	TableName  string
	FieldName  string
	TableAlias string
	FieldMeta  *record.FieldMeta
	TableMeta  *record.TableMeta

	// ValueExpr
	Val value.Value

	// ValueList
	Values []value.Value
	index  int // cursor for streaming ValueList as an IN-list source

	// Cast
	CastType sqltype.AttrType

	// Comparison / Arithmetic / VectorDistance / Is / Like
	Op       CompOp
	ArithOp  ArithType
	DistType value.DistanceType
	IsLike   bool // true = LIKE, false = NOT LIKE
	Left     *Expr
	Right    *Expr

	// Conjunction
	ConjType ConjType
	Children []*Expr

	// Cast / Aggregation / UnboundAggregate share a single child
	Child *Expr

	// Aggregation / UnboundAggregate
	AggType AggType

	// Subquery. Runner is nil between statement binding and physical
	// planning; Plan holds the bound (but not yet planned) subquery
	// statement during that window. It is typed `any` rather than
	// *stmt.SelectStmt so this package never imports stmt (stmt already
	// imports expr to build bound expressions) — the physical planner
	// type-asserts it back and installs Runner before execution.
	Runner SubqueryRunner
	Plan   any
}

func NewStar(tableAlias string) *Expr { return &Expr{Kind: Star, StarTableAlias: tableAlias} }

func NewUnboundField(tableName, fieldName, tableAlias string) *Expr {
	return &Expr{Kind: UnboundField, TableName: tableName, FieldName: fieldName, TableAlias: tableAlias}
}

func NewField(tm *record.TableMeta, fm *record.FieldMeta, tableAlias string) *Expr {
	return &Expr{Kind: Field, TableMeta: tm, FieldMeta: fm, TableName: tm.Name, FieldName: fm.Name, TableAlias: tableAlias}
}

func NewValue(v value.Value) *Expr { return &Expr{Kind: ValueExpr, Val: v} }

func NewValueList(vs []value.Value) *Expr { return &Expr{Kind: ValueList, Values: vs} }

func NewCast(child *Expr, t sqltype.AttrType) *Expr {
	return &Expr{Kind: Cast, Child: child, CastType: t}
}

func NewComparison(op CompOp, left, right *Expr) *Expr {
	return &Expr{Kind: Comparison, Op: op, Left: left, Right: right}
}

func NewConjunction(ct ConjType, children []*Expr) *Expr {
	return &Expr{Kind: Conjunction, ConjType: ct, Children: children}
}

func NewArithmetic(op ArithType, left, right *Expr) *Expr {
	return &Expr{Kind: Arithmetic, ArithOp: op, Left: left, Right: right}
}

func NewAggregation(t AggType, child *Expr, name string) *Expr {
	return &Expr{Kind: Aggregation, AggType: t, Child: child, Name: name}
}

func NewUnboundAggregate(t AggType, child *Expr) *Expr {
	return &Expr{Kind: UnboundAggregate, AggType: t, Child: child}
}

func NewLike(isLike bool, left, right *Expr) *Expr {
	return &Expr{Kind: Like, IsLike: isLike, Left: left, Right: right}
}

func NewVectorDistance(dt value.DistanceType, left, right *Expr) *Expr {
	return &Expr{Kind: VectorDistance, DistType: dt, Left: left, Right: right}
}

func NewIs(op CompOp, left, right *Expr) *Expr {
	return &Expr{Kind: Is, Op: op, Left: left, Right: right}
}

func NewSubquery(runner SubqueryRunner) *Expr { return &Expr{Kind: Subquery, Runner: runner} }

// NewSubqueryPlan wraps a bound-but-unplanned subquery statement; see the
// Plan field's doc comment on Expr.
func NewSubqueryPlan(plan any) *Expr { return &Expr{Kind: Subquery, Plan: plan} }

func NewSpecialPlaceholder() *Expr { return &Expr{Kind: SpecialPlaceholder} }

// ValueType reports the static result type of evaluating e, used by the
// binder to type-check CAST targets and by Project to build its output
// schema.
func (e *Expr) ValueType() sqltype.AttrType {
	switch e.Kind {
	case Field:
		return e.FieldMeta.Type
	case ValueExpr:
		return e.Val.Tag
	case Cast:
		return e.CastType
	case Comparison, Conjunction, Like, Is:
		return sqltype.BOOLEANS
	case Arithmetic:
		return e.arithmeticResultType()
	case VectorDistance:
		return sqltype.FLOATS
	case Aggregation:
		if e.AggType == CountAgg {
			return sqltype.INTS
		}
		if e.AggType == AvgAgg {
			return sqltype.FLOATS
		}
		if e.Child != nil {
			return e.Child.ValueType()
		}
		return sqltype.FLOATS
	case Subquery:
		return sqltype.UNDEFINED
	default:
		return sqltype.UNDEFINED
	}
}

func (e *Expr) arithmeticResultType() sqltype.AttrType {
	if e.Left == nil {
		return e.Right.ValueType()
	}
	if e.Right == nil {
		return e.Left.ValueType()
	}
	lt, rt := e.Left.ValueType(), e.Right.ValueType()
	if lt == sqltype.INTS && rt == sqltype.INTS && e.ArithOp != Div {
		return sqltype.INTS
	}
	if lt == sqltype.VECTORS && rt == sqltype.VECTORS {
		return sqltype.VECTORS
	}
	return sqltype.FLOATS
}

// Equal reports structural equality, used by SELECT binding's GROUP BY
// check (stmt's validateGroupBy).
func (e *Expr) Equal(other *Expr) bool {
	if e == other {
		return true
	}
	if e == nil || other == nil || e.Kind != other.Kind {
		return false
	}
	switch e.Kind {
	case Field:
		return e.TableName == other.TableName && e.FieldName == other.FieldName
	case UnboundField:
		return e.TableName == other.TableName && e.FieldName == other.FieldName && e.TableAlias == other.TableAlias
	case ValueExpr:
		cmp, unknown := value.Compare(e.Val, other.Val)
		return !unknown && cmp == 0
	case Arithmetic:
		return e.ArithOp == other.ArithOp && e.Left.Equal(other.Left) && e.Right.Equal(other.Right)
	case Comparison:
		return e.Op == other.Op && e.Left.Equal(other.Left) && e.Right.Equal(other.Right)
	case Conjunction:
		if e.ConjType != other.ConjType || len(e.Children) != len(other.Children) {
			return false
		}
		for i := range e.Children {
			if !e.Children[i].Equal(other.Children[i]) {
				return false
			}
		}
		return true
	case Aggregation:
		return e.AggType == other.AggType && e.Child.Equal(other.Child)
	default:
		return false
	}
}

// TryGetValue folds e into a constant if every leaf is itself constant
// (ValueExpr), returning ok=false otherwise.
func (e *Expr) TryGetValue() (value.Value, bool) {
	switch e.Kind {
	case ValueExpr:
		return e.Val, true
	case Cast:
		v, ok := e.Child.TryGetValue()
		if !ok {
			return value.Value{}, false
		}
		cast, err := value.CastTo(v, e.CastType)
		if err != nil {
			return value.Value{}, false
		}
		return cast, true
	case Arithmetic:
		return e.tryGetArithmeticValue()
	default:
		return value.Value{}, false
	}
}

func (e *Expr) tryGetArithmeticValue() (value.Value, bool) {
	var lv, rv value.Value
	if e.Left != nil {
		v, ok := e.Left.TryGetValue()
		if !ok {
			return value.Value{}, false
		}
		lv = v
	}
	if e.Right != nil {
		v, ok := e.Right.TryGetValue()
		if !ok {
			return value.Value{}, false
		}
		rv = v
	}
	result, err := calcArithmetic(e.ArithOp, lv, rv)
	if err != nil {
		return value.Value{}, false
	}
	return result, true
}

func calcArithmetic(op ArithType, l, r value.Value) (value.Value, error) {
	switch op {
	case Add:
		return value.Add(l, r)
	case Sub:
		return value.Sub(l, r)
	case Mul:
		return value.Mul(l, r)
	case Div:
		return value.Div(l, r)
	case Negative:
		return value.Negative(r)
	default:
		return value.Value{}, fmt.Errorf("expr: unsupported arithmetic op %d", op)
	}
}
