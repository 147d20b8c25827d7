package expr

import (
	"fmt"

	"github.com/minidb/miniql/value"
)

// GetValue is spec.md §3's core expression contract: evaluate e against
// tuple, returning the resulting cell. UnboundField/UnboundAggregate/Star/
// SpecialPlaceholder must be resolved by the binder before evaluation ever
// reaches here; hitting one is a binder bug, not a runtime condition.
func (e *Expr) GetValue(tuple Tuple, trx Trx) (value.Value, error) {
	switch e.Kind {
	case Field:
		spec := TupleCellSpec{TableName: e.TableName, FieldName: e.FieldName, TableAlias: e.TableAlias}
		return tuple.FindCell(spec)

	case ValueExpr:
		return e.Val, nil

	case ValueList:
		if e.index >= len(e.Values) {
			e.index = 0
			return value.Value{}, errRecordEOF
		}
		v := e.Values[e.index]
		e.index++
		return v, nil

	case Cast:
		v, err := e.Child.GetValue(tuple, trx)
		if err != nil {
			return value.Value{}, err
		}
		if v.Tag == e.CastType {
			return v, nil
		}
		return value.CastTo(v, e.CastType)

	case Comparison:
		return e.evalComparison(tuple, trx)

	case Conjunction:
		return e.evalConjunction(tuple, trx)

	case Arithmetic:
		return e.evalArithmetic(tuple, trx)

	case Like:
		return e.evalLike(tuple, trx)

	case VectorDistance:
		return e.evalVectorDistance(tuple, trx)

	case Is:
		return e.evalIs(tuple, trx)

	case Aggregation:
		spec := NewAliasSpec(e.Name)
		return tuple.FindCell(spec)

	case Subquery:
		return e.evalSubqueryScalar(tuple)

	case SpecialPlaceholder:
		// A placeholder never resolves on its own; the caller (typically a
		// Comparison whose other side is a subquery/value-list) special-cases it.
		return value.Undefined(), nil

	default:
		return value.Value{}, fmt.Errorf("expr: cannot evaluate unbound expression kind %d", e.Kind)
	}
}

// errRecordEOF signals a streaming expression (ValueList, Subquery) ran
// out of rows; it is not a user-visible error, the same non-error-EOF
// convention spec.md §6 assigns to RC::RECORD_EOF.
var errRecordEOF = fmt.Errorf("expr: RECORD_EOF")

func IsRecordEOF(err error) bool { return err == errRecordEOF }

func (e *Expr) evalConjunction(tuple Tuple, trx Trx) (value.Value, error) {
	if len(e.Children) == 0 {
		return value.NewBool(true), nil
	}
	for _, child := range e.Children {
		v, err := child.GetValue(tuple, trx)
		if err != nil {
			return value.Value{}, err
		}
		b := v.Bool()
		if (e.ConjType == And && !b) || (e.ConjType == Or && b) {
			return value.NewBool(b), nil
		}
	}
	return value.NewBool(e.ConjType == And), nil
}

func (e *Expr) evalArithmetic(tuple Tuple, trx Trx) (value.Value, error) {
	var lv, rv value.Value
	var err error
	if e.Left != nil {
		if lv, err = e.Left.GetValue(tuple, trx); err != nil {
			return value.Value{}, err
		}
	}
	if e.Right != nil {
		if rv, err = e.Right.GetValue(tuple, trx); err != nil {
			return value.Value{}, err
		}
	}
	return calcArithmetic(e.ArithOp, lv, rv)
}

func (e *Expr) evalLike(tuple Tuple, trx Trx) (value.Value, error) {
	sv, err := e.Left.GetValue(tuple, trx)
	if err != nil {
		return value.Value{}, err
	}
	pv, err := e.Right.GetValue(tuple, trx)
	if err != nil {
		return value.Value{}, err
	}
	if sv.IsNull() || pv.IsNull() {
		return value.Null(), nil
	}
	matched := matchLike(string(sv.Chars()), string(pv.Chars()))
	if e.IsLike {
		return value.NewBool(matched), nil
	}
	return value.NewBool(!matched), nil
}

func (e *Expr) evalVectorDistance(tuple Tuple, trx Trx) (value.Value, error) {
	lv, err := e.Left.GetValue(tuple, trx)
	if err != nil {
		return value.Value{}, err
	}
	rv, err := e.Right.GetValue(tuple, trx)
	if err != nil {
		return value.Value{}, err
	}
	if lv.Tag != value.VECTORS || rv.Tag != value.VECTORS {
		return value.Value{}, fmt.Errorf("expr: vector distance requires two vector operands")
	}
	d, err := value.VectorDistance(e.DistType, lv.Vector().Floats, rv.Vector().Floats)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(d), nil
}

func (e *Expr) evalIs(tuple Tuple, trx Trx) (value.Value, error) {
	rv, err := e.Right.GetValue(tuple, trx)
	if err != nil {
		return value.Value{}, err
	}
	lv, err := e.Left.GetValue(tuple, trx)
	if err != nil {
		return value.Value{}, err
	}
	if rv.IsNull() {
		isNull := lv.IsNull()
		if e.Op == EQ {
			return value.NewBool(isNull), nil
		}
		return value.NewBool(!isNull), nil
	}
	// IS TRUE / IS FALSE: right must be a boolean constant.
	want := rv.Bool()
	return value.NewBool(!lv.IsNull() && lv.Bool() == want), nil
}

// evalSubqueryScalar pulls exactly one row from the subquery's runner and
// returns its single cell; more than one row or more than one column is a
// binder/runtime error per spec.md §4.2's subquery arity rule.
func (e *Expr) evalSubqueryScalar(outer Tuple) (value.Value, error) {
	if err := e.Runner.Open(outer); err != nil {
		return value.Value{}, err
	}
	defer e.Runner.Close()

	hasRow, err := e.Runner.Next()
	if err != nil {
		return value.Value{}, err
	}
	if !hasRow {
		return value.Null(), nil
	}
	row, err := e.Runner.Current()
	if err != nil {
		return value.Value{}, err
	}
	if row.CellNum() > 1 {
		return value.Value{}, fmt.Errorf("expr: subquery returned more than one column")
	}
	v, err := row.CellAt(0)
	if err != nil {
		return value.Value{}, err
	}
	hasMore, err := e.Runner.Next()
	if err != nil {
		return value.Value{}, err
	}
	if hasMore {
		return value.Value{}, fmt.Errorf("expr: subquery returns more than 1 row")
	}
	return v, nil
}
