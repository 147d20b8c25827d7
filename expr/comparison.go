package expr

import (
	"fmt"

	"github.com/minidb/miniql/value"
)

// evalComparison implements spec.md §3's "Comparison ... execution
// reflects subquery shape": plain scalar-vs-scalar compares directly;
// EXISTS/NOT EXISTS only care whether the subquery produces a row; IN/NOT
// IN (against either a ValueList or a Subquery) scan candidates with a
// fast-break once the answer is decided.
func (e *Expr) evalComparison(tuple Tuple, trx Trx) (value.Value, error) {
	switch e.Op {
	case OpExists, OpNotExists:
		return e.evalExists(tuple)
	case OpIn, OpNotIn:
		if e.Right.Kind == Subquery || e.Left.Kind == Subquery {
			return e.evalInSubquery(tuple, trx)
		}
		if e.Right.Kind == ValueList || e.Left.Kind == ValueList {
			return e.evalInValueList(tuple, trx)
		}
	}

	lv, err := e.Left.GetValue(tuple, trx)
	if err != nil {
		return value.Value{}, err
	}
	rv, err := e.Right.GetValue(tuple, trx)
	if err != nil {
		return value.Value{}, err
	}
	return e.compareValues(lv, rv)
}

func (e *Expr) compareValues(l, r value.Value) (value.Value, error) {
	cmp, unknown := value.Compare(l, r)
	if unknown {
		return value.Null(), nil
	}
	var b bool
	switch e.Op {
	case EQ, OpIn:
		b = cmp == 0
	case NE, OpNotIn:
		b = cmp != 0
	case LT:
		b = cmp < 0
	case LE:
		b = cmp <= 0
	case GT:
		b = cmp > 0
	case GE:
		b = cmp >= 0
	default:
		return value.Value{}, fmt.Errorf("expr: unsupported comparison op %d", e.Op)
	}
	return value.NewBool(b), nil
}

func (e *Expr) evalExists(tuple Tuple) (value.Value, error) {
	sub := e.Left
	if sub.Kind != Subquery {
		sub = e.Right
	}
	if err := sub.Runner.Open(tuple); err != nil {
		return value.Value{}, err
	}
	defer sub.Runner.Close()
	hasRow, err := sub.Runner.Next()
	if err != nil {
		return value.Value{}, err
	}
	if e.Op == OpExists {
		return value.NewBool(hasRow), nil
	}
	return value.NewBool(!hasRow), nil
}

// evalInValueList handles `x IN (1, 2, 3)`-shaped comparisons, streaming
// the ValueList side via repeated GetValue calls (each call advances its
// internal cursor until errRecordEOF).
func (e *Expr) evalInValueList(tuple Tuple, trx Trx) (value.Value, error) {
	list, scalar := e.Right, e.Left
	if e.Left.Kind == ValueList {
		list, scalar = e.Left, e.Right
	}
	scalarValue, err := scalar.GetValue(tuple, trx)
	if err != nil {
		return value.Value{}, err
	}

	list.index = 0
	found := false
	for {
		candidate, err := list.GetValue(tuple, trx)
		if err != nil {
			if IsRecordEOF(err) {
				break
			}
			return value.Value{}, err
		}
		cmp, unknown := value.Compare(scalarValue, candidate)
		if !unknown && cmp == 0 {
			found = true
			break
		}
	}
	if e.Op == OpIn {
		return value.NewBool(found), nil
	}
	return value.NewBool(!found), nil
}

// evalInSubquery handles `x IN (SELECT ...)`, pulling every row from the
// subquery operator and comparing; IN stops early at the first match,
// while NOT IN always reads every row of the subquery.
func (e *Expr) evalInSubquery(tuple Tuple, trx Trx) (value.Value, error) {
	sub, scalar := e.Right, e.Left
	if e.Left.Kind == Subquery {
		sub, scalar = e.Left, e.Right
	}
	scalarValue, err := scalar.GetValue(tuple, trx)
	if err != nil {
		return value.Value{}, err
	}

	if err := sub.Runner.Open(tuple); err != nil {
		return value.Value{}, err
	}
	defer sub.Runner.Close()

	found := false
	for {
		hasRow, err := sub.Runner.Next()
		if err != nil {
			return value.Value{}, err
		}
		if !hasRow {
			break
		}
		row, err := sub.Runner.Current()
		if err != nil {
			return value.Value{}, err
		}
		candidate, err := row.CellAt(0)
		if err != nil {
			return value.Value{}, err
		}
		cmp, unknown := value.Compare(scalarValue, candidate)
		if !unknown && cmp == 0 {
			found = true
			if e.Op == OpIn {
				break
			}
		}
	}
	if e.Op == OpIn {
		return value.NewBool(found), nil
	}
	return value.NewBool(!found), nil
}
