// Grounded on original_source/.../sql/operator/nested_loop_join_physical_operator.cpp:
// for each left row, rescan right from the start and emit the
// concatenation — join conditions are not evaluated here, they arrive as a
// Predicate operator stacked above (logical.Plan never attaches a
// condition to a bare Join node; WHERE/ON both lower to a Predicate).
package physical

import (
	"fmt"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/txn"
)

type NestedLoopJoin struct {
	Left, Right Operator

	tx         txn.Trx
	leftCur    expr.Tuple
	rightOpen  bool
	cur        *expr.JoinTuple
	leftExists bool
}

func NewNestedLoopJoin(left, right Operator) *NestedLoopJoin {
	return &NestedLoopJoin{Left: left, Right: right}
}

func (j *NestedLoopJoin) Open(tx txn.Trx) error {
	j.tx = tx
	if err := j.Left.Open(tx); err != nil {
		return err
	}
	ok, err := j.Left.Next()
	if err != nil {
		return err
	}
	j.leftExists = ok
	if ok {
		j.leftCur, err = j.Left.Current()
		if err != nil {
			return err
		}
	}
	return nil
}

func (j *NestedLoopJoin) Next() (bool, error) {
	for j.leftExists {
		if !j.rightOpen {
			if err := j.Right.Open(j.tx); err != nil {
				return false, err
			}
			j.rightOpen = true
		}
		ok, err := j.Right.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			if err := j.Right.Close(); err != nil {
				return false, err
			}
			j.rightOpen = false
			lok, err := j.Left.Next()
			if err != nil {
				return false, err
			}
			j.leftExists = lok
			if lok {
				j.leftCur, err = j.Left.Current()
				if err != nil {
					return false, err
				}
			}
			continue
		}
		rightCur, err := j.Right.Current()
		if err != nil {
			return false, err
		}
		j.cur = &expr.JoinTuple{Left: j.leftCur, Right: rightCur}
		return true, nil
	}
	j.cur = nil
	return false, nil
}

func (j *NestedLoopJoin) Current() (expr.Tuple, error) {
	if j.cur == nil {
		return nil, fmt.Errorf("physical: join has no current row")
	}
	return j.cur, nil
}

func (j *NestedLoopJoin) Close() error {
	var firstErr error
	if j.rightOpen {
		if err := j.Right.Close(); err != nil {
			firstErr = err
		}
	}
	if err := j.Left.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (j *NestedLoopJoin) SetOuterTuple(outer expr.Tuple) {
	j.Left.SetOuterTuple(outer)
	j.Right.SetOuterTuple(outer)
}
