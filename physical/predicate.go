// Grounded on original_source/.../sql/operator/predicate_physical_operator.cpp:
// pull from child, re-evaluate Filter, skip non-matching rows. Any pushable
// filter has already been relocated onto a scan by logical.Rewrite; what
// remains here is whatever pushdown declined (an OR'd condition, or one
// spanning both sides of a join).
package physical

import (
	"fmt"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/txn"
)

type Predicate struct {
	Child  Operator
	Filter *expr.Expr

	outer expr.Tuple
	cur   expr.Tuple
}

func NewPredicate(child Operator, filter *expr.Expr) *Predicate {
	return &Predicate{Child: child, Filter: filter}
}

func (p *Predicate) Open(tx txn.Trx) error { return p.Child.Open(tx) }

func (p *Predicate) Next() (bool, error) {
	for {
		ok, err := p.Child.Next()
		if err != nil || !ok {
			p.cur = nil
			return ok, err
		}
		row, err := p.Child.Current()
		if err != nil {
			return false, err
		}
		v, err := p.Filter.GetValue(row, nil)
		if err != nil {
			return false, fmt.Errorf("physical: predicate: %w", err)
		}
		if v.IsNull() || !v.Bool() {
			continue
		}
		p.cur = row
		return true, nil
	}
}

func (p *Predicate) Current() (expr.Tuple, error) {
	if p.cur == nil {
		return nil, fmt.Errorf("physical: predicate has no current row")
	}
	return p.cur, nil
}

func (p *Predicate) Close() error { return p.Child.Close() }

func (p *Predicate) SetOuterTuple(outer expr.Tuple) {
	p.outer = outer
	p.Child.SetOuterTuple(outer)
}
