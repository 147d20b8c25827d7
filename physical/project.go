// Grounded on original_source/.../sql/operator/project_physical_operator.cpp:
// evaluate each projection expression against the child row and stop after
// Limit rows (Limit < 0 means unbounded, spec.md §4.4's LogicalOp.Limit
// convention).
package physical

import (
	"fmt"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

type Project struct {
	Child Operator
	Exprs []*expr.Expr
	Limit int

	outer   expr.Tuple
	emitted int
	cur     *expr.ExpressionTuple
}

func NewProject(child Operator, exprs []*expr.Expr, limit int) *Project {
	return &Project{Child: child, Exprs: exprs, Limit: limit}
}

func (p *Project) Open(tx txn.Trx) error {
	p.emitted = 0
	return p.Child.Open(tx)
}

func (p *Project) Next() (bool, error) {
	if p.Limit >= 0 && p.emitted >= p.Limit {
		p.cur = nil
		return false, nil
	}
	ok, err := p.Child.Next()
	if err != nil || !ok {
		p.cur = nil
		return ok, err
	}
	row, err := p.Child.Current()
	if err != nil {
		return false, err
	}
	out := &expr.ExpressionTuple{Values: make([]value.Value, len(p.Exprs)), Specs: make([]expr.TupleCellSpec, len(p.Exprs))}
	for i, e := range p.Exprs {
		if e.Kind == expr.Star {
			return false, fmt.Errorf("physical: project: unresolved star expression (binder bug)")
		}
		v, err := e.GetValue(row, nil)
		if err != nil {
			return false, fmt.Errorf("physical: project: %w", err)
		}
		out.Values[i] = v
		out.Specs[i] = expr.SpecOf(e)
	}
	p.cur = out
	p.emitted++
	return true, nil
}

func (p *Project) Current() (expr.Tuple, error) {
	if p.cur == nil {
		return nil, fmt.Errorf("physical: project has no current row")
	}
	return p.cur, nil
}

func (p *Project) Close() error { return p.Child.Close() }

func (p *Project) SetOuterTuple(outer expr.Tuple) {
	p.outer = outer
	p.Child.SetOuterTuple(outer)
}
