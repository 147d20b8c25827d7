// Calc evaluates a list of constant expressions with no FROM clause
// (`CALC 1+1, 2*3`), producing exactly one output row.
package physical

import (
	"fmt"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

type Calc struct {
	Exprs []*expr.Expr

	emitted bool
	cur     *expr.ValueListTuple
}

func NewCalc(exprs []*expr.Expr) *Calc { return &Calc{Exprs: exprs} }

func (c *Calc) Open(tx txn.Trx) error {
	values := make([]value.Value, len(c.Exprs))
	specs := make([]expr.TupleCellSpec, len(c.Exprs))
	for i, e := range c.Exprs {
		v, err := e.GetValue(nil, nil)
		if err != nil {
			return fmt.Errorf("physical: calc: %w", err)
		}
		values[i] = v
		specs[i] = expr.SpecOf(e)
	}
	c.cur = &expr.ValueListTuple{Values: values, Specs: specs}
	c.emitted = false
	return nil
}

func (c *Calc) Next() (bool, error) {
	if c.emitted {
		return false, nil
	}
	c.emitted = true
	return true, nil
}

func (c *Calc) Current() (expr.Tuple, error) {
	if !c.emitted {
		return nil, fmt.Errorf("physical: calc has no current row")
	}
	return c.cur, nil
}

func (c *Calc) Close() error { return nil }

func (c *Calc) SetOuterTuple(outer expr.Tuple) {}
