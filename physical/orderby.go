// Grounded on original_source/.../sql/operator/order_by_physical_operator.cpp:
// materialize every child row up front, sort by the ORDER BY keys, then
// stream the sorted buffer. NULLs sort first on every key regardless of
// ASC/DESC (value.CompareForOrderBy already implements this).
package physical

import (
	"fmt"
	"sort"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/logical"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

type OrderBy struct {
	Child Operator
	Keys  []logical.OrderKey

	outer expr.Tuple
	rows  []*orderByRow
	pos   int
}

// orderByRow pairs a materialized row with its pre-evaluated sort keys so
// the comparator never re-evaluates an expression during the sort.
type orderByRow struct {
	tuple *expr.ValueListTuple
	keys  []value.Value
}

func NewOrderBy(child Operator, keys []logical.OrderKey) *OrderBy {
	return &OrderBy{Child: child, Keys: keys}
}

func (o *OrderBy) Open(tx txn.Trx) error {
	if err := o.Child.Open(tx); err != nil {
		return err
	}
	o.rows = nil
	for {
		ok, err := o.Child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		row, err := o.Child.Current()
		if err != nil {
			return err
		}
		snapshot, err := snapshotTuple(row)
		if err != nil {
			return err
		}
		keyVals := make([]value.Value, len(o.Keys))
		for i, k := range o.Keys {
			v, err := k.Expr.GetValue(row, nil)
			if err != nil {
				return fmt.Errorf("physical: order by key: %w", err)
			}
			keyVals[i] = v
		}
		o.rows = append(o.rows, &orderByRow{tuple: snapshot, keys: keyVals})
	}
	if err := o.Child.Close(); err != nil {
		return err
	}

	sort.SliceStable(o.rows, func(i, j int) bool {
		a, b := o.rows[i], o.rows[j]
		for k, key := range o.Keys {
			c := value.CompareForOrderBy(a.keys[k], b.keys[k], key.Desc)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	o.pos = 0
	return nil
}

func snapshotTuple(t expr.Tuple) (*expr.ValueListTuple, error) {
	n := t.CellNum()
	values := make([]value.Value, n)
	specs := make([]expr.TupleCellSpec, n)
	for i := 0; i < n; i++ {
		v, err := t.CellAt(i)
		if err != nil {
			return nil, err
		}
		s, err := t.SpecAt(i)
		if err != nil {
			return nil, err
		}
		values[i] = v
		specs[i] = s
	}
	return &expr.ValueListTuple{Values: values, Specs: specs}, nil
}

func (o *OrderBy) Next() (bool, error) {
	if o.pos >= len(o.rows) {
		return false, nil
	}
	o.pos++
	return true, nil
}

func (o *OrderBy) Current() (expr.Tuple, error) {
	if o.pos == 0 || o.pos > len(o.rows) {
		return nil, fmt.Errorf("physical: order by has no current row")
	}
	return o.rows[o.pos-1].tuple, nil
}

func (o *OrderBy) Close() error { return nil }

func (o *OrderBy) SetOuterTuple(outer expr.Tuple) {
	o.outer = outer
	o.Child.SetOuterTuple(outer)
}
