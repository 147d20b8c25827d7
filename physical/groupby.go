// Grounded on original_source/.../sql/operator/group_by_physical_operator.{h,cpp}
// and its two subclasses: ScalarGroupByPhysicalOperator (no GROUP BY keys,
// exactly one output row even over zero input rows) and
// HashGroupByPhysicalOperator (one output row per distinct key tuple,
// order otherwise unspecified — spec.md §4.6 does not require GROUP BY
// output in any particular order absent an ORDER BY above it).
package physical

import (
	"fmt"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

// newAggregatorFor builds the Aggregator for one Aggregation expression,
// recognizing the Child == nil convention expr/binder.go uses for COUNT(*).
func newAggregatorFor(agg *expr.Expr) expr.Aggregator {
	return expr.NewAggregator(agg.AggType, agg.Child == nil)
}

func accumulate(agg *expr.Expr, aggregator expr.Aggregator, row expr.Tuple) error {
	if agg.Child == nil {
		return aggregator.Accumulate(value.NewBool(true)) // COUNT(*): any non-null placeholder
	}
	v, err := agg.Child.GetValue(row, nil)
	if err != nil {
		return err
	}
	return aggregator.Accumulate(v)
}

// ScalarGroupBy computes one row of aggregates over the whole child
// stream, with no GROUP BY keys — emitted even if the child produced zero
// rows (SUM/AVG/MAX/MIN as NULL, COUNT as 0), matching the original's
// scalar subclass.
type ScalarGroupBy struct {
	Child      Operator
	Aggregates []*expr.Expr

	emitted bool
	cur     *expr.ValueListTuple
}

func NewScalarGroupBy(child Operator, aggregates []*expr.Expr) *ScalarGroupBy {
	return &ScalarGroupBy{Child: child, Aggregates: aggregates}
}

func (g *ScalarGroupBy) Open(tx txn.Trx) error {
	if err := g.Child.Open(tx); err != nil {
		return err
	}
	aggregators := make([]expr.Aggregator, len(g.Aggregates))
	for i, agg := range g.Aggregates {
		aggregators[i] = newAggregatorFor(agg)
	}
	for {
		ok, err := g.Child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		row, err := g.Child.Current()
		if err != nil {
			return err
		}
		for i, agg := range g.Aggregates {
			if err := accumulate(agg, aggregators[i], row); err != nil {
				return err
			}
		}
	}
	if err := g.Child.Close(); err != nil {
		return err
	}

	values := make([]value.Value, len(g.Aggregates))
	specs := make([]expr.TupleCellSpec, len(g.Aggregates))
	for i, agg := range g.Aggregates {
		v, err := aggregators[i].Evaluate()
		if err != nil {
			return err
		}
		values[i] = v
		specs[i] = expr.SpecOf(agg)
	}
	g.cur = &expr.ValueListTuple{Values: values, Specs: specs}
	g.emitted = false
	return nil
}

func (g *ScalarGroupBy) Next() (bool, error) {
	if g.emitted {
		return false, nil
	}
	g.emitted = true
	return true, nil
}

func (g *ScalarGroupBy) Current() (expr.Tuple, error) {
	if !g.emitted || g.cur == nil {
		return nil, fmt.Errorf("physical: scalar group by has no current row")
	}
	return g.cur, nil
}

func (g *ScalarGroupBy) Close() error { return nil }

func (g *ScalarGroupBy) SetOuterTuple(outer expr.Tuple) { g.Child.SetOuterTuple(outer) }

// HashGroupBy buckets child rows by their GROUP BY key values (compared by
// each value's canonical string form, matching value.Value's discrete
// comparable domain) and emits one aggregated row per distinct key.
type HashGroupBy struct {
	Child      Operator
	GroupKeys  []*expr.Expr
	Aggregates []*expr.Expr

	rows []*expr.ValueListTuple
	pos  int
}

func NewHashGroupBy(child Operator, groupKeys, aggregates []*expr.Expr) *HashGroupBy {
	return &HashGroupBy{Child: child, GroupKeys: groupKeys, Aggregates: aggregates}
}

type groupBucket struct {
	keyValues   []value.Value
	aggregators []expr.Aggregator
}

func (g *HashGroupBy) Open(tx txn.Trx) error {
	if err := g.Child.Open(tx); err != nil {
		return err
	}
	buckets := make(map[string]*groupBucket)
	var order []string

	for {
		ok, err := g.Child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		row, err := g.Child.Current()
		if err != nil {
			return err
		}
		keyValues := make([]value.Value, len(g.GroupKeys))
		keyStr := ""
		for i, ke := range g.GroupKeys {
			v, err := ke.GetValue(row, nil)
			if err != nil {
				return fmt.Errorf("physical: group by key: %w", err)
			}
			keyValues[i] = v
			keyStr += "\x00" + v.ToString()
		}
		b, ok := buckets[keyStr]
		if !ok {
			b = &groupBucket{keyValues: keyValues, aggregators: make([]expr.Aggregator, len(g.Aggregates))}
			for i, agg := range g.Aggregates {
				b.aggregators[i] = newAggregatorFor(agg)
			}
			buckets[keyStr] = b
			order = append(order, keyStr)
		}
		for i, agg := range g.Aggregates {
			if err := accumulate(agg, b.aggregators[i], row); err != nil {
				return err
			}
		}
	}
	if err := g.Child.Close(); err != nil {
		return err
	}

	g.rows = make([]*expr.ValueListTuple, 0, len(order))
	for _, keyStr := range order {
		b := buckets[keyStr]
		n := len(g.GroupKeys) + len(g.Aggregates)
		values := make([]value.Value, 0, n)
		specs := make([]expr.TupleCellSpec, 0, n)
		values = append(values, b.keyValues...)
		for i, ke := range g.GroupKeys {
			_ = i
			specs = append(specs, expr.SpecOf(ke))
		}
		for i, agg := range g.Aggregates {
			v, err := b.aggregators[i].Evaluate()
			if err != nil {
				return err
			}
			values = append(values, v)
			specs = append(specs, expr.SpecOf(agg))
		}
		g.rows = append(g.rows, &expr.ValueListTuple{Values: values, Specs: specs})
	}
	g.pos = 0
	return nil
}

func (g *HashGroupBy) Next() (bool, error) {
	if g.pos >= len(g.rows) {
		return false, nil
	}
	g.pos++
	return true, nil
}

func (g *HashGroupBy) Current() (expr.Tuple, error) {
	if g.pos == 0 || g.pos > len(g.rows) {
		return nil, fmt.Errorf("physical: hash group by has no current row")
	}
	return g.rows[g.pos-1], nil
}

func (g *HashGroupBy) Close() error { return nil }

func (g *HashGroupBy) SetOuterTuple(outer expr.Tuple) { g.Child.SetOuterTuple(outer) }
