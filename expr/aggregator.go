package expr

import "github.com/minidb/miniql/value"

// Aggregator accumulates one group's values for a single aggregate
// expression. Grounded on
// original_source/.../sql/expr/aggregator.cpp: SUM/AVG/MAX/MIN skip NULL
// inputs and evaluate to NULL if every input was NULL; COUNT(expr) skips
// NULLs too, but COUNT(*) (CountStar) counts every row regardless — the
// distinction the DESIGN.md open-question resolution for COUNT(*)+NULL
// settles in favor of standard SQL semantics.
type Aggregator interface {
	Accumulate(v value.Value) error
	Evaluate() (value.Value, error)
}

func NewAggregator(t AggType, countStar bool) Aggregator {
	switch t {
	case SumAgg:
		return &sumAggregator{}
	case AvgAgg:
		return &avgAggregator{}
	case MaxAgg:
		return &maxAggregator{}
	case MinAgg:
		return &minAggregator{}
	case CountAgg:
		return &countAggregator{countStar: countStar}
	default:
		return &sumAggregator{}
	}
}

type sumAggregator struct{ acc value.Value }

func (a *sumAggregator) Accumulate(v value.Value) error {
	if v.IsNull() {
		return nil
	}
	if a.acc.IsUndefined() {
		a.acc = v
		return nil
	}
	sum, err := value.Add(v, a.acc)
	if err != nil {
		return err
	}
	a.acc = sum
	return nil
}

func (a *sumAggregator) Evaluate() (value.Value, error) {
	if a.acc.IsUndefined() {
		return value.Null(), nil
	}
	return a.acc, nil
}

type avgAggregator struct {
	acc   value.Value
	count int32
}

func (a *avgAggregator) Accumulate(v value.Value) error {
	if v.IsNull() {
		return nil
	}
	if a.acc.IsUndefined() {
		a.acc = v
		a.count = 1
		return nil
	}
	sum, err := value.Add(v, a.acc)
	if err != nil {
		return err
	}
	a.acc = sum
	a.count++
	return nil
}

func (a *avgAggregator) Evaluate() (value.Value, error) {
	if a.count == 0 {
		return value.Null(), nil
	}
	return value.Div(a.acc, value.NewInt(a.count))
}

type countAggregator struct {
	countStar bool
	count     int32
}

func (a *countAggregator) Accumulate(v value.Value) error {
	if a.countStar || !v.IsNull() {
		a.count++
	}
	return nil
}

func (a *countAggregator) Evaluate() (value.Value, error) {
	return value.NewInt(a.count), nil
}

type maxAggregator struct{ acc value.Value }

func (a *maxAggregator) Accumulate(v value.Value) error {
	if v.IsNull() {
		return nil
	}
	if a.acc.IsUndefined() {
		a.acc = v
		return nil
	}
	a.acc = value.Max(v, a.acc)
	return nil
}

func (a *maxAggregator) Evaluate() (value.Value, error) {
	if a.acc.IsUndefined() {
		return value.Null(), nil
	}
	return a.acc, nil
}

type minAggregator struct{ acc value.Value }

func (a *minAggregator) Accumulate(v value.Value) error {
	if v.IsNull() {
		return nil
	}
	if a.acc.IsUndefined() {
		a.acc = v
		return nil
	}
	a.acc = value.Min(v, a.acc)
	return nil
}

func (a *minAggregator) Evaluate() (value.Value, error) {
	if a.acc.IsUndefined() {
		return value.Null(), nil
	}
	return a.acc, nil
}
