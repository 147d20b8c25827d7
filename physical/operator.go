package physical

import (
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/txn"
)

// Operator is spec.md §4.6's physical pull-protocol contract: Open
// prepares the operator against a transaction, Next advances to the next
// row (false, nil means exhausted — the same non-error EOF convention
// storage/table.Scanner already uses), Current returns the row Next just
// produced, and Close releases any resources. The shape mirrors
// expr.SubqueryRunner deliberately: an Operator already satisfies (or
// trivially adapts into, via subqueryAdapter) that interface, so a
// correlated subquery's sub-plan is just another Operator underneath.
type Operator interface {
	Open(tx txn.Trx) error
	Next() (bool, error)
	Current() (expr.Tuple, error)
	Close() error

	// SetOuterTuple installs the current row of an enclosing scan so a
	// correlated subquery buried in this operator's predicate can resolve
	// the outer reference; the default behavior for every operator with
	// children is to propagate to them unchanged (spec.md §4.6).
	SetOuterTuple(outer expr.Tuple)
}

// subqueryAdapter bridges one Operator into expr.SubqueryRunner: Open
// installs the outer tuple instead of a transaction, since a correlated
// subquery reruns against the same already-open storage handles each time
// its outer row changes. tx is captured once at construction and reused
// across every Open/Close cycle.
type subqueryAdapter struct {
	op Operator
	tx txn.Trx
}

// AsSubqueryRunner wraps op so an expr.Expr holding a Subquery can drive it
// through expr.SubqueryRunner without physical importing expr's private
// machinery or expr importing physical.
func AsSubqueryRunner(op Operator, tx txn.Trx) expr.SubqueryRunner {
	return &subqueryAdapter{op: op, tx: tx}
}

func (a *subqueryAdapter) Open(outer expr.Tuple) error {
	a.op.SetOuterTuple(outer)
	return a.op.Open(a.tx)
}

func (a *subqueryAdapter) Next() (bool, error) { return a.op.Next() }

func (a *subqueryAdapter) Current() (expr.Tuple, error) { return a.op.Current() }

func (a *subqueryAdapter) Close() error { return a.op.Close() }
