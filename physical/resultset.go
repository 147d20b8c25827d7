// ResultSet is the tabular shape spec.md §1's "returns tabular results"
// promise takes once an operator tree has actually run: column names drawn
// from each row's TupleCellSpec plus the materialized Value rows. Every
// operator in this package (scans, joins, Insert/Delete/Update's one
// summary row, Explain's plan dump, Passthrough's message/listing rows)
// already speaks the same Tuple protocol, so one drain loop here covers
// every statement kind session.Session.Execute can run.
package physical

import (
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

type ResultSet struct {
	Columns []string
	Rows    [][]value.Value
}

// Collect opens op against tx, pulls every row to completion, and closes
// it — the same "drive the subtree to exhaustion" loop spec.md §5 requires
// of a sink's Open, generalized here to any operator since a SELECT's
// Project and a DDL's Passthrough both terminate in exactly one call
// shape: Open, repeat Next/Current, Close.
func Collect(op Operator, tx txn.Trx) (*ResultSet, error) {
	if err := op.Open(tx); err != nil {
		return nil, err
	}
	defer op.Close()

	rs := &ResultSet{}
	for {
		ok, err := op.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		row, err := op.Current()
		if err != nil {
			return nil, err
		}
		if rs.Columns == nil {
			rs.Columns = make([]string, row.CellNum())
			for i := range rs.Columns {
				spec, err := row.SpecAt(i)
				if err != nil {
					return nil, err
				}
				rs.Columns[i] = spec.String()
			}
		}
		values := make([]value.Value, row.CellNum())
		for i := range values {
			v, err := row.CellAt(i)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		rs.Rows = append(rs.Rows, values)
	}
	return rs, nil
}
