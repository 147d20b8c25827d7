// Grounded on original_source/.../sql/operator/delete_physical_operator.cpp:
// pull every row surviving the child's filter and delete it by RID through
// the transaction, reporting the count deleted. An updatable
// single-base-table view deletes through its base table, the same
// View.BaseTables[0] routing Insert (insert.go) and Update (update.go)
// use — ridOf's RID already identifies the base record regardless of
// which relation the scan was framed as.
package physical

import (
	"fmt"

	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/storage/table"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

type Delete struct {
	Engine *Engine
	Child  Operator
	Table  *record.TableMeta
	View   *catalog.View

	tx      txn.Trx
	tbl     *table.Table
	emitted bool
	count   int
}

func NewDelete(e *Engine, child Operator, meta *record.TableMeta, view *catalog.View) *Delete {
	return &Delete{Engine: e, Child: child, Table: meta, View: view}
}

func (d *Delete) Open(tx txn.Trx) error {
	targetMeta := d.Table
	if d.View != nil {
		if len(d.View.BaseTables) != 1 {
			return rc.New(rc.UNSUPPORTED, "view %s: delete requires exactly one base table, has %d", d.View.Name, len(d.View.BaseTables))
		}
		baseMeta := d.Engine.Catalog.Table(d.View.BaseTables[0])
		if baseMeta == nil {
			return fmt.Errorf("physical: delete: base table %s for view %s not found", d.View.BaseTables[0], d.View.Name)
		}
		targetMeta = baseMeta
	}
	tbl, err := d.Engine.Table(targetMeta)
	if err != nil {
		return err
	}
	d.tbl = tbl
	d.tx = tx
	d.emitted = false
	d.count = 0
	return d.Child.Open(tx)
}

func (d *Delete) Next() (bool, error) {
	if d.emitted {
		return false, nil
	}
	for {
		ok, err := d.Child.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
		row, err := d.Child.Current()
		if err != nil {
			return false, err
		}
		rid, err := ridOf(row)
		if err != nil {
			return false, err
		}
		if err := d.tx.DeleteRecord(d.tbl, rid); err != nil {
			return false, err
		}
		d.count++
	}
	if err := d.Child.Close(); err != nil {
		return false, err
	}
	d.emitted = true
	return true, nil
}

// ridOf extracts the RID a TableScan/IndexScan/VectorIndexScan stamped
// onto every cell's Source field (expr.RowTuple.CellAt sets it from
// record.Record.RID) — the provenance link Delete/Update need to write
// back to the exact row they read, per spec.md §4.6.
func ridOf(row expr.Tuple) (value.RID, error) {
	if row.CellNum() == 0 {
		return value.RID{}, fmt.Errorf("physical: cannot locate RID of an empty row")
	}
	v, err := row.CellAt(0)
	if err != nil {
		return value.RID{}, err
	}
	return v.Source, nil
}

func (d *Delete) Current() (expr.Tuple, error) {
	if !d.emitted {
		return nil, fmt.Errorf("physical: delete has no current row")
	}
	return &expr.ValueListTuple{
		Values: []value.Value{value.NewInt(int32(d.count))},
		Specs:  []expr.TupleCellSpec{expr.NewAliasSpec("rows_deleted")},
	}, nil
}

func (d *Delete) Close() error { return nil }

func (d *Delete) SetOuterTuple(outer expr.Tuple) { d.Child.SetOuterTuple(outer) }
