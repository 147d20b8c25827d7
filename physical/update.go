// Grounded on original_source/.../sql/operator/update_physical_opeator.cpp:
// per surviving row, visit its record in place — evaluate each SET
// expression against the row as it stood before this row's own edits,
// cast to the field's type, reject a NULL landing in a NOT NULL column —
// then reconcile every index whose key fields the update actually
// touched. UPDATE never uses an index to drive its own scan (logical.Plan
// sets NotUseIndex on the child TableGet), so this always runs under a
// plain TableScan. An updatable single-base-table view routes each SET
// through View.AttrBaseField to the underlying base column, the same
// mapping Insert (insert.go) already uses for VALUES columns, and
// ridOf's RID (stamped on the ViewScan row's cells by the base table's
// own TableScan) locates the base record to rewrite.
package physical

import (
	"fmt"

	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/stmt"
	"github.com/minidb/miniql/storage/table"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

type Update struct {
	Engine *Engine
	Child  Operator
	Table  *record.TableMeta
	View   *catalog.View
	Sets   []stmt.SetClause

	tx         txn.Trx
	tbl        *table.Table
	targetMeta *record.TableMeta // Table itself, or the view's single base table
	sets       []stmt.SetClause  // Sets, remapped onto targetMeta's fields when View != nil
	changed    []bool            // per attached index, whether any SET field touches its key
	emitted    bool
	count      int
}

func NewUpdate(e *Engine, child Operator, meta *record.TableMeta, view *catalog.View, sets []stmt.SetClause) *Update {
	return &Update{Engine: e, Child: child, Table: meta, View: view, Sets: sets}
}

func (u *Update) Open(tx txn.Trx) error {
	targetMeta := u.Table
	sets := u.Sets

	if u.View != nil {
		if len(u.View.BaseTables) != 1 {
			return rc.New(rc.UNSUPPORTED, "view %s: update requires exactly one base table, has %d", u.View.Name, len(u.View.BaseTables))
		}
		baseMeta := u.Engine.Catalog.Table(u.View.BaseTables[0])
		if baseMeta == nil {
			return fmt.Errorf("physical: update: base table %s for view %s not found", u.View.BaseTables[0], u.View.Name)
		}
		mapped := make([]stmt.SetClause, len(u.Sets))
		for i, sc := range u.Sets {
			prov, ok := u.View.AttrBaseField[sc.Field.Name]
			if !ok {
				return fmt.Errorf("view column %s has no base-table mapping", sc.Field.Name)
			}
			fm := baseMeta.FieldByName(prov.BaseField)
			if fm == nil {
				return fmt.Errorf("base field %s not found in table %s", prov.BaseField, baseMeta.Name)
			}
			mapped[i] = stmt.SetClause{Field: fm, Value: sc.Value}
		}
		targetMeta = baseMeta
		sets = mapped
	}

	tbl, err := u.Engine.Table(targetMeta)
	if err != nil {
		return err
	}
	u.tbl = tbl
	u.targetMeta = targetMeta
	u.sets = sets
	u.tx = tx
	u.emitted = false
	u.count = 0

	u.changed = make([]bool, len(targetMeta.Indexes))
	for i, im := range targetMeta.Indexes {
		for _, sc := range sets {
			if im.HasField(sc.Field.Name) {
				u.changed[i] = true
				break
			}
		}
	}
	return u.Child.Open(tx)
}

func (u *Update) Next() (bool, error) {
	if u.emitted {
		return false, nil
	}
	for {
		ok, err := u.Child.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
		row, err := u.Child.Current()
		if err != nil {
			return false, err
		}
		rid, err := ridOf(row)
		if err != nil {
			return false, err
		}
		if err := u.applyOne(rid, row); err != nil {
			return false, err
		}
		u.count++
	}
	if err := u.Child.Close(); err != nil {
		return false, err
	}
	u.emitted = true
	return true, nil
}

func (u *Update) applyOne(rid value.RID, row expr.Tuple) error {
	var oldData []byte
	err := u.tx.VisitRecord(u.tbl, rid, func(data []byte) error {
		oldData = append([]byte(nil), data...)
		newValues := make([]value.Value, len(u.sets))
		for i, sc := range u.sets {
			v, err := sc.Value.GetValue(row, nil)
			if err != nil && !expr.IsRecordEOF(err) {
				return err
			}
			if expr.IsRecordEOF(err) {
				v = value.Null()
			}
			if v.IsNull() && !sc.Field.Nullable {
				return rc.New(rc.INVALID_ARGUMENT, "field %s is not nullable", sc.Field.Name)
			}
			if !v.IsNull() && v.Tag != sc.Field.Type {
				cast, castErr := value.CastTo(v, sc.Field.Type)
				if castErr != nil {
					return castErr
				}
				v = cast
			}
			newValues[i] = v
		}
		for i, sc := range u.sets {
			if err := record.SetField(data, u.targetMeta, sc.Field, newValues[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	newData, err := u.tbl.Get(rid)
	if err != nil {
		return err
	}
	for i := range u.changed {
		if !u.changed[i] {
			continue
		}
		if err := u.tbl.UpdateIndex(i, rid, oldData, newData); err != nil {
			return err
		}
	}
	return nil
}

func (u *Update) Current() (expr.Tuple, error) {
	if !u.emitted {
		return nil, fmt.Errorf("physical: update has no current row")
	}
	return &expr.ValueListTuple{
		Values: []value.Value{value.NewInt(int32(u.count))},
		Specs:  []expr.TupleCellSpec{expr.NewAliasSpec("rows_updated")},
	}, nil
}

func (u *Update) Close() error { return nil }

func (u *Update) SetOuterTuple(outer expr.Tuple) { u.Child.SetOuterTuple(outer) }
