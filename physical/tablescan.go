// Grounded on original_source/.../sql/operator/table_scan_physical_operator.cpp:
// a full scan over a table's record file, applying zero or more pushed-down
// predicates per row (AND semantics across Filters — an OR'd predicate the
// rewriter declined to push stays above this operator as a Predicate node)
// and tracking each row's RID/table provenance via expr.RowTuple.Record.RID
// so Update/Delete above can write back to the exact slot they read.
package physical

import (
	"fmt"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/storage/table"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

// TableScan pulls every row of a base table, materializing TEXTS/VECTORS
// columns through the table's blob resolver, and skipping any row that
// fails Filters (the scan-local pushed predicates, ANDed together).
type TableScan struct {
	Engine  *Engine
	Table   *record.TableMeta
	Alias   string
	Filters []*expr.Expr

	tbl     *table.Table
	blobs   expr.BlobResolver
	scanner *table.Scanner
	outer   expr.Tuple
	cur     *expr.RowTuple
}

func NewTableScan(e *Engine, meta *record.TableMeta, alias string, filters []*expr.Expr) *TableScan {
	return &TableScan{Engine: e, Table: meta, Alias: alias, Filters: filters}
}

func (s *TableScan) Open(tx txn.Trx) error {
	tbl, err := s.Engine.Table(s.Table)
	if err != nil {
		return err
	}
	blobs, err := s.Engine.Blobs(s.Table)
	if err != nil {
		return err
	}
	s.tbl = tbl
	s.blobs = blobs
	s.scanner = tbl.NewScanner()
	return nil
}

func (s *TableScan) Next() (bool, error) {
	for {
		rid, data, ok, err := s.scanner.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			s.cur = nil
			return false, nil
		}
		rec := record.Record{RID: rid, Data: data}
		row := expr.NewRowTuple(s.Table, s.Alias, rec, s.blobs)
		matched, err := s.evalFilters(row)
		if err != nil {
			return false, err
		}
		if !matched {
			continue
		}
		s.cur = row
		return true, nil
	}
}

func (s *TableScan) evalFilters(row *expr.RowTuple) (bool, error) {
	for _, f := range s.Filters {
		v, err := f.GetValue(row, nil)
		if err != nil {
			return false, fmt.Errorf("physical: table scan filter on %s: %w", s.Table.Name, err)
		}
		if v.IsNull() || !v.Bool() {
			return false, nil
		}
	}
	return true, nil
}

func (s *TableScan) Current() (expr.Tuple, error) {
	if s.cur == nil {
		return nil, fmt.Errorf("physical: table scan has no current row")
	}
	return s.cur, nil
}

func (s *TableScan) Close() error { return nil }

func (s *TableScan) SetOuterTuple(outer expr.Tuple) { s.outer = outer }

// ViewScan runs a view's stored query as a nested physical plan and
// re-exposes its output rows under the view's own name/alias and column
// names, matching positionally against View.Columns — the original's
// equivalent of opening a SelectPhysicalOperator in place of a table scan
// when the FROM-clause relation is a view.
type ViewScan struct {
	ViewName string
	Alias    string
	Columns  []record.FieldMeta
	Inner    Operator

	cur *viewTuple
}

func NewViewScan(viewName, alias string, columns []record.FieldMeta, inner Operator) *ViewScan {
	return &ViewScan{ViewName: viewName, Alias: alias, Columns: columns, Inner: inner}
}

func (s *ViewScan) Open(tx txn.Trx) error { return s.Inner.Open(tx) }

func (s *ViewScan) Next() (bool, error) {
	ok, err := s.Inner.Next()
	if err != nil || !ok {
		s.cur = nil
		return ok, err
	}
	inner, err := s.Inner.Current()
	if err != nil {
		return false, err
	}
	s.cur = &viewTuple{view: s, inner: inner}
	return true, nil
}

func (s *ViewScan) Current() (expr.Tuple, error) {
	if s.cur == nil {
		return nil, fmt.Errorf("physical: view scan %s has no current row", s.ViewName)
	}
	return s.cur, nil
}

func (s *ViewScan) Close() error { return s.Inner.Close() }

func (s *ViewScan) SetOuterTuple(outer expr.Tuple) { s.Inner.SetOuterTuple(outer) }

// viewTuple renames the inner query's output cells to the view's own
// column identity, positionally.
type viewTuple struct {
	view  *ViewScan
	inner expr.Tuple
}

func (t *viewTuple) CellNum() int { return t.inner.CellNum() }

func (t *viewTuple) CellAt(i int) (value.Value, error) { return t.inner.CellAt(i) }

func (t *viewTuple) SpecAt(i int) (expr.TupleCellSpec, error) {
	if i < 0 || i >= len(t.view.Columns) {
		return expr.TupleCellSpec{}, fmt.Errorf("physical: view column index %d out of range", i)
	}
	return expr.TupleCellSpec{TableName: t.view.ViewName, FieldName: t.view.Columns[i].Name, TableAlias: t.view.Alias}, nil
}

// FindCell matches by view column name/alias first (the identity callers
// above this scan see), falling back to the inner tuple's own spec space
// so an expression that still references the base table directly (a
// non-updatable view's WHERE clause referencing an unrenamed column) still
// resolves.
func (t *viewTuple) FindCell(spec expr.TupleCellSpec) (value.Value, error) {
	for i := range t.view.Columns {
		vs, _ := t.SpecAt(i)
		if specMatchesView(vs, spec) {
			return t.CellAt(i)
		}
	}
	return t.inner.FindCell(spec)
}

func specMatchesView(have, want expr.TupleCellSpec) bool {
	if want.Alias != "" {
		return have.Alias == want.Alias || have.FieldName == want.Alias
	}
	if want.TableAlias != "" && have.TableAlias != "" {
		return have.TableAlias == want.TableAlias && have.FieldName == want.FieldName
	}
	return have.TableName == want.TableName && have.FieldName == want.FieldName
}
