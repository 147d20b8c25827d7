// Grounded on original_source/.../sql/operator/index_scan_physical_operator.cpp:
// pull RIDs out of a B+tree range scan, then fetch and filter each record
// the same way TableScan does — the only difference from a full scan is
// where the RID stream comes from.
package physical

import (
	"fmt"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/storage/index"
	"github.com/minidb/miniql/storage/table"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

// IndexScan pulls RIDs from a B+tree range, one of [leftKeys, rightKeys]
// inclusive per side, fetching and filtering each referenced record.
type IndexScan struct {
	Engine         *Engine
	Table          *record.TableMeta
	Alias          string
	IndexName      string
	LeftKeys       []value.Value
	LeftInclusive  bool
	RightKeys      []value.Value
	RightInclusive bool
	Filters        []*expr.Expr

	tbl     *table.Table
	blobs   expr.BlobResolver
	tree    *index.BPlusTree
	scanner *index.Scanner
	outer   expr.Tuple
	cur     *expr.RowTuple
}

func NewIndexScan(e *Engine, meta *record.TableMeta, alias, indexName string, left []value.Value, leftIncl bool, right []value.Value, rightIncl bool, filters []*expr.Expr) *IndexScan {
	return &IndexScan{
		Engine: e, Table: meta, Alias: alias, IndexName: indexName,
		LeftKeys: left, LeftInclusive: leftIncl, RightKeys: right, RightInclusive: rightIncl,
		Filters: filters,
	}
}

func (s *IndexScan) Open(tx txn.Trx) error {
	tbl, err := s.Engine.Table(s.Table)
	if err != nil {
		return err
	}
	blobs, err := s.Engine.Blobs(s.Table)
	if err != nil {
		return err
	}
	tree, err := s.Engine.IndexTree(s.Table, s.IndexName)
	if err != nil {
		return err
	}
	s.tbl = tbl
	s.blobs = blobs
	s.tree = tree
	s.scanner = tree.NewScanner(s.LeftKeys, s.LeftInclusive, s.RightKeys, s.RightInclusive)
	return nil
}

func (s *IndexScan) Next() (bool, error) {
	for {
		rid, ok := s.scanner.Next()
		if !ok {
			s.cur = nil
			return false, nil
		}
		data, err := s.tbl.Get(rid)
		if err != nil {
			return false, err
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

func (s *IndexScan) evalFilters(row *expr.RowTuple) (bool, error) {
	for _, f := range s.Filters {
		v, err := f.GetValue(row, nil)
		if err != nil {
			return false, fmt.Errorf("physical: index scan filter on %s: %w", s.Table.Name, err)
		}
		if v.IsNull() || !v.Bool() {
			return false, nil
		}
	}
	return true, nil
}

func (s *IndexScan) Current() (expr.Tuple, error) {
	if s.cur == nil {
		return nil, fmt.Errorf("physical: index scan has no current row")
	}
	return s.cur, nil
}

func (s *IndexScan) Close() error { return nil }

func (s *IndexScan) SetOuterTuple(outer expr.Tuple) { s.outer = outer }
