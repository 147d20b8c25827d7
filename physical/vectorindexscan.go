// Grounded on original_source/.../sql/operator/vector_index_scan_physical_operator.cpp:
// run one IVF query against the index and stream back the topK RIDs'
// records, nearest first.
package physical

import (
	"fmt"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/storage/table"
	"github.com/minidb/miniql/storage/vector"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

// VectorIndexScan answers a nearest-neighbor query by consulting an IVF
// index instead of scoring every row, the fusion spec.md §4.5 describes
// for `Project(limit=k) -> OrderBy(VectorDistance) -> TableGet`.
type VectorIndexScan struct {
	Engine    *Engine
	Table     *record.TableMeta
	Alias     string
	IndexName string
	Query     []float32
	TopK      int

	tbl   *table.Table
	blobs expr.BlobResolver
	rids  []value.RID
	pos   int
	outer expr.Tuple
	cur   *expr.RowTuple
}

func NewVectorIndexScan(e *Engine, meta *record.TableMeta, alias, indexName string, query []float32, topK int) *VectorIndexScan {
	return &VectorIndexScan{Engine: e, Table: meta, Alias: alias, IndexName: indexName, Query: query, TopK: topK}
}

func (s *VectorIndexScan) Open(tx txn.Trx) error {
	tbl, err := s.Engine.Table(s.Table)
	if err != nil {
		return err
	}
	blobs, err := s.Engine.Blobs(s.Table)
	if err != nil {
		return err
	}
	vi, err := s.Engine.VectorIndex(s.Table, s.IndexName)
	if err != nil {
		return err
	}
	probes := 1
	if vim := findVectorIndexMetaByName(s.Table, s.IndexName); vim != nil {
		probes = vim.Probes
	}

	rids, err := vi.Query(s.Query, probes, s.TopK)
	if err != nil {
		return err
	}
	s.tbl = tbl
	s.blobs = blobs
	s.rids = rids
	s.pos = 0
	return nil
}

func findVectorIndexMetaByName(meta *record.TableMeta, name string) *record.VectorIndexMeta {
	for i := range meta.VectorIndexes {
		if meta.VectorIndexes[i].Name == name {
			return &meta.VectorIndexes[i]
		}
	}
	return nil
}

func (s *VectorIndexScan) Next() (bool, error) {
	if s.pos >= len(s.rids) {
		s.cur = nil
		return false, nil
	}
	rid := s.rids[s.pos]
	s.pos++
	data, err := s.tbl.Get(rid)
	if err != nil {
		return false, err
	}
	rec := record.Record{RID: rid, Data: data}
	s.cur = expr.NewRowTuple(s.Table, s.Alias, rec, s.blobs)
	return true, nil
}

func (s *VectorIndexScan) Current() (expr.Tuple, error) {
	if s.cur == nil {
		return nil, fmt.Errorf("physical: vector index scan has no current row")
	}
	return s.cur, nil
}

func (s *VectorIndexScan) Close() error { return nil }

func (s *VectorIndexScan) SetOuterTuple(outer expr.Tuple) { s.outer = outer }
