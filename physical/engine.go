// Package physical implements spec.md §4.5's physical planner and §4.6's
// pull-protocol physical operators, plus the §4.7 access-method wiring
// that opens a table's live storage handles (record file, B+tree indexes,
// vector indexes, blob files) from its catalog.TableMeta. Grounded on
// original_source/.../sql/optimizer/physical_plan_generator.cpp and the
// sql/operator/*.cpp family; Explain printing follows the teacher's
// `k0kubun/pp` usage (database/mysql/parser.go).
package physical

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/sqltype"
	"github.com/minidb/miniql/storage/blob"
	"github.com/minidb/miniql/storage/index"
	"github.com/minidb/miniql/storage/table"
	"github.com/minidb/miniql/storage/vector"
	"github.com/minidb/miniql/value"
)

// openTable bundles one table's live handles: the record file/index
// wrapper, its attached B+tree indexes (keyed by name for IndexScan
// lookup), its vector indexes, and its blob files. One instance is cached
// per table name until DropTable or DropIndex evicts it.
type openTable struct {
	tbl      *table.Table
	bplus    map[string]*index.BPlusTree
	vecIdx   map[string]*vector.Index
	textFile *blob.TextFile
	vecFile  *blob.VectorFile
}

func (ot *openTable) LoadText(offset, length uint64) ([]byte, error) {
	if ot.textFile == nil {
		return nil, fmt.Errorf("physical: table has no text column to resolve offset %d", offset)
	}
	return ot.textFile.Read(offset, length)
}

func (ot *openTable) LoadVector(offset, dim uint64) ([]float32, error) {
	if ot.vecFile == nil {
		return nil, fmt.Errorf("physical: table has no vector column to resolve offset %d", offset)
	}
	return ot.vecFile.Read(offset, dim)
}

// Engine is the live counterpart to catalog.Catalog: where the catalog
// tracks schema, Engine tracks open file handles and runs the DDL actions
// (create table/index/vector index, drop table/index) that need both.
type Engine struct {
	Catalog *catalog.Catalog
	BaseDir string

	mu   sync.Mutex
	open map[string]*openTable
}

func NewEngine(cat *catalog.Catalog, baseDir string) *Engine {
	return &Engine{Catalog: cat, BaseDir: baseDir, open: make(map[string]*openTable)}
}

func (e *Engine) dataPath(name string) string { return filepath.Join(e.BaseDir, name+".data") }
func (e *Engine) textPath(name string) string { return filepath.Join(e.BaseDir, name+".text") }
func (e *Engine) vecPath(name string) string  { return filepath.Join(e.BaseDir, name+".vec") }
func (e *Engine) bplusPath(name, idx string) string {
	return filepath.Join(e.BaseDir, name+"-"+idx+".bplus")
}
func (e *Engine) vecIdxPath(name, idx string) string {
	return filepath.Join(e.BaseDir, name+"-"+idx+".vecidx")
}
func (e *Engine) vecAuxPath(name, idx string) string {
	return filepath.Join(e.BaseDir, name+"-"+idx+".aux")
}

// openTableHandles opens (or returns the cached) live handle set for a
// table meta, attaching every index and blob file the schema lists.
func (e *Engine) openTableHandles(meta *record.TableMeta) (*openTable, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ot, ok := e.open[meta.Name]; ok {
		return ot, nil
	}

	tbl, err := table.Open(e.dataPath(meta.Name), meta)
	if err != nil {
		return nil, err
	}
	ot := &openTable{tbl: tbl, bplus: make(map[string]*index.BPlusTree), vecIdx: make(map[string]*vector.Index)}

	for _, im := range meta.Indexes {
		bp, err := index.Open(e.bplusPath(meta.Name, im.Name), im)
		if err != nil {
			return nil, err
		}
		ot.bplus[im.Name] = bp
		tbl.AttachIndex(bp)
	}
	for _, vim := range meta.VectorIndexes {
		vi, err := vector.Open(e.vecIdxPath(meta.Name, vim.Name), e.vecAuxPath(meta.Name, vim.Name))
		if err != nil {
			return nil, fmt.Errorf("physical: open vector index %s: %w", vim.Name, err)
		}
		ot.vecIdx[vim.Name] = vi
	}
	if hasFieldOfType(meta, sqltype.TEXTS) {
		tf, err := blob.OpenTextFile(e.textPath(meta.Name))
		if err != nil {
			return nil, err
		}
		ot.textFile = tf
	}
	if hasFieldOfType(meta, sqltype.VECTORS) {
		vf, err := blob.OpenVectorFile(e.vecPath(meta.Name))
		if err != nil {
			return nil, err
		}
		ot.vecFile = vf
	}

	e.open[meta.Name] = ot
	return ot, nil
}

func hasFieldOfType(meta *record.TableMeta, t sqltype.AttrType) bool {
	for _, f := range meta.UserFields {
		if f.Type == t {
			return true
		}
	}
	return false
}

// Table returns the live storage.Table for a resolved TableMeta.
func (e *Engine) Table(meta *record.TableMeta) (*table.Table, error) {
	ot, err := e.openTableHandles(meta)
	if err != nil {
		return nil, err
	}
	return ot.tbl, nil
}

// Blobs returns the BlobResolver (text/vector materializer) for a table,
// wired into every RowTuple TableScan/IndexScan produce.
func (e *Engine) Blobs(meta *record.TableMeta) (*openTable, error) {
	return e.openTableHandles(meta)
}

// AppendText materializes a heap-owned TEXTS value (one produced by
// value.NewText, with no blob offset of its own) into meta's text blob
// file and returns the ref a record's fixed-size slot stores. Callers
// that already hold a ref (value.NewTextRef) skip this and write the
// value straight through.
func (e *Engine) AppendText(meta *record.TableMeta, b []byte) (value.Value, error) {
	ot, err := e.openTableHandles(meta)
	if err != nil {
		return value.Value{}, err
	}
	if ot.textFile == nil {
		return value.Value{}, fmt.Errorf("physical: table %s has no text column", meta.Name)
	}
	offset, length, err := ot.textFile.Append(b)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewTextRef(offset, length), nil
}

// AppendVector materializes a heap-owned VECTORS value (one produced by
// value.NewVector, with no blob offset of its own) into meta's vector
// blob file and returns the ref a record's fixed-size slot stores.
func (e *Engine) AppendVector(meta *record.TableMeta, floats []float32) (value.Value, error) {
	ot, err := e.openTableHandles(meta)
	if err != nil {
		return value.Value{}, err
	}
	if ot.vecFile == nil {
		return value.Value{}, fmt.Errorf("physical: table %s has no vector column", meta.Name)
	}
	offset, dim, err := ot.vecFile.Append(floats)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewVectorRef(offset, dim), nil
}

// IndexTree returns the live B+tree backing one index, used by IndexScan.
func (e *Engine) IndexTree(meta *record.TableMeta, indexName string) (*index.BPlusTree, error) {
	ot, err := e.openTableHandles(meta)
	if err != nil {
		return nil, err
	}
	bp, ok := ot.bplus[indexName]
	if !ok {
		return nil, fmt.Errorf("physical: index %s not attached to table %s", indexName, meta.Name)
	}
	return bp, nil
}

// VectorIndex returns the live IVF index backing one vector index, used by
// VectorIndexScan.
func (e *Engine) VectorIndex(meta *record.TableMeta, indexName string) (*vector.Index, error) {
	ot, err := e.openTableHandles(meta)
	if err != nil {
		return nil, err
	}
	vi, ok := ot.vecIdx[indexName]
	if !ok {
		return nil, fmt.Errorf("physical: vector index %s not attached to table %s", indexName, meta.Name)
	}
	return vi, nil
}

// Close flushes and closes every open table's handles.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var firstErr error
	for _, ot := range e.open {
		if err := ot.tbl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		for _, bp := range ot.bplus {
			if err := bp.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		for _, vi := range ot.vecIdx {
			if err := vi.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if ot.textFile != nil {
			if err := ot.textFile.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if ot.vecFile != nil {
			if err := ot.vecFile.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
