// DDL execution: the index/vector-index build-from-scan orchestration the
// original's Table::create_index/create_vector_index own directly
// (original_source/.../storage/table/table.cpp,
// sql/executor/create_vector_index_executor.cpp). This module keeps
// storage/table.Table schema-primitive, so Engine is where schema (via
// Catalog) and live storage handles meet to run these one-shot builds.
package physical

import (
	"os"

	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/storage/index"
	"github.com/minidb/miniql/storage/vector"
	"github.com/minidb/miniql/value"
)

// CreateTable persists the new table's meta, creates its (empty) data
// file, and opens whatever blob files its schema requires, through the
// same openTableHandles path a later scan or DDL statement would use, so
// a table created with a TEXTS/VECTORS column is immediately ready to
// take a row with one.
func (e *Engine) CreateTable(meta *record.TableMeta) error {
	if err := e.Catalog.CreateTable(meta); err != nil {
		return err
	}
	_, err := e.openTableHandles(meta)
	return err
}

// CreateIndex builds a B+tree by scanning the table's existing rows, then
// attaches it to the live table and persists the schema change.
func (e *Engine) CreateIndex(meta *record.TableMeta, im record.IndexMeta) error {
	ot, err := e.openTableHandles(meta)
	if err != nil {
		return err
	}

	meta.Indexes = append(meta.Indexes, im)
	bp, err := index.Open(e.bplusPath(meta.Name, im.Name), im)
	if err != nil {
		return err
	}

	scanner := ot.tbl.NewScanner()
	for {
		rid, data, ok, err := scanner.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		key := make([]value.Value, len(im.Fields))
		for i, f := range im.Fields {
			key[i] = record.GetField(data, meta, meta.FieldByName(f.Name))
		}
		if err := bp.InsertEntry(key, rid); err != nil {
			return err
		}
	}

	e.mu.Lock()
	ot.bplus[im.Name] = bp
	e.mu.Unlock()
	ot.tbl.AttachIndex(bp)
	return e.Catalog.PersistIndexChange(meta)
}

// CreateVectorIndex builds an IVF-flat index by scanning the table's
// existing rows and materializing each row's vector column through the
// table's blob resolver, then persists the schema change.
func (e *Engine) CreateVectorIndex(meta *record.TableMeta, vim record.VectorIndexMeta) error {
	ot, err := e.openTableHandles(meta)
	if err != nil {
		return err
	}

	meta.VectorIndexes = append(meta.VectorIndexes, vim)
	scanner := ot.tbl.NewScanner()
	next := func() (vector.Source, bool, error) {
		rid, data, ok, err := scanner.Next()
		if err != nil || !ok {
			return vector.Source{}, ok, err
		}
		v := record.GetField(data, meta, meta.FieldByName(vim.Field.Name))
		ref := v.Vector()
		floats, err := ot.LoadVector(ref.Offset, ref.Dim)
		if err != nil {
			return vector.Source{}, false, err
		}
		return vector.Source{RID: rid, Vector: floats}, true, nil
	}

	vi, err := vector.Build(e.vecIdxPath(meta.Name, vim.Name), e.vecAuxPath(meta.Name, vim.Name), vim.Distance, vim.Field.VectorDim, vim.Lists, next)
	if err != nil {
		return err
	}

	e.mu.Lock()
	ot.vecIdx[vim.Name] = vi
	e.mu.Unlock()
	return e.Catalog.PersistIndexChange(meta)
}

// DropTable closes and removes every on-disk file belonging to a table,
// then drops its schema entry.
func (e *Engine) DropTable(meta *record.TableMeta) error {
	e.mu.Lock()
	if ot, ok := e.open[meta.Name]; ok {
		ot.tbl.Close()
		for _, bp := range ot.bplus {
			bp.Close()
		}
		for _, vi := range ot.vecIdx {
			vi.Close()
		}
		if ot.textFile != nil {
			ot.textFile.Close()
		}
		if ot.vecFile != nil {
			ot.vecFile.Close()
		}
		delete(e.open, meta.Name)
	}
	e.mu.Unlock()

	os.Remove(e.dataPath(meta.Name))
	os.Remove(e.textPath(meta.Name))
	os.Remove(e.vecPath(meta.Name))
	for _, im := range meta.Indexes {
		os.Remove(e.bplusPath(meta.Name, im.Name))
	}
	for _, vim := range meta.VectorIndexes {
		os.Remove(e.vecIdxPath(meta.Name, vim.Name))
		os.Remove(e.vecAuxPath(meta.Name, vim.Name))
	}
	return e.Catalog.DropTable(meta.Name)
}

// DropIndex removes one B+tree index's on-disk file and schema entry,
// closing and detaching its live handle first.
func (e *Engine) DropIndex(meta *record.TableMeta, indexName string) error {
	e.mu.Lock()
	if ot, ok := e.open[meta.Name]; ok {
		if bp, ok := ot.bplus[indexName]; ok {
			bp.Close()
			delete(ot.bplus, indexName)
		}
		// The live Table still carries the old index in its attached-index
		// slice; close/reopen on next access picks up the trimmed meta.
		ot.tbl.Close()
		for _, other := range ot.bplus {
			other.Close()
		}
		for _, vi := range ot.vecIdx {
			vi.Close()
		}
		if ot.textFile != nil {
			ot.textFile.Close()
		}
		if ot.vecFile != nil {
			ot.vecFile.Close()
		}
		delete(e.open, meta.Name)
	}
	e.mu.Unlock()

	kept := meta.Indexes[:0]
	for _, im := range meta.Indexes {
		if im.Name == indexName {
			continue
		}
		kept = append(kept, im)
	}
	meta.Indexes = kept
	os.Remove(e.bplusPath(meta.Name, indexName))
	return e.Catalog.PersistIndexChange(meta)
}
