package table

import (
	"log/slog"

	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/value"
)

// Index is the narrow slice of storage/index.BPlusTree a Table needs for
// per-insert maintenance, declared here (rather than importing
// storage/index) so this package stays a leaf the way txn.Table does for
// the transaction contract.
type Index interface {
	InsertEntry(key []value.Value, rid value.RID) error
	DeleteEntry(key []value.Value, rid value.RID) error
}

// Table wraps a RecordFile with its schema and attached B+tree indexes,
// implementing txn.Table so physical operators write through a Trx rather
// than touching storage directly. Vector indexes are not maintained here:
// spec.md §4.7 builds them once from a full table scan at creation time,
// not incrementally per insert.
type Table struct {
	Meta    *record.TableMeta
	file    *RecordFile
	indexes []Index // parallel to Meta.Indexes, same order
}

func Open(path string, meta *record.TableMeta) (*Table, error) {
	file, err := OpenRecordFile(path, meta.RecordSize)
	if err != nil {
		return nil, err
	}
	return &Table{Meta: meta, file: file}, nil
}

func (t *Table) Name() string { return t.Meta.Name }

func (t *Table) Close() error { return t.file.Close() }

// AttachIndex registers idx as the maintainer for Meta.Indexes[len(t.indexes)];
// callers must attach in the same order the schema lists its indexes.
func (t *Table) AttachIndex(idx Index) { t.indexes = append(t.indexes, idx) }

func (t *Table) extractKey(fields []record.FieldMeta, data []byte) []value.Value {
	keys := make([]value.Value, len(fields))
	for i, f := range fields {
		keys[i] = record.GetField(data, t.Meta, t.Meta.FieldByName(f.Name))
	}
	return keys
}

// InsertRecordData writes data then inserts into every attached index; a
// mid-way index failure rolls back the record and the indexes already
// touched (spec.md §4.7's best-effort rollback).
func (t *Table) InsertRecordData(data []byte) (value.RID, error) {
	rid, err := t.file.Insert(data)
	if err != nil {
		return value.RID{}, err
	}
	for i, idx := range t.indexes {
		key := t.extractKey(t.Meta.Indexes[i].Fields, data)
		if err := idx.InsertEntry(key, rid); err != nil {
			if rbErr := t.rollbackInsert(rid, data, i); rbErr != nil {
				slog.Error("table: rollback after index insert failure also failed", "table", t.Meta.Name, "rid", rid, "err", rbErr)
				return value.RID{}, rc.New(rc.INTERNAL, "table %s: unrecoverable insert after index failure on %s", t.Meta.Name, t.Meta.Indexes[i].Name)
			}
			return value.RID{}, err
		}
	}
	return rid, nil
}

// rollbackInsert removes rid's record and the index entries already
// inserted into Meta.Indexes[0:upTo], returning the first error hit so
// the caller can distinguish a clean rollback from an unrecoverable one.
func (t *Table) rollbackInsert(rid value.RID, data []byte, upTo int) error {
	var firstErr error
	for i := 0; i < upTo; i++ {
		key := t.extractKey(t.Meta.Indexes[i].Fields, data)
		if err := t.indexes[i].DeleteEntry(key, rid); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := t.file.Delete(rid); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// DeleteRecordData removes rid's index entries, then the record itself.
func (t *Table) DeleteRecordData(rid value.RID) error {
	data, err := t.file.Get(rid)
	if err != nil {
		return err
	}
	for i, idx := range t.indexes {
		key := t.extractKey(t.Meta.Indexes[i].Fields, data)
		if err := idx.DeleteEntry(key, rid); err != nil {
			return err
		}
	}
	return t.file.Delete(rid)
}

// VisitRecordData applies fn in place with no index maintenance of its
// own — per spec.md §4.7 that responsibility belongs to the caller (the
// Update physical operator diffs old/new and calls UpdateIndex itself).
func (t *Table) VisitRecordData(rid value.RID, fn func(data []byte) error) error {
	return t.file.Visit(rid, fn)
}

// UpdateIndex reconciles one index after a record changes in place:
// delete the old key's entry, insert the new one. Only called for
// indexes whose key fields actually changed.
func (t *Table) UpdateIndex(idxPos int, rid value.RID, oldData, newData []byte) error {
	idx := t.indexes[idxPos]
	oldKey := t.extractKey(t.Meta.Indexes[idxPos].Fields, oldData)
	newKey := t.extractKey(t.Meta.Indexes[idxPos].Fields, newData)
	if err := idx.DeleteEntry(oldKey, rid); err != nil {
		return err
	}
	return idx.InsertEntry(newKey, rid)
}

// IndexCount reports how many indexes are attached, used by Update to
// iterate UpdateIndex by position.
func (t *Table) IndexCount() int { return len(t.indexes) }

func (t *Table) Get(rid value.RID) ([]byte, error) { return t.file.Get(rid) }

func (t *Table) NewScanner() *Scanner { return t.file.NewScanner() }

// InsertValues is the make_record + insert convenience spec.md §4.7
// describes as one step: cast values to each column's type, build the
// record buffer, then InsertRecordData it.
func (t *Table) InsertValues(values []value.Value) (value.RID, error) {
	rec, err := record.MakeRecord(t.Meta, values)
	if err != nil {
		return value.RID{}, err
	}
	return t.InsertRecordData(rec.Data)
}
