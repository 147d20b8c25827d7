// Package index implements spec.md §4.7's B+tree index: a multi-column
// key with a KEY_NULL_BYTE prefix per part, unique/non-unique flavors, and
// a range scanner. Grounded on
// original_source/.../storage/index/bplus_tree_index.{h,cpp} for the
// create/open/insert_entry/delete_entry/create_scanner API shape.
//
// The original backs this with a disk-resident paged B+tree
// (storage/index/bplus_tree.cpp). Reproducing that page format is out of
// proportion to what this module needs it for (the same external
// contract, exercised through create/insert/delete/scan); this
// implementation keeps the full key set sorted in memory — see
// DESIGN.md — and persists it as a flat sorted-entries file, rewritten
// on every mutation's Sync the way the original calls down to its
// buffer-pooled pager on each structural change.
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/sqltype"
	"github.com/minidb/miniql/value"
)

// keyNullByte is spec.md's KEY_NULL_BYTE: a 4-byte prefix per key part
// marking whether that column's value is SQL NULL, so NULLs always sort
// before any non-NULL value of the same column regardless of type.
const keyNullByte = 4

type entry struct {
	key []byte
	rid value.RID
}

// BPlusTree is one index's in-memory sorted key set plus its backing
// file. Fields map directly onto the Meta's key column list used to
// encode/decode keys from raw record values.
type BPlusTree struct {
	path    string
	Meta    record.IndexMeta
	entries []entry // kept sorted by key, ties broken by RID
	unique  bool
}

// Create builds a fresh, empty index file at path.
func Create(path string, meta record.IndexMeta) (*BPlusTree, error) {
	t := &BPlusTree{path: path, Meta: meta, unique: meta.IsUnique}
	if err := t.Sync(); err != nil {
		return nil, err
	}
	return t, nil
}

// Open loads an existing index file, or returns Create's empty result if
// none exists yet (matches a freshly attached index with no entries).
func Open(path string, meta record.IndexMeta) (*BPlusTree, error) {
	t := &BPlusTree{path: path, Meta: meta, unique: meta.IsUnique}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("index: read %s: %w", path, err)
	}
	if err := t.decode(data); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *BPlusTree) Close() error { return t.Sync() }

// EncodeKey builds the composite sort key for one row's index column
// values: keyNullByte marker + raw bytes per part, in index-column order.
func EncodeKey(values []value.Value) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		marker := make([]byte, keyNullByte)
		if v.IsNull() {
			binary.BigEndian.PutUint32(marker, 0)
			buf.Write(marker)
			continue
		}
		binary.BigEndian.PutUint32(marker, 1)
		buf.Write(marker)
		buf.Write(encodeSortable(v))
	}
	return buf.Bytes()
}

// encodeSortable renders v so that byte-wise comparison matches value
// order: integers/floats as big-endian sign-adjusted fixed width, text as
// raw bytes (already byte-comparable for the column lengths this module
// uses).
func encodeSortable(v value.Value) []byte {
	switch v.Tag {
	case sqltype.INTS, sqltype.DATES:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(v.Int())^0x80000000)
		return b
	case sqltype.FLOATS:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, floatBits(v.Float()))
		return b
	default:
		return v.Chars()
	}
}

// floatBits maps a float32's bit pattern to one that sorts the same way
// as the float's numeric order under plain byte comparison: positives get
// their sign bit set, negatives get every bit flipped.
func floatBits(f float32) uint32 {
	bits := math.Float32bits(f)
	if bits&0x80000000 != 0 {
		return ^bits
	}
	return bits | 0x80000000
}

func (t *BPlusTree) find(key []byte, rid value.RID) int {
	return sort.Search(len(t.entries), func(i int) bool {
		c := bytes.Compare(t.entries[i].key, key)
		if c != 0 {
			return c >= 0
		}
		return ridCompare(t.entries[i].rid, rid) >= 0
	})
}

func ridCompare(a, b value.RID) int {
	if a.PageNo != b.PageNo {
		if a.PageNo < b.PageNo {
			return -1
		}
		return 1
	}
	if a.SlotNo != b.SlotNo {
		if a.SlotNo < b.SlotNo {
			return -1
		}
		return 1
	}
	return 0
}

// InsertEntry adds (key, rid); a unique index refuses a key that already
// has a live entry.
func (t *BPlusTree) InsertEntry(key []value.Value, rid value.RID) error {
	enc := EncodeKey(key)
	if t.unique {
		i := sort.Search(len(t.entries), func(i int) bool { return bytes.Compare(t.entries[i].key, enc) >= 0 })
		if i < len(t.entries) && bytes.Equal(t.entries[i].key, enc) {
			return rc.New(rc.RECORD_DUPLICATE_KEY, "index %s: duplicate key", t.Meta.Name)
		}
	}
	i := t.find(enc, rid)
	t.entries = append(t.entries, entry{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = entry{key: enc, rid: rid}
	return nil
}

// DeleteEntry removes the (key, rid) pair, if present.
func (t *BPlusTree) DeleteEntry(key []value.Value, rid value.RID) error {
	enc := EncodeKey(key)
	i := t.find(enc, rid)
	if i < len(t.entries) && bytes.Equal(t.entries[i].key, enc) && ridCompare(t.entries[i].rid, rid) == 0 {
		t.entries = append(t.entries[:i], t.entries[i+1:]...)
		return nil
	}
	return rc.New(rc.NOT_EXIST, "index %s: entry not found for rid %+v", t.Meta.Name, rid)
}

// Sync persists the current entry set; a structural change in the
// original triggers a write through its buffer pool, here it's a full
// rewrite of the flat sorted file.
func (t *BPlusTree) Sync() error {
	data := t.encode()
	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("index: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("index: rename %s: %w", t.path, err)
	}
	return nil
}

func (t *BPlusTree) encode() []byte {
	var buf bytes.Buffer
	countBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(countBuf, uint32(len(t.entries)))
	buf.Write(countBuf)
	for _, e := range t.entries {
		lenBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(lenBuf, uint32(len(e.key)))
		buf.Write(lenBuf)
		buf.Write(e.key)
		ridBuf := make([]byte, 12)
		binary.BigEndian.PutUint64(ridBuf[0:8], uint64(e.rid.PageNo))
		binary.BigEndian.PutUint32(ridBuf[8:12], uint32(e.rid.SlotNo))
		buf.Write(ridBuf)
	}
	return buf.Bytes()
}

func (t *BPlusTree) decode(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("index: truncated file")
	}
	count := binary.BigEndian.Uint32(data[0:4])
	off := 4
	entries := make([]entry, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+4 > len(data) {
			return fmt.Errorf("index: truncated entry header")
		}
		klen := int(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
		if off+klen+12 > len(data) {
			return fmt.Errorf("index: truncated entry body")
		}
		key := append([]byte(nil), data[off:off+klen]...)
		off += klen
		rid := value.RID{
			PageNo: int64(binary.BigEndian.Uint64(data[off : off+8])),
			SlotNo: int32(binary.BigEndian.Uint32(data[off+8 : off+12])),
		}
		off += 12
		entries = append(entries, entry{key: key, rid: rid})
	}
	t.entries = entries
	return nil
}
