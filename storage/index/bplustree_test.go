package index

import (
	"path/filepath"
	"testing"

	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/value"
)

func TestInsertEntryRejectsDuplicateOnUniqueIndex(t *testing.T) {
	meta := record.IndexMeta{Name: "idx_id", Fields: []record.FieldMeta{{Name: "id"}}, IsUnique: true}
	tree, err := Create(filepath.Join(t.TempDir(), "t-idx.bplus"), meta)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := tree.InsertEntry([]value.Value{value.NewInt(1)}, value.RID{PageNo: 0, SlotNo: 0}); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if err := tree.InsertEntry([]value.Value{value.NewInt(1)}, value.RID{PageNo: 0, SlotNo: 1}); err == nil {
		t.Fatal("expected duplicate-key error on unique index")
	}
}

func TestRangeScanReturnsInclusiveBounds(t *testing.T) {
	meta := record.IndexMeta{Name: "idx_id", Fields: []record.FieldMeta{{Name: "id"}}}
	tree, err := Create(filepath.Join(t.TempDir(), "t-idx.bplus"), meta)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 1; i <= 5; i++ {
		if err := tree.InsertEntry([]value.Value{value.NewInt(int32(i))}, value.RID{PageNo: 0, SlotNo: int32(i)}); err != nil {
			t.Fatalf("InsertEntry: %v", err)
		}
	}

	sc := tree.NewScanner([]value.Value{value.NewInt(2)}, true, []value.Value{value.NewInt(4)}, true)
	var got []int32
	for {
		rid, ok := sc.Next()
		if !ok {
			break
		}
		got = append(got, rid.SlotNo)
	}
	if len(got) != 3 || got[0] != 2 || got[2] != 4 {
		t.Fatalf("got %v", got)
	}
}

func TestRangeScanExclusiveBoundsNarrow(t *testing.T) {
	meta := record.IndexMeta{Name: "idx_id", Fields: []record.FieldMeta{{Name: "id"}}}
	tree, err := Create(filepath.Join(t.TempDir(), "t-idx.bplus"), meta)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 1; i <= 5; i++ {
		tree.InsertEntry([]value.Value{value.NewInt(int32(i))}, value.RID{PageNo: 0, SlotNo: int32(i)})
	}

	sc := tree.NewScanner([]value.Value{value.NewInt(2)}, false, []value.Value{value.NewInt(4)}, false)
	count := 0
	for {
		rid, ok := sc.Next()
		if !ok {
			break
		}
		if rid.SlotNo != 3 {
			t.Fatalf("expected only slot 3 in the exclusive (2,4) range, got %d", rid.SlotNo)
		}
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 row, got %d", count)
	}
}

func TestDeleteEntryThenSyncAndReopenRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t-idx.bplus")
	meta := record.IndexMeta{Name: "idx_id", Fields: []record.FieldMeta{{Name: "id"}}}
	tree, err := Create(path, meta)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tree.InsertEntry([]value.Value{value.NewInt(1)}, value.RID{PageNo: 0, SlotNo: 0})
	tree.InsertEntry([]value.Value{value.NewInt(2)}, value.RID{PageNo: 0, SlotNo: 1})
	if err := tree.DeleteEntry([]value.Value{value.NewInt(1)}, value.RID{PageNo: 0, SlotNo: 0}); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := tree.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	reopened, err := Open(path, meta)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sc := reopened.NewScanner(nil, true, nil, true)
	var slots []int32
	for {
		rid, ok := sc.Next()
		if !ok {
			break
		}
		slots = append(slots, rid.SlotNo)
	}
	if len(slots) != 1 || slots[0] != 1 {
		t.Fatalf("expected only slot 1 to survive, got %v", slots)
	}
}
