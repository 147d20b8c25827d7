package txn

import (
	"testing"

	"github.com/minidb/miniql/value"
)

type fakeTable struct {
	name    string
	records map[int32][]byte
	nextRID int32
}

func newFakeTable(name string) *fakeTable {
	return &fakeTable{name: name, records: map[int32][]byte{}}
}

func (f *fakeTable) Name() string { return f.name }

func (f *fakeTable) InsertRecordData(data []byte) (value.RID, error) {
	f.nextRID++
	f.records[f.nextRID] = append([]byte(nil), data...)
	return value.RID{SlotNo: f.nextRID}, nil
}

func (f *fakeTable) DeleteRecordData(rid value.RID) error {
	delete(f.records, rid.SlotNo)
	return nil
}

func (f *fakeTable) VisitRecordData(rid value.RID, fn func(data []byte) error) error {
	data := f.records[rid.SlotNo]
	return fn(data)
}

func TestDryRunTrxDoesNotPersistInsert(t *testing.T) {
	table := newFakeTable("t")
	real := NewSimpleTrx()
	dry := NewDryRunTrx(real)

	if _, err := dry.InsertRecord(table, []byte("row")); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if len(table.records) != 0 {
		t.Fatalf("dry run insert should not persist, got %d records", len(table.records))
	}
	if len(dry.Actions) != 1 || dry.Actions[0].Kind != "insert" {
		t.Fatalf("expected one recorded insert action, got %+v", dry.Actions)
	}
}

func TestDryRunTrxVisitDoesNotMutateUnderlyingBytes(t *testing.T) {
	table := newFakeTable("t")
	rid, _ := table.InsertRecordData([]byte{1, 2, 3})

	dry := NewDryRunTrx(NewSimpleTrx())
	err := dry.VisitRecord(table, rid, func(data []byte) error {
		data[0] = 99
		return nil
	})
	if err != nil {
		t.Fatalf("VisitRecord: %v", err)
	}
	if table.records[rid.SlotNo][0] != 1 {
		t.Fatalf("dry run visit mutated underlying storage: %v", table.records[rid.SlotNo])
	}
}

func TestSimpleTrxPersistsInsert(t *testing.T) {
	table := newFakeTable("t")
	real := NewSimpleTrx()
	if _, err := real.InsertRecord(table, []byte("row")); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if len(table.records) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(table.records))
	}
}

func TestSimpleTrxIDIsStableAndUniquePerInstance(t *testing.T) {
	a := NewSimpleTrx()
	b := NewSimpleTrx()
	if a.ID() == "" {
		t.Fatalf("expected a non-empty transaction id")
	}
	if a.ID() != a.ID() {
		t.Fatalf("expected ID() to be stable across calls")
	}
	if a.ID() == b.ID() {
		t.Fatalf("expected distinct transactions to mint distinct ids")
	}
}

func TestDryRunTrxIDDelegatesToWrapped(t *testing.T) {
	real := NewSimpleTrx()
	dry := NewDryRunTrx(real)
	if dry.ID() != real.ID() {
		t.Fatalf("expected dry run ID to delegate to the wrapped transaction")
	}
}
