package metafile

import (
	"os"
	"testing"

	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/sqltype"
)

func sampleMeta(name string) *record.TableMeta {
	m := &record.TableMeta{
		Name:       name,
		UserFields: []record.FieldMeta{{Name: "id", Type: sqltype.INTS, Len: 4}},
	}
	m.ComputeLayout()
	return m
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := sampleMeta("widgets")
	if err := Save(dir, m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists(dir, "widgets") {
		t.Fatal("Exists should report true after Save")
	}
	loaded, err := Load(dir, "widgets")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != m.Name || loaded.RecordSize != m.RecordSize {
		t.Fatalf("round trip mismatch: got %+v", loaded)
	}
	if len(loaded.UserFields) != 1 || loaded.UserFields[0].Name != "id" {
		t.Fatalf("fields not preserved: %+v", loaded.UserFields)
	}
}

func TestSaveLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	m := sampleMeta("gadgets")
	if err := Save(dir, m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(Path(dir, "gadgets") + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected no temp file after Save, stat err %v", err)
	}
	names, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != "gadgets" {
		t.Fatalf("expected exactly one table listed, got %v", names)
	}
}

func TestRemoveThenExists(t *testing.T) {
	dir := t.TempDir()
	m := sampleMeta("temp")
	if err := Save(dir, m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Remove(dir, "temp"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if Exists(dir, "temp") {
		t.Fatal("Exists should report false after Remove")
	}
}
