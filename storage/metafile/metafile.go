// Package metafile implements spec.md §4.7's crash-consistent DDL:
// schema changes are written to a temp file, fsynced, then renamed over the
// canonical meta file so a reader never observes a half-written schema.
// The persistence shape (a small file-backed store sitting in front of the
// real on-disk format) is grounded on the teacher's
// database/file.FileDatabase, generalized from "read one file" to
// "atomically read/write a JSON document".
package metafile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minidb/miniql/record"
)

// Path returns the canonical meta file path for a table under baseDir,
// matching spec.md §5's `<table>.table` naming.
func Path(baseDir, tableName string) string {
	return filepath.Join(baseDir, tableName+".table")
}

// Load reads and unmarshals a table's meta file.
func Load(baseDir, tableName string) (*record.TableMeta, error) {
	data, err := os.ReadFile(Path(baseDir, tableName))
	if err != nil {
		return nil, fmt.Errorf("metafile: read %s: %w", tableName, err)
	}
	var m record.TableMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("metafile: decode %s: %w", tableName, err)
	}
	return &m, nil
}

// Save writes m to a temp file beside the canonical path, fsyncs it, then
// renames it into place. The rename is atomic on POSIX filesystems, so a
// crash between the write and the rename leaves the old meta file intact.
func Save(baseDir string, m *record.TableMeta) error {
	final := Path(baseDir, m.Name)
	tmp := final + ".tmp"

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("metafile: encode %s: %w", m.Name, err)
	}

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("metafile: create temp for %s: %w", m.Name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("metafile: write temp for %s: %w", m.Name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("metafile: fsync temp for %s: %w", m.Name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("metafile: close temp for %s: %w", m.Name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("metafile: rename into place for %s: %w", m.Name, err)
	}
	return nil
}

// Exists reports whether a table's meta file is already present.
func Exists(baseDir, tableName string) bool {
	_, err := os.Stat(Path(baseDir, tableName))
	return err == nil
}

// Remove deletes a table's meta file, used by DropTable.
func Remove(baseDir, tableName string) error {
	if err := os.Remove(Path(baseDir, tableName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("metafile: remove %s: %w", tableName, err)
	}
	return nil
}

// List returns the table names present under baseDir, used by catalog
// load-on-open.
func List(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("metafile: list %s: %w", baseDir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".table" {
			names = append(names, e.Name()[:len(e.Name())-len(".table")])
		}
	}
	return names, nil
}
