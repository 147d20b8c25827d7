package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minidb/miniql/record"
)

// viewsFileName is the on-disk stand-in for spec.md §6's `__miniob_views__`
// system table: the same four logical columns
// (view_name, view_definition, is_updatable, attrs_name), persisted as one
// JSON document rather than through the row/page record format, since the
// view store itself has no schema to evolve and round-trips through plain
// encoding/json same as every other meta file (storage/metafile.Save).
const viewsFileName = "__miniob_views__.json"

type jsonAttrProvenance struct {
	ViewColumn string `json:"view_column"`
	BaseTable  string `json:"base_table"`
	BaseField  string `json:"base_field"`
}

type jsonView struct {
	Name         string               `json:"view_name"`
	Definition   string               `json:"view_definition"`
	DeclaredCols []string             `json:"declared_columns,omitempty"`
	IsUpdatable  bool                 `json:"is_updatable"`
	BaseTables   []string             `json:"base_tables"`
	Attrs        []jsonAttrProvenance `json:"attrs_name"`
	Columns      []record.FieldMeta   `json:"columns,omitempty"`
}

func toJSONView(v View) jsonView {
	j := jsonView{
		Name: v.Name, Definition: v.Definition, DeclaredCols: v.DeclaredCols,
		IsUpdatable: v.IsUpdatable, BaseTables: v.BaseTables, Columns: v.Columns,
	}
	for col, prov := range v.AttrBaseField {
		j.Attrs = append(j.Attrs, jsonAttrProvenance{ViewColumn: col, BaseTable: prov.BaseTable, BaseField: prov.BaseField})
	}
	return j
}

func fromJSONView(j jsonView) View {
	v := View{
		Name: j.Name, Definition: j.Definition, DeclaredCols: j.DeclaredCols,
		IsUpdatable: j.IsUpdatable, BaseTables: j.BaseTables, Columns: j.Columns,
		AttrBaseField: make(map[string]AttrProvenance, len(j.Attrs)),
	}
	for _, a := range j.Attrs {
		v.AttrBaseField[a.ViewColumn] = AttrProvenance{BaseTable: a.BaseTable, BaseField: a.BaseField}
	}
	return v
}

func loadViews(baseDir string) ([]View, error) {
	path := filepath.Join(baseDir, viewsFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var js []jsonView
	if err := json.Unmarshal(data, &js); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", viewsFileName, err)
	}
	out := make([]View, len(js))
	for i, j := range js {
		out[i] = fromJSONView(j)
	}
	return out, nil
}

// saveViews writes the whole view system table in one temp-write-then-rename
// pass, the same crash-consistency protocol spec.md §4.7 requires of table
// meta files.
func saveViews(baseDir string, views []View) error {
	js := make([]jsonView, len(views))
	for i, v := range views {
		js[i] = toJSONView(v)
	}
	data, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return err
	}

	final := filepath.Join(baseDir, viewsFileName)
	tmp := final + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("catalog: create temp views file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("catalog: write temp views file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("catalog: fsync temp views file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("catalog: rename views file into place: %w", err)
	}
	return nil
}
