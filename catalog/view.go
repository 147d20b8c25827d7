package catalog

import "github.com/minidb/miniql/record"

// View is spec.md §3's virtual table: a stored definition SQL plus enough
// provenance to route INSERT/UPDATE/DELETE back to base tables when the
// view is updatable.
type View struct {
	Name          string
	Definition    string   // the view's stored SELECT text
	DeclaredCols  []string // explicit column list, if CREATE VIEW named one
	IsUpdatable   bool
	BaseTables    []string                  // names of tables this view's FROM clause touches
	AttrBaseField map[string]AttrProvenance // view column name -> base table/field
	// Columns is the view's exposed field schema: either the explicit
	// declared-columns rename of the underlying SELECT's output types, or
	// (if none were declared) the SELECT's own output schema. Filled in by
	// stmt.BindCreateView at creation time; reused by DescTable/SELECT *.
	Columns []record.FieldMeta
}

// AttrProvenance records which base table and column a view's output
// column maps to, used when routing an updatable-view write to the right
// base record.
type AttrProvenance struct {
	BaseTable string
	BaseField string
}
