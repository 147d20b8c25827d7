// Package expr implements spec.md §3's Expr variants and the tuple/binder
// machinery that ties them to rows flowing through physical operators.
// Grounded on original_source/.../sql/expr/{expression.cpp,tuple_cell.h,
// aggregator.cpp}; re-architected per spec.md §9 as one tagged Expr struct
// instead of a class hierarchy, the same shape value.Value already uses.
package expr

import (
	"fmt"

	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/value"
)

// TupleCellSpec names one output cell: either a bare alias (for computed
// columns and aggregates) or a (table, field) pair, optionally qualified
// by the table alias used in the FROM clause — the extra field
// SUPPLEMENTED FEATURES adds over the original's TupleCellSpec so self-joins
// (`FROM t AS a, t AS b`) can disambiguate `a.id` from `b.id` even though
// both ultimately point at table "t".
type TupleCellSpec struct {
	TableName  string
	FieldName  string
	TableAlias string
	Alias      string
}

func NewFieldSpec(tableName, fieldName string) TupleCellSpec {
	return TupleCellSpec{TableName: tableName, FieldName: fieldName}
}

func NewAliasSpec(alias string) TupleCellSpec {
	return TupleCellSpec{Alias: alias}
}

func (s TupleCellSpec) String() string {
	if s.Alias != "" {
		return s.Alias
	}
	if s.TableAlias != "" {
		return fmt.Sprintf("%s.%s", s.TableAlias, s.FieldName)
	}
	if s.TableName != "" {
		return fmt.Sprintf("%s.%s", s.TableName, s.FieldName)
	}
	return s.FieldName
}

// Tuple is the row-at-a-time interface every physical operator's
// current_tuple() satisfies. Cell lookup is by spec so a Field expression
// can find its value without knowing the tuple's concrete shape (a raw
// table row, a join's concatenation of two rows, a group-by's aggregate
// results, ...).
type Tuple interface {
	CellNum() int
	CellAt(i int) (value.Value, error)
	SpecAt(i int) (TupleCellSpec, error)
	FindCell(spec TupleCellSpec) (value.Value, error)
}

// ValueListTuple is the simplest Tuple: a fixed slice of values with
// matching specs, used for OrderBy's materialized buffer, GroupBy output
// rows, and the rows emitted by Explain, DDL/passthrough operators and the
// INSERT/UPDATE/DELETE summaries.
type ValueListTuple struct {
	Values []value.Value
	Specs  []TupleCellSpec
}

func (t *ValueListTuple) CellNum() int { return len(t.Values) }

func (t *ValueListTuple) CellAt(i int) (value.Value, error) {
	if i < 0 || i >= len(t.Values) {
		return value.Value{}, fmt.Errorf("expr: cell index %d out of range", i)
	}
	return t.Values[i], nil
}

func (t *ValueListTuple) SpecAt(i int) (TupleCellSpec, error) {
	if i < 0 || i >= len(t.Specs) {
		return TupleCellSpec{}, fmt.Errorf("expr: spec index %d out of range", i)
	}
	return t.Specs[i], nil
}

func (t *ValueListTuple) FindCell(spec TupleCellSpec) (value.Value, error) {
	for i, s := range t.Specs {
		if specMatches(s, spec) {
			return t.Values[i], nil
		}
	}
	return value.Value{}, fmt.Errorf("expr: no cell matches %s", spec)
}

func specMatches(have, want TupleCellSpec) bool {
	if want.Alias != "" {
		return have.Alias == want.Alias || have.FieldName == want.Alias
	}
	if want.TableAlias != "" && have.TableAlias != "" {
		return have.TableAlias == want.TableAlias && have.FieldName == want.FieldName
	}
	return have.TableName == want.TableName && have.FieldName == want.FieldName
}

// JoinTuple concatenates a left and right tuple's cells, the shape
// NestedLoopJoin exposes as its current tuple — FindCell tries left first,
// falling back to right, matching the original's left-to-right scan order.
type JoinTuple struct {
	Left, Right Tuple
}

func (t *JoinTuple) CellNum() int { return t.Left.CellNum() + t.Right.CellNum() }

func (t *JoinTuple) CellAt(i int) (value.Value, error) {
	if i < t.Left.CellNum() {
		return t.Left.CellAt(i)
	}
	return t.Right.CellAt(i - t.Left.CellNum())
}

func (t *JoinTuple) SpecAt(i int) (TupleCellSpec, error) {
	if i < t.Left.CellNum() {
		return t.Left.SpecAt(i)
	}
	return t.Right.SpecAt(i - t.Left.CellNum())
}

func (t *JoinTuple) FindCell(spec TupleCellSpec) (value.Value, error) {
	if v, err := t.Left.FindCell(spec); err == nil {
		return v, nil
	}
	return t.Right.FindCell(spec)
}

// BlobResolver materializes the out-of-line text/vector payloads
// record.GetField otherwise leaves as bare (offset, len/dim) pointers —
// implemented by storage/blob's paged vector file and append-only text
// file. Declared here (rather than importing storage/blob) to keep expr a
// leaf package; physical wires the concrete resolver in.
type BlobResolver interface {
	LoadText(offset, length uint64) ([]byte, error)
	LoadVector(offset, dim uint64) ([]float32, error)
}

// RowTuple exposes one physical record.Record as a Tuple, one cell per
// visible field, decoding lazily on CellAt/FindCell rather than up front —
// TableScan's hot path over a record file this is wrapping around. Blobs
// may be nil (tests, or a table with no TEXTS/VECTORS columns); a lookup
// on such a column then yields the unmaterialized ref.
type RowTuple struct {
	Table  *record.TableMeta
	Alias  string
	Record record.Record
	Blobs  BlobResolver
	fields []record.FieldMeta
}

func NewRowTuple(table *record.TableMeta, alias string, rec record.Record, blobs BlobResolver) *RowTuple {
	return &RowTuple{Table: table, Alias: alias, Record: rec, Blobs: blobs, fields: table.VisibleFields()}
}

func (t *RowTuple) CellNum() int { return len(t.fields) }

func (t *RowTuple) CellAt(i int) (value.Value, error) {
	if i < 0 || i >= len(t.fields) {
		return value.Value{}, fmt.Errorf("expr: cell index %d out of range", i)
	}
	v := record.GetField(t.Record.Data, t.Table, &t.fields[i])
	v.Source = t.Record.RID
	return t.materialize(v)
}

// materialize resolves a TEXTS/VECTORS ref to its actual bytes/floats
// through Blobs, leaving every other type untouched.
func (t *RowTuple) materialize(v value.Value) (value.Value, error) {
	if t.Blobs == nil {
		return v, nil
	}
	switch v.Tag {
	case value.TEXTS:
		ref := v.Text()
		data, err := t.Blobs.LoadText(ref.Offset, ref.Len)
		if err != nil {
			return value.Value{}, err
		}
		mat := value.NewText(data)
		mat.Source = v.Source
		return mat, nil
	case value.VECTORS:
		ref := v.Vector()
		floats, err := t.Blobs.LoadVector(ref.Offset, ref.Dim)
		if err != nil {
			return value.Value{}, err
		}
		mat := value.NewVector(floats)
		mat.Source = v.Source
		return mat, nil
	default:
		return v, nil
	}
}

func (t *RowTuple) SpecAt(i int) (TupleCellSpec, error) {
	if i < 0 || i >= len(t.fields) {
		return TupleCellSpec{}, fmt.Errorf("expr: spec index %d out of range", i)
	}
	return TupleCellSpec{TableName: t.Table.Name, FieldName: t.fields[i].Name, TableAlias: t.Alias}, nil
}

func (t *RowTuple) FindCell(spec TupleCellSpec) (value.Value, error) {
	for i, f := range t.fields {
		if specMatches(TupleCellSpec{TableName: t.Table.Name, FieldName: f.Name, TableAlias: t.Alias}, spec) {
			return t.CellAt(i)
		}
	}
	return value.Value{}, fmt.Errorf("expr: no cell matches %s", spec)
}

// ExpressionTuple is Project's output shape: each cell is the result of
// evaluating one projection expression against a child tuple, named by
// the expression's own alias (or its field spec, for a bare Field
// projection) so an outer ORDER BY/GROUP BY can still find it by name.
type ExpressionTuple struct {
	Values []value.Value
	Specs  []TupleCellSpec
}

func (t *ExpressionTuple) CellNum() int { return len(t.Values) }

func (t *ExpressionTuple) CellAt(i int) (value.Value, error) {
	if i < 0 || i >= len(t.Values) {
		return value.Value{}, fmt.Errorf("expr: cell index %d out of range", i)
	}
	return t.Values[i], nil
}

func (t *ExpressionTuple) SpecAt(i int) (TupleCellSpec, error) {
	if i < 0 || i >= len(t.Specs) {
		return TupleCellSpec{}, fmt.Errorf("expr: spec index %d out of range", i)
	}
	return t.Specs[i], nil
}

func (t *ExpressionTuple) FindCell(spec TupleCellSpec) (value.Value, error) {
	for i, s := range t.Specs {
		if specMatches(s, spec) {
			return t.Values[i], nil
		}
	}
	return value.Value{}, fmt.Errorf("expr: no cell matches %s", spec)
}

// SpecOf derives the output TupleCellSpec for projection expression e,
// preferring its own alias, falling back to its source field identity for
// a bare Field (so `SELECT a.x` still resolves as `x` or `a.x` upstream),
// and to the expression's display Name otherwise (computed columns,
// aggregates).
func SpecOf(e *Expr) TupleCellSpec {
	if e.Kind == Field {
		return TupleCellSpec{TableName: e.TableName, FieldName: e.FieldName, TableAlias: e.TableAlias}
	}
	if e.Name != "" {
		return TupleCellSpec{Alias: e.Name}
	}
	return TupleCellSpec{Alias: fmt.Sprintf("expr%p", e)}
}
