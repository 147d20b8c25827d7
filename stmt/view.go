package stmt

import (
	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/record"
)

// buildViewSchema synthesizes the TableMeta a view exposes to the binder:
// one visible field per projection of its bound SELECT, renamed by the
// view's declared column list if one was given. Grounded on spec.md
// §4.3's view-expansion step; the resulting TableMeta is never persisted
// (no .table meta file backs a view), it exists only so BinderContext.AddTable
// can treat a view exactly like a base table.
func buildViewSchema(view *catalog.View, query *SelectStmt) *record.TableMeta {
	m := &record.TableMeta{Name: view.Name}
	for i, p := range query.Projections {
		name := p.Name
		if name == "" {
			name = p.FieldName
		}
		if i < len(view.DeclaredCols) {
			name = view.DeclaredCols[i]
		}
		m.UserFields = append(m.UserFields, record.FieldMeta{
			Name: name, Type: p.ValueType(), Visible: true, OwningTable: view.Name,
		})
	}
	m.ComputeLayout()
	return m
}

// BindCreateView implements spec.md §4.3's view-updatability check: a view
// is updatable only if its SELECT has no aggregation, no arithmetic, and
// touches exactly one base table (no joins). Also records per-column
// base-table provenance for the one-table-updatable case, and fills in
// View.Columns for later DescTable/SELECT * use.
func (b *Binder) BindCreateView(node *CreateViewNode) (*CreateViewStmt, error) {
	query, err := b.BindSelect(nil, node.Definition)
	if err != nil {
		return nil, err
	}
	if len(node.Columns) > 0 && len(node.Columns) != len(query.Projections) {
		return nil, rc.New(rc.INVALID_ARGUMENT,
			"view %q declares %d columns but its SELECT produces %d", node.View, len(node.Columns), len(query.Projections))
	}

	view := &catalog.View{
		Name:         node.View,
		Definition:   node.DefinitionSQL,
		DeclaredCols: node.Columns,
	}
	for _, rel := range query.Relations {
		view.BaseTables = append(view.BaseTables, rel.Table.Name)
	}

	updatable := len(view.BaseTables) == 1
	if updatable {
		for _, p := range query.Projections {
			if p.Kind != expr.Field {
				updatable = false
				break
			}
		}
	}
	view.IsUpdatable = updatable

	if updatable {
		view.AttrBaseField = make(map[string]catalog.AttrProvenance, len(query.Projections))
		baseTable := view.BaseTables[0]
		for i, p := range query.Projections {
			colName := p.Name
			if colName == "" {
				colName = p.FieldName
			}
			if i < len(view.DeclaredCols) {
				colName = view.DeclaredCols[i]
			}
			view.AttrBaseField[colName] = catalog.AttrProvenance{BaseTable: baseTable, BaseField: p.FieldName}
		}
	}

	schema := buildViewSchema(view, query)
	view.Columns = schema.UserFields

	return &CreateViewStmt{View: view}, nil
}

// checkViewInsertable enforces spec.md §4.3: INSERT into a join view is
// forbidden unless an explicit column list was given, and a single INSERT
// statement may never span base tables across rows (every row targets the
// same view/table).
func checkViewInsertable(view *catalog.View, explicitColumns bool) error {
	if view == nil {
		return nil
	}
	if !view.IsUpdatable {
		return rc.New(rc.UNSUPPORTED, "view %q is not updatable", view.Name)
	}
	if len(view.BaseTables) != 1 && !explicitColumns {
		return rc.New(rc.UNSUPPORTED,
			"INSERT into multi-table view %q requires an explicit column list", view.Name)
	}
	return nil
}
