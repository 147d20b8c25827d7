package stmt

import (
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/sqltype"
	"github.com/minidb/miniql/value"
)

// Create is spec.md §4.3's `create(db, ast_node, &out_stmt)` factory: one
// entry point dispatching on the parser's tagged node to the matching
// bind* method.
func (b *Binder) Create(node *ParsedSqlNode) (*Stmt, error) {
	switch node.Kind {
	case KindSelect:
		s, err := b.BindSelect(nil, node.Select)
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: node.Kind, Select: s}, nil

	case KindInsert:
		s, err := b.bindInsert(node.Insert)
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: node.Kind, Insert: s}, nil

	case KindDelete:
		s, err := b.bindDelete(node.Delete)
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: node.Kind, Delete: s}, nil

	case KindUpdate:
		s, err := b.bindUpdate(node.Update)
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: node.Kind, Update: s}, nil

	case KindCreateTable:
		s, err := bindCreateTable(node.CreateTable)
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: node.Kind, CreateTable: s}, nil

	case KindCreateView:
		s, err := b.BindCreateView(node.CreateView)
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: node.Kind, CreateView: s}, nil

	case KindCreateIndex:
		s, err := b.bindCreateIndex(node.CreateIndex)
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: node.Kind, CreateIndex: s}, nil

	case KindCreateVectorIndex:
		s, err := b.bindCreateVectorIndex(node.CreateVectorIndex)
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: node.Kind, CreateVectorIndex: s}, nil

	case KindDropTable:
		if b.Catalog.Table(node.DropTable.Table) == nil {
			return nil, rc.New(rc.SCHEMA_TABLE_NOT_EXIST, "table %q does not exist", node.DropTable.Table)
		}
		return &Stmt{Kind: node.Kind, DropTable: &DropTableStmt{Table: node.DropTable.Table}}, nil

	case KindDropIndex:
		table := b.Catalog.Table(node.DropIndex.Table)
		if table == nil {
			return nil, rc.New(rc.SCHEMA_TABLE_NOT_EXIST, "table %q does not exist", node.DropIndex.Table)
		}
		found := false
		for _, idx := range table.Indexes {
			if idx.Name == node.DropIndex.Index {
				found = true
				break
			}
		}
		if !found {
			return nil, rc.New(rc.NOT_EXIST, "index %q does not exist on table %q", node.DropIndex.Index, node.DropIndex.Table)
		}
		return &Stmt{Kind: node.Kind, DropIndex: &DropIndexStmt{Table: node.DropIndex.Table, Index: node.DropIndex.Index}}, nil

	case KindExplain:
		inner, err := b.Create(node.Explain.Inner)
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: node.Kind, Explain: &ExplainStmt{Inner: inner}}, nil

	case KindCalc:
		exprs := make([]*expr.Expr, len(node.Calc.Expressions))
		for i, e := range node.Calc.Expressions {
			bound, err := b.bindExprTree(expr.NewBinderContext(nil), e)
			if err != nil {
				return nil, err
			}
			exprs[i] = bound
		}
		return &Stmt{Kind: node.Kind, Calc: &CalcStmt{Expressions: exprs}}, nil

	case KindDescTable:
		table := b.Catalog.Table(node.DescTable.Table)
		if table == nil {
			return nil, rc.New(rc.SCHEMA_TABLE_NOT_EXIST, "table %q does not exist", node.DescTable.Table)
		}
		return &Stmt{Kind: node.Kind, DescTable: &DescTableStmt{Table: table}}, nil

	case KindShowTables:
		return &Stmt{Kind: node.Kind, ShowTables: &ShowTablesStmt{Names: b.Catalog.TableNames()}}, nil

	case KindSetVariable:
		return &Stmt{Kind: node.Kind, SetVariable: &SetVariableStmt{
			Name: node.SetVariable.Name, Value: node.SetVariable.Value,
		}}, nil

	case KindLoadData:
		s, err := b.bindLoadData(node.LoadData)
		if err != nil {
			return nil, err
		}
		return &Stmt{Kind: node.Kind, LoadData: s}, nil

	case KindBegin, KindCommit, KindRollback, KindExit, KindHelp:
		return &Stmt{Kind: node.Kind}, nil

	default:
		return nil, rc.New(rc.UNIMPLEMENTED, "unsupported statement kind %d", node.Kind)
	}
}

func (b *Binder) resolveRelation(name string) (BoundRelation, error) {
	if b.Catalog.IsView(name) {
		return b.bindViewRelation(name, name)
	}
	table := b.Catalog.Table(name)
	if table == nil {
		return BoundRelation{}, rc.New(rc.SCHEMA_TABLE_NOT_EXIST, "table %q does not exist", name)
	}
	return BoundRelation{Table: table, Alias: name}, nil
}

func (b *Binder) bindInsert(node *InsertNode) (*InsertStmt, error) {
	rel, err := b.resolveRelation(node.Table)
	if err != nil {
		return nil, err
	}
	if err := checkViewInsertable(rel.View, len(node.Columns) > 0); err != nil {
		return nil, err
	}

	columns := make([]*record.FieldMeta, 0, len(node.Columns))
	if len(node.Columns) == 0 {
		for i := range rel.Table.UserFields {
			columns = append(columns, &rel.Table.UserFields[i])
		}
	} else {
		for _, name := range node.Columns {
			fm := rel.Table.FieldByName(name)
			if fm == nil {
				return nil, rc.New(rc.SCHEMA_FIELD_MISSING, "column %q not found in table %q", name, node.Table)
			}
			columns = append(columns, fm)
		}
	}

	ctx := expr.NewBinderContext(nil)
	rows := make([][]*expr.Expr, len(node.Rows))
	for i, row := range node.Rows {
		if len(row) != len(columns) {
			return nil, rc.New(rc.INVALID_ARGUMENT, "row %d has %d values, expected %d", i, len(row), len(columns))
		}
		bound := make([]*expr.Expr, len(row))
		for j, v := range row {
			be, err := b.bindExprTree(ctx, v)
			if err != nil {
				return nil, err
			}
			bound[j] = be
		}
		rows[i] = bound
	}

	return &InsertStmt{Relation: rel, Columns: columns, Rows: rows}, nil
}

func (b *Binder) bindDelete(node *DeleteNode) (*DeleteStmt, error) {
	rel, err := b.resolveRelation(node.Table)
	if err != nil {
		return nil, err
	}
	ctx := expr.NewBinderContext(nil)
	ctx.AddTable(rel.Alias, rel.Table)
	filter, err := b.buildConjunction(ctx, node.Conditions)
	if err != nil {
		return nil, err
	}
	return &DeleteStmt{Relation: rel, Filter: filter}, nil
}

func (b *Binder) bindUpdate(node *UpdateNode) (*UpdateStmt, error) {
	rel, err := b.resolveRelation(node.Table)
	if err != nil {
		return nil, err
	}
	if rel.View != nil && !rel.View.IsUpdatable {
		return nil, rc.New(rc.UNSUPPORTED, "view %q is not updatable", rel.View.Name)
	}

	ctx := expr.NewBinderContext(nil)
	ctx.AddTable(rel.Alias, rel.Table)

	sets := make([]SetClause, len(node.Sets))
	for i, sc := range node.Sets {
		fm := rel.Table.FieldByName(sc.Column)
		if fm == nil {
			return nil, rc.New(rc.SCHEMA_FIELD_MISSING, "column %q not found in table %q", sc.Column, node.Table)
		}
		boundValue, err := b.bindExprTree(ctx, sc.Value)
		if err != nil {
			return nil, err
		}
		sets[i] = SetClause{Field: fm, Value: boundValue}
	}

	filter, err := b.buildConjunction(ctx, node.Conditions)
	if err != nil {
		return nil, err
	}

	return &UpdateStmt{Relation: rel, Sets: sets, Filter: filter}, nil
}

func bindCreateTable(node *CreateTableNode) (*CreateTableStmt, error) {
	m := &record.TableMeta{
		Name:      node.Table,
		SysFields: []record.FieldMeta{{Name: "__trx__", Len: 8}},
	}
	for _, col := range node.Columns {
		t := sqltype.FromString(col.Type)
		if t == sqltype.UNDEFINED {
			return nil, rc.New(rc.INVALID_ARGUMENT, "unknown column type %q for column %q", col.Type, col.Name)
		}
		fm := record.FieldMeta{
			Name: col.Name, Type: t, Visible: true, Nullable: col.Nullable, OwningTable: node.Table,
		}
		switch t {
		case sqltype.CHARS:
			fm.Len = col.Length
			if fm.Len <= 0 {
				fm.Len = 1
			}
		case sqltype.VECTORS:
			fm.VectorDim = col.Length
			fm.Len = sqltype.FixedSize(t)
		default:
			fm.Len = sqltype.FixedSize(t)
		}
		m.UserFields = append(m.UserFields, fm)
	}
	m.ComputeLayout()
	return &CreateTableStmt{Table: m}, nil
}

func (b *Binder) bindCreateIndex(node *CreateIndexNode) (*CreateIndexStmt, error) {
	table := b.Catalog.Table(node.Table)
	if table == nil {
		return nil, rc.New(rc.SCHEMA_TABLE_NOT_EXIST, "table %q does not exist", node.Table)
	}
	for _, idx := range table.Indexes {
		if idx.Name == node.Index {
			return nil, rc.New(rc.SCHEMA_INDEX_NAME_REPEAT, "index %q already exists on table %q", node.Index, node.Table)
		}
	}
	fields := make([]record.FieldMeta, 0, len(node.Columns))
	for _, name := range node.Columns {
		fm := table.FieldByName(name)
		if fm == nil {
			return nil, rc.New(rc.SCHEMA_FIELD_MISSING, "column %q not found in table %q", name, node.Table)
		}
		fields = append(fields, *fm)
	}
	return &CreateIndexStmt{Table: node.Table, Index: record.IndexMeta{Name: node.Index, Fields: fields, IsUnique: node.IsUnique}}, nil
}

func (b *Binder) bindCreateVectorIndex(node *CreateVectorIndexNode) (*CreateVectorIndexStmt, error) {
	table := b.Catalog.Table(node.Table)
	if table == nil {
		return nil, rc.New(rc.SCHEMA_TABLE_NOT_EXIST, "table %q does not exist", node.Table)
	}
	fm := table.FieldByName(node.Column)
	if fm == nil {
		return nil, rc.New(rc.SCHEMA_FIELD_MISSING, "column %q not found in table %q", node.Column, node.Table)
	}
	if fm.Type != sqltype.VECTORS {
		return nil, rc.New(rc.INVALID_ARGUMENT, "column %q is not a VECTOR column", node.Column)
	}
	lists, probes := node.Lists, node.Probes
	if lists <= 0 {
		lists = 1
	}
	if probes <= 0 {
		probes = 1
	}
	return &CreateVectorIndexStmt{
		Table: node.Table,
		Index: record.VectorIndexMeta{
			Name: node.Index, Field: *fm, Distance: value.DistanceFromString(node.Distance),
			Lists: lists, Probes: probes,
		},
	}, nil
}

func (b *Binder) bindLoadData(node *LoadDataNode) (*LoadDataStmt, error) {
	rel, err := b.resolveRelation(node.Table)
	if err != nil {
		return nil, err
	}
	return &LoadDataStmt{
		Relation: rel, SourceKind: node.SourceKind, DSN: node.DSN, SourceTable: node.SourceTable,
	}, nil
}
