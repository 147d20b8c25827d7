package physical

import (
	"testing"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/logical"
	"github.com/minidb/miniql/record"
	"github.com/minidb/miniql/sqltype"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

func fieldExpr(tm *record.TableMeta, name, alias string) *expr.Expr {
	for i := range tm.UserFields {
		if tm.UserFields[i].Name == name {
			return expr.NewField(tm, &tm.UserFields[i], alias)
		}
	}
	panic("no such field: " + name)
}

func TestPlanTableGetChoosesIndexScanForEqualityOnIndexedField(t *testing.T) {
	e := newTestEngine(t)
	emp := testTable("employee", "id", "salary")
	emp.Indexes = []record.IndexMeta{{Name: "idx_id", Fields: []record.FieldMeta{emp.UserFields[0]}}}

	pushed := expr.NewComparison(expr.EQ, fieldExpr(emp, "id", "employee"), expr.NewValue(value.NewInt(7)))
	op := &logical.LogicalOp{Kind: logical.TableGet, Table: emp, Alias: "employee", Pushed: pushed}

	got, err := Plan(e, op, txn.NewSimpleTrx())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, ok := got.(*IndexScan); !ok {
		t.Fatalf("expected *IndexScan, got %T", got)
	}
}

func TestPlanTableGetFallsBackToTableScanWithoutMatchingIndex(t *testing.T) {
	e := newTestEngine(t)
	emp := testTable("employee", "id", "salary")

	pushed := expr.NewComparison(expr.GT, fieldExpr(emp, "salary", "employee"), expr.NewValue(value.NewInt(1000)))
	op := &logical.LogicalOp{Kind: logical.TableGet, Table: emp, Alias: "employee", Pushed: pushed}

	got, err := Plan(e, op, txn.NewSimpleTrx())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, ok := got.(*TableScan); !ok {
		t.Fatalf("expected *TableScan, got %T", got)
	}
}

func TestPlanTableGetHonorsNotUseIndex(t *testing.T) {
	e := newTestEngine(t)
	emp := testTable("employee", "id", "salary")
	emp.Indexes = []record.IndexMeta{{Name: "idx_id", Fields: []record.FieldMeta{emp.UserFields[0]}}}

	pushed := expr.NewComparison(expr.EQ, fieldExpr(emp, "id", "employee"), expr.NewValue(value.NewInt(7)))
	op := &logical.LogicalOp{Kind: logical.TableGet, Table: emp, Alias: "employee", Pushed: pushed, NotUseIndex: true}

	got, err := Plan(e, op, txn.NewSimpleTrx())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, ok := got.(*TableScan); !ok {
		t.Fatalf("expected NotUseIndex to force *TableScan, got %T", got)
	}
}

func TestPlanTableGetAndConjunctionMatchesCompositeIndex(t *testing.T) {
	e := newTestEngine(t)
	emp := testTable("employee", "dept_id", "team_id", "salary")
	emp.Indexes = []record.IndexMeta{{
		Name:   "idx_dept_team",
		Fields: []record.FieldMeta{emp.UserFields[0], emp.UserFields[1]},
	}}

	pushed := expr.NewConjunction(expr.And, []*expr.Expr{
		expr.NewComparison(expr.EQ, fieldExpr(emp, "dept_id", "employee"), expr.NewValue(value.NewInt(1))),
		expr.NewComparison(expr.EQ, fieldExpr(emp, "team_id", "employee"), expr.NewValue(value.NewInt(2))),
	})
	op := &logical.LogicalOp{Kind: logical.TableGet, Table: emp, Alias: "employee", Pushed: pushed}

	got, err := Plan(e, op, txn.NewSimpleTrx())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, ok := got.(*IndexScan); !ok {
		t.Fatalf("expected composite equality conjunction to choose *IndexScan, got %T", got)
	}
}

func vectorTable(t *testing.T, name, distField string, dt value.DistanceType) *record.TableMeta {
	t.Helper()
	m := &record.TableMeta{Name: name}
	m.UserFields = append(m.UserFields,
		record.FieldMeta{Name: "id", Type: sqltype.INTS, FieldID: 0, Visible: true, OwningTable: name},
		record.FieldMeta{Name: distField, Type: sqltype.VECTORS, FieldID: 1, Visible: true, OwningTable: name, VectorDim: 3},
	)
	m.VectorIndexes = []record.VectorIndexMeta{{Name: "idx_embedding", Field: m.UserFields[1], Distance: dt, Lists: 1, Probes: 1}}
	m.ComputeLayout()
	return m
}

func vectorDistanceProjectOrderByTableGet(docs *record.TableMeta, limit int) *logical.LogicalOp {
	tableGet := &logical.LogicalOp{Kind: logical.TableGet, Table: docs, Alias: "docs"}
	distExpr := expr.NewVectorDistance(value.L2Distance, fieldExpr(docs, "embedding", "docs"), expr.NewValue(value.NewVector([]float32{1, 2, 3})))
	orderBy := &logical.LogicalOp{
		Kind:      logical.OrderBy,
		Child:     tableGet,
		OrderKeys: []logical.OrderKey{{Expr: distExpr}},
	}
	return &logical.LogicalOp{
		Kind:  logical.Project,
		Child: orderBy,
		Exprs: []*expr.Expr{fieldExpr(docs, "id", "docs")},
		Limit: limit,
	}
}

func TestPlanProjectFusesMatchingVectorIndex(t *testing.T) {
	e := newTestEngine(t)
	docs := vectorTable(t, "docs", "embedding", value.L2Distance)
	op := vectorDistanceProjectOrderByTableGet(docs, 5)

	got, err := Plan(e, op, txn.NewSimpleTrx())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	scan, ok := got.(*VectorIndexScan)
	if !ok {
		t.Fatalf("expected fused *VectorIndexScan, got %T", got)
	}
	if scan.TopK != 5 {
		t.Fatalf("expected TopK 5, got %d", scan.TopK)
	}
}

func TestPlanProjectDoesNotFuseWithoutMatchingVectorIndex(t *testing.T) {
	e := newTestEngine(t)
	// Index exists for a different distance function; the query asks for
	// L2 but the only index is cosine, so no index can serve it.
	docs := vectorTable(t, "docs", "embedding", value.CosineDistance)
	op := vectorDistanceProjectOrderByTableGet(docs, 5)

	got, err := Plan(e, op, txn.NewSimpleTrx())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, ok := got.(*VectorIndexScan); ok {
		t.Fatalf("expected no fusion without a matching vector index, got %T", got)
	}
	if _, ok := got.(*Project); !ok {
		t.Fatalf("expected plain *Project fallback, got %T", got)
	}
}

func TestPlanProjectDoesNotFuseWithMultipleOrderKeys(t *testing.T) {
	e := newTestEngine(t)
	docs := vectorTable(t, "docs", "embedding", value.L2Distance)
	op := vectorDistanceProjectOrderByTableGet(docs, 5)
	// Add a second order key: no longer the single-vector-distance shape.
	op.Child.OrderKeys = append(op.Child.OrderKeys, logical.OrderKey{Expr: fieldExpr(docs, "id", "docs")})

	got, err := Plan(e, op, txn.NewSimpleTrx())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, ok := got.(*VectorIndexScan); ok {
		t.Fatalf("expected no fusion with multiple order keys, got %T", got)
	}
	if _, ok := got.(*Project); !ok {
		t.Fatalf("expected plain *Project fallback, got %T", got)
	}
}

func TestPlanDispatchesCreateTableAndCreateIndexToDDLOp(t *testing.T) {
	e := newTestEngine(t)
	meta := testTable("widgets", "id")

	createOp := &logical.LogicalOp{Kind: logical.CreateTable, Table: meta}
	got, err := Plan(e, createOp, txn.NewSimpleTrx())
	if err != nil {
		t.Fatalf("Plan(CreateTable): %v", err)
	}
	if _, ok := got.(*ddlOp); !ok {
		t.Fatalf("expected *ddlOp for CreateTable, got %T", got)
	}
	if err := got.Open(txn.NewSimpleTrx()); err != nil {
		t.Fatalf("ddlOp.Open(CreateTable): %v", err)
	}
	ok, err := got.Next()
	if err != nil || !ok {
		t.Fatalf("expected one row from CreateTable ddlOp, got ok=%v err=%v", ok, err)
	}

	idxOp := &logical.LogicalOp{
		Kind:      logical.CreateIndex,
		TableName: "widgets",
		IndexMeta: record.IndexMeta{Name: "idx_id", Fields: []record.FieldMeta{meta.UserFields[0]}},
	}
	got2, err := Plan(e, idxOp, txn.NewSimpleTrx())
	if err != nil {
		t.Fatalf("Plan(CreateIndex): %v", err)
	}
	if _, ok := got2.(*ddlOp); !ok {
		t.Fatalf("expected *ddlOp for CreateIndex, got %T", got2)
	}
}
