package session

import (
	"testing"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/stmt"
	"github.com/minidb/miniql/value"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cfg := Config{BaseDir: t.TempDir(), LogLevel: "error"}
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createEmployeeTable(t *testing.T, s *Session) {
	t.Helper()
	node := &stmt.ParsedSqlNode{
		Kind: stmt.KindCreateTable,
		CreateTable: &stmt.CreateTableNode{
			Table: "employee",
			Columns: []stmt.ColumnDefNode{
				{Name: "id", Type: "ints"},
				{Name: "salary", Type: "ints"},
			},
		},
	}
	if _, err := s.Execute(node); err != nil {
		t.Fatalf("CREATE TABLE: %v", err)
	}
}

func insertEmployee(t *testing.T, s *Session, id, salary int32) {
	t.Helper()
	node := &stmt.ParsedSqlNode{
		Kind: stmt.KindInsert,
		Insert: &stmt.InsertNode{
			Table: "employee",
			Rows: [][]*expr.Expr{
				{expr.NewValue(value.NewInt(id)), expr.NewValue(value.NewInt(salary))},
			},
		},
	}
	if _, err := s.Execute(node); err != nil {
		t.Fatalf("INSERT: %v", err)
	}
}

// TestExecuteEndToEndCreateInsertSelect mirrors spec.md §8's first
// end-to-end scenario: CREATE TABLE, a couple of INSERTs, then a filtered
// SELECT, run entirely through Session.Execute with no SQL text involved
// since the lexer/parser is an external collaborator this module never
// implements.
func TestExecuteEndToEndCreateInsertSelect(t *testing.T) {
	s := newTestSession(t)
	createEmployeeTable(t, s)
	insertEmployee(t, s, 1, 50000)
	insertEmployee(t, s, 2, 90000)

	selectNode := &stmt.ParsedSqlNode{
		Kind: stmt.KindSelect,
		Select: &stmt.SelectNode{
			Relations:   []stmt.RelationRef{{Name: "employee"}},
			Expressions: []*expr.Expr{expr.NewUnboundField("employee", "id", ""), expr.NewUnboundField("employee", "salary", "")},
			Conditions: []stmt.ConditionNode{
				{Left: expr.NewUnboundField("employee", "salary", ""), Op: expr.GT, Right: expr.NewValue(value.NewInt(60000))},
			},
			Limit: -1,
		},
	}
	rs, err := s.Execute(selectNode)
	if err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	if len(rs.Rows) != 1 {
		t.Fatalf("expected 1 matching row, got %d: %+v", len(rs.Rows), rs.Rows)
	}
	if got := rs.Rows[0][0].Int(); got != 2 {
		t.Fatalf("expected matching row id 2, got %d", got)
	}
	if got := rs.Rows[0][1].Int(); got != 90000 {
		t.Fatalf("expected salary 90000, got %d", got)
	}
}

// TestBeginCommitSharesOneTransactionAcrossStatements checks that once a
// BEGIN is outstanding, writes issued before the matching COMMIT share one
// Trx instead of each auto-committing on its own.
func TestBeginCommitSharesOneTransactionAcrossStatements(t *testing.T) {
	s := newTestSession(t)
	createEmployeeTable(t, s)

	if _, err := s.Execute(&stmt.ParsedSqlNode{Kind: stmt.KindBegin}); err != nil {
		t.Fatalf("BEGIN: %v", err)
	}
	if !s.InTransaction() {
		t.Fatalf("expected InTransaction() after BEGIN")
	}
	insertEmployee(t, s, 1, 1000)
	insertEmployee(t, s, 2, 2000)
	if _, err := s.Execute(&stmt.ParsedSqlNode{Kind: stmt.KindCommit}); err != nil {
		t.Fatalf("COMMIT: %v", err)
	}
	if s.InTransaction() {
		t.Fatalf("expected InTransaction() to be false after COMMIT")
	}

	countNode := &stmt.ParsedSqlNode{
		Kind: stmt.KindSelect,
		Select: &stmt.SelectNode{
			Relations:   []stmt.RelationRef{{Name: "employee"}},
			Expressions: []*expr.Expr{expr.NewUnboundField("employee", "id", "")},
			Limit:       -1,
		},
	}
	rs, err := s.Execute(countNode)
	if err != nil {
		t.Fatalf("SELECT: %v", err)
	}
	if len(rs.Rows) != 2 {
		t.Fatalf("expected both inserts committed, got %d rows", len(rs.Rows))
	}
}

// TestDoubleBeginIsRejected checks that a second BEGIN before the first
// COMMIT/ROLLBACK is an error rather than silently nesting.
func TestDoubleBeginIsRejected(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Execute(&stmt.ParsedSqlNode{Kind: stmt.KindBegin}); err != nil {
		t.Fatalf("BEGIN: %v", err)
	}
	if _, err := s.Execute(&stmt.ParsedSqlNode{Kind: stmt.KindBegin}); err == nil {
		t.Fatalf("expected second BEGIN to fail")
	}
}

// TestCommitWithoutBeginIsRejected checks auto-commit mode doesn't let a
// stray COMMIT succeed.
func TestCommitWithoutBeginIsRejected(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Execute(&stmt.ParsedSqlNode{Kind: stmt.KindCommit}); err == nil {
		t.Fatalf("expected COMMIT with no open transaction to fail")
	}
}

func TestShowTablesReportsRowCounts(t *testing.T) {
	s := newTestSession(t)
	createEmployeeTable(t, s)
	insertEmployee(t, s, 1, 1000)

	rs, err := s.Execute(&stmt.ParsedSqlNode{Kind: stmt.KindShowTables, ShowTables: &stmt.ShowTablesNode{}})
	if err != nil {
		t.Fatalf("SHOW TABLES: %v", err)
	}
	if len(rs.Columns) != 2 || rs.Columns[1] != "row_count" {
		t.Fatalf("expected a row_count column, got %v", rs.Columns)
	}
	if len(rs.Rows) != 1 {
		t.Fatalf("expected one table row, got %d", len(rs.Rows))
	}
	if got := rs.Rows[0][1].Int(); got != 1 {
		t.Fatalf("expected row_count 1, got %d", got)
	}
}
