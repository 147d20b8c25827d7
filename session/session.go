package session

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/loadsource"
	"github.com/minidb/miniql/logical"
	"github.com/minidb/miniql/physical"
	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/stmt"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/util"
	"github.com/minidb/miniql/value"
)

// Session is one client connection's worth of state: a live Catalog/Engine
// pair and, only while an explicit BEGIN is outstanding, the one Trx every
// statement until COMMIT/ROLLBACK shares. Without an open BEGIN, every
// statement runs in its own auto-committed SimpleTrx — spec.md's Non-goal
// list excludes multi-statement transactions with SAVEPOINTs, not BEGIN/
// COMMIT/ROLLBACK itself.
type Session struct {
	Catalog *catalog.Catalog
	Engine  *physical.Engine
	Binder  *stmt.Binder
	Log     *slog.Logger

	trx txn.Trx
}

// Open loads the catalog at cfg.BaseDir, configures slog per cfg.LogLevel
// (honoring util.InitSlog's LOG_LEVEL-env convention, set here from the
// YAML config if the environment didn't already pick one), and returns a
// ready-to-use Session with no view-definition parser wired — callers that
// need CREATE VIEW expansion to work must set Binder.ParseView themselves,
// since re-parsing SQL text is the external parser's job (spec.md §1).
func Open(cfg Config) (*Session, error) {
	if _, set := os.LookupEnv("LOG_LEVEL"); !set && cfg.LogLevel != "" {
		os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}
	util.InitSlog()

	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create base dir %s: %w", cfg.BaseDir, err)
	}
	cat, err := catalog.Open(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("session: open catalog: %w", err)
	}
	return &Session{
		Catalog: cat,
		Engine:  physical.NewEngine(cat, cfg.BaseDir),
		Binder:  &stmt.Binder{Catalog: cat},
		Log:     slog.Default(),
	}, nil
}

// Close releases every open table/index/blob handle.
func (s *Session) Close() error { return s.Engine.Close() }

// InTransaction reports whether an explicit BEGIN is outstanding.
func (s *Session) InTransaction() bool { return s.trx != nil }

// activeTrx returns the session's open explicit transaction, or a fresh
// auto-commit SimpleTrx if none is open.
func (s *Session) activeTrx() txn.Trx {
	if s.trx != nil {
		return s.trx
	}
	return txn.NewSimpleTrx()
}

// Execute is spec.md §9's HandleSql seam: bind, plan, and run one
// already-parsed statement, returning its tabular result. This is the one
// entry point a network/REPL layer in front of this core calls.
func (s *Session) Execute(node *stmt.ParsedSqlNode) (*physical.ResultSet, error) {
	bound, err := s.Binder.Create(node)
	if err != nil {
		return nil, err
	}
	return s.ExecuteStmt(bound)
}

// ExecuteStmt runs an already-bound statement, useful for a caller (tests,
// loadsource's own bulk path) that already holds a *stmt.Stmt and wants to
// skip re-binding.
func (s *Session) ExecuteStmt(bound *stmt.Stmt) (*physical.ResultSet, error) {
	switch bound.Kind {
	case stmt.KindBegin:
		return s.begin(bound)
	case stmt.KindCommit:
		return s.commit(bound)
	case stmt.KindRollback:
		return s.rollback(bound)
	case stmt.KindLoadData:
		return s.executeLoadData(bound)
	default:
		return s.executeRelational(bound)
	}
}

func (s *Session) begin(bound *stmt.Stmt) (*physical.ResultSet, error) {
	if s.trx != nil {
		return nil, rc.New(rc.INVALID_ARGUMENT, "a transaction is already in progress (id %s)", s.trx.ID())
	}
	s.trx = txn.NewSimpleTrx()
	s.Log.Info("transaction started", "txn", s.trx.ID())
	return physical.Collect(physical.NewPassthrough(s.Engine, bound), s.trx)
}

func (s *Session) commit(bound *stmt.Stmt) (*physical.ResultSet, error) {
	if s.trx == nil {
		return nil, rc.New(rc.INVALID_ARGUMENT, "no transaction in progress")
	}
	tx := s.trx
	s.trx = nil
	rs, err := physical.Collect(physical.NewPassthrough(s.Engine, bound), tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.Log.Info("transaction committed", "txn", tx.ID())
	return rs, nil
}

func (s *Session) rollback(bound *stmt.Stmt) (*physical.ResultSet, error) {
	if s.trx == nil {
		return nil, rc.New(rc.INVALID_ARGUMENT, "no transaction in progress")
	}
	tx := s.trx
	s.trx = nil
	rs, err := physical.Collect(physical.NewPassthrough(s.Engine, bound), tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Rollback(); err != nil {
		return nil, err
	}
	s.Log.Info("transaction rolled back", "txn", tx.ID())
	return rs, nil
}

// executeLoadData defers to package loadsource's connector registry
// (physical.Passthrough explicitly refuses this kind, see its KindLoadData
// case) so physical stays free of database/sql driver imports.
func (s *Session) executeLoadData(bound *stmt.Stmt) (*physical.ResultSet, error) {
	tx := s.activeTrx()
	count, err := loadsource.Load(s.Engine, tx, bound.LoadData)
	if err != nil {
		return nil, err
	}
	if s.trx == nil {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	return &physical.ResultSet{
		Columns: []string{"rows_loaded"},
		Rows:    [][]value.Value{{value.NewInt(int32(count))}},
	}, nil
}

// executeRelational handles every statement with a logical plan: SELECT,
// INSERT/UPDATE/DELETE, CREATE TABLE/INDEX, EXPLAIN, CALC, and every
// Passthrough-backed DDL/session kind logical.Plan wraps as one node.
func (s *Session) executeRelational(bound *stmt.Stmt) (*physical.ResultSet, error) {
	plan, err := logical.Plan(bound)
	if err != nil {
		return nil, err
	}
	tx := s.activeTrx()
	op, err := physical.Plan(s.Engine, plan, tx)
	if err != nil {
		return nil, err
	}
	rs, err := physical.Collect(op, tx)
	if err != nil {
		if s.trx == nil {
			tx.Rollback()
		}
		return nil, err
	}
	if s.trx == nil {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	return rs, nil
}
