// Passthrough executes every statement kind with no relational shape
// (logical.Passthrough): CREATE VIEW, CREATE VECTOR INDEX, DROP
// TABLE/INDEX, SHOW TABLES, DESC TABLE, SET, LOAD DATA, and the
// session-control statements, each producing whatever single-row (or
// multi-row, for SHOW/DESC) result fits spec.md §4.3's ExternalInterfaces
// contract.
package physical

import (
	"fmt"

	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/stmt"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

type Passthrough struct {
	Engine *Engine
	Stmt   *stmt.Stmt

	rows []*expr.ValueListTuple
	pos  int
}

func NewPassthrough(e *Engine, s *stmt.Stmt) *Passthrough {
	return &Passthrough{Engine: e, Stmt: s}
}

func oneMessageRow(msg string) []*expr.ValueListTuple {
	return []*expr.ValueListTuple{{
		Values: []value.Value{value.NewText([]byte(msg))},
		Specs:  []expr.TupleCellSpec{expr.NewAliasSpec("message")},
	}}
}

func (p *Passthrough) Open(tx txn.Trx) error {
	s := p.Stmt
	switch s.Kind {
	case stmt.KindCreateView:
		if err := p.Engine.Catalog.CreateView(*s.CreateView.View); err != nil {
			return err
		}
		p.rows = oneMessageRow("view " + s.CreateView.View.Name + " created")

	case stmt.KindCreateVectorIndex:
		meta := p.Engine.Catalog.Table(s.CreateVectorIndex.Table)
		if meta == nil {
			return rc.New(rc.SCHEMA_TABLE_NOT_EXIST, "table %s does not exist", s.CreateVectorIndex.Table)
		}
		if err := p.Engine.CreateVectorIndex(meta, s.CreateVectorIndex.Index); err != nil {
			return err
		}
		p.rows = oneMessageRow("vector index " + s.CreateVectorIndex.Index.Name + " created")

	case stmt.KindDropTable:
		meta := p.Engine.Catalog.Table(s.DropTable.Table)
		if meta == nil {
			return rc.New(rc.SCHEMA_TABLE_NOT_EXIST, "table %s does not exist", s.DropTable.Table)
		}
		if err := p.Engine.DropTable(meta); err != nil {
			return err
		}
		p.rows = oneMessageRow("table " + s.DropTable.Table + " dropped")

	case stmt.KindDropIndex:
		meta := p.Engine.Catalog.Table(s.DropIndex.Table)
		if meta == nil {
			return rc.New(rc.SCHEMA_TABLE_NOT_EXIST, "table %s does not exist", s.DropIndex.Table)
		}
		if err := p.Engine.DropIndex(meta, s.DropIndex.Index); err != nil {
			return err
		}
		p.rows = oneMessageRow("index " + s.DropIndex.Index + " dropped")

	case stmt.KindShowTables:
		// Row counts for distinct tables are independent reads of separate
		// data files, fanned out with the same bounded-concurrency helper
		// the teacher's database/concurrent.go generalizes into
		// catalog.ConcurrentMapFuncWithError, instead of scanning them one
		// at a time.
		counts, err := catalog.ConcurrentMapFuncWithError(s.ShowTables.Names, 4, func(name string) (int, error) {
			meta := p.Engine.Catalog.Table(name)
			if meta == nil {
				return 0, nil
			}
			tbl, err := p.Engine.Table(meta)
			if err != nil {
				return 0, err
			}
			scanner := tbl.NewScanner()
			n := 0
			for {
				_, _, ok, err := scanner.Next()
				if err != nil {
					return 0, err
				}
				if !ok {
					return n, nil
				}
				n++
			}
		})
		if err != nil {
			return err
		}
		p.rows = nil
		for i, name := range s.ShowTables.Names {
			p.rows = append(p.rows, &expr.ValueListTuple{
				Values: []value.Value{value.NewText([]byte(name)), value.NewInt(int32(counts[i]))},
				Specs:  []expr.TupleCellSpec{expr.NewAliasSpec("table_name"), expr.NewAliasSpec("row_count")},
			})
		}

	case stmt.KindDescTable:
		p.rows = nil
		for _, f := range s.DescTable.Table.UserFields {
			p.rows = append(p.rows, &expr.ValueListTuple{
				Values: []value.Value{
					value.NewText([]byte(f.Name)),
					value.NewText([]byte(f.Type.String())),
					value.NewBool(f.Nullable),
				},
				Specs: []expr.TupleCellSpec{expr.NewAliasSpec("field"), expr.NewAliasSpec("type"), expr.NewAliasSpec("nullable")},
			})
		}

	case stmt.KindSetVariable:
		p.rows = oneMessageRow(fmt.Sprintf("%s = %s", s.SetVariable.Name, s.SetVariable.Value))

	case stmt.KindLoadData:
		// Driven by package loadsource's connector registry; Passthrough
		// only reports the outcome here, the import itself runs through
		// the session layer so this package stays free of DB-driver deps.
		return rc.New(rc.UNIMPLEMENTED, "LOAD DATA must be executed by the session layer's loadsource dispatch")

	case stmt.KindBegin:
		p.rows = oneMessageRow("transaction started")
	case stmt.KindCommit:
		p.rows = oneMessageRow("transaction committed")
	case stmt.KindRollback:
		p.rows = oneMessageRow("transaction rolled back")
	case stmt.KindExit:
		p.rows = oneMessageRow("bye")
	case stmt.KindHelp:
		p.rows = oneMessageRow("see spec.md for the supported statement grammar")

	default:
		return fmt.Errorf("physical: passthrough: unhandled statement kind %v", s.Kind)
	}
	p.pos = 0
	return nil
}

func (p *Passthrough) Next() (bool, error) {
	if p.pos >= len(p.rows) {
		return false, nil
	}
	p.pos++
	return true, nil
}

func (p *Passthrough) Current() (expr.Tuple, error) {
	if p.pos == 0 || p.pos > len(p.rows) {
		return nil, fmt.Errorf("physical: passthrough has no current row")
	}
	return p.rows[p.pos-1], nil
}

func (p *Passthrough) Close() error { return nil }

func (p *Passthrough) SetOuterTuple(outer expr.Tuple) {}
