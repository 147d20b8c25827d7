// Explain renders the logical plan tree as one row per node, indented by
// depth; the physical operators the planner picks for it (IndexScan,
// VectorIndexScan, ...) do not appear. Pushed-down predicates and filter
// conditions are printed with k0kubun/pp; the other nodes show only a
// name and counts (exprs, group keys, order keys).
package physical

import (
	"fmt"
	"strings"

	"github.com/k0kubun/pp/v3"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/logical"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

type Explain struct {
	Plan *logical.LogicalOp

	lines []string
	pos   int
}

func NewExplain(plan *logical.LogicalOp) *Explain {
	return &Explain{Plan: plan}
}

func (e *Explain) Open(tx txn.Trx) error {
	var lines []string
	renderLogical(e.Plan, 0, &lines)
	e.lines = lines
	e.pos = 0
	return nil
}

func renderLogical(op *logical.LogicalOp, depth int, lines *[]string) {
	if op == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	*lines = append(*lines, indent+describeLogical(op))
	if op.Child != nil {
		renderLogical(op.Child, depth+1, lines)
	}
	if op.Left != nil {
		renderLogical(op.Left, depth+1, lines)
	}
	if op.Right != nil {
		renderLogical(op.Right, depth+1, lines)
	}
}

func describeLogical(op *logical.LogicalOp) string {
	switch op.Kind {
	case logical.TableGet:
		detail := op.Table.Name
		if op.Alias != "" && op.Alias != op.Table.Name {
			detail += " AS " + op.Alias
		}
		if op.Pushed != nil {
			detail += " (pushed: " + pp.Sprint(op.Pushed) + ")"
		}
		if op.NotUseIndex {
			detail += " [no index]"
		}
		return "TABLE GET " + detail
	case logical.Predicate:
		return "PREDICATE " + pp.Sprint(op.Filter)
	case logical.Project:
		limit := "unbounded"
		if op.Limit >= 0 {
			limit = fmt.Sprintf("%d", op.Limit)
		}
		return fmt.Sprintf("PROJECT %d exprs, limit=%s", len(op.Exprs), limit)
	case logical.Join:
		return "JOIN"
	case logical.Insert:
		return fmt.Sprintf("INSERT INTO %s (%d rows)", op.Table.Name, len(op.Rows))
	case logical.Delete:
		return "DELETE FROM " + op.Table.Name
	case logical.Update:
		return fmt.Sprintf("UPDATE %s SET %d columns", op.Table.Name, len(op.Sets))
	case logical.Explain:
		return "EXPLAIN"
	case logical.Calc:
		return "CALC"
	case logical.GroupBy:
		return fmt.Sprintf("GROUP BY %d keys, %d aggregates", len(op.GroupKeys), len(op.Aggregates))
	case logical.OrderBy:
		return fmt.Sprintf("ORDER BY %d keys", len(op.OrderKeys))
	case logical.CreateIndex:
		return "CREATE INDEX " + op.IndexMeta.Name + " ON " + op.TableName
	case logical.CreateTable:
		return "CREATE TABLE " + op.Table.Name
	case logical.Passthrough:
		return fmt.Sprintf("PASSTHROUGH %v", op.Stmt.Kind)
	default:
		return "UNKNOWN"
	}
}

func (e *Explain) Next() (bool, error) {
	if e.pos >= len(e.lines) {
		return false, nil
	}
	e.pos++
	return true, nil
}

func (e *Explain) Current() (expr.Tuple, error) {
	if e.pos == 0 || e.pos > len(e.lines) {
		return nil, fmt.Errorf("physical: explain has no current row")
	}
	return &expr.ValueListTuple{
		Values: []value.Value{value.NewText([]byte(e.lines[e.pos-1]))},
		Specs:  []expr.TupleCellSpec{expr.NewAliasSpec("plan")},
	}, nil
}

func (e *Explain) Close() error { return nil }

func (e *Explain) SetOuterTuple(outer expr.Tuple) {}
