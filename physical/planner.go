// Grounded on original_source/.../sql/optimizer/physical_plan_generator.cpp:
// Plan walks a logical.LogicalOp tree and picks the concrete Operator for
// each node. Two access-method decisions live here rather than in logical
// planning, matching the original's split between logical_plan_generator
// and physical_plan_generator: a TableGet chooses IndexScan over TableScan
// when its pushed predicate is an equality conjunction whose field set
// matches a B+tree index exactly (create_plan(TableGetLogicalOperator&)),
// and a Project whose sole child is an OrderBy-by-vector-distance over a
// bare TableGet fuses into a single VectorIndexScan when a matching vector
// index exists (create_plan(ProjectLogicalOperator&)). The original's
// vectorized/chunked create_vec_plan family has no counterpart here: every
// statement runs the row-at-a-time pull protocol.
package physical

import (
	"fmt"

	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/logical"
	"github.com/minidb/miniql/stmt"
	"github.com/minidb/miniql/txn"
	"github.com/minidb/miniql/value"
)

// Plan turns a logical plan into an executable physical Operator. Every
// subquery expression reachable from op is compiled into its own nested
// operator and installed onto the Expr's Runner field before the rest of
// the tree is built, mirroring the original's practice of creating a
// subquery's physical operator at the same point its owning comparison or
// predicate is planned (see create_plan(TableGetLogicalOperator&) and
// create_plan(PredicateLogicalOperator&) each calling create() on a
// SubqueryExpr's logical operator inline).
func Plan(e *Engine, op *logical.LogicalOp, tx txn.Trx) (Operator, error) {
	if err := bindLogicalSubqueries(e, tx, op); err != nil {
		return nil, err
	}
	return planOp(e, op, tx)
}

func planOp(e *Engine, op *logical.LogicalOp, tx txn.Trx) (Operator, error) {
	if op == nil {
		return nil, fmt.Errorf("physical: plan: nil logical operator")
	}

	switch op.Kind {
	case logical.TableGet:
		return planTableGet(e, op, tx)

	case logical.Predicate:
		child, err := planOp(e, op.Child, tx)
		if err != nil {
			return nil, err
		}
		return NewPredicate(child, op.Filter), nil

	case logical.Project:
		return planProject(e, op, tx)

	case logical.Join:
		left, err := planOp(e, op.Left, tx)
		if err != nil {
			return nil, err
		}
		right, err := planOp(e, op.Right, tx)
		if err != nil {
			return nil, err
		}
		return NewNestedLoopJoin(left, right), nil

	case logical.Insert:
		return NewInsert(e, op.Table, op.View, op.Columns, op.Rows), nil

	case logical.Delete:
		child, err := planOp(e, op.Child, tx)
		if err != nil {
			return nil, err
		}
		return NewDelete(e, child, op.Table, op.View), nil

	case logical.Update:
		child, err := planOp(e, op.Child, tx)
		if err != nil {
			return nil, err
		}
		return NewUpdate(e, child, op.Table, op.View, op.Sets), nil

	case logical.Explain:
		return NewExplain(op.Child), nil

	case logical.Calc:
		return NewCalc(op.CalcExprs), nil

	case logical.GroupBy:
		child, err := planOp(e, op.Child, tx)
		if err != nil {
			return nil, err
		}
		if len(op.GroupKeys) == 0 {
			return NewScalarGroupBy(child, op.Aggregates), nil
		}
		return NewHashGroupBy(child, op.GroupKeys, op.Aggregates), nil

	case logical.OrderBy:
		child, err := planOp(e, op.Child, tx)
		if err != nil {
			return nil, err
		}
		return NewOrderBy(child, op.OrderKeys), nil

	case logical.CreateTable:
		return newDDLOp(func() error { return e.CreateTable(op.Table) },
			"table "+op.Table.Name+" created"), nil

	case logical.CreateIndex:
		meta := e.Catalog.Table(op.TableName)
		if meta == nil {
			return nil, fmt.Errorf("physical: plan: create index: table %s does not exist", op.TableName)
		}
		return newDDLOp(func() error { return e.CreateIndex(meta, op.IndexMeta) },
			"index "+op.IndexMeta.Name+" created"), nil

	case logical.Passthrough:
		return NewPassthrough(e, op.Stmt), nil

	default:
		return nil, fmt.Errorf("physical: plan: unhandled logical kind %v", op.Kind)
	}
}

// bindLogicalSubqueries walks every expression reachable from a logical
// tree and compiles each not-yet-planned subquery (Expr.Plan holding a
// bound *stmt.SelectStmt, Expr.Runner still nil) into its own operator.
func bindLogicalSubqueries(e *Engine, tx txn.Trx, op *logical.LogicalOp) error {
	if op == nil {
		return nil
	}
	var exprs []*expr.Expr
	exprs = append(exprs, op.Pushed, op.Filter, op.Having)
	exprs = append(exprs, op.Exprs...)
	exprs = append(exprs, op.CalcExprs...)
	exprs = append(exprs, op.GroupKeys...)
	exprs = append(exprs, op.Aggregates...)
	for _, k := range op.OrderKeys {
		exprs = append(exprs, k.Expr)
	}
	for _, row := range op.Rows {
		exprs = append(exprs, row...)
	}
	for _, sc := range op.Sets {
		exprs = append(exprs, sc.Value)
	}
	if err := resolveSubqueries(e, tx, exprs); err != nil {
		return err
	}

	for _, child := range []*logical.LogicalOp{op.Child, op.Left, op.Right} {
		if err := bindLogicalSubqueries(e, tx, child); err != nil {
			return err
		}
	}
	return nil
}

// resolveSubqueries recursively visits each expr tree in exprs, compiling
// any Subquery-kind leaf whose Plan still holds a bound *stmt.SelectStmt
// into a physical operator and installing it as that Expr's Runner.
func resolveSubqueries(e *Engine, tx txn.Trx, exprs []*expr.Expr) error {
	for _, ex := range exprs {
		if ex == nil {
			continue
		}
		if ex.Kind == expr.Subquery && ex.Runner == nil {
			sel, ok := ex.Plan.(*stmt.SelectStmt)
			if !ok {
				continue
			}
			innerLogical, err := logical.Plan(&stmt.Stmt{Kind: stmt.KindSelect, Select: sel})
			if err != nil {
				return err
			}
			innerOp, err := Plan(e, innerLogical, tx)
			if err != nil {
				return err
			}
			ex.Runner = AsSubqueryRunner(innerOp, tx)
			continue
		}
		if err := resolveSubqueries(e, tx, []*expr.Expr{ex.Left, ex.Right, ex.Child}); err != nil {
			return err
		}
		if err := resolveSubqueries(e, tx, ex.Children); err != nil {
			return err
		}
	}
	return nil
}

// planTableGet resolves a TableGet's access method: a view's own inner
// query plan wrapped as a ViewScan, an IndexScan when the pushed predicate
// is an equality conjunction matching one of the table's indexes exactly,
// or a plain TableScan otherwise.
func planTableGet(e *Engine, op *logical.LogicalOp, tx txn.Trx) (Operator, error) {
	if op.View != nil {
		// The view's inner query plans independently of this TableGet node;
		// re-derive it from the stored definition each time it is scanned.
		innerPlan, err := logical.Plan(&stmt.Stmt{Kind: stmt.KindSelect, Select: op.ViewQuery})
		if err != nil {
			return nil, fmt.Errorf("physical: plan: view %s: %w", op.View.Name, err)
		}
		innerOp, err := Plan(e, innerPlan, tx)
		if err != nil {
			return nil, fmt.Errorf("physical: plan: view %s: %w", op.View.Name, err)
		}
		return NewViewScan(op.View.Name, op.Alias, op.View.Columns, innerOp), nil
	}

	filters := filterList(op.Pushed)

	if !op.NotUseIndex {
		if fields, values, ok := equalityFieldSet(op.Pushed); ok {
			if im := op.Table.IndexByFieldSet(fields); im != nil {
				return NewIndexScan(e, op.Table, op.Alias, im.Name, values, true, values, true, filters), nil
			}
		}
	}

	return NewTableScan(e, op.Table, op.Alias, filters), nil
}

// filterList wraps a (possibly nil) pushed predicate into the []*expr.Expr
// form TableScan/IndexScan expect; a Conjunction stays as one entry since
// scans AND every entry in the list regardless of how many there are.
func filterList(pushed *expr.Expr) []*expr.Expr {
	if pushed == nil {
		return nil
	}
	return []*expr.Expr{pushed}
}

// equalityFieldSet collects the equality comparisons of one Field against
// one constant Value found in pushed (a single comparison, or the direct
// children of an AND conjunction), the only shape the original's simple
// index-matching logic handles (physical_plan_generator.cpp's
// "简单处理，就找等值查询"); other conjuncts are skipped. Returns the field
// names and their matching values in encounter order, and ok=false when
// no such equality is found.
func equalityFieldSet(pushed *expr.Expr) ([]string, []value.Value, bool) {
	if pushed == nil {
		return nil, nil, false
	}
	var comparisons []*expr.Expr
	switch {
	case pushed.Kind == expr.Conjunction && pushed.ConjType == expr.And:
		for _, c := range pushed.Children {
			if c.Kind == expr.Comparison {
				comparisons = append(comparisons, c)
			}
		}
	case pushed.Kind == expr.Comparison:
		comparisons = append(comparisons, pushed)
	default:
		return nil, nil, false
	}
	if len(comparisons) == 0 {
		return nil, nil, false
	}

	var fields []string
	var values []value.Value
	for _, c := range comparisons {
		if c.Op != expr.EQ {
			continue
		}
		var fieldExpr, valueExpr *expr.Expr
		if c.Left.Kind == expr.Field && c.Right.Kind == expr.ValueExpr {
			fieldExpr, valueExpr = c.Left, c.Right
		} else if c.Right.Kind == expr.Field && c.Left.Kind == expr.ValueExpr {
			fieldExpr, valueExpr = c.Right, c.Left
		} else {
			continue
		}
		fields = append(fields, fieldExpr.FieldName)
		values = append(values, valueExpr.Val)
	}
	if len(fields) == 0 {
		return nil, nil, false
	}
	return fields, values, true
}

// planProject detects the Project(limit) -> OrderBy(single VectorDistance
// key) -> TableGet shape and fuses it into one VectorIndexScan when the
// ordered field carries a vector index of the matching distance type;
// otherwise it plans the child normally and wraps it in Project.
func planProject(e *Engine, op *logical.LogicalOp, tx txn.Trx) (Operator, error) {
	if fused, ok, err := tryVectorIndexFusion(e, op); err != nil {
		return nil, err
	} else if ok {
		return fused, nil
	}

	child, err := planOp(e, op.Child, tx)
	if err != nil {
		return nil, err
	}
	return NewProject(child, op.Exprs, op.Limit), nil
}

func tryVectorIndexFusion(e *Engine, op *logical.LogicalOp) (Operator, bool, error) {
	if op.Limit < 0 || op.Child == nil || op.Child.Kind != logical.OrderBy {
		return nil, false, nil
	}
	orderBy := op.Child
	if len(orderBy.OrderKeys) != 1 {
		return nil, false, nil
	}
	key := orderBy.OrderKeys[0].Expr
	if key.Kind != expr.VectorDistance {
		return nil, false, nil
	}

	var fieldExpr, valueExpr *expr.Expr
	if key.Left.Kind == expr.Field && key.Right.Kind == expr.ValueExpr && key.Right.Val.Tag == value.VECTORS {
		fieldExpr, valueExpr = key.Left, key.Right
	} else if key.Right.Kind == expr.Field && key.Left.Kind == expr.ValueExpr && key.Left.Val.Tag == value.VECTORS {
		fieldExpr, valueExpr = key.Right, key.Left
	} else {
		return nil, false, nil
	}

	if orderBy.Child == nil || orderBy.Child.Kind != logical.TableGet || orderBy.Child.View != nil {
		return nil, false, nil
	}
	tableGet := orderBy.Child
	vim := tableGet.Table.VectorIndexByField(fieldExpr.FieldName, key.DistType)
	if vim == nil {
		return nil, false, nil
	}

	query := valueExpr.Val.Vector().Floats
	return NewVectorIndexScan(e, tableGet.Table, tableGet.Alias, vim.Name, query, op.Limit), true, nil
}

// ddlOp runs a one-shot DDL side effect and reports it back as a single
// message row, the same shape Passthrough uses for its own one-liners.
type ddlOp struct {
	run func() error
	msg string
	out []*expr.ValueListTuple
	pos int
}

func newDDLOp(run func() error, msg string) *ddlOp { return &ddlOp{run: run, msg: msg} }

func (d *ddlOp) Open(tx txn.Trx) error {
	if err := d.run(); err != nil {
		return err
	}
	d.out = oneMessageRow(d.msg)
	d.pos = 0
	return nil
}

func (d *ddlOp) Next() (bool, error) {
	if d.pos >= len(d.out) {
		return false, nil
	}
	d.pos++
	return true, nil
}

func (d *ddlOp) Current() (expr.Tuple, error) {
	if d.pos == 0 || d.pos > len(d.out) {
		return nil, fmt.Errorf("physical: create table/index op has no current row")
	}
	return d.out[d.pos-1], nil
}

func (d *ddlOp) Close() error { return nil }

func (d *ddlOp) SetOuterTuple(outer expr.Tuple) {}
