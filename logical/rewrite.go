package logical

import "github.com/minidb/miniql/expr"

// PushDownPredicates implements spec.md §4.4's rewriter: it relocates
// filter leaves that reference exactly one table down onto that table's
// TableGet, so the physical planner can see them when choosing an access
// method. AND conjunctions migrate eligible leaves individually, leaving
// whatever can't move behind as a smaller residual Predicate (collapsed
// away entirely if nothing remains). OR conjunctions move as one unit,
// and only when every leaf is eligible for the very same table. Each
// Predicate is attempted at most once (LogicalOp.pushdownAttempted),
// so re-running this over an already-rewritten tree is a no-op rather
// than looping.
func PushDownPredicates(op *LogicalOp) *LogicalOp {
	if op == nil {
		return nil
	}
	op.Child = PushDownPredicates(op.Child)
	op.Left = PushDownPredicates(op.Left)
	op.Right = PushDownPredicates(op.Right)
	if op.Kind == Predicate && !op.pushdownAttempted {
		return pushDownOne(op)
	}
	return op
}

func pushDownOne(p *LogicalOp) *LogicalOp {
	p.pushdownAttempted = true
	if p.Filter.Kind == expr.Conjunction && p.Filter.ConjType == expr.Or {
		return pushDownOr(p)
	}
	return pushDownAnd(p)
}

func pushDownAnd(p *LogicalOp) *LogicalOp {
	leaves := flattenAnd(p.Filter)
	var residual []*expr.Expr
	for _, leaf := range leaves {
		table, ok := analyzeLeaf(leaf)
		if !ok {
			residual = append(residual, leaf)
			continue
		}
		tg := findTableGet(p.Child, table)
		if tg == nil {
			residual = append(residual, leaf)
			continue
		}
		pushOnto(tg, leaf)
	}
	if len(residual) == 0 {
		return p.Child
	}
	p.Filter = foldAnd(residual)
	return p
}

func pushDownOr(p *LogicalOp) *LogicalOp {
	table := ""
	eligible := true
	for _, leaf := range p.Filter.Children {
		t, ok := analyzeLeaf(leaf)
		if !ok || (table != "" && t != table) {
			eligible = false
			break
		}
		table = t
	}
	if !eligible || table == "" {
		return p
	}
	tg := findTableGet(p.Child, table)
	if tg == nil {
		return p
	}
	pushOnto(tg, p.Filter)
	return p.Child
}

// flattenAnd splits a (possibly nested) AND conjunction into its leaves;
// a non-AND expression is its own single-element leaf list.
func flattenAnd(f *expr.Expr) []*expr.Expr {
	if f.Kind == expr.Conjunction && f.ConjType == expr.And {
		var out []*expr.Expr
		for _, c := range f.Children {
			out = append(out, flattenAnd(c)...)
		}
		return out
	}
	return []*expr.Expr{f}
}

func foldAnd(leaves []*expr.Expr) *expr.Expr {
	if len(leaves) == 1 {
		return leaves[0]
	}
	return expr.NewConjunction(expr.And, leaves)
}

// analyzeLeaf reports the single table a pushable leaf refers to. A leaf
// is pushable only when every Field operand names the same table and no
// Subquery/Aggregation/unbound node appears anywhere in it.
func analyzeLeaf(e *expr.Expr) (table string, ok bool) {
	tables := map[string]bool{}
	pure := true
	var walk func(e *expr.Expr)
	walk = func(e *expr.Expr) {
		if e == nil || !pure {
			return
		}
		switch e.Kind {
		case expr.Subquery, expr.Aggregation, expr.UnboundField, expr.UnboundAggregate:
			pure = false
			return
		case expr.Field:
			tables[identifierOf(e)] = true
		}
		walk(e.Left)
		walk(e.Right)
		walk(e.Child)
		for _, c := range e.Children {
			walk(c)
		}
	}
	walk(e)
	if !pure || len(tables) != 1 {
		return "", false
	}
	for t := range tables {
		table = t
	}
	return table, true
}

func identifierOf(e *expr.Expr) string {
	if e.TableAlias != "" {
		return e.TableAlias
	}
	return e.TableName
}

func tableGetKey(tg *LogicalOp) string {
	if tg.Alias != "" {
		return tg.Alias
	}
	if tg.Table != nil {
		return tg.Table.Name
	}
	return ""
}

// findTableGet locates the TableGet within op's subtree matching key,
// walking down through Predicate/Join/GroupBy/OrderBy/Project wrappers.
func findTableGet(op *LogicalOp, key string) *LogicalOp {
	if op == nil {
		return nil
	}
	if op.Kind == TableGet {
		if tableGetKey(op) == key {
			return op
		}
		return nil
	}
	if tg := findTableGet(op.Left, key); tg != nil {
		return tg
	}
	if tg := findTableGet(op.Right, key); tg != nil {
		return tg
	}
	return findTableGet(op.Child, key)
}

// pushOnto ANDs leaf into tg's already-pushed filter, if any.
func pushOnto(tg *LogicalOp, leaf *expr.Expr) {
	if tg.Pushed == nil {
		tg.Pushed = leaf
		return
	}
	tg.Pushed = expr.NewConjunction(expr.And, []*expr.Expr{tg.Pushed, leaf})
}
