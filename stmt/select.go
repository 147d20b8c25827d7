package stmt

import (
	"github.com/minidb/miniql/catalog"
	"github.com/minidb/miniql/expr"
	"github.com/minidb/miniql/rc"
)

// ViewDefinitionParser re-parses a view's stored definition SQL into the
// same ParsedSqlNode shape the external parser builds for any other
// SELECT. Binding a query against a view requires this since only the SQL
// text survives in the catalog (spec.md §4.3's view-expansion step);
// Binder callers that never touch a view may leave it nil.
type ViewDefinitionParser func(definitionSQL string) (*SelectNode, error)

// Binder carries the state threaded through one statement's binding pass:
// the schema catalog and the optional view-definition reparser.
type Binder struct {
	Catalog   *catalog.Catalog
	ParseView ViewDefinitionParser
}

// BindSelect is spec.md §4.3's SELECT factory: resolve relations
// (expanding views), bind every expression, combine WHERE/HAVING
// condition lists, and validate GROUP BY. outer is nil for a top-level
// query and the enclosing BinderContext for a subquery.
func (b *Binder) BindSelect(outer *expr.BinderContext, node *SelectNode) (*SelectStmt, error) {
	ctx := expr.NewBinderContext(outer)

	relations := make([]BoundRelation, 0, len(node.Relations))
	for _, ref := range node.Relations {
		alias := ref.Alias
		if alias == "" {
			alias = ref.Name
		}
		if b.Catalog.IsView(ref.Name) {
			rel, err := b.bindViewRelation(ref.Name, alias)
			if err != nil {
				return nil, err
			}
			ctx.AddTable(alias, rel.Table)
			relations = append(relations, rel)
			continue
		}
		table := b.Catalog.Table(ref.Name)
		if table == nil {
			return nil, rc.New(rc.SCHEMA_TABLE_NOT_EXIST, "table %q does not exist", ref.Name)
		}
		ctx.AddTable(alias, table)
		relations = append(relations, BoundRelation{Table: table, Alias: alias})
	}

	projections, err := b.bindProjectionList(ctx, node.Expressions)
	if err != nil {
		return nil, err
	}

	filter, err := b.buildConjunction(ctx, node.Conditions)
	if err != nil {
		return nil, err
	}

	groupBy := make([]*expr.Expr, len(node.GroupBy))
	for i, g := range node.GroupBy {
		bound, err := b.bindExprTree(ctx, g)
		if err != nil {
			return nil, err
		}
		groupBy[i] = bound
	}

	having, err := b.buildConjunction(ctx, node.Havings)
	if err != nil {
		return nil, err
	}

	if having != nil && len(groupBy) == 0 && !anyAggregate(projections) {
		return nil, rc.New(rc.INVALID_ARGUMENT, "HAVING requires GROUP BY or an aggregate SELECT list")
	}
	if err := validateGroupBy(projections, groupBy); err != nil {
		return nil, err
	}

	orderBy := make([]OrderKey, len(node.OrderBy))
	for i, o := range node.OrderBy {
		bound, err := b.bindExprTree(ctx, o.Expr)
		if err != nil {
			return nil, err
		}
		orderBy[i] = OrderKey{Expr: bound, Desc: o.Desc}
	}

	return &SelectStmt{
		Relations:   relations,
		Projections: projections,
		Filter:      filter,
		GroupBy:     groupBy,
		Having:      having,
		OrderBy:     orderBy,
		Limit:       node.Limit,
	}, nil
}

func (b *Binder) bindViewRelation(name, alias string) (BoundRelation, error) {
	view := b.Catalog.View(name)
	if b.ParseView == nil {
		return BoundRelation{}, rc.New(rc.UNIMPLEMENTED, "no view-definition parser configured to expand view %q", name)
	}
	defNode, err := b.ParseView(view.Definition)
	if err != nil {
		return BoundRelation{}, err
	}
	query, err := b.BindSelect(nil, defNode)
	if err != nil {
		return BoundRelation{}, err
	}
	schema := buildViewSchema(view, query)
	return BoundRelation{Table: schema, Alias: alias, View: view, Query: query}, nil
}

func (b *Binder) bindProjectionList(ctx *expr.BinderContext, exprs []*expr.Expr) ([]*expr.Expr, error) {
	var out []*expr.Expr
	for _, e := range exprs {
		if e.Kind == expr.Star {
			expanded, err := expr.ExpandStar(ctx, e.StarTableAlias)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		bound, err := b.bindExprTree(ctx, e)
		if err != nil {
			return nil, err
		}
		out = append(out, bound)
	}
	return out, nil
}

// buildConjunction binds each condition's operands and folds the list into
// one Comparison/Conjunction tree. The parser contract hands over a flat
// list of conditions each tagged with the conjunction joining it to the
// next; this dialect's grammar never mixes AND and OR without parentheses
// in one list, so every condition after the first is expected to carry the
// same ConjType, and that shared type becomes the Conjunction's.
func (b *Binder) buildConjunction(ctx *expr.BinderContext, conds []ConditionNode) (*expr.Expr, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	comparisons := make([]*expr.Expr, len(conds))
	for i, c := range conds {
		left, err := b.bindExprTree(ctx, c.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.bindExprTree(ctx, c.Right)
		if err != nil {
			return nil, err
		}
		comparisons[i] = expr.NewComparison(c.Op, left, right)
	}
	if len(comparisons) == 1 {
		return comparisons[0], nil
	}
	return expr.NewConjunction(conds[0].Conj, comparisons), nil
}

// bindExprTree walks e, resolving UnboundField/UnboundAggregate and
// recursively binding any nested subquery's Plan payload. expr.BindExpr
// alone isn't enough here: it treats Subquery as already-bound and never
// looks inside it, since package expr cannot know about stmt.ParsedSqlNode.
func (b *Binder) bindExprTree(ctx *expr.BinderContext, e *expr.Expr) (*expr.Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Kind {
	case expr.UnboundField, expr.UnboundAggregate:
		return expr.BindExpr(ctx, e)

	case expr.Cast:
		child, err := b.bindExprTree(ctx, e.Child)
		if err != nil {
			return nil, err
		}
		return expr.NewCast(child, e.CastType), nil

	case expr.Comparison, expr.Arithmetic, expr.Like, expr.VectorDistance, expr.Is:
		left, err := b.bindExprTree(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.bindExprTree(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		bound := *e
		bound.Left, bound.Right = left, right
		return &bound, nil

	case expr.Conjunction:
		children := make([]*expr.Expr, len(e.Children))
		for i, c := range e.Children {
			bound, err := b.bindExprTree(ctx, c)
			if err != nil {
				return nil, err
			}
			children[i] = bound
		}
		bound := *e
		bound.Children = children
		return &bound, nil

	case expr.Subquery:
		return b.bindSubqueryExpr(ctx, e)

	default:
		// Field, ValueExpr, ValueList, SpecialPlaceholder: already resolved.
		return e, nil
	}
}

func (b *Binder) bindSubqueryExpr(outer *expr.BinderContext, e *expr.Expr) (*expr.Expr, error) {
	node, ok := e.Plan.(*ParsedSqlNode)
	if !ok {
		// Already bound (e.g. re-binding an already-bound tree in tests).
		return e, nil
	}
	inner, err := b.BindSelect(outer, node.Select)
	if err != nil {
		return nil, err
	}
	return expr.NewSubqueryPlan(inner), nil
}

func anyAggregate(exprs []*expr.Expr) bool {
	for _, e := range exprs {
		if containsAggregate(e) {
			return true
		}
	}
	return false
}

func containsAggregate(e *expr.Expr) bool {
	if e == nil {
		return false
	}
	if e.Kind == expr.Aggregation {
		return true
	}
	if containsAggregate(e.Left) || containsAggregate(e.Right) || containsAggregate(e.Child) {
		return true
	}
	for _, c := range e.Children {
		if containsAggregate(c) {
			return true
		}
	}
	return false
}

// validateGroupBy enforces spec.md §4.3's rule: every non-aggregate
// projection must either match a GROUP BY key expression exactly or sit
// nested inside an aggregation. Only applies once there is a GROUP BY (or
// an aggregate makes the whole SELECT an implicit single-group
// aggregation).
func validateGroupBy(projections, groupBy []*expr.Expr) error {
	hasAgg := anyAggregate(projections)
	if len(groupBy) == 0 && !hasAgg {
		return nil
	}
	for _, p := range projections {
		if p.Kind == expr.Aggregation {
			continue
		}
		if containsAggregate(p) {
			continue
		}
		matched := false
		for _, g := range groupBy {
			if p.Equal(g) {
				matched = true
				break
			}
		}
		if !matched {
			return rc.New(rc.INVALID_ARGUMENT,
				"select expression %q is neither an aggregate nor a GROUP BY key", p.Name)
		}
	}
	return nil
}
