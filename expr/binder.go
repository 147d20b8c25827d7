package expr

import (
	"sort"

	"github.com/minidb/miniql/rc"
	"github.com/minidb/miniql/record"
)

// BinderContext is spec.md §4.2's "set of in-scope tables + outer-query
// tables": every table reachable by an unqualified or alias-qualified name
// at one nesting level of a query, plus a link to the enclosing query's
// context so a correlated subquery can resolve an outer field.
type BinderContext struct {
	// Tables maps a FROM-clause alias (or the bare table name, if
	// unaliased) to its meta.
	Tables map[string]*record.TableMeta
	// TableNameOf maps an alias back to the underlying table name, needed
	// to build a Field's TableName distinct from the alias used to look it
	// up (self-joins: `FROM t AS a, t AS b` both map to table "t").
	TableNameOf map[string]string
	Outer       *BinderContext
}

func NewBinderContext(outer *BinderContext) *BinderContext {
	return &BinderContext{
		Tables:      make(map[string]*record.TableMeta),
		TableNameOf: make(map[string]string),
		Outer:       outer,
	}
}

// AddTable registers a FROM-clause entry. alias may equal table.Name when
// the query did not declare one.
func (ctx *BinderContext) AddTable(alias string, table *record.TableMeta) {
	ctx.Tables[alias] = table
	ctx.TableNameOf[alias] = table.Name
}

// findOwner locates the table (and its alias) that owns fieldName, given
// an optional explicit table/alias qualifier. Returns
// rc.SCHEMA_FIELD_MISSING if no table has the field, or
// rc.INVALID_ARGUMENT if more than one in-scope table does and the
// qualifier didn't disambiguate it — spec.md §4.2's ambiguous-name rule.
func (ctx *BinderContext) findOwner(qualifier, fieldName string) (*record.TableMeta, string, error) {
	if qualifier != "" {
		table, ok := ctx.Tables[qualifier]
		if !ok {
			return nil, "", rc.New(rc.SCHEMA_FIELD_MISSING, "unknown table or alias %q", qualifier)
		}
		if table.FieldByName(fieldName) == nil {
			return nil, "", rc.New(rc.SCHEMA_FIELD_MISSING, "table %q has no field %q", qualifier, fieldName)
		}
		return table, qualifier, nil
	}

	var (
		found      *record.TableMeta
		foundAlias string
		count      int
	)
	for alias, table := range ctx.Tables {
		if table.FieldByName(fieldName) != nil {
			found, foundAlias = table, alias
			count++
		}
	}
	switch count {
	case 0:
		return nil, "", rc.New(rc.SCHEMA_FIELD_MISSING, "field %q not found in any in-scope table", fieldName)
	case 1:
		return found, foundAlias, nil
	default:
		return nil, "", rc.New(rc.INVALID_ARGUMENT, "field %q is ambiguous across %d in-scope tables", fieldName, count)
	}
}

// BindExpr resolves every UnboundField in e (and recursively in its
// children) against ctx, replacing it with a bound Field. Star must be
// expanded by the caller before binding (see ExpandStar) since it produces
// a list, not a single expression. UnboundAggregate is rewritten into an
// Aggregation with its child bound.
func BindExpr(ctx *BinderContext, e *Expr) (*Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch e.Kind {
	case UnboundField:
		table, alias, err := resolveAcrossScopes(ctx, e.TableAlias, e.FieldName)
		if err != nil {
			return nil, err
		}
		fm := table.FieldByName(e.FieldName)
		return NewField(table, fm, alias), nil

	case UnboundAggregate:
		child, err := BindExpr(ctx, e.Child)
		if err != nil {
			return nil, err
		}
		return NewAggregation(e.AggType, child, e.Name), nil

	case Cast:
		child, err := BindExpr(ctx, e.Child)
		if err != nil {
			return nil, err
		}
		return NewCast(child, e.CastType), nil

	case Comparison, Arithmetic, Like, VectorDistance, Is:
		left, err := BindExpr(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := BindExpr(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		bound := *e
		bound.Left, bound.Right = left, right
		return &bound, nil

	case Conjunction:
		children := make([]*Expr, len(e.Children))
		for i, c := range e.Children {
			bc, err := BindExpr(ctx, c)
			if err != nil {
				return nil, err
			}
			children[i] = bc
		}
		bound := *e
		bound.Children = children
		return &bound, nil

	default:
		// Field, ValueExpr, ValueList, Subquery, SpecialPlaceholder, Star
		// are either already bound or must be handled by the caller.
		return e, nil
	}
}

func resolveAcrossScopes(ctx *BinderContext, qualifier, fieldName string) (*record.TableMeta, string, error) {
	table, alias, err := ctx.findOwner(qualifier, fieldName)
	if err == nil {
		return table, alias, nil
	}
	if ctx.Outer != nil {
		return resolveAcrossScopes(ctx.Outer, qualifier, fieldName)
	}
	return nil, "", err
}

// ExpandStar expands `*` (tableAlias == "") or `t.*` (tableAlias == "t")
// into one Field per visible field, in declaration order within each
// table. A bare `*` over several tables lists the tables in alias-name
// order (see orderedAliases), not FROM-clause order.
func ExpandStar(ctx *BinderContext, tableAlias string) ([]*Expr, error) {
	if tableAlias != "" {
		table, ok := ctx.Tables[tableAlias]
		if !ok {
			return nil, rc.New(rc.SCHEMA_FIELD_MISSING, "unknown table or alias %q", tableAlias)
		}
		return fieldsOf(table, tableAlias), nil
	}

	aliases := orderedAliases(ctx)
	var out []*Expr
	for _, alias := range aliases {
		out = append(out, fieldsOf(ctx.Tables[alias], alias)...)
	}
	return out, nil
}

func fieldsOf(table *record.TableMeta, alias string) []*Expr {
	visible := table.VisibleFields()
	out := make([]*Expr, len(visible))
	for i := range visible {
		out[i] = NewField(table, &visible[i], alias)
	}
	return out
}

// orderedAliases returns ctx.Tables' keys sorted by name;
// BinderContext doesn't track FROM-clause order itself (statement binding
// threads that separately), so ExpandStar's multi-table bare-`*` case is a
// best-effort fallback only — single-table and qualified stars are exact.
func orderedAliases(ctx *BinderContext) []string {
	out := make([]string, 0, len(ctx.Tables))
	for alias := range ctx.Tables {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}
