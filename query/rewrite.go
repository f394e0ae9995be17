package query

import (
	"fmt"
	"strings"
)

// ResultKey returns the row key a column produces: its alias, the bare
// field name, or the canonical expression text.
func ResultKey(item *ColumnItem) string {
	if item.Alias != "" {
		return item.Alias
	}
	return exprKey(item.Expr)
}

func exprKey(n Node) string {
	if f, ok := n.(*Field); ok && !f.Wildcard {
		return f.Name
	}
	return n.String()
}

// KeyFor resolves the row key an expression (typically a GROUP BY or ORDER
// BY item) reads from rows produced by columns. An expression equal to a
// selected one, or a field naming a column alias, maps to that column.
func KeyFor(columns *ColumnList, n Node) string {
	if o, ok := n.(*OrderCondition); ok {
		n = o.Expr
	}
	text := n.String()
	for _, c := range columns.Items() {
		if c.Expr.String() == text {
			return ResultKey(c)
		}
	}
	if f, ok := n.(*Field); ok && f.Table == "" {
		for _, c := range columns.Items() {
			if c.Alias == f.Name {
				return c.Alias
			}
		}
	}
	return exprKey(n)
}

// HasWildcard reports whether any column selects *
func HasWildcard(columns *ColumnList) bool {
	for _, c := range columns.Items() {
		if f, ok := c.Expr.(*Field); ok && f.Wildcard {
			return true
		}
	}
	return false
}

// ShardColumns returns the columns every shard has to return for the merge
// to rebuild this statement's result: the selected columns in order, then
// aggregates HAVING reads that are not selected, SUM and COUNT helpers for
// each AVG, then GROUP BY and ORDER BY expressions that are not selected.
//
// Every column other than a lower-case or quoted field carries an alias
// equal to its ResultKey, so drivers that name unaliased expressions themselves, or
// fold alias case, still report rows under the keys the merge reads.
func (s *Select) ShardColumns() *ColumnList {
	cols := NewList[*ColumnItem]()
	for _, c := range s.Columns.Items() {
		cols.Append(shardAlias(c))
	}

	if s.HavingExpr != nil {
		for _, fn := range ExtractAggregates(s.HavingExpr) {
			if hasExpr(cols, fn) {
				continue
			}
			cols.Append(&ColumnItem{Expr: fn, Alias: fmt.Sprintf("__having_%d", cols.Len())})
		}
	}

	for _, c := range append([]*ColumnItem(nil), cols.Items()...) {
		fn := TopAggregate(c)
		if fn == nil || !strings.EqualFold(fn.Name, "AVG") {
			continue
		}
		for _, name := range []string{"SUM", "COUNT"} {
			if FindAggregate(cols, name, fn.ArgumentText()) != nil {
				continue
			}
			helper := &Function{Name: name, Modifiers: fn.Modifiers, Args: fn.Args, Aggregate: true}
			cols.Append(&ColumnItem{
				Expr:  helper,
				Alias: fmt.Sprintf("__%s_%d", strings.ToLower(name), cols.Len()),
			})
		}
	}

	wildcard := HasWildcard(s.Columns)
	var extra []Node
	extra = append(extra, s.GroupBy.Items()...)
	for _, o := range s.OrderBy.Items() {
		extra = append(extra, o.Expr)
	}
	for _, n := range extra {
		if _, ok := n.(*Field); ok && wildcard {
			continue
		}
		key := KeyFor(cols, n)
		if hasKey(cols, key) {
			continue
		}
		item := &ColumnItem{Expr: n}
		if _, ok := n.(*Field); !ok {
			item.Alias = fmt.Sprintf("__key_%d", cols.Len())
		}
		cols.Append(shardAlias(item))
	}
	return cols
}

// shardAlias gives item an explicit alias equal to its ResultKey unless it
// is a wildcard or a field every driver already reports as written: one in
// lower case or one that is quoted anyway.
func shardAlias(item *ColumnItem) *ColumnItem {
	if item.Alias != "" {
		return item
	}
	if f, ok := item.Expr.(*Field); ok {
		if f.Wildcard || quoteIdent(f.Name) != f.Name || f.Name == strings.ToLower(f.Name) {
			return item
		}
	}
	return &ColumnItem{Expr: item.Expr, Alias: exprKey(item.Expr)}
}

func hasExpr(columns *ColumnList, n Node) bool {
	text := n.String()
	for _, c := range columns.Items() {
		if c.Expr.String() == text {
			return true
		}
	}
	return false
}

// FindAggregate returns the column computing name(args), or nil
func FindAggregate(columns *ColumnList, name, args string) *ColumnItem {
	for _, c := range columns.Items() {
		fn := TopAggregate(c)
		if fn != nil && strings.EqualFold(fn.Name, name) && fn.ArgumentText() == args {
			return c
		}
	}
	return nil
}

func hasKey(columns *ColumnList, key string) bool {
	for _, c := range columns.Items() {
		if ResultKey(c) == key {
			return true
		}
	}
	return false
}

// ShardLimit is the LIMIT each shard runs with: enough rows to cover
// offset+count of the merged result, starting at zero. Grouped statements
// run unlimited because a group's total depends on every shard, and so do
// statements whose HAVING is evaluated after the merge.
func (s *Select) ShardLimit() *Limit {
	if s.Limit == nil || s.GroupBy.Len() > 0 || s.HavingExpr != nil {
		return nil
	}
	return &Limit{Count: s.Limit.Offset + s.Limit.Count}
}

// ShardSQL renders the statement each shard executes in the MySQL dialect
func (s *Select) ShardSQL() string {
	return s.ShardSQLFor(MySQL)
}

// ShardSQLFor renders the statement each shard executes in dialect d. A
// HAVING the merge evaluates is left out, since a shard only sees part of
// each group.
func (s *Select) ShardSQLFor(d Dialect) string {
	having := s.Having
	if s.HavingExpr != nil {
		having = ""
	}
	return s.render(d, s.ShardColumns(), having, s.ShardLimit())
}
