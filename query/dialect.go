package query

import (
	"fmt"
	"strings"
)

// Dialect controls how identifiers and string literals are written when a
// statement is rendered for a shard database.
type Dialect int

const (
	// MySQL quotes identifiers with backticks and escapes strings with a
	// backslash. It is the canonical form String returns.
	MySQL Dialect = iota
	// Postgres quotes identifiers with double quotes and doubles the quote
	// inside string literals.
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	default:
		return "mysql"
	}
}

// ParseDialect resolves a dialect name such as "mysql" or "postgres"
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	}
	return MySQL, fmt.Errorf("unknown SQL dialect %q", name)
}

// Render writes n as SQL for the dialect
func (d Dialect) Render(n Node) string {
	if d == MySQL {
		return n.String()
	}

	switch n := n.(type) {
	case *Field:
		var parts []string
		if n.DB != "" {
			parts = append(parts, d.ident(n.DB))
		}
		if n.Table != "" {
			parts = append(parts, d.ident(n.Table))
		}
		if n.Wildcard {
			parts = append(parts, "*")
		} else {
			parts = append(parts, d.ident(n.Name))
		}
		return strings.Join(parts, ".")
	case *Value:
		if n.Kind == StringValue {
			return "'" + strings.ReplaceAll(n.Text, "'", "''") + "'"
		}
		return n.String()
	case *Function:
		parts := make([]string, 0, len(n.Args))
		for _, arg := range n.Args {
			parts = append(parts, d.Render(arg))
		}
		args := strings.Join(parts, ", ")
		if len(n.Modifiers) > 0 {
			args = strings.TrimSpace(strings.Join(n.Modifiers, " ") + " " + args)
		}
		return n.Name + "(" + args + ")"
	case *CaseExpr:
		var b strings.Builder
		b.WriteString("CASE")
		if n.Subject != nil {
			b.WriteString(" ")
			b.WriteString(d.Render(n.Subject))
		}
		for _, w := range n.Whens {
			b.WriteString(" ")
			b.WriteString(d.Render(w))
		}
		if n.Else != nil {
			b.WriteString(" ELSE ")
			b.WriteString(d.Render(n.Else))
		}
		b.WriteString(" END")
		return b.String()
	case *When:
		return "WHEN " + d.Render(n.Cond) + " THEN " + d.Render(n.Result)
	case *CompareExpr:
		op := n.Op
		if op == "<=>" {
			op = "IS NOT DISTINCT FROM"
		}
		return d.Render(n.Left) + " " + op + " " + d.Render(n.Right)
	case *ColumnItem:
		if n.Alias == "" {
			return d.Render(n.Expr)
		}
		return d.Render(n.Expr) + " AS " + d.quote(n.Alias)
	case *OrderCondition:
		if n.Desc {
			return d.Render(n.Expr) + " DESC"
		}
		return d.Render(n.Expr) + " ASC"
	}
	return n.String()
}

// RenderList writes the items of l separated by commas
func RenderList[T Node](d Dialect, l *List[T]) string {
	parts := make([]string, 0, l.Len())
	for _, item := range l.Items() {
		parts = append(parts, d.Render(item))
	}
	return strings.Join(parts, ", ")
}

// ident leaves names that read back as bare fields alone, so the database
// folds their case the way the statement's author expects.
func (d Dialect) ident(name string) string {
	if quoteIdent(name) == name {
		return name
	}
	return d.quote(name)
}

// quote always quotes name. Aliases go through here so the result key
// keeps its exact spelling.
func (d Dialect) quote(name string) string {
	if d == Postgres {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return quoteIdent(name)
}

// renderRefs writes a GROUP BY or ORDER BY list. In dialects that fold
// unquoted names, a bare field naming a column alias is quoted like the
// alias so it still refers to it.
func renderRefs[T Node](d Dialect, columns *ColumnList, l *List[T]) string {
	if d == MySQL {
		return RenderList(d, l)
	}
	parts := make([]string, 0, l.Len())
	for _, item := range l.Items() {
		var n Node = item
		if o, ok := n.(*OrderCondition); ok {
			dir := " ASC"
			if o.Desc {
				dir = " DESC"
			}
			parts = append(parts, d.renderRef(columns, o.Expr)+dir)
			continue
		}
		parts = append(parts, d.renderRef(columns, n))
	}
	return strings.Join(parts, ", ")
}

func (d Dialect) renderRef(columns *ColumnList, n Node) string {
	if f, ok := n.(*Field); ok && f.Table == "" && !f.Wildcard {
		for _, c := range columns.Items() {
			if c.Alias == f.Name {
				return d.quote(f.Name)
			}
		}
	}
	return d.Render(n)
}
