package query

import (
	"sort"
	"strings"
)

// Node is a parsed expression or list item. The set of implementations is
// closed: Field, Value, Function, CaseExpr, When, CompareExpr, ColumnItem and
// OrderCondition.
type Node interface {
	// String returns canonical text that parses back to an equal node
	String() string
	// Tree returns a structural view of the node for inspection
	Tree() Tree
	node()
}

// Tree is the structural view of a node
type Tree struct {
	Type     string
	Attrs    map[string]string
	Children []Tree
}

// String renders the tree one node per line, children indented by two spaces
func (t Tree) String() string {
	var b strings.Builder
	t.write(&b, 0)
	return b.String()
}

func (t Tree) write(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(t.Type)

	keys := make([]string, 0, len(t.Attrs))
	for k := range t.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(t.Attrs[k])
	}
	b.WriteString("\n")

	for _, child := range t.Children {
		child.write(b, depth+1)
	}
}

// Field references a column, optionally qualified by table and database
type Field struct {
	DB       string
	Table    string
	Name     string
	Wildcard bool // bare * as the last part
}

func (f *Field) node() {}

func (f *Field) String() string {
	var parts []string
	if f.DB != "" {
		parts = append(parts, quoteIdent(f.DB))
	}
	if f.Table != "" {
		parts = append(parts, quoteIdent(f.Table))
	}
	if f.Wildcard {
		parts = append(parts, "*")
	} else {
		parts = append(parts, quoteIdent(f.Name))
	}
	return strings.Join(parts, ".")
}

func (f *Field) Tree() Tree {
	attrs := map[string]string{"name": f.Name}
	if f.Table != "" {
		attrs["table"] = f.Table
	}
	if f.DB != "" {
		attrs["db"] = f.DB
	}
	if f.Wildcard {
		attrs["wildcard"] = "true"
	}
	return Tree{Type: "Field", Attrs: attrs}
}

// ValueKind distinguishes literal kinds
type ValueKind int

const (
	StringValue ValueKind = iota
	NumberValue
	NullValue
)

func (k ValueKind) String() string {
	switch k {
	case NumberValue:
		return "number"
	case NullValue:
		return "null"
	default:
		return "string"
	}
}

// Value is a literal. Text holds the unescaped string, or the number as
// written including a leading minus.
type Value struct {
	Kind ValueKind
	Text string
}

func (v *Value) node() {}

func (v *Value) String() string {
	switch v.Kind {
	case NumberValue:
		return v.Text
	case NullValue:
		return "NULL"
	default:
		return quoteString(v.Text, '\'')
	}
}

func (v *Value) Tree() Tree {
	return Tree{Type: "Value", Attrs: map[string]string{"kind": v.Kind.String(), "text": v.Text}}
}

// Function is a function call. Aggregate is set for SUM, COUNT, AVG, MIN
// and MAX.
type Function struct {
	Name      string
	Modifiers []string // upper-cased, e.g. DISTINCT
	Args      []Node
	Aggregate bool
}

func (f *Function) node() {}

// ArgumentText returns the canonical text between the parentheses. Two
// calls over the same arguments share it regardless of the function name.
func (f *Function) ArgumentText() string {
	parts := make([]string, 0, len(f.Args))
	for _, arg := range f.Args {
		parts = append(parts, arg.String())
	}
	text := strings.Join(parts, ", ")
	if len(f.Modifiers) > 0 {
		text = strings.TrimSpace(strings.Join(f.Modifiers, " ") + " " + text)
	}
	return text
}

func (f *Function) String() string {
	return f.Name + "(" + f.ArgumentText() + ")"
}

func (f *Function) Tree() Tree {
	attrs := map[string]string{"name": f.Name}
	if f.Aggregate {
		attrs["aggregate"] = "true"
	}
	if len(f.Modifiers) > 0 {
		attrs["modifiers"] = strings.Join(f.Modifiers, " ")
	}
	return Tree{Type: "Function", Attrs: attrs, Children: treesOf(f.Args)}
}

// CaseExpr is CASE [subject] WHEN ... THEN ... [ELSE ...] END
type CaseExpr struct {
	Subject Node // nil for a searched CASE
	Whens   []*When
	Else    Node
}

func (c *CaseExpr) node() {}

func (c *CaseExpr) String() string {
	var b strings.Builder
	b.WriteString("CASE")
	if c.Subject != nil {
		b.WriteString(" ")
		b.WriteString(c.Subject.String())
	}
	for _, w := range c.Whens {
		b.WriteString(" ")
		b.WriteString(w.String())
	}
	if c.Else != nil {
		b.WriteString(" ELSE ")
		b.WriteString(c.Else.String())
	}
	b.WriteString(" END")
	return b.String()
}

func (c *CaseExpr) Tree() Tree {
	t := Tree{Type: "Case"}
	if c.Subject != nil {
		t.Children = append(t.Children, Tree{Type: "Subject", Children: []Tree{c.Subject.Tree()}})
	}
	for _, w := range c.Whens {
		t.Children = append(t.Children, w.Tree())
	}
	if c.Else != nil {
		t.Children = append(t.Children, Tree{Type: "Else", Children: []Tree{c.Else.Tree()}})
	}
	return t
}

// When is one WHEN condition THEN result clause
type When struct {
	Cond   Node
	Result Node
}

func (w *When) node() {}

func (w *When) String() string {
	return "WHEN " + w.Cond.String() + " THEN " + w.Result.String()
}

func (w *When) Tree() Tree {
	return Tree{Type: "When", Children: []Tree{w.Cond.Tree(), w.Result.Tree()}}
}

// CompareExpr is a binary operation. Chains lean right: a = 1 AND b = 2
// parses as a = (1 AND (b = 2)).
type CompareExpr struct {
	Left  Node
	Op    string
	Right Node
}

func (c *CompareExpr) node() {}

func (c *CompareExpr) String() string {
	return c.Left.String() + " " + c.Op + " " + c.Right.String()
}

func (c *CompareExpr) Tree() Tree {
	return Tree{
		Type:     "Compare",
		Attrs:    map[string]string{"op": c.Op},
		Children: []Tree{c.Left.Tree(), c.Right.Tree()},
	}
}

// ColumnItem is one entry of a SELECT list
type ColumnItem struct {
	Expr  Node
	Alias string
}

func (c *ColumnItem) node() {}

func (c *ColumnItem) String() string {
	if c.Alias == "" {
		return c.Expr.String()
	}
	return c.Expr.String() + " AS " + quoteIdent(c.Alias)
}

func (c *ColumnItem) Tree() Tree {
	t := Tree{Type: "Column", Children: []Tree{c.Expr.Tree()}}
	if c.Alias != "" {
		t.Attrs = map[string]string{"alias": c.Alias}
	}
	return t
}

// OrderCondition is one ORDER BY entry
type OrderCondition struct {
	Expr Node
	Desc bool
}

func (o *OrderCondition) node() {}

func (o *OrderCondition) String() string {
	if o.Desc {
		return o.Expr.String() + " DESC"
	}
	return o.Expr.String() + " ASC"
}

func (o *OrderCondition) Tree() Tree {
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return Tree{Type: "Order", Attrs: map[string]string{"direction": dir}, Children: []Tree{o.Expr.Tree()}}
}

func treesOf(nodes []Node) []Tree {
	if len(nodes) == 0 {
		return nil
	}
	trees := make([]Tree, 0, len(nodes))
	for _, n := range nodes {
		trees = append(trees, n.Tree())
	}
	return trees
}

// reserved lists keywords that are never read as bare fields or implicit
// aliases.
var reserved = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "BY": true,
	"HAVING": true, "ORDER": true, "LIMIT": true, "OFFSET": true, "AS": true,
	"ASC": true, "DESC": true, "CASE": true, "WHEN": true, "THEN": true,
	"ELSE": true, "END": true, "AND": true, "OR": true, "NOT": true,
	"LIKE": true, "IN": true, "IS": true, "NULL": true, "DISTINCT": true,
	"UNION": true, "JOIN": true, "ON": true,
}

func isReserved(word string) bool {
	return reserved[strings.ToUpper(word)]
}

// quoteIdent backtick-quotes name unless it reads back as a bare field
func quoteIdent(name string) string {
	if name != "" && !isReserved(name) && !isNumber(name) && (name[0] < '0' || name[0] > '9') {
		plain := true
		for i := 0; i < len(name); i++ {
			if isBoundary(name[i]) {
				plain = false
				break
			}
		}
		if plain {
			return name
		}
	}
	return quoteString(name, '`')
}
