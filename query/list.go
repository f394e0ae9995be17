package query

import (
	"fmt"
	"strings"
)

// List is an ordered, comma-separated sequence of nodes in source order,
// with a cursor for item-by-item iteration.
type List[T Node] struct {
	items  []T
	cursor int
}

// ColumnList is a SELECT list
type ColumnList = List[*ColumnItem]

// GroupByList is a GROUP BY list
type GroupByList = List[Node]

// OrderByList is an ORDER BY list
type OrderByList = List[*OrderCondition]

// NewList creates a list holding items
func NewList[T Node](items ...T) *List[T] {
	return &List[T]{items: items}
}

// Append adds item at the end
func (l *List[T]) Append(item T) {
	l.items = append(l.items, item)
}

// Len returns the number of items; a nil list is empty
func (l *List[T]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns the item at index i
func (l *List[T]) At(i int) T {
	return l.items[i]
}

// Items returns the backing items in order
func (l *List[T]) Items() []T {
	if l == nil {
		return nil
	}
	return l.items
}

// Current returns the item under the cursor
func (l *List[T]) Current() (T, bool) {
	var zero T
	if l == nil || l.cursor >= len(l.items) {
		return zero, false
	}
	return l.items[l.cursor], true
}

// Next moves the cursor forward and reports whether an item is under it
func (l *List[T]) Next() bool {
	if l.cursor < len(l.items) {
		l.cursor++
	}
	return l.cursor < len(l.items)
}

// Rewind moves the cursor back to the first item
func (l *List[T]) Rewind() {
	l.cursor = 0
}

// Remove deletes the item at index i. Items after it shift left, and a
// cursor past i follows its item.
func (l *List[T]) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("list index %d out of range [0, %d)", i, len(l.items))
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	if l.cursor > i {
		l.cursor--
	}
	return nil
}

// String joins the canonical text of all items with ", "
func (l *List[T]) String() string {
	parts := make([]string, 0, l.Len())
	for _, item := range l.Items() {
		parts = append(parts, item.String())
	}
	return strings.Join(parts, ", ")
}

// Tree returns the structural view of every item under a List node
func (l *List[T]) Tree() Tree {
	t := Tree{Type: "List"}
	for _, item := range l.Items() {
		t.Children = append(t.Children, item.Tree())
	}
	return t
}

// parseList collects items separated by commas. A missing comma ends the
// list.
func parseList[T Node](p *Parser, item func() (T, error)) (*List[T], error) {
	l := &List[T]{}
	for {
		n, err := item()
		if err != nil {
			return nil, err
		}
		l.Append(n)

		if !p.probe(func() bool {
			p.s.SkipSpaces()
			return p.s.ParseOperator(nil) == ","
		}) {
			return l, nil
		}
	}
}

// ParseColumnList parses a SELECT list at the cursor
func (p *Parser) ParseColumnList() (*ColumnList, error) {
	return parseList(p, p.ParseColumn)
}

// ParseGroupByList parses a GROUP BY list at the cursor
func (p *Parser) ParseGroupByList() (*GroupByList, error) {
	return parseList(p, p.ParseExpression)
}

// ParseOrderByList parses an ORDER BY list at the cursor
func (p *Parser) ParseOrderByList() (*OrderByList, error) {
	return parseList(p, p.ParseOrderCondition)
}

// ParseColumns parses a whole SELECT list fragment
func ParseColumns(src string) (*ColumnList, error) {
	return parseWhole(src, (*Parser).ParseColumnList)
}

// ParseGroupBy parses a whole GROUP BY fragment
func ParseGroupBy(src string) (*GroupByList, error) {
	return parseWhole(src, (*Parser).ParseGroupByList)
}

// ParseOrderBy parses a whole ORDER BY fragment
func ParseOrderBy(src string) (*OrderByList, error) {
	return parseWhole(src, (*Parser).ParseOrderByList)
}

func parseWhole[T any](src string, parse func(*Parser) (T, error)) (T, error) {
	var zero T
	p := NewParser(src)
	v, err := parse(p)
	if err != nil {
		return zero, err
	}
	if err := p.expectEnd(); err != nil {
		return zero, err
	}
	return v, nil
}
