package query

// ExtractAggregates returns every aggregate function call inside n, in
// source order. Aggregates do not nest, so an aggregate's own arguments are
// not searched.
func ExtractAggregates(n Node) []*Function {
	switch v := n.(type) {
	case nil:
		return nil
	case *Function:
		if v.Aggregate {
			return []*Function{v}
		}
		var found []*Function
		for _, arg := range v.Args {
			found = append(found, ExtractAggregates(arg)...)
		}
		return found
	case *CaseExpr:
		var found []*Function
		if v.Subject != nil {
			found = append(found, ExtractAggregates(v.Subject)...)
		}
		for _, w := range v.Whens {
			found = append(found, ExtractAggregates(w)...)
		}
		if v.Else != nil {
			found = append(found, ExtractAggregates(v.Else)...)
		}
		return found
	case *When:
		return append(ExtractAggregates(v.Cond), ExtractAggregates(v.Result)...)
	case *CompareExpr:
		return append(ExtractAggregates(v.Left), ExtractAggregates(v.Right)...)
	case *ColumnItem:
		return ExtractAggregates(v.Expr)
	case *OrderCondition:
		return ExtractAggregates(v.Expr)
	case *Field, *Value:
		return nil
	}
	return nil
}

// HasAggregates reports whether any item of l contains an aggregate call
func HasAggregates[T Node](l *List[T]) bool {
	for _, item := range l.Items() {
		if len(ExtractAggregates(item)) > 0 {
			return true
		}
	}
	return false
}

// TopAggregate returns the aggregate call a column consists of, or nil when
// the column is not a bare aggregate.
func TopAggregate(n Node) *Function {
	if c, ok := n.(*ColumnItem); ok {
		n = c.Expr
	}
	if fn, ok := n.(*Function); ok && fn.Aggregate {
		return fn
	}
	return nil
}
