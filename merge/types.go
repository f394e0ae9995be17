package merge

import (
	"sort"

	"github.com/vegasq/shardql/query"
)

// Row is one result row keyed by column name
type Row = map[string]interface{}

// ShardRows holds the rows one shard returned, sorted by the statement's
// ORDER BY
type ShardRows struct {
	Shard string
	Rows  []Row
}

// Results is the set of shard row lists in arrival order
type Results []ShardRows

// FromMap orders a shard map by shard id
func FromMap(m map[string][]Row) Results {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make(Results, 0, len(ids))
	for _, id := range ids {
		results = append(results, ShardRows{Shard: id, Rows: m[id]})
	}
	return results
}

// RowCount returns the number of rows across all shards
func (r Results) RowCount() int {
	n := 0
	for _, s := range r {
		n += len(s.Rows)
	}
	return n
}

// Directive is the shape of the query the merge rebuilds
type Directive struct {
	Columns      *query.ColumnList  // selected columns, drive projection
	ShardColumns *query.ColumnList  // columns present in shard rows, in order
	GroupBy      *query.GroupByList // optional
	OrderBy      *query.OrderByList // optional
	Limit        *query.Limit       // optional
	Having       query.Node         // optional, evaluated on merged groups
	Distinct     bool
}

// NewDirective derives a directive from a parsed statement
func NewDirective(sel *query.Select) *Directive {
	return &Directive{
		Columns:      sel.Columns,
		ShardColumns: sel.ShardColumns(),
		GroupBy:      sel.GroupBy,
		OrderBy:      sel.OrderBy,
		Limit:        sel.Limit,
		Having:       sel.HavingExpr,
		Distinct:     sel.Distinct,
	}
}
