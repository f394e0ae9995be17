package merge

import (
	"strings"

	"github.com/vegasq/shardql/query"
)

// strategy names the way shard rows are combined
type strategy string

const (
	strategyGroup     strategy = "group"
	strategyAggregate strategy = "aggregate"
	strategyRows      strategy = "rows"
)

type orderKey struct {
	key  string
	desc bool
}

// aggColumn is a shard column holding a partial COUNT, SUM, MIN or MAX
type aggColumn struct {
	key string
	fn  string
}

// avgColumn is recomputed from the SUM and COUNT over the same arguments
type avgColumn struct {
	key      string
	sumKey   string
	countKey string
}

type rename struct {
	from string
	to   string
}

// plan is everything the merge needs from a directive, resolved to row keys
type plan struct {
	strategy   strategy
	groupKeys  []string
	order      []orderKey
	aggregates []aggColumn
	averages   []avgColumn
	limit      *query.Limit
	having     *having

	// distinctRows groups SELECT DISTINCT * rows by their whole content
	distinctRows bool

	passThrough bool
	renames     []rename
	columns     []string
}

func newPlan(d *Directive) *plan {
	shardCols := d.ShardColumns
	if shardCols == nil {
		shardCols = d.Columns
	}

	p := &plan{limit: d.Limit}
	for _, n := range d.GroupBy.Items() {
		p.groupKeys = append(p.groupKeys, trimQuotes(query.KeyFor(shardCols, n)))
	}
	for _, o := range d.OrderBy.Items() {
		p.order = append(p.order, orderKey{key: trimQuotes(query.KeyFor(shardCols, o.Expr)), desc: o.Desc})
	}

	if d.Having != nil {
		p.having = &having{cond: d.Having, columns: shardCols}
	}

	// DISTINCT without GROUP BY groups on every selected column, so
	// duplicates from different shards collapse to their first row
	if d.Distinct && len(p.groupKeys) == 0 && !query.HasAggregates(d.Columns) {
		if d.Columns == nil || query.HasWildcard(d.Columns) {
			p.distinctRows = true
		} else {
			for i := range d.Columns.Items() {
				if i < shardCols.Len() {
					p.groupKeys = append(p.groupKeys, query.ResultKey(shardCols.At(i)))
				}
			}
		}
	}

	switch {
	case len(p.groupKeys) > 0 || p.distinctRows:
		p.strategy = strategyGroup
	case query.HasAggregates(d.Columns):
		p.strategy = strategyAggregate
	default:
		p.strategy = strategyRows
	}

	for _, c := range shardCols.Items() {
		fn := query.TopAggregate(c)
		if fn == nil {
			continue
		}
		key := query.ResultKey(c)
		name := strings.ToUpper(fn.Name)
		if name != "AVG" {
			p.aggregates = append(p.aggregates, aggColumn{key: key, fn: name})
			continue
		}
		sum := query.FindAggregate(shardCols, "SUM", fn.ArgumentText())
		count := query.FindAggregate(shardCols, "COUNT", fn.ArgumentText())
		if sum == nil || count == nil {
			continue
		}
		p.averages = append(p.averages, avgColumn{
			key:      key,
			sumKey:   query.ResultKey(sum),
			countKey: query.ResultKey(count),
		})
	}

	p.passThrough = d.Columns == nil || query.HasWildcard(d.Columns)
	if p.passThrough {
		for _, c := range shardCols.Items() {
			if f, ok := c.Expr.(*query.Field); ok && f.Wildcard {
				continue
			}
			p.columns = append(p.columns, query.ResultKey(c))
		}
		return p
	}

	for i, c := range d.Columns.Items() {
		to := query.ResultKey(c)
		from := to
		if i < shardCols.Len() {
			from = query.ResultKey(shardCols.At(i))
		}
		p.renames = append(p.renames, rename{from: from, to: to})
		p.columns = append(p.columns, to)
	}
	return p
}

// trimQuotes strips identifier quoting from a row key
func trimQuotes(key string) string {
	if len(key) >= 2 && key[0] == '`' && key[len(key)-1] == '`' {
		return key[1 : len(key)-1]
	}
	return key
}
