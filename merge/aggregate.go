package merge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// avgPrecision is the number of decimals a recomputed AVG carries
const avgPrecision = 4

// group is a set of rows sharing one group key, in arrival order
type group struct {
	key  string
	rows []Row
}

// mergeGroups combines rows sharing the same group key across all shards.
// Groups keep the order in which their key was first seen. The result is a
// single logical shard.
func (m *Merger) mergeGroups(results Results) ([]Row, error) {
	index := make(map[string]int)
	var groups []*group

	for _, shard := range results {
		for _, row := range shard.Rows {
			key := m.plan.rowKey(row)
			i, exists := index[key]
			if !exists {
				i = len(groups)
				index[key] = i
				groups = append(groups, &group{key: key})
			}
			groups[i].rows = append(groups[i].rows, row)
		}
	}

	merged := make([]Row, 0, len(groups))
	for _, g := range groups {
		if len(g.rows) == 1 {
			merged = append(merged, g.rows[0])
			continue
		}
		row, err := m.combine(g.rows)
		if err != nil {
			return nil, fmt.Errorf("group %v: %w", groupValues(g.rows[0], m.plan.groupKeys), err)
		}
		merged = append(merged, row)
	}
	return merged, nil
}

// mergeAggregate folds every shard's pre-aggregated row into one
func (m *Merger) mergeAggregate(results Results) ([]Row, error) {
	var rows []Row
	for _, shard := range results {
		rows = append(rows, shard.Rows...)
	}

	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows, nil
	}

	row, err := m.combine(rows)
	if err != nil {
		return nil, err
	}
	return []Row{row}, nil
}

// groupKey joins the row's group-by values into one comparable string
func groupKey(row Row, keys []string) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("\x00||\x00")
		}
		b.WriteString(keyPart(row[k]))
	}
	return b.String()
}

// rowKey is the group a row belongs to
func (p *plan) rowKey(row Row) string {
	if !p.distinctRows {
		return groupKey(row, p.groupKeys)
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(keyPart(row[k]))
		b.WriteString("\x00")
	}
	return b.String()
}

// groupValues lists the row's group-by values for error messages
func groupValues(row Row, keys []string) []interface{} {
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		values[i] = row[k]
	}
	return values
}

// combine merges partial-aggregate rows into one. The first row supplies
// every non-aggregate column. COUNT and SUM add up, MIN and MAX keep the
// extreme, and AVG is recomputed from the merged SUM and COUNT.
func (m *Merger) combine(rows []Row) (Row, error) {
	out := make(Row, len(rows[0]))
	for k, v := range rows[0] {
		out[k] = v
	}

	for _, row := range rows[1:] {
		for _, agg := range m.plan.aggregates {
			cur, next := out[agg.key], row[agg.key]
			switch agg.fn {
			case "COUNT", "SUM":
				sum, err := addValues(cur, next)
				if err != nil {
					return nil, fmt.Errorf("%s(%s): %w", agg.fn, agg.key, err)
				}
				out[agg.key] = sum
			case "MIN":
				if next != nil && (cur == nil || compareValues(next, cur) < 0) {
					out[agg.key] = next
				}
			case "MAX":
				if next != nil && (cur == nil || compareValues(next, cur) > 0) {
					out[agg.key] = next
				}
			}
		}
	}

	for _, avg := range m.plan.averages {
		out[avg.key] = average(out[avg.sumKey], out[avg.countKey])
	}
	return out, nil
}

// average divides a merged SUM by a merged COUNT. A zero or missing count
// gives NULL.
func average(sum, count interface{}) interface{} {
	c, ok := toFloat64(count)
	if !ok || c == 0 {
		return nil
	}
	s, ok := toFloat64(sum)
	if !ok {
		return nil
	}
	return strconv.FormatFloat(s/c, 'f', avgPrecision, 64)
}
