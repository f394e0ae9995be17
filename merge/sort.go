package merge

import (
	"github.com/vegasq/shardql/query"
)

// sortMerge merges individually sorted row lists into one sorted list. The
// next row always comes from the shard whose head sorts first; it is then
// inserted after every emitted row it does not sort before, so ties keep
// arrival order. Without ORDER BY the lists are concatenated.
func (m *Merger) sortMerge(lists [][]Row) []Row {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	out := make([]Row, 0, total)

	if len(m.plan.order) == 0 {
		for _, l := range lists {
			out = append(out, l...)
		}
		return out
	}

	heads := make([]int, len(lists))
	for {
		best := -1
		for i, l := range lists {
			if heads[i] >= len(l) {
				continue
			}
			if best < 0 || m.compareRows(l[heads[i]], lists[best][heads[best]]) < 0 {
				best = i
			}
		}
		if best < 0 {
			return out
		}

		row := lists[best][heads[best]]
		heads[best]++
		out = m.insert(out, row)
	}
}

// insert places row after the last emitted row it does not sort before.
// With sorted input the scan stops at the tail immediately.
func (m *Merger) insert(out []Row, row Row) []Row {
	pos := len(out)
	for pos > 0 && m.compareRows(row, out[pos-1]) < 0 {
		pos--
	}
	out = append(out, nil)
	copy(out[pos+1:], out[pos:])
	out[pos] = row
	return out
}

// compareRows applies the ORDER BY keys in priority order; the first key
// that differs decides.
func (m *Merger) compareRows(a, b Row) int {
	for _, o := range m.plan.order {
		c := compareValues(a[o.key], b[o.key])
		if o.desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// applyLimit slices rows to [offset, offset+count)
func applyLimit(rows []Row, limit *query.Limit) []Row {
	if limit == nil || len(rows) == 0 {
		return rows
	}

	start := int64(0)
	if limit.Offset > 0 {
		start = limit.Offset
	}
	if start >= int64(len(rows)) {
		return []Row{}
	}

	end := start + limit.Count
	if limit.Count < 0 || end > int64(len(rows)) {
		end = int64(len(rows))
	}
	return rows[start:end]
}
