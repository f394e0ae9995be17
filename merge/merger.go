package merge

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
)

// Merger rebuilds the result of an unsharded query from per-shard rows.
// The merge runs once, on first access; a Merger is not safe for concurrent
// use.
type Merger struct {
	plan    *plan
	results Results
	logger  *slog.Logger

	done bool
	rows []Row
	err  error
}

// Option configures a Merger
type Option func(*Merger)

// WithLogger sets the logger merge decisions are reported to
func WithLogger(l *slog.Logger) Option {
	return func(m *Merger) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a merger for results shaped by d
func New(d *Directive, results Results, opts ...Option) *Merger {
	m := &Merger{
		plan:    newPlan(d),
		results: results,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Columns returns the result column names in select order
func (m *Merger) Columns() []string {
	if len(m.plan.columns) > 0 || !m.plan.passThrough {
		return m.plan.columns
	}

	// SELECT * without a known column order: use the first row's keys sorted
	rows, err := m.All()
	if err != nil || len(rows) == 0 {
		return nil
	}
	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

// All returns every merged row in order
func (m *Merger) All() ([]Row, error) {
	if !m.done {
		m.rows, m.err = m.merge()
		m.done = true
	}
	return m.rows, m.err
}

func (m *Merger) merge() ([]Row, error) {
	m.logger.Debug("merging shard results",
		"strategy", string(m.plan.strategy),
		"shards", len(m.results),
		"rows", m.results.RowCount())

	var lists [][]Row
	switch m.plan.strategy {
	case strategyGroup:
		merged, err := m.mergeGroups(m.results)
		if err != nil {
			return nil, fmt.Errorf("failed to merge groups: %w", err)
		}
		lists = [][]Row{merged}
	case strategyAggregate:
		merged, err := m.mergeAggregate(m.results)
		if err != nil {
			return nil, fmt.Errorf("failed to merge aggregates: %w", err)
		}
		lists = [][]Row{merged}
	default:
		for _, shard := range m.results {
			lists = append(lists, shard.Rows)
		}
	}

	for i, list := range lists {
		filtered, err := m.filterHaving(list)
		if err != nil {
			return nil, err
		}
		lists[i] = filtered
	}

	rows := applyLimit(m.sortMerge(lists), m.plan.limit)
	rows = m.project(rows)

	m.logger.Debug("merged shard results", "rows", len(rows))
	return rows, nil
}

// project renames shard columns to the selected names and drops helper
// columns. SELECT * passes rows through.
func (m *Merger) project(rows []Row) []Row {
	if m.plan.passThrough {
		return rows
	}

	projected := make([]Row, 0, len(rows))
	for _, row := range rows {
		out := make(Row, len(m.plan.renames))
		for _, r := range m.plan.renames {
			if v, ok := row[r.from]; ok {
				out[r.to] = v
			}
		}
		projected = append(projected, out)
	}
	return projected
}

// Index is a result keyed by a data column. Keys keeps row order.
type Index struct {
	Keys   []string
	Values map[string]interface{}
}

// Get returns the row or scalar stored under key
func (i *Index) Get(key string) (interface{}, bool) {
	v, ok := i.Values[key]
	return v, ok
}

// Indexed returns the merged rows keyed by indexColumn, or by position when
// indexColumn is empty. With extractColumn set each entry holds that
// column's value instead of the whole row. A later row replaces an earlier
// one with the same key.
func (m *Merger) Indexed(indexColumn, extractColumn string) (*Index, error) {
	rows, err := m.All()
	if err != nil {
		return nil, err
	}

	idx := &Index{Values: make(map[string]interface{}, len(rows))}
	for i, row := range rows {
		key := strconv.Itoa(i)
		if indexColumn != "" {
			v, ok := row[indexColumn]
			if !ok {
				return nil, fmt.Errorf("index column %q not found", indexColumn)
			}
			key = fmt.Sprint(v)
		}

		var value interface{} = row
		if extractColumn != "" {
			v, ok := row[extractColumn]
			if !ok {
				return nil, fmt.Errorf("column %q not found", extractColumn)
			}
			value = v
		}

		if _, seen := idx.Values[key]; !seen {
			idx.Keys = append(idx.Keys, key)
		}
		idx.Values[key] = value
	}
	return idx, nil
}

// Pluck returns one column of every merged row
func (m *Merger) Pluck(column string) ([]interface{}, error) {
	rows, err := m.All()
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		values = append(values, row[column])
	}
	return values, nil
}

// One returns the first merged row, or nil when there is none
func (m *Merger) One() (Row, error) {
	rows, err := m.All()
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Scalar returns the first column of the first merged row, or nil when
// there is no row
func (m *Merger) Scalar() (interface{}, error) {
	row, err := m.One()
	if err != nil || row == nil {
		return nil, err
	}
	columns := m.Columns()
	if len(columns) == 0 {
		return nil, nil
	}
	return row[columns[0]], nil
}

// Each returns a single-pass iterator over the merged rows. decorator, when
// not nil, transforms each row before it is yielded.
func (m *Merger) Each(decorator func(Row) Row) *Iterator {
	return &Iterator{m: m, decorate: decorator}
}

// Iterator yields merged rows one at a time. The merge itself runs on the
// first call to Next.
type Iterator struct {
	m        *Merger
	decorate func(Row) Row

	started bool
	rows    []Row
	pos     int
	cur     Row
	err     error
}

// Next advances to the next row and reports whether there is one
func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		it.rows, it.err = it.m.All()
	}
	if it.err != nil || it.pos >= len(it.rows) {
		it.cur = nil
		return false
	}

	it.cur = it.rows[it.pos]
	it.pos++
	if it.decorate != nil {
		it.cur = it.decorate(it.cur)
	}
	return true
}

// Row returns the current row
func (it *Iterator) Row() Row {
	return it.cur
}

// Err returns the error that stopped iteration, if any
func (it *Iterator) Err() error {
	return it.err
}
