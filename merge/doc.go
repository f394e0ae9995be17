// Package merge reassembles per-shard result rows into the result a single
// unsharded query would have produced.
//
// A Directive describes the query shape (selected columns, the columns the
// shards actually return, GROUP BY, ORDER BY and LIMIT). The merge picks one
// of three strategies:
//   - GROUP BY present: rows sharing a group key across shards are combined
//   - aggregates without GROUP BY: all shard rows fold into one row
//   - otherwise: rows are carried through
//
// and then k-way merges the per-shard lists by ORDER BY, applies LIMIT and
// OFFSET, and projects the result to the selected column names.
//
// # Basic Usage
//
//	sel, err := query.ParseSelect("SELECT cat, COUNT(*) AS c FROM t GROUP BY cat ORDER BY c DESC")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m := merge.New(merge.NewDirective(sel), merge.FromMap(map[string][]merge.Row{
//	    "shard-a": {{"cat": "books", "c": int64(3)}},
//	    "shard-b": {{"cat": "books", "c": int64(2)}, {"cat": "games", "c": int64(1)}},
//	}))
//	rows, err := m.All()
//
// # Aggregates
//
// COUNT and SUM partials add up and MIN and MAX keep the extreme. AVG cannot
// be averaged across shards; it is recomputed from the SUM and COUNT over
// the same arguments, which query.Select.ShardColumns adds to the shard
// statement. Non-aggregate columns take the value of the first row of the
// group.
//
// # Preconditions
//
// Each shard's rows must already be sorted by the statement's ORDER BY. The
// merge does no I/O and keeps no state between Mergers.
package merge
