// Package query parses the SQL fragments a sharded query is made of.
//
// The package implements a hand-written scanner and a family of node
// parsers for:
//   - Fields (db.table.field, backtick quoting, wildcards)
//   - Literals (strings with backslash escapes, numbers, NULL)
//   - Function calls with modifiers such as DISTINCT
//   - CASE [subject] WHEN ... THEN ... [ELSE ...] END
//   - Binary comparison and arithmetic expressions
//   - Column lists with aliases, GROUP BY lists and ORDER BY lists
//   - SELECT statements with raw FROM, WHERE and HAVING clauses
//
// # Basic Usage
//
// Parse a column list and inspect it:
//
//	columns, err := query.ParseColumns("COUNT(*) AS c, AVG(price) AS p")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(columns.Tree())
//
// Every node prints back to canonical text that parses to an equal node:
//
//	n, _ := query.ParseExpression("sum( `price` )")
//	fmt.Println(n) // sum(price)
//
// # Aggregates
//
// ExtractAggregates walks a node and returns every SUM, COUNT, AVG, MIN and
// MAX call, including those nested in CASE branches or other functions.
//
// # Statements
//
// ParseSelect parses a whole statement. ShardColumns and ShardSQL derive
// what every shard has to return so the merge package can rebuild the
// unsharded result:
//
//	sel, err := query.ParseSelect("SELECT cat, AVG(price) AS p FROM t GROUP BY cat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(sel.ShardSQL())
//	// SELECT cat, AVG(price) AS p, SUM(price) AS __sum_2, COUNT(price) AS __count_3 FROM t GROUP BY cat
//
// Shard columns other than lower-case fields carry an explicit alias equal
// to the key the merge reads. ShardSQLFor renders the same statement for
// another Dialect; Postgres quotes aliases with double quotes so their case
// survives. A HAVING on a grouped statement is left out of the shard SQL
// and kept as HavingExpr for the merge to evaluate.
//
// # Error Handling
//
// Parsing stops at the first error. Errors are *ParseError values wrapping
// one of the Err* kinds, so callers match them with errors.Is:
//
//	_, err := query.ParseExpression("'open")
//	if errors.Is(err, query.ErrUnterminatedString) {
//	    ...
//	}
package query
