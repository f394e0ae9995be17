// Package reader loads shard result files into rows.
//
// A shard file holds the rows one shard returned for the rewritten shard
// statement. Rows are maps from column name to value, the shape the merge
// package consumes.
//
// # Formats
//
// Load picks the format from the file extension:
//   - .parquet via github.com/parquet-go/parquet-go
//   - .avro object container files via github.com/linkedin/goavro/v2
//   - .csv with a header row; cells are typed as NULL, integer, float,
//     boolean or string
//   - .json holding an array of objects, and .jsonl with one object per line
//
// Integral JSON numbers become int64 so COUNT and SUM partials stay exact.
//
// # Shards
//
// LoadShards expands a glob and keys each file's rows by its base name:
//
//	shards, err := reader.LoadShards("results/*.jsonl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rows := shards["eu-1"] // results/eu-1.jsonl
//
// # Schema Introspection
//
//	cols, err := reader.Describe("results/eu-1.parquet")
//	for _, c := range cols {
//	    fmt.Printf("%s %s\n", c.Name, c.Type)
//	}
package reader
