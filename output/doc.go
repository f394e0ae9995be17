// Package output provides formatters for merged result rows.
//
// # Supported Formats
//
//   - JSON Lines: one JSON object per line, keys in column order
//   - CSV: comma-separated values with a header row
//   - Table: aligned text table for terminals
//
// # Basic Usage
//
//	f, err := output.New("csv", os.Stdout)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := f.Format(merger.Columns(), rows); err != nil {
//	    log.Fatal(err)
//	}
//
// # Type Handling
//
// Numbers print in their shortest exact form and booleans as true or false.
// Nested maps and lists are JSON-encoded in CSV and table cells. NULL is an
// empty CSV cell, JSON null, and the word NULL in a table.
package output
