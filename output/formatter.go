package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Formatter writes merged rows in one output format.
//
// columns fixes the column order; when it is empty the formatter uses the
// sorted union of the rows' keys.
type Formatter interface {
	// Format writes rows in the formatter's specific format
	Format(columns []string, rows []map[string]interface{}) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// Names lists the format names New accepts
var Names = []string{"jsonl", "json", "csv", "table"}

// New returns the formatter registered under name
func New(name string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(name) {
	case "jsonl", "json":
		return NewJSONFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "table":
		return NewTableFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (supported: %s)", name, strings.Join(Names, ", "))
	}
}

// resolveColumns returns columns, or the sorted union of row keys when
// columns is empty. Rows with differing keys (sparse shards) still get
// every column.
func resolveColumns(columns []string, rows []map[string]interface{}) []string {
	if len(columns) > 0 {
		return columns
	}

	columnSet := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			columnSet[col] = true
		}
	}
	resolved := make([]string, 0, len(columnSet))
	for col := range columnSet {
		resolved = append(resolved, col)
	}
	sort.Strings(resolved)
	return resolved
}
