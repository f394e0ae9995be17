package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter outputs rows as JSON Lines, keys in column order
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes one JSON object per row
func (j *JSONFormatter) Format(columns []string, rows []map[string]interface{}) error {
	columns = resolveColumns(columns, rows)
	bw := bufio.NewWriter(j.writer)

	for _, row := range rows {
		if err := writeObject(bw, columns, row); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush JSON output: %w", err)
	}
	return nil
}

// writeObject encodes row as an object whose keys follow columns.
// encoding/json would sort map keys.
func writeObject(w *bufio.Writer, columns []string, row map[string]interface{}) error {
	_ = w.WriteByte('{')
	for i, col := range columns {
		if i > 0 {
			_ = w.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return err
		}
		value, err := json.Marshal(row[col])
		if err != nil {
			return fmt.Errorf("failed to encode column %q: %w", col, err)
		}
		_, _ = w.Write(key)
		_ = w.WriteByte(':')
		_, _ = w.Write(value)
	}
	_, err := w.WriteString("}\n")
	return err
}
