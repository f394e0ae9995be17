package reader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ColumnInfo describes one column of a shard file
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Repeated bool   `json:"repeated,omitempty"`
}

// Describe lists the columns of a shard file. Parquet files report their
// declared schema, with nested fields in dot notation. Other formats are
// inferred from the rows they hold.
func Describe(path string) ([]ColumnInfo, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		r, err := NewParquetReader(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()

		var infos []ColumnInfo
		for _, field := range r.Schema().Fields() {
			infos = append(infos, describeField(field, "", false)...)
		}
		return infos, nil
	}

	rows, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", path, err)
	}
	return inferColumns(rows), nil
}

// describeField flattens a parquet field into its leaf columns. A repeated
// group makes every leaf below it repeated.
func describeField(field parquet.Field, prefix string, parentRepeated bool) []ColumnInfo {
	name := field.Name()
	if prefix != "" {
		name = prefix + "." + name
	}
	repeated := parentRepeated || field.Repeated()

	if children := field.Fields(); len(children) > 0 {
		var infos []ColumnInfo
		for _, child := range children {
			infos = append(infos, describeField(child, name, repeated)...)
		}
		return infos
	}

	return []ColumnInfo{{
		Name:     name,
		Type:     parquetType(field),
		Nullable: field.Optional(),
		Repeated: repeated,
	}}
}

// parquetType names a leaf field type, preferring the logical type
func parquetType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}

	if lt := field.Type().LogicalType(); lt != nil {
		switch s := lt.String(); s {
		case "STRING", "UTF8":
			return "STRING"
		case "ENUM", "UUID", "DATE", "TIME", "TIMESTAMP", "DECIMAL", "JSON", "BSON":
			return s
		}
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT32"
	case parquet.Double:
		return "FLOAT64"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

// inferColumns derives column types from row values. Columns missing from
// a row, or null in one, are nullable; a column seen with two types is
// MIXED.
func inferColumns(rows []map[string]interface{}) []ColumnInfo {
	types := make(map[string]string)
	nullable := make(map[string]bool)
	for _, row := range rows {
		for k, v := range row {
			if v == nil {
				nullable[k] = true
				if _, ok := types[k]; !ok {
					types[k] = ""
				}
				continue
			}
			t := valueType(v)
			switch prev, ok := types[k]; {
			case !ok || prev == "":
				types[k] = t
			case prev != t:
				types[k] = "MIXED"
			}
		}
	}
	for k := range types {
		for _, row := range rows {
			if _, ok := row[k]; !ok {
				nullable[k] = true
				break
			}
		}
	}

	names := make([]string, 0, len(types))
	for k := range types {
		names = append(names, k)
	}
	sort.Strings(names)

	infos := make([]ColumnInfo, 0, len(names))
	for _, name := range names {
		t := types[name]
		if t == "" {
			t = "NULL"
		}
		infos = append(infos, ColumnInfo{Name: name, Type: t, Nullable: nullable[name]})
	}
	return infos
}

func valueType(v interface{}) string {
	switch v.(type) {
	case string:
		return "STRING"
	case bool:
		return "BOOLEAN"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "INT64"
	case float32, float64:
		return "FLOAT64"
	case []interface{}:
		return "LIST"
	case map[string]interface{}:
		return "RECORD"
	default:
		return fmt.Sprintf("%T", v)
	}
}
