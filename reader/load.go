package reader

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	goavro "github.com/linkedin/goavro/v2"
)

// ErrUnsupportedFormat is returned for files whose extension has no loader
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extensions lists the file extensions Load understands
var Extensions = []string{".parquet", ".avro", ".csv", ".json", ".jsonl"}

// Load reads every row of a shard file. The extension picks the format.
func Load(path string) ([]map[string]interface{}, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		return loadParquet(path)
	case ".avro":
		return loadAvro(path)
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSON(path)
	case ".jsonl", ".ndjson":
		return loadJSONL(path)
	default:
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(Extensions, ", "))
	}
}

func loadCSV(path string) ([]map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header from %s: %w", path, err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]interface{}, 0)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = parseCell(strings.TrimSpace(record[i]))
			} else {
				row[col] = nil
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseCell infers the type of a CSV cell: NULL, integer, float, boolean or
// string, in that order.
func parseCell(s string) interface{} {
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func loadJSON(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("cannot parse JSON from %s: %w (expected array of objects)", path, err)
	}
	return normalizeRecords(records), nil
}

func loadJSONL(path string) ([]map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []map[string]interface{}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return normalizeRecords(records), nil
}

// normalizeRecords turns integral JSON numbers into int64 so they add up
// as integers during the merge
func normalizeRecords(records []map[string]interface{}) []map[string]interface{} {
	if records == nil {
		return []map[string]interface{}{}
	}
	for _, rec := range records {
		for k, v := range rec {
			if f, ok := v.(float64); ok && f == float64(int64(f)) {
				rec[k] = int64(f)
			}
		}
	}
	return records
}

func loadAvro(path string) ([]map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	ocfr, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read Avro OCF from %s: %w", path, err)
	}

	rows := make([]map[string]interface{}, 0)
	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, fmt.Errorf("error reading Avro record: %w", err)
		}
		rec, ok := datum.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected Avro record type %T", datum)
		}

		row := make(map[string]interface{}, len(rec))
		for k, v := range rec {
			row[k] = avroValue(v)
		}
		rows = append(rows, row)
	}
	if err := ocfr.Err(); err != nil {
		return nil, fmt.Errorf("error reading Avro file: %w", err)
	}
	return rows, nil
}

func avroValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	case []byte:
		return string(val)
	case map[string]interface{}:
		// unions decode as {"type": value}
		if len(val) == 1 {
			for _, inner := range val {
				return avroValue(inner)
			}
		}
		return val
	default:
		return val
	}
}
