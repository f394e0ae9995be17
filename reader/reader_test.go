package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	goavro "github.com/linkedin/goavro/v2"
	"github.com/parquet-go/parquet-go"
)

type orderRow struct {
	ID    int64   `parquet:"id"`
	Cat   string  `parquet:"cat"`
	Price float64 `parquet:"price"`
	Note  *string `parquet:"note,optional"`
}

func writeParquet(t *testing.T, path string, rows []orderRow) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	writer := parquet.NewGenericWriter[orderRow](f)
	if _, err := writer.Write(rows); err != nil {
		t.Fatalf("failed to write test data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eu-1.parquet")
	note := "gift"
	writeParquet(t, path, []orderRow{
		{ID: 1, Cat: "books", Price: 12.5, Note: &note},
		{ID: 2, Cat: "games", Price: 30},
	})

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Load() returned %d rows, want 2", len(rows))
	}
	if got := fmt.Sprint(rows[0]["id"], " ", rows[0]["cat"], " ", rows[0]["price"]); got != "1 books 12.5" {
		t.Errorf("first row = %q, want %q", got, "1 books 12.5")
	}
	if got := fmt.Sprint(rows[1]["cat"]); got != "games" {
		t.Errorf("second row cat = %q, want games", got)
	}
}

func TestParquetReaderColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.parquet")
	writeParquet(t, path, []orderRow{{ID: 1, Cat: "books", Price: 1}})

	r, err := NewParquetReader(path)
	if err != nil {
		t.Fatalf("NewParquetReader() error = %v", err)
	}
	defer func() { _ = r.Close() }()

	cols := r.Columns()
	if len(cols) != 4 {
		t.Fatalf("Columns() = %v, want 4 columns", cols)
	}
	seen := make(map[string]bool)
	for _, c := range cols {
		seen[c] = true
	}
	for _, want := range []string{"id", "cat", "price", "note"} {
		if !seen[want] {
			t.Errorf("Columns() = %v, missing %q", cols, want)
		}
	}

	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNewParquetReaderErrors(t *testing.T) {
	if _, err := NewParquetReader(filepath.Join(t.TempDir(), "missing.parquet")); err == nil {
		t.Error("NewParquetReader() should fail for a missing file")
	}

	bogus := filepath.Join(t.TempDir(), "bogus.parquet")
	writeFile(t, bogus, "not parquet")
	if _, err := NewParquetReader(bogus); err == nil {
		t.Error("NewParquetReader() should fail for a non-parquet file")
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.csv")
	writeFile(t, path, "id, cat ,price,ok\n1,books,12.5,true\n2,games,,FALSE\n3,toys\n")

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []map[string]interface{}{
		{"id": int64(1), "cat": "books", "price": 12.5, "ok": true},
		{"id": int64(2), "cat": "games", "price": nil, "ok": false},
		{"id": int64(3), "cat": "toys", "price": nil, "ok": nil},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Load() = %v, want %v", rows, want)
	}
}

func TestLoadCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	writeFile(t, path, "")

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Load() returned %d rows, want 0", len(rows))
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "shard.json")
	writeFile(t, jsonPath, `[{"id": 1, "price": 2.5, "cat": "books", "tags": ["a"]}, {"id": 2, "price": null}]`)
	jsonlPath := filepath.Join(dir, "shard.jsonl")
	writeFile(t, jsonlPath, "{\"id\": 1, \"price\": 2.5, \"cat\": \"books\", \"tags\": [\"a\"]}\n\n{\"id\": 2, \"price\": null}\n")

	want := []map[string]interface{}{
		{"id": int64(1), "price": 2.5, "cat": "books", "tags": []interface{}{"a"}},
		{"id": int64(2), "price": nil},
	}

	for _, path := range []string{jsonPath, jsonlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			rows, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(rows, want) {
				t.Errorf("Load() = %v, want %v", rows, want)
			}
		})
	}
}

func TestLoadJSONErrors(t *testing.T) {
	dir := t.TempDir()
	notArray := filepath.Join(dir, "object.json")
	writeFile(t, notArray, `{"id": 1}`)
	badLine := filepath.Join(dir, "bad.jsonl")
	writeFile(t, badLine, "{\"id\": 1}\n{oops\n")

	if _, err := Load(notArray); err == nil {
		t.Error("Load() should reject a JSON object that is not an array")
	}
	if _, err := Load(badLine); err == nil {
		t.Error("Load() should reject an invalid JSON line")
	}
}

func TestLoadAvro(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shard.avro")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	w, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W: f,
		Schema: `{
			"type": "record",
			"name": "Order",
			"fields": [
				{"name": "id", "type": "long"},
				{"name": "qty", "type": "int"},
				{"name": "cat", "type": "string"},
				{"name": "note", "type": ["null", "string"]}
			]
		}`,
	})
	if err != nil {
		t.Fatalf("NewOCFWriter() error = %v", err)
	}
	err = w.Append([]interface{}{
		map[string]interface{}{"id": int64(1), "qty": int32(3), "cat": "books", "note": goavro.Union("string", "gift")},
		map[string]interface{}{"id": int64(2), "qty": int32(1), "cat": "games", "note": nil},
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []map[string]interface{}{
		{"id": int64(1), "qty": int64(3), "cat": "books", "note": "gift"},
		{"id": int64(2), "qty": int64(1), "cat": "games", "note": nil},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Load() = %v, want %v", rows, want)
	}
}

func TestLoadUnsupported(t *testing.T) {
	_, err := Load("shard.xml")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadShards(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "eu-1.jsonl"), "{\"v\": 1}\n{\"v\": 2}\n")
	writeFile(t, filepath.Join(dir, "us-1.jsonl"), "{\"v\": 3}\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	shards, err := LoadShards(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		t.Fatalf("LoadShards() error = %v", err)
	}
	if len(shards) != 2 {
		t.Fatalf("LoadShards() returned %d shards, want 2", len(shards))
	}
	if len(shards["eu-1"]) != 2 || len(shards["us-1"]) != 1 {
		t.Errorf("shard sizes = eu-1:%d us-1:%d, want 2 and 1", len(shards["eu-1"]), len(shards["us-1"]))
	}
}

func TestLoadShardsErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), "[]")
	writeFile(t, filepath.Join(dir, "a.jsonl"), "")

	tests := []struct {
		name    string
		pattern string
	}{
		{name: "no match", pattern: filepath.Join(dir, "*.parquet")},
		{name: "duplicate shard id", pattern: filepath.Join(dir, "a.*")},
		{name: "missing file", pattern: filepath.Join(dir, "missing.csv")},
		{name: "bad pattern", pattern: filepath.Join(dir, "[")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadShards(tt.pattern); err == nil {
				t.Errorf("LoadShards(%q) should fail", tt.pattern)
			}
		})
	}
}

func TestShardID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "shards/eu-1.parquet", want: "eu-1"},
		{path: "eu-1", want: "eu-1"},
		{path: "/tmp/a.b.jsonl", want: "a.b"},
	}
	for _, tt := range tests {
		if got := ShardID(tt.path); got != tt.want {
			t.Errorf("ShardID(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	pq := filepath.Join(dir, "shard.parquet")
	writeParquet(t, pq, []orderRow{{ID: 1, Cat: "books", Price: 1}})

	infos, err := Describe(pq)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	byName := make(map[string]ColumnInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}
	if byName["id"].Type != "INT64" {
		t.Errorf("id type = %s, want INT64", byName["id"].Type)
	}
	if byName["cat"].Type != "STRING" {
		t.Errorf("cat type = %s, want STRING", byName["cat"].Type)
	}
	if byName["price"].Type != "FLOAT64" {
		t.Errorf("price type = %s, want FLOAT64", byName["price"].Type)
	}
	if !byName["note"].Nullable || byName["id"].Nullable {
		t.Errorf("nullable flags: note=%v id=%v, want true false", byName["note"].Nullable, byName["id"].Nullable)
	}

	jl := filepath.Join(dir, "shard.jsonl")
	writeFile(t, jl, "{\"id\": 1, \"v\": \"x\"}\n{\"id\": 2, \"v\": 3, \"n\": null}\n")
	infos, err = Describe(jl)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	want := []ColumnInfo{
		{Name: "id", Type: "INT64"},
		{Name: "n", Type: "NULL", Nullable: true},
		{Name: "v", Type: "MIXED"},
	}
	if !reflect.DeepEqual(infos, want) {
		t.Errorf("Describe() = %+v, want %+v", infos, want)
	}
}
