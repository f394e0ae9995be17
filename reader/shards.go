package reader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// maxShardFiles caps how many files one pattern may expand to
const maxShardFiles = 1000

// ShardID derives a shard id from a file path: the base name without its
// extension.
func ShardID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExpandPattern returns the files a glob pattern matches, sorted. A pattern
// without wildcards is returned as is.
//
// Examples:
//   - "shards/*.parquet" - every parquet file in shards
//   - "shards/eu-*.jsonl" - jsonl shards whose name starts with eu-
func ExpandPattern(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[]") {
		return []string{pattern}, nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}
	if len(matches) > maxShardFiles {
		return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxShardFiles)
	}
	sort.Strings(matches)
	return matches, nil
}

// LoadShards loads one shard per file matched by pattern, keyed by ShardID.
// Two files with the same id are an error.
func LoadShards(pattern string) (map[string][]map[string]interface{}, error) {
	paths, err := ExpandPattern(pattern)
	if err != nil {
		return nil, err
	}

	shards := make(map[string][]map[string]interface{}, len(paths))
	origin := make(map[string]string, len(paths))
	for _, path := range paths {
		id := ShardID(path)
		if prev, dup := origin[id]; dup {
			return nil, fmt.Errorf("shard %q is defined by both %s and %s", id, prev, path)
		}

		rows, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		shards[id] = rows
		origin[id] = path
	}
	return shards, nil
}
