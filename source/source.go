package source

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vegasq/shardql/merge"
	"github.com/vegasq/shardql/query"
	"github.com/vegasq/shardql/reader"
)

// ErrReadOnly is returned by Exec on sources that cannot run writes
var ErrReadOnly = errors.New("source is read-only")

// Source runs statements against one shard
type Source interface {
	// Query runs a read statement and returns its rows, sorted as the
	// statement's ORDER BY asks
	Query(ctx context.Context, sql string) ([]map[string]interface{}, error)

	// Exec runs a write statement
	Exec(ctx context.Context, sql string) (merge.WriteResult, error)
}

// Dialected is implemented by sources that need statements rendered in a
// particular SQL dialect
type Dialected interface {
	Dialect() query.Dialect
}

// DialectOf returns the dialect statements for s are rendered in, MySQL
// unless s says otherwise
func DialectOf(s Source) query.Dialect {
	if d, ok := s.(Dialected); ok {
		return d.Dialect()
	}
	return query.MySQL
}

// Shard binds a shard name to its source
type Shard struct {
	Name   string
	Source Source
}

// File serves the rows of a shard result file. The file already holds the
// shard's answer, so the statement text is not evaluated.
type File struct {
	Path string
}

// NewFile creates a source backed by the file at path
func NewFile(path string) *File {
	return &File{Path: path}
}

// Query loads the file's rows
func (f *File) Query(ctx context.Context, _ string) ([]map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return reader.Load(f.Path)
}

// Exec always fails with ErrReadOnly
func (f *File) Exec(context.Context, string) (merge.WriteResult, error) {
	return merge.WriteResult{}, ErrReadOnly
}

// Static serves rows held in memory
type Static struct {
	Rows []map[string]interface{}
}

// Query returns the held rows
func (s *Static) Query(ctx context.Context, _ string) ([]map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Rows, nil
}

// Exec always fails with ErrReadOnly
func (s *Static) Exec(context.Context, string) (merge.WriteResult, error) {
	return merge.WriteResult{}, ErrReadOnly
}

// FromRows wraps loaded shard rows, such as reader.LoadShards returns, as
// static shards ordered by name
func FromRows(shards map[string][]map[string]interface{}) []Shard {
	names := make([]string, 0, len(shards))
	for name := range shards {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Shard, 0, len(names))
	for _, name := range names {
		out = append(out, Shard{Name: name, Source: &Static{Rows: shards[name]}})
	}
	return out
}

// Validate rejects an empty shard set and duplicate or empty names
func Validate(shards []Shard) error {
	if len(shards) == 0 {
		return errors.New("no shards configured")
	}
	seen := make(map[string]bool, len(shards))
	for _, s := range shards {
		if s.Name == "" {
			return errors.New("shard without a name")
		}
		if seen[s.Name] {
			return fmt.Errorf("shard %q is defined twice", s.Name)
		}
		if s.Source == nil {
			return fmt.Errorf("shard %q has no source", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
