package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vegasq/shardql/internal/logging"
	"github.com/vegasq/shardql/merge"
	"github.com/vegasq/shardql/query"
)

// Fetcher fans a statement out to every shard at once
type Fetcher struct {
	// Limit caps the number of shards queried concurrently; 0 means no cap
	Limit  int
	Logger *slog.Logger
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return logging.Discard()
	}
	return f.Logger
}

// Fetch runs sql on every shard and returns the rows in shard order. The
// first failing shard cancels the others.
func (f *Fetcher) Fetch(ctx context.Context, shards []Shard, sql string) (merge.Results, error) {
	return f.fetch(ctx, shards, func(Shard) string { return sql })
}

// FetchSelect runs the shard form of sel on every shard, rendered in each
// shard's dialect
func (f *Fetcher) FetchSelect(ctx context.Context, shards []Shard, sel *query.Select) (merge.Results, error) {
	rendered := make(map[query.Dialect]string)
	return f.fetch(ctx, shards, func(shard Shard) string {
		d := DialectOf(shard.Source)
		sql, ok := rendered[d]
		if !ok {
			sql = sel.ShardSQLFor(d)
			rendered[d] = sql
		}
		return sql
	})
}

func (f *Fetcher) fetch(ctx context.Context, shards []Shard, sqlFor func(Shard) string) (merge.Results, error) {
	if err := Validate(shards); err != nil {
		return nil, err
	}

	results := make(merge.Results, len(shards))
	g, ctx := errgroup.WithContext(ctx)
	if f.Limit > 0 {
		g.SetLimit(f.Limit)
	}

	for i, shard := range shards {
		sql := sqlFor(shard)
		g.Go(func() error {
			start := time.Now()
			f.logger().Debug("querying shard", "shard", shard.Name, "sql", sql)
			rows, err := shard.Source.Query(ctx, sql)
			if err != nil {
				f.logger().Warn("shard query failed", "shard", shard.Name, "error", err)
				return fmt.Errorf("shard %s: %w", shard.Name, err)
			}
			f.logger().Debug("fetched shard",
				"shard", shard.Name,
				"rows", len(rows),
				"elapsed", time.Since(start))
			results[i] = merge.ShardRows{Shard: shard.Name, Rows: rows}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Exec runs a write statement on every shard and returns what each shard
// reported, in shard order
func (f *Fetcher) Exec(ctx context.Context, shards []Shard, sql string) ([]merge.WriteResult, error) {
	if err := Validate(shards); err != nil {
		return nil, err
	}

	results := make([]merge.WriteResult, len(shards))
	g, ctx := errgroup.WithContext(ctx)
	if f.Limit > 0 {
		g.SetLimit(f.Limit)
	}

	for i, shard := range shards {
		g.Go(func() error {
			res, err := shard.Source.Exec(ctx, sql)
			if err != nil {
				f.logger().Warn("shard exec failed", "shard", shard.Name, "error", err)
				return fmt.Errorf("shard %s: %w", shard.Name, err)
			}
			res.Shard = shard.Name
			f.logger().Debug("executed on shard", "shard", shard.Name, "affected", res.Affected)
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FetchAll runs sql on every shard with at most limit queries in flight
func FetchAll(ctx context.Context, shards []Shard, sql string, limit int) (merge.Results, error) {
	return (&Fetcher{Limit: limit}).Fetch(ctx, shards, sql)
}

// ExecAll runs a write statement on every shard with at most limit
// statements in flight
func ExecAll(ctx context.Context, shards []Shard, sql string, limit int) ([]merge.WriteResult, error) {
	return (&Fetcher{Limit: limit}).Exec(ctx, shards, sql)
}
