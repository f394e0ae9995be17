package source

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vegasq/shardql/merge"
	"github.com/vegasq/shardql/query"
)

// connectTimeout bounds pool creation and the initial ping
const connectTimeout = 5 * time.Second

// Postgres runs shard statements on a PostgreSQL database
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the database at dsn. Statements go over the
// simple protocol since shard SQL is generated text run once.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Dialect reports that shard statements must use PostgreSQL quoting
func (p *Postgres) Dialect() query.Dialect {
	return query.Postgres
}

// Query runs sql and returns its rows keyed by result column name
func (p *Postgres) Query(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]map[string]interface{}, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]interface{}, len(fields))
		for i, fd := range fields {
			row[fd.Name] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return out, nil
}

// Exec runs a write statement. With a RETURNING clause the first column of
// the first returned row is the insert id.
func (p *Postgres) Exec(ctx context.Context, sql string) (merge.WriteResult, error) {
	rows, err := p.pool.Query(ctx, sql)
	if err != nil {
		return merge.WriteResult{}, fmt.Errorf("failed to run statement: %w", err)
	}

	var insertID interface{}
	for rows.Next() {
		if insertID != nil {
			continue
		}
		values, err := rows.Values()
		if err != nil {
			rows.Close()
			return merge.WriteResult{}, fmt.Errorf("failed to scan returned row: %w", err)
		}
		if len(values) > 0 {
			insertID = normalizeValue(values[0])
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return merge.WriteResult{}, fmt.Errorf("failed to run statement: %w", err)
	}

	return merge.WriteResult{
		Affected: rows.CommandTag().RowsAffected(),
		InsertID: insertID,
	}, nil
}

// Close closes the connection pool
func (p *Postgres) Close() {
	p.pool.Close()
}

// normalizeValue converts pgx values into the plain types the merge
// compares and sums
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case float32:
		return float64(val)
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		if val.Exp >= 0 {
			if i, err := val.Int64Value(); err == nil && i.Valid {
				return i.Int64
			}
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(val).String()
	default:
		return val
	}
}
