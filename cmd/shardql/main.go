package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/vegasq/shardql/internal/config"
	"github.com/vegasq/shardql/internal/logging"
	"github.com/vegasq/shardql/merge"
	"github.com/vegasq/shardql/output"
	"github.com/vegasq/shardql/query"
	"github.com/vegasq/shardql/reader"
	"github.com/vegasq/shardql/source"
)

// shardFlags collects repeated -shard name=path flags
type shardFlags []config.Shard

func (s *shardFlags) String() string {
	parts := make([]string, 0, len(*s))
	for _, sh := range *s {
		parts = append(parts, sh.Name+"="+sh.File)
	}
	return strings.Join(parts, ",")
}

func (s *shardFlags) Set(value string) error {
	name, path, ok := strings.Cut(value, "=")
	if !ok || name == "" || path == "" {
		return fmt.Errorf("expected name=path, got %q", value)
	}
	*s = append(*s, config.Shard{Name: name, File: path})
	return nil
}

// options are the parsed command line flags
type options struct {
	query      string
	configPath string
	format     string
	logLevel   string
	dialect    string
	shards     shardFlags
	patterns   []string
	explain    bool
	rewrite    bool
	exec       bool
	schema     bool
	set        map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(fs *flag.FlagSet, w io.Writer) func() {
	return func() {
		fmt.Fprintf(w, "Usage: shardql [options] [shard files or glob patterns]\n\n")
		fmt.Fprintf(w, "Runs a SELECT across shards and merges the shard results.\n\n")
		fmt.Fprintf(w, "IMPORTANT: All flags must come BEFORE file arguments.\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  shardql -q \"SELECT cat, COUNT(*) AS c FROM t GROUP BY cat\" 'results/*.parquet'\n")
		fmt.Fprintf(w, "  shardql -shard eu=eu.jsonl -shard us=us.jsonl -f table -q \"SELECT * FROM t ORDER BY id LIMIT 10\"\n")
		fmt.Fprintf(w, "  shardql -rewrite -q \"SELECT AVG(price) AS p FROM t\"\n")
	fmt.Fprintf(w, "  shardql -rewrite -dialect postgres -q \"SELECT Cat, COUNT(*) FROM t GROUP BY Cat\"\n")
		fmt.Fprintf(w, "  shardql -config shardql.yaml -exec -q \"DELETE FROM t WHERE expired\"\n")
		fmt.Fprintf(w, "  shardql -schema results/eu-1.parquet\n")
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("shardql", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = usage(fs, stderr)
	fs.StringVar(&opts.query, "q", "", "SQL statement (e.g., \"SELECT cat, AVG(price) AS p FROM t GROUP BY cat\")")
	fs.StringVar(&opts.configPath, "config", "", "Config file with shard definitions (yaml, json or toml)")
	fs.StringVar(&opts.format, "f", "jsonl", "Output format: "+strings.Join(output.Names, ", "))
	fs.StringVar(&opts.logLevel, "log-level", "INFO", "Log level: DEBUG, INFO, WARN, ERROR")
	fs.StringVar(&opts.dialect, "dialect", "mysql", "SQL dialect -rewrite prints: mysql or postgres")
	fs.Var(&opts.shards, "shard", "Shard result file as name=path (repeatable)")
	fs.BoolVar(&opts.explain, "explain", false, "Print the parsed statement tree instead of running it")
	fs.BoolVar(&opts.rewrite, "rewrite", false, "Print the statement each shard runs instead of running it")
	fs.BoolVar(&opts.exec, "exec", false, "Run -q as a write statement on every shard and report affected rows")
	fs.BoolVar(&opts.schema, "schema", false, "Show the columns of a shard file instead of data")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	opts.patterns = fs.Args()

	if opts.schema && opts.query != "" {
		return nil, errors.New("-schema and -q cannot be used together")
	}
	if !opts.schema && opts.query == "" {
		fs.Usage()
		return nil, errors.New("missing -q statement")
	}
	if opts.exec && (opts.explain || opts.rewrite) {
		return nil, errors.New("-exec cannot be combined with -explain or -rewrite")
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.set["f"] {
		cfg.Format = opts.format
	}
	if opts.set["log-level"] {
		cfg.Log.Level = opts.logLevel
	}

	logger := logging.WithRunID(
		logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, stderr),
		uuid.NewString(),
	)

	formatter, err := output.New(cfg.Format, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.schema {
		if err := runSchema(opts.patterns, formatter); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if opts.exec {
		err = runExec(ctx, opts, cfg, logger, formatter)
	} else {
		err = runSelect(ctx, opts, cfg, logger, stdout, formatter)
	}
	if err != nil {
		logger.Error("run failed", "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runSelect(ctx context.Context, opts *options, cfg *config.Config, logger *slog.Logger, stdout io.Writer, formatter output.Formatter) error {
	sel, err := query.ParseSelect(opts.query)
	if err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}

	switch {
	case opts.explain:
		_, err := fmt.Fprint(stdout, sel.Tree().String())
		return err
	case opts.rewrite:
		dialect, err := query.ParseDialect(opts.dialect)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, sel.ShardSQLFor(dialect))
		return err
	}

	shards, closeAll, err := openShards(ctx, opts, cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	logger.Debug("fanning out", "shards", len(shards), "sql", sel.ShardSQL())

	fetcher := source.Fetcher{Limit: cfg.Concurrency, Logger: logger}
	results, err := fetcher.FetchSelect(ctx, shards, sel)
	if err != nil {
		return err
	}

	m := merge.New(merge.NewDirective(sel), results, merge.WithLogger(logger))
	rows, err := m.All()
	if err != nil {
		return fmt.Errorf("failed to merge shard results: %w", err)
	}
	logger.Info("merged", "shards", len(results), "shard_rows", results.RowCount(), "rows", len(rows))

	return formatter.Format(m.Columns(), rows)
}

func runExec(ctx context.Context, opts *options, cfg *config.Config, logger *slog.Logger, formatter output.Formatter) error {
	shards, closeAll, err := openShards(ctx, opts, cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	fetcher := source.Fetcher{Limit: cfg.Concurrency, Logger: logger}
	results, err := fetcher.Exec(ctx, shards, opts.query)
	if err != nil {
		return err
	}

	row, err := execSummary(results)
	if err != nil {
		return err
	}
	return formatter.Format([]string{"affected", "insert_id"}, []map[string]interface{}{row})
}

// execSummary reports the total affected rows and the insert id. A write
// that generated no id reports a NULL insert_id.
func execSummary(results []merge.WriteResult) (map[string]interface{}, error) {
	row := map[string]interface{}{"affected": merge.AffectedCount(results), "insert_id": nil}
	id, err := merge.InsertID(results)
	switch {
	case err == nil:
		row["insert_id"] = id
	case !errors.Is(err, merge.ErrInsertFailedNoID):
		return nil, err
	}
	return row, nil
}

// openShards builds the shard set from the config file, -shard flags and
// positional file patterns, in that order. The returned func closes any
// database pools.
func openShards(ctx context.Context, opts *options, cfg *config.Config) ([]source.Shard, func(), error) {
	var shards []source.Shard
	var pools []*source.Postgres
	closeAll := func() {
		for _, p := range pools {
			p.Close()
		}
	}

	defined := append([]config.Shard{}, cfg.Shards...)
	defined = append(defined, opts.shards...)

	for _, sh := range defined {
		if sh.DSN == "" {
			shards = append(shards, source.Shard{Name: sh.Name, Source: source.NewFile(sh.File)})
			continue
		}
		pg, err := source.OpenPostgres(ctx, sh.DSN)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("shard %s: %w", sh.Name, err)
		}
		pools = append(pools, pg)
		shards = append(shards, source.Shard{Name: sh.Name, Source: pg})
	}

	for _, pattern := range opts.patterns {
		paths, err := reader.ExpandPattern(pattern)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		for _, path := range paths {
			shards = append(shards, source.Shard{Name: reader.ShardID(path), Source: source.NewFile(path)})
		}
	}

	if err := source.Validate(shards); err != nil {
		closeAll()
		return nil, nil, err
	}
	return shards, closeAll, nil
}

// runSchema prints the columns of the first file the patterns match
func runSchema(patterns []string, formatter output.Formatter) error {
	if len(patterns) == 0 {
		return errors.New("missing shard file argument")
	}
	paths, err := reader.ExpandPattern(patterns[0])
	if err != nil {
		return err
	}

	infos, err := reader.Describe(paths[0])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file '%s' not found", paths[0])
		}
		return err
	}

	rows := make([]map[string]interface{}, len(infos))
	for i, info := range infos {
		rows[i] = map[string]interface{}{
			"name":     info.Name,
			"type":     info.Type,
			"nullable": info.Nullable,
			"repeated": info.Repeated,
		}
	}
	return formatter.Format([]string{"name", "type", "nullable", "repeated"}, rows)
}
