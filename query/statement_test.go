package query

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseSelect(t *testing.T) {
	sel, err := ParseSelect("SELECT a FROM t WHERE x = 'GROUP BY' AND (y > 1) ORDER BY a DESC LIMIT 10, 5")
	if err != nil {
		t.Fatalf("ParseSelect() error = %v", err)
	}
	if sel.Columns.Len() != 1 {
		t.Errorf("Columns.Len() = %d, want 1", sel.Columns.Len())
	}
	if sel.From != "t" {
		t.Errorf("From = %q, want %q", sel.From, "t")
	}
	if sel.Where != "x = 'GROUP BY' AND (y > 1)" {
		t.Errorf("Where = %q", sel.Where)
	}
	if sel.GroupBy.Len() != 0 {
		t.Errorf("GroupBy.Len() = %d, want 0", sel.GroupBy.Len())
	}
	if sel.OrderBy.Len() != 1 || !sel.OrderBy.At(0).Desc {
		t.Errorf("OrderBy = %v", sel.OrderBy)
	}
	if !reflect.DeepEqual(sel.Limit, &Limit{Offset: 10, Count: 5}) {
		t.Errorf("Limit = %+v, want {Offset:10 Count:5}", sel.Limit)
	}
}

func TestParseSelectLimitForms(t *testing.T) {
	tests := []struct {
		sql  string
		want *Limit
	}{
		{sql: "SELECT a FROM t", want: nil},
		{sql: "SELECT a FROM t LIMIT 5", want: &Limit{Count: 5}},
		{sql: "SELECT a FROM t LIMIT 2, 5", want: &Limit{Offset: 2, Count: 5}},
		{sql: "SELECT a FROM t LIMIT 5 OFFSET 2", want: &Limit{Offset: 2, Count: 5}},
		{sql: "select a from t limit 5 offset 2;", want: &Limit{Offset: 2, Count: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			sel, err := ParseSelect(tt.sql)
			if err != nil {
				t.Fatalf("ParseSelect() error = %v", err)
			}
			if !reflect.DeepEqual(sel.Limit, tt.want) {
				t.Errorf("Limit = %+v, want %+v", sel.Limit, tt.want)
			}
		})
	}
}

func TestParseSelectClauses(t *testing.T) {
	sel, err := ParseSelect("SELECT DISTINCT cat, COUNT(*) AS c FROM orders o WHERE o.total > 5 GROUP BY cat HAVING COUNT(*) > 1 ORDER BY c DESC")
	if err != nil {
		t.Fatalf("ParseSelect() error = %v", err)
	}
	if !sel.Distinct {
		t.Error("Distinct = false, want true")
	}
	if sel.From != "orders o" {
		t.Errorf("From = %q", sel.From)
	}
	if sel.Where != "o.total > 5" {
		t.Errorf("Where = %q", sel.Where)
	}
	if sel.GroupBy.Len() != 1 || sel.GroupBy.At(0).String() != "cat" {
		t.Errorf("GroupBy = %v", sel.GroupBy)
	}
	if sel.Having != "COUNT(*) > 1" {
		t.Errorf("Having = %q", sel.Having)
	}
}

func TestParseSelectErrors(t *testing.T) {
	tests := []struct {
		sql     string
		wantErr error
	}{
		{sql: "UPDATE t SET a = 1", wantErr: ErrInvalidClause},
		{sql: "SELECT a FROM", wantErr: ErrInvalidClause},
		{sql: "SELECT a FROM t GROUP a", wantErr: ErrInvalidClause},
		{sql: "SELECT a FROM t LIMIT x", wantErr: ErrInvalidClause},
		{sql: "SELECT a FROM t WHERE b = 'open", wantErr: ErrUnterminatedString},
		{sql: "SELECT COUNT(a FROM t", wantErr: ErrFunctionUnclosed},
		{sql: "SELECT a FROM t LIMIT 1 garbage", wantErr: ErrTrailingInput},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			_, err := ParseSelect(tt.sql)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseSelect(%q) error = %v, want %v", tt.sql, err, tt.wantErr)
			}
		})
	}
}

func TestSelectString(t *testing.T) {
	sql := "SELECT a, COUNT(*) AS c FROM t WHERE x > 1 GROUP BY a ORDER BY c DESC LIMIT 10 OFFSET 5"
	sel, err := ParseSelect(sql)
	if err != nil {
		t.Fatalf("ParseSelect() error = %v", err)
	}
	if got := sel.String(); got != sql {
		t.Errorf("String() = %q, want %q", got, sql)
	}
}

func TestShardSQL(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "plain select",
			sql:  "SELECT a, b FROM t",
			want: "SELECT a, b FROM t",
		},
		{
			name: "avg gains sum and count",
			sql:  "SELECT cat, AVG(price) AS p FROM t GROUP BY cat",
			want: "SELECT cat, AVG(price) AS p, SUM(price) AS __sum_2, COUNT(price) AS __count_3 FROM t GROUP BY cat",
		},
		{
			name: "avg reuses selected helpers",
			sql:  "SELECT SUM(v) AS s, COUNT(v) AS n, AVG(v) AS a FROM t",
			want: "SELECT SUM(v) AS s, COUNT(v) AS n, AVG(v) AS a FROM t",
		},
		{
			name: "group key not selected",
			sql:  "SELECT COUNT(*) AS c FROM t GROUP BY cat",
			want: "SELECT COUNT(*) AS c, cat FROM t GROUP BY cat",
		},
		{
			name: "order key not selected",
			sql:  "SELECT a FROM t ORDER BY b DESC",
			want: "SELECT a, b FROM t ORDER BY b DESC",
		},
		{
			name: "order by alias",
			sql:  "SELECT COUNT(*) AS c FROM t ORDER BY c",
			want: "SELECT COUNT(*) AS c FROM t ORDER BY c ASC",
		},
		{
			name: "order by expression",
			sql:  "SELECT a FROM t ORDER BY SUM(x)",
			want: "SELECT a, SUM(x) AS __key_1 FROM t ORDER BY SUM(x) ASC",
		},
		{
			name: "limit covers offset",
			sql:  "SELECT v FROM t ORDER BY v LIMIT 2 OFFSET 1",
			want: "SELECT v FROM t ORDER BY v ASC LIMIT 3",
		},
		{
			name: "grouped statements run unlimited",
			sql:  "SELECT cat, COUNT(*) AS c FROM t GROUP BY cat LIMIT 5",
			want: "SELECT cat, COUNT(*) AS c FROM t GROUP BY cat",
		},
		{
			name: "wildcard covers fields",
			sql:  "SELECT * FROM t ORDER BY a",
			want: "SELECT * FROM t ORDER BY a ASC",
		},
		{
			name: "unaliased expressions are named by their key",
			sql:  "SELECT COUNT(*), SUM(price) FROM t",
			want: "SELECT COUNT(*) AS `COUNT(*)`, SUM(price) AS `SUM(price)` FROM t",
		},
		{
			name: "mixed case field keeps its spelling",
			sql:  "SELECT Cat FROM t",
			want: "SELECT Cat AS Cat FROM t",
		},
		{
			name: "grouped having runs after the merge",
			sql:  "SELECT cat, COUNT(*) AS c FROM t GROUP BY cat HAVING COUNT(*) > 1",
			want: "SELECT cat, COUNT(*) AS c FROM t GROUP BY cat",
		},
		{
			name: "having aggregate not selected",
			sql:  "SELECT cat FROM t GROUP BY cat HAVING SUM(v) > 1",
			want: "SELECT cat, SUM(v) AS __having_1 FROM t GROUP BY cat",
		},
		{
			name: "having average gains helpers",
			sql:  "SELECT cat FROM t GROUP BY cat HAVING AVG(v) > 1",
			want: "SELECT cat, AVG(v) AS __having_1, SUM(v) AS __sum_2, COUNT(v) AS __count_3 FROM t GROUP BY cat",
		},
		{
			name: "aggregate having drops the shard limit",
			sql:  "SELECT COUNT(*) AS c FROM t HAVING c > 1 LIMIT 1",
			want: "SELECT COUNT(*) AS c FROM t",
		},
		{
			name: "plain having stays on the shards",
			sql:  "SELECT a FROM t HAVING a > 1",
			want: "SELECT a FROM t HAVING a > 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseSelect(tt.sql)
			if err != nil {
				t.Fatalf("ParseSelect() error = %v", err)
			}
			if got := sel.ShardSQL(); got != tt.want {
				t.Errorf("ShardSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShardSQLPostgres(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "aliases keep case",
			sql:  "SELECT Cat, COUNT(*), SUM(price) AS Total FROM t GROUP BY Cat ORDER BY Total DESC",
			want: `SELECT Cat AS "Cat", COUNT(*) AS "COUNT(*)", SUM(price) AS "Total" FROM t GROUP BY "Cat" ORDER BY "Total" DESC`,
		},
		{
			name: "helpers",
			sql:  "SELECT cat, AVG(price) AS p FROM t GROUP BY cat",
			want: `SELECT cat, AVG(price) AS "p", SUM(price) AS "__sum_2", COUNT(price) AS "__count_3" FROM t GROUP BY cat`,
		},
		{
			name: "quoted identifiers and strings",
			sql:  "SELECT `my col`, CASE WHEN a <=> 'it\\'s' THEN 1 END AS flag FROM t",
			want: `SELECT "my col", CASE WHEN a IS NOT DISTINCT FROM 'it''s' THEN 1 END AS "flag" FROM t`,
		},
		{
			name: "limit",
			sql:  "SELECT v FROM t ORDER BY v LIMIT 5",
			want: `SELECT v FROM t ORDER BY v ASC LIMIT 5`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseSelect(tt.sql)
			if err != nil {
				t.Fatalf("ParseSelect() error = %v", err)
			}
			if got := sel.ShardSQLFor(Postgres); got != tt.want {
				t.Errorf("ShardSQLFor(Postgres) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSelectHaving(t *testing.T) {
	sel, err := ParseSelect("SELECT cat FROM t GROUP BY cat HAVING COUNT(*) > 1 AND cat <> 'x'")
	if err != nil {
		t.Fatalf("ParseSelect() error = %v", err)
	}
	if sel.HavingExpr == nil {
		t.Fatal("HavingExpr = nil for a grouped statement")
	}
	if got := sel.HavingExpr.String(); got != "COUNT(*) > 1 AND cat <> 'x'" {
		t.Errorf("HavingExpr = %q", got)
	}

	plain, err := ParseSelect("SELECT a FROM t HAVING a > (SELECT 1)")
	if err != nil {
		t.Fatalf("ParseSelect() error = %v", err)
	}
	if plain.HavingExpr != nil {
		t.Errorf("HavingExpr = %v, want nil without grouping", plain.HavingExpr)
	}

	sql := "SELECT a FROM t GROUP BY a HAVING (a > 1)"
	_, err = ParseSelect(sql)
	var pe *ParseError
	if !errors.As(err, &pe) || !errors.Is(err, ErrInvalidOperator) {
		t.Fatalf("ParseSelect(%q) error = %v, want ErrInvalidOperator", sql, err)
	}
	if want := strings.Index(sql, "("); pe.Offset != want {
		t.Errorf("Offset = %d, want %d", pe.Offset, want)
	}
}

func TestKeyFor(t *testing.T) {
	cols, err := ParseColumns("t.cat, COUNT(*) AS c, SUM(v)")
	if err != nil {
		t.Fatalf("ParseColumns() error = %v", err)
	}

	tests := []struct {
		expr string
		want string
	}{
		{expr: "t.cat", want: "cat"},
		{expr: "c", want: "c"},
		{expr: "COUNT(*)", want: "c"},
		{expr: "SUM(v)", want: "SUM(v)"},
		{expr: "other", want: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			n, err := ParseExpression(tt.expr)
			if err != nil {
				t.Fatalf("ParseExpression() error = %v", err)
			}
			if got := KeyFor(cols, n); got != tt.want {
				t.Errorf("KeyFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectTree(t *testing.T) {
	sel, err := ParseSelect("SELECT a FROM t LIMIT 3")
	if err != nil {
		t.Fatalf("ParseSelect() error = %v", err)
	}
	want := "Select from=t limit=3 offset=0\n" +
		"  Columns\n" +
		"    Column\n" +
		"      Field name=a\n"
	if got := sel.Tree().String(); got != want {
		t.Errorf("Tree().String() =\n%s\nwant\n%s", got, want)
	}
}
