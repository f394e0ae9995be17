package query

import "testing"

func TestParseDialect(t *testing.T) {
	tests := []struct {
		name    string
		want    Dialect
		wantErr bool
	}{
		{name: "", want: MySQL},
		{name: "mysql", want: MySQL},
		{name: "Postgres", want: Postgres},
		{name: "pg", want: Postgres},
		{name: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDialect(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDialect(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseDialect(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		input    string
		mysql    string
		postgres string
	}{
		{input: "a", mysql: "a", postgres: "a"},
		{input: "db.`order`.`x y`", mysql: "db.`order`.`x y`", postgres: `db."order"."x y"`},
		{input: "t.*", mysql: "t.*", postgres: "t.*"},
		{input: "'it\\'s'", mysql: "'it\\'s'", postgres: "'it''s'"},
		{input: "'a\\\\b'", mysql: "'a\\\\b'", postgres: `'a\b'`},
		{input: "COUNT(DISTINCT `we\"ird`)", mysql: "COUNT(DISTINCT `we\"ird`)", postgres: `COUNT(DISTINCT "we""ird")`},
		{input: "a <=> NULL", mysql: "a <=> NULL", postgres: "a IS NOT DISTINCT FROM NULL"},
		{input: "CASE x WHEN 'y' THEN -1 ELSE 2 END", mysql: "CASE x WHEN 'y' THEN -1 ELSE 2 END", postgres: "CASE x WHEN 'y' THEN -1 ELSE 2 END"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := ParseExpression(tt.input)
			if err != nil {
				t.Fatalf("ParseExpression() error = %v", err)
			}
			if got := MySQL.Render(n); got != tt.mysql {
				t.Errorf("MySQL.Render() = %q, want %q", got, tt.mysql)
			}
			if got := Postgres.Render(n); got != tt.postgres {
				t.Errorf("Postgres.Render() = %q, want %q", got, tt.postgres)
			}
		})
	}
}

func TestRenderColumnAlias(t *testing.T) {
	cols, err := ParseColumns("COUNT(*) AS Total, a, b AS `x y`")
	if err != nil {
		t.Fatalf("ParseColumns() error = %v", err)
	}
	if got, want := RenderList(MySQL, cols), "COUNT(*) AS Total, a, b AS `x y`"; got != want {
		t.Errorf("RenderList(MySQL) = %q, want %q", got, want)
	}
	if got, want := RenderList(Postgres, cols), `COUNT(*) AS "Total", a, b AS "x y"`; got != want {
		t.Errorf("RenderList(Postgres) = %q, want %q", got, want)
	}
}
