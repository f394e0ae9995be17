package query

import (
	"errors"
	"strconv"
	"strings"
)

// Limit is the LIMIT clause as an offset and a row count
type Limit struct {
	Offset int64
	Count  int64
}

// Select is a parsed SELECT statement. Clauses this package does not model
// as nodes (FROM, WHERE, HAVING) are kept as raw text. HAVING on a grouped
// or aggregating statement is also parsed into HavingExpr, because it has
// to be evaluated on merged groups rather than on each shard.
type Select struct {
	Distinct   bool
	Columns    *ColumnList
	From       string
	Where      string
	GroupBy    *GroupByList
	Having     string
	HavingExpr Node
	OrderBy    *OrderByList
	Limit      *Limit
}

// clauseKeywords end a raw clause when they appear outside parentheses
var clauseKeywords = map[string]bool{
	"WHERE":  true,
	"GROUP":  true,
	"HAVING": true,
	"ORDER":  true,
	"LIMIT":  true,
}

// ParseSelect parses SELECT [DISTINCT] columns [FROM ...] [WHERE ...]
// [GROUP BY ...] [HAVING ...] [ORDER BY ...] [LIMIT ...]
func ParseSelect(sql string) (*Select, error) {
	p := NewParser(sql)
	sel, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	p.probe(func() bool {
		p.s.SkipSpaces()
		return p.s.ParseOperator(nil) == ";"
	})
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return sel, nil
}

func (p *Parser) parseSelect() (*Select, error) {
	p.s.SkipSpaces()
	if p.peekKeyword() != "SELECT" {
		return nil, p.s.errorAt(ErrInvalidClause, p.s.Pos(), p.peekToken())
	}
	p.s.ParseWord()

	sel := &Select{}
	sel.Distinct = p.probe(func() bool {
		p.s.SkipSpaces()
		return strings.EqualFold(p.s.ParseWord(), "DISTINCT")
	})

	columns, err := p.ParseColumnList()
	if err != nil {
		return nil, err
	}
	sel.Columns = columns

	if p.acceptKeyword("FROM") {
		if sel.From, err = p.rawClause("FROM"); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("WHERE") {
		if sel.Where, err = p.rawClause("WHERE"); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("GROUP") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if sel.GroupBy, err = p.ParseGroupByList(); err != nil {
			return nil, err
		}
	}
	havingAt := -1
	if p.acceptKeyword("HAVING") {
		p.s.SkipSpaces()
		havingAt = p.s.Pos()
		if sel.Having, err = p.rawClause("HAVING"); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		if sel.OrderBy, err = p.ParseOrderByList(); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("LIMIT") {
		if sel.Limit, err = p.parseLimit(); err != nil {
			return nil, err
		}
	}

	if havingAt >= 0 && (sel.GroupBy.Len() > 0 || HasAggregates(sel.Columns)) {
		if sel.HavingExpr, err = parseHaving(sel.Having, havingAt); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

// parseHaving parses a HAVING condition that starts at offset at of the
// statement, reporting errors against the statement's offsets.
func parseHaving(text string, at int) (Node, error) {
	n, err := ParseExpression(text)
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.Offset += at
		return nil, perr
	}
	return n, err
}

// acceptKeyword consumes kw when it is the next word
func (p *Parser) acceptKeyword(kw string) bool {
	return p.probe(func() bool {
		p.s.SkipSpaces()
		return strings.EqualFold(p.s.ParseWord(), kw)
	})
}

func (p *Parser) expectKeyword(kw string) error {
	if p.acceptKeyword(kw) {
		return nil
	}
	p.s.SkipSpaces()
	return p.s.errorAt(ErrInvalidClause, p.s.Pos(), p.peekToken())
}

// rawClause captures text up to the next top-level clause keyword, skipping
// over quoted strings and parenthesized groups.
func (p *Parser) rawClause(name string) (string, error) {
	p.s.SkipSpaces()
	start := p.s.Pos()
	end := start
	depth := 0

	for {
		p.s.SkipSpaces()
		if p.s.EOF() {
			break
		}
		mark := p.s.Save()
		c := p.s.Peek()
		switch {
		case c == '\'' || c == '"' || c == '`':
			if _, err := p.s.ParseString(c); err != nil {
				return "", err
			}
		case c == '(':
			depth++
			p.s.ParseOperator(nil)
		case c == ')':
			depth--
			p.s.ParseOperator(nil)
		case c == ';' && depth == 0:
			return p.finishRaw(name, start, end)
		case !isBoundary(c):
			word := p.s.ParseWord()
			if depth == 0 && clauseKeywords[strings.ToUpper(word)] {
				p.s.Restore(mark)
				return p.finishRaw(name, start, end)
			}
		default:
			p.s.ParseOperator(nil)
		}
		end = p.s.Pos()
	}
	return p.finishRaw(name, start, end)
}

func (p *Parser) finishRaw(name string, start, end int) (string, error) {
	text := strings.TrimSpace(p.s.src[start:end])
	if text == "" {
		return "", p.s.errorAt(ErrInvalidClause, start, name)
	}
	return text, nil
}

// parseLimit reads LIMIT n, LIMIT offset, n or LIMIT n OFFSET offset
func (p *Parser) parseLimit() (*Limit, error) {
	first, err := p.parseCount()
	if err != nil {
		return nil, err
	}

	isComma := p.probe(func() bool {
		p.s.SkipSpaces()
		return p.s.ParseOperator(nil) == ","
	})
	if isComma {
		count, err := p.parseCount()
		if err != nil {
			return nil, err
		}
		return &Limit{Offset: first, Count: count}, nil
	}

	if p.acceptKeyword("OFFSET") {
		offset, err := p.parseCount()
		if err != nil {
			return nil, err
		}
		return &Limit{Offset: offset, Count: first}, nil
	}
	return &Limit{Count: first}, nil
}

func (p *Parser) parseCount() (int64, error) {
	p.s.SkipSpaces()
	at := p.s.Pos()
	word := p.s.ParseWord()
	n, err := strconv.ParseInt(word, 10, 64)
	if err != nil || n < 0 {
		if word == "" {
			word = p.peekToken()
		}
		return 0, p.s.errorAt(ErrInvalidClause, at, word)
	}
	return n, nil
}

// String renders the statement as canonical SQL
func (s *Select) String() string {
	return s.render(MySQL, s.Columns, s.Having, s.Limit)
}

func (s *Select) render(d Dialect, columns *ColumnList, having string, limit *Limit) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if s.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(RenderList(d, columns))
	if s.From != "" {
		b.WriteString(" FROM ")
		b.WriteString(s.From)
	}
	if s.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where)
	}
	if s.GroupBy.Len() > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(renderRefs(d, columns, s.GroupBy))
	}
	if having != "" {
		b.WriteString(" HAVING ")
		b.WriteString(having)
	}
	if s.OrderBy.Len() > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(renderRefs(d, columns, s.OrderBy))
	}
	if limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatInt(limit.Count, 10))
		if limit.Offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(strconv.FormatInt(limit.Offset, 10))
		}
	}
	return b.String()
}

// Tree returns the structural view of the statement's modelled clauses
func (s *Select) Tree() Tree {
	t := Tree{Type: "Select", Attrs: map[string]string{}}
	if s.Distinct {
		t.Attrs["distinct"] = "true"
	}
	if s.From != "" {
		t.Attrs["from"] = s.From
	}
	if s.Where != "" {
		t.Attrs["where"] = s.Where
	}
	if s.Having != "" {
		t.Attrs["having"] = s.Having
	}
	if s.Limit != nil {
		t.Attrs["limit"] = strconv.FormatInt(s.Limit.Count, 10)
		t.Attrs["offset"] = strconv.FormatInt(s.Limit.Offset, 10)
	}

	columns := s.Columns.Tree()
	columns.Type = "Columns"
	t.Children = append(t.Children, columns)
	if s.GroupBy.Len() > 0 {
		group := s.GroupBy.Tree()
		group.Type = "GroupBy"
		t.Children = append(t.Children, group)
	}
	if s.OrderBy.Len() > 0 {
		order := s.OrderBy.Tree()
		order.Type = "OrderBy"
		t.Children = append(t.Children, order)
	}
	return t
}
