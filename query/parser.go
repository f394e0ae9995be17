package query

import (
	"strings"
)

// Parser turns SQL fragments into nodes. A Parser is one parse session and
// is not safe for concurrent use.
type Parser struct {
	s *Scanner

	wordChain     []builder
	operatorChain []builder
}

// builder is one link of the first-match dispatch chain. detect must not
// move the cursor; parse is only called after detect accepted.
type builder struct {
	name   string
	detect func() bool
	parse  func() (Node, error)
}

// NewParser creates a parser over src
func NewParser(src string) *Parser {
	p := &Parser{s: NewScanner(src)}

	p.wordChain = []builder{
		{name: "value", detect: p.detectWordValue, parse: p.parseValue},
		{name: "function", detect: p.detectFunction, parse: p.parseFunction},
		{name: "statement", detect: p.detectStatement, parse: p.parseCase},
		{name: "field", detect: p.detectWordField, parse: p.parseField},
	}
	p.operatorChain = []builder{
		{name: "field", detect: p.detectQuotedField, parse: p.parseField},
		{name: "value", detect: p.detectQuotedValue, parse: p.parseValue},
	}
	return p
}

// Scanner exposes the underlying cursor
func (p *Parser) Scanner() *Scanner {
	return p.s
}

// ParseExpression parses one expression from src and rejects trailing input
func ParseExpression(src string) (Node, error) {
	p := NewParser(src)
	n, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return n, nil
}

// ParseWhenClause parses a standalone WHEN ... THEN ... clause
func ParseWhenClause(src string) (*When, error) {
	p := NewParser(src)
	p.s.SkipSpaces()
	if p.peekKeyword() != "WHEN" {
		return nil, p.s.errorAt(ErrInvalidStatementPlace, p.s.Pos(), p.peekToken())
	}
	w, err := p.parseWhen()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return w, nil
}

// expectEnd fails unless only spaces remain
func (p *Parser) expectEnd() error {
	p.s.SkipSpaces()
	if p.s.EOF() {
		return nil
	}
	return p.s.errorAt(ErrTrailingInput, p.s.Pos(), p.peekToken())
}

// probe runs fn and rewinds the cursor when fn reports false
func (p *Parser) probe(fn func() bool) bool {
	mark := p.s.Save()
	if fn() {
		return true
	}
	p.s.Restore(mark)
	return false
}

// peekWord returns the word after any spaces without consuming it
func (p *Parser) peekWord() string {
	mark := p.s.Save()
	defer p.s.Restore(mark)

	p.s.SkipSpaces()
	return p.s.ParseWord()
}

// peekKeyword is peekWord upper-cased
func (p *Parser) peekKeyword() string {
	return strings.ToUpper(p.peekWord())
}

// peekToken describes the token under the cursor for error messages
func (p *Parser) peekToken() string {
	if word := p.peekWord(); word != "" {
		return word
	}
	mark := p.s.Save()
	defer p.s.Restore(mark)
	p.s.SkipSpaces()
	return p.s.ParseOperator(nil)
}

// compareOperators are the binary operators accepted after an operand
var compareOperators = []string{
	"=", "!=", "<>", "<", ">", "<=", ">=", "<=>",
	"+", "-", "*", "/", "%",
}

// keywordOperators are binary operators spelled as words
var keywordOperators = map[string]bool{
	"AND":  true,
	"OR":   true,
	"LIKE": true,
}

// ParseExpression parses an operand and, when a binary operator follows,
// the rest of the expression as its right side.
func (p *Parser) ParseExpression() (Node, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if f, ok := left.(*Field); ok && f.Wildcard {
		return left, nil
	}

	var op string
	found := p.probe(func() bool {
		op = p.s.ParseOperator(compareOperators)
		return containsOperator(compareOperators, op)
	})
	if !found {
		found = p.probe(func() bool {
			p.s.SkipSpaces()
			op = strings.ToUpper(p.s.ParseWord())
			return keywordOperators[op]
		})
	}
	if !found {
		return left, nil
	}

	right, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return &CompareExpr{Left: left, Op: op, Right: right}, nil
}

// parseAtom dispatches to the first builder whose detect accepts the text
// at the cursor.
func (p *Parser) parseAtom() (Node, error) {
	p.s.SkipSpaces()
	start := p.s.Pos()
	if p.s.EOF() {
		return nil, p.s.errorAt(ErrInvalidOperator, start, "")
	}

	wordLed := !isBoundary(p.s.Peek())
	chain := p.operatorChain
	if wordLed {
		chain = p.wordChain
	}
	for _, b := range chain {
		if b.detect() {
			return b.parse()
		}
	}

	if wordLed {
		return nil, p.s.errorAt(ErrInvalidStatementPlace, start, p.peekWord())
	}
	return nil, p.s.errorAt(ErrInvalidOperator, start, p.peekToken())
}

func (p *Parser) detectWordValue() bool {
	word := p.peekWord()
	return isNumber(word) || strings.EqualFold(word, "NULL")
}

func (p *Parser) detectFunction() bool {
	mark := p.s.Save()
	defer p.s.Restore(mark)

	word := p.s.ParseWord()
	return word != "" && p.s.Peek() == '('
}

func (p *Parser) detectStatement() bool {
	return p.peekKeyword() == "CASE"
}

func (p *Parser) detectWordField() bool {
	return !isReserved(p.peekWord())
}

func (p *Parser) detectQuotedField() bool {
	c := p.s.Peek()
	return c == '`' || c == '*'
}

func (p *Parser) detectQuotedValue() bool {
	c := p.s.Peek()
	return c == '\'' || c == '"' || c == '-'
}

// maxFieldParts is db.table.field
const maxFieldParts = 3

func (p *Parser) parseField() (Node, error) {
	start := p.s.Pos()
	var parts []string
	wildcard := false

	for {
		partStart := p.s.Pos()
		c := p.s.Peek()
		if c == '`' {
			name, err := p.s.ParseString('`')
			if err != nil {
				return nil, err
			}
			parts = append(parts, name)
		} else if c == '*' {
			p.s.ParseOperator(nil)
			parts = append(parts, "*")
			wildcard = true
		} else if !isBoundary(c) {
			parts = append(parts, p.s.scanWord())
		} else {
			return nil, p.s.errorAt(ErrInvalidColumn, start, p.s.src[start:partStart])
		}

		if p.s.Peek() != '.' {
			break
		}
		if wildcard {
			return nil, p.s.errorAt(ErrInvalidColumn, start, p.s.src[start:p.s.Pos()+1])
		}
		p.s.ParseOperator(nil) // '.'
	}

	if len(parts) > maxFieldParts {
		return nil, p.s.errorAt(ErrInvalidColumn, start, p.s.src[start:p.s.Pos()])
	}

	n := len(parts)
	f := &Field{Name: parts[n-1], Wildcard: wildcard}
	if n >= 2 {
		f.Table = parts[n-2]
	}
	if n == 3 {
		f.DB = parts[0]
	}
	return f, nil
}

func (p *Parser) parseValue() (Node, error) {
	switch c := p.s.Peek(); c {
	case '\'', '"':
		text, err := p.s.ParseString(c)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: StringValue, Text: text}, nil
	case '-':
		p.s.ParseOperator(nil)
		p.s.SkipSpaces()
		at := p.s.Pos()
		word := p.s.ParseWord()
		if !isNumber(word) {
			if word == "" {
				word = p.peekToken()
			}
			return nil, p.s.errorAt(ErrInvalidNumberAfterMinus, at, word)
		}
		return &Value{Kind: NumberValue, Text: "-" + word}, nil
	}

	word := p.s.ParseWord()
	if strings.EqualFold(word, "NULL") {
		return &Value{Kind: NullValue, Text: "NULL"}, nil
	}
	return &Value{Kind: NumberValue, Text: word}, nil
}

// ParseColumn parses an expression with an optional alias
func (p *Parser) ParseColumn() (*ColumnItem, error) {
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	item := &ColumnItem{Expr: expr}
	if f, ok := expr.(*Field); ok && f.Wildcard {
		return item, nil
	}

	alias, err := p.parseAlias()
	if err != nil {
		return nil, err
	}
	item.Alias = alias
	return item, nil
}

// parseAlias reads AS name, a bare identifier or a quoted string. Without
// any of those it leaves the cursor where it was.
func (p *Parser) parseAlias() (string, error) {
	mark := p.s.Save()
	p.s.SkipSpaces()

	c := p.s.Peek()
	if c == '\'' || c == '"' || c == '`' {
		return p.s.ParseString(c)
	}
	if isBoundary(c) {
		p.s.Restore(mark)
		return "", nil
	}

	at := p.s.Pos()
	word := p.s.ParseWord()
	if strings.EqualFold(word, "AS") {
		p.s.SkipSpaces()
		c := p.s.Peek()
		if c == '\'' || c == '"' || c == '`' {
			return p.s.ParseString(c)
		}
		if isBoundary(c) {
			return "", p.s.errorAt(ErrUndefinedAlias, at, word)
		}
		return p.s.ParseWord(), nil
	}

	if isReserved(word) || isNumber(word) {
		p.s.Restore(mark)
		return "", nil
	}
	return word, nil
}

// ParseOrderCondition parses an expression with an optional ASC or DESC
func (p *Parser) ParseOrderCondition() (*OrderCondition, error) {
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	cond := &OrderCondition{Expr: expr}
	p.probe(func() bool {
		p.s.SkipSpaces()
		switch strings.ToUpper(p.s.ParseWord()) {
		case "DESC":
			cond.Desc = true
			return true
		case "ASC":
			return true
		}
		return false
	})
	return cond, nil
}
