package query

// parseCase parses CASE [subject] WHEN cond THEN result ... [ELSE result] END
func (p *Parser) parseCase() (Node, error) {
	p.s.SkipSpaces()
	p.s.ParseWord() // CASE

	c := &CaseExpr{}
	if p.peekKeyword() != "WHEN" {
		subject, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		c.Subject = subject
	}

	for {
		p.s.SkipSpaces()
		at := p.s.Pos()
		if isBoundary(p.s.Peek()) {
			return nil, p.caseUnclosed(at)
		}

		switch kw := p.peekKeyword(); kw {
		case "WHEN":
			w, err := p.parseWhen()
			if err != nil {
				return nil, err
			}
			c.Whens = append(c.Whens, w)
		case "ELSE":
			if len(c.Whens) == 0 {
				return nil, p.s.errorAt(ErrInvalidStatementCaseUnclose, at, kw)
			}
			p.s.ParseWord()
			e, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			c.Else = e

			p.s.SkipSpaces()
			at = p.s.Pos()
			if p.peekKeyword() != "END" {
				return nil, p.caseUnclosed(at)
			}
			p.s.ParseWord()
			return c, nil
		case "END":
			if len(c.Whens) == 0 {
				return nil, p.s.errorAt(ErrInvalidStatementCaseUnclose, at, kw)
			}
			p.s.ParseWord()
			return c, nil
		default:
			return nil, p.s.errorAt(ErrInvalidStatementCaseUnclose, at, p.peekWord())
		}
	}
}

// caseUnclosed reports whatever sits at offset where WHEN, ELSE or END was
// expected
func (p *Parser) caseUnclosed(offset int) error {
	mark := p.s.Save()
	defer p.s.Restore(mark)
	p.s.Restore(offset)

	if isBoundary(p.s.Peek()) {
		return p.s.errorAt(ErrInvalidOperatorCaseUnclose, offset, p.s.ParseOperator(nil))
	}
	return p.s.errorAt(ErrInvalidStatementCaseUnclose, offset, p.s.ParseWord())
}

// parseWhen parses WHEN cond THEN result
func (p *Parser) parseWhen() (*When, error) {
	p.s.SkipSpaces()
	p.s.ParseWord() // WHEN

	cond, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	p.s.SkipSpaces()
	at := p.s.Pos()
	if p.peekKeyword() != "THEN" {
		return nil, p.s.errorAt(ErrThenMissing, at, p.peekToken())
	}
	p.s.ParseWord()

	result, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return &When{Cond: cond, Result: result}, nil
}
