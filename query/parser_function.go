package query

import (
	"strings"
)

// aggregateNames are the functions whose results must be recombined across
// shards
var aggregateNames = map[string]bool{
	"COUNT": true,
	"SUM":   true,
	"AVG":   true,
	"MIN":   true,
	"MAX":   true,
}

// IsAggregateName reports whether name is an aggregate function
func IsAggregateName(name string) bool {
	return aggregateNames[strings.ToUpper(name)]
}

// functionModifiers may precede the first argument
var functionModifiers = map[string]bool{
	"DISTINCT": true,
	"ALL":      true,
}

// parseFunction parses name(modifier arg, arg, ...). The cursor is on the
// name and detectFunction guarantees '(' follows it.
func (p *Parser) parseFunction() (Node, error) {
	fn := &Function{Name: p.s.ParseWord()}
	fn.Aggregate = IsAggregateName(fn.Name)
	p.s.ParseOperator(nil) // '('

	for {
		var modifier string
		if !p.probe(func() bool {
			p.s.SkipSpaces()
			modifier = strings.ToUpper(p.s.ParseWord())
			return functionModifiers[modifier]
		}) {
			break
		}
		fn.Modifiers = append(fn.Modifiers, modifier)
	}

	p.s.SkipSpaces()
	if len(fn.Modifiers) == 0 && p.s.Peek() == ')' {
		p.s.ParseOperator(nil)
		return fn, nil
	}

	for {
		arg, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, arg)

		p.s.SkipSpaces()
		at := p.s.Pos()
		switch op := p.s.ParseOperator(nil); op {
		case ",":
			continue
		case ")":
			return fn, nil
		default:
			if word := p.peekWordAt(at); word != "" {
				op = word
			}
			return nil, p.s.errorAt(ErrFunctionUnclosed, at, op)
		}
	}
}

// peekWordAt returns the word starting at offset without moving the cursor
func (p *Parser) peekWordAt(offset int) string {
	mark := p.s.Save()
	defer p.s.Restore(mark)
	p.s.Restore(offset)
	return p.s.ParseWord()
}
