package query

import (
	"errors"
	"fmt"
)

// Parse error kinds. A *ParseError always wraps exactly one of these, so
// callers can match with errors.Is.
var (
	ErrInvalidOperator             = errors.New("invalid operator")
	ErrInvalidStatementPlace       = errors.New("statement is not allowed here")
	ErrUndefinedAlias              = errors.New("undefined alias after AS")
	ErrUnterminatedString          = errors.New("unterminated string")
	ErrInvalidColumn               = errors.New("invalid column")
	ErrFunctionUnclosed            = errors.New("function is not closed")
	ErrInvalidNumberAfterMinus     = errors.New("invalid number after minus")
	ErrInvalidStatementCaseUnclose = errors.New("unexpected statement in CASE")
	ErrInvalidOperatorCaseUnclose  = errors.New("unexpected operator in CASE")
	ErrThenMissing                 = errors.New("THEN is missing")
	ErrTrailingInput               = errors.New("unexpected trailing input")
	ErrInvalidClause               = errors.New("invalid clause")
)

// previewLen caps the amount of source text carried by an error.
const previewLen = 20

// ParseError reports where and why parsing stopped.
type ParseError struct {
	Err     error  // one of the Err* kinds above
	Offset  int    // byte offset of the failing token
	Token   string // offending token or fragment
	Preview string // bounded excerpt of the text at Offset
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%v at offset %d: %q (near %q)", e.Err, e.Offset, e.Token, e.Preview)
	}
	return fmt.Sprintf("%v at offset %d (near %q)", e.Err, e.Offset, e.Preview)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// truncate shortens s to previewLen bytes, marking the cut.
func truncate(s string) string {
	if len(s) <= previewLen {
		return s
	}
	return s[:previewLen] + "..."
}
