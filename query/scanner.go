package query

import (
	"strings"
)

// Scanner walks a SQL fragment byte by byte. All node parsers of one parse
// session share a single Scanner, so the cursor only moves backward through
// Restore.
type Scanner struct {
	src string
	pos int
}

// NewScanner creates a scanner positioned at the start of src
func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// Pos returns the current byte offset
func (s *Scanner) Pos() int {
	return s.pos
}

// Save returns a mark that Restore can rewind to
func (s *Scanner) Save() int {
	return s.pos
}

// Restore rewinds the cursor to a mark returned by Save
func (s *Scanner) Restore(mark int) {
	s.pos = mark
}

// EOF reports whether the cursor is past the last byte
func (s *Scanner) EOF() bool {
	return s.pos >= len(s.src)
}

// Peek returns the byte under the cursor, or 0 at the end of input
func (s *Scanner) Peek() byte {
	return s.PeekAt(0)
}

// PeekAt returns the byte n positions after the cursor, or 0 past the end
func (s *Scanner) PeekAt(n int) byte {
	if s.pos+n >= len(s.src) || s.pos+n < 0 {
		return 0
	}
	return s.src[s.pos+n]
}

// Remaining returns the unconsumed input
func (s *Scanner) Remaining() string {
	if s.EOF() {
		return ""
	}
	return s.src[s.pos:]
}

// Preview returns a bounded excerpt of the input starting at offset
func (s *Scanner) Preview(offset int) string {
	if offset >= len(s.src) {
		return ""
	}
	return truncate(s.src[offset:])
}

// SkipSpaces advances past spaces, tabs and line breaks
func (s *Scanner) SkipSpaces() {
	for !s.EOF() && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

// errorAt builds a ParseError for the token starting at offset
func (s *Scanner) errorAt(kind error, offset int, token string) *ParseError {
	return &ParseError{
		Err:     kind,
		Offset:  offset,
		Token:   token,
		Preview: s.Preview(offset),
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isBoundary reports whether c ends a word. The 0 sentinel stands for the
// end of input.
func isBoundary(c byte) bool {
	switch {
	case c == 0:
		return true
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	case c == '_' || c == '$':
		return false
	case c >= 0x80:
		// multi-byte UTF-8 sequences belong to identifiers
		return false
	}
	return true
}

// isOperatorByte reports whether c can start an operator token
func isOperatorByte(c byte) bool {
	return isBoundary(c) && c != 0 && !isSpace(c) && c != '\'' && c != '"' && c != '`'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isNumber reports whether s is an unsigned integer or decimal as produced
// by ParseWord.
func isNumber(s string) bool {
	whole, frac, found := strings.Cut(s, ".")
	if !found {
		return isDigits(whole)
	}
	return isDigits(whole) && isDigits(frac)
}

// scanWord consumes consecutive non-boundary bytes
func (s *Scanner) scanWord() string {
	start := s.pos
	for !s.EOF() && !isBoundary(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// ParseWord consumes an identifier, keyword or number. An integer followed
// by '.' and more digits is read as one decimal; otherwise the cursor stays
// on the '.'.
func (s *Scanner) ParseWord() string {
	word := s.scanWord()
	if !isDigits(word) || s.Peek() != '.' {
		return word
	}

	mark := s.Save()
	s.pos++ // '.'
	frac := s.scanWord()
	if isDigits(frac) {
		return word + "." + frac
	}
	s.Restore(mark)
	return word
}

// ParseString consumes a quoted string starting at the opening quote and
// returns its unescaped contents. A quote preceded by an odd number of
// backslashes is part of the string.
func (s *Scanner) ParseString(quote byte) (string, error) {
	start := s.pos
	s.pos++ // opening quote

	var b strings.Builder
	slashes := 0
	for !s.EOF() {
		c := s.src[s.pos]
		s.pos++

		if c == '\\' {
			slashes++
			if slashes%2 == 0 {
				b.WriteByte('\\')
			}
			continue
		}
		escaped := slashes%2 == 1
		slashes = 0

		if c == quote && !escaped {
			return b.String(), nil
		}
		if escaped {
			b.WriteByte(unescape(c))
		} else {
			b.WriteByte(c)
		}
	}

	return "", s.errorAt(ErrUnterminatedString, start, truncate(s.src[start:]))
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	}
	return c
}

// quoteString renders v as a literal ParseString reads back unchanged
func quoteString(v string, quote byte) string {
	var b strings.Builder
	b.Grow(len(v) + 2)
	b.WriteByte(quote)
	for i := 0; i < len(v); i++ {
		switch c := v[i]; c {
		case '\\', quote:
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// ParseOperator consumes an operator token. Without compounds it returns
// the single byte under the cursor. With compounds, leading spaces yield a
// provisional " " that the first real operator byte overrides, and the
// longest operator found in compounds wins over the single byte.
func (s *Scanner) ParseOperator(compounds []string) string {
	if s.EOF() {
		return ""
	}
	if len(compounds) == 0 {
		op := s.src[s.pos : s.pos+1]
		s.pos++
		return op
	}

	op := ""
	if isSpace(s.Peek()) {
		s.SkipSpaces()
		op = " "
	}
	if !isOperatorByte(s.Peek()) {
		return op
	}

	start := s.pos
	end := start + 1
	for n := start + 1; n <= len(s.src); n++ {
		if !isOperatorByte(s.src[n-1]) {
			break
		}
		candidate := s.src[start:n]
		if !hasOperatorPrefix(compounds, candidate) {
			break
		}
		if containsOperator(compounds, candidate) {
			end = n
		}
	}
	s.pos = end
	return s.src[start:end]
}

func hasOperatorPrefix(ops []string, prefix string) bool {
	for _, op := range ops {
		if strings.HasPrefix(op, prefix) {
			return true
		}
	}
	return false
}

func containsOperator(ops []string, op string) bool {
	for _, candidate := range ops {
		if candidate == op {
			return true
		}
	}
	return false
}
