// Package lexer implements the lexical analyzer for the Jack programming
// language.
//
// The lexer converts Jack source text into classified tokens in a single
// forward pass, scanning one token at a time on demand; the source is not
// tokenized up front, so a lexical error is reported only when scanning
// reaches the offending character. It discards
// comments and whitespace while tracking source lines for diagnostics,
// and exposes the three operations the compilation engine needs:
// Peek (non-destructive lookahead), Advance (consume and return), and
// Expect (consume, or fail with a SyntaxError).
package lexer

import (
	"fmt"
	"strings"

	"github.com/dr8co/jackc/token"
)

// LexicalError reports an un-matchable character at a given source line.
type LexicalError struct {
	Line int
	Char byte
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("Lexical error at line %d: %c", e.Line, e.Char)
}

// SyntaxError reports an Expect mismatch or an unexpected end of input.
type SyntaxError struct {
	Line     int
	Expected string
	Got      string
	EOF      bool
}

func (e *SyntaxError) Error() string {
	if e.EOF {
		return fmt.Sprintf("Unexpected EOF, expected %s", e.Expected)
	}
	return fmt.Sprintf("Line %d: Expected '%s', got '%s'", e.Line, e.Expected, e.Got)
}

// Lexer scans Jack source text into tokens on demand.
type Lexer struct {
	input string
	pos   int
	line  int

	// peeked holds a token already scanned but not yet consumed, so that
	// Peek is idempotent and O(1).
	peeked    *token.Token
	peekedErr error
}

// New creates a Lexer over the given Jack source text.
func New(input string) *Lexer {
	return &Lexer{input: input, pos: 0, line: 1}
}

// Peek returns the next token without consuming it, or nil at EOF. A
// lexical error encountered while scanning ahead is returned and also
// replayed on the subsequent Advance/Expect call.
func (l *Lexer) Peek() (*token.Token, error) {
	if l.peeked == nil && l.peekedErr == nil {
		tok, err := l.scan()
		l.peeked, l.peekedErr = tok, err
	}
	return l.peeked, l.peekedErr
}

// Advance consumes and returns the next token, or nil at EOF.
func (l *Lexer) Advance() (*token.Token, error) {
	tok, err := l.Peek()
	l.peeked, l.peekedErr = nil, nil
	return tok, err
}

// Expect consumes the next token and fails if it does not match the
// requested literal value and/or kind. Either check is skipped when the
// corresponding argument is the zero value: pass "" to skip the value
// check, and a nil kind to skip the kind check.
func (l *Lexer) Expect(value string, kind *token.Kind) (token.Token, error) {
	tok, err := l.Advance()
	if err != nil {
		return token.Token{}, err
	}
	if tok == nil {
		expected := value
		if expected == "" && kind != nil {
			expected = kind.String()
		}
		return token.Token{}, &SyntaxError{Expected: expected, EOF: true}
	}
	if kind != nil && tok.Kind != *kind {
		return token.Token{}, &SyntaxError{Line: tok.Line, Expected: kind.String(), Got: tok.Kind.String()}
	}
	if value != "" && tok.Lexeme != value {
		return token.Token{}, &SyntaxError{Line: tok.Line, Expected: value, Got: tok.Lexeme}
	}
	return *tok, nil
}

// scan consumes whitespace and comments, then classifies and returns the
// next token, or (nil, nil) at EOF.
func (l *Lexer) scan() (*token.Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return nil, err
	}
	if l.pos >= len(l.input) {
		return nil, nil
	}

	line := l.line
	ch := l.input[l.pos]

	switch {
	case ch == '"':
		return l.readString(line)
	case isDigit(ch):
		return l.readInteger(line), nil
	case isIdentStart(ch):
		return l.readIdentifier(line), nil
	case token.IsSymbol(ch):
		l.pos++
		return &token.Token{Kind: token.Symbol, Lexeme: string(ch), Line: line}, nil
	default:
		l.pos++
		return nil, &LexicalError{Line: line, Char: ch}
	}
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.pos++
		case ch == '\n':
			l.pos++
			l.line++
		case ch == '/' && l.peekAt(1) == '/':
			l.pos += 2
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		case ch == '/' && l.peekAt(1) == '*':
			start := l.line
			l.pos += 2
			closed := false
			for l.pos < len(l.input) {
				if l.input[l.pos] == '\n' {
					l.line++
				}
				if l.input[l.pos] == '*' && l.peekAt(1) == '/' {
					l.pos += 2
					closed = true
					break
				}
				l.pos++
			}
			if !closed {
				return &LexicalError{Line: start, Char: '/'}
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *Lexer) readString(line int) (*token.Token, error) {
	var b strings.Builder
	b.WriteByte('"')
	l.pos++ // consume opening quote
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '"' {
			b.WriteByte('"')
			l.pos++
			return &token.Token{Kind: token.StringLiteral, Lexeme: b.String(), Line: line}, nil
		}
		if ch == '\n' {
			return nil, &LexicalError{Line: line, Char: '"'}
		}
		b.WriteByte(ch)
		l.pos++
	}
	return nil, &LexicalError{Line: line, Char: '"'}
}

func (l *Lexer) readInteger(line int) *token.Token {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	return &token.Token{Kind: token.IntegerLiteral, Lexeme: l.input[start:l.pos], Line: line}
}

func (l *Lexer) readIdentifier(line int) *token.Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.pos++
	}
	lexeme := l.input[start:l.pos]
	kind := token.Identifier
	if token.IsKeyword(lexeme) {
		kind = token.Keyword
	}
	return &token.Token{Kind: kind, Lexeme: lexeme, Line: line}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
