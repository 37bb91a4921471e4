package lexer

import (
	"testing"

	"github.com/dr8co/jackc/token"
)

// TestAdvance checks that keywords, identifiers, symbols and integer
// literals are correctly recognized and that line numbers are tracked across
// comments and newlines. String literals are covered by TestStringLiteral.
func TestAdvance(t *testing.T) {
	input := `class Main {
    // a line comment
    field int x, y;
    /* a
       block comment */
    method void run() {
        let x = 5;
        return;
    }
}
`
	tests := []struct {
		expectedKind   token.Kind
		expectedLexeme string
		expectedLine   int
	}{
		{token.Keyword, "class", 1},
		{token.Identifier, "Main", 1},
		{token.Symbol, "{", 1},
		{token.Keyword, "field", 3},
		{token.Keyword, "int", 3},
		{token.Identifier, "x", 3},
		{token.Symbol, ",", 3},
		{token.Identifier, "y", 3},
		{token.Symbol, ";", 3},
		{token.Keyword, "method", 6},
		{token.Keyword, "void", 6},
		{token.Identifier, "run", 6},
		{token.Symbol, "(", 6},
		{token.Symbol, ")", 6},
		{token.Symbol, "{", 6},
		{token.Keyword, "let", 7},
		{token.Identifier, "x", 7},
		{token.Symbol, "=", 7},
		{token.IntegerLiteral, "5", 7},
		{token.Symbol, ";", 7},
		{token.Keyword, "return", 8},
		{token.Symbol, ";", 8},
		{token.Symbol, "}", 9},
		{token.Symbol, "}", 10},
	}

	l := New(input)
	for i, tt := range tests {
		tok, err := l.Advance()
		if err != nil {
			t.Fatalf("tests[%d] - unexpected error: %v", i, err)
		}
		if tok == nil {
			t.Fatalf("tests[%d] - unexpected EOF", i)
		}
		if tok.Kind != tt.expectedKind {
			t.Fatalf("tests[%d] - wrong kind. expected=%v, got=%v", i, tt.expectedKind, tok.Kind)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - wrong lexeme. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
		if tok.Line != tt.expectedLine {
			t.Fatalf("tests[%d] - wrong line. expected=%d, got=%d", i, tt.expectedLine, tok.Line)
		}
	}

	tok, err := l.Advance()
	if err != nil {
		t.Fatalf("unexpected error at EOF: %v", err)
	}
	if tok != nil {
		t.Fatalf("expected EOF, got %+v", tok)
	}
}

func TestStringLiteral(t *testing.T) {
	l := New(`"hello world" x`)
	tok, err := l.Advance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != token.StringLiteral {
		t.Fatalf("expected StringLiteral, got %v", tok.Kind)
	}
	if got := tok.StringValue(); got != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", got)
	}
}

func TestUnterminatedStringIsLexicalError(t *testing.T) {
	l := New(`"unterminated`)
	_, err := l.Advance()
	if _, ok := err.(*LexicalError); !ok {
		t.Fatalf("expected *LexicalError, got %T (%v)", err, err)
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("let x = 5 @ 2;")
	for {
		tok, err := l.Advance()
		if err != nil {
			lexErr, ok := err.(*LexicalError)
			if !ok {
				t.Fatalf("expected *LexicalError, got %T", err)
			}
			if lexErr.Char != '@' {
				t.Fatalf("expected offending char '@', got %q", lexErr.Char)
			}
			return
		}
		if tok == nil {
			t.Fatal("expected a lexical error before EOF")
		}
	}
}

func TestPeekIsIdempotent(t *testing.T) {
	l := New("x y")
	first, err := l.Peek()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := l.Peek()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Lexeme != second.Lexeme {
		t.Fatalf("Peek is not idempotent: %q != %q", first.Lexeme, second.Lexeme)
	}
	adv, _ := l.Advance()
	if adv.Lexeme != "x" {
		t.Fatalf("expected Advance to return peeked token, got %q", adv.Lexeme)
	}
	next, _ := l.Advance()
	if next.Lexeme != "y" {
		t.Fatalf("expected second token %q, got %q", "y", next.Lexeme)
	}
}

func TestExpectValueMismatch(t *testing.T) {
	l := New("if")
	_, err := l.Expect("while", nil)
	synErr, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if synErr.Expected != "while" || synErr.Got != "if" {
		t.Fatalf("unexpected error contents: %+v", synErr)
	}
}

func TestExpectKindMismatch(t *testing.T) {
	l := New("123")
	ident := token.Identifier
	_, err := l.Expect("", &ident)
	if _, ok := err.(*SyntaxError); !ok {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
}

func TestExpectEOF(t *testing.T) {
	l := New("")
	_, err := l.Expect("}", nil)
	synErr, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if !synErr.EOF {
		t.Fatalf("expected EOF error, got %+v", synErr)
	}
}
