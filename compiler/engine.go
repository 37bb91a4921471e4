// Package compiler implements the Jack symbol table and the recursive-
// descent compilation engine that together lower one Jack class into VM
// instructions.
package compiler

import (
	"strconv"

	"github.com/dr8co/jackc/lexer"
	"github.com/dr8co/jackc/token"
	"github.com/dr8co/jackc/vmcode"
)

var (
	kindKeyword    = token.Keyword
	kindIdentifier = token.Identifier
	kindInteger    = token.IntegerLiteral
	kindString     = token.StringLiteral
)

// opTable lowers seven of the nine binary operators to their VM mnemonic.
// '*' and '/' are not in it: they lower to calls into the runtime Math
// library.
var opTable = map[string]vmcode.Op{
	"+": vmcode.Add, "-": vmcode.Sub, "&": vmcode.And, "|": vmcode.Or,
	"<": vmcode.Lt, ">": vmcode.Gt, "=": vmcode.Eq,
}

var unaryTable = map[string]vmcode.Op{"-": vmcode.Neg, "~": vmcode.Not}

// Engine is a recursive-descent parser whose non-terminals double as
// code-generation routines. One Engine compiles exactly one class.
type Engine struct {
	lex      *lexer.Lexer
	sym      *SymbolTable
	writer   *vmcode.Writer
	class    string
	labelSeq int
}

// New creates an Engine that scans src and emits VM instructions to w.
func New(src string, w *vmcode.Writer) *Engine {
	return &Engine{lex: lexer.New(src), sym: NewSymbolTable(), writer: w}
}

// CompileClass parses and emits the single class held in the engine's
// source text. It is the engine's sole entry point.
func (e *Engine) CompileClass() error {
	if _, err := e.lex.Expect("class", nil); err != nil {
		return err
	}
	name, err := e.lex.Expect("", &kindIdentifier)
	if err != nil {
		return err
	}
	e.class = name.Lexeme
	if _, err := e.lex.Expect("{", nil); err != nil {
		return err
	}
	for {
		ok, err := e.peekIs("static", "field")
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := e.compileClassVarDec(); err != nil {
			return err
		}
	}
	for {
		ok, err := e.peekIs("constructor", "function", "method")
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := e.compileSubroutineDec(); err != nil {
			return err
		}
	}
	_, err = e.lex.Expect("}", nil)
	return err
}

// peek returns the next token without consuming it.
func (e *Engine) peek() (*token.Token, error) {
	return e.lex.Peek()
}

// peekValue returns the lexeme of the next token, or "" at EOF.
func (e *Engine) peekValue() (string, error) {
	tok, err := e.peek()
	if err != nil {
		return "", err
	}
	if tok == nil {
		return "", nil
	}
	return tok.Lexeme, nil
}

// peekIs reports whether the next token's lexeme is one of values.
func (e *Engine) peekIs(values ...string) (bool, error) {
	v, err := e.peekValue()
	if err != nil {
		return false, err
	}
	for _, want := range values {
		if v == want {
			return true, nil
		}
	}
	return false, nil
}

// consumeType consumes a type name: one of the three primitive keywords,
// or a class-name identifier.
func (e *Engine) consumeType() (string, error) {
	isPrim, err := e.peekIs("int", "char", "boolean")
	if err != nil {
		return "", err
	}
	if isPrim {
		tok, err := e.lex.Advance()
		if err != nil {
			return "", err
		}
		return tok.Lexeme, nil
	}
	tok, err := e.lex.Expect("", &kindIdentifier)
	if err != nil {
		return "", err
	}
	return tok.Lexeme, nil
}

func (e *Engine) compileClassVarDec() error {
	kindTok, err := e.lex.Advance() // "static" or "field"
	if err != nil {
		return err
	}
	kind := Static
	if kindTok.Lexeme == "field" {
		kind = Field
	}
	typ, err := e.consumeType()
	if err != nil {
		return err
	}
	for {
		nameTok, err := e.lex.Expect("", &kindIdentifier)
		if err != nil {
			return err
		}
		e.sym.Define(nameTok.Lexeme, typ, kind)
		more, err := e.peekIs(",")
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if _, err := e.lex.Expect(",", nil); err != nil {
			return err
		}
	}
	_, err = e.lex.Expect(";", nil)
	return err
}

func (e *Engine) compileSubroutineDec() error {
	subKindTok, err := e.lex.Advance() // "constructor" | "function" | "method"
	if err != nil {
		return err
	}
	subKind := subKindTok.Lexeme

	if _, err := e.lex.Advance(); err != nil { // return type ('void' or a type), unused
		return err
	}
	nameTok, err := e.lex.Expect("", &kindIdentifier)
	if err != nil {
		return err
	}

	e.sym.StartSubroutine()
	if subKind == "method" {
		e.sym.Define("this", e.class, Argument)
	}

	if _, err := e.lex.Expect("(", nil); err != nil {
		return err
	}
	if err := e.compileParameterList(); err != nil {
		return err
	}
	if _, err := e.lex.Expect(")", nil); err != nil {
		return err
	}
	return e.compileSubroutineBody(nameTok.Lexeme, subKind)
}

func (e *Engine) compileParameterList() error {
	done, err := e.peekIs(")")
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	for {
		typ, err := e.consumeType()
		if err != nil {
			return err
		}
		nameTok, err := e.lex.Expect("", &kindIdentifier)
		if err != nil {
			return err
		}
		e.sym.Define(nameTok.Lexeme, typ, Argument)
		more, err := e.peekIs(",")
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if _, err := e.lex.Expect(",", nil); err != nil {
			return err
		}
	}
}

func (e *Engine) compileSubroutineBody(name, subKind string) error {
	if _, err := e.lex.Expect("{", nil); err != nil {
		return err
	}
	nLocals := 0
	for {
		isVar, err := e.peekIs("var")
		if err != nil {
			return err
		}
		if !isVar {
			break
		}
		if _, err := e.lex.Expect("var", nil); err != nil {
			return err
		}
		typ, err := e.consumeType()
		if err != nil {
			return err
		}
		for {
			nameTok, err := e.lex.Expect("", &kindIdentifier)
			if err != nil {
				return err
			}
			e.sym.Define(nameTok.Lexeme, typ, Local)
			nLocals++
			more, err := e.peekIs(",")
			if err != nil {
				return err
			}
			if !more {
				break
			}
			if _, err := e.lex.Expect(",", nil); err != nil {
				return err
			}
		}
		if _, err := e.lex.Expect(";", nil); err != nil {
			return err
		}
	}

	e.writer.WriteFunction(e.class+"."+name, nLocals)
	switch subKind {
	case "constructor":
		e.writer.WritePush(vmcode.Constant, e.sym.VarCount(Field))
		e.writer.WriteCall("Memory.alloc", 1)
		e.writer.WritePop(vmcode.Pointer, 0)
	case "method":
		e.writer.WritePush(vmcode.Argument, 0)
		e.writer.WritePop(vmcode.Pointer, 0)
	}

	if err := e.compileStatements(); err != nil {
		return err
	}
	_, err := e.lex.Expect("}", nil)
	return err
}

func (e *Engine) compileStatements() error {
	for {
		v, err := e.peekValue()
		if err != nil {
			return err
		}
		switch v {
		case "let":
			err = e.compileLet()
		case "if":
			err = e.compileIf()
		case "while":
			err = e.compileWhile()
		case "do":
			err = e.compileDo()
		case "return":
			err = e.compileReturn()
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (e *Engine) compileLet() error {
	if _, err := e.lex.Expect("let", nil); err != nil {
		return err
	}
	nameTok, err := e.lex.Expect("", &kindIdentifier)
	if err != nil {
		return err
	}
	name := nameTok.Lexeme

	isIndexed, err := e.peekIs("[")
	if err != nil {
		return err
	}
	if isIndexed {
		if _, err := e.lex.Expect("[", nil); err != nil {
			return err
		}
		if err := e.compileExpression(); err != nil {
			return err
		}
		if _, err := e.lex.Expect("]", nil); err != nil {
			return err
		}
		e.writer.WritePush(e.segmentOf(name), e.sym.IndexOf(name))
		e.writer.WriteArithmetic(vmcode.Add)
	}

	if _, err := e.lex.Expect("=", nil); err != nil {
		return err
	}
	if err := e.compileExpression(); err != nil {
		return err
	}
	if _, err := e.lex.Expect(";", nil); err != nil {
		return err
	}

	if isIndexed {
		e.writer.WritePop(vmcode.Temp, 0)
		e.writer.WritePop(vmcode.Pointer, 1)
		e.writer.WritePush(vmcode.Temp, 0)
		e.writer.WritePop(vmcode.That, 0)
	} else {
		e.writer.WritePop(e.segmentOf(name), e.sym.IndexOf(name))
	}
	return nil
}

func (e *Engine) compileIf() error {
	id := e.nextLabel()
	lFalse := "IF_FALSE_" + strconv.Itoa(id)
	lEnd := "IF_END_" + strconv.Itoa(id)

	if _, err := e.lex.Expect("if", nil); err != nil {
		return err
	}
	if _, err := e.lex.Expect("(", nil); err != nil {
		return err
	}
	if err := e.compileExpression(); err != nil {
		return err
	}
	if _, err := e.lex.Expect(")", nil); err != nil {
		return err
	}
	e.writer.WriteArithmetic(vmcode.Not)
	e.writer.WriteIf(lFalse)

	if _, err := e.lex.Expect("{", nil); err != nil {
		return err
	}
	if err := e.compileStatements(); err != nil {
		return err
	}
	if _, err := e.lex.Expect("}", nil); err != nil {
		return err
	}
	e.writer.WriteGoto(lEnd)
	e.writer.WriteLabel(lFalse)

	hasElse, err := e.peekIs("else")
	if err != nil {
		return err
	}
	if hasElse {
		if _, err := e.lex.Expect("else", nil); err != nil {
			return err
		}
		if _, err := e.lex.Expect("{", nil); err != nil {
			return err
		}
		if err := e.compileStatements(); err != nil {
			return err
		}
		if _, err := e.lex.Expect("}", nil); err != nil {
			return err
		}
	}
	e.writer.WriteLabel(lEnd)
	return nil
}

func (e *Engine) compileWhile() error {
	id := e.nextLabel()
	lStart := "WHILE_START_" + strconv.Itoa(id)
	lEnd := "WHILE_END_" + strconv.Itoa(id)

	e.writer.WriteLabel(lStart)
	if _, err := e.lex.Expect("while", nil); err != nil {
		return err
	}
	if _, err := e.lex.Expect("(", nil); err != nil {
		return err
	}
	if err := e.compileExpression(); err != nil {
		return err
	}
	if _, err := e.lex.Expect(")", nil); err != nil {
		return err
	}
	e.writer.WriteArithmetic(vmcode.Not)
	e.writer.WriteIf(lEnd)

	if _, err := e.lex.Expect("{", nil); err != nil {
		return err
	}
	if err := e.compileStatements(); err != nil {
		return err
	}
	if _, err := e.lex.Expect("}", nil); err != nil {
		return err
	}
	e.writer.WriteGoto(lStart)
	e.writer.WriteLabel(lEnd)
	return nil
}

func (e *Engine) compileDo() error {
	if _, err := e.lex.Expect("do", nil); err != nil {
		return err
	}
	nameTok, err := e.lex.Expect("", &kindIdentifier)
	if err != nil {
		return err
	}
	if err := e.compileSubroutineCall(nameTok.Lexeme); err != nil {
		return err
	}
	e.writer.WritePop(vmcode.Temp, 0)
	_, err = e.lex.Expect(";", nil)
	return err
}

func (e *Engine) compileReturn() error {
	if _, err := e.lex.Expect("return", nil); err != nil {
		return err
	}
	isEmpty, err := e.peekIs(";")
	if err != nil {
		return err
	}
	if isEmpty {
		e.writer.WritePush(vmcode.Constant, 0)
	} else if err := e.compileExpression(); err != nil {
		return err
	}
	e.writer.WriteReturn()
	_, err = e.lex.Expect(";", nil)
	return err
}

func (e *Engine) compileExpression() error {
	if err := e.compileTerm(); err != nil {
		return err
	}
	for {
		v, err := e.peekValue()
		if err != nil {
			return err
		}
		op, ok := opTable[v]
		if !ok && v != "*" && v != "/" {
			return nil
		}
		switch v {
		case "*":
			if _, err := e.lex.Advance(); err != nil {
				return err
			}
			if err := e.compileTerm(); err != nil {
				return err
			}
			e.writer.WriteCall("Math.multiply", 2)
		case "/":
			if _, err := e.lex.Advance(); err != nil {
				return err
			}
			if err := e.compileTerm(); err != nil {
				return err
			}
			e.writer.WriteCall("Math.divide", 2)
		default:
			if _, err := e.lex.Advance(); err != nil {
				return err
			}
			if err := e.compileTerm(); err != nil {
				return err
			}
			e.writer.WriteArithmetic(op)
		}
	}
}

// compileExpressionList parses a possibly-empty comma-separated argument
// list and returns the number of expressions parsed.
func (e *Engine) compileExpressionList() (int, error) {
	closed, err := e.peekIs(")")
	if err != nil {
		return 0, err
	}
	if closed {
		return 0, nil
	}
	n := 0
	for {
		if err := e.compileExpression(); err != nil {
			return n, err
		}
		n++
		more, err := e.peekIs(",")
		if err != nil {
			return n, err
		}
		if !more {
			return n, nil
		}
		if _, err := e.lex.Expect(",", nil); err != nil {
			return n, err
		}
	}
}

func (e *Engine) compileTerm() error {
	tok, err := e.peek()
	if err != nil {
		return err
	}
	if tok == nil {
		return &lexer.SyntaxError{Expected: "term", EOF: true}
	}

	switch tok.Kind {
	case kindInteger:
		if _, err := e.lex.Advance(); err != nil {
			return err
		}
		n, _ := strconv.Atoi(tok.Lexeme)
		e.writer.WritePush(vmcode.Constant, n)
		return nil
	case kindString:
		if _, err := e.lex.Advance(); err != nil {
			return err
		}
		s := tok.StringValue()
		e.writer.WritePush(vmcode.Constant, len(s))
		e.writer.WriteCall("String.new", 1)
		for _, ch := range s {
			e.writer.WritePush(vmcode.Constant, int(ch))
			e.writer.WriteCall("String.appendChar", 2)
		}
		return nil
	case kindKeyword:
		if _, err := e.lex.Advance(); err != nil {
			return err
		}
		switch tok.Lexeme {
		case "true":
			e.writer.WritePush(vmcode.Constant, 0)
			e.writer.WriteArithmetic(vmcode.Not)
		case "false", "null":
			e.writer.WritePush(vmcode.Constant, 0)
		case "this":
			e.writer.WritePush(vmcode.Pointer, 0)
		default:
			return &lexer.SyntaxError{Line: tok.Line, Expected: "keyword constant", Got: tok.Lexeme}
		}
		return nil
	case kindIdentifier:
		if _, err := e.lex.Advance(); err != nil {
			return err
		}
		name := tok.Lexeme
		nxt, err := e.peekValue()
		if err != nil {
			return err
		}
		switch nxt {
		case "[":
			if _, err := e.lex.Expect("[", nil); err != nil {
				return err
			}
			if err := e.compileExpression(); err != nil {
				return err
			}
			if _, err := e.lex.Expect("]", nil); err != nil {
				return err
			}
			e.writer.WritePush(e.segmentOf(name), e.sym.IndexOf(name))
			e.writer.WriteArithmetic(vmcode.Add)
			e.writer.WritePop(vmcode.Pointer, 1)
			e.writer.WritePush(vmcode.That, 0)
			return nil
		case "(", ".":
			return e.compileSubroutineCall(name)
		default:
			e.writer.WritePush(e.segmentOf(name), e.sym.IndexOf(name))
			return nil
		}
	default:
		switch tok.Lexeme {
		case "(":
			if _, err := e.lex.Expect("(", nil); err != nil {
				return err
			}
			if err := e.compileExpression(); err != nil {
				return err
			}
			_, err := e.lex.Expect(")", nil)
			return err
		default:
			if op, ok := unaryTable[tok.Lexeme]; ok {
				if _, err := e.lex.Advance(); err != nil {
					return err
				}
				if err := e.compileTerm(); err != nil {
					return err
				}
				e.writer.WriteArithmetic(op)
				return nil
			}
			return &lexer.SyntaxError{Line: tok.Line, Expected: "term", Got: tok.Lexeme}
		}
	}
}

// compileSubroutineCall parses the tail of a call whose leading identifier
// (name) has already been consumed, and emits the receiver push (if any)
// and the final "call" instruction.
func (e *Engine) compileSubroutineCall(name string) error {
	var fullName string
	nImplicit := 0

	v, err := e.peekValue()
	if err != nil {
		return err
	}
	switch v {
	case ".":
		if _, err := e.lex.Expect(".", nil); err != nil {
			return err
		}
		subTok, err := e.lex.Expect("", &kindIdentifier)
		if err != nil {
			return err
		}
		if sym, ok := e.sym.Resolve(name); ok {
			e.writer.WritePush(sym.Kind.Segment(), sym.Index)
			fullName = e.sym.TypeOf(name) + "." + subTok.Lexeme
			nImplicit = 1
		} else {
			fullName = name + "." + subTok.Lexeme
			nImplicit = 0
		}
	case "(":
		e.writer.WritePush(vmcode.Pointer, 0)
		fullName = e.class + "." + name
		nImplicit = 1
	default:
		return &lexer.SyntaxError{Expected: "'(' or '.'", Got: v}
	}

	if _, err := e.lex.Expect("(", nil); err != nil {
		return err
	}
	nExplicit, err := e.compileExpressionList()
	if err != nil {
		return err
	}
	if _, err := e.lex.Expect(")", nil); err != nil {
		return err
	}
	e.writer.WriteCall(fullName, nImplicit+nExplicit)
	return nil
}

// segmentOf resolves name's storage segment. An undeclared name resolves
// to the empty segment, matching the permissive policy described in §9 of
// the specification: the engine does not reject unresolved identifiers in
// expression position, it emits intentionally ill-formed VM text.
func (e *Engine) segmentOf(name string) vmcode.Segment {
	kind, ok := e.sym.KindOf(name)
	if !ok {
		return vmcode.Segment("")
	}
	return kind.Segment()
}

// nextLabel returns the next value of the single label counter, shared by
// every if/while in the compilation unit and never reset per subroutine.
func (e *Engine) nextLabel() int {
	e.labelSeq++
	return e.labelSeq
}
