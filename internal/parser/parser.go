// Package parser implements the recursive-descent, Pratt-precedence
// parser that turns a token stream into an ast.Program.
//
// Grounded on the teacher repo's internal/parser package: a
// cur/peek two-token lookahead Parser, prefix/infix parse function
// tables keyed by token.Type, and a precedence table driving
// parseExpression's climbing loop (internal/parser/expressions_core.go).
// Statement dispatch and panic-mode recovery follow the same
// teacher file's skip-to-statement-boundary idiom, adapted to this
// language's statement set (spec.md §4.4).
package parser

import (
	"fmt"

	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/lexer"
	"github.com/lumen-lang/lumen/internal/token"
)

// Precedence levels, low to high (spec.md §4.4).
const (
	LOWEST int = iota
	ASSIGNMENT
	TERNARY
	NIL_COALESCE
	LOGICAL_OR
	LOGICAL_AND
	BITWISE_OR
	BITWISE_XOR
	BITWISE_AND
	EQUALITY
	RELATIONAL
	SHIFT
	ADDITIVE
	MULTIPLICATIVE
	UNARY
	POSTFIX
)

// MaxRecursionDepth guards parseExpression against pathological
// left-recursive input driving the Go call stack to exhaustion.
const MaxRecursionDepth = 500

var precedences = map[token.Type]int{
	token.ASSIGN:            ASSIGNMENT,
	token.PLUS_ASSIGN:       ASSIGNMENT,
	token.MINUS_ASSIGN:      ASSIGNMENT,
	token.STAR_ASSIGN:       ASSIGNMENT,
	token.SLASH_ASSIGN:      ASSIGNMENT,
	token.QUESTION:          TERNARY,
	token.QUESTION_QUESTION: NIL_COALESCE,
	token.OR:                LOGICAL_OR,
	token.AND:               LOGICAL_AND,
	token.PIPE:              BITWISE_OR,
	token.CARET:             BITWISE_XOR,
	token.AMP:               BITWISE_AND,
	token.EQ:                EQUALITY,
	token.NEQ:               EQUALITY,
	token.LT:                RELATIONAL,
	token.GT:                RELATIONAL,
	token.LE:                RELATIONAL,
	token.GE:                RELATIONAL,
	token.SHL:               SHIFT,
	token.SHR:               SHIFT,
	token.PLUS:              ADDITIVE,
	token.MINUS:             ADDITIVE,
	token.STAR:              MULTIPLICATIVE,
	token.SLASH:             MULTIPLICATIVE,
	token.PERCENT:           MULTIPLICATIVE,
	token.LPAREN:            POSTFIX,
	token.LBRACKET:          POSTFIX,
	token.DOT:               POSTFIX,
	token.OPTIONAL_CHAIN:    POSTFIX,
	token.BANG:              POSTFIX,
	token.AS:                POSTFIX,
	token.PLUS_PLUS:         POSTFIX,
	token.MINUS_MINUS:       POSTFIX,
}

type prefixParseFn func() ast.Expr
type infixParseFn func(ast.Expr) ast.Expr

// Parser turns tokens into an ast.Program, collecting diagnostics as
// it goes rather than stopping at the first error.
type Parser struct {
	lex   *lexer.Lexer
	diags *diagnostics.Diagnostics
	file  string

	curToken  token.Token
	peekToken token.Token

	prefixFns map[token.Type]prefixParseFn
	infixFns  map[token.Type]infixParseFn

	depth    int
	hadError bool
}

// New builds a Parser reading from lex, reporting into diags.
func New(lex *lexer.Lexer, diags *diagnostics.Diagnostics, file string) *Parser {
	p := &Parser{lex: lex, diags: diags, file: file}
	p.prefixFns = map[token.Type]prefixParseFn{}
	p.infixFns = map[token.Type]infixParseFn{}
	p.registerExpressionFns()

	// prime cur/peek
	p.nextToken()
	p.nextToken()
	return p
}

// HadError reports whether any parse error was recorded.
func (p *Parser) HadError() bool { return p.hadError }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lex.Next()
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf(p.peekToken, diagnostics.ErrParseUnexpectedToken, "expected %s, got %s", t, p.peekToken.Type)
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) errorf(tok token.Token, code diagnostics.Code, format string, args ...interface{}) {
	p.hadError = true
	p.diags.Report(diagnostics.Error, code,
		diagnostics.Location{File: p.file, Line: tok.Line, Column: tok.Column, Length: len(tok.Lexeme)},
		fmt.Sprintf(format, args...), "")
}

// skipToStatementBoundary implements spec.md §4.4's synchronization
// step: on a parse error, skip tokens until a statement-starting
// keyword, `;`, or the next line begins.
func (p *Parser) skipToStatementBoundary() {
	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.SEMICOLON) || p.curTokenIs(token.NEWLINE) {
			p.nextToken()
			return
		}
		switch p.peekToken.Type {
		case token.LET, token.VAR, token.FUNC, token.IF, token.WHILE, token.FOR,
			token.RETURN, token.CLASS, token.STRUCT, token.ENUM, token.PROTOCOL,
			token.IMPORT, token.EXPORT, token.SWITCH, token.GUARD:
			p.nextToken()
			return
		}
		p.nextToken()
	}
}

// ParseProgram parses the whole token stream, recovering from errors
// statement-by-statement so a single file surfaces every diagnostic
// it can (spec.md §4.4).
func ParseProgram(lex *lexer.Lexer, diags *diagnostics.Diagnostics, file string) (*ast.Program, bool) {
	p := New(lex, diags, file)
	prog := &ast.Program{File: file}

	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}

	return prog, !p.hadError
}
