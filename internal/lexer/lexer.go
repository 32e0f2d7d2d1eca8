// Package lexer turns a source buffer into a stream of tokens.
//
// Grounded on the teacher repo's internal/lexer/lexer.go: same
// cursor/line/column bookkeeping, the same peekChar/peekChar2
// lookahead shape, and the same re-entrant string-interpolation state
// machine (a stack of expected closing delimiters so that braces
// inside an interpolated expression don't prematurely close the
// string). Adapted to this language's narrower ASCII-only token set
// (spec.md §4.3, §6) and its three-token interpolation encoding
// (START/MID/END) instead of emitting a single pre-resolved string.
package lexer

import (
	"fmt"
	"strconv"

	"github.com/lumen-lang/lumen/internal/token"
)

// interpState tracks one level of re-entrant string interpolation:
// once the lexer has emitted a STRING_INTERP_START it switches to
// lexing ordinary tokens for the interior expression, tracking brace
// depth so nested `{ }` don't look like the end of the interpolation.
type interpState struct {
	braceDepth int
}

// Lexer is a byte-stream scanner; spec.md §6 requires 7-bit ASCII
// source outside of string literals (bytes inside strings are
// preserved verbatim).
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
	line         int
	column       int

	interpStack []interpState

	// pendingBareIdent/pendingBareResume drive the bare "$identifier"
	// interpolation form (spec.md calibration example 1): after
	// emitting a STRING_INTERP_START/MID up to the '$', the next call
	// to Next must lex exactly one identifier token, and the call
	// after that must resume reading the string segment rather than
	// treating the following byte as ordinary source.
	pendingBareIdent  bool
	pendingBareResume bool
}

// New creates a Lexer over the given source text.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// IsAtEnd reports whether the cursor has reached end of input.
func (l *Lexer) IsAtEnd() bool { return l.ch == 0 && l.readPosition >= len(l.input) }

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) peekChar2() byte {
	if l.readPosition+1 >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+1]
}

// Next produces the next token in the stream.
func (l *Lexer) Next() token.Token {
	if l.pendingBareResume {
		l.pendingBareResume = false
		return l.readStringSegment(false)
	}
	if l.pendingBareIdent {
		l.pendingBareIdent = false
		l.pendingBareResume = true
		return l.readIdentifier(l.line, l.column)
	}

	l.skipWhitespaceAndComments()

	line, col := l.line, l.column

	// Inside an interpolation's interior expression, braces nest: a
	// `{` increases depth, and only a `}` at depth 0 ends the
	// interpolation segment (handled in readStringSegment), so a `}`
	// lexed here while depth > 0 is an ordinary token closing a block.
	if len(l.interpStack) > 0 && l.ch == '}' && l.interpStack[len(l.interpStack)-1].braceDepth == 0 {
		l.interpStack = l.interpStack[:len(l.interpStack)-1]
		return l.readStringSegment(false)
	}

	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF, Line: line, Column: col}
	case '"':
		return l.readStringSegment(true)
	case '\'':
		return l.readChar_()
	case '#':
		return l.readBitsLiteral()
	case '@':
		return l.readBytesLiteral()
	case '+':
		if l.peekChar() == '+' {
			return l.twoChar(token.PLUS_PLUS, line, col)
		}
		if l.peekChar() == '=' {
			return l.twoChar(token.PLUS_ASSIGN, line, col)
		}
		return l.oneChar(token.PLUS, line, col)
	case '-':
		if l.peekChar() == '-' {
			return l.twoChar(token.MINUS_MINUS, line, col)
		}
		if l.peekChar() == '=' {
			return l.twoChar(token.MINUS_ASSIGN, line, col)
		}
		if l.peekChar() == '>' {
			return l.twoChar(token.ARROW, line, col)
		}
		return l.oneChar(token.MINUS, line, col)
	case '*':
		if l.peekChar() == '=' {
			return l.twoChar(token.STAR_ASSIGN, line, col)
		}
		return l.oneChar(token.STAR, line, col)
	case '/':
		if l.peekChar() == '=' {
			return l.twoChar(token.SLASH_ASSIGN, line, col)
		}
		return l.oneChar(token.SLASH, line, col)
	case '%':
		return l.oneChar(token.PERCENT, line, col)
	case '!':
		if l.peekChar() == '=' {
			return l.twoChar(token.NEQ, line, col)
		}
		return l.oneChar(token.BANG, line, col)
	case '~':
		return l.oneChar(token.TILDE, line, col)
	case '&':
		if l.peekChar() == '&' {
			return l.twoChar(token.AND, line, col)
		}
		return l.oneChar(token.AMP, line, col)
	case '|':
		if l.peekChar() == '|' {
			return l.twoChar(token.OR, line, col)
		}
		return l.oneChar(token.PIPE, line, col)
	case '^':
		return l.oneChar(token.CARET, line, col)
	case '=':
		if l.peekChar() == '=' {
			return l.twoChar(token.EQ, line, col)
		}
		return l.oneChar(token.ASSIGN, line, col)
	case '<':
		if l.peekChar() == '<' {
			return l.twoChar(token.SHL, line, col)
		}
		if l.peekChar() == '=' {
			return l.twoChar(token.LE, line, col)
		}
		return l.oneChar(token.LT, line, col)
	case '>':
		if l.peekChar() == '>' {
			return l.twoChar(token.SHR, line, col)
		}
		if l.peekChar() == '=' {
			return l.twoChar(token.GE, line, col)
		}
		return l.oneChar(token.GT, line, col)
	case '?':
		if l.peekChar() == '?' {
			return l.twoChar(token.QUESTION_QUESTION, line, col)
		}
		if l.peekChar() == '.' {
			return l.twoChar(token.OPTIONAL_CHAIN, line, col)
		}
		return l.oneChar(token.QUESTION, line, col)
	case '.':
		return l.oneChar(token.DOT, line, col)
	case ',':
		return l.oneChar(token.COMMA, line, col)
	case ':':
		return l.oneChar(token.COLON, line, col)
	case ';':
		return l.oneChar(token.SEMICOLON, line, col)
	case '(':
		return l.oneChar(token.LPAREN, line, col)
	case ')':
		return l.oneChar(token.RPAREN, line, col)
	case '{':
		if len(l.interpStack) > 0 {
			l.interpStack[len(l.interpStack)-1].braceDepth++
		}
		return l.oneChar(token.LBRACE, line, col)
	case '}':
		if len(l.interpStack) > 0 {
			l.interpStack[len(l.interpStack)-1].braceDepth--
		}
		return l.oneChar(token.RBRACE, line, col)
	case '[':
		return l.oneChar(token.LBRACKET, line, col)
	case ']':
		return l.oneChar(token.RBRACKET, line, col)
	case '\n':
		return l.oneChar(token.NEWLINE, line, col)
	default:
		if isLetter(l.ch) {
			return l.readIdentifier(line, col)
		}
		if isDigit(l.ch) {
			return l.readNumber(line, col)
		}
		if l.ch == '.' && isDigit(l.peekChar()) {
			// calibration example: ".789" lexes as DOT INTEGER(789)
			return l.oneChar(token.DOT, line, col)
		}
		bad := l.ch
		l.readChar()
		return token.Token{Type: token.ILLEGAL, Lexeme: string(bad), Literal: fmt.Sprintf("unexpected byte 0x%02x", bad), Line: line, Column: col}
	}
}

func (l *Lexer) oneChar(t token.Type, line, col int) token.Token {
	lex := string(l.ch)
	l.readChar()
	return token.Token{Type: t, Lexeme: lex, Line: line, Column: col}
}

func (l *Lexer) twoChar(t token.Type, line, col int) token.Token {
	first := l.ch
	l.readChar()
	lex := string(first) + string(l.ch)
	l.readChar()
	return token.Token{Type: t, Lexeme: lex, Line: line, Column: col}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			depth := 1
			l.readChar()
			l.readChar()
			for depth > 0 && l.ch != 0 {
				if l.ch == '/' && l.peekChar() == '*' {
					depth++
					l.readChar()
					l.readChar()
					continue
				}
				if l.ch == '*' && l.peekChar() == '/' {
					depth--
					l.readChar()
					l.readChar()
					continue
				}
				l.readChar()
			}
			continue
		}
		break
	}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

func (l *Lexer) readIdentifier(line, col int) token.Token {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	lexeme := l.input[start:l.position]
	return token.Token{Type: token.LookupIdent(lexeme), Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}
}

func (l *Lexer) readNumber(line, col int) token.Token {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	isFloat := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	lexeme := l.input[start:l.position]
	if isFloat {
		v, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: err.Error(), Line: line, Column: col}
		}
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: v, Line: line, Column: col}
	}
	v, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: "malformed integer literal: " + err.Error(), Line: line, Column: col}
	}
	return token.Token{Type: token.INT, Lexeme: lexeme, Literal: v, Line: line, Column: col}
}

// readChar_ reads a single-quoted character literal; named with a
// trailing underscore to avoid colliding with the l.ch field accessor
// convention used throughout this file.
func (l *Lexer) readChar_() token.Token {
	line, col := l.line, l.column
	l.readChar() // consume opening '
	if l.ch == '\'' {
		l.readChar()
		return token.Token{Type: token.ILLEGAL, Literal: "empty character literal", Line: line, Column: col}
	}
	var ch byte
	if l.ch == '\\' {
		l.readChar()
		var ok bool
		ch, ok = unescape(l.ch)
		if !ok {
			return token.Token{Type: token.ILLEGAL, Literal: fmt.Sprintf("unknown escape \\%c", l.ch), Line: line, Column: col}
		}
		l.readChar()
	} else {
		ch = l.ch
		l.readChar()
	}
	if l.ch != '\'' {
		return token.Token{Type: token.ILLEGAL, Literal: "unterminated character literal, expected '", Line: line, Column: col}
	}
	l.readChar()
	return token.Token{Type: token.CHAR, Literal: rune(ch), Lexeme: fmt.Sprintf("'%c'", ch), Line: line, Column: col}
}

func unescape(ch byte) (byte, bool) {
	switch ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case '\'':
		return '\'', true
	default:
		return 0, false
	}
}

// readStringSegment reads string content starting right after an
// opening `"` (start=true) or right after a `}` that closed an
// interpolation interior (start=false), stopping at the next `"`, at
// the next `${`/`$identifier`, or at end of input. It returns one of
// STRING (no interpolation ever seen), STRING_INTERP_START/MID/END
// per spec.md §3/§4.3.
func (l *Lexer) readStringSegment(start bool) token.Token {
	line, col := l.line, l.column
	if start {
		l.readChar() // consume opening "
	}

	var buf []byte
	for {
		if l.ch == 0 {
			return token.Token{Type: token.ILLEGAL, Literal: "unterminated string literal", Line: line, Column: col}
		}
		if l.ch == '"' {
			l.readChar()
			if start {
				return token.Token{Type: token.STRING, Literal: string(buf), Lexeme: string(buf), Line: line, Column: col}
			}
			return token.Token{Type: token.STRING_INTERP_END, Literal: string(buf), Lexeme: string(buf), Line: line, Column: col}
		}
		if l.ch == '$' && (isLetter(l.peekChar()) || l.peekChar() == '{') {
			brace := l.peekChar() == '{'
			l.readChar() // consume $
			if brace {
				l.readChar() // consume {
				l.interpStack = append(l.interpStack, interpState{})
			} else {
				// Bare $identifier: the identifier is the whole interior
				// expression. Defer lexing it to the next Next() call
				// (pendingBareIdent) and resume the string right after
				// it on the call following that (pendingBareResume).
				l.pendingBareIdent = true
			}
			if start {
				return token.Token{Type: token.STRING_INTERP_START, Literal: string(buf), Lexeme: string(buf), Line: line, Column: col}
			}
			return token.Token{Type: token.STRING_INTERP_MID, Literal: string(buf), Lexeme: string(buf), Line: line, Column: col}
		}
		if l.ch == '\\' {
			l.readChar()
			esc, ok := unescape(l.ch)
			if !ok {
				return token.Token{Type: token.ILLEGAL, Literal: fmt.Sprintf("unknown escape \\%c", l.ch), Line: line, Column: col}
			}
			buf = append(buf, esc)
			l.readChar()
			continue
		}
		buf = append(buf, l.ch)
		l.readChar()
	}
}

func (l *Lexer) readBitsLiteral() token.Token {
	line, col := l.line, l.column
	kindCh := l.peekChar()
	var t token.Type
	switch kindCh {
	case 'b':
		t = token.BITS_BIN
	case 'x':
		t = token.BITS_HEX
	case 'o':
		t = token.BITS_OCT
	default:
		l.readChar()
		return token.Token{Type: token.ILLEGAL, Literal: "expected b/x/o after #", Line: line, Column: col}
	}
	l.readChar() // consume #
	l.readChar() // consume kind char
	if l.ch != '"' {
		return token.Token{Type: token.ILLEGAL, Literal: "expected opening \" for bits literal", Line: line, Column: col}
	}
	content := l.readQuotedRaw()
	return token.Token{Type: t, Literal: content, Lexeme: content, Line: line, Column: col}
}

func (l *Lexer) readBytesLiteral() token.Token {
	line, col := l.line, l.column
	if l.peekChar() == '"' {
		l.readChar() // consume @
		content := l.readQuotedRaw()
		return token.Token{Type: token.BYTES_STRING, Literal: content, Lexeme: content, Line: line, Column: col}
	}
	var t token.Type
	switch l.peekChar() {
	case 'x':
		t = token.BYTES_HEX
	case 'b':
		t = token.BYTES_BIN
	default:
		l.readChar()
		return token.Token{Type: token.ILLEGAL, Literal: "expected \"/x/b after @", Line: line, Column: col}
	}
	l.readChar() // consume @
	l.readChar() // consume x or b
	if l.ch != '"' {
		return token.Token{Type: token.ILLEGAL, Literal: "expected opening \" for bytes literal", Line: line, Column: col}
	}
	content := l.readQuotedRaw()
	return token.Token{Type: t, Literal: content, Lexeme: content, Line: line, Column: col}
}

func (l *Lexer) readQuotedRaw() string {
	start := l.position + 1
	for {
		l.readChar()
		if l.ch == '"' || l.ch == 0 {
			break
		}
	}
	content := l.input[start:l.position]
	l.readChar() // consume closing "
	return content
}
