// Package token defines the lexical token set produced by the lexer
// and consumed by the parser. Grounded on the teacher repo's
// internal/token package (Token{Type, Lexeme, Literal, Line, Column}
// shape) and expanded with the interpolation-marker and bit/byte
// literal tags spec.md §3/§4.3 require.
package token

import "fmt"

// Type is a closed set of token tags.
type Type int

const (
	ILLEGAL Type = iota
	EOF

	// Literals
	IDENT
	INT
	FLOAT
	STRING
	CHAR

	// String interpolation re-entry markers (spec.md §3, §4.3)
	STRING_INTERP_START
	STRING_INTERP_MID
	STRING_INTERP_END

	// Bit/byte literal families
	BITS_BIN
	BITS_HEX
	BITS_OCT
	BYTES_STRING
	BYTES_HEX
	BYTES_BIN

	// Keywords
	LET
	VAR
	FUNC
	RETURN
	IF
	ELSE
	WHILE
	FOR
	IN
	BREAK
	CONTINUE
	DEFER
	GUARD
	SWITCH
	CASE
	DEFAULT
	THROW
	DO
	CATCH
	CLASS
	STRUCT
	ENUM
	PROTOCOL
	EXTENSION
	TYPEALIAS
	IMPORT
	EXPORT
	MODULE
	AS
	FROM
	TRUE
	FALSE
	NIL
	AWAIT
	ASYNC
	SELF
	AND_KW
	OR_KW

	// Punctuators
	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN
	STAR_ASSIGN
	SLASH_ASSIGN
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	BANG
	TILDE
	AMP
	PIPE
	CARET
	SHL
	SHR
	EQ
	NEQ
	LT
	GT
	LE
	GE
	AND
	OR
	QUESTION
	QUESTION_QUESTION
	OPTIONAL_CHAIN
	DOT
	COMMA
	COLON
	SEMICOLON
	ARROW
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	PLUS_PLUS
	MINUS_MINUS
	NEWLINE
	AT
)

var names = map[Type]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", IDENT: "IDENT", INT: "INT", FLOAT: "FLOAT",
	STRING: "STRING", CHAR: "CHAR",
	STRING_INTERP_START: "STRING_INTERP_START", STRING_INTERP_MID: "STRING_INTERP_MID", STRING_INTERP_END: "STRING_INTERP_END",
	BITS_BIN: "BITS_BIN", BITS_HEX: "BITS_HEX", BITS_OCT: "BITS_OCT",
	BYTES_STRING: "BYTES_STRING", BYTES_HEX: "BYTES_HEX", BYTES_BIN: "BYTES_BIN",
	LET: "let", VAR: "var", FUNC: "func", RETURN: "return", IF: "if", ELSE: "else",
	WHILE: "while", FOR: "for", IN: "in", BREAK: "break", CONTINUE: "continue",
	DEFER: "defer", GUARD: "guard", SWITCH: "switch", CASE: "case", DEFAULT: "default",
	THROW: "throw", DO: "do", CATCH: "catch", CLASS: "class", STRUCT: "struct",
	ENUM: "enum", PROTOCOL: "protocol", EXTENSION: "extension", TYPEALIAS: "typealias",
	IMPORT: "import", EXPORT: "export", MODULE: "module", AS: "as", FROM: "from",
	TRUE: "true", FALSE: "false", NIL: "nil", AWAIT: "await", ASYNC: "async", SELF: "self",
	ASSIGN: "=", PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=", STAR_ASSIGN: "*=", SLASH_ASSIGN: "/=",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%", BANG: "!", TILDE: "~",
	AMP: "&", PIPE: "|", CARET: "^", SHL: "<<", SHR: ">>",
	EQ: "==", NEQ: "!=", LT: "<", GT: ">", LE: "<=", GE: ">=", AND: "&&", OR: "||",
	QUESTION: "?", QUESTION_QUESTION: "??", OPTIONAL_CHAIN: "?.",
	DOT: ".", COMMA: ",", COLON: ":", SEMICOLON: ";", ARROW: "->",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}", LBRACKET: "[", RBRACKET: "]",
	PLUS_PLUS: "++", MINUS_MINUS: "--", NEWLINE: "\\n", AT: "@",
}

func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

var keywords = map[string]Type{
	"let": LET, "var": VAR, "func": FUNC, "return": RETURN,
	"if": IF, "else": ELSE, "while": WHILE, "for": FOR, "in": IN,
	"break": BREAK, "continue": CONTINUE, "defer": DEFER, "guard": GUARD,
	"switch": SWITCH, "case": CASE, "default": DEFAULT, "throw": THROW,
	"do": DO, "catch": CATCH, "class": CLASS, "struct": STRUCT, "enum": ENUM,
	"protocol": PROTOCOL, "extension": EXTENSION, "typealias": TYPEALIAS,
	"import": IMPORT, "export": EXPORT, "module": MODULE, "as": AS, "from": FROM,
	"true": TRUE, "false": FALSE, "nil": NIL, "await": AWAIT, "async": ASYNC,
	"self": SELF,
}

// LookupIdent classifies a lexeme as a keyword or a plain identifier.
func LookupIdent(ident string) Type {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}

// Token is one lexical unit: its tag, the exact source slice, its
// position, and a value carrier used for literal payloads (spec.md
// §3 Token). Literal holds an int64, float64, string, or rune
// depending on Type.
type Token struct {
	Type    Type
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) @%d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}
