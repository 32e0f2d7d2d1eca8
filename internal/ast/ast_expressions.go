package ast

import "github.com/lumen-lang/lumen/internal/token"

// ---- Literals ----------------------------------------------------------

type IntegerLiteral struct {
	ExprBase
	Value int64
}

func (*IntegerLiteral) exprNode() {}

type FloatLiteral struct {
	ExprBase
	Value float64
}

func (*FloatLiteral) exprNode() {}

type StringLiteral struct {
	ExprBase
	Value string
}

func (*StringLiteral) exprNode() {}

// InterpolatedStringExpr holds the alternating literal chunks and
// embedded expressions produced by the lexer's STRING_INTERP_START/
// MID/END protocol (spec.md §4.3). Parts has len(Exprs)+1 entries.
type InterpolatedStringExpr struct {
	ExprBase
	Parts []string
	Exprs []Expr
}

func (*InterpolatedStringExpr) exprNode() {}

type CharLiteral struct {
	ExprBase
	Value rune
}

func (*CharLiteral) exprNode() {}

type BoolLiteral struct {
	ExprBase
	Value bool
}

func (*BoolLiteral) exprNode() {}

type NilLiteral struct {
	ExprBase
}

func (*NilLiteral) exprNode() {}

// BitsLiteral is a `#b"..."`, `#x"..."`, or `#o"..."` bit-pattern
// literal backed by the native $bits module at runtime.
type BitsLiteral struct {
	ExprBase
	Raw  string
	Base int // 2, 8, or 16
}

func (*BitsLiteral) exprNode() {}

// BytesLiteral is an `@"..."`, `@x"..."`, or `@b"..."` byte literal.
type BytesLiteral struct {
	ExprBase
	Raw  string
	Form token.Type // token.BYTES_STRING / BYTES_HEX / BYTES_BIN
}

func (*BytesLiteral) exprNode() {}

type ArrayLiteral struct {
	ExprBase
	Elements []Expr
}

func (*ArrayLiteral) exprNode() {}

type DictionaryEntry struct {
	Key   Expr
	Value Expr
}

type DictionaryLiteral struct {
	ExprBase
	Entries []DictionaryEntry
}

func (*DictionaryLiteral) exprNode() {}

// ---- Names and operators ------------------------------------------------

type Identifier struct {
	ExprBase
	Name string
}

func (*Identifier) exprNode() {}

type SelfExpr struct {
	ExprBase
}

func (*SelfExpr) exprNode() {}

type UnaryExpr struct {
	ExprBase
	Op      token.Type
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// BinaryExpr covers arithmetic, comparison, bitwise, and logical
// (&&/||) operators — the analyzer dispatches on Op, not on a
// proliferation of node kinds (spec.md §4.5 operator table).
type BinaryExpr struct {
	ExprBase
	Op    token.Type
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// NilCoalesceExpr is `lhs ?? rhs`.
type NilCoalesceExpr struct {
	ExprBase
	Left  Expr
	Right Expr
}

func (*NilCoalesceExpr) exprNode() {}

type TernaryExpr struct {
	ExprBase
	Cond Expr
	Then Expr
	Else Expr
}

func (*TernaryExpr) exprNode() {}

// AssignExpr covers `=`, `+=`, `-=`, `*=`, `/=`; Target must resolve
// to an assignable place (identifier, member, or subscript).
type AssignExpr struct {
	ExprBase
	Op     token.Type
	Target Expr
	Value  Expr
}

func (*AssignExpr) exprNode() {}

type PrefixIncDecExpr struct {
	ExprBase
	Op     token.Type // PLUS_PLUS / MINUS_MINUS
	Target Expr
}

func (*PrefixIncDecExpr) exprNode() {}

type PostfixIncDecExpr struct {
	ExprBase
	Op     token.Type
	Target Expr
}

func (*PostfixIncDecExpr) exprNode() {}

// ---- Postfix / access ---------------------------------------------------

type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

func (*CallExpr) exprNode() {}

type SubscriptExpr struct {
	ExprBase
	Target Expr
	Index  Expr
}

func (*SubscriptExpr) exprNode() {}

// MemberExpr is `target.name`; Optional marks a `?.` chain link.
type MemberExpr struct {
	ExprBase
	Target   Expr
	Name     string
	Optional bool
}

func (*MemberExpr) exprNode() {}

// ForceUnwrapExpr is `expr!`.
type ForceUnwrapExpr struct {
	ExprBase
	Target Expr
}

func (*ForceUnwrapExpr) exprNode() {}

// CastExpr is `expr as Type`.
type CastExpr struct {
	ExprBase
	Target     Expr
	TargetType TypeExpr
}

func (*CastExpr) exprNode() {}

// ClosureParam is one parameter of a closure literal.
type ClosureParam struct {
	Name    string
	Type    TypeExpr // nil when unannotated (inferred from context)
	Default Expr
}

// ClosureExpr is `{ (params) -> Result in body }` / `{ params in body }`.
type ClosureExpr struct {
	ExprBase
	Params     []ClosureParam
	Result     TypeExpr
	Body       []Stmt
	IsAsync    bool
	IsThrowing bool
}

func (*ClosureExpr) exprNode() {}

// AwaitExpr is `await expr` (spec.md §9 Open Question (d): the VM
// runs it as a synchronous pass-through — see DESIGN.md).
type AwaitExpr struct {
	ExprBase
	Operand Expr
}

func (*AwaitExpr) exprNode() {}

// StructLiteralExpr is `Point(x: 1, y: 2)` construction syntax.
type StructLiteralArg struct {
	Name  string
	Value Expr
}

type StructLiteralExpr struct {
	ExprBase
	TypeName string
	Args     []StructLiteralArg
}

func (*StructLiteralExpr) exprNode() {}

// GroupExpr is a parenthesized expression kept as its own node so the
// compiler/analyzer can distinguish `(a, b)` tuple literals from a
// single parenthesized expression when Elements has len 1.
type GroupExpr struct {
	ExprBase
	Elements []Expr
}

func (*GroupExpr) exprNode() {}
