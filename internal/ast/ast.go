// Package ast defines the tagged-union AST produced by the parser and
// annotated by the semantic analyzer.
//
// Grounded on the teacher repo's internal/ast package (three related
// families — Expr/Stmt/Decl — each with a GetToken()-style accessor
// used uniformly by the analyzer's visitor), but expressed as Go
// interfaces implemented by per-kind structs rather than the teacher's
// tagged struct/enum blend, matching spec.md §9's guidance to prefer
// "a trait/interface implemented per visitor, switch on the node's
// tag" over a hand-rolled tagged union with function-pointer tables.
//
// Node lifetime: from parser completion through end of compilation.
// Nodes are built directly as Go values (the Go runtime heap plays the
// role spec.md §4.2 assigns to the AST arena); internal/arena.Arena is
// still used by the parser to account allocation volume for
// diagnostics and leak tracing, matching the bulk-reset contract
// without requiring unsafe manual memory management.
package ast

import (
	"github.com/lumen-lang/lumen/internal/token"
	"github.com/lumen-lang/lumen/internal/types"
)

// Node is implemented by every Expr, Stmt, and Decl so the analyzer
// and compiler visitors can report a source position uniformly.
type Node interface {
	Token() token.Token
}

// Expr is any expression node. Every concrete Expr embeds ExprBase,
// which carries the computed-type slot the semantic analyzer fills in
// (spec.md §3 "computed-type pointer") alongside the source token.
type Expr interface {
	Node
	exprNode()
	Type() types.Type
	SetType(types.Type)
}

// ExprBase gives every expression node its token and a settable
// computed type, mirroring the teacher's GetType()/SetType() pair on
// evaluator.Object but attached to the AST node instead of a runtime
// value, since analysis happens before any value exists. Exported (and
// its NewExprBase constructor) so parser code outside this package can
// build nodes with keyed struct literals.
type ExprBase struct {
	Base
	computed types.Type
}

// NewExprBase builds an ExprBase anchored at tok with an unresolved
// computed type, ready for the analyzer to fill in later.
func NewExprBase(tok token.Token) ExprBase {
	return ExprBase{Base: Base{Tok: tok}, computed: types.Unresolved()}
}

func (e *ExprBase) Type() types.Type     { return e.computed }
func (e *ExprBase) SetType(t types.Type) { e.computed = t }

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is any top-level or nested declaration node. Declarations are
// also statements (a `let`/`func`/`class` can appear wherever a
// statement can), so Decl embeds Stmt.
type Decl interface {
	Stmt
	declNode()
}

// TypeExpr is a parsed type annotation (`Int`, `String?`, `[Int]`,
// `(Int) -> Bool`, …) prior to resolution by the analyzer.
type TypeExpr interface {
	Node
	typeExprNode()
}

// Program is the root of one compiled file: an ordered list of
// top-level statements.
type Program struct {
	Statements []Stmt
	File       string
}

func (p *Program) Token() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].Token()
	}
	return token.Token{}
}

// Base embeds the source token every node needs; concrete node types
// embed Base and get Token() for free.
type Base struct {
	Tok token.Token
}

// NewBase builds a Base anchored at tok.
func NewBase(tok token.Token) Base { return Base{Tok: tok} }

func (b Base) Token() token.Token { return b.Tok }

// ---- Type annotations -------------------------------------------------

type NamedTypeExpr struct {
	Base
	Name string
}

func (*NamedTypeExpr) typeExprNode() {}

type OptionalTypeExpr struct {
	Base
	Wrapped TypeExpr
}

func (*OptionalTypeExpr) typeExprNode() {}

type ArrayTypeExpr struct {
	Base
	Element TypeExpr
}

func (*ArrayTypeExpr) typeExprNode() {}

type DictionaryTypeExpr struct {
	Base
	Key   TypeExpr
	Value TypeExpr
}

func (*DictionaryTypeExpr) typeExprNode() {}

type FunctionTypeExpr struct {
	Base
	Params []TypeExpr
	Result TypeExpr
}

func (*FunctionTypeExpr) typeExprNode() {}

type TupleTypeExpr struct {
	Base
	Elements []TypeExpr
}

func (*TupleTypeExpr) typeExprNode() {}
