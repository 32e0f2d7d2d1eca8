package ast

import "github.com/lumen-lang/lumen/internal/token"

// StmtBase gives every statement (including declarations, which are
// statements too) its source token.
type StmtBase struct {
	Base
}

// NewStmtBase builds a StmtBase anchored at tok.
func NewStmtBase(tok token.Token) StmtBase { return StmtBase{Base: Base{Tok: tok}} }

// ---- Variable / expression / block --------------------------------------

// VarDecl covers both `let` (Mutable=false) and `var` (Mutable=true).
type VarDecl struct {
	StmtBase
	Name    string
	Type    TypeExpr // nil when unannotated
	Init    Expr     // nil when uninitialized
	Mutable bool
}

func (*VarDecl) stmtNode() {}
func (*VarDecl) declNode() {}

type ExprStmt struct {
	StmtBase
	X Expr
}

func (*ExprStmt) stmtNode() {}

type BlockStmt struct {
	StmtBase
	Statements []Stmt
}

func (*BlockStmt) stmtNode() {}

// ---- Control flow --------------------------------------------------------

type IfStmt struct {
	StmtBase
	Cond Expr
	Then *BlockStmt
	Else Stmt // *BlockStmt or *IfStmt (else-if chain), nil if absent
}

func (*IfStmt) stmtNode() {}

type WhileStmt struct {
	StmtBase
	Cond Expr
	Body *BlockStmt
}

func (*WhileStmt) stmtNode() {}

// ForStmt is the C-style `for init; cond; incr { body }`. Any of Init/
// Cond/Incr may be nil.
type ForStmt struct {
	StmtBase
	Init Stmt
	Cond Expr
	Incr Stmt
	Body *BlockStmt
}

func (*ForStmt) stmtNode() {}

// ForInStmt is `for x in iterable { body }`.
type ForInStmt struct {
	StmtBase
	Name     string
	Iterable Expr
	Body     *BlockStmt
}

func (*ForInStmt) stmtNode() {}

type ReturnStmt struct {
	StmtBase
	Value Expr // nil for a bare `return`
}

func (*ReturnStmt) stmtNode() {}

type BreakStmt struct {
	StmtBase
}

func (*BreakStmt) stmtNode() {}

type ContinueStmt struct {
	StmtBase
}

func (*ContinueStmt) stmtNode() {}

type DeferStmt struct {
	StmtBase
	Call *CallExpr
}

func (*DeferStmt) stmtNode() {}

// GuardStmt is `guard cond else { ...divergent block... }`; the
// analyzer requires Else to diverge (return/break/continue/throw).
type GuardStmt struct {
	StmtBase
	Cond Expr
	Else *BlockStmt
}

func (*GuardStmt) stmtNode() {}

type SwitchCase struct {
	Values  []Expr // empty for `default`
	Body    []Stmt
	Default bool
}

type SwitchStmt struct {
	StmtBase
	Subject Expr
	Cases   []SwitchCase
}

func (*SwitchStmt) stmtNode() {}

type ThrowStmt struct {
	StmtBase
	Value Expr
}

func (*ThrowStmt) stmtNode() {}

// DoCatchStmt is `do { ... } catch name { ... }`.
type DoCatchStmt struct {
	StmtBase
	Body      *BlockStmt
	CatchName string
	Catch     *BlockStmt
}

func (*DoCatchStmt) stmtNode() {}

// ---- Declarations --------------------------------------------------------

type Param struct {
	Name    string
	Type    TypeExpr
	Default Expr
}

type FuncDecl struct {
	StmtBase
	Name       string
	Params     []Param
	Result     TypeExpr
	Body       *BlockStmt
	IsAsync    bool
	IsThrowing bool
	Static     bool // true when declared inside a class/struct body as `static func`
	Private    bool
}

func (*FuncDecl) stmtNode() {}
func (*FuncDecl) declNode() {}

type FieldDecl struct {
	Name     string
	Type     TypeExpr
	Default  Expr
	Mutable  bool
	Static   bool
	Private  bool
}

// ClassDecl: `class Name[: Super][: Protocol, ...] { fields; methods }`.
type ClassDecl struct {
	StmtBase
	Name       string
	Super      string
	Protocols  []string
	Fields     []FieldDecl
	Methods    []*FuncDecl
	Extensions []*FuncDecl // methods whose compiled name carries the _ext_ sentinel
}

func (*ClassDecl) stmtNode() {}
func (*ClassDecl) declNode() {}

// StructDecl: `struct Name { field: Type, ... }`, value semantics.
type StructDecl struct {
	StmtBase
	Name   string
	Fields []FieldDecl
}

func (*StructDecl) stmtNode() {}
func (*StructDecl) declNode() {}

type EnumCase struct {
	Name          string
	AssociatedTypes []TypeExpr // payload types for a case like `some(Int)`
	RawValue      Expr        // for raw-value enums, e.g. `case red = 0`
}

type EnumDecl struct {
	StmtBase
	Name    string
	RawType TypeExpr // nil unless the enum declares a raw-value backing type
	Cases   []EnumCase
	Methods []*FuncDecl
}

func (*EnumDecl) stmtNode() {}
func (*EnumDecl) declNode() {}

// ProtocolRequirement is one method or property signature a conforming
// type must provide; no body.
type ProtocolRequirement struct {
	Name   string
	Params []Param
	Result TypeExpr
}

type ProtocolDecl struct {
	StmtBase
	Name         string
	Requirements []ProtocolRequirement
}

func (*ProtocolDecl) stmtNode() {}
func (*ProtocolDecl) declNode() {}

// ExtensionDecl: `extension TypeName { func ... }`; the compiler
// renames each method with the `_ext_` sentinel substring (spec.md
// §4.6) so it installs onto the target's prototype rather than a
// fresh constructor.
type ExtensionDecl struct {
	StmtBase
	TypeName string
	Methods  []*FuncDecl
}

func (*ExtensionDecl) stmtNode() {}
func (*ExtensionDecl) declNode() {}

type TypealiasDecl struct {
	StmtBase
	Name string
	Type TypeExpr
}

func (*TypealiasDecl) stmtNode() {}
func (*TypealiasDecl) declNode() {}

// ---- Import / export ------------------------------------------------------

// ImportKind distinguishes the five import payload shapes spec.md
// §4.4 enumerates.
type ImportKind int

const (
	ImportWhole     ImportKind = iota // import "path" [as alias]
	ImportSpecific                    // import { a, b as c } from "path"
	ImportDefault                     // import name from "path"
	ImportNamespace                   // import * as ns from "path"
	ImportWildcard                    // import * from "path"
)

type ImportSpecifier struct {
	Name  string
	Alias string // empty if no `as`
}

type ImportDecl struct {
	StmtBase
	Kind        ImportKind
	Path        string
	Alias       string // ImportWhole/ImportDefault/ImportNamespace binding name
	Specifiers  []ImportSpecifier
}

func (*ImportDecl) stmtNode() {}
func (*ImportDecl) declNode() {}

// ExportKind distinguishes the four export forms spec.md §4.4 names.
type ExportKind int

const (
	ExportNamed     ExportKind = iota // export { a, b as c }
	ExportDefault                     // export default expr
	ExportAllFrom                     // export * from "path"
	ExportAttached                    // export <decl>
)

type ExportSpecifier struct {
	Name  string
	Alias string
}

type ExportDecl struct {
	StmtBase
	Kind        ExportKind
	Specifiers  []ExportSpecifier
	FromPath    string // ExportAllFrom
	Value       Expr   // ExportDefault
	Attached    Decl   // ExportAttached
}

func (*ExportDecl) stmtNode() {}
func (*ExportDecl) declNode() {}

// ModuleDecl marks the file as belonging to a named module, switching
// the compiler into module-compilation mode (spec.md §4.6).
type ModuleDecl struct {
	StmtBase
	Name string
}

func (*ModuleDecl) stmtNode() {}
func (*ModuleDecl) declNode() {}
