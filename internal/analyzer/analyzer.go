// Package analyzer implements the semantic analysis pass spec.md §4.5
// describes: declare every name, resolve every use, compute and stamp
// an expression's type onto its AST node, check assignability and
// context rules (return only in a function, break/continue only in a
// loop, assignment only to a mutable binding), register imported
// symbols, and emit unused/uninitialized-mutable warnings.
//
// Grounded on the teacher repo's internal/analyzer walker (a single
// visitor carrying a *diagnostics.DiagnosticError sink and a symbol
// table, walking the AST twice: once to hoist top-level declarations
// so forward references resolve, once to check bodies in source
// order) — the type-checking rules themselves come from spec.md §4.5's
// operator and assignability tables rather than the teacher's
// Hindley-Milner unifier.
package analyzer

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/symbols"
	"github.com/lumen-lang/lumen/internal/token"
	"github.com/lumen-lang/lumen/internal/types"
)

// Analyzer holds the state one analysis run shares across its visitor
// methods.
type Analyzer struct {
	diags *diagnostics.Diagnostics
	file  string
	syms  *symbols.Table
	ctx   *types.Context

	currentClass *types.Type // non-nil while walking a class/struct body, for `self`
	loopDepth    int
}

// Result is what a completed analysis hands to the compiler: the type
// context (so the compiler can look up struct/class/enum shapes when
// lowering constructors and method calls) and whether the run
// succeeded (no ERROR/FATAL diagnostics).
type Result struct {
	Types *types.Context
	OK    bool
}

// New creates an Analyzer reporting into diags for source file file.
func New(diags *diagnostics.Diagnostics, file string) *Analyzer {
	return &Analyzer{
		diags: diags,
		file:  file,
		syms:  symbols.NewTable(),
		ctx:   types.NewContext(),
	}
}

// Analyze runs the two-pass walk over prog: hoist, then check.
func (a *Analyzer) Analyze(prog *ast.Program) Result {
	a.hoistDecls(prog.Statements)
	for _, s := range prog.Statements {
		a.visitStmt(s)
	}
	a.reportUnused(a.syms.CurrentScope())
	return Result{Types: a.ctx, OK: !a.diags.HasErrors()}
}

func (a *Analyzer) loc(tok token.Token) diagnostics.Location {
	return diagnostics.Location{File: a.file, Line: tok.Line, Column: tok.Column, Length: len(tok.Lexeme)}
}

func (a *Analyzer) errorf(tok token.Token, code diagnostics.Code, msg string) {
	a.diags.Report(diagnostics.Error, code, a.loc(tok), msg, "")
}

func (a *Analyzer) warnf(tok token.Token, code diagnostics.Code, msg string) {
	a.diags.Report(diagnostics.Warning, code, a.loc(tok), msg, "")
}

// reportUnused walks one finished scope's symbols and warns for every
// var/let never read (spec.md §4.5(h)); uninitialized mutables that
// were never assigned before use are flagged at resolve time instead
// (see resolveIdent), since that is where the read actually happens.
func (a *Analyzer) reportUnused(scope *symbols.Scope) {
	for _, sym := range a.syms.UnusedSymbols(scope) {
		a.diags.Report(diagnostics.Warning, diagnostics.ErrNameDuplicate, diagnostics.Location{File: a.file, Line: sym.DeclaredLine, Column: sym.DeclaredCol},
			"unused variable '"+sym.Name+"'", "prefix with '_' or remove the declaration")
	}
}

// resolveType turns a parsed TypeExpr into a nominal types.Type,
// looking up named types in the context and defaulting to Unresolved
// (reported once) for anything undeclared.
func (a *Analyzer) resolveType(te ast.TypeExpr) types.Type {
	if te == nil {
		return types.Unresolved()
	}
	switch t := te.(type) {
	case *ast.NamedTypeExpr:
		if resolved, ok := a.ctx.Lookup(t.Name); ok {
			return resolved
		}
		a.errorf(t.Token(), diagnostics.ErrNameUndeclared, "unknown type '"+t.Name+"'")
		return types.Unresolved()
	case *ast.OptionalTypeExpr:
		return types.Optional(a.resolveType(t.Wrapped))
	case *ast.ArrayTypeExpr:
		return types.Array(a.resolveType(t.Element))
	case *ast.DictionaryTypeExpr:
		return types.Dictionary(a.resolveType(t.Key), a.resolveType(t.Value))
	case *ast.FunctionTypeExpr:
		params := make([]types.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = a.resolveType(p)
		}
		return types.Function(params, a.resolveType(t.Result), false, false)
	case *ast.TupleTypeExpr:
		elems := make([]types.Type, len(t.Elements))
		for i, e := range t.Elements {
			elems[i] = a.resolveType(e)
		}
		return types.Tuple(elems)
	default:
		return types.Unresolved()
	}
}
